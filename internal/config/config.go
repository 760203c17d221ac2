// Package config defines the data structures related to configuration and
// includes functions for loading and parsing the config.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/iwvelando/loan-compare/pkg/constants"
	"github.com/iwvelando/loan-compare/pkg/loans"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// OpenAIKeyEnv is read when report.apiKey is not configured.
const OpenAIKeyEnv = "OPENAI_API_KEY"

// Configuration holds all configuration for loan-compare.
type Configuration struct {
	Logging LoggingConfig  `yaml:"logging,omitempty" mapstructure:"logging"`
	Output  OutputConfig   `yaml:"output,omitempty" mapstructure:"output"`
	Server  ServerConfig   `yaml:"server,omitempty" mapstructure:"server"`
	Storage StorageConfig  `yaml:"storage,omitempty" mapstructure:"storage"`
	Cache   CacheConfig    `yaml:"cache,omitempty" mapstructure:"cache"`
	Report  ReportConfig   `yaml:"report,omitempty" mapstructure:"report"`
	Auth    AuthConfig     `yaml:"auth,omitempty" mapstructure:"auth"`
	Options []OptionConfig `yaml:"options,omitempty" mapstructure:"options"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty" mapstructure:"level"`           // debug, info, warn, error
	Format     string `yaml:"format,omitempty" mapstructure:"format"`         // json, console
	OutputFile string `yaml:"outputFile,omitempty" mapstructure:"outputFile"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `yaml:"format,omitempty" mapstructure:"format"` // pretty, csv
}

// ServerConfig defines runtime parameters for the HTTP server.
type ServerConfig struct {
	Address         string          `yaml:"address,omitempty" mapstructure:"address"`
	MaxBodySize     string          `yaml:"maxBodySize,omitempty" mapstructure:"maxBodySize"`
	ShutdownTimeout time.Duration   `yaml:"shutdownTimeout,omitempty" mapstructure:"shutdownTimeout"`
	RateLimit       RateLimitConfig `yaml:"rateLimit,omitempty" mapstructure:"rateLimit"`

	maxBodySizeBytes int64
}

// RateLimitConfig is the per-client token bucket applied to API requests.
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requestsPerSecond,omitempty" mapstructure:"requestsPerSecond"`
	Burst             int     `yaml:"burst,omitempty" mapstructure:"burst"`
}

// StorageConfig selects where finance options are persisted.
type StorageConfig struct {
	Driver string `yaml:"driver,omitempty" mapstructure:"driver"` // memory, sqlite, postgres
	Path   string `yaml:"path,omitempty" mapstructure:"path"`     // sqlite database file
	DSN    string `yaml:"dsn,omitempty" mapstructure:"dsn"`       // postgres connection string
}

// CacheConfig selects the comparative report cache.
type CacheConfig struct {
	Driver   string        `yaml:"driver,omitempty" mapstructure:"driver"` // none, memory, redis
	Address  string        `yaml:"address,omitempty" mapstructure:"address"`
	Password string        `yaml:"password,omitempty" mapstructure:"password"`
	DB       int           `yaml:"db,omitempty" mapstructure:"db"`
	TTL      time.Duration `yaml:"ttl,omitempty" mapstructure:"ttl"`
}

// ReportConfig configures the comparative report generator.
type ReportConfig struct {
	Provider    string        `yaml:"provider,omitempty" mapstructure:"provider"` // openai, static
	APIURL      string        `yaml:"apiURL,omitempty" mapstructure:"apiURL"`
	APIKey      string        `yaml:"apiKey,omitempty" mapstructure:"apiKey"`
	Model       string        `yaml:"model,omitempty" mapstructure:"model"`
	MaxTokens   int           `yaml:"maxTokens,omitempty" mapstructure:"maxTokens"`
	Timeout     time.Duration `yaml:"timeout,omitempty" mapstructure:"timeout"`
	MaxAttempts int           `yaml:"maxAttempts,omitempty" mapstructure:"maxAttempts"`
	BaseDelay   time.Duration `yaml:"baseDelay,omitempty" mapstructure:"baseDelay"`
}

// AuthConfig holds the bearer token signing parameters.
type AuthConfig struct {
	Secret   string        `yaml:"secret,omitempty" mapstructure:"secret"`
	TokenTTL time.Duration `yaml:"tokenTTL,omitempty" mapstructure:"tokenTTL"`
}

// OptionConfig is a finance option listed in the configuration file for the CLI.
type OptionConfig struct {
	SourceName      string `yaml:"financeSourceName" mapstructure:"financeSourceName"`
	loans.LoanInput `yaml:",inline" mapstructure:",squash"`
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there.
func LoadConfiguration(configPath string) (*Configuration, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file, %s", err)
	}
	return LoadConfigurationFromReader(bytes.NewReader(data))
}

// LoadConfigurationFromReader loads YAML configuration from r. Environment variables prefixed
// with LOANCOMPARE_ override scalar keys, e.g. LOANCOMPARE_SERVER_ADDRESS.
func LoadConfigurationFromReader(r io.Reader) (*Configuration, error) {
	v := newViper()

	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("error reading config data, %s", err)
	}

	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %s", err)
	}

	if configuration.Report.APIKey == "" {
		configuration.Report.APIKey = os.Getenv(OpenAIKeyEnv)
	}

	if err := configuration.Normalize(); err != nil {
		return nil, err
	}
	return &configuration, nil
}

// Default returns the configuration used when no file is present: every default applied and
// environment overrides honoured.
func Default() (*Configuration, error) {
	return LoadConfigurationFromReader(strings.NewReader(""))
}

// LoadDotEnv loads KEY=value pairs from path into the process environment. Variables that are
// already set win. A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.outputFile", "")
	v.SetDefault("output.format", constants.OutputFormatPretty)

	v.SetDefault("server.address", constants.DefaultServerAddress)
	v.SetDefault("server.maxBodySize", fmt.Sprintf("%d", constants.DefaultMaxBodySizeBytes))
	v.SetDefault("server.shutdownTimeout", constants.DefaultShutdownTimeout)
	v.SetDefault("server.rateLimit.requestsPerSecond", constants.DefaultRequestsPerSecond)
	v.SetDefault("server.rateLimit.burst", constants.DefaultRateBurst)

	v.SetDefault("storage.driver", constants.StorageMemory)
	v.SetDefault("storage.path", constants.DefaultSQLitePath)
	v.SetDefault("storage.dsn", "")

	v.SetDefault("cache.driver", constants.CacheMemory)
	v.SetDefault("cache.address", "localhost:6379")
	v.SetDefault("cache.password", "")
	v.SetDefault("cache.db", 0)
	v.SetDefault("cache.ttl", constants.DefaultCacheTTL)

	v.SetDefault("report.provider", constants.ReportProviderOpenAI)
	v.SetDefault("report.apiURL", constants.DefaultReportAPIURL)
	v.SetDefault("report.apiKey", "")
	v.SetDefault("report.model", constants.DefaultReportModel)
	v.SetDefault("report.maxTokens", constants.DefaultReportMaxTokens)
	v.SetDefault("report.timeout", constants.DefaultReportTimeout)
	v.SetDefault("report.maxAttempts", constants.DefaultReportMaxAttempts)
	v.SetDefault("report.baseDelay", constants.DefaultReportBaseDelay)

	v.SetDefault("auth.secret", "")
	v.SetDefault("auth.tokenTTL", constants.DefaultTokenTTL)

	return v
}

// Normalize fills zero values with defaults and parses human-friendly sizes.
func (c *Configuration) Normalize() error {
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Output.Format = strings.ToLower(strings.TrimSpace(c.Output.Format))
	c.Storage.Driver = strings.ToLower(strings.TrimSpace(c.Storage.Driver))
	c.Cache.Driver = strings.ToLower(strings.TrimSpace(c.Cache.Driver))
	c.Report.Provider = strings.ToLower(strings.TrimSpace(c.Report.Provider))

	if c.Report.Timeout <= 0 {
		c.Report.Timeout = constants.DefaultReportTimeout
	}
	if c.Report.MaxAttempts <= 0 {
		c.Report.MaxAttempts = 1
	}
	if c.Report.MaxTokens <= 0 {
		c.Report.MaxTokens = constants.DefaultReportMaxTokens
	}
	if c.Cache.TTL <= 0 {
		c.Cache.TTL = constants.DefaultCacheTTL
	}
	if c.Auth.TokenTTL <= 0 {
		c.Auth.TokenTTL = constants.DefaultTokenTTL
	}

	return c.Server.normalize()
}
