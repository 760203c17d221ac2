// Package constants provides shared constants for the loan-compare application.
package constants

import "time"

// Financial constants
const (
	// MonthsPerYear is the number of months in a year
	MonthsPerYear = 12

	// DecimalPrecision is the precision for currency rounding (2 decimal places)
	DecimalPrecision = 100

	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100.0

	// CurrencySymbol prefixes every rendered amount (Naira)
	CurrencySymbol = "N"

	// MaxLoanTermMonths is the longest accepted loan term (100 years)
	MaxLoanTermMonths = 1200
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// EnvPrefix prefixes environment variable overrides (LOANCOMPARE_SERVER_ADDRESS, ...)
	EnvPrefix = "LOANCOMPARE"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address for the API
	DefaultServerAddress = ":8080"

	// DefaultMaxBodySizeBytes is the default maximum request body size (256 KB)
	DefaultMaxBodySizeBytes int64 = 256 * 1024

	// DefaultRequestsPerSecond is the sustained per-client request rate
	DefaultRequestsPerSecond = 5.0

	// DefaultRateBurst is the per-client burst allowance
	DefaultRateBurst = 10

	// DefaultShutdownTimeout bounds how long in-flight requests may run after a shutdown signal
	DefaultShutdownTimeout = 10 * time.Second
)

// Storage drivers
const (
	StorageMemory   = "memory"
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"

	// DefaultSQLitePath is used when the sqlite driver is selected without a path
	DefaultSQLitePath = "loan-compare.db"
)

// Cache drivers
const (
	CacheNone   = "none"
	CacheMemory = "memory"
	CacheRedis  = "redis"

	// DefaultCacheTTL is how long a generated report is reused for identical options
	DefaultCacheTTL = 15 * time.Minute
)

// Report providers
const (
	ReportProviderOpenAI = "openai"
	ReportProviderStatic = "static"

	// DefaultReportAPIURL is the chat-completions endpoint used by the openai provider
	DefaultReportAPIURL = "https://api.openai.com/v1/chat/completions"

	// DefaultReportModel is the model requested from the provider
	DefaultReportModel = "gpt-4o-mini"

	// DefaultReportMaxTokens bounds the length of a generated report
	DefaultReportMaxTokens = 1200

	// DefaultReportMaxAttempts is the number of tries before a report failure is surfaced
	DefaultReportMaxAttempts = 3

	// DefaultReportTimeout bounds a single comparative report request
	DefaultReportTimeout = 30 * time.Second

	// DefaultReportBaseDelay is the first retry delay; it doubles on every attempt
	DefaultReportBaseDelay = 500 * time.Millisecond
)

// Auth constants
const (
	// MinAuthSecretLength is the shortest HS256 secret accepted without a warning
	MinAuthSecretLength = 32

	// DefaultTokenTTL is the lifetime of tokens issued by the token command
	DefaultTokenTTL = 24 * time.Hour
)
