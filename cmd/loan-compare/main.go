package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/iwvelando/loan-compare/internal/cache"
	"github.com/iwvelando/loan-compare/internal/config"
	"github.com/iwvelando/loan-compare/internal/finance"
	"github.com/iwvelando/loan-compare/internal/logging"
	"github.com/iwvelando/loan-compare/internal/report"
	"github.com/iwvelando/loan-compare/internal/service"
	"github.com/iwvelando/loan-compare/internal/storage"
	"github.com/iwvelando/loan-compare/pkg/constants"
	"github.com/iwvelando/loan-compare/pkg/loans"
	"github.com/iwvelando/loan-compare/pkg/output"
	"github.com/iwvelando/loan-compare/pkg/validation"
	"go.uber.org/zap"
)

func main() {
	// Process command line flags first to get config location
	configLocation := flag.String("config", constants.DefaultConfigFile, "path to configuration file")
	outputFormatFlag := flag.String("output-format", "", "type of output override: pretty, csv")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	withReport := flag.Bool("report", false, "also generate a comparative report across the options")
	envFile := flag.String("env", ".env", "path to an optional .env file")
	flag.Parse()

	if err := config.LoadDotEnv(*envFile); err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load environment file\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
	}

	conf, err := config.LoadConfiguration(*configLocation)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load configuration at %s\", \"error\": \"%v\"}\n", *configLocation, err)
		os.Exit(1)
	}

	logger, err := logging.New(conf.Logging, *logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	// Determine output format (CLI override takes precedence over config)
	outputFormat := conf.Output.Format
	if *outputFormatFlag != "" {
		outputFormat = *outputFormatFlag
	}
	if outputFormat == "" {
		outputFormat = constants.OutputFormatPretty
	}
	if err := validation.ValidateOutputFormat(outputFormat); err != nil {
		logger.Fatal(err.Error(),
			zap.String("op", "main"),
		)
	}

	for _, warning := range conf.ValidateConfiguration() {
		logger.Warn("Configuration warning: "+warning,
			zap.String("op", "main"),
		)
	}

	if err := conf.ValidateOptions(); err != nil {
		logger.Fatal("invalid finance options",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	options := buildOptions(conf, time.Now())

	switch outputFormat {
	case constants.OutputFormatPretty:
		output.PrettyFormat(os.Stdout, options)
	case constants.OutputFormatCSV:
		if err := output.CsvFormat(os.Stdout, options); err != nil {
			logger.Fatal("failed to write csv output",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}
	}

	if !*withReport {
		return
	}

	text, err := comparativeReport(conf, options, logger)
	if err != nil {
		logger.Fatal("failed to generate comparative report",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
	fmt.Printf("\n--- Comparative report ---\n%s\n", text)
}

// buildOptions computes the loan terms of every configured option concurrently.
func buildOptions(conf *config.Configuration, now time.Time) []finance.Option {
	results := loans.ComputeAll(conf.LoanInputs())

	options := make([]finance.Option, len(conf.Options))
	for i, oc := range conf.Options {
		options[i] = finance.Option{
			SourceName: oc.SourceName,
			Input:      oc.LoanInput,
			Result:     results[i],
			CreatedAt:  now,
			UpdatedAt:  now,
		}
	}
	return options
}

func comparativeReport(conf *config.Configuration, options []finance.Option, logger *zap.Logger) (string, error) {
	reportCache, err := cache.New(conf.Cache, logger)
	if err != nil {
		return "", err
	}
	if closer, ok := reportCache.(io.Closer); ok {
		defer func() {
			_ = closer.Close()
		}()
	}

	generator := report.New(conf.Report, reportCache, logger)
	svc := service.New(storage.NewMemory(), generator, logger, conf.Report.Timeout)

	offers := make([]report.Offer, len(options))
	for i, option := range options {
		terms := option.Result
		offers[i] = report.Offer{SourceName: option.SourceName, LoanInput: option.Input, LoanTerms: &terms}
	}
	return svc.CompareOffers(context.Background(), offers)
}
