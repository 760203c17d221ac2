package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iwvelando/loan-compare/internal/auth"
	"github.com/iwvelando/loan-compare/internal/cache"
	"github.com/iwvelando/loan-compare/internal/config"
	"github.com/iwvelando/loan-compare/internal/logging"
	"github.com/iwvelando/loan-compare/internal/report"
	"github.com/iwvelando/loan-compare/internal/server"
	"github.com/iwvelando/loan-compare/internal/service"
	"github.com/iwvelando/loan-compare/internal/storage"
	"github.com/iwvelando/loan-compare/pkg/constants"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	configLocation := flag.String("config", constants.DefaultConfigFile, "path to configuration file; defaults and environment are used when it is missing")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	envFile := flag.String("env", ".env", "path to an optional .env file")
	issueToken := flag.String("issue-token", "", "print a bearer token for the given user id and exit")
	flag.Parse()

	if err := config.LoadDotEnv(*envFile); err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load environment file\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
	}

	conf, err := loadConfiguration(*configLocation)
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

	var verifier *auth.Verifier
	if conf.Auth.Secret != "" {
		verifier, err = auth.NewVerifier(conf.Auth.Secret)
		if err != nil {
			logger.Fatal("failed to configure authentication",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}
	}

	if *issueToken != "" {
		if verifier == nil {
			logger.Fatal("auth.secret must be set to issue tokens", zap.String("op", "main"))
		}
		token, err := verifier.Issue(*issueToken, conf.Auth.TokenTTL)
		if err != nil {
			logger.Fatal("failed to issue token",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}
		fmt.Println(token)
		return
	}

	for _, warning := range conf.ValidateConfiguration() {
		logger.Warn("Configuration warning: "+warning,
			zap.String("op", "main"),
		)
	}

	if err := run(conf, verifier, logger); err != nil {
		logger.Fatal("server stopped with error",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
}

func loadConfiguration(path string) (*config.Configuration, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return config.Default()
	}
	return config.LoadConfiguration(path)
}

func run(conf *config.Configuration, verifier *auth.Verifier, logger *zap.Logger) error {
	startCtx, cancelStart := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStart()

	store, err := storage.New(startCtx, conf.Storage, logger)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("failed to close storage", zap.String("op", "main.run"), zap.Error(err))
		}
	}()

	reportCache, err := cache.New(conf.Cache, logger)
	if err != nil {
		return fmt.Errorf("failed to configure cache: %w", err)
	}
	if closer, ok := reportCache.(io.Closer); ok {
		defer func() {
			_ = closer.Close()
		}()
	}

	generator := report.New(conf.Report, reportCache, logger)
	svc := service.New(store, generator, logger, conf.Report.Timeout)

	srv := &http.Server{
		Addr:              conf.Server.Address,
		Handler:           server.NewHandler(logger, svc, verifier, conf.Server, version),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      conf.Report.Timeout + 15*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server listening",
			zap.String("op", "main.run"),
			zap.String("address", conf.Server.Address),
			zap.String("storage", conf.Storage.Driver),
			zap.String("version", version),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-serverErr:
		return err
	case sig := <-quit:
		logger.Info("shutting down server",
			zap.String("op", "main.run"),
			zap.String("signal", sig.String()),
		)
	}

	ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	logger.Info("server exited", zap.String("op", "main.run"))
	return nil
}
