// Command automl serves the AutoML workflow over HTTP.
//
// Usage:
//
//	automl [-config automl.yaml] [-log-level debug]
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/YuminosukeSato/automl/artifact"
	"github.com/YuminosukeSato/automl/auth"
	"github.com/YuminosukeSato/automl/automl"
	"github.com/YuminosukeSato/automl/pkg/config"
	"github.com/YuminosukeSato/automl/pkg/log"
	"github.com/YuminosukeSato/automl/profiling"
	"github.com/YuminosukeSato/automl/server"
	"github.com/YuminosukeSato/automl/session"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	logLevel := flag.String("log-level", "", "overrides logging.level (debug, info, warn, error)")
	flag.Parse()

	if err := run(*configPath, *logLevel); err != nil {
		fmt.Fprintf(os.Stderr, "automl: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, logLevel string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	logger, err := log.SetupLogger(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Backend)
	if err != nil {
		return err
	}

	engine := automl.NewEngine(
		automl.WithRandomState(cfg.Training.RandomState),
		automl.WithMaxClasses(cfg.Training.MaxClasses),
		automl.WithMaxIter(cfg.Training.MaxIter),
		automl.WithParallel(cfg.Training.Parallel),
		automl.WithLogger(logger.With(log.ComponentKey, "automl")),
	)

	coord, err := session.New(session.Config{
		Credentials: auth.NewFileStore(cfg.CredentialsPath(), cfg.Auth.BcryptCost),
		Searcher:    engine,
		Artifacts:   artifact.NewStore(cfg.ModelDir()),
		Profiler:    profiling.New(),
		DatasetPath: cfg.DatasetPath(),
		Logger:      logger.With(log.ComponentKey, "session"),
	})
	if err != nil {
		return err
	}

	srv := server.New(coord, logger.With(log.ComponentKey, "http"), server.Options{
		Addr:                 cfg.Addr(),
		ReadTimeout:          cfg.Server.ReadTimeout,
		WriteTimeout:         cfg.Server.WriteTimeout,
		MaxUploadBytes:       cfg.Server.MaxUploadBytes,
		DefaultTrainFraction: cfg.Training.DefaultTrainFraction,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Info("Signal received", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", err)
		return err
	}
	logger.Info("Server exited")
	return nil
}
