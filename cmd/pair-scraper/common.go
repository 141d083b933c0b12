package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/Sriram-PR/pair-scraper/pkg/config"
	applog "github.com/Sriram-PR/pair-scraper/pkg/log"
	"github.com/Sriram-PR/pair-scraper/pkg/orchestrate"
)

// setupLogger logs to stderr so stdout carries results (and the MCP stdio protocol)
func setupLogger(level string, stderr io.Writer) *logrus.Logger {
	return applog.New(level, stderr)
}

// loadAndValidateConfig reads the config file, applies defaults and logs warnings
func loadAndValidateConfig(path string, log *logrus.Logger) (*config.AppConfig, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	warnings, err := cfg.Validate()
	for _, w := range warnings {
		log.Warn(w)
	}
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadCredentials reads content store credentials; a missing env file is fine
func loadCredentials(envFile string) (config.Credentials, error) {
	if envFile == "" {
		return config.LoadCredentials()
	}
	if _, err := os.Stat(envFile); errors.Is(err, os.ErrNotExist) {
		return config.LoadCredentials()
	}
	return config.LoadCredentials(envFile)
}

// signalContext is canceled on SIGINT or SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// setup loads config and credentials and wires an orchestrator.
// Commands that never upload pass withLedger=false so the ledger is not opened.
func setup(ctx context.Context, opts *globalOptions, stderr io.Writer, withLedger bool) (*config.AppConfig, *orchestrate.Orchestrator, *logrus.Logger, error) {
	log := setupLogger(opts.logLevel, stderr)
	cfg, err := loadAndValidateConfig(opts.configFile, log)
	if err != nil {
		return nil, nil, nil, err
	}
	if !withLedger {
		cfg.Upload.EnableLedger = false
	}
	creds, err := loadCredentials(opts.envFile)
	if err != nil {
		return nil, nil, nil, err
	}
	o, err := orchestrate.Build(ctx, cfg, creds, log)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, o, log, nil
}

// printResult writes the result as JSON and turns a failed run into an error
func printResult(w io.Writer, res orchestrate.Result) error {
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(w, string(data))
	if !res.OK() {
		return errors.New(res.Message)
	}
	return nil
}
