// Package main runs the interactive leads assistant.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/minhyannv/sql-agent-go/pkg/agent"
	configpkg "github.com/minhyannv/sql-agent-go/pkg/config"
	loggerpkg "github.com/minhyannv/sql-agent-go/pkg/logger"
)

// main is the program entry point.
func main() {
	config, err := loadConfig()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	appLogger := loggerpkg.NewWriterLogger(os.Stderr)
	app, err := agent.New(ctx, config, agent.WithLogger(appLogger), agent.WithOutput(os.Stdout))
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	err = runREPL(ctx, app, replOptions{
		Verbose: config.Verbose,
		Logger:  appLogger,
	}, os.Stdin, os.Stdout)
	if closeErr := app.Close(); closeErr != nil {
		loggerpkg.Warn(appLogger, "close warehouse client", closeErr)
	}
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads .env (if present) and the environment.
func loadConfig() (configpkg.Config, error) {
	_ = godotenv.Load()

	cfg := configpkg.FromEnv(os.Getenv)
	if err := cfg.Validate(); err != nil {
		return configpkg.Config{}, err
	}
	return cfg, nil
}
