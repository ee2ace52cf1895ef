package main

import (
	"flag"
	"fmt"

	"github.com/Netflix/go-env"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Addr          string `env:"TCHAT_ADDR,default=127.0.0.1:8080" validate:"required,hostname_port"`
	Backlog       int    `env:"TCHAT_BACKLOG,default=100" validate:"min=1"`
	MaxLineLength int    `env:"TCHAT_MAX_LINE,default=65536" validate:"min=64"`
	LogLevel      string `env:"TCHAT_LOG_LEVEL,default=INFO" validate:"oneof=DEBUG INFO WARN ERROR"`
	Announce      string `env:"TCHAT_ANNOUNCE"`
}

// loadConfig reads an optional .env file, then the environment, then args.
// Flags win over environment variables.
func loadConfig(args []string) (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: environment: %w", err)
	}

	fs := flag.NewFlagSet("tchat", flag.ContinueOnError)
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "TCP address for the chat server")
	fs.IntVar(&cfg.Backlog, "backlog", cfg.Backlog, "Undelivered events kept per client before the oldest are dropped")
	fs.IntVar(&cfg.MaxLineLength, "max-line", cfg.MaxLineLength, "Longest accepted client line in bytes")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (DEBUG, INFO, WARN, ERROR)")
	fs.StringVar(&cfg.Announce, "announce", cfg.Announce, `Cron schedule for "users online" announcements, e.g. "@every 10m"`)
	if err := fs.Parse(args); err != nil {
		return Config{}, fmt.Errorf("config: flags: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}
