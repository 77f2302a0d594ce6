package server

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/richinsley/nodegen/client"
)

// Config holds everything needed to run the API server. Values are layered:
// defaults, then a .env file, then NODEGEN_* environment variables, then
// command line flags.
type Config struct {
	ListenAddr  string
	EventsAddr  string
	DatabaseURL string

	Endpoint string
	Model    string
	Referer  string

	LogLevel  string
	LogFormat string
}

func DefaultConfig() Config {
	return Config{
		ListenAddr: ":8080",
		EventsAddr: ":8081",
		Endpoint:   client.DefaultEndpoint,
		Model:      client.DefaultModel,
		Referer:    client.DefaultReferer,
		LogLevel:   "info",
		LogFormat:  "text",
	}
}

// LoadConfig reads envFile (if it exists) into the environment without
// overriding variables already set, then applies NODEGEN_* variables on top
// of the defaults. An empty envFile means ".env".
func LoadConfig(envFile string) (Config, error) {
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load %s: %w", envFile, err)
	}
	cfg := DefaultConfig()
	cfg.applyEnv(os.LookupEnv)
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	for name, dst := range map[string]*string{
		"NODEGEN_LISTEN_ADDR":  &c.ListenAddr,
		"NODEGEN_EVENTS_ADDR":  &c.EventsAddr,
		"NODEGEN_DATABASE_URL": &c.DatabaseURL,
		"NODEGEN_ENDPOINT":     &c.Endpoint,
		"NODEGEN_MODEL":        &c.Model,
		"NODEGEN_REFERER":      &c.Referer,
		"NODEGEN_LOG_LEVEL":    &c.LogLevel,
		"NODEGEN_LOG_FORMAT":   &c.LogFormat,
	} {
		if v, ok := lookup(name); ok && v != "" {
			*dst = v
		}
	}
}

// RegisterFlags binds the config fields to flags on fs, using the current
// values as defaults.
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.ListenAddr, "listen", c.ListenAddr, "HTTP API listen address")
	fs.StringVar(&c.EventsAddr, "events", c.EventsAddr, "Websocket event feed listen address (empty to disable)")
	fs.StringVar(&c.DatabaseURL, "db", c.DatabaseURL, "PostgreSQL URL (empty keeps graphs in memory)")
	fs.StringVar(&c.Endpoint, "endpoint", c.Endpoint, "Chat completions endpoint")
	fs.StringVar(&c.Model, "model", c.Model, "Image model")
	fs.StringVar(&c.Referer, "referer", c.Referer, "HTTP-Referer sent to the endpoint")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "debug, info, warn or error")
	fs.StringVar(&c.LogFormat, "log-format", c.LogFormat, "text or json")
}

// NewLogger builds the slog logger described by the config
func (c Config) NewLogger() (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return nil, fmt.Errorf("log level %q: %w", c.LogLevel, err)
	}
	opts := &slog.HandlerOptions{Level: level}
	switch strings.ToLower(c.LogFormat) {
	case "", "text":
		return slog.New(slog.NewTextHandler(os.Stderr, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(os.Stderr, opts)), nil
	}
	return nil, fmt.Errorf("unknown log format %q", c.LogFormat)
}

// NewClient builds the generation client described by the config
func (c Config) NewClient(logger *slog.Logger) *client.Client {
	return client.NewClient(
		client.WithEndpoint(c.Endpoint),
		client.WithModel(c.Model),
		client.WithReferer(c.Referer),
		client.WithLogger(logger),
	)
}
