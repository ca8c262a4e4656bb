package config

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v6"
)

// Logging selects the slog handler used for diagnostics.
type Logging struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"text"`
}

// LoadLogging parses the logging settings.
func LoadLogging(opts ...env.Options) (*Logging, error) {
	cfg := &Logging{}
	if err := env.Parse(cfg, opts...); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	return cfg, nil
}

// NewLogger builds a logger writing to w.
func (l *Logging) NewLogger(w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	if l.Level != "" {
		if err := level.UnmarshalText([]byte(l.Level)); err != nil {
			return nil, fmt.Errorf("%w: LOG_LEVEL: %v", ErrConfig, err)
		}
	}
	opts := &slog.HandlerOptions{Level: level}

	switch strings.ToLower(l.Format) {
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	case "text", "":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("%w: LOG_FORMAT must be text or json, got %q", ErrConfig, l.Format)
	}
}
