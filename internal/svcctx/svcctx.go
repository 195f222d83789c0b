// Package svcctx provides service context for dependency injection via context.
// This package is separate from server to avoid import cycles with endpoints.
package svcctx

import (
	"context"
	"log/slog"

	"github.com/jackzampolin/docextract/internal/home"
	"github.com/jackzampolin/docextract/internal/schema"
)

// Limits bounds what the sandbox accepts.
type Limits struct {
	// MaxFileSize is the largest upload in bytes.
	MaxFileSize int64
}

// Services holds all core services that flow through context.
// Components extract what they need via the individual extractors.
type Services struct {
	Logger *slog.Logger
	Home   *home.Dir
	Limits Limits
	// DefaultSchema is used when a request carries no schema_config.
	DefaultSchema schema.Schema
}

type servicesKey struct{}

// WithServices returns a new context with services attached.
func WithServices(ctx context.Context, s *Services) context.Context {
	return context.WithValue(ctx, servicesKey{}, s)
}

// ServicesFrom extracts the full Services struct from context.
// Returns nil if not present.
func ServicesFrom(ctx context.Context) *Services {
	s, _ := ctx.Value(servicesKey{}).(*Services)
	return s
}

// LoggerFrom extracts the logger from context.
func LoggerFrom(ctx context.Context) *slog.Logger {
	if s := ServicesFrom(ctx); s != nil {
		return s.Logger
	}
	return nil
}

// HomeFrom extracts the home directory from context.
func HomeFrom(ctx context.Context) *home.Dir {
	if s := ServicesFrom(ctx); s != nil {
		return s.Home
	}
	return nil
}

// LimitsFrom extracts the upload limits from context.
func LimitsFrom(ctx context.Context) Limits {
	if s := ServicesFrom(ctx); s != nil {
		return s.Limits
	}
	return Limits{}
}

// DefaultSchemaFrom extracts the fallback schema from context.
func DefaultSchemaFrom(ctx context.Context) schema.Schema {
	if s := ServicesFrom(ctx); s != nil {
		return s.DefaultSchema
	}
	return nil
}
