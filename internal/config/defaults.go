package config

import (
	"errors"
	"fmt"
	"unicode"
)

// ErrNoDefault is returned when no default value exists for a config key.
var ErrNoDefault = errors.New("no default exists")

// ErrInvalidKey is returned when a config key contains invalid characters.
var ErrInvalidKey = errors.New("invalid config key")

// Entry is a single documented configuration key.
type Entry struct {
	Key         string `json:"key" yaml:"key"`
	Value       any    `json:"value" yaml:"value"`
	Description string `json:"description" yaml:"description"`
}

// DefaultEntries returns every configuration key with its default value.
// These are registered as viper defaults so environment overrides apply to
// all of them.
func DefaultEntries() []Entry {
	d := DefaultConfig()
	return []Entry{
		// Extraction service
		{
			Key:         "service.base_url",
			Value:       d.Service.BaseURL,
			Description: "Base URL of the extraction service",
		},
		{
			Key:         "service.token",
			Value:       d.Service.Token,
			Description: "Bearer token sent with each request (uses environment variable)",
		},
		{
			Key:         "service.timeout_seconds",
			Value:       d.Service.TimeoutSeconds,
			Description: "HTTP timeout in seconds for one extraction request",
		},

		// Sandbox service
		{
			Key:         "server.host",
			Value:       d.Server.Host,
			Description: "Address the sandbox service binds to",
		},
		{
			Key:         "server.port",
			Value:       d.Server.Port,
			Description: "Port the sandbox service listens on",
		},
		{
			Key:         "server.max_file_size",
			Value:       d.Server.MaxFileSize,
			Description: "Largest upload the sandbox accepts, in bytes",
		},
		{
			Key:         "server.token",
			Value:       d.Server.Token,
			Description: "Token the sandbox requires; empty accepts any request",
		},

		// Output
		{
			Key:         "output.format",
			Value:       d.Output.Format,
			Description: "Structured output format (yaml or json)",
		},
		{
			Key:         "output.view",
			Value:       d.Output.View,
			Description: "Default result view (formatted, json or raw)",
		},
		{
			Key:         "output.color",
			Value:       d.Output.Color,
			Description: "Colour formatted results on a terminal",
		},
	}
}

// GetDefault returns the default entry for a config key.
// Returns nil if no default exists for the key.
func GetDefault(key string) *Entry {
	for _, entry := range DefaultEntries() {
		if entry.Key == key {
			return &entry
		}
	}
	return nil
}

// ValidateKey checks if a config key contains only allowed characters.
// Valid keys contain: letters, digits, dots, underscores, and hyphens.
func ValidateKey(key string) error {
	if key == "" {
		return fmt.Errorf("%w: key cannot be empty", ErrInvalidKey)
	}
	for i, r := range key {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '.' && r != '_' && r != '-' {
			return fmt.Errorf("%w: invalid character %q at position %d", ErrInvalidKey, r, i)
		}
	}
	if key[0] == '.' || key[len(key)-1] == '.' {
		return fmt.Errorf("%w: key cannot start or end with a dot", ErrInvalidKey)
	}
	return nil
}
