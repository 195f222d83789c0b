package config

import "time"

// Config holds docextract configuration.
// Stored at: {home}/config.yaml
type Config struct {
	Service ServiceCfg `mapstructure:"service" yaml:"service"`
	Server  ServerCfg  `mapstructure:"server" yaml:"server"`
	Output  OutputCfg  `mapstructure:"output" yaml:"output"`
}

// ServiceCfg points the client at the extraction service.
type ServiceCfg struct {
	BaseURL        string `mapstructure:"base_url" yaml:"base_url"`
	Token          string `mapstructure:"token" yaml:"token"` // Bearer token (supports ${ENV_VAR} syntax)
	TimeoutSeconds int    `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
}

// ServerCfg configures the local sandbox service.
type ServerCfg struct {
	Host        string `mapstructure:"host" yaml:"host"`
	Port        string `mapstructure:"port" yaml:"port"`
	MaxFileSize int64  `mapstructure:"max_file_size" yaml:"max_file_size"` // Bytes
	Token       string `mapstructure:"token" yaml:"token"`                 // Empty disables the bearer check
}

// OutputCfg sets how results are printed.
type OutputCfg struct {
	Format string `mapstructure:"format" yaml:"format"` // yaml or json
	View   string `mapstructure:"view" yaml:"view"`     // formatted, json or raw
	Color  bool   `mapstructure:"color" yaml:"color"`
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Service: ServiceCfg{
			BaseURL:        "http://localhost:8000",
			Token:          "${HF_TOKEN}",
			TimeoutSeconds: 300,
		},
		Server: ServerCfg{
			Host:        "127.0.0.1",
			Port:        "8000",
			MaxFileSize: 10 * 1024 * 1024,
		},
		Output: OutputCfg{
			Format: "yaml",
			View:   "formatted",
			Color:  true,
		},
	}
}

// ServiceToken returns the service token with ${ENV_VAR} references resolved.
func (c *Config) ServiceToken() string {
	return ResolveEnvVars(c.Service.Token)
}

// ServerToken returns the sandbox token with ${ENV_VAR} references resolved.
func (c *Config) ServerToken() string {
	return ResolveEnvVars(c.Server.Token)
}

// ServiceTimeout returns the request timeout. Non-positive values yield zero,
// which leaves the client default in place.
func (c *Config) ServiceTimeout() time.Duration {
	if c.Service.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(c.Service.TimeoutSeconds) * time.Second
}
