package endpoints

import (
	"github.com/jackzampolin/docextract/internal/api"
	"github.com/jackzampolin/docextract/internal/extract"
)

// Config holds dependencies needed by the CLI side of some endpoints.
type Config struct {
	// Client builds the extraction client for a server URL. Nil selects a
	// client with no token and the default timeout.
	Client func(serverURL string) *extract.Client
}

func (c Config) client(serverURL string) *extract.Client {
	if c.Client != nil {
		return c.Client(serverURL)
	}
	return extract.NewClient(extract.Config{BaseURL: serverURL})
}

// All returns all endpoint instances.
func All(cfg Config) []api.Endpoint {
	return []api.Endpoint{
		// Health endpoints
		&HealthEndpoint{},
		&ServiceHealthEndpoint{Config: cfg},

		// Extraction
		&ExtractEndpoint{Config: cfg},
	}
}
