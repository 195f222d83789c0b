package endpoints

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/docextract/internal/api"
	"github.com/jackzampolin/docextract/internal/extract"
	"github.com/jackzampolin/docextract/version"
)

// ServiceName identifies the sandbox in health responses.
const ServiceName = "docextract-sandbox"

// HealthResponse is the response for health check endpoints.
type HealthResponse struct {
	Status   string            `json:"status"`
	Service  string            `json:"service,omitempty"`
	Version  string            `json:"version,omitempty"`
	Services map[string]string `json:"services,omitempty"`
}

// HealthEndpoint handles GET /health.
type HealthEndpoint struct{}

func (e *HealthEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/health", e.handler
}

func (e *HealthEndpoint) RequiresInit() bool { return false }

// handler godoc
//
//	@Summary		Liveness check
//	@Tags			health
//	@Produce		json
//	@Success		200	{object}	HealthResponse
//	@Router			/health [get]
func (e *HealthEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "healthy"})
}

func (e *HealthEndpoint) Command(getServerURL func() string) *cobra.Command {
	return nil
}

// ServiceHealthEndpoint handles GET /api/v1/health, the route clients poll
// before submitting.
type ServiceHealthEndpoint struct {
	Config Config
}

func (e *ServiceHealthEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", extract.HealthPath, e.handler
}

func (e *ServiceHealthEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Service health
//	@Description	Reports the sandbox and its stand-in OCR and LLM stages.
//	@Tags			health
//	@Produce		json
//	@Success		200	{object}	HealthResponse
//	@Failure		401	{object}	ErrorResponse
//	@Failure		503	{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/api/v1/health [get]
func (e *ServiceHealthEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "healthy",
		Service: ServiceName,
		Version: version.GitRelease,
		Services: map[string]string{
			"ocr": "sandbox",
			"llm": "sandbox",
		},
	})
}

func (e *ServiceHealthEndpoint) Command(getServerURL func() string) *cobra.Command {
	var wait int
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check extraction service health",
		Long: `Check extraction service health.

With --wait N the check is retried once per second for up to N seconds.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client := e.Config.client(getServerURL())

			var (
				status *extract.HealthStatus
				err    error
			)
			if wait > 0 {
				status, err = client.WaitHealthy(ctx, uint(wait), time.Second)
			} else {
				status, err = client.Health(ctx)
			}
			if err != nil {
				return fmt.Errorf("service at %s is not healthy: %w", client.BaseURL(), err)
			}
			return api.Output(status)
		},
	}
	cmd.Flags().IntVar(&wait, "wait", 0, "Seconds to keep retrying before giving up")
	return cmd
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// ErrorResponse is a standard error response. Detail carries the same message
// for clients written against FastAPI services.
type ErrorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg, Detail: msg})
}
