// Package extract submits a document and schema to the extraction service and
// tracks the state of that submission.
package extract

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/tidwall/gjson"

	"github.com/jackzampolin/docextract/internal/upload"
)

const (
	// ExtractPath is the service route that performs extraction.
	ExtractPath = "/api/v1/extract"
	// HealthPath is the service readiness route.
	HealthPath = "/api/v1/health"

	// DefaultTimeout bounds a single extraction request.
	DefaultTimeout = 5 * time.Minute
)

// Config configures a Client.
type Config struct {
	BaseURL string
	Token   string
	// Timeout bounds each request. Zero selects DefaultTimeout.
	Timeout time.Duration
	// HTTPClient overrides the client built from Timeout.
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client talks to the extraction service.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a new extraction client.
func NewClient(cfg Config) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		token:      cfg.Token,
		httpClient: httpClient,
		logger:     logger,
	}
}

// BaseURL returns the service base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Request is one extraction submission.
type Request struct {
	File *upload.File
	// SchemaConfig is the JSON-encoded schema sent as the schema_config field.
	SchemaConfig []byte
}

// StatusError is returned when the service answers with a status >= 400.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server error (%d)", e.Code)
	}
	return fmt.Sprintf("server error (%d): %s", e.Code, e.Message)
}

// Extract sends the file and schema in a single multipart POST. It never
// retries.
func (c *Client) Extract(ctx context.Context, req Request) (*Response, error) {
	if req.File == nil {
		return nil, ErrNoFile
	}

	body, contentType, err := c.encodeForm(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+ExtractPath, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Accept", "application/json")
	c.authorize(httpReq)

	start := time.Now()
	c.logger.Debug("submitting document", "file", req.File.Name, "type", req.File.ContentType, "size", req.File.Size)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := c.handleResponse(resp)
	if err != nil {
		return nil, err
	}

	out, err := ParseResponse(raw)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("extraction complete", "file", req.File.Name, "status", out.Status, "duration", time.Since(start))
	return out, nil
}

func (c *Client) encodeForm(req Request) (io.Reader, string, error) {
	f, err := req.File.Open()
	if err != nil {
		return nil, "", fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, req.File.Name))
	h.Set("Content-Type", req.File.ContentType)
	part, err := mw.CreatePart(h)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create file part: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", fmt.Errorf("failed to read file: %w", err)
	}

	if err := mw.WriteField("schema_config", string(req.SchemaConfig)); err != nil {
		return nil, "", fmt.Errorf("failed to write schema_config: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finish form: %w", err)
	}
	return &buf, mw.FormDataContentType(), nil
}

// HealthStatus is the service health report.
type HealthStatus struct {
	Status  string `json:"status" yaml:"status"`
	Service string `json:"service,omitempty" yaml:"service,omitempty"`
	Version string `json:"version,omitempty" yaml:"version,omitempty"`
}

// Health queries the service health endpoint once.
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+HealthPath, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := c.handleResponse(resp)
	if err != nil {
		return nil, err
	}
	if !gjson.ValidBytes(raw) {
		return nil, fmt.Errorf("failed to decode response: invalid JSON")
	}
	res := gjson.ParseBytes(raw)
	return &HealthStatus{
		Status:  res.Get("status").String(),
		Service: res.Get("service").String(),
		Version: res.Get("version").String(),
	}, nil
}

// WaitHealthy polls Health until it succeeds, up to attempts times with delay
// between tries.
func (c *Client) WaitHealthy(ctx context.Context, attempts uint, delay time.Duration) (*HealthStatus, error) {
	if attempts == 0 {
		attempts = 1
	}
	var status *HealthStatus
	err := retry.Do(
		func() error {
			s, err := c.Health(ctx)
			if err != nil {
				c.logger.Debug("service not ready", "url", c.baseURL, "error", err)
				return err
			}
			status = s
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(delay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, err
	}
	return status, nil
}

func (c *Client) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

func (c *Client) handleResponse(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, &StatusError{Code: resp.StatusCode, Message: errorMessage(body)}
	}
	return body, nil
}

// errorMessage pulls a message out of an error body. FastAPI services answer
// with "detail", this project's sandbox with "error".
func errorMessage(body []byte) string {
	if gjson.ValidBytes(body) {
		res := gjson.ParseBytes(body)
		for _, key := range []string{"detail", "error", "message"} {
			v := res.Get(key)
			if !v.Exists() {
				continue
			}
			if v.Type == gjson.String {
				return v.String()
			}
			return v.Raw
		}
	}
	return strings.TrimSpace(string(body))
}
