package extract

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/jackzampolin/docextract/internal/render"
	"github.com/jackzampolin/docextract/internal/schema"
	"github.com/jackzampolin/docextract/internal/upload"
)

func testFile(t *testing.T) *upload.File {
	t.Helper()
	path := filepath.Join(t.TempDir(), "invoice.png")
	data := []byte("\x89PNG\r\n\x1a\nfake image body")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	return &upload.File{Name: "invoice.png", Path: path, Size: int64(len(data)), ContentType: upload.TypePNG}
}

func TestClient_Extract(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.Method != http.MethodPost || r.URL.Path != ExtractPath {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("Authorization = %q", got)
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("FormFile() error = %v", err)
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		defer file.Close()
		body, _ := io.ReadAll(file)
		if !strings.HasPrefix(string(body), "\x89PNG") {
			t.Errorf("file body = %q", body)
		}
		if header.Filename != "invoice.png" {
			t.Errorf("filename = %q", header.Filename)
		}
		if ct := header.Header.Get("Content-Type"); ct != upload.TypePNG {
			t.Errorf("file part Content-Type = %q", ct)
		}

		var fields []map[string]any
		if err := json.Unmarshal([]byte(r.FormValue("schema_config")), &fields); err != nil {
			t.Errorf("schema_config is not JSON: %v", err)
		}
		if len(fields) != 5 {
			t.Errorf("schema_config has %d fields, want 5", len(fields))
		}

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"status":"success","filename":"invoice.png","data":{"total_amount":1799.00,"vendor_name":"ACME"},"usage":{"input_tokens":1200,"output_tokens":85}}`)
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL + "/", Token: "secret"})
	config, err := schema.MarshalSchemaConfig(schema.NewEditor().Fields())
	if err != nil {
		t.Fatalf("MarshalSchemaConfig() error = %v", err)
	}

	resp, err := client.Extract(context.Background(), Request{File: testFile(t), SchemaConfig: config})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	if hits.Load() != 1 {
		t.Errorf("server hit %d times, want 1", hits.Load())
	}
	if string(resp.Data) != `{"total_amount":1799.00,"vendor_name":"ACME"}` {
		t.Errorf("Data = %s", resp.Data)
	}
	if diff := cmp.Diff(&render.Usage{InputTokens: 1200, OutputTokens: 85}, resp.Usage); diff != "" {
		t.Errorf("Usage mismatch (-want +got):\n%s", diff)
	}
	if resp.Status != "success" || resp.Filename != "invoice.png" {
		t.Errorf("Status/Filename = %q/%q", resp.Status, resp.Filename)
	}
	if !strings.Contains(resp.RawText, "\n  \"status\": \"success\"") {
		t.Errorf("RawText not pretty printed:\n%s", resp.RawText)
	}
}

func TestClient_Extract_StatusError(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{"fastapi detail", http.StatusBadRequest, `{"detail":"Invalid JSON in schema_config"}`, "Invalid JSON in schema_config"},
		{"sandbox error", http.StatusUnauthorized, `{"error":"invalid token"}`, "invalid token"},
		{"plain body", http.StatusBadGateway, "upstream down\n", "upstream down"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var hits atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				hits.Add(1)
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			}))
			defer server.Close()

			client := NewClient(Config{BaseURL: server.URL})
			_, err := client.Extract(context.Background(), Request{File: testFile(t), SchemaConfig: []byte("[]")})

			var se *StatusError
			if !errors.As(err, &se) {
				t.Fatalf("Extract() error = %v, want *StatusError", err)
			}
			if se.Code != tt.status || se.Message != tt.wantMsg {
				t.Errorf("StatusError = %d %q, want %d %q", se.Code, se.Message, tt.status, tt.wantMsg)
			}
			if hits.Load() != 1 {
				t.Errorf("server hit %d times, want exactly 1", hits.Load())
			}
		})
	}
}

func TestClient_Extract_NoFile(t *testing.T) {
	client := NewClient(Config{BaseURL: "http://127.0.0.1:0"})
	if _, err := client.Extract(context.Background(), Request{}); !errors.Is(err, ErrNoFile) {
		t.Errorf("Extract() error = %v, want ErrNoFile", err)
	}
}

func TestClient_Extract_InvalidJSONResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "<html>gateway</html>")
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL})
	if _, err := client.Extract(context.Background(), Request{File: testFile(t), SchemaConfig: []byte("[]")}); err == nil {
		t.Error("Extract() expected error for non-JSON body")
	}
}

func TestClient_WaitHealthy(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != HealthPath {
			http.NotFound(w, r)
			return
		}
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		io.WriteString(w, `{"status":"ok","service":"sandbox"}`)
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL})

	if _, err := client.Health(context.Background()); err == nil {
		t.Fatal("Health() expected error on first call")
	}

	status, err := client.WaitHealthy(context.Background(), 5, time.Millisecond)
	if err != nil {
		t.Fatalf("WaitHealthy() error = %v", err)
	}
	if status.Status != "ok" || status.Service != "sandbox" {
		t.Errorf("status = %+v", status)
	}
	if hits.Load() != 3 {
		t.Errorf("health hit %d times, want 3", hits.Load())
	}
}

func TestClient_WaitHealthy_GivesUp(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL})
	_, err := client.WaitHealthy(context.Background(), 2, time.Millisecond)

	var se *StatusError
	if !errors.As(err, &se) || se.Code != http.StatusServiceUnavailable {
		t.Errorf("WaitHealthy() error = %v, want 503 StatusError", err)
	}
	if hits.Load() != 2 {
		t.Errorf("health hit %d times, want 2", hits.Load())
	}
}

func TestParseResponse(t *testing.T) {
	t.Run("camel case usage", func(t *testing.T) {
		resp, err := ParseResponse([]byte(`{"data":{"a":1},"usage":{"inputTokens":7,"outputTokens":2}}`))
		if err != nil {
			t.Fatalf("ParseResponse() error = %v", err)
		}
		if diff := cmp.Diff(&render.Usage{InputTokens: 7, OutputTokens: 2}, resp.Usage); diff != "" {
			t.Errorf("Usage mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("no data no usage", func(t *testing.T) {
		resp, err := ParseResponse([]byte(`{"status":"success","extraction_schema_used":[{"key":"a"}]}`))
		if err != nil {
			t.Fatalf("ParseResponse() error = %v", err)
		}
		if resp.Data != nil || resp.Usage != nil {
			t.Errorf("Data = %s, Usage = %v; want both empty", resp.Data, resp.Usage)
		}
		if string(resp.ExtractionSchemaUsed) != `[{"key":"a"}]` {
			t.Errorf("ExtractionSchemaUsed = %s", resp.ExtractionSchemaUsed)
		}
	})

	t.Run("not an object", func(t *testing.T) {
		if _, err := ParseResponse([]byte(`[1,2]`)); err == nil {
			t.Error("ParseResponse() expected error for array body")
		}
	})
}
