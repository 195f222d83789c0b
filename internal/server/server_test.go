package server

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/tidwall/gjson"

	"github.com/jackzampolin/docextract/internal/extract"
	"github.com/jackzampolin/docextract/internal/schema"
	"github.com/jackzampolin/docextract/internal/testutil"
	"github.com/jackzampolin/docextract/internal/upload"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(t *testing.T, cfg Config) *httptest.Server {
	t.Helper()
	if cfg.Logger == nil {
		cfg.Logger = quietLogger()
	}
	srv, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

// multipartBody builds an extract form. An empty filename omits the file part,
// an empty contentType omits its Content-Type and a nil schemaConfig omits the
// field.
func multipartBody(t *testing.T, filename, contentType string, data []byte, schemaConfig []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if filename != "" {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
		if contentType != "" {
			h.Set("Content-Type", contentType)
		}
		part, err := mw.CreatePart(h)
		if err != nil {
			t.Fatalf("CreatePart: %v", err)
		}
		part.Write(data)
	}
	if schemaConfig != nil {
		if err := mw.WriteField("schema_config", string(schemaConfig)); err != nil {
			t.Fatalf("WriteField: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func postExtract(t *testing.T, url string, body io.Reader, contentType, token string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, url+extract.ExtractPath, body)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	req.Header.Set("Content-Type", contentType)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, raw
}

func TestServer_Health(t *testing.T) {
	ts := newTestServer(t, Config{})

	for _, path := range []string{"/health", extract.HealthPath} {
		t.Run(path, func(t *testing.T) {
			resp, err := http.Get(ts.URL + path)
			if err != nil {
				t.Fatalf("GET %s: %v", path, err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("status = %d, want 200", resp.StatusCode)
			}
			raw, _ := io.ReadAll(resp.Body)
			if got := gjson.GetBytes(raw, "status").String(); got != "healthy" {
				t.Errorf("status = %q, want healthy", got)
			}
		})
	}
}

func TestServer_ExtractRoundTrip(t *testing.T) {
	ts := newTestServer(t, Config{})

	file, err := upload.Select(testutil.WriteDocument(t, "invoice.png", testutil.PNGDocument))
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	config, err := schema.MarshalSchemaConfig(schema.NewEditor().Fields())
	if err != nil {
		t.Fatalf("MarshalSchemaConfig: %v", err)
	}

	client := extract.NewClient(extract.Config{BaseURL: ts.URL, Logger: quietLogger()})
	resp, err := client.Extract(context.Background(), extract.Request{File: file, SchemaConfig: config})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	if resp.Status != "success" {
		t.Errorf("Status = %q, want success", resp.Status)
	}
	if resp.Filename != "invoice.png" {
		t.Errorf("Filename = %q, want invoice.png", resp.Filename)
	}
	wantData := `{"vendor_name":null,"invoice_date":null,"items":[],"po_number":null,"total_amount":null}`
	if string(resp.Data) != wantData {
		t.Errorf("Data = %s, want %s", resp.Data, wantData)
	}
	if !bytes.Equal(resp.ExtractionSchemaUsed, config) {
		t.Errorf("ExtractionSchemaUsed = %s, want the submitted config", resp.ExtractionSchemaUsed)
	}
}

func TestServer_ExtractDefaultSchema(t *testing.T) {
	ts := newTestServer(t, Config{
		DefaultSchema: schema.Schema{
			{Key: "merchant", Type: schema.TypeString},
			{Key: "lines", Type: schema.TypeArray, ItemsStructure: schema.NewItemsStructure()},
		},
	})

	body, ct := multipartBody(t, "r.pdf", upload.TypePDF, testutil.PDFDocument, nil)
	resp, raw := postExtract(t, ts.URL, body, ct, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body %s", resp.StatusCode, raw)
	}
	if got := gjson.GetBytes(raw, "data").Raw; got != `{"merchant":null,"lines":[]}` {
		t.Errorf("data = %s", got)
	}
	if got := gjson.GetBytes(raw, "extraction_schema_used.0.key").String(); got != "merchant" {
		t.Errorf("extraction_schema_used[0].key = %q, want merchant", got)
	}
	if got := gjson.GetBytes(raw, "raw_text"); !got.Exists() || got.String() != "" {
		t.Errorf("raw_text = %s, want empty string", got.Raw)
	}
}

func TestServer_ExtractRejections(t *testing.T) {
	ts := newTestServer(t, Config{MaxFileSize: 64})

	big := append(append([]byte{}, testutil.PNGDocument...), make([]byte, 128)...)

	tests := []struct {
		name       string
		filename   string
		ctype      string
		data       []byte
		schema     []byte
		wantStatus int
		wantDetail string
	}{
		{
			name:       "wrong type",
			filename:   "notes.txt",
			ctype:      "text/plain",
			data:       []byte("hello"),
			wantStatus: http.StatusBadRequest,
			wantDetail: "Invalid file type. Allowed: application/pdf, image/jpeg, image/png, image/webp",
		},
		{
			name:       "missing content type",
			filename:   "scan.png",
			data:       testutil.PNGDocument,
			wantStatus: http.StatusBadRequest,
			wantDetail: "Invalid file type. Allowed: application/pdf, image/jpeg, image/png, image/webp",
		},
		{
			name:       "too large",
			filename:   "scan.png",
			ctype:      upload.TypePNG,
			data:       big,
			wantStatus: http.StatusRequestEntityTooLarge,
			wantDetail: "File too large. Max size: 64 bytes",
		},
		{
			name:       "bad schema json",
			filename:   "scan.png",
			ctype:      upload.TypePNG,
			data:       testutil.PNGDocument,
			schema:     []byte("[{"),
			wantStatus: http.StatusBadRequest,
			wantDetail: "Invalid JSON in schema_config",
		},
		{
			name:       "missing file",
			wantStatus: http.StatusUnprocessableEntity,
			wantDetail: "file is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, ct := multipartBody(t, tt.filename, tt.ctype, tt.data, tt.schema)
			resp, raw := postExtract(t, ts.URL, body, ct, "")
			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", resp.StatusCode, tt.wantStatus, raw)
			}
			if got := gjson.GetBytes(raw, "detail").String(); got != tt.wantDetail {
				t.Errorf("detail = %q, want %q", got, tt.wantDetail)
			}
		})
	}
}

func TestServer_ExtractTooLargeDefaultLimit(t *testing.T) {
	ts := newTestServer(t, Config{})

	data := append(append([]byte{}, testutil.PDFDocument...), make([]byte, 10*1024*1024)...)
	body, ct := multipartBody(t, "huge.pdf", upload.TypePDF, data, nil)
	resp, raw := postExtract(t, ts.URL, body, ct, "")
	if resp.StatusCode != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want 413", resp.StatusCode)
	}
	if got := gjson.GetBytes(raw, "detail").String(); got != "File too large. Max size: 10MB" {
		t.Errorf("detail = %q", got)
	}
}

func TestServer_Token(t *testing.T) {
	ts := newTestServer(t, Config{Token: "s3cret"})

	t.Run("health stays open", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/health")
		if err != nil {
			t.Fatalf("GET /health: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("status = %d, want 200", resp.StatusCode)
		}
	})

	t.Run("missing token", func(t *testing.T) {
		body, ct := multipartBody(t, "scan.png", upload.TypePNG, testutil.PNGDocument, nil)
		resp, _ := postExtract(t, ts.URL, body, ct, "")
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", resp.StatusCode)
		}
	})

	t.Run("client surfaces status error", func(t *testing.T) {
		client := extract.NewClient(extract.Config{BaseURL: ts.URL, Token: "wrong", Logger: quietLogger()})
		_, err := client.Health(context.Background())
		var se *extract.StatusError
		if !errors.As(err, &se) {
			t.Fatalf("error = %v, want *extract.StatusError", err)
		}
		if se.Code != http.StatusUnauthorized || se.Message != "invalid token" {
			t.Errorf("StatusError = %+v", se)
		}
	})

	t.Run("matching token", func(t *testing.T) {
		client := extract.NewClient(extract.Config{BaseURL: ts.URL, Token: "s3cret", Logger: quietLogger()})
		status, err := client.Health(context.Background())
		if err != nil {
			t.Fatalf("Health() error = %v", err)
		}
		if status.Status != "healthy" {
			t.Errorf("Status = %q, want healthy", status.Status)
		}
	})
}

func TestNew_RejectsNegativeLimit(t *testing.T) {
	if _, err := New(Config{MaxFileSize: -1}); err == nil {
		t.Error("expected error for negative max file size")
	}
}

func TestServer_FullLifecycle(t *testing.T) {
	cfg := testutil.NewServerConfig(t)

	srv, err := New(Config{
		Host:        cfg.Host,
		Port:        cfg.Port,
		MaxFileSize: cfg.MaxFileSize,
		Logger:      quietLogger(),
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- srv.Start(ctx)
	}()
	starter := testutil.StartServer{Cancel: cancel, Done: done}

	if err := testutil.WaitForServer(cfg.URL(), 10*time.Second); err != nil {
		starter.Stop()
		t.Fatalf("server did not start: %v", err)
	}
	if !srv.IsRunning() {
		t.Error("IsRunning() = false while serving")
	}
	if srv.Addr() != cfg.Host+":"+cfg.Port {
		t.Errorf("Addr() = %s", srv.Addr())
	}

	if err := srv.Start(context.Background()); err == nil {
		t.Error("second Start() should fail while running")
	}

	client := extract.NewClient(extract.Config{BaseURL: cfg.URL(), Logger: quietLogger()})
	if _, err := client.WaitHealthy(context.Background(), 5, 100*time.Millisecond); err != nil {
		t.Errorf("WaitHealthy() error = %v", err)
	}

	cancel()
	if err := testutil.WaitForShutdown(done, 35*time.Second); err != nil {
		t.Fatalf("shutdown error: %v", err)
	}
	if srv.IsRunning() {
		t.Error("IsRunning() = true after shutdown")
	}
}
