package config

import (
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configFile := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configFile, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return configFile
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Service.Token != "${HF_TOKEN}" {
		t.Errorf("expected HF_TOKEN placeholder, got %s", cfg.Service.Token)
	}
	if cfg.Server.MaxFileSize != 10*1024*1024 {
		t.Errorf("expected 10MB max file size, got %d", cfg.Server.MaxFileSize)
	}
	if cfg.ServiceTimeout() != 300*time.Second {
		t.Errorf("expected 300s timeout, got %s", cfg.ServiceTimeout())
	}
}

func TestResolveEnvVars(t *testing.T) {
	t.Run("resolves environment variable", func(t *testing.T) {
		t.Setenv("TEST_API_KEY", "secret123")

		result := ResolveEnvVars("${TEST_API_KEY}")
		if result != "secret123" {
			t.Errorf("expected secret123, got %s", result)
		}
	})

	t.Run("returns empty for missing env var", func(t *testing.T) {
		result := ResolveEnvVars("${DEFINITELY_NOT_SET_12345}")
		if result != "" {
			t.Errorf("expected empty string, got %s", result)
		}
	})

	t.Run("leaves literal values unchanged", func(t *testing.T) {
		result := ResolveEnvVars("literal-value")
		if result != "literal-value" {
			t.Errorf("expected literal-value, got %s", result)
		}
	})

	t.Run("expands inside text", func(t *testing.T) {
		t.Setenv("TEST_HOST", "example.com")
		result := ResolveEnvVars("https://${TEST_HOST}/v1")
		if result != "https://example.com/v1" {
			t.Errorf("expected https://example.com/v1, got %s", result)
		}
	})
}

func TestConfig_ServiceToken(t *testing.T) {
	t.Setenv("TEST_HF_TOKEN", "hf-123")

	cfg := &Config{
		Service: ServiceCfg{Token: "${TEST_HF_TOKEN}"},
		Server:  ServerCfg{Token: "direct"},
	}
	if got := cfg.ServiceToken(); got != "hf-123" {
		t.Errorf("ServiceToken() = %s, want hf-123", got)
	}
	if got := cfg.ServerToken(); got != "direct" {
		t.Errorf("ServerToken() = %s, want direct", got)
	}
}

func TestNewManager(t *testing.T) {
	t.Run("loads from config file", func(t *testing.T) {
		configFile := writeConfig(t, `
service:
  base_url: "https://extract.example.com"
  timeout_seconds: 30
`)

		mgr, err := NewManager(configFile)
		if err != nil {
			t.Fatalf("failed to create manager: %v", err)
		}

		cfg := mgr.Get()
		if cfg.Service.BaseURL != "https://extract.example.com" {
			t.Errorf("expected configured base_url, got %s", cfg.Service.BaseURL)
		}
		if cfg.Service.TimeoutSeconds != 30 {
			t.Errorf("expected 30, got %d", cfg.Service.TimeoutSeconds)
		}
		// Unset keys fall back to defaults.
		if cfg.Output.View != "formatted" {
			t.Errorf("expected default view, got %s", cfg.Output.View)
		}
		if mgr.ConfigFile() != configFile {
			t.Errorf("ConfigFile() = %s, want %s", mgr.ConfigFile(), configFile)
		}
	})

	t.Run("environment overrides file", func(t *testing.T) {
		configFile := writeConfig(t, `
server:
  port: "9000"
`)
		t.Setenv("DOCEXTRACT_SERVER_PORT", "9100")

		mgr, err := NewManager(configFile)
		if err != nil {
			t.Fatalf("failed to create manager: %v", err)
		}
		if got := mgr.Get().Server.Port; got != "9100" {
			t.Errorf("expected env override 9100, got %s", got)
		}
	})

	t.Run("invalid file is an error", func(t *testing.T) {
		configFile := writeConfig(t, "service: [unterminated")
		if _, err := NewManager(configFile); err == nil {
			t.Error("expected error for malformed config")
		}
	})
}

func TestManager_Lookup(t *testing.T) {
	mgr, err := NewManager(writeConfig(t, "output:\n  view: raw\n"))
	if err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}

	v, err := mgr.Lookup("output.view")
	if err != nil || v != "raw" {
		t.Errorf("Lookup(output.view) = %v, %v; want raw", v, err)
	}
	if _, err := mgr.Lookup("bad key!"); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("Lookup(bad key!) error = %v, want ErrInvalidKey", err)
	}
	if _, err := mgr.Lookup("does.not.exist"); !errors.Is(err, ErrNoDefault) {
		t.Errorf("Lookup(does.not.exist) error = %v, want ErrNoDefault", err)
	}
}

func TestManager_OnChange_Multiple(t *testing.T) {
	mgr, err := NewManager(writeConfig(t, "output:\n  format: json\n"))
	if err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}

	mgr.OnChange(func(cfg *Config) {})
	mgr.OnChange(func(cfg *Config) {})
	mgr.OnChange(func(cfg *Config) {})

	mgr.mu.RLock()
	if len(mgr.callbacks) != 3 {
		t.Errorf("expected 3 callbacks, got %d", len(mgr.callbacks))
	}
	mgr.mu.RUnlock()
}

func TestManager_Get_ThreadSafe(t *testing.T) {
	mgr, err := NewManager(writeConfig(t, "service:\n  token: abc\n"))
	if err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}

	done := make(chan struct{})
	for i := 0; i < 10; i++ {
		go func() {
			for j := 0; j < 100; j++ {
				cfg := mgr.Get()
				_ = cfg.Service.Token
			}
			done <- struct{}{}
		}()
	}
	for i := 0; i < 10; i++ {
		<-done
	}
}

func TestManager_WatchConfig(t *testing.T) {
	configFile := writeConfig(t, `
service:
  token: "initial_value"
`)

	mgr, err := NewManager(configFile)
	if err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}
	if got := mgr.Get().Service.Token; got != "initial_value" {
		t.Errorf("initial value mismatch: expected initial_value, got %s", got)
	}

	var callbackCount atomic.Int32
	var lastValue atomic.Value

	mgr.OnChange(func(cfg *Config) {
		callbackCount.Add(1)
		lastValue.Store(cfg.Service.Token)
	})

	mgr.WatchConfig()

	// Give fsnotify time to set up the watcher
	time.Sleep(100 * time.Millisecond)

	newContent := `
service:
  token: "updated_value"
`
	if err := os.WriteFile(configFile, []byte(newContent), 0644); err != nil {
		t.Fatalf("failed to write updated config file: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if callbackCount.Load() > 0 && lastValue.Load() == "updated_value" {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}

	if callbackCount.Load() == 0 {
		t.Fatal("callback was not invoked after config file change")
	}
	if got := mgr.Get().Service.Token; got != "updated_value" {
		t.Errorf("config not updated: expected updated_value, got %s", got)
	}
	if v := lastValue.Load(); v != "updated_value" {
		t.Errorf("callback received wrong value: expected updated_value, got %v", v)
	}
}

func TestWriteDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := WriteDefault(path); err != nil {
		t.Fatalf("WriteDefault() error = %v", err)
	}

	mgr, err := NewManager(path)
	if err != nil {
		t.Fatalf("failed to load written config: %v", err)
	}
	cfg := mgr.Get()
	want := DefaultConfig()
	if *cfg != *want {
		t.Errorf("written config = %+v, want %+v", cfg, want)
	}
}
