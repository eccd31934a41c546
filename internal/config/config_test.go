package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/vango-dev/livesync/internal/errors"
	"github.com/vango-dev/livesync/pkg/client"
)

func TestNew(t *testing.T) {
	cfg := New()
	d := client.DefaultConfig()

	if cfg.URL != d.URL {
		t.Errorf("URL = %q, want %q", cfg.URL, d.URL)
	}
	if cfg.API != d.APIURL {
		t.Errorf("API = %q, want %q", cfg.API, d.APIURL)
	}
	if cfg.Log.Format != DefaultLogFormat || cfg.Log.Level != DefaultLogLevel {
		t.Errorf("Log = %+v", cfg.Log)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

const jsoncConfig = `{
  // Local test board
  "url": "wss://example.org/api/socket",
  "api": "https://example.org",
  "board": "a",
  "thread": 1234,
  "lastN": 100,
  "reconnect": {
    "resetAfter": "30s",
    "backoff": {"base": "1s", "factor": 2, "maxExponent": 5},
  },
  "sync": {"reclaimWindow": "10m"},
  "log": {"format": "json", "level": "debug"},
  "metrics": {"addr": ":9090"},
}
`

const yamlConfig = `
url: wss://example.org/api/socket
api: https://example.org
board: a
thread: 1234
lastN: 100
reconnect:
  resetAfter: 30s
  backoff:
    base: 1s
    factor: 2
    maxExponent: 5
sync:
  reclaimWindow: 10m
log:
  format: json
  level: debug
metrics:
  addr: ":9090"
`

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{name: "jsonc", file: "livesync.json", content: jsoncConfig},
		{name: "yaml", file: "livesync.yaml", content: yamlConfig},
		{name: "yml", file: "livesync.yml", content: yamlConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.file)
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}

			cfg, err := Load(path)
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if cfg.Path() != path {
				t.Errorf("Path() = %q, want %q", cfg.Path(), path)
			}
			if cfg.Board != "a" || cfg.Thread != 1234 || cfg.LastN != 100 {
				t.Errorf("page = %s/%d last %d", cfg.Board, cfg.Thread, cfg.LastN)
			}
			if cfg.Metrics.Addr != ":9090" || cfg.Log.Format != "json" {
				t.Errorf("metrics = %+v, log = %+v", cfg.Metrics, cfg.Log)
			}

			cc := cfg.Client()
			if cc.URL != "wss://example.org/api/socket" || cc.APIURL != "https://example.org" {
				t.Errorf("client URLs = %q, %q", cc.URL, cc.APIURL)
			}
			if cc.ResetAttemptsAfter != 30*time.Second {
				t.Errorf("ResetAttemptsAfter = %v", cc.ResetAttemptsAfter)
			}
			wantBackoff := client.Backoff{Base: time.Second, Factor: 2, MaxExponent: 5}
			if cc.Backoff != wantBackoff {
				t.Errorf("Backoff = %+v, want %+v", cc.Backoff, wantBackoff)
			}
			if cc.ReclaimWindow != 10*time.Minute {
				t.Errorf("ReclaimWindow = %v", cc.ReclaimWindow)
			}
			// Not set in the file
			if cc.FetchTimeout != client.DefaultConfig().FetchTimeout {
				t.Errorf("FetchTimeout = %v, want default", cc.FetchTimeout)
			}

			page := cfg.Page()
			if page.Board() != "a" || page.Thread() != 1234 || page.LastN() != 100 {
				t.Errorf("Page() = %+v", page)
			}
		})
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		content  string
		wantCode string
		wantKey  string
	}{
		{name: "bad_json", file: "livesync.json", content: `{"board": }`, wantCode: "E101"},
		{name: "unknown_field", file: "livesync.json", content: `{"bored": "a"}`, wantCode: "E101"},
		{name: "unquoted_duration", file: "livesync.json", content: `{"sync": {"fetchTimeout": 15}}`, wantCode: "E101"},
		{name: "bad_duration", file: "livesync.yaml", content: "sync:\n  fetchTimeout: soon\n", wantCode: "E101"},
		{name: "unknown_yaml_field", file: "livesync.yaml", content: "bored: a\n", wantCode: "E101"},
		{name: "bad_scheme", file: "livesync.json", content: `{"url": "http://example.org"}`, wantCode: "E103", wantKey: "url"},
		{name: "bad_api", file: "livesync.yaml", content: "api: example.org\n", wantCode: "E103", wantKey: "api"},
		{name: "bad_factor", file: "livesync.json", content: `{"reconnect": {"backoff": {"factor": 0.5}}}`, wantCode: "E102", wantKey: "reconnect.backoff.factor"},
		{name: "negative_last_n", file: "livesync.yaml", content: "lastN: -1\n", wantCode: "E102", wantKey: "lastN"},
		{name: "bad_log_format", file: "livesync.json", content: `{"log": {"format": "xml"}}`, wantCode: "E201", wantKey: "log.format"},
		{name: "bad_log_level", file: "livesync.json", content: `{"log": {"level": "loud"}}`, wantCode: "E202", wantKey: "log.level"},
		{name: "bad_extension", file: "livesync.toml", content: "", wantCode: "E104"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.file)
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}

			_, err := Load(path)
			e, ok := err.(*errors.Error)
			if !ok {
				t.Fatalf("Load() error = %v, want *errors.Error", err)
			}
			if e.Code != tt.wantCode {
				t.Errorf("Code = %q, want %q (%v)", e.Code, tt.wantCode, err)
			}
			if e.Source == nil || e.Source.File != path {
				t.Errorf("Source = %v, want file %q", e.Source, path)
			}
			if tt.wantKey != "" && e.Source.Key != tt.wantKey {
				t.Errorf("Source.Key = %q, want %q", e.Source.Key, tt.wantKey)
			}
		})
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "livesync.json"))
	e, ok := err.(*errors.Error)
	if !ok || e.Code != "E100" || !os.IsNotExist(e.Unwrap()) {
		t.Fatalf("Load() error = %v, want E100 wrapping not exist", err)
	}
}

func TestParseEmptyYAML(t *testing.T) {
	cfg, err := Parse(nil, ".yaml")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cfg.URL != client.DefaultConfig().URL {
		t.Errorf("URL = %q, want default", cfg.URL)
	}
}

func TestFind(t *testing.T) {
	dir := t.TempDir()
	if got := Find(dir); got != "" {
		t.Errorf("Find() = %q in empty dir", got)
	}

	yamlPath := filepath.Join(dir, "livesync.yaml")
	if err := os.WriteFile(yamlPath, []byte(yamlConfig), 0644); err != nil {
		t.Fatal(err)
	}
	if got := Find(dir); got != yamlPath {
		t.Errorf("Find() = %q, want %q", got, yamlPath)
	}

	jsonPath := filepath.Join(dir, "livesync.json")
	if err := os.WriteFile(jsonPath, []byte(jsoncConfig), 0644); err != nil {
		t.Fatal(err)
	}
	if got := Find(dir); got != jsonPath {
		t.Errorf("Find() = %q, want JSON to take precedence", got)
	}
}

func TestDuration(t *testing.T) {
	d := Duration(90 * time.Second)
	data, err := d.MarshalJSON()
	if err != nil || string(data) != `"1m30s"` {
		t.Fatalf("MarshalJSON() = %s, %v", data, err)
	}

	var back Duration
	if err := back.UnmarshalJSON(data); err != nil || back != d {
		t.Fatalf("UnmarshalJSON() = %v, %v", back, err)
	}
	if err := back.UnmarshalJSON([]byte(`"forever"`)); err == nil || !strings.Contains(err.Error(), "forever") {
		t.Errorf("UnmarshalJSON(forever) error = %v", err)
	}
}
