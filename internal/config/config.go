package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tidwall/jsonc"
	"github.com/vango-dev/livesync/internal/errors"
	"github.com/vango-dev/livesync/pkg/client"
	"gopkg.in/yaml.v3"
)

// FileNames are the configuration file names searched by Find, in order.
var FileNames = []string{"livesync.json", "livesync.jsonc", "livesync.yaml", "livesync.yml"}

const (
	// DefaultLogFormat is the default log output format.
	DefaultLogFormat = "text"

	// DefaultLogLevel is the default minimum log level.
	DefaultLogLevel = "info"
)

// Config is the contents of a livesync configuration file.
type Config struct {
	// URL is the WebSocket endpoint.
	URL string `json:"url,omitempty" yaml:"url,omitempty"`

	// API is the root of the JSON API.
	API string `json:"api,omitempty" yaml:"api,omitempty"`

	// Board and Thread select the page to watch. Thread 0 watches the
	// board index.
	Board  string `json:"board,omitempty" yaml:"board,omitempty"`
	Thread uint64 `json:"thread,omitempty" yaml:"thread,omitempty"`

	// LastN limits a thread to its most recent replies. 0 shows all.
	LastN int `json:"lastN,omitempty" yaml:"lastN,omitempty"`

	Reconnect ReconnectConfig `json:"reconnect" yaml:"reconnect"`
	Sync      SyncConfig      `json:"sync" yaml:"sync"`
	Log       LogConfig       `json:"log" yaml:"log"`
	Metrics   MetricsConfig   `json:"metrics" yaml:"metrics"`

	// path stores the path the config was loaded from.
	path string
}

// ReconnectConfig controls reconnection after a lost connection.
type ReconnectConfig struct {
	// ResetAfter is how long a connection must stay open for the attempt
	// counter to reset.
	ResetAfter Duration `json:"resetAfter,omitempty" yaml:"resetAfter,omitempty"`

	Backoff BackoffConfig `json:"backoff" yaml:"backoff"`
}

// BackoffConfig is the reconnection delay curve.
type BackoffConfig struct {
	Base        Duration `json:"base,omitempty" yaml:"base,omitempty"`
	Factor      float64  `json:"factor,omitempty" yaml:"factor,omitempty"`
	MaxExponent int      `json:"maxExponent,omitempty" yaml:"maxExponent,omitempty"`
}

// SyncConfig controls reconciliation after a reconnect.
type SyncConfig struct {
	ReclaimWindow Duration `json:"reclaimWindow,omitempty" yaml:"reclaimWindow,omitempty"`
	FetchTimeout  Duration `json:"fetchTimeout,omitempty" yaml:"fetchTimeout,omitempty"`
}

// LogConfig controls log output.
type LogConfig struct {
	// Format is "text" or "json".
	Format string `json:"format,omitempty" yaml:"format,omitempty"`

	// Level is "debug", "info", "warn" or "error".
	Level string `json:"level,omitempty" yaml:"level,omitempty"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	// Addr is the listen address of /metrics. Empty disables the endpoint.
	Addr string `json:"addr,omitempty" yaml:"addr,omitempty"`

	// Namespace prefixes all metric names.
	Namespace string `json:"namespace,omitempty" yaml:"namespace,omitempty"`
}

// Duration is a time.Duration written as a string such as "1m30s".
type Duration time.Duration

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// String returns the duration formatted by time.Duration.
func (d Duration) String() string { return time.Duration(d).String() }

// MarshalJSON encodes the duration as a string.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON accepts a duration string.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("duration must be a string: %w", err)
	}
	return d.parse(s)
}

// MarshalYAML encodes the duration as a string.
func (d Duration) MarshalYAML() (any, error) {
	return d.String(), nil
}

// UnmarshalYAML accepts a duration string.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: duration must be a string", node.Line)
	}
	return d.parse(node.Value)
}

func (d *Duration) parse(s string) error {
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// New returns a Config with default values.
func New() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Find returns the first configuration file present in dir, or "" if
// there is none.
func Find(dir string) string {
	for _, name := range FileNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// Load reads and validates a configuration file. The format follows the
// file extension.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New("E100").
			WithSource(path, "").
			Wrap(err)
	}

	cfg, err := Parse(data, filepath.Ext(path))
	if err != nil {
		var coded *errors.Error
		if e, ok := err.(*errors.Error); ok {
			coded = e
		} else {
			coded = errors.New("E101").Wrap(err)
		}
		if coded.Source == nil {
			coded.WithSource(path, "")
		} else if coded.Source.File == "" {
			coded.Source.File = path
		}
		return nil, coded
	}
	cfg.path = path
	return cfg, nil
}

// Parse decodes and validates configuration data. ext selects the format:
// ".json" and ".jsonc" for JSON with comments, ".yaml" and ".yml" for YAML.
func Parse(data []byte, ext string) (*Config, error) {
	cfg := &Config{}
	switch strings.ToLower(ext) {
	case ".json", ".jsonc":
		dec := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
		dec.DisallowUnknownFields()
		if err := dec.Decode(cfg); err != nil {
			return nil, errors.New("E101").
				WithSuggestion("Check field names and that durations are quoted strings such as \"10s\"").
				Wrap(err)
		}
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && err != io.EOF {
			return nil, errors.New("E101").
				WithSuggestion("Check the indentation and field names").
				Wrap(err)
		}
	default:
		return nil, errors.New("E104").
			WithDetailf("Unsupported file extension %q.", ext)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Path returns the path the config was loaded from.
func (c *Config) Path() string {
	return c.path
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	d := client.DefaultConfig()
	if c.URL == "" {
		c.URL = d.URL
	}
	if c.API == "" {
		c.API = d.APIURL
	}

	// Reconnect
	if c.Reconnect.ResetAfter == 0 {
		c.Reconnect.ResetAfter = Duration(d.ResetAttemptsAfter)
	}
	if c.Reconnect.Backoff.Base == 0 {
		c.Reconnect.Backoff.Base = Duration(d.Backoff.Base)
	}
	if c.Reconnect.Backoff.Factor == 0 {
		c.Reconnect.Backoff.Factor = d.Backoff.Factor
	}
	if c.Reconnect.Backoff.MaxExponent == 0 {
		c.Reconnect.Backoff.MaxExponent = d.Backoff.MaxExponent
	}

	// Sync
	if c.Sync.ReclaimWindow == 0 {
		c.Sync.ReclaimWindow = Duration(d.ReclaimWindow)
	}
	if c.Sync.FetchTimeout == 0 {
		c.Sync.FetchTimeout = Duration(d.FetchTimeout)
	}

	// Log
	if c.Log.Format == "" {
		c.Log.Format = DefaultLogFormat
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
}

// Validate checks that all values are usable.
func (c *Config) Validate() error {
	if err := checkURL(c.URL, "url", "ws", "wss"); err != nil {
		return err
	}
	if err := checkURL(c.API, "api", "http", "https"); err != nil {
		return err
	}

	switch {
	case c.LastN < 0:
		return invalid("lastN", "lastN must not be negative")
	case c.Reconnect.ResetAfter < 0:
		return invalid("reconnect.resetAfter", "resetAfter must be positive")
	case c.Reconnect.Backoff.Base < 0:
		return invalid("reconnect.backoff.base", "base must be positive")
	case c.Reconnect.Backoff.Factor < 1:
		return invalid("reconnect.backoff.factor", "factor must be at least 1")
	case c.Reconnect.Backoff.MaxExponent < 0:
		return invalid("reconnect.backoff.maxExponent", "maxExponent must not be negative")
	case c.Sync.ReclaimWindow < 0:
		return invalid("sync.reclaimWindow", "reclaimWindow must be positive")
	case c.Sync.FetchTimeout < 0:
		return invalid("sync.fetchTimeout", "fetchTimeout must be positive")
	}

	switch c.Log.Format {
	case "text", "json":
	default:
		return errors.New("E201").WithSource("", "log.format")
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return errors.New("E202").WithSource("", "log.level")
	}
	return nil
}

func invalid(key, detail string) error {
	return errors.New("E102").
		WithSource("", key).
		WithDetail(detail)
}

func checkURL(raw, key string, schemes ...string) error {
	u, err := url.Parse(raw)
	if err == nil && u.Host != "" {
		for _, s := range schemes {
			if u.Scheme == s {
				return nil
			}
		}
	}
	return errors.New("E103").
		WithSource("", key).
		WithSuggestion(fmt.Sprintf("Use a %s:// URL", schemes[0]))
}

// Client returns the client configuration described by c.
func (c *Config) Client() *client.Config {
	cfg := client.DefaultConfig()
	cfg.URL = c.URL
	cfg.APIURL = c.API
	cfg.ResetAttemptsAfter = c.Reconnect.ResetAfter.Std()
	cfg.Backoff = client.Backoff{
		Base:        c.Reconnect.Backoff.Base.Std(),
		Factor:      c.Reconnect.Backoff.Factor,
		MaxExponent: c.Reconnect.Backoff.MaxExponent,
	}
	cfg.ReclaimWindow = c.Sync.ReclaimWindow.Std()
	cfg.FetchTimeout = c.Sync.FetchTimeout.Std()
	return cfg
}

// Page returns the watched page.
func (c *Config) Page() client.StaticPage {
	return client.StaticPage{
		BoardID:  c.Board,
		ThreadID: c.Thread,
		Last:     c.LastN,
	}
}
