package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"runtime"
	"strings"
	"testing"

	"github.com/vango-dev/livesync/internal/errors"
	"github.com/vango-dev/livesync/pkg/client"
)

func TestVersionCmd(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want []string
	}{
		{name: "short", args: []string{"version", "--short"}, want: []string{version + "\n"}},
		{name: "full", args: []string{"version"}, want: []string{"Version:    " + version, "Commit:", runtime.Version()}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			cmd := newRootCmd()
			cmd.SetOut(&out)
			cmd.SetArgs(tt.args)
			if err := cmd.Execute(); err != nil {
				t.Fatalf("Execute() error = %v", err)
			}
			for _, want := range tt.want {
				if !strings.Contains(out.String(), want) {
					t.Errorf("output %q does not contain %q", out.String(), want)
				}
			}
		})
	}
}

func TestRootCommands(t *testing.T) {
	cmd := newRootCmd()
	for _, name := range []string{"watch", "errors", "version"} {
		if sub, _, err := cmd.Find([]string{name}); err != nil || sub.Name() != name {
			t.Errorf("Find(%q) = %v, %v", name, sub, err)
		}
	}
}

func TestErrorsCmd(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    []string
		wantErr bool
	}{
		{name: "list", args: []string{"errors"}, want: []string{"E100", "E301  sync"}},
		{name: "explain", args: []string{"errors", "e301"}, want: []string{"E301: Connection desynchronised (sync)", "Reconnecting requires"}},
		{name: "unknown", args: []string{"errors", "E999"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			cmd := newRootCmd()
			cmd.SetOut(&out)
			cmd.SetArgs(tt.args)
			err := cmd.Execute()
			if tt.wantErr {
				e, ok := err.(*errors.Error)
				if !ok || e.Code != "" || e.Category != errors.CategoryCLI {
					t.Fatalf("Execute() error = %v, want uncoded CLI error", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Execute() error = %v", err)
			}
			for _, want := range tt.want {
				if !strings.Contains(out.String(), want) {
					t.Errorf("output %q does not contain %q", out.String(), want)
				}
			}
		})
	}
}

func TestRunInvalidErrorFormat(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if got := run([]string{"--error-format", "xml", "version"}, &stdout, &stderr); got != 1 {
		t.Fatalf("run() = %d, want 1", got)
	}
	if !strings.Contains(stderr.String(), "E204") {
		t.Errorf("stderr = %q, want E204", stderr.String())
	}
	if stdout.Len() != 0 {
		t.Errorf("version printed despite invalid flag: %q", stdout.String())
	}
}

func TestRunJSONErrors(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantCode string
	}{
		{name: "coded", args: []string{"--error-format", "json", "watch"}, wantCode: "E200"},
		{name: "uncoded", args: []string{"--error-format", "json", "errors", "E999"}},
		{name: "flag error", args: []string{"--error-format", "json", "version", "--bogus"}, wantCode: "E205"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chdir(t, t.TempDir())
			var stdout, stderr bytes.Buffer
			if got := run(tt.args, &stdout, &stderr); got != 1 {
				t.Fatalf("run() = %d, want 1", got)
			}
			var got struct {
				Code     string `json:"code"`
				Category string `json:"category"`
				Message  string `json:"message"`
			}
			if err := json.Unmarshal(stderr.Bytes(), &got); err != nil {
				t.Fatalf("stderr is not JSON: %v: %q", err, stderr.String())
			}
			if got.Code != tt.wantCode || got.Category != "cli" || got.Message == "" {
				t.Errorf("error = %+v, want code %q in the cli category", got, tt.wantCode)
			}
		})
	}
}

func TestRunNoColor(t *testing.T) {
	defer errors.EnableColors()
	chdir(t, t.TempDir())

	var stdout, stderr bytes.Buffer
	if got := run([]string{"--no-color", "watch"}, &stdout, &stderr); got != 1 {
		t.Fatalf("run() = %d, want 1", got)
	}
	if strings.Contains(stderr.String(), "\033[") {
		t.Errorf("stderr contains color codes: %q", stderr.String())
	}
	if !strings.Contains(stderr.String(), "ERROR E200: Missing board") {
		t.Errorf("stderr = %q", stderr.String())
	}
}

func TestDesyncMessage(t *testing.T) {
	cause := &client.ProtocolError{Reason: "session expired"}
	want := fmt.Sprintf("E301: Connection desynchronised: %v", cause)
	if got := desyncMessage(cause); got != want {
		t.Errorf("desyncMessage() = %q, want %q", got, want)
	}
}
