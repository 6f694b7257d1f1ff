package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

const fileLoaderConfig = `
logLevel: INFO
assets:
  - id: 42
    name: endpoint-a
    checks:
      - name: web
        interval: 10s
        config:
          url: https://a.test.de
`

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestNewFileLoader(t *testing.T) {
	cfg := &Config{Loader: LoaderConfig{
		Interval: time.Minute,
		File:     FileLoaderConfig{Path: "config.yaml"},
	}}
	l := NewFileLoader(cfg, make(chan<- Runtime))

	if l.path != "config.yaml" {
		t.Errorf("Expected path to be config.yaml, got %s", l.path)
	}
	if l.cRuntime == nil {
		t.Errorf("Expected channel to be not nil")
	}
}

func TestFileLoader_Run(t *testing.T) {
	path := writeConfigFile(t, fileLoaderConfig)
	cRuntime := make(chan Runtime)
	f := NewFileLoader(&Config{Loader: LoaderConfig{
		Interval: 10 * time.Millisecond,
		File:     FileLoaderConfig{Path: path},
	}}, cRuntime)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go f.Run(ctx) //nolint:errcheck

	select {
	case rt := <-cRuntime:
		if len(rt.Assets) != 1 || rt.Assets[0].ID != "42" {
			t.Errorf("unexpected runtime configuration: %+v", rt)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no runtime configuration received")
	}
}

func TestFileLoader_Run_PicksUpEdits(t *testing.T) {
	path := writeConfigFile(t, fileLoaderConfig)
	cRuntime := make(chan Runtime)
	f := NewFileLoader(&Config{Loader: LoaderConfig{
		Interval: 10 * time.Millisecond,
		File:     FileLoaderConfig{Path: path},
	}}, cRuntime)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go f.Run(ctx) //nolint:errcheck

	<-cRuntime
	if err := os.WriteFile(path, []byte("logLevel: ERROR\nassets: []\n"), 0o600); err != nil {
		t.Fatalf("failed to rewrite config file: %v", err)
	}

	deadline := time.After(5 * time.Second)
	for {
		select {
		case rt := <-cRuntime:
			if rt.LogLevel == "ERROR" {
				return
			}
		case <-deadline:
			t.Fatal("edited runtime configuration never received")
		}
	}
}

func TestFileLoader_load_SkipsBrokenRevisions(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "not yaml", content: "this is not yaml"},
		{name: "invalid sleep time", content: "sleepTime: 0s\nassets: []\n"},
		{name: "invalid asset", content: "assets:\n  - id: 42\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfigFile(t, tt.content)
			f := NewFileLoader(&Config{Loader: LoaderConfig{
				Interval: time.Minute,
				File:     FileLoaderConfig{Path: path},
			}}, make(chan Runtime))

			if err := f.load(context.Background()); err == nil {
				t.Error("load() error = nil, want validation error")
			}
		})
	}
}

func TestFileLoader_load_MissingFile(t *testing.T) {
	f := NewFileLoader(&Config{Loader: LoaderConfig{
		Interval: time.Minute,
		File:     FileLoaderConfig{Path: filepath.Join(t.TempDir(), "missing.yaml")},
	}}, make(chan Runtime))

	if err := f.load(context.Background()); err == nil {
		t.Error("load() error = nil, want read error")
	}
}
