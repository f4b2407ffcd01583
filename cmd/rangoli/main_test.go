package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCanvasURL(t *testing.T) {
	tests := []struct {
		addr string
		want string
	}{
		{":8080", "http://localhost:8080/"},
		{"127.0.0.1:9000", "http://127.0.0.1:9000/"},
	}
	for _, tt := range tests {
		if got := canvasURL(tt.addr); got != tt.want {
			t.Errorf("canvasURL(%q) = %q, want %q", tt.addr, got, tt.want)
		}
	}
}

func TestFindWebDir(t *testing.T) {
	dataDir := t.TempDir()

	if got := findWebDir("", dataDir); got != "" {
		t.Errorf("findWebDir() = %q, want none", got)
	}

	configured := t.TempDir()
	if got := findWebDir(configured, dataDir); got != configured {
		t.Errorf("findWebDir() = %q, want the configured dir %q", got, configured)
	}

	file := filepath.Join(t.TempDir(), "not-a-dir")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	inData := filepath.Join(dataDir, "web")
	if err := os.Mkdir(inData, 0o755); err != nil {
		t.Fatal(err)
	}
	if got := findWebDir(file, dataDir); got != inData {
		t.Errorf("findWebDir() = %q, want the data dir fallback %q", got, inData)
	}
}

func TestRun_WriteConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	t.Setenv("RANGOLI_DATA_DIR", t.TempDir())

	if err := run(path, true, true, true); err != nil {
		t.Fatalf("run(-write-config) error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("config not written: %v", err)
	}
	if len(data) == 0 {
		t.Error("written config is empty")
	}
}
