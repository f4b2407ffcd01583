package plugin

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"
)

func TestPlugin_Notifier_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	dir := findPluginDir("notifier")
	if dir == "" {
		t.Skip("notifier plugin not found")
	}
	if _, err := os.Stat(filepath.Join(dir, "notifier")); err != nil {
		t.Skip("notifier plugin not built")
	}
	if _, err := exec.LookPath("notify-send"); err != nil {
		if _, err := exec.LookPath("osascript"); err != nil {
			t.Skip("no desktop notification tool available")
		}
	}

	m := NewManager(filepath.Dir(dir))
	if err := m.Discover(); err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	p, err := m.Get("notifier")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	// An empty message is rejected without touching the desktop.
	resp, err := NewExecutor(5*time.Second).Execute(context.Background(), p, &Request{Category: "generic"})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if resp.Success {
		t.Error("expected failure for an empty message")
	}
}

func findPluginDir(name string) string {
	for _, dir := range []string{
		filepath.Join("../../plugins", name),
		filepath.Join("../../../plugins", name),
	} {
		if _, err := os.Stat(filepath.Join(dir, "plugin.json")); err == nil {
			return dir
		}
	}
	return ""
}
