// Package main is a notification plugin. It shows drawing notifications as
// desktop notifications via osascript on macOS and notify-send elsewhere.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
)

// Request is the notification sent by the plugin executor.
type Request struct {
	Message   string          `json:"message"`
	Category  string          `json:"category"`
	Tool      string          `json:"tool,omitempty"`
	Accent    string          `json:"accent,omitempty"`
	DisplayMs int64           `json:"displayMs,omitempty"`
	Config    json.RawMessage `json:"config,omitempty"`
}

// Response is written back to the executor.
type Response struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Config is the optional per-plugin configuration from plugin.json.
type Config struct {
	Title string `json:"title"`
	Sound bool   `json:"sound"`
}

const defaultTitle = "Rangoli"

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		respond(fmt.Errorf("decode request: %w", err))
		return
	}
	respond(notify(req))
}

func notify(req Request) error {
	if strings.TrimSpace(req.Message) == "" {
		return errors.New("message is required")
	}

	cfg := Config{Title: defaultTitle}
	if len(req.Config) > 0 {
		if err := json.Unmarshal(req.Config, &cfg); err != nil {
			return fmt.Errorf("parse config: %w", err)
		}
	}

	name, args := command(runtime.GOOS, cfg, req)
	if out, err := exec.Command(name, args...).CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(out)))
	}
	return nil
}

// command builds the platform notification command.
func command(goos string, cfg Config, req Request) (string, []string) {
	title := cfg.Title
	if title == "" {
		title = defaultTitle
	}

	if goos == "darwin" {
		script := fmt.Sprintf("display notification %s with title %s", quote(req.Message), quote(title))
		if cfg.Sound {
			script += ` sound name "Glass"`
		}
		return "osascript", []string{"-e", script}
	}

	args := []string{"--app-name=" + title}
	if req.DisplayMs > 0 {
		args = append(args, "--expire-time="+strconv.FormatInt(req.DisplayMs, 10))
	}
	if req.Category == "export" || req.Category == "reset" {
		args = append(args, "--urgency=normal")
	} else {
		args = append(args, "--urgency=low")
	}
	return "notify-send", append(args, title, req.Message)
}

// quote renders s as an AppleScript string literal.
func quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}

func respond(err error) {
	resp := Response{Success: err == nil}
	if err != nil {
		resp.Error = err.Error()
	}
	json.NewEncoder(os.Stdout).Encode(resp)
}
