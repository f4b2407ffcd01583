// Package plugin discovers external notifier programs and runs them with a
// JSON request on stdin.
package plugin

import "encoding/json"

// Manifest is the plugin.json file found in each plugin directory.
type Manifest struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description"`
	Executable  string `json:"executable"`
	// Categories lists the notification categories the plugin wants.
	// Empty means every category.
	Categories []string        `json:"categories,omitempty"`
	Config     json.RawMessage `json:"config,omitempty"`
}

// Wants reports whether the plugin subscribes to category.
func (m Manifest) Wants(category string) bool {
	if len(m.Categories) == 0 {
		return true
	}
	for _, c := range m.Categories {
		if c == category {
			return true
		}
	}
	return false
}

// Request is written to the plugin's stdin.
type Request struct {
	Message   string          `json:"message"`
	Category  string          `json:"category"`
	Tool      string          `json:"tool,omitempty"`
	Accent    string          `json:"accent,omitempty"`
	DisplayMs int64           `json:"displayMs,omitempty"`
	Config    json.RawMessage `json:"config,omitempty"`
}

// Response is read from the plugin's stdout.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Plugin is a discovered plugin and its location on disk.
type Plugin struct {
	Manifest   Manifest
	Path       string
	Executable string
}
