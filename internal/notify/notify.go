// Package notify carries user-facing messages from the drawing core to
// whatever displays them.
package notify

import (
	"fmt"
	"time"
)

// Category classifies a notification.
type Category string

const (
	// CategorySelection announces a tool picked from a zone.
	CategorySelection Category = "selection"
	// CategoryReset announces a cleared canvas.
	CategoryReset Category = "reset"
	// CategoryExport announces a saved drawing.
	CategoryExport Category = "export"
	// CategoryGeneric is anything else.
	CategoryGeneric Category = "generic"
)

// UI accents, as CSS colours.
const (
	AccentEraser  = "#f44336"
	AccentReset   = "#4CAF50"
	AccentExport  = "#2196F3"
	AccentDefault = "#FFC107"
)

// DefaultDisplay is how long consumers should show a notification.
const DefaultDisplay = 3 * time.Second

// Notification is one message for the user. Display timing is a hint for
// the consumer; nothing in the core waits on it.
type Notification struct {
	Message    string        `json:"message"`
	Category   Category      `json:"category"`
	Tool       string        `json:"tool,omitempty"`
	Accent     string        `json:"accent"`
	DisplayFor time.Duration `json:"-"`
	DisplayMs  int64         `json:"displayMs"`
	At         time.Time     `json:"at"`
}

// Selected announces a tool selection. Eraser zones get their own text.
func Selected(label, tool string, eraser bool) Notification {
	if eraser {
		return Notification{Message: "Eraser Selected", Category: CategorySelection, Tool: tool, Accent: AccentEraser}
	}
	return Notification{
		Message:  fmt.Sprintf("%s Selected", label),
		Category: CategorySelection,
		Tool:     tool,
		Accent:   AccentDefault,
	}
}

// Cleared announces a canvas reset.
func Cleared() Notification {
	return Notification{Message: "Canvas has been reset!", Category: CategoryReset, Accent: AccentReset}
}

// Saved announces a successful export.
func Saved() Notification {
	return Notification{Message: "Drawing saved!", Category: CategoryExport, Accent: AccentExport}
}

// Generic wraps free text.
func Generic(msg string) Notification {
	return Notification{Message: msg, Category: CategoryGeneric, Accent: AccentDefault}
}

// Sink receives notifications. Implementations must not block the caller
// for long: the drawing loop emits through them.
type Sink interface {
	Notify(n Notification)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Notification)

// Notify calls f(n).
func (f SinkFunc) Notify(n Notification) { f(n) }

// Discard drops every notification.
var Discard Sink = SinkFunc(func(Notification) {})
