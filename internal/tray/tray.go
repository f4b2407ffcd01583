// Package tray provides the system tray control path for rangoli.
package tray

import (
	"sync"

	"github.com/getlantern/systray"
)

// Tray is the system tray menu. Every action is forwarded to a callback set
// before Run.
type Tray struct {
	onToggle func(enabled bool)
	onReset  func()
	onSave   func()
	onOpen   func()
	onQuit   func()
	enabled  bool
	tool     string
	mu       sync.RWMutex

	// Menu items stored for later updates
	menuToggle *systray.MenuItem
	menuTool   *systray.MenuItem
}

// New creates a new Tray instance with enabled state set to true by default.
func New() *Tray {
	return &Tray{
		enabled: true,
	}
}

// OnToggle sets the callback for the Enabled toggle.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnReset sets the callback for Reset Canvas.
func (t *Tray) OnReset(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onReset = fn
}

// OnSave sets the callback for Save Drawing.
func (t *Tray) OnSave(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onSave = fn
}

// OnOpenCanvas sets the callback for Open Canvas.
func (t *Tray) OnOpenCanvas(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onOpen = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until systray.Quit() is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

func toggleTitle(enabled bool) string {
	if enabled {
		return "● Drawing enabled"
	}
	return "○ Drawing paused"
}

func toolTitle(tool string) string {
	if tool == "" {
		return "Tool: none"
	}
	return "Tool: " + tool
}

// onReady is called when the system tray is ready.
// It sets up the menu structure.
func (t *Tray) onReady() {
	systray.SetTitle("Rangoli")
	systray.SetTooltip("Rangoli gesture drawing")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleTitle(t.enabled), "Pause or resume drawing")
	systray.AddSeparator()
	t.menuTool = systray.AddMenuItem(toolTitle(t.tool), "Active drawing tool")
	t.menuTool.Disable()
	t.mu.Unlock()
	systray.AddSeparator()

	menuReset := systray.AddMenuItem("Reset Canvas", "Clear the drawing")
	menuSave := systray.AddMenuItem("Save Drawing", "Export the drawing as PNG")
	menuOpen := systray.AddMenuItem("Open Canvas...", "Open the canvas in the browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit Rangoli")

	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-menuReset.ClickedCh:
				t.fire(func() func() { return t.onReset })
			case <-menuSave.ClickedCh:
				t.fire(func() func() { return t.onSave })
			case <-menuOpen.ClickedCh:
				t.fire(func() func() { return t.onOpen })
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

func (t *Tray) onExit() {}

// fire calls the callback chosen by pick, read under the lock.
func (t *Tray) fire(pick func() func()) {
	t.mu.RLock()
	callback := pick()
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

// handleToggle handles the toggle menu item click.
func (t *Tray) handleToggle() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(enabled))
	}
	callback := t.onToggle
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(enabled)
	}
}

// handleQuit handles the quit menu item click.
func (t *Tray) handleQuit() {
	t.fire(func() func() { return t.onQuit })
	systray.Quit()
}

// SetTool updates the active tool line.
func (t *Tray) SetTool(tool string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.tool = tool
	if t.menuTool != nil {
		t.menuTool.SetTitle(toolTitle(tool))
	}
}

// Tool returns the tool line's current value.
func (t *Tray) Tool() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.tool
}

// IsEnabled returns the current enabled state.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}

// Quit ends Run without calling the quit callback.
func (t *Tray) Quit() {
	systray.Quit()
}
