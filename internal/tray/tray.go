// Package tray provides a system tray menu for switching the interaction
// mode and showing the tree status.
package tray

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/getlantern/systray"

	"github.com/wenxinhu03/christmas-tree2/internal/state"
)

// Tray represents the system tray application.
type Tray struct {
	onToggle func() (state.Mode, error)
	onOpen   func()
	onQuit   func()
	logger   *slog.Logger

	mu   sync.RWMutex
	snap state.Snapshot

	// Menu items stored for later updates
	menuMode   *systray.MenuItem
	menuTree   *systray.MenuItem
	menuStatus *systray.MenuItem
}

// New creates a new Tray showing the startup defaults.
func New(logger *slog.Logger) *Tray {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tray{
		logger: logger,
		snap:   state.Snapshot{TreeState: state.TreeFormed, Mode: state.ModePointer},
	}
}

// OnToggleMode sets the callback invoked when the mode item is clicked. It
// returns the mode in effect afterwards.
func (t *Tray) OnToggleMode(fn func() (state.Mode, error)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnOpen sets the callback invoked by the "Open in Browser" item.
func (t *Tray) OnOpen(fn func()) {
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

// Quit closes the tray, unblocking Run.
func (t *Tray) Quit() {
	systray.Quit()
}

// Watch mirrors state changes into the menu until ctx is done.
func (t *Tray) Watch(ctx context.Context, st *state.State) {
	updates, cancel := st.Subscribe()
	defer cancel()

	t.Update(st.Snapshot())
	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-updates:
			if !ok {
				return
			}
			t.Update(snap)
		}
	}
}

func (t *Tray) onReady() {
	systray.SetTitle("Xmas Tree")
	systray.SetTooltip("Particle Christmas tree")

	t.mu.Lock()
	snap := t.snap
	t.menuMode = systray.AddMenuItem(modeTitle(snap.Mode), "Switch between pointer and gesture control")
	systray.AddSeparator()

	t.menuTree = systray.AddMenuItem(treeTitle(snap.TreeState), "Current tree layout")
	t.menuTree.Disable()
	t.menuStatus = systray.AddMenuItem(statusTitle(snap.GestureStatus), "Last gesture status")
	t.menuStatus.Disable()
	t.mu.Unlock()
	systray.AddSeparator()

	menuOpen := systray.AddMenuItem("Open in Browser", "Open the tree in a browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit")

	go func() {
		for {
			select {
			case <-t.menuMode.ClickedCh:
				t.handleToggle()
			case <-menuOpen.ClickedCh:
				t.handleOpen()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

func (t *Tray) onExit() {}

// handleToggle asks the application to flip the mode. The menu title
// follows from the resulting state update, not from the click.
func (t *Tray) handleToggle() {
	t.mu.RLock()
	callback := t.onToggle
	t.mu.RUnlock()

	if callback == nil {
		return
	}
	mode, err := callback()
	if err != nil {
		t.logger.Warn("mode switch from tray failed", "mode", mode, "error", err)
	}
}

func (t *Tray) handleOpen() {
	t.mu.RLock()
	callback := t.onOpen
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// Update refreshes the menu from snap.
func (t *Tray) Update(snap state.Snapshot) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.snap = snap
	if t.menuMode != nil {
		t.menuMode.SetTitle(modeTitle(snap.Mode))
	}
	if t.menuTree != nil {
		t.menuTree.SetTitle(treeTitle(snap.TreeState))
	}
	if t.menuStatus != nil {
		t.menuStatus.SetTitle(statusTitle(snap.GestureStatus))
	}
}

// Snapshot returns the state last shown in the menu.
func (t *Tray) Snapshot() state.Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.snap
}

func modeTitle(m state.Mode) string {
	if m == state.ModeGesture {
		return "● Gesture control (camera on)"
	}
	return "○ Pointer control"
}

func treeTitle(ts state.TreeState) string {
	return fmt.Sprintf("Tree: %s", ts)
}

func statusTitle(status string) string {
	if status == "" {
		return "Gesture: none"
	}
	return "Gesture: " + status
}
