package gui

import (
	"fmt"
	"strings"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// runHotkey maps a key to a console line so hotkeys and typed commands take
// the same path through the parser.
type runHotkey struct {
	Key   int32
	Label string
	Line  func(ui *gameUI) string
}

var runHotkeys = []runHotkey{
	{Key: rl.KeyUp, Label: "Up raise rod", Line: func(*gameUI) string { return "raise it" }},
	{Key: rl.KeyDown, Label: "Down lower rod", Line: func(*gameUI) string { return "lower it" }},
	{Key: rl.KeyF1, Label: "F1 help", Line: func(*gameUI) string { return "help" }},
	{Key: rl.KeyF2, Label: "F2 valve", Line: func(ui *gameUI) string {
		valve := ui.selectedValve()
		if valve == 0 {
			return ""
		}
		return fmt.Sprintf("valve %d toggle", valve)
	}},
	{Key: rl.KeyF3, Label: "F3 autopilot", Line: func(*gameUI) string { return "auto" }},
	{Key: rl.KeyF4, Label: "F4 status", Line: func(*gameUI) string { return "status" }},
	{Key: rl.KeyF5, Label: "F5 pause", Line: func(ui *gameUI) string {
		if ui.session != nil && ui.session.Paused() {
			return "resume"
		}
		return "pause"
	}},
	{Key: rl.KeyF9, Label: "F9 SCRAM", Line: func(*gameUI) string { return "scram" }},
}

func hotkeyHint() string {
	labels := make([]string, 0, len(runHotkeys)+1)
	labels = append(labels, "Tab cell")
	for _, hk := range runHotkeys {
		labels = append(labels, hk.Label)
	}
	return strings.Join(labels, "  |  ")
}

// cycleSelection moves a 1-based selection through count cells. An empty
// selection starts from the first or last cell.
func cycleSelection(current, count int, backwards bool) int {
	if count <= 0 {
		return 0
	}
	if current < 1 || current > count {
		if backwards {
			return count
		}
		return 1
	}
	step := 1
	if backwards {
		step = -1
	}
	return wrapIndex(current-1+step, count) + 1
}

func HotkeysEnabled(uiState *gameUI) bool {
	if uiState == nil {
		return true
	}
	if uiState.screen == screenRun && strings.TrimSpace(uiState.runInput) != "" {
		return false
	}
	return true
}

func shiftDown() bool {
	return rl.IsKeyDown(rl.KeyLeftShift) || rl.IsKeyDown(rl.KeyRightShift)
}
