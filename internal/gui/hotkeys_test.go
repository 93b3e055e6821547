package gui

import (
	"strings"
	"testing"
)

func TestCycleSelection(t *testing.T) {
	cases := []struct {
		current, count int
		backwards      bool
		want           int
	}{
		{0, 24, false, 1},
		{0, 24, true, 24},
		{5, 24, false, 6},
		{24, 24, false, 1},
		{1, 24, true, 24},
		{30, 24, false, 1},
		{3, 0, false, 0},
	}
	for _, tc := range cases {
		if got := cycleSelection(tc.current, tc.count, tc.backwards); got != tc.want {
			t.Fatalf("cycleSelection(%d, %d, %v) = %d, want %d", tc.current, tc.count, tc.backwards, got, tc.want)
		}
	}
}

func TestHotkeysDisabledWhileTyping(t *testing.T) {
	ui := &gameUI{screen: screenRun}
	if !HotkeysEnabled(ui) {
		t.Fatalf("expected hotkeys with an empty prompt")
	}
	ui.runInput = "raise"
	if HotkeysEnabled(ui) {
		t.Fatalf("expected hotkeys blocked while typing")
	}
	ui.screen = screenMenu
	if !HotkeysEnabled(ui) {
		t.Fatalf("expected prompt text to matter only on the run screen")
	}
}

func TestHotkeyLinesParse(t *testing.T) {
	ui := newGameUI(AppConfig{})
	ui.startRun()
	if ui.session == nil {
		t.Fatalf("expected a session, status %q", ui.status)
	}
	ui.console.Select(4)

	for _, hk := range runHotkeys {
		line := hk.Line(ui)
		if line == "" {
			t.Fatalf("hotkey %q produced no line with a cell selected", hk.Label)
		}
		intent := ui.parser.Parse(ui.console.Context(ui.snap), line)
		if intent.Verb == "" || intent.Clarify != nil {
			t.Fatalf("hotkey %q line %q did not parse cleanly: %+v", hk.Label, line, intent)
		}
	}
	if !strings.Contains(hotkeyHint(), "F9 SCRAM") {
		t.Fatalf("expected scram in hint, got %q", hotkeyHint())
	}
}
