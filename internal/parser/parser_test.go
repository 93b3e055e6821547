package parser

import (
	"math"
	"strings"
	"testing"
)

func reactorContext() ParseContext {
	return ParseContext{Cells: 24, Valves: 8, Circuits: 2}
}

func TestNormalisationTable(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "  RAISE  Rod 5 ", want: "raise rod 5"},
		{in: "pump #1 -> 50%", want: "pump 1 50%"},
		{in: "lower c3 -0.1", want: "lower c3 -0.1"},
		{in: "it's going to BLOW!!", want: "it s going to blow"},
	}
	for _, tc := range tests {
		got := normaliseInput(tc.in)
		if got != tc.want {
			t.Fatalf("normaliseInput(%q)=%q want=%q", tc.in, got, tc.want)
		}
	}
}

func TestAliasAz5MapsToScram(t *testing.T) {
	p := New()
	intent := p.Parse(reactorContext(), "az5")
	if intent.Verb != "scram" {
		t.Fatalf("expected scram verb, got %q", intent.Verb)
	}
	if intent.Clarify != nil {
		t.Fatalf("did not expect clarify: %+v", intent.Clarify)
	}
	if intent.Kind != Command {
		t.Fatalf("expected command kind, got %s", intent.Kind)
	}
}

func TestTypoScrmMapsToScram(t *testing.T) {
	p := New()
	intent := p.Parse(reactorContext(), "scrm")
	if intent.Verb != "scram" {
		t.Fatalf("expected scram verb, got %q", intent.Verb)
	}
	if intent.Confidence < 0.6 {
		t.Fatalf("expected decent confidence for typo correction, got %.2f", intent.Confidence)
	}
}

func TestRodCommandWithDirection(t *testing.T) {
	p := New()
	intent := p.Parse(reactorContext(), "rod 5 up")
	if intent.Verb != "rod" || intent.Target != 5 {
		t.Fatalf("expected rod on cell 5, got %q target %d", intent.Verb, intent.Target)
	}
	if len(intent.Args) != 2 || intent.Args[1] != "up" {
		t.Fatalf("expected up direction, got %+v", intent.Args)
	}
	if got := IntentToCommandString(intent); got != "rod 5 up" {
		t.Fatalf("round trip = %q", got)
	}
}

func TestRodWithoutDirectionAsks(t *testing.T) {
	p := New()
	intent := p.Parse(reactorContext(), "rod 5")
	if intent.Clarify == nil || len(intent.Clarify.Options) != 2 {
		t.Fatalf("expected up/down clarify, got %+v", intent.Clarify)
	}
}

func TestRaiseRodSkipsFillerWords(t *testing.T) {
	p := New()
	intent := p.Parse(reactorContext(), "raise rod 3 20%")
	if intent.Verb != "raise" || intent.Target != 3 {
		t.Fatalf("expected raise on cell 3, got %q target %d", intent.Verb, intent.Target)
	}
	if intent.Amount == nil || math.Abs(intent.Amount.Value-0.2) > 1e-9 || !intent.Amount.Percent {
		t.Fatalf("expected 20%% amount, got %+v", intent.Amount)
	}
}

func TestPronounUsesSelectedCell(t *testing.T) {
	p := New()
	ctx := reactorContext()
	ctx.Selected = 4
	intent := p.Parse(ctx, "lower it 0.1")
	if intent.Clarify != nil {
		t.Fatalf("unexpected clarify: %+v", intent.Clarify)
	}
	if intent.Target != 4 {
		t.Fatalf("expected pronoun to resolve to cell 4, got %d", intent.Target)
	}
	if intent.Amount == nil || intent.Amount.Value != 0.1 {
		t.Fatalf("expected 0.1 amount, got %+v", intent.Amount)
	}
}

func TestPronounWithoutSelectionAsks(t *testing.T) {
	p := New()
	intent := p.Parse(reactorContext(), "lower it")
	if intent.Clarify == nil {
		t.Fatalf("expected clarify for unresolved pronoun")
	}
}

func TestTargetOutOfRangeAsks(t *testing.T) {
	p := New()
	intent := p.Parse(reactorContext(), "select 30")
	if intent.Clarify == nil || !strings.Contains(intent.Clarify.Prompt, "no cell 30") {
		t.Fatalf("expected out of range clarify, got %+v", intent.Clarify)
	}
}

func TestValveStateTypo(t *testing.T) {
	p := New()
	intent := p.Parse(reactorContext(), "valve 2 opn")
	if intent.Verb != "valve" || intent.Target != 2 {
		t.Fatalf("expected valve 2, got %q target %d", intent.Verb, intent.Target)
	}
	if len(intent.Args) != 2 || intent.Args[1] != "open" {
		t.Fatalf("expected open state, got %+v", intent.Args)
	}
}

func TestValveDefaultsToToggle(t *testing.T) {
	p := New()
	intent := p.Parse(reactorContext(), "v 7")
	if len(intent.Args) != 2 || intent.Args[1] != "toggle" {
		t.Fatalf("expected toggle, got %+v", intent.Args)
	}
}

func TestPumpPercent(t *testing.T) {
	p := New()
	intent := p.Parse(reactorContext(), "pump 1 to 50")
	if intent.Verb != "pump" || intent.Target != 1 {
		t.Fatalf("expected pump 1, got %q target %d", intent.Verb, intent.Target)
	}
	if intent.Amount == nil || math.Abs(intent.Amount.Value-0.5) > 1e-9 {
		t.Fatalf("expected 0.5 pump power, got %+v", intent.Amount)
	}
}

func TestPumpNeedsPower(t *testing.T) {
	p := New()
	intent := p.Parse(reactorContext(), "pump 2")
	if intent.Clarify == nil {
		t.Fatalf("expected clarify for pump without power")
	}
}

func TestAmbiguousPrefixReturnsClarify(t *testing.T) {
	p := New()
	intent := p.Parse(reactorContext(), "pu")
	if intent.Clarify == nil {
		t.Fatalf("expected clarify for ambiguous prefix")
	}
	if len(intent.Clarify.Options) < 2 {
		t.Fatalf("expected at least 2 clarify options, got %d", len(intent.Clarify.Options))
	}
}

func TestFreeTextPanicMapsToScram(t *testing.T) {
	p := New()
	intent := p.Parse(reactorContext(), "it's going to blow!")
	if intent.Verb != "scram" {
		t.Fatalf("expected scram inference, got %q", intent.Verb)
	}
}

func TestIntentKinds(t *testing.T) {
	p := New()
	tests := []struct {
		in   string
		kind IntentKind
	}{
		{"help", Help},
		{"status", Query},
		{"pause", Control},
		{"quit", Control},
		{"auto off", Control},
	}
	for _, tc := range tests {
		if got := p.Parse(reactorContext(), tc.in).Kind; got != tc.kind {
			t.Fatalf("%q kind = %s, want %s", tc.in, got, tc.kind)
		}
	}
}

func TestParseAmountToken(t *testing.T) {
	tests := []struct {
		in           string
		allowInteger bool
		want         float64
		ok           bool
	}{
		{"20%", false, 0.2, true},
		{"0.25", false, 0.25, true},
		{"-0.1", false, -0.1, true},
		{"+5%", false, 0.05, true},
		{"3", false, 0, false},
		{"30", true, 0.3, true},
		{"1", true, 1, true},
		{"up", true, 0, false},
	}
	for _, tc := range tests {
		got := parseAmountToken(tc.in, tc.allowInteger)
		if (got != nil) != tc.ok {
			t.Fatalf("parseAmountToken(%q) ok=%v want %v", tc.in, got != nil, tc.ok)
		}
		if got != nil && math.Abs(got.Value-tc.want) > 1e-9 {
			t.Fatalf("parseAmountToken(%q)=%.4f want %.4f", tc.in, got.Value, tc.want)
		}
	}
}

func TestRegistryCommandsSorted(t *testing.T) {
	cmds := DefaultRegistry().Commands()
	if len(cmds) != 13 {
		t.Fatalf("expected 13 console commands, got %d", len(cmds))
	}
	for i := 1; i < len(cmds); i++ {
		if cmds[i-1].Canonical >= cmds[i].Canonical {
			t.Fatalf("commands not sorted: %q before %q", cmds[i-1].Canonical, cmds[i].Canonical)
		}
	}
	if cmds[0].Canonical != "abandon" {
		t.Fatalf("expected abandon first, got %q", cmds[0].Canonical)
	}
}
