package main

import (
	"strings"
	"testing"

	"github.com/appengine-ltd/reactor/internal/config"
	"github.com/appengine-ltd/reactor/internal/reactor"
)

func TestConsoleDocListsEveryCommand(t *testing.T) {
	doc := generateConsoleDoc()
	for _, want := range []string{"| `scram` |", "az5", "| `valve` |", "| `pump` | circuit", "| circuit | 2 |"} {
		if !strings.Contains(doc.Content, want) {
			t.Fatalf("expected console doc to contain %q:\n%s", want, doc.Content)
		}
	}
}

func TestCoreDocDescribesReferenceLayout(t *testing.T) {
	doc, err := generateCoreDoc(reactor.DefaultLatticeConfig())
	if err != nil {
		t.Fatalf("core doc: %v", err)
	}
	if !strings.Contains(doc.Content, "7x7 grid: 24 fuel cells") {
		t.Fatalf("unexpected summary:\n%s", doc.Content)
	}
	if !strings.Contains(doc.Content, "| 1 | 1 | 1, 5, 9 |") {
		t.Fatalf("expected the first valve of the reference layout:\n%s", doc.Content)
	}
	if strings.Count(doc.Content, "  R") == 0 {
		t.Fatalf("expected rod sites in the grid:\n%s", doc.Content)
	}
}

func TestCoreDocRejectsBadLayout(t *testing.T) {
	cfg := reactor.DefaultLatticeConfig()
	cfg.ValveSize = 5
	if _, err := generateCoreDoc(cfg); err == nil {
		t.Fatalf("expected an unsplittable layout to fail")
	}
}

func TestConfigDoc(t *testing.T) {
	doc, err := generateConfigDoc(config.Default())
	if err != nil {
		t.Fatalf("config doc: %v", err)
	}
	if !strings.Contains(doc.Content, "```yaml\nsimulation:") {
		t.Fatalf("unexpected config doc:\n%s", doc.Content)
	}
}

func TestArgRange(t *testing.T) {
	if argRange(1, 1) != "1" || argRange(0, 2) != "0-2" {
		t.Fatalf("unexpected arg ranges %q %q", argRange(1, 1), argRange(0, 2))
	}
}
