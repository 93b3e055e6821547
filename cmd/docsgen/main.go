package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/appengine-ltd/reactor/internal/config"
	"github.com/appengine-ltd/reactor/internal/parser"
	"github.com/appengine-ltd/reactor/internal/reactor"
)

type docFile struct {
	Name    string
	Title   string
	Content string
}

func main() {
	root := filepath.Join("docs", "reference")
	if err := os.MkdirAll(root, 0o755); err != nil {
		fatal(err)
	}

	files := []docFile{generateConsoleDoc()}
	coreDoc, err := generateCoreDoc(reactor.DefaultLatticeConfig())
	if err != nil {
		fatal(err)
	}
	files = append(files, coreDoc)
	configDoc, err := generateConfigDoc(config.Default())
	if err != nil {
		fatal(err)
	}
	files = append(files, configDoc)

	for _, f := range files {
		path := filepath.Join(root, f.Name)
		if err := os.WriteFile(path, []byte(f.Content), 0o644); err != nil {
			fatal(err)
		}
		fmt.Printf("wrote %s\n", path)
	}

	index := generateIndex(files)
	indexPath := filepath.Join(root, "README.md")
	if err := os.WriteFile(indexPath, []byte(index), 0o644); err != nil {
		fatal(err)
	}
	fmt.Printf("wrote %s\n", indexPath)
}

func generateIndex(files []docFile) string {
	var b strings.Builder
	b.WriteString("# Reference\n\n")
	b.WriteString("Generated from the current Go source using `go run ./cmd/docsgen`.\n\n")
	for _, f := range files {
		b.WriteString(fmt.Sprintf("- [%s](./%s)\n", f.Title, f.Name))
	}
	return b.String()
}

func generateConsoleDoc() docFile {
	var b strings.Builder
	b.WriteString("# Console Commands\n\n")
	b.WriteString("Cells, valves and circuits are numbered from 1. `it` and `this` refer to the selected cell.\n")
	b.WriteString("Misspelled commands are matched by edit distance; ambiguous input asks a question instead.\n\n")
	b.WriteString("| Command | Aliases | Target | Args |\n")
	b.WriteString("|---|---|---|---|\n")
	for _, c := range parser.DefaultRegistry().Commands() {
		target := ""
		if c.Target != parser.TargetNone {
			target = c.Target.String()
		}
		b.WriteString(fmt.Sprintf("| `%s` | %s | %s | %s |\n",
			c.Canonical, escape(strings.Join(c.Aliases, ", ")), target, argRange(c.MinArgs, c.MaxArgs)))
	}
	return docFile{Name: "console.md", Title: "Console Commands", Content: b.String()}
}

func generateCoreDoc(cfg reactor.LatticeConfig) (docFile, error) {
	lattice, err := reactor.BuildLattice(cfg)
	if err != nil {
		return docFile{}, fmt.Errorf("build lattice: %w", err)
	}
	var b strings.Builder
	b.WriteString("# Core Layout\n\n")
	b.WriteString(fmt.Sprintf("%dx%d grid: %d fuel cells, %d edges, %d valves of %d cells, %d circuits, %d rod sites.\n\n",
		lattice.Rows(), lattice.Columns(), lattice.CellCount(), lattice.EdgeCount(),
		lattice.ValveCount(), cfg.ValveSize, lattice.CircuitCount(), len(lattice.RodSites())))

	b.WriteString("| Valve | Circuit | Cells |\n")
	b.WriteString("|---|---|---|\n")
	for i := 0; i < lattice.ValveCount(); i++ {
		v, _ := lattice.Valve(reactor.ValveID(i))
		cells := make([]string, 0, len(v.Cells))
		for _, id := range v.Cells {
			cells = append(cells, strconv.Itoa(int(id)+1))
		}
		b.WriteString(fmt.Sprintf("| %d | %d | %s |\n", i+1, int(v.Circuit)+1, strings.Join(cells, ", ")))
	}

	b.WriteString("\n## Grid\n\n```\n")
	for _, row := range gridRows(lattice) {
		b.WriteString(row)
		b.WriteString("\n")
	}
	b.WriteString("```\n\n`R` marks a control-rod site, `.` an empty slot.\n")
	return docFile{Name: "core.md", Title: "Core Layout", Content: b.String()}, nil
}

func gridRows(lattice *reactor.Lattice) []string {
	rodSites := make(map[reactor.Position]bool)
	for _, site := range lattice.RodSites() {
		rodSites[site.Pos] = true
	}
	positions := lattice.AllPositions()
	rows := make([]string, 0, lattice.Rows())
	for r := 0; r < lattice.Rows(); r++ {
		cols := make([]string, 0, lattice.Columns())
		for c := 0; c < lattice.Columns(); c++ {
			pos := positions[r*lattice.Columns()+c]
			switch id, ok := lattice.CellAt(pos); {
			case ok:
				cols = append(cols, fmt.Sprintf("%3d", int(id)+1))
			case rodSites[pos]:
				cols = append(cols, "  R")
			default:
				cols = append(cols, "  .")
			}
		}
		rows = append(rows, strings.Join(cols, " "))
	}
	return rows
}

func generateConfigDoc(cfg *config.Config) (docFile, error) {
	data, err := config.Marshal(cfg)
	if err != nil {
		return docFile{}, err
	}
	var b strings.Builder
	b.WriteString("# Default Configuration\n\n")
	b.WriteString("Written to `~/.reactor/config.yaml` by `reactorsim config --write`. ")
	b.WriteString("Environment overrides: `REACTOR_SEED`, `REACTOR_LOG_LEVEL`, `REACTOR_LOG_FORMAT`, `REACTOR_ADDR`, `REACTOR_SCOREBOARD`.\n\n")
	b.WriteString("```yaml\n")
	b.Write(data)
	b.WriteString("```\n")
	return docFile{Name: "config.md", Title: "Default Configuration", Content: b.String()}, nil
}

func argRange(min, max int) string {
	if min == max {
		return strconv.Itoa(min)
	}
	return fmt.Sprintf("%d-%d", min, max)
}

func escape(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return ""
	}
	v = strings.ReplaceAll(v, "|", "\\|")
	v = strings.ReplaceAll(v, "\n", "<br>")
	return v
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
