// Package viz renders the mention graph as Graphviz DOT, with optional PNG
// rasterization when the dot binary is installed.
package viz

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"

	"github.com/sciwatch/drug-mentions-platform/internal/mentions/graph"
)

// WriteDOT writes the graph as a bipartite drug/journal DOT digraph. Output
// is deterministic: drugs, journals, and edges appear in sorted order. Edge
// labels carry the per-source mention counts.
func WriteDOT(w io.Writer, g graph.Graph) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "digraph drug_mentions {")
	fmt.Fprintln(bw, "    rankdir=LR;")
	fmt.Fprintln(bw, "    node [fontname=\"Helvetica\"];")

	journals := make(map[string]struct{})
	for _, drug := range g.Drugs() {
		fmt.Fprintf(bw, "    %s [shape=ellipse, style=filled, fillcolor=lightblue];\n", quote(drugID(drug)))
		for journal := range g[drug] {
			journals[journal] = struct{}{}
		}
	}
	journalNames := make([]string, 0, len(journals))
	for journal := range journals {
		journalNames = append(journalNames, journal)
	}
	sort.Strings(journalNames)
	for _, journal := range journalNames {
		fmt.Fprintf(bw, "    %s [shape=box, style=filled, fillcolor=lightyellow];\n", quote(journalID(journal)))
	}

	for _, drug := range g.Drugs() {
		names := make([]string, 0, len(g[drug]))
		for journal := range g[drug] {
			names = append(names, journal)
		}
		sort.Strings(names)
		for _, journal := range names {
			sources := g[drug][journal]
			fmt.Fprintf(bw, "    %s -> %s [label=%s];\n",
				quote(drugID(drug)), quote(journalID(journal)), quote(edgeLabel(sources)))
		}
	}

	fmt.Fprintln(bw, "}")
	return bw.Flush()
}

// WriteDOTFile writes the DOT rendering to a file.
func WriteDOTFile(path string, g graph.Graph) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := WriteDOT(f, g); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	return nil
}

// RenderPNG rasterizes a DOT file to PNG via the Graphviz dot binary. It
// returns an error when the binary is not installed; callers treat that as
// a degraded rendering, not a failure.
func RenderPNG(ctx context.Context, dotPath, pngPath string) error {
	bin, err := exec.LookPath("dot")
	if err != nil {
		return fmt.Errorf("graphviz dot binary not found: %w", err)
	}
	cmd := exec.CommandContext(ctx, bin, "-Tpng", "-o", pngPath, dotPath)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("dot failed: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

// drugID and journalID prefix node names so a drug and a journal with the
// same name stay distinct nodes.
func drugID(name string) string    { return "drug: " + name }
func journalID(name string) string { return "journal: " + name }

func edgeLabel(sources graph.Sources) string {
	parts := make([]string, 0, len(graph.SourceTags))
	for _, tag := range graph.SourceTags {
		if n := len(sources[tag]); n > 0 {
			parts = append(parts, fmt.Sprintf("%s: %d", tag, n))
		}
	}
	return strings.Join(parts, ", ")
}

// quote escapes a string as a DOT double-quoted ID.
func quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}
