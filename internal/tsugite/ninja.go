package tsugite

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"
)

// ninjaWriter emits rule definitions and build statements in ninja syntax.
// Statements are written unwrapped; ninja has no line length limit.
type ninjaWriter struct {
	w   *bufio.Writer
	err error
}

func newNinjaWriter(w io.Writer) *ninjaWriter {
	return &ninjaWriter{w: bufio.NewWriter(w)}
}

func (n *ninjaWriter) printf(format string, args ...any) {
	if n.err != nil {
		return
	}
	_, n.err = fmt.Fprintf(n.w, format, args...)
}

func (n *ninjaWriter) rule(name, command, description string) {
	n.printf("rule %s\n", name)
	if description != "" {
		n.printf("  description = %s\n", description)
	}
	n.printf("  command = %s\n", command)
	n.printf("\n")
}

func (n *ninjaWriter) build(outputs []string, rule string, inputs, implicit, implicitOutputs []string, variables map[string]string) {
	n.printf("build %s", escapePaths(outputs))
	if len(implicitOutputs) > 0 {
		n.printf(" | %s", escapePaths(implicitOutputs))
	}
	n.printf(": %s", rule)
	if len(inputs) > 0 {
		n.printf(" %s", escapePaths(inputs))
	}
	if len(implicit) > 0 {
		n.printf(" | %s", escapePaths(implicit))
	}
	n.printf("\n")

	// Per-build variables, sorted for deterministic output.
	keys := make([]string, 0, len(variables))
	for k := range variables {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		n.printf("  %s = %s\n", k, variables[k])
	}
}

func (n *ninjaWriter) flush() error {
	if n.err != nil {
		return n.err
	}
	return n.w.Flush()
}

func escapePaths(paths []string) string {
	escaped := make([]string, len(paths))
	for i, p := range paths {
		escaped[i] = ninjaEscape(p)
	}
	return strings.Join(escaped, " ")
}

// ninjaEscape quotes the characters ninja treats specially in paths.
func ninjaEscape(s string) string {
	s = strings.ReplaceAll(s, "$", "$$")
	s = strings.ReplaceAll(s, " ", "$ ")
	s = strings.ReplaceAll(s, ":", "$:")
	return s
}
