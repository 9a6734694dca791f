// Package debug holds helpers for building human-readable dumps of internal
// structures, used only in troubleshooting output.
package debug

import (
	"fmt"
	"strconv"
	"strings"
)

// TreeWriter accumulates an indented text tree.
type TreeWriter struct {
	w *strings.Builder
}

func NewTreeWriter() *TreeWriter {
	return &TreeWriter{
		w: &strings.Builder{},
	}
}

func (tw TreeWriter) String() string {
	return tw.w.String()
}

// Line appends a formatted line at the given depth.
func (tw TreeWriter) Line(depth int, format string, args ...any) {
	for range depth {
		tw.w.WriteString("  ")
	}
	fmt.Fprintf(tw.w, format, args...)
	tw.w.WriteByte('\n')
}

// Quoted appends a "key: value" line with a quoted value, so embedded
// whitespace and control characters stay visible.
func (tw TreeWriter) Quoted(depth int, key, value string) {
	for range depth {
		tw.w.WriteString("  ")
	}
	tw.w.WriteString(key)
	tw.w.WriteString(": ")
	if value != "" {
		value = strconv.Quote(value)
	}
	tw.w.WriteString(value)
	tw.w.WriteByte('\n')
}
