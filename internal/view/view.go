// Package view provides output formatting for refnum commands.
package view

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/open-doc-collective/refnum/pkg/ast"
)

// Format represents an output format.
type Format string

const (
	FormatTree Format = "tree"
	FormatJSON Format = "json"
)

// ValidateFormat checks that format names a known output format.
func ValidateFormat(format string) error {
	switch Format(format) {
	case FormatTree, FormatJSON:
		return nil
	}
	return fmt.Errorf("invalid output format: %s (valid: tree, json)", format)
}

// Renderer renders data in a specific format.
type Renderer struct {
	format  Format
	writer  io.Writer
	noColor bool
}

// NewRenderer creates a new renderer with the specified format.
func NewRenderer(format Format, noColor bool) *Renderer {
	if noColor {
		color.NoColor = true
	}
	return &Renderer{
		format:  format,
		writer:  os.Stdout,
		noColor: noColor,
	}
}

// SetWriter sets the output writer.
func (r *Renderer) SetWriter(w io.Writer) {
	r.writer = w
}

// RenderJSON renders an object as JSON.
func (r *Renderer) RenderJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(r.writer, string(data))
	return nil
}

// RenderText renders plain text.
func (r *Renderer) RenderText(text string) {
	fmt.Fprintln(r.writer, text)
}

// RenderTokens dumps a block list as an indented token tree, or as JSON when
// the renderer is in JSON format.
func (r *Renderer) RenderTokens(blocks []*ast.Block) error {
	if r.format == FormatJSON {
		return r.RenderJSON(blocks)
	}
	for _, b := range blocks {
		r.renderBlock(b, 0)
	}
	return nil
}

var tagColor = color.New(color.FgCyan)
var textColor = color.New(color.FgGreen)

func (r *Renderer) renderBlock(b *ast.Block, depth int) {
	indent := strings.Repeat("  ", depth)
	fmt.Fprint(r.writer, indent)
	tagColor.Fprint(r.writer, b.Tag)
	if b.Tag == ast.TagHeader {
		fmt.Fprintf(r.writer, " %d", b.Level)
	}
	if b.Attrs != nil && !b.Attrs.IsEmpty() {
		fmt.Fprintf(r.writer, " %s", b.Attrs.ToMarkdown())
	}
	if b.Text != "" {
		fmt.Fprint(r.writer, " ")
		textColor.Fprintf(r.writer, "%q", b.Text)
	}
	fmt.Fprintln(r.writer)
	for _, in := range b.Inlines {
		r.renderInline(in, depth+1)
	}
	for _, child := range b.Blocks {
		r.renderBlock(child, depth+1)
	}
	for _, item := range b.ListItems {
		for _, child := range item {
			r.renderBlock(child, depth+1)
		}
	}
	for _, d := range b.Definitions {
		for _, in := range d.Term {
			r.renderInline(in, depth+1)
		}
		for _, def := range d.Definitions {
			for _, child := range def {
				r.renderBlock(child, depth+1)
			}
		}
	}
	for _, line := range b.Lines {
		for _, in := range line {
			r.renderInline(in, depth+1)
		}
	}
}

func (r *Renderer) renderInline(in *ast.Inline, depth int) {
	indent := strings.Repeat("  ", depth)
	fmt.Fprint(r.writer, indent)
	tagColor.Fprint(r.writer, in.Tag)
	if in.Attrs != nil && !in.Attrs.IsEmpty() {
		fmt.Fprintf(r.writer, " %s", in.Attrs.ToMarkdown())
	}
	if in.Text != "" {
		fmt.Fprint(r.writer, " ")
		textColor.Fprintf(r.writer, "%q", in.Text)
	}
	if in.URL != "" {
		fmt.Fprintf(r.writer, " -> %s", in.URL)
	}
	fmt.Fprintln(r.writer)
	for _, c := range in.Citations {
		fmt.Fprintf(r.writer, "%s  @%s (%s)\n", indent, c.ID, c.Mode)
	}
	for _, child := range in.Inlines {
		r.renderInline(child, depth+1)
	}
	for _, child := range in.Blocks {
		r.renderBlock(child, depth+1)
	}
}

// Success prints a success message.
func (r *Renderer) Success(msg string) {
	green := color.New(color.FgGreen)
	green.Fprintln(r.writer, "✓ "+msg)
}

// Error prints an error message.
func (r *Renderer) Error(msg string) {
	red := color.New(color.FgRed)
	red.Fprintln(r.writer, "✗ "+msg)
}

// WarningWriter wraps a writer so every write comes out yellow. The filter
// passes take a plain io.Writer for diagnostics; the CLI hands them one of
// these pointed at stderr.
type WarningWriter struct {
	w io.Writer
	c *color.Color
}

// NewWarningWriter returns a WarningWriter over w.
func NewWarningWriter(w io.Writer, noColor bool) *WarningWriter {
	if noColor {
		color.NoColor = true
	}
	return &WarningWriter{w: w, c: color.New(color.FgYellow)}
}

func (ww *WarningWriter) Write(p []byte) (int, error) {
	if _, err := ww.c.Fprint(ww.w, string(p)); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Truncate truncates a string to the specified length.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
