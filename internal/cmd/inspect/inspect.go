// Package inspect provides the inspect command for debugging token trees.
package inspect

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/open-doc-collective/refnum/internal/view"
	"github.com/open-doc-collective/refnum/pkg/ast"
	"github.com/open-doc-collective/refnum/pkg/mdconv"
)

type inspectOptions struct {
	html    bool
	json    bool
	output  string
	noColor bool
}

// NewCmdInspect creates the inspect command.
func NewCmdInspect() *cobra.Command {
	opts := &inspectOptions{}

	cmd := &cobra.Command{
		Use:   "inspect [file]",
		Short: "Show the token tree of a document",
		Long: `Inspect parses a document and dumps its token tree, the same
structure the filter passes operate on. Markdown is the default input;
--html converts HTML first and --json reads pandoc JSON directly.

Reads from stdin when no file is given.`,
		Example: `  # Inspect a markdown file
  refnum inspect notes.md

  # Inspect pandoc's own token stream
  pandoc -t json notes.md | refnum inspect --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.output, _ = cmd.Flags().GetString("output")
			opts.noColor, _ = cmd.Flags().GetBool("no-color")
			file := ""
			if len(args) == 1 {
				file = args[0]
			}
			return runInspect(file, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.html, "html", false, "treat input as HTML")
	cmd.Flags().BoolVar(&opts.json, "json", false, "treat input as pandoc JSON")

	return cmd
}

func runInspect(file string, opts *inspectOptions) error {
	if err := view.ValidateFormat(opts.output); err != nil {
		return err
	}
	if opts.html && opts.json {
		return fmt.Errorf("--html and --json are mutually exclusive")
	}

	var src []byte
	var err error
	if file == "" {
		src, err = io.ReadAll(os.Stdin)
	} else {
		src, err = os.ReadFile(file)
	}
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	blocks, err := parse(src, opts)
	if err != nil {
		return err
	}

	renderer := view.NewRenderer(view.Format(opts.output), opts.noColor)
	return renderer.RenderTokens(blocks)
}

func parse(src []byte, opts *inspectOptions) ([]*ast.Block, error) {
	switch {
	case opts.json:
		doc, err := ast.ReadDocument(bytes.NewReader(src))
		if err != nil {
			return nil, err
		}
		return doc.Blocks, nil
	case opts.html:
		return mdconv.FromHTML(string(src))
	default:
		return mdconv.FromMarkdown(src)
	}
}
