// Package run provides the run command, the pandoc JSON filter entry point.
package run

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"

	"github.com/spf13/cobra"

	"github.com/open-doc-collective/refnum/internal/config"
	"github.com/open-doc-collective/refnum/internal/view"
	"github.com/open-doc-collective/refnum/pkg/ast"
	"github.com/open-doc-collective/refnum/pkg/refs"
)

type runOptions struct {
	format        string
	pandocVersion string
	configPath    string
	warningLevel  int
	cleveref      bool
	fakeCleveref  bool
	eqref         bool
	noColor       bool
}

// NewCmdRun creates the run command.
func NewCmdRun() *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run [format]",
		Short: "Run the reference filter on a pandoc JSON document",
		Long: `Run the filter: read a pandoc JSON document from stdin, repair and
number its cross references, and write the result to stdout.

The target output format may be given as the positional argument (the way
pandoc invokes filters) or with --to. The pandoc version is taken from
--pandoc-version, the PANDOC_VERSION environment variable, or inferred
from the document's API version, in that order.`,
		Example: `  # As a pandoc filter
  pandoc --filter refnum doc.md -o doc.pdf

  # Standalone
  pandoc -t json doc.md | refnum run latex | pandoc -f json -t latex`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				opts.format = args[0]
			}
			opts.configPath, _ = cmd.Flags().GetString("config")
			opts.noColor, _ = cmd.Flags().GetBool("no-color")
			return runFilter(os.Stdin, os.Stdout, os.Stderr, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.format, "to", "t", "", "target output format (html, latex, docx, ...)")
	cmd.Flags().StringVar(&opts.pandocVersion, "pandoc-version", "", "pandoc version the document came from")
	cmd.Flags().IntVar(&opts.warningLevel, "warning-level", -1, "0 silences warnings, 1 critical only, 2 everything")
	cmd.Flags().BoolVar(&opts.cleveref, "cleveref", false, "render all references as clever references")
	cmd.Flags().BoolVar(&opts.fakeCleveref, "fake-cleveref", false, "emit self-contained TeX instead of requiring cleveref")
	cmd.Flags().BoolVar(&opts.eqref, "eqref", false, "render equation references with \\eqref")

	return cmd
}

func runFilter(in io.Reader, out, errOut io.Writer, opts *runOptions) error {
	configPath := opts.configPath
	if configPath == "" {
		configPath = config.DefaultConfigPath()
	}
	cfg, err := config.LoadWithEnv(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w (run 'refnum init' to reconfigure)", err)
	}
	mergeOptions(cfg, opts)

	doc, err := ast.ReadDocument(in)
	if err != nil {
		return err
	}
	mergeMetaOptions(cfg, doc.Meta)

	version := opts.pandocVersion
	if version == "" {
		version = os.Getenv("PANDOC_VERSION")
	}
	if version == "" {
		version = inferVersion(doc.APIVersion)
	}

	ctx, err := refs.NewContext(version, refs.Options{
		FilterName:   "refnum",
		WarningLevel: cfg.WarningLevel,
		Diagnostics:  view.NewWarningWriter(errOut, opts.noColor),
	})
	if err != nil {
		return err
	}

	if err := execute(ctx, cfg, opts.format, doc); err != nil {
		return err
	}
	return doc.Write(out)
}

// mergeOptions overlays command-line values onto the loaded config.
func mergeOptions(cfg *config.Config, opts *runOptions) {
	if opts.warningLevel >= 0 {
		cfg.WarningLevel = opts.warningLevel
	}
	cfg.Cleveref = cfg.Cleveref || opts.cleveref
	cfg.FakeCleveref = cfg.FakeCleveref || opts.fakeCleveref
	cfg.Eqref = cfg.Eqref || opts.eqref
}

// mergeMetaOptions overlays document metadata onto the config. Metadata
// wins over the config file so a document can carry its own settings.
func mergeMetaOptions(cfg *config.Config, meta ast.Meta) {
	if v, ok := meta.GetBool("refnum-cleveref"); ok {
		cfg.Cleveref = v
	}
	if v, ok := meta.GetBool("refnum-fake-cleveref"); ok {
		cfg.FakeCleveref = v
	}
	if v, ok := meta.GetBool("refnum-eqref"); ok {
		cfg.Eqref = v
	}
	if v, ok := meta.GetBool("refnum-number-by-section"); ok {
		for key, p := range cfg.Prefixes {
			p.NumberBySection = v
			cfg.Prefixes[key] = p
		}
	}
}

// inferVersion maps the document API version to the oldest pandoc release
// that writes it. Exact repair and table conventions only need the
// generation, not the patch level.
func inferVersion(api []int) string {
	if len(api) < 2 || api[0] != 1 {
		return "2.11"
	}
	switch {
	case api[1] >= 23:
		return "3.0"
	case api[1] >= 22:
		return "2.11"
	case api[1] == 21:
		return "2.10"
	case api[1] >= 17:
		return "2.0"
	default:
		return "1.16"
	}
}

// cleverefOverlap matches an existing cleveref usepackage line in
// header-includes.
var cleverefOverlap = regexp.MustCompile(`\\usepackage(\[[^\]]*\])?\{cleveref\}`)

// execute runs the full pipeline over the document in place.
func execute(ctx *refs.Context, cfg *config.Config, format string, doc *ast.Document) error {
	if err := ctx.RepairRefs(doc.Blocks); err != nil {
		return err
	}
	if err := ctx.AttachAttrs(doc.Blocks, refs.KindMath, refs.AttachOpts{AllowSpace: true}); err != nil {
		return err
	}

	bySection := false
	for _, p := range cfg.Prefixes {
		bySection = bySection || p.NumberBySection
	}
	if bySection {
		for _, kind := range []refs.ElementKind{refs.KindImage, refs.KindMath} {
			if err := ctx.InsertSecNos(doc.Blocks, kind); err != nil {
				return err
			}
		}
	}

	targets := collectTargets(doc.Blocks, cfg)
	anchorEquations(doc.Blocks, format, targets["eq"])

	if bySection {
		for _, kind := range []refs.ElementKind{refs.KindImage, refs.KindMath} {
			if err := ctx.DeleteSecNos(doc.Blocks, kind); err != nil {
				return err
			}
		}
	}
	if err := ctx.DetachAttrs(doc.Blocks, refs.KindMath, false); err != nil {
		return err
	}

	prefixes := make([]string, 0, len(cfg.Prefixes))
	for key := range cfg.Prefixes {
		prefixes = append(prefixes, key)
	}
	sort.Strings(prefixes)

	for _, prefix := range prefixes {
		labels := make(map[string]bool, len(targets[prefix]))
		for label := range targets[prefix] {
			labels[label] = true
		}
		err := ctx.ProcessRefs(doc.Blocks, refs.ProcessOpts{
			Labels:      labels,
			WarnPattern: regexp.MustCompile(`^` + regexp.QuoteMeta(prefix) + `:`),
		})
		if err != nil {
			return err
		}
		if err := ctx.ReplaceRefs(doc.Blocks, replaceOptsFor(cfg, prefix, format, targets[prefix])); err != nil {
			return err
		}
	}

	blocks, err := ctx.InsertRawBlocks(doc.Blocks)
	if err != nil {
		return err
	}
	doc.Blocks = blocks

	if ctx.CleverefNeeded && !cfg.FakeCleveref && format == "latex" {
		err := ctx.AddToHeaderIncludes(doc.Meta, "tex",
			`\usepackage{cleveref}`, cleverefOverlap)
		if err != nil {
			return err
		}
	}
	return nil
}

// replaceOptsFor builds the replacer configuration for one prefix. Section
// references always allow the implicit bare form; other prefixes only when
// the config asks for it.
func replaceOptsFor(cfg *config.Config, prefix, format string, targets map[string]refs.Target) refs.ReplaceOpts {
	p := cfg.Prefixes[prefix]
	return refs.ReplaceOpts{
		Targets:       targets,
		Format:        format,
		UseCleveref:   cfg.Cleveref,
		UseEqref:      cfg.Eqref && prefix == "eq",
		PlusName:      p.PlusName,
		StarName:      p.StarName,
		AllowImplicit: cfg.AllowImplicit || prefix == "sec",
		FakeCleveref:  cfg.FakeCleveref,
	}
}
