// Package refs implements the reference post-processing passes applied to a
// pandoc document tree: repairing references broken by the tokenizer,
// normalizing citation tokens, attaching attribute blocks, and replacing
// resolved references with format-specific output.
//
// The passes run as a strict pipeline per document: RepairRefs, then
// ProcessRefs, then ReplaceRefs. Each pass assumes the invariants
// established by its predecessor. All state shared across passes lives in a
// Context constructed once per document run.
package refs

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/open-doc-collective/refnum/pkg/ast"
)

// ErrUninitialized is returned when a pass runs against a nil or
// zero-valued Context. This is a programming error, not a data error.
var ErrUninitialized = errors.New("refs: context not initialized, call NewContext first")

// ErrAttributesNotFound is returned by ExtractAttrs when the tokens at the
// given position do not form a balanced attribute block. Callers recover by
// proceeding as if no attributes existed.
var ErrAttributesNotFound = errors.New("refs: attributes not found")

// Warning levels.
const (
	WarnSilent   = 0 // no warnings
	WarnCritical = 1 // critical warnings only
	WarnVerbose  = 2 // all warnings
)

// versionPattern accepts the tool versions the engine has conventions for.
var versionPattern = regexp.MustCompile(`^[1-3]\.[0-9]+(?:\.[0-9]+)?(?:\.[0-9]+)?$`)

// Version is a dotted tool version split into integer components.
type Version []int

// ParseVersion parses and validates a pandoc version string. Versions
// outside the supported 1.x-3.x range are rejected rather than guessed at.
func ParseVersion(s string) (Version, error) {
	if !versionPattern.MatchString(s) {
		return nil, fmt.Errorf("refs: unsupported pandoc version %q", s)
	}
	parts := strings.Split(s, ".")
	v := make(Version, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("refs: unsupported pandoc version %q", s)
		}
		v[i] = n
	}
	return v, nil
}

// Before reports whether v sorts strictly before other.
func (v Version) Before(other Version) bool {
	for i := 0; i < len(v) && i < len(other); i++ {
		if v[i] != other[i] {
			return v[i] < other[i]
		}
	}
	return len(v) < len(other)
}

// String renders the version in dotted form.
func (v Version) String() string {
	parts := make([]string, len(v))
	for i, n := range v {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ".")
}

// tableLayout selects the field-index convention for table captions, which
// changed twice across pandoc releases.
type tableLayout int

const (
	tableLegacy tableLayout = iota // < 2.10: caption is a bare inline list
	tableTwoTen                    // 2.10.x: caption is a tagged [short, blocks] pair
	tableModern                    // >= 2.11: caption is a bare [short, blocks] pair
)

// conventions holds the version-dependent traversal behavior. Versions map
// to conventions here instead of being compared inline by the passes.
type conventions struct {
	repairLinks  bool // the tokenizer autolinks bare @refs (pandoc < 1.18)
	tableCaption tableLayout
}

func conventionsFor(v Version) conventions {
	conv := conventions{tableCaption: tableModern}
	if v.Before(Version{1, 18}) {
		conv.repairLinks = true
	}
	switch {
	case v.Before(Version{2, 10}):
		conv.tableCaption = tableLegacy
	case v.Before(Version{2, 11}):
		conv.tableCaption = tableTwoTen
	}
	return conv
}

// Options configures a Context.
type Options struct {
	// FilterName prefixes diagnostic messages. Defaults to "refnum".
	FilterName string
	// WarningLevel is one of WarnSilent, WarnCritical, WarnVerbose.
	WarningLevel int
	// Diagnostics receives warning text. Nil discards warnings.
	Diagnostics io.Writer
}

// Context carries the per-run state shared by all passes: the validated
// tool version and its conventions, the warning side channel, the section
// counter, the cleveref flag, and the deduplication set for warnings.
//
// A Context is not safe for concurrent use; run concurrent documents with
// separate contexts.
type Context struct {
	version Version
	conv    conventions

	filterName   string
	warningLevel int
	diag         io.Writer

	// CleverefNeeded records that clever referencing was requested, either
	// by a modifier or by the default flag. The caller acts on it after
	// ReplaceRefs (e.g. by requiring the cleveref package).
	CleverefNeeded bool

	sec     int // current section number, maintained by InsertSecNos
	warned  map[string]bool
	pending []*ast.Block // queued auxiliary blocks awaiting InsertRawBlocks
}

// NewContext validates the tool version and returns a ready Context.
func NewContext(version string, opts Options) (*Context, error) {
	v, err := ParseVersion(version)
	if err != nil {
		return nil, err
	}
	name := opts.FilterName
	if name == "" {
		name = "refnum"
	}
	return &Context{
		version:      v,
		conv:         conventionsFor(v),
		filterName:   name,
		warningLevel: opts.WarningLevel,
		diag:         opts.Diagnostics,
		warned:       map[string]bool{},
	}, nil
}

// Version returns the validated tool version.
func (c *Context) Version() Version { return c.version }

// check guards every pass entry point against an uninitialized context.
func (c *Context) check() error {
	if c == nil || len(c.version) == 0 {
		return ErrUninitialized
	}
	return nil
}

// warnf writes a diagnostic if the context's warning level admits it.
// The side channel is best effort and never blocks processing.
func (c *Context) warnf(level int, format string, args ...interface{}) {
	if c.diag == nil || c.warningLevel < level {
		return
	}
	fmt.Fprintf(c.diag, c.filterName+": "+format+"\n", args...)
}

// warnOnce deduplicates a warning across the whole run by key.
func (c *Context) warnOnce(key string, level int, format string, args ...interface{}) {
	if c.warned[key] {
		return
	}
	c.warned[key] = true
	c.warnf(level, format, args...)
}
