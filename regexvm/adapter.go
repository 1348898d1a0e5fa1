// Package regexvm adapts the host regex engine (github.com/coregx/coregex,
// via its meta package) to Perl capture/position semantics: $1.. $n, $&,
// $`, $', @-/@+, and pos() per scalar, all preserved correctly across
// `eval` boundaries (spec §3 "Regex Engine Adapter", "RegexState", §4.4).
//
// Grounded on meta.Engine (CompileWithConfig, FindSubmatchAt,
// SubexpNames) and meta.SearchState's pooled-acquire/
// defer-release shape, generalized here to pooling whole Pattern objects
// isn't needed — Engine itself is already safe for concurrent reuse
// (meta/engine.go's own doc comment), so Pattern just wraps one.
package regexvm

import (
	"github.com/coregx/coregex/meta"
	"github.com/pkg/errors"

	"github.com/jperl-run/jperl/regexvm/preprocess"
)

// Pattern is a compiled regex ready for matching, plus the bookkeeping the
// adapter needs to populate Perl's special match variables.
type Pattern struct {
	engine       *meta.Engine
	Source       string
	NumCaptures  int
	CaptureNames map[string]int
	Warnings     []string
}

// Compile preprocesses source through package preprocess and compiles the
// resulting host pattern via meta.CompileWithConfig.
func Compile(source string, flags preprocess.Flags, warnOnly bool) (*Pattern, error) {
	hostPattern, md, err := preprocess.Preprocess(source, flags, warnOnly)
	if err != nil {
		return nil, err
	}
	// Start from meta.DefaultConfig(), not a zero Config: Config.Validate
	// unconditionally rejects MaxRecursionDepth < 10, which a zero value
	// always is, so every compile would fail ConfigError before ever
	// reaching the NFA/DFA builders.
	cfg := meta.DefaultConfig()
	if flags.CaseInsensitive {
		// Case-insensitivity already travels inside hostPattern as the
		// inline (?i) group preprocess.Preprocess puts at its front, so
		// no Config field is set for it; CompileWithConfig is used uniformly so
		// future Config fields (e.g. longest-match mode for /g) have a
		// single call site to extend.
	}
	engine, err := meta.CompileWithConfig(hostPattern, cfg)
	if err != nil {
		return nil, errors.Wrapf(err, "regex compile: %q", source)
	}
	return &Pattern{
		engine:       engine,
		Source:       source,
		NumCaptures:  md.NumCaptures,
		CaptureNames: md.CaptureNames,
		Warnings:     md.Warnings,
	}, nil
}

// MatchResult is one successful match, carrying every capture's byte
// range (group 0 is the whole match) so the caller can slice the subject
// for $1.. $n, $&, $`, $'. Groups holds exactly the spans the host engine
// reports: for groups inside a quantified alternation such as ((a)|(b))*,
// no Perl-specific correction of captures left over from earlier
// iterations is applied.
type MatchResult struct {
	Groups [][]int // Groups[i] = [start, end) for group i, or nil if unmatched
}

// FindAt runs the pattern against subject starting no earlier than byte
// offset at, returning the first match (or nil if none). This is the one
// call site that actually invokes the host engine; State.Apply wraps it
// to additionally update the Perl special variables.
func (p *Pattern) FindAt(subject []byte, at int) (*MatchResult, error) {
	sm := p.engine.FindSubmatchAt(subject, at)
	if sm == nil {
		return nil, nil
	}
	groups := make([][]int, p.NumCaptures+1)
	for i := range groups {
		if idx := sm.GroupIndex(i); idx != nil {
			groups[i] = idx
		}
	}
	return &MatchResult{Groups: groups}, nil
}

// SubexpNames mirrors meta.Engine.SubexpNames, used by named-capture
// lookups (%+ / %-).
func (p *Pattern) SubexpNames() []string {
	return p.engine.SubexpNames()
}
