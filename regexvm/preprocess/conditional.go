package preprocess

import "strconv"

// lowerSimpleConditionals rewrites Perl's conditional pattern
// `(?(N)yes|no)` / `(?(N)yes)` (branch taken depending on whether capture
// group N participated in the match so far).
//
// RE2-derived engines (including the host engine this preprocessor feeds)
// have no backreferences and therefore no general way to ask "did group N
// participate" at match time. But the common case — §4.3.5's "simple
// conditional" — needs no backreference at all: when (a) group N is a
// preceding, directly-optional capturing group `(g)?`, (b) only simple
// text lies between the group and the conditional, and (c) the condition
// is a bare integer, `(g)?T(?(N)yes|no)` is exactly equivalent to
// `(?:(g)Tyes|Tno)` — matching group N participated in the first
// alternative and nowhere in the second, with no conditional construct
// left for the host parser to choke on. This lowering is EXACT, not an
// approximation, so it applies unconditionally (spec §8 scenario 4 is
// mandatory in default mode, not just under JPERL_UNIMPLEMENTED=warn).
//
// Conditionals that don't qualify for the simple lowering have no exact
// translation, so they fall back to the two modes every other
// Unimplemented construct uses:
//
//   - warnOnly == false (default): return an UnimplementedError naming the
//     construct, so callers surface spec §7's Unimplemented error.
//   - warnOnly == true (JPERL_UNIMPLEMENTED=warn, spec §6): approximate by
//     flattening to `(?:yes|no)`, a plain alternation that always offers
//     both branches instead of conditionally selecting one. A Warnings
//     entry records the approximation so callers can log it.
func lowerSimpleConditionals(pattern string, warnOnly bool, meta *Metadata) (string, error) {
	var out []byte
	i := 0
	for i < len(pattern) {
		if pattern[i] == '\\' && i+1 < len(pattern) {
			out = append(out, pattern[i], pattern[i+1])
			i += 2
			continue
		}
		if i+3 <= len(pattern) && pattern[i] == '(' && pattern[i+1] == '?' && pattern[i+2] == '(' {
			span, groupNum, inner, ok := scanConditional(pattern, i)
			if !ok {
				out = append(out, pattern[i])
				i++
				continue
			}
			if gStart, replacement, ok := simpleConditionalRewrite(pattern, i, span, groupNum, inner); ok {
				// The preceding (g)?T text was already copied into out
				// verbatim on earlier iterations of this same loop;
				// trim it back off and splice in the exact rewrite.
				out = append(out[:len(out)-(i-gStart)], replacement...)
				i = span
				continue
			}
			if !warnOnly {
				return "", &UnimplementedError{Construct: "(?(" + strconv.Itoa(groupNum) + ")...)"}
			}
			meta.Warnings = append(meta.Warnings,
				"conditional (?("+strconv.Itoa(groupNum)+")yes|no) approximated as (?:yes|no); the test on group "+
					strconv.Itoa(groupNum)+" was dropped")
			out = append(out, '(', '?', ':')
			out = append(out, inner...)
			out = append(out, ')')
			i = span
			continue
		}
		out = append(out, pattern[i])
		i++
	}
	return string(out), nil
}

// simpleConditionalRewrite checks whether the conditional spanning
// pattern[condStart:condEnd] (referencing group groupNum, with
// yes|no text inner) qualifies for §4.3.5's exact lowering, and if so
// returns the start index of the preceding group `(g)?` and the full
// replacement text for pattern[gStart:condEnd].
func simpleConditionalRewrite(pattern string, condStart, condEnd, groupNum int, inner string) (gStart int, replacement string, ok bool) {
	gStart, gEnd, ok := capturingGroupSpan(pattern, groupNum)
	if !ok || gEnd >= condStart {
		return 0, "", false
	}
	if gEnd >= len(pattern) || pattern[gEnd] != '?' {
		return 0, "", false
	}
	afterQ := gEnd + 1
	if afterQ < len(pattern) && pattern[afterQ] == '?' {
		// `(g)??` is a lazy-optional group, a different construct.
		return 0, "", false
	}
	between := pattern[afterQ:condStart]
	if !isSimpleText(between) {
		return 0, "", false
	}

	yes, no, _ := splitTopLevelAlt(inner)
	group := pattern[gStart:gEnd] // "(g)", without the trailing '?'

	var b []byte
	b = append(b, '(', '?', ':')
	b = append(b, group...)
	b = append(b, between...)
	b = append(b, yes...)
	b = append(b, '|')
	b = append(b, between...)
	b = append(b, no...)
	b = append(b, ')')
	return gStart, string(b), true
}

// capturingGroupSpan locates the n'th capturing group (1-based,
// left-to-right numbering matching regexp/syntax's own OpCapture
// numbering) in pattern, skipping non-capturing groups, lookarounds, and
// comment groups. Returns the index of the group's opening '(' and the
// index just past its matching ')'.
func capturingGroupSpan(pattern string, n int) (start, end int, ok bool) {
	type frame struct {
		open    int
		capture bool
		num     int
	}
	var stack []frame
	count := 0
	inClass := false
	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		if c == '\\' && i+1 < len(pattern) {
			i++
			continue
		}
		if inClass {
			if c == ']' {
				inClass = false
			}
			continue
		}
		switch c {
		case '[':
			inClass = true
		case '(':
			capturing := true
			if i+1 < len(pattern) && pattern[i+1] == '?' {
				capturing = false
				if i+2 < len(pattern) {
					switch {
					case pattern[i+2] == '<' && i+3 < len(pattern) && pattern[i+3] != '=' && pattern[i+3] != '!':
						capturing = true // (?<name>...)
					case pattern[i+2] == 'P' && i+3 < len(pattern) && pattern[i+3] == '<':
						capturing = true // (?P<name>...)
					case pattern[i+2] == '\'':
						capturing = true // (?'name'...)
					}
				}
			}
			num := 0
			if capturing {
				count++
				num = count
			}
			stack = append(stack, frame{open: i, capture: capturing, num: num})
		case ')':
			if len(stack) == 0 {
				continue
			}
			f := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if f.capture && f.num == n {
				return f.open, i + 1, true
			}
		}
	}
	return 0, 0, false
}

// isSimpleText reports whether s contains only literal text and character
// classes — no unescaped grouping or alternation — the §4.3.5(b)
// requirement that "only simple text lies between the group and the
// conditional".
func isSimpleText(s string) bool {
	inClass := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '\\' && i+1 < len(s) {
			i++
			continue
		}
		switch {
		case inClass:
			if c == ']' {
				inClass = false
			}
		case c == '[':
			inClass = true
		case c == '(' || c == ')' || c == '|':
			return false
		}
	}
	return !inClass
}

// splitTopLevelAlt splits s on its first depth-0, outside-character-class
// `|`, returning hasAlt == false (and the whole string as yes) if there is
// none — the `(?(N)yes)` form with no "no" branch.
func splitTopLevelAlt(s string) (yes, no string, hasAlt bool) {
	depth := 0
	inClass := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '\\' && i+1 < len(s) {
			i++
			continue
		}
		switch {
		case inClass:
			if c == ']' {
				inClass = false
			}
		case c == '[':
			inClass = true
		case c == '(':
			depth++
		case c == ')':
			depth--
		case c == '|' && depth == 0:
			return s[:i], s[i+1:], true
		}
	}
	return s, "", false
}

// scanConditional parses a `(?(N)...)` construct starting at pattern[i],
// returning the index just past its closing paren, the referenced group
// number, the inner "yes|no" text (with the `(N)` prefix stripped), and
// whether a well-formed construct was found at all.
func scanConditional(pattern string, i int) (end int, groupNum int, inner string, ok bool) {
	j := i + 3 // past "(?("
	numStart := j
	for j < len(pattern) && pattern[j] >= '0' && pattern[j] <= '9' {
		j++
	}
	if j == numStart || j >= len(pattern) || pattern[j] != ')' {
		return 0, 0, "", false
	}
	n, err := strconv.Atoi(pattern[numStart:j])
	if err != nil {
		return 0, 0, "", false
	}
	j++ // past the ')' closing "(N)"

	depth := 1
	start := j
	for j < len(pattern) && depth > 0 {
		switch pattern[j] {
		case '\\':
			j++ // skip escaped char
		case '(':
			depth++
		case ')':
			depth--
		}
		j++
	}
	if depth != 0 {
		return 0, 0, "", false
	}
	return j, n, pattern[start : j-1], true
}
