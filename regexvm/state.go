package regexvm

// State holds the per-context last-match information behind $1.. $n, $&,
// $`, $', @-, @+ and pos() (spec §3 "RegexState"). One State exists per
// dynamic Perl "thread of execution" (in this single-threaded interpreter,
// one per top-level Eval call); it is threaded through the interpreter
// rather than held in package-level globals so multiple Contexts never
// interfere.
type State struct {
	subject []byte
	groups  [][]int // groups[0] is the whole match; nil if no match is current
	names   map[string]int

	// posByVar tracks Perl's pos() magic, which is attached to the scalar
	// variable that was matched against, not to the pattern or to a
	// single global slot — keyed here by the variable's identity.
	posByVar map[interface{}]int
}

// NewState returns an empty RegexState with no current match.
func NewState() *State {
	return &State{posByVar: make(map[interface{}]int)}
}

// Apply records the result of matching pattern against subject as the new
// "last successful match" for this State, used to service $1.. $n, $&,
// $`, $' immediately afterward. A nil result (no match) leaves the
// special variables at their PREVIOUS match's values, per Perl semantics
// ("these variables are not cleared on a failed match").
func (s *State) Apply(subject []byte, result *MatchResult, p *Pattern) {
	if result == nil {
		return
	}
	s.subject = subject
	s.groups = result.Groups
	s.names = p.CaptureNames
}

// Group returns the byte range of capture group n (0 = whole match), or
// nil if that group did not participate in the current match (or there is
// no current match at all).
func (s *State) Group(n int) []int {
	if n < 0 || n >= len(s.groups) {
		return nil
	}
	return s.groups[n]
}

// GroupText returns the matched text of group n, or "" if it did not
// participate.
func (s *State) GroupText(n int) string {
	rng := s.Group(n)
	if rng == nil {
		return ""
	}
	return string(s.subject[rng[0]:rng[1]])
}

// NamedGroup resolves a named capture to its text, the semantics behind
// %+.
func (s *State) NamedGroup(name string) (string, bool) {
	idx, ok := s.names[name]
	if !ok {
		return "", false
	}
	rng := s.Group(idx)
	if rng == nil {
		return "", false
	}
	return string(s.subject[rng[0]:rng[1]]), true
}

// PreMatch returns $`: the subject text before the whole match.
func (s *State) PreMatch() string {
	rng := s.Group(0)
	if rng == nil {
		return ""
	}
	return string(s.subject[:rng[0]])
}

// PostMatch returns $': the subject text after the whole match.
func (s *State) PostMatch() string {
	rng := s.Group(0)
	if rng == nil {
		return ""
	}
	return string(s.subject[rng[1]:])
}

// NumGroups returns how many capture groups (excluding group 0) the
// current match's pattern had, the length behind @- / @+.
func (s *State) NumGroups() int {
	if len(s.groups) == 0 {
		return 0
	}
	return len(s.groups) - 1
}

// Pos returns the pos() value recorded for variable key (identity of the
// scalar cell last matched with /g against this pattern), or (0, false)
// if none is recorded.
func (s *State) Pos(key interface{}) (int, bool) {
	p, ok := s.posByVar[key]
	return p, ok
}

// SetPos records pos() for variable key.
func (s *State) SetPos(key interface{}, pos int) {
	s.posByVar[key] = pos
}

// ClearPos removes a recorded pos(), the effect of `pos($x) = undef`.
func (s *State) ClearPos(key interface{}) {
	delete(s.posByVar, key)
}

// Snapshot is an opaque save token produced by Save and consumed by
// Restore.
type Snapshot struct {
	subject []byte
	groups  [][]int
	names   map[string]int
	pos     map[interface{}]int
}

// Save captures the entirety of s's current match state. Invoked
// unconditionally around every eval frame (spec §3: "regex state...
// preserved correctly across eval boundaries") so that a pattern match
// performed inside `eval { ... }` cannot leak its $1.. $n into, or clobber
// them for, the code that called eval.
func (s *State) Save() Snapshot {
	pos := make(map[interface{}]int, len(s.posByVar))
	for k, v := range s.posByVar {
		pos[k] = v
	}
	return Snapshot{subject: s.subject, groups: s.groups, names: s.names, pos: pos}
}

// Restore reinstates a previously captured Snapshot, unconditionally —
// called on BOTH normal eval-frame exit and exceptional (die) exit, same
// as dynscope's save-record restore discipline.
func (s *State) Restore(snap Snapshot) {
	s.subject = snap.subject
	s.groups = snap.groups
	s.names = snap.names
	s.posByVar = snap.pos
}
