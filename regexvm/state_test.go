package regexvm

import "testing"

func TestApplyAndGroupAccessors(t *testing.T) {
	s := NewState()
	subject := []byte("2024-01 info")
	result := &MatchResult{Groups: [][]int{{0, 7}, {0, 4}, {5, 7}}}
	p := &Pattern{NumCaptures: 2, CaptureNames: map[string]int{"year": 1}}

	s.Apply(subject, result, p)

	if got := s.GroupText(0); got != "2024-01" {
		t.Fatalf("GroupText(0) = %q", got)
	}
	if got := s.GroupText(1); got != "2024" {
		t.Fatalf("GroupText(1) = %q", got)
	}
	if got := s.PreMatch(); got != "" {
		t.Fatalf("PreMatch() = %q, want empty", got)
	}
	if got := s.PostMatch(); got != " info" {
		t.Fatalf("PostMatch() = %q", got)
	}
	if name, ok := s.NamedGroup("year"); !ok || name != "2024" {
		t.Fatalf("NamedGroup(year) = %q, %v", name, ok)
	}
	if s.NumGroups() != 2 {
		t.Fatalf("NumGroups() = %d, want 2", s.NumGroups())
	}
}

func TestFailedMatchDoesNotClearPreviousState(t *testing.T) {
	s := NewState()
	subject := []byte("abc")
	p := &Pattern{NumCaptures: 0}
	s.Apply(subject, &MatchResult{Groups: [][]int{{0, 3}}}, p)
	s.Apply(subject, nil, p) // failed match
	if got := s.GroupText(0); got != "abc" {
		t.Fatalf("GroupText(0) after failed match = %q, want unchanged %q", got, "abc")
	}
}

func TestSaveRestoreAcrossEvalFrame(t *testing.T) {
	s := NewState()
	outer := []byte("outer-match")
	s.Apply(outer, &MatchResult{Groups: [][]int{{0, 5}}}, &Pattern{})
	snap := s.Save()

	inner := []byte("inner-match")
	s.Apply(inner, &MatchResult{Groups: [][]int{{0, 5}}}, &Pattern{})
	if got := s.GroupText(0); got != "inner" {
		t.Fatalf("GroupText(0) inside eval = %q", got)
	}

	s.Restore(snap)
	if got := s.GroupText(0); got != "outer" {
		t.Fatalf("GroupText(0) after Restore = %q, want %q", got, "outer")
	}
}

func TestPosTrackingPerVariable(t *testing.T) {
	s := NewState()
	var x, y int
	keyX, keyY := interface{}(&x), interface{}(&y)
	s.SetPos(keyX, 3)
	s.SetPos(keyY, 7)
	if p, ok := s.Pos(keyX); !ok || p != 3 {
		t.Fatalf("Pos(x) = %d, %v", p, ok)
	}
	s.ClearPos(keyX)
	if _, ok := s.Pos(keyX); ok {
		t.Fatal("expected pos(x) cleared")
	}
	if p, ok := s.Pos(keyY); !ok || p != 7 {
		t.Fatalf("Pos(y) untouched = %d, %v", p, ok)
	}
}
