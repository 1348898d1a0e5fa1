package ctrlflow

import "testing"

func TestSetPeekClear(t *testing.T) {
	r := NewRegistry()
	if r.IsPending() {
		t.Fatal("expected empty registry")
	}
	r.Set(Marker{Kind: Last, Label: "OUTER"})
	if !r.IsPending() {
		t.Fatal("expected pending marker")
	}
	if got := r.Peek(); got.Kind != Last || got.Label != "OUTER" {
		t.Fatalf("Peek() = %+v", got)
	}
	r.Clear()
	if r.IsPending() {
		t.Fatal("expected cleared registry")
	}
}

func TestSetWhilePendingPanics(t *testing.T) {
	r := NewRegistry()
	r.Set(Marker{Kind: Next})
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on double Set")
		}
	}()
	r.Set(Marker{Kind: Last})
}

func TestTakeIfMatchesUnlabelled(t *testing.T) {
	r := NewRegistry()
	r.Set(Marker{Kind: Last})
	if _, ok := r.TakeIfMatches(Next, ""); ok {
		t.Fatal("wrong kind must not match")
	}
	m, ok := r.TakeIfMatches(Last, "INNER")
	if !ok {
		t.Fatal("unlabelled last must match any enclosing loop")
	}
	if m.Kind != Last {
		t.Fatalf("m = %+v", m)
	}
	if r.IsPending() {
		t.Fatal("TakeIfMatches must consume the marker")
	}
}

func TestTakeIfMatchesLabelled(t *testing.T) {
	r := NewRegistry()
	r.Set(Marker{Kind: Last, Label: "OUTER"})
	if _, ok := r.TakeIfMatches(Last, "INNER"); ok {
		t.Fatal("labelled last must not match a differently labelled loop")
	}
	if !r.IsPending() {
		t.Fatal("a non-matching TakeIfMatches must not consume the marker")
	}
	m, ok := r.TakeIfMatches(Last, "OUTER")
	if !ok || m.Label != "OUTER" {
		t.Fatalf("expected match on OUTER, got %+v ok=%v", m, ok)
	}
}

func TestReturnPayload(t *testing.T) {
	r := NewRegistry()
	r.Set(Marker{Kind: Return, Payload: 42})
	m, ok := r.TakeIfMatches(Return, "")
	if !ok || m.Payload.(int) != 42 {
		t.Fatalf("expected Return payload 42, got %+v ok=%v", m, ok)
	}
}
