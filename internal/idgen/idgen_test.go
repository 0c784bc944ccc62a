package idgen

import (
	"regexp"
	"testing"
)

func TestGenerator_New(t *testing.T) {
	g := Generator{Prefix: "x-", Length: 8}
	id, err := g.New()
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if len(id) != len(g.Prefix)+g.Length {
		t.Errorf("New() length = %d, want %d (id=%q)", len(id), len(g.Prefix)+g.Length, id)
	}
	pattern := regexp.MustCompile(`^x-[a-zA-Z0-9]{8}$`)
	if !pattern.MatchString(id) {
		t.Errorf("New() = %q, does not match %s", id, pattern)
	}
}

func TestGenerator_DefaultLength(t *testing.T) {
	id, err := Generator{}.New()
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if len(id) != 12 {
		t.Errorf("New() length = %d, want 12", len(id))
	}
}

func TestRequestID(t *testing.T) {
	pattern := regexp.MustCompile(`^req-[a-zA-Z0-9]{12}$`)
	seen := make(map[string]bool)
	for range 100 {
		id := RequestID()
		if !pattern.MatchString(id) {
			t.Fatalf("RequestID() = %q, does not match %s", id, pattern)
		}
		if seen[id] {
			t.Fatalf("RequestID() returned duplicate %q", id)
		}
		seen[id] = true
	}
}
