package memorycontext

import (
	"context"
	"strings"
	"testing"
)

func TestBuildNoResultsYieldsEmptyPrefix(t *testing.T) {
	prefix, count, err := Build(context.Background(), NopCollaborator{}, "hi", 5)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if prefix != "" || count != 0 {
		t.Fatalf("expected empty prefix and zero count, got prefix=%q count=%d", prefix, count)
	}
}

func TestBuildFormatsRecalledItems(t *testing.T) {
	collaborator := InMemoryCollaborator{Items: []string{"user likes go", "user dislikes java"}}

	prefix, count, err := Build(context.Background(), collaborator, "user", 5)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 results, got %d", count)
	}
	if !strings.HasPrefix(prefix, "Relevant memories:\n") {
		t.Fatalf("expected fixed header, got %q", prefix)
	}
	if !strings.Contains(prefix, "- user likes go\n") {
		t.Fatalf("expected dash-prefixed item, got %q", prefix)
	}
	if !strings.HasSuffix(prefix, "\n\n") {
		t.Fatalf("expected trailing blank line, got %q", prefix)
	}
}

func TestBuildRespectsTopK(t *testing.T) {
	collaborator := InMemoryCollaborator{Items: []string{"a match", "a match 2", "a match 3"}}

	_, count, err := Build(context.Background(), collaborator, "match", 2)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected topK to cap results at 2, got %d", count)
	}
}
