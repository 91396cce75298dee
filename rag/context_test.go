package rag

import "testing"

func TestBuildContext(t *testing.T) {
	docs := []Document{
		{ID: "1", Content: "first fragment"},
		{ID: "2", Content: "second fragment"},
	}
	want := "[fragment 1]\nfirst fragment\n\n[fragment 2]\nsecond fragment"
	if got := BuildContext(docs); got != want {
		t.Fatalf("BuildContext = %q, want %q", got, want)
	}
}

func TestBuildContextEmpty(t *testing.T) {
	if got := BuildContext(nil); got != "" {
		t.Fatalf("BuildContext(nil) = %q, want empty", got)
	}
}

func TestBuildContextPreservesOrder(t *testing.T) {
	docs := []Document{
		{ID: "b", Content: "second by ID but first by rank"},
		{ID: "a", Content: "first by ID but second by rank"},
	}
	got := BuildContext(docs)
	want := "[fragment 1]\nsecond by ID but first by rank\n\n[fragment 2]\nfirst by ID but second by rank"
	if got != want {
		t.Fatalf("BuildContext reordered documents:\n%s", got)
	}
}
