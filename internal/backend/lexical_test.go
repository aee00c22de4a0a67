package backend

import (
	"context"
	"reflect"
	"testing"
)

func TestLexical_Query(t *testing.T) {
	ctx := context.Background()
	l := NewLexical()
	if err := l.Put(ctx, "doc-1", "a.txt", []string{"Alpha beta.", "Gamma delta."}); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := l.Put(ctx, "doc-2", "b.txt", []string{"BETA again.", "nothing here"}); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	tests := []struct {
		name    string
		query   string
		topK    int
		wantIDs []string
	}{
		{"case insensitive across documents", "beta", 5, []string{"doc-1", "doc-2"}},
		{"truncated to topK", "beta", 1, []string{"doc-1"}},
		{"no match", "zeta", 5, nil},
		{"non-positive topK", "beta", 0, nil},
		{"empty query matches everything", "", 10, []string{"doc-1", "doc-1", "doc-2", "doc-2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := l.Query(ctx, tt.query, tt.topK)
			if err != nil {
				t.Fatalf("Query() error = %v", err)
			}
			var ids []string
			for _, r := range results {
				ids = append(ids, r.Metadata.DocumentID)
				if r.Score != LexicalScore {
					t.Errorf("Score = %v, want %v", r.Score, LexicalScore)
				}
			}
			if !reflect.DeepEqual(ids, tt.wantIDs) {
				t.Errorf("Query() ids = %v, want %v", ids, tt.wantIDs)
			}
		})
	}
}

func TestLexical_QueryMetadata(t *testing.T) {
	ctx := context.Background()
	l := NewLexical()
	_ = l.Put(ctx, "doc-1", "a.txt", []string{"one", "two", "three"})

	results, err := l.Query(ctx, "TWO", 5)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	want := []Result{{
		Content:  "two",
		Metadata: Metadata{DocumentID: "doc-1", Filename: "a.txt", ChunkIndex: 1, ChunkCount: 3},
		Score:    LexicalScore,
	}}
	if !reflect.DeepEqual(results, want) {
		t.Errorf("Query() = %+v, want %+v", results, want)
	}
}

func TestLexical_RemoveIdempotent(t *testing.T) {
	ctx := context.Background()
	l := NewLexical()
	_ = l.Put(ctx, "doc-1", "a.txt", []string{"text"})

	removed, err := l.Remove(ctx, "doc-1")
	if err != nil || !removed {
		t.Fatalf("first Remove() = %v, %v, want true, nil", removed, err)
	}
	removed, err = l.Remove(ctx, "doc-1")
	if err != nil || removed {
		t.Fatalf("second Remove() = %v, %v, want false, nil", removed, err)
	}

	results, _ := l.Query(ctx, "text", 5)
	if len(results) != 0 {
		t.Errorf("Query() after Remove returned %d results", len(results))
	}
}

func TestLexical_ListAndStats(t *testing.T) {
	ctx := context.Background()
	l := NewLexical()
	_ = l.Put(ctx, "doc-1", "a.txt", []string{"x", "y"})
	_ = l.Put(ctx, "doc-2", "b.txt", []string{"z"})
	_ = l.Put(ctx, "doc-1", "a.txt", []string{"x", "y", "w"})

	docs, err := l.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	wantDocs := []DocumentSummary{
		{ID: "doc-1", Filename: "a.txt", ChunkCount: 3},
		{ID: "doc-2", Filename: "b.txt", ChunkCount: 1},
	}
	if !reflect.DeepEqual(docs, wantDocs) {
		t.Errorf("List() = %+v, want %+v", docs, wantDocs)
	}

	stats, err := l.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.TotalChunks != 4 || stats.TotalDocuments != 2 {
		t.Errorf("Stats() = %+v, want 4 chunks in 2 documents", stats)
	}
}

func TestLexical_PutCopiesChunks(t *testing.T) {
	ctx := context.Background()
	l := NewLexical()
	chunks := []string{"original"}
	_ = l.Put(ctx, "doc-1", "a.txt", chunks)
	chunks[0] = "mutated"

	results, _ := l.Query(ctx, "original", 5)
	if len(results) != 1 {
		t.Errorf("Put() should not retain the caller's slice")
	}
}

func TestLexical_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	l := NewLexical()
	done := make(chan struct{})

	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			_ = l.Put(ctx, "doc", "a.txt", []string{"shared text"})
			_, _ = l.Remove(ctx, "doc")
		}
	}()
	for i := 0; i < 200; i++ {
		_, _ = l.Query(ctx, "shared", 5)
		_, _ = l.Stats(ctx)
	}
	<-done
}
