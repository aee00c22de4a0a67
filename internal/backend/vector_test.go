package backend

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"go.uber.org/mock/gomock"

	llm_mocks "personal-kb/internal/llm/mocks"
	"personal-kb/internal/vectorstore"
	vectorstore_mocks "personal-kb/internal/vectorstore/mocks"
)

const testCollection = "kb_test"

func TestChunkIDAndPointID(t *testing.T) {
	if got := ChunkID("doc-1", 3); got != "doc-1_chunk_3" {
		t.Errorf("ChunkID() = %q, want doc-1_chunk_3", got)
	}
	a := pointID("doc-1_chunk_0")
	b := pointID("doc-1_chunk_0")
	c := pointID("doc-1_chunk_1")
	if a != b {
		t.Error("pointID() is not stable")
	}
	if a == c {
		t.Error("pointID() collides for different chunks")
	}
}

func TestVector_Put(t *testing.T) {
	ctrl := gomock.NewController(t)
	ctx := context.Background()

	embedder := llm_mocks.NewMockEmbedder(ctrl)
	store := vectorstore_mocks.NewMockVectorStore(ctrl)

	embedder.EXPECT().
		EmbedTexts(gomock.Any(), []string{"first", "second"}).
		Return([][]float32{{1, 0}, {0, 1}}, nil)

	store.EXPECT().
		Upsert(gomock.Any(), testCollection, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, points []vectorstore.Point) error {
			if len(points) != 2 {
				t.Fatalf("Upsert() got %d points, want 2", len(points))
			}
			p := points[1]
			if p.ID != pointID("doc-1_chunk_1") {
				t.Errorf("point ID = %q, want UUID of doc-1_chunk_1", p.ID)
			}
			wantMeta := map[string]any{
				"chunk_id":    "doc-1_chunk_1",
				"document_id": "doc-1",
				"filename":    "a.txt",
				"chunk_index": 1,
				"chunk_count": 2,
				"text":        "second",
			}
			if !reflect.DeepEqual(p.Meta, wantMeta) {
				t.Errorf("point Meta = %v, want %v", p.Meta, wantMeta)
			}
			if !reflect.DeepEqual(p.Vec, []float32{0, 1}) {
				t.Errorf("point Vec = %v, want [0 1]", p.Vec)
			}
			return nil
		})

	v := NewVector(embedder, store, testCollection, 10)
	if err := v.Put(ctx, "doc-1", "a.txt", []string{"first", "second"}); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
}

func TestVector_PutSkipsBlankChunks(t *testing.T) {
	t.Run("only blank chunks", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		embedder := llm_mocks.NewMockEmbedder(ctrl)
		store := vectorstore_mocks.NewMockVectorStore(ctrl)

		v := NewVector(embedder, store, testCollection, 0)
		if err := v.Put(context.Background(), "doc-1", "empty.txt", []string{"", " \n\t"}); err != nil {
			t.Fatalf("Put() error = %v", err)
		}
	})

	t.Run("blank chunk between text", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		embedder := llm_mocks.NewMockEmbedder(ctrl)
		store := vectorstore_mocks.NewMockVectorStore(ctrl)

		embedder.EXPECT().
			EmbedTexts(gomock.Any(), []string{"first", "third"}).
			Return([][]float32{{1, 0}, {0, 1}}, nil)
		store.EXPECT().
			Upsert(gomock.Any(), testCollection, gomock.Any()).
			DoAndReturn(func(_ context.Context, _ string, points []vectorstore.Point) error {
				if len(points) != 2 {
					t.Fatalf("Upsert() got %d points, want 2", len(points))
				}
				p := points[1]
				if p.ID != pointID("doc-1_chunk_2") {
					t.Errorf("point ID = %q, want UUID of doc-1_chunk_2", p.ID)
				}
				if p.Meta["chunk_index"] != 2 || p.Meta["chunk_count"] != 3 || p.Meta["text"] != "third" {
					t.Errorf("point Meta = %v, want chunk_index 2 of 3 with text third", p.Meta)
				}
				return nil
			})

		v := NewVector(embedder, store, testCollection, 0)
		if err := v.Put(context.Background(), "doc-1", "a.txt", []string{"first", "   ", "third"}); err != nil {
			t.Fatalf("Put() error = %v", err)
		}
	})
}

func TestVector_PutErrors(t *testing.T) {
	tests := []struct {
		name  string
		setup func(e *llm_mocks.MockEmbedder, s *vectorstore_mocks.MockVectorStore)
	}{
		{
			name: "embedding fails",
			setup: func(e *llm_mocks.MockEmbedder, s *vectorstore_mocks.MockVectorStore) {
				e.EXPECT().EmbedTexts(gomock.Any(), gomock.Any()).Return(nil, errors.New("down"))
			},
		},
		{
			name: "vector count mismatch",
			setup: func(e *llm_mocks.MockEmbedder, s *vectorstore_mocks.MockVectorStore) {
				e.EXPECT().EmbedTexts(gomock.Any(), gomock.Any()).Return([][]float32{{1}}, nil)
			},
		},
		{
			name: "upsert fails",
			setup: func(e *llm_mocks.MockEmbedder, s *vectorstore_mocks.MockVectorStore) {
				e.EXPECT().EmbedTexts(gomock.Any(), gomock.Any()).Return([][]float32{{1}, {2}}, nil)
				s.EXPECT().Upsert(gomock.Any(), testCollection, gomock.Any()).Return(errors.New("unavailable"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			embedder := llm_mocks.NewMockEmbedder(ctrl)
			store := vectorstore_mocks.NewMockVectorStore(ctrl)
			tt.setup(embedder, store)

			v := NewVector(embedder, store, testCollection, 0)
			err := v.Put(context.Background(), "doc-1", "a.txt", []string{"a", "b"})
			if !errors.Is(err, ErrBackend) {
				t.Errorf("Put() error = %v, want ErrBackend", err)
			}
		})
	}
}

func TestVector_Query(t *testing.T) {
	ctrl := gomock.NewController(t)
	ctx := context.Background()

	embedder := llm_mocks.NewMockEmbedder(ctrl)
	store := vectorstore_mocks.NewMockVectorStore(ctrl)

	// The second query with the same text is served from the cache.
	embedder.EXPECT().
		EmbedTexts(gomock.Any(), []string{"unique token"}).
		Return([][]float32{{0.5, 0.5}}, nil).
		Times(1)

	store.EXPECT().
		Search(gomock.Any(), testCollection, []float32{0.5, 0.5}, 2, nil).
		Return([]vectorstore.SearchResult{
			{PointID: "p2", Distance: 0.5, Meta: map[string]any{
				"document_id": "doc-2", "filename": "b.txt", "chunk_index": int64(0), "chunk_count": int64(1), "text": "other",
			}},
			{PointID: "p1", Distance: 0.25, Meta: map[string]any{
				"document_id": "doc-1", "filename": "a.txt", "chunk_index": int64(1), "chunk_count": int64(2), "text": "unique token here",
			}},
		}, nil).
		Times(2)

	v := NewVector(embedder, store, testCollection, 10)
	for i := 0; i < 2; i++ {
		results, err := v.Query(ctx, "unique token", 2)
		if err != nil {
			t.Fatalf("Query() error = %v", err)
		}
		want := []Result{
			{
				Content:  "unique token here",
				Metadata: Metadata{DocumentID: "doc-1", Filename: "a.txt", ChunkIndex: 1, ChunkCount: 2},
				Score:    0.75,
			},
			{
				Content:  "other",
				Metadata: Metadata{DocumentID: "doc-2", Filename: "b.txt", ChunkIndex: 0, ChunkCount: 1},
				Score:    0.5,
			},
		}
		if !reflect.DeepEqual(results, want) {
			t.Errorf("Query() = %+v, want %+v", results, want)
		}
	}
}

func TestVector_QueryErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	embedder := llm_mocks.NewMockEmbedder(ctrl)
	store := vectorstore_mocks.NewMockVectorStore(ctrl)

	embedder.EXPECT().EmbedTexts(gomock.Any(), []string{"q"}).Return([][]float32{{1}}, nil)
	store.EXPECT().Search(gomock.Any(), testCollection, gomock.Any(), 5, nil).Return(nil, errors.New("timeout"))

	v := NewVector(embedder, store, testCollection, 0)
	if _, err := v.Query(context.Background(), "q", 5); !errors.Is(err, ErrBackend) {
		t.Errorf("Query() error = %v, want ErrBackend", err)
	}
}

func TestVector_Remove(t *testing.T) {
	ctrl := gomock.NewController(t)
	ctx := context.Background()
	store := vectorstore_mocks.NewMockVectorStore(ctrl)
	filter := map[string]any{"document_id": "doc-1"}

	gomock.InOrder(
		store.EXPECT().Get(gomock.Any(), testCollection, filter).Return([]vectorstore.Record{
			{PointID: "p1"}, {PointID: "p2"},
		}, nil),
		store.EXPECT().Delete(gomock.Any(), testCollection, []string{"p1", "p2"}).Return(nil),
		store.EXPECT().Get(gomock.Any(), testCollection, filter).Return(nil, nil),
	)

	v := NewVector(llm_mocks.NewMockEmbedder(ctrl), store, testCollection, 0)
	removed, err := v.Remove(ctx, "doc-1")
	if err != nil || !removed {
		t.Fatalf("first Remove() = %v, %v, want true, nil", removed, err)
	}
	removed, err = v.Remove(ctx, "doc-1")
	if err != nil || removed {
		t.Fatalf("second Remove() = %v, %v, want false, nil", removed, err)
	}
}

func TestVector_ListAndStats(t *testing.T) {
	ctrl := gomock.NewController(t)
	ctx := context.Background()
	store := vectorstore_mocks.NewMockVectorStore(ctrl)

	records := []vectorstore.Record{
		{PointID: "p1", Meta: map[string]any{"document_id": "doc-1", "filename": "a.txt", "chunk_count": int64(2)}},
		{PointID: "p2", Meta: map[string]any{"document_id": "doc-2", "filename": "b.txt", "chunk_count": int64(1)}},
		{PointID: "p3", Meta: map[string]any{"document_id": "doc-1", "filename": "renamed.txt", "chunk_count": int64(9)}},
		{PointID: "p4", Meta: map[string]any{}},
	}
	store.EXPECT().Get(gomock.Any(), testCollection, nil).Return(records, nil).Times(2)
	store.EXPECT().Count(gomock.Any(), testCollection).Return(3, nil)

	v := NewVector(llm_mocks.NewMockEmbedder(ctrl), store, testCollection, 0)

	docs, err := v.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	wantDocs := []DocumentSummary{
		{ID: "doc-1", Filename: "a.txt", ChunkCount: 2},
		{ID: "doc-2", Filename: "b.txt", ChunkCount: 1},
	}
	if !reflect.DeepEqual(docs, wantDocs) {
		t.Errorf("List() = %+v, want %+v", docs, wantDocs)
	}

	stats, err := v.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.TotalChunks != 3 || stats.TotalDocuments != 2 {
		t.Errorf("Stats() = %+v, want 3 chunks in 2 documents", stats)
	}
}

func TestVector_StatsCountError(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := vectorstore_mocks.NewMockVectorStore(ctrl)
	store.EXPECT().Count(gomock.Any(), testCollection).Return(0, errors.New("boom"))

	v := NewVector(llm_mocks.NewMockEmbedder(ctrl), store, testCollection, 0)
	if _, err := v.Stats(context.Background()); !errors.Is(err, ErrBackend) {
		t.Errorf("Stats() error = %v, want ErrBackend", err)
	}
}
