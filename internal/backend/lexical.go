package backend

import (
	"context"
	"strings"
	"sync"
)

// LexicalScore is the score given to every lexical match.
const LexicalScore = 0.8

type lexicalDocument struct {
	filename string
	chunks   []string
}

// Lexical is an in-memory substring index. Documents are queried in insertion order.
type Lexical struct {
	mu    sync.RWMutex
	docs  map[string]*lexicalDocument
	order []string
}

var _ Backend = (*Lexical)(nil)

// NewLexical creates an empty lexical index.
func NewLexical() *Lexical {
	return &Lexical{
		docs: make(map[string]*lexicalDocument),
	}
}

// Mode implements Backend.
func (l *Lexical) Mode() Mode {
	return ModeLexical
}

// Put stores the chunks, replacing any chunks already held for documentID.
func (l *Lexical) Put(_ context.Context, documentID, filename string, chunks []string) error {
	stored := make([]string, len(chunks))
	copy(stored, chunks)

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.docs[documentID]; !ok {
		l.order = append(l.order, documentID)
	}
	l.docs[documentID] = &lexicalDocument{filename: filename, chunks: stored}
	return nil
}

// Query returns chunks containing text, ignoring case. Every match scores LexicalScore.
func (l *Lexical) Query(_ context.Context, text string, topK int) ([]Result, error) {
	results := []Result{}
	if topK <= 0 {
		return results, nil
	}
	needle := strings.ToLower(text)

	l.mu.RLock()
	defer l.mu.RUnlock()

	for _, id := range l.order {
		doc := l.docs[id]
		for i, chunk := range doc.chunks {
			if !strings.Contains(strings.ToLower(chunk), needle) {
				continue
			}
			results = append(results, Result{
				Content: chunk,
				Metadata: Metadata{
					DocumentID: id,
					Filename:   doc.filename,
					ChunkIndex: i,
					ChunkCount: len(doc.chunks),
				},
				Score: LexicalScore,
			})
			if len(results) == topK {
				return results, nil
			}
		}
	}
	return results, nil
}

// Remove implements Backend.
func (l *Lexical) Remove(_ context.Context, documentID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	doc, ok := l.docs[documentID]
	if !ok {
		return false, nil
	}
	delete(l.docs, documentID)
	for i, id := range l.order {
		if id == documentID {
			l.order = append(l.order[:i], l.order[i+1:]...)
			break
		}
	}
	return len(doc.chunks) > 0, nil
}

// List implements Backend.
func (l *Lexical) List(_ context.Context) ([]DocumentSummary, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.summariesLocked(), nil
}

// Stats implements Backend.
func (l *Lexical) Stats(_ context.Context) (Stats, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	docs := l.summariesLocked()
	total := 0
	for _, d := range docs {
		total += d.ChunkCount
	}
	return Stats{
		TotalChunks:    total,
		TotalDocuments: len(docs),
		Documents:      docs,
	}, nil
}

func (l *Lexical) summariesLocked() []DocumentSummary {
	docs := make([]DocumentSummary, 0, len(l.order))
	for _, id := range l.order {
		doc := l.docs[id]
		docs = append(docs, DocumentSummary{
			ID:         id,
			Filename:   doc.filename,
			ChunkCount: len(doc.chunks),
		})
	}
	return docs
}
