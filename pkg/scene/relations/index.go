package relations

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/andrab0/scenegraph/pkg/scene/catalog"
)

// PhraseIndex holds catalog phrase embeddings and scores query vectors
// against them
type PhraseIndex interface {
	// Index stores one vector per entry, in catalog order.
	Index(ctx context.Context, entries []catalog.Entry, vectors [][]float32) error
	// Scores returns the cosine similarity of query to every indexed entry,
	// in catalog order.
	Scores(ctx context.Context, query []float32) ([]float64, error)
}

// MemoryIndex is an in-process PhraseIndex. Scores is safe for concurrent
// use once Index has returned.
type MemoryIndex struct {
	mu      sync.RWMutex
	vectors [][]float32
}

// NewMemoryIndex creates an empty in-memory index
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{}
}

// Index implements PhraseIndex
func (m *MemoryIndex) Index(ctx context.Context, entries []catalog.Entry, vectors [][]float32) error {
	if len(entries) != len(vectors) {
		return fmt.Errorf("phrase index: %d entries but %d vectors", len(entries), len(vectors))
	}
	copied := make([][]float32, len(vectors))
	for i, v := range vectors {
		copied[i] = append([]float32(nil), v...)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.vectors = copied
	return nil
}

// Scores implements PhraseIndex
func (m *MemoryIndex) Scores(ctx context.Context, query []float32) ([]float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	scores := make([]float64, len(m.vectors))
	for i, v := range m.vectors {
		scores[i] = Cosine(query, v)
	}
	return scores, nil
}

// Cosine returns the cosine similarity of a and b. Mismatched lengths and
// zero vectors score 0.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
