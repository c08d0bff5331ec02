package relations

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrab0/scenegraph/pkg/scene"
	"github.com/andrab0/scenegraph/pkg/scene/catalog"
	st "github.com/andrab0/scenegraph/pkg/scene/scenetest"
)

func catalogEmbedder() *st.Embedder {
	return st.NewEmbedder(catalog.Default().Phrases())
}

// vec builds a vector over the catalog dimensions with the given weights
func vec(e *st.Embedder, weights map[int]float32) []float32 {
	v := make([]float32, e.Dims)
	for i, w := range weights {
		v[i] = w
	}
	return v
}

func newTestNormalizer(t *testing.T, e *st.Embedder, opts ...NormalizerOption) *Normalizer {
	t.Helper()
	n, err := NewNormalizer(context.Background(), e, catalog.Default(), opts...)
	require.NoError(t, err)
	return n
}

func TestNormalizeExactPhrase(t *testing.T) {
	n := newTestNormalizer(t, catalogEmbedder())

	for _, entry := range catalog.Default().Entries() {
		label, ok, err := n.Normalize(context.Background(), entry.Phrase)
		require.NoError(t, err)
		assert.True(t, ok, entry.Phrase)
		assert.Equal(t, entry.Label, label)
	}
}

func TestNormalizeLowercasesAndTrims(t *testing.T) {
	n := newTestNormalizer(t, catalogEmbedder())

	label, ok, err := n.Normalize(context.Background(), "  On  ")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, catalog.On, label)
}

func TestNormalizeThreshold(t *testing.T) {
	e := catalogEmbedder()
	near := 10 // index of "near" in declaration order
	extra := e.Dims - 1
	e.Set("close to", vec(e, map[int]float32{near: 0.8, extra: 0.6}))
	e.Set("kind of around", vec(e, map[int]float32{near: 0.6, extra: 0.8}))

	n := newTestNormalizer(t, e)

	label, ok, err := n.Normalize(context.Background(), "close to")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, catalog.Near, label)

	_, ok, err = n.Normalize(context.Background(), "kind of around")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = n.Normalize(context.Background(), "dances with")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNormalizeThresholdIsStrict(t *testing.T) {
	n := newTestNormalizer(t, catalogEmbedder(), WithThreshold(1.0))

	_, ok, err := n.Normalize(context.Background(), "on")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 1.0, n.Threshold())
}

func TestNormalizeTieGoesToFirstDeclared(t *testing.T) {
	e := catalogEmbedder()
	// equidistant from left_of (0) and right_of (1), cosine ~0.707 each
	e.Set("sideways", vec(e, map[int]float32{0: 1, 1: 1}))

	n := newTestNormalizer(t, e)

	label, ok, err := n.Normalize(context.Background(), "sideways")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, catalog.LeftOf, label)
}

func TestNormalizeEmptyPhrase(t *testing.T) {
	e := catalogEmbedder()
	n := newTestNormalizer(t, e)
	before := e.Calls()

	_, ok, err := n.Normalize(context.Background(), "   ")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, before, e.Calls())
}

func TestNormalizeEmbedderFailure(t *testing.T) {
	e := catalogEmbedder()
	n := newTestNormalizer(t, e)
	e.Err = errors.New("model offline")

	_, _, err := n.Normalize(context.Background(), "on")
	var procErr *scene.ProcessingError
	require.ErrorAs(t, err, &procErr)
	assert.Equal(t, "embedding", procErr.Stage)
}

func TestNewNormalizerEmbedsCatalogOnce(t *testing.T) {
	e := catalogEmbedder()
	newTestNormalizer(t, e)
	assert.Equal(t, int64(catalog.Default().Len()), e.Calls())
}

func TestNewNormalizerFailures(t *testing.T) {
	_, err := NewNormalizer(context.Background(), nil, nil)
	assert.Error(t, err)

	e := catalogEmbedder()
	e.Err = errors.New("boom")
	_, err = NewNormalizer(context.Background(), e, nil)
	assert.ErrorContains(t, err, "embedding catalog phrases")
}

func TestMemoryIndexRejectsMismatchedInput(t *testing.T) {
	idx := NewMemoryIndex()
	err := idx.Index(context.Background(), catalog.Default().Entries(), [][]float32{{1}})
	assert.Error(t, err)
}

func TestCosine(t *testing.T) {
	assert.InDelta(t, 1.0, Cosine([]float32{1, 2, 3}, []float32{2, 4, 6}), 1e-9)
	assert.InDelta(t, 0.0, Cosine([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, Cosine([]float32{1, 0}, []float32{-1, 0}), 1e-9)
	assert.InDelta(t, 1/math.Sqrt2, Cosine([]float32{1, 1}, []float32{1, 0}), 1e-9)
	assert.Zero(t, Cosine([]float32{0, 0}, []float32{1, 0}))
	assert.Zero(t, Cosine([]float32{1}, []float32{1, 0}))
	assert.Zero(t, Cosine(nil, nil))
}
