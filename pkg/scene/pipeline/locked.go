package pipeline

import (
	"context"
	"sync"

	"github.com/andrab0/scenegraph/pkg/scene"
)

// The locked collaborators share one mutex so that non-reentrant models never
// run concurrently. Everything outside the model calls stays unlocked.

type lockedParser struct {
	mu    *sync.Mutex
	inner scene.Parser
}

func (p lockedParser) Parse(ctx context.Context, text string) (*scene.Document, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.inner.Parse(ctx, text)
}

type lockedGenerator struct {
	mu    *sync.Mutex
	inner scene.RelationGenerator
}

func (g lockedGenerator) GenerateTriples(ctx context.Context, text string) ([]string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.inner.GenerateTriples(ctx, text)
}

type lockedEmbedder struct {
	mu    *sync.Mutex
	inner scene.Embedder
}

func (e lockedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.inner.Embed(ctx, text)
}

func (e lockedEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.inner.EmbedBatch(ctx, texts)
}

type lockedTranslator struct {
	mu    *sync.Mutex
	inner scene.Translator
}

func (t lockedTranslator) Translate(ctx context.Context, text, sourceLang string) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.inner.Translate(ctx, text, sourceLang)
}

// serialize wraps every non-nil collaborator of m behind one mutex
func serialize(m *Models) *Models {
	mu := &sync.Mutex{}
	out := &Models{}
	if m.Parser != nil {
		out.Parser = lockedParser{mu: mu, inner: m.Parser}
	}
	if m.Generator != nil {
		out.Generator = lockedGenerator{mu: mu, inner: m.Generator}
	}
	if m.Embedder != nil {
		out.Embedder = lockedEmbedder{mu: mu, inner: m.Embedder}
	}
	if m.Translator != nil {
		out.Translator = lockedTranslator{mu: mu, inner: m.Translator}
	}
	return out
}
