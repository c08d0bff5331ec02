// Package scenetest provides hand-built documents and fake collaborators for
// exercising the scene pipeline without models.
package scenetest

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/andrab0/scenegraph/pkg/scene"
)

// T builds a token
func T(text, lemma, pos, dep string, head int) scene.Token {
	return scene.Token{Text: text, Lemma: lemma, POS: pos, Dep: dep, Head: head}
}

// C builds a noun chunk over [start, end) rooted at root
func C(start, end, root int) scene.NounChunk {
	return scene.NounChunk{Start: start, End: end, Root: root}
}

// Doc assembles a single-sentence document
func Doc(text string, tokens []scene.Token, chunks ...scene.NounChunk) *scene.Document {
	return &scene.Document{
		Text: text,
		Sentences: []scene.Sentence{{
			Text:   text,
			Tokens: tokens,
			Chunks: chunks,
		}},
	}
}

// RedCubeOnBlueTable is the parse of "A red cube is on a blue table."
func RedCubeOnBlueTable() *scene.Document {
	return Doc("A red cube is on a blue table.", []scene.Token{
		T("A", "a", scene.POSDet, "det", 2),
		T("red", "red", scene.POSAdj, "amod", 2),
		T("cube", "cube", scene.POSNoun, "nsubj", 3),
		T("is", "be", scene.POSAux, "ROOT", -1),
		T("on", "on", scene.POSAdp, "prep", 3),
		T("a", "a", scene.POSDet, "det", 7),
		T("blue", "blue", scene.POSAdj, "amod", 7),
		T("table", "table", scene.POSNoun, "pobj", 4),
		T(".", ".", scene.POSPunct, "punct", 3),
	}, C(0, 3, 2), C(5, 8, 7))
}

// WordDocument is a crude parse: whitespace tokens, lowercased lemmas, no
// syntax. It is enough for lemma scanning.
func WordDocument(text string) *scene.Document {
	var tokens []scene.Token
	for _, w := range strings.Fields(text) {
		w = strings.Trim(w, ".,;:!?\"'()")
		if w == "" {
			continue
		}
		tokens = append(tokens, T(w, strings.ToLower(w), scene.POSOther, "dep", -1))
	}
	return Doc(text, tokens)
}

// Parser returns registered documents by exact text and falls back to
// WordDocument
type Parser struct {
	mu    sync.RWMutex
	docs  map[string]*scene.Document
	Err   error
	calls atomic.Int64
}

// NewParser creates a fake parser with the given documents keyed by their text
func NewParser(docs ...*scene.Document) *Parser {
	p := &Parser{docs: make(map[string]*scene.Document)}
	for _, d := range docs {
		p.Register(d.Text, d)
	}
	return p
}

// Register maps text to doc
func (p *Parser) Register(text string, doc *scene.Document) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.docs[text] = doc
}

// Parse implements scene.Parser
func (p *Parser) Parse(ctx context.Context, text string) (*scene.Document, error) {
	p.calls.Add(1)
	if p.Err != nil {
		return nil, p.Err
	}
	p.mu.RLock()
	doc, ok := p.docs[text]
	p.mu.RUnlock()
	if ok {
		return doc, nil
	}
	return WordDocument(text), nil
}

// Calls returns how many times Parse ran
func (p *Parser) Calls() int64 {
	return p.calls.Load()
}

// Generator returns fixed relation strings
type Generator struct {
	Lines []string
	Err   error
	calls atomic.Int64
}

// GenerateTriples implements scene.RelationGenerator
func (g *Generator) GenerateTriples(ctx context.Context, text string) ([]string, error) {
	g.calls.Add(1)
	if g.Err != nil {
		return nil, g.Err
	}
	return append([]string(nil), g.Lines...), nil
}

// Calls returns how many times GenerateTriples ran
func (g *Generator) Calls() int64 {
	return g.calls.Load()
}

// Embedder maps known texts to fixed vectors; unknown texts embed to zero
type Embedder struct {
	Dims    int
	Vectors map[string][]float32
	Err     error
	calls   atomic.Int64
}

// NewEmbedder gives each phrase a one-hot vector in phrase order
func NewEmbedder(phrases []string) *Embedder {
	dims := len(phrases) + 4
	e := &Embedder{Dims: dims, Vectors: make(map[string][]float32)}
	for i, p := range phrases {
		v := make([]float32, dims)
		v[i] = 1
		e.Vectors[p] = v
	}
	return e
}

// Alias makes text embed exactly like phrase
func (e *Embedder) Alias(text, phrase string) *Embedder {
	e.Vectors[text] = e.Vectors[phrase]
	return e
}

// Set assigns an explicit vector to text
func (e *Embedder) Set(text string, v []float32) *Embedder {
	e.Vectors[text] = v
	return e
}

// Embed implements scene.Embedder
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	e.calls.Add(1)
	if e.Err != nil {
		return nil, e.Err
	}
	if v, ok := e.Vectors[text]; ok {
		return v, nil
	}
	return make([]float32, e.Dims), nil
}

// EmbedBatch implements scene.Embedder
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for _, t := range texts {
		v, err := e.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// Calls returns how many texts were embedded
func (e *Embedder) Calls() int64 {
	return e.calls.Load()
}

// Translator returns a fixed translation per source text
type Translator struct {
	Translations map[string]string
	Err          error
	calls        atomic.Int64
}

// Translate implements scene.Translator
func (t *Translator) Translate(ctx context.Context, text, sourceLang string) (string, error) {
	t.calls.Add(1)
	if t.Err != nil {
		return "", t.Err
	}
	if out, ok := t.Translations[text]; ok {
		return out, nil
	}
	return text, nil
}

// Calls returns how many times Translate ran
func (t *Translator) Calls() int64 {
	return t.calls.Load()
}
