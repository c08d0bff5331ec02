package scene

import (
	"context"

	"github.com/andrab0/scenegraph/pkg/scene/catalog"
)

// Token represents a parsed word with linguistic information
type Token struct {
	Text  string `json:"text"`
	Lemma string `json:"lemma"`
	POS   string `json:"pos"`
	Dep   string `json:"dep"`
	// Head is the sentence-local index of the syntactic head, -1 for the root
	Head int `json:"head"`
}

// NounChunk is a contiguous token span [Start, End) with a designated root
type NounChunk struct {
	Start int `json:"start"`
	End   int `json:"end"`
	Root  int `json:"root"`
}

// Sentence represents a parsed sentence
type Sentence struct {
	Text   string      `json:"text"`
	Tokens []Token     `json:"tokens"`
	Chunks []NounChunk `json:"noun_chunks"`
}

// Document is the parser output for one text
type Document struct {
	Text      string     `json:"text"`
	Sentences []Sentence `json:"sentences"`
}

// AttributeBag holds the adjectives attached to one candidate object
type AttributeBag struct {
	Color []string `json:"color"`
	Size  []string `json:"size"`
}

// RawTriple is a relation produced by an extractor before validation
type RawTriple struct {
	Subject  string `json:"subject"`
	Relation string `json:"relation"`
	Object   string `json:"object"`
}

// LemmaRelation is a relation whose label is resolved but whose endpoints
// are still object lemmas
type LemmaRelation struct {
	Subject string        `json:"subject"`
	Label   catalog.Label `json:"label"`
	Object  string        `json:"object"`
}

// Attributes is the serialized attribute form; empty buckets are null
type Attributes struct {
	Color *string `json:"color"`
	Size  *string `json:"size"`
}

// SceneObject is one object of the final scene graph
type SceneObject struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	// Object repeats Type; scene loaders key on it
	Object     string     `json:"object"`
	Attributes Attributes `json:"attributes"`
}

// SceneRelation is a directed spatial relation between two object IDs
type SceneRelation struct {
	Subject  string        `json:"object_1"`
	Relation catalog.Label `json:"relation"`
	Object   string        `json:"object_2"`
}

// SceneGraph is the sole artifact produced by the pipeline
type SceneGraph struct {
	Objects   []SceneObject   `json:"objects"`
	Relations []SceneRelation `json:"relations"`
}

// Translator converts text in sourceLang to the working language
type Translator interface {
	Translate(ctx context.Context, text, sourceLang string) (string, error)
}

// Parser produces tokens, lemmas, dependencies and noun chunks
type Parser interface {
	Parse(ctx context.Context, text string) (*Document, error)
}

// RelationGenerator produces free-text "subject|relation|object" strings
type RelationGenerator interface {
	GenerateTriples(ctx context.Context, text string) ([]string, error)
}

// Embedder computes sentence embeddings
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}
