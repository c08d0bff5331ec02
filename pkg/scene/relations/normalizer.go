package relations

import (
	"context"
	"fmt"
	"strings"

	"github.com/andrab0/scenegraph/pkg/scene"
	"github.com/andrab0/scenegraph/pkg/scene/catalog"
	"github.com/sirupsen/logrus"
)

// DefaultThreshold is the similarity a phrase must exceed to map to a label
const DefaultThreshold = 0.7

// Normalizer maps free-text relation phrases to catalog labels by embedding
// similarity
type Normalizer struct {
	embedder  scene.Embedder
	catalog   *catalog.Catalog
	index     PhraseIndex
	threshold float64
	logger    *logrus.Logger
}

// NormalizerOption configures a Normalizer
type NormalizerOption func(*Normalizer)

// WithThreshold overrides DefaultThreshold
func WithThreshold(threshold float64) NormalizerOption {
	return func(n *Normalizer) {
		n.threshold = threshold
	}
}

// WithPhraseIndex replaces the in-memory phrase index
func WithPhraseIndex(index PhraseIndex) NormalizerOption {
	return func(n *Normalizer) {
		n.index = index
	}
}

// WithNormalizerLogger sets the logger
func WithNormalizerLogger(logger *logrus.Logger) NormalizerOption {
	return func(n *Normalizer) {
		n.logger = logger
	}
}

// NewNormalizer embeds every catalog phrase in one batch and indexes the
// vectors. It is meant to run once, during model loading.
func NewNormalizer(ctx context.Context, embedder scene.Embedder, cat *catalog.Catalog, opts ...NormalizerOption) (*Normalizer, error) {
	if embedder == nil {
		return nil, fmt.Errorf("normalizer: embedder is required")
	}
	if cat == nil {
		cat = catalog.Default()
	}

	n := &Normalizer{
		embedder:  embedder,
		catalog:   cat,
		threshold: DefaultThreshold,
	}
	for _, opt := range opts {
		opt(n)
	}
	if n.index == nil {
		n.index = NewMemoryIndex()
	}
	if n.logger == nil {
		n.logger = logrus.New()
		n.logger.SetFormatter(&logrus.JSONFormatter{})
	}

	vectors, err := embedder.EmbedBatch(ctx, cat.Phrases())
	if err != nil {
		return nil, fmt.Errorf("embedding catalog phrases: %w", err)
	}
	if len(vectors) != cat.Len() {
		return nil, fmt.Errorf("embedding catalog phrases: got %d vectors for %d phrases", len(vectors), cat.Len())
	}
	if err := n.index.Index(ctx, cat.Entries(), vectors); err != nil {
		return nil, fmt.Errorf("indexing catalog phrases: %w", err)
	}

	n.logger.WithField("labels", cat.Len()).Info("Relation catalog indexed")
	return n, nil
}

// Threshold returns the acceptance threshold
func (n *Normalizer) Threshold() float64 {
	return n.threshold
}

// Normalize returns the best-matching label for phrase. ok is false when the
// best similarity does not exceed the threshold. Ties go to the label
// declared first in the catalog.
func (n *Normalizer) Normalize(ctx context.Context, phrase string) (label catalog.Label, ok bool, err error) {
	phrase = strings.ToLower(strings.TrimSpace(phrase))
	if phrase == "" {
		return "", false, nil
	}

	vec, err := n.embedder.Embed(ctx, phrase)
	if err != nil {
		return "", false, &scene.ProcessingError{Stage: "embedding", Err: err}
	}
	scores, err := n.index.Scores(ctx, vec)
	if err != nil {
		return "", false, &scene.ProcessingError{Stage: "embedding", Err: err}
	}

	best := -1
	for i, s := range scores {
		if best < 0 || s > scores[best] {
			best = i
		}
	}
	labels := n.catalog.Labels()
	if best < 0 || best >= len(labels) {
		return "", false, nil
	}

	n.logger.WithFields(logrus.Fields{
		"phrase": phrase,
		"label":  labels[best],
		"score":  scores[best],
	}).Debug("Relation phrase scored")

	if scores[best] <= n.threshold {
		return "", false, nil
	}
	return labels[best], true, nil
}
