package relations

import (
	"context"
	"errors"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/sirupsen/logrus"

	"github.com/andrab0/scenegraph/pkg/scene"
	"github.com/andrab0/scenegraph/pkg/scene/catalog"
	"github.com/andrab0/scenegraph/pkg/scene/metrics"
)

// Result is the outcome of relation extraction for one text
type Result struct {
	Relations []scene.LemmaRelation
	// Fallback is true when keyword extraction produced the relations
	Fallback bool
}

// Orchestrator runs the relation generator and falls back to keyword
// extraction when it yields nothing
type Orchestrator struct {
	generator  scene.RelationGenerator
	parser     scene.Parser
	normalizer *Normalizer
	catalog    *catalog.Catalog
	logger     *logrus.Logger
}

// OrchestratorOption configures an Orchestrator
type OrchestratorOption func(*Orchestrator)

// WithOrchestratorLogger sets the logger
func WithOrchestratorLogger(logger *logrus.Logger) OrchestratorOption {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// NewOrchestrator creates an orchestrator. A nil generator or normalizer
// disables the primary path; the parser is only used by the fallback.
func NewOrchestrator(generator scene.RelationGenerator, parser scene.Parser, normalizer *Normalizer, cat *catalog.Catalog, opts ...OrchestratorOption) *Orchestrator {
	if cat == nil {
		cat = catalog.Default()
	}
	o := &Orchestrator{
		generator:  generator,
		parser:     parser,
		normalizer: normalizer,
		catalog:    cat,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = logrus.New()
		o.logger.SetFormatter(&logrus.JSONFormatter{})
	}
	return o
}

// Extract returns the relations found in text between known object lemmas.
// Collaborator failures abort extraction; malformed or unmatched triples are
// dropped.
func (o *Orchestrator) Extract(ctx context.Context, text string, doc *scene.Document, known []string) (Result, error) {
	if text == "" && doc != nil {
		text = doc.FullText()
	}

	relations, err := o.primary(ctx, text)
	if err != nil {
		return Result{}, err
	}
	if len(relations) > 0 {
		return Result{Relations: relations}, nil
	}

	relations, err = o.fallback(ctx, text, mapset.NewSet[string](known...))
	if err != nil {
		return Result{}, err
	}
	metrics.FallbackActivations.Inc()
	o.logger.WithField("relations_count", len(relations)).Debug("Keyword fallback finished")
	return Result{Relations: relations, Fallback: true}, nil
}

func (o *Orchestrator) primary(ctx context.Context, text string) ([]scene.LemmaRelation, error) {
	if o.generator == nil || o.normalizer == nil {
		return nil, nil
	}

	lines, err := o.generator.GenerateTriples(ctx, text)
	if err != nil {
		metrics.StageErrors.WithLabelValues("generation").Inc()
		return nil, &scene.ProcessingError{Stage: "relation generation", Err: err}
	}

	var relations []scene.LemmaRelation
	for _, line := range lines {
		triple, err := ParseTriple(line)
		if err != nil {
			var malformed *scene.MalformedTripleError
			if errors.As(err, &malformed) {
				o.drop(line, "malformed")
				continue
			}
			return nil, err
		}
		if triple.Subject == "" || triple.Object == "" {
			o.drop(line, "empty_endpoint")
			continue
		}

		label, ok, err := o.normalizer.Normalize(ctx, triple.Relation)
		if err != nil {
			metrics.StageErrors.WithLabelValues("embedding").Inc()
			return nil, err
		}
		if !ok {
			o.drop(line, "no_match")
			continue
		}
		relations = append(relations, scene.LemmaRelation{
			Subject: triple.Subject,
			Label:   label,
			Object:  triple.Object,
		})
	}
	return relations, nil
}

func (o *Orchestrator) drop(line, reason string) {
	metrics.DroppedTriples.WithLabelValues(reason).Inc()
	o.logger.WithFields(logrus.Fields{
		"triple": line,
		"reason": reason,
	}).Debug("Dropped generated triple")
}

// fallback scans the keyword table in order. Each matching phrase splits the
// text at its first word-bounded occurrence; the last known lemma on the left
// becomes the subject and the first known lemma on the right the object.
func (o *Orchestrator) fallback(ctx context.Context, text string, known mapset.Set[string]) ([]scene.LemmaRelation, error) {
	if o.parser == nil || known.Cardinality() == 0 {
		return nil, nil
	}

	lowered := strings.ToLower(text)
	var relations []scene.LemmaRelation
	for _, kw := range o.catalog.Keywords() {
		idx := indexWord(lowered, kw.Phrase)
		if idx < 0 {
			continue
		}

		left, err := o.knownLemmas(ctx, lowered[:idx], known)
		if err != nil {
			return nil, err
		}
		right, err := o.knownLemmas(ctx, lowered[idx+len(kw.Phrase):], known)
		if err != nil {
			return nil, err
		}
		if len(left) == 0 || len(right) == 0 {
			continue
		}

		relations = append(relations, scene.LemmaRelation{
			Subject: left[len(left)-1],
			Label:   kw.Label,
			Object:  right[0],
		})
	}
	return relations, nil
}

func (o *Orchestrator) knownLemmas(ctx context.Context, fragment string, known mapset.Set[string]) ([]string, error) {
	if strings.TrimSpace(fragment) == "" {
		return nil, nil
	}
	doc, err := o.parser.Parse(ctx, fragment)
	if err != nil {
		metrics.StageErrors.WithLabelValues("parsing").Inc()
		return nil, &scene.ProcessingError{Stage: "parsing", Err: err}
	}

	var lemmas []string
	for _, lemma := range doc.Lemmas() {
		if known.Contains(lemma) {
			lemmas = append(lemmas, lemma)
		}
	}
	return lemmas, nil
}
