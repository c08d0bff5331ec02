package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/andrab0/scenegraph/pkg/scene"
	"github.com/andrab0/scenegraph/pkg/scene/catalog"
	"github.com/andrab0/scenegraph/pkg/scene/extract"
	"github.com/andrab0/scenegraph/pkg/scene/metrics"
	"github.com/andrab0/scenegraph/pkg/scene/relations"
)

var (
	stageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "scenegraph_stage_duration_seconds",
			Help: "Time spent in each pipeline stage",
		},
		[]string{"stage"},
	)

	requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scenegraph_requests_total",
			Help: "Total number of scene graph requests",
		},
		[]string{"status"},
	)
)

func init() {
	prometheus.MustRegister(stageDuration)
	prometheus.MustRegister(requestsTotal)
}

// Models are the heavy collaborators produced by a Loader. Generator and
// Translator may be nil: without a generator only keyword extraction runs,
// without a translator only English requests succeed.
type Models struct {
	Parser     scene.Parser
	Generator  scene.RelationGenerator
	Embedder   scene.Embedder
	Translator scene.Translator
}

// Loader initializes the model collaborators. It runs once, in the background.
type Loader func(ctx context.Context) (*Models, error)

// Request is one scene description to convert
type Request struct {
	// ID tags log lines and stored graphs; generated when empty
	ID   string
	Text string
	Lang string
}

type engine struct {
	translator   scene.Translator
	parser       scene.Parser
	orchestrator *relations.Orchestrator
	builder      *scene.Builder
}

// Coordinator sequences translation, parsing, extraction and graph assembly
// behind a readiness gate
type Coordinator struct {
	catalog     *catalog.Catalog
	threshold   float64
	phraseIndex relations.PhraseIndex
	serialize   bool
	batchSize   int
	languages   mapset.Set[string]
	logger      *logrus.Logger

	life      *lifecycle
	startOnce sync.Once
	engine    atomic.Pointer[engine]
}

// Option configures a Coordinator
type Option func(*Coordinator)

// WithLogger sets the logger shared by every pipeline component
func WithLogger(logger *logrus.Logger) Option {
	return func(c *Coordinator) {
		c.logger = logger
	}
}

// WithCatalog replaces the default relation catalog
func WithCatalog(cat *catalog.Catalog) Option {
	return func(c *Coordinator) {
		c.catalog = cat
	}
}

// WithThreshold sets the relation similarity threshold
func WithThreshold(threshold float64) Option {
	return func(c *Coordinator) {
		c.threshold = threshold
	}
}

// WithPhraseIndex stores catalog embeddings in index instead of memory
func WithPhraseIndex(index relations.PhraseIndex) Option {
	return func(c *Coordinator) {
		c.phraseIndex = index
	}
}

// WithSerializedModels routes every model call through a single mutex
func WithSerializedModels(enabled bool) Option {
	return func(c *Coordinator) {
		c.serialize = enabled
	}
}

// WithBatchSize sets how many jobs BatchProcess runs concurrently
func WithBatchSize(n int) Option {
	return func(c *Coordinator) {
		if n > 0 {
			c.batchSize = n
		}
	}
}

// New creates a coordinator in the LOADING state
func New(opts ...Option) *Coordinator {
	c := &Coordinator{
		catalog:   catalog.Default(),
		threshold: relations.DefaultThreshold,
		batchSize: 10,
		languages: mapset.NewSet[string](scene.SupportedLanguages()...),
		life:      newLifecycle(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logrus.New()
		c.logger.SetFormatter(&logrus.JSONFormatter{})
	}
	return c
}

// Start runs loader on a background goroutine. Only the first call has any
// effect. Use Wait to observe the outcome.
func (c *Coordinator) Start(ctx context.Context, loader Loader) {
	c.startOnce.Do(func() {
		go c.load(ctx, loader)
	})
}

func (c *Coordinator) load(ctx context.Context, loader Loader) {
	start := time.Now()
	c.logger.Info("Loading models")

	eng, err := c.buildEngine(ctx, loader)
	if err != nil {
		err = fmt.Errorf("%w: %w", scene.ErrLoadFailed, err)
		c.logger.WithError(err).Error("Model loading failed")
		c.life.finish(err)
		return
	}

	c.engine.Store(eng)
	c.life.finish(nil)

	elapsed := time.Since(start)
	metrics.ModelsReady.Set(1)
	metrics.ModelLoadSeconds.Set(elapsed.Seconds())
	c.logger.WithField("duration", elapsed.String()).Info("Models loaded")
}

func (c *Coordinator) buildEngine(ctx context.Context, loader Loader) (*engine, error) {
	if loader == nil {
		return nil, errors.New("no model loader configured")
	}
	models, err := loader(ctx)
	if err != nil {
		return nil, err
	}
	if models == nil || models.Parser == nil || models.Embedder == nil {
		return nil, errors.New("loader must provide a parser and an embedder")
	}
	if c.serialize {
		models = serialize(models)
	}

	normOpts := []relations.NormalizerOption{
		relations.WithThreshold(c.threshold),
		relations.WithNormalizerLogger(c.logger),
	}
	if c.phraseIndex != nil {
		normOpts = append(normOpts, relations.WithPhraseIndex(c.phraseIndex))
	}
	normalizer, err := relations.NewNormalizer(ctx, models.Embedder, c.catalog, normOpts...)
	if err != nil {
		return nil, err
	}

	return &engine{
		translator: models.Translator,
		parser:     models.Parser,
		orchestrator: relations.NewOrchestrator(models.Generator, models.Parser, normalizer, c.catalog,
			relations.WithOrchestratorLogger(c.logger)),
		builder: scene.NewBuilder(c.catalog, c.logger),
	}, nil
}

// State returns the current readiness state
func (c *Coordinator) State() State {
	return c.life.current()
}

// Ready reports whether requests will be processed
func (c *Coordinator) Ready() bool {
	return c.State() == StateReady
}

// Wait blocks until loading finishes and returns its error, if any
func (c *Coordinator) Wait(ctx context.Context) error {
	return c.life.wait(ctx)
}

// Process converts one scene description into a scene graph. It never waits
// for loading: while models load it returns scene.ErrNotReady.
func (c *Coordinator) Process(ctx context.Context, req Request) (*scene.SceneGraph, error) {
	eng := c.engine.Load()
	if eng == nil || !c.Ready() {
		requestsTotal.WithLabelValues("not_ready").Inc()
		return nil, scene.ErrNotReady
	}

	text := strings.TrimSpace(req.Text)
	if text == "" {
		requestsTotal.WithLabelValues("invalid").Inc()
		return nil, scene.ErrEmptyInput
	}
	lang := strings.ToLower(strings.TrimSpace(req.Lang))
	if lang == "" {
		lang = scene.WorkingLanguage
	}
	if !c.languages.Contains(lang) {
		requestsTotal.WithLabelValues("invalid").Inc()
		return nil, &scene.UnsupportedLanguageError{Lang: lang, Supported: scene.SupportedLanguages()}
	}

	id := req.ID
	if id == "" {
		id = uuid.New().String()
	}
	logger := c.logger.WithFields(logrus.Fields{
		"request_id": id,
		"lang":       lang,
	})
	start := time.Now()

	graph, fallback, err := c.run(ctx, eng, text, lang)
	if err != nil {
		requestsTotal.WithLabelValues("error").Inc()
		logger.WithError(err).Error("Scene graph request failed")
		return nil, err
	}

	requestsTotal.WithLabelValues("success").Inc()
	metrics.GraphObjects.Observe(float64(len(graph.Objects)))
	metrics.GraphRelations.Observe(float64(len(graph.Relations)))
	logger.WithFields(logrus.Fields{
		"objects_count":   len(graph.Objects),
		"relations_count": len(graph.Relations),
		"fallback":        fallback,
		"duration":        time.Since(start).String(),
	}).Info("Scene graph built")
	return graph, nil
}

func (c *Coordinator) run(ctx context.Context, eng *engine, text, lang string) (*scene.SceneGraph, bool, error) {
	if lang != scene.WorkingLanguage {
		timer := prometheus.NewTimer(stageDuration.WithLabelValues("translation"))
		translated, err := translate(ctx, eng.translator, text, lang)
		timer.ObserveDuration()
		if err != nil {
			metrics.StageErrors.WithLabelValues("translation").Inc()
			return nil, false, err
		}
		text = translated
	}

	timer := prometheus.NewTimer(stageDuration.WithLabelValues("parsing"))
	doc, err := eng.parser.Parse(ctx, text)
	timer.ObserveDuration()
	if err != nil {
		metrics.StageErrors.WithLabelValues("parsing").Inc()
		return nil, false, &scene.ProcessingError{Stage: "parsing", Err: err}
	}

	timer = prometheus.NewTimer(stageDuration.WithLabelValues("objects"))
	objects := extract.Objects(doc)
	timer.ObserveDuration()

	timer = prometheus.NewTimer(stageDuration.WithLabelValues("relations"))
	res, err := eng.orchestrator.Extract(ctx, text, doc, objects.Lemmas())
	timer.ObserveDuration()
	if err != nil {
		return nil, false, err
	}

	return eng.builder.Build(objects, res.Relations), res.Fallback, nil
}

func translate(ctx context.Context, t scene.Translator, text, lang string) (string, error) {
	if t == nil {
		return "", &scene.TranslationError{Lang: lang, Err: errors.New("no translator configured")}
	}
	out, err := t.Translate(ctx, text, lang)
	if err != nil {
		return "", &scene.TranslationError{Lang: lang, Err: err}
	}
	if strings.TrimSpace(out) == "" {
		return "", &scene.TranslationError{Lang: lang, Err: errors.New("empty translation")}
	}
	return out, nil
}
