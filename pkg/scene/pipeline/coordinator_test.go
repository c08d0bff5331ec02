package pipeline

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrab0/scenegraph/pkg/scene"
	"github.com/andrab0/scenegraph/pkg/scene/catalog"
	"github.com/andrab0/scenegraph/pkg/scene/metrics"
	"github.com/andrab0/scenegraph/pkg/scene/processors"
	st "github.com/andrab0/scenegraph/pkg/scene/scenetest"
)

const redCube = "A red cube is on a blue table."

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

type fakes struct {
	parser     *st.Parser
	generator  *st.Generator
	embedder   *st.Embedder
	translator *st.Translator
}

func newFakes(lines ...string) *fakes {
	f := &fakes{
		parser:     st.NewParser(st.RedCubeOnBlueTable()),
		generator:  &st.Generator{Lines: lines},
		embedder:   st.NewEmbedder(catalog.Default().Phrases()),
		translator: &st.Translator{Translations: map[string]string{}},
	}
	f.embedder.Alias("is on", "on").Alias("rests on", "on").Alias("sits on top of", "on top of")
	return f
}

func (f *fakes) models() *Models {
	return &Models{
		Parser:     f.parser,
		Generator:  f.generator,
		Embedder:   f.embedder,
		Translator: f.translator,
	}
}

func (f *fakes) loader() Loader {
	return func(ctx context.Context) (*Models, error) {
		return f.models(), nil
	}
}

func readyCoordinator(t *testing.T, f *fakes, opts ...Option) *Coordinator {
	t.Helper()
	c := New(append([]Option{WithLogger(quietLogger())}, opts...)...)
	c.Start(context.Background(), f.loader())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, c.Wait(ctx))
	require.True(t, c.Ready())
	return c
}

func assertRedCubeGraph(t *testing.T, graph *scene.SceneGraph) {
	t.Helper()
	require.Len(t, graph.Objects, 2)

	cube, ok := graph.ObjectByID("cube_1")
	require.True(t, ok)
	require.NotNil(t, cube.Attributes.Color)
	assert.Equal(t, "red", *cube.Attributes.Color)
	assert.Nil(t, cube.Attributes.Size)

	table, ok := graph.ObjectByID("table_1")
	require.True(t, ok)
	require.NotNil(t, table.Attributes.Color)
	assert.Equal(t, "blue", *table.Attributes.Color)

	assert.Equal(t, []scene.SceneRelation{
		{Subject: "cube_1", Relation: catalog.On, Object: "table_1"},
	}, graph.Relations)
}

func TestProcessWhileLoading(t *testing.T) {
	f := newFakes("cube|is on|table")
	release := make(chan struct{})

	c := New(WithLogger(quietLogger()))
	c.Start(context.Background(), func(ctx context.Context) (*Models, error) {
		<-release
		return f.models(), nil
	})

	assert.Equal(t, StateLoading, c.State())
	_, err := c.Process(context.Background(), Request{Text: redCube, Lang: "en"})
	require.ErrorIs(t, err, scene.ErrNotReady)
	assert.True(t, scene.IsRetriable(err))

	assert.Zero(t, f.parser.Calls())
	assert.Zero(t, f.generator.Calls())
	assert.Zero(t, f.embedder.Calls())
	assert.Zero(t, f.translator.Calls())

	close(release)
	require.NoError(t, c.Wait(context.Background()))
	assert.Equal(t, StateReady, c.State())

	graph, err := c.Process(context.Background(), Request{Text: redCube, Lang: "en"})
	require.NoError(t, err)
	assertRedCubeGraph(t, graph)
}

func TestProcessRedCubeWithGenerator(t *testing.T) {
	f := newFakes("cube|is on|table", "cube|rests on|table")
	c := readyCoordinator(t, f)

	graph, err := c.Process(context.Background(), Request{Text: redCube, Lang: "en"})
	require.NoError(t, err)
	assertRedCubeGraph(t, graph)
	assert.Zero(t, f.translator.Calls())
}

func TestProcessRedCubeWithKeywordFallback(t *testing.T) {
	f := newFakes()
	c := readyCoordinator(t, f)

	graph, err := c.Process(context.Background(), Request{Text: redCube})
	require.NoError(t, err)
	assertRedCubeGraph(t, graph)
	assert.Equal(t, int64(1), f.generator.Calls())
}

func TestProcessHigherPriorityRelationWins(t *testing.T) {
	f := newFakes("cube|is on|table", "cube|sits on top of|table")
	c := readyCoordinator(t, f)

	graph, err := c.Process(context.Background(), Request{Text: redCube})
	require.NoError(t, err)
	assert.Equal(t, []scene.SceneRelation{
		{Subject: "cube_1", Relation: catalog.OnTopOf, Object: "table_1"},
	}, graph.Relations)
}

func TestProcessWithoutSpatialKeywords(t *testing.T) {
	text := "A red cube and a blue table."
	doc := st.Doc(text, []scene.Token{
		st.T("A", "a", scene.POSDet, "det", 2),
		st.T("red", "red", scene.POSAdj, "amod", 2),
		st.T("cube", "cube", scene.POSNoun, "ROOT", -1),
		st.T("and", "and", scene.POSCconj, "cc", 2),
		st.T("a", "a", scene.POSDet, "det", 6),
		st.T("blue", "blue", scene.POSAdj, "amod", 6),
		st.T("table", "table", scene.POSNoun, "conj", 2),
		st.T(".", ".", scene.POSPunct, "punct", 2),
	}, st.C(0, 3, 2), st.C(4, 7, 6))

	f := newFakes()
	f.parser.Register(text, doc)
	c := readyCoordinator(t, f)

	graph, err := c.Process(context.Background(), Request{Text: text, Lang: "en"})
	require.NoError(t, err)
	assert.Len(t, graph.Objects, 2)
	assert.Empty(t, graph.Relations)
}

func TestProcessValidation(t *testing.T) {
	f := newFakes()
	c := readyCoordinator(t, f)
	parses := f.parser.Calls()

	_, err := c.Process(context.Background(), Request{Text: "   ", Lang: "en"})
	require.ErrorIs(t, err, scene.ErrEmptyInput)
	assert.True(t, scene.IsValidation(err))

	_, err = c.Process(context.Background(), Request{Text: redCube, Lang: "jp"})
	var langErr *scene.UnsupportedLanguageError
	require.ErrorAs(t, err, &langErr)
	assert.Equal(t, "jp", langErr.Lang)
	assert.Equal(t, []string{"en", "ro", "fr", "de", "es", "it"}, langErr.Supported)
	assert.Contains(t, err.Error(), "unsupported language 'jp'")
	assert.True(t, scene.IsValidation(err))

	assert.Equal(t, parses, f.parser.Calls())
	assert.Zero(t, f.translator.Calls())
}

func TestProcessLanguageIsCaseInsensitive(t *testing.T) {
	c := readyCoordinator(t, newFakes("cube|is on|table"))

	graph, err := c.Process(context.Background(), Request{Text: redCube, Lang: " EN "})
	require.NoError(t, err)
	assertRedCubeGraph(t, graph)
}

func TestProcessTranslatesNonEnglish(t *testing.T) {
	f := newFakes("cube|is on|table")
	f.translator.Translations["Un cub roșu este pe o masă albastră."] = redCube
	c := readyCoordinator(t, f)

	graph, err := c.Process(context.Background(), Request{Text: "Un cub roșu este pe o masă albastră.", Lang: "ro"})
	require.NoError(t, err)
	assertRedCubeGraph(t, graph)
	assert.Equal(t, int64(1), f.translator.Calls())
}

func TestProcessTranslationFailure(t *testing.T) {
	f := newFakes()
	f.translator.Err = errors.New("model unavailable")
	c := readyCoordinator(t, f)

	_, err := c.Process(context.Background(), Request{Text: "Un cube rouge.", Lang: "fr"})
	var trErr *scene.TranslationError
	require.ErrorAs(t, err, &trErr)
	assert.Equal(t, "fr", trErr.Lang)
	assert.False(t, scene.IsValidation(err))
	assert.Zero(t, f.parser.Calls())
}

func TestProcessWithoutTranslator(t *testing.T) {
	f := newFakes()
	c := New(WithLogger(quietLogger()))
	c.Start(context.Background(), func(ctx context.Context) (*Models, error) {
		m := f.models()
		m.Translator = nil
		return m, nil
	})
	require.NoError(t, c.Wait(context.Background()))

	_, err := c.Process(context.Background(), Request{Text: "Ein roter Würfel.", Lang: "de"})
	var trErr *scene.TranslationError
	require.ErrorAs(t, err, &trErr)

	_, err = c.Process(context.Background(), Request{Text: redCube, Lang: "en"})
	assert.NoError(t, err)
}

func TestProcessParserFailure(t *testing.T) {
	f := newFakes()
	c := readyCoordinator(t, f)
	f.parser.Err = errors.New("segfault")

	_, err := c.Process(context.Background(), Request{Text: redCube})
	var procErr *scene.ProcessingError
	require.ErrorAs(t, err, &procErr)
	assert.Equal(t, "parsing", procErr.Stage)
}

func TestProcessGeneratorFailureAbortsRequest(t *testing.T) {
	f := newFakes()
	c := readyCoordinator(t, f)
	f.generator.Err = errors.New("generation timeout")

	graph, err := c.Process(context.Background(), Request{Text: redCube})
	assert.Nil(t, graph)
	var procErr *scene.ProcessingError
	require.ErrorAs(t, err, &procErr)
	assert.Equal(t, "relation generation", procErr.Stage)
}

func TestLoadFailureIsObservedByWait(t *testing.T) {
	c := New(WithLogger(quietLogger()))
	c.Start(context.Background(), func(ctx context.Context) (*Models, error) {
		return nil, errors.New("weights not found")
	})

	err := c.Wait(context.Background())
	require.ErrorIs(t, err, scene.ErrLoadFailed)
	assert.Contains(t, err.Error(), "weights not found")
	assert.Equal(t, StateLoading, c.State())

	_, err = c.Process(context.Background(), Request{Text: redCube})
	assert.ErrorIs(t, err, scene.ErrNotReady)
}

func TestLoadRequiresParserAndEmbedder(t *testing.T) {
	c := New(WithLogger(quietLogger()))
	c.Start(context.Background(), func(ctx context.Context) (*Models, error) {
		return &Models{Parser: st.NewParser()}, nil
	})
	assert.ErrorIs(t, c.Wait(context.Background()), scene.ErrLoadFailed)

	c = New(WithLogger(quietLogger()))
	c.Start(context.Background(), nil)
	assert.ErrorIs(t, c.Wait(context.Background()), scene.ErrLoadFailed)
}

func TestLoadFailsWhenCatalogEmbeddingFails(t *testing.T) {
	f := newFakes()
	f.embedder.Err = errors.New("no gpu")
	c := New(WithLogger(quietLogger()))
	c.Start(context.Background(), f.loader())

	assert.ErrorIs(t, c.Wait(context.Background()), scene.ErrLoadFailed)
}

func TestStartRunsLoaderOnce(t *testing.T) {
	f := newFakes()
	var loads atomic.Int32
	loader := func(ctx context.Context) (*Models, error) {
		loads.Add(1)
		return f.models(), nil
	}

	c := New(WithLogger(quietLogger()))
	c.Start(context.Background(), loader)
	c.Start(context.Background(), loader)
	require.NoError(t, c.Wait(context.Background()))
	c.Start(context.Background(), loader)

	assert.Equal(t, int32(1), loads.Load())
}

func TestWaitHonorsContext(t *testing.T) {
	c := New(WithLogger(quietLogger()))
	c.Start(context.Background(), func(ctx context.Context) (*Models, error) {
		select {}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, c.Wait(ctx), context.DeadlineExceeded)
}

func TestConcurrentRequests(t *testing.T) {
	for _, serialized := range []bool{false, true} {
		f := newFakes("cube|is on|table")
		c := readyCoordinator(t, f, WithSerializedModels(serialized))

		var wg sync.WaitGroup
		graphs := make([]*scene.SceneGraph, 16)
		errs := make([]error, 16)
		for i := range graphs {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				graphs[i], errs[i] = c.Process(context.Background(), Request{Text: redCube})
			}(i)
		}
		wg.Wait()

		for i := range graphs {
			require.NoError(t, errs[i])
			assertRedCubeGraph(t, graphs[i])
		}
	}
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "loading", StateLoading.String())
	assert.Equal(t, "ready", StateReady.String())
}

func TestNewCoordinatorKeepsReadyGauge(t *testing.T) {
	readyCoordinator(t, newFakes())
	require.Equal(t, 1.0, testutil.ToFloat64(metrics.ModelsReady))

	second := New(WithLogger(quietLogger()))
	assert.False(t, second.Ready())
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ModelsReady))
}

func TestProcessWithProseParser(t *testing.T) {
	f := newFakes()
	c := New(WithLogger(quietLogger()))
	c.Start(context.Background(), func(ctx context.Context) (*Models, error) {
		return &Models{
			Parser:     processors.NewProseParser(),
			Generator:  f.generator,
			Embedder:   f.embedder,
			Translator: f.translator,
		}, nil
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, c.Wait(ctx))

	graph, err := c.Process(context.Background(), Request{Text: redCube})
	require.NoError(t, err)
	assertRedCubeGraph(t, graph)
}
