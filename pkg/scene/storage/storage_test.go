package storage

import (
	"context"
	"testing"

	"github.com/qdrant/go-client/qdrant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrab0/scenegraph/pkg/scene"
	"github.com/andrab0/scenegraph/pkg/scene/catalog"
)

func sampleGraph() *scene.SceneGraph {
	objects := scene.NewObjectSet()
	objects.Ensure("cube").Color = []string{"red"}
	objects.Ensure("table").Size = []string{"large"}
	return scene.Build(objects, []scene.LemmaRelation{
		{Subject: "cube", Label: catalog.On, Object: "table"},
	}, nil)
}

func TestJSONGraphStoreRoundTrip(t *testing.T) {
	store := NewJSONGraphStore(t.TempDir() + "/graphs")
	ctx := context.Background()

	g := sampleGraph()
	require.NoError(t, store.StoreGraph(ctx, "scene-1", g))

	loaded, err := store.LoadGraph(ctx, "scene-1")
	require.NoError(t, err)
	assert.Equal(t, g, loaded)
}

func TestJSONGraphStoreOverwrites(t *testing.T) {
	store := NewJSONGraphStore(t.TempDir())
	ctx := context.Background()

	require.NoError(t, store.StoreGraph(ctx, "s", sampleGraph()))
	empty := &scene.SceneGraph{Objects: []scene.SceneObject{}, Relations: []scene.SceneRelation{}}
	require.NoError(t, store.StoreGraph(ctx, "s", empty))

	loaded, err := store.LoadGraph(ctx, "s")
	require.NoError(t, err)
	assert.Empty(t, loaded.Objects)
}

func TestJSONGraphStoreMissing(t *testing.T) {
	_, err := NewJSONGraphStore(t.TempDir()).LoadGraph(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrGraphNotFound)
}

func TestJSONGraphStoreRejectsPathIDs(t *testing.T) {
	store := NewJSONGraphStore(t.TempDir())
	for _, id := range []string{"", "../escape", `a\b`, ".."} {
		assert.Error(t, store.StoreGraph(context.Background(), id, sampleGraph()), id)
	}
}

func TestNeo4jParams(t *testing.T) {
	g := sampleGraph()

	objects := objectParams("s1", g)
	require.Len(t, objects, 2)
	assert.Equal(t, "cube_1", objects[0]["id"])
	assert.Equal(t, "red", objects[0]["color"])
	assert.Nil(t, objects[0]["size"])
	assert.Equal(t, 1, objects[1]["position"])

	rels := relationParams("s1", g)
	require.Len(t, rels, 1)
	assert.Equal(t, map[string]interface{}{
		"scene":    "s1",
		"from":     "cube_1",
		"to":       "table_1",
		"relation": "on",
		"position": 0,
	}, rels[0])
}

func TestScoresInOrder(t *testing.T) {
	hit := func(order int64, score float32) *qdrant.ScoredPoint {
		return &qdrant.ScoredPoint{
			Score:   score,
			Payload: map[string]*qdrant.Value{"order": qdrant.NewValueInt(order)},
		}
	}

	scores := scoresInOrder(4, []*qdrant.ScoredPoint{
		hit(2, 0.9),
		hit(0, 0.5),
		hit(7, 0.99),
		{Score: 0.4},
	})
	assert.InDeltaSlice(t, []float64{0.5, 0, 0.9, 0}, scores, 1e-6)
}
