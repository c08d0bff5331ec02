package tools

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrab0/scenegraph/pkg/scene"
	"github.com/andrab0/scenegraph/pkg/scene/catalog"
	"github.com/andrab0/scenegraph/pkg/scene/pipeline"
)

type fakeProcessor struct {
	graph *scene.SceneGraph
	err   error
	last  pipeline.Request
}

func (p *fakeProcessor) Process(ctx context.Context, req pipeline.Request) (*scene.SceneGraph, error) {
	p.last = req
	return p.graph, p.err
}

func call(t *testing.T, h argsHandler, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	res, err := errorGuard(h)(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, res)
	return res
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	tc, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return tc.Text
}

func TestSceneGraphHandler(t *testing.T) {
	color := "red"
	p := &fakeProcessor{graph: &scene.SceneGraph{
		Objects:   []scene.SceneObject{{ID: "cube_1", Type: "cube", Object: "cube", Attributes: scene.Attributes{Color: &color}}},
		Relations: []scene.SceneRelation{},
	}}

	res := call(t, sceneGraphHandler(p), map[string]interface{}{"text": "Un cube rouge", "lang": "fr"})
	assert.False(t, res.IsError)
	assert.Equal(t, pipeline.Request{Text: "Un cube rouge", Lang: "fr"}, p.last)

	var got scene.SceneGraph
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &got))
	assert.Equal(t, "cube_1", got.Objects[0].ID)
}

func TestSceneGraphHandlerErrors(t *testing.T) {
	res := call(t, sceneGraphHandler(&fakeProcessor{}), map[string]interface{}{"text": 3})
	assert.True(t, res.IsError)
	assert.Equal(t, "text must be a string", text(t, res))

	res = call(t, sceneGraphHandler(&fakeProcessor{err: scene.ErrNotReady}), map[string]interface{}{"text": "a cube"})
	assert.True(t, res.IsError)
	assert.Contains(t, text(t, res), "still loading")

	res = call(t, sceneGraphHandler(&fakeProcessor{err: &scene.ProcessingError{Stage: "parsing", Err: errors.New("boom")}}),
		map[string]interface{}{"text": "a cube"})
	assert.True(t, res.IsError)
	assert.Equal(t, "parsing failed: boom", text(t, res))
}

func TestErrorGuardRecoversPanics(t *testing.T) {
	res := call(t, func(ctx context.Context, arguments map[string]interface{}) (*mcp.CallToolResult, error) {
		panic("boom")
	}, nil)
	assert.True(t, res.IsError)
	assert.Contains(t, text(t, res), "boom")
}

func TestRelationCatalogHandler(t *testing.T) {
	res := call(t, relationCatalogHandler(catalog.Default()), nil)
	out := text(t, res)

	assert.Contains(t, out, "on_top_of | on top of | 3")
	assert.Contains(t, out, "near | near | 1")
}
