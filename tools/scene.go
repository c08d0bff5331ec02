package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/andrab0/scenegraph/pkg/scene"
	"github.com/andrab0/scenegraph/pkg/scene/catalog"
	"github.com/andrab0/scenegraph/pkg/scene/pipeline"
)

// Processor converts scene descriptions into scene graphs
type Processor interface {
	Process(ctx context.Context, req pipeline.Request) (*scene.SceneGraph, error)
}

type argsHandler func(ctx context.Context, arguments map[string]interface{}) (*mcp.CallToolResult, error)

// errorGuard turns handler errors and panics into tool error results
func errorGuard(handler argsHandler) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (result *mcp.CallToolResult, err error) {
		defer func() {
			if r := recover(); r != nil {
				result = mcp.NewToolResultError(fmt.Sprintf("panic: %v", r))
				err = nil
			}
		}()
		result, err = handler(ctx, request.Params.Arguments)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return result, nil
	}
}

func RegisterSceneGraphTool(s *server.MCPServer, p Processor) {
	tool := mcp.NewTool("scene_graph_extract",
		mcp.WithDescription("Converts a natural-language scene description into a scene graph: the objects it mentions (with color and size attributes) and the spatial relations between them (on, under, next_to, ...). Non-English text is translated first. Returns JSON with 'objects' and 'relations'."),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("The scene description, e.g. 'A red cube is on a blue table.'"),
		),
		mcp.WithString("lang",
			mcp.Description("Language code of the text"),
			mcp.Enum(scene.SupportedLanguages()...),
		),
	)

	s.AddTool(tool, errorGuard(sceneGraphHandler(p)))
}

func RegisterRelationCatalogTool(s *server.MCPServer, cat *catalog.Catalog) {
	if cat == nil {
		cat = catalog.Default()
	}
	tool := mcp.NewTool("scene_relation_catalog",
		mcp.WithDescription("Lists the spatial relation labels a scene graph may contain, with their canonical phrases and priorities. When two relations link the same pair of objects the higher priority wins."),
	)

	s.AddTool(tool, errorGuard(relationCatalogHandler(cat)))
}

func sceneGraphHandler(p Processor) argsHandler {
	return func(ctx context.Context, arguments map[string]interface{}) (*mcp.CallToolResult, error) {
		text, ok := arguments["text"].(string)
		if !ok {
			return mcp.NewToolResultError("text must be a string"), nil
		}
		lang, _ := arguments["lang"].(string)

		graph, err := p.Process(ctx, pipeline.Request{Text: text, Lang: lang})
		if err != nil {
			if scene.IsRetriable(err) {
				return mcp.NewToolResultError("scene models are still loading, retry shortly"), nil
			}
			return nil, err
		}

		out, err := json.MarshalIndent(graph, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to encode scene graph: %w", err)
		}
		return mcp.NewToolResultText(string(out)), nil
	}
}

func relationCatalogHandler(cat *catalog.Catalog) argsHandler {
	return func(ctx context.Context, arguments map[string]interface{}) (*mcp.CallToolResult, error) {
		var b strings.Builder
		b.WriteString("label | phrase | priority\n")
		for _, e := range cat.Entries() {
			fmt.Fprintf(&b, "%s | %s | %d\n", e.Label, e.Phrase, e.Priority)
		}
		return mcp.NewToolResultText(b.String()), nil
	}
}
