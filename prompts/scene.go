package prompts

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/andrab0/scenegraph/pkg/scene"
)

func RegisterScenePrompts(s *server.MCPServer) {
	prompt := mcp.NewPrompt("describe_scene",
		mcp.WithPromptDescription("Turn a scene description into a scene graph and summarize its layout"),
		mcp.WithArgument("description",
			mcp.ArgumentDescription("The scene to lay out, in any supported language"),
			mcp.RequiredArgument(),
		),
		mcp.WithArgument("lang", mcp.ArgumentDescription("Language code of the description (default en)")),
	)
	s.AddPrompt(prompt, describeSceneHandler)
}

func describeSceneHandler(ctx context.Context, request mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	description := request.Params.Arguments["description"]
	if description == "" {
		return nil, fmt.Errorf("description is required")
	}
	lang := request.Params.Arguments["lang"]
	if lang == "" {
		lang = scene.WorkingLanguage
	}
	name, ok := scene.LanguageName(lang)
	if !ok {
		return nil, fmt.Errorf("unsupported language %q", lang)
	}

	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Scene layout from %s text", name),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: fmt.Sprintf("Use the scene_graph_extract tool with lang %q on the scene below, then describe where each object sits relative to the others. Mention objects that ended up without any relation.\n\n%s", lang, description),
				},
			},
		},
	}, nil
}
