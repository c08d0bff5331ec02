package services

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/pkoukk/tiktoken-go"
	"github.com/sashabaranov/go-openai"
)

const relationPrompt = `You extract spatial relations between physical objects in a scene description.
Output one relation per line in the form subject|relation|object.
Use the singular lowercase noun for subject and object and a short spatial phrase for the relation
(for example: on, under, next to, behind, in front of, inside, on top of, left of, near).
Output nothing else. Output an empty reply when there is no spatial relation.`

// RelationGenerator asks a chat model for "subject|relation|object" lines
type RelationGenerator struct {
	client    *openai.Client
	model     string
	maxTokens int
	encoding  *tiktoken.Tiktoken
}

// NewRelationGenerator creates a chat-backed relation generator. Input longer
// than maxInputTokens is truncated; zero disables truncation.
func NewRelationGenerator(client *openai.Client, model string, maxInputTokens int) (*RelationGenerator, error) {
	g := &RelationGenerator{
		client:    client,
		model:     model,
		maxTokens: maxInputTokens,
	}
	if maxInputTokens > 0 {
		enc, err := tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return nil, errors.Wrap(err, "loading tokenizer")
		}
		g.encoding = enc
	}
	return g, nil
}

// GenerateTriples implements scene.RelationGenerator
func (g *RelationGenerator) GenerateTriples(ctx context.Context, text string) ([]string, error) {
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: relationPrompt},
			{Role: openai.ChatMessageRoleUser, Content: g.truncate(text)},
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "generating relations")
	}
	if len(resp.Choices) == 0 {
		return nil, nil
	}
	return splitTripleLines(resp.Choices[0].Message.Content), nil
}

func (g *RelationGenerator) truncate(text string) string {
	if g.encoding == nil {
		return text
	}
	tokens := g.encoding.Encode(text, nil, nil)
	if len(tokens) <= g.maxTokens {
		return text
	}
	return g.encoding.Decode(tokens[:g.maxTokens])
}

// splitTripleLines returns the non-empty reply lines with list markers and
// code fences removed. Lines are not validated here.
func splitTripleLines(content string) []string {
	var lines []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "```") {
			continue
		}
		line = strings.TrimLeft(line, "-*• ")
		if i := strings.Index(line, ". "); i > 0 && i <= 3 && isDigits(line[:i]) {
			line = line[i+2:]
		}
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
