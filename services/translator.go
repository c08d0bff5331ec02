package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/sashabaranov/go-openai"

	"github.com/andrab0/scenegraph/pkg/scene"
)

// Translator translates scene descriptions into English with a chat model
type Translator struct {
	client *openai.Client
	model  string
}

// NewTranslator creates a chat-backed translator
func NewTranslator(client *openai.Client, model string) *Translator {
	return &Translator{client: client, model: model}
}

// Translate implements scene.Translator
func (t *Translator) Translate(ctx context.Context, text, sourceLang string) (string, error) {
	name, ok := scene.LanguageName(sourceLang)
	if !ok {
		return "", errors.Errorf("unsupported language '%s' for translation", sourceLang)
	}

	resp, err := t.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: t.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleSystem,
				Content: fmt.Sprintf("Translate the %s scene description from the user into English. "+
					"Keep every object, color, size and spatial phrase. Reply with the translation only.", name),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: text,
			},
		},
	})
	if err != nil {
		return "", errors.Wrapf(err, "translating from %s", sourceLang)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("translation returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
