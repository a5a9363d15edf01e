package openaisvc

import (
	"context"

	openai "github.com/sashabaranov/go-openai"
	"github.com/pkg/errors"

	"github.com/medshare/backend/core"
	"github.com/medshare/backend/core/quiz"
)

const maxCompletionTokens = 4000

type completer struct {
	client *openai.Client
	model  string
	logger core.Logger
}

var _ quiz.Completer = (*completer)(nil)

// NewCompleter builds a chat-completion backed quiz.Completer. The client is
// nil when no API key is configured; Complete then fails fast.
func NewCompleter(logger core.Logger) quiz.Completer {
	c := &completer{model: core.Conf.OpenAIModel, logger: logger}
	if key := core.Conf.OpenAIApiKey; key != "" {
		c.client = openai.NewClient(key)
	}
	return c
}

func (c *completer) Complete(ctx context.Context, prompt string, imageURLs []string) (string, error) {
	if c.client == nil {
		return "", quiz.ErrNotConfigured
	}

	parts := make([]openai.ChatMessagePart, 0, len(imageURLs)+1)
	parts = append(parts, openai.ChatMessagePart{
		Type: openai.ChatMessagePartTypeText,
		Text: prompt,
	})
	for _, url := range imageURLs {
		parts = append(parts, openai.ChatMessagePart{
			Type:     openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{URL: url},
		})
	}

	res, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     c.model,
		MaxTokens: maxCompletionTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, MultiContent: parts},
		},
	})
	if err != nil {
		c.logger.Error("openai: chat completion failed", errors.Wrap(err, "creating chat completion"))
		return "", quiz.ErrUnavailable
	}
	if len(res.Choices) == 0 {
		return "", quiz.ErrUnavailable
	}
	return res.Choices[0].Message.Content, nil
}
