package quiz

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// errors
	ErrNotConfigured = errors.New("AI provider is not configured")
	ErrUnavailable   = errors.New("AI provider is unavailable")
	ErrEmptyResult   = errors.New("AI returned no usable questions")
)

const questionCount = 5

type (
	// Completer is any service that can run a multimodal completion. The
	// returned string is the model's raw text output.
	Completer interface {
		Complete(ctx context.Context, prompt string, imageURLs []string) (string, error)
	}

	Service interface {
		Generate(ctx context.Context, req GenerateRequest) ([]Question, error)
	}

	service struct {
		completer Completer
	}
)

var _ Service = (*service)(nil)

func NewService(completer Completer) Service {
	return &service{completer: completer}
}

// Generate asks the model for questionCount questions grounded on the
// uploaded materials and parses the output.
func (svc *service) Generate(ctx context.Context, req GenerateRequest) ([]Question, error) {
	prompt := buildPrompt(req.Type)

	var images []string
	for _, m := range req.Materials {
		if strings.HasPrefix(m.Data, "data:image") {
			images = append(images, m.Data)
		}
	}

	text, err := svc.completer.Complete(ctx, prompt, images)
	if err != nil {
		return nil, err
	}

	questions := ParseQuestions(text, req.Type)
	if len(questions) == 0 {
		return nil, ErrEmptyResult
	}
	return questions, nil
}

func buildPrompt(typ string) string {
	return fmt.Sprintf(
		"以下の医学教材に基づいて、%sを%d問作成してください。\n\n%s\n\n問題のみを出力してください。",
		typeLabels[typ], questionCount, typeInstructions[typ],
	)
}
