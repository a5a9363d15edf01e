// Package quiz turns uploaded study materials into practice questions via an
// LLM completion, and parses the model's free-text output back into
// structured questions.
package quiz

import (
	"github.com/go-playground/validator/v10"

	"github.com/medshare/backend/core"
)

// Question types
const (
	TypeShort    = "short"    // 単答式問題
	TypeMultiple = "multiple" // 4択問題
	TypeEssay    = "essay"    // 記述問題
)

var typeLabels = map[string]string{
	TypeShort:    "単答式問題",
	TypeMultiple: "4択問題",
	TypeEssay:    "記述問題",
}

var typeInstructions = map[string]string{
	TypeShort:    "問1: [問題文]\n解答: [短い答え]",
	TypeMultiple: "問1: [問題文]\nA. [選択肢1]\nB. [選択肢2]\nC. [選択肢3]\nD. [選択肢4]\n解答: [正解]",
	TypeEssay:    "問1: [問題文]\n模範解答: [詳しい解答]",
}

type Question struct {
	Type     string   `json:"type"`
	Number   int      `json:"number"`
	Question string   `json:"question"`
	Choices  []string `json:"choices,omitempty"` // multiple choice only
	Answer   string   `json:"answer"`
}

// Material is an uploaded study document. Data is a data-URL; image
// materials are forwarded to the model.
type Material struct {
	Name string `json:"name"`
	Data string `json:"data" validate:"required"`
}

type GenerateRequest struct {
	Type      string     `json:"type" validate:"required,quiztype"`
	Materials []Material `json:"materials" validate:"required,min=1,dive"`
}

func (gr *GenerateRequest) Validate() error {
	gr.Type = core.CleanString(gr.Type, true /* lower */)
	return core.Validate.Struct(gr)
}

var (
	quizTypeTag  = "quiztype"
	quizTypeText = "must be one of: short, multiple, essay"
)

func init() {
	_ = core.Validate.RegisterValidation(quizTypeTag, func(fl validator.FieldLevel) bool {
		_, ok := typeLabels[fl.Field().String()]
		return ok
	})
	core.RegisterCustomTranslation(quizTypeTag, quizTypeText)
}
