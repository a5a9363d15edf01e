package quiz

import (
	"regexp"
	"strings"
)

// Completion text grammar: a question marker line ("問N:"), optional choice
// lines ("A." .. "D.", multiple choice only) and an answer marker line
// ("解答:" / "模範解答:"). Lines matching no marker are appended to the text
// of whatever the parser is currently reading; text before the first
// question marker is dropped.
var (
	questionRegex = regexp.MustCompile(`^問\d+[:：]\s*`)
	choiceRegex   = regexp.MustCompile(`^[A-D][.．]`)
	answerRegex   = regexp.MustCompile(`^(解答|模範解答)[:：]\s*`)
)

type parseState int

const (
	stateAwaitingQuestion parseState = iota
	stateInQuestion
	stateInChoices
	stateInAnswer
)

// ParseQuestions extracts structured questions from the model's free-text
// output.
func ParseQuestions(text, typ string) []Question {
	var (
		questions []Question
		current   *Question
		state     = stateAwaitingQuestion
		number    int
	)

	flush := func() {
		if current != nil {
			questions = append(questions, *current)
		}
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		switch {
		case questionRegex.MatchString(line):
			flush()
			number++
			current = &Question{
				Type:     typ,
				Number:   number,
				Question: questionRegex.ReplaceAllString(line, ""),
			}
			state = stateInQuestion

		case state != stateAwaitingQuestion && typ == TypeMultiple && choiceRegex.MatchString(line):
			current.Choices = append(current.Choices, line)
			state = stateInChoices

		case state != stateAwaitingQuestion && answerRegex.MatchString(line):
			current.Answer = answerRegex.ReplaceAllString(line, "")
			state = stateInAnswer

		default:
			// unparsed trailing text sticks to whatever we are reading
			switch state {
			case stateAwaitingQuestion:
				// preamble before the first question; drop
			case stateInAnswer:
				current.Answer += "\n" + line
			default:
				current.Question += "\n" + line
			}
		}
	}
	flush()
	return questions
}
