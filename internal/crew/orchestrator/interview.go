package orchestrator

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/pi-messenger/messenger/internal/atomicio"
	"github.com/pi-messenger/messenger/internal/crew/spawner"
	"github.com/pi-messenger/messenger/internal/meshapi"
)

// QuestionType is the input widget the host's interview tool renders.
type QuestionType string

const (
	QuestionSingle QuestionType = "single"
	QuestionMulti  QuestionType = "multi"
	QuestionText   QuestionType = "text"
)

// Question is one parsed interview question.
type Question struct {
	N       int          `json:"n"`
	Type    QuestionType `json:"type"`
	Prompt  string       `json:"prompt"`
	Options []string     `json:"options,omitempty"`
}

var questionHeading = regexp.MustCompile(`(?m)^###\s*Q(\d+)\s*\((single|multi|text)\)\s*$`)

// Interview invokes the interview-generator agent against the PRD/plan
// content and writes the parsed questions to interview-questions.json
// for the host's interview tool to consume.
func (o *Orchestrator) Interview() ([]Question, error) {
	if o.Roster.Interviewer == "" {
		return nil, meshapi.New(meshapi.KindNoInterviewer, "no interviewer agent configured")
	}

	var b strings.Builder
	if prd, _ := o.resolvePRD(""); prd.text != "" {
		b.WriteString("# PRD\n\n")
		b.WriteString(truncateMarked(prd.text, 20*1024))
	}
	if spec := o.Store.PlanSpec(); spec != "" {
		b.WriteString("\n\n# Plan\n\n")
		b.WriteString(truncateMarked(spec, 20*1024))
	}

	res := o.Spawner.Run(context.Background(), spawner.Request{
		Role: spawner.RoleInterviewer, Name: o.Roster.Interviewer, Prompt: b.String(),
		Cwd: o.ProjectDir, RunID: "interview", EnvExtra: childEnv(),
	}, nil)
	if res.Err != nil {
		return nil, fmt.Errorf("interviewer run failed: %w", res.Err)
	}

	questions := parseQuestions(res.Output)
	if err := atomicio.WriteJSONAtomic(o.Store.InterviewQuestionsPath(), questions); err != nil {
		return nil, err
	}
	return questions, nil
}

var optionBullet = regexp.MustCompile(`(?m)^\s*[-*]\s+(.+)$`)

func parseQuestions(output string) []Question {
	matches := questionHeading.FindAllStringSubmatchIndex(output, -1)
	var questions []Question
	for i, m := range matches {
		n := atoiOrZero(output[m[2]:m[3]])
		qtype := QuestionType(output[m[4]:m[5]])

		bodyStart := m[1]
		bodyEnd := len(output)
		if i+1 < len(matches) {
			bodyEnd = matches[i+1][0]
		}
		body := strings.TrimSpace(output[bodyStart:bodyEnd])

		var prompt string
		var options []string
		if qtype == QuestionSingle || qtype == QuestionMulti {
			if loc := optionBullet.FindStringIndex(body); loc != nil {
				prompt = strings.TrimSpace(body[:loc[0]])
				for _, om := range optionBullet.FindAllStringSubmatch(body, -1) {
					options = append(options, strings.TrimSpace(om[1]))
				}
			} else {
				prompt = body
			}
		} else {
			prompt = body
		}

		questions = append(questions, Question{N: n, Type: qtype, Prompt: prompt, Options: options})
	}
	return questions
}

func atoiOrZero(s string) int {
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return n
		}
		n = n*10 + int(c-'0')
	}
	return n
}
