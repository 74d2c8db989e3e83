package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/raflytch/mockprep-server/internal/domain"
	"github.com/raflytch/mockprep-server/internal/metrics"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

const QuestionsPerTierGenerated = 8

var (
	ErrGenerationParse     = errors.New("model response is not a valid question set")
	ErrAIClientUnavailable = errors.New("ai client is not available")
)

const generateQuestionsPrompt = `You are an experienced technical interviewer preparing a mock interview.

Technology: %s
Role: %s
%s
Requirements:
- Generate exactly %d questions: %d beginner, %d intermediate and %d expert
- Questions must be specific to the technology and realistic for the role
- Every question needs a concise model answer of two to four sentences
- Do not repeat questions across difficulty levels

Respond ONLY with valid JSON in this exact format:
{
  "beginner": [
    {"id": "b1", "question": "Your question here?", "answer": "Model answer"}
  ],
  "intermediate": [
    {"id": "i1", "question": "Your question here?", "answer": "Model answer"}
  ],
  "expert": [
    {"id": "e1", "question": "Your question here?", "answer": "Model answer"}
  ]
}`

type questionGenerator struct {
	aiClient domain.AIClient
	metrics  *metrics.Metrics
}

func NewQuestionGenerator(aiClient domain.AIClient, m *metrics.Metrics) domain.QuestionGenerator {
	return &questionGenerator{
		aiClient: aiClient,
		metrics:  m,
	}
}

func buildGeneratePrompt(technology, role, notes string) string {
	if role == "" {
		role = "Software Engineer"
	}
	extra := ""
	if notes = strings.TrimSpace(notes); notes != "" {
		extra = fmt.Sprintf("Additional notes from the candidate: %s\n", notes)
	}
	n := QuestionsPerTierGenerated
	return fmt.Sprintf(generateQuestionsPrompt, technology, role, extra, n*len(domain.Tiers), n, n, n)
}

// Generate makes a single model call; failures are returned to the caller,
// which decides on a fallback.
func (g *questionGenerator) Generate(ctx context.Context, technology, role, notes string) (domain.QuestionSet, error) {
	if g.aiClient == nil {
		return nil, ErrAIClientUnavailable
	}

	raw, err := g.aiClient.GenerateJSON(ctx, buildGeneratePrompt(technology, role, notes))
	if err != nil {
		g.metrics.AIRequest("generate_questions", "error")
		return nil, err
	}

	set, err := parseQuestionSet(raw, technology, role)
	if err != nil {
		g.metrics.AIRequest("generate_questions", "parse_error")
		return nil, err
	}

	g.metrics.AIRequest("generate_questions", "success")
	return set, nil
}

func parseQuestionSet(raw, technology, role string) (domain.QuestionSet, error) {
	obj, err := extractJSONObject(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGenerationParse, err)
	}

	set := make(domain.QuestionSet, len(domain.Tiers))
	for _, tier := range domain.Tiers {
		items := gjson.Get(obj, string(tier))
		if !items.Exists() || !items.IsArray() {
			return nil, fmt.Errorf("%w: missing %q", ErrGenerationParse, tier)
		}

		questions := make([]domain.Question, 0, QuestionsPerTierGenerated)
		for _, item := range items.Array() {
			if len(questions) == QuestionsPerTierGenerated {
				break
			}
			text := strings.TrimSpace(item.Get("question").String())
			if text == "" {
				text = strings.TrimSpace(item.Get("text").String())
			}
			if text == "" {
				continue
			}

			id := strings.TrimSpace(item.Get("id").String())
			if id == "" {
				id = uuid.NewString()
			}

			questions = append(questions, domain.Question{
				ID:              id,
				Text:            text,
				ReferenceAnswer: strings.TrimSpace(item.Get("answer").String()),
				DifficultyTier:  tier,
				Technology:      technology,
				Role:            role,
			})
		}
		if len(questions) == 0 {
			return nil, fmt.Errorf("%w: %q has no questions", ErrGenerationParse, tier)
		}
		set[tier] = questions
	}

	return set, nil
}
