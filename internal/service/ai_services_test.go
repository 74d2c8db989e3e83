package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/raflytch/mockprep-server/internal/domain"
	"github.com/raflytch/mockprep-server/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tierJSON(n int, prefix string) string {
	items := make([]string, n)
	for i := range items {
		items[i] = fmt.Sprintf(`{"id":"%s%d","question":"%s question %d","answer":"answer %d"}`, prefix, i, prefix, i, i)
	}
	return "[" + strings.Join(items, ",") + "]"
}

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
		err  bool
	}{
		{name: "bare", raw: `{"marks": 7}`, want: `{"marks": 7}`},
		{name: "fenced", raw: "```json\n{\"marks\": 7}\n```", want: `{"marks": 7}`},
		{name: "prose around", raw: `Here you go: {"a": {"b": "}"}} thanks`, want: `{"a": {"b": "}"}}`},
		{name: "skips invalid candidate", raw: `{not json} then {"ok": true}`, want: `{"ok": true}`},
		{name: "no object", raw: "I cannot grade this", err: true},
		{name: "unbalanced", raw: `{"marks": 7`, err: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := extractJSONObject(tt.raw)
			if tt.err {
				assert.ErrorIs(t, err, ErrNoJSONObject)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseQuestionSet(t *testing.T) {
	raw := fmt.Sprintf("Sure!\n```json\n{\"beginner\": %s, \"intermediate\": %s, \"expert\": %s}\n```",
		tierJSON(10, "b"), tierJSON(8, "i"), `[{"text":"only text field"},{"question":"  "}]`)

	set, err := parseQuestionSet(raw, "go", "Backend")
	require.NoError(t, err)

	assert.Len(t, set[domain.TierBeginner], QuestionsPerTierGenerated)
	assert.Len(t, set[domain.TierIntermediate], 8)
	require.Len(t, set[domain.TierExpert], 1)

	q := set[domain.TierBeginner][0]
	assert.Equal(t, "b0", q.ID)
	assert.Equal(t, "b question 0", q.Text)
	assert.Equal(t, "answer 0", q.ReferenceAnswer)
	assert.Equal(t, domain.TierBeginner, q.DifficultyTier)
	assert.Equal(t, "go", q.Technology)
	assert.Equal(t, "Backend", q.Role)

	expert := set[domain.TierExpert][0]
	assert.Equal(t, "only text field", expert.Text)
	assert.NotEmpty(t, expert.ID)
}

func TestParseQuestionSet_MissingTier(t *testing.T) {
	raw := fmt.Sprintf(`{"beginner": %s, "intermediate": %s}`, tierJSON(2, "b"), tierJSON(2, "i"))
	_, err := parseQuestionSet(raw, "go", "")
	assert.ErrorIs(t, err, ErrGenerationParse)

	raw = fmt.Sprintf(`{"beginner": %s, "intermediate": %s, "expert": "none"}`, tierJSON(2, "b"), tierJSON(2, "i"))
	_, err = parseQuestionSet(raw, "go", "")
	assert.ErrorIs(t, err, ErrGenerationParse)
}

func TestParseQuestionSet_EmptyTier(t *testing.T) {
	cases := map[string]string{
		"all empty":      `{"beginner":[],"intermediate":[],"expert":[]}`,
		"blank text":     fmt.Sprintf(`{"beginner": %s, "intermediate": [{"question":""}], "expert": %s}`, tierJSON(2, "b"), tierJSON(2, "e")),
		"one tier empty": fmt.Sprintf(`{"beginner": %s, "intermediate": %s, "expert": []}`, tierJSON(2, "b"), tierJSON(2, "i")),
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			set, err := parseQuestionSet(raw, "go", "")
			assert.ErrorIs(t, err, ErrGenerationParse)
			assert.Nil(t, set)
		})
	}
}

func TestQuestionGenerator_Generate(t *testing.T) {
	ai := &fakeAIClient{jsonFn: func(prompt string) (string, error) {
		assert.Contains(t, prompt, "kubernetes")
		assert.Contains(t, prompt, "Platform Engineer")
		return fmt.Sprintf(`{"beginner": %s, "intermediate": %s, "expert": %s}`,
			tierJSON(8, "b"), tierJSON(8, "i"), tierJSON(8, "e")), nil
	}}
	gen := NewQuestionGenerator(ai, metrics.New(prometheus.NewRegistry()))

	set, err := gen.Generate(context.Background(), "kubernetes", "Platform Engineer", "")
	require.NoError(t, err)
	assert.Equal(t, 24, set.Count())
	assert.Equal(t, 1, ai.jsonCalls)
}

func TestQuestionGenerator_Errors(t *testing.T) {
	_, err := NewQuestionGenerator(nil, nil).Generate(context.Background(), "go", "", "")
	assert.ErrorIs(t, err, ErrAIClientUnavailable)

	boom := errors.New("quota exhausted")
	ai := &fakeAIClient{jsonFn: func(string) (string, error) { return "", boom }}
	_, err = NewQuestionGenerator(ai, nil).Generate(context.Background(), "go", "", "")
	assert.ErrorIs(t, err, boom)

	ai = &fakeAIClient{jsonFn: func(string) (string, error) { return "no json here", nil }}
	_, err = NewQuestionGenerator(ai, nil).Generate(context.Background(), "go", "", "")
	assert.ErrorIs(t, err, ErrGenerationParse)
	assert.Equal(t, 1, ai.jsonCalls)
}

var testQuestion = domain.Question{
	ID:              "q1",
	Text:            "What is a goroutine?",
	ReferenceAnswer: "A lightweight thread managed by the Go runtime.",
	DifficultyTier:  domain.TierBeginner,
}

func TestEvaluateText(t *testing.T) {
	tests := []struct {
		name         string
		response     string
		err          error
		wantMarks    float64
		wantFeedback string
	}{
		{name: "valid", response: `{"marks": 8, "feedback": "Good"}`, wantMarks: 8, wantFeedback: "Good"},
		{name: "prose wrapped", response: "Result:\n{\"marks\": 6.5, \"feedback\": \"Fine\"}", wantMarks: 6.5, wantFeedback: "Fine"},
		{name: "clamped high", response: `{"marks": 14, "feedback": "x"}`, wantMarks: 10, wantFeedback: "x"},
		{name: "clamped low", response: `{"marks": -3, "feedback": "x"}`, wantMarks: 0, wantFeedback: "x"},
		{name: "marks not numeric", response: `{"marks": "eight", "feedback": "x"}`, wantMarks: FallbackMarks, wantFeedback: FallbackFeedback},
		{name: "unparseable", response: "I think it is fine", wantMarks: FallbackMarks, wantFeedback: FallbackFeedback},
		{name: "request failed", err: errors.New("timeout"), wantMarks: FallbackMarks, wantFeedback: FallbackFeedback},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ai := &fakeAIClient{jsonFn: func(prompt string) (string, error) {
				assert.Contains(t, prompt, testQuestion.Text)
				assert.Contains(t, prompt, "my answer")
				return tt.response, tt.err
			}}
			svc := NewEvaluationService(ai, metrics.New(prometheus.NewRegistry()), zerolog.Nop())

			eval := svc.EvaluateText(context.Background(), testQuestion, "my answer")
			assert.Equal(t, tt.wantMarks, eval.Marks)
			assert.Equal(t, tt.wantFeedback, eval.Feedback)
		})
	}
}

func TestEvaluateText_FallbackIsStable(t *testing.T) {
	svc := NewEvaluationService(nil, nil, zerolog.Nop())

	first := svc.EvaluateText(context.Background(), testQuestion, "answer")
	second := svc.EvaluateText(context.Background(), testQuestion, "answer")
	assert.Equal(t, first, second)
	assert.Equal(t, FallbackMarks, first.Marks)
}

func TestEvaluateAudio(t *testing.T) {
	ai := &fakeAIClient{mediaFn: func(prompt string, data []byte, mimeType string) (string, error) {
		assert.Contains(t, prompt, testQuestion.Text)
		assert.Equal(t, []byte("RIFF"), data)
		assert.Equal(t, "audio/wav", mimeType)
		return `{"marks": 120, "confidence_marks": 65, "fluency_marks": -5, "feedback": "Clear"}`, nil
	}}
	svc := NewEvaluationService(ai, nil, zerolog.Nop())

	eval, err := svc.EvaluateAudio(context.Background(), testQuestion, &domain.AudioAnswer{Data: []byte("RIFF"), MIMEType: "audio/wav"})
	require.NoError(t, err)
	assert.Equal(t, 100.0, eval.Marks)
	assert.Equal(t, 65.0, eval.ConfidenceMarks)
	assert.Equal(t, 0.0, eval.FluencyMarks)
	assert.Equal(t, "Clear", eval.Feedback)
}

func TestEvaluateAudio_Failures(t *testing.T) {
	audio := &domain.AudioAnswer{Data: []byte("RIFF"), MIMEType: "audio/wav"}

	_, err := NewEvaluationService(nil, nil, zerolog.Nop()).EvaluateAudio(context.Background(), testQuestion, audio)
	assert.ErrorIs(t, err, ErrEvaluationFailed)

	ai := &fakeAIClient{mediaFn: func(string, []byte, string) (string, error) {
		return "", errors.New("unsupported media")
	}}
	_, err = NewEvaluationService(ai, nil, zerolog.Nop()).EvaluateAudio(context.Background(), testQuestion, audio)
	assert.ErrorIs(t, err, ErrEvaluationFailed)

	ai = &fakeAIClient{mediaFn: func(string, []byte, string) (string, error) {
		return "The candidate spoke well.", nil
	}}
	_, err = NewEvaluationService(ai, nil, zerolog.Nop()).EvaluateAudio(context.Background(), testQuestion, audio)
	assert.ErrorIs(t, err, ErrEvaluationFailed)

	_, err = NewEvaluationService(ai, nil, zerolog.Nop()).EvaluateAudio(context.Background(), testQuestion, &domain.AudioAnswer{})
	assert.ErrorIs(t, err, ErrEvaluationFailed)
	assert.Equal(t, 1, ai.mediaCalls)
}
