package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/raflytch/mockprep-server/internal/domain"
	"github.com/raflytch/mockprep-server/internal/metrics"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
)

var (
	ErrEvaluationFailed = errors.New("audio evaluation failed")
	ErrEvaluationParse  = errors.New("model response is not a valid evaluation")
)

const (
	FallbackMarks    = 5.0
	FallbackFeedback = "We could not evaluate this answer automatically. A neutral score was recorded; review the reference answer and try again."
)

const evaluateTextPrompt = `You are a strict but fair technical interviewer grading a candidate's answer.

Question: %s
Reference answer: %s
Candidate answer: %s

Grade the candidate answer from 0 to 10 where 0 is completely wrong or empty and 10 is complete and precise.
Feedback must be at most three sentences and mention what was missing.

Respond ONLY with valid JSON in this exact format:
{"marks": 7, "feedback": "Short feedback"}`

const evaluateAudioPrompt = `You are a technical interviewer listening to a candidate's spoken answer.

Question: %s
Reference answer: %s

Listen to the attached recording and grade it:
- marks: correctness and completeness from 0 to 100
- confidence_marks: how confident the delivery sounds from 0 to 100
- fluency_marks: clarity and fluency of speech from 0 to 100
- feedback: at most three sentences covering content and delivery

Respond ONLY with valid JSON in this exact format:
{"marks": 70, "confidence_marks": 65, "fluency_marks": 80, "feedback": "Short feedback"}`

type evaluationService struct {
	aiClient domain.AIClient
	metrics  *metrics.Metrics
	log      zerolog.Logger
}

func NewEvaluationService(aiClient domain.AIClient, m *metrics.Metrics, log zerolog.Logger) domain.EvaluationService {
	return &evaluationService{
		aiClient: aiClient,
		metrics:  m,
		log:      log.With().Str("component", "evaluation_service").Logger(),
	}
}

func fallbackTextEvaluation() domain.TextEvaluation {
	return domain.TextEvaluation{Marks: FallbackMarks, Feedback: FallbackFeedback}
}

func (s *evaluationService) EvaluateText(ctx context.Context, question domain.Question, answer string) domain.TextEvaluation {
	if s.aiClient == nil {
		s.metrics.Evaluation(string(domain.ModalityText), "fallback")
		return fallbackTextEvaluation()
	}

	prompt := fmt.Sprintf(evaluateTextPrompt, question.Text, question.ReferenceAnswer, answer)
	raw, err := s.aiClient.GenerateJSON(ctx, prompt)
	if err != nil {
		s.log.Warn().Err(err).Str("question_id", question.ID).Msg("text evaluation request failed, using fallback")
		s.metrics.Evaluation(string(domain.ModalityText), "fallback")
		return fallbackTextEvaluation()
	}

	eval, err := parseTextEvaluation(raw)
	if err != nil {
		s.log.Warn().Err(err).Str("question_id", question.ID).Msg("text evaluation unparseable, using fallback")
		s.metrics.Evaluation(string(domain.ModalityText), "fallback")
		return fallbackTextEvaluation()
	}

	s.metrics.Evaluation(string(domain.ModalityText), "success")
	return eval
}

func parseTextEvaluation(raw string) (domain.TextEvaluation, error) {
	obj, err := extractJSONObject(raw)
	if err != nil {
		return domain.TextEvaluation{}, fmt.Errorf("%w: %v", ErrEvaluationParse, err)
	}

	marks := gjson.Get(obj, "marks")
	if marks.Type != gjson.Number {
		return domain.TextEvaluation{}, fmt.Errorf("%w: marks is not a number", ErrEvaluationParse)
	}

	return domain.TextEvaluation{
		Marks:    clamp(marks.Float(), 0, domain.TextMaxMarks),
		Feedback: gjson.Get(obj, "feedback").String(),
	}, nil
}

func (s *evaluationService) EvaluateAudio(ctx context.Context, question domain.Question, audio *domain.AudioAnswer) (*domain.AudioEvaluation, error) {
	if s.aiClient == nil {
		s.metrics.Evaluation(string(domain.ModalityAudio), "error")
		return nil, fmt.Errorf("%w: %v", ErrEvaluationFailed, ErrAIClientUnavailable)
	}
	if audio == nil || len(audio.Data) == 0 {
		return nil, fmt.Errorf("%w: empty recording", ErrEvaluationFailed)
	}

	prompt := fmt.Sprintf(evaluateAudioPrompt, question.Text, question.ReferenceAnswer)
	raw, err := s.aiClient.GenerateJSONFromMedia(ctx, prompt, audio.Data, audio.MIMEType)
	if err != nil {
		s.metrics.Evaluation(string(domain.ModalityAudio), "error")
		return nil, fmt.Errorf("%w: %v", ErrEvaluationFailed, err)
	}

	eval, err := parseAudioEvaluation(raw)
	if err != nil {
		s.metrics.Evaluation(string(domain.ModalityAudio), "error")
		return nil, fmt.Errorf("%w: %v", ErrEvaluationFailed, err)
	}

	s.metrics.Evaluation(string(domain.ModalityAudio), "success")
	return eval, nil
}

func parseAudioEvaluation(raw string) (*domain.AudioEvaluation, error) {
	obj, err := extractJSONObject(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEvaluationParse, err)
	}

	marks := gjson.Get(obj, "marks")
	if marks.Type != gjson.Number {
		return nil, fmt.Errorf("%w: marks is not a number", ErrEvaluationParse)
	}

	return &domain.AudioEvaluation{
		Marks:           clamp(marks.Float(), 0, domain.AudioMaxMarks),
		ConfidenceMarks: clamp(gjson.Get(obj, "confidence_marks").Float(), 0, domain.AudioMaxMarks),
		FluencyMarks:    clamp(gjson.Get(obj, "fluency_marks").Float(), 0, domain.AudioMaxMarks),
		Feedback:        gjson.Get(obj, "feedback").String(),
	}, nil
}
