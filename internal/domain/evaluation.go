package domain

import "context"

type TextEvaluation struct {
	Marks    float64 `json:"marks"`
	Feedback string  `json:"feedback"`
}

type AudioEvaluation struct {
	Marks           float64 `json:"marks"`
	ConfidenceMarks float64 `json:"confidence_marks"`
	FluencyMarks    float64 `json:"fluency_marks"`
	Feedback        string  `json:"feedback"`
}

type EvaluationService interface {
	// EvaluateText never fails; unusable model output yields a neutral score.
	EvaluateText(ctx context.Context, question Question, answer string) TextEvaluation
	EvaluateAudio(ctx context.Context, question Question, audio *AudioAnswer) (*AudioEvaluation, error)
}

// AIClient is the subset of the generative model gateway used by the services.
type AIClient interface {
	GenerateJSON(ctx context.Context, prompt string) (string, error)
	GenerateJSONFromMedia(ctx context.Context, prompt string, data []byte, mimeType string) (string, error)
}

type AudioStorage interface {
	UploadAudio(ctx context.Context, data []byte, fileName, folder string) (string, error)
}
