package domain

import "context"

// TestResultReport is the body of POST /analytics/test-results.
type TestResultReport struct {
	Technology        string  `json:"technology"`
	TotalQuestions    int     `json:"totalQuestions"`
	QuestionsAnswered int     `json:"questionsAnswered"`
	TotalMarks        float64 `json:"totalMarks"`
	MaxPossibleMarks  float64 `json:"maxPossibleMarks"`
	PercentageScore   float64 `json:"percentageScore"`
	TimeSpent         int64   `json:"timeSpent"`
}

// QuestionResultReport is the body of POST /analytics/question-results.
type QuestionResultReport struct {
	Technology      string   `json:"technology"`
	DifficultyLevel Tier     `json:"difficulty_level"`
	QuestionText    string   `json:"question_text"`
	UserAnswer      string   `json:"user_answer"`
	MarksObtained   float64  `json:"marks_obtained"`
	MaxMarks        float64  `json:"max_marks"`
	TimeSpent       int64    `json:"time_spent"`
	ConfidenceLevel *float64 `json:"confidence_level,omitempty"`
	FluencyScore    *float64 `json:"fluency_score,omitempty"`
	Feedback        string   `json:"feedback"`
	TestDate        string   `json:"test_date"`
}

type AnalyticsReporter interface {
	ReportQuestion(ctx context.Context, report QuestionResultReport)
	ReportTestSummary(ctx context.Context, report TestResultReport)
}
