package session

import (
	"time"

	"github.com/raflytch/mockprep-server/internal/domain"

	"github.com/shopspring/decimal"
)

var (
	perQuestionMax = decimal.NewFromFloat(domain.TextMaxMarks)
	hundred        = decimal.NewFromInt(100)
)

type tally struct {
	total    int
	answered int
	marks    decimal.Decimal
}

func (t tally) breakdown() domain.TierBreakdown {
	maxMarks := perQuestionMax.Mul(decimal.NewFromInt(int64(t.answered)))
	return domain.TierBreakdown{
		TotalQuestions:    t.total,
		QuestionsAnswered: t.answered,
		TotalMarks:        t.marks.Round(2).InexactFloat64(),
		MaxPossibleMarks:  maxMarks.InexactFloat64(),
		PercentageScore:   percentage(t.marks, maxMarks),
	}
}

func percentage(marks, maxMarks decimal.Decimal) float64 {
	if maxMarks.IsZero() {
		return 0
	}
	return marks.Div(maxMarks).Mul(hundred).Round(2).InexactFloat64()
}

func normalized(rec domain.AnswerRecord) decimal.Decimal {
	if rec.MaxMarks <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromFloat(rec.MarksAwarded).
		Div(decimal.NewFromFloat(rec.MaxMarks)).
		Mul(perQuestionMax)
}

// CalculateFinalResults aggregates the recorded answers. Audio marks are
// rescaled onto the 10-point text scale before they are combined, and only
// indices with a record count towards the maximum.
func CalculateFinalResults(s domain.TestSession, now time.Time) domain.FinalResults {
	overall := tally{total: len(s.SampledQuestions), marks: decimal.Zero}
	tiers := make(map[domain.Tier]*tally, len(domain.Tiers))
	for _, tier := range domain.Tiers {
		tiers[tier] = &tally{marks: decimal.Zero}
	}

	for _, q := range s.SampledQuestions {
		if t, ok := tiers[q.DifficultyTier]; ok {
			t.total++
		}
	}

	for idx, rec := range s.AnswerRecords {
		if idx < 0 || idx >= len(s.SampledQuestions) {
			continue
		}
		marks := normalized(rec)
		overall.answered++
		overall.marks = overall.marks.Add(marks)

		if t, ok := tiers[s.SampledQuestions[idx].DifficultyTier]; ok {
			t.answered++
			t.marks = t.marks.Add(marks)
		}
	}

	results := overall.breakdown()
	out := domain.FinalResults{
		TotalQuestions:    results.TotalQuestions,
		QuestionsAnswered: results.QuestionsAnswered,
		TotalMarks:        results.TotalMarks,
		MaxPossibleMarks:  results.MaxPossibleMarks,
		PercentageScore:   results.PercentageScore,
		Tiers:             make(map[domain.Tier]domain.TierBreakdown, len(tiers)),
	}
	if s.StartedAt != nil && now.After(*s.StartedAt) {
		out.TimeSpent = int64(now.Sub(*s.StartedAt) / time.Second)
	}
	for tier, t := range tiers {
		out.Tiers[tier] = t.breakdown()
	}
	return out
}
