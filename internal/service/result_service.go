package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/raflytch/mockprep-server/internal/domain"

	"github.com/go-pdf/fpdf"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrResultNotFound    = errors.New("result not found")
	ErrResultForbidden   = errors.New("unauthorized access to result")
	ErrSessionIncomplete = errors.New("session has no final results")
)

type resultService struct {
	resultRepo domain.ResultRepository
}

func NewResultService(resultRepo domain.ResultRepository) domain.ResultService {
	return &resultService{resultRepo: resultRepo}
}

// Record stores the outcome of a completed session. Each attempt, keyed by
// session id and start time, is stored once; a repeat returns
// domain.ErrResultExists.
func (s *resultService) Record(ctx context.Context, ts *domain.TestSession) (*domain.SessionResult, error) {
	if ts.Results == nil || ts.StartedAt == nil || ts.CompletedAt == nil {
		return nil, ErrSessionIncomplete
	}

	items := make([]domain.ResultItem, len(ts.SampledQuestions))
	for i, q := range ts.SampledQuestions {
		items[i] = domain.ResultItem{
			Question: q.Text,
			Tier:     q.DifficultyTier,
		}
		if record, ok := ts.AnswerRecords[i]; ok {
			items[i].Modality = record.Modality
			items[i].MarksAwarded = record.MarksAwarded
			items[i].MaxMarks = record.MaxMarks
			items[i].Feedback = record.Feedback
		}
	}

	result := &domain.SessionResult{
		ID:          uuid.New(),
		SessionID:   ts.ID,
		UserID:      ts.UserID,
		Technology:  ts.Technology,
		Results:     *ts.Results,
		Answers:     items,
		StartedAt:   *ts.StartedAt,
		CompletedAt: *ts.CompletedAt,
		CreatedAt:   time.Now(),
	}

	if err := s.resultRepo.Create(ctx, result); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *resultService) GetByID(ctx context.Context, userID string, id uuid.UUID) (*domain.SessionResult, error) {
	result, err := s.resultRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrResultNotFound
		}
		return nil, err
	}

	if result.UserID != userID {
		return nil, ErrResultForbidden
	}

	return result, nil
}

func (s *resultService) GetByUserID(ctx context.Context, userID string, page, limit int) (*domain.PaginatedResults, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}

	offset := (page - 1) * limit

	total, err := s.resultRepo.CountByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	results, err := s.resultRepo.FindByUserID(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}

	totalPages := int(total) / limit
	if int(total)%limit > 0 {
		totalPages++
	}

	return &domain.PaginatedResults{
		Results: results,
		Pagination: domain.Pagination{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: totalPages,
		},
	}, nil
}

func (s *resultService) RenderReport(ctx context.Context, userID string, id uuid.UUID) ([]byte, error) {
	result, err := s.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	return renderResultPDF(result)
}

func renderResultPDF(result *domain.SessionResult) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 8, tr(fmt.Sprintf("Mock Interview Report: %s", result.Technology)))
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "", 9)
	pdf.Cell(0, 5, fmt.Sprintf("Completed %s  |  Duration %s",
		result.CompletedAt.UTC().Format("02 Jan 2006 15:04 MST"),
		(time.Duration(result.Results.TimeSpent) * time.Second).String(),
	))
	pdf.Ln(9)

	r := result.Results
	addSection(pdf, "SUMMARY")
	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 5, fmt.Sprintf("Score: %s / %s (%s%%)",
		formatMarks(r.TotalMarks), formatMarks(r.MaxPossibleMarks), formatMarks(r.PercentageScore)))
	pdf.Ln(5)
	pdf.Cell(0, 5, fmt.Sprintf("Answered %d of %d questions", r.QuestionsAnswered, r.TotalQuestions))
	pdf.Ln(7)

	for _, tier := range domain.Tiers {
		b, ok := r.Tiers[tier]
		if !ok || b.TotalQuestions == 0 {
			continue
		}
		pdf.CellFormat(5, 4, "-", "", 0, "", false, 0, "")
		pdf.Cell(0, 4, fmt.Sprintf("%s: %s / %s (%s%%), %d of %d answered",
			strings.ToUpper(string(tier[:1]))+string(tier[1:]),
			formatMarks(b.TotalMarks), formatMarks(b.MaxPossibleMarks), formatMarks(b.PercentageScore),
			b.QuestionsAnswered, b.TotalQuestions))
		pdf.Ln(5)
	}
	pdf.Ln(3)

	addSection(pdf, "QUESTIONS")
	for i, item := range result.Answers {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.MultiCell(0, 5, tr(fmt.Sprintf("%d. %s", i+1, item.Question)), "", "", false)

		pdf.SetFont("Helvetica", "I", 9)
		if item.Modality == "" {
			pdf.Cell(0, 4, fmt.Sprintf("%s  |  Not answered", item.Tier))
			pdf.Ln(6)
			continue
		}
		pdf.Cell(0, 4, fmt.Sprintf("%s  |  %s answer  |  %s / %s",
			item.Tier, item.Modality, formatMarks(item.MarksAwarded), formatMarks(item.MaxMarks)))
		pdf.Ln(5)

		if item.Feedback != "" {
			pdf.SetFont("Helvetica", "", 9)
			addBulletPoints(pdf, tr(item.Feedback))
		}
		pdf.Ln(3)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func addSection(pdf *fpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", 10)
	pdf.Cell(0, 6, title)
	pdf.Ln(6)
	pdf.SetDrawColor(100, 100, 100)
	pdf.Line(15, pdf.GetY(), 195, pdf.GetY())
	pdf.Ln(3)
}

func addBulletPoints(pdf *fpdf.Fpdf, text string) {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimSpace(strings.TrimLeft(line, "-*"))
		if line == "" {
			continue
		}
		pdf.CellFormat(5, 4, "-", "", 0, "", false, 0, "")
		pdf.MultiCell(0, 4, line, "", "", false)
	}
}

func formatMarks(v float64) string {
	return decimal.NewFromFloat(v).Round(2).String()
}
