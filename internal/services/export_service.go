package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	apperrors "github.com/SAP-F-2025/classroom-session/internal/errors"
	"github.com/SAP-F-2025/classroom-session/internal/models"
	"github.com/xuri/excelize/v2"
)

const (
	questionsSheet = "Questions"
	attemptSheet   = "Attempt"
	summarySheet   = "Weekly Summary"
	submittedOnFmt = "2006-01-02 15:04"
)

// ExportService writes quiz content and results as xlsx workbooks and reads
// question lists back from them.
type ExportService interface {
	ExportQuizQuestions(quiz *InstructorQuiz) ([]byte, error)
	ExportAttempt(details *models.AttemptDetails) ([]byte, error)
	ExportWeeklySummary(ctx context.Context) ([]byte, error)
	// ImportQuestions reads the first column of the first sheet, skipping the header row.
	ImportQuestions(reader io.Reader) ([]string, error)
}

type exportService struct {
	attempts AttemptService
	logger   *ServiceLogger
}

func NewExportService(attempts AttemptService, logger *ServiceLogger) ExportService {
	return &exportService{attempts: attempts, logger: logger}
}

func (s *exportService) ExportQuizQuestions(quiz *InstructorQuiz) ([]byte, error) {
	if quiz == nil {
		return nil, apperrors.Validation(msgQuizIDMissing)
	}

	rows := [][]interface{}{}
	for _, question := range quiz.Questions() {
		rows = append(rows, []interface{}{question})
	}
	return writeWorkbook(questionsSheet, []string{"Question"}, rows)
}

func (s *exportService) ExportAttempt(details *models.AttemptDetails) ([]byte, error) {
	if details == nil {
		return nil, apperrors.Validation(msgAttemptIDMissing)
	}

	rows := [][]interface{}{}
	for i, question := range details.Questions {
		answer := ""
		if i < len(details.Answers) {
			answer = details.Answers[i]
		}
		rows = append(rows, []interface{}{i + 1, question, answer})
	}
	if details.Score != nil {
		rows = append(rows, []interface{}{"Score", *details.Score, ""})
	}
	return writeWorkbook(attemptSheet, []string{"Number", "Question", "Answer"}, rows)
}

func (s *exportService) ExportWeeklySummary(ctx context.Context) (data []byte, err error) {
	op := s.logger.WithOperation(ctx, "export_weekly_summary", "")
	defer func() { op.LogResult("", "weekly_summary", err) }()

	summary, err := s.attempts.WeeklySummary(ctx)
	if err != nil {
		return nil, err
	}

	rows := [][]interface{}{}
	for _, attempt := range summary.Attempts {
		rows = append(rows, []interface{}{attempt.QuizName, attempt.Score, attempt.SubmittedOn.Format(submittedOnFmt)})
	}
	rows = append(rows, []interface{}{"Average", summary.AverageScore, ""})
	return writeWorkbook(summarySheet, []string{"Quiz", "Score", "Submitted On"}, rows)
}

func (s *exportService) ImportQuestions(reader io.Reader) ([]string, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, apperrors.ValidationWrap("file is not a valid workbook", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, apperrors.Validation("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read workbook rows: %w", err)
	}

	var questions []string
	for _, row := range rows[min(1, len(rows)):] {
		if len(row) == 0 || strings.TrimSpace(row[0]) == "" {
			continue
		}
		questions = append(questions, strings.TrimSpace(row[0]))
	}
	if len(questions) == 0 {
		return nil, apperrors.Validation("workbook has no questions")
	}
	return questions, nil
}

func writeWorkbook(sheetName string, headers []string, rows [][]interface{}) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}

	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, header)
	}
	for rowIndex, row := range rows {
		for colIndex, value := range row {
			cell, _ := excelize.CoordinatesToCellName(colIndex+1, rowIndex+2)
			f.SetCellValue(sheetName, cell, value)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
