package model

import (
	"fmt"
	"time"
)

// DefaultDurationMinutes applies when an exam payload carries no duration.
const DefaultDurationMinutes = 60

// ExamWindow is the optional scheduling window returned by GET /exams/{id}.
// A nil bound means no restriction on that side.
type ExamWindow struct {
	StartTime *time.Time `json:"startTime,omitempty"`
	EndTime   *time.Time `json:"endTime,omitempty"`
}

// NotStarted reports whether now is before the window opens.
func (w *ExamWindow) NotStarted(now time.Time) bool {
	return w != nil && w.StartTime != nil && now.Before(*w.StartTime)
}

// Ended reports whether now is after the window closed.
func (w *ExamWindow) Ended(now time.Time) bool {
	return w != nil && w.EndTime != nil && now.After(*w.EndTime)
}

// ExamPayload is the wire shape of GET /cbt/exams/{id}/questions.
// Questions are decoded in their raw form; call Normalize to obtain the
// canonical Question list.
type ExamPayload struct {
	ExamID    FlexibleID    `json:"examId"`
	Title     string        `json:"title"`
	Duration  *int          `json:"duration,omitempty"`
	Questions []RawQuestion `json:"questions"`
}

// DurationMinutes returns the exam duration, falling back to
// DefaultDurationMinutes when it is missing or not positive.
func (p *ExamPayload) DurationMinutes() int {
	if p.Duration == nil || *p.Duration <= 0 {
		return DefaultDurationMinutes
	}
	return *p.Duration
}

// Normalize maps every raw question onto the canonical Question type.
// Duplicate or empty identifiers are rejected so the answer buffer can key
// on them safely.
func (p *ExamPayload) Normalize() ([]Question, error) {
	out := make([]Question, 0, len(p.Questions))
	seen := make(map[string]struct{}, len(p.Questions))

	for i, raw := range p.Questions {
		q := raw.Normalize()
		if q.ID == "" {
			return nil, fmt.Errorf("question %d: missing id", i)
		}
		if _, dup := seen[q.ID]; dup {
			return nil, fmt.Errorf("question %d: duplicate id %q", i, q.ID)
		}
		seen[q.ID] = struct{}{}
		out = append(out, q)
	}

	return out, nil
}

// ResultsPath is the results view the client moves to after a successful submit.
func ResultsPath(examID string) string {
	return fmt.Sprintf("/cbt/exams/%s/result", examID)
}

// ExamResult is the graded outcome served by GET /cbt/exams/{id}/result.
type ExamResult struct {
	ExamID   string  `json:"examId"`
	Status   string  `json:"status"`
	Score    float64 `json:"score"`
	Correct  int     `json:"correct"`
	Total    int     `json:"total"`
	Answered int     `json:"answered"`
}

const (
	ResultStatusPending = "pending"
	ResultStatusGraded  = "graded"
)
