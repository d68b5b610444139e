package model

import "time"

// SubmissionStatusFinal marks a submission as final. The client has no
// draft or partial-save concept.
const SubmissionStatusFinal = "submitted"

// AnswerEntry is one serialized answer in a submission.
type AnswerEntry struct {
	QuestionID     string `json:"questionId" binding:"required"`
	SelectedOption string `json:"selectedOption" binding:"required,notblank"`
}

// SubmitRequest is the body of POST /cbt/exams/{id}/submit.
type SubmitRequest struct {
	ExamID  string        `json:"examId" binding:"required"`
	Answers []AnswerEntry `json:"answers" binding:"dive"`
	Status  string        `json:"status" binding:"required,eq=submitted"`
}

// NewSubmitRequest builds a final submission. A nil answer slice is
// replaced by an empty one so the wire body always carries an array.
func NewSubmitRequest(examID string, answers []AnswerEntry) SubmitRequest {
	if answers == nil {
		answers = []AnswerEntry{}
	}
	return SubmitRequest{
		ExamID:  examID,
		Answers: answers,
		Status:  SubmissionStatusFinal,
	}
}

// StoredSubmission is the first accepted submission kept by the development backend.
type StoredSubmission struct {
	ExamID      string        `json:"exam_id"`
	StudentID   int           `json:"student_id"`
	Answers     []AnswerEntry `json:"answers"`
	SubmittedAt time.Time     `json:"submitted_at"`
}

// GradeJob is queued for the grading worker after a submission is accepted.
type GradeJob struct {
	ExamID    string `json:"exam_id"`
	StudentID int    `json:"student_id"`
	Attempts  int    `json:"attempts,omitempty"`
}
