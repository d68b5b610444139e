package apiclient

import (
	"context"
	"net/http"
	"net/url"

	"github.com/stemsi/exstem-client/internal/model"
)

// GetExamWindow fetches the optional scheduling window of an exam.
// GET /exams/{id}
func (c *Client) GetExamWindow(ctx context.Context, examID string) (*model.ExamWindow, error) {
	var w model.ExamWindow
	if err := c.do(ctx, http.MethodGet, "/exams/"+url.PathEscape(examID), nil, &w); err != nil {
		return nil, err
	}
	return &w, nil
}

// GetQuestions fetches exam metadata and the question list.
// GET /cbt/exams/{id}/questions
func (c *Client) GetQuestions(ctx context.Context, examID string) (*model.ExamPayload, error) {
	var p model.ExamPayload
	if err := c.do(ctx, http.MethodGet, "/cbt/exams/"+url.PathEscape(examID)+"/questions", nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// SubmitAnswers posts the final answer set.
// POST /cbt/exams/{id}/submit
func (c *Client) SubmitAnswers(ctx context.Context, examID string, req model.SubmitRequest) error {
	return c.do(ctx, http.MethodPost, "/cbt/exams/"+url.PathEscape(examID)+"/submit", req, nil)
}

// GetResult fetches the results view of a submitted exam.
// GET /cbt/exams/{id}/result
func (c *Client) GetResult(ctx context.Context, examID string) (*model.ExamResult, error) {
	var r model.ExamResult
	if err := c.do(ctx, http.MethodGet, model.ResultsPath(url.PathEscape(examID)), nil, &r); err != nil {
		return nil, err
	}
	return &r, nil
}
