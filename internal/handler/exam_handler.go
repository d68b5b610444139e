package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-client/internal/middleware"
	"github.com/stemsi/exstem-client/internal/model"
	"github.com/stemsi/exstem-client/internal/response"
	"github.com/stemsi/exstem-client/internal/service"
	"github.com/stemsi/exstem-client/internal/validator"
)

// ExamHandler serves the student-facing exam endpoints.
type ExamHandler struct {
	examService       *service.ExamService
	submissionService *service.SubmissionService
	log               zerolog.Logger
}

// NewExamHandler creates a new ExamHandler.
func NewExamHandler(examService *service.ExamService, submissionService *service.SubmissionService, log zerolog.Logger) *ExamHandler {
	return &ExamHandler{
		examService:       examService,
		submissionService: submissionService,
		log:               log.With().Str("component", "exam_handler").Logger(),
	}
}

// GetExamWindow godoc
// GET /api/v1/exams/:id
// Returns the exam's optional start and end times.
func (h *ExamHandler) GetExamWindow(c *gin.Context) {
	window, err := h.examService.GetWindow(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, window)
}

// GetQuestions godoc
// GET /api/v1/cbt/exams/:id/questions
// Returns exam metadata and questions. 403 when the exam is unpublished or
// the student is not enrolled.
func (h *ExamHandler) GetQuestions(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	paper, err := h.examService.GetPaper(c.Request.Context(), c.Param("id"), claims.StudentID)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, paper)
}

// SubmitExam godoc
// POST /api/v1/cbt/exams/:id/submit
// Accepts the first final submission; later ones get 409.
func (h *ExamHandler) SubmitExam(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.SubmitRequest
	if fields := validator.Bind(c, &req); fields != nil {
		bindFailed(c, fields)
		return
	}

	examID := c.Param("id")
	if err := h.submissionService.Submit(c.Request.Context(), examID, claims.StudentID, &req); err != nil {
		h.fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"examId":      examID,
		"status":      model.SubmissionStatusFinal,
		"resultsPath": model.ResultsPath(examID),
	})
}

// GetResult godoc
// GET /api/v1/cbt/exams/:id/result
func (h *ExamHandler) GetResult(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	res, err := h.submissionService.GetResult(c.Request.Context(), c.Param("id"), claims.StudentID)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, res)
}

// fail maps service errors onto the response envelope.
func (h *ExamHandler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrExamNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, service.ErrExamNotPublished):
		response.Fail(c, http.StatusForbidden, response.ErrExamNotPublished)
	case errors.Is(err, service.ErrNotEnrolled):
		response.Fail(c, http.StatusForbidden, response.ErrNotEnrolled)
	case errors.Is(err, service.ErrExamMismatch):
		response.Fail(c, http.StatusBadRequest, response.ErrExamMismatch)
	case errors.Is(err, service.ErrUnknownQuestion):
		response.Fail(c, http.StatusBadRequest, response.ErrUnknownQuestion)
	case errors.Is(err, service.ErrDuplicateAnswer):
		response.Fail(c, http.StatusBadRequest, response.ErrDuplicateAnswer)
	case errors.Is(err, service.ErrUnknownOption):
		response.Fail(c, http.StatusBadRequest, response.ErrUnknownOption)
	case errors.Is(err, service.ErrAlreadySubmitted):
		response.Fail(c, http.StatusConflict, response.ErrAlreadySubmitted)
	case errors.Is(err, service.ErrResultUnavailable):
		response.Fail(c, http.StatusNotFound, response.ErrResultNotAvailable)
	default:
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("Request failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}

// bindFailed reports a body that is not JSON as INVALID_PAYLOAD and a body
// that fails validation as VALIDATION_ERROR.
func bindFailed(c *gin.Context, fields map[string]string) {
	if _, malformed := fields[validator.DetailField]; malformed {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrInvalidPayload, fields)
		return
	}
	response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
}
