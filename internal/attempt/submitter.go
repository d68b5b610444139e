package attempt

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-client/internal/apiclient"
	"github.com/stemsi/exstem-client/internal/model"
)

// Trigger names what started a submission.
type Trigger string

const (
	TriggerManual Trigger = "manual"
	TriggerTimer  Trigger = "timer"
)

// AnswerSink is the part of the platform API the submitter needs.
type AnswerSink interface {
	SubmitAnswers(ctx context.Context, examID string, req model.SubmitRequest) error
}

// Result describes a successful submission and where the results view lives.
type Result struct {
	ExamID      string
	Trigger     Trigger
	Answered    int
	Total       int
	ResultsPath string
	SubmittedAt time.Time
}

// Submitter sends a session's answers exactly once. Manual confirm and
// timer expiry both go through Submit.
type Submitter struct {
	api     AnswerSink
	session *Session
	log     zerolog.Logger

	attempted   atomic.Bool
	onSubmitted func(Result)
	onFailed    func(*SubmissionError)
}

// NewSubmitter creates the submitter for session.
func NewSubmitter(api AnswerSink, session *Session, log zerolog.Logger) *Submitter {
	return &Submitter{
		api:     api,
		session: session,
		log:     log.With().Str("component", "submitter").Str("exam_id", session.ExamID()).Logger(),
	}
}

// OnSubmitted registers the navigation to the results view. It runs once.
func (s *Submitter) OnSubmitted(fn func(Result)) *Submitter {
	s.onSubmitted = fn
	return s
}

// OnFailed registers fn to surface a failed submission.
func (s *Submitter) OnFailed(fn func(*SubmissionError)) *Submitter {
	s.onFailed = fn
	return s
}

// Submit is the guarded entry point. Callers that lose the guard get
// ErrAlreadySubmitted, ErrSubmissionInProgress or ErrAutoSubmitSpent and
// cause no network call.
func (s *Submitter) Submit(ctx context.Context, trigger Trigger) (*Result, error) {
	if trigger == TriggerTimer && s.attempted.Load() {
		return nil, ErrAutoSubmitSpent
	}

	if !s.session.beginSubmit() {
		if s.session.State() == Submitted {
			return nil, ErrAlreadySubmitted
		}
		return nil, ErrSubmissionInProgress
	}
	s.attempted.Store(true)

	examID := s.session.ExamID()
	answers := s.session.Buffer().Snapshot()
	req := model.NewSubmitRequest(examID, answers)

	s.log.Info().
		Str("trigger", string(trigger)).
		Int("answered", len(answers)).
		Int("total", s.session.QuestionCount()).
		Msg("Submitting exam")

	if err := s.api.SubmitAnswers(ctx, examID, req); err != nil {
		// 409 means an earlier request was accepted but its response was lost.
		if apiclient.StatusCode(err) != http.StatusConflict {
			s.session.rollbackSubmit()
			serr := &SubmissionError{ExamID: examID, Trigger: trigger, Err: err}
			s.log.Error().Err(err).Str("trigger", string(trigger)).Msg("Submission failed")
			if s.onFailed != nil {
				s.onFailed(serr)
			}
			return nil, serr
		}
		s.log.Warn().Err(err).Msg("Backend reports exam already submitted")
	}

	s.session.completeSubmit()

	res := Result{
		ExamID:      examID,
		Trigger:     trigger,
		Answered:    len(answers),
		Total:       s.session.QuestionCount(),
		ResultsPath: model.ResultsPath(examID),
		SubmittedAt: time.Now(),
	}

	s.log.Info().Str("results_path", res.ResultsPath).Msg("Exam submitted")

	if s.onSubmitted != nil {
		s.onSubmitted(res)
	}
	return &res, nil
}
