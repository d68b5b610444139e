package attempt

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/stemsi/exstem-client/internal/apiclient"
)

var (
	// ErrAlreadySubmitted is returned by Submit once the session reached Submitted.
	ErrAlreadySubmitted = errors.New("exam already submitted")
	// ErrSubmissionInProgress is returned by Submit while another submit is in flight.
	ErrSubmissionInProgress = errors.New("submission already in progress")
	// ErrAutoSubmitSpent is returned when the timer trigger fires after a
	// submission was already attempted; only a manual retry may follow.
	ErrAutoSubmitSpent = errors.New("automatic submission already used")
	// ErrAnswersFrozen is returned by SetAnswer after submission has begun.
	ErrAnswersFrozen = errors.New("answers are frozen")
	// ErrUnknownQuestion is returned by SetAnswer for an id not in the exam.
	ErrUnknownQuestion = errors.New("unknown question")
	// ErrNoDuration is returned by Countdown.Run when there is no time to count.
	ErrNoDuration = errors.New("session has no remaining time")
)

// IsGuardError reports whether err is one of the submit guard refusals,
// which carry no side effects and need no user attention.
func IsGuardError(err error) bool {
	return errors.Is(err, ErrAlreadySubmitted) ||
		errors.Is(err, ErrSubmissionInProgress) ||
		errors.Is(err, ErrAutoSubmitSpent)
}

// LoadErrorKind classifies why an exam could not be loaded.
type LoadErrorKind int

const (
	LoadUnknown LoadErrorKind = iota
	LoadUnauthenticated
	LoadForbidden
	LoadNotFound
	LoadExamNotStarted
	LoadExamEnded
)

func (k LoadErrorKind) String() string {
	switch k {
	case LoadUnauthenticated:
		return "unauthenticated"
	case LoadForbidden:
		return "forbidden"
	case LoadNotFound:
		return "not_found"
	case LoadExamNotStarted:
		return "exam_not_started"
	case LoadExamEnded:
		return "exam_ended"
	default:
		return "unknown"
	}
}

// LoadError is terminal for the attempt: the timer never starts.
type LoadError struct {
	Kind   LoadErrorKind
	ExamID string
	// At is the window bound that caused ExamNotStarted/ExamEnded.
	At  *time.Time
	Err error
}

func (e *LoadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("load exam %s: %s: %v", e.ExamID, e.Kind, e.Err)
	}
	return fmt.Sprintf("load exam %s: %s", e.ExamID, e.Kind)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Message is the text shown on the full-screen error state.
func (e *LoadError) Message() string {
	switch e.Kind {
	case LoadUnauthenticated:
		return "You are not signed in or your session has expired. Please log in again."
	case LoadForbidden:
		return "You are not enrolled in this exam, or it has not been published yet."
	case LoadNotFound:
		return "This exam could not be found. Check the exam link."
	case LoadExamNotStarted:
		if e.At != nil {
			return fmt.Sprintf("This exam has not started yet. It opens at %s.", e.At.Local().Format(time.RFC1123))
		}
		return "This exam has not started yet."
	case LoadExamEnded:
		if e.At != nil {
			return fmt.Sprintf("This exam has ended. It closed at %s.", e.At.Local().Format(time.RFC1123))
		}
		return "This exam has ended."
	default:
		return "The exam could not be loaded. Please try again later."
	}
}

// classifyLoadError maps a fetch failure onto a LoadError by transport status.
func classifyLoadError(examID string, err error) *LoadError {
	kind := LoadUnknown
	switch apiclient.StatusCode(err) {
	case http.StatusUnauthorized:
		kind = LoadUnauthenticated
	case http.StatusForbidden:
		kind = LoadForbidden
	case http.StatusNotFound:
		kind = LoadNotFound
	}
	return &LoadError{Kind: kind, ExamID: examID, Err: err}
}

// SubmissionError is surfaced inline; answers are kept and only an explicit
// manual retry submits again.
type SubmissionError struct {
	ExamID  string
	Trigger Trigger
	Err     error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("submit exam %s (%s): %v", e.ExamID, e.Trigger, e.Err)
}

func (e *SubmissionError) Unwrap() error { return e.Err }

// Message is the inline text shown next to the submit action.
func (e *SubmissionError) Message() string {
	return "Your answers could not be submitted. They have been kept; please retry the submission."
}
