package attempt

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/stemsi/exstem-client/internal/model"
)

// SubmissionState is the submit lifecycle of a session.
type SubmissionState int32

const (
	NotSubmitted SubmissionState = iota
	Submitting
	Submitted
)

func (s SubmissionState) String() string {
	switch s {
	case NotSubmitted:
		return "not_submitted"
	case Submitting:
		return "submitting"
	case Submitted:
		return "submitted"
	default:
		return fmt.Sprintf("submission_state(%d)", int32(s))
	}
}

// Session is the in-memory state of one pass through an exam. It is owned
// by the front end that loaded it and discarded when that front end exits.
type Session struct {
	examID          string
	title           string
	durationMinutes int
	questions       []model.Question

	buffer *AnswerBuffer
	nav    *Navigator

	mu        sync.Mutex
	remaining int
	expired   bool

	state    atomic.Int32
	stopOnce sync.Once
	stopped  chan struct{}
	doneOnce sync.Once
	done     chan struct{}
}

func newSession(examID, title string, durationMinutes int, questions []model.Question) *Session {
	return &Session{
		examID:          examID,
		title:           title,
		durationMinutes: durationMinutes,
		questions:       questions,
		buffer:          NewAnswerBuffer(questions),
		nav:             NewNavigator(len(questions)),
		remaining:       durationMinutes * 60,
		stopped:         make(chan struct{}),
		done:            make(chan struct{}),
	}
}

func (s *Session) ExamID() string         { return s.examID }
func (s *Session) Title() string          { return s.title }
func (s *Session) DurationMinutes() int   { return s.durationMinutes }
func (s *Session) Buffer() *AnswerBuffer  { return s.buffer }
func (s *Session) Navigator() *Navigator  { return s.nav }
func (s *Session) QuestionCount() int     { return len(s.questions) }
func (s *Session) State() SubmissionState { return SubmissionState(s.state.Load()) }

// Questions returns a copy of the question list.
func (s *Session) Questions() []model.Question {
	out := make([]model.Question, len(s.questions))
	copy(out, s.questions)
	return out
}

// Question returns the question at index.
func (s *Session) Question(index int) (model.Question, bool) {
	if index < 0 || index >= len(s.questions) {
		return model.Question{}, false
	}
	return s.questions[index], true
}

// CurrentQuestion returns the question the navigator points at.
func (s *Session) CurrentQuestion() (model.Question, int, bool) {
	idx := s.nav.Current()
	q, ok := s.Question(idx)
	return q, idx, ok
}

// SetAnswer records option for questionID.
func (s *Session) SetAnswer(questionID, option string) error {
	if s.State() != NotSubmitted {
		return ErrAnswersFrozen
	}
	return s.buffer.Set(questionID, option)
}

// Remaining returns the seconds left on the clock.
func (s *Session) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remaining
}

// Expired reports whether the clock reached zero.
func (s *Session) Expired() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expired
}

// Urgency returns the presentation tier for the time left.
func (s *Session) Urgency() Urgency {
	return UrgencyFor(s.Remaining())
}

// ConfirmationPrompt is the informational text shown before a manual submit.
// Partial completion is allowed.
func (s *Session) ConfirmationPrompt() string {
	return fmt.Sprintf("You have answered %d out of %d questions. Submit your exam now?",
		s.buffer.Count(), len(s.questions))
}

// Stopped is closed once submission has begun; the countdown exits on it.
func (s *Session) Stopped() <-chan struct{} { return s.stopped }

// Done is closed once the session reaches Submitted.
func (s *Session) Done() <-chan struct{} { return s.done }

// tick decrements the clock by one second. It reports false, leaving the
// clock untouched, once submission has begun.
func (s *Session) tick() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.State() != NotSubmitted {
		return s.remaining, false
	}
	if s.remaining > 0 {
		s.remaining--
	}
	if s.remaining == 0 {
		s.expired = true
	}
	return s.remaining, true
}

// beginSubmit is the single compare-and-set out of NotSubmitted. The
// winner freezes the buffer and stops the countdown for good.
func (s *Session) beginSubmit() bool {
	if !s.state.CompareAndSwap(int32(NotSubmitted), int32(Submitting)) {
		return false
	}
	s.buffer.Freeze()
	s.stopOnce.Do(func() { close(s.stopped) })
	return true
}

func (s *Session) completeSubmit() {
	s.state.Store(int32(Submitted))
	s.doneOnce.Do(func() { close(s.done) })
}

// rollbackSubmit reopens the guard after a failed POST. The countdown stays
// stopped and the buffer stays frozen, so only a manual retry can follow.
func (s *Session) rollbackSubmit() {
	s.state.CompareAndSwap(int32(Submitting), int32(NotSubmitted))
}
