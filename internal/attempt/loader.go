package attempt

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-client/internal/model"
)

// ExamSource is the part of the platform API the loader needs.
type ExamSource interface {
	GetExamWindow(ctx context.Context, examID string) (*model.ExamWindow, error)
	GetQuestions(ctx context.Context, examID string) (*model.ExamPayload, error)
}

// Loader fetches one exam once and produces its Session. A Loader belongs
// to a single attempt; calling Load again returns the first outcome without
// touching the network.
type Loader struct {
	api    ExamSource
	examID string
	now    func() time.Time
	log    zerolog.Logger

	once    sync.Once
	session *Session
	err     error
}

// NewLoader creates a Loader for examID.
func NewLoader(api ExamSource, examID string, log zerolog.Logger) *Loader {
	return &Loader{
		api:    api,
		examID: examID,
		now:    time.Now,
		log:    log.With().Str("component", "exam_loader").Str("exam_id", examID).Logger(),
	}
}

// WithClock overrides the clock used for the window pre-check.
func (l *Loader) WithClock(now func() time.Time) *Loader {
	l.now = now
	return l
}

// Load runs the pre-check and the question fetch. Errors are *LoadError.
func (l *Loader) Load(ctx context.Context) (*Session, error) {
	l.once.Do(func() {
		l.session, l.err = l.load(ctx)
	})
	return l.session, l.err
}

func (l *Loader) load(ctx context.Context) (*Session, error) {
	if err := l.checkWindow(ctx); err != nil {
		return nil, err
	}

	payload, err := l.api.GetQuestions(ctx, l.examID)
	if err != nil {
		lerr := classifyLoadError(l.examID, err)
		l.log.Warn().Err(err).Str("kind", lerr.Kind.String()).Msg("Question fetch failed")
		return nil, lerr
	}

	questions, err := payload.Normalize()
	if err != nil {
		l.log.Error().Err(err).Msg("Malformed question payload")
		return nil, &LoadError{Kind: LoadUnknown, ExamID: l.examID, Err: fmt.Errorf("normalize questions: %w", err)}
	}

	if pid := string(payload.ExamID); pid != "" && pid != l.examID {
		l.log.Warn().Str("payload_exam_id", pid).Msg("Payload exam id differs from requested id")
	}

	s := newSession(l.examID, payload.Title, payload.DurationMinutes(), questions)

	l.log.Info().
		Str("title", s.Title()).
		Int("duration_minutes", s.DurationMinutes()).
		Int("questions", s.QuestionCount()).
		Msg("Exam loaded")

	return s, nil
}

// checkWindow is best-effort: a failed window fetch falls through to the
// authoritative question fetch.
func (l *Loader) checkWindow(ctx context.Context) error {
	w, err := l.api.GetExamWindow(ctx, l.examID)
	if err != nil {
		l.log.Debug().Err(err).Msg("Window pre-check skipped")
		return nil
	}

	now := l.now()
	switch {
	case w.NotStarted(now):
		return &LoadError{Kind: LoadExamNotStarted, ExamID: l.examID, At: w.StartTime}
	case w.Ended(now):
		return &LoadError{Kind: LoadExamEnded, ExamID: l.examID, At: w.EndTime}
	}
	return nil
}
