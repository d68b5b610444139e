package attempt

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-client/internal/model"
	"github.com/stretchr/testify/require"
)

var testLog = zerolog.New(io.Discard)

// fakeAPI is an in-memory ExamSource and AnswerSink that records calls.
type fakeAPI struct {
	mu sync.Mutex

	window    *model.ExamWindow
	windowErr error

	payload      *model.ExamPayload
	questionsErr error

	windowCalls   int
	questionCalls int

	submits    []model.SubmitRequest
	submitErrs []error

	// gate, when set, blocks SubmitAnswers until closed; entered receives
	// once per call before blocking.
	gate    chan struct{}
	entered chan struct{}
}

func (f *fakeAPI) GetExamWindow(_ context.Context, _ string) (*model.ExamWindow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.windowCalls++
	if f.windowErr != nil {
		return nil, f.windowErr
	}
	if f.window == nil {
		return &model.ExamWindow{}, nil
	}
	return f.window, nil
}

func (f *fakeAPI) GetQuestions(_ context.Context, _ string) (*model.ExamPayload, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.questionCalls++
	if f.questionsErr != nil {
		return nil, f.questionsErr
	}
	return f.payload, nil
}

func (f *fakeAPI) SubmitAnswers(_ context.Context, _ string, req model.SubmitRequest) error {
	f.mu.Lock()
	f.submits = append(f.submits, req)
	var err error
	if len(f.submitErrs) > 0 {
		err = f.submitErrs[0]
		f.submitErrs = f.submitErrs[1:]
	}
	gate, entered := f.gate, f.entered
	f.mu.Unlock()

	if entered != nil {
		entered <- struct{}{}
	}
	if gate != nil {
		<-gate
	}
	return err
}

func (f *fakeAPI) submitCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.submits)
}

func (f *fakeAPI) lastSubmit() model.SubmitRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submits[len(f.submits)-1]
}

func intPtr(n int) *int { return &n }

// newPayload builds a payload of n questions with ids q1..qn and four options.
func newPayload(n int, duration *int) *model.ExamPayload {
	p := &model.ExamPayload{ExamID: "exam-1", Title: "Physics", Duration: duration}
	for i := 1; i <= n; i++ {
		p.Questions = append(p.Questions, model.RawQuestion{
			ID:           model.FlexibleID(fmt.Sprintf("q%d", i)),
			QuestionText: fmt.Sprintf("Question %d", i),
			Options:      []string{"A", "B", "C", "D"},
		})
	}
	return p
}

// loadSession loads a session of n questions from a fresh fake API.
func loadSession(t *testing.T, n int, duration *int) (*Session, *fakeAPI) {
	t.Helper()
	api := &fakeAPI{payload: newPayload(n, duration)}
	s, err := NewLoader(api, "exam-1", testLog).Load(context.Background())
	require.NoError(t, err)
	return s, api
}

// manualTicker delivers ticks only when the test sends them.
type manualTicker struct {
	ch      chan time.Time
	mu      sync.Mutex
	stopped bool
}

func newManualTicker() *manualTicker {
	return &manualTicker{ch: make(chan time.Time)}
}

func (m *manualTicker) C() <-chan time.Time { return m.ch }

func (m *manualTicker) Stop() {
	m.mu.Lock()
	m.stopped = true
	m.mu.Unlock()
}

func (m *manualTicker) isStopped() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopped
}

func (m *manualTicker) factory() TickerFactory {
	return func(time.Duration) Ticker { return m }
}
