package terminal

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-client/internal/apiclient"
	"github.com/stemsi/exstem-client/internal/attempt"
	"github.com/stemsi/exstem-client/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	color.NoColor = true
}

type fakeAPI struct {
	mu        sync.Mutex
	windowErr error
	failFirst bool
	submits   []model.SubmitRequest
}

func (f *fakeAPI) GetExamWindow(ctx context.Context, examID string) (*model.ExamWindow, error) {
	if f.windowErr != nil {
		return nil, f.windowErr
	}
	return &model.ExamWindow{}, nil
}

func (f *fakeAPI) GetQuestions(ctx context.Context, examID string) (*model.ExamPayload, error) {
	one := 1
	return &model.ExamPayload{
		ExamID:   model.FlexibleID(examID),
		Title:    "Biology",
		Duration: &one,
		Questions: []model.RawQuestion{
			{ID: "q1", QuestionText: "first", Options: []string{"a", "b"}},
			{ID: "q2", QuestionText: "second", Options: []string{"c", "d"}},
			{ID: "q3", QuestionText: "third", Options: []string{"e", "f"}},
		},
	}, nil
}

func (f *fakeAPI) SubmitAnswers(ctx context.Context, examID string, req model.SubmitRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submits = append(f.submits, req)
	if f.failFirst && len(f.submits) == 1 {
		return &apiclient.StatusError{StatusCode: http.StatusBadGateway}
	}
	return nil
}

func (f *fakeAPI) GetResult(ctx context.Context, examID string) (*model.ExamResult, error) {
	return &model.ExamResult{ExamID: examID, Status: model.ResultStatusGraded, Score: 33.33, Correct: 1, Total: 3, Answered: 1}, nil
}

func (f *fakeAPI) submitted() []model.SubmitRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.SubmitRequest(nil), f.submits...)
}

type manualTicker struct{ c chan time.Time }

func (m manualTicker) C() <-chan time.Time { return m.c }
func (m manualTicker) Stop()               {}

// run drives a Runner over scripted input with a ticker that only fires
// when the test sends on ticks.
func run(t *testing.T, api *fakeAPI, in io.Reader, ticks chan time.Time) (string, error) {
	t.Helper()
	if ticks == nil {
		ticks = make(chan time.Time)
	}

	var out bytes.Buffer
	r := NewRunner(api, Options{
		ExamID:       "exam-1",
		TickInterval: time.Second,
		Ticker:       func(time.Duration) attempt.Ticker { return manualTicker{c: ticks} },
	}, in, &out, zerolog.Nop())

	err := r.Run(context.Background())
	return out.String(), err
}

func TestRunner_AnswerConfirmSubmit(t *testing.T) {
	api := &fakeAPI{}
	out, err := run(t, api, strings.NewReader("n\na B\ns\ny\n"), nil)
	require.NoError(t, err)

	assert.Contains(t, out, "Question 2 of 3")
	assert.Contains(t, out, " * B. d")
	assert.Contains(t, out, "You have answered 1 out of 3 questions. Submit your exam now? [y/N]")
	assert.Contains(t, out, "Submitted 1 of 3 answers.")
	assert.Contains(t, out, "Results: /cbt/exams/exam-1/result")
	assert.Contains(t, out, "Score: 33.33 (1 of 3 correct, 1 answered)")

	subs := api.submitted()
	require.Len(t, subs, 1)
	assert.Equal(t, []model.AnswerEntry{{QuestionID: "q2", SelectedOption: "d"}}, subs[0].Answers)
}

func TestRunner_CancelConfirmation(t *testing.T) {
	api := &fakeAPI{}
	out, err := run(t, api, strings.NewReader("s\nno\n"), nil)

	assert.ErrorIs(t, err, ErrAbandoned)
	assert.Contains(t, out, "Submission cancelled.")
	assert.Contains(t, out, "Input closed.")
	assert.Empty(t, api.submitted())
}

func TestRunner_FailedSubmitRetry(t *testing.T) {
	api := &fakeAPI{failFirst: true}
	out, err := run(t, api, strings.NewReader("a A\ns\ny\nr\n"), nil)
	require.NoError(t, err)

	assert.Contains(t, out, "Your answers could not be submitted.")
	assert.Contains(t, out, "Type r to retry.")
	assert.Contains(t, out, "Submitted 1 of 3 answers.")

	subs := api.submitted()
	require.Len(t, subs, 2)
	assert.Equal(t, subs[0], subs[1])
	assert.Equal(t, []model.AnswerEntry{{QuestionID: "q1", SelectedOption: "a"}}, subs[0].Answers)
}

func TestRunner_TimerSubmitsAutomatically(t *testing.T) {
	api := &fakeAPI{}
	pr, pw := io.Pipe()
	t.Cleanup(func() { _ = pw.Close() })

	ticks := make(chan time.Time)
	type outcome struct {
		out string
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		out, err := run(t, api, pr, ticks)
		done <- outcome{out, err}
	}()

	_, err := io.WriteString(pw, "a A\n")
	require.NoError(t, err)
	for i := 0; i < 60; i++ {
		ticks <- time.Now()
	}

	var res outcome
	select {
	case res = <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("runner did not finish after the clock ran out")
	}
	require.NoError(t, res.err)

	assert.Contains(t, res.out, "Time left: 01:00 (urgent)")
	assert.Contains(t, res.out, "Time left: 00:59 (urgent)")
	assert.Contains(t, res.out, "Time is up. Your answers were submitted automatically.")
	assert.Contains(t, res.out, "Score: 33.33")
	assert.Len(t, api.submitted(), 1)
}

func TestRunner_LoadErrorIsShown(t *testing.T) {
	api := &fakeAPI{windowErr: &apiclient.StatusError{StatusCode: http.StatusForbidden}}
	out, err := run(t, api, strings.NewReader(""), nil)

	var lerr *attempt.LoadError
	require.True(t, errors.As(err, &lerr))
	assert.Equal(t, attempt.LoadForbidden, lerr.Kind)
	assert.Contains(t, out, lerr.Message())
}

func TestRunner_Quit(t *testing.T) {
	api := &fakeAPI{}
	out, err := run(t, api, strings.NewReader("q\n"), nil)

	assert.ErrorIs(t, err, ErrAbandoned)
	assert.Contains(t, out, "Leaving the exam without submitting.")
	assert.Empty(t, api.submitted())
}

func TestRunner_CommandErrors(t *testing.T) {
	api := &fakeAPI{}
	out, err := run(t, api, strings.NewReader("p\ng 9\ng x\na Z\nr\nwhat\ng 3\nn\n"), nil)
	assert.ErrorIs(t, err, ErrAbandoned)

	for _, want := range []string{
		"Already at the first question.",
		`There is no question "9".`,
		`There is no question "x".`,
		`Option "Z" does not exist for this question.`,
		"There is no failed submission to retry.",
		`Unknown command "what". Type h for help.`,
		"Question 3 of 3",
		"Already at the last question.",
	} {
		assert.Contains(t, out, want)
	}
}

func TestOptionLetters(t *testing.T) {
	assert.Equal(t, "A", OptionLetter(0))
	assert.Equal(t, "D", OptionLetter(3))
	assert.Equal(t, 0, optionIndex("a"))
	assert.Equal(t, 2, optionIndex(" C "))
	assert.Equal(t, -1, optionIndex("AB"))
	assert.Equal(t, -1, optionIndex("1"))
	assert.Equal(t, -1, optionIndex(""))
}
