package attempt

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCountdown(c *Countdown, ctx context.Context) <-chan error {
	errCh := make(chan error, 1)
	go func() { errCh <- c.Run(ctx) }()
	return errCh
}

func waitErr(t *testing.T, errCh <-chan error) error {
	t.Helper()
	select {
	case err := <-errCh:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("countdown did not return")
		return nil
	}
}

func TestCountdown_AutoSubmitsOnceAtZero(t *testing.T) {
	s, api := loadSession(t, 4, intPtr(1))
	ticker := newManualTicker()

	var submitted []Result
	sub := NewSubmitter(api, s, testLog).OnSubmitted(func(r Result) { submitted = append(submitted, r) })

	var seen []int
	cd := NewCountdown(s, sub, time.Second, testLog).
		WithTicker(ticker.factory()).
		OnTick(func(remaining int) { seen = append(seen, remaining) })

	errCh := runCountdown(cd, context.Background())
	for i := 0; i < 60; i++ {
		ticker.ch <- time.Now()
	}
	require.NoError(t, waitErr(t, errCh))

	assert.Equal(t, 0, s.Remaining())
	assert.True(t, s.Expired())
	assert.Equal(t, Submitted, s.State())
	assert.True(t, ticker.isStopped())

	require.Equal(t, 1, api.submitCount())
	req := api.lastSubmit()
	assert.NotNil(t, req.Answers)
	assert.Empty(t, req.Answers)
	assert.Equal(t, "submitted", req.Status)
	assert.Equal(t, "exam-1", req.ExamID)

	require.Len(t, submitted, 1)
	assert.Equal(t, TriggerTimer, submitted[0].Trigger)
	assert.Equal(t, "/cbt/exams/exam-1/result", submitted[0].ResultsPath)

	require.Len(t, seen, 60)
	for i := 1; i < len(seen); i++ {
		assert.Less(t, seen[i], seen[i-1])
	}
	assert.Equal(t, 0, seen[len(seen)-1])
}

func TestCountdown_StopsWhenSubmissionBegins(t *testing.T) {
	s, api := loadSession(t, 2, intPtr(1))
	ticker := newManualTicker()
	sub := NewSubmitter(api, s, testLog)
	cd := NewCountdown(s, sub, time.Second, testLog).WithTicker(ticker.factory())

	errCh := runCountdown(cd, context.Background())
	ticker.ch <- time.Now()
	ticker.ch <- time.Now()
	require.Eventually(t, func() bool { return s.Remaining() == 58 }, time.Second, time.Millisecond)

	_, err := sub.Submit(context.Background(), TriggerManual)
	require.NoError(t, err)

	require.NoError(t, waitErr(t, errCh))
	assert.Equal(t, 58, s.Remaining())
	assert.Equal(t, 1, api.submitCount())
}

func TestCountdown_TeardownCancelsTicking(t *testing.T) {
	s, api := loadSession(t, 2, intPtr(1))
	ticker := newManualTicker()
	cd := NewCountdown(s, NewSubmitter(api, s, testLog), time.Second, testLog).WithTicker(ticker.factory())

	ctx, cancel := context.WithCancel(context.Background())
	errCh := runCountdown(cd, ctx)
	ticker.ch <- time.Now()
	cancel()

	err := waitErr(t, errCh)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.True(t, ticker.isStopped())
	assert.Equal(t, 59, s.Remaining())
	assert.Equal(t, 0, api.submitCount())
}

func TestCountdown_TickAfterSubmitDoesNotDecrement(t *testing.T) {
	s, api := loadSession(t, 1, intPtr(1))
	_, err := NewSubmitter(api, s, testLog).Submit(context.Background(), TriggerManual)
	require.NoError(t, err)

	remaining, active := s.tick()
	assert.False(t, active)
	assert.Equal(t, 60, remaining)
}

func TestCountdown_RemainingNeverNegative(t *testing.T) {
	s, _ := loadSession(t, 1, intPtr(1))
	for i := 0; i < 200; i++ {
		s.tick()
	}
	assert.Equal(t, 0, s.Remaining())
}

func TestCountdown_AutoSubmitFailureSurfaces(t *testing.T) {
	s, api := loadSession(t, 2, intPtr(1))
	api.submitErrs = []error{errors.New("boom")}
	ticker := newManualTicker()

	var failed []*SubmissionError
	sub := NewSubmitter(api, s, testLog).OnFailed(func(e *SubmissionError) { failed = append(failed, e) })
	cd := NewCountdown(s, sub, time.Second, testLog).WithTicker(ticker.factory())

	errCh := runCountdown(cd, context.Background())
	for i := 0; i < 60; i++ {
		ticker.ch <- time.Now()
	}
	err := waitErr(t, errCh)

	var serr *SubmissionError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, TriggerTimer, serr.Trigger)
	assert.Len(t, failed, 1)
	assert.Equal(t, NotSubmitted, s.State())
	assert.True(t, s.Buffer().Frozen())

	// The timer path is spent; only a manual retry submits.
	_, err = sub.Submit(context.Background(), TriggerTimer)
	assert.ErrorIs(t, err, ErrAutoSubmitSpent)
	assert.Equal(t, 1, api.submitCount())

	_, err = sub.Submit(context.Background(), TriggerManual)
	require.NoError(t, err)
	assert.Equal(t, Submitted, s.State())
	assert.Equal(t, 2, api.submitCount())
}

func TestUrgencyFor(t *testing.T) {
	assert.Equal(t, UrgencyNormal, UrgencyFor(601))
	assert.Equal(t, UrgencyWarning, UrgencyFor(600))
	assert.Equal(t, UrgencyWarning, UrgencyFor(301))
	assert.Equal(t, UrgencyUrgent, UrgencyFor(300))
	assert.Equal(t, UrgencyUrgent, UrgencyFor(0))
}

func TestFormatClock(t *testing.T) {
	assert.Equal(t, "00:00", FormatClock(0))
	assert.Equal(t, "00:00", FormatClock(-3))
	assert.Equal(t, "09:05", FormatClock(545))
	assert.Equal(t, "1:00:00", FormatClock(3600))
	assert.Equal(t, "2:03:04", FormatClock(7384))
}
