// Package terminal is the interactive front end of one exam attempt: it
// loads the exam, runs the countdown and turns typed commands into
// navigation, answers and submission.
package terminal

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-client/internal/attempt"
	"github.com/stemsi/exstem-client/internal/model"
)

// ErrAbandoned is returned when the student leaves before submitting.
var ErrAbandoned = errors.New("exam abandoned before submission")

// API is everything the attempt needs from the platform.
type API interface {
	attempt.ExamSource
	attempt.AnswerSink
	GetResult(ctx context.Context, examID string) (*model.ExamResult, error)
}

// Options configures a Runner.
type Options struct {
	ExamID       string
	TickInterval time.Duration
	// Ticker overrides the countdown tick source.
	Ticker attempt.TickerFactory
	// Clock overrides the clock used for the exam window pre-check.
	Clock func() time.Time
}

// Runner drives one attempt from load to results view.
type Runner struct {
	api    API
	opts   Options
	in     io.Reader
	screen *Screen
	log    zerolog.Logger
}

// NewRunner reads commands from in and renders to out.
func NewRunner(api API, opts Options, in io.Reader, out io.Writer, log zerolog.Logger) *Runner {
	return &Runner{
		api:    api,
		opts:   opts,
		in:     in,
		screen: NewScreen(out),
		log:    log.With().Str("component", "terminal").Str("exam_id", opts.ExamID).Logger(),
	}
}

// Run blocks until the exam is submitted and its result shown, the student
// quits, input ends, or ctx is cancelled. Leaving tears the countdown down.
func (r *Runner) Run(ctx context.Context) error {
	loader := attempt.NewLoader(r.api, r.opts.ExamID, r.log)
	if r.opts.Clock != nil {
		loader.WithClock(r.opts.Clock)
	}

	sess, err := loader.Load(ctx)
	if err != nil {
		var lerr *attempt.LoadError
		if errors.As(err, &lerr) {
			r.screen.Alert("%s", lerr.Message())
		}
		return err
	}

	var failed atomic.Bool
	sub := attempt.NewSubmitter(r.api, sess, r.log).
		OnSubmitted(func(res attempt.Result) {
			if res.Trigger == attempt.TriggerTimer {
				r.screen.Printf("Time is up. Your answers were submitted automatically.")
			}
			r.screen.Printf("Submitted %d of %d answers.", res.Answered, res.Total)
		}).
		OnFailed(func(serr *attempt.SubmissionError) {
			failed.Store(true)
			r.screen.Alert("%s", serr.Message())
			r.screen.Printf("Your answers are kept. Type r to retry.")
		})

	cd := attempt.NewCountdown(sess, sub, r.opts.TickInterval, r.log).OnTick(r.announce())
	if r.opts.Ticker != nil {
		cd.WithTicker(r.opts.Ticker)
	}

	attemptCtx, cancel := context.WithCancel(ctx)
	cdDone := make(chan struct{})
	go func() {
		defer close(cdDone)
		if err := cd.Run(attemptCtx); err != nil && !errors.Is(err, context.Canceled) {
			r.log.Debug().Err(err).Msg("Countdown ended with error")
		}
	}()
	defer func() {
		cancel()
		<-cdDone
	}()

	r.screen.Intro(sess)
	r.screen.Question(sess)

	lines := r.readLines(attemptCtx)
	confirming := false

	for {
		// A finished submission wins over queued input.
		select {
		case <-sess.Done():
			return r.showResult(ctx, sess)
		default:
		}

		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-sess.Done():
			return r.showResult(ctx, sess)

		case line, ok := <-lines:
			if !ok {
				r.screen.Printf("Input closed. Leaving the exam without submitting.")
				return ErrAbandoned
			}

			if confirming {
				confirming = false
				if isYes(line) {
					r.submit(ctx, sub, &failed)
				} else {
					r.screen.Printf("Submission cancelled.")
				}
				continue
			}

			quit, ask := r.handle(ctx, sess, sub, &failed, line)
			if quit {
				r.screen.Printf("Leaving the exam without submitting.")
				return ErrAbandoned
			}
			confirming = ask
		}
	}
}

// handle runs one command. It reports whether the student quit and whether
// a submit confirmation is now pending.
func (r *Runner) handle(ctx context.Context, sess *attempt.Session, sub *attempt.Submitter, failed *atomic.Bool, line string) (bool, bool) {
	cmd, arg := splitCommand(line)
	nav := sess.Navigator()

	switch cmd {
	case "":
		r.screen.Question(sess)

	case "n":
		if !nav.Next() {
			r.screen.Printf("Already at the last question.")
			return false, false
		}
		r.screen.Question(sess)

	case "p":
		if !nav.Previous() {
			r.screen.Printf("Already at the first question.")
			return false, false
		}
		r.screen.Question(sess)

	case "g":
		n, err := strconv.Atoi(arg)
		if err != nil || !nav.GoTo(n-1) {
			r.screen.Printf("There is no question %q.", arg)
			return false, false
		}
		r.screen.Question(sess)

	case "a":
		r.answer(sess, arg)

	case "s":
		switch sess.State() {
		case attempt.Submitting:
			r.screen.Printf("Your answers are being submitted.")
		case attempt.Submitted:
			r.screen.Printf("This exam has already been submitted.")
		default:
			r.screen.Printf("%s [y/N]", sess.ConfirmationPrompt())
			return false, true
		}

	case "r":
		if !failed.Load() {
			r.screen.Printf("There is no failed submission to retry.")
			return false, false
		}
		r.submit(ctx, sub, failed)

	case "t":
		r.screen.Timer(sess.Remaining())

	case "h", "?":
		r.screen.Printf(helpText)

	case "q":
		return true, false

	default:
		r.screen.Printf("Unknown command %q. Type h for help.", cmd)
	}
	return false, false
}

func (r *Runner) answer(sess *attempt.Session, arg string) {
	q, _, ok := sess.CurrentQuestion()
	if !ok {
		r.screen.Printf("This exam has no questions.")
		return
	}

	idx := optionIndex(arg)
	if idx < 0 || idx >= len(q.Options) {
		r.screen.Printf("Option %q does not exist for this question.", arg)
		return
	}

	if err := sess.SetAnswer(q.ID, q.Options[idx]); err != nil {
		if errors.Is(err, attempt.ErrAnswersFrozen) {
			r.screen.Printf("Answers can no longer be changed.")
			return
		}
		r.screen.Alert("Could not record the answer: %v", err)
		return
	}
	r.screen.Question(sess)
}

func (r *Runner) submit(ctx context.Context, sub *attempt.Submitter, failed *atomic.Bool) {
	failed.Store(false)
	_, err := sub.Submit(ctx, attempt.TriggerManual)
	switch {
	case err == nil:
	case errors.Is(err, attempt.ErrAlreadySubmitted):
		r.screen.Printf("This exam has already been submitted.")
	case errors.Is(err, attempt.ErrSubmissionInProgress):
		r.screen.Printf("Your answers are being submitted.")
	}
	// A *SubmissionError was already reported by the OnFailed hook.
}

// announce prints the clock whenever the urgency tier changes.
func (r *Runner) announce() func(int) {
	var last atomic.Int32
	last.Store(int32(attempt.UrgencyNormal))
	return func(remaining int) {
		tier := attempt.UrgencyFor(remaining)
		if int32(tier) != last.Swap(int32(tier)) && remaining > 0 {
			r.screen.Timer(remaining)
		}
	}
}

func (r *Runner) showResult(ctx context.Context, sess *attempt.Session) error {
	r.screen.Printf("Results: %s", model.ResultsPath(sess.ExamID()))

	res, err := r.api.GetResult(ctx, sess.ExamID())
	if err != nil {
		r.log.Debug().Err(err).Msg("Result fetch failed")
		res = nil
	}
	r.screen.Result(sess.ExamID(), res)
	return nil
}

// readLines feeds input lines until EOF or ctx is done.
func (r *Runner) readLines(ctx context.Context) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(r.in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	return lines
}

func splitCommand(line string) (string, string) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", ""
	}
	return strings.ToLower(fields[0]), strings.Join(fields[1:], " ")
}

func isYes(line string) bool {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}
