package attempt

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Ticker is the periodic source driving the countdown.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TickerFactory creates a Ticker firing every d.
type TickerFactory func(d time.Duration) Ticker

type timeTicker struct{ t *time.Ticker }

func (t timeTicker) C() <-chan time.Time { return t.t.C }
func (t timeTicker) Stop()               { t.t.Stop() }

// NewTimeTicker wraps time.NewTicker.
func NewTimeTicker(d time.Duration) Ticker {
	return timeTicker{t: time.NewTicker(d)}
}

// Countdown decrements the session clock once per interval and fires the
// submitter's timer trigger at zero. Its lifetime is bounded by the context
// passed to Run; cancelling it is the teardown.
type Countdown struct {
	session   *Session
	submitter *Submitter
	interval  time.Duration
	newTicker TickerFactory
	onTick    func(remaining int)
	log       zerolog.Logger
}

// NewCountdown creates a countdown ticking every interval.
func NewCountdown(session *Session, submitter *Submitter, interval time.Duration, log zerolog.Logger) *Countdown {
	if interval <= 0 {
		interval = time.Second
	}
	return &Countdown{
		session:   session,
		submitter: submitter,
		interval:  interval,
		newTicker: NewTimeTicker,
		log:       log.With().Str("component", "countdown").Str("exam_id", session.ExamID()).Logger(),
	}
}

// WithTicker overrides the tick source.
func (c *Countdown) WithTicker(f TickerFactory) *Countdown {
	c.newTicker = f
	return c
}

// OnTick registers fn to run after every decrement with the new value.
func (c *Countdown) OnTick(fn func(remaining int)) *Countdown {
	c.onTick = fn
	return c
}

// Run blocks until the clock hits zero, submission begins, or ctx is done.
// When it hits zero it returns the outcome of the automatic submission.
func (c *Countdown) Run(ctx context.Context) error {
	if c.session.DurationMinutes() <= 0 || c.session.Remaining() <= 0 {
		return ErrNoDuration
	}

	t := c.newTicker(c.interval)
	defer t.Stop()

	c.log.Debug().Int("remaining", c.session.Remaining()).Msg("Countdown started")

	for {
		select {
		case <-ctx.Done():
			c.log.Debug().Msg("Countdown torn down")
			return ctx.Err()

		case <-c.session.Stopped():
			c.log.Debug().Msg("Countdown stopped by submission")
			return nil

		case <-t.C():
			remaining, active := c.session.tick()
			if !active {
				return nil
			}
			if c.onTick != nil {
				c.onTick(remaining)
			}
			if remaining > 0 {
				continue
			}

			c.log.Info().Msg("Time is up, submitting automatically")
			_, err := c.submitter.Submit(ctx, TriggerTimer)
			if err != nil && IsGuardError(err) {
				return nil
			}
			return err
		}
	}
}
