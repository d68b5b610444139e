package terminal

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/stemsi/exstem-client/internal/attempt"
	"github.com/stemsi/exstem-client/internal/model"
)

// Screen serializes all output of one attempt. The countdown goroutine and
// the input loop both write through it.
type Screen struct {
	mu  sync.Mutex
	out io.Writer

	tiers map[attempt.Urgency]*color.Color
	title *color.Color
	faint *color.Color
	alert *color.Color
}

// NewScreen writes to out.
func NewScreen(out io.Writer) *Screen {
	return &Screen{
		out: out,
		tiers: map[attempt.Urgency]*color.Color{
			attempt.UrgencyNormal:  color.New(color.FgGreen),
			attempt.UrgencyWarning: color.New(color.FgYellow, color.Bold),
			attempt.UrgencyUrgent:  color.New(color.FgRed, color.Bold),
		},
		title: color.New(color.FgCyan, color.Bold),
		faint: color.New(color.Faint),
		alert: color.New(color.FgRed),
	}
}

// Printf writes a plain line.
func (s *Screen) Printf(format string, args ...interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.out, format+"\n", args...)
}

// Alert writes a highlighted error line.
func (s *Screen) Alert(format string, args ...interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alert.Fprintf(s.out, format+"\n", args...)
}

// Timer prints the clock in the colour of its urgency tier.
func (s *Screen) Timer(remaining int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timerLine(remaining)
}

func (s *Screen) timerLine(remaining int) {
	tier := attempt.UrgencyFor(remaining)
	s.tiers[tier].Fprintf(s.out, "Time left: %s", attempt.FormatClock(remaining))
	if tier != attempt.UrgencyNormal {
		fmt.Fprintf(s.out, " (%s)", tier)
	}
	fmt.Fprintln(s.out)
}

// Intro prints the exam header once after loading.
func (s *Screen) Intro(sess *attempt.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.title.Fprintf(s.out, "%s\n", sess.Title())
	fmt.Fprintf(s.out, "%d questions, %d minutes.\n", sess.QuestionCount(), sess.DurationMinutes())
	s.faint.Fprintln(s.out, helpText)
}

// Question renders the current question with its options and the answer
// chosen so far.
func (s *Screen) Question(sess *attempt.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fmt.Fprintln(s.out)
	s.timerLine(sess.Remaining())

	q, idx, ok := sess.CurrentQuestion()
	if !ok {
		fmt.Fprintln(s.out, "This exam has no questions.")
		return
	}

	buf := sess.Buffer()
	s.title.Fprintf(s.out, "Question %d of %d", idx+1, sess.QuestionCount())
	fmt.Fprintf(s.out, "  [answered %d/%d, %d%%]\n", buf.Count(), buf.Total(), buf.ProgressPercent())
	fmt.Fprintln(s.out, q.Text)

	chosen, answered := buf.Get(q.ID)
	for i, opt := range q.Options {
		letter := OptionLetter(i)
		mark := " "
		if answered && opt == chosen {
			mark = "*"
		}
		fmt.Fprintf(s.out, " %s %s. %s\n", mark, letter, opt)
	}
}

// Result prints the results view.
func (s *Screen) Result(examID string, res *model.ExamResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.title.Fprintf(s.out, "Result for exam %s\n", examID)
	if res == nil {
		fmt.Fprintln(s.out, "Your result is not available yet.")
		return
	}
	if res.Status != model.ResultStatusGraded {
		fmt.Fprintf(s.out, "Your submission (%d answered) is being graded.\n", res.Answered)
		return
	}
	fmt.Fprintf(s.out, "Score: %.2f (%d of %d correct, %d answered)\n", res.Score, res.Correct, res.Total, res.Answered)
}

// OptionLetter maps an option index to its on-screen label: 0 → "A".
// Labels are for typing only; the option text is what gets recorded.
func OptionLetter(i int) string {
	return string(rune('A' + i))
}

// optionIndex maps a letter back to an option index, or -1.
func optionIndex(letter string) int {
	letter = strings.ToUpper(strings.TrimSpace(letter))
	if len(letter) != 1 || letter[0] < 'A' || letter[0] > 'Z' {
		return -1
	}
	return int(letter[0] - 'A')
}

const helpText = "Commands: n next, p previous, g <num> go to, a <letter> answer, s submit, r retry submit, t time, h help, q quit"
