package attempt

import (
	"math"
	"sync"

	"github.com/stemsi/exstem-client/internal/model"
)

// AnswerBuffer records the selected option per question until submission.
// Keys are restricted to the exam's question ids and the last write wins.
type AnswerBuffer struct {
	mu      sync.RWMutex
	known   map[string]struct{}
	total   int
	answers map[string]string
	order   []string // first-answer order, keeps snapshots stable
	frozen  bool
}

// NewAnswerBuffer creates an empty buffer for the given questions.
func NewAnswerBuffer(questions []model.Question) *AnswerBuffer {
	known := make(map[string]struct{}, len(questions))
	for _, q := range questions {
		known[q.ID] = struct{}{}
	}
	return &AnswerBuffer{
		known:   known,
		total:   len(questions),
		answers: make(map[string]string, len(questions)),
	}
}

// Set records option for questionID, overwriting any previous selection.
func (b *AnswerBuffer) Set(questionID, option string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frozen {
		return ErrAnswersFrozen
	}
	if _, ok := b.known[questionID]; !ok {
		return ErrUnknownQuestion
	}
	if _, seen := b.answers[questionID]; !seen {
		b.order = append(b.order, questionID)
	}
	b.answers[questionID] = option
	return nil
}

// Get returns the selected option for questionID.
func (b *AnswerBuffer) Get(questionID string) (string, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	v, ok := b.answers[questionID]
	return v, ok
}

// Count returns how many questions have an answer.
func (b *AnswerBuffer) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.answers)
}

// Total returns the number of questions in the exam.
func (b *AnswerBuffer) Total() int {
	return b.total
}

// ProgressPercent is round(100 * answered / total), or 0 for an empty exam.
func (b *AnswerBuffer) ProgressPercent() int {
	return progressPercent(b.Count(), b.total)
}

func progressPercent(answered, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(answered) / float64(total) * 100))
}

// Snapshot copies the buffer into the submission wire form.
func (b *AnswerBuffer) Snapshot() []model.AnswerEntry {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]model.AnswerEntry, 0, len(b.order))
	for _, id := range b.order {
		out = append(out, model.AnswerEntry{QuestionID: id, SelectedOption: b.answers[id]})
	}
	return out
}

// Freeze rejects every later Set.
func (b *AnswerBuffer) Freeze() {
	b.mu.Lock()
	b.frozen = true
	b.mu.Unlock()
}

// Frozen reports whether the buffer accepts writes.
func (b *AnswerBuffer) Frozen() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.frozen
}
