package attempt

import (
	"testing"

	"github.com/stemsi/exstem-client/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func threeQuestions() []model.Question {
	return []model.Question{
		{ID: "q1", Text: "one", Options: []string{"A", "B"}},
		{ID: "q2", Text: "two", Options: []string{"A", "B"}},
		{ID: "q3", Text: "three", Options: []string{"A", "B"}},
	}
}

func TestAnswerBuffer_LastWriteWins(t *testing.T) {
	b := NewAnswerBuffer(threeQuestions())

	require.NoError(t, b.Set("q1", "A"))
	got, ok := b.Get("q1")
	assert.True(t, ok)
	assert.Equal(t, "A", got)

	require.NoError(t, b.Set("q1", "B"))
	got, _ = b.Get("q1")
	assert.Equal(t, "B", got)
	assert.Equal(t, 1, b.Count())
}

func TestAnswerBuffer_RejectsUnknownQuestion(t *testing.T) {
	b := NewAnswerBuffer(threeQuestions())

	err := b.Set("q9", "A")
	assert.ErrorIs(t, err, ErrUnknownQuestion)
	assert.Equal(t, 0, b.Count())
	assert.Empty(t, b.Snapshot())
}

func TestAnswerBuffer_ProgressPercent(t *testing.T) {
	tests := []struct {
		answered, total, want int
	}{
		{0, 0, 0},
		{0, 3, 0},
		{1, 3, 33},
		{2, 3, 67},
		{1, 2, 50},
		{3, 5, 60},
		{5, 5, 100},
		{1, 8, 13},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, progressPercent(tt.answered, tt.total), "%d/%d", tt.answered, tt.total)
	}
}

func TestAnswerBuffer_ProgressPercentEmptyExam(t *testing.T) {
	b := NewAnswerBuffer(nil)
	assert.Equal(t, 0, b.ProgressPercent())
	assert.Equal(t, 0, b.Total())
}

func TestAnswerBuffer_SnapshotKeepsFirstAnswerOrder(t *testing.T) {
	b := NewAnswerBuffer(threeQuestions())
	require.NoError(t, b.Set("q3", "A"))
	require.NoError(t, b.Set("q1", "B"))
	require.NoError(t, b.Set("q3", "B"))

	assert.Equal(t, []model.AnswerEntry{
		{QuestionID: "q3", SelectedOption: "B"},
		{QuestionID: "q1", SelectedOption: "B"},
	}, b.Snapshot())
}

func TestAnswerBuffer_FreezeBlocksWrites(t *testing.T) {
	b := NewAnswerBuffer(threeQuestions())
	require.NoError(t, b.Set("q1", "A"))
	snap := b.Snapshot()

	b.Freeze()
	assert.True(t, b.Frozen())
	assert.ErrorIs(t, b.Set("q2", "A"), ErrAnswersFrozen)

	got, _ := b.Get("q1")
	assert.Equal(t, "A", got)
	assert.Equal(t, snap, b.Snapshot())
}
