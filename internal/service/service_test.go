package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-client/internal/config"
	"github.com/stemsi/exstem-client/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func chemExam() model.FixtureExam {
	return model.FixtureExam{
		ID:          "chem-201",
		Title:       "Chemistry",
		Published:   true,
		EnrolledIDs: []int{1},
		Questions: []model.RawQuestion{
			{MongoID: "9001", Text: "moles", Options: []string{"a", "b"}},
			{MongoID: "9002", Text: "avogadro", Options: []string{"c", "d"}},
		},
		AnswerKey: map[string]string{"9001": "b", "9002": "c"},
	}
}

func TestExamService_WarmAndAccess(t *testing.T) {
	_, rdb := newRedis(t)
	exams := NewExamService(rdb, zerolog.Nop())
	ctx := context.Background()

	draft := chemExam()
	draft.ID, draft.Published = "draft", false
	empty := chemExam()
	empty.ID, empty.Questions = "empty", nil

	require.NoError(t, exams.PrewarmAllCaches(ctx, []model.FixtureExam{chemExam(), draft, empty}))

	paper, err := exams.GetPaper(ctx, "chem-201", 1)
	require.NoError(t, err)
	assert.Equal(t, 60, paper.DurationMinutes())
	qs, err := paper.Normalize()
	require.NoError(t, err)
	assert.Equal(t, "9001", qs[0].ID)

	_, err = exams.GetPaper(ctx, "chem-201", 2)
	assert.ErrorIs(t, err, ErrNotEnrolled)
	_, err = exams.GetPaper(ctx, "draft", 1)
	assert.ErrorIs(t, err, ErrExamNotPublished)
	_, err = exams.GetWindow(ctx, "empty")
	assert.ErrorIs(t, err, ErrExamNotFound)

	key, err := exams.GetAnswerKey(ctx, "chem-201")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"9001": "b", "9002": "c"}, key)
}

func TestExamService_PrewarmFailsWhenNothingWarms(t *testing.T) {
	_, rdb := newRedis(t)
	exams := NewExamService(rdb, zerolog.Nop())

	empty := chemExam()
	empty.Questions = nil
	assert.Error(t, exams.PrewarmAllCaches(context.Background(), []model.FixtureExam{empty}))
}

func TestSubmissionService_Submit(t *testing.T) {
	mr, rdb := newRedis(t)
	exams := NewExamService(rdb, zerolog.Nop())
	subs := NewSubmissionService(rdb, exams, zerolog.Nop())
	ctx := context.Background()

	exam := chemExam()
	require.NoError(t, exams.WarmExamCache(ctx, &exam))

	mismatch := model.NewSubmitRequest("bio-101", nil)
	assert.ErrorIs(t, subs.Submit(ctx, "chem-201", 1, &mismatch), ErrExamMismatch)

	unknown := model.NewSubmitRequest("chem-201", []model.AnswerEntry{{QuestionID: "q1", SelectedOption: "a"}})
	assert.ErrorIs(t, subs.Submit(ctx, "chem-201", 1, &unknown), ErrUnknownQuestion)

	twice := model.NewSubmitRequest("chem-201", []model.AnswerEntry{
		{QuestionID: "9001", SelectedOption: "a"},
		{QuestionID: "9001", SelectedOption: "b"},
	})
	assert.ErrorIs(t, subs.Submit(ctx, "chem-201", 1, &twice), ErrDuplicateAnswer)

	// Options belong to their own question.
	foreign := model.NewSubmitRequest("chem-201", []model.AnswerEntry{{QuestionID: "9001", SelectedOption: "c"}})
	assert.ErrorIs(t, subs.Submit(ctx, "chem-201", 1, &foreign), ErrUnknownOption)

	outsider := model.NewSubmitRequest("chem-201", nil)
	assert.ErrorIs(t, subs.Submit(ctx, "chem-201", 2, &outsider), ErrNotEnrolled)

	_, err := subs.GetResult(ctx, "chem-201", 1)
	assert.ErrorIs(t, err, ErrResultUnavailable)

	ok := model.NewSubmitRequest("chem-201", []model.AnswerEntry{{QuestionID: "9001", SelectedOption: "b"}})
	require.NoError(t, subs.Submit(ctx, "chem-201", 1, &ok))
	assert.ErrorIs(t, subs.Submit(ctx, "chem-201", 1, &ok), ErrAlreadySubmitted)

	calls, err := subs.SubmitCalls(ctx, "chem-201", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(6), calls)

	queued, err := mr.List(config.WorkerKey.GradeSubmissionsQueue)
	require.NoError(t, err)
	assert.Len(t, queued, 1)

	res, err := subs.GetResult(ctx, "chem-201", 1)
	require.NoError(t, err)
	assert.Equal(t, model.ResultStatusPending, res.Status)
	assert.Equal(t, 1, res.Answered)
}

func TestSubmissionService_QueueFailureReleasesSubmission(t *testing.T) {
	mr, rdb := newRedis(t)
	exams := NewExamService(rdb, zerolog.Nop())
	subs := NewSubmissionService(rdb, exams, zerolog.Nop())
	ctx := context.Background()

	exam := chemExam()
	require.NoError(t, exams.WarmExamCache(ctx, &exam))

	// A string under the queue key makes RPUSH fail with WRONGTYPE.
	require.NoError(t, mr.Set(config.WorkerKey.GradeSubmissionsQueue, "blocked"))

	req := model.NewSubmitRequest("chem-201", []model.AnswerEntry{{QuestionID: "9001", SelectedOption: "b"}})
	err := subs.Submit(ctx, "chem-201", 1, &req)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrAlreadySubmitted)

	_, err = subs.GetSubmission(ctx, "chem-201", 1)
	assert.ErrorIs(t, err, ErrResultUnavailable)

	mr.Del(config.WorkerKey.GradeSubmissionsQueue)
	require.NoError(t, subs.Submit(ctx, "chem-201", 1, &req))

	queued, err := mr.List(config.WorkerKey.GradeSubmissionsQueue)
	require.NoError(t, err)
	assert.Len(t, queued, 1)

	stored, err := subs.GetSubmission(ctx, "chem-201", 1)
	require.NoError(t, err)
	assert.Equal(t, req.Answers, stored.Answers)
}

func TestStudentService_Authenticate(t *testing.T) {
	_, rdb := newRedis(t)
	cfg := &config.Config{JWTSecret: "test-secret", JWTExpiry: time.Hour, BcryptCost: bcrypt.MinCost}
	auth := NewAuthService(cfg, rdb)
	students := NewStudentService(rdb, auth, zerolog.Nop())
	ctx := context.Background()

	require.NoError(t, students.LoadRoster(ctx, []model.FixtureStudent{
		{ID: 1, NISN: "0051234567", Name: "Ayu", Password: "student123"},
	}))

	token, student, err := students.Authenticate(ctx, "0051234567", "student123")
	require.NoError(t, err)
	assert.Equal(t, "Ayu", student.Name)

	claims, err := auth.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, 1, claims.StudentID)
	require.NoError(t, auth.ValidateStudentSession(ctx, 1, claims.ID))

	_, _, err = students.Authenticate(ctx, "0051234567", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = students.Authenticate(ctx, "0000000000", "student123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = students.GetByNISN(ctx, "0000000000")
	assert.ErrorIs(t, err, ErrStudentNotFound)
}
