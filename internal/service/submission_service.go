package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-client/internal/config"
	"github.com/stemsi/exstem-client/internal/model"
)

var (
	ErrExamMismatch      = errors.New("exam id in body does not match path")
	ErrUnknownQuestion   = errors.New("answer references an unknown question")
	ErrDuplicateAnswer   = errors.New("question answered more than once")
	ErrUnknownOption     = errors.New("answer is not one of the question's options")
	ErrAlreadySubmitted  = errors.New("exam already submitted")
	ErrResultUnavailable = errors.New("no submission for exam")
)

// SubmissionService accepts final submissions and serves graded results.
// Every submit call is counted, including rejected ones.
type SubmissionService struct {
	rdb   *redis.Client
	exams *ExamService
	log   zerolog.Logger
	now   func() time.Time
}

// NewSubmissionService creates a new SubmissionService.
func NewSubmissionService(rdb *redis.Client, exams *ExamService, log zerolog.Logger) *SubmissionService {
	return &SubmissionService{
		rdb:   rdb,
		exams: exams,
		log:   log.With().Str("component", "submission_service").Logger(),
		now:   time.Now,
	}
}

// Submit stores the first valid submission of a student for an exam and
// queues it for grading. Later calls return ErrAlreadySubmitted.
func (s *SubmissionService) Submit(ctx context.Context, examID string, studentID int, req *model.SubmitRequest) error {
	calls, err := s.rdb.Incr(ctx, config.CacheKey.SubmitCallsKey(examID, studentID)).Result()
	if err != nil {
		return fmt.Errorf("count submit: %w", err)
	}

	log := s.log.With().Str("exam_id", examID).Int("student_id", studentID).Int64("call", calls).Logger()

	if req.ExamID != examID {
		return ErrExamMismatch
	}

	paper, err := s.exams.GetPaper(ctx, examID, studentID)
	if err != nil {
		return err
	}
	options := make(map[string][]string, len(paper.Questions))
	for _, raw := range paper.Questions {
		q := raw.Normalize()
		options[q.ID] = q.Options
	}
	seen := make(map[string]struct{}, len(req.Answers))
	for _, a := range req.Answers {
		opts, ok := options[a.QuestionID]
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownQuestion, a.QuestionID)
		}
		if _, dup := seen[a.QuestionID]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateAnswer, a.QuestionID)
		}
		seen[a.QuestionID] = struct{}{}
		if !slices.Contains(opts, a.SelectedOption) {
			return fmt.Errorf("%w: %s", ErrUnknownOption, a.QuestionID)
		}
	}

	answers := req.Answers
	if answers == nil {
		answers = []model.AnswerEntry{}
	}
	record, err := json.Marshal(model.StoredSubmission{
		ExamID:      examID,
		StudentID:   studentID,
		Answers:     answers,
		SubmittedAt: s.now(),
	})
	if err != nil {
		return fmt.Errorf("marshal submission: %w", err)
	}

	subKey := config.CacheKey.SubmissionKey(examID, studentID)
	stored, err := s.rdb.SetNX(ctx, subKey, record, 0).Result()
	if err != nil {
		return fmt.Errorf("store submission: %w", err)
	}
	if !stored {
		log.Warn().Msg("Duplicate submission rejected")
		return ErrAlreadySubmitted
	}

	job, err := json.Marshal(model.GradeJob{ExamID: examID, StudentID: studentID})
	if err != nil {
		return fmt.Errorf("marshal grade job: %w", err)
	}
	if err := s.rdb.RPush(ctx, config.WorkerKey.GradeSubmissionsQueue, job).Err(); err != nil {
		// An ungraded submission must not block the retry.
		if delErr := s.rdb.Del(ctx, subKey).Err(); delErr != nil {
			log.Error().Err(delErr).Msg("Releasing submission after queue failure failed")
		}
		return fmt.Errorf("queue grading: %w", err)
	}

	log.Info().Int("answers", len(answers)).Msg("Submission accepted")
	return nil
}

// SubmitCalls returns how many submit requests the student has sent for the exam.
func (s *SubmissionService) SubmitCalls(ctx context.Context, examID string, studentID int) (int64, error) {
	n, err := s.rdb.Get(ctx, config.CacheKey.SubmitCallsKey(examID, studentID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return n, err
}

// GetSubmission returns the stored submission, or ErrResultUnavailable.
func (s *SubmissionService) GetSubmission(ctx context.Context, examID string, studentID int) (*model.StoredSubmission, error) {
	data, err := s.rdb.Get(ctx, config.CacheKey.SubmissionKey(examID, studentID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrResultUnavailable
		}
		return nil, fmt.Errorf("get submission: %w", err)
	}

	var sub model.StoredSubmission
	if err := json.Unmarshal(data, &sub); err != nil {
		return nil, fmt.Errorf("unmarshal submission: %w", err)
	}
	return &sub, nil
}

// GetResult returns the graded result, or a pending one while the grading
// worker has not caught up.
func (s *SubmissionService) GetResult(ctx context.Context, examID string, studentID int) (*model.ExamResult, error) {
	data, err := s.rdb.Get(ctx, config.CacheKey.ResultKey(examID, studentID)).Bytes()
	if err == nil {
		var res model.ExamResult
		if err := json.Unmarshal(data, &res); err != nil {
			return nil, fmt.Errorf("unmarshal result: %w", err)
		}
		return &res, nil
	}
	if !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("get result: %w", err)
	}

	sub, err := s.GetSubmission(ctx, examID, studentID)
	if err != nil {
		return nil, err
	}
	return &model.ExamResult{
		ExamID:   examID,
		Status:   model.ResultStatusPending,
		Answered: len(sub.Answers),
	}, nil
}
