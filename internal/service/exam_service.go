package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-client/internal/config"
	"github.com/stemsi/exstem-client/internal/model"
)

var (
	ErrExamNotFound     = errors.New("exam not found")
	ErrExamNotPublished = errors.New("exam not published")
	ErrNotEnrolled      = errors.New("student not enrolled in exam")
	ErrNoQuestions      = errors.New("exam has no questions")
)

// ExamService serves exam windows and papers from the Redis cache.
type ExamService struct {
	rdb *redis.Client
	log zerolog.Logger
}

// NewExamService creates a new ExamService.
func NewExamService(rdb *redis.Client, log zerolog.Logger) *ExamService {
	return &ExamService{
		rdb: rdb,
		log: log.With().Str("component", "exam_service").Logger(),
	}
}

// ReadFixture decodes the seed file at path.
func ReadFixture(path string) (*model.Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}

	var f model.Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode fixture: %w", err)
	}
	return &f, nil
}

// WarmExamCache writes an exam's window, paper, access rules and answer key
// to Redis in one pipeline.
func (s *ExamService) WarmExamCache(ctx context.Context, exam *model.FixtureExam) error {
	if len(exam.Questions) == 0 {
		return ErrNoQuestions
	}

	window, err := json.Marshal(model.ExamWindow{StartTime: exam.StartTime, EndTime: exam.EndTime})
	if err != nil {
		return fmt.Errorf("marshal window: %w", err)
	}

	// The paper keeps the fixture's field spelling as-is.
	payload, err := json.Marshal(model.ExamPayload{
		ExamID:    model.FlexibleID(exam.ID),
		Title:     exam.Title,
		Duration:  exam.Duration,
		Questions: exam.Questions,
	})
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	access, err := json.Marshal(model.ExamAccess{Published: exam.Published, EnrolledIDs: exam.EnrolledIDs})
	if err != nil {
		return fmt.Errorf("marshal access: %w", err)
	}

	answerKey := make(map[string]interface{}, len(exam.AnswerKey))
	for qid, opt := range exam.AnswerKey {
		answerKey[qid] = opt
	}

	pipe := s.rdb.Pipeline()
	pipe.Set(ctx, config.CacheKey.ExamWindowKey(exam.ID), window, 0)
	pipe.Set(ctx, config.CacheKey.ExamPayloadKey(exam.ID), payload, 0)
	pipe.Set(ctx, config.CacheKey.ExamAccessKey(exam.ID), access, 0)
	pipe.Del(ctx, config.CacheKey.ExamAnswerKey(exam.ID))
	if len(answerKey) > 0 {
		pipe.HSet(ctx, config.CacheKey.ExamAnswerKey(exam.ID), answerKey)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache to redis: %w", err)
	}

	s.log.Debug().
		Str("exam_id", exam.ID).
		Int("questions", len(exam.Questions)).
		Msg("Cache warmed")
	return nil
}

// PrewarmAllCaches loads every fixture exam into Redis. Exams that fail to
// warm are skipped.
func (s *ExamService) PrewarmAllCaches(ctx context.Context, exams []model.FixtureExam) error {
	warmed := 0
	for i := range exams {
		if err := s.WarmExamCache(ctx, &exams[i]); err != nil {
			s.log.Warn().
				Err(err).
				Str("exam_id", exams[i].ID).
				Msg("Failed to warm exam, skipping")
			continue
		}
		warmed++
	}

	if warmed == 0 && len(exams) > 0 {
		return errors.New("no exam could be warmed")
	}

	s.log.Info().
		Int("warmed", warmed).
		Int("total", len(exams)).
		Msg("Prewarming complete")
	return nil
}

// GetWindow returns the cached scheduling window of an exam.
func (s *ExamService) GetWindow(ctx context.Context, examID string) (*model.ExamWindow, error) {
	var w model.ExamWindow
	if err := s.getJSON(ctx, config.CacheKey.ExamWindowKey(examID), &w); err != nil {
		return nil, err
	}
	return &w, nil
}

// GetPaper returns the exam payload after checking that studentID may sit it.
func (s *ExamService) GetPaper(ctx context.Context, examID string, studentID int) (*model.ExamPayload, error) {
	if err := s.CheckAccess(ctx, examID, studentID); err != nil {
		return nil, err
	}

	var p model.ExamPayload
	if err := s.getJSON(ctx, config.CacheKey.ExamPayloadKey(examID), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// CheckAccess returns ErrExamNotPublished or ErrNotEnrolled when the student
// may not take the exam.
func (s *ExamService) CheckAccess(ctx context.Context, examID string, studentID int) error {
	var access model.ExamAccess
	if err := s.getJSON(ctx, config.CacheKey.ExamAccessKey(examID), &access); err != nil {
		return err
	}
	if !access.Published {
		return ErrExamNotPublished
	}
	if !access.Allows(studentID) {
		return ErrNotEnrolled
	}
	return nil
}

// GetAnswerKey retrieves the answer key hash map from Redis.
func (s *ExamService) GetAnswerKey(ctx context.Context, examID string) (map[string]string, error) {
	key, err := s.rdb.HGetAll(ctx, config.CacheKey.ExamAnswerKey(examID)).Result()
	if err != nil {
		return nil, fmt.Errorf("get answer key: %w", err)
	}
	return key, nil
}

func (s *ExamService) getJSON(ctx context.Context, key string, dst interface{}) error {
	data, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrExamNotFound
		}
		return fmt.Errorf("get %s: %w", key, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("unmarshal %s: %w", key, err)
	}
	return nil
}
