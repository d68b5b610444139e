package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-client/internal/config"
	"github.com/stemsi/exstem-client/internal/model"
)

const (
	GradeBatchSize    = 50
	GradeBatchTimeout = 2 * time.Second
	GradePollTimeout  = 1 * time.Second
	// GradeMaxAttempts bounds how often a failing job is put back on the queue.
	GradeMaxAttempts = 3
)

// GradingWorker drains the grade queue and writes results back to Redis.
type GradingWorker struct {
	rdb *redis.Client
	log zerolog.Logger
}

func NewGradingWorker(rdb *redis.Client, log zerolog.Logger) *GradingWorker {
	return &GradingWorker{
		rdb: rdb,
		log: log.With().Str("component", "grading_worker").Logger(),
	}
}

// ----------------------------------------------------------------
// Worker loop with batching
// ----------------------------------------------------------------

func (w *GradingWorker) Start(ctx context.Context) {
	w.log.Info().Msg("GradingWorker started")

	batch := make([]*model.GradeJob, 0, GradeBatchSize)
	lastFlush := time.Now()

	for {
		if len(batch) > 0 &&
			(len(batch) >= GradeBatchSize || time.Since(lastFlush) >= GradeBatchTimeout) {

			w.flush(ctx, batch)
			batch = batch[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.log.Info().Msg("Shutdown requested. Grading remaining batch...")
			w.flush(context.Background(), batch)
			return

		default:
			item, err := w.rdb.BLPop(ctx, GradePollTimeout, config.WorkerKey.GradeSubmissionsQueue).Result()
			if err != nil {
				if err != redis.Nil && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}

			if len(item) < 2 {
				continue
			}

			var job model.GradeJob
			if err := json.Unmarshal([]byte(item[1]), &job); err != nil {
				w.log.Error().Err(err).Msg("Invalid JSON payload")
				continue
			}

			batch = append(batch, &job)
			// Queue drained: grade fresh jobs on the next pass. Retried jobs
			// wait for the batch timeout.
			if job.Attempts == 0 && w.rdb.LLen(ctx, config.WorkerKey.GradeSubmissionsQueue).Val() == 0 {
				lastFlush = time.Time{}
			}
		}
	}
}

// ----------------------------------------------------------------
// Batch grading
// ----------------------------------------------------------------

func (w *GradingWorker) flush(ctx context.Context, batch []*model.GradeJob) {
	if len(batch) == 0 {
		return
	}

	pipe := w.rdb.Pipeline()
	for _, job := range batch {
		res, err := w.Grade(ctx, job)
		if err != nil {
			w.retry(ctx, job, err)
			continue
		}

		data, err := json.Marshal(res)
		if err != nil {
			w.log.Error().Err(err).Msg("Marshal result failed")
			continue
		}
		pipe.Set(ctx, config.CacheKey.ResultKey(job.ExamID, job.StudentID), data, 0)
	}

	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		w.log.Error().Err(err).Int("batch", len(batch)).Msg("Storing results failed")
		return
	}

	w.log.Debug().Int("batch", len(batch)).Msg("Batch graded")
}

// retry puts a failed job back on the queue. Jobs whose submission, paper
// or answer key is gone are dropped, and so are jobs out of attempts.
func (w *GradingWorker) retry(ctx context.Context, job *model.GradeJob, cause error) {
	log := w.log.With().
		Str("exam_id", job.ExamID).
		Int("student_id", job.StudentID).
		Int("attempts", job.Attempts+1).
		Logger()

	if errors.Is(cause, redis.Nil) {
		log.Error().Err(cause).Msg("Grading data missing, dropping job")
		return
	}

	job.Attempts++
	if job.Attempts >= GradeMaxAttempts {
		log.Error().Err(cause).Msg("Grading failed too often, dropping job")
		return
	}

	raw, err := json.Marshal(job)
	if err != nil {
		log.Error().Err(err).Msg("Marshal job failed")
		return
	}
	if err := w.rdb.RPush(ctx, config.WorkerKey.GradeSubmissionsQueue, raw).Err(); err != nil {
		log.Error().Err(err).Msg("Requeue failed")
		return
	}
	log.Warn().Err(cause).Msg("Grading failed, requeued")
}

// Grade scores one stored submission against the cached answer key.
// Unanswered questions count as wrong.
func (w *GradingWorker) Grade(ctx context.Context, job *model.GradeJob) (*model.ExamResult, error) {
	raw, err := w.rdb.Get(ctx, config.CacheKey.SubmissionKey(job.ExamID, job.StudentID)).Bytes()
	if err != nil {
		return nil, fmt.Errorf("get submission: %w", err)
	}
	var sub model.StoredSubmission
	if err := json.Unmarshal(raw, &sub); err != nil {
		return nil, fmt.Errorf("unmarshal submission: %w", err)
	}

	rawPaper, err := w.rdb.Get(ctx, config.CacheKey.ExamPayloadKey(job.ExamID)).Bytes()
	if err != nil {
		return nil, fmt.Errorf("get payload: %w", err)
	}
	var paper model.ExamPayload
	if err := json.Unmarshal(rawPaper, &paper); err != nil {
		return nil, fmt.Errorf("unmarshal payload: %w", err)
	}

	key, err := w.rdb.HGetAll(ctx, config.CacheKey.ExamAnswerKey(job.ExamID)).Result()
	if err != nil {
		return nil, fmt.Errorf("get answer key: %w", err)
	}

	correct := 0
	for _, a := range sub.Answers {
		if want, ok := key[a.QuestionID]; ok && want == a.SelectedOption {
			correct++
		}
	}

	total := len(paper.Questions)
	score := 0.0
	if total > 0 {
		score = math.Round(float64(correct)/float64(total)*10000) / 100
	}

	return &model.ExamResult{
		ExamID:   job.ExamID,
		Status:   model.ResultStatusGraded,
		Score:    score,
		Correct:  correct,
		Total:    total,
		Answered: len(sub.Answers),
	}, nil
}
