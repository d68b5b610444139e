// Package devbackend assembles the contract fixture of the exam platform
// API: students, exams, submissions and grading, all kept in Redis.
package devbackend

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-client/internal/config"
	"github.com/stemsi/exstem-client/internal/handler"
	"github.com/stemsi/exstem-client/internal/middleware"
	"github.com/stemsi/exstem-client/internal/model"
	"github.com/stemsi/exstem-client/internal/router"
	"github.com/stemsi/exstem-client/internal/service"
	"github.com/stemsi/exstem-client/internal/worker"
)

// Backend is a fully wired development backend.
type Backend struct {
	Engine      *gin.Engine
	Auth        *service.AuthService
	Students    *service.StudentService
	Exams       *service.ExamService
	Submissions *service.SubmissionService
	Grader      *worker.GradingWorker

	limiter *middleware.RateLimiter
}

// New builds the services, seeds Redis from the fixture and sets up the router.
func New(ctx context.Context, cfg *config.Config, rdb *redis.Client, fixture *model.Fixture, log zerolog.Logger) (*Backend, error) {
	authService := service.NewAuthService(cfg, rdb)
	studentService := service.NewStudentService(rdb, authService, log)
	examService := service.NewExamService(rdb, log)
	submissionService := service.NewSubmissionService(rdb, examService, log)

	// ─── Seed Redis ────────────────────────────────────────────────────
	if err := studentService.LoadRoster(ctx, fixture.Students); err != nil {
		return nil, fmt.Errorf("load roster: %w", err)
	}
	if err := examService.PrewarmAllCaches(ctx, fixture.Exams); err != nil {
		return nil, fmt.Errorf("prewarm exams: %w", err)
	}

	handlers := &router.Handlers{
		Auth: handler.NewAuthHandler(authService, studentService, log),
		Exam: handler.NewExamHandler(examService, submissionService, log),
	}
	engine, limiter := router.SetupRouter(authService, handlers, cfg)

	return &Backend{
		Engine:      engine,
		Auth:        authService,
		Students:    studentService,
		Exams:       examService,
		Submissions: submissionService,
		Grader:      worker.NewGradingWorker(rdb, log),
		limiter:     limiter,
	}, nil
}

// Close releases background resources owned by the router.
func (b *Backend) Close() {
	b.limiter.Close()
}
