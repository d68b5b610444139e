package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-client/internal/config"
	"github.com/stemsi/exstem-client/internal/model"
)

var ErrStudentNotFound = errors.New("student not found")

// StudentService keeps the fixture roster in Redis, keyed by NISN.
type StudentService struct {
	rdb  *redis.Client
	auth *AuthService
	log  zerolog.Logger
}

// NewStudentService creates a new StudentService.
func NewStudentService(rdb *redis.Client, auth *AuthService, log zerolog.Logger) *StudentService {
	return &StudentService{
		rdb:  rdb,
		auth: auth,
		log:  log.With().Str("component", "student_service").Logger(),
	}
}

// LoadRoster hashes every fixture password and stores the students in one pipeline.
func (s *StudentService) LoadRoster(ctx context.Context, students []model.FixtureStudent) error {
	pipe := s.rdb.Pipeline()
	for _, fs := range students {
		hash, err := s.auth.HashPassword(fs.Password)
		if err != nil {
			return fmt.Errorf("hash password for %s: %w", fs.NISN, err)
		}
		data, err := json.Marshal(storedStudent{ID: fs.ID, NISN: fs.NISN, Name: fs.Name, PasswordHash: hash})
		if err != nil {
			return fmt.Errorf("marshal student %s: %w", fs.NISN, err)
		}
		pipe.Set(ctx, config.CacheKey.StudentCredentialKey(fs.NISN), data, 0)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store roster: %w", err)
	}

	s.log.Info().Int("students", len(students)).Msg("Roster loaded")
	return nil
}

// GetByNISN returns the stored student including its password hash.
func (s *StudentService) GetByNISN(ctx context.Context, nisn string) (*model.Student, error) {
	data, err := s.rdb.Get(ctx, config.CacheKey.StudentCredentialKey(nisn)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrStudentNotFound
		}
		return nil, fmt.Errorf("get student: %w", err)
	}

	var st storedStudent
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("unmarshal student: %w", err)
	}
	return &model.Student{ID: st.ID, NISN: st.NISN, Name: st.Name, PasswordHash: st.PasswordHash}, nil
}

// Authenticate checks the credentials and issues a fresh session token.
func (s *StudentService) Authenticate(ctx context.Context, nisn, password string) (string, *model.Student, error) {
	student, err := s.GetByNISN(ctx, nisn)
	if err != nil {
		if errors.Is(err, ErrStudentNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}
	if err := s.auth.CheckPassword(student.PasswordHash, password); err != nil {
		return "", nil, err
	}

	token, err := s.auth.GenerateStudentToken(ctx, student.ID)
	if err != nil {
		return "", nil, err
	}
	return token, student, nil
}

// storedStudent is the Redis form; model.Student hides its hash from JSON.
type storedStudent struct {
	ID           int    `json:"id"`
	NISN         string `json:"nisn"`
	Name         string `json:"name"`
	PasswordHash string `json:"password_hash"`
}
