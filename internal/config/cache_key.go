package config

import (
	"fmt"
)

// CacheKeyStruct builds the Redis keys used by the development backend.
type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// StudentSessionKey returns the cache key for a student's login session (JWT jti).
func (r *CacheKeyStruct) StudentSessionKey(studentID int) string {
	return fmt.Sprintf("login:%d", studentID)
}

// StudentCredentialKey returns the cache key holding a student's fixture record.
func (r *CacheKeyStruct) StudentCredentialKey(nisn string) string {
	return fmt.Sprintf("student:nisn:%s", nisn)
}

// ExamWindowKey returns the cache key for an exam's start/end window.
func (r *CacheKeyStruct) ExamWindowKey(examID string) string {
	return fmt.Sprintf("exam:%s:window", examID)
}

// ExamPayloadKey returns the cache key for an exam's student-facing payload.
func (r *CacheKeyStruct) ExamPayloadKey(examID string) string {
	return fmt.Sprintf("exam:%s:payload", examID)
}

// ExamAccessKey returns the cache key for an exam's publish flag and enrolment.
func (r *CacheKeyStruct) ExamAccessKey(examID string) string {
	return fmt.Sprintf("exam:%s:access", examID)
}

// ExamAnswerKey returns the cache key for an exam's answer key.
func (r *CacheKeyStruct) ExamAnswerKey(examID string) string {
	return fmt.Sprintf("exam:%s:key", examID)
}

// SubmitCallsKey counts every submit request a student sends for an exam,
// accepted or not.
func (r *CacheKeyStruct) SubmitCallsKey(examID string, studentID int) string {
	return fmt.Sprintf("student:%d:exam:%s:submit_calls", studentID, examID)
}

// SubmissionKey holds the first accepted submission of a student for an exam.
func (r *CacheKeyStruct) SubmissionKey(examID string, studentID int) string {
	return fmt.Sprintf("student:%d:exam:%s:submission", studentID, examID)
}

// ResultKey holds the graded result of a student's submission.
func (r *CacheKeyStruct) ResultKey(examID string, studentID int) string {
	return fmt.Sprintf("student:%d:exam:%s:result", studentID, examID)
}

var CacheKey = NewCacheKeyStruct()
