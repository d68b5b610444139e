package model

import "time"

// Fixture is the seed file loaded by the development backend.
type Fixture struct {
	Students []FixtureStudent `json:"students"`
	Exams    []FixtureExam    `json:"exams"`
}

// FixtureStudent carries a plaintext password; it is hashed on load.
type FixtureStudent struct {
	ID       int    `json:"id"`
	NISN     string `json:"nisn"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

// FixtureExam describes one exam, its access rules and its answer key.
type FixtureExam struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Duration    *int              `json:"duration,omitempty"`
	StartTime   *time.Time        `json:"startTime,omitempty"`
	EndTime     *time.Time        `json:"endTime,omitempty"`
	Published   bool              `json:"published"`
	EnrolledIDs []int             `json:"enrolledStudentIds"`
	Questions   []RawQuestion     `json:"questions"`
	AnswerKey   map[string]string `json:"answerKey"`
}

// ExamAccess is the cached publish flag and enrolment list of an exam.
type ExamAccess struct {
	Published   bool  `json:"published"`
	EnrolledIDs []int `json:"enrolledStudentIds"`
}

// Allows reports whether studentID may fetch the exam paper.
func (a *ExamAccess) Allows(studentID int) bool {
	if !a.Published {
		return false
	}
	for _, id := range a.EnrolledIDs {
		if id == studentID {
			return true
		}
	}
	return false
}
