package models

import (
	"strings"
	"time"
)

// Student represents a learner enrolled in one or more classes.
type Student struct {
	ID             uint         `gorm:"primaryKey" json:"id"`
	UserID         uint         `gorm:"not null;uniqueIndex" json:"user_id"`
	FirstName      string       `gorm:"size:100;not null" json:"first_name"`
	LastName       string       `gorm:"size:100;not null" json:"last_name"`
	StudentNumber  string       `gorm:"size:32" json:"student_number"`
	GradeLevel     *string      `gorm:"size:32;index" json:"grade_level"`
	EnrollmentDate *time.Time   `json:"enrollment_date"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
	User           User         `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Enrollments    []Enrollment `json:"enrollments,omitempty"`
	Assessments    []Assessment `json:"assessments,omitempty"`
}

// FullName joins first and last name.
func (s Student) FullName() string {
	return joinName(s.FirstName, s.LastName)
}

func joinName(first, last string) string {
	return strings.TrimSpace(strings.TrimSpace(first) + " " + strings.TrimSpace(last))
}
