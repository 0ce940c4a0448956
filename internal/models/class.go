package models

import "time"

// Class is a course section taught by a single teacher.
type Class struct {
	ID           uint         `gorm:"primaryKey" json:"id"`
	TeacherID    uint         `gorm:"not null;index" json:"teacher_id"`
	Name         string       `gorm:"size:255;not null" json:"name"`
	Subject      *string      `gorm:"size:100" json:"subject"`
	ClassCode    string       `gorm:"size:32;uniqueIndex" json:"class_code"`
	Description  string       `gorm:"type:text" json:"description"`
	AcademicYear string       `gorm:"size:16" json:"academic_year"`
	Semester     string       `gorm:"size:16" json:"semester"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
	Enrollments  []Enrollment `json:"enrollments,omitempty"`
	Lessons      []Lesson     `json:"lessons,omitempty"`
}
