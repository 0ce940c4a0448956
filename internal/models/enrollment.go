package models

import "time"

const (
	// EnrollmentStatusActive marks an enrollment that counts toward a teacher's roster.
	EnrollmentStatusActive = "ACTIVE"
	// EnrollmentStatusInactive marks a paused enrollment.
	EnrollmentStatusInactive = "INACTIVE"
	// EnrollmentStatusDropped marks a student who left the class.
	EnrollmentStatusDropped = "DROPPED"
)

// Enrollment links a student to a class.
type Enrollment struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	StudentID      uint      `gorm:"not null;uniqueIndex:idx_enrollment_student_class" json:"student_id"`
	ClassID        uint      `gorm:"not null;uniqueIndex:idx_enrollment_student_class;index" json:"class_id"`
	Status         string    `gorm:"size:16;not null;default:ACTIVE" json:"status"`
	EnrollmentDate time.Time `json:"enrollment_date"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	Class          Class     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}
