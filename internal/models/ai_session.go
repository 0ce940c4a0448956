package models

import "time"

const (
	// AISessionStatusActive indicates a tutoring session in progress.
	AISessionStatusActive = "ACTIVE"
	// AISessionStatusCompleted indicates a finished tutoring session.
	AISessionStatusCompleted = "COMPLETED"
)

// AISession is a tutoring conversation between a student and the AI tutor.
type AISession struct {
	ID              uint        `gorm:"primaryKey" json:"id"`
	StudentID       uint        `gorm:"not null;index" json:"student_id"`
	LessonID        uint        `gorm:"not null;index" json:"lesson_id"`
	SessionStart    time.Time   `gorm:"not null;index" json:"session_start"`
	SessionEnd      *time.Time  `json:"session_end"`
	DurationMinutes int         `gorm:"not null;default:0" json:"duration_minutes"`
	Status          string      `gorm:"size:16;not null;default:COMPLETED" json:"status"`
	Transcript      string      `gorm:"type:text" json:"transcript"`
	Summary         string      `gorm:"type:text" json:"summary"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
	Student         Student     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Lesson          Lesson      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Assessment      *Assessment `gorm:"foreignKey:SessionID" json:"assessment,omitempty"`
}

// TableName pins the table name; the default inflection yields "a_i_sessions".
func (AISession) TableName() string {
	return "ai_sessions"
}
