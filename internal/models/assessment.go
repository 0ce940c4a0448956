package models

import (
	"time"

	"gorm.io/datatypes"
)

// Understanding levels attached to assessments.
const (
	UnderstandingNovice     = "NOVICE"
	UnderstandingDeveloping = "DEVELOPING"
	UnderstandingProficient = "PROFICIENT"
	UnderstandingAdvanced   = "ADVANCED"
)

// Assessment is the AI evaluation produced at the end of a tutoring session.
type Assessment struct {
	ID                 uint           `gorm:"primaryKey" json:"id"`
	SessionID          uint           `gorm:"not null;uniqueIndex" json:"session_id"`
	StudentID          uint           `gorm:"not null;index" json:"student_id"`
	LessonID           uint           `gorm:"not null;index" json:"lesson_id"`
	OverallScore       *float64       `json:"overall_score"`
	UnderstandingLevel string         `gorm:"size:16" json:"understanding_level"`
	Strengths          datatypes.JSON `json:"strengths"`
	Weaknesses         datatypes.JSON `json:"weaknesses"`
	AIFeedback         string         `gorm:"type:text" json:"ai_feedback"`
	CreatedAt          time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
}
