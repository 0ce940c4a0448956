package models

import "time"

// Lesson is a single teaching unit of a class; AI sessions are run against lessons.
type Lesson struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	ClassID      uint       `gorm:"not null;index" json:"class_id"`
	LessonNumber int        `gorm:"not null" json:"lesson_number"`
	Title        string     `gorm:"size:255;not null" json:"title"`
	LessonDate   *time.Time `json:"lesson_date"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	Class        Class      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}
