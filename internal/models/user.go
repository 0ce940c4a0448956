package models

import "time"

// User roles recognised by the platform.
const (
	UserRoleTeacher = "TEACHER"
	UserRoleStudent = "STUDENT"
	UserRoleParent  = "PARENT"
	UserRoleAdmin   = "ADMIN"
)

// User is the login identity behind teachers, students and parents.
type User struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	Email     string     `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Role      string     `gorm:"size:16;not null;index" json:"role"`
	LastLogin *time.Time `json:"last_login"`
	IsActive  bool       `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}
