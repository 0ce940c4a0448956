package models

import "time"

// Teacher is the staff profile that owns classes.
type Teacher struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"not null;uniqueIndex" json:"user_id"`
	FirstName  string    `gorm:"size:100;not null" json:"first_name"`
	LastName   string    `gorm:"size:100;not null" json:"last_name"`
	EmployeeID string    `gorm:"size:32" json:"employee_id"`
	Department string    `gorm:"size:100" json:"department"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	User       User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Classes    []Class   `json:"classes,omitempty"`
}

// FullName joins first and last name.
func (t Teacher) FullName() string {
	return joinName(t.FirstName, t.LastName)
}
