package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/classroom-insights-api/internal/models"
)

// TeacherRepository provides access to teacher profiles.
type TeacherRepository interface {
	GetByUserID(ctx context.Context, userID uint) (models.Teacher, error)
}

type teacherRepository struct {
	db *gorm.DB
}

// NewTeacherRepository constructs a teacher repository.
func NewTeacherRepository(db *gorm.DB) TeacherRepository {
	return &teacherRepository{db: db}
}

func (r *teacherRepository) GetByUserID(ctx context.Context, userID uint) (models.Teacher, error) {
	var teacher models.Teacher
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&teacher).Error; err != nil {
		return models.Teacher{}, err
	}

	return teacher, nil
}
