package repository

import (
	"context"
	"database/sql"
	"fmt"

	"gorm.io/gorm"

	"github.com/noah-isme/classroom-insights-api/internal/models"
)

// TeacherAnalyticsRepository supplies the read queries behind teacher dashboards.
//
// A teacher's roster is every student holding at least one active enrollment in a
// class the teacher owns; assessment and session queries are scoped through it.
type TeacherAnalyticsRepository interface {
	Ping(ctx context.Context) error
	CountRosterStudents(ctx context.Context, teacherID uint) (int64, error)
	CountRosterAssessments(ctx context.Context, teacherID uint) (int64, error)
	CountRosterSessions(ctx context.Context, teacherID uint) (int64, error)
	AverageRosterScore(ctx context.Context, teacherID uint) (float64, bool, error)
	CountRosterByGradeLevel(ctx context.Context, teacherID uint) ([]models.GradeLevelCount, error)
	ListClassesWithEnrollment(ctx context.Context, teacherID uint) ([]models.ClassEnrollmentCount, error)
	ListRecentRosterSessions(ctx context.Context, teacherID uint, limit int) ([]models.AISession, error)
	ListRosterStudents(ctx context.Context, teacherID uint, limit, assessmentsPerStudent int) ([]models.RosterStudent, error)
	ClassActivity(ctx context.Context, teacherID uint) (map[uint]models.ClassActivity, error)
}

type teacherAnalyticsRepository struct {
	db *gorm.DB
}

// NewTeacherAnalyticsRepository constructs the analytics repository.
func NewTeacherAnalyticsRepository(db *gorm.DB) TeacherAnalyticsRepository {
	return &teacherAnalyticsRepository{db: db}
}

func (r *teacherAnalyticsRepository) rosterStudentIDs(ctx context.Context, teacherID uint) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&models.Enrollment{}).
		Select("enrollments.student_id").
		Joins("JOIN classes ON classes.id = enrollments.class_id").
		Where("classes.teacher_id = ?", teacherID).
		Where("enrollments.status = ?", models.EnrollmentStatusActive)
}

func (r *teacherAnalyticsRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (r *teacherAnalyticsRepository) CountRosterStudents(ctx context.Context, teacherID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Student{}).
		Where("id IN (?)", r.rosterStudentIDs(ctx, teacherID)).
		Count(&count).Error
	return count, err
}

func (r *teacherAnalyticsRepository) CountRosterAssessments(ctx context.Context, teacherID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Assessment{}).
		Where("student_id IN (?)", r.rosterStudentIDs(ctx, teacherID)).
		Count(&count).Error
	return count, err
}

func (r *teacherAnalyticsRepository) CountRosterSessions(ctx context.Context, teacherID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.AISession{}).
		Where("student_id IN (?)", r.rosterStudentIDs(ctx, teacherID)).
		Count(&count).Error
	return count, err
}

// AverageRosterScore returns the mean non-null overall score; ok is false when no scored assessment exists.
func (r *teacherAnalyticsRepository) AverageRosterScore(ctx context.Context, teacherID uint) (float64, bool, error) {
	var result struct {
		Average sql.NullFloat64
	}
	err := r.db.WithContext(ctx).
		Model(&models.Assessment{}).
		Select("AVG(overall_score) AS average").
		Where("student_id IN (?)", r.rosterStudentIDs(ctx, teacherID)).
		Where("overall_score IS NOT NULL").
		Scan(&result).Error
	if err != nil {
		return 0, false, err
	}
	return result.Average.Float64, result.Average.Valid, nil
}

func (r *teacherAnalyticsRepository) CountRosterByGradeLevel(ctx context.Context, teacherID uint) ([]models.GradeLevelCount, error) {
	var rows []models.GradeLevelCount
	err := r.db.WithContext(ctx).
		Model(&models.Student{}).
		Select("grade_level, COUNT(id) AS students").
		Where("id IN (?)", r.rosterStudentIDs(ctx, teacherID)).
		Where("grade_level IS NOT NULL").
		Group("grade_level").
		Order("grade_level").
		Scan(&rows).Error
	return rows, err
}

func (r *teacherAnalyticsRepository) ListClassesWithEnrollment(ctx context.Context, teacherID uint) ([]models.ClassEnrollmentCount, error) {
	var classes []models.Class
	if err := r.db.WithContext(ctx).
		Where("teacher_id = ?", teacherID).
		Order("id").
		Find(&classes).Error; err != nil {
		return nil, err
	}
	if len(classes) == 0 {
		return []models.ClassEnrollmentCount{}, nil
	}

	var counts []struct {
		ClassID  uint
		Students int64
	}
	if err := r.db.WithContext(ctx).
		Model(&models.Enrollment{}).
		Select("enrollments.class_id AS class_id, COUNT(enrollments.id) AS students").
		Joins("JOIN classes ON classes.id = enrollments.class_id").
		Where("classes.teacher_id = ?", teacherID).
		Where("enrollments.status = ?", models.EnrollmentStatusActive).
		Group("enrollments.class_id").
		Scan(&counts).Error; err != nil {
		return nil, fmt.Errorf("count class enrollments: %w", err)
	}

	byClass := make(map[uint]int64, len(counts))
	for _, row := range counts {
		byClass[row.ClassID] = row.Students
	}

	result := make([]models.ClassEnrollmentCount, 0, len(classes))
	for _, class := range classes {
		result = append(result, models.ClassEnrollmentCount{Class: class, Students: byClass[class.ID]})
	}
	return result, nil
}

func (r *teacherAnalyticsRepository) ListRecentRosterSessions(ctx context.Context, teacherID uint, limit int) ([]models.AISession, error) {
	var sessions []models.AISession
	err := r.db.WithContext(ctx).
		Where("student_id IN (?)", r.rosterStudentIDs(ctx, teacherID)).
		Order("session_start DESC").
		Order("id DESC").
		Limit(limit).
		Preload("Student").
		Preload("Lesson.Class").
		Preload("Assessment").
		Find(&sessions).Error
	return sessions, err
}

func (r *teacherAnalyticsRepository) ListRosterStudents(ctx context.Context, teacherID uint, limit, assessmentsPerStudent int) ([]models.RosterStudent, error) {
	var students []models.Student
	if err := r.db.WithContext(ctx).
		Where("id IN (?)", r.rosterStudentIDs(ctx, teacherID)).
		Order("id").
		Limit(limit).
		Preload("User").
		Find(&students).Error; err != nil {
		return nil, err
	}
	if len(students) == 0 {
		return []models.RosterStudent{}, nil
	}

	ids := make([]uint, 0, len(students))
	for _, student := range students {
		ids = append(ids, student.ID)
	}

	var assessments []models.Assessment
	if err := r.db.WithContext(ctx).
		Where("student_id IN ?", ids).
		Order("student_id").
		Order("created_at DESC").
		Order("id DESC").
		Find(&assessments).Error; err != nil {
		return nil, fmt.Errorf("list roster assessments: %w", err)
	}

	recent := make(map[uint][]models.Assessment, len(students))
	for _, assessment := range assessments {
		if len(recent[assessment.StudentID]) >= assessmentsPerStudent {
			continue
		}
		recent[assessment.StudentID] = append(recent[assessment.StudentID], assessment)
	}

	var primaries []struct {
		StudentID uint
		ClassName string
	}
	if err := r.db.WithContext(ctx).
		Model(&models.Enrollment{}).
		Select("enrollments.student_id AS student_id, classes.name AS class_name").
		Joins("JOIN classes ON classes.id = enrollments.class_id").
		Where("classes.teacher_id = ?", teacherID).
		Where("enrollments.status = ?", models.EnrollmentStatusActive).
		Where("enrollments.student_id IN ?", ids).
		Order("classes.id").
		Scan(&primaries).Error; err != nil {
		return nil, fmt.Errorf("resolve primary classes: %w", err)
	}

	primaryClass := make(map[uint]string, len(students))
	for _, row := range primaries {
		if _, exists := primaryClass[row.StudentID]; !exists {
			primaryClass[row.StudentID] = row.ClassName
		}
	}

	result := make([]models.RosterStudent, 0, len(students))
	for _, student := range students {
		result = append(result, models.RosterStudent{
			Student:           student,
			PrimaryClass:      primaryClass[student.ID],
			RecentAssessments: recent[student.ID],
		})
	}
	return result, nil
}

// ClassActivity aggregates sessions and assessments per class. A record belongs to a class when its
// lesson does and its student is actively enrolled there.
func (r *teacherAnalyticsRepository) ClassActivity(ctx context.Context, teacherID uint) (map[uint]models.ClassActivity, error) {
	var assessmentRows []struct {
		ClassID      uint
		AverageScore sql.NullFloat64
		Assessments  int64
	}
	if err := r.db.WithContext(ctx).
		Model(&models.Assessment{}).
		Select("lessons.class_id AS class_id, AVG(assessments.overall_score) AS average_score, COUNT(assessments.id) AS assessments").
		Joins("JOIN lessons ON lessons.id = assessments.lesson_id").
		Joins("JOIN classes ON classes.id = lessons.class_id").
		Joins("JOIN enrollments ON enrollments.class_id = lessons.class_id AND enrollments.student_id = assessments.student_id").
		Where("classes.teacher_id = ?", teacherID).
		Where("enrollments.status = ?", models.EnrollmentStatusActive).
		Group("lessons.class_id").
		Scan(&assessmentRows).Error; err != nil {
		return nil, fmt.Errorf("aggregate class assessments: %w", err)
	}

	var sessionRows []struct {
		ClassID  uint
		Sessions int64
	}
	if err := r.db.WithContext(ctx).
		Model(&models.AISession{}).
		Select("lessons.class_id AS class_id, COUNT(ai_sessions.id) AS sessions").
		Joins("JOIN lessons ON lessons.id = ai_sessions.lesson_id").
		Joins("JOIN classes ON classes.id = lessons.class_id").
		Joins("JOIN enrollments ON enrollments.class_id = lessons.class_id AND enrollments.student_id = ai_sessions.student_id").
		Where("classes.teacher_id = ?", teacherID).
		Where("enrollments.status = ?", models.EnrollmentStatusActive).
		Group("lessons.class_id").
		Scan(&sessionRows).Error; err != nil {
		return nil, fmt.Errorf("aggregate class sessions: %w", err)
	}

	activity := make(map[uint]models.ClassActivity, len(assessmentRows)+len(sessionRows))
	for _, row := range assessmentRows {
		entry := activity[row.ClassID]
		entry.ClassID = row.ClassID
		entry.Assessments = row.Assessments
		if row.AverageScore.Valid {
			average := row.AverageScore.Float64
			entry.AverageScore = &average
		}
		activity[row.ClassID] = entry
	}
	for _, row := range sessionRows {
		entry := activity[row.ClassID]
		entry.ClassID = row.ClassID
		entry.Sessions = row.Sessions
		activity[row.ClassID] = entry
	}
	return activity, nil
}
