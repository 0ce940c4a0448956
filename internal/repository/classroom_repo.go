package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/noah-isme/classroom-insights-api/internal/models"
)

// ClassroomClass is a class and its lessons.
type ClassroomClass struct {
	Class   models.Class
	Lessons []models.Lesson
}

// ClassroomSession is one tutoring session, and optionally its assessment, for a seeded student.
// ClassIndex and LessonIndex address Classes[ClassIndex].Lessons[LessonIndex].
type ClassroomSession struct {
	ClassIndex  int
	LessonIndex int
	Session     models.AISession
	Assessment  *models.Assessment
}

// ClassroomStudent is a student with the user behind it, its enrollments and its sessions.
type ClassroomStudent struct {
	User       models.User
	Student    models.Student
	ClassIdx   []int
	Enrollment string
	Sessions   []ClassroomSession
}

// Classroom is a complete record graph for one teacher. IDs are filled in on create.
type Classroom struct {
	TeacherUser models.User
	Teacher     models.Teacher
	Classes     []ClassroomClass
	Students    []ClassroomStudent
}

// ClassroomRepository writes classroom graphs.
type ClassroomRepository interface {
	Create(ctx context.Context, classroom *Classroom) error
}

type classroomRepository struct {
	db *gorm.DB
}

// NewClassroomRepository constructs a classroom repository.
func NewClassroomRepository(db *gorm.DB) ClassroomRepository {
	return &classroomRepository{db: db}
}

// Create inserts the whole graph in a single transaction.
func (r *classroomRepository) Create(ctx context.Context, classroom *Classroom) error {
	if classroom == nil {
		return fmt.Errorf("classroom must not be nil")
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&classroom.TeacherUser).Error; err != nil {
			return fmt.Errorf("create teacher user: %w", err)
		}
		classroom.Teacher.UserID = classroom.TeacherUser.ID
		if err := tx.Omit("User", "Classes").Create(&classroom.Teacher).Error; err != nil {
			return fmt.Errorf("create teacher: %w", err)
		}

		for i := range classroom.Classes {
			entry := &classroom.Classes[i]
			entry.Class.TeacherID = classroom.Teacher.ID
			if err := tx.Omit("Enrollments", "Lessons").Create(&entry.Class).Error; err != nil {
				return fmt.Errorf("create class %q: %w", entry.Class.Name, err)
			}
			for j := range entry.Lessons {
				entry.Lessons[j].ClassID = entry.Class.ID
				if err := tx.Omit("Class").Create(&entry.Lessons[j]).Error; err != nil {
					return fmt.Errorf("create lesson %q: %w", entry.Lessons[j].Title, err)
				}
			}
		}

		for i := range classroom.Students {
			if err := createClassroomStudent(tx, classroom, &classroom.Students[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

func createClassroomStudent(tx *gorm.DB, classroom *Classroom, entry *ClassroomStudent) error {
	if err := tx.Create(&entry.User).Error; err != nil {
		return fmt.Errorf("create student user: %w", err)
	}
	entry.Student.UserID = entry.User.ID
	if err := tx.Omit("User", "Enrollments", "Assessments").Create(&entry.Student).Error; err != nil {
		return fmt.Errorf("create student: %w", err)
	}

	status := entry.Enrollment
	if status == "" {
		status = models.EnrollmentStatusActive
	}
	for _, idx := range entry.ClassIdx {
		if idx < 0 || idx >= len(classroom.Classes) {
			return fmt.Errorf("student %s references unknown class %d", entry.Student.FullName(), idx)
		}
		enrollment := models.Enrollment{
			StudentID:      entry.Student.ID,
			ClassID:        classroom.Classes[idx].Class.ID,
			Status:         status,
			EnrollmentDate: entry.Student.CreatedAt,
		}
		if err := tx.Omit("Class").Create(&enrollment).Error; err != nil {
			return fmt.Errorf("create enrollment: %w", err)
		}
	}

	for i := range entry.Sessions {
		session := &entry.Sessions[i]
		if session.ClassIndex < 0 || session.ClassIndex >= len(classroom.Classes) {
			return fmt.Errorf("session references unknown class %d", session.ClassIndex)
		}
		lessons := classroom.Classes[session.ClassIndex].Lessons
		if session.LessonIndex < 0 || session.LessonIndex >= len(lessons) {
			return fmt.Errorf("session references unknown lesson %d", session.LessonIndex)
		}
		lessonID := lessons[session.LessonIndex].ID

		session.Session.StudentID = entry.Student.ID
		session.Session.LessonID = lessonID
		if err := tx.Omit("Student", "Lesson", "Assessment").Create(&session.Session).Error; err != nil {
			return fmt.Errorf("create ai session: %w", err)
		}

		if session.Assessment == nil {
			continue
		}
		session.Assessment.SessionID = session.Session.ID
		session.Assessment.StudentID = entry.Student.ID
		session.Assessment.LessonID = lessonID
		if err := tx.Create(session.Assessment).Error; err != nil {
			return fmt.Errorf("create assessment: %w", err)
		}
	}
	return nil
}
