package repository

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/classroom-insights-api/internal/models"
)

type analyticsFixture struct {
	teacher      models.Teacher
	other        models.Teacher
	algebra      models.Class
	geometry     models.Class
	firstStudent models.Student
	secondStud   models.Student
	base         time.Time
}

func setupAnalyticsDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(models.AllModels()...))
	return db
}

func strPtr(v string) *string { return &v }

func floatPtr(v float64) *float64 { return &v }

func scoredSession(classIdx int, start time.Time, score *float64) ClassroomSession {
	return ClassroomSession{
		ClassIndex: classIdx,
		Session: models.AISession{
			SessionStart:    start,
			DurationMinutes: 20,
			Status:          models.AISessionStatusCompleted,
		},
		Assessment: &models.Assessment{
			OverallScore:       score,
			UnderstandingLevel: models.UnderstandingDeveloping,
			CreatedAt:          start,
		},
	}
}

func seedAnalyticsFixture(t *testing.T, db *gorm.DB) analyticsFixture {
	t.Helper()
	repo := NewClassroomRepository(db)
	base := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	login := base.Add(-24 * time.Hour)

	primary := &Classroom{
		TeacherUser: models.User{Email: "teacher@example.com", Role: models.UserRoleTeacher, IsActive: true},
		Teacher:     models.Teacher{FirstName: "Ada", LastName: "Lovelace"},
		Classes: []ClassroomClass{
			{
				Class:   models.Class{Name: "Algebra I", Subject: strPtr("Mathematics"), ClassCode: "ALG-1"},
				Lessons: []models.Lesson{{LessonNumber: 1, Title: "Linear equations"}},
			},
			{
				Class:   models.Class{Name: "Geometry", Subject: strPtr("Mathematics"), ClassCode: "GEO-1"},
				Lessons: []models.Lesson{{LessonNumber: 1, Title: "Triangles"}},
			},
		},
		Students: []ClassroomStudent{
			{
				User:     models.User{Email: "first@example.com", Role: models.UserRoleStudent, IsActive: true, LastLogin: &login},
				Student:  models.Student{FirstName: "Grace", LastName: "Hopper", GradeLevel: strPtr("9")},
				ClassIdx: []int{0, 1},
				Sessions: []ClassroomSession{
					scoredSession(0, base.Add(-3*time.Hour), floatPtr(8)),
					scoredSession(0, base.Add(-2*time.Hour), floatPtr(6)),
					scoredSession(1, base.Add(-1*time.Hour), nil),
				},
			},
			{
				User:     models.User{Email: "second@example.com", Role: models.UserRoleStudent, IsActive: true},
				Student:  models.Student{FirstName: "Alan", LastName: "Turing", GradeLevel: strPtr("10")},
				ClassIdx: []int{0},
				Sessions: []ClassroomSession{
					scoredSession(0, base, floatPtr(4)),
				},
			},
			{
				User:       models.User{Email: "dropped@example.com", Role: models.UserRoleStudent, IsActive: true},
				Student:    models.Student{FirstName: "Dropped", LastName: "Student"},
				ClassIdx:   []int{1},
				Enrollment: models.EnrollmentStatusDropped,
				Sessions: []ClassroomSession{
					scoredSession(1, base.Add(-30*time.Minute), floatPtr(9)),
				},
			},
		},
	}
	require.NoError(t, repo.Create(context.Background(), primary))

	other := &Classroom{
		TeacherUser: models.User{Email: "other@example.com", Role: models.UserRoleTeacher, IsActive: true},
		Teacher:     models.Teacher{FirstName: "Other", LastName: "Teacher"},
		Classes: []ClassroomClass{{
			Class:   models.Class{Name: "Chemistry", Subject: strPtr("Science"), ClassCode: "CHE-1"},
			Lessons: []models.Lesson{{LessonNumber: 1, Title: "Atoms"}},
		}},
		Students: []ClassroomStudent{{
			User:     models.User{Email: "elsewhere@example.com", Role: models.UserRoleStudent, IsActive: true},
			Student:  models.Student{FirstName: "Marie", LastName: "Curie", GradeLevel: strPtr("11")},
			ClassIdx: []int{0},
			Sessions: []ClassroomSession{scoredSession(0, base.Add(time.Hour), floatPtr(10))},
		}},
	}
	require.NoError(t, repo.Create(context.Background(), other))

	return analyticsFixture{
		teacher:      primary.Teacher,
		other:        other.Teacher,
		algebra:      primary.Classes[0].Class,
		geometry:     primary.Classes[1].Class,
		firstStudent: primary.Students[0].Student,
		secondStud:   primary.Students[1].Student,
		base:         base,
	}
}

func TestTeacherAnalyticsRepositoryRosterCounts(t *testing.T) {
	db := setupAnalyticsDB(t)
	fixture := seedAnalyticsFixture(t, db)
	repo := NewTeacherAnalyticsRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Ping(ctx))

	students, err := repo.CountRosterStudents(ctx, fixture.teacher.ID)
	require.NoError(t, err)
	require.Equal(t, int64(2), students, "dropped enrollments and other teachers' students are excluded")

	assessments, err := repo.CountRosterAssessments(ctx, fixture.teacher.ID)
	require.NoError(t, err)
	require.Equal(t, int64(4), assessments)

	sessions, err := repo.CountRosterSessions(ctx, fixture.teacher.ID)
	require.NoError(t, err)
	require.Equal(t, int64(4), sessions)

	average, ok, err := repo.AverageRosterScore(ctx, fixture.teacher.ID)
	require.NoError(t, err)
	require.True(t, ok)
	require.InDelta(t, 6.0, average, 0.0001, "null scores are ignored")
}

func TestTeacherAnalyticsRepositoryUnknownTeacher(t *testing.T) {
	db := setupAnalyticsDB(t)
	seedAnalyticsFixture(t, db)
	repo := NewTeacherAnalyticsRepository(db)
	ctx := context.Background()

	students, err := repo.CountRosterStudents(ctx, 9999)
	require.NoError(t, err)
	require.Zero(t, students)

	_, ok, err := repo.AverageRosterScore(ctx, 9999)
	require.NoError(t, err)
	require.False(t, ok)

	classes, err := repo.ListClassesWithEnrollment(ctx, 9999)
	require.NoError(t, err)
	require.Empty(t, classes)

	roster, err := repo.ListRosterStudents(ctx, 9999, 10, 3)
	require.NoError(t, err)
	require.Empty(t, roster)
}

func TestTeacherAnalyticsRepositoryGradeLevels(t *testing.T) {
	db := setupAnalyticsDB(t)
	fixture := seedAnalyticsFixture(t, db)
	repo := NewTeacherAnalyticsRepository(db)

	rows, err := repo.CountRosterByGradeLevel(context.Background(), fixture.teacher.ID)
	require.NoError(t, err)
	require.Equal(t, []models.GradeLevelCount{
		{GradeLevel: "10", Students: 1},
		{GradeLevel: "9", Students: 1},
	}, rows, "grades are ordered by label")
}

func TestTeacherAnalyticsRepositoryClassesWithEnrollment(t *testing.T) {
	db := setupAnalyticsDB(t)
	fixture := seedAnalyticsFixture(t, db)
	repo := NewTeacherAnalyticsRepository(db)

	rows, err := repo.ListClassesWithEnrollment(context.Background(), fixture.teacher.ID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, fixture.algebra.ID, rows[0].Class.ID)
	require.Equal(t, int64(2), rows[0].Students)
	require.Equal(t, fixture.geometry.ID, rows[1].Class.ID)
	require.Equal(t, int64(1), rows[1].Students)
}

func TestTeacherAnalyticsRepositoryRecentSessions(t *testing.T) {
	db := setupAnalyticsDB(t)
	fixture := seedAnalyticsFixture(t, db)
	repo := NewTeacherAnalyticsRepository(db)

	sessions, err := repo.ListRecentRosterSessions(context.Background(), fixture.teacher.ID, 2)
	require.NoError(t, err)
	require.Len(t, sessions, 2)

	require.Equal(t, "Alan", sessions[0].Student.FirstName)
	require.Equal(t, "Algebra I", sessions[0].Lesson.Class.Name)
	require.NotNil(t, sessions[0].Assessment)
	require.InDelta(t, 4.0, *sessions[0].Assessment.OverallScore, 0.0001)

	require.Equal(t, "Grace", sessions[1].Student.FirstName)
	require.Equal(t, "Geometry", sessions[1].Lesson.Class.Name)
	require.NotNil(t, sessions[1].Assessment)
	require.Nil(t, sessions[1].Assessment.OverallScore)
}

func TestTeacherAnalyticsRepositoryRosterStudents(t *testing.T) {
	db := setupAnalyticsDB(t)
	fixture := seedAnalyticsFixture(t, db)
	repo := NewTeacherAnalyticsRepository(db)

	roster, err := repo.ListRosterStudents(context.Background(), fixture.teacher.ID, 10, 2)
	require.NoError(t, err)
	require.Len(t, roster, 2)

	first := roster[0]
	require.Equal(t, fixture.firstStudent.ID, first.Student.ID)
	require.Equal(t, "Algebra I", first.PrimaryClass)
	require.NotNil(t, first.Student.User.LastLogin)
	require.Len(t, first.RecentAssessments, 2, "assessments are capped per student")
	require.Nil(t, first.RecentAssessments[0].OverallScore, "newest assessment first")
	require.InDelta(t, 6.0, *first.RecentAssessments[1].OverallScore, 0.0001)

	second := roster[1]
	require.Equal(t, fixture.secondStud.ID, second.Student.ID)
	require.Nil(t, second.Student.User.LastLogin)
	require.Len(t, second.RecentAssessments, 1)

	limited, err := repo.ListRosterStudents(context.Background(), fixture.teacher.ID, 1, 3)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	require.Equal(t, fixture.firstStudent.ID, limited[0].Student.ID)
}

func TestTeacherAnalyticsRepositoryClassActivity(t *testing.T) {
	db := setupAnalyticsDB(t)
	fixture := seedAnalyticsFixture(t, db)
	repo := NewTeacherAnalyticsRepository(db)

	activity, err := repo.ClassActivity(context.Background(), fixture.teacher.ID)
	require.NoError(t, err)
	require.Len(t, activity, 2)

	algebra := activity[fixture.algebra.ID]
	require.Equal(t, int64(3), algebra.Sessions)
	require.Equal(t, int64(3), algebra.Assessments)
	require.NotNil(t, algebra.AverageScore)
	require.InDelta(t, 6.0, *algebra.AverageScore, 0.0001)

	geometry := activity[fixture.geometry.ID]
	require.Equal(t, int64(1), geometry.Sessions, "dropped students do not count toward the class")
	require.Equal(t, int64(1), geometry.Assessments)
	require.Nil(t, geometry.AverageScore, "only unscored assessments remain")
}

func TestTeacherRepositoryGetByUserID(t *testing.T) {
	db := setupAnalyticsDB(t)
	fixture := seedAnalyticsFixture(t, db)
	repo := NewTeacherRepository(db)

	teacher, err := repo.GetByUserID(context.Background(), fixture.teacher.UserID)
	require.NoError(t, err)
	require.Equal(t, fixture.teacher.ID, teacher.ID)

	_, err = repo.GetByUserID(context.Background(), 424242)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestClassroomRepositoryRollsBackOnError(t *testing.T) {
	db := setupAnalyticsDB(t)
	repo := NewClassroomRepository(db)

	classroom := &Classroom{
		TeacherUser: models.User{Email: "rollback@example.com", Role: models.UserRoleTeacher, IsActive: true},
		Teacher:     models.Teacher{FirstName: "Roll", LastName: "Back"},
		Students: []ClassroomStudent{{
			User:     models.User{Email: "orphan@example.com", Role: models.UserRoleStudent, IsActive: true},
			Student:  models.Student{FirstName: "Orphan", LastName: "Student"},
			ClassIdx: []int{3},
		}},
	}
	require.Error(t, repo.Create(context.Background(), classroom))

	var users int64
	require.NoError(t, db.Model(&models.User{}).Count(&users).Error)
	require.Zero(t, users)
}
