package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"

	"github.com/noah-isme/classroom-insights-api/internal/dto"
	"github.com/noah-isme/classroom-insights-api/internal/models"
	"github.com/noah-isme/classroom-insights-api/internal/repository"
)

var (
	// ErrSeedDisabled indicates the seeding tools are disabled by configuration.
	ErrSeedDisabled = errors.New("seeding is disabled")
	// ErrSeedUnauthorized indicates the provided token is invalid.
	ErrSeedUnauthorized = errors.New("invalid seed token")
)

const (
	defaultDemoStudents  = 12
	defaultDemoSessions  = 3
	demoLessonsPerClass  = 4
	demoActivityReason   = "demo_classroom_seeded"
	demoAcademicYear     = "2024-2025"
	demoSemester         = "Fall"
	demoSubject          = "Mathematics"
	demoStrengths        = `["Problem solving","Communication"]`
	demoWeaknesses       = `["Speed","Accuracy"]`
	demoTeacherFirstName = "Demo"
	demoTeacherLastName  = "Teacher"
)

var (
	demoStudentNames = [][2]string{
		{"Alice", "Johnson"}, {"Bob", "Smith"}, {"Charlie", "Davis"},
		{"Diana", "Wilson"}, {"Emma", "Brown"}, {"Frank", "Miller"},
		{"Grace", "Taylor"}, {"Henry", "Anderson"}, {"Ivy", "Thomas"},
		{"Jack", "Jackson"}, {"Katie", "White"}, {"Liam", "Harris"},
	}
	demoGradeLevels = []string{"9th Grade", "10th Grade", "11th Grade"}
	demoClasses     = []struct {
		code        string
		name        string
		description string
	}{
		{code: "MATH101", name: "Algebra I", description: "Introduction to algebra"},
		{code: "MATH102", name: "Geometry", description: "Study of geometric shapes"},
	}
)

// SeedService creates demonstration data.
type SeedService interface {
	SeedDemoClassroom(ctx context.Context, token string, request dto.SeedDemoClassroomRequest) (dto.SeedDemoClassroomResult, error)
}

type seedService struct {
	repo      repository.ClassroomRepository
	publisher TeacherActivityPublisher
	enabled   bool
	token     string
	logger    zerolog.Logger
	now       func() time.Time
	suffix    func() string
}

// NewSeedService constructs a seeding service. publisher may be nil.
func NewSeedService(repo repository.ClassroomRepository, publisher TeacherActivityPublisher, enabled bool, token string, logger zerolog.Logger) SeedService {
	return &seedService{
		repo:      repo,
		publisher: publisher,
		enabled:   enabled,
		token:     token,
		logger:    logger.With().Str("component", "seed_service").Logger(),
		now:       time.Now,
		suffix: func() string {
			return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
		},
	}
}

func (s *seedService) SeedDemoClassroom(ctx context.Context, token string, request dto.SeedDemoClassroomRequest) (dto.SeedDemoClassroomResult, error) {
	if !s.enabled {
		return dto.SeedDemoClassroomResult{}, ErrSeedDisabled
	}
	if !s.validateToken(token) {
		return dto.SeedDemoClassroomResult{}, ErrSeedUnauthorized
	}

	classroom, result := s.buildClassroom(request)
	if err := s.repo.Create(ctx, classroom); err != nil {
		return dto.SeedDemoClassroomResult{}, fmt.Errorf("create demo classroom: %w", err)
	}

	result.TeacherID = classroom.Teacher.ID
	result.TeacherUserID = classroom.TeacherUser.ID
	result.TeacherEmail = classroom.TeacherUser.Email
	result.ClassIDs = make([]uint, 0, len(classroom.Classes))
	for _, entry := range classroom.Classes {
		result.ClassIDs = append(result.ClassIDs, entry.Class.ID)
	}

	if s.publisher != nil {
		event := TeacherActivityEvent{TeacherID: result.TeacherID, Reason: demoActivityReason, OccurredAt: s.now().UTC()}
		if err := s.publisher.Publish(ctx, event); err != nil {
			s.logger.Warn().Err(err).Uint("teacher_id", result.TeacherID).Msg("failed to announce demo classroom")
		}
	}

	s.logger.Info().
		Uint("teacher_id", result.TeacherID).
		Str("teacher_email", maskEmailAddress(result.TeacherEmail)).
		Int("students", result.Students).
		Int("sessions", result.Sessions).
		Msg("demo classroom seeded")
	return result, nil
}

func (s *seedService) buildClassroom(request dto.SeedDemoClassroomRequest) (*repository.Classroom, dto.SeedDemoClassroomResult) {
	now := s.now().UTC()
	suffix := s.suffix()

	studentCount := request.Students
	if studentCount <= 0 {
		studentCount = defaultDemoStudents
	}
	sessionsPerStudent := request.SessionsPerStudent
	if sessionsPerStudent <= 0 {
		sessionsPerStudent = defaultDemoSessions
	}

	email := strings.TrimSpace(request.TeacherEmail)
	if email == "" {
		email = fmt.Sprintf("demo+%s@teacher.demo.com", suffix)
	}

	classroom := &repository.Classroom{
		TeacherUser: models.User{
			Email:     strings.ToLower(email),
			Role:      models.UserRoleTeacher,
			IsActive:  true,
			LastLogin: &now,
		},
		Teacher: models.Teacher{
			FirstName:  defaultString(request.TeacherFirstName, demoTeacherFirstName),
			LastName:   defaultString(request.TeacherLastName, demoTeacherLastName),
			EmployeeID: "EMP-" + strings.ToUpper(suffix),
			Department: demoSubject,
		},
	}

	subject := demoSubject
	for _, definition := range demoClasses {
		entry := repository.ClassroomClass{
			Class: models.Class{
				Name:         definition.name,
				Subject:      &subject,
				ClassCode:    fmt.Sprintf("%s-%s", definition.code, strings.ToUpper(suffix)),
				Description:  definition.description,
				AcademicYear: demoAcademicYear,
				Semester:     demoSemester,
			},
		}
		for n := 1; n <= demoLessonsPerClass; n++ {
			lessonDate := now.AddDate(0, 0, -7*(demoLessonsPerClass-n))
			entry.Lessons = append(entry.Lessons, models.Lesson{
				LessonNumber: n,
				Title:        fmt.Sprintf("%s - Lesson %d", definition.name, n),
				LessonDate:   &lessonDate,
			})
		}
		classroom.Classes = append(classroom.Classes, entry)
	}

	result := dto.SeedDemoClassroomResult{
		Students: studentCount,
		Lessons:  len(demoClasses) * demoLessonsPerClass,
	}

	for i := 0; i < studentCount; i++ {
		student := s.buildStudent(i, sessionsPerStudent, suffix, now)
		result.Sessions += len(student.Sessions)
		for _, session := range student.Sessions {
			if session.Assessment != nil {
				result.Assessments++
			}
		}
		classroom.Students = append(classroom.Students, student)
	}

	return classroom, result
}

func (s *seedService) buildStudent(i, sessions int, suffix string, now time.Time) repository.ClassroomStudent {
	name := demoStudentNames[i%len(demoStudentNames)]
	first, last := name[0], name[1]
	if round := i / len(demoStudentNames); round > 0 {
		last = fmt.Sprintf("%s %d", last, round+1)
	}

	var lastLogin *time.Time
	if i%6 != 5 {
		login := now.Add(-time.Duration(i%8) * 24 * time.Hour)
		lastLogin = &login
	}

	grade := demoGradeLevels[i%len(demoGradeLevels)]
	enrolledAt := now.AddDate(0, -2, 0)

	classIdx := []int{i % len(demoClasses)}
	if i%3 == 0 {
		classIdx = append(classIdx, (i+1)%len(demoClasses))
	}

	entry := repository.ClassroomStudent{
		User: models.User{
			Email:     fmt.Sprintf("%s.%s.%d+%s@student.demo.com", strings.ToLower(first), strings.ToLower(name[1]), i+1, suffix),
			Role:      models.UserRoleStudent,
			IsActive:  true,
			LastLogin: lastLogin,
		},
		Student: models.Student{
			FirstName:      first,
			LastName:       last,
			StudentNumber:  fmt.Sprintf("STU%d", 1000+i),
			GradeLevel:     &grade,
			EnrollmentDate: &enrolledAt,
		},
		ClassIdx: classIdx,
	}

	for j := 0; j < sessions; j++ {
		classIndex := classIdx[j%len(classIdx)]
		lessonIndex := j % demoLessonsPerClass
		duration := 15 + (i*7+j*11)%45
		start := now.Add(-time.Duration((i*7+j*13)%(14*24)+1) * time.Hour)
		end := start.Add(time.Duration(duration) * time.Minute)
		score := demoScore(i, j)

		entry.Sessions = append(entry.Sessions, repository.ClassroomSession{
			ClassIndex:  classIndex,
			LessonIndex: lessonIndex,
			Session: models.AISession{
				SessionStart:    start,
				SessionEnd:      &end,
				DurationMinutes: duration,
				Status:          models.AISessionStatusCompleted,
				Transcript:      fmt.Sprintf("AI tutoring session for %s", first),
				Summary:         fmt.Sprintf("Student worked on lesson %d", lessonIndex+1),
			},
			Assessment: &models.Assessment{
				OverallScore:       &score,
				UnderstandingLevel: understandingFor(score),
				Strengths:          datatypes.JSON(demoStrengths),
				Weaknesses:         datatypes.JSON(demoWeaknesses),
				AIFeedback:         fmt.Sprintf("Good work! Score: %.1f/10", score),
				CreatedAt:          end,
			},
		})
	}
	return entry
}

// demoScore spreads scores over 5.0..9.0 so some students fall below the attention threshold.
func demoScore(student, session int) float64 {
	return roundToOneDecimal(5 + float64((student*37+session*17)%41)/10)
}

func understandingFor(score float64) string {
	switch {
	case score < 6:
		return models.UnderstandingDeveloping
	case score < 8:
		return models.UnderstandingProficient
	default:
		return models.UnderstandingAdvanced
	}
}

func defaultString(value, fallback string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return fallback
}

func (s *seedService) validateToken(token string) bool {
	expected := strings.TrimSpace(s.token)
	if expected == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(strings.TrimSpace(token))) == 1
}
