package models

// GradeLevelCount is a grouped roster count for one grade level.
type GradeLevelCount struct {
	GradeLevel string
	Students   int64
}

// ClassEnrollmentCount pairs a class with its number of active enrollments.
type ClassEnrollmentCount struct {
	Class    Class
	Students int64
}

// ClassActivity holds lesson-attributed aggregates for one class.
type ClassActivity struct {
	ClassID      uint
	AverageScore *float64
	Sessions     int64
	Assessments  int64
}

// RosterStudent is a roster member with the data needed for attention scoring.
type RosterStudent struct {
	Student           Student
	PrimaryClass      string
	RecentAssessments []Assessment
}

// AllModels lists every persisted model in migration order.
func AllModels() []interface{} {
	return []interface{}{
		&User{},
		&Teacher{},
		&Student{},
		&Class{},
		&Enrollment{},
		&Lesson{},
		&AISession{},
		&Assessment{},
	}
}
