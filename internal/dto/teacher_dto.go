package dto

import "time"

// DashboardSummary is the teacher dashboard payload.
type DashboardSummary struct {
	TotalStudents       int64                 `json:"totalStudents"`
	TotalAssessments    int64                 `json:"totalAssessments"`
	AveragePerformance  float64               `json:"averagePerformance"`
	ActiveStudents      int64                 `json:"activeStudents"`
	AISessionsToday     int64                 `json:"aiSessionsToday"`
	TotalAISessions     int64                 `json:"totalAiSessions"`
	GradeLevelBreakdown []GradeLevelBreakdown `json:"gradeLevelBreakdown"`
	SubjectBreakdown    []SubjectBreakdown    `json:"subjectBreakdown"`
	RecentActivity      []RecentActivity      `json:"recentActivity"`
}

// GradeLevelBreakdown counts roster students in one grade.
type GradeLevelBreakdown struct {
	Grade    string `json:"grade"`
	Students int64  `json:"students"`
}

// SubjectBreakdown summarises the classes taught for one subject.
type SubjectBreakdown struct {
	Subject  string `json:"subject"`
	Classes  int64  `json:"classes"`
	Students int64  `json:"students"`
}

// RecentActivity describes one recent AI tutoring session.
type RecentActivity struct {
	ID          uint      `json:"id"`
	StudentName string    `json:"studentName"`
	Action      string    `json:"action"`
	ClassName   string    `json:"className"`
	Subject     string    `json:"subject"`
	Score       *float64  `json:"score"`
	Duration    int       `json:"duration"`
	Date        time.Time `json:"date"`
}

// AtRiskStudent is a roster student evaluated for follow-up.
type AtRiskStudent struct {
	ID               uint    `json:"id"`
	Name             string  `json:"name"`
	AvgScore         float64 `json:"avgScore"`
	DaysSinceLogin   int     `json:"daysSinceLogin"`
	TotalAssessments int     `json:"totalAssessments"`
	PrimaryClass     string  `json:"primaryClass"`
	NeedsAttention   bool    `json:"needsAttention"`
}

// ClassSummary is the per-class performance row.
type ClassSummary struct {
	ID               uint    `json:"id"`
	Name             string  `json:"name"`
	Subject          *string `json:"subject"`
	StudentCount     int64   `json:"studentCount"`
	AvgScore         float64 `json:"avgScore"`
	TotalSessions    int64   `json:"totalSessions"`
	TotalAssessments int64   `json:"totalAssessments"`
	ClassCode        string  `json:"classCode"`
}

// AttentionQuery captures the query string of the attention endpoint.
type AttentionQuery struct {
	Limit int `query:"limit" validate:"omitempty,min=1,max=50"`
}

// StatsMeta is attached to dashboard responses.
type StatsMeta struct {
	CacheHit bool `json:"cache_hit"`
}

// SeedDemoClassroomRequest customises the demo classroom.
type SeedDemoClassroomRequest struct {
	TeacherEmail       string `json:"teacher_email" validate:"omitempty,email"`
	TeacherFirstName   string `json:"teacher_first_name" validate:"omitempty,max=100"`
	TeacherLastName    string `json:"teacher_last_name" validate:"omitempty,max=100"`
	Students           int    `json:"students" validate:"omitempty,min=1,max=48"`
	SessionsPerStudent int    `json:"sessions_per_student" validate:"omitempty,min=1,max=10"`
}

// SeedDemoClassroomResult reports what the seeder created.
type SeedDemoClassroomResult struct {
	TeacherID     uint   `json:"teacher_id"`
	TeacherUserID uint   `json:"teacher_user_id"`
	TeacherEmail  string `json:"teacher_email"`
	ClassIDs      []uint `json:"class_ids"`
	Students      int    `json:"students"`
	Lessons       int    `json:"lessons"`
	Sessions      int    `json:"sessions"`
	Assessments   int    `json:"assessments"`
}
