package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/classroom-insights-api/internal/dto"
	"github.com/noah-isme/classroom-insights-api/internal/models"
	"github.com/noah-isme/classroom-insights-api/internal/observability"
	"github.com/noah-isme/classroom-insights-api/internal/repository"
)

// ErrStoreUnavailable indicates the analytics store could not be reached at all.
var ErrStoreUnavailable = errors.New("analytics store unavailable")

const (
	defaultRecentActivityLimit = 5
	defaultAttentionLimit      = 5
	attentionAssessmentWindow  = 3
	attentionScoreThreshold    = 6.0
	attentionInactiveDays      = 3
	neverLoggedInDays          = 999
	recentActivityAction       = "Completed AI Session"
)

// Sub-metric names used in logs, traces and the fallback counter.
const (
	metricTotalStudents       = "total_students"
	metricTotalAssessments    = "total_assessments"
	metricTotalAISessions     = "total_ai_sessions"
	metricAveragePerformance  = "average_performance"
	metricGradeLevelBreakdown = "grade_level_breakdown"
	metricSubjectBreakdown    = "subject_breakdown"
	metricRecentActivity      = "recent_activity"
	metricStudentsAttention   = "students_needing_attention"
	metricClassPerformance    = "class_performance"
	metricClassActivity       = "class_activity"
)

// TeacherAnalyticsService computes dashboard analytics for a single teacher.
type TeacherAnalyticsService interface {
	GetTeacherStats(ctx context.Context, teacherID uint) (dto.DashboardSummary, bool, error)
	GetStudentsNeedingAttention(ctx context.Context, teacherID uint, limit int) []dto.AtRiskStudent
	GetClassPerformance(ctx context.Context, teacherID uint) []dto.ClassSummary
	ExportClassPerformance(ctx context.Context, teacherID uint) ([]byte, error)
	InvalidateTeacher(ctx context.Context, teacherID uint) error
}

// TeacherAnalyticsOptions tunes the analytics service.
type TeacherAnalyticsOptions struct {
	CacheTTL            time.Duration
	RecentActivityLimit int
	AttentionLimit      int
	Timeout             time.Duration
}

type teacherAnalyticsService struct {
	repo           repository.TeacherAnalyticsRepository
	cache          *redis.Client
	cacheTTL       time.Duration
	recentLimit    int
	attentionLimit int
	timeout        time.Duration
	sanitizer      *bluemonday.Policy
	logger         zerolog.Logger
	now            func() time.Time
}

// NewTeacherAnalyticsService constructs the analytics service. cache may be nil.
func NewTeacherAnalyticsService(repo repository.TeacherAnalyticsRepository, cache *redis.Client, opts TeacherAnalyticsOptions, logger zerolog.Logger) TeacherAnalyticsService {
	recent := opts.RecentActivityLimit
	if recent <= 0 {
		recent = defaultRecentActivityLimit
	}
	attention := opts.AttentionLimit
	if attention <= 0 {
		attention = defaultAttentionLimit
	}

	return &teacherAnalyticsService{
		repo:           repo,
		cache:          cache,
		cacheTTL:       opts.CacheTTL,
		recentLimit:    recent,
		attentionLimit: attention,
		timeout:        opts.Timeout,
		sanitizer:      bluemonday.StrictPolicy(),
		logger:         logger.With().Str("component", "teacher_analytics_service").Logger(),
		now:            time.Now,
	}
}

func teacherStatsCacheKey(teacherID uint) string {
	return fmt.Sprintf("insights:teacher:%d:stats", teacherID)
}

func (s *teacherAnalyticsService) GetTeacherStats(ctx context.Context, teacherID uint) (dto.DashboardSummary, bool, error) {
	tracer := otel.Tracer("github.com/noah-isme/classroom-insights-api/internal/service/teacher_analytics")
	ctx, span := tracer.Start(ctx, "analytics.teacher_stats")
	span.SetAttributes(attribute.Int64("analytics.teacher_id", int64(teacherID)))
	defer span.End()

	started := time.Now()
	defer func() {
		observability.AnalyticsDuration().WithLabelValues("teacher_stats").Observe(time.Since(started).Seconds())
	}()

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	cacheKey := teacherStatsCacheKey(teacherID)
	if cached, ok := s.readCachedStats(ctx, cacheKey, span); ok {
		return cached, true, nil
	}

	if err := s.repo.Ping(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "store_unavailable")
		if ctxErr := ctx.Err(); ctxErr != nil {
			return dto.DashboardSummary{}, false, ctxErr
		}
		return dto.DashboardSummary{}, false, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	guard := &metricGuard{logger: s.logger, span: span, teacherID: teacherID}

	var (
		summary dto.DashboardSummary
		group   errgroup.Group
	)

	group.Go(func() error {
		summary.TotalStudents = guarded(ctx, guard, metricTotalStudents, int64(0), func(ctx context.Context) (int64, error) {
			return s.repo.CountRosterStudents(ctx, teacherID)
		})
		return nil
	})
	group.Go(func() error {
		summary.TotalAssessments = guarded(ctx, guard, metricTotalAssessments, int64(0), func(ctx context.Context) (int64, error) {
			return s.repo.CountRosterAssessments(ctx, teacherID)
		})
		return nil
	})
	group.Go(func() error {
		summary.TotalAISessions = guarded(ctx, guard, metricTotalAISessions, int64(0), func(ctx context.Context) (int64, error) {
			return s.repo.CountRosterSessions(ctx, teacherID)
		})
		return nil
	})
	group.Go(func() error {
		summary.AveragePerformance = guarded(ctx, guard, metricAveragePerformance, 0.0, func(ctx context.Context) (float64, error) {
			average, ok, err := s.repo.AverageRosterScore(ctx, teacherID)
			if err != nil || !ok {
				return 0, err
			}
			return roundToOneDecimal(average), nil
		})
		return nil
	})
	group.Go(func() error {
		summary.GradeLevelBreakdown = guarded(ctx, guard, metricGradeLevelBreakdown, []dto.GradeLevelBreakdown{}, s.gradeLevelBreakdown(teacherID))
		return nil
	})
	group.Go(func() error {
		summary.SubjectBreakdown = guarded(ctx, guard, metricSubjectBreakdown, []dto.SubjectBreakdown{}, func(ctx context.Context) ([]dto.SubjectBreakdown, error) {
			classes, err := s.repo.ListClassesWithEnrollment(ctx, teacherID)
			if err != nil {
				return nil, err
			}
			return buildSubjectBreakdown(classes), nil
		})
		return nil
	})
	group.Go(func() error {
		summary.RecentActivity = guarded(ctx, guard, metricRecentActivity, []dto.RecentActivity{}, s.recentActivity(teacherID))
		return nil
	})

	_ = group.Wait()

	if err := ctx.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "context_done")
		return dto.DashboardSummary{}, false, err
	}

	summary.ActiveStudents = summary.TotalStudents
	summary.AISessionsToday = summary.TotalAISessions / 10

	degraded := guard.failures()
	span.SetAttributes(
		attribute.Int64("analytics.total_students", summary.TotalStudents),
		attribute.Int("analytics.degraded_metrics", len(degraded)),
	)

	if len(degraded) == 0 {
		s.writeCachedStats(ctx, cacheKey, summary, span)
	} else {
		s.logger.Info().Uint("teacher_id", teacherID).Strs("degraded_metrics", degraded).Msg("serving degraded teacher stats")
	}

	return summary, false, nil
}

func (s *teacherAnalyticsService) gradeLevelBreakdown(teacherID uint) func(context.Context) ([]dto.GradeLevelBreakdown, error) {
	return func(ctx context.Context) ([]dto.GradeLevelBreakdown, error) {
		rows, err := s.repo.CountRosterByGradeLevel(ctx, teacherID)
		if err != nil {
			return nil, err
		}
		breakdown := make([]dto.GradeLevelBreakdown, 0, len(rows))
		for _, row := range rows {
			breakdown = append(breakdown, dto.GradeLevelBreakdown{Grade: row.GradeLevel, Students: row.Students})
		}
		return breakdown, nil
	}
}

func (s *teacherAnalyticsService) recentActivity(teacherID uint) func(context.Context) ([]dto.RecentActivity, error) {
	return func(ctx context.Context) ([]dto.RecentActivity, error) {
		sessions, err := s.repo.ListRecentRosterSessions(ctx, teacherID, s.recentLimit)
		if err != nil {
			return nil, err
		}

		activity := make([]dto.RecentActivity, 0, len(sessions))
		for _, session := range sessions {
			item := dto.RecentActivity{
				ID:          session.ID,
				StudentName: s.displayName(session.Student.FullName()),
				Action:      recentActivityAction,
				ClassName:   session.Lesson.Class.Name,
				Duration:    session.DurationMinutes,
				Date:        session.SessionStart,
			}
			if subject := session.Lesson.Class.Subject; subject != nil {
				item.Subject = *subject
			}
			if session.Assessment != nil && session.Assessment.OverallScore != nil {
				score := *session.Assessment.OverallScore
				item.Score = &score
			}
			activity = append(activity, item)
		}
		return activity, nil
	}
}

func (s *teacherAnalyticsService) GetStudentsNeedingAttention(ctx context.Context, teacherID uint, limit int) []dto.AtRiskStudent {
	started := time.Now()
	defer func() {
		observability.AnalyticsDuration().WithLabelValues("students_needing_attention").Observe(time.Since(started).Seconds())
	}()

	if limit <= 0 {
		limit = s.attentionLimit
	}

	roster, err := s.repo.ListRosterStudents(ctx, teacherID, limit*2, attentionAssessmentWindow)
	if err != nil {
		s.recordFallback(teacherID, metricStudentsAttention, err)
		return []dto.AtRiskStudent{}
	}

	now := s.now()
	flagged := make([]dto.AtRiskStudent, 0, limit)
	for _, entry := range roster {
		candidate := s.evaluateAttention(entry, now)
		if !candidate.NeedsAttention {
			continue
		}
		flagged = append(flagged, candidate)
		if len(flagged) == limit {
			break
		}
	}
	return flagged
}

func (s *teacherAnalyticsService) evaluateAttention(entry models.RosterStudent, now time.Time) dto.AtRiskStudent {
	average := averageScore(entry.RecentAssessments)
	days := daysSinceLogin(entry.Student.User.LastLogin, now)
	total := len(entry.RecentAssessments)

	return dto.AtRiskStudent{
		ID:               entry.Student.ID,
		Name:             s.displayName(entry.Student.FullName()),
		AvgScore:         roundToOneDecimal(average),
		DaysSinceLogin:   days,
		TotalAssessments: total,
		PrimaryClass:     entry.PrimaryClass,
		NeedsAttention:   needsAttention(average, days, total),
	}
}

func needsAttention(average float64, daysSinceLogin, totalAssessments int) bool {
	return average < attentionScoreThreshold || daysSinceLogin > attentionInactiveDays || totalAssessments == 0
}

// averageScore averages the scored assessments; unscored ones are skipped.
func averageScore(assessments []models.Assessment) float64 {
	var (
		sum    float64
		scored int
	)
	for _, assessment := range assessments {
		if assessment.OverallScore == nil {
			continue
		}
		sum += *assessment.OverallScore
		scored++
	}
	if scored == 0 {
		return 0
	}
	return sum / float64(scored)
}

func daysSinceLogin(lastLogin *time.Time, now time.Time) int {
	if lastLogin == nil {
		return neverLoggedInDays
	}
	elapsed := now.Sub(*lastLogin)
	if elapsed < 0 {
		return 0
	}
	return int(elapsed / (24 * time.Hour))
}

func (s *teacherAnalyticsService) GetClassPerformance(ctx context.Context, teacherID uint) []dto.ClassSummary {
	started := time.Now()
	defer func() {
		observability.AnalyticsDuration().WithLabelValues("class_performance").Observe(time.Since(started).Seconds())
	}()

	classes, err := s.repo.ListClassesWithEnrollment(ctx, teacherID)
	if err != nil {
		s.recordFallback(teacherID, metricClassPerformance, err)
		return []dto.ClassSummary{}
	}

	activity, err := s.repo.ClassActivity(ctx, teacherID)
	if err != nil {
		s.recordFallback(teacherID, metricClassActivity, err)
		activity = nil
	}

	summaries := make([]dto.ClassSummary, 0, len(classes))
	for _, entry := range classes {
		summary := dto.ClassSummary{
			ID:           entry.Class.ID,
			Name:         entry.Class.Name,
			Subject:      entry.Class.Subject,
			StudentCount: entry.Students,
			ClassCode:    entry.Class.ClassCode,
		}
		if stats, ok := activity[entry.Class.ID]; ok {
			summary.TotalSessions = stats.Sessions
			summary.TotalAssessments = stats.Assessments
			if stats.AverageScore != nil {
				summary.AvgScore = roundToOneDecimal(*stats.AverageScore)
			}
		}
		summaries = append(summaries, summary)
	}
	return summaries
}

func (s *teacherAnalyticsService) InvalidateTeacher(ctx context.Context, teacherID uint) error {
	if s.cache == nil {
		return nil
	}
	if err := s.cache.Del(ctx, teacherStatsCacheKey(teacherID)).Err(); err != nil {
		return fmt.Errorf("invalidate teacher %d stats: %w", teacherID, err)
	}
	return nil
}

func (s *teacherAnalyticsService) readCachedStats(ctx context.Context, key string, span trace.Span) (dto.DashboardSummary, bool) {
	if s.cache == nil {
		return dto.DashboardSummary{}, false
	}

	cached, err := s.cache.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Str("cache_key", key).Msg("failed to read teacher stats cache")
			span.RecordError(err)
		}
		observability.DashboardCacheLookups().WithLabelValues("miss").Inc()
		return dto.DashboardSummary{}, false
	}

	var summary dto.DashboardSummary
	if err := json.Unmarshal([]byte(cached), &summary); err != nil {
		s.logger.Warn().Err(err).Str("cache_key", key).Msg("discarding malformed teacher stats cache entry")
		observability.DashboardCacheLookups().WithLabelValues("miss").Inc()
		return dto.DashboardSummary{}, false
	}

	observability.DashboardCacheLookups().WithLabelValues("hit").Inc()
	span.SetAttributes(attribute.Bool("analytics.cache_hit", true))
	return summary, true
}

func (s *teacherAnalyticsService) writeCachedStats(ctx context.Context, key string, summary dto.DashboardSummary, span trace.Span) {
	if s.cache == nil {
		return
	}
	payload, err := json.Marshal(summary)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to encode teacher stats for cache")
		return
	}
	if err := s.cache.Set(ctx, key, payload, s.cacheTTL).Err(); err != nil {
		s.logger.Warn().Err(err).Str("cache_key", key).Msg("failed to store teacher stats cache")
		span.RecordError(err)
	}
}

func (s *teacherAnalyticsService) recordFallback(teacherID uint, metric string, err error) {
	s.logger.Warn().Err(err).Uint("teacher_id", teacherID).Str("metric", metric).Msg("analytics metric degraded")
	observability.MetricFallbacks().WithLabelValues(metric).Inc()
}

func (s *teacherAnalyticsService) displayName(name string) string {
	return strings.TrimSpace(html.UnescapeString(s.sanitizer.Sanitize(name)))
}

type subjectAccumulator struct {
	classes  int64
	students int64
}

// buildSubjectBreakdown sums classes and active enrollments per subject, keeping first-seen order.
func buildSubjectBreakdown(classes []models.ClassEnrollmentCount) []dto.SubjectBreakdown {
	order := make([]string, 0, len(classes))
	bySubject := make(map[string]*subjectAccumulator, len(classes))

	for _, entry := range classes {
		if entry.Class.Subject == nil {
			continue
		}
		subject := *entry.Class.Subject
		acc, ok := bySubject[subject]
		if !ok {
			acc = &subjectAccumulator{}
			bySubject[subject] = acc
			order = append(order, subject)
		}
		acc.classes++
		acc.students += entry.Students
	}

	breakdown := make([]dto.SubjectBreakdown, 0, len(order))
	for _, subject := range order {
		acc := bySubject[subject]
		breakdown = append(breakdown, dto.SubjectBreakdown{Subject: subject, Classes: acc.classes, Students: acc.students})
	}
	return breakdown
}

// roundToOneDecimal rounds half away from zero.
func roundToOneDecimal(value float64) float64 {
	return math.Round(value*10) / 10
}

// metricGuard collects the sub-metrics that fell back to their default during one computation.
type metricGuard struct {
	logger    zerolog.Logger
	span      trace.Span
	teacherID uint

	mu     sync.Mutex
	failed []string
}

func (g *metricGuard) fail(metric string, err error) {
	g.logger.Warn().Err(err).Uint("teacher_id", g.teacherID).Str("metric", metric).Msg("analytics metric degraded")
	observability.MetricFallbacks().WithLabelValues(metric).Inc()

	g.mu.Lock()
	defer g.mu.Unlock()
	g.span.RecordError(err, trace.WithAttributes(attribute.String("analytics.metric", metric)))
	g.failed = append(g.failed, metric)
}

func (g *metricGuard) failures() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.failed...)
}

// guarded runs compute and substitutes fallback when it errors or panics.
func guarded[T any](ctx context.Context, guard *metricGuard, metric string, fallback T, compute func(context.Context) (T, error)) (value T) {
	defer func() {
		if recovered := recover(); recovered != nil {
			guard.fail(metric, fmt.Errorf("panic: %v", recovered))
			value = fallback
		}
	}()

	result, err := compute(ctx)
	if err != nil {
		guard.fail(metric, err)
		return fallback
	}
	return result
}
