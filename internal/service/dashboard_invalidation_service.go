package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/classroom-insights-api/internal/observability"
)

const dashboardInvalidationQueue = "insights-dashboard"

// ErrInvalidActivityEvent indicates an event without a teacher.
var ErrInvalidActivityEvent = errors.New("teacher activity event requires a teacher id")

// TeacherActivityEvent announces that records feeding a teacher's dashboard changed.
type TeacherActivityEvent struct {
	TeacherID  uint      `json:"teacher_id"`
	Reason     string    `json:"reason"`
	OccurredAt time.Time `json:"occurred_at"`
}

// TeacherActivityPublisher emits teacher activity events.
type TeacherActivityPublisher interface {
	Publish(ctx context.Context, event TeacherActivityEvent) error
}

// TeacherCacheInvalidator evicts cached analytics for a teacher.
type TeacherCacheInvalidator interface {
	InvalidateTeacher(ctx context.Context, teacherID uint) error
}

// DashboardInvalidationService listens for teacher activity and evicts cached dashboards.
type DashboardInvalidationService interface {
	TeacherActivityPublisher
	Start(ctx context.Context)
}

type dashboardInvalidationService struct {
	target       TeacherCacheInvalidator
	redis        *redis.Client
	redisChannel string
	nats         *nats.Conn
	natsSubject  string
	logger       zerolog.Logger
	now          func() time.Time
}

// NewDashboardInvalidationService wires the listener to whichever transports are configured.
func NewDashboardInvalidationService(target TeacherCacheInvalidator, redisClient *redis.Client, natsConn *nats.Conn, channelBase string, logger zerolog.Logger) DashboardInvalidationService {
	channel := ""
	subject := ""
	if base := strings.TrimSpace(channelBase); base != "" {
		channel = base + ":teacher-activity"
		subject = strings.ReplaceAll(base, ":", ".") + ".teacher.activity"
	}

	return &dashboardInvalidationService{
		target:       target,
		redis:        redisClient,
		redisChannel: channel,
		nats:         natsConn,
		natsSubject:  subject,
		logger:       logger.With().Str("component", "dashboard_invalidation").Logger(),
		now:          time.Now,
	}
}

func (s *dashboardInvalidationService) Start(ctx context.Context) {
	if s.redis != nil && s.redisChannel != "" {
		s.consumeRedis(ctx)
	}
	if s.nats != nil && s.natsSubject != "" {
		s.consumeNATS(ctx)
	}
}

func (s *dashboardInvalidationService) Publish(ctx context.Context, event TeacherActivityEvent) error {
	if event.TeacherID == 0 {
		return ErrInvalidActivityEvent
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = s.now().UTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	if s.redis != nil && s.redisChannel != "" {
		if err := s.redis.Publish(ctx, s.redisChannel, payload).Err(); err != nil {
			return fmt.Errorf("publish teacher activity to redis: %w", err)
		}
	}

	if s.nats != nil && s.natsSubject != "" {
		if err := s.nats.Publish(s.natsSubject, payload); err != nil {
			return fmt.Errorf("publish teacher activity to nats: %w", err)
		}
	}

	return nil
}

// consumeRedis subscribes synchronously so events published after Start are not missed.
func (s *dashboardInvalidationService) consumeRedis(ctx context.Context) {
	pubsub := s.redis.Subscribe(ctx, s.redisChannel)
	if _, err := pubsub.Receive(ctx); err != nil {
		s.logger.Error().Err(err).Str("channel", s.redisChannel).Msg("failed to subscribe to teacher activity channel")
		_ = pubsub.Close()
		return
	}

	go func() {
		defer func() { _ = pubsub.Close() }()
		for {
			msg, err := pubsub.ReceiveMessage(ctx)
			if err != nil {
				if errors.Is(err, context.Canceled) || ctx.Err() != nil {
					return
				}
				s.logger.Error().Err(err).Msg("teacher activity redis subscription closed")
				return
			}
			s.handleEvent(ctx, "redis", []byte(msg.Payload))
		}
	}()
}

func (s *dashboardInvalidationService) consumeNATS(ctx context.Context) {
	sub, err := s.nats.QueueSubscribe(s.natsSubject, dashboardInvalidationQueue, func(msg *nats.Msg) {
		s.handleEvent(ctx, "nats", msg.Data)
	})
	if err != nil {
		s.logger.Error().Err(err).Str("subject", s.natsSubject).Msg("failed to subscribe to teacher activity subject")
		return
	}

	go func() {
		<-ctx.Done()
		if err := sub.Drain(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to drain teacher activity subscription")
		}
	}()
}

func (s *dashboardInvalidationService) handleEvent(ctx context.Context, source string, payload []byte) {
	var event TeacherActivityEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		s.logger.Warn().Err(err).Str("source", source).Msg("invalid teacher activity payload")
		return
	}
	if event.TeacherID == 0 {
		s.logger.Warn().Str("source", source).Msg("teacher activity event without teacher id")
		return
	}

	if err := s.target.InvalidateTeacher(ctx, event.TeacherID); err != nil {
		s.logger.Error().Err(err).Uint("teacher_id", event.TeacherID).Msg("failed to evict teacher dashboard")
		return
	}

	observability.DashboardInvalidations().WithLabelValues(source).Inc()
	s.logger.Debug().
		Uint("teacher_id", event.TeacherID).
		Str("reason", event.Reason).
		Str("source", source).
		Msg("teacher dashboard evicted")
}
