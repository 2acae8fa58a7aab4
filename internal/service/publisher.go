package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/fablab-print-api/internal/dto"
	"github.com/noah-isme/fablab-print-api/internal/models"
)

// EventPublisher fans job events out to external subscribers after commit.
type EventPublisher interface {
	Publish(ctx context.Context, event models.Event)
}

type brokerEvent struct {
	Source string            `json:"source"`
	Event  dto.EventResponse `json:"event"`
	SentAt time.Time         `json:"sent_at"`
}

type brokerPublisher struct {
	nats         *nats.Conn
	natsSubject  string
	redis        *redis.Client
	redisChannel string
	logger       zerolog.Logger
	nodeID       string
}

// NewEventPublisher publishes to NATS and Redis pub/sub. Either transport may be nil.
func NewEventPublisher(natsConn *nats.Conn, natsSubject string, redisClient *redis.Client, redisChannel string, logger zerolog.Logger) EventPublisher {
	return &brokerPublisher{
		nats:         natsConn,
		natsSubject:  natsSubject,
		redis:        redisClient,
		redisChannel: redisChannel,
		logger:       logger.With().Str("component", "event_publisher").Logger(),
		nodeID:       uuid.NewString(),
	}
}

// Publish never fails the caller; transport errors are logged.
func (p *brokerPublisher) Publish(ctx context.Context, event models.Event) {
	payload, err := json.Marshal(brokerEvent{
		Source: p.nodeID,
		Event:  dto.NewEventResponse(event),
		SentAt: time.Now().UTC(),
	})
	if err != nil {
		p.logger.Warn().Err(err).Msg("failed to encode job event")
		return
	}

	if p.nats != nil && p.natsSubject != "" {
		subject := p.natsSubject + "." + string(event.EventType)
		if err := p.nats.Publish(subject, payload); err != nil {
			p.logger.Warn().Err(err).Str("subject", subject).Msg("failed to publish job event to nats")
		}
	}

	if p.redis != nil && p.redisChannel != "" {
		if err := p.redis.Publish(ctx, p.redisChannel, payload).Err(); err != nil {
			p.logger.Warn().Err(err).Str("channel", p.redisChannel).Msg("failed to publish job event to redis")
		}
	}
}

type nopPublisher struct{}

// NewNopPublisher discards events.
func NewNopPublisher() EventPublisher {
	return nopPublisher{}
}

func (nopPublisher) Publish(context.Context, models.Event) {}
