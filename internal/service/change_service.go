package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/nxtgen-lms-api/internal/dto"
	"github.com/noah-isme/nxtgen-lms-api/internal/observability"
)

const changeBufferSize = 16

// ChangePublisher announces writes to the users allowed to see them.
type ChangePublisher interface {
	Publish(ctx context.Context, audience []uuid.UUID, event dto.ChangeEvent)
}

// ChangeService fans change events out to websocket subscribers on every node.
type ChangeService interface {
	ChangePublisher
	Subscribe(userID uuid.UUID) (<-chan dto.ChangeEvent, func())
	Start(ctx context.Context)
}

type changeService struct {
	redis        *redis.Client
	redisChannel string
	nats         *nats.Conn
	natsSubject  string
	logger       zerolog.Logger
	broker       *changeBroker
	nodeID       string
	now          func() time.Time
}

type changeEnvelope struct {
	Source   string          `json:"source"`
	Audience []uuid.UUID     `json:"audience"`
	Event    dto.ChangeEvent `json:"event"`
}

type changeBroker struct {
	mu          sync.RWMutex
	subscribers map[uuid.UUID]map[chan dto.ChangeEvent]struct{}
}

// NewChangeService constructs the change feed. Redis and NATS are optional; without them
// events only reach subscribers connected to this process.
func NewChangeService(redisClient *redis.Client, channel string, natsConn *nats.Conn, logger zerolog.Logger) ChangeService {
	subject := ""
	if channel != "" {
		subject = strings.ReplaceAll(channel, ":", ".")
	}

	return &changeService{
		redis:        redisClient,
		redisChannel: channel,
		nats:         natsConn,
		natsSubject:  subject,
		logger:       logger.With().Str("component", "change_service").Logger(),
		broker: &changeBroker{
			subscribers: make(map[uuid.UUID]map[chan dto.ChangeEvent]struct{}),
		},
		nodeID: uuid.NewString(),
		now:    time.Now,
	}
}

func (s *changeService) Start(ctx context.Context) {
	if s.redis != nil && s.redisChannel != "" {
		go s.consumeRedis(ctx)
	}
	if s.nats != nil && s.natsSubject != "" {
		s.consumeNATS(ctx)
	}
}

func (s *changeService) Publish(ctx context.Context, audience []uuid.UUID, event dto.ChangeEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = s.now().UTC()
	}
	audience = uniqueIDs(audience)

	s.deliver(audience, event, "local")

	if err := s.forward(ctx, audience, event); err != nil {
		s.logger.Warn().Err(err).Str("table", event.Table).Msg("failed to forward change event")
	}
}

func (s *changeService) Subscribe(userID uuid.UUID) (<-chan dto.ChangeEvent, func()) {
	channel := make(chan dto.ChangeEvent, changeBufferSize)

	s.broker.subscribe(userID, channel)
	observability.ChangeSubscribers().Inc()

	var once sync.Once
	cleanup := func() {
		once.Do(func() {
			s.broker.unsubscribe(userID, channel)
			observability.ChangeSubscribers().Dec()
		})
	}

	return channel, cleanup
}

func (s *changeService) deliver(audience []uuid.UUID, event dto.ChangeEvent, origin string) {
	for _, userID := range audience {
		s.broker.broadcast(userID, event)
	}
	observability.ChangeEvents().WithLabelValues(event.Table, origin).Inc()
}

func (s *changeService) forward(ctx context.Context, audience []uuid.UUID, event dto.ChangeEvent) error {
	if (s.redis == nil || s.redisChannel == "") && (s.nats == nil || s.natsSubject == "") {
		return nil
	}

	payload, err := json.Marshal(changeEnvelope{Source: s.nodeID, Audience: audience, Event: event})
	if err != nil {
		return err
	}

	if s.redis != nil && s.redisChannel != "" {
		if err := s.redis.Publish(ctx, s.redisChannel, payload).Err(); err != nil {
			return err
		}
	}

	if s.nats != nil && s.natsSubject != "" {
		if err := s.nats.Publish(s.natsSubject, payload); err != nil {
			return err
		}
	}

	return nil
}

func (s *changeService) consumeRedis(ctx context.Context) {
	pubsub := s.redis.Subscribe(ctx, s.redisChannel)
	defer func() { _ = pubsub.Close() }()

	for {
		msg, err := pubsub.ReceiveMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return
			}
			s.logger.Error().Err(err).Msg("change redis subscription closed")
			return
		}
		s.handleEnvelope([]byte(msg.Payload))
	}
}

func (s *changeService) consumeNATS(ctx context.Context) {
	// every node needs every event, so this is a plain subscription rather than a queue group
	sub, err := s.nats.Subscribe(s.natsSubject, func(msg *nats.Msg) {
		s.handleEnvelope(msg.Data)
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to subscribe to nats change subject")
		return
	}

	go func() {
		<-ctx.Done()
		if err := sub.Drain(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to drain change nats subscription")
		}
	}()
}

func (s *changeService) handleEnvelope(payload []byte) {
	var envelope changeEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		s.logger.Warn().Err(err).Msg("invalid change event payload")
		return
	}

	if envelope.Source == s.nodeID {
		return
	}

	s.deliver(envelope.Audience, envelope.Event, "remote")
}

func (b *changeBroker) subscribe(userID uuid.UUID, ch chan dto.ChangeEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.subscribers[userID]; !exists {
		b.subscribers[userID] = make(map[chan dto.ChangeEvent]struct{})
	}
	b.subscribers[userID][ch] = struct{}{}
}

func (b *changeBroker) unsubscribe(userID uuid.UUID, ch chan dto.ChangeEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if subscribers, ok := b.subscribers[userID]; ok {
		delete(subscribers, ch)
		close(ch)
		if len(subscribers) == 0 {
			delete(b.subscribers, userID)
		}
	}
}

// broadcast drops the event for subscribers whose buffer is full; clients refetch on the next event.
func (b *changeBroker) broadcast(userID uuid.UUID, event dto.ChangeEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for ch := range b.subscribers[userID] {
		select {
		case ch <- event:
		default:
		}
	}
}

func publishChange(ctx context.Context, publisher ChangePublisher, audience []uuid.UUID, table, action string, courseID *uuid.UUID, recordID uuid.UUID) {
	if publisher == nil {
		return
	}
	publisher.Publish(ctx, audience, dto.ChangeEvent{
		Table:    table,
		Action:   action,
		CourseID: courseID,
		RecordID: recordID,
	})
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	unique := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	return unique
}
