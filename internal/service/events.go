package service

import (
	"context"
	"strconv"
	"time"

	"github.com/Skotchmaster/restoran/internal/logging"
)

const (
	TopicUserEvents    = "user_events"
	TopicCatalogEvents = "catalog_events"
	TopicReviewEvents  = "review_events"
)

const (
	EventUserRegistered    = "user_registered"
	EventUserLoggedIn      = "user_logged_in"
	EventUserDeleted       = "user_deleted"
	EventRestaurantCreated = "restaurant_created"
	EventReviewCreated     = "review_created"
)

// EventPublisher is satisfied by *mykafka.Producer.
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic, key string, event any) error
}

type NopPublisher struct{}

func (NopPublisher) PublishEvent(context.Context, string, string, any) error { return nil }

type Event struct {
	Type     string    `json:"type"`
	UserID   uint      `json:"user_id"`
	EntityID uint      `json:"entity_id,omitempty"`
	At       time.Time `json:"at"`
}

// publish never fails the caller; delivery errors are only logged.
func publish(ctx context.Context, p EventPublisher, topic string, ev Event) {
	if p == nil {
		return
	}
	ev.At = time.Now().UTC()
	if err := p.PublishEvent(ctx, topic, strconv.FormatUint(uint64(ev.UserID), 10), ev); err != nil {
		logging.FromContext(ctx).Warn("event_publish_failed", "topic", topic, "type", ev.Type, "error", err)
	}
}
