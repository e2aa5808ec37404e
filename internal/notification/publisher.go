package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
)

// Fact is a single factual "a change happened" signal. The core never waits
// on delivery; UI collaborators subscribe to the redis channel, downstream
// consumers read the kafka topic.
type Fact struct {
	EventID    uint                   `json:"event_id"`
	Kind       string                 `json:"kind"` // e.g. "guest.confirmed", "seating.assigned"
	ActorID    *uint                  `json:"actor_id,omitempty"`
	Payload    map[string]interface{} `json:"payload,omitempty"`
	OccurredAt time.Time              `json:"occurred_at"`
}

type Publisher interface {
	Publish(ctx context.Context, fact Fact)
}

type publisher struct {
	redis *redis.Client
	kafka *kafka.Writer
}

// NewPublisher accepts nil for either sink; a nil sink is skipped.
func NewPublisher(redisClient *redis.Client, kafkaWriter *kafka.Writer) Publisher {
	return &publisher{redis: redisClient, kafka: kafkaWriter}
}

// Publish fans the fact out to both sinks, fire-and-forget.
func (p *publisher) Publish(ctx context.Context, fact Fact) {
	if fact.OccurredAt.IsZero() {
		fact.OccurredAt = time.Now()
	}

	body, err := json.Marshal(fact)
	if err != nil {
		log.Printf("fact marshal failed (%s): %v", fact.Kind, err)
		return
	}

	if p.redis != nil {
		channel := fmt.Sprintf("event.%d", fact.EventID)
		if err := p.redis.Publish(ctx, channel, string(body)).Err(); err != nil {
			log.Printf("redis publish failed (%s): %v", fact.Kind, err)
		}
	}

	if p.kafka != nil {
		msg := kafka.Message{
			Key:   []byte(fmt.Sprintf("%d", fact.EventID)),
			Value: body,
		}
		if err := p.kafka.WriteMessages(ctx, msg); err != nil {
			log.Printf("kafka write failed (%s): %v", fact.Kind, err)
		}
	}
}

// NopPublisher drops every fact. Used when both sinks are disabled and in tests.
type NopPublisher struct{}

func (NopPublisher) Publish(ctx context.Context, fact Fact) {}
