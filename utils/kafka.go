package utils

import (
	"log"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/danuartha/wedding-management-backend/config"
)

var kafkaWriter *kafka.Writer

// InitKafka sets up the shared async producer for the fact topic.
// Facts are fire-and-forget; delivery failures are logged, never surfaced.
func InitKafka(cfg *config.Config) {
	if cfg.KafkaBrokers == "" {
		log.Println("KAFKA_BROKERS not set, fact sink disabled")
		return
	}

	kafkaWriter = &kafka.Writer{
		Addr:         kafka.TCP(strings.Split(cfg.KafkaBrokers, ",")...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 50 * time.Millisecond,
		Async:        true,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				log.Printf("kafka delivery failed for %d message(s): %v", len(messages), err)
			}
		},
	}

	log.Printf("Kafka producer ready (topic %s)", cfg.KafkaTopic)
}

// GetKafkaWriter returns the shared writer, or nil when the sink is disabled.
func GetKafkaWriter() *kafka.Writer {
	return kafkaWriter
}

// CloseKafka flushes and closes the producer.
func CloseKafka() {
	if kafkaWriter != nil {
		if err := kafkaWriter.Close(); err != nil {
			log.Printf("kafka close: %v", err)
		}
	}
}
