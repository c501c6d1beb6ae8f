package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/alimikegami/e-commerce/storefront-service/config"
	"github.com/alimikegami/e-commerce/storefront-service/internal/dto"
	"github.com/segmentio/kafka-go"
	"github.com/sony/gobreaker/v2"
)

const writeTimeout = 5 * time.Second

// Producer publishes order events to a single topic partition. Writes go
// through a circuit breaker so a dead broker fails fast.
type Producer struct {
	conn *kafka.Conn
	cb   *gobreaker.CircuitBreaker[int]
}

func CreateKafkaProducer(config *config.Config, cb *gobreaker.CircuitBreaker[int]) (*Producer, error) {
	conn, err := kafka.DialLeader(context.Background(), "tcp", config.KafkaConfig.BrokerAddress, config.KafkaConfig.BrokerTopic, config.KafkaConfig.BrokerPartition)
	if err != nil {
		return nil, fmt.Errorf("dialing kafka leader: %w", err)
	}

	return &Producer{conn: conn, cb: cb}, nil
}

func (p *Producer) Publish(ctx context.Context, key string, msg dto.KafkaMessage) error {
	jsonMsg, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal Kafka message: %w", err)
	}

	deadline := time.Now().Add(writeTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	_, err = p.cb.Execute(func() (int, error) {
		if err := p.conn.SetWriteDeadline(deadline); err != nil {
			return 0, err
		}
		return p.conn.WriteMessages(kafka.Message{
			Key:   []byte(key),
			Value: jsonMsg,
		})
	})

	return err
}

func (p *Producer) Close() error {
	return p.conn.Close()
}
