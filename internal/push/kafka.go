package push

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/segmentio/kafka-go"
)

// kafkaEnvelope is how the orders API publishes events onto the topic: the
// wire event name, the room it belongs to, and the raw payload.
type kafkaEnvelope struct {
	Type    string          `json:"type"`
	Room    string          `json:"room"`
	Payload json.RawMessage `json:"payload"`
}

// KafkaChannel consumes order events from a Kafka topic instead of the SSE
// edge. Meant for dashboard deployments that sit next to the broker.
type KafkaChannel struct {
	Brokers []string
	Topic   string
	GroupID string
}

func NewKafkaChannel(brokers []string, topic, groupID string) *KafkaChannel {
	return &KafkaChannel{Brokers: brokers, Topic: topic, GroupID: groupID}
}

func (c *KafkaChannel) Subscribe(ctx context.Context, scope Scope) (<-chan Event, error) {
	if len(c.Brokers) == 0 {
		return nil, fmt.Errorf("kafka channel: no brokers configured")
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  c.Brokers,
		Topic:    c.Topic,
		GroupID:  c.GroupID,
		MinBytes: 10e3,
		MaxBytes: 10e6,
	})

	room := scope.Room()
	out := make(chan Event)
	go func() {
		defer close(out)
		defer reader.Close()
		for {
			msg, err := reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() == nil {
					log.Printf("[push] kafka read: %v", err)
				}
				return
			}
			var env kafkaEnvelope
			if err := json.Unmarshal(msg.Value, &env); err != nil {
				log.Printf("[push] kafka payload: %v", err)
				continue
			}
			if env.Room != room {
				continue
			}
			ev, err := decodeEvent(env.Type, env.Payload)
			if err != nil {
				log.Printf("[push] dropping event: %v", err)
				continue
			}
			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
