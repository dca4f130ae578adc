package main

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/segmentio/kafka-go"
)

// hubMsg is one event queued for an SSE subscriber.
type hubMsg struct {
	event   string
	payload []byte
}

// Hub fans order events out to room subscribers. Rooms are named
// "business:<id>" or "user:<id>". Delivery is best-effort per subscriber:
// a slow client drops messages rather than blocking the publisher.
type Hub struct {
	mu    sync.Mutex
	rooms map[string]map[chan hubMsg]struct{}
}

func newHub() *Hub {
	return &Hub{rooms: make(map[string]map[chan hubMsg]struct{})}
}

func (h *Hub) join(room string) (chan hubMsg, func()) {
	ch := make(chan hubMsg, 16)
	h.mu.Lock()
	subs, ok := h.rooms[room]
	if !ok {
		subs = make(map[chan hubMsg]struct{})
		h.rooms[room] = subs
	}
	subs[ch] = struct{}{}
	h.mu.Unlock()

	leave := func() {
		h.mu.Lock()
		delete(h.rooms[room], ch)
		if len(h.rooms[room]) == 0 {
			delete(h.rooms, room)
		}
		h.mu.Unlock()
	}
	return ch, leave
}

func (h *Hub) publish(room, event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("[hub] marshal %s: %v", event, err)
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.rooms[room] {
		select {
		case ch <- hubMsg{event: event, payload: data}:
		default:
		}
	}
}

// notifier publishes each event to the in-process SSE hub and, when a
// broker is configured, onto the Kafka topic the dashboard can consume
// instead.
type notifier struct {
	hub   *Hub
	kafka *kafka.Writer
}

type kafkaEnvelope struct {
	Type    string          `json:"type"`
	Room    string          `json:"room"`
	Payload json.RawMessage `json:"payload"`
}

func (n *notifier) publish(room, event string, payload any) {
	n.hub.publish(room, event, payload)
	if n.kafka == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	msg, err := json.Marshal(kafkaEnvelope{Type: event, Room: room, Payload: data})
	if err != nil {
		return
	}
	if err := n.kafka.WriteMessages(context.Background(), kafka.Message{
		Key:   []byte(room),
		Value: msg,
	}); err != nil {
		log.Printf("[hub] kafka publish %s: %v", event, err)
	}
}

// streamHandler serves GET /api/orders/stream?scope=business|user&id=...
// as a server-sent-events stream of order:new / order:status_update.
func streamHandler(hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		kind := c.Query("scope")
		id := c.Query("id")
		if (kind != "business" && kind != "user") || id == "" {
			respondErr(c, 400, "scope must be business|user and id is required")
			return
		}

		flusher, ok := c.Writer.(interface{ Flush() })
		if !ok {
			respondErr(c, 500, "streaming unsupported")
			return
		}

		c.Header("Content-Type", "text/event-stream")
		c.Header("Cache-Control", "no-cache")
		c.Header("Connection", "keep-alive")

		ch, leave := hub.join(kind + ":" + id)
		defer leave()

		c.Writer.WriteHeader(200)
		flusher.Flush()

		ctx := c.Request.Context()
		for {
			select {
			case msg := <-ch:
				_, _ = c.Writer.WriteString("event: " + msg.event + "\n")
				_, _ = c.Writer.WriteString("data: " + string(msg.payload) + "\n\n")
				flusher.Flush()
			case <-ctx.Done():
				return
			}
		}
	}
}
