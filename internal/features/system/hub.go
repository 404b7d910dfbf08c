package system

import (
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	// textMessage matches websocket.TextMessage
	textMessage = 1

	clientBuffer = 32
	writeTimeout = 10 * time.Second
)

// Client is the write side of a websocket connection
type Client interface {
	WriteMessage(messageType int, data []byte) error
}

// writeDeadliner is implemented by *websocket.Conn
type writeDeadliner interface {
	SetWriteDeadline(t time.Time) error
}

// Event is the envelope broadcast to every connected client
type Event struct {
	Topic     string    `json:"topic"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

type subscriber struct {
	client Client
	send   chan []byte
	done   chan struct{}
}

// Hub fans published events out to the connected websocket clients. Each
// client is written by its own goroutine from a bounded queue. A client whose
// queue is full or whose write fails is dropped, and Publish never waits on a
// connection.
type Hub struct {
	mu      sync.Mutex
	clients map[Client]*subscriber
	logger  *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients: make(map[Client]*subscriber),
		logger:  logger,
	}
}

// Register subscribes c. The returned channel is closed once the client's
// writer has stopped using it, which happens after Unregister or a failed write.
func (h *Hub) Register(c Client) <-chan struct{} {
	sub := &subscriber{
		client: c,
		send:   make(chan []byte, clientBuffer),
		done:   make(chan struct{}),
	}

	h.mu.Lock()
	h.remove(c)
	h.clients[c] = sub
	h.mu.Unlock()

	go h.writeLoop(sub)
	return sub.done
}

func (h *Hub) Unregister(c Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.remove(c)
}

func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Publish queues payload under topic for every client without blocking
func (h *Hub) Publish(topic string, payload any) {
	msg, err := json.Marshal(Event{Topic: topic, Data: payload, Timestamp: time.Now().UTC()})
	if err != nil {
		h.logger.Error("Failed to encode event", zap.String("topic", topic), zap.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c, sub := range h.clients {
		select {
		case sub.send <- msg:
		default:
			h.logger.Warn("Dropping slow websocket client", zap.String("topic", topic))
			h.remove(c)
		}
	}
}

// remove must be called with mu held
func (h *Hub) remove(c Client) {
	if sub, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(sub.send)
	}
}

func (h *Hub) writeLoop(sub *subscriber) {
	defer close(sub.done)

	for msg := range sub.send {
		if !h.registered(sub) {
			continue
		}
		if d, ok := sub.client.(writeDeadliner); ok {
			_ = d.SetWriteDeadline(time.Now().Add(writeTimeout))
		}
		if err := sub.client.WriteMessage(textMessage, msg); err != nil {
			h.logger.Debug("Dropping websocket client", zap.Error(err))
			h.mu.Lock()
			if h.clients[sub.client] == sub {
				h.remove(sub.client)
			}
			h.mu.Unlock()
		}
	}
}

func (h *Hub) registered(sub *subscriber) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.clients[sub.client] == sub
}
