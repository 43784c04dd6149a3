package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/noid254/nikosoko/pkg/logger"
)

var ErrBusClosed = errors.New("event bus closed")

// MemoryEventBus delivers events in-process on a single dispatch goroutine.
// It is used when NATS_URL is unset and in tests.
type MemoryEventBus struct {
	mu     sync.RWMutex // guards closed and sends on ch
	closed bool

	subMu  sync.Mutex
	subs   map[string][]func(*Message)
	queues map[string]*queueGroup

	ch   chan *Message
	done chan struct{}
}

type queueGroup struct {
	handlers []func(*Message)
	next     int
}

func NewMemoryEventBus(buffer int) *MemoryEventBus {
	if buffer <= 0 {
		buffer = 256
	}
	b := &MemoryEventBus{
		subs:   make(map[string][]func(*Message)),
		queues: make(map[string]*queueGroup),
		ch:     make(chan *Message, buffer),
		done:   make(chan struct{}),
	}
	go b.run()
	return b
}

func (b *MemoryEventBus) run() {
	defer close(b.done)
	for msg := range b.ch {
		for _, h := range b.handlersFor(msg.Subject) {
			h(msg)
		}
	}
}

func (b *MemoryEventBus) handlersFor(subject string) []func(*Message) {
	b.subMu.Lock()
	defer b.subMu.Unlock()

	out := append([]func(*Message){}, b.subs[subject]...)
	prefix := subject + "|"
	for key, g := range b.queues {
		if len(key) > len(prefix) && key[:len(prefix)] == prefix && len(g.handlers) > 0 {
			out = append(out, g.handlers[g.next%len(g.handlers)])
			g.next++
		}
	}
	return out
}

func (b *MemoryEventBus) Publish(ctx context.Context, subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrBusClosed
	}

	logger.DebugContext(ctx, "Publishing event", "subject", subject, "data", string(payload))

	msg := &Message{Subject: subject, Data: payload, Timestamp: time.Now(), ID: uuid.NewString()}
	select {
	case b.ch <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *MemoryEventBus) Subscribe(subject string, handler func(msg *Message)) error {
	if b.isClosed() {
		return ErrBusClosed
	}
	b.subMu.Lock()
	defer b.subMu.Unlock()
	b.subs[subject] = append(b.subs[subject], handler)
	return nil
}

func (b *MemoryEventBus) QueueSubscribe(subject, queue string, handler func(msg *Message)) error {
	if b.isClosed() {
		return ErrBusClosed
	}
	b.subMu.Lock()
	defer b.subMu.Unlock()
	key := subject + "|" + queue
	g, ok := b.queues[key]
	if !ok {
		g = &queueGroup{}
		b.queues[key] = g
	}
	g.handlers = append(g.handlers, handler)
	return nil
}

func (b *MemoryEventBus) isClosed() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.closed
}

// Close stops accepting events and waits until queued ones are delivered.
func (b *MemoryEventBus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	close(b.ch)
	b.mu.Unlock()

	<-b.done
	return nil
}
