package events

import (
	"sync"
	"time"

	"vesting-indexer/logger"

	"github.com/google/uuid"
)

type Type string

const (
	ClaimRecorded Type = "CLAIM_RECORDED"
)

type Event struct {
	ID        string
	Type      Type
	Payload   any
	EmittedAt time.Time
}

func New(eventType Type, payload any) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Payload:   payload,
		EmittedAt: time.Now(),
	}
}

// Bus is a channel-based fan-out for domain events. Publishing never blocks:
// when a subscriber's buffer is full the event is dropped for that subscriber
// and a warning is logged. Core correctness must not depend on any
// subscriber's liveness.
type Bus struct {
	mu     sync.RWMutex
	subs   map[Type][]chan Event
	buffer int
	closed bool
}

func NewBus(buffer int) *Bus {
	if buffer <= 0 {
		buffer = 64
	}
	return &Bus{
		subs:   make(map[Type][]chan Event),
		buffer: buffer,
	}
}

func (b *Bus) Subscribe(eventType Type) <-chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, b.buffer)
	b.subs[eventType] = append(b.subs[eventType], ch)
	return ch
}

// SubscribeFunc runs handler in its own goroutine for every event of the
// given type until the bus is closed.
func (b *Bus) SubscribeFunc(eventType Type, handler func(Event)) {
	ch := b.Subscribe(eventType)
	go func() {
		for e := range ch {
			handler(e)
		}
	}()
}

func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}
	for _, ch := range b.subs[e.Type] {
		select {
		case ch <- e:
		default:
			logger.Warn("event bus subscriber full, dropping %s event %s", e.Type, e.ID)
		}
	}
}

func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for _, chans := range b.subs {
		for _, ch := range chans {
			close(ch)
		}
	}
}
