package server

import (
	"context"
	"sync"
	"time"
)

const (
	// RealtimeEventSessionChanged signals a game session row was replaced.
	RealtimeEventSessionChanged = "session-change"
	// RealtimeEventContentChanged signals letters/albums/milestones changed.
	RealtimeEventContentChanged = "content-change"
	realtimeEventHeartbeat      = "heartbeat"
)

// RealtimeMessage is delivered to every subscriber of a couple, the writer
// included (at-least-once from the subscriber's point of view; slow
// consumers may drop messages and resync via a read).
type RealtimeMessage struct {
	CoupleID  string
	EventType string
	GameType  string
	Resource  string
	Version   int64
	Timestamp time.Time
}

// RealtimeDispatcher fans out couple-scoped change notifications to
// subscribed clients.
type RealtimeDispatcher struct {
	mu          sync.RWMutex
	subscribers map[string]map[int64]*realtimeSubscriber
	nextID      int64
	bufferSize  int
}

type realtimeSubscriber struct {
	id     int64
	stream chan RealtimeMessage
}

// NewRealtimeDispatcher constructs an empty dispatcher.
func NewRealtimeDispatcher() *RealtimeDispatcher {
	return &RealtimeDispatcher{
		subscribers: make(map[string]map[int64]*realtimeSubscriber),
		bufferSize:  16,
	}
}

// Subscribe registers a stream for the couple's events. The subscription is
// removed when the context is done or the cleanup function runs.
func (d *RealtimeDispatcher) Subscribe(ctx context.Context, coupleID string) (<-chan RealtimeMessage, func()) {
	if coupleID == "" {
		ch := make(chan RealtimeMessage)
		close(ch)
		return ch, func() {}
	}
	subscriber := &realtimeSubscriber{
		id:     d.nextSequence(),
		stream: make(chan RealtimeMessage, d.bufferSize),
	}
	d.registerSubscriber(coupleID, subscriber)
	cleanup := func() {
		d.unregisterSubscriber(coupleID, subscriber.id)
	}
	go func() {
		<-ctx.Done()
		cleanup()
	}()
	return subscriber.stream, cleanup
}

// Publish delivers the message to every current subscriber of the couple.
// Sends never block; a full subscriber buffer drops the message.
func (d *RealtimeDispatcher) Publish(message RealtimeMessage) {
	if message.CoupleID == "" || message.EventType == "" {
		return
	}
	d.mu.RLock()
	subscribers := d.subscribers[message.CoupleID]
	if len(subscribers) == 0 {
		d.mu.RUnlock()
		return
	}
	copies := make([]*realtimeSubscriber, 0, len(subscribers))
	for _, subscriber := range subscribers {
		copies = append(copies, subscriber)
	}
	d.mu.RUnlock()
	for _, subscriber := range copies {
		select {
		case subscriber.stream <- message:
		default:
		}
	}
}

func (d *RealtimeDispatcher) nextSequence() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextID++
	return d.nextID
}

func (d *RealtimeDispatcher) registerSubscriber(coupleID string, subscriber *realtimeSubscriber) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.subscribers[coupleID]; !ok {
		d.subscribers[coupleID] = make(map[int64]*realtimeSubscriber)
	}
	d.subscribers[coupleID][subscriber.id] = subscriber
}

func (d *RealtimeDispatcher) unregisterSubscriber(coupleID string, subscriberID int64) {
	d.mu.Lock()
	subscribers := d.subscribers[coupleID]
	if subscribers != nil {
		delete(subscribers, subscriberID)
		if len(subscribers) == 0 {
			delete(d.subscribers, coupleID)
		}
	}
	d.mu.Unlock()
}
