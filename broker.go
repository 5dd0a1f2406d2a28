/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"context"
	"encoding/json"
	"sync"
)

// Event is one room-scoped broadcast. Type selects the handler on the
// receiving side; Data is the JSON payload for that handler. Events cross a
// wire in the Redis deployment, so payloads are always serialized even when
// the broker is in-process.
type Event struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

func newEvent(eventType string, payload any) (*Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Event{Type: eventType, Data: data}, nil
}

// Broker is the room-scoped publish/subscribe fan-out linking every
// connection actor in a room. Delivery reaches all current subscribers,
// including the publisher, with per-publisher FIFO ordering only.
type Broker interface {
	Subscribe(ctx context.Context, room string) (Subscription, error)
	Publish(ctx context.Context, room string, event *Event) error
}

// Subscription is one actor's feed of room events. Events() is closed after
// Close() returns.
type Subscription interface {
	Events() <-chan *Event
	Close() error
}

// memoryBroker fans events out over buffered channels. Sends are
// non-blocking; a subscriber that stops draining loses events rather than
// stalling the publisher.
type memoryBroker struct {
	mu    sync.RWMutex
	rooms map[string]map[*memorySubscription]struct{}
}

func newMemoryBroker() *memoryBroker {
	return &memoryBroker{
		rooms: make(map[string]map[*memorySubscription]struct{}),
	}
}

type memorySubscription struct {
	broker *memoryBroker
	room   string
	events chan *Event
	once   sync.Once
}

func (s *memorySubscription) Events() <-chan *Event {
	return s.events
}

func (s *memorySubscription) Close() error {
	s.once.Do(func() {
		s.broker.mu.Lock()
		defer s.broker.mu.Unlock()

		subs, ok := s.broker.rooms[s.room]
		if ok {
			delete(subs, s)
			if len(subs) == 0 {
				delete(s.broker.rooms, s.room)
			}
		}
		close(s.events)
	})

	return nil
}

func (b *memoryBroker) Subscribe(_ context.Context, room string) (Subscription, error) {
	sub := &memorySubscription{
		broker: b,
		room:   room,
		events: make(chan *Event, 32),
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	subs, ok := b.rooms[room]
	if !ok {
		subs = make(map[*memorySubscription]struct{})
		b.rooms[room] = subs
	}
	subs[sub] = struct{}{}

	return sub, nil
}

func (b *memoryBroker) Publish(_ context.Context, room string, event *Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for sub := range b.rooms[room] {
		select {
		case sub.events <- event:
		default:
		}
	}

	return nil
}
