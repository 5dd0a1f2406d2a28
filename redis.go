/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	roomKeyPrefix = "room:"
	wordKeyPrefix = "words:"
)

func roomKey(name string) string {
	return roomKeyPrefix + name
}

func roomChannel(name string) string {
	return roomKeyPrefix + name + ":events"
}

func newRedisClient(cfg *Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.redisAddr,
		Password:     cfg.redisPassword,
		DB:           cfg.redisDB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("redis connection test failed: %w", err)
	}

	return client, nil
}

// redisStore keeps each room and word list as a JSON value under a
// prefixed key. Saves are plain SET (full-record replace, last writer
// wins); only create needs SETNX to make name claims exclusive.
type redisStore struct {
	client *redis.Client
}

func newRedisStore(client *redis.Client) *redisStore {
	return &redisStore{client: client}
}

func (s *redisStore) Room(ctx context.Context, name string) (*Room, error) {
	raw, err := s.client.Get(ctx, roomKey(name)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrRoomNotFound
	}
	if err != nil {
		return nil, err
	}

	room := &Room{}
	if err := json.Unmarshal(raw, room); err != nil {
		return nil, err
	}
	return room, nil
}

func (s *redisStore) CreateRoom(ctx context.Context, name string) (*Room, error) {
	room := newRoom(name)

	raw, err := json.Marshal(room)
	if err != nil {
		return nil, err
	}

	set, err := s.client.SetNX(ctx, roomKey(name), raw, 0).Result()
	if err != nil {
		return nil, err
	}
	if !set {
		return nil, ErrRoomExists
	}

	return room, nil
}

func (s *redisStore) SaveRoom(ctx context.Context, room *Room) error {
	raw, err := json.Marshal(room)
	if err != nil {
		return err
	}

	return s.client.Set(ctx, roomKey(room.Name), raw, 0).Err()
}

func (s *redisStore) DeleteRoom(ctx context.Context, name string) error {
	return s.client.Del(ctx, roomKey(name)).Err()
}

func (s *redisStore) WordList(ctx context.Context, name string) (*WordList, error) {
	raw, err := s.client.Get(ctx, wordKeyPrefix+name).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrWordListNotFound
	}
	if err != nil {
		return nil, err
	}

	list := &WordList{}
	if err := json.Unmarshal(raw, list); err != nil {
		return nil, err
	}
	return list, nil
}

func (s *redisStore) SaveWordList(ctx context.Context, list *WordList) error {
	raw, err := json.Marshal(list)
	if err != nil {
		return err
	}

	return s.client.Set(ctx, wordKeyPrefix+list.Name, raw, 0).Err()
}

func (s *redisStore) Purge(ctx context.Context) error {
	iter := s.client.Scan(ctx, 0, roomKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := s.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}

	return iter.Err()
}

// redisBroker maps each room to the Pub/Sub channel "room:<name>:events",
// so actors on different server processes still share one fan-out.
type redisBroker struct {
	client *redis.Client
}

func newRedisBroker(client *redis.Client) *redisBroker {
	return &redisBroker{client: client}
}

type redisSubscription struct {
	pubsub *redis.PubSub
	events chan *Event
}

func (s *redisSubscription) Events() <-chan *Event {
	return s.events
}

func (s *redisSubscription) Close() error {
	return s.pubsub.Close()
}

func (b *redisBroker) Subscribe(ctx context.Context, room string) (Subscription, error) {
	pubsub := b.client.Subscribe(ctx, roomChannel(room))

	// Force the SUBSCRIBE round trip so a failed handshake surfaces here
	// instead of as a silently empty feed.
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, err
	}

	sub := &redisSubscription{
		pubsub: pubsub,
		events: make(chan *Event, 32),
	}

	go func() {
		defer close(sub.events)

		for msg := range pubsub.Channel() {
			event := &Event{}
			if err := json.Unmarshal([]byte(msg.Payload), event); err != nil {
				log.Printf("dropping malformed event on %s: %v", msg.Channel, err)
				continue
			}

			// Lossy under backpressure, same as the in-process broker.
			select {
			case sub.events <- event:
			default:
			}
		}
	}()

	return sub, nil
}

func (b *redisBroker) Publish(ctx context.Context, room string, event *Event) error {
	raw, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return b.client.Publish(ctx, roomChannel(room), raw).Err()
}
