/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"context"
	"encoding/json"
	"sync"
)

// memoryStore keeps rooms and word lists in process memory. It backs the
// --memory-store flag and the test suite; records are deep-copied through
// JSON on the way in and out so no two callers ever alias the stored value.
type memoryStore struct {
	mu    sync.RWMutex
	rooms map[string][]byte
	words map[string][]byte
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		rooms: make(map[string][]byte),
		words: make(map[string][]byte),
	}
}

func (s *memoryStore) Room(_ context.Context, name string) (*Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	raw, ok := s.rooms[name]
	if !ok {
		return nil, ErrRoomNotFound
	}

	room := &Room{}
	if err := json.Unmarshal(raw, room); err != nil {
		return nil, err
	}
	return room, nil
}

func (s *memoryStore) CreateRoom(_ context.Context, name string) (*Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rooms[name]; ok {
		return nil, ErrRoomExists
	}

	room := newRoom(name)
	raw, err := json.Marshal(room)
	if err != nil {
		return nil, err
	}
	s.rooms[name] = raw

	return room, nil
}

func (s *memoryStore) SaveRoom(_ context.Context, room *Room) error {
	raw, err := json.Marshal(room)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.rooms[room.Name] = raw

	return nil
}

func (s *memoryStore) DeleteRoom(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.rooms, name)

	return nil
}

func (s *memoryStore) WordList(_ context.Context, name string) (*WordList, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	raw, ok := s.words[name]
	if !ok {
		return nil, ErrWordListNotFound
	}

	list := &WordList{}
	if err := json.Unmarshal(raw, list); err != nil {
		return nil, err
	}
	return list, nil
}

func (s *memoryStore) SaveWordList(_ context.Context, list *WordList) error {
	raw, err := json.Marshal(list)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.words[list.Name] = raw

	return nil
}

func (s *memoryStore) Purge(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clear(s.rooms)

	return nil
}
