/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"context"
	"errors"
	"testing"
)

func TestMemoryStoreRooms(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()

	if _, err := store.Room(ctx, "absent"); !errors.Is(err, ErrRoomNotFound) {
		t.Errorf("Room(absent) = %v, want ErrRoomNotFound", err)
	}

	room, err := store.CreateRoom(ctx, "test")
	if err != nil {
		t.Fatalf("CreateRoom: %v", err)
	}
	if room.NumberOutsiders != 1 || room.Started {
		t.Errorf("fresh room = %+v, want one outsider and not started", room)
	}

	if _, err := store.CreateRoom(ctx, "test"); !errors.Is(err, ErrRoomExists) {
		t.Errorf("duplicate CreateRoom = %v, want ErrRoomExists", err)
	}

	room.Roster = append(room.Roster, newParticipant("alice", true))
	room.Started = true
	if err := store.SaveRoom(ctx, room); err != nil {
		t.Fatalf("SaveRoom: %v", err)
	}

	fetched, err := store.Room(ctx, "test")
	if err != nil {
		t.Fatalf("Room: %v", err)
	}
	if !fetched.Started || len(fetched.Roster) != 1 || fetched.Roster[0].Username != "alice" {
		t.Errorf("fetched room = %+v, want saved state back", fetched)
	}

	// The store must never hand out aliased records.
	fetched.Roster[0].Username = "mallory"
	again, _ := store.Room(ctx, "test")
	if again.Roster[0].Username != "alice" {
		t.Error("mutating a fetched room leaked into the store")
	}

	if err := store.DeleteRoom(ctx, "test"); err != nil {
		t.Fatalf("DeleteRoom: %v", err)
	}
	if _, err := store.Room(ctx, "test"); !errors.Is(err, ErrRoomNotFound) {
		t.Errorf("Room after delete = %v, want ErrRoomNotFound", err)
	}

	// Deleting an already-deleted room is a no-op, not an error.
	if err := store.DeleteRoom(ctx, "test"); err != nil {
		t.Errorf("repeated DeleteRoom = %v, want nil", err)
	}
}

func TestMemoryStoreWordLists(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()

	if _, err := store.WordList(ctx, currentWordList); !errors.Is(err, ErrWordListNotFound) {
		t.Errorf("WordList(absent) = %v, want ErrWordListNotFound", err)
	}

	list := &WordList{
		Name:  currentWordList,
		Words: []WordPair{{A: "cat", B: "dog"}},
	}
	if err := store.SaveWordList(ctx, list); err != nil {
		t.Fatalf("SaveWordList: %v", err)
	}

	fetched, err := store.WordList(ctx, currentWordList)
	if err != nil {
		t.Fatalf("WordList: %v", err)
	}
	if len(fetched.Words) != 1 || fetched.Words[0].A != "cat" {
		t.Errorf("fetched list = %+v, want saved list back", fetched)
	}
}

func TestMemoryStorePurgeDropsOnlyRooms(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()

	if _, err := store.CreateRoom(ctx, "one"); err != nil {
		t.Fatal(err)
	}
	if _, err := store.CreateRoom(ctx, "two"); err != nil {
		t.Fatal(err)
	}
	if err := store.SaveWordList(ctx, &WordList{Name: currentWordList, Words: []WordPair{{A: "a", B: "b"}}}); err != nil {
		t.Fatal(err)
	}

	if err := store.Purge(ctx); err != nil {
		t.Fatalf("Purge: %v", err)
	}

	if _, err := store.Room(ctx, "one"); !errors.Is(err, ErrRoomNotFound) {
		t.Error("room survived purge")
	}
	if _, err := store.WordList(ctx, currentWordList); err != nil {
		t.Errorf("word list did not survive purge: %v", err)
	}
}

func TestSeedWordCatalog(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	cfg := &Config{}

	if err := seedWordCatalog(ctx, cfg, store); err != nil {
		t.Fatalf("seedWordCatalog: %v", err)
	}

	list, err := store.WordList(ctx, currentWordList)
	if err != nil {
		t.Fatalf("WordList after seed: %v", err)
	}
	if len(list.Words) == 0 {
		t.Fatal("seeded catalog is empty")
	}

	// A populated catalog is left untouched by a second boot.
	curated := &WordList{Name: currentWordList, Words: []WordPair{{A: "only", B: "pair"}}}
	if err := store.SaveWordList(ctx, curated); err != nil {
		t.Fatal(err)
	}
	if err := seedWordCatalog(ctx, cfg, store); err != nil {
		t.Fatalf("second seedWordCatalog: %v", err)
	}
	list, _ = store.WordList(ctx, currentWordList)
	if len(list.Words) != 1 {
		t.Errorf("reseed replaced a curated catalog (%d pairs)", len(list.Words))
	}
}
