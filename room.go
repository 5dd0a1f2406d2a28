/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"context"

	"github.com/google/uuid"
)

// State is a participant's position in the game lifecycle. OUT is terminal
// for the remainder of the game.
type State string

const (
	StateLobby      State = "LOBBY"
	StatePlaying    State = "PLAYING"
	StatePlayerTurn State = "PLAYER_TURN"
	StateOut        State = "OUT"
)

// Participant is one connected player's record within a room. The zero value
// of the role flags never reveals a role by shape; outsiders only learn their
// role from the clue content they receive.
type Participant struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Captain   bool   `json:"captain"`
	Outsider  bool   `json:"outsider"`
	State     State  `json:"state"`
	GuessWord string `json:"guess_word"`
}

func newParticipant(username string, captain bool) *Participant {
	return &Participant{
		ID:       uuid.NewString(),
		Username: username,
		Captain:  captain,
		State:    StateLobby,
	}
}

// WordPair is one catalog entry: A is the civilian clue, B the outsider clue.
type WordPair struct {
	A string `json:"a"`
	B string `json:"b"`
}

// WordList is a named, immutable-during-session word-pair catalog. The
// catalog consumed by sessions is always the one named "Current".
type WordList struct {
	Name  string     `json:"name"`
	Words []WordPair `json:"word_list"`
}

const currentWordList = "Current"

// Room is one game session's durable shared state. Roster order encodes turn
// order and is rewritten at every round start. A write is a full replace of
// the record; last writer wins.
type Room struct {
	Name            string         `json:"name"`
	Roster          []*Participant `json:"roster"`
	NumberOutsiders int            `json:"number_outsiders"`
	UsedWords       []WordPair     `json:"used_words"`
	Started         bool           `json:"started"`
}

func newRoom(name string) *Room {
	return &Room{
		Name:            name,
		NumberOutsiders: 1,
	}
}

// participant returns the roster entry with the given id, or nil.
func (r *Room) participant(id string) *Participant {
	for _, p := range r.Roster {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// removeParticipant drops the roster entry with the given id, preserving
// order, and reports whether an entry was removed.
func (r *Room) removeParticipant(id string) bool {
	for i, p := range r.Roster {
		if p.ID == id {
			r.Roster = append(r.Roster[:i], r.Roster[i+1:]...)
			return true
		}
	}
	return false
}

// usedWord reports whether the pair has already been played in this room.
func (r *Room) usedWord(w WordPair) bool {
	for _, used := range r.UsedWords {
		if used == w {
			return true
		}
	}
	return false
}

// Store is the durable keyed-record contract backing rooms and word lists.
// Exactly one version of a room is authoritative at any instant; callers
// re-read before any mutation that depends on freshest roster state.
type Store interface {
	// Room fetches a room by name, or ErrRoomNotFound.
	Room(ctx context.Context, name string) (*Room, error)

	// CreateRoom creates an empty room, or ErrRoomExists if the name is taken.
	CreateRoom(ctx context.Context, name string) (*Room, error)

	// SaveRoom replaces the stored record wholesale.
	SaveRoom(ctx context.Context, room *Room) error

	// DeleteRoom removes a room. Deleting an absent room is not an error.
	DeleteRoom(ctx context.Context, name string) error

	// WordList fetches a catalog by name, or ErrWordListNotFound.
	WordList(ctx context.Context, name string) (*WordList, error)

	// SaveWordList replaces the stored catalog wholesale.
	SaveWordList(ctx context.Context, list *WordList) error

	// Purge drops all rooms. Run once at startup; live rooms never survive
	// a server restart.
	Purge(ctx context.Context) error
}
