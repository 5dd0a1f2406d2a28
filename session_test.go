/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"testing"
)

func testRoster(n int) []*Participant {
	roster := make([]*Participant, 0, n)
	for i := 0; i < n; i++ {
		roster = append(roster, newParticipant(string(rune('A'+i)), i == 0))
	}
	return roster
}

func testCatalog(pairs ...WordPair) []WordPair {
	return pairs
}

func TestTallyVotes(t *testing.T) {
	tests := []struct {
		name  string
		votes []string
		want  string
	}{
		{"clear plurality", []string{"A", "A", "B"}, "A"},
		{"tie at top", []string{"A", "A", "B", "B"}, ""},
		{"single candidate", []string{"A", "A"}, "A"},
		{"all tied", []string{"A", "B", "C"}, ""},
		{"plurality without majority", []string{"A", "A", "B", "C"}, "A"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tallyVotes(tc.votes); got != tc.want {
				t.Errorf("tallyVotes(%v) = %q, want %q", tc.votes, got, tc.want)
			}
		})
	}
}

func TestLastChanceGuess(t *testing.T) {
	word := &WordPair{A: "cat", B: "dog"}

	for _, guess := range []string{"Cat", "cat", "CAT"} {
		if !lastChanceGuess(guess, word) {
			t.Errorf("lastChanceGuess(%q) = false, want true", guess)
		}
	}

	if lastChanceGuess("dog", word) {
		t.Error("lastChanceGuess(\"dog\") = true, want false")
	}

	if lastChanceGuess("cat", nil) {
		t.Error("lastChanceGuess with no active word = true, want false")
	}
}

func TestStartRoundFresh(t *testing.T) {
	room := newRoom("test")
	room.Roster = testRoster(3)

	catalog := testCatalog(WordPair{A: "beach", B: "pool"})

	result := startRound(room, catalog, nil, false)

	if !room.Started {
		t.Error("room not marked started")
	}

	if len(result.Outsiders) != 1 {
		t.Fatalf("got %d outsiders, want 1", len(result.Outsiders))
	}

	if room.participant(result.Outsiders[0]) == nil {
		t.Error("outsider id not in roster")
	}

	if result.FirstPlayer == nil || result.FirstPlayer.State != StatePlayerTurn {
		t.Fatal("first player missing or not in PLAYER_TURN")
	}

	turns := 0
	for _, p := range room.Roster {
		switch p.State {
		case StatePlayerTurn:
			turns++
		case StatePlaying:
		default:
			t.Errorf("participant %q in unexpected state %q", p.Username, p.State)
		}
	}
	if turns != 1 {
		t.Errorf("got %d participants in PLAYER_TURN, want 1", turns)
	}

	if len(room.UsedWords) != 1 || room.UsedWords[0] != catalog[0] {
		t.Errorf("used words = %v, want the selected pair recorded", room.UsedWords)
	}

	if len(result.TurnOrder) != 3 {
		t.Errorf("turn order has %d entries, want 3", len(result.TurnOrder))
	}
}

func TestStartRoundForcesTwoOutsidersAtSix(t *testing.T) {
	room := newRoom("test")
	room.Roster = testRoster(6)

	result := startRound(room, testCatalog(WordPair{A: "a", B: "b"}), nil, false)

	if room.NumberOutsiders != 2 {
		t.Errorf("number_outsiders = %d, want 2", room.NumberOutsiders)
	}

	if len(result.Outsiders) != 2 {
		t.Fatalf("got %d outsiders, want 2", len(result.Outsiders))
	}

	if result.Outsiders[0] == result.Outsiders[1] {
		t.Error("outsider draw returned the same participant twice")
	}
}

func TestStartRoundReplayAvoidsUsedWords(t *testing.T) {
	catalog := testCatalog(
		WordPair{A: "beach", B: "pool"},
		WordPair{A: "coffee", B: "tea"},
		WordPair{A: "guitar", B: "violin"},
	)

	// With two of three pairs used, a replay must pick the third.
	for i := 0; i < 20; i++ {
		room := newRoom("test")
		room.Roster = testRoster(3)
		room.Started = true
		room.UsedWords = []WordPair{catalog[0], catalog[1]}

		result := startRound(room, catalog, []string{room.Roster[0].ID}, true)

		if *result.SelectedWord != catalog[2] {
			t.Fatalf("replay selected used pair %v", *result.SelectedWord)
		}
	}
}

func TestStartRoundReplayResetsOnExhaustion(t *testing.T) {
	catalog := testCatalog(WordPair{A: "beach", B: "pool"})

	room := newRoom("test")
	room.Roster = testRoster(2)
	room.Started = true
	room.UsedWords = []WordPair{catalog[0]}

	result := startRound(room, catalog, []string{room.Roster[0].ID}, true)

	if result.SelectedWord == nil {
		t.Fatal("exhausted catalog returned no word")
	}

	// The used set was cleared, then the new selection recorded.
	if len(room.UsedWords) != 1 {
		t.Errorf("used words = %v, want only the fresh selection after reset", room.UsedWords)
	}
}

func TestStartRoundReplayKeepsOutsiders(t *testing.T) {
	room := newRoom("test")
	room.Roster = testRoster(3)
	room.Started = true

	outsiders := []string{room.Roster[1].ID}

	result := startRound(room, testCatalog(WordPair{A: "a", B: "b"}), outsiders, true)

	if len(result.Outsiders) != 1 || result.Outsiders[0] != outsiders[0] {
		t.Errorf("replay outsiders = %v, want %v", result.Outsiders, outsiders)
	}
}

func TestStartRoundSkipsEliminatedForFirstTurn(t *testing.T) {
	for i := 0; i < 20; i++ {
		room := newRoom("test")
		room.Roster = testRoster(3)
		room.Roster[0].State = StateOut
		room.Roster[1].State = StatePlaying
		room.Roster[2].State = StatePlaying
		room.Started = true

		result := startRound(room, testCatalog(WordPair{A: "a", B: "b"}), []string{room.Roster[1].ID}, true)

		if result.FirstPlayer.State == StateOut {
			t.Fatal("eliminated participant assigned the first turn")
		}

		for _, p := range room.Roster {
			if p.ID == result.FirstPlayer.ID {
				continue
			}
			if p.State == StatePlayerTurn {
				t.Fatalf("second participant %q also in PLAYER_TURN", p.Username)
			}
		}
	}
}

func TestAdvanceTurn(t *testing.T) {
	order := testRoster(3)
	for _, p := range order {
		p.State = StatePlaying
	}
	order[0].State = StatePlayerTurn

	next := advanceTurn(order, order[0].ID, "sunset")

	if next != order[1].ID {
		t.Errorf("next = %q, want index 1 (%q)", next, order[1].ID)
	}
	if order[0].State != StatePlaying || order[0].GuessWord != "sunset" {
		t.Errorf("acting participant = %q/%q, want PLAYING with guess recorded", order[0].State, order[0].GuessWord)
	}
	if order[1].State != StatePlayerTurn {
		t.Errorf("participant at index 1 = %q, want PLAYER_TURN", order[1].State)
	}
}

func TestAdvanceTurnWrapsToFirstEntry(t *testing.T) {
	order := testRoster(3)
	for _, p := range order {
		p.State = StatePlaying
	}
	order[2].State = StatePlayerTurn

	next := advanceTurn(order, order[2].ID, "wave")

	// Wrap goes to roster index 0 unconditionally; see advanceTurn.
	if next != order[0].ID {
		t.Errorf("next = %q, want wrap to index 0 (%q)", next, order[0].ID)
	}
}

func TestAdvanceTurnIgnoresEliminatedActor(t *testing.T) {
	order := testRoster(3)
	order[0].State = StateOut
	order[1].State = StatePlayerTurn
	order[2].State = StatePlaying

	// An OUT entry never matches as the acting participant.
	if next := advanceTurn(order, order[0].ID, "x"); next != "" {
		t.Errorf("next = %q, want no advancement", next)
	}
}

func TestApplyEliminationCivilian(t *testing.T) {
	room := newRoom("test")
	room.Roster = testRoster(7)
	room.NumberOutsiders = 2
	for _, p := range room.Roster {
		p.State = StatePlaying
	}

	outsiders := []string{room.Roster[5].ID, room.Roster[6].ID}

	result := applyElimination(room, room.Roster[3].ID, outsiders)

	if result.PlayerOut == nil || result.PlayerOut.ID != room.Roster[3].ID {
		t.Fatal("wrong participant eliminated")
	}
	if result.PlayerOut.State != StateOut {
		t.Error("eliminated participant not OUT")
	}
	if result.PlayerOut.Outsider {
		t.Error("civilian marked as outsider")
	}
	if result.NumberOutsiders != 2 {
		t.Errorf("number_outsiders = %d, want 2", result.NumberOutsiders)
	}
	// Six players remain against two outsiders: 6 > 4.
	if !result.ContinuePlaying {
		t.Error("continue_playing = false, want true")
	}
	// Captain survived; no succession.
	if result.NextCaptain != nil {
		t.Errorf("next captain = %v, want none", result.NextCaptain)
	}
}

func TestApplyEliminationOutsider(t *testing.T) {
	room := newRoom("test")
	room.Roster = testRoster(2)
	for _, p := range room.Roster {
		p.State = StatePlaying
	}

	outsiders := []string{room.Roster[1].ID}

	result := applyElimination(room, room.Roster[1].ID, outsiders)

	if result.PlayerOut == nil || !result.PlayerOut.Outsider {
		t.Fatal("eliminated outsider not revealed")
	}
	if result.NumberOutsiders != 0 {
		t.Errorf("number_outsiders = %d, want 0", result.NumberOutsiders)
	}
	// No outsiders left means the game is over regardless of player count.
	if result.ContinuePlaying {
		t.Error("continue_playing = true after last outsider eliminated")
	}
}

func TestApplyEliminationTransfersCaptaincy(t *testing.T) {
	room := newRoom("test")
	room.Roster = testRoster(3)
	for _, p := range room.Roster {
		p.State = StatePlaying
	}

	result := applyElimination(room, room.Roster[0].ID, nil)

	if result.PlayerOut.Captain {
		t.Error("eliminated participant kept the captain flag")
	}
	if result.NextCaptain == nil {
		t.Fatal("no captaincy successor chosen")
	}
	if result.NextCaptain.ID != room.Roster[1].ID {
		t.Errorf("next captain = %q, want first remaining non-OUT entry %q",
			result.NextCaptain.ID, room.Roster[1].ID)
	}
	if !room.Roster[1].Captain {
		t.Error("successor's captain flag not set in the record")
	}
}

func TestApplyEliminationTie(t *testing.T) {
	room := newRoom("test")
	room.Roster = testRoster(4)
	for _, p := range room.Roster {
		p.State = StatePlaying
	}

	result := applyElimination(room, "", nil)

	if result.PlayerOut != nil {
		t.Fatalf("tie eliminated %q, want nobody", result.PlayerOut.Username)
	}
	// Four players against one outsider: 4 > 2, the round replays.
	if !result.ContinuePlaying {
		t.Error("continue_playing = false after tie, want true")
	}
}

func TestSelectOutsidersDistinct(t *testing.T) {
	for i := 0; i < 50; i++ {
		room := newRoom("test")
		room.Roster = testRoster(6)

		outsiders := selectOutsiders(room)

		if len(outsiders) != 2 {
			t.Fatalf("got %d outsiders, want 2", len(outsiders))
		}
		if outsiders[0] == outsiders[1] {
			t.Fatal("duplicate outsider drawn")
		}
	}
}
