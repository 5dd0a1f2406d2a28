/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"crypto/rand"
	"math/big"
	"strings"
)

// randomIndex returns a uniform index in [0, n) using crypto/rand.
func randomIndex(n int) int {
	if n <= 1 {
		return 0
	}

	i, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0
	}

	return int(i.Int64())
}

// shuffleRoster applies a Fisher-Yates shuffle in place using crypto/rand.
func shuffleRoster(roster []*Participant) {
	for i := len(roster) - 1; i > 0; i-- {
		j := randomIndex(i + 1)
		roster[i], roster[j] = roster[j], roster[i]
	}
}

// roundStart is the broadcast result of starting a fresh game or replaying
// a round. Every actor derives its own visible clue from it; the durable
// record never stores who can see what.
type roundStart struct {
	Outsiders    []string       `json:"outsiders"`
	SelectedWord *WordPair      `json:"selected_word"`
	FirstPlayer  *Participant   `json:"first_player"`
	TurnOrder    []*Participant `json:"turn_order"`
}

// selectWord picks a word pair for the round. Replays avoid pairs already in
// the room's used set; once the catalog is exhausted the used set is cleared
// and a pair is drawn from the full catalog again. That reset is policy, not
// an error.
func selectWord(room *Room, catalog []WordPair, replay bool) WordPair {
	if replay {
		unused := make([]WordPair, 0, len(catalog))
		for _, w := range catalog {
			if !room.usedWord(w) {
				unused = append(unused, w)
			}
		}

		if len(unused) == 0 {
			room.UsedWords = nil
			return catalog[randomIndex(len(catalog))]
		}

		return unused[randomIndex(len(unused))]
	}

	return catalog[randomIndex(len(catalog))]
}

// selectOutsiders draws the round's secret minority, once, at first game
// start. A roster of six or more forces two outsiders; the count is never
// lowered again by roster size, only by elimination.
func selectOutsiders(room *Room) []string {
	if len(room.Roster) >= 6 {
		room.NumberOutsiders = 2
	}

	if room.NumberOutsiders <= 1 {
		return []string{room.Roster[randomIndex(len(room.Roster))].ID}
	}

	picked := make(map[int]bool, room.NumberOutsiders)
	outsiders := make([]string, 0, room.NumberOutsiders)
	for len(outsiders) < room.NumberOutsiders {
		i := randomIndex(len(room.Roster))
		if picked[i] {
			continue
		}
		picked[i] = true
		outsiders = append(outsiders, room.Roster[i].ID)
	}

	return outsiders
}

// startRound mutates the room for a new round: word selection, the one-time
// outsider draw on a fresh game, the used-word record, a reshuffled turn
// order, and PLAYER_TURN on the first non-OUT entry. The caller persists the
// room and broadcasts the result.
func startRound(room *Room, catalog []WordPair, outsiders []string, replay bool) *roundStart {
	word := selectWord(room, catalog, replay)

	if !replay {
		room.Started = true
		outsiders = selectOutsiders(room)
	}

	room.UsedWords = append(room.UsedWords, word)

	shuffleRoster(room.Roster)

	result := &roundStart{
		Outsiders:    outsiders,
		SelectedWord: &word,
		TurnOrder:    room.Roster,
	}

	for _, p := range room.Roster {
		if p.State == StateOut {
			continue
		}

		if result.FirstPlayer == nil {
			p.State = StatePlayerTurn
			result.FirstPlayer = p
		} else {
			p.State = StatePlaying
		}
	}

	return result
}

// advanceTurn records the acting participant's guess in the echoed order and
// hands PLAYER_TURN to the next non-OUT entry. When the acting participant
// is last in order, the turn wraps to index 0 without re-checking OUT; that
// wrap behavior is longstanding and deliberately unchanged.
func advanceTurn(order []*Participant, selfID, guess string) string {
	next := ""

	for i, p := range order {
		if p.State == StateOut {
			continue
		}
		if p.ID != selfID {
			continue
		}

		p.GuessWord = guess
		p.State = StatePlaying

		if i+1 < len(order) {
			order[i+1].State = StatePlayerTurn
			next = order[i+1].ID
		} else {
			next = order[0].ID
		}
	}

	return next
}

// tallyVotes runs a plurality count over the buffer. A tie between the two
// highest counts eliminates nobody and returns "".
func tallyVotes(votes []string) string {
	counts := make(map[string]int, len(votes))
	for _, v := range votes {
		counts[v]++
	}

	top, second := "", 0
	best := 0
	for candidate, n := range counts {
		switch {
		case n > best:
			second = best
			best = n
			top = candidate
		case n > second:
			second = n
		}
	}

	if len(counts) > 1 && best == second {
		return ""
	}

	return top
}

// voteResult is the broadcast outcome of a completed vote.
type voteResult struct {
	PlayerOut       *Participant   `json:"player_out"`
	ContinuePlaying bool           `json:"continue_playing"`
	NumberOutsiders int            `json:"number_outsiders"`
	NextCaptain     *Participant   `json:"next_captain"`
	ActualUsers     []*Participant `json:"actual_users"`
}

// applyElimination marks the voted participant OUT, hands captaincy to the
// first remaining non-OUT entry if needed, reveals and uncounts an
// eliminated outsider, and decides whether the survivors can keep playing.
// An empty votedID (a tied vote) eliminates nobody.
func applyElimination(room *Room, votedID string, outsiderIDs []string) *voteResult {
	result := &voteResult{
		ActualUsers: room.Roster,
	}

	currentPlaying := 0

	for _, p := range room.Roster {
		if votedID != "" && p.ID == votedID {
			p.State = StateOut
			result.PlayerOut = p

			if p.Captain {
				p.Captain = false
				for _, successor := range room.Roster {
					if successor.State != StateOut {
						successor.Captain = true
						result.NextCaptain = successor
						break
					}
				}
			}

			for _, id := range outsiderIDs {
				if id == p.ID {
					p.Outsider = true
					break
				}
			}

			continue
		}

		if p.State != StateOut {
			currentPlaying++
		}
	}

	if result.PlayerOut != nil && result.PlayerOut.Outsider {
		room.NumberOutsiders--
	}

	result.NumberOutsiders = room.NumberOutsiders

	if room.NumberOutsiders > 0 {
		result.ContinuePlaying = currentPlaying > room.NumberOutsiders*2
	}

	return result
}

// lastChanceGuess reports whether a guess matches the round's civilian clue,
// compared case-insensitively. Pure check; no state changes anywhere.
func lastChanceGuess(guess string, word *WordPair) bool {
	if word == nil {
		return false
	}

	return strings.EqualFold(strings.TrimSpace(guess), word.A)
}
