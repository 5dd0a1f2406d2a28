/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Outsider room sessions.
//
// A small group joins a named room over websockets. One round: everyone but
// the outsiders is shown a shared clue word, each player says a word on
// their turn, then the room votes on who the outsider is. Plurality loses;
// a tie at the top eliminates nobody. Rounds replay with fresh words until
// the outsiders are all out (civilians win) or too few civilians remain.
//
// Each connection gets one actor goroutine. Actors never touch each other's
// memory: they coordinate through the durable room record (Store) and the
// room broadcast channel (Broker), re-reading the record before any write
// that depends on fresh roster state. Vote counting is done only by the
// actor whose participant currently holds the captain flag; everyone else
// observes the same broadcasts and converges on the same local view.

package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"
)

// Event kinds on the room broadcast channel. Inbound actions use the same
// names, and outbound message_type values mirror them.
const (
	eventConnection     = "connection"
	eventDisconnection  = "disconnection"
	eventStartGame      = "startGame"
	eventNextTurn       = "nextTurn"
	eventVoting         = "votingOutsider"
	eventVotingComplete = "votingComplete"
	eventLastChance     = "lastChance"
	eventNextRound      = "nextRound"
	eventEndGame        = "endGame"
	eventDefault        = "default"
)

// ClientMessage is everything a remote participant can send.
type ClientMessage struct {
	Action   string         `json:"action,omitempty"`
	Message  string         `json:"message"`
	Username string         `json:"username,omitempty"`
	Order    []*Participant `json:"order,omitempty"`
}

// Broadcast payloads.

type connectionPayload struct {
	Message  string `json:"message"`
	Username string `json:"username"`
}

type disconnectionPayload struct {
	Message          string       `json:"message"`
	Username         string       `json:"username"`
	DisconnectedUser *Participant `json:"disconnected_user"`
}

type turnPayload struct {
	TurnOrder  []*Participant `json:"turn_order"`
	NextPlayer string         `json:"next_player"`
}

type votePayload struct {
	PlayerVote string `json:"player_vote"`
}

type lastChancePayload struct {
	LastChanceGuess bool `json:"last_chance_guess"`
}

type chatPayload struct {
	Message  string `json:"message"`
	Username string `json:"username"`
}

// Messages sent to clients.

type RosterMessage struct {
	MessageType      string         `json:"message_type"` // "connection" or "disconnection"
	Message          string         `json:"message"`
	Username         string         `json:"username"`
	User             *Participant   `json:"user,omitempty"`
	ActualUsers      []*Participant `json:"actual_users"`
	DisconnectedUser *Participant   `json:"disconnected_user,omitempty"`
}

type RoundMessage struct {
	MessageType string         `json:"message_type"` // "startGame" or "nextRound"
	User        *Participant   `json:"user"`
	KeyWord     string         `json:"key_word"`
	ActualUsers []*Participant `json:"actual_users"`
}

type TurnMessage struct {
	MessageType string         `json:"message_type"` // "nextTurn"
	User        *Participant   `json:"user"`
	ActualUsers []*Participant `json:"actual_users"`
}

type VotingCompleteMessage struct {
	MessageType     string         `json:"message_type"` // "votingComplete"
	User            *Participant   `json:"user"`
	PlayerOut       *Participant   `json:"player_out"`
	ContinuePlaying bool           `json:"continue_playing"`
	NumberOutsiders int            `json:"number_outsiders"`
	ActualUsers     []*Participant `json:"actual_users"`
}

type LastChanceMessage struct {
	MessageType     string `json:"message_type"` // "lastChanceGuess"
	LastChanceGuess bool   `json:"last_chance_guess"`
}

type EndGameMessage struct {
	MessageType string `json:"message_type"` // "endGame"
}

type ChatMessage struct {
	MessageType string `json:"message_type"` // "default"
	Message     string `json:"message"`
	Username    string `json:"username,omitempty"`
}

// hiddenClue is what outsiders see in place of the civilian clue, unless
// they open the round and get the outsider clue to bluff from.
const hiddenClue = "???"

// actor is the per-connection handler. Everything on it is ephemeral and
// owned exclusively by this connection's goroutines; none of it is ever
// persisted or shared with other actors.
type actor struct {
	cfg      *Config
	store    Store
	broker   Broker
	conn     *websocket.Conn
	sub      Subscription
	roomName string
	ctx      context.Context
	send     chan any

	user         *Participant
	room         *Room
	votes        []string
	eligible     []string
	words        []WordPair
	selectedWord *WordPair
	outsiderIDs  []string
	firstPlayer  *Participant
	finished     bool
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// serveRoomWS gates the websocket handshake on the room record: an absent
// room, or one whose game already started, refuses the connection outright.
func serveRoomWS(cfg *Config, store Store, broker Broker) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		roomName := ps.ByName("name")
		if roomName == "" {
			http.Error(w, "missing room name", http.StatusBadRequest)
			return
		}

		room, err := store.Room(r.Context(), roomName)
		if err != nil || room.Started {
			http.Error(w, "room not found", http.StatusNotFound)
			return
		}

		// The subscription and the store calls that follow outlive the
		// request context once the connection is hijacked.
		ctx := context.Background()

		sub, err := broker.Subscribe(ctx, roomName)
		if err != nil {
			http.Error(w, "room unavailable", http.StatusServiceUnavailable)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			_ = sub.Close()
			logf(cfg, "ROOMS: upgrade error for %q: %v", roomName, err)
			return
		}

		a := &actor{
			cfg:      cfg,
			store:    store,
			broker:   broker,
			conn:     conn,
			sub:      sub,
			roomName: roomName,
			ctx:      ctx,
			send:     make(chan any, 8),
			room:     room,
		}

		go a.writePump()
		a.run()
	}
}

// run is the actor's single-threaded event loop: one channel of direct
// client actions, one channel of room broadcasts, no other inputs. All
// actor state is touched only from this goroutine.
func (a *actor) run() {
	inbound := make(chan *ClientMessage, 8)
	go a.readPump(inbound)

	defer func() {
		a.disconnect()
		_ = a.sub.Close()
		close(a.send)
		_ = a.conn.Close()
	}()

	events := a.sub.Events()

	for {
		select {
		case msg, ok := <-inbound:
			if !ok {
				return
			}
			a.handleAction(msg)
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			a.handleEvent(ev)
		}
	}
}

func (a *actor) readPump(inbound chan<- *ClientMessage) {
	defer close(inbound)

	for {
		msg := &ClientMessage{}
		if err := a.conn.ReadJSON(msg); err != nil {
			return
		}
		inbound <- msg
	}
}

func (a *actor) writePump() {
	defer a.conn.Close()

	for msg := range a.send {
		if err := a.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

// deliver queues a message for this actor's own client, dropping it if the
// write pump has fallen behind.
func (a *actor) deliver(msg any) {
	select {
	case a.send <- msg:
	default:
	}
}

func (a *actor) publish(eventType string, payload any) {
	ev, err := newEvent(eventType, payload)
	if err != nil {
		logf(a.cfg, "ROOMS: encoding %s event for %q: %v", eventType, a.roomName, err)
		return
	}

	if err := a.broker.Publish(a.ctx, a.roomName, ev); err != nil {
		logf(a.cfg, "ROOMS: publishing %s event for %q: %v", eventType, a.roomName, err)
	}
}

// refreshRoom re-reads the authoritative record. Mutations that depend on
// fresh roster state always go through this first.
func (a *actor) refreshRoom() bool {
	room, err := a.store.Room(a.ctx, a.roomName)
	if err != nil {
		logf(a.cfg, "ROOMS: fetching %q: %v", a.roomName, err)
		return false
	}

	a.room = room

	return true
}

func (a *actor) handleAction(msg *ClientMessage) {
	switch msg.Action {
	case eventConnection:
		a.handleConnect(msg)
	case eventStartGame:
		a.handleStartRound(false)
	case eventNextRound:
		a.handleStartRound(true)
	case eventNextTurn:
		a.handleNextTurn(msg)
	case eventVoting:
		a.publish(eventVoting, votePayload{PlayerVote: msg.Message})
	case eventLastChance:
		a.publish(eventLastChance, lastChancePayload{
			LastChanceGuess: lastChanceGuess(msg.Message, a.selectedWord),
		})
	case eventEndGame:
		a.handleEndGame()
	default:
		if msg.Message == "" {
			return
		}
		a.publish(eventDefault, chatPayload{Message: msg.Message, Username: msg.Username})
	}
}

// handleConnect registers this connection's participant in the roster. The
// first joiner of an empty roster becomes captain.
func (a *actor) handleConnect(msg *ClientMessage) {
	username := strings.TrimSpace(msg.Username)
	if username == "" || a.user != nil {
		return
	}

	if !a.refreshRoom() {
		return
	}

	a.user = newParticipant(username, len(a.room.Roster) == 0)
	a.room.Roster = append(a.room.Roster, a.user)

	if err := a.store.SaveRoom(a.ctx, a.room); err != nil {
		logf(a.cfg, "ROOMS: saving %q after join: %v", a.roomName, err)
		return
	}

	logf(a.cfg, "ROOMS: %q joined %q", username, a.roomName)

	a.publish(eventConnection, connectionPayload{
		Message:  username + " has joined the room",
		Username: username,
	})
}

// handleStartRound runs the session logic for a fresh game or a replay and
// broadcasts the result. A missing word catalog aborts the action with no
// room mutation.
func (a *actor) handleStartRound(replay bool) {
	if a.words == nil {
		list, err := a.store.WordList(a.ctx, currentWordList)
		if err != nil || len(list.Words) == 0 {
			logf(a.cfg, "ROOMS: no current word list, cannot start round in %q: %v", a.roomName, err)
			return
		}
		a.words = list.Words
	}

	if !a.refreshRoom() || len(a.room.Roster) == 0 {
		return
	}

	result := startRound(a.room, a.words, a.outsiderIDs, replay)

	if err := a.store.SaveRoom(a.ctx, a.room); err != nil {
		logf(a.cfg, "ROOMS: saving %q after round start: %v", a.roomName, err)
		return
	}

	eventType := eventStartGame
	if replay {
		eventType = eventNextRound
	}

	a.publish(eventType, result)
}

// handleNextTurn records the acting participant's guess and passes the turn
// along the order echoed by the client.
func (a *actor) handleNextTurn(msg *ClientMessage) {
	if a.user == nil || len(msg.Order) == 0 {
		return
	}

	a.user.GuessWord = msg.Message
	a.user.State = StatePlaying

	next := advanceTurn(msg.Order, a.user.ID, msg.Message)

	a.publish(eventNextTurn, turnPayload{
		TurnOrder:  msg.Order,
		NextPlayer: next,
	})
}

// handleEndGame tears the room down for everyone. A room already deleted by
// a racing disconnect is fine.
func (a *actor) handleEndGame() {
	if err := a.store.DeleteRoom(a.ctx, a.roomName); err != nil && !errors.Is(err, ErrRoomNotFound) {
		logf(a.cfg, "ROOMS: deleting %q at end of game: %v", a.roomName, err)
	}

	a.publish(eventEndGame, struct{}{})
}

// disconnect runs once, when the connection drops. It removes this actor's
// participant from the authoritative roster, deletes the room if that
// empties it, fixes up captaincy and outsider counts otherwise, and tells
// the remaining actors who left. After an explicit endGame it is a no-op.
func (a *actor) disconnect() {
	if a.finished || a.user == nil {
		return
	}

	room, err := a.store.Room(a.ctx, a.roomName)
	if err != nil {
		// Room already gone; nothing to clean up.
		return
	}

	if !room.removeParticipant(a.user.ID) {
		return
	}

	if len(room.Roster) == 0 {
		if err := a.store.DeleteRoom(a.ctx, a.roomName); err != nil {
			logf(a.cfg, "ROOMS: deleting empty room %q: %v", a.roomName, err)
		}
	} else {
		if a.user.Captain {
			for _, p := range room.Roster {
				if p.State != StateOut {
					p.Captain = true
					break
				}
			}
		}

		if a.user.Outsider {
			room.NumberOutsiders--
		}

		if err := a.store.SaveRoom(a.ctx, room); err != nil {
			logf(a.cfg, "ROOMS: saving %q after disconnect: %v", a.roomName, err)
		}
	}

	logf(a.cfg, "ROOMS: %q left %q", a.user.Username, a.roomName)

	a.publish(eventDisconnection, disconnectionPayload{
		Message:          a.user.Username + " has disconnected",
		Username:         a.user.Username,
		DisconnectedUser: a.user,
	})
}

func (a *actor) handleEvent(ev *Event) {
	switch ev.Type {
	case eventConnection:
		a.onConnection(ev)
	case eventDisconnection:
		a.onDisconnection(ev)
	case eventStartGame, eventNextRound:
		a.onRoundStart(ev)
	case eventNextTurn:
		a.onNextTurn(ev)
	case eventVoting:
		a.onVote(ev)
	case eventVotingComplete:
		a.onVotingComplete(ev)
	case eventLastChance:
		a.onLastChance(ev)
	case eventEndGame:
		a.finished = true
		a.deliver(EndGameMessage{MessageType: eventEndGame})
	case eventDefault:
		a.onChat(ev)
	}
}

func (a *actor) onConnection(ev *Event) {
	payload := connectionPayload{}
	if err := json.Unmarshal(ev.Data, &payload); err != nil {
		return
	}

	if !a.refreshRoom() {
		return
	}

	a.deliver(RosterMessage{
		MessageType: eventConnection,
		Message:     payload.Message,
		Username:    payload.Username,
		User:        a.user,
		ActualUsers: a.room.Roster,
	})
}

func (a *actor) onDisconnection(ev *Event) {
	payload := disconnectionPayload{}
	if err := json.Unmarshal(ev.Data, &payload); err != nil {
		return
	}

	if !a.refreshRoom() && payload.DisconnectedUser != nil {
		// The departing participant may have been the last one; deliver the
		// event with the roster we already hold.
		a.room.removeParticipant(payload.DisconnectedUser.ID)
	}

	// A departed captain's flag passes to the head of the remaining roster;
	// each actor claims it only for itself.
	if payload.DisconnectedUser != nil && payload.DisconnectedUser.Captain &&
		a.user != nil && len(a.room.Roster) > 0 && a.room.Roster[0].ID == a.user.ID {
		a.user.Captain = true
	}

	a.deliver(RosterMessage{
		MessageType:      eventDisconnection,
		Message:          payload.Message,
		Username:         payload.Username,
		User:             a.user,
		ActualUsers:      a.room.Roster,
		DisconnectedUser: payload.DisconnectedUser,
	})
}

// onRoundStart resets the round-scoped vote state and derives this
// participant's visible clue. Outsiders get the masked clue unless they are
// first to play, in which case they get the outsider clue so they can bluff
// convincingly. The payload shape is identical for everyone; only clue
// content differs.
func (a *actor) onRoundStart(ev *Event) {
	payload := roundStart{}
	if err := json.Unmarshal(ev.Data, &payload); err != nil || payload.SelectedWord == nil {
		return
	}

	a.votes = nil
	a.eligible = nil
	a.selectedWord = payload.SelectedWord
	a.outsiderIDs = payload.Outsiders
	a.firstPlayer = payload.FirstPlayer

	if a.user == nil {
		return
	}

	keyWord := payload.SelectedWord.A
	for _, id := range payload.Outsiders {
		if id == a.user.ID {
			a.user.Outsider = true
			keyWord = hiddenClue
			break
		}
	}

	if payload.FirstPlayer != nil && payload.FirstPlayer.ID == a.user.ID {
		a.user.State = StatePlayerTurn
		if a.user.Outsider {
			keyWord = payload.SelectedWord.B
		}
	} else if a.user.State != StateOut {
		a.user.State = StatePlaying
	}

	a.deliver(RoundMessage{
		MessageType: ev.Type,
		User:        a.user,
		KeyWord:     keyWord,
		ActualUsers: payload.TurnOrder,
	})

	a.refreshRoom()
}

func (a *actor) onNextTurn(ev *Event) {
	payload := turnPayload{}
	if err := json.Unmarshal(ev.Data, &payload); err != nil {
		return
	}

	if a.user != nil && payload.NextPlayer == a.user.ID {
		a.user.State = StatePlayerTurn
	}

	a.deliver(TurnMessage{
		MessageType: eventNextTurn,
		User:        a.user,
		ActualUsers: payload.TurnOrder,
	})
}

// onVote accumulates votes, but only on the captain's actor; every other
// actor observes and discards. Until the buffer covers every eligible
// voter the round stays silent, which is the correct behavior and not a
// stall. The eligible set is snapshotted at the first vote of the round and
// held for the round's duration.
func (a *actor) onVote(ev *Event) {
	if a.user == nil || !a.user.Captain {
		return
	}

	payload := votePayload{}
	if err := json.Unmarshal(ev.Data, &payload); err != nil {
		return
	}

	a.votes = append(a.votes, payload.PlayerVote)

	if a.eligible == nil {
		for _, p := range a.room.Roster {
			if p.State == StatePlaying || p.State == StatePlayerTurn {
				a.eligible = append(a.eligible, p.ID)
			}
		}
	}

	if len(a.votes) < len(a.eligible) {
		return
	}

	votedID := tallyVotes(a.votes)
	result := applyElimination(a.room, votedID, a.outsiderIDs)

	if err := a.store.SaveRoom(a.ctx, a.room); err != nil {
		logf(a.cfg, "ROOMS: saving %q after vote: %v", a.roomName, err)
	}

	a.publish(eventVotingComplete, result)
}

// onVotingComplete updates only this actor's own participant view; the
// durable record was already settled by the captain.
func (a *actor) onVotingComplete(ev *Event) {
	payload := voteResult{}
	if err := json.Unmarshal(ev.Data, &payload); err != nil {
		return
	}

	if a.user != nil && payload.PlayerOut != nil {
		if payload.PlayerOut.ID == a.user.ID {
			a.user.State = StateOut
			a.user.Captain = false
		} else if payload.NextCaptain != nil && payload.NextCaptain.ID == a.user.ID {
			a.user.Captain = true
		}
	}

	a.deliver(VotingCompleteMessage{
		MessageType:     eventVotingComplete,
		User:            a.user,
		PlayerOut:       payload.PlayerOut,
		ContinuePlaying: payload.ContinuePlaying,
		NumberOutsiders: payload.NumberOutsiders,
		ActualUsers:     payload.ActualUsers,
	})
}

func (a *actor) onLastChance(ev *Event) {
	payload := lastChancePayload{}
	if err := json.Unmarshal(ev.Data, &payload); err != nil {
		return
	}

	a.deliver(LastChanceMessage{
		MessageType:     "lastChanceGuess",
		LastChanceGuess: payload.LastChanceGuess,
	})
}

func (a *actor) onChat(ev *Event) {
	payload := chatPayload{}
	if err := json.Unmarshal(ev.Data, &payload); err != nil {
		return
	}

	a.deliver(ChatMessage{
		MessageType: eventDefault,
		Message:     payload.Message,
		Username:    payload.Username,
	})
}

// qrHandler generates a PNG QR code for the current room URL, for passing
// a session around a table.
func qrHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if ps.ByName("name") == "" {
		http.Error(w, "missing room name", http.StatusBadRequest)
		return
	}

	// Derive scheme (respecting TLS and X-Forwarded-Proto if present).
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}

	// We are at /room/:name/qr; strip trailing "/qr" to get the room URL.
	path := strings.TrimSuffix(r.URL.Path, "/qr")

	url := scheme + "://" + r.Host + path

	const qrSize = 320 // mobile-friendly size
	png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
	if err != nil {
		http.Error(w, "qr generation failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(png)
}

// registerRoomRoutes wires the realtime endpoints:
//   - /room/:name/ws → per-room websocket
//   - /room/:name/qr → PNG QR code for sharing the room
func registerRoomRoutes(cfg *Config, store Store, broker Broker, mux *httprouter.Router) {
	mux.GET(cfg.prefix+"/room/:name/ws", serveRoomWS(cfg, store, broker))
	mux.GET(cfg.prefix+"/room/:name/qr", qrHandler)
}
