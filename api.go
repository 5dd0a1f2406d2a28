/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/julienschmidt/httprouter"
)

// roomInfo is the REST view of a room: enough for a client to decide
// whether it can join, nothing about roles or words.
type roomInfo struct {
	Name    string `json:"name"`
	Started bool   `json:"started"`
}

func jsonResponse(cfg *Config, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	securityHeaders(cfg, w)
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		logf(cfg, "API: encoding response: %v", err)
	}
}

// serveCreateRoom claims a room name. Rooms are otherwise created lazily;
// clients create one here, then connect participants to its websocket.
func serveCreateRoom(cfg *Config, store Store) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		var req struct {
			Name string `json:"name"`
		}

		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
			http.Error(w, "a room name is needed", http.StatusBadRequest)
			return
		}

		room, err := store.CreateRoom(r.Context(), req.Name)
		if errors.Is(err, ErrRoomExists) {
			http.Error(w, "room name already taken", http.StatusConflict)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		logf(cfg, "API: Created room %q for %s", req.Name, realIP(r))

		jsonResponse(cfg, w, http.StatusOK, roomInfo{Name: room.Name, Started: room.Started})
	}
}

func serveRoom(cfg *Config, store Store) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		room, err := store.Room(r.Context(), ps.ByName("name"))
		if errors.Is(err, ErrRoomNotFound) {
			http.Error(w, "room not found", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		jsonResponse(cfg, w, http.StatusOK, roomInfo{Name: room.Name, Started: room.Started})
	}
}

func serveDeleteRoom(cfg *Config, store Store) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		if err := store.DeleteRoom(r.Context(), ps.ByName("name")); err != nil &&
			!errors.Is(err, ErrRoomNotFound) {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		logf(cfg, "API: Deleted room %q for %s", ps.ByName("name"), realIP(r))

		w.WriteHeader(http.StatusNoContent)
	}
}

func serveWordList(cfg *Config, store Store) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		list, err := store.WordList(r.Context(), ps.ByName("name"))
		if errors.Is(err, ErrWordListNotFound) {
			http.Error(w, "word list not found", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		jsonResponse(cfg, w, http.StatusOK, list)
	}
}

func registerAPIRoutes(cfg *Config, store Store, mux *httprouter.Router) {
	mux.POST(cfg.prefix+"/api/rooms", serveCreateRoom(cfg, store))
	mux.GET(cfg.prefix+"/api/rooms/:name", serveRoom(cfg, store))
	mux.DELETE(cfg.prefix+"/api/rooms/:name", serveDeleteRoom(cfg, store))
	mux.GET(cfg.prefix+"/api/word_lists/:name", serveWordList(cfg, store))
}
