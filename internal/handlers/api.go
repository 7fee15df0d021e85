package handlers

import (
	"encoding/json"
	"net/http"
	"os"
	"strings"

	"github.com/wordrush/wordrush/internal/game"
)

// WithCORS allows the configured public frontend (or anyone, when none is
// configured) to call the JSON endpoints from a browser.
func WithCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := os.Getenv("PUBLIC_FRONTEND")
		if origin == "" {
			origin = "*"
		}
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ServerInfoHandler serves the public overview: connected client count
// and every public room.
func ServerInfoHandler(srv *game.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, srv.Info())
	}
}

// RoomAvailableHandler reports whether /api/room-available/{name} could
// accept a join right now.
func RoomAvailableHandler(srv *game.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		name := strings.TrimPrefix(r.URL.Path, "/api/room-available/")
		if !game.ValidateRoomName(name) {
			http.Error(w, "invalid room name", http.StatusBadRequest)
			return
		}
		writeJSON(w, srv.RoomAvailable(name))
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "failed to write response", http.StatusInternalServerError)
	}
}
