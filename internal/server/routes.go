package server

import (
	"log/slog"
	"net/http"
	"strings"
)

// Handler returns the HTTP routes of the server.
func (s *Server) Handler() *http.ServeMux {
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		rooms, conns := s.rooms.Count()
		JSONResponse(w, http.StatusOK, map[string]any{
			"status":      "ok",
			"rooms":       rooms,
			"connections": conns,
		})
	})

	// Room history, replayed by clients when they join
	mux.HandleFunc("GET /room/get-chats/{roomId}", WithLogging(s.GetChats))

	// Websocket endpoint; "/" is kept for clients that dial the bare host
	mux.HandleFunc("GET /ws", WithLogging(s.ServeWS))
	mux.HandleFunc("GET /{$}", WithLogging(s.ServeWS))

	return mux
}

// GetChats lists the stored messages of a room in append order. The token
// comes from an Authorization bearer header or the token query parameter.
func (s *Server) GetChats(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if h := r.Header.Get("Authorization"); h != "" {
		token = strings.TrimSpace(strings.TrimPrefix(h, "Bearer"))
	}
	if _, err := s.auth.Verify(token); err != nil {
		ErrorResponse(w, http.StatusUnauthorized, "missing or invalid token")
		return
	}

	roomID := r.PathValue("roomId")
	chats, err := s.store.List(r.Context(), roomID)
	if err != nil {
		slog.Error("listing chats failed", "room_id", roomID, "error", err)
		ErrorResponse(w, http.StatusInternalServerError, "failed to load room history")
		return
	}
	JSONResponse(w, http.StatusOK, chats)
}
