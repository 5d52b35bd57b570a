package roomsync

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"RoomBoard/internal/protocol"
)

// FetchHistory loads the stored shapes of a room in append order. Entries
// whose payload does not decode are skipped.
func FetchHistory(ctx context.Context, baseURL, token, roomID string) ([]Inbound, error) {
	endpoint := strings.TrimRight(baseURL, "/") + "/room/get-chats/" + url.PathEscape(roomID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("building history request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching history of room %s: %w", roomID, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized:
		return nil, fmt.Errorf("fetching history of room %s: %w", roomID, ErrUnauthorized)
	default:
		return nil, fmt.Errorf("fetching history of room %s: %s", roomID, resp.Status)
	}

	var chats []struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&chats); err != nil {
		return nil, fmt.Errorf("decoding history of room %s: %w", roomID, err)
	}

	out := make([]Inbound, 0, len(chats))
	for i, c := range chats {
		id, s, err := protocol.DecodeShape(c.Message)
		if err != nil {
			slog.Warn("skipping history entry", "room_id", roomID, "index", i, "error", err)
			continue
		}
		out = append(out, Inbound{RoomID: roomID, ID: id, Shape: s})
	}
	slog.Debug("history loaded", "room_id", roomID, "shapes", len(out), "skipped", len(chats)-len(out))
	return out, nil
}
