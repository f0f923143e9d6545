package httpx

import (
	"encoding/json"
	"net/http"

	"github.com/bsyilmaz/backend-simplemeet/internal/room"
)

type RoomsAPI struct{ Registry *room.Registry }

type statusResponse struct {
	Status string `json:"status"`
}

type roomSummary struct {
	RoomID      string `json:"roomId"`
	UserCount   int    `json:"userCount"`
	HasPassword bool   `json:"hasPassword"`
}

type roomsResponse struct {
	Rooms []roomSummary `json:"rooms"`
}

// Status is the health check at the root path
func (a *RoomsAPI) Status(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, statusResponse{Status: "SimpleMeet signaling server is running"})
}

// Rooms lists active rooms for debugging
func (a *RoomsAPI) Rooms(w http.ResponseWriter, _ *http.Request) {
	infos := a.Registry.List()
	resp := roomsResponse{Rooms: make([]roomSummary, 0, len(infos))}
	for _, in := range infos {
		resp.Rooms = append(resp.Rooms, roomSummary{
			RoomID:      in.RoomID,
			UserCount:   in.UserCount,
			HasPassword: in.HasPassword,
		})
	}
	writeJSON(w, resp)
}

// send JSON with proper headers
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
