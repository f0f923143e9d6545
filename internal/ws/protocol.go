package ws

import "encoding/json"

// Events mirror the socket-style protocol the frontend speaks: a JSON
// envelope {"event": ..., "data": ...} per text frame.
const (
	// inbound
	EventJoinRoom           = "join-room"
	EventSendSignal         = "send-signal"
	EventScreenShareStarted = "screen-share-started"
	EventScreenShareStopped = "screen-share-stopped"

	// outbound
	EventRoomJoined             = "room-joined"
	EventRoomJoinError          = "room-join-error"
	EventUserJoined             = "user-joined"
	EventUserSignal             = "user-signal"
	EventUserLeft               = "user-left"
	EventUserScreenShareStarted = "user-screen-share-started"
	EventUserScreenShareStopped = "user-screen-share-stopped"
)

type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type joinRoomData struct {
	RoomID   string `json:"roomId"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// RoomUser is a participant as seen on the wire. StreamID always equals
// the connection id; no separate media stream identifier is modeled.
type RoomUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	StreamID string `json:"streamId"`
}

type roomJoinedData struct {
	RoomID string     `json:"roomId"`
	Users  []RoomUser `json:"users"`
}

type joinErrorData struct {
	Message string `json:"message"`
}

type sendSignalData struct {
	To     string          `json:"to"`
	Signal json.RawMessage `json:"signal"`
}

type userSignalData struct {
	From   string          `json:"from"`
	Signal json.RawMessage `json:"signal"`
}

// userRefData carries just a connection id (user-left, screen share)
type userRefData struct {
	ID string `json:"id"`
}

// encode marshals an outbound frame. Payloads are our own structs, so
// a marshal error here is a programming bug; callers treat nil as drop.
func encode(event string, data any) []byte {
	b, err := json.Marshal(Envelope{Event: event, Data: mustRaw(data)})
	if err != nil {
		return nil
	}
	return b
}

func mustRaw(data any) json.RawMessage {
	if data == nil {
		return nil
	}
	b, err := json.Marshal(data)
	if err != nil {
		return nil
	}
	return b
}
