package ws

import (
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/bsyilmaz/backend-simplemeet/internal/room"
)

// sender is the outbound half of a connection. The real implementation
// is *Conn; tests substitute a capture.
type sender interface {
	Send(b []byte) bool
}

// Session mediates between one connection and the room registry. It
// holds at most one current room id, only ever touched from the
// connection's read loop, so no lock is needed.
type Session struct {
	hub  *Hub
	conn sender
	id   string
	log  *slog.Logger

	currentRoom string
}

func newSession(hub *Hub, conn sender, connID string) *Session {
	return &Session{
		hub:  hub,
		conn: conn,
		id:   connID,
		log:  hub.log.With("conn", connID),
	}
}

// ID returns the transport-assigned connection id
func (s *Session) ID() string { return s.id }

// dispatch routes one inbound frame. Malformed frames are ignored;
// nothing a client sends may take the process down.
func (s *Session) dispatch(payload []byte) {
	var env Envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		s.log.Debug("ws.frame.malformed", "err", err)
		return
	}

	switch env.Event {
	case EventJoinRoom:
		var d joinRoomData
		if err := json.Unmarshal(env.Data, &d); err != nil {
			s.log.Debug("ws.join.malformed", "err", err)
			return
		}
		s.handleJoin(d)
	case EventSendSignal:
		var d sendSignalData
		if err := json.Unmarshal(env.Data, &d); err != nil {
			s.log.Debug("ws.signal.malformed", "err", err)
			return
		}
		s.handleSignal(d)
	case EventScreenShareStarted:
		s.relayToRoom(EventUserScreenShareStarted)
	case EventScreenShareStopped:
		s.relayToRoom(EventUserScreenShareStopped)
	default:
		s.log.Debug("ws.frame.unknown", "event", env.Event)
	}
}

// handleJoin runs the membership protocol for one join request. Errors
// go back to this connection only; success fans out to the room.
func (s *Session) handleJoin(d joinRoomData) {
	if s.currentRoom != "" {
		// Rejoining without leaving used to silently leak the old
		// membership; now it is an explicit rejection.
		s.joinError("Already in a room")
		return
	}

	others, err := s.hub.reg.Join(d.RoomID, s.id, d.Username, d.Password)
	if err != nil {
		switch {
		case errors.Is(err, room.ErrInvalidPassword):
			s.joinError("Invalid password")
		case errors.Is(err, room.ErrRoomFull):
			s.joinError("Room is full (max 10 users)")
		case errors.Is(err, room.ErrAlreadyJoined):
			s.joinError("Already in a room")
		default:
			s.joinError("Room id and username are required")
		}
		return
	}

	s.currentRoom = d.RoomID
	users := make([]RoomUser, 0, len(others))
	for _, p := range others {
		users = append(users, RoomUser{ID: p.ID, Username: p.Username, StreamID: p.ID})
	}
	s.conn.Send(encode(EventRoomJoined, roomJoinedData{RoomID: d.RoomID, Users: users}))

	s.hub.broadcastToRoom(d.RoomID, s.id,
		encode(EventUserJoined, RoomUser{ID: s.id, Username: d.Username, StreamID: s.id}))
	s.log.Info("ws.join", "room", d.RoomID, "username", d.Username, "peers", len(users))
}

// handleSignal forwards an opaque payload to one target connection.
// No room or membership check: signaling is allowed between any two
// known connection ids, and a vanished target is a silent drop.
func (s *Session) handleSignal(d sendSignalData) {
	if d.To == "" {
		return
	}
	s.hub.sendTo(d.To, encode(EventUserSignal, userSignalData{From: s.id, Signal: d.Signal}))
}

// relayToRoom notifies the rest of the room about a screen share state
// change; dropped silently when not in a room
func (s *Session) relayToRoom(event string) {
	if s.currentRoom == "" {
		return
	}
	s.hub.broadcastToRoom(s.currentRoom, s.id, encode(event, userRefData{ID: s.id}))
}

// disconnect leaves the current room (if any) and tells the others.
// Runs synchronously as part of connection teardown; safe to call when
// the session never joined anything.
func (s *Session) disconnect() {
	if s.currentRoom == "" {
		return
	}
	roomID := s.currentRoom
	s.currentRoom = ""

	username, ok := s.hub.reg.Leave(roomID, s.id)
	if !ok {
		return
	}
	s.hub.broadcastToRoom(roomID, s.id, encode(EventUserLeft, userRefData{ID: s.id}))
	s.log.Info("ws.leave", "room", roomID, "username", username)
}

func (s *Session) joinError(msg string) {
	s.conn.Send(encode(EventRoomJoinError, joinErrorData{Message: msg}))
}
