package ws

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/google/uuid"

	"github.com/bsyilmaz/backend-simplemeet/internal/room"
	"github.com/bsyilmaz/backend-simplemeet/pkg/metrics"
)

// Hub is the connection directory: one Session per live websocket,
// keyed by connection id. Room membership itself lives in the registry;
// the hub only resolves ids to sessions when fanning out.
type Hub struct {
	log *slog.Logger
	reg *room.Registry

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewHub sets up the hub around the room registry
func NewHub(logger *slog.Logger, reg *room.Registry) *Hub {
	return &Hub{log: logger, reg: reg, sessions: map[string]*Session{}}
}

// ServeWS handles a new signaling connection for its whole lifetime
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	wsc, err := Accept(w, r)
	if err != nil {
		h.log.Error("ws.accept", "err", err)
		return
	}

	connID := uuid.NewString()
	conn := NewConn(wsc)
	sess := newSession(h, conn, connID)
	h.register(sess)
	metrics.ActiveConnections.Inc()
	h.log.Info("ws.connect", "conn", connID)

	// Outbound writer
	go conn.WriteLoop(ctx)

	// Inbound reader; every frame goes through the session dispatcher
	for {
		payload, ok := conn.Read(ctx)
		if !ok {
			break
		}
		sess.dispatch(payload)
	}

	// Teardown is synchronous: leave the room, tell the others, then
	// drop the directory entry so signals to this id become no-ops
	sess.disconnect()
	h.unregister(connID)
	metrics.ActiveConnections.Dec()
	_ = conn.Close()
	h.log.Info("ws.disconnect", "conn", connID)
}

func (h *Hub) register(s *Session) {
	h.mu.Lock()
	h.sessions[s.id] = s
	h.mu.Unlock()
}

func (h *Hub) unregister(connID string) {
	h.mu.Lock()
	delete(h.sessions, connID)
	h.mu.Unlock()
}

// sendTo delivers a frame to one connection id; unknown targets are a
// silent drop (fire-and-forget, disconnect races are normal here)
func (h *Hub) sendTo(connID string, frame []byte) {
	h.mu.RLock()
	s := h.sessions[connID]
	h.mu.RUnlock()
	if s == nil || frame == nil {
		return
	}
	s.conn.Send(frame)
	metrics.SignalsRelayed.Inc()
}

// broadcastToRoom fans a frame out to everyone in a room except one
// connection. Membership is read from the registry at call time, never
// cached.
func (h *Hub) broadcastToRoom(roomID, exclude string, frame []byte) {
	if frame == nil {
		return
	}
	members := h.reg.Members(roomID, exclude)
	if len(members) == 0 {
		return
	}

	h.mu.RLock()
	targets := make([]*Session, 0, len(members))
	for _, p := range members {
		if s := h.sessions[p.ID]; s != nil {
			targets = append(targets, s)
		}
	}
	h.mu.RUnlock()

	for _, s := range targets {
		s.conn.Send(frame)
	}
}
