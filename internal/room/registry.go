package room

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/bsyilmaz/backend-simplemeet/pkg/metrics"
)

var (
	ErrInvalidPassword = errors.New("invalid password")
	ErrRoomFull        = errors.New("room is full")
	ErrAlreadyJoined   = errors.New("already in a room")
	ErrMissingField    = errors.New("room id, connection id and username are required")
)

// Participant is one connection's membership record within a room
type Participant struct {
	ID       string // connection id, also the media stream id
	Username string
}

// Info is a read-only room summary for the diagnostics endpoint
type Info struct {
	RoomID      string
	UserCount   int
	HasPassword bool
}

// state is the mutable per-room record. All fields are guarded by mu.
// gone marks a room the sweeper has unlinked; a join racing the sweep
// sees it and retries against a fresh room instead of reviving this one.
type state struct {
	mu         sync.Mutex
	password   string
	users      map[string]Participant
	order      []string // connection ids in join order
	lastActive time.Time
	gone       bool
}

// Registry owns the room map. Rooms are created lazily on first join and
// deleted only by SweepIdle. The map itself is guarded by mu; membership
// mutations serialize on the per-room lock so different rooms don't
// contend with each other.
type Registry struct {
	log      *slog.Logger
	capacity int

	mu    sync.RWMutex
	rooms map[string]*state
}

// NewRegistry creates an empty registry with the given per-room capacity
func NewRegistry(capacity int, logger *slog.Logger) *Registry {
	if capacity <= 0 {
		capacity = 10
	}
	return &Registry{
		log:      logger,
		capacity: capacity,
		rooms:    map[string]*state{},
	}
}

// Join adds a connection to a room, creating the room on first join.
// The first joiner's password becomes the room's secret for its whole
// lifetime; later joins only check it. Password is checked before
// capacity. On success it returns the other participants in join order,
// as they were at the instant of insertion.
func (r *Registry) Join(roomID, connID, username, password string) ([]Participant, error) {
	if roomID == "" || connID == "" || username == "" {
		return nil, ErrMissingField
	}

	for {
		r.mu.Lock()
		st := r.rooms[roomID]
		if st == nil {
			st = &state{
				password:   password,
				users:      map[string]Participant{},
				lastActive: time.Now(),
			}
			r.rooms[roomID] = st
			metrics.ActiveRooms.Inc()
			r.log.Info("room.created", "room", roomID, "protected", password != "")
		}
		r.mu.Unlock()

		st.mu.Lock()
		if st.gone {
			// Lost a race with the sweeper; the map entry is fresh or absent now
			st.mu.Unlock()
			continue
		}
		if st.password != "" && st.password != password {
			st.mu.Unlock()
			metrics.JoinRejections.WithLabelValues("invalid_password").Inc()
			return nil, ErrInvalidPassword
		}
		if len(st.users) >= r.capacity {
			st.mu.Unlock()
			metrics.JoinRejections.WithLabelValues("room_full").Inc()
			return nil, ErrRoomFull
		}
		if _, ok := st.users[connID]; ok {
			st.mu.Unlock()
			return nil, ErrAlreadyJoined
		}

		others := make([]Participant, 0, len(st.order))
		for _, id := range st.order {
			others = append(others, st.users[id])
		}
		st.users[connID] = Participant{ID: connID, Username: username}
		st.order = append(st.order, connID)
		st.lastActive = time.Now()
		st.mu.Unlock()

		metrics.JoinsTotal.Inc()
		return others, nil
	}
}

// Leave removes a connection from a room. Returns the departed username
// and whether the participant was actually there; leaving twice or
// leaving a room that never existed is a normal no-op.
func (r *Registry) Leave(roomID, connID string) (string, bool) {
	r.mu.RLock()
	st := r.rooms[roomID]
	r.mu.RUnlock()
	if st == nil {
		return "", false
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	if st.gone {
		return "", false
	}
	p, ok := st.users[connID]
	if !ok {
		return "", false
	}
	delete(st.users, connID)
	for i, id := range st.order {
		if id == connID {
			st.order = append(st.order[:i], st.order[i+1:]...)
			break
		}
	}
	st.lastActive = time.Now()
	return p.Username, true
}

// Members returns the participants of a room in join order, excluding
// the given connection id. Used to fan out events; always a fresh
// snapshot, never cached by callers.
func (r *Registry) Members(roomID, exclude string) []Participant {
	r.mu.RLock()
	st := r.rooms[roomID]
	r.mu.RUnlock()
	if st == nil {
		return nil
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	out := make([]Participant, 0, len(st.order))
	for _, id := range st.order {
		if id != exclude {
			out = append(out, st.users[id])
		}
	}
	return out
}

// List returns a snapshot of all rooms for diagnostics
func (r *Registry) List() []Info {
	r.mu.RLock()
	type entry struct {
		id string
		st *state
	}
	entries := make([]entry, 0, len(r.rooms))
	for id, st := range r.rooms {
		entries = append(entries, entry{id, st})
	}
	r.mu.RUnlock()

	out := make([]Info, 0, len(entries))
	for _, e := range entries {
		e.st.mu.Lock()
		if !e.st.gone {
			out = append(out, Info{
				RoomID:      e.id,
				UserCount:   len(e.st.users),
				HasPassword: e.st.password != "",
			})
		}
		e.st.mu.Unlock()
	}
	return out
}

// SweepIdle deletes every room that is empty and has been inactive
// longer than threshold. The empty+idle check and the unlink happen
// under both locks, so a join that lands mid-sweep either shows up as
// a user here or retries via the gone flag. Returns how many rooms
// were deleted.
func (r *Registry) SweepIdle(now time.Time, threshold time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for id, st := range r.rooms {
		st.mu.Lock()
		if len(st.users) == 0 && now.Sub(st.lastActive) > threshold {
			st.gone = true
			delete(r.rooms, id)
			n++
			r.log.Info("room.swept", "room", id, "idle", now.Sub(st.lastActive).String())
		}
		st.mu.Unlock()
	}
	if n > 0 {
		metrics.ActiveRooms.Sub(float64(n))
		metrics.RoomsSwept.Add(float64(n))
	}
	return n
}
