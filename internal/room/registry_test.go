package room

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRegistry() *Registry {
	return NewRegistry(10, testLogger())
}

func TestJoinCreatesRoomOnFirstJoin(t *testing.T) {
	reg := newTestRegistry()

	others, err := reg.Join("abc", "conn-a", "alice", "")
	require.NoError(t, err)
	assert.Empty(t, others, "first joiner sees no existing users")

	infos := reg.List()
	require.Len(t, infos, 1)
	assert.Equal(t, "abc", infos[0].RoomID)
	assert.Equal(t, 1, infos[0].UserCount)
	assert.False(t, infos[0].HasPassword)
}

func TestFirstJoinerSetsPassword(t *testing.T) {
	reg := newTestRegistry()

	_, err := reg.Join("abc", "conn-a", "alice", "x")
	require.NoError(t, err)

	// Wrong password is rejected and mutates nothing
	_, err = reg.Join("abc", "conn-b", "bob", "y")
	assert.ErrorIs(t, err, ErrInvalidPassword)
	assert.Equal(t, 1, reg.List()[0].UserCount)

	// A later joiner's password is only checked, never adopted
	others, err := reg.Join("abc", "conn-b", "bob", "x")
	require.NoError(t, err)
	require.Len(t, others, 1)
	assert.Equal(t, "alice", others[0].Username)
	assert.True(t, reg.List()[0].HasPassword)
}

func TestOpenRoomIgnoresSuppliedPassword(t *testing.T) {
	reg := newTestRegistry()

	_, err := reg.Join("open", "conn-a", "alice", "")
	require.NoError(t, err)

	// Empty room password means no password required at all
	_, err = reg.Join("open", "conn-b", "bob", "whatever")
	assert.NoError(t, err)
}

func TestJoinRoomFull(t *testing.T) {
	reg := newTestRegistry()

	for i := 0; i < 10; i++ {
		_, err := reg.Join("abc", fmt.Sprintf("conn-%d", i), fmt.Sprintf("user-%d", i), "x")
		require.NoError(t, err)
	}

	_, err := reg.Join("abc", "conn-late", "late", "x")
	assert.ErrorIs(t, err, ErrRoomFull)
	assert.Equal(t, 10, reg.List()[0].UserCount)
}

func TestPasswordCheckedBeforeCapacity(t *testing.T) {
	reg := newTestRegistry()

	for i := 0; i < 10; i++ {
		_, err := reg.Join("abc", fmt.Sprintf("conn-%d", i), fmt.Sprintf("user-%d", i), "x")
		require.NoError(t, err)
	}

	// Both conditions fail; password rejection wins
	_, err := reg.Join("abc", "conn-late", "late", "wrong")
	assert.ErrorIs(t, err, ErrInvalidPassword)
}

func TestSnapshotIsJoinOrderedAndExcludesJoiner(t *testing.T) {
	reg := newTestRegistry()

	_, err := reg.Join("abc", "conn-a", "alice", "")
	require.NoError(t, err)
	_, err = reg.Join("abc", "conn-b", "bob", "")
	require.NoError(t, err)

	others, err := reg.Join("abc", "conn-c", "carol", "")
	require.NoError(t, err)
	require.Len(t, others, 2)
	assert.Equal(t, "conn-a", others[0].ID)
	assert.Equal(t, "conn-b", others[1].ID)
	for _, p := range others {
		assert.NotEqual(t, "conn-c", p.ID)
	}
}

func TestRejoinSameConnection(t *testing.T) {
	reg := newTestRegistry()

	_, err := reg.Join("abc", "conn-a", "alice", "")
	require.NoError(t, err)
	_, err = reg.Join("abc", "conn-a", "alice", "")
	assert.ErrorIs(t, err, ErrAlreadyJoined)
	assert.Equal(t, 1, reg.List()[0].UserCount)
}

func TestJoinMissingFields(t *testing.T) {
	reg := newTestRegistry()

	_, err := reg.Join("", "conn-a", "alice", "")
	assert.ErrorIs(t, err, ErrMissingField)
	_, err = reg.Join("abc", "", "alice", "")
	assert.ErrorIs(t, err, ErrMissingField)
	_, err = reg.Join("abc", "conn-a", "", "")
	assert.ErrorIs(t, err, ErrMissingField)
	assert.Empty(t, reg.List())
}

func TestLeaveIsIdempotent(t *testing.T) {
	reg := newTestRegistry()

	_, err := reg.Join("abc", "conn-a", "alice", "")
	require.NoError(t, err)

	username, ok := reg.Leave("abc", "conn-a")
	assert.True(t, ok)
	assert.Equal(t, "alice", username)

	// Second leave is a no-op, not an error
	_, ok = reg.Leave("abc", "conn-a")
	assert.False(t, ok)

	// Leaving a room that never existed is also fine
	_, ok = reg.Leave("nope", "conn-a")
	assert.False(t, ok)
}

func TestMembersExcludes(t *testing.T) {
	reg := newTestRegistry()

	_, _ = reg.Join("abc", "conn-a", "alice", "")
	_, _ = reg.Join("abc", "conn-b", "bob", "")

	members := reg.Members("abc", "conn-a")
	require.Len(t, members, 1)
	assert.Equal(t, "conn-b", members[0].ID)

	assert.Nil(t, reg.Members("nope", ""))
}

func TestSweepIdleDeletesOnlyEmptyIdleRooms(t *testing.T) {
	reg := newTestRegistry()

	// empty + idle
	_, _ = reg.Join("idle", "conn-a", "alice", "")
	_, _ = reg.Leave("idle", "conn-a")

	// empty but recent is covered by the same room before the idle window

	// occupied, regardless of age
	_, _ = reg.Join("busy", "conn-b", "bob", "")

	threshold := 5 * time.Minute

	// Not yet idle long enough
	n := reg.SweepIdle(time.Now(), threshold)
	assert.Equal(t, 0, n)
	assert.Len(t, reg.List(), 2)

	// Well past the threshold: only the empty room goes
	n = reg.SweepIdle(time.Now().Add(10*time.Minute), threshold)
	assert.Equal(t, 1, n)
	infos := reg.List()
	require.Len(t, infos, 1)
	assert.Equal(t, "busy", infos[0].RoomID)
}

func TestJoinAfterSweepRecreatesRoom(t *testing.T) {
	reg := newTestRegistry()

	_, _ = reg.Join("abc", "conn-a", "alice", "x")
	_, _ = reg.Leave("abc", "conn-a")
	n := reg.SweepIdle(time.Now().Add(10*time.Minute), 5*time.Minute)
	require.Equal(t, 1, n)

	// The old password died with the room
	others, err := reg.Join("abc", "conn-b", "bob", "")
	require.NoError(t, err)
	assert.Empty(t, others)
	assert.False(t, reg.List()[0].HasPassword)
}

func TestConcurrentJoinsRespectCapacity(t *testing.T) {
	reg := newTestRegistry()

	const attempts = 50
	var wg sync.WaitGroup
	errs := make(chan error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := reg.Join("packed", fmt.Sprintf("conn-%d", i), fmt.Sprintf("user-%d", i), "")
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	succeeded, full := 0, 0
	for err := range errs {
		switch {
		case err == nil:
			succeeded++
		default:
			require.ErrorIs(t, err, ErrRoomFull)
			full++
		}
	}
	assert.Equal(t, 10, succeeded)
	assert.Equal(t, attempts-10, full)
	assert.Equal(t, 10, reg.List()[0].UserCount)
}

func TestJoinRacingSweep(t *testing.T) {
	reg := newTestRegistry()

	done := make(chan struct{})
	go func() {
		defer close(done)
		// Aggressive sweeper: everything empty is instantly idle
		for i := 0; i < 500; i++ {
			reg.SweepIdle(time.Now().Add(time.Hour), 0)
		}
	}()

	for i := 0; i < 500; i++ {
		_, err := reg.Join("contested", "conn-a", "alice", "")
		require.NoError(t, err, "a join must never land in a swept room")
		_, ok := reg.Leave("contested", "conn-a")
		require.True(t, ok)
	}
	<-done

	// Registry still usable and consistent afterwards
	_, err := reg.Join("contested", "conn-b", "bob", "")
	require.NoError(t, err)
	assert.Equal(t, 1, reg.List()[0].UserCount)
}

func TestListSnapshotStable(t *testing.T) {
	reg := newTestRegistry()

	_, _ = reg.Join("a", "c1", "u1", "")
	_, _ = reg.Join("b", "c2", "u2", "pw")

	infos := reg.List()
	require.Len(t, infos, 2)
	byID := map[string]Info{}
	for _, in := range infos {
		byID[in.RoomID] = in
	}
	assert.False(t, byID["a"].HasPassword)
	assert.True(t, byID["b"].HasPassword)
}
