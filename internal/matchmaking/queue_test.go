package matchmaking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/gridclash/gridclash-server/internal/game"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestEnqueueFirstPlayerWaits(t *testing.T) {
	q := NewQueue(func(ctx context.Context, a, b Ticket) (string, error) {
		t.Fatal("starter must not run with one player")
		return "", nil
	}, zaptest.NewLogger(t))

	res, err := q.Enqueue(context.Background(), "alice", "deck-a")
	require.NoError(t, err)
	require.False(t, res.Matched)
	require.Equal(t, 1, res.Position)
	require.Equal(t, 1, q.Len())
}

func TestEnqueueSecondPlayerStartsGame(t *testing.T) {
	var gotA, gotB Ticket
	q := NewQueue(func(ctx context.Context, a, b Ticket) (string, error) {
		gotA, gotB = a, b
		return "game-1", nil
	}, zaptest.NewLogger(t))

	_, err := q.Enqueue(context.Background(), "alice", "deck-a")
	require.NoError(t, err)

	res, err := q.Enqueue(context.Background(), "bob", "deck-b")
	require.NoError(t, err)
	require.True(t, res.Matched)
	require.Equal(t, "game-1", res.GameID)

	require.Equal(t, "alice", gotA.UserID)
	require.Equal(t, "deck-a", gotA.DeckID)
	require.Equal(t, "bob", gotB.UserID)
	require.Equal(t, 0, q.Len())
}

func TestEnqueueRejectsDuplicateUser(t *testing.T) {
	q := NewQueue(nil, zaptest.NewLogger(t))

	_, err := q.Enqueue(context.Background(), "alice", "deck-a")
	require.NoError(t, err)

	_, err = q.Enqueue(context.Background(), "alice", "deck-a")
	require.ErrorIs(t, err, game.ErrValidation)
	require.Equal(t, 1, q.Len())
}

func TestEnqueueRejectsBlankFields(t *testing.T) {
	q := NewQueue(nil, zaptest.NewLogger(t))

	_, err := q.Enqueue(context.Background(), "", "deck-a")
	require.ErrorIs(t, err, game.ErrValidation)

	_, err = q.Enqueue(context.Background(), "alice", "")
	require.ErrorIs(t, err, game.ErrValidation)
}

func TestFailedStartRequeuesOpponent(t *testing.T) {
	boom := errors.New("deck lookup failed")
	q := NewQueue(func(ctx context.Context, a, b Ticket) (string, error) {
		return "", boom
	}, zaptest.NewLogger(t))

	_, err := q.Enqueue(context.Background(), "alice", "deck-a")
	require.NoError(t, err)

	_, err = q.Enqueue(context.Background(), "bob", "deck-b")
	require.ErrorIs(t, err, boom)

	// alice keeps her place at the head of the queue.
	waiting := q.Waiting()
	require.Len(t, waiting, 1)
	require.Equal(t, "alice", waiting[0].UserID)
}

func TestLeaveRemovesWaitingPlayer(t *testing.T) {
	q := NewQueue(nil, zaptest.NewLogger(t))

	_, err := q.Enqueue(context.Background(), "alice", "deck-a")
	require.NoError(t, err)

	require.True(t, q.Leave("alice"))
	require.False(t, q.Leave("alice"))
	require.Equal(t, 0, q.Len())
}

func TestConcurrentEnqueuesPairEveryoneOnce(t *testing.T) {
	const players = 20

	var started int64
	seen := make(map[string]int)
	var seenMu sync.Mutex

	q := NewQueue(func(ctx context.Context, a, b Ticket) (string, error) {
		id := atomic.AddInt64(&started, 1)
		seenMu.Lock()
		seen[a.UserID]++
		seen[b.UserID]++
		seenMu.Unlock()
		return fmt.Sprintf("game-%d", id), nil
	}, zaptest.NewLogger(t))

	var wg sync.WaitGroup
	for i := 0; i < players; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			user := fmt.Sprintf("user-%d", i)
			_, err := q.Enqueue(context.Background(), user, "deck-"+user)
			require.NoError(t, err)
		}(i)
	}
	wg.Wait()

	require.Equal(t, int64(players/2), started)
	require.Equal(t, 0, q.Len())

	seenMu.Lock()
	defer seenMu.Unlock()
	require.Len(t, seen, players)
	for user, n := range seen {
		require.Equalf(t, 1, n, "user %s paired %d times", user, n)
	}
}
