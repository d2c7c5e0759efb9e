package matchmaking

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gridclash/gridclash-server/internal/game"
	"go.uber.org/zap"
)

// Ticket is one player waiting for an opponent.
type Ticket struct {
	UserID     string
	DeckID     string
	EnqueuedAt time.Time
}

// MatchStarter creates a game for two paired tickets and returns its id.
type MatchStarter func(ctx context.Context, a, b Ticket) (string, error)

// Result tells an enqueueing player whether they were paired immediately.
type Result struct {
	Matched  bool
	GameID   string
	Position int
}

// Queue pairs players first-come first-served. Two waiting players produce
// exactly one game: pairing happens under the queue mutex, so concurrent
// enqueues cannot both claim the same opponent.
type Queue struct {
	logger  *zap.Logger
	starter MatchStarter

	mu      sync.Mutex
	waiting []*Ticket
	byUser  map[string]*Ticket
}

// NewQueue creates an empty queue that starts games through starter.
func NewQueue(starter MatchStarter, logger *zap.Logger) *Queue {
	return &Queue{
		logger:  logger,
		starter: starter,
		byUser:  make(map[string]*Ticket),
	}
}

// Enqueue adds a player to the queue. When an opponent is already waiting
// the pair is removed and a game is started before returning. A player
// cannot wait twice.
func (q *Queue) Enqueue(ctx context.Context, userID, deckID string) (Result, error) {
	if userID == "" || deckID == "" {
		return Result{}, fmt.Errorf("%w: user id and deck id are required", game.ErrValidation)
	}

	q.mu.Lock()
	if _, exists := q.byUser[userID]; exists {
		q.mu.Unlock()
		return Result{}, fmt.Errorf("%w: user %s is already queued", game.ErrValidation, userID)
	}

	ticket := &Ticket{UserID: userID, DeckID: deckID, EnqueuedAt: time.Now().UTC()}

	if len(q.waiting) == 0 {
		q.waiting = append(q.waiting, ticket)
		q.byUser[userID] = ticket
		position := len(q.waiting)
		q.mu.Unlock()

		if q.logger != nil {
			q.logger.Info("player queued",
				zap.String("user_id", userID),
				zap.String("deck_id", deckID),
				zap.Int("queue_depth", position),
			)
		}
		return Result{Position: position}, nil
	}

	opponent := q.waiting[0]
	q.waiting = q.waiting[1:]
	delete(q.byUser, opponent.UserID)
	q.mu.Unlock()

	gameID, err := q.starter(ctx, *opponent, *ticket)
	if err != nil {
		// The opponent did nothing wrong. Put them back at the head so
		// they keep their place.
		q.mu.Lock()
		if _, rejoined := q.byUser[opponent.UserID]; !rejoined {
			q.waiting = append([]*Ticket{opponent}, q.waiting...)
			q.byUser[opponent.UserID] = opponent
		}
		q.mu.Unlock()
		return Result{}, fmt.Errorf("start match: %w", err)
	}

	if q.logger != nil {
		q.logger.Info("players matched",
			zap.String("game_id", gameID),
			zap.String("player_a", opponent.UserID),
			zap.String("player_b", userID),
		)
	}
	return Result{Matched: true, GameID: gameID}, nil
}

// Leave removes a waiting player. Returns false if the player was not
// queued, which also covers the race where they were just matched.
func (q *Queue) Leave(userID string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, exists := q.byUser[userID]; !exists {
		return false
	}
	delete(q.byUser, userID)
	for i, t := range q.waiting {
		if t.UserID == userID {
			q.waiting = append(q.waiting[:i], q.waiting[i+1:]...)
			break
		}
	}
	return true
}

// Len returns the number of waiting players.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.waiting)
}

// Waiting returns a copy of the queue in order.
func (q *Queue) Waiting() []Ticket {
	q.mu.Lock()
	defer q.mu.Unlock()

	tickets := make([]Ticket, 0, len(q.waiting))
	for _, t := range q.waiting {
		tickets = append(tickets, *t)
	}
	return tickets
}
