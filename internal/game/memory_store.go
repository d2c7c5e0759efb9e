package game

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// MemoryStore is an in-memory SnapshotStore. It backs tests and database-less
// deployments, and enforces the same version compare-and-set contract as the
// Postgres store.
type MemoryStore struct {
	logger *zap.Logger

	mu    sync.RWMutex
	games map[string]*storedGame
}

type storedGame struct {
	Mode      string
	Players   []string
	Snapshot  []byte
	Version   int64
	Winner    string
	Completed bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(logger *zap.Logger) *MemoryStore {
	return &MemoryStore{
		logger: logger,
		games:  make(map[string]*storedGame),
	}
}

// CreateGame registers a new game row with its initial snapshot.
func (m *MemoryStore) CreateGame(_ context.Context, sess *Session, snapshot []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.games[sess.ID]; exists {
		return fmt.Errorf("%w: game %s already exists", ErrConflict, sess.ID)
	}

	m.games[sess.ID] = &storedGame{
		Mode:     string(sess.Mode),
		Players:  sess.Players(),
		Snapshot: append([]byte(nil), snapshot...),
		Version:  sess.Version(),
	}

	if m.logger != nil {
		m.logger.Debug("memory store created game",
			zap.String("game_id", sess.ID),
			zap.Int64("version", sess.Version()),
		)
	}
	return nil
}

// SaveSnapshot stores the snapshot if version advances past the stored one.
// A stale version fails with ErrConflict, matching the SQL compare-and-set.
func (m *MemoryStore) SaveSnapshot(_ context.Context, gameID string, snapshot []byte, version int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.games[gameID]
	if !ok {
		return fmt.Errorf("%w: game %s", ErrNotFound, gameID)
	}
	if version <= stored.Version {
		return fmt.Errorf("%w: version %d not newer than stored %d", ErrConflict, version, stored.Version)
	}

	stored.Snapshot = append([]byte(nil), snapshot...)
	stored.Version = version
	return nil
}

// MarkCompleted records the terminal outcome.
func (m *MemoryStore) MarkCompleted(_ context.Context, gameID string, winner string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.games[gameID]
	if !ok {
		return fmt.Errorf("%w: game %s", ErrNotFound, gameID)
	}
	stored.Completed = true
	stored.Winner = winner
	return nil
}

// Load returns the stored snapshot and its version.
func (m *MemoryStore) Load(gameID string) ([]byte, int64, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stored, ok := m.games[gameID]
	if !ok {
		return nil, 0, false
	}
	return append([]byte(nil), stored.Snapshot...), stored.Version, true
}

// Completed reports whether the game has been marked completed and by whom.
func (m *MemoryStore) Completed(gameID string) (winner string, completed bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stored, ok := m.games[gameID]
	if !ok {
		return "", false
	}
	return stored.Winner, stored.Completed
}
