package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gridclash/gridclash-server/internal/game"
	"github.com/jackc/pgx/v5"
)

// GameRepository persists game rows with their JSONB snapshots. It
// implements game.SnapshotStore; the version column carries the optimistic
// concurrency check.
type GameRepository struct {
	db *DB
}

// NewGameRepository creates the game repository.
func NewGameRepository(db *DB) *GameRepository {
	return &GameRepository{db: db}
}

// CreateGame inserts the game row with its initial snapshot.
func (r *GameRepository) CreateGame(ctx context.Context, sess *game.Session, snapshot []byte) error {
	players := sess.Players()
	if len(players) != 2 {
		return fmt.Errorf("%w: game %s has %d players", game.ErrValidation, sess.ID, len(players))
	}

	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO games (id, mode, player_a, player_b, status, snapshot, version, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		sess.ID, string(sess.Mode), players[0], players[1],
		string(sess.Status()), snapshot, sess.Version(), sess.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert game %s: %w", sess.ID, err)
	}
	return nil
}

// SaveSnapshot updates the snapshot iff the new version is strictly newer.
// A stale write affects zero rows and surfaces as ErrConflict.
func (r *GameRepository) SaveSnapshot(ctx context.Context, gameID string, snapshot []byte, version int64) error {
	tag, err := r.db.Pool.Exec(ctx, `
		UPDATE games SET snapshot = $2, version = $3, updated_at = $4
		WHERE id = $1 AND version < $3`,
		gameID, snapshot, version, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update game %s: %w", gameID, err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := r.db.Pool.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM games WHERE id = $1)`, gameID,
		).Scan(&exists); err != nil {
			return fmt.Errorf("check game %s: %w", gameID, err)
		}
		if !exists {
			return fmt.Errorf("%w: game %s", game.ErrNotFound, gameID)
		}
		return fmt.Errorf("%w: stale snapshot version %d for game %s", game.ErrConflict, version, gameID)
	}
	return nil
}

// MarkCompleted stamps the terminal outcome.
func (r *GameRepository) MarkCompleted(ctx context.Context, gameID string, winner string) error {
	var winnerCol *string
	if winner != "" {
		winnerCol = &winner
	}
	tag, err := r.db.Pool.Exec(ctx, `
		UPDATE games SET status = 'completed', winner = $2, completed_at = $3
		WHERE id = $1`,
		gameID, winnerCol, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("complete game %s: %w", gameID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: game %s", game.ErrNotFound, gameID)
	}
	return nil
}

// LoadSnapshot returns the persisted snapshot and version for a game.
func (r *GameRepository) LoadSnapshot(ctx context.Context, gameID string) ([]byte, int64, error) {
	var (
		snapshot []byte
		version  int64
	)
	err := r.db.Pool.QueryRow(ctx,
		`SELECT snapshot, version FROM games WHERE id = $1`, gameID,
	).Scan(&snapshot, &version)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, 0, fmt.Errorf("%w: game %s", game.ErrNotFound, gameID)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("load game %s: %w", gameID, err)
	}
	return snapshot, version, nil
}
