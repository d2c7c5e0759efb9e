package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/gridclash/gridclash-server/internal/game"
	"github.com/jackc/pgx/v5"
)

// DeckRepository resolves a user's deck into the card instances a session
// starts from. Ownership is checked here, at session creation, never again
// inside the session.
type DeckRepository struct {
	db *DB
}

// NewDeckRepository creates the deck repository.
func NewDeckRepository(db *DB) *DeckRepository {
	return &DeckRepository{db: db}
}

// InstancesForDeck loads the ordered instances of the deck, verifying the
// deck belongs to the user.
func (r *DeckRepository) InstancesForDeck(ctx context.Context, userID, deckID string) ([]*game.CardInstance, error) {
	var ownerID string
	err := r.db.Pool.QueryRow(ctx,
		`SELECT user_id FROM decks WHERE id = $1`, deckID,
	).Scan(&ownerID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: deck %s", game.ErrNotFound, deckID)
	}
	if err != nil {
		return nil, fmt.Errorf("query deck: %w", err)
	}
	if ownerID != userID {
		return nil, fmt.Errorf("%w: deck %s does not belong to user %s", game.ErrUnauthorized, deckID, userID)
	}

	rows, err := r.db.Pool.Query(ctx, `
		SELECT i.id, i.user_id, i.card_definition_id, i.level, i.xp,
		       i.enh_top, i.enh_right, i.enh_bottom, i.enh_left
		FROM deck_cards dc
		JOIN user_card_instances i ON i.id = dc.user_card_instance_id
		WHERE dc.deck_id = $1
		ORDER BY dc.position`, deckID)
	if err != nil {
		return nil, fmt.Errorf("query deck cards: %w", err)
	}
	defer rows.Close()

	var instances []*game.CardInstance
	for rows.Next() {
		inst := &game.CardInstance{}
		if err := rows.Scan(&inst.ID, &inst.OwnerID, &inst.DefinitionID, &inst.Level, &inst.XP,
			&inst.Enhancements.Top, &inst.Enhancements.Right, &inst.Enhancements.Bottom, &inst.Enhancements.Left); err != nil {
			return nil, fmt.Errorf("scan deck card: %w", err)
		}
		if inst.OwnerID != userID {
			return nil, fmt.Errorf("%w: instance %s in deck %s is not owned by %s", game.ErrUnauthorized, inst.ID, deckID, userID)
		}
		instances = append(instances, inst)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(instances) == 0 {
		return nil, fmt.Errorf("%w: deck %s is empty", game.ErrValidation, deckID)
	}
	return instances, nil
}
