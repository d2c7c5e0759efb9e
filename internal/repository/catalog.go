package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gridclash/gridclash-server/internal/catalog"
	"go.uber.org/zap"
)

// CardCatalogRepository loads card definitions and special abilities. The
// tables are written by content tooling only; the server treats them as
// read-only.
type CardCatalogRepository struct {
	db *DB
}

// NewCardCatalogRepository creates the catalog repository.
func NewCardCatalogRepository(db *DB) *CardCatalogRepository {
	return &CardCatalogRepository{db: db}
}

// Load populates the catalog from the database. When both tables are empty
// the built-in seed content is loaded instead, so a fresh database still
// serves games.
func (r *CardCatalogRepository) Load(ctx context.Context, cat *catalog.Catalog) error {
	abilityCount, err := r.loadAbilities(ctx, cat)
	if err != nil {
		return err
	}
	cardCount, err := r.loadCards(ctx, cat)
	if err != nil {
		return err
	}

	if cardCount == 0 && abilityCount == 0 {
		if r.db.logger != nil {
			r.db.logger.Warn("card tables are empty, loading built-in seed content")
		}
		return catalog.Seed(cat)
	}

	if r.db.logger != nil {
		r.db.logger.Info("card catalog loaded",
			zap.Int("cards", cardCount),
			zap.Int("abilities", abilityCount),
		)
	}
	return nil
}

func (r *CardCatalogRepository) loadAbilities(ctx context.Context, cat *catalog.Catalog) (int, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, name, description, trigger_moments, param_kind, parameters
		FROM special_abilities`)
	if err != nil {
		return 0, fmt.Errorf("query special abilities: %w", err)
	}
	defer rows.Close()

	count := 0
	for rows.Next() {
		var (
			ability catalog.SpecialAbility
			moments []string
			kind    string
			raw     json.RawMessage
		)
		if err := rows.Scan(&ability.ID, &ability.Name, &ability.Description, &moments, &kind, &raw); err != nil {
			return 0, fmt.Errorf("scan ability row: %w", err)
		}
		for _, m := range moments {
			ability.Moments = append(ability.Moments, catalog.TriggerMoment(m))
		}
		params, err := catalog.DecodeParams(catalog.ParamKind(kind), raw)
		if err != nil {
			return 0, fmt.Errorf("ability %s: %w", ability.ID, err)
		}
		ability.Params = params

		if err := cat.AddAbility(&ability); err != nil {
			return 0, fmt.Errorf("load ability: %w", err)
		}
		count++
	}
	return count, rows.Err()
}

func (r *CardCatalogRepository) loadCards(ctx context.Context, cat *catalog.Catalog) (int, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, name, rarity, power_top, power_right, power_bottom, power_left, tags, ability_id
		FROM card_definitions`)
	if err != nil {
		return 0, fmt.Errorf("query card definitions: %w", err)
	}
	defer rows.Close()

	count := 0
	for rows.Next() {
		var (
			def       catalog.CardDefinition
			abilityID *string
		)
		if err := rows.Scan(&def.ID, &def.Name, &def.Rarity,
			&def.BasePower.Top, &def.BasePower.Right, &def.BasePower.Bottom, &def.BasePower.Left,
			&def.Tags, &abilityID); err != nil {
			return 0, fmt.Errorf("scan card row: %w", err)
		}
		if abilityID != nil {
			def.AbilityID = *abilityID
		}
		if err := cat.AddCard(&def); err != nil {
			return 0, fmt.Errorf("load card: %w", err)
		}
		count++
	}
	return count, rows.Err()
}
