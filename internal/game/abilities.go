package game

import (
	"fmt"

	"github.com/gridclash/gridclash-server/internal/catalog"
	"go.uber.org/zap"
)

// EffectContext carries everything an ability effect may read or mutate.
// Fields not relevant to the current moment are nil.
type EffectContext struct {
	State *GameState
	Cache *HydratedCache

	// Subject is the card whose ability is firing. SubjectPos is set when
	// the subject sits on the board, nil for hand-scoped moments.
	Subject    *HydratedCard
	SubjectPos *Position

	// Controller is the player the effect acts for: the acting player for
	// placement moments, the card's owner for turn and flip moments.
	Controller string

	// Placed and PlacedPos describe the placement being resolved, when one
	// is in flight.
	Placed    *HydratedCard
	PlacedPos *Position

	// Defense is populated only for ON_DEFEND / ANY_ON_DEFEND.
	Defense *DefenseCheck

	Resolution *Resolution
}

// DefenseCheck is the mutable comparison state a defending ability may
// alter before the directional comparison is finalized. PreventFlip wins
// over any numeric comparison.
type DefenseCheck struct {
	AttackerID   string
	DefenderID   string
	Direction    Direction
	AttackValue  int
	DefenseValue int
	PreventFlip  bool
}

// EffectFunc applies one ability's effect for one trigger moment.
type EffectFunc func(ctx *EffectContext, params catalog.AbilityParams) error

// AbilityEngine is the dispatch table mapping trigger moment to ability id
// to effect function. The table is built once at catalog load; lookups at
// trigger time never parse parameters. Malformed or unknown abilities fail
// soft: the effect is skipped, the rest of the cascade proceeds, and the
// event is logged and counted.
type AbilityEngine struct {
	catalog *catalog.Catalog
	logger  *zap.Logger
	effects map[catalog.TriggerMoment]map[string]EffectFunc
}

// NewAbilityEngine builds the dispatch table from every ability currently
// registered in the catalog.
func NewAbilityEngine(cat *catalog.Catalog, logger *zap.Logger) *AbilityEngine {
	ae := &AbilityEngine{
		catalog: cat,
		logger:  logger,
		effects: make(map[catalog.TriggerMoment]map[string]EffectFunc),
	}

	for _, id := range cat.AbilityIDs() {
		ability, _ := cat.Ability(id)
		effect := ae.effectFor(ability)
		if effect == nil {
			if logger != nil {
				logger.Warn("ability has no effect implementation, degraded to no-op",
					zap.String("ability_id", ability.ID),
					zap.String("param_kind", string(ability.Params.Kind)),
				)
			}
			continue
		}
		for _, moment := range ability.Moments {
			if ae.effects[moment] == nil {
				ae.effects[moment] = make(map[string]EffectFunc)
			}
			ae.effects[moment][ability.ID] = effect
		}
	}

	return ae
}

// effectFor selects the effect implementation for an ability from its
// parameter family.
func (ae *AbilityEngine) effectFor(ability *catalog.SpecialAbility) EffectFunc {
	switch ability.Params.Kind {
	case catalog.ParamKindPowerDelta:
		if ability.Params.PowerDelta == nil {
			return nil
		}
		return ae.applyPowerDelta
	case catalog.ParamKindDefense:
		if ability.Params.Defense == nil {
			return nil
		}
		return ae.applyDefense
	case catalog.ParamKindTile:
		if ability.Params.Tile == nil {
			return nil
		}
		return ae.applyTile
	case catalog.ParamKindChain:
		// Chain abilities are consumed by the resolver's flip path; at the
		// dispatch level they are a recorded no-op so the moment still
		// registers for cycle guarding.
		if ability.Params.Chain == nil {
			return nil
		}
		return func(*EffectContext, catalog.AbilityParams) error { return nil }
	default:
		return nil
	}
}

// Invoke fires the subject card's ability for the moment, if it has one that
// listens. Missing catalog entries and effect errors degrade to a logged
// no-op so resolution always completes for well-formed moves.
func (ae *AbilityEngine) Invoke(moment catalog.TriggerMoment, ctx *EffectContext) {
	subject := ctx.Subject
	if subject == nil || subject.AbilityID == "" {
		return
	}

	ability, ok := ae.catalog.Ability(subject.AbilityID)
	if !ok {
		ae.warn(ctx, "ability definition missing, degraded to no-op",
			zap.String("ability_id", subject.AbilityID),
			zap.String("instance_id", subject.InstanceID),
		)
		return
	}
	if !ability.HasMoment(moment) {
		return
	}

	effect, ok := ae.effects[moment][ability.ID]
	if !ok {
		ae.warn(ctx, "no effect registered for ability",
			zap.String("ability_id", ability.ID),
			zap.String("moment", string(moment)),
		)
		return
	}

	if err := effect(ctx, ability.Params); err != nil {
		ae.warn(ctx, "ability effect failed, skipped",
			zap.String("ability_id", ability.ID),
			zap.String("moment", string(moment)),
			zap.Error(err),
		)
	}
}

// ChainParams returns the chain parameters of the card's ability when it
// listens to ON_FLIP with a chain family, or nil.
func (ae *AbilityEngine) ChainParams(card *HydratedCard) *catalog.ChainParams {
	if card == nil || card.AbilityID == "" {
		return nil
	}
	ability, ok := ae.catalog.Ability(card.AbilityID)
	if !ok || !ability.HasMoment(catalog.TriggerOnFlip) {
		return nil
	}
	if ability.Params.Kind != catalog.ParamKindChain {
		return nil
	}
	return ability.Params.Chain
}

func (ae *AbilityEngine) warn(ctx *EffectContext, msg string, fields ...zap.Field) {
	if ctx.Resolution != nil {
		ctx.Resolution.Warnings++
	}
	if ae.logger != nil {
		ae.logger.Warn(msg, fields...)
	}
}

// applyPowerDelta adds a temporary power modifier to the cards selected by
// the target shape, relative to the subject card.
func (ae *AbilityEngine) applyPowerDelta(ctx *EffectContext, params catalog.AbilityParams) error {
	p := params.PowerDelta
	targets, err := ae.resolveTargets(ctx, p.Target)
	if err != nil {
		return err
	}

	for _, target := range targets {
		target.AddModifier(TempModifier{
			Source:    ctx.Subject.AbilityID,
			Delta:     catalog.Power{}.AddAll(p.Delta),
			TurnsLeft: p.DurationTurns,
		})
	}
	return nil
}

// applyDefense adjusts the in-flight defense check.
func (ae *AbilityEngine) applyDefense(ctx *EffectContext, params catalog.AbilityParams) error {
	if ctx.Defense == nil {
		return fmt.Errorf("defense effect fired outside a defense check")
	}
	p := params.Defense
	ctx.Defense.DefenseValue += p.DefenseBonus
	if p.PreventFlip {
		ctx.Defense.PreventFlip = true
	}
	return nil
}

// applyTile sets a boosted/drained tile effect owned by the controller.
func (ae *AbilityEngine) applyTile(ctx *EffectContext, params catalog.AbilityParams) error {
	p := params.Tile
	if ctx.SubjectPos == nil {
		return fmt.Errorf("tile effect requires a board position")
	}

	var status TileStatus
	switch p.Status {
	case "boosted":
		status = TileBoosted
	case "drained":
		status = TileDrained
	default:
		return fmt.Errorf("unknown tile status %q", p.Status)
	}

	board := ctx.State.Board
	switch p.Target {
	case catalog.TargetSelf:
		board.SetTileEffect(*ctx.SubjectPos, status, ctx.Controller, p.DurationTurns)
	case catalog.TargetAdjacentEnemies:
		for dir := DirUp; dir <= DirLeft; dir++ {
			pos, ok := ctx.SubjectPos.Neighbor(dir)
			if !ok {
				continue
			}
			cell := board.At(pos)
			if cell.Occupied() && cell.Owner != ctx.Controller {
				board.SetTileEffect(pos, status, ctx.Controller, p.DurationTurns)
			}
		}
	case catalog.TargetAdjacentAllies:
		for dir := DirUp; dir <= DirLeft; dir++ {
			pos, ok := ctx.SubjectPos.Neighbor(dir)
			if !ok {
				continue
			}
			cell := board.At(pos)
			if cell.Occupied() && cell.Owner == ctx.Controller {
				board.SetTileEffect(pos, status, ctx.Controller, p.DurationTurns)
			}
		}
	default:
		return fmt.Errorf("unsupported tile target %q", p.Target)
	}
	return nil
}

// resolveTargets maps a target shape to hydrated cards, scanning the board
// in row-major order so evaluation stays deterministic.
func (ae *AbilityEngine) resolveTargets(ctx *EffectContext, shape catalog.TargetShape) ([]*HydratedCard, error) {
	switch shape {
	case catalog.TargetSelf, catalog.TargetOwnHand:
		return []*HydratedCard{ctx.Subject}, nil

	case catalog.TargetAdjacentAllies, catalog.TargetAdjacentEnemies:
		if ctx.SubjectPos == nil {
			return nil, fmt.Errorf("adjacency target requires a board position")
		}
		wantAlly := shape == catalog.TargetAdjacentAllies
		var targets []*HydratedCard
		for dir := DirUp; dir <= DirLeft; dir++ {
			pos, ok := ctx.SubjectPos.Neighbor(dir)
			if !ok {
				continue
			}
			cell := ctx.State.Board.At(pos)
			if !cell.Occupied() {
				continue
			}
			isAlly := cell.Owner == ctx.Controller
			if isAlly != wantAlly {
				continue
			}
			card, err := ctx.Cache.Get(cell.InstanceID)
			if err != nil {
				return nil, err
			}
			targets = append(targets, card)
		}
		return targets, nil

	default:
		return nil, fmt.Errorf("unknown target shape %q", shape)
	}
}
