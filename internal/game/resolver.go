package game

import (
	"fmt"

	"github.com/gridclash/gridclash-server/internal/catalog"
	"go.uber.org/zap"
)

// Resolver computes the consequences of placing one card: ability firing at
// each lifecycle moment, directional comparisons, ownership flips, bounded
// chain reactions and the final score recompute. One resolver instance
// serves one placement.
type Resolver struct {
	state     *GameState
	cache     *HydratedCache
	abilities *AbilityEngine
	logger    *zap.Logger
	res       *Resolution
}

// NewResolver creates a resolver for a single placement pass.
func NewResolver(state *GameState, cache *HydratedCache, abilities *AbilityEngine, logger *zap.Logger) *Resolver {
	return &Resolver{
		state:     state,
		cache:     cache,
		abilities: abilities,
		logger:    logger,
		res:       NewResolution(),
	}
}

// Resolution returns the event record of the pass.
func (r *Resolver) Resolution() *Resolution {
	return r.res
}

// ResolvePlacement runs the full placement algorithm for the acting player.
func (r *Resolver) ResolvePlacement(player, instanceID string, pos Position) error {
	// Step 1: validate.
	if !pos.Valid() {
		return fmt.Errorf("%w: position %s off board", ErrValidation, pos)
	}
	state, ok := r.state.Player(player)
	if !ok {
		return fmt.Errorf("%w: player %s", ErrNotFound, player)
	}
	if !state.HasInHand(instanceID) {
		return fmt.Errorf("%w: card %s not in hand", ErrIllegalMove, instanceID)
	}
	if !r.state.Board.Placeable(pos) {
		return fmt.Errorf("%w: cell %s not placeable", ErrIllegalMove, pos)
	}

	placed, err := r.cache.Get(instanceID)
	if err != nil {
		return err
	}

	// Step 2: place, then fire the placement listeners.
	state.RemoveFromHand(instanceID)
	r.state.Board.Place(pos, instanceID, player)

	r.fireHandOnPlace(player)
	r.fireBoardOnPlace(player, instanceID)
	r.abilities.Invoke(catalog.TriggerOnPlace, &EffectContext{
		State:      r.state,
		Cache:      r.cache,
		Subject:    placed,
		SubjectPos: &pos,
		Controller: player,
		Placed:     placed,
		PlacedPos:  &pos,
		Resolution: r.res,
	})

	// Step 3: pre-combat abilities for the placed card and its neighbors.
	r.fireBeforeCombat(player, placed, pos)

	// Steps 4-6: directional comparison, flips, chains.
	if err := r.resolveCombat(player, placed, pos, false); err != nil {
		return err
	}

	// Step 7: post-combat abilities once all flips and chains settled.
	r.fireAfterCombat(player, placed, pos)

	// Step 8: recompute scores as a count over the board.
	r.state.RecomputeScores()

	if r.logger != nil {
		r.logger.Debug("placement resolved",
			zap.String("player", player),
			zap.String("instance_id", instanceID),
			zap.String("position", pos.String()),
			zap.Int("flips", len(r.res.Flips)),
			zap.Int("ability_warnings", r.res.Warnings),
		)
	}
	return nil
}

// resolveCombat runs the directional comparison for the card at pos acting
// for player, applies the resulting flips and recurses into chain effects.
// chain marks recursive invocations originating from a chain ability.
func (r *Resolver) resolveCombat(player string, attacker *HydratedCard, pos Position, chain bool) error {
	type pendingFlip struct {
		pos  Position
		card *HydratedCard
	}

	attackPower := r.effectiveAt(attacker, pos)

	// Step 4: directional comparison. Defending abilities are evaluated
	// before the comparison is finalized; an explicit prevent wins over the
	// numeric comparison, and exact ties never flip.
	var flips []pendingFlip
	for dir := DirUp; dir <= DirLeft; dir++ {
		npos, onBoard := pos.Neighbor(dir)
		if !onBoard {
			continue
		}
		cell := r.state.Board.At(npos)
		if !cell.Occupied() || cell.Owner == player {
			continue
		}

		defender, err := r.cache.Get(cell.InstanceID)
		if err != nil {
			return err
		}
		defensePower := r.effectiveAt(defender, npos)
		attackValue, defenseValue := facingSides(dir, attackPower, defensePower)

		check := &DefenseCheck{
			AttackerID:   attacker.InstanceID,
			DefenderID:   defender.InstanceID,
			Direction:    dir,
			AttackValue:  attackValue,
			DefenseValue: defenseValue,
		}
		r.fireDefense(defender, npos, check)

		if check.PreventFlip {
			continue
		}
		if check.AttackValue > check.DefenseValue {
			flips = append(flips, pendingFlip{pos: npos, card: defender})
		}
	}

	// Step 5: flip resolution.
	var flipped []pendingFlip
	for _, flip := range flips {
		cell := r.state.Board.At(flip.pos)
		prevOwner := cell.Owner
		cell.Owner = player

		event := FlipEvent{
			Position:   flip.pos,
			InstanceID: flip.card.InstanceID,
			FlippedBy:  attacker.InstanceID,
			NewOwner:   player,
			Chain:      chain,
		}
		r.res.RecordFlip(event)

		flipPos := flip.pos
		r.abilities.Invoke(catalog.TriggerOnFlipped, &EffectContext{
			State:      r.state,
			Cache:      r.cache,
			Subject:    flip.card,
			SubjectPos: &flipPos,
			Controller: prevOwner,
			Resolution: r.res,
		})
		r.abilities.Invoke(catalog.TriggerOnFlip, &EffectContext{
			State:      r.state,
			Cache:      r.cache,
			Subject:    attacker,
			SubjectPos: &pos,
			Controller: player,
			Resolution: r.res,
		})
		r.fireGlobalFlipListeners(event)

		flipped = append(flipped, flip)
	}

	// Step 6: chain effects. The initiating card's chain ability replays the
	// flip-resolution path from each captured cell, guarded so it cannot
	// re-trigger on the same card within one placement.
	chainParams := r.abilities.ChainParams(attacker)
	if chainParams != nil {
		for _, flip := range flipped {
			if r.res.MarkFired(flip.card.InstanceID, attacker.AbilityID) {
				continue
			}
			if chainParams.ConvertPermanent {
				flip.card.OwnerID = player
			}
			if chainParams.Propagate {
				if err := r.resolveCombat(player, flip.card, flip.pos, true); err != nil {
					return err
				}
			}
		}
	}

	return nil
}

// effectiveAt returns the card's effective power including the tile delta of
// the cell it occupies, clamped to a floor of zero.
func (r *Resolver) effectiveAt(card *HydratedCard, pos Position) catalog.Power {
	power := card.EffectivePower()
	if delta := r.state.Board.TileDelta(pos); delta != 0 {
		power = power.AddAll(delta).ClampFloor()
	}
	return power
}

// fireDefense evaluates ON_DEFEND on the defender, then ANY_ON_DEFEND on the
// defender's allied board cards in scan order.
func (r *Resolver) fireDefense(defender *HydratedCard, pos Position, check *DefenseCheck) {
	defenderOwner := r.state.Board.At(pos).Owner

	r.abilities.Invoke(catalog.TriggerOnDefend, &EffectContext{
		State:      r.state,
		Cache:      r.cache,
		Subject:    defender,
		SubjectPos: &pos,
		Controller: defenderOwner,
		Defense:    check,
		Resolution: r.res,
	})

	for _, scanPos := range ScanPositions() {
		cell := r.state.Board.At(scanPos)
		if !cell.Occupied() || cell.InstanceID == defender.InstanceID {
			continue
		}
		if cell.Owner != defenderOwner {
			continue
		}
		card, err := r.cache.Get(cell.InstanceID)
		if err != nil {
			r.res.Warnings++
			continue
		}
		sp := scanPos
		r.abilities.Invoke(catalog.TriggerAnyOnDefend, &EffectContext{
			State:      r.state,
			Cache:      r.cache,
			Subject:    card,
			SubjectPos: &sp,
			Controller: cell.Owner,
			Defense:    check,
			Resolution: r.res,
		})
	}
}

// fireGlobalFlipListeners notifies every card listening to "any flip"
// moments: board cards in scan order, then hands in player order.
func (r *Resolver) fireGlobalFlipListeners(event FlipEvent) {
	for _, pos := range ScanPositions() {
		cell := r.state.Board.At(pos)
		if !cell.Occupied() {
			continue
		}
		card, err := r.cache.Get(cell.InstanceID)
		if err != nil {
			r.res.Warnings++
			continue
		}
		sp := pos
		ctx := &EffectContext{
			State:      r.state,
			Cache:      r.cache,
			Subject:    card,
			SubjectPos: &sp,
			Controller: cell.Owner,
			Resolution: r.res,
		}
		r.abilities.Invoke(catalog.TriggerBoardOnFlip, ctx)
		r.abilities.Invoke(catalog.TriggerAnyOnFlip, ctx)
	}

	for _, playerID := range r.state.PlayerOrder {
		for _, instanceID := range r.state.Players[playerID].Hand {
			card, err := r.cache.Get(instanceID)
			if err != nil {
				r.res.Warnings++
				continue
			}
			ctx := &EffectContext{
				State:      r.state,
				Cache:      r.cache,
				Subject:    card,
				Controller: playerID,
				Resolution: r.res,
			}
			r.abilities.Invoke(catalog.TriggerHandOnFlip, ctx)
			r.abilities.Invoke(catalog.TriggerAnyOnFlip, ctx)
		}
	}
}

// fireHandOnPlace notifies the acting player's remaining hand cards.
func (r *Resolver) fireHandOnPlace(player string) {
	for _, instanceID := range r.state.Players[player].Hand {
		card, err := r.cache.Get(instanceID)
		if err != nil {
			r.res.Warnings++
			continue
		}
		r.abilities.Invoke(catalog.TriggerHandOnPlace, &EffectContext{
			State:      r.state,
			Cache:      r.cache,
			Subject:    card,
			Controller: player,
			Resolution: r.res,
		})
	}
}

// fireBoardOnPlace notifies board cards other than the placed one, in scan
// order.
func (r *Resolver) fireBoardOnPlace(player, placedID string) {
	for _, pos := range ScanPositions() {
		cell := r.state.Board.At(pos)
		if !cell.Occupied() || cell.InstanceID == placedID {
			continue
		}
		card, err := r.cache.Get(cell.InstanceID)
		if err != nil {
			r.res.Warnings++
			continue
		}
		sp := pos
		r.abilities.Invoke(catalog.TriggerBoardOnPlace, &EffectContext{
			State:      r.state,
			Cache:      r.cache,
			Subject:    card,
			SubjectPos: &sp,
			Controller: cell.Owner,
			Resolution: r.res,
		})
	}
}

// fireBeforeCombat fires BEFORE_COMBAT for the placed card, then its
// neighbors in direction order.
func (r *Resolver) fireBeforeCombat(player string, placed *HydratedCard, pos Position) {
	r.abilities.Invoke(catalog.TriggerBeforeCombat, &EffectContext{
		State:      r.state,
		Cache:      r.cache,
		Subject:    placed,
		SubjectPos: &pos,
		Controller: player,
		Placed:     placed,
		PlacedPos:  &pos,
		Resolution: r.res,
	})
	r.fireNeighbors(catalog.TriggerBeforeCombat, placed, pos)
}

// fireAfterCombat mirrors fireBeforeCombat once the cascade has settled.
func (r *Resolver) fireAfterCombat(player string, placed *HydratedCard, pos Position) {
	r.abilities.Invoke(catalog.TriggerAfterCombat, &EffectContext{
		State:      r.state,
		Cache:      r.cache,
		Subject:    placed,
		SubjectPos: &pos,
		Controller: player,
		Placed:     placed,
		PlacedPos:  &pos,
		Resolution: r.res,
	})
	r.fireNeighbors(catalog.TriggerAfterCombat, placed, pos)
}

func (r *Resolver) fireNeighbors(moment catalog.TriggerMoment, placed *HydratedCard, pos Position) {
	for dir := DirUp; dir <= DirLeft; dir++ {
		npos, ok := pos.Neighbor(dir)
		if !ok {
			continue
		}
		cell := r.state.Board.At(npos)
		if !cell.Occupied() {
			continue
		}
		card, err := r.cache.Get(cell.InstanceID)
		if err != nil {
			r.res.Warnings++
			continue
		}
		sp := npos
		r.abilities.Invoke(moment, &EffectContext{
			State:      r.state,
			Cache:      r.cache,
			Subject:    card,
			SubjectPos: &sp,
			Controller: cell.Owner,
			Placed:     placed,
			PlacedPos:  &pos,
			Resolution: r.res,
		})
	}
}
