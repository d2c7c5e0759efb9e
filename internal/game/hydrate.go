package game

import (
	"fmt"

	"github.com/gridclash/gridclash-server/internal/catalog"
)

// CardState classifies the session-local condition of a hydrated card.
type CardState string

const (
	CardStateNormal   CardState = "normal"
	CardStateImmune   CardState = "immune"
	CardStateBuffed   CardState = "buffed"
	CardStateDebuffed CardState = "debuffed"
)

// CardInstance is the persistent, user-owned copy of a card definition.
// Within a session it is read-only; only session-local temporary modifiers
// are applied on top of it.
type CardInstance struct {
	ID           string        `json:"id"`
	OwnerID      string        `json:"owner_id"`
	DefinitionID string        `json:"definition_id"`
	Level        int           `json:"level"`
	XP           int           `json:"xp"`
	Enhancements catalog.Power `json:"enhancements"`
}

// TempModifier is a session-only power modifier on a hydrated card.
// TurnsLeft <= 0 means the modifier lasts for the rest of the session.
type TempModifier struct {
	Source    string        `json:"source"`
	Delta     catalog.Power `json:"delta"`
	TurnsLeft int           `json:"turns_left"`
}

// HydratedCard is the session-scoped projection of a card instance merged
// with its definition plus session-only mutable fields. It is owned
// exclusively by the game session and discarded when the session ends.
type HydratedCard struct {
	InstanceID   string         `json:"instance_id"`
	DefinitionID string         `json:"definition_id"`
	Name         string         `json:"name"`
	Rarity       string         `json:"rarity"`
	OwnerID      string         `json:"owner_id"`
	Level        int            `json:"level"`
	AbilityID    string         `json:"ability_id,omitempty"`
	BasePower    catalog.Power  `json:"base_power"`
	Enhancements catalog.Power  `json:"enhancements"`
	Modifiers    []TempModifier `json:"modifiers,omitempty"`
	State        CardState      `json:"card_state"`
	LockedTurns  int            `json:"locked_turns"`
}

// EffectivePower returns base + enhancements + temporary modifiers, clamped
// to a floor of zero per side. Tile deltas are applied by the resolver at
// comparison time, not stored here.
func (h *HydratedCard) EffectivePower() catalog.Power {
	power := h.BasePower.Add(h.Enhancements)
	for _, mod := range h.Modifiers {
		power = power.Add(mod.Delta)
	}
	return power.ClampFloor()
}

// Clone returns an independent copy. Views hand clones to code running
// outside the session lock, so the live card can keep mutating.
func (h *HydratedCard) Clone() *HydratedCard {
	cp := *h
	if len(h.Modifiers) > 0 {
		cp.Modifiers = append([]TempModifier(nil), h.Modifiers...)
	}
	return &cp
}

// AddModifier appends a temporary modifier and refreshes the card state.
func (h *HydratedCard) AddModifier(mod TempModifier) {
	h.Modifiers = append(h.Modifiers, mod)
	h.refreshState()
}

// TickModifiers decrements turn-bounded modifiers and drops expired ones.
func (h *HydratedCard) TickModifiers() {
	kept := h.Modifiers[:0]
	for _, mod := range h.Modifiers {
		if mod.TurnsLeft > 0 {
			mod.TurnsLeft--
			if mod.TurnsLeft == 0 {
				continue
			}
		}
		kept = append(kept, mod)
	}
	if len(kept) == 0 {
		h.Modifiers = nil
	} else {
		h.Modifiers = kept
	}
	h.refreshState()
}

func (h *HydratedCard) refreshState() {
	if h.State == CardStateImmune {
		return
	}
	net := 0
	for _, mod := range h.Modifiers {
		net += mod.Delta.Top + mod.Delta.Right + mod.Delta.Bottom + mod.Delta.Left
	}
	switch {
	case net > 0:
		h.State = CardStateBuffed
	case net < 0:
		h.State = CardStateDebuffed
	default:
		h.State = CardStateNormal
	}
}

// HydratedCache is the per-session materialization of card instances, keyed
// by instance id. Cards are hydrated lazily and individual entries are
// invalidated when the instance's persistent level or xp changes outside the
// session. The cache lives and dies with the session; no cross-session
// invalidation exists.
type HydratedCache struct {
	catalog   *catalog.Catalog
	instances map[string]*CardInstance
	cards     map[string]*HydratedCard
}

// NewHydratedCache creates a cache over the given instances.
func NewHydratedCache(cat *catalog.Catalog, instances []*CardInstance) *HydratedCache {
	byID := make(map[string]*CardInstance, len(instances))
	for _, inst := range instances {
		byID[inst.ID] = inst
	}
	return &HydratedCache{
		catalog:   cat,
		instances: byID,
		cards:     make(map[string]*HydratedCard, len(instances)),
	}
}

// Get returns the hydrated card for the instance id, building it on first
// access.
func (hc *HydratedCache) Get(instanceID string) (*HydratedCard, error) {
	if card, ok := hc.cards[instanceID]; ok {
		return card, nil
	}

	inst, ok := hc.instances[instanceID]
	if !ok {
		return nil, fmt.Errorf("%w: card instance %s", ErrNotFound, instanceID)
	}
	def, ok := hc.catalog.Card(inst.DefinitionID)
	if !ok {
		return nil, fmt.Errorf("%w: card definition %s", ErrNotFound, inst.DefinitionID)
	}

	card := &HydratedCard{
		InstanceID:   inst.ID,
		DefinitionID: def.ID,
		Name:         def.Name,
		Rarity:       def.Rarity,
		OwnerID:      inst.OwnerID,
		Level:        inst.Level,
		AbilityID:    def.AbilityID,
		BasePower:    def.BasePower,
		Enhancements: inst.Enhancements,
		State:        CardStateNormal,
	}
	hc.cards[instanceID] = card
	return card, nil
}

// Peek returns the hydrated card only if it is already materialized. It
// never mutates the cache and is safe under a read lock.
func (hc *HydratedCache) Peek(instanceID string) (*HydratedCard, bool) {
	card, ok := hc.cards[instanceID]
	return card, ok
}

// Invalidate drops the hydrated entry for an instance so the next access
// rebuilds it from the instance's current persistent fields.
func (hc *HydratedCache) Invalidate(instanceID string) {
	delete(hc.cards, instanceID)
}

// UpdateInstance replaces the persistent instance (level/xp change outside
// the session) and invalidates its hydrated entry.
func (hc *HydratedCache) UpdateInstance(inst *CardInstance) {
	hc.instances[inst.ID] = inst
	hc.Invalidate(inst.ID)
}

// Snapshot returns the hydrated entries currently materialized, for
// inclusion in the persisted game state.
func (hc *HydratedCache) Snapshot() map[string]*HydratedCard {
	out := make(map[string]*HydratedCard, len(hc.cards))
	for id, card := range hc.cards {
		out[id] = card
	}
	return out
}

// CloneSnapshot returns deep copies of the materialized entries. Callers
// that marshal or read the map after the session lock is released use this
// instead of Snapshot.
func (hc *HydratedCache) CloneSnapshot() map[string]*HydratedCard {
	out := make(map[string]*HydratedCard, len(hc.cards))
	for id, card := range hc.cards {
		out[id] = card.Clone()
	}
	return out
}

// Restore replaces materialized entries from a persisted snapshot.
func (hc *HydratedCache) Restore(cards map[string]*HydratedCard) {
	hc.cards = make(map[string]*HydratedCard, len(cards))
	for id, card := range cards {
		hc.cards[id] = card
	}
}
