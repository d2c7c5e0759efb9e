package catalog

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// TriggerMoment identifies a point in the turn/combat lifecycle at which
// registered abilities are evaluated.
type TriggerMoment string

const (
	TriggerOnPlace      TriggerMoment = "ON_PLACE"
	TriggerOnFlip       TriggerMoment = "ON_FLIP"
	TriggerOnFlipped    TriggerMoment = "ON_FLIPPED"
	TriggerOnTurnStart  TriggerMoment = "ON_TURN_START"
	TriggerOnTurnEnd    TriggerMoment = "ON_TURN_END"
	TriggerAnyOnFlip    TriggerMoment = "ANY_ON_FLIP"
	TriggerOnDefend     TriggerMoment = "ON_DEFEND"
	TriggerAnyOnDefend  TriggerMoment = "ANY_ON_DEFEND"
	TriggerHandOnFlip   TriggerMoment = "HAND_ON_FLIP"
	TriggerBoardOnFlip  TriggerMoment = "BOARD_ON_FLIP"
	TriggerHandOnPlace  TriggerMoment = "HAND_ON_PLACE"
	TriggerBoardOnPlace TriggerMoment = "BOARD_ON_PLACE"
	TriggerBeforeCombat TriggerMoment = "BEFORE_COMBAT"
	TriggerAfterCombat  TriggerMoment = "AFTER_COMBAT"
)

var validMoments = map[TriggerMoment]bool{
	TriggerOnPlace:      true,
	TriggerOnFlip:       true,
	TriggerOnFlipped:    true,
	TriggerOnTurnStart:  true,
	TriggerOnTurnEnd:    true,
	TriggerAnyOnFlip:    true,
	TriggerOnDefend:     true,
	TriggerAnyOnDefend:  true,
	TriggerHandOnFlip:   true,
	TriggerBoardOnFlip:  true,
	TriggerHandOnPlace:  true,
	TriggerBoardOnPlace: true,
	TriggerBeforeCombat: true,
	TriggerAfterCombat:  true,
}

// Valid reports whether the moment is one of the recognized lifecycle points.
func (m TriggerMoment) Valid() bool {
	return validMoments[m]
}

// Power holds the four directional power values of a card.
type Power struct {
	Top    int `json:"top"`
	Right  int `json:"right"`
	Bottom int `json:"bottom"`
	Left   int `json:"left"`
}

// Add returns the component-wise sum of two power values.
func (p Power) Add(other Power) Power {
	return Power{
		Top:    p.Top + other.Top,
		Right:  p.Right + other.Right,
		Bottom: p.Bottom + other.Bottom,
		Left:   p.Left + other.Left,
	}
}

// AddAll returns the power with delta added to every side.
func (p Power) AddAll(delta int) Power {
	return Power{
		Top:    p.Top + delta,
		Right:  p.Right + delta,
		Bottom: p.Bottom + delta,
		Left:   p.Left + delta,
	}
}

// ClampFloor returns the power with every side clamped to a minimum of zero.
// Modified values have no enforced maximum.
func (p Power) ClampFloor() Power {
	clamp := func(v int) int {
		if v < 0 {
			return 0
		}
		return v
	}
	return Power{
		Top:    clamp(p.Top),
		Right:  clamp(p.Right),
		Bottom: clamp(p.Bottom),
		Left:   clamp(p.Left),
	}
}

// CardDefinition is an immutable catalog entry. Definitions are created by
// content seeding and never mutated by gameplay.
type CardDefinition struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Rarity    string   `json:"rarity"`
	BasePower Power    `json:"base_power"`
	Tags      []string `json:"tags"`
	AbilityID string   `json:"ability_id,omitempty"`
}

// SpecialAbility describes a card ability: the lifecycle moments it listens
// to and the typed parameters its effect interprets.
type SpecialAbility struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Moments     []TriggerMoment `json:"trigger_moments"`
	Params      AbilityParams   `json:"parameters"`
}

// HasMoment reports whether the ability listens to the given moment.
func (a *SpecialAbility) HasMoment(moment TriggerMoment) bool {
	for _, m := range a.Moments {
		if m == moment {
			return true
		}
	}
	return false
}

// Catalog is the read-only lookup for card definitions and special abilities.
// It is populated once at load time and safe for concurrent reads.
type Catalog struct {
	mu        sync.RWMutex
	cards     map[string]*CardDefinition
	abilities map[string]*SpecialAbility
	logger    *zap.Logger
}

// New creates an empty catalog.
func New(logger *zap.Logger) *Catalog {
	return &Catalog{
		cards:     make(map[string]*CardDefinition),
		abilities: make(map[string]*SpecialAbility),
		logger:    logger,
	}
}

// AddCard registers a card definition. Base power components must be within
// [1,10] before modifiers.
func (c *Catalog) AddCard(def *CardDefinition) error {
	if def == nil || strings.TrimSpace(def.ID) == "" {
		return fmt.Errorf("card definition requires an id")
	}
	for side, v := range map[string]int{
		"top":    def.BasePower.Top,
		"right":  def.BasePower.Right,
		"bottom": def.BasePower.Bottom,
		"left":   def.BasePower.Left,
	} {
		if v < 1 || v > 10 {
			return fmt.Errorf("card %s: base power %s=%d outside [1,10]", def.ID, side, v)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.cards[def.ID] = def
	return nil
}

// AddAbility registers a special ability. Unknown trigger moments are
// rejected at load time so they can never surface mid-resolution.
func (c *Catalog) AddAbility(ability *SpecialAbility) error {
	if ability == nil || strings.TrimSpace(ability.ID) == "" {
		return fmt.Errorf("ability requires an id")
	}
	if len(ability.Moments) == 0 {
		return fmt.Errorf("ability %s: at least one trigger moment required", ability.ID)
	}
	for _, m := range ability.Moments {
		if !m.Valid() {
			return fmt.Errorf("ability %s: unknown trigger moment %q", ability.ID, m)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.abilities[ability.ID] = ability
	return nil
}

// Card looks up a card definition by id.
func (c *Catalog) Card(id string) (*CardDefinition, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	def, ok := c.cards[id]
	return def, ok
}

// Ability looks up a special ability by id.
func (c *Catalog) Ability(id string) (*SpecialAbility, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ability, ok := c.abilities[id]
	return ability, ok
}

// CardIDs returns the registered card definition ids in sorted order.
func (c *Catalog) CardIDs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := make([]string, 0, len(c.cards))
	for id := range c.cards {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// AbilityIDs returns the registered ability ids in sorted order.
func (c *Catalog) AbilityIDs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := make([]string, 0, len(c.abilities))
	for id := range c.abilities {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
