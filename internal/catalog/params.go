package catalog

import (
	"encoding/json"
	"fmt"
)

// ParamKind tags the closed set of ability parameter families. The raw
// parameter bag stored with an ability row is decoded into exactly one of
// these variants at catalog load, selected by the ability's family, and is
// never re-parsed at trigger time.
type ParamKind string

const (
	ParamKindPowerDelta ParamKind = "power_delta"
	ParamKindDefense    ParamKind = "defense"
	ParamKindTile       ParamKind = "tile"
	ParamKindChain      ParamKind = "chain"
)

// TargetShape selects which cards a power-delta effect applies to.
type TargetShape string

const (
	TargetSelf            TargetShape = "self"
	TargetAdjacentAllies  TargetShape = "adjacent_allies"
	TargetAdjacentEnemies TargetShape = "adjacent_enemies"
	TargetOwnHand         TargetShape = "own_hand"
)

// AbilityParams is the tagged-variant container. Exactly one variant matching
// Kind is populated.
type AbilityParams struct {
	Kind ParamKind `json:"kind"`

	PowerDelta *PowerDeltaParams `json:"power_delta,omitempty"`
	Defense    *DefenseParams    `json:"defense,omitempty"`
	Tile       *TileParams       `json:"tile,omitempty"`
	Chain      *ChainParams      `json:"chain,omitempty"`
}

// PowerDeltaParams drives effects that add (or subtract) power.
type PowerDeltaParams struct {
	Target TargetShape `json:"target"`
	Delta  int         `json:"delta"`
	// DurationTurns bounds how long the modifier lasts. Zero or negative
	// means it persists for the rest of the session.
	DurationTurns int `json:"duration_turns"`
}

// DefenseParams drives ON_DEFEND / ANY_ON_DEFEND effects. A defending
// ability may raise the defending value and/or veto the flip outright;
// PreventFlip wins over any numeric comparison.
type DefenseParams struct {
	DefenseBonus int  `json:"defense_bonus"`
	PreventFlip  bool `json:"prevent_flip"`
}

// TileParams drives effects that set a tile status with a per-player expiry
// countdown.
type TileParams struct {
	Status        string      `json:"status"` // boosted or drained
	Target        TargetShape `json:"target"`
	DurationTurns int         `json:"duration_turns"`
}

// ChainParams drives effects that react to a flip with further board changes.
type ChainParams struct {
	// Propagate re-runs directional comparisons from each flipped cell,
	// letting the newly-owned card capture its own neighbors.
	Propagate bool `json:"propagate"`
	// ConvertPermanent marks chain captures as permanent ownership changes
	// that survive later flips of the originating card.
	ConvertPermanent bool `json:"convert_permanent"`
}

// DecodeParams decodes a raw parameter bag into the variant named by kind.
// Unknown kinds are an error at load time; gameplay never sees them.
func DecodeParams(kind ParamKind, raw json.RawMessage) (AbilityParams, error) {
	params := AbilityParams{Kind: kind}
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}

	var err error
	switch kind {
	case ParamKindPowerDelta:
		var v PowerDeltaParams
		err = json.Unmarshal(raw, &v)
		params.PowerDelta = &v
	case ParamKindDefense:
		var v DefenseParams
		err = json.Unmarshal(raw, &v)
		params.Defense = &v
	case ParamKindTile:
		var v TileParams
		err = json.Unmarshal(raw, &v)
		params.Tile = &v
	case ParamKindChain:
		var v ChainParams
		err = json.Unmarshal(raw, &v)
		params.Chain = &v
	default:
		return params, fmt.Errorf("unknown ability parameter kind %q", kind)
	}
	if err != nil {
		return params, fmt.Errorf("decode %s parameters: %w", kind, err)
	}
	return params, nil
}
