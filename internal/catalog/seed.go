package catalog

import "fmt"

// Seed populates the catalog with the built-in content set. The server loads
// the authoritative catalog from the database; the seed is used by tests and
// as a fallback when the cards tables are empty.
func Seed(c *Catalog) error {
	abilities := []*SpecialAbility{
		{
			ID:          "rally",
			Name:        "Rally",
			Description: "When placed, adjacent allied cards gain +1 power.",
			Moments:     []TriggerMoment{TriggerOnPlace},
			Params: AbilityParams{Kind: ParamKindPowerDelta, PowerDelta: &PowerDeltaParams{
				Target: TargetAdjacentAllies, Delta: 1,
			}},
		},
		{
			ID:          "warcry",
			Name:        "War Cry",
			Description: "When placed, this card gains +1 power.",
			Moments:     []TriggerMoment{TriggerOnPlace},
			Params: AbilityParams{Kind: ParamKindPowerDelta, PowerDelta: &PowerDeltaParams{
				Target: TargetSelf, Delta: 1,
			}},
		},
		{
			ID:          "intimidate",
			Name:        "Intimidate",
			Description: "Before combat, adjacent enemy cards lose 1 power this turn.",
			Moments:     []TriggerMoment{TriggerBeforeCombat},
			Params: AbilityParams{Kind: ParamKindPowerDelta, PowerDelta: &PowerDeltaParams{
				Target: TargetAdjacentEnemies, Delta: -1, DurationTurns: 1,
			}},
		},
		{
			ID:          "bulwark",
			Name:        "Bulwark",
			Description: "When defending, this card's facing power counts as 2 higher.",
			Moments:     []TriggerMoment{TriggerOnDefend},
			Params: AbilityParams{Kind: ParamKindDefense, Defense: &DefenseParams{
				DefenseBonus: 2,
			}},
		},
		{
			ID:          "anchor",
			Name:        "Anchor",
			Description: "This card cannot be flipped by direct combat.",
			Moments:     []TriggerMoment{TriggerOnDefend},
			Params: AbilityParams{Kind: ParamKindDefense, Defense: &DefenseParams{
				PreventFlip: true,
			}},
		},
		{
			ID:          "phalanx",
			Name:        "Phalanx",
			Description: "Whenever an allied card defends, the defense counts 1 higher.",
			Moments:     []TriggerMoment{TriggerAnyOnDefend},
			Params: AbilityParams{Kind: ParamKindDefense, Defense: &DefenseParams{
				DefenseBonus: 1,
			}},
		},
		{
			ID:          "conqueror",
			Name:        "Conqueror",
			Description: "Cards this card flips immediately battle their own neighbors.",
			Moments:     []TriggerMoment{TriggerOnFlip},
			Params: AbilityParams{Kind: ParamKindChain, Chain: &ChainParams{
				Propagate: true,
			}},
		},
		{
			ID:          "subjugate",
			Name:        "Subjugate",
			Description: "Enemies defeated by this card become permanent allies.",
			Moments:     []TriggerMoment{TriggerOnFlip},
			Params: AbilityParams{Kind: ParamKindChain, Chain: &ChainParams{
				Propagate: true, ConvertPermanent: true,
			}},
		},
		{
			ID:          "avenger",
			Name:        "Avenger",
			Description: "When this card is flipped, adjacent former allies gain +1 power.",
			Moments:     []TriggerMoment{TriggerOnFlipped},
			Params: AbilityParams{Kind: ParamKindPowerDelta, PowerDelta: &PowerDeltaParams{
				Target: TargetAdjacentAllies, Delta: 1,
			}},
		},
		{
			ID:          "opportunist",
			Name:        "Opportunist",
			Description: "Whenever any card on the board is flipped, this card gains +1 power.",
			Moments:     []TriggerMoment{TriggerBoardOnFlip},
			Params: AbilityParams{Kind: ParamKindPowerDelta, PowerDelta: &PowerDeltaParams{
				Target: TargetSelf, Delta: 1,
			}},
		},
		{
			ID:          "witness",
			Name:        "Witness",
			Description: "Whenever any flip occurs anywhere, this card gains +1 power.",
			Moments:     []TriggerMoment{TriggerAnyOnFlip},
			Params: AbilityParams{Kind: ParamKindPowerDelta, PowerDelta: &PowerDeltaParams{
				Target: TargetSelf, Delta: 1,
			}},
		},
		{
			ID:          "scavenger",
			Name:        "Scavenger",
			Description: "While in hand, gains +1 power whenever any flip occurs.",
			Moments:     []TriggerMoment{TriggerHandOnFlip},
			Params: AbilityParams{Kind: ParamKindPowerDelta, PowerDelta: &PowerDeltaParams{
				Target: TargetSelf, Delta: 1,
			}},
		},
		{
			ID:          "forager",
			Name:        "Forager",
			Description: "While in hand, gains +1 power whenever its owner places a card.",
			Moments:     []TriggerMoment{TriggerHandOnPlace},
			Params: AbilityParams{Kind: ParamKindPowerDelta, PowerDelta: &PowerDeltaParams{
				Target: TargetSelf, Delta: 1,
			}},
		},
		{
			ID:          "sentry",
			Name:        "Sentry",
			Description: "Gains +1 power whenever another card is placed on the board.",
			Moments:     []TriggerMoment{TriggerBoardOnPlace},
			Params: AbilityParams{Kind: ParamKindPowerDelta, PowerDelta: &PowerDeltaParams{
				Target: TargetSelf, Delta: 1,
			}},
		},
		{
			ID:          "terraform",
			Name:        "Terraform",
			Description: "When placed, boosts its own tile for 2 of its owner's turns.",
			Moments:     []TriggerMoment{TriggerOnPlace},
			Params: AbilityParams{Kind: ParamKindTile, Tile: &TileParams{
				Status: "boosted", Target: TargetSelf, DurationTurns: 2,
			}},
		},
		{
			ID:          "blight",
			Name:        "Blight",
			Description: "When placed, drains adjacent enemy tiles for 2 of its owner's turns.",
			Moments:     []TriggerMoment{TriggerOnPlace},
			Params: AbilityParams{Kind: ParamKindTile, Tile: &TileParams{
				Status: "drained", Target: TargetAdjacentEnemies, DurationTurns: 2,
			}},
		},
		{
			ID:          "regenerator",
			Name:        "Regenerator",
			Description: "At the start of its owner's turn, gains +1 power.",
			Moments:     []TriggerMoment{TriggerOnTurnStart},
			Params: AbilityParams{Kind: ParamKindPowerDelta, PowerDelta: &PowerDeltaParams{
				Target: TargetSelf, Delta: 1,
			}},
		},
		{
			ID:          "entropy",
			Name:        "Entropy",
			Description: "At the end of its owner's turn, loses 1 power.",
			Moments:     []TriggerMoment{TriggerOnTurnEnd},
			Params: AbilityParams{Kind: ParamKindPowerDelta, PowerDelta: &PowerDeltaParams{
				Target: TargetSelf, Delta: -1,
			}},
		},
		{
			ID:          "aftermath",
			Name:        "Aftermath",
			Description: "After combat settles, gains +2 power.",
			Moments:     []TriggerMoment{TriggerAfterCombat},
			Params: AbilityParams{Kind: ParamKindPowerDelta, PowerDelta: &PowerDeltaParams{
				Target: TargetSelf, Delta: 2,
			}},
		},
	}

	for _, a := range abilities {
		if err := c.AddAbility(a); err != nil {
			return fmt.Errorf("seed ability: %w", err)
		}
	}

	cards := []*CardDefinition{
		{ID: "card-footman", Name: "Footman", Rarity: "common", BasePower: Power{Top: 3, Right: 4, Bottom: 3, Left: 4}},
		{ID: "card-archer", Name: "Archer", Rarity: "common", BasePower: Power{Top: 5, Right: 2, Bottom: 5, Left: 2}},
		{ID: "card-knight", Name: "Knight", Rarity: "rare", BasePower: Power{Top: 6, Right: 5, Bottom: 4, Left: 5}, AbilityID: "warcry"},
		{ID: "card-banner-guard", Name: "Banner Guard", Rarity: "rare", BasePower: Power{Top: 4, Right: 4, Bottom: 4, Left: 4}, AbilityID: "rally"},
		{ID: "card-dread-herald", Name: "Dread Herald", Rarity: "rare", BasePower: Power{Top: 5, Right: 3, Bottom: 5, Left: 3}, AbilityID: "intimidate"},
		{ID: "card-shieldbearer", Name: "Shieldbearer", Rarity: "rare", BasePower: Power{Top: 3, Right: 6, Bottom: 3, Left: 6}, AbilityID: "bulwark"},
		{ID: "card-stone-golem", Name: "Stone Golem", Rarity: "epic", BasePower: Power{Top: 4, Right: 4, Bottom: 4, Left: 4}, AbilityID: "anchor"},
		{ID: "card-hoplite", Name: "Hoplite", Rarity: "rare", BasePower: Power{Top: 4, Right: 5, Bottom: 4, Left: 5}, AbilityID: "phalanx"},
		{ID: "card-warlord", Name: "Warlord", Rarity: "epic", BasePower: Power{Top: 7, Right: 6, Bottom: 5, Left: 6}, AbilityID: "conqueror"},
		{ID: "card-tyrant", Name: "Tyrant", Rarity: "legendary", BasePower: Power{Top: 8, Right: 6, Bottom: 6, Left: 6}, AbilityID: "subjugate"},
		{ID: "card-martyr", Name: "Martyr", Rarity: "rare", BasePower: Power{Top: 2, Right: 3, Bottom: 2, Left: 3}, AbilityID: "avenger"},
		{ID: "card-vulture", Name: "Vulture", Rarity: "common", BasePower: Power{Top: 3, Right: 3, Bottom: 3, Left: 3}, AbilityID: "opportunist"},
		{ID: "card-chronicler", Name: "Chronicler", Rarity: "rare", BasePower: Power{Top: 3, Right: 4, Bottom: 3, Left: 4}, AbilityID: "witness"},
		{ID: "card-rat-king", Name: "Rat King", Rarity: "common", BasePower: Power{Top: 2, Right: 2, Bottom: 2, Left: 2}, AbilityID: "scavenger"},
		{ID: "card-gleaner", Name: "Gleaner", Rarity: "common", BasePower: Power{Top: 2, Right: 3, Bottom: 3, Left: 2}, AbilityID: "forager"},
		{ID: "card-watchtower", Name: "Watchtower", Rarity: "rare", BasePower: Power{Top: 5, Right: 5, Bottom: 5, Left: 5}, AbilityID: "sentry"},
		{ID: "card-druid", Name: "Druid", Rarity: "rare", BasePower: Power{Top: 4, Right: 3, Bottom: 4, Left: 3}, AbilityID: "terraform"},
		{ID: "card-plaguebearer", Name: "Plaguebearer", Rarity: "epic", BasePower: Power{Top: 4, Right: 4, Bottom: 3, Left: 3}, AbilityID: "blight"},
		{ID: "card-troll", Name: "Troll", Rarity: "epic", BasePower: Power{Top: 5, Right: 4, Bottom: 5, Left: 4}, AbilityID: "regenerator"},
		{ID: "card-wraith", Name: "Wraith", Rarity: "epic", BasePower: Power{Top: 7, Right: 7, Bottom: 7, Left: 7}, AbilityID: "entropy"},
		{ID: "card-duelist", Name: "Duelist", Rarity: "rare", BasePower: Power{Top: 5, Right: 5, Bottom: 4, Left: 4}, AbilityID: "aftermath"},
	}

	for _, card := range cards {
		if err := c.AddCard(card); err != nil {
			return fmt.Errorf("seed card: %w", err)
		}
	}

	return nil
}
