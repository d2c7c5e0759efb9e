package game

import (
	"errors"
	"testing"

	"github.com/gridclash/gridclash-server/internal/catalog"
)

func TestPlacementLoneCardNoCombat(t *testing.T) {
	h := NewSessionTestHarness(t, "lone-placement", []string{"plain-4"}, []string{"plain-4"})

	h.Place("alice", 0, 1, 1)

	h.AssertOwner(1, 1, "alice")
	h.AssertScore("alice", 1)
	h.AssertScore("bob", 0)
	h.AssertStatus(StatusActive)
}

func TestPlacementFlipRequiresStrictlyGreater(t *testing.T) {
	// Striker's bottom 5 faces the defender's top 4: strictly greater, flips.
	h := NewSessionTestHarness(t, "strict-flip", []string{"striker"}, []string{"plain-4"})

	h.EndTurn("alice")
	h.Place("bob", 0, 2, 1)
	h.EndTurn("bob")
	h.Place("alice", 0, 1, 1)

	h.AssertOwner(2, 1, "alice")
	h.AssertScore("alice", 2)
	h.AssertScore("bob", 0)
}

func TestPlacementTieNeverFlips(t *testing.T) {
	// 5 vs 5 on the facing sides: the defender stays.
	h := NewSessionTestHarness(t, "tie-no-flip", []string{"striker"}, []string{"plain-5"})

	h.EndTurn("alice")
	h.Place("bob", 0, 2, 1)
	h.EndTurn("bob")
	h.Place("alice", 0, 1, 1)

	h.AssertOwner(2, 1, "bob")
	h.AssertScore("alice", 1)
	h.AssertScore("bob", 1)
}

func TestPlacementValidationErrors(t *testing.T) {
	h := NewSessionTestHarness(t, "validation", []string{"plain-4", "plain-4"}, []string{"plain-4"})

	if err := h.TryPlace("alice", 0, 4, 0); !errors.Is(err, ErrValidation) {
		t.Fatalf("off-board placement: err = %v, want ErrValidation", err)
	}
	if err := h.TryPlace("alice", 7, 0, 0); !errors.Is(err, ErrIllegalMove) {
		t.Fatalf("card not in hand: err = %v, want ErrIllegalMove", err)
	}

	h.Place("alice", 0, 1, 1)
	if err := h.TryPlace("alice", 1, 1, 1); !errors.Is(err, ErrIllegalMove) {
		t.Fatalf("occupied cell: err = %v, want ErrIllegalMove", err)
	}
}

func TestFailedPlacementLeavesStateUntouched(t *testing.T) {
	h := NewSessionTestHarness(t, "atomic-reject", []string{"plain-4"}, []string{"plain-4"})

	before, version, err := h.sess.Snapshot()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}

	if err := h.TryPlace("alice", 0, -1, 0); err == nil {
		t.Fatal("expected placement to fail")
	}

	after, afterVersion, err := h.sess.Snapshot()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if version != afterVersion {
		t.Fatalf("version advanced on rejected action: %d -> %d", version, afterVersion)
	}
	if string(before) != string(after) {
		t.Fatal("state changed on rejected action")
	}
}

func TestWarcryBuffsSelfOnPlace(t *testing.T) {
	h := NewSessionTestHarness(t, "warcry", []string{"card-knight"}, []string{"plain-4"})

	h.Place("alice", 0, 0, 0)

	// Knight base (6,5,4,5) plus the on-place +1 on every side.
	h.AssertPower("alice", 0, catalog.Power{Top: 7, Right: 6, Bottom: 5, Left: 6})
}

func TestRallyBuffsAdjacentAlliesOnPlace(t *testing.T) {
	h := NewSessionTestHarness(t, "rally", []string{"plain-4", "card-banner-guard"}, []string{"plain-4"})

	h.Place("alice", 0, 1, 1)
	h.EndTurn("alice")
	h.Place("bob", 0, 3, 3)
	h.EndTurn("bob")
	h.Place("alice", 1, 1, 2)

	h.AssertPower("alice", 0, catalog.Power{}.AddAll(5))
	// The rally card itself is not an adjacent ally of itself.
	h.AssertPower("alice", 1, catalog.Power{}.AddAll(4))
}

func TestIntimidateWeakensDefenderBeforeCombat(t *testing.T) {
	// Dread Herald's top 5 would only tie plain-5's bottom 5; the pre-combat
	// -1 on adjacent enemies is what turns the tie into a flip.
	h := NewSessionTestHarness(t, "intimidate", []string{"card-dread-herald"}, []string{"plain-5"})

	h.EndTurn("alice")
	h.Place("bob", 0, 1, 1)
	h.EndTurn("bob")
	h.Place("alice", 0, 2, 1)

	h.AssertOwner(1, 1, "alice")
	// The debuff is turn-bounded, not permanent.
	card := h.Card("bob", 0)
	if len(card.Modifiers) != 1 || card.Modifiers[0].TurnsLeft != 1 {
		t.Fatalf("intimidate modifier = %+v, want one modifier with 1 turn left", card.Modifiers)
	}
}

func TestBulwarkRaisesDefenseToTie(t *testing.T) {
	// Shieldbearer's top is 3; bulwark adds 2 while defending, so striker's
	// bottom 5 only ties and the flip is denied.
	h := NewSessionTestHarness(t, "bulwark", []string{"striker"}, []string{"card-shieldbearer"})

	h.EndTurn("alice")
	h.Place("bob", 0, 1, 1)
	h.EndTurn("bob")
	h.Place("alice", 0, 0, 1)

	h.AssertOwner(1, 1, "bob")
}

func TestAnchorPreventsFlipOutright(t *testing.T) {
	// Stone Golem loses the numeric comparison (4 vs 5) but the explicit
	// prevent wins over the numbers.
	h := NewSessionTestHarness(t, "anchor", []string{"striker"}, []string{"card-stone-golem"})

	h.EndTurn("alice")
	h.Place("bob", 0, 1, 1)
	h.EndTurn("bob")
	h.Place("alice", 0, 0, 1)

	h.AssertOwner(1, 1, "bob")
	h.AssertScore("alice", 1)
	h.AssertScore("bob", 1)
}

func TestPhalanxRaisesAlliedDefense(t *testing.T) {
	// Hoplite stands elsewhere on the board; its ally defends with +1, so
	// striker's 5 vs plain-4's 4+1 ties and nothing flips.
	h := NewSessionTestHarness(t, "phalanx", []string{"striker"}, []string{"card-hoplite", "plain-4"})

	h.EndTurn("alice")
	h.Place("bob", 0, 3, 3)
	h.EndTurn("bob")
	h.EndTurn("alice")
	h.Place("bob", 1, 1, 1)
	h.EndTurn("bob")
	h.Place("alice", 0, 0, 1)

	h.AssertOwner(1, 1, "bob")
}

func TestChainPropagation(t *testing.T) {
	// Warlord flips the card above it; the conquered card immediately battles
	// its own neighbors and captures the weaker card beyond.
	h := NewSessionTestHarness(t, "chain", []string{"plain-4", "card-warlord"}, []string{"plain-4", "weak-3"})

	h.Place("alice", 0, 3, 3)
	h.EndTurn("alice")
	h.Place("bob", 0, 1, 1)
	h.EndTurn("bob")
	h.EndTurn("alice")
	h.Place("bob", 1, 0, 1)
	h.EndTurn("bob")
	h.Place("alice", 1, 2, 1)

	h.AssertOwner(1, 1, "alice") // direct flip: warlord top 7 vs 4
	h.AssertOwner(0, 1, "alice") // chain flip: conquered 4 vs weak 3
	h.AssertScore("alice", 4)
	h.AssertScore("bob", 0)
}

func TestSubjugateConvertsOwnershipPermanently(t *testing.T) {
	h := NewSessionTestHarness(t, "subjugate", []string{"card-tyrant"}, []string{"plain-4"})

	h.EndTurn("alice")
	h.Place("bob", 0, 1, 1)
	h.EndTurn("bob")
	h.Place("alice", 0, 2, 1)

	h.AssertOwner(1, 1, "alice")
	if owner := h.Card("bob", 0).OwnerID; owner != "alice" {
		t.Fatalf("converted card owner = %q, want alice", owner)
	}
}

func TestFlipListenersFireForBoardAndHand(t *testing.T) {
	// Chronicler (witness) watches from the board, Rat King (scavenger)
	// listens from Alice's hand; both gain +1 when the flip lands.
	h := NewSessionTestHarness(t, "flip-listeners",
		[]string{"striker", "card-rat-king"},
		[]string{"card-chronicler", "plain-4"})

	h.EndTurn("alice")
	h.Place("bob", 0, 3, 3)
	h.EndTurn("bob")
	h.EndTurn("alice")
	h.Place("bob", 1, 1, 1)
	h.EndTurn("bob")
	h.Place("alice", 0, 0, 1)

	h.AssertOwner(1, 1, "alice")
	h.AssertPower("bob", 0, catalog.Power{Top: 4, Right: 5, Bottom: 4, Left: 5})
	h.AssertPower("alice", 1, catalog.Power{}.AddAll(3))
}

func TestAftermathBuffsAfterCombatSettles(t *testing.T) {
	h := NewSessionTestHarness(t, "aftermath", []string{"card-duelist"}, []string{"plain-4"})

	h.Place("alice", 0, 1, 1)

	// Duelist base (5,5,4,4) plus the post-combat +2.
	h.AssertPower("alice", 0, catalog.Power{Top: 7, Right: 7, Bottom: 6, Left: 6})
}

func TestBoostedTileShiftsCombat(t *testing.T) {
	// Druid boosts its own tile on placement, so its top counts 4+1 and the
	// later attack from plain-5's bottom 5 only ties.
	h := NewSessionTestHarness(t, "boosted-tile", []string{"card-druid"}, []string{"plain-5"})

	h.Place("alice", 0, 1, 1)
	h.EndTurn("alice")
	h.Place("bob", 0, 0, 1)

	h.AssertOwner(1, 1, "alice")
	if status := h.Cell(1, 1).TileStatus; status != TileBoosted {
		t.Fatalf("tile status = %q, want boosted", status)
	}
}
