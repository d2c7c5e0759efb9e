package game

import (
	"fmt"
	"testing"

	"github.com/gridclash/gridclash-server/internal/catalog"
	"go.uber.org/zap/zaptest"
)

// Plain card definitions used by tests that need exact directional values
// without ability noise.
var testDefinitions = []*catalog.CardDefinition{
	{ID: "plain-4", Name: "Plain Four", Rarity: "common", BasePower: catalog.Power{Top: 4, Right: 4, Bottom: 4, Left: 4}},
	{ID: "plain-5", Name: "Plain Five", Rarity: "common", BasePower: catalog.Power{Top: 5, Right: 5, Bottom: 5, Left: 5}},
	{ID: "weak-3", Name: "Weak Three", Rarity: "common", BasePower: catalog.Power{Top: 3, Right: 3, Bottom: 3, Left: 3}},
	{ID: "striker", Name: "Striker", Rarity: "common", BasePower: catalog.Power{Top: 1, Right: 1, Bottom: 5, Left: 1}},
}

// newTestCatalog builds a catalog with the built-in content set plus the
// plain test definitions.
func newTestCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()

	cat := catalog.New(nil)
	if err := catalog.Seed(cat); err != nil {
		t.Fatalf("failed to seed catalog: %v", err)
	}
	for _, def := range testDefinitions {
		if err := cat.AddCard(def); err != nil {
			t.Fatalf("failed to add test card %s: %v", def.ID, err)
		}
	}
	return cat
}

// testSetups builds two player setups with instance ids <player>-<index>.
func testSetups(deckAlice, deckBob []string) []PlayerSetup {
	build := func(userID string, defs []string) PlayerSetup {
		setup := PlayerSetup{UserID: userID}
		for i, defID := range defs {
			setup.Instances = append(setup.Instances, &CardInstance{
				ID:           fmt.Sprintf("%s-%d", userID, i),
				OwnerID:      userID,
				DefinitionID: defID,
				Level:        1,
			})
		}
		return setup
	}
	return []PlayerSetup{build("alice", deckAlice), build("bob", deckBob)}
}

// SessionTestHarness wires a catalog, ability engine and session for
// scripted placement scenarios. Alice always moves first.
type SessionTestHarness struct {
	t    *testing.T
	cat  *catalog.Catalog
	sess *Session
}

// NewSessionTestHarness starts an active session from the two deck lists.
func NewSessionTestHarness(t *testing.T, gameID string, deckAlice, deckBob []string) *SessionTestHarness {
	t.Helper()

	cat := newTestCatalog(t)
	abilities := NewAbilityEngine(cat, zaptest.NewLogger(t))

	sess, err := NewSession(gameID, ModePvP, testSetups(deckAlice, deckBob), 5, cat, abilities, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("failed to create session: %v", err)
	}
	if err := sess.Start(); err != nil {
		t.Fatalf("failed to start session: %v", err)
	}

	return &SessionTestHarness{t: t, cat: cat, sess: sess}
}

// Place plays <player>-<index> at (row, col) and fails the test on error.
func (h *SessionTestHarness) Place(player string, index, row, col int) {
	h.t.Helper()
	if err := h.TryPlace(player, index, row, col); err != nil {
		h.t.Fatalf("%s failed to place card %d at (%d,%d): %v", player, index, row, col, err)
	}
}

// TryPlace plays a card and returns the error for negative-path assertions.
func (h *SessionTestHarness) TryPlace(player string, index, row, col int) error {
	return h.sess.Apply(Action{
		Type:       ActionPlaceCard,
		PlayerID:   player,
		InstanceID: fmt.Sprintf("%s-%d", player, index),
		Position:   &Position{Row: row, Col: col},
	})
}

// EndTurn ends the player's turn and fails the test on error.
func (h *SessionTestHarness) EndTurn(player string) {
	h.t.Helper()
	if err := h.sess.Apply(Action{Type: ActionEndTurn, PlayerID: player}); err != nil {
		h.t.Fatalf("%s failed to end turn: %v", player, err)
	}
}

// Surrender concedes for the player.
func (h *SessionTestHarness) Surrender(player string) {
	h.t.Helper()
	if err := h.sess.Apply(Action{Type: ActionSurrender, PlayerID: player}); err != nil {
		h.t.Fatalf("%s failed to surrender: %v", player, err)
	}
}

// Card returns the hydrated card for <player>-<index>.
func (h *SessionTestHarness) Card(player string, index int) *HydratedCard {
	h.t.Helper()
	card, err := h.sess.cache.Get(fmt.Sprintf("%s-%d", player, index))
	if err != nil {
		h.t.Fatalf("failed to hydrate %s-%d: %v", player, index, err)
	}
	return card
}

// Cell returns the board cell at (row, col).
func (h *SessionTestHarness) Cell(row, col int) *Cell {
	return h.sess.state.Board.At(Position{Row: row, Col: col})
}

// AssertOwner fails unless the cell at (row, col) is owned by player.
func (h *SessionTestHarness) AssertOwner(row, col int, player string) {
	h.t.Helper()
	cell := h.Cell(row, col)
	if cell.Owner != player {
		h.t.Fatalf("cell (%d,%d): owner = %q, want %q", row, col, cell.Owner, player)
	}
}

// AssertScore fails unless the player's committed score matches.
func (h *SessionTestHarness) AssertScore(player string, want int) {
	h.t.Helper()
	got := h.sess.state.Players[player].Score
	if got != want {
		h.t.Fatalf("score for %s = %d, want %d", player, got, want)
	}
}

// AssertStatus fails unless the session status matches.
func (h *SessionTestHarness) AssertStatus(want Status) {
	h.t.Helper()
	if got := h.sess.Status(); got != want {
		h.t.Fatalf("status = %q, want %q", got, want)
	}
}

// AssertPower fails unless the card's effective power matches on all sides.
func (h *SessionTestHarness) AssertPower(player string, index int, want catalog.Power) {
	h.t.Helper()
	got := h.Card(player, index).EffectivePower()
	if got != want {
		h.t.Fatalf("effective power of %s-%d = %+v, want %+v", player, index, got, want)
	}
}
