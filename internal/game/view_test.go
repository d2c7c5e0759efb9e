package game

import (
	"encoding/json"
	"testing"

	"github.com/gridclash/gridclash-server/internal/catalog"
	"github.com/stretchr/testify/require"
)

func TestViewIsIsolatedFromLaterMutations(t *testing.T) {
	h := NewSessionTestHarness(t, "view-isolation", []string{"card-troll", "card-druid", "plain-4"}, []string{"plain-4", "plain-4"})

	// Troll on the board, then capture a view before any regeneration.
	h.Place("alice", 0, 1, 1)
	before := h.sess.View("alice")
	require.Equal(t, catalog.Power{Top: 5, Right: 4, Bottom: 5, Left: 4},
		before.Hydrated["alice-0"].EffectivePower())

	// A full turn cycle regenerates the troll at alice's turn start.
	h.EndTurn("alice")
	h.EndTurn("bob")
	h.AssertPower("alice", 0, catalog.Power{Top: 6, Right: 5, Bottom: 6, Left: 5})

	// The earlier view still shows the pre-regeneration card.
	require.Equal(t, catalog.Power{Top: 5, Right: 4, Bottom: 5, Left: 4},
		before.Hydrated["alice-0"].EffectivePower())
	require.Empty(t, before.Hydrated["alice-0"].Modifiers)

	// Druid boosts its own tile for 2 of alice's turns; a view taken at
	// placement must keep showing 2 after the live counter ticks down.
	h.Place("alice", 1, 0, 0)
	placed := h.sess.View("alice")
	require.Equal(t, 2, placed.Board[0][0].TurnsLeft["alice"])

	h.EndTurn("alice")
	require.Equal(t, 1, h.Cell(0, 0).TurnsLeft["alice"])
	require.Equal(t, 2, placed.Board[0][0].TurnsLeft["alice"])
}

func TestViewMarshalSafeDuringConcurrentActions(t *testing.T) {
	h := NewSessionTestHarness(t, "view-marshal", []string{"card-troll", "plain-4", "plain-4"}, []string{"plain-4", "plain-4"})

	h.Place("alice", 0, 1, 1)
	view := h.sess.View("")

	// Marshal the captured view repeatedly while turn cycles keep mutating
	// the live troll and tile counters underneath.
	done := make(chan error, 1)
	go func() {
		for i := 0; i < 200; i++ {
			if _, err := json.Marshal(view); err != nil {
				done <- err
				return
			}
		}
		done <- nil
	}()

	for i := 0; i < 50; i++ {
		h.EndTurn("alice")
		h.EndTurn("bob")
	}

	require.NoError(t, <-done)
}
