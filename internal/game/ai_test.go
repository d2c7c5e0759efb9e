package game

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseDifficulty(t *testing.T) {
	require.Equal(t, DifficultyEasy, ParseDifficulty("easy"))
	require.Equal(t, DifficultyHard, ParseDifficulty("hard"))
	require.Equal(t, DifficultyMedium, ParseDifficulty(""))
	require.Equal(t, DifficultyMedium, ParseDifficulty("nightmare"))
}

func TestAIEasyPicksFirstLegalPlacement(t *testing.T) {
	h := NewSessionTestHarness(t, "ai-easy", []string{"plain-4", "plain-5"}, []string{"plain-4"})

	action, err := h.sess.DecideAction("alice", DifficultyEasy)
	require.NoError(t, err)
	require.Equal(t, ActionPlaceCard, action.Type)
	require.Equal(t, "alice-0", action.InstanceID)
	require.Equal(t, Position{Row: 0, Col: 0}, *action.Position)
}

func TestAIMediumPrefersImmediateFlip(t *testing.T) {
	// Bob holds (1,1); the striker's bottom 5 beats its top 4 only from
	// (0,1), so that placement outscores every non-flipping candidate.
	h := NewSessionTestHarness(t, "ai-medium", []string{"plain-4", "striker"}, []string{"plain-4"})

	h.EndTurn("alice")
	h.Place("bob", 0, 1, 1)
	h.EndTurn("bob")

	action, err := h.sess.DecideAction("alice", DifficultyMedium)
	require.NoError(t, err)
	require.Equal(t, ActionPlaceCard, action.Type)
	require.Equal(t, "alice-1", action.InstanceID)
	require.Equal(t, Position{Row: 0, Col: 1}, *action.Position)
}

func TestAIDecisionIsDeterministic(t *testing.T) {
	h := NewSessionTestHarness(t, "ai-deterministic", []string{"plain-4", "striker", "plain-5"}, []string{"plain-4", "weak-3"})

	h.EndTurn("alice")
	h.Place("bob", 0, 2, 2)
	h.EndTurn("bob")

	for _, difficulty := range []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard} {
		first, err := h.sess.DecideAction("alice", difficulty)
		require.NoError(t, err)
		second, err := h.sess.DecideAction("alice", difficulty)
		require.NoError(t, err)
		require.Equal(t, first, second, "difficulty %s", difficulty)
	}
}

func TestAIEndsTurnWithEmptyHand(t *testing.T) {
	h := NewSessionTestHarness(t, "ai-empty-hand", []string{"plain-4"}, []string{"plain-4"})

	h.Place("alice", 0, 0, 0) // control auto-advances to bob

	action, err := h.sess.DecideAction("alice", DifficultyMedium)
	require.NoError(t, err)
	require.Equal(t, ActionEndTurn, action.Type)
}

func TestAIHardAvoidsExposingWeakSides(t *testing.T) {
	// The striker's three weak sides cost against open neighbors on hard, so
	// the corner placement (two open neighbors) beats the center (four).
	h := NewSessionTestHarness(t, "ai-hard", []string{"striker"}, []string{"plain-4"})

	action, err := h.sess.DecideAction("alice", DifficultyHard)
	require.NoError(t, err)
	require.Equal(t, ActionPlaceCard, action.Type)
	require.Equal(t, Position{Row: 0, Col: 0}, *action.Position)
}
