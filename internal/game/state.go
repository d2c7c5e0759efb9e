package game

import (
	"encoding/json"
	"fmt"
)

// Status is the lifecycle state of a game. Transitions are monotonic:
// pending -> active -> {completed, aborted}.
type Status string

const (
	StatusPending   Status = "pending"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusAborted   Status = "aborted"
)

// Mode distinguishes solo (vs AI) from player-vs-player games.
type Mode string

const (
	ModeSolo Mode = "solo"
	ModePvP  Mode = "pvp"
)

// PlayerState tracks one participant inside a game.
type PlayerState struct {
	UserID  string   `json:"user_id"`
	Hand    []string `json:"hand"`
	Deck    []string `json:"deck"`
	Discard []string `json:"discard"`
	Score   int      `json:"score"`
}

// HasInHand reports whether the instance is in the player's hand.
func (p *PlayerState) HasInHand(instanceID string) bool {
	for _, id := range p.Hand {
		if id == instanceID {
			return true
		}
	}
	return false
}

// RemoveFromHand removes the instance from the hand, preserving order.
func (p *PlayerState) RemoveFromHand(instanceID string) bool {
	for i, id := range p.Hand {
		if id == instanceID {
			p.Hand = append(p.Hand[:i], p.Hand[i+1:]...)
			return true
		}
	}
	return false
}

// GameState is the authoritative, serializable state of one game session.
// The hydrated card map is included so a persisted snapshot carries all
// session-local modifiers.
type GameState struct {
	Board         *Board                   `json:"board"`
	Players       map[string]*PlayerState  `json:"players"`
	PlayerOrder   []string                 `json:"player_order"`
	TurnNumber    int                      `json:"turn_number"`
	CurrentPlayer string                   `json:"current_player"`
	Status        Status                   `json:"status"`
	Winner        *string                  `json:"winner"`
	Hydrated      map[string]*HydratedCard `json:"hydrated_card_data_cache"`
}

// Player returns the state for the given user id.
func (gs *GameState) Player(userID string) (*PlayerState, bool) {
	p, ok := gs.Players[userID]
	return p, ok
}

// Opponent returns the other participant's user id.
func (gs *GameState) Opponent(userID string) string {
	for _, id := range gs.PlayerOrder {
		if id != userID {
			return id
		}
	}
	return ""
}

// RecomputeScores recounts each player's owned cells from the board.
func (gs *GameState) RecomputeScores() {
	for _, id := range gs.PlayerOrder {
		gs.Players[id].Score = gs.Board.ScoreFor(id)
	}
}

// Marshal serializes the state to canonical JSON. Map keys are emitted in
// sorted order, so identical states produce byte-identical output.
func (gs *GameState) Marshal() ([]byte, error) {
	data, err := json.Marshal(gs)
	if err != nil {
		return nil, fmt.Errorf("marshal game state: %w", err)
	}
	return data, nil
}

// UnmarshalGameState rebuilds a state from a persisted snapshot.
func UnmarshalGameState(data []byte) (*GameState, error) {
	var gs GameState
	if err := json.Unmarshal(data, &gs); err != nil {
		return nil, fmt.Errorf("unmarshal game state: %w", err)
	}
	return &gs, nil
}
