package game

import (
	"time"

	"github.com/gridclash/gridclash-server/internal/catalog"
)

// CardView is the nullable card object inside a board cell on the wire.
type CardView struct {
	InstanceID   string        `json:"instance_id"`
	Owner        string        `json:"owner"`
	CurrentPower catalog.Power `json:"current_power"`
	Level        int           `json:"level"`
	CardState    CardState     `json:"card_state"`
}

// CellView is one board cell on the wire.
type CellView struct {
	Card           *CardView      `json:"card"`
	TileStatus     TileStatus     `json:"tile_status"`
	TurnsLeft      map[string]int `json:"turns_left,omitempty"`
	AnimationLabel string         `json:"animation_label,omitempty"`
}

// PlayerView is one participant on the wire. The hand is only revealed to
// its owner; opponents see the count.
type PlayerView struct {
	UserID    string   `json:"user_id"`
	Hand      []string `json:"hand,omitempty"`
	HandCount int      `json:"hand_count"`
	DeckCount int      `json:"deck_count"`
	Discard   []string `json:"discard,omitempty"`
	Score     int      `json:"score"`
}

// GameView is the full game state snapshot on the wire. The hydrated card
// map ships alongside the board so clients never need a second round trip to
// render a cell.
type GameView struct {
	GameID        string                            `json:"game_id"`
	Mode          Mode                              `json:"mode"`
	Status        Status                            `json:"status"`
	TurnNumber    int                               `json:"turn_number"`
	CurrentPlayer string                            `json:"current_player"`
	Winner        *string                           `json:"winner"`
	Board         [BoardSize][BoardSize]CellView    `json:"board"`
	Players       []PlayerView                      `json:"players"`
	Hydrated      map[string]*HydratedCard          `json:"hydrated_card_data_cache"`
	Version       int64                             `json:"version"`
	CreatedAt     time.Time                         `json:"created_at"`
}

// View builds the wire representation for the requesting player. The view
// shares nothing with the live session: hydrated cards and tile counters are
// deep-copied, so callers may marshal it after the lock is released while
// the session keeps mutating.
func (s *Session) View(requestingPlayerID string) GameView {
	s.mu.RLock()
	defer s.mu.RUnlock()

	view := GameView{
		GameID:        s.ID,
		Mode:          s.Mode,
		Status:        s.state.Status,
		TurnNumber:    s.state.TurnNumber,
		CurrentPlayer: s.state.CurrentPlayer,
		Winner:        s.state.Winner,
		Hydrated:      s.cache.CloneSnapshot(),
		Version:       s.version,
		CreatedAt:     s.CreatedAt,
	}

	for r := 0; r < BoardSize; r++ {
		for c := 0; c < BoardSize; c++ {
			cell := &s.state.Board.Cells[r][c]
			cv := CellView{
				TileStatus:     cell.TileStatus,
				AnimationLabel: cell.AnimationLabel,
			}
			if len(cell.TurnsLeft) > 0 {
				cv.TurnsLeft = make(map[string]int, len(cell.TurnsLeft))
				for player, turns := range cell.TurnsLeft {
					cv.TurnsLeft[player] = turns
				}
			}
			if cell.Occupied() {
				if card, ok := s.cache.Peek(cell.InstanceID); ok {
					cv.Card = &CardView{
						InstanceID:   card.InstanceID,
						Owner:        cell.Owner,
						CurrentPower: card.EffectivePower(),
						Level:        card.Level,
						CardState:    card.State,
					}
				}
			}
			view.Board[r][c] = cv
		}
	}

	for _, id := range s.state.PlayerOrder {
		player := s.state.Players[id]
		pv := PlayerView{
			UserID:    id,
			HandCount: len(player.Hand),
			DeckCount: len(player.Deck),
			Score:     player.Score,
		}
		if id == requestingPlayerID {
			pv.Hand = append([]string(nil), player.Hand...)
			pv.Discard = append([]string(nil), player.Discard...)
		}
		view.Players = append(view.Players, pv)
	}

	return view
}
