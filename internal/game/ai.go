package game

import (
	"fmt"

	"github.com/gridclash/gridclash-server/internal/catalog"
)

// Difficulty selects the AI decision heuristic.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// ParseDifficulty normalizes a difficulty string, defaulting to medium.
func ParseDifficulty(s string) Difficulty {
	switch Difficulty(s) {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return Difficulty(s)
	default:
		return DifficultyMedium
	}
}

// DecideAction picks a placement for the AI player. The decision is a pure
// function of the committed state: hand cards and cells are scanned in fixed
// order and the first strictly best candidate wins, so the same state always
// produces the same move. The chosen action then runs through the identical
// turn controller path as a human action.
func (s *Session) DecideAction(aiPlayerID string, difficulty Difficulty) (Action, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	player, ok := s.state.Player(aiPlayerID)
	if !ok {
		return Action{}, fmt.Errorf("%w: player %s", ErrNotFound, aiPlayerID)
	}
	if len(player.Hand) == 0 || !s.state.Board.HasPlaceableCell() {
		return Action{Type: ActionEndTurn, PlayerID: aiPlayerID}, nil
	}

	var (
		best      Action
		bestScore = -1 << 30
		found     bool
	)

	for _, instanceID := range player.Hand {
		// Peek keeps the read path write-free; hand cards are hydrated
		// when drawn, so a miss only means hydration failed earlier.
		card, ok := s.cache.Peek(instanceID)
		if !ok {
			continue
		}
		for _, pos := range ScanPositions() {
			if !s.state.Board.Placeable(pos) {
				continue
			}
			if !found && difficulty == DifficultyEasy {
				p := pos
				return Action{
					Type:       ActionPlaceCard,
					PlayerID:   aiPlayerID,
					InstanceID: instanceID,
					Position:   &p,
				}, nil
			}

			score := s.evaluatePlacement(aiPlayerID, card, pos, difficulty)
			if score > bestScore {
				bestScore = score
				p := pos
				best = Action{
					Type:       ActionPlaceCard,
					PlayerID:   aiPlayerID,
					InstanceID: instanceID,
					Position:   &p,
				}
				found = true
			}
		}
	}

	if !found {
		return Action{Type: ActionEndTurn, PlayerID: aiPlayerID}, nil
	}
	return best, nil
}

// evaluatePlacement scores a candidate placement: immediate flips weigh
// positive; on hard, exposed weak sides weigh negative.
func (s *Session) evaluatePlacement(aiPlayerID string, card *HydratedCard, pos Position, difficulty Difficulty) int {
	power := card.EffectivePower()
	if delta := s.state.Board.TileDelta(pos); delta != 0 {
		power = power.AddAll(delta).ClampFloor()
	}

	score := 0
	for dir := DirUp; dir <= DirLeft; dir++ {
		npos, onBoard := pos.Neighbor(dir)
		if !onBoard {
			continue
		}
		cell := s.state.Board.At(npos)
		if cell.Occupied() {
			if cell.Owner == aiPlayerID {
				continue
			}
			defender, ok := s.cache.Peek(cell.InstanceID)
			if !ok {
				continue
			}
			defensePower := defender.EffectivePower()
			if d := s.state.Board.TileDelta(npos); d != 0 {
				defensePower = defensePower.AddAll(d).ClampFloor()
			}
			attackValue, defenseValue := facingSides(dir, power, defensePower)
			if attackValue > defenseValue {
				score += 10
			}
			continue
		}

		if difficulty == DifficultyHard && cell.TileStatus != TileBlocked && cell.TileStatus != TileRemoved {
			// Open adjacent cell: the side facing it can be attacked next
			// turn; weak sides cost.
			facing, _ := facingSides(dir, power, catalog.Power{})
			score -= (10 - facing)
		}
	}
	return score
}
