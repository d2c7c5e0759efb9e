package game

import (
	"fmt"

	"github.com/gridclash/gridclash-server/internal/catalog"
)

// BoardSize is the fixed side length of the square board.
const BoardSize = 4

// TileStatus is a modifier applied to a board cell itself, independent of
// any card occupying it.
type TileStatus string

const (
	TileNormal  TileStatus = "normal"
	TileBlocked TileStatus = "blocked"
	TileRemoved TileStatus = "removed"
	TileBoosted TileStatus = "boosted"
	TileDrained TileStatus = "drained"
)

// Tile power deltas applied to any card occupying the tile while the owning
// player's counter is above zero.
const (
	boostedTileDelta = 1
	drainedTileDelta = -1
)

// Position addresses one of the 16 board cells.
type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Valid reports whether the position is on the board.
func (p Position) Valid() bool {
	return p.Row >= 0 && p.Row < BoardSize && p.Col >= 0 && p.Col < BoardSize
}

func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.Row, p.Col)
}

// Direction identifies one of the four cardinal neighbors.
type Direction int

const (
	DirUp Direction = iota
	DirRight
	DirDown
	DirLeft
)

var directionOffsets = [4]Position{
	DirUp:    {Row: -1, Col: 0},
	DirRight: {Row: 0, Col: 1},
	DirDown:  {Row: 1, Col: 0},
	DirLeft:  {Row: 0, Col: -1},
}

// Neighbor returns the adjacent position in the given direction and whether
// it lies on the board. No wraparound.
func (p Position) Neighbor(dir Direction) (Position, bool) {
	offset := directionOffsets[dir]
	next := Position{Row: p.Row + offset.Row, Col: p.Col + offset.Col}
	return next, next.Valid()
}

// Cell is one board position: at most one card reference plus tile effect
// bookkeeping. AnimationLabel is display-only and never read by the resolver.
type Cell struct {
	InstanceID string     `json:"instance_id,omitempty"`
	Owner      string     `json:"owner,omitempty"`
	TileStatus TileStatus `json:"tile_status"`
	// TurnsLeft counts remaining turns of the tile effect per owning
	// player; each counter decrements once per that player's endTurn.
	TurnsLeft      map[string]int `json:"turns_left,omitempty"`
	AnimationLabel string         `json:"animation_label,omitempty"`
}

// Occupied reports whether a card sits on the cell.
func (c *Cell) Occupied() bool {
	return c.InstanceID != ""
}

// Board holds the authoritative 4x4 grid.
type Board struct {
	Cells [BoardSize][BoardSize]Cell `json:"cells"`
}

// NewBoard creates an empty board with all tiles normal.
func NewBoard() *Board {
	b := &Board{}
	for r := 0; r < BoardSize; r++ {
		for c := 0; c < BoardSize; c++ {
			b.Cells[r][c].TileStatus = TileNormal
		}
	}
	return b
}

// At returns the cell at the given position.
func (b *Board) At(pos Position) *Cell {
	return &b.Cells[pos.Row][pos.Col]
}

// Place puts the card instance on the cell. The caller is responsible for
// legality checks.
func (b *Board) Place(pos Position, instanceID, owner string) {
	cell := b.At(pos)
	cell.InstanceID = instanceID
	cell.Owner = owner
}

// Placeable reports whether a card may be placed on the cell: it must be
// empty and the tile must allow placement.
func (b *Board) Placeable(pos Position) bool {
	if !pos.Valid() {
		return false
	}
	cell := b.At(pos)
	if cell.Occupied() {
		return false
	}
	return cell.TileStatus != TileBlocked && cell.TileStatus != TileRemoved
}

// SetTileEffect applies a boosted or drained status owned by player for the
// given number of that player's turns. An existing effect on the cell is
// replaced.
func (b *Board) SetTileEffect(pos Position, status TileStatus, player string, turns int) {
	cell := b.At(pos)
	cell.TileStatus = status
	cell.TurnsLeft = map[string]int{player: turns}
}

// TickTileEffects decrements the tile counters belonging to player and
// reverts expired boosted/drained tiles to normal. Called once per that
// player's endTurn.
func (b *Board) TickTileEffects(player string) {
	for r := 0; r < BoardSize; r++ {
		for c := 0; c < BoardSize; c++ {
			cell := &b.Cells[r][c]
			remaining, ok := cell.TurnsLeft[player]
			if !ok {
				continue
			}
			remaining--
			if remaining > 0 {
				cell.TurnsLeft[player] = remaining
				continue
			}
			delete(cell.TurnsLeft, player)
			if len(cell.TurnsLeft) == 0 {
				cell.TurnsLeft = nil
				if cell.TileStatus == TileBoosted || cell.TileStatus == TileDrained {
					cell.TileStatus = TileNormal
				}
			}
		}
	}
}

// TileDelta returns the power delta the tile applies to any occupying card.
func (b *Board) TileDelta(pos Position) int {
	switch b.At(pos).TileStatus {
	case TileBoosted:
		return boostedTileDelta
	case TileDrained:
		return drainedTileDelta
	default:
		return 0
	}
}

// RemoveTile marks the tile removed and evicts any occupant. The evicted
// instance id is returned so the caller can discard it.
func (b *Board) RemoveTile(pos Position) (evicted string) {
	cell := b.At(pos)
	evicted = cell.InstanceID
	cell.InstanceID = ""
	cell.Owner = ""
	cell.TileStatus = TileRemoved
	cell.TurnsLeft = nil
	return evicted
}

// OccupiedCount returns how many cells hold a card.
func (b *Board) OccupiedCount() int {
	count := 0
	for r := 0; r < BoardSize; r++ {
		for c := 0; c < BoardSize; c++ {
			if b.Cells[r][c].Occupied() {
				count++
			}
		}
	}
	return count
}

// Full reports whether every playable cell holds a card. Removed tiles can
// never hold a card, so they count as filled for the terminal check.
func (b *Board) Full() bool {
	for r := 0; r < BoardSize; r++ {
		for c := 0; c < BoardSize; c++ {
			cell := &b.Cells[r][c]
			if !cell.Occupied() && cell.TileStatus != TileRemoved {
				return false
			}
		}
	}
	return true
}

// ScoreFor recomputes the player's score as a count over the board. Scores
// are never tracked incrementally, avoiding drift.
func (b *Board) ScoreFor(player string) int {
	score := 0
	for r := 0; r < BoardSize; r++ {
		for c := 0; c < BoardSize; c++ {
			if b.Cells[r][c].Owner == player {
				score++
			}
		}
	}
	return score
}

// HasPlaceableCell reports whether at least one cell accepts a placement.
func (b *Board) HasPlaceableCell() bool {
	for r := 0; r < BoardSize; r++ {
		for c := 0; c < BoardSize; c++ {
			if b.Placeable(Position{Row: r, Col: c}) {
				return true
			}
		}
	}
	return false
}

// ScanPositions returns all board positions in row-major order with column
// tie-break, the canonical deterministic evaluation order.
func ScanPositions() []Position {
	positions := make([]Position, 0, BoardSize*BoardSize)
	for r := 0; r < BoardSize; r++ {
		for c := 0; c < BoardSize; c++ {
			positions = append(positions, Position{Row: r, Col: c})
		}
	}
	return positions
}

// facingSides maps the attacker's direction of attack to the attacking side
// and the defender's opposing side.
func facingSides(dir Direction, attacker, defender catalog.Power) (attackValue, defenseValue int) {
	switch dir {
	case DirUp:
		return attacker.Top, defender.Bottom
	case DirRight:
		return attacker.Right, defender.Left
	case DirDown:
		return attacker.Bottom, defender.Top
	default:
		return attacker.Left, defender.Right
	}
}
