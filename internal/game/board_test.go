package game

import (
	"testing"

	"github.com/gridclash/gridclash-server/internal/catalog"
)

func TestPositionNeighborNoWraparound(t *testing.T) {
	cases := []struct {
		pos     Position
		dir     Direction
		want    Position
		onBoard bool
	}{
		{Position{0, 0}, DirUp, Position{-1, 0}, false},
		{Position{0, 0}, DirLeft, Position{0, -1}, false},
		{Position{3, 3}, DirDown, Position{4, 3}, false},
		{Position{3, 3}, DirRight, Position{3, 4}, false},
		{Position{1, 1}, DirUp, Position{0, 1}, true},
		{Position{1, 1}, DirRight, Position{1, 2}, true},
		{Position{1, 1}, DirDown, Position{2, 1}, true},
		{Position{1, 1}, DirLeft, Position{1, 0}, true},
	}

	for _, tc := range cases {
		got, onBoard := tc.pos.Neighbor(tc.dir)
		if got != tc.want || onBoard != tc.onBoard {
			t.Errorf("Neighbor(%v, %d) = %v, %t; want %v, %t", tc.pos, tc.dir, got, onBoard, tc.want, tc.onBoard)
		}
	}
}

func TestPlaceable(t *testing.T) {
	b := NewBoard()

	if !b.Placeable(Position{1, 1}) {
		t.Fatal("empty normal cell should be placeable")
	}

	b.Place(Position{1, 1}, "inst-1", "alice")
	if b.Placeable(Position{1, 1}) {
		t.Fatal("occupied cell should not be placeable")
	}

	b.At(Position{2, 2}).TileStatus = TileBlocked
	if b.Placeable(Position{2, 2}) {
		t.Fatal("blocked cell should not be placeable")
	}

	b.RemoveTile(Position{3, 3})
	if b.Placeable(Position{3, 3}) {
		t.Fatal("removed cell should not be placeable")
	}

	if b.Placeable(Position{Row: 4, Col: 0}) {
		t.Fatal("off-board position should not be placeable")
	}
}

func TestTileEffectsTickPerPlayer(t *testing.T) {
	b := NewBoard()
	pos := Position{1, 1}
	b.SetTileEffect(pos, TileBoosted, "alice", 2)

	// Bob's end of turn must not touch Alice's counter.
	b.TickTileEffects("bob")
	if b.At(pos).TileStatus != TileBoosted || b.At(pos).TurnsLeft["alice"] != 2 {
		t.Fatalf("bob's tick changed alice's effect: %+v", b.At(pos))
	}

	b.TickTileEffects("alice")
	if b.At(pos).TurnsLeft["alice"] != 1 {
		t.Fatalf("after first alice tick: turns left = %d, want 1", b.At(pos).TurnsLeft["alice"])
	}
	if b.At(pos).TileStatus != TileBoosted {
		t.Fatal("effect expired one turn early")
	}

	b.TickTileEffects("alice")
	if b.At(pos).TileStatus != TileNormal {
		t.Fatalf("after second alice tick: status = %q, want normal", b.At(pos).TileStatus)
	}
	if b.At(pos).TurnsLeft != nil {
		t.Fatal("expired effect left a counter behind")
	}
}

func TestTileDelta(t *testing.T) {
	b := NewBoard()
	b.At(Position{0, 0}).TileStatus = TileBoosted
	b.At(Position{0, 1}).TileStatus = TileDrained

	if got := b.TileDelta(Position{0, 0}); got != 1 {
		t.Errorf("boosted delta = %d, want 1", got)
	}
	if got := b.TileDelta(Position{0, 1}); got != -1 {
		t.Errorf("drained delta = %d, want -1", got)
	}
	if got := b.TileDelta(Position{0, 2}); got != 0 {
		t.Errorf("normal delta = %d, want 0", got)
	}
}

func TestBoardFullCountsRemovedTiles(t *testing.T) {
	b := NewBoard()
	b.RemoveTile(Position{0, 0})

	for r := 0; r < BoardSize; r++ {
		for c := 0; c < BoardSize; c++ {
			if r == 0 && c == 0 {
				continue
			}
			b.Place(Position{r, c}, "inst", "alice")
		}
	}

	if !b.Full() {
		t.Fatal("board with all placeable cells occupied should be full despite a removed tile")
	}
	if b.OccupiedCount() != 15 {
		t.Fatalf("occupied count = %d, want 15", b.OccupiedCount())
	}
}

func TestRemoveTileEvictsOccupant(t *testing.T) {
	b := NewBoard()
	b.Place(Position{2, 2}, "inst-7", "bob")

	evicted := b.RemoveTile(Position{2, 2})
	if evicted != "inst-7" {
		t.Fatalf("evicted = %q, want inst-7", evicted)
	}
	if b.At(Position{2, 2}).Occupied() {
		t.Fatal("removed tile still occupied")
	}
}

func TestScoreForRecount(t *testing.T) {
	b := NewBoard()
	b.Place(Position{0, 0}, "a1", "alice")
	b.Place(Position{0, 1}, "a2", "alice")
	b.Place(Position{3, 3}, "b1", "bob")

	if got := b.ScoreFor("alice"); got != 2 {
		t.Errorf("alice score = %d, want 2", got)
	}
	if got := b.ScoreFor("bob"); got != 1 {
		t.Errorf("bob score = %d, want 1", got)
	}

	// A flip is just an owner change; the recount must follow it.
	b.At(Position{0, 1}).Owner = "bob"
	if got := b.ScoreFor("bob"); got != 2 {
		t.Errorf("bob score after flip = %d, want 2", got)
	}
}

func TestScanPositionsRowMajor(t *testing.T) {
	positions := ScanPositions()
	if len(positions) != 16 {
		t.Fatalf("scan count = %d, want 16", len(positions))
	}
	for i, pos := range positions {
		want := Position{Row: i / BoardSize, Col: i % BoardSize}
		if pos != want {
			t.Fatalf("scan[%d] = %v, want %v", i, pos, want)
		}
	}
}

func TestFacingSides(t *testing.T) {
	attacker := catalog.Power{Top: 1, Right: 2, Bottom: 3, Left: 4}
	defender := catalog.Power{Top: 5, Right: 6, Bottom: 7, Left: 8}

	cases := []struct {
		dir          Direction
		attack, defs int
	}{
		{DirUp, 1, 7},    // attacker's top vs defender's bottom
		{DirRight, 2, 8}, // attacker's right vs defender's left
		{DirDown, 3, 5},  // attacker's bottom vs defender's top
		{DirLeft, 4, 6},  // attacker's left vs defender's right
	}
	for _, tc := range cases {
		attack, defense := facingSides(tc.dir, attacker, defender)
		if attack != tc.attack || defense != tc.defs {
			t.Errorf("facingSides(%d) = %d,%d; want %d,%d", tc.dir, attack, defense, tc.attack, tc.defs)
		}
	}
}
