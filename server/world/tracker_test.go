package world

import (
	"math/rand"
	"testing"

	"github.com/google/uuid"
)

// oracleLevel computes the derived level of a position directly from the
// definition: the minimum over all tickets of the ticket level plus the
// Chebyshev distance, capped at maxLevel.
func oracleLevel(tickets []Ticket, pos ChunkPos, maxLevel int) int {
	best := maxLevel
	for _, tk := range tickets {
		if l := tk.Level + int(chebyshevDist(tk.Pos, pos)); l < best {
			best = l
		}
	}
	return best
}

func TestTrackerSingleTicket(t *testing.T) {
	maxLevel := FullStatusLevel + 1
	tr := NewChunkTracker(maxLevel)

	changed := tr.AddTicket(Ticket{Type: TicketPlayer, Level: 0, Pos: ChunkPos{0, 0}})
	width := 2*(maxLevel-1) + 1
	if len(changed) != width*width {
		t.Fatalf("expected %d changed positions, got %d", width*width, len(changed))
	}

	cases := []struct {
		pos  ChunkPos
		want int
	}{
		{ChunkPos{0, 0}, 0},
		{ChunkPos{1, 0}, 1},
		{ChunkPos{-3, 2}, 3},
		{ChunkPos{20, -20}, 20},
		{ChunkPos{33, 0}, 33},
		{ChunkPos{34, 0}, maxLevel},
		{ChunkPos{33, 34}, maxLevel},
	}
	for _, c := range cases {
		if got := tr.Level(c.pos); got != c.want {
			t.Fatalf("position %v: expected level %d, got %d", c.pos, c.want, got)
		}
	}
}

func TestTrackerRemoveSoleTicket(t *testing.T) {
	maxLevel := FullStatusLevel + 1
	tr := NewChunkTracker(maxLevel)
	tk := Ticket{Type: TicketPlayer, Level: 0, Pos: ChunkPos{5, -3}}

	added := tr.AddTicket(tk)
	removed := tr.RemoveTicket(tk)
	if len(removed) != len(added) {
		t.Fatalf("expected %d positions to change on removal, got %d", len(added), len(removed))
	}
	for _, pos := range added {
		if got := tr.Level(pos); got != maxLevel {
			t.Fatalf("position %v: expected level %d after removal, got %d", pos, maxLevel, got)
		}
	}
	if tr.TicketCount() != 0 {
		t.Fatalf("expected no tickets left, got %d", tr.TicketCount())
	}
}

func TestTrackerMinOverTickets(t *testing.T) {
	maxLevel := FullStatusLevel + 1
	tr := NewChunkTracker(maxLevel)
	tickets := []Ticket{
		{Type: TicketPlayer, Level: 5, Pos: ChunkPos{0, 0}},
		{Type: TicketForced, Level: 0, Pos: ChunkPos{10, 0}},
	}
	for _, tk := range tickets {
		tr.AddTicket(tk)
	}
	for _, pos := range []ChunkPos{{0, 0}, {4, 0}, {5, 0}, {10, 0}, {-7, 3}, {15, 15}} {
		want := oracleLevel(tickets, pos, maxLevel)
		if got := tr.Level(pos); got != want {
			t.Fatalf("position %v: expected level %d, got %d", pos, want, got)
		}
	}

	// Removing the stronger source leaves the weaker one's influence intact.
	tr.RemoveTicket(tickets[1])
	for _, pos := range []ChunkPos{{0, 0}, {10, 0}, {5, 5}} {
		want := oracleLevel(tickets[:1], pos, maxLevel)
		if got := tr.Level(pos); got != want {
			t.Fatalf("position %v after removal: expected level %d, got %d", pos, want, got)
		}
	}
}

func TestTrackerRemoveMatchesOwner(t *testing.T) {
	tr := NewChunkTracker(FullStatusLevel + 1)
	a := Ticket{Type: TicketPlayer, Owner: uuid.New(), Level: 3, Pos: ChunkPos{0, 0}}
	b := Ticket{Type: TicketPlayer, Owner: uuid.New(), Level: 3, Pos: ChunkPos{0, 0}}
	tr.AddTicket(a)
	tr.AddTicket(b)

	if changed := tr.RemoveTicket(a); len(changed) != 0 {
		t.Fatalf("expected no level changes while an equal ticket remains, got %d", len(changed))
	}
	if got := tr.Level(ChunkPos{0, 0}); got != 3 {
		t.Fatalf("expected level 3, got %d", got)
	}
	if tr.TicketCount() != 1 {
		t.Fatalf("expected 1 ticket left, got %d", tr.TicketCount())
	}
}

func TestTrackerRemoveUnknownTicket(t *testing.T) {
	tr := NewChunkTracker(FullStatusLevel + 1)
	tr.AddTicket(Ticket{Type: TicketPlayer, Level: 3, Pos: ChunkPos{0, 0}})
	if changed := tr.RemoveTicket(Ticket{Type: TicketSpawn, Level: 3, Pos: ChunkPos{0, 0}}); changed != nil {
		t.Fatalf("expected nil change set for unknown ticket, got %v", changed)
	}
}

// TestTrackerRandomised drives a tracker through a random add/remove sequence
// and compares every position of the affected grid against the direct
// definition after each operation, including the reported change sets.
func TestTrackerRandomised(t *testing.T) {
	const maxLevel = 8
	rng := rand.New(rand.NewSource(7))
	tr := NewChunkTracker(maxLevel)
	var active []Ticket

	randPos := func() ChunkPos {
		return ChunkPos{int32(rng.Intn(11) - 5), int32(rng.Intn(11) - 5)}
	}
	snapshot := func() map[ChunkPos]int {
		grid := make(map[ChunkPos]int)
		for x := int32(-14); x <= 14; x++ {
			for z := int32(-14); z <= 14; z++ {
				grid[ChunkPos{x, z}] = tr.Level(ChunkPos{x, z})
			}
		}
		return grid
	}

	for op := 0; op < 200; op++ {
		before := snapshot()
		var changed []ChunkPos
		if len(active) == 0 || rng.Intn(3) != 0 {
			tk := Ticket{Type: TicketSimulation, Owner: uuid.New(), Level: rng.Intn(maxLevel), Pos: randPos()}
			active = append(active, tk)
			changed = tr.AddTicket(tk)
		} else {
			i := rng.Intn(len(active))
			tk := active[i]
			active = append(active[:i], active[i+1:]...)
			changed = tr.RemoveTicket(tk)
		}

		changedSet := make(map[ChunkPos]struct{}, len(changed))
		for _, pos := range changed {
			changedSet[pos] = struct{}{}
		}
		for pos, old := range before {
			want := oracleLevel(active, pos, maxLevel)
			got := tr.Level(pos)
			if got != want {
				t.Fatalf("op %d: position %v: expected level %d, got %d", op, pos, want, got)
			}
			_, reported := changedSet[pos]
			if (got != old) != reported {
				t.Fatalf("op %d: position %v: change %d -> %d, reported=%v", op, pos, old, got, reported)
			}
		}
	}
}

func TestTrackerNegativeTicketLevel(t *testing.T) {
	tr := NewChunkTracker(8)
	tk := Ticket{Type: TicketPlayer, Owner: uuid.New(), Level: -3, Pos: ChunkPos{0, 0}}

	if changed := tr.AddTicket(tk); len(changed) == 0 {
		t.Fatal("expected the clamped ticket to lower levels")
	}
	if got := tr.Level(ChunkPos{0, 0}); got != 0 {
		t.Fatalf("expected a negative level to clamp to 0, got %d", got)
	}
	if got := tr.Level(ChunkPos{3, -2}); got != 3 {
		t.Fatalf("expected level 3 three rings out, got %d", got)
	}

	// Removal with the original, unclamped ticket must still match.
	if changed := tr.RemoveTicket(tk); changed == nil {
		t.Fatal("expected the removal to match the clamped ticket")
	}
	if got := tr.Level(ChunkPos{0, 0}); got != 8 {
		t.Fatalf("expected the level to return to the maximum, got %d", got)
	}
}
