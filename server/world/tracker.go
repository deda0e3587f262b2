package world

import (
	"slices"

	"github.com/brentp/intintmap"
)

// ChunkTracker owns the set of active tickets and the urgency level grid
// derived from them. The level of a chunk position is the minimum, over all
// active tickets, of the ticket's level plus the Chebyshev distance to it,
// capped at the tracker's maximum level. Chunks at the maximum level are of
// no interest to anyone and are eligible for eviction.
//
// ChunkTracker is not safe for concurrent use: it is owned by the ChunkMap
// and mutated only through AddTicket and RemoveTicket under its lock.
type ChunkTracker struct {
	maxLevel int

	// levels maps packed chunk positions to their current derived level.
	// Positions at maxLevel have no entry.
	levels  *intintmap.Map
	tickets map[ChunkPos][]Ticket
}

// NewChunkTracker creates a ChunkTracker with the maximum level passed,
// usually ChunkLevel.MaxLevel of the pyramid in use.
func NewChunkTracker(maxLevel int) *ChunkTracker {
	return &ChunkTracker{
		maxLevel: maxLevel,
		levels:   intintmap.New(4096, 0.6),
		tickets:  make(map[ChunkPos][]Ticket),
	}
}

// MaxLevel returns the level at and above which positions are considered of
// no interest.
func (t *ChunkTracker) MaxLevel() int { return t.maxLevel }

// Level returns the current derived urgency level of the position passed.
// Positions without any ticket influence return the tracker's maximum level.
func (t *ChunkTracker) Level(pos ChunkPos) int {
	if l, ok := t.levels.Get(pos.pack()); ok {
		return int(l)
	}
	return t.maxLevel
}

// TicketCount returns the number of active tickets.
func (t *ChunkTracker) TicketCount() int {
	n := 0
	for _, list := range t.tickets {
		n += len(list)
	}
	return n
}

// AddTicket registers a ticket and propagates its influence outwards. It
// returns the positions whose derived level changed, in no particular order.
// Tickets at or above the maximum level are recorded but have no influence;
// levels below zero clamp to zero, the most urgent level.
func (t *ChunkTracker) AddTicket(tk Ticket) []ChunkPos {
	tk.Level = max(tk.Level, 0)
	t.tickets[tk.Pos] = append(t.tickets[tk.Pos], tk)
	if tk.Level >= t.maxLevel {
		return nil
	}
	return t.relax([]levelSeed{{pos: tk.Pos, level: tk.Level}})
}

// RemoveTicket removes a previously added ticket, matching on type, owner,
// level and position. It returns the positions whose derived level changed,
// or nil if no matching ticket was found.
//
// Removing a source can only raise levels, which a local fix-up cannot
// compute. Instead, every position the ticket could have influenced (all
// rings up to maxLevel-level away) is invalidated and recomputed from the
// remaining tickets inside that region plus the ring just outside it, whose
// levels are provably unaffected by the removal.
func (t *ChunkTracker) RemoveTicket(tk Ticket) []ChunkPos {
	// Clamped like AddTicket so the original ticket matches again.
	tk.Level = max(tk.Level, 0)
	list, ok := t.tickets[tk.Pos]
	i := slices.IndexFunc(list, func(o Ticket) bool {
		return o.Type == tk.Type && o.Owner == tk.Owner && o.Level == tk.Level
	})
	if !ok || i < 0 {
		return nil
	}
	if len(list) == 1 {
		delete(t.tickets, tk.Pos)
	} else {
		t.tickets[tk.Pos] = slices.Delete(list, i, i+1)
	}
	if tk.Level >= t.maxLevel {
		return nil
	}

	radius := int32(t.maxLevel - tk.Level)

	// Invalidate the region the removed ticket could have influenced,
	// remembering the old levels to report changes afterwards.
	old := make(map[int64]int)
	for dx := -radius; dx <= radius; dx++ {
		for dz := -radius; dz <= radius; dz++ {
			k := ChunkPos{tk.Pos[0] + dx, tk.Pos[1] + dz}.pack()
			if l, found := t.levels.Get(k); found {
				old[k] = int(l)
				t.levels.Del(k)
			}
		}
	}

	// Seed the recomputation with the remaining tickets inside the region and
	// with the ring of positions just outside it. Any influence from sources
	// farther out must pass through that ring, so seeding it at its (still
	// correct) levels reintroduces all outside influence.
	var seeds []levelSeed
	for pos, list := range t.tickets {
		if chebyshevDist(pos, tk.Pos) > radius {
			continue
		}
		best := t.maxLevel
		for _, o := range list {
			if o.Level < best {
				best = o.Level
			}
		}
		if best < t.maxLevel {
			seeds = append(seeds, levelSeed{pos: pos, level: best})
		}
	}
	border := radius + 1
	for d := -border; d <= border; d++ {
		for _, pos := range [4]ChunkPos{
			{tk.Pos[0] + d, tk.Pos[1] - border},
			{tk.Pos[0] + d, tk.Pos[1] + border},
			{tk.Pos[0] - border, tk.Pos[1] + d},
			{tk.Pos[0] + border, tk.Pos[1] + d},
		} {
			if l := t.Level(pos); l < t.maxLevel {
				seeds = append(seeds, levelSeed{pos: pos, level: l})
			}
		}
	}
	t.relax(seeds)

	// Every invalidated position whose recomputed level differs from its old
	// one changed. Recomputation cannot reach positions that had no level
	// before, so iterating the snapshot is exhaustive.
	changed := make([]ChunkPos, 0, len(old))
	for k, oldLevel := range old {
		pos := unpackPos(k)
		if t.Level(pos) != oldLevel {
			changed = append(changed, pos)
		}
	}
	return changed
}

type levelSeed struct {
	pos   ChunkPos
	level int
}

// relax runs a multi-source shortest-path pass from the seeds passed over the
// level grid. Because every ring costs exactly one level and levels are
// bounded by maxLevel, a bucket queue indexed by level replaces a heap: each
// position is settled at most once per level, giving near-constant amortised
// cost per relaxation. Seeds whose level equals the stored one still
// propagate, which the removal path relies on for its border ring.
//
// relax returns the positions whose stored level improved.
func (t *ChunkTracker) relax(seeds []levelSeed) []ChunkPos {
	buckets := make([][]int64, t.maxLevel)
	improved := make(map[int64]struct{})

	for _, s := range seeds {
		if s.level >= t.maxLevel {
			continue
		}
		k := s.pos.pack()
		cur := t.maxLevel
		if l, ok := t.levels.Get(k); ok {
			cur = int(l)
		}
		if s.level > cur {
			continue
		}
		if s.level < cur {
			t.levels.Put(k, int64(s.level))
			improved[k] = struct{}{}
		}
		buckets[s.level] = append(buckets[s.level], k)
	}

	for level := 0; level < t.maxLevel; level++ {
		for n := 0; n < len(buckets[level]); n++ {
			k := buckets[level][n]
			if l, ok := t.levels.Get(k); !ok || int(l) != level {
				// Superseded by a better path found earlier.
				continue
			}
			next := level + 1
			if next >= t.maxLevel {
				continue
			}
			pos := unpackPos(k)
			for dx := int32(-1); dx <= 1; dx++ {
				for dz := int32(-1); dz <= 1; dz++ {
					if dx == 0 && dz == 0 {
						continue
					}
					nb := ChunkPos{pos[0] + dx, pos[1] + dz}
					nk := nb.pack()
					cur := t.maxLevel
					if l, ok := t.levels.Get(nk); ok {
						cur = int(l)
					}
					if next >= cur {
						continue
					}
					t.levels.Put(nk, int64(next))
					improved[nk] = struct{}{}
					buckets[next] = append(buckets[next], nk)
				}
			}
		}
	}
	changed := make([]ChunkPos, 0, len(improved))
	for k := range improved {
		changed = append(changed, unpackPos(k))
	}
	return changed
}
