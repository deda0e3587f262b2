package world

import (
	"github.com/google/uuid"
)

// TicketType describes the reason a Ticket exists. The scheduler itself never
// inspects the type: it only uses a ticket's level and position. Types exist
// so that sources can remove their own tickets without affecting others.
type TicketType uint8

const (
	// TicketPlayer is registered around players, sized to their view
	// distance.
	TicketPlayer TicketType = iota
	// TicketForced is registered for positions on the persisted forced chunk
	// list.
	TicketForced
	// TicketSpawn reserves the chunks around the world spawn.
	TicketSpawn
	// TicketSimulation is registered by systems that need chunks ticking,
	// such as block updates spilling over chunk borders.
	TicketSimulation
)

// String returns the name of the ticket type.
func (t TicketType) String() string {
	switch t {
	case TicketPlayer:
		return "player"
	case TicketForced:
		return "forced"
	case TicketSpawn:
		return "spawn"
	case TicketSimulation:
		return "simulation"
	}
	return "invalid"
}

// FullStatusLevel is the highest urgency level that still requires a chunk to
// reach StatusFull. Levels above it require progressively earlier statuses,
// per the generation pyramid's accumulated dependency table.
const FullStatusLevel = 33

// Ticket expresses interest in the chunk at a position being kept at least at
// a certain urgency level. Lower levels are more urgent. Tickets propagate
// outwards: a chunk at Chebyshev distance d of a ticket derives urgency level
// Level+d from it.
type Ticket struct {
	// Type is the reason the ticket exists.
	Type TicketType
	// Owner identifies who registered the ticket, so a source can remove its
	// own tickets selectively. The zero UUID is valid for ownerless tickets.
	Owner uuid.UUID
	// Level is the urgency level at the ticket's own position. 0 is the most
	// urgent; values at or below FullStatusLevel demand a full chunk.
	Level int
	// Pos is the chunk position the ticket is registered on.
	Pos ChunkPos
}
