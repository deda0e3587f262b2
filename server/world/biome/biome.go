// Package biome enumerates the biome IDs assigned by the built-in generators.
package biome

// IDs of the built-in biomes, as stored per column in chunks.
const (
	Plains uint8 = iota
	Forest
	Desert
	Ocean

	// Count is the number of built-in biomes.
	Count
)

var names = [Count]string{
	Plains: "plains",
	Forest: "forest",
	Desert: "desert",
	Ocean:  "ocean",
}

// Name returns the display name of the biome ID passed, or "unknown" for IDs
// outside the built-in set.
func Name(id uint8) string {
	if id >= Count {
		return "unknown"
	}
	return names[id]
}
