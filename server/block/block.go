// Package block enumerates the block runtime IDs of the built-in palette.
// Runtime IDs are stable across runs: stored chunks reference them directly.
package block

// Runtime IDs of the built-in blocks. Air must remain 0: chunks treat the ID
// they were created with as the absence of a block, and fresh chunks are
// filled with it.
const (
	Air uint32 = iota
	Bedrock
	Stone
	Dirt
	Grass
	Sand
	Water
	Dandelion

	// Count is the number of built-in blocks. IDs at or above Count are
	// invalid until a registry for custom blocks exists.
	Count
)

// names holds the display name of every built-in block, indexed by runtime ID.
var names = [Count]string{
	Air:       "air",
	Bedrock:   "bedrock",
	Stone:     "stone",
	Dirt:      "dirt",
	Grass:     "grass",
	Sand:      "sand",
	Water:     "water",
	Dandelion: "dandelion",
}

// Name returns the display name of the block runtime ID passed, or "unknown"
// for IDs outside the built-in palette.
func Name(id uint32) string {
	if id >= Count {
		return "unknown"
	}
	return names[id]
}
