package chunk

import (
	"bytes"
	"testing"
)

func TestEncodeDecodeRoundtrip(t *testing.T) {
	c := New(0)
	c.SetBlock(3, -40, 12, 2)
	c.SetBlock(3, 100, 12, 5)
	c.SetBiome(7, 7, 2)
	FillSkyLight(c)
	c.SetBlockLight(3, -39, 12, 11)

	decoded, err := Decode(Encode(c))
	if err != nil {
		t.Fatalf("decode chunk: %v", err)
	}
	if got := decoded.Block(3, -40, 12); got != 2 {
		t.Fatalf("expected block 2, got %d", got)
	}
	if got := decoded.Block(3, 100, 12); got != 5 {
		t.Fatalf("expected block 5, got %d", got)
	}
	if got := decoded.Biome(7, 7); got != 2 {
		t.Fatalf("expected biome 2, got %d", got)
	}
	if got := decoded.SkyLight(3, 101, 12); got != c.SkyLight(3, 101, 12) {
		t.Fatalf("expected sky light preserved, got %d", got)
	}
	if got := decoded.BlockLight(3, -39, 12); got != 11 {
		t.Fatalf("expected block light 11, got %d", got)
	}
	if got := decoded.Air(); got != 0 {
		t.Fatalf("expected air id preserved, got %d", got)
	}
}

func TestEncodeDeterministic(t *testing.T) {
	c := New(0)
	c.SetBlock(0, 0, 0, 3)
	a, b := Encode(c), Encode(c)
	if !bytes.Equal(a, b) {
		t.Fatal("expected identical encodings for identical chunks")
	}
	c.SetBlock(0, 1, 0, 3)
	if bytes.Equal(a, Encode(c)) {
		t.Fatal("expected the encoding to change with the chunk")
	}
}

func TestDecodeRejectsShortTailInput(t *testing.T) {
	// The final array of the encoding is the block light of the padding
	// section above the world. Making it dense puts a 4096-byte raw read at
	// the very end of the stream, where a short read has no later field left
	// to trip over.
	c := New(0)
	c.SetBlockLight(3, MaxY+8, 3, 9)
	valid := Encode(c)

	if _, err := Decode(valid[:len(valid)-10]); err == nil {
		t.Fatal("expected error for input truncated inside the trailing light data")
	}
	if _, err := Decode(valid[:6+100]); err == nil {
		t.Fatal("expected error for input truncated inside the biome data")
	}
}

func TestDecodeRejectsBadInput(t *testing.T) {
	if _, err := Decode(nil); err == nil {
		t.Fatal("expected error for empty input")
	}
	if _, err := Decode([]byte{99}); err == nil {
		t.Fatal("expected error for unknown version")
	}
	valid := Encode(New(0))
	if _, err := Decode(valid[:len(valid)/2]); err == nil {
		t.Fatal("expected error for truncated input")
	}
}
