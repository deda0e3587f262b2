package chunk

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// Serialisation format version. Bumped whenever the encoding changes shape.
const encodingVersion = 1

const (
	tagUniform = 0
	tagDense   = 1
)

// Encode encodes the Chunk to its binary serialised form, suitable for
// storage in a provider. The encoding is deterministic: two chunks with
// identical contents always encode to identical bytes.
func Encode(c *Chunk) []byte {
	buf := bytes.NewBuffer(make([]byte, 0, 4096))
	buf.WriteByte(encodingVersion)
	_ = binary.Write(buf, binary.LittleEndian, c.air)
	buf.Write(c.biomes[:])

	for _, s := range c.sections {
		if id, ok := s.Uniform(); ok {
			buf.WriteByte(tagUniform)
			_ = binary.Write(buf, binary.LittleEndian, id)
			continue
		}
		buf.WriteByte(tagDense)
		_ = binary.Write(buf, binary.LittleEndian, s.grid)
	}
	encodeLight(buf, c.skyLight)
	encodeLight(buf, c.blockLight)
	return buf.Bytes()
}

func encodeLight(buf *bytes.Buffer, arrays []*LightArray) {
	for _, a := range arrays {
		if v, ok := a.Uniform(); ok {
			buf.WriteByte(tagUniform)
			buf.WriteByte(v)
			continue
		}
		buf.WriteByte(tagDense)
		buf.Write(a.data)
	}
}

// Decode decodes a Chunk from the binary serialised form produced by Encode.
func Decode(data []byte) (*Chunk, error) {
	buf := bytes.NewBuffer(data)
	version, err := buf.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("decode chunk: %w", err)
	}
	if version != encodingVersion {
		return nil, fmt.Errorf("decode chunk: unsupported version %v", version)
	}
	var air uint32
	if err := binary.Read(buf, binary.LittleEndian, &air); err != nil {
		return nil, fmt.Errorf("decode chunk: read air: %w", err)
	}
	c := New(air)
	if _, err := io.ReadFull(buf, c.biomes[:]); err != nil {
		return nil, fmt.Errorf("decode chunk: read biomes: %w", err)
	}
	for i := range c.sections {
		tag, err := buf.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("decode chunk: read section %v: %w", i, err)
		}
		switch tag {
		case tagUniform:
			var id uint32
			if err := binary.Read(buf, binary.LittleEndian, &id); err != nil {
				return nil, fmt.Errorf("decode chunk: read section %v: %w", i, err)
			}
			c.sections[i] = newSection(id)
		case tagDense:
			grid := make([]uint32, 4096)
			if err := binary.Read(buf, binary.LittleEndian, grid); err != nil {
				return nil, fmt.Errorf("decode chunk: read section %v: %w", i, err)
			}
			c.sections[i] = &Section{grid: grid}
		default:
			return nil, fmt.Errorf("decode chunk: section %v: unknown tag %v", i, tag)
		}
	}
	if err := decodeLight(buf, c.skyLight); err != nil {
		return nil, fmt.Errorf("decode chunk: sky light: %w", err)
	}
	if err := decodeLight(buf, c.blockLight); err != nil {
		return nil, fmt.Errorf("decode chunk: block light: %w", err)
	}
	return c, nil
}

func decodeLight(buf *bytes.Buffer, arrays []*LightArray) error {
	for i := range arrays {
		tag, err := buf.ReadByte()
		if err != nil {
			return fmt.Errorf("read array %v: %w", i, err)
		}
		switch tag {
		case tagUniform:
			v, err := buf.ReadByte()
			if err != nil {
				return fmt.Errorf("read array %v: %w", i, err)
			}
			arrays[i] = newLightArray(v)
		case tagDense:
			data := make([]uint8, 4096)
			if _, err := io.ReadFull(buf, data); err != nil {
				return fmt.Errorf("read array %v: %w", i, err)
			}
			arrays[i] = &LightArray{data: data}
		default:
			return fmt.Errorf("array %v: unknown tag %v", i, tag)
		}
	}
	return nil
}
