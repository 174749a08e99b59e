package persistence

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/klauspost/compress/zstd"

	"github.com/talgya/worldforge/internal/social"
	"github.com/talgya/worldforge/internal/world"
)

// gridCodec flattens grids to little-endian float32 and compresses them.
// EncodeAll and DecodeAll are safe for concurrent use.
type gridCodec struct {
	enc *zstd.Encoder
	dec *zstd.Decoder
}

func newGridCodec() (*gridCodec, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("zstd writer: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		return nil, fmt.Errorf("zstd reader: %w", err)
	}
	return &gridCodec{enc: enc, dec: dec}, nil
}

func (c *gridCodec) Close() {
	c.enc.Close()
	c.dec.Close()
}

func (c *gridCodec) encode(data []float32) []byte {
	raw := make([]byte, 4*len(data))
	for i, v := range data {
		binary.LittleEndian.PutUint32(raw[4*i:], math.Float32bits(v))
	}
	return c.enc.EncodeAll(raw, make([]byte, 0, len(raw)/4))
}

func (c *gridCodec) decode(blob []byte, cells int) ([]float32, error) {
	raw, err := c.dec.DecodeAll(blob, make([]byte, 0, 4*cells))
	if err != nil {
		return nil, fmt.Errorf("zstd decode: %w", err)
	}
	if len(raw) != 4*cells {
		return nil, fmt.Errorf("grid holds %d bytes, want %d", len(raw), 4*cells)
	}
	out := make([]float32, cells)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[4*i:]))
	}
	return out, nil
}

// Flatteners for every grid kind the archive stores.

func fromField(f *world.Field) []float32 {
	out := make([]float32, len(f.Data))
	for i, v := range f.Data {
		out[i] = float32(v)
	}
	return out
}

func fromInts(xs []int) []float32 {
	out := make([]float32, len(xs))
	for i, v := range xs {
		out[i] = float32(v)
	}
	return out
}

func fromBools(bs []bool) []float32 {
	out := make([]float32, len(bs))
	for i, b := range bs {
		if b {
			out[i] = 1
		}
	}
	return out
}

func fromCategories[T ~uint8](cs []T) []float32 {
	out := make([]float32, len(cs))
	for i, c := range cs {
		out[i] = float32(c)
	}
	return out
}

// worldGrids names every grid of w, plus the social layers when present.
func worldGrids(w *world.World, eco *social.EcologyResult, civ *social.CivResult) map[string][]float32 {
	wx := make([]float32, len(w.Wind.Data))
	wy := make([]float32, len(w.Wind.Data))
	for i, v := range w.Wind.Data {
		wx[i], wy[i] = float32(v.X), float32(v.Y)
	}
	g := map[string][]float32{
		"elevation":   fromField(w.Elevation),
		"orogeny":     fromField(w.Orogeny),
		"rain":        fromField(w.Rain),
		"river_fluid": fromField(w.RiverFluid),
		"temperature": fromField(w.Temperature),
		"moisture":    fromField(w.Moisture),
		"rivers":      fromField(w.Rivers),
		"wind_x":      wx,
		"wind_y":      wy,
		"plate_id":    fromInts(w.Plates.IDs),
		"boundary":    fromCategories(w.Plates.Boundaries),
		"biome":       fromCategories(w.Biomes.Data),
		"rock":        fromCategories(w.Rocks.Data),
		"ore":         fromCategories(w.Ores.Data),
	}
	if eco != nil {
		g["health"] = fromField(eco.Health)
		g["potential"] = fromField(eco.Potential)
	}
	if civ != nil {
		g["influence"] = fromField(civ.Influence)
		g["polity_id"] = fromInts(civ.PolityID)
		g["border"] = fromBools(civ.Border)
		g["trade_route"] = fromBools(civ.TradeRoute)
		g["trade_flow"] = fromField(civ.TradeFlow)
	}
	return g
}
