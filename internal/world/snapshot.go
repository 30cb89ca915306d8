package world

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
)

const snapshotVersion = 1

// Upper bounds accepted from a snapshot header.
const (
	MaxSnapshotTiles    = 1 << 22
	MaxSnapshotEntities = 1 << 20
)

var snapshotMagic = [4]byte{'F', 'A', 'R', 'M'}

var (
	// ErrBadSnapshot is returned for unreadable, truncated or implausible snapshots.
	ErrBadSnapshot = errors.New("world: not a snapshot")
	// ErrSnapshotMismatch is returned when a valid snapshot does not fit the world loading it.
	ErrSnapshotMismatch = errors.New("world: snapshot does not fit this world")
)

// SnapshotHeader is the fixed part of a snapshot, stored ahead of the
// entity table.
type SnapshotHeader struct {
	Width, Height int32
	Count         int32 // entity slots that follow
	Day           int32
	Energy        int32
	Clock         float64
	Ticks         uint64
	PlayerX       int32
	PlayerY       int32
	Stone         int32
	Fiber         int32
	Phase         Phase
}

// Save writes the world as "FARM", a little-endian uint16 version and a
// zstd stream holding the header and the used part of the entity table.
func (w *World) Save(out io.Writer) error {
	if _, err := out.Write(snapshotMagic[:]); err != nil {
		return fmt.Errorf("world: write snapshot: %w", err)
	}
	if err := binary.Write(out, binary.LittleEndian, uint16(snapshotVersion)); err != nil {
		return fmt.Errorf("world: write snapshot: %w", err)
	}

	zw, err := zstd.NewWriter(out, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return fmt.Errorf("world: create compressor: %w", err)
	}
	hdr := SnapshotHeader{
		Width:   int32(w.cfg.Width),
		Height:  int32(w.cfg.Height),
		Count:   int32(w.count),
		Day:     int32(w.day),
		Energy:  int32(w.energy),
		Clock:   w.clock,
		Ticks:   w.ticks,
		PlayerX: int32(w.player.X),
		PlayerY: int32(w.player.Y),
		Stone:   int32(w.inv.Stone),
		Fiber:   int32(w.inv.Fiber),
		Phase:   w.phase,
	}
	if err := binary.Write(zw, binary.LittleEndian, &hdr); err != nil {
		_ = zw.Close()
		return fmt.Errorf("world: write snapshot header: %w", err)
	}
	if err := binary.Write(zw, binary.LittleEndian, w.entities[:w.count]); err != nil {
		_ = zw.Close()
		return fmt.Errorf("world: write entity table: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("world: flush snapshot: %w", err)
	}
	return nil
}

// ReadSnapshotHeader reads the magic, version and header from r and
// returns a reader positioned at the entity table.
func ReadSnapshotHeader(r io.Reader) (SnapshotHeader, io.ReadCloser, error) {
	var hdr SnapshotHeader
	var prefix [6]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		return hdr, nil, fmt.Errorf("%w: %w", ErrBadSnapshot, err)
	}
	if !bytes.Equal(prefix[:4], snapshotMagic[:]) {
		return hdr, nil, fmt.Errorf("%w: magic %q", ErrBadSnapshot, prefix[:4])
	}
	if v := binary.LittleEndian.Uint16(prefix[4:]); v != snapshotVersion {
		return hdr, nil, fmt.Errorf("%w: version %d", ErrBadSnapshot, v)
	}

	zr, err := zstd.NewReader(r)
	if err != nil {
		return hdr, nil, fmt.Errorf("world: create decompressor: %w", err)
	}
	if err := binary.Read(zr, binary.LittleEndian, &hdr); err != nil {
		zr.Close()
		return hdr, nil, fmt.Errorf("%w: header: %w", ErrBadSnapshot, err)
	}
	if err := hdr.validate(); err != nil {
		zr.Close()
		return hdr, nil, err
	}
	return hdr, zr.IOReadCloser(), nil
}

func (h SnapshotHeader) validate() error {
	if h.Width <= 0 || h.Height <= 0 || int64(h.Width)*int64(h.Height) > MaxSnapshotTiles {
		return fmt.Errorf("%w: map %dx%d", ErrBadSnapshot, h.Width, h.Height)
	}
	if h.Count < 0 || h.Count > MaxSnapshotEntities {
		return fmt.Errorf("%w: %d entities", ErrBadSnapshot, h.Count)
	}
	return nil
}

// Load replaces the world state with a snapshot written by Save. The
// snapshot must have the same map size and fit the entity table. On error
// the world is left as it was.
func (w *World) Load(r io.Reader) error {
	hdr, body, err := ReadSnapshotHeader(r)
	if err != nil {
		return err
	}
	defer body.Close()

	if int(hdr.Width) != w.cfg.Width || int(hdr.Height) != w.cfg.Height {
		return fmt.Errorf("%w: map %dx%d, world %dx%d", ErrSnapshotMismatch, hdr.Width, hdr.Height, w.cfg.Width, w.cfg.Height)
	}
	if int(hdr.Count) > len(w.entities) {
		return fmt.Errorf("%w: %d entities, table holds %d", ErrSnapshotMismatch, hdr.Count, len(w.entities))
	}

	table := make([]Entity, hdr.Count)
	if err := binary.Read(body, binary.LittleEndian, table); err != nil {
		return fmt.Errorf("%w: entity table: %w", ErrBadSnapshot, err)
	}

	copy(w.entities, table)
	clear(w.entities[len(table):])

	w.day = int(hdr.Day)
	w.energy = int(hdr.Energy)
	w.clock = hdr.Clock
	w.ticks = hdr.Ticks
	w.player = Tile{X: int(hdr.PlayerX), Y: int(hdr.PlayerY)}
	w.inv = Inventory{Stone: int(hdr.Stone), Fiber: int(hdr.Fiber)}
	w.phase = hdr.Phase
	w.rebuild(int(hdr.Count))
	return nil
}

// rebuild derives the tile index and both bitmaps from the entity table.
func (w *World) rebuild(count int) {
	w.count = count
	clear(w.tileIndex)
	w.free.Clear()
	w.occupied.Clear()
	for slot, e := range w.entities[:count] {
		if !e.Alive || !w.InBounds(e.Tile()) {
			w.entities[slot] = Entity{}
			w.free.Add(uint32(slot))
			continue
		}
		id := w.tileID(e.Tile())
		w.tileIndex[id] = int32(slot) + 1
		if e.Kind.Solid() {
			w.occupied.Add(id)
		}
	}
}
