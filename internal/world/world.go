// Package world is a headless farming simulation whose state lives in
// arenas: a permanent arena holds the entity table and the tile index, a
// scratch arena holds per-frame strings.
package world

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"unsafe"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/charmbracelet/log"

	"github.com/farmtotable/arena"
	"github.com/farmtotable/arena/internal/config"
)

var (
	// ErrTileOccupied is returned by Spawn when the tile already holds an entity.
	ErrTileOccupied = errors.New("world: tile occupied")
	// ErrTileBlocked is returned by MoveTo when a rock or weed stands on the tile.
	ErrTileBlocked = errors.New("world: tile blocked")
	// ErrOutOfWorld is returned for tiles outside the map.
	ErrOutOfWorld = errors.New("world: tile outside the map")
	// ErrWorldFull is returned by Spawn when every entity slot is in use.
	ErrWorldFull = errors.New("world: entity table full")
	// ErrNothingToHarvest is returned by Harvest when the tile holds no rock or weed.
	ErrNothingToHarvest = errors.New("world: nothing to harvest")
	// ErrNotPlaying is returned by actions taken outside PhasePlay.
	ErrNotPlaying = errors.New("world: not playing")
)

// Phase is the run state machine: Start -> Play -> GameOver.
type Phase uint8

const (
	PhaseStart    Phase = iota // populated, waiting for Start
	PhasePlay                  // clock running, actions allowed
	PhaseGameOver              // energy ran out
)

// String returns the phase name used in logs.
func (p Phase) String() string {
	switch p {
	case PhaseStart:
		return "start"
	case PhasePlay:
		return "play"
	case PhaseGameOver:
		return "game_over"
	default:
		return fmt.Sprintf("phase(%d)", uint8(p))
	}
}

// Option configures a World.
type Option func(*World)

// WithLogger logs spawns, harvests and phase changes at debug level.
func WithLogger(logger *log.Logger) Option {
	return func(w *World) {
		w.logger = logger
	}
}

// World is a single-threaded simulation. Not goroutine-safe.
type World struct {
	cfg     config.WorldConfig
	perm    *arena.Arena
	scratch *arena.Arena

	entities  []Entity // fixed table in perm
	tileIndex []int32  // slot+1 per tile, 0 if empty; in perm
	count     int      // slots ever used
	free      *roaring.Bitmap
	occupied  *roaring.Bitmap // tiles holding a solid entity

	player Tile
	inv    Inventory
	energy int
	day    int
	clock  float64 // seconds into the current day
	ticks  uint64
	phase  Phase

	logger *log.Logger
}

// New builds an empty world. The entity table and tile index are carved
// out of perm; scratch backs StatusLine and HUD.
func New(cfg config.WorldConfig, perm, scratch *arena.Arena, opts ...Option) (*World, error) {
	entities, err := arena.AllocSlice[Entity](perm, cfg.MaxEntities)
	if err != nil {
		return nil, fmt.Errorf("world: allocate entity table: %w", err)
	}
	tileIndex, err := arena.AllocSlice[int32](perm, cfg.Width*cfg.Height)
	if err != nil {
		return nil, fmt.Errorf("world: allocate tile index: %w", err)
	}

	w := &World{
		cfg:       cfg,
		perm:      perm,
		scratch:   scratch,
		entities:  entities,
		tileIndex: tileIndex,
		free:      roaring.New(),
		occupied:  roaring.New(),
		energy:    cfg.MaxEnergy,
		day:       1,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Footprint returns the permanent arena bytes New needs for cfg.
func Footprint(cfg config.WorldConfig) int {
	return cfg.MaxEntities*int(unsafe.Sizeof(Entity{})) + cfg.Width*cfg.Height*int(unsafe.Sizeof(int32(0)))
}

// Populate scatters the configured number of rocks and weeds using seed.
// The player tile is kept clear.
func (w *World) Populate(seed uint64) error {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	place := func(kind Kind, n int) error {
		for placed, attempts := 0, 0; placed < n; attempts++ {
			if attempts > 16*w.tiles() {
				return fmt.Errorf("world: no room for %d %ss", n-placed, kind)
			}
			t := Tile{X: rng.IntN(w.cfg.Width), Y: rng.IntN(w.cfg.Height)}
			if t == w.player {
				continue
			}
			if _, err := w.Spawn(kind, t); err != nil {
				if errors.Is(err, ErrTileOccupied) {
					continue
				}
				return err
			}
			placed++
		}
		return nil
	}
	if err := place(KindRock, w.cfg.Rocks); err != nil {
		return err
	}
	return place(KindWeed, w.cfg.Weeds)
}

// Start moves the run from PhaseStart to PhasePlay.
func (w *World) Start() {
	if w.phase == PhaseStart {
		w.setPhase(PhasePlay)
	}
}

// Step advances the clock by dt seconds. A day rollover restores energy.
// It does nothing outside PhasePlay.
func (w *World) Step(dt float64) {
	if w.phase != PhasePlay {
		return
	}
	w.ticks++
	w.clock += dt
	for w.clock >= w.cfg.DayLength {
		w.clock -= w.cfg.DayLength
		w.day++
		w.energy = w.cfg.MaxEnergy
		if w.logger != nil {
			w.logger.Debug("new day", "day", w.day)
		}
	}
}

// Spawn places an entity of kind on t and returns its slot.
func (w *World) Spawn(kind Kind, t Tile) (int, error) {
	if !w.InBounds(t) {
		return 0, fmt.Errorf("%w: %s", ErrOutOfWorld, t)
	}
	if w.tileIndex[w.tileID(t)] != 0 {
		return 0, fmt.Errorf("%w: %s", ErrTileOccupied, t)
	}

	slot := w.count
	if !w.free.IsEmpty() {
		slot = int(w.free.Minimum())
		w.free.Remove(uint32(slot))
	} else if w.count == len(w.entities) {
		return 0, fmt.Errorf("%w: %d entities", ErrWorldFull, len(w.entities))
	} else {
		w.count++
	}

	e := Entity{X: int32(t.X), Y: int32(t.Y), Kind: kind, Alive: true}
	switch kind {
	case KindRock:
		e.Health = int16(w.cfg.RockHealth)
	case KindWeed:
		e.Health = int16(w.cfg.WeedHealth)
	}
	w.entities[slot] = e
	w.tileIndex[w.tileID(t)] = int32(slot) + 1
	if kind.Solid() {
		w.occupied.Add(w.tileID(t))
	}
	return slot, nil
}

// Harvest hits the solid entity on t, spending energy. When its health
// reaches zero it is replaced by a drop carrying its resource. A hit is
// allowed with less energy than it costs: energy then drops to zero.
// Running out of energy ends the run.
func (w *World) Harvest(t Tile) error {
	if w.phase != PhasePlay {
		return ErrNotPlaying
	}
	slot, ok := w.at(t)
	if !ok || !w.entities[slot].Kind.Solid() {
		return fmt.Errorf("%w at %s", ErrNothingToHarvest, t)
	}

	w.energy = max(w.energy-w.cfg.HarvestCost, 0)
	e := &w.entities[slot]
	e.Health--
	if e.Health <= 0 {
		resource := e.Kind.yield()
		w.kill(slot)
		w.entities[slot] = Entity{X: int32(t.X), Y: int32(t.Y), Kind: KindDrop, Resource: resource, Alive: true}
		w.tileIndex[w.tileID(t)] = int32(slot) + 1
		w.free.Remove(uint32(slot))
		if w.logger != nil {
			w.logger.Debug("harvested", "tile", t, "resource", resource)
		}
	}

	if w.energy == 0 {
		w.setPhase(PhaseGameOver)
	}
	return nil
}

// MoveTo puts the player on t, collecting any drop there.
func (w *World) MoveTo(t Tile) error {
	if w.phase != PhasePlay {
		return ErrNotPlaying
	}
	if !w.InBounds(t) {
		return fmt.Errorf("%w: %s", ErrOutOfWorld, t)
	}
	if w.occupied.Contains(w.tileID(t)) {
		return fmt.Errorf("%w: %s", ErrTileBlocked, t)
	}
	w.player = t
	if slot, ok := w.at(t); ok && w.entities[slot].Kind == KindDrop {
		w.inv.add(w.entities[slot].Resource)
		w.kill(slot)
	}
	return nil
}

// At returns the entity on t.
func (w *World) At(t Tile) (Entity, bool) {
	slot, ok := w.at(t)
	if !ok {
		return Entity{}, false
	}
	return w.entities[slot], true
}

// InBounds reports whether t is on the map.
func (w *World) InBounds(t Tile) bool {
	return t.X >= 0 && t.Y >= 0 && t.X < w.cfg.Width && t.Y < w.cfg.Height
}

// Solids returns the tiles holding rocks or weeds in row-major order.
func (w *World) Solids() []Tile {
	tiles := make([]Tile, 0, w.occupied.GetCardinality())
	it := w.occupied.Iterator()
	for it.HasNext() {
		id := int(it.Next())
		tiles = append(tiles, Tile{X: id % w.cfg.Width, Y: id / w.cfg.Width})
	}
	return tiles
}

// Player returns the tile the player stands on.
func (w *World) Player() Tile { return w.player }

// Inventory returns the resources collected so far.
func (w *World) Inventory() Inventory { return w.inv }

// Energy returns the energy left for today.
func (w *World) Energy() int { return w.energy }

// Day returns the current day, starting at 1.
func (w *World) Day() int { return w.day }

// Ticks returns the number of Step calls made in PhasePlay.
func (w *World) Ticks() uint64 { return w.ticks }

// Phase returns the current run phase.
func (w *World) Phase() Phase { return w.phase }

// Counts tallies live entities by kind.
func (w *World) Counts() map[Kind]int {
	counts := make(map[Kind]int, 3)
	for _, e := range w.entities[:w.count] {
		if e.Alive {
			counts[e.Kind]++
		}
	}
	return counts
}

func (w *World) at(t Tile) (int, bool) {
	if !w.InBounds(t) {
		return 0, false
	}
	idx := w.tileIndex[w.tileID(t)]
	if idx == 0 {
		return 0, false
	}
	return int(idx - 1), true
}

func (w *World) kill(slot int) {
	e := &w.entities[slot]
	t := e.Tile()
	w.tileIndex[w.tileID(t)] = 0
	w.occupied.Remove(w.tileID(t))
	*e = Entity{}
	w.free.Add(uint32(slot))
}

func (w *World) setPhase(p Phase) {
	if w.logger != nil {
		w.logger.Debug("phase", "from", w.phase, "to", p, "day", w.day, "ticks", w.ticks)
	}
	w.phase = p
}

func (w *World) tileID(t Tile) uint32 {
	return uint32(t.Y*w.cfg.Width + t.X)
}

func (w *World) tiles() int {
	return w.cfg.Width * w.cfg.Height
}
