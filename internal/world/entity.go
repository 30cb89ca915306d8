package world

import (
	"fmt"
	"math"
)

// Kind identifies what occupies a tile.
type Kind uint8

const (
	KindNone Kind = iota
	KindRock      // drops stone
	KindWeed      // drops fiber
	KindDrop      // collectable resource left by a harvest
)

// String returns the lowercase kind name.
func (k Kind) String() string {
	switch k {
	case KindRock:
		return "rock"
	case KindWeed:
		return "weed"
	case KindDrop:
		return "drop"
	default:
		return "none"
	}
}

// Solid reports whether the kind blocks movement and can be harvested.
func (k Kind) Solid() bool {
	return k == KindRock || k == KindWeed
}

// Resource is an item the player can carry.
type Resource uint8

// Resources carried by drops.
const (
	ResourceNone Resource = iota
	ResourceStone
	ResourceFiber
)

// String returns the lowercase resource name.
func (r Resource) String() string {
	switch r {
	case ResourceStone:
		return "stone"
	case ResourceFiber:
		return "fiber"
	default:
		return "none"
	}
}

// yield returns the resource a harvested entity of kind k leaves behind.
func (k Kind) yield() Resource {
	switch k {
	case KindRock:
		return ResourceStone
	case KindWeed:
		return ResourceFiber
	default:
		return ResourceNone
	}
}

// Entity is one slot of the entity table. It lives in arena memory and
// must not hold Go pointers.
type Entity struct {
	X, Y     int32
	Kind     Kind
	Resource Resource // carried by drops
	Health   int16
	Alive    bool
}

// Tile returns the tile the entity stands on.
func (e Entity) Tile() Tile {
	return Tile{X: int(e.X), Y: int(e.Y)}
}

// Tile is a grid coordinate.
type Tile struct {
	X, Y int
}

// String formats t as "(x,y)".
func (t Tile) String() string {
	return fmt.Sprintf("(%d,%d)", t.X, t.Y)
}

// SnapToTile converts a world position to the tile containing it.
func SnapToTile(x, y, tileSize float64) Tile {
	return Tile{
		X: int(math.Floor(x / tileSize)),
		Y: int(math.Floor(y / tileSize)),
	}
}

// Inventory counts collected resources.
type Inventory struct {
	Stone int
	Fiber int
}

func (inv *Inventory) add(r Resource) {
	switch r {
	case ResourceStone:
		inv.Stone++
	case ResourceFiber:
		inv.Fiber++
	}
}
