package game

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrInvalidMap is returned when a StageMap breaks its shape invariants.
var ErrInvalidMap = errors.New("invalid stage map")

// IndexSet is a set of row-major tile indices. It travels as a sorted JSON array.
type IndexSet map[int]struct{}

// NewIndexSet builds a set from the given indices.
func NewIndexSet(indices ...int) IndexSet {
	s := make(IndexSet, len(indices))
	for _, i := range indices {
		s[i] = struct{}{}
	}
	return s
}

func (s IndexSet) Has(i int) bool {
	_, ok := s[i]
	return ok
}

// Sorted returns the members in ascending order.
func (s IndexSet) Sorted() []int {
	out := make([]int, 0, len(s))
	for i := range s {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

func (s IndexSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

func (s *IndexSet) UnmarshalJSON(b []byte) error {
	var indices []int
	if err := json.Unmarshal(b, &indices); err != nil {
		return err
	}
	*s = NewIndexSet(indices...)
	return nil
}

// StageMap is the static tile grid of one level.
// SpriteData is row-major; sprite id 0 means an empty cell.
type StageMap struct {
	Rows            int      `json:"rows"`
	Columns         int      `json:"columns"`
	SpriteData      []int    `json:"spriteData"`
	SolidIndices    IndexSet `json:"solidIndices"`
	PlatformIndices IndexSet `json:"platformIndices"`
}

// Clone returns a copy that shares no slice or set with m.
func (m StageMap) Clone() StageMap {
	out := m
	out.SpriteData = append([]int(nil), m.SpriteData...)
	out.SolidIndices = NewIndexSet(m.SolidIndices.Sorted()...)
	out.PlatformIndices = NewIndexSet(m.PlatformIndices.Sorted()...)
	return out
}

// Validate checks the grid shape, its size limit and that every solid/platform
// index is a tile.
func (m StageMap) Validate() error {
	if m.Rows <= 0 || m.Columns <= 0 {
		return fmt.Errorf("%w: %dx%d grid", ErrInvalidMap, m.Rows, m.Columns)
	}
	if m.Rows > MaxStageDimension || m.Columns > MaxStageDimension {
		return fmt.Errorf("%w: %dx%d grid exceeds %d tiles per side", ErrInvalidMap, m.Rows, m.Columns, MaxStageDimension)
	}
	if len(m.SpriteData) != m.Rows*m.Columns {
		return fmt.Errorf("%w: %d sprites for %dx%d grid", ErrInvalidMap, len(m.SpriteData), m.Rows, m.Columns)
	}
	for name, set := range map[string]IndexSet{"solid": m.SolidIndices, "platform": m.PlatformIndices} {
		for i := range set {
			if i < 0 || i >= len(m.SpriteData) {
				return fmt.Errorf("%w: %s index %d out of range", ErrInvalidMap, name, i)
			}
		}
	}
	return nil
}

// Stage answers collision queries against one immutable StageMap.
type Stage struct {
	m StageMap
}

// NewStage validates the map and wraps it. The map must not be mutated afterwards.
func NewStage(m StageMap) (*Stage, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	if m.SolidIndices == nil {
		m.SolidIndices = IndexSet{}
	}
	if m.PlatformIndices == nil {
		m.PlatformIndices = IndexSet{}
	}
	return &Stage{m: m}, nil
}

func (s *Stage) Map() StageMap { return s.m }

func (s *Stage) Rows() int { return s.m.Rows }
func (s *Stage) Columns() int { return s.m.Columns }

// Width and Height are the stage extent in world units.
func (s *Stage) Width() float64 { return float64(s.m.Columns * SpriteLength) }
func (s *Stage) Height() float64 { return float64(s.m.Rows * SpriteLength) }

// Sprite returns the sprite id at row/col, or 0 outside the grid.
func (s *Stage) Sprite(row, col int) int {
	if row < 0 || col < 0 || row >= s.m.Rows || col >= s.m.Columns {
		return 0
	}
	return s.m.SpriteData[row*s.m.Columns+col]
}

// SpriteAt returns the sprite id of the tile containing p.
func (s *Stage) SpriteAt(p Vector) int {
	return s.Sprite(tile(p.Y), tile(p.X))
}

func (s *Stage) index(row, col int) int { return row*s.m.Columns + col }

func (s *Stage) solid(row, col int) bool { return s.m.SolidIndices.Has(s.index(row, col)) }

func (s *Stage) ground(row, col int) bool {
	i := s.index(row, col)
	return s.m.SolidIndices.Has(i) || s.m.PlatformIndices.Has(i)
}

// tile converts a world coordinate to a row or column.
func tile(v float64) int {
	return int(math.Floor(v / SpriteLength))
}

// CollisionAbove reports whether a solid tile sits over the box and, if so,
// the entity y that puts the box just under it.
func (s *Stage) CollisionAbove(e EntityMetadata) (float64, bool) {
	x, y := e.boxOrigin()
	box := e.CollisionBox
	row := tile(y+box.Height/2) - 1
	left := tile(x + 1)
	right := tile(x + box.Width - 1)
	boundary := float64((row+1)*SpriteLength + 1)

	if (s.solid(row, left) || s.solid(row, right)) && y < boundary {
		return boundary - box.Offset.Y, true
	}
	return 0, false
}

// CollisionLeft reports a solid tile immediately left of the box.
func (s *Stage) CollisionLeft(e EntityMetadata) (float64, bool) {
	x, y := e.boxOrigin()
	box := e.CollisionBox
	col := tile(x+box.Width/2) - 1
	upper := tile(y + 1)
	lower := tile(y + box.Height - 1)
	boundary := float64((col+1)*SpriteLength + 1)

	if (s.solid(upper, col) || s.solid(lower, col)) && x <= boundary {
		return boundary - box.Offset.X, true
	}
	return 0, false
}

// CollisionRight reports a solid tile immediately right of the box.
func (s *Stage) CollisionRight(e EntityMetadata) (float64, bool) {
	x, y := e.boxOrigin()
	box := e.CollisionBox
	col := tile(x+box.Width/2) + 1
	upper := tile(y + 1)
	lower := tile(y + box.Height - 1)
	boundary := float64(col*SpriteLength - 1)

	if (s.solid(upper, col) || s.solid(lower, col)) && x+box.Width >= boundary {
		return boundary - box.Offset.X - box.Width, true
	}
	return 0, false
}

// CollisionBelow reports ground (solid or platform) under the box. Unlike the
// other queries it looks one tick ahead using vy.
func (s *Stage) CollisionBelow(e EntityMetadata, vy float64) (float64, bool) {
	x, y := e.boxOrigin()
	box := e.CollisionBox
	row := tile(y+box.Height) + 1
	left := tile(x + 1)
	right := tile(x + box.Width - 1)
	boundary := float64(row*SpriteLength - 1)

	if (s.ground(row, left) || s.ground(row, right)) && y+vy+box.Height >= boundary {
		return boundary - box.Offset.Y - box.Height, true
	}
	return 0, false
}
