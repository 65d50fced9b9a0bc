package game

import (
	"encoding/json"
	"fmt"
)

// Vector is a 2D quantity used for positions, velocities and accelerations.
type Vector struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (v Vector) Add(o Vector) Vector { return Vector{X: v.X + o.X, Y: v.Y + o.Y} }

// CollisionBox is an axis-aligned rectangle offset from an entity's logical position.
type CollisionBox struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Offset Vector  `json:"offset"`
}

func (b CollisionBox) Validate() error {
	if b.Width <= 0 || b.Height <= 0 {
		return fmt.Errorf("collision box %vx%v: width and height must be positive", b.Width, b.Height)
	}
	return nil
}

// Character selects the sprite skin of a player.
type Character string

const (
	CharacterOrange Character = "ORANGE"
	CharacterGreen  Character = "GREEN"
	CharacterBlue   Character = "BLUE"
)

// Characters lists every selectable skin.
var Characters = []Character{CharacterOrange, CharacterGreen, CharacterBlue}

// EntityMetadata is the complete observable state of one player and the unit
// sent over the wire.
type EntityMetadata struct {
	UserName     string       `json:"userName"`
	Character    Character    `json:"character"`
	Position     Vector       `json:"position"`
	SpriteIndex  int          `json:"spriteIndex"`
	IsFlipped    bool         `json:"isFlipped"`
	CollisionBox CollisionBox `json:"collisionBox"`
}

// boxOrigin returns the top-left corner of the collision box in world units.
func (m EntityMetadata) boxOrigin() (float64, float64) {
	return m.Position.X + m.CollisionBox.Offset.X, m.Position.Y + m.CollisionBox.Offset.Y
}

// Center returns the middle of the collision box.
func (m EntityMetadata) Center() Vector {
	x, y := m.boxOrigin()
	return Vector{X: x + m.CollisionBox.Width/2, Y: y + m.CollisionBox.Height/2}
}

// PlayerState is the discrete animation state of a player.
type PlayerState int

const (
	StateStanding PlayerState = iota
	StateWalking
	StateFalling
	StateDead
)

var playerStateNames = [...]string{"STANDING", "WALKING", "FALLING", "DEAD"}

func (s PlayerState) String() string {
	if s < 0 || int(s) >= len(playerStateNames) {
		return fmt.Sprintf("PlayerState(%d)", int(s))
	}
	return playerStateNames[s]
}

func (s PlayerState) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *PlayerState) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err != nil {
		return err
	}
	for i, n := range playerStateNames {
		if n == name {
			*s = PlayerState(i)
			return nil
		}
	}
	return fmt.Errorf("unknown player state %q", name)
}

// Grounded reports whether the state rests on a tile.
func (s PlayerState) Grounded() bool {
	return s == StateStanding || s == StateWalking
}
