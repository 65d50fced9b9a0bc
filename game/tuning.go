package game

import "time"

// SpriteLength is the tile edge in world units. Map authoring, collision math
// and rendering must all agree on it.
const SpriteLength = 16

// MaxStageDimension bounds the rows and the columns of a stage map.
const MaxStageDimension = 512

const (
	Acceleration    = 1.0
	Gravity         = 0.3
	MaxSpeed        = 3.0
	JumpVelocity    = 6.0
	Friction        = 0.4
	AnimationBuffer = 6 // ticks per animation frame

	HazardSprite = 22
	RespawnDelay = 2 * time.Second
)

// SpawnPosition is where a reset player reappears.
var SpawnPosition = Vector{X: 120, Y: 200}
