package game

import (
	"math"
	"strings"
)

// Sound is a fire-and-forget audio cue.
type Sound interface {
	Play()
}

// Kinematics is the per-tick motion state of a body. Resolution steps take
// it by value and return the updated copy.
type Kinematics struct {
	Velocity     Vector
	Acceleration Vector
}

// Moving reports a non-zero velocity.
func (k Kinematics) Moving() bool {
	return k.Velocity.X != 0 || k.Velocity.Y != 0
}

// Integrate advances pos by the velocity, then feeds the horizontal
// acceleration into the velocity. Vertical velocity is left to contact resolution.
func Integrate(pos Vector, k Kinematics) (Vector, Kinematics) {
	pos = pos.Add(k.Velocity)
	k.Velocity.X += k.Acceleration.X
	return pos, k
}

// ApplyFriction decays vx toward zero while no horizontal acceleration is held.
func ApplyFriction(k Kinematics) Kinematics {
	if k.Acceleration.X != 0 {
		return k
	}
	switch {
	case math.Abs(k.Velocity.X) < Friction:
		k.Velocity.X = 0
	case k.Velocity.X > 0:
		k.Velocity.X -= Friction
	default:
		k.Velocity.X += Friction
	}
	return k
}

// ClampSpeed limits vx to ±MaxSpeed.
func ClampSpeed(k Kinematics) Kinematics {
	if k.Velocity.X >= MaxSpeed {
		k.Velocity.X = MaxSpeed
	} else if k.Velocity.X <= -MaxSpeed {
		k.Velocity.X = -MaxSpeed
	}
	return k
}

// Player is the locally controlled entity: metadata plus kinematics and the
// animation state machine. It is owned by a single loop goroutine.
type Player struct {
	meta  EntityMetadata
	kin   Kinematics
	state PlayerState

	stateIndex     int
	animationTimer int
	sprites        SpriteTable

	// generation is bumped by every reset; respawn tasks carry the value
	// they were scheduled under.
	generation uint64

	jump Sound
}

// NewPlayer builds a player for the given metadata. jump may be nil.
func NewPlayer(meta EntityMetadata, jump Sound) *Player {
	if jump == nil {
		jump = NopSound{}
	}
	return &Player{
		meta:    meta,
		state:   StateFalling,
		sprites: spriteTableFor(meta.Character),
		jump:    jump,
	}
}

func (p *Player) Metadata() EntityMetadata { return p.meta }
func (p *Player) Kinematics() Kinematics { return p.kin }
func (p *Player) SetKinematics(k Kinematics) { p.kin = k }
func (p *Player) State() PlayerState { return p.state }
func (p *Player) SetState(s PlayerState) { p.state = s }
func (p *Player) Position() Vector { return p.meta.Position }
func (p *Player) SetPosition(v Vector) { p.meta.Position = v }
func (p *Player) Generation() uint64 { return p.generation }
func (p *Player) IsMoving() bool { return p.kin.Moving() }

// KeyPressed handles W (jump), A (left) and D (right).
func (p *Player) KeyPressed(key string) {
	switch strings.ToUpper(key) {
	case "W":
		if p.state.Grounded() {
			p.jump.Play()
			p.meta.Position.Y--
			p.kin.Velocity.Y = -JumpVelocity
			p.state = StateFalling
		}
	case "A":
		p.kin.Acceleration.X = -Acceleration
	case "D":
		p.kin.Acceleration.X = Acceleration
	}
}

// KeyReleased clears horizontal acceleration only if it still points the
// released direction, so a late release cannot cancel the opposite key.
func (p *Player) KeyReleased(key string) {
	switch strings.ToUpper(key) {
	case "A":
		if p.kin.Acceleration.X < 0 {
			p.kin.Acceleration.X = 0
		}
	case "D":
		if p.kin.Acceleration.X > 0 {
			p.kin.Acceleration.X = 0
		}
	}
}

// Update integrates position and horizontal velocity by one tick.
func (p *Player) Update() {
	p.meta.Position, p.kin = Integrate(p.meta.Position, p.kin)
}

// TickAnimation advances the frame cursor every AnimationBuffer ticks.
func (p *Player) TickAnimation() {
	if p.animationTimer > 0 {
		p.animationTimer--
		return
	}
	if n := len(p.sprites[p.state]); n > 0 {
		p.stateIndex = (p.stateIndex + 1) % n
	} else {
		p.stateIndex = 0
	}
	p.animationTimer = AnimationBuffer
}

// UpdateSprite copies the current frame into the metadata.
func (p *Player) UpdateSprite() {
	p.meta.SpriteIndex = p.sprites.Frame(p.state, p.stateIndex)
}

// UpdateFacing flips the sprite from the sign of vx; zero keeps the facing.
func (p *Player) UpdateFacing() {
	if p.kin.Velocity.X > 0 {
		p.meta.IsFlipped = false
	} else if p.kin.Velocity.X < 0 {
		p.meta.IsFlipped = true
	}
}

// Reset returns the player to the spawn point, falling and at rest.
func (p *Player) Reset() {
	p.meta.Position = SpawnPosition
	p.kin.Velocity = Vector{}
	p.state = StateFalling
	p.meta.IsFlipped = false
	p.generation++
}

// NopSound plays nothing.
type NopSound struct{}

func (NopSound) Play() {}
