package game

import (
	"math"
	"testing"
)

type countingSound struct{ n int }

func (s *countingSound) Play() { s.n++ }

func newTestPlayer(state PlayerState) (*Player, *countingSound) {
	jump := &countingSound{}
	p := NewPlayer(EntityMetadata{
		UserName:     "p1",
		Character:    CharacterBlue,
		Position:     Vector{X: 16, Y: 17},
		CollisionBox: CollisionBox{Width: 14, Height: 14},
	}, jump)
	p.SetState(state)
	return p, jump
}

func TestFrictionSnapsToZero(t *testing.T) {
	for _, v := range []float64{0.39, 0.2, 0.01, -0.01, -0.2, -0.39} {
		k := ApplyFriction(Kinematics{Velocity: Vector{X: v}})
		if k.Velocity.X != 0 {
			t.Errorf("v=%v: friction left %v, want exactly 0", v, k.Velocity.X)
		}
	}
	k := ApplyFriction(Kinematics{Velocity: Vector{X: 1}})
	if math.Abs(k.Velocity.X-0.6) > 1e-9 {
		t.Errorf("v=1: got %v, want 0.6", k.Velocity.X)
	}
	k = ApplyFriction(Kinematics{Velocity: Vector{X: 0.2}, Acceleration: Vector{X: 1}})
	if k.Velocity.X != 0.2 {
		t.Errorf("friction must not apply while accelerating, got %v", k.Velocity.X)
	}
}

func TestSpeedNeverExceedsMax(t *testing.T) {
	for _, ax := range []float64{Acceleration, -Acceleration} {
		var pos Vector
		k := Kinematics{Acceleration: Vector{X: ax}}
		for i := 0; i < 50; i++ {
			pos, k = Integrate(pos, k)
			k = ClampSpeed(ApplyFriction(k))
			if math.Abs(k.Velocity.X) > MaxSpeed {
				t.Fatalf("ax=%v tick %d: |vx|=%v exceeds %v", ax, i, k.Velocity.X, MaxSpeed)
			}
		}
		if math.Abs(k.Velocity.X) != MaxSpeed {
			t.Fatalf("ax=%v: expected to reach max speed, got %v", ax, k.Velocity.X)
		}
	}
}

func TestIntegrateLeavesVerticalVelocity(t *testing.T) {
	pos, k := Integrate(Vector{X: 1, Y: 1}, Kinematics{
		Velocity:     Vector{X: 2, Y: 3},
		Acceleration: Vector{X: 1, Y: Gravity},
	})
	if pos != (Vector{X: 3, Y: 4}) {
		t.Fatalf("pos = %+v", pos)
	}
	if k.Velocity != (Vector{X: 3, Y: 3}) {
		t.Fatalf("velocity = %+v", k.Velocity)
	}
}

func TestJumpFromStanding(t *testing.T) {
	p, jump := newTestPlayer(StateStanding)
	p.KeyPressed("w")

	if p.State() != StateFalling {
		t.Fatalf("state = %v, want FALLING", p.State())
	}
	if vy := p.Kinematics().Velocity.Y; vy != -JumpVelocity {
		t.Fatalf("vy = %v, want %v", vy, -JumpVelocity)
	}
	if y := p.Position().Y; y != 16 {
		t.Fatalf("y = %v, want 16 (one unit nudge)", y)
	}
	if jump.n != 1 {
		t.Fatalf("jump sound played %d times", jump.n)
	}
}

func TestNoJumpWhileAirborneOrDead(t *testing.T) {
	for _, s := range []PlayerState{StateFalling, StateDead} {
		p, jump := newTestPlayer(s)
		p.KeyPressed("W")
		if p.State() != s || p.Kinematics().Velocity.Y != 0 || jump.n != 0 {
			t.Errorf("%v: jump should be ignored", s)
		}
	}
}

func TestStaleReleaseKeepsOppositeKey(t *testing.T) {
	p, _ := newTestPlayer(StateStanding)
	p.KeyPressed("A")
	p.KeyPressed("D")
	p.KeyReleased("A")
	if ax := p.Kinematics().Acceleration.X; ax != Acceleration {
		t.Fatalf("ax = %v after stale A release, want %v", ax, Acceleration)
	}
	p.KeyReleased("D")
	if ax := p.Kinematics().Acceleration.X; ax != 0 {
		t.Fatalf("ax = %v after D release, want 0", ax)
	}
}

func TestAnimationCycles(t *testing.T) {
	p, _ := newTestPlayer(StateWalking)
	var seen []int
	for i := 0; i < 4*(AnimationBuffer+1); i++ {
		p.TickAnimation()
		p.UpdateSprite()
		if len(seen) == 0 || seen[len(seen)-1] != p.Metadata().SpriteIndex {
			seen = append(seen, p.Metadata().SpriteIndex)
		}
	}
	want := []int{355, 356, 357, 354}
	if len(seen) != len(want) {
		t.Fatalf("frames = %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("frames = %v, want %v", seen, want)
		}
	}
}

func TestStateChangeKeepsAnimationCursor(t *testing.T) {
	p, _ := newTestPlayer(StateWalking)
	p.TickAnimation() // index 1
	p.SetState(StateFalling)
	p.UpdateSprite()
	if got := p.Metadata().SpriteIndex; got != 358 {
		t.Fatalf("falling sprite = %d, want 358", got)
	}
	p.SetState(StateWalking)
	p.UpdateSprite()
	if got := p.Metadata().SpriteIndex; got != 355 {
		t.Fatalf("walking sprite = %d, want 355 (cursor preserved)", got)
	}
}

func TestEmptyFramesYieldZero(t *testing.T) {
	if got := (SpriteTable{}).Frame(StateWalking, 3); got != 0 {
		t.Fatalf("Frame on empty table = %d, want 0", got)
	}
}

func TestFacing(t *testing.T) {
	p, _ := newTestPlayer(StateStanding)
	p.SetKinematics(Kinematics{Velocity: Vector{X: -1}})
	p.UpdateFacing()
	if !p.Metadata().IsFlipped {
		t.Fatal("moving left should flip")
	}
	p.SetKinematics(Kinematics{})
	p.UpdateFacing()
	if !p.Metadata().IsFlipped {
		t.Fatal("zero velocity must keep facing")
	}
	p.SetKinematics(Kinematics{Velocity: Vector{X: 0.5}})
	p.UpdateFacing()
	if p.Metadata().IsFlipped {
		t.Fatal("moving right should unflip")
	}
}
