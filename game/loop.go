package game

// Transport carries the controlled player's metadata to room peers.
type Transport interface {
	Emit(EntityMetadata)
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(EntityMetadata)

func (f TransportFunc) Emit(m EntityMetadata) { f(m) }

// LoopOptions are the collaborators of a Loop. Nil fields get no-op defaults.
type LoopOptions struct {
	Transport Transport
	Registry  *Registry
	Land      Sound
	Respawner *Respawner
}

// Loop advances the controlled player one tick at a time against a stage.
// It is not safe for concurrent use; the goroutine calling Tick owns the player.
type Loop struct {
	stage     *Stage
	player    *Player
	registry  *Registry
	transport Transport
	land      Sound
	respawner *Respawner
}

func NewLoop(stage *Stage, player *Player, opts LoopOptions) *Loop {
	l := &Loop{
		stage:     stage,
		player:    player,
		registry:  opts.Registry,
		transport: opts.Transport,
		land:      opts.Land,
		respawner: opts.Respawner,
	}
	if l.registry == nil {
		l.registry = NewRegistry(player.Metadata().UserName)
	}
	if l.transport == nil {
		l.transport = TransportFunc(func(EntityMetadata) {})
	}
	if l.land == nil {
		l.land = NopSound{}
	}
	if l.respawner == nil {
		l.respawner = NewRespawner(nil, RespawnDelay)
	}
	return l
}

func (l *Loop) Stage() *Stage { return l.stage }
func (l *Loop) Player() *Player { return l.player }
func (l *Loop) Registry() *Registry { return l.registry }
func (l *Loop) Respawner() *Respawner { return l.respawner }

// Tick runs due respawns, then one step of movement resolution.
func (l *Loop) Tick() {
	l.RunRespawns()
	l.step()
}

// RunRespawns resets the player for every fired task that still matches its
// current generation.
func (l *Loop) RunRespawns() {
	id := l.player.Metadata().UserName
	for _, t := range l.respawner.Due() {
		if t.ID == id && t.Generation == l.player.Generation() {
			l.player.Reset()
		}
	}
}

func (l *Loop) reset() {
	l.respawner.Cancel(l.player.Metadata().UserName)
	l.player.Reset()
}

func (l *Loop) step() {
	p := l.player
	moved := p.IsMoving()

	if p.Position().Y > l.stage.Height() {
		l.reset()
		return
	}

	meta := p.Metadata()
	if l.stage.SpriteAt(meta.Center()) == HazardSprite {
		p.SetState(StateDead)
		l.respawner.Schedule(meta.UserName, p.Generation())
	}

	p.Update()
	meta = p.Metadata()
	k := p.Kinematics()

	above, blockedAbove := l.stage.CollisionAbove(meta)
	left, blockedLeft := l.stage.CollisionLeft(meta)
	right, blockedRight := l.stage.CollisionRight(meta)
	below, blockedBelow := l.stage.CollisionBelow(meta, k.Velocity.Y)

	pos := meta.Position
	switch {
	case blockedLeft && k.Velocity.X < 0:
		pos.X = left
		k.Velocity.X = 0
	case blockedRight && k.Velocity.X > 0:
		pos.X = right
		k.Velocity.X = 0
	default:
		k = ClampSpeed(ApplyFriction(k))
	}

	landed := blockedBelow && k.Velocity.Y >= 0
	if landed {
		pos.Y = below
		k.Acceleration.Y = 0
	} else {
		k.Acceleration.Y = Gravity
	}
	p.SetPosition(pos)
	p.SetKinematics(k)
	l.resolveState(landed)

	p.UpdateSprite()

	k = p.Kinematics()
	grounded := p.State().Grounded() || (p.State() == StateDead && landed)
	switch {
	case blockedAbove:
		pos = p.Position()
		pos.Y = above
		p.SetPosition(pos)
		k.Velocity.Y = 0
	case grounded:
		k.Velocity.Y = 0
	default:
		k.Velocity.Y += k.Acceleration.Y
	}
	p.SetKinematics(k)

	p.UpdateFacing()

	if moved {
		l.transport.Emit(p.Metadata())
	}
}

// resolveState drives the state machine from this tick's ground contact.
// A dead player keeps its state until the respawn fires.
func (l *Loop) resolveState(landed bool) {
	p := l.player
	if p.State() == StateDead {
		return
	}
	if !landed {
		p.SetState(StateFalling)
		return
	}
	if p.State() == StateFalling {
		p.SetState(StateStanding)
		l.land.Play()
	}
	if p.Kinematics().Velocity.X == 0 {
		p.SetState(StateStanding)
		return
	}
	switch p.State() {
	case StateStanding:
		p.SetState(StateWalking)
	case StateWalking:
		p.TickAnimation()
	}
}
