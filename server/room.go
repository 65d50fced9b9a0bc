package server

import (
	"math/rand"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"platformparty/game"
	"platformparty/protocol"
)

// RoomConfig holds the tunables an admin can change at runtime.
type RoomConfig struct {
	UpdatesPerSecond   float64 `json:"updatesPerSecond"`
	UpdateBurst        int     `json:"updateBurst"`
	SimulateDelayMinMs int     `json:"simulateDelayMinMs"`
	SimulateDelayMaxMs int     `json:"simulateDelayMaxMs"`
	SimulateDropProb   float64 `json:"simulateDropProb"`
}

// DefaultRoomConfig allows two updates per client tick at 60 Hz.
func DefaultRoomConfig() RoomConfig {
	return RoomConfig{
		UpdatesPerSecond: 120,
		UpdateBurst:      10,
	}
}

type delayedUpdate struct {
	due time.Time
	cmd updateCmd
}

// Room relays player metadata between the members of one game room. All
// member state is owned by the goroutine started in StartTicker.
type Room struct {
	ID string

	members map[string]*Player
	inbox   chan any
	quit    chan struct{}
	delayed []delayedUpdate

	cfgMu sync.RWMutex
	cfg   RoomConfig

	metrics  *RoomMetrics
	snapshot atomic.Pointer[[]game.EntityMetadata]
	rng      *rand.Rand

	tickerStarted bool
	stopOnce      sync.Once
}

// NewRoom creates an idle room; StartTicker runs it.
func NewRoom(id string, cfg RoomConfig) *Room {
	r := &Room{
		ID:      id,
		members: make(map[string]*Player),
		inbox:   make(chan any, 256),
		quit:    make(chan struct{}),
		cfg:     cfg,
		metrics: &RoomMetrics{},
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	empty := []game.EntityMetadata{}
	r.snapshot.Store(&empty)
	return r
}

func (r *Room) Config() RoomConfig {
	r.cfgMu.RLock()
	defer r.cfgMu.RUnlock()
	return r.cfg
}

// UpdateConfig applies fn to the room config under the lock.
func (r *Room) UpdateConfig(fn func(*RoomConfig)) RoomConfig {
	r.cfgMu.Lock()
	defer r.cfgMu.Unlock()
	fn(&r.cfg)
	return r.cfg
}

func (r *Room) Metrics() *RoomMetrics { return r.metrics }

// Snapshot returns the players as of the last membership or metadata change.
// Safe to call from any goroutine.
func (r *Room) Snapshot() []game.EntityMetadata {
	return *r.snapshot.Load()
}

// Join asks the room to log conn in under userName. It blocks until queued
// and reports false when the room has stopped.
func (r *Room) Join(conn Conn, userName string) bool {
	select {
	case r.inbox <- joinCmd{conn: conn, userName: userName}:
		return true
	case <-r.quit:
		return false
	}
}

// OnUpdate queues a metadata update without blocking. Simulated loss and
// latency from the room config apply here.
func (r *Room) OnUpdate(conn Conn, meta game.EntityMetadata) {
	cfg := r.Config()
	if cfg.SimulateDropProb > 0 && rand.Float64() < cfg.SimulateDropProb {
		r.metrics.IncDropsSimulated()
		return
	}
	select {
	case r.inbox <- updateCmd{conn: conn, meta: meta}:
	default:
		r.metrics.IncChanFullDiscarded()
	}
}

// RequestLeave removes conn's player on the room goroutine. It blocks until queued.
func (r *Room) RequestLeave(conn Conn) {
	select {
	case r.inbox <- leaveCmd{conn: conn}:
	case <-r.quit:
	}
}

// Stop ends the room goroutine.
func (r *Room) Stop() {
	r.stopOnce.Do(func() { close(r.quit) })
}

func (r *Room) handleCommand(cmd any, now time.Time) {
	switch c := cmd.(type) {
	case joinCmd:
		r.joinPlayer(c)
	case updateCmd:
		if d := r.simulatedDelay(); d > 0 {
			r.delayed = append(r.delayed, delayedUpdate{due: now.Add(d), cmd: c})
			return
		}
		r.applyUpdate(c)
	case leaveCmd:
		r.leavePlayer(c.conn)
	}
}

func (r *Room) simulatedDelay() time.Duration {
	cfg := r.Config()
	if cfg.SimulateDelayMaxMs <= 0 {
		return 0
	}
	lo, hi := cfg.SimulateDelayMinMs, cfg.SimulateDelayMaxMs
	if lo < 0 {
		lo = 0
	}
	if hi < lo {
		hi = lo
	}
	return time.Duration(lo+r.rng.Intn(hi-lo+1)) * time.Millisecond
}

// releaseDelayed applies delayed updates that are due, in arrival order.
func (r *Room) releaseDelayed(now time.Time) {
	kept := r.delayed[:0]
	for _, d := range r.delayed {
		if now.Before(d.due) {
			kept = append(kept, d)
			continue
		}
		r.applyUpdate(d.cmd)
	}
	r.delayed = kept
}

func (r *Room) joinPlayer(c joinCmd) {
	if p := r.playerByConn(c.conn); p != nil {
		r.sendTo(p, protocol.MsgJoinedRoom, p.Meta)
		return
	}
	name := c.userName
	if name == "" {
		name = "player-" + shortID()
	}
	if _, taken := r.members[name]; taken {
		name = name + "-" + shortID()
	}
	character := game.Characters[r.rng.Intn(len(game.Characters))]
	p := &Player{Meta: newPlayerMeta(name, character), Conn: c.conn}
	r.members[name] = p
	playersGauge.Inc()
	r.publishSnapshot()

	Log.Infow("player joined", "room", r.ID, "player", name, "character", character)
	r.sendTo(p, protocol.MsgJoinedRoom, p.Meta)
	r.broadcast(name)
}

// applyUpdate overwrites the sender's metadata. The identity always comes
// from the connection, never from the payload.
func (r *Room) applyUpdate(c updateCmd) {
	p := r.playerByConn(c.conn)
	if p == nil {
		r.metrics.IncStale()
		return
	}
	meta := c.meta
	meta.UserName = p.Meta.UserName
	p.Meta = meta
	r.metrics.IncAccepted()
	r.publishSnapshot()
	r.broadcast(p.Meta.UserName)
}

func (r *Room) leavePlayer(conn Conn) {
	defer conn.Close()
	p := r.playerByConn(conn)
	if p == nil {
		return
	}
	name := p.Meta.UserName
	delete(r.members, name)
	playersGauge.Dec()
	r.publishSnapshot()
	Log.Infow("player left", "room", r.ID, "player", name)
	r.broadcast(name)
}

func (r *Room) playerByConn(conn Conn) *Player {
	for _, p := range r.members {
		if p.Conn == conn {
			return p
		}
	}
	return nil
}

func (r *Room) list() []game.EntityMetadata {
	out := make([]game.EntityMetadata, 0, len(r.members))
	for _, p := range r.members {
		out = append(out, p.Meta)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserName < out[j].UserName })
	return out
}

func (r *Room) publishSnapshot() {
	l := r.list()
	r.snapshot.Store(&l)
}

// broadcast sends the full player list to every member except the one named.
func (r *Room) broadcast(except string) {
	msg := protocol.ReceivePlayers{Players: r.list()}
	frames := make(map[string][]byte, 2)
	sent, dropped := 0, 0
	for name, p := range r.members {
		if name == except {
			continue
		}
		codec := p.Conn.Codec()
		b, ok := frames[codec.Name()]
		if !ok {
			var err error
			b, err = codec.Encode(protocol.MsgReceivePlayers, msg)
			if err != nil {
				Log.Errorw("encode player list", "room", r.ID, "codec", codec.Name(), "err", err)
				continue
			}
			frames[codec.Name()] = b
		}
		if p.Conn.Enqueue(b) {
			sent++
		} else {
			dropped++
		}
	}
	r.metrics.AddBroadcast(sent, dropped)
}

func (r *Room) sendTo(p *Player, t string, payload any) {
	b, err := p.Conn.Codec().Encode(t, payload)
	if err != nil {
		Log.Errorw("encode message", "room", r.ID, "type", t, "err", err)
		return
	}
	if !p.Conn.Enqueue(b) {
		r.metrics.AddBroadcast(0, 1)
	}
}
