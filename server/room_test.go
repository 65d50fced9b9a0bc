package server

import (
	"sync/atomic"
	"testing"
	"time"

	"platformparty/game"
	"platformparty/protocol"
)

type fakeConn struct {
	sendCh chan []byte
	codec  protocol.Codec
	full   atomic.Bool
	closed atomic.Bool
}

func newFakeConn() *fakeConn {
	return &fakeConn{sendCh: make(chan []byte, 64), codec: protocol.JSON}
}

func (f *fakeConn) Enqueue(b []byte) bool {
	if f.full.Load() {
		return false
	}
	cp := make([]byte, len(b))
	copy(cp, b)
	select {
	case f.sendCh <- cp:
		return true
	default:
		return false
	}
}

func (f *fakeConn) Codec() protocol.Codec { return f.codec }
func (f *fakeConn) Close()                { f.closed.Store(true) }

func nextEnvelope(t *testing.T, f *fakeConn) protocol.Envelope {
	t.Helper()
	select {
	case b := <-f.sendCh:
		env, err := f.codec.DecodeEnvelope(b)
		if err != nil {
			t.Fatalf("decode envelope: %v", err)
		}
		return env
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for a message")
	}
	return protocol.Envelope{}
}

func nextPlayers(t *testing.T, f *fakeConn) []game.EntityMetadata {
	t.Helper()
	env := nextEnvelope(t, f)
	if env.T != protocol.MsgReceivePlayers {
		t.Fatalf("message type = %q, want %q", env.T, protocol.MsgReceivePlayers)
	}
	list, err := protocol.DecodePayload[protocol.ReceivePlayers](f.codec, env)
	if err != nil {
		t.Fatalf("decode players: %v", err)
	}
	return list.Players
}

func expectSilence(t *testing.T, f *fakeConn) {
	t.Helper()
	select {
	case b := <-f.sendCh:
		t.Fatalf("unexpected message %s", b)
	case <-time.After(50 * time.Millisecond):
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func startRoom(t *testing.T, cfg RoomConfig) *Room {
	t.Helper()
	r := NewRoom("test", cfg)
	r.StartTicker()
	t.Cleanup(r.Stop)
	return r
}

func join(t *testing.T, r *Room, name string) (*fakeConn, game.EntityMetadata) {
	t.Helper()
	fc := newFakeConn()
	r.Join(fc, name)
	env := nextEnvelope(t, fc)
	if env.T != protocol.MsgJoinedRoom {
		t.Fatalf("first message = %q, want %q", env.T, protocol.MsgJoinedRoom)
	}
	meta, err := protocol.DecodePayload[protocol.JoinedRoom](fc.codec, env)
	if err != nil {
		t.Fatalf("decode joinedRoom: %v", err)
	}
	return fc, meta
}

func TestJoinRepliesToSenderAndBroadcastsToOthers(t *testing.T) {
	r := startRoom(t, DefaultRoomConfig())

	alice, meta := join(t, r, "alice")
	if meta.UserName != "alice" || meta.Position != DefaultSpawn || meta.CollisionBox != DefaultBox {
		t.Fatalf("joinedRoom = %+v", meta)
	}
	if meta.SpriteIndex != game.StandingSprite(meta.Character) {
		t.Fatalf("sprite = %d, want first standing frame of %s", meta.SpriteIndex, meta.Character)
	}
	expectSilence(t, alice)

	bob, _ := join(t, r, "bob")
	players := nextPlayers(t, alice)
	if len(players) != 2 || players[0].UserName != "alice" || players[1].UserName != "bob" {
		t.Fatalf("players = %+v", players)
	}
	expectSilence(t, bob)
}

func TestUpdateTakesIdentityFromConnection(t *testing.T) {
	r := startRoom(t, DefaultRoomConfig())
	alice, _ := join(t, r, "alice")
	bob, bobMeta := join(t, r, "bob")
	nextPlayers(t, alice)

	forged := bobMeta
	forged.UserName = "alice"
	forged.Position = game.Vector{X: 5, Y: 6}
	r.OnUpdate(bob, forged)

	players := nextPlayers(t, alice)
	if players[0].Position != DefaultSpawn {
		t.Fatalf("alice moved: %+v", players[0])
	}
	if players[1].UserName != "bob" || players[1].Position != (game.Vector{X: 5, Y: 6}) {
		t.Fatalf("bob = %+v", players[1])
	}
	expectSilence(t, bob)
	if got := r.Metrics().Snapshot()["updates_accepted"]; got != int64(1) {
		t.Fatalf("updates_accepted = %v", got)
	}
}

func TestUpdateFromUnknownConnectionIsStale(t *testing.T) {
	r := startRoom(t, DefaultRoomConfig())
	r.OnUpdate(newFakeConn(), game.EntityMetadata{UserName: "ghost"})
	waitFor(t, "stale count", func() bool { return atomic.LoadInt64(&r.Metrics().StaleDiscarded) == 1 })
	if len(r.Snapshot()) != 0 {
		t.Fatalf("snapshot = %+v", r.Snapshot())
	}
}

func TestDuplicateNameGetsSuffix(t *testing.T) {
	r := startRoom(t, DefaultRoomConfig())
	join(t, r, "alice")
	_, second := join(t, r, "alice")
	if second.UserName == "alice" || len(second.UserName) != len("alice-")+8 {
		t.Fatalf("second name = %q", second.UserName)
	}
}

func TestEmptyNameIsGenerated(t *testing.T) {
	r := startRoom(t, DefaultRoomConfig())
	_, meta := join(t, r, "")
	if len(meta.UserName) != len("player-")+8 {
		t.Fatalf("name = %q", meta.UserName)
	}
}

func TestRepeatedLoginResendsJoinedRoom(t *testing.T) {
	r := startRoom(t, DefaultRoomConfig())
	alice, first := join(t, r, "alice")
	r.Join(alice, "other")
	env := nextEnvelope(t, alice)
	again, err := protocol.DecodePayload[protocol.JoinedRoom](alice.codec, env)
	if err != nil || again.UserName != first.UserName {
		t.Fatalf("second joinedRoom = %+v, %v", again, err)
	}
	if n := len(r.Snapshot()); n != 1 {
		t.Fatalf("players = %d, want 1", n)
	}
}

func TestLeaveBroadcastsAndClosesConnection(t *testing.T) {
	r := startRoom(t, DefaultRoomConfig())
	alice, _ := join(t, r, "alice")
	bob, _ := join(t, r, "bob")
	nextPlayers(t, alice)

	r.RequestLeave(bob)
	players := nextPlayers(t, alice)
	if len(players) != 1 || players[0].UserName != "alice" {
		t.Fatalf("players after leave = %+v", players)
	}
	waitFor(t, "bob closed", bob.closed.Load)
}

func TestFullSendQueueDropsAndCounts(t *testing.T) {
	r := startRoom(t, DefaultRoomConfig())
	alice, _ := join(t, r, "alice")
	alice.full.Store(true)
	join(t, r, "bob")
	waitFor(t, "send drop", func() bool { return atomic.LoadInt64(&r.Metrics().SendDropped) == 1 })
}

func TestSimulatedDropDiscardsUpdates(t *testing.T) {
	cfg := DefaultRoomConfig()
	cfg.SimulateDropProb = 1
	r := startRoom(t, cfg)
	alice, _ := join(t, r, "alice")
	join(t, r, "bob")
	nextPlayers(t, alice)

	r.OnUpdate(alice, game.EntityMetadata{Position: game.Vector{X: 1, Y: 1}})
	if got := atomic.LoadInt64(&r.Metrics().DropsSimulated); got != 1 {
		t.Fatalf("drops_simulated = %d", got)
	}
}

func TestSimulatedDelayHoldsUpdateUntilDue(t *testing.T) {
	cfg := DefaultRoomConfig()
	cfg.SimulateDelayMinMs = 100
	cfg.SimulateDelayMaxMs = 100
	r := startRoom(t, cfg)
	alice, _ := join(t, r, "alice")
	bob, bobMeta := join(t, r, "bob")
	nextPlayers(t, alice)

	bobMeta.Position = game.Vector{X: 7, Y: 7}
	sent := time.Now()
	r.OnUpdate(bob, bobMeta)
	players := nextPlayers(t, alice)
	if time.Since(sent) < 100*time.Millisecond {
		t.Fatalf("update relayed after %v", time.Since(sent))
	}
	if players[1].Position != bobMeta.Position {
		t.Fatalf("bob = %+v", players[1])
	}
}

func TestStopClosesMembers(t *testing.T) {
	r := NewRoom("test", DefaultRoomConfig())
	r.StartTicker()
	alice, _ := join(t, r, "alice")
	r.Stop()
	waitFor(t, "alice closed", alice.closed.Load)
}

func TestJoinAfterStopDoesNotBlock(t *testing.T) {
	// Not started: nothing drains the inbox, so once it is full only the
	// quit case can proceed.
	r := NewRoom("test", DefaultRoomConfig())
	fc := newFakeConn()
	for i := 0; i < cap(r.inbox); i++ {
		r.OnUpdate(fc, game.EntityMetadata{})
	}
	r.Stop()

	done := make(chan bool, 1)
	go func() { done <- r.Join(fc, "late") }()
	select {
	case ok := <-done:
		if ok {
			t.Fatal("Join on a stopped room reported success")
		}
	case <-time.After(time.Second):
		t.Fatal("Join blocked on a stopped room")
	}
}

func TestSnapshotTracksMembersWhileRoomRuns(t *testing.T) {
	r := startRoom(t, DefaultRoomConfig())
	stop := make(chan struct{})
	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		for {
			select {
			case <-stop:
				return
			default:
				_ = len(r.Snapshot())
			}
		}
	}()

	alice, _ := join(t, r, "alice")
	bob, _ := join(t, r, "bob")
	nextPlayers(t, alice)
	waitFor(t, "two members", func() bool { return len(r.Snapshot()) == 2 })

	r.RequestLeave(bob)
	nextPlayers(t, alice)
	waitFor(t, "one member", func() bool { return len(r.Snapshot()) == 1 })
	close(stop)
	<-readerDone

	if got := r.Snapshot(); got[0].UserName != "alice" {
		t.Fatalf("snapshot = %+v", got)
	}
}
