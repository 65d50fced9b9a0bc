package client

import (
	"context"
	"testing"

	"platformparty/game"
)

type fakeLink struct {
	sent    []game.EntityMetadata
	pending [][]game.EntityMetadata
}

func (f *fakeLink) Emit(m game.EntityMetadata) { f.sent = append(f.sent, m) }

func (f *fakeLink) Received() [][]game.EntityMetadata {
	out := f.pending
	f.pending = nil
	return out
}

var testBox = game.CollisionBox{Width: 14, Height: 14, Offset: game.Vector{X: 1, Y: 2}}

// floorStage is 3 rows by 10 columns with a solid bottom row.
func floorStage(t *testing.T) *game.Stage {
	t.Helper()
	const rows, cols = 3, 10
	m := game.StageMap{Rows: rows, Columns: cols, SpriteData: make([]int, rows*cols), SolidIndices: game.NewIndexSet()}
	for i := 2 * cols; i < rows*cols; i++ {
		m.SpriteData[i] = 1
		m.SolidIndices[i] = struct{}{}
	}
	s, err := game.NewStage(m)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestRunnerLobbyTracksRemotePlayers(t *testing.T) {
	link := &fakeLink{pending: [][]game.EntityMetadata{{{UserName: "alice"}, {UserName: "carol"}}}}
	r := NewRunner(link, nil)
	r.Step()

	if _, ok := r.Scene().(*game.Lobby); !ok {
		t.Fatalf("scene = %T, want *game.Lobby", r.Scene())
	}
	stage, entities := game.Drawables(r.Scene())
	if stage != nil || len(entities) != 2 {
		t.Fatalf("Drawables = %v, %v", stage, entities)
	}
	if len(link.sent) != 0 {
		t.Fatalf("lobby emitted %d updates", len(link.sent))
	}
}

func TestRunnerEntersStageAndFollowsScript(t *testing.T) {
	link := &fakeLink{}
	r := NewRunner(link, nil)
	self := game.EntityMetadata{UserName: "bob", Character: game.CharacterGreen, Position: game.Vector{X: 16, Y: 15}, CollisionBox: testBox}

	link.pending = [][]game.EntityMetadata{{{UserName: "alice"}, {UserName: "bob", Position: game.Vector{X: 999}}}}
	r.Step()
	r.Enter(floorStage(t), self, nil)
	script, err := ParseScript("D:10,-:5")
	if err != nil {
		t.Fatal(err)
	}
	r.SetScript(script)

	for i := 0; i < 15; i++ {
		r.Step()
	}
	if !script.Done() {
		t.Fatal("script not finished")
	}
	sc, ok := r.Scene().(*game.StageScene)
	if !ok {
		t.Fatalf("scene = %T, want *game.StageScene", r.Scene())
	}
	p := sc.Loop.Player()
	if p.Position().X <= 16 || p.Position().Y != 15 {
		t.Fatalf("player at %+v, want moved right on the floor", p.Position())
	}
	if p.State() == game.StateFalling || p.State() == game.StateDead {
		t.Fatalf("state = %v", p.State())
	}
	if len(link.sent) == 0 {
		t.Fatal("no updates emitted")
	}
	for _, m := range link.sent {
		if m.UserName != "bob" {
			t.Fatalf("emitted update for %q", m.UserName)
		}
	}

	_, entities := game.Drawables(r.Scene())
	if len(entities) != 2 || entities[0].UserName != "alice" || entities[1].Position.X == 999 {
		t.Fatalf("entities = %+v", entities)
	}
	if r.Ticks() != 16 {
		t.Fatalf("ticks = %d", r.Ticks())
	}
}

func TestRunnerRun(t *testing.T) {
	r := NewRunner(&fakeLink{}, nil)
	if err := r.Run(context.Background(), 0, 1); err == nil {
		t.Fatal("zero tick rate accepted")
	}
	if err := r.Run(context.Background(), 1000, 3); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if r.Ticks() != 3 {
		t.Fatalf("ticks = %d, want 3", r.Ticks())
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := r.Run(ctx, 1000, 0); err != context.Canceled {
		t.Fatalf("Run after cancel = %v", err)
	}
}
