package client

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"platformparty/game"
)

// Link is the runner's view of a room connection.
type Link interface {
	game.Transport
	// Received returns player lists that arrived since the last call.
	Received() [][]game.EntityMetadata
}

// Runner owns the client scene. It starts in the lobby and moves to the
// stage once Enter is called. Not safe for concurrent use.
type Runner struct {
	log      *zap.Logger
	link     Link
	registry *game.Registry
	scene    game.Scene
	script   *Script
	ticks    int
}

func NewRunner(link Link, log *zap.Logger) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	reg := game.NewRegistry("")
	return &Runner{
		log:      log,
		link:     link,
		registry: reg,
		scene:    &game.Lobby{Registry: reg},
	}
}

// SetScript drives the controlled player from s; nil means no input.
func (r *Runner) SetScript(s *Script) { r.script = s }

func (r *Runner) Scene() game.Scene { return r.scene }
func (r *Runner) Ticks() int { return r.ticks }

// Enter switches to the stage with self as the controlled player.
// A nil sched uses the wall clock for respawns.
func (r *Runner) Enter(stage *game.Stage, self game.EntityMetadata, sched game.Scheduler) {
	r.registry.SetSelf(self.UserName)
	player := game.NewPlayer(self, soundLogger{log: r.log, name: "jump"})
	loop := game.NewLoop(stage, player, game.LoopOptions{
		Transport: r.link,
		Registry:  r.registry,
		Land:      soundLogger{log: r.log, name: "land"},
		Respawner: game.NewRespawner(sched, game.RespawnDelay),
	})
	r.scene = game.NewStageScene(loop)
	r.log.Info("entered stage",
		zap.String("userName", self.UserName),
		zap.Int("rows", stage.Rows()),
		zap.Int("columns", stage.Columns()),
		zap.Int("remotePlayers", r.registry.Len()))
}

// Step runs one client tick: apply received player lists, scripted input,
// then the scene update.
func (r *Runner) Step() {
	for _, list := range r.link.Received() {
		game.Receive(r.scene, list)
	}
	var release string
	if r.script != nil {
		var press string
		press, release = r.script.Next()
		if press != "" {
			game.KeyPressed(r.scene, press)
		}
	}
	game.Update(r.scene)
	if release != "" {
		game.KeyReleased(r.scene, release)
	}
	r.ticks++
}

// Run steps at rate ticks per second until ctx ends or n ticks have run
// (n <= 0 runs until ctx ends).
func (r *Runner) Run(ctx context.Context, rate, n int) error {
	if rate <= 0 {
		return errors.New("tick rate must be positive")
	}
	t := time.NewTicker(time.Second / time.Duration(rate))
	defer t.Stop()
	for n <= 0 || r.ticks < n {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			r.Step()
		}
	}
	return nil
}

type soundLogger struct {
	log  *zap.Logger
	name string
}

func (s soundLogger) Play() { s.log.Debug("sound", zap.String("sound", s.name)) }
