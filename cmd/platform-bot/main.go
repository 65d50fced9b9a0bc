// Command platform-bot joins a room as a scripted player: it downloads the
// stage map, logs in, runs the movement loop and can save a PNG snapshot.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"platformparty/client"
	"platformparty/config"
	"platformparty/game"
	"platformparty/protocol"
	"platformparty/render"
)

func main() {
	config.LoadDotEnv()
	cfg := config.ClientFromEnv()

	var (
		ticks    int
		script   string
		snapshot string
		debug    bool
	)
	flag.StringVar(&cfg.ServerURL, "server", cfg.ServerURL, "server base URL")
	flag.StringVar(&cfg.Room, "room", cfg.Room, "room to join")
	flag.StringVar(&cfg.MapName, "map", cfg.MapName, "stage map name")
	flag.StringVar(&cfg.UserName, "name", cfg.UserName, "user name; empty lets the server pick")
	flag.StringVar(&cfg.Codec, "codec", cfg.Codec, "wire codec: json or msgpack")
	flag.IntVar(&cfg.TickRate, "rate", cfg.TickRate, "ticks per second")
	flag.IntVar(&ticks, "ticks", 600, "ticks to run; 0 runs until interrupted")
	flag.StringVar(&script, "script", "D:30,W:1,A:20", "input script, KEY:TICKS steps (W, A, D or - for idle)")
	flag.StringVar(&snapshot, "snapshot", "", "write a PNG of the final scene to this file")
	flag.BoolVar(&debug, "debug", false, "debug logging")
	flag.Parse()

	log, err := newLogger(debug)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(log, cfg, ticks, script, snapshot); err != nil && err != context.Canceled {
		log.Fatal("bot failed", zap.Error(err))
	}
}

func newLogger(debug bool) (*zap.Logger, error) {
	zc := zap.NewDevelopmentConfig()
	if !debug {
		zc.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	return zc.Build()
}

func run(log *zap.Logger, cfg config.ClientConfig, ticks int, scriptText, snapshot string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	script, err := client.ParseScript(scriptText)
	if err != nil {
		return err
	}
	codec, err := protocol.CodecByName(cfg.Codec)
	if err != nil {
		return err
	}

	m, err := client.FetchMap(ctx, nil, cfg.ServerURL, cfg.MapName)
	if err != nil {
		return err
	}
	stage, err := game.NewStage(m)
	if err != nil {
		return err
	}

	wsURL, err := client.WSURL(cfg.ServerURL, cfg.Room, codec)
	if err != nil {
		return err
	}
	sess, err := client.Dial(ctx, wsURL, codec, log)
	if err != nil {
		return err
	}
	defer sess.Close()

	runner := client.NewRunner(sess, log)
	self, err := sess.Login(ctx, cfg.UserName)
	if err != nil {
		return err
	}
	runner.Enter(stage, self, nil)
	runner.SetScript(script)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-sess.Done():
			log.Warn("connection closed", zap.Error(sess.Err()))
			cancel()
		case <-runCtx.Done():
		}
	}()
	runErr := runner.Run(runCtx, cfg.TickRate, ticks)
	select {
	case <-sess.Done():
		if runErr != nil {
			runErr = sess.Err()
		}
	default:
	}

	if sc, ok := runner.Scene().(*game.StageScene); ok {
		p := sc.Loop.Player()
		log.Info("bot finished",
			zap.Int("ticks", runner.Ticks()),
			zap.Float64("x", p.Position().X),
			zap.Float64("y", p.Position().Y),
			zap.Stringer("state", p.State()),
			zap.Int("remotePlayers", sc.Loop.Registry().Len()),
			zap.Int64("droppedUpdates", sess.Dropped()))
	}

	if snapshot != "" {
		if err := writeSnapshot(snapshot, runner.Scene()); err != nil {
			return err
		}
		log.Info("snapshot written", zap.String("file", snapshot))
	}
	return runErr
}

func writeSnapshot(path string, scene game.Scene) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	stage, entities := game.Drawables(scene)
	if err := render.WritePNG(f, stage, entities, render.Options{ShowGrid: true}); err != nil {
		f.Close()
		return fmt.Errorf("snapshot: %w", err)
	}
	return f.Close()
}
