package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"platformparty/config"
	"platformparty/server"
)

// Platform Party room server: WebSocket rooms, stage maps over HTTP, admin and metrics.
func main() {
	envFile := config.LoadDotEnv()
	cfg := config.ServerFromEnv()

	var cors string
	flag.StringVar(&cfg.Addr, "addr", cfg.Addr, "listen address, e.g. :8080")
	flag.StringVar(&cfg.LogFile, "log", cfg.LogFile, "log file (rotated); empty logs to stderr")
	flag.BoolVar(&cfg.Debug, "debug", cfg.Debug, "debug logging")
	flag.StringVar(&cfg.MapDir, "maps", cfg.MapDir, "stage map directory")
	flag.StringVar(&cors, "cors", strings.Join(cfg.CORSOrigins, ","), "allowed CORS origins, comma separated; empty allows any")
	flag.Float64Var(&cfg.UpdatesPerSecond, "update-rate", cfg.UpdatesPerSecond, "per-connection updatePlayer limit")
	flag.IntVar(&cfg.UpdateBurst, "update-burst", cfg.UpdateBurst, "per-connection updatePlayer burst")
	flag.Parse()
	cfg.CORSOrigins = nil
	for _, o := range strings.Split(cors, ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.CORSOrigins = append(cfg.CORSOrigins, o)
		}
	}

	if err := server.InitLogger(server.LogConfig{File: cfg.LogFile, Debug: cfg.Debug, Console: true}); err != nil {
		panic(err)
	}
	defer server.SyncLogger()
	if envFile != "" {
		server.Log.Infow("loaded environment", "file", envFile)
	}

	maps, err := server.NewFileMapStore(cfg.MapDir)
	if err != nil {
		server.Log.Fatalw("map store", "dir", cfg.MapDir, "err", err)
	}
	if err := server.SeedDefaultMap(maps); err != nil {
		server.Log.Fatalw("map store", "dir", cfg.MapDir, "err", err)
	}

	roomCfg := server.DefaultRoomConfig()
	roomCfg.UpdatesPerSecond = cfg.UpdatesPerSecond
	roomCfg.UpdateBurst = cfg.UpdateBurst
	rooms := server.NewRoomManager(roomCfg)
	_ = rooms.GetOrCreateRoom(server.DefaultRoom)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server.NewRouter(server.RouterConfig{Rooms: rooms, Maps: maps, CORSOrigins: cfg.CORSOrigins, DisableLogging: !cfg.Debug}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		server.Log.Infow("platform party listening", "addr", cfg.Addr, "maps", cfg.MapDir)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			server.Log.Fatalw("listen", "err", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	server.Log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		server.Log.Warnw("http shutdown", "err", err)
	}
	rooms.Shutdown()
}
