package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterConfig holds what the HTTP router needs.
type RouterConfig struct {
	// Rooms serves /ws and /admin. Required.
	Rooms *RoomManager

	// Maps backs /platform-party/maps. Required.
	Maps MapStore

	// CORSOrigins defaults to any origin.
	CORSOrigins []string

	// DisableLogging turns off per-request logging.
	DisableLogging bool
}

// NewRouter builds the HTTP surface. It starts no goroutines, so it can be
// served by httptest.NewServer.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	if !cfg.DisableLogging {
		r.Use(requestLogger)
	}
	r.Use(middleware.Recoverer)

	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))

	maps := &mapHandlers{store: cfg.Maps, rooms: cfg.Rooms}
	r.Route("/platform-party/maps", func(r chi.Router) {
		r.Get("/", maps.list)
		r.Put("/", maps.putAll)
		r.Get("/{name}", maps.get)
		r.Put("/{name}", maps.put)
		r.Get("/{name}/preview.png", maps.preview)
	})

	r.Route("/admin", func(r chi.Router) {
		r.HandleFunc("/config", cfg.Rooms.HandleAdminConfig)
		r.Get("/metrics", cfg.Rooms.HandleAdminMetrics)
	})

	r.Get("/ws", cfg.Rooms.HandleWS)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		Log.Debugw("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"remote", r.RemoteAddr,
			"duration", time.Since(start))
	})
}
