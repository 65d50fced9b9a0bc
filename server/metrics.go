package server

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Process-wide collectors. Labels stay bounded: no per-player or per-room values.
var (
	updatesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "platform_player_updates_total",
		Help: "Player updates received, by outcome",
	}, []string{"outcome"}) // accepted, rate_limited, dropped_simulated, inbox_full, stale

	broadcastsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "platform_broadcasts_total",
		Help: "receivePlayers messages queued to clients",
	})

	sendDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "platform_send_dropped_total",
		Help: "Outbound messages dropped because a client queue was full",
	})

	playersGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "platform_players",
		Help: "Players currently logged in across all rooms",
	})

	wsConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "platform_websocket_connections",
		Help: "Open WebSocket connections",
	})

	tickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "platform_room_tick_seconds",
		Help:    "Time spent in a room housekeeping tick",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
	})
)

// RoomMetrics counts what one room did, for the admin endpoint.
type RoomMetrics struct {
	TickCount         int64
	UpdatesAccepted   int64
	RateLimited       int64
	DropsSimulated    int64
	ChanFullDiscarded int64 // inbox full
	StaleDiscarded    int64 // update from a connection that is not the current member
	Broadcasts        int64
	SendDropped       int64
	TotalTickNs       int64
}

func (m *RoomMetrics) IncAccepted() {
	atomic.AddInt64(&m.UpdatesAccepted, 1)
	updatesTotal.WithLabelValues("accepted").Inc()
}

func (m *RoomMetrics) IncRateLimited() {
	atomic.AddInt64(&m.RateLimited, 1)
	updatesTotal.WithLabelValues("rate_limited").Inc()
}

func (m *RoomMetrics) IncDropsSimulated() {
	atomic.AddInt64(&m.DropsSimulated, 1)
	updatesTotal.WithLabelValues("dropped_simulated").Inc()
}

func (m *RoomMetrics) IncChanFullDiscarded() {
	atomic.AddInt64(&m.ChanFullDiscarded, 1)
	updatesTotal.WithLabelValues("inbox_full").Inc()
}

func (m *RoomMetrics) IncStale() {
	atomic.AddInt64(&m.StaleDiscarded, 1)
	updatesTotal.WithLabelValues("stale").Inc()
}

func (m *RoomMetrics) AddBroadcast(sent, dropped int) {
	atomic.AddInt64(&m.Broadcasts, int64(sent))
	atomic.AddInt64(&m.SendDropped, int64(dropped))
	broadcastsTotal.Add(float64(sent))
	sendDroppedTotal.Add(float64(dropped))
}

func (m *RoomMetrics) AddTick(ns int64) {
	atomic.AddInt64(&m.TickCount, 1)
	atomic.AddInt64(&m.TotalTickNs, ns)
	tickDuration.Observe(float64(ns) / 1e9)
}

// Snapshot returns a copy suitable for JSON output.
func (m *RoomMetrics) Snapshot() map[string]any {
	tick := atomic.LoadInt64(&m.TickCount)
	total := atomic.LoadInt64(&m.TotalTickNs)
	var avgMs float64
	if tick > 0 {
		avgMs = float64(total) / float64(tick) / 1e6
	}
	return map[string]any{
		"tick_count":          tick,
		"updates_accepted":    atomic.LoadInt64(&m.UpdatesAccepted),
		"rate_limited":        atomic.LoadInt64(&m.RateLimited),
		"drops_simulated":     atomic.LoadInt64(&m.DropsSimulated),
		"chan_full_discarded": atomic.LoadInt64(&m.ChanFullDiscarded),
		"stale_discarded":     atomic.LoadInt64(&m.StaleDiscarded),
		"broadcasts":          atomic.LoadInt64(&m.Broadcasts),
		"send_dropped":        atomic.LoadInt64(&m.SendDropped),
		"avg_tick_ms":         avgMs,
	}
}
