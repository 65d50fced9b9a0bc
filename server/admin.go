package server

import (
	"encoding/json"
	"net/http"
)

// roomConfigPatch is a partial RoomConfig; nil fields are left unchanged.
type roomConfigPatch struct {
	UpdatesPerSecond   *float64 `json:"updatesPerSecond,omitempty"`
	UpdateBurst        *int     `json:"updateBurst,omitempty"`
	SimulateDelayMinMs *int     `json:"simulateDelayMinMs,omitempty"`
	SimulateDelayMaxMs *int     `json:"simulateDelayMaxMs,omitempty"`
	SimulateDropProb   *float64 `json:"simulateDropProb,omitempty"`
}

func (p roomConfigPatch) apply(cfg *RoomConfig) {
	if p.UpdatesPerSecond != nil {
		cfg.UpdatesPerSecond = *p.UpdatesPerSecond
	}
	if p.UpdateBurst != nil {
		cfg.UpdateBurst = *p.UpdateBurst
	}
	if p.SimulateDelayMinMs != nil {
		cfg.SimulateDelayMinMs = *p.SimulateDelayMinMs
	}
	if p.SimulateDelayMaxMs != nil {
		cfg.SimulateDelayMaxMs = *p.SimulateDelayMaxMs
	}
	if p.SimulateDropProb != nil {
		cfg.SimulateDropProb = *p.SimulateDropProb
	}
}

func (p roomConfigPatch) valid() bool {
	switch {
	case p.UpdatesPerSecond != nil && *p.UpdatesPerSecond < 0:
		return false
	case p.UpdateBurst != nil && *p.UpdateBurst < 0:
		return false
	case p.SimulateDropProb != nil && (*p.SimulateDropProb < 0 || *p.SimulateDropProb > 1):
		return false
	}
	return true
}

// HandleAdminConfig reads or updates a room's tunables.
//
//	GET  /admin/config?room=lobby  current config
//	POST /admin/config?room=lobby  partial update, returns the new config
//
// Rate limit changes apply to connections opened afterwards.
func (m *RoomManager) HandleAdminConfig(w http.ResponseWriter, r *http.Request) {
	roomID := roomParam(r)
	room := m.GetOrCreateRoom(roomID)

	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, room.Config())
	case http.MethodPost:
		var patch roomConfigPatch
		if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if !patch.valid() {
			http.Error(w, "invalid config value", http.StatusBadRequest)
			return
		}
		cfg := room.UpdateConfig(patch.apply)
		Log.Infow("config updated", "room", roomID,
			"updatesPerSecond", cfg.UpdatesPerSecond, "burst", cfg.UpdateBurst,
			"delayMinMs", cfg.SimulateDelayMinMs, "delayMaxMs", cfg.SimulateDelayMaxMs,
			"dropProb", cfg.SimulateDropProb)
		writeJSON(w, http.StatusOK, cfg)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleAdminMetrics reports one room's counters and current players.
// GET /admin/metrics?room=lobby
func (m *RoomManager) HandleAdminMetrics(w http.ResponseWriter, r *http.Request) {
	roomID := roomParam(r)
	room, ok := m.Room(roomID)
	if !ok {
		http.Error(w, "room not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"room":    roomID,
		"players": room.Snapshot(),
		"metrics": room.Metrics().Snapshot(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
