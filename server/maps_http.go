package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"platformparty/game"
	"platformparty/render"
)

const maxMapBody = 4 << 20

type mapHandlers struct {
	store MapStore
	rooms *RoomManager
}

// GET /platform-party/maps -> {name: StageMap}
func (h *mapHandlers) list(w http.ResponseWriter, r *http.Request) {
	all, err := AllMaps(h.store)
	if err != nil {
		Log.Errorw("list maps", "err", err)
		http.Error(w, "failed to load maps", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, all)
}

// PUT /platform-party/maps with {name: StageMap}; every map is validated before any is stored.
func (h *mapHandlers) putAll(w http.ResponseWriter, r *http.Request) {
	var body map[string]game.StageMap
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxMapBody)).Decode(&body); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	for name, m := range body {
		if !ValidMapName(name) {
			http.Error(w, ErrMapName.Error()+": "+name, http.StatusBadRequest)
			return
		}
		if err := m.Validate(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}
	for name, m := range body {
		if err := h.store.Put(name, m); err != nil {
			h.storeError(w, name, err)
			return
		}
	}
	Log.Infow("maps uploaded", "count", len(body))
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "count": len(body)})
}

// GET /platform-party/maps/{name}
func (h *mapHandlers) get(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	m, err := h.store.Get(name)
	if err != nil {
		h.storeError(w, name, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// PUT /platform-party/maps/{name}
func (h *mapHandlers) put(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	var m game.StageMap
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxMapBody)).Decode(&m); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if err := h.store.Put(name, m); err != nil {
		h.storeError(w, name, err)
		return
	}
	Log.Infow("map stored", "map", name, "rows", m.Rows, "columns", m.Columns)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "name": name})
}

// GET /platform-party/maps/{name}/preview.png[?room=lobby&scale=2]
func (h *mapHandlers) preview(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	m, err := h.store.Get(name)
	if err != nil {
		h.storeError(w, name, err)
		return
	}
	stage, err := game.NewStage(m)
	if err != nil {
		h.storeError(w, name, err)
		return
	}
	var players []game.EntityMetadata
	if id := r.URL.Query().Get("room"); id != "" && h.rooms != nil {
		if room, ok := h.rooms.Room(id); ok {
			players = room.Snapshot()
		}
	}
	opts := render.Options{ShowGrid: r.URL.Query().Has("grid")}
	w.Header().Set("Content-Type", "image/png")
	if err := render.WritePNG(w, stage, players, opts); err != nil {
		Log.Warnw("write preview", "map", name, "err", err)
	}
}

func (h *mapHandlers) storeError(w http.ResponseWriter, name string, err error) {
	switch {
	case errors.Is(err, ErrMapNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrMapName), errors.Is(err, game.ErrInvalidMap):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		Log.Errorw("map store", "map", name, "err", err)
		http.Error(w, "map store failure", http.StatusInternalServerError)
	}
}
