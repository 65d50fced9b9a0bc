package game

import (
	"sync"
	"time"
)

// Cancel stops a scheduled task and reports whether it was still pending.
type Cancel func() bool

// Scheduler runs f once after d, on a goroutine of its choosing.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Cancel
}

type wallClock struct{}

func (wallClock) AfterFunc(d time.Duration, f func()) Cancel {
	return time.AfterFunc(d, f).Stop
}

// WallClock schedules with time.AfterFunc.
var WallClock Scheduler = wallClock{}

// RespawnTask identifies a player and the reset generation it was scheduled under.
type RespawnTask struct {
	ID         string
	Generation uint64
}

type pendingRespawn struct {
	generation uint64
	cancel     Cancel
}

// Respawner holds one deferred reset per player identity. Timers only hand
// the task back through a channel; the owning loop applies it on its own
// goroutine via Due.
type Respawner struct {
	sched Scheduler
	delay time.Duration
	due   chan RespawnTask

	mu      sync.Mutex
	pending map[string]pendingRespawn
}

// NewRespawner uses WallClock when sched is nil.
func NewRespawner(sched Scheduler, delay time.Duration) *Respawner {
	if sched == nil {
		sched = WallClock
	}
	return &Respawner{
		sched:   sched,
		delay:   delay,
		due:     make(chan RespawnTask, 64),
		pending: make(map[string]pendingRespawn),
	}
}

// Schedule arms a reset for id unless one is already pending.
func (r *Respawner) Schedule(id string, generation uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.pending[id]; ok {
		return false
	}
	task := RespawnTask{ID: id, Generation: generation}
	cancel := r.sched.AfterFunc(r.delay, func() { r.due <- task })
	r.pending[id] = pendingRespawn{generation: generation, cancel: cancel}
	return true
}

// Pending reports whether id has an armed reset.
func (r *Respawner) Pending(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.pending[id]
	return ok
}

// Cancel disarms the reset for id. A task that already fired is still
// delivered by Due and must be rejected by its generation.
func (r *Respawner) Cancel(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.pending[id]; ok {
		p.cancel()
		delete(r.pending, id)
	}
}

// Due drains the tasks whose timers have fired.
func (r *Respawner) Due() []RespawnTask {
	var tasks []RespawnTask
	for {
		select {
		case t := <-r.due:
			r.mu.Lock()
			if p, ok := r.pending[t.ID]; ok && p.generation == t.Generation {
				delete(r.pending, t.ID)
			}
			r.mu.Unlock()
			tasks = append(tasks, t)
		default:
			return tasks
		}
	}
}
