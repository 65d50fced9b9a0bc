package server

import "time"

const (
	// TicksPerSecond is the room housekeeping rate (delayed updates, metrics).
	TicksPerSecond = 20
)

var tickInterval = time.Second / TicksPerSecond // 50ms

// StartTicker runs the room goroutine: commands are handled as they arrive,
// housekeeping runs on every tick.
func (r *Room) StartTicker() {
	if r.tickerStarted {
		return
	}
	r.tickerStarted = true
	go r.run()
}

func (r *Room) run() {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-r.quit:
			r.closeAll()
			return
		case cmd := <-r.inbox:
			r.handleCommand(cmd, time.Now())
		case now := <-ticker.C:
			start := time.Now()
			r.releaseDelayed(now)
			r.metrics.AddTick(time.Since(start).Nanoseconds())
		}
	}
}

func (r *Room) closeAll() {
	for name, p := range r.members {
		p.Conn.Close()
		delete(r.members, name)
		playersGauge.Dec()
	}
	r.publishSnapshot()
}
