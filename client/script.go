package client

import (
	"fmt"
	"strconv"
	"strings"
)

// IdleKey holds no key for a step.
const IdleKey = "-"

// Step holds Key down for Ticks ticks and then releases it.
type Step struct {
	Key   string
	Ticks int
}

// Script is a sequence of key holds, e.g. "D:30,W:1,-:10,A:20".
type Script struct {
	steps []Step
	i     int
	left  int
}

// ParseScript parses comma separated KEY:TICKS steps. Keys are W, A, D or "-".
func ParseScript(s string) (*Script, error) {
	sc := &Script{}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, n, ok := strings.Cut(part, ":")
		if !ok {
			return nil, fmt.Errorf("script step %q: want KEY:TICKS", part)
		}
		key = strings.ToUpper(strings.TrimSpace(key))
		switch key {
		case "W", "A", "D", IdleKey:
		default:
			return nil, fmt.Errorf("script step %q: unknown key %q", part, key)
		}
		ticks, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil || ticks <= 0 {
			return nil, fmt.Errorf("script step %q: ticks must be a positive integer", part)
		}
		sc.steps = append(sc.steps, Step{Key: key, Ticks: ticks})
	}
	return sc, nil
}

// Steps returns the parsed steps.
func (s *Script) Steps() []Step { return s.steps }

// Done reports whether every step has been played.
func (s *Script) Done() bool { return s.i >= len(s.steps) }

// Next advances one tick and returns the key to press before the tick and the
// key to release after it (either may be empty).
func (s *Script) Next() (press, release string) {
	if s.Done() {
		return "", ""
	}
	step := s.steps[s.i]
	if s.left == 0 {
		s.left = step.Ticks
		if step.Key != IdleKey {
			press = step.Key
		}
	}
	s.left--
	if s.left == 0 {
		if step.Key != IdleKey {
			release = step.Key
		}
		s.i++
	}
	return press, release
}
