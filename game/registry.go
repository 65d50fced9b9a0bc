package game

import "sort"

// Registry is the last-known metadata of every remote player, keyed by user
// name. Later updates overwrite earlier ones; entries are never removed.
type Registry struct {
	self    string
	players map[string]EntityMetadata
}

func NewRegistry(self string) *Registry {
	return &Registry{self: self, players: make(map[string]EntityMetadata)}
}

// SetSelf names the controlled player so its echoes are ignored.
func (r *Registry) SetSelf(name string) {
	r.self = name
	delete(r.players, name)
}

// Apply upserts every entry of a received player list.
func (r *Registry) Apply(list []EntityMetadata) {
	for _, m := range list {
		r.Upsert(m)
	}
}

func (r *Registry) Upsert(m EntityMetadata) {
	if m.UserName == "" || m.UserName == r.self {
		return
	}
	r.players[m.UserName] = m
}

func (r *Registry) Get(name string) (EntityMetadata, bool) {
	m, ok := r.players[name]
	return m, ok
}

func (r *Registry) Len() int { return len(r.players) }

// Others returns the remote players ordered by name.
func (r *Registry) Others() []EntityMetadata {
	out := make([]EntityMetadata, 0, len(r.players))
	for _, m := range r.players {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserName < out[j].UserName })
	return out
}
