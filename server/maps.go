package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"platformparty/game"
)

var (
	ErrMapNotFound = errors.New("map not found")
	ErrMapName     = errors.New("invalid map name")
)

var mapNamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ValidMapName reports whether name can be used as a map key and file name.
func ValidMapName(name string) bool { return mapNamePattern.MatchString(name) }

// MapStore persists stage maps by name. Get returns a copy the caller may
// modify; Put stores a copy of its argument.
type MapStore interface {
	Names() ([]string, error)
	Get(name string) (game.StageMap, error)
	Put(name string, m game.StageMap) error
}

// AllMaps loads every map in the store.
func AllMaps(s MapStore) (map[string]game.StageMap, error) {
	names, err := s.Names()
	if err != nil {
		return nil, err
	}
	out := make(map[string]game.StageMap, len(names))
	for _, n := range names {
		m, err := s.Get(n)
		if err != nil {
			return nil, fmt.Errorf("load map %q: %w", n, err)
		}
		out[n] = m
	}
	return out, nil
}

// MemoryMapStore keeps maps in memory only.
type MemoryMapStore struct {
	mu   sync.RWMutex
	maps map[string]game.StageMap
}

func NewMemoryMapStore() *MemoryMapStore {
	return &MemoryMapStore{maps: make(map[string]game.StageMap)}
}

func (s *MemoryMapStore) Names() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.maps))
	for n := range s.maps {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}

func (s *MemoryMapStore) Get(name string) (game.StageMap, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.maps[name]
	if !ok {
		return game.StageMap{}, fmt.Errorf("%w: %s", ErrMapNotFound, name)
	}
	return m.Clone(), nil
}

func (s *MemoryMapStore) Put(name string, m game.StageMap) error {
	if !ValidMapName(name) {
		return fmt.Errorf("%w: %q", ErrMapName, name)
	}
	if err := m.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.maps[name] = m.Clone()
	return nil
}

// FileMapStore keeps one <name>.json per map under Dir and caches what it has read.
type FileMapStore struct {
	Dir string

	mu    sync.RWMutex
	cache map[string]game.StageMap
}

// NewFileMapStore creates dir if needed.
func NewFileMapStore(dir string) (*FileMapStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create map dir: %w", err)
	}
	return &FileMapStore{Dir: dir, cache: make(map[string]game.StageMap)}, nil
}

func (s *FileMapStore) path(name string) string {
	return filepath.Join(s.Dir, name+".json")
}

func (s *FileMapStore) Names() ([]string, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return nil, fmt.Errorf("list maps: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		name := strings.TrimSuffix(e.Name(), ".json")
		if ValidMapName(name) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

func (s *FileMapStore) Get(name string) (game.StageMap, error) {
	if !ValidMapName(name) {
		return game.StageMap{}, fmt.Errorf("%w: %s", ErrMapNotFound, name)
	}
	s.mu.RLock()
	m, ok := s.cache[name]
	s.mu.RUnlock()
	if ok {
		return m.Clone(), nil
	}

	b, err := os.ReadFile(s.path(name))
	if errors.Is(err, os.ErrNotExist) {
		return game.StageMap{}, fmt.Errorf("%w: %s", ErrMapNotFound, name)
	}
	if err != nil {
		return game.StageMap{}, fmt.Errorf("read map %q: %w", name, err)
	}
	if err := json.Unmarshal(b, &m); err != nil {
		return game.StageMap{}, fmt.Errorf("%w: %s: %v", game.ErrInvalidMap, name, err)
	}
	if err := m.Validate(); err != nil {
		return game.StageMap{}, err
	}

	s.mu.Lock()
	s.cache[name] = m
	s.mu.Unlock()
	return m.Clone(), nil
}

// Put validates m and writes it atomically (temp file + rename).
func (s *FileMapStore) Put(name string, m game.StageMap) error {
	if !ValidMapName(name) {
		return fmt.Errorf("%w: %q", ErrMapName, name)
	}
	if err := m.Validate(); err != nil {
		return err
	}
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encode map %q: %w", name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	tmp, err := os.CreateTemp(s.Dir, name+".*.tmp")
	if err != nil {
		return fmt.Errorf("write map %q: %w", name, err)
	}
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write map %q: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write map %q: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), s.path(name)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write map %q: %w", name, err)
	}
	s.cache[name] = m.Clone()
	return nil
}
