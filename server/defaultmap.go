package server

import (
	"errors"
	"fmt"

	"platformparty/game"
)

// DefaultMapName is the map seeded into an empty store.
const DefaultMapName = "default"

// DefaultMap is a 20x15 arena: walled sides, a solid floor, one platform
// ledge and a hazard tile on the floor near the right wall.
func DefaultMap() game.StageMap {
	const rows, cols = 15, 20
	m := game.StageMap{
		Rows:            rows,
		Columns:         cols,
		SpriteData:      make([]int, rows*cols),
		SolidIndices:    game.NewIndexSet(),
		PlatformIndices: game.NewIndexSet(),
	}
	set := func(row, col, sprite int, into game.IndexSet) {
		i := row*cols + col
		m.SpriteData[i] = sprite
		if into != nil {
			into[i] = struct{}{}
		}
	}
	for row := 0; row < rows; row++ {
		set(row, 0, 1, m.SolidIndices)
		set(row, cols-1, 1, m.SolidIndices)
	}
	for col := 1; col < cols-1; col++ {
		set(rows-1, col, 1, m.SolidIndices)
	}
	for col := 3; col <= 7; col++ {
		set(9, col, 2, m.PlatformIndices)
	}
	set(rows-2, 16, game.HazardSprite, nil)
	return m
}

// SeedDefaultMap stores DefaultMap unless the store already has one under that name.
func SeedDefaultMap(s MapStore) error {
	_, err := s.Get(DefaultMapName)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrMapNotFound) {
		return fmt.Errorf("seed default map: %w", err)
	}
	if err := s.Put(DefaultMapName, DefaultMap()); err != nil {
		return fmt.Errorf("seed default map: %w", err)
	}
	Log.Infow("seeded map", "map", DefaultMapName)
	return nil
}
