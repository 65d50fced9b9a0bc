package server

import (
	"github.com/google/uuid"

	"platformparty/game"
	"platformparty/protocol"
)

// Conn is the outbound half of a client connection as the room sees it.
type Conn interface {
	// Enqueue queues a frame without blocking and reports whether it was accepted.
	Enqueue(b []byte) bool
	Codec() protocol.Codec
	Close()
}

// Player is a logged-in room member: the last metadata it reported and its connection.
type Player struct {
	Meta game.EntityMetadata
	Conn Conn
}

// DefaultBox fits inside one tile so the two-cell collision checks cover it.
var DefaultBox = game.CollisionBox{Width: 14, Height: 14, Offset: game.Vector{X: 1, Y: 2}}

// DefaultSpawn is where a freshly logged-in player appears.
var DefaultSpawn = game.Vector{X: 100, Y: 100}

// newPlayerMeta builds the initial metadata sent back in joinedRoom.
func newPlayerMeta(name string, c game.Character) game.EntityMetadata {
	return game.EntityMetadata{
		UserName:     name,
		Character:    c,
		Position:     DefaultSpawn,
		SpriteIndex:  game.StandingSprite(c),
		CollisionBox: DefaultBox,
	}
}

func shortID() string {
	return uuid.NewString()[:8]
}
