package server

import "platformparty/game"

// Room inbox commands. They share one channel so a connection's join,
// updates and leave are handled in the order it sent them.
type (
	joinCmd struct {
		conn     Conn
		userName string
	}

	updateCmd struct {
		conn Conn
		meta game.EntityMetadata
	}

	leaveCmd struct {
		conn Conn
	}
)
