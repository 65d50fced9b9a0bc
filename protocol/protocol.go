// Package protocol defines the messages exchanged between platform clients
// and the room server, and the codecs that frame them.
package protocol

import "platformparty/game"

// Message types.
const (
	// client -> server
	MsgLogin        = "login"
	MsgUpdatePlayer = "updatePlayer"

	// server -> client
	MsgJoinedRoom     = "joinedRoom"
	MsgReceivePlayers = "receivePlayers"
)

// Envelope frames one message: its type and the still-encoded payload.
type Envelope struct {
	T string
	P []byte
}

// Login asks to join the room under a user name. An empty name lets the server pick one.
type Login struct {
	UserName string `json:"userName"`
}

// JoinedRoom answers Login with the player's initial metadata.
type JoinedRoom = game.EntityMetadata

// UpdatePlayer carries one player's latest metadata.
type UpdatePlayer = game.EntityMetadata

// ReceivePlayers is the room's full player list.
type ReceivePlayers struct {
	Players []game.EntityMetadata `json:"players"`
}
