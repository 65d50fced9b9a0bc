package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"platformparty/game"
	"platformparty/protocol"
)

const (
	writeWait      = 5 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 1 << 16
	sendQueueSize  = 64
)

// ClientConn wraps one WebSocket: a bounded send queue drained by writePump
// and a per-connection update rate limiter.
type ClientConn struct {
	ws      *websocket.Conn
	codec   protocol.Codec
	limiter *rate.Limiter

	mu     sync.Mutex
	send   chan []byte
	closed bool
}

func NewClientConn(ws *websocket.Conn, codec protocol.Codec, limiter *rate.Limiter) *ClientConn {
	return &ClientConn{
		ws:      ws,
		codec:   codec,
		limiter: limiter,
		send:    make(chan []byte, sendQueueSize),
	}
}

func (c *ClientConn) Codec() protocol.Codec { return c.codec }

// Enqueue drops the frame when the queue is full; a newer update will follow.
func (c *ClientConn) Enqueue(b []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- b:
		return true
	default:
		return false
	}
}

// Close ends the write pump, which closes the socket.
func (c *ClientConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (c *ClientConn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()
	frameType := websocket.TextMessage
	if c.codec.Binary() {
		frameType = websocket.BinaryMessage
	}
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.ws.WriteMessage(frameType, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump decodes client messages and hands them to the room. Nothing is
// forwarded before a login.
func (c *ClientConn) readPump(room *Room) {
	joined := false
	defer func() {
		if joined {
			room.RequestLeave(c)
		} else {
			c.Close()
		}
		_ = c.ws.Close()
		wsConnections.Dec()
	}()
	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error { return c.ws.SetReadDeadline(time.Now().Add(pongWait)) })

	for {
		_, payload, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				Log.Debugw("websocket read", "room", room.ID, "err", err)
			}
			return
		}
		env, err := c.codec.DecodeEnvelope(payload)
		if err != nil {
			Log.Debugw("bad envelope", "room", room.ID, "err", err)
			continue
		}
		switch env.T {
		case protocol.MsgLogin:
			login, err := protocol.DecodePayload[protocol.Login](c.codec, env)
			if err != nil {
				Log.Debugw("bad login", "room", room.ID, "err", err)
				continue
			}
			if !room.Join(c, login.UserName) {
				return
			}
			joined = true
		case protocol.MsgUpdatePlayer:
			if !joined {
				continue
			}
			if !c.limiter.Allow() {
				room.Metrics().IncRateLimited()
				continue
			}
			meta, err := protocol.DecodePayload[game.EntityMetadata](c.codec, env)
			if err != nil {
				Log.Debugw("bad update", "room", room.ID, "err", err)
				continue
			}
			room.OnUpdate(c, meta)
		}
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Browser clients are served from other origins; any origin may join.
		return true
	},
}

// HandleWS upgrades /ws?room=lobby&codec=json|msgpack.
func (m *RoomManager) HandleWS(w http.ResponseWriter, r *http.Request) {
	roomID := roomParam(r)
	codec, err := protocol.CodecByName(r.URL.Query().Get("codec"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		Log.Warnw("upgrade failed", "err", err)
		return
	}
	wsConnections.Inc()

	room := m.GetOrCreateRoom(roomID)
	cfg := room.Config()
	client := NewClientConn(ws, codec, rate.NewLimiter(rate.Limit(cfg.UpdatesPerSecond), cfg.UpdateBurst))

	go client.writePump()
	go client.readPump(room)
}

// DefaultRoom is used when a request names no room.
const DefaultRoom = "lobby"

func roomParam(r *http.Request) string {
	if id := r.URL.Query().Get("room"); id != "" {
		return id
	}
	return DefaultRoom
}
