// Package client connects a simulated player to a room server: the
// WebSocket session, stage map download, scripted input and the tick runner.
package client

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"platformparty/game"
	"platformparty/protocol"
)

const (
	dialAttempts  = 12
	dialBackoff   = 180 * time.Millisecond
	writeWait     = 5 * time.Second
	sendQueueSize = 64
	listQueueSize = 64
)

var ErrClosed = errors.New("session closed")

// Session is one logged-in WebSocket connection to a room.
type Session struct {
	conn  *websocket.Conn
	codec protocol.Codec
	log   *zap.Logger

	inbox chan protocol.Envelope     // everything but player lists
	lists chan []game.EntityMetadata // receivePlayers payloads
	send  chan []byte
	done  chan struct{}
	err   atomic.Pointer[error]

	closeOnce sync.Once
	sendMu    sync.Mutex
	closed    bool
	dropped   atomic.Int64
}

// WSURL derives the room WebSocket URL from the server's HTTP base URL.
func WSURL(httpBase, room string, codec protocol.Codec) (string, error) {
	u, err := url.Parse(httpBase)
	if err != nil {
		return "", fmt.Errorf("parse server url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported server url scheme %q", u.Scheme)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws"
	q := url.Values{}
	q.Set("room", room)
	q.Set("codec", codec.Name())
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Dial connects to wsURL, retrying while the server comes up.
func Dial(ctx context.Context, wsURL string, codec protocol.Codec, log *zap.Logger) (*Session, error) {
	if log == nil {
		log = zap.NewNop()
	}
	conn, err := dialWithRetry(ctx, wsURL)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", wsURL, err)
	}
	s := &Session{
		conn:  conn,
		codec: codec,
		log:   log,
		inbox: make(chan protocol.Envelope, 16),
		lists: make(chan []game.EntityMetadata, listQueueSize),
		send:  make(chan []byte, sendQueueSize),
		done:  make(chan struct{}),
	}
	go s.readLoop()
	go s.writeLoop()
	return s, nil
}

func dialWithRetry(ctx context.Context, wsURL string) (*websocket.Conn, error) {
	if !strings.HasPrefix(wsURL, "ws://") && !strings.HasPrefix(wsURL, "wss://") {
		return nil, fmt.Errorf("invalid ws url: %s", wsURL)
	}
	var lastErr error
	for attempt := 0; attempt < dialAttempts; attempt++ {
		conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
		if err == nil {
			return conn, nil
		}
		lastErr = err
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(dialBackoff):
		}
	}
	return nil, lastErr
}

func (s *Session) readLoop() {
	defer s.shutdown(ErrClosed)
	for {
		_, payload, err := s.conn.ReadMessage()
		if err != nil {
			s.shutdown(err)
			return
		}
		env, err := s.codec.DecodeEnvelope(payload)
		if err != nil {
			s.log.Debug("bad envelope", zap.Error(err))
			continue
		}
		if env.T == protocol.MsgReceivePlayers {
			list, err := protocol.DecodePayload[protocol.ReceivePlayers](s.codec, env)
			if err != nil {
				s.log.Debug("bad player list", zap.Error(err))
				continue
			}
			select {
			case s.lists <- list.Players:
			default:
				// Each list is complete, so losing one only delays remote positions.
				s.log.Debug("player list dropped")
			}
			continue
		}
		select {
		case s.inbox <- env:
		default:
		}
	}
}

func (s *Session) writeLoop() {
	frame := websocket.TextMessage
	if s.codec.Binary() {
		frame = websocket.BinaryMessage
	}
	for {
		select {
		case b := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(frame, b); err != nil {
				s.shutdown(err)
				return
			}
		case <-s.done:
			return
		}
	}
}

func (s *Session) shutdown(err error) {
	s.closeOnce.Do(func() {
		s.err.Store(&err)
		s.sendMu.Lock()
		s.closed = true
		s.sendMu.Unlock()
		close(s.done)
		_ = s.conn.Close()
	})
}

// Err returns why the session ended, or nil while it is open.
func (s *Session) Err() error {
	if p := s.err.Load(); p != nil {
		return *p
	}
	return nil
}

// Done is closed when the connection ends.
func (s *Session) Done() <-chan struct{} { return s.done }

// Close sends a close frame and tears the connection down.
func (s *Session) Close() error {
	_ = s.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
	s.shutdown(ErrClosed)
	return nil
}

func (s *Session) enqueue(t string, payload any) bool {
	b, err := s.codec.Encode(t, payload)
	if err != nil {
		s.log.Warn("encode", zap.String("type", t), zap.Error(err))
		return false
	}
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	if s.closed {
		return false
	}
	select {
	case s.send <- b:
		return true
	default:
		s.dropped.Add(1)
		return false
	}
}

// Login joins the room and waits for the joinedRoom reply.
func (s *Session) Login(ctx context.Context, userName string) (game.EntityMetadata, error) {
	if !s.enqueue(protocol.MsgLogin, protocol.Login{UserName: userName}) {
		return game.EntityMetadata{}, ErrClosed
	}
	env, err := s.waitFor(ctx, func(env protocol.Envelope) bool { return env.T == protocol.MsgJoinedRoom })
	if err != nil {
		return game.EntityMetadata{}, fmt.Errorf("login: %w", err)
	}
	meta, err := protocol.DecodePayload[protocol.JoinedRoom](s.codec, env)
	if err != nil {
		return game.EntityMetadata{}, fmt.Errorf("login: %w", err)
	}
	s.log.Info("joined room", zap.String("userName", meta.UserName), zap.String("character", string(meta.Character)))
	return meta, nil
}

func (s *Session) waitFor(ctx context.Context, predicate func(protocol.Envelope) bool) (protocol.Envelope, error) {
	for {
		select {
		case env := <-s.inbox:
			if predicate(env) {
				return env, nil
			}
		case <-s.done:
			return protocol.Envelope{}, s.Err()
		case <-ctx.Done():
			return protocol.Envelope{}, ctx.Err()
		}
	}
}

// Emit queues an updatePlayer without blocking; a full queue drops it.
func (s *Session) Emit(meta game.EntityMetadata) {
	s.enqueue(protocol.MsgUpdatePlayer, meta)
}

// Received returns the player lists that arrived since the last call, oldest first.
func (s *Session) Received() [][]game.EntityMetadata {
	var out [][]game.EntityMetadata
	for {
		select {
		case l := <-s.lists:
			out = append(out, l)
		default:
			return out
		}
	}
}

// Dropped counts updates discarded because the send queue was full.
func (s *Session) Dropped() int64 { return s.dropped.Load() }
