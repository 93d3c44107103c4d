package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"gridchat/contract"
	"gridchat/domain"
	"gridchat/domain/event"
	"gridchat/runtime/workers"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

var _ contract.EventSink = (*Connection)(nil)

// Connection is one live session: one socket, one authenticated user,
// one room, fixed at join time. It is the room registry's sink for
// this subscriber. Outbound delivery goes through a bounded channel
// drained by the write pump; Consume never blocks on the socket.
type Connection struct {
	id       string
	userID   string
	roomID   domain.RoomID
	ws       *websocket.Conn
	send     chan []byte
	done     chan struct{}
	log      *slog.Logger
	registry contract.Broadcaster
	presence contract.Presence
	receipts chan<- workers.ReadReceipt
	maxDrops int32
	drops    atomic.Int32

	cleanupOnce sync.Once

	// typing mirrors this connection's claim in the presence tracker
	// so claims and releases always pair up, whatever the client sends.
	typingMu sync.Mutex
	typing   bool
}

func newConnection(
	ws *websocket.Conn,
	userID string,
	roomID domain.RoomID,
	log *slog.Logger,
	registry contract.Broadcaster,
	presence contract.Presence,
	receipts chan<- workers.ReadReceipt,
	sendBuffer int,
	maxDrops int,
) *Connection {
	id := uuid.NewString()
	return &Connection{
		id:       id,
		userID:   userID,
		roomID:   roomID,
		ws:       ws,
		send:     make(chan []byte, sendBuffer),
		done:     make(chan struct{}),
		log:      log.With("conn_id", id, "user_id", userID, "room_id", roomID),
		registry: registry,
		presence: presence,
		receipts: receipts,
		maxDrops: int32(maxDrops),
	}
}

// Consume implements contract.EventSink. It is called under the room
// lock, so it only enqueues: a full buffer drops the event, and a
// subscriber that keeps dropping gets its socket closed rather than
// stalling the room or silently diverging forever.
func (c *Connection) Consume(_ context.Context, e event.ChatEvent) error {
	payload, err := encodeEvent(e)
	if err != nil {
		return err
	}
	select {
	case c.send <- payload:
		c.drops.Store(0)
		return nil
	default:
		dropped := c.drops.Add(1)
		c.log.Warn("Outbound buffer full, dropping event", "consecutive_drops", dropped)
		if dropped >= c.maxDrops {
			c.log.Warn("Subscriber too slow, forcing close")
			// Only the socket is closed here; full cleanup runs on the
			// read pump's exit path, off the broadcaster's lock.
			_ = c.ws.Close()
		}
		return nil
	}
}

// readPump processes inbound frames one at a time for the lifetime of
// the connection. A malformed frame is answered and ignored, never
// fatal; only transport errors end the loop.
func (c *Connection) readPump(ctx context.Context) {
	defer c.cleanup()

	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Debug("Connection closed", "error", err)
			}
			return
		}
		c.handleFrame(ctx, raw)
	}
}

func (c *Connection) handleFrame(ctx context.Context, raw []byte) {
	var frame inboundFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		c.sendError("malformed frame")
		return
	}

	switch frame.Type {
	case frameTyping:
		if frame.Typing == nil {
			c.sendError("typing frame requires a boolean 'typing' field")
			return
		}
		c.setTyping(*frame.Typing)
		c.registry.Broadcast(ctx, c.roomID, event.TypingChanged{
			Room:        c.roomID,
			TypingUsers: c.presence.Typers(c.roomID),
		})

	case frameMessageRead:
		messageID, err := uuid.Parse(frame.MessageID)
		if err != nil {
			c.sendError("message_read frame requires a valid 'message_id'")
			return
		}
		receipt := workers.ReadReceipt{Room: c.roomID, MessageID: messageID, UserID: c.userID}
		select {
		case c.receipts <- receipt:
		default:
			c.log.Warn("Receipt queue full, dropping read receipt", "message_id", messageID)
			c.sendError("read receipt dropped, retry later")
		}

	default:
		c.sendError("unsupported frame type")
	}
}

// setTyping forwards only actual transitions to the presence tracker,
// so a client repeating typing=true cannot inflate its claim count.
func (c *Connection) setTyping(typing bool) {
	c.typingMu.Lock()
	changed := c.typing != typing
	c.typing = typing
	c.typingMu.Unlock()
	if changed {
		c.presence.SetTyping(c.roomID, c.userID, typing)
	}
}

// writePump owns all writes to the socket: queued events, pings, and
// the final close message.
func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.cleanup()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, payload); err != nil {
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

func (c *Connection) sendError(detail string) {
	payload, err := json.Marshal(errorFrame{Error: detail})
	if err != nil {
		return
	}
	select {
	case c.send <- payload:
	default:
	}
}

// cleanup runs exactly once, whichever side closes first: deregister,
// release any typing claim, broadcast the updated typing set to the
// remaining subscribers, and tear the transport down.
func (c *Connection) cleanup() {
	c.cleanupOnce.Do(func() {
		c.registry.Leave(c.roomID, c.id)

		c.typingMu.Lock()
		wasTyping := c.typing
		c.typing = false
		c.typingMu.Unlock()
		if wasTyping {
			c.presence.SetTyping(c.roomID, c.userID, false)
		}
		c.registry.Broadcast(context.Background(), c.roomID, event.TypingChanged{
			Room:        c.roomID,
			TypingUsers: c.presence.Typers(c.roomID),
		})

		_ = c.ws.Close()
		// Safe: Leave already returned, so no broadcast can still be
		// enqueueing into this connection.
		close(c.send)
		close(c.done)
		c.log.Debug("Connection cleaned up")
	})
}
