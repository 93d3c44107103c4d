// Package ws is the connection gateway: it upgrades and authenticates
// live connections, binds each one to a room, relays inbound client
// signals, and delivers outbound events on its own transport.
package ws

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"gridchat/contract"
	"gridchat/domain"
	gcerrors "gridchat/errors"
	"gridchat/repositories"
	"gridchat/runtime/workers"
)

type Gateway struct {
	log         *slog.Logger
	baseCtx     context.Context
	upgrader    websocket.Upgrader
	validator   contract.IdentityValidator
	rooms       repositories.RoomStore
	registry    contract.Broadcaster
	presence    contract.Presence
	receipts    chan<- workers.ReadReceipt
	authTimeout time.Duration
	sendBuffer  int
	maxDrops    int
}

func NewGateway(
	baseCtx context.Context,
	log *slog.Logger,
	validator contract.IdentityValidator,
	rooms repositories.RoomStore,
	registry contract.Broadcaster,
	presence contract.Presence,
	receipts chan<- workers.ReadReceipt,
	authTimeout time.Duration,
	sendBuffer int,
	maxDrops int,
) *Gateway {
	return &Gateway{
		log:     log,
		baseCtx: baseCtx,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		validator:   validator,
		rooms:       rooms,
		registry:    registry,
		presence:    presence,
		receipts:    receipts,
		authTimeout: authTimeout,
		sendBuffer:  sendBuffer,
		maxDrops:    maxDrops,
	}
}

func (g *Gateway) Register(r *mux.Router) {
	r.HandleFunc("/ws/chat/{room_id}/", g.ServeWS)
}

// ServeWS establishes one live connection. The bearer token travels in
// the "token" query parameter because the browser websocket handshake
// cannot carry custom headers. A connection is registered only after
// the token validates and membership checks out; a rejected handshake
// leaves no partial join state behind.
func (g *Gateway) ServeWS(w http.ResponseWriter, r *http.Request) {
	roomID := domain.RoomID(mux.Vars(r)["room_id"])
	room, err := g.rooms.GetRoom(roomID)
	if err != nil {
		http.Error(w, gcerrors.ErrRoomNotFound.Error(), gcerrors.MapToHTTPStatus(err))
		return
	}

	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.log.Warn("Websocket upgrade failed", "room_id", roomID, "error", err)
		return
	}

	userID, err := g.validateToken(r.Context(), r.URL.Query().Get("token"))
	if err == nil && !room.IsMember(userID) {
		err = fmt.Errorf("%w: user %s is not a member of room %s", gcerrors.ErrUnauthenticated, userID, roomID)
	}
	if err != nil {
		g.log.Warn("Rejecting connection", "room_id", roomID, "error", err)
		g.reject(conn)
		return
	}

	c := newConnection(conn, userID, roomID, g.log, g.registry, g.presence, g.receipts, g.sendBuffer, g.maxDrops)
	g.registry.Join(roomID, c.id, c)
	g.log.Info("Connection joined", "conn_id", c.id, "user_id", userID, "room_id", roomID)

	go c.writePump()
	go c.readPump(g.baseCtx)
	go g.watchShutdown(c)
}

// validateToken bounds identity validation so a stalled identity
// service cannot hold handshakes open indefinitely.
func (g *Gateway) validateToken(ctx context.Context, token string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.authTimeout)
	defer cancel()

	type result struct {
		userID string
		err    error
	}
	ch := make(chan result, 1)
	go func() {
		userID, err := g.validator.Validate(ctx, token)
		ch <- result{userID: userID, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%w: identity validation timed out", gcerrors.ErrUnauthenticated)
	case res := <-ch:
		return res.userID, res.err
	}
}

func (g *Gateway) reject(conn *websocket.Conn) {
	deadline := time.Now().Add(writeWait)
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(CloseUnauthorized, "unauthorized"), deadline)
	_ = conn.Close()
}

// watchShutdown force-closes the connection when the process is
// shutting down, so graceful shutdown does not wait on idle sockets.
func (g *Gateway) watchShutdown(c *Connection) {
	select {
	case <-g.baseCtx.Done():
		_ = c.ws.Close()
	case <-c.done:
	}
}
