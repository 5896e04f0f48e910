package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 << 10
	dispatchWait   = 15 * time.Second
)

// Handler answers one inbound frame. A nil reply sends nothing back.
type Handler interface {
	Handle(ctx context.Context, env Envelope) *Event
}

// Client is an admitted websocket connection. Reads and dispatch happen on
// the goroutine that calls Serve; writes happen on a dedicated goroutine
// draining the send queue.
type Client struct {
	id     string
	userID uint
	conn   *websocket.Conn
	log    *slog.Logger

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func NewClient(conn *websocket.Conn, userID uint, buffer int, log *slog.Logger) *Client {
	id := uuid.NewString()

	return &Client{
		id:     id,
		userID: userID,
		conn:   conn,
		log:    log.With("conn_id", id, "user_id", userID),
		send:   make(chan []byte, buffer),
		done:   make(chan struct{}),
	}
}

func (c *Client) ID() string { return c.id }

func (c *Client) UserID() uint { return c.userID }

// Send queues a push without blocking. It fails when the queue is full or
// the connection is closing.
func (c *Client) Send(payload []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

// reply queues a response to the client's own request, waiting for room in
// the queue rather than dropping it.
func (c *Client) reply(evt Event) {
	payload, err := evt.Encode()
	if err != nil {
		c.log.Error("failed to encode reply", "type", evt.Type, "error", err)
		return
	}

	select {
	case c.send <- payload:
	case <-c.done:
	}
}

func (c *Client) Closed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

func (c *Client) Close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// Serve runs the connection until the peer goes away or ctx ends.
func (c *Client) Serve(ctx context.Context, h Handler) {
	written := make(chan struct{})
	go func() {
		defer close(written)
		c.writePump()
	}()

	go func() {
		select {
		case <-ctx.Done():
			c.Close()
		case <-c.done:
		}
	}()

	c.readPump(ctx, h)
	c.Close()
	<-written
}

func (c *Client) readPump(ctx context.Context, h Handler) {
	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.log.Warn("failed to set initial read deadline", "error", err)
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.log.Warn("websocket read failed", "error", err)
			}
			return
		}

		if messageType != websocket.TextMessage {
			continue
		}

		var env Envelope
		if err := json.Unmarshal(message, &env); err != nil || env.Type == "" {
			c.reply(Event{Type: EventError, Data: ErrorPayload{Message: "malformed frame"}})
			continue
		}

		// A dispatch finishes even if the connection drops meanwhile.
		dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), dispatchWait)
		resp := h.Handle(dctx, env)
		cancel()

		if resp != nil {
			c.reply(*resp)
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload := <-c.send:
			if err := c.write(websocket.TextMessage, payload); err != nil {
				c.log.Warn("websocket write failed", "error", err)
				c.Close()
				return
			}
		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				c.log.Debug("ping failed", "error", err)
				c.Close()
				return
			}
		case <-c.done:
			_ = c.write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

func (c *Client) write(messageType int, payload []byte) error {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteMessage(messageType, payload)
}

// Reject tells an unauthenticated peer why it is being turned away and
// closes the connection.
func Reject(conn *websocket.Conn, reason string) {
	defer conn.Close()

	payload, err := Event{Type: EventConnectError, Data: ErrorPayload{Message: reason}}.Encode()
	if err != nil {
		return
	}

	deadline := time.Now().Add(writeWait)
	if err := conn.SetWriteDeadline(deadline); err != nil {
		return
	}
	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		return
	}
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason), deadline)
}
