package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/samber/lo"
	"github.com/sphere-social/sphere/internal/metrics"
	"github.com/sphere-social/sphere/internal/middleware"
	"github.com/sphere-social/sphere/internal/realtime"
	"github.com/sphere-social/sphere/internal/utils"
)

type WSHandler struct {
	verifier middleware.TokenVerifier
	registry *realtime.Registry
	messages realtime.MessageService
	upgrader websocket.Upgrader
	buffer   int
	metrics  *metrics.Metrics
	log      *slog.Logger
}

func NewWSHandler(
	verifier middleware.TokenVerifier,
	registry *realtime.Registry,
	messages realtime.MessageService,
	origins []string,
	buffer int,
	m *metrics.Metrics,
	log *slog.Logger,
) *WSHandler {
	return &WSHandler{
		verifier: verifier,
		registry: registry,
		messages: messages,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				// Non-browser clients send no Origin.
				return origin == "" || lo.Contains(origins, origin)
			},
		},
		buffer:  buffer,
		metrics: m,
		log:     log,
	}
}

func handshakeToken(c *gin.Context) string {
	if token := c.Query("token"); token != "" {
		return token
	}
	token, _ := utils.BearerToken(c.GetHeader("Authorization"))
	return token
}

// Serve authenticates and admits a websocket connection. Unauthenticated
// peers get a connect_error frame and are disconnected without being
// registered.
func (h *WSHandler) Serve(c *gin.Context) {
	token := handshakeToken(c)

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "error", err)
		return
	}

	userID, err := h.verifier.Verify(token)
	if err != nil {
		h.metrics.HandshakeRejected()
		h.log.Warn("websocket handshake rejected", "remote", c.ClientIP(), "error", err)
		realtime.Reject(conn, "Authentication error")
		return
	}

	client := realtime.NewClient(conn, userID, h.buffer, h.log)
	h.registry.Add(client)
	h.metrics.ConnectionOpened()
	h.log.Info("websocket connected", "user_id", userID, "conn_id", client.ID())

	defer func() {
		h.registry.Remove(client)
		h.metrics.ConnectionClosed()
		h.log.Info("websocket disconnected", "user_id", userID, "conn_id", client.ID())
	}()

	session := realtime.NewSession(client, h.registry, h.messages, h.log)
	client.Serve(c.Request.Context(), session)
}
