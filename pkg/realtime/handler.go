// Copyright 2026 Krafter Authors
// SPDX-License-Identifier: AGPL-3.0

package realtime

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/krafter/backend/internal/logging"
	"github.com/krafter/backend/internal/tracing"
	"github.com/krafter/backend/pkg/tenancy"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 4096
	sendBufferSize = 16
)

// client is one websocket connection pinned to a tenant group. The group is
// derived once from the handshake request; connect and disconnect both go
// through it so membership stays consistent.
type client struct {
	hub   *Hub
	conn  *websocket.Conn
	send  chan []byte
	group string
}

type Handler struct {
	hub      *Hub
	finder   tenancy.FinderInterface
	upgrader websocket.Upgrader

	tracer tracing.TracingInterface
	logger logging.LoggerInterface
}

func NewHandler(hub *Hub, finder tenancy.FinderInterface, tracer tracing.TracingInterface, logger logging.LoggerInterface) *Handler {
	return &Handler{
		hub:    hub,
		finder: finder,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Cross-origin handshakes are allowed; tenancy is enforced by the
			// host/header extraction below, not by origin.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		tracer: tracer,
		logger: logger,
	}
}

func (h *Handler) RegisterEndpoints(mux *chi.Mux) {
	mux.Get("/realtime", h.serve)
}

// serve resolves the tenant before upgrading. A handshake that cannot be
// attributed to a live tenant is rejected as an authentication failure rather
// than falling back to root.
func (h *Handler) serve(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "realtime.Handler.serve")
	defer span.End()

	group, err := h.deriveGroup(r)
	if err != nil {
		h.logger.Security().TenantRejected(tenancy.IdentifierFromRealtimeRequest(r), "realtime handshake rejected")
		http.Error(w, "tenant resolution failed", http.StatusUnauthorized)
		return
	}
	_ = ctx

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the handshake error.
		h.logger.Debugf("websocket upgrade failed: %v", err)
		return
	}

	c := &client{
		hub:   h.hub,
		conn:  conn,
		send:  make(chan []byte, sendBufferSize),
		group: group,
	}
	h.hub.register <- c

	go c.writePump()
	go c.readPump()
}

// deriveGroup maps the handshake request to its tenant group. The read pump
// reuses the stored result on disconnect, so joining and leaving always use
// the same derivation.
func (h *Handler) deriveGroup(r *http.Request) (string, error) {
	identifier := tenancy.IdentifierFromRealtimeRequest(r)

	tenant, err := h.finder.Find(r.Context(), identifier)
	if err != nil {
		return "", err
	}

	return GroupForTenant(tenant.ID), nil
}

// readPump drains inbound frames to keep pong handling alive. Inbound payloads
// are ignored; the realtime channel is server-push only.
func (c *client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
