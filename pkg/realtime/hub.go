// Copyright 2026 Krafter Authors
// SPDX-License-Identifier: AGPL-3.0

package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/krafter/backend/internal/logging"
	"github.com/krafter/backend/internal/monitoring"
	"github.com/krafter/backend/internal/tracing"
)

// tenantGroupPrefix scopes every connection to its tenant. All broadcasts are
// addressed to a group; there is no hub-wide fanout.
const tenantGroupPrefix = "GroupTenant-"

// GroupForTenant returns the group name a tenant's connections join.
func GroupForTenant(tenantID string) string {
	return tenantGroupPrefix + tenantID
}

type groupMessage struct {
	group   string
	payload []byte
}

var _ HubInterface = (*Hub)(nil)

// Hub tracks realtime connections by tenant group and fans broadcast messages
// out to the group's members. All membership mutations happen on the Run
// goroutine; the channels are the only way in.
type Hub struct {
	register   chan *client
	unregister chan *client
	broadcast  chan groupMessage

	groups map[string]map[*client]struct{}

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func NewHub(tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *Hub {
	return &Hub{
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan groupMessage, 64),
		groups:     make(map[string]map[*client]struct{}),
		tracer:     tracer,
		monitor:    monitor,
		logger:     logger,
	}
}

// Run owns the group table until the context is cancelled. On shutdown every
// member's send channel is closed, which unblocks the write pumps.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			for group, members := range h.groups {
				for member := range members {
					close(member.send)
				}
				delete(h.groups, group)
			}
			return

		case c := <-h.register:
			members, ok := h.groups[c.group]
			if !ok {
				members = make(map[*client]struct{})
				h.groups[c.group] = members
			}
			members[c] = struct{}{}
			h.logger.Debugf("realtime client joined group %q (%d members)", c.group, len(members))

		case c := <-h.unregister:
			if members, ok := h.groups[c.group]; ok {
				if _, present := members[c]; present {
					delete(members, c)
					close(c.send)
				}
				if len(members) == 0 {
					delete(h.groups, c.group)
				}
			}

		case msg := <-h.broadcast:
			for member := range h.groups[msg.group] {
				select {
				case member.send <- msg.payload:
				default:
					// Slow consumer; drop it rather than stall the group.
					delete(h.groups[msg.group], member)
					close(member.send)
				}
			}
		}
	}
}

// BroadcastToTenant delivers the payload to every connection in the tenant's
// group. Tenants with no connections are a no-op.
func (h *Hub) BroadcastToTenant(ctx context.Context, tenantID string, event string, payload interface{}) error {
	_, span := h.tracer.Start(ctx, "realtime.Hub.BroadcastToTenant")
	defer span.End()

	body, err := json.Marshal(map[string]interface{}{
		"event": event,
		"data":  payload,
	})
	if err != nil {
		return fmt.Errorf("failed to encode realtime message: %w", err)
	}

	select {
	case h.broadcast <- groupMessage{group: GroupForTenant(tenantID), payload: body}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
