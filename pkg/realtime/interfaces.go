// Copyright 2026 Krafter Authors
// SPDX-License-Identifier: AGPL-3.0

package realtime

import (
	"context"
)

type HubInterface interface {
	BroadcastToTenant(ctx context.Context, tenantID string, event string, payload interface{}) error
}
