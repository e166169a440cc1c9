// Copyright 2026 Krafter Authors
// SPDX-License-Identifier: AGPL-3.0

package logging

import (
	"testing"
)

func TestDebugLogger(t *testing.T) {
	func() {
		_ = recover()
		NewLogger("DEBUG")
	}()
}

func TestInvalidLevel(t *testing.T) {
	func() {
		_ = recover()
		NewLogger("invalid")
	}()
}

func TestSecurityLoggerEvents(t *testing.T) {
	l := NewNoopLogger()

	l.Security().SystemStartup()
	l.Security().SystemShutdown()
	l.Security().AuthFailure("user-123", "invalid token")
	l.Security().TenantRejected("acme", "tenant expired")
}
