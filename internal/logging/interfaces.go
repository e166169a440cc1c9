// Copyright 2026 Krafter Authors
// SPDX-License-Identifier: AGPL-3.0

package logging

type LoggerInterface interface {
	Debug(args ...interface{})
	Info(args ...interface{})
	Warn(args ...interface{})
	Error(args ...interface{})
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Fatalf(format string, args ...interface{})
	Security() SecurityLoggerInterface
	Sync() error
}

// SecurityLoggerInterface emits structured audit events for security-relevant
// transitions, kept separate from the application log stream.
type SecurityLoggerInterface interface {
	SystemStartup()
	SystemShutdown()
	AuthFailure(subject, reason string)
	TenantRejected(identifier, reason string)
}
