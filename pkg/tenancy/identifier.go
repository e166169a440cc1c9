// Copyright 2026 Krafter Authors
// SPDX-License-Identifier: AGPL-3.0

package tenancy

import (
	"net"
	"net/http"
	"regexp"
	"strings"
)

// IdentifierHeader carries the tenant identifier when the host gives none.
const IdentifierHeader = "x-tenant-identifier"

// realtimeHostPattern matches {identifier}.api.* hosts on realtime handshakes.
var realtimeHostPattern = regexp.MustCompile(`^(.+)\.api\..*$`)

// IdentifierFromRequest extracts the tenant identifier for plain HTTP traffic:
// the first host label when the host has more than two labels, otherwise the
// x-tenant-identifier header, otherwise blank (the finder maps blank to root).
func IdentifierFromRequest(r *http.Request) string {
	host := stripPort(r.Host)

	if labels := strings.Split(host, "."); len(labels) > 2 {
		return labels[0]
	}

	return strings.TrimSpace(r.Header.Get(IdentifierHeader))
}

// IdentifierFromRealtimeRequest extracts the tenant identifier for realtime
// handshakes: the {identifier}.api.* host pattern first, header fallback. The
// same rule runs on connect and on disconnect so group membership stays
// symmetric.
func IdentifierFromRealtimeRequest(r *http.Request) string {
	host := stripPort(r.Host)

	if m := realtimeHostPattern.FindStringSubmatch(host); m != nil {
		return m[1]
	}

	return strings.TrimSpace(r.Header.Get(IdentifierHeader))
}

// RequestOrigin returns scheme://host without any path component.
func RequestOrigin(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}

// RemoteIP returns the caller address without the port.
func RemoteIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

func stripPort(host string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}
	return host
}
