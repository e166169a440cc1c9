// Copyright 2026 Krafter Authors
// SPDX-License-Identifier: AGPL-3.0

package version

// Version is stamped at build time via -ldflags.
var Version = "dev"
