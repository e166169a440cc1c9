// Copyright 2026 Krafter Authors
// SPDX-License-Identifier: AGPL-3.0

package main

import (
	"github.com/krafter/backend/cmd"
)

func main() {
	cmd.Execute()
}
