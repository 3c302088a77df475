// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package procgroup starts host commands outside the daemon's process group.
package procgroup

import "os/exec"

// Set configures cmd to start in a new process group, so signals sent to the
// kioskd group by the service manager during shutdown or restart do not
// reach it. Must be called before cmd.Start.
func Set(cmd *exec.Cmd) {
	set(cmd)
}
