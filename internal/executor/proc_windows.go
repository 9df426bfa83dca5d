//go:build windows

package executor

import "os/exec"

// configureProcess keeps the default cancellation, which kills the shell.
func configureProcess(c *exec.Cmd) {}
