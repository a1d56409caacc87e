//go:build !windows

package main

import (
	"os/exec"
	"syscall"
)

// configureDetached puts c in its own session so it outlives the dashboard.
func configureDetached(c *exec.Cmd) {
	c.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
}
