//go:build windows

package main

import "os/exec"

// Started processes already outlive their parent on Windows.
func configureDetached(c *exec.Cmd) {}
