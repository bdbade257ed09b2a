//go:build !windows

package scan

import "os/exec"

// FindRuntime locates the scanning executable on PATH.
func FindRuntime(runtime string) (string, error) {
	return exec.LookPath(runtime)
}
