//go:build windows

package scan

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// FindRuntime locates the scanning executable: first on PATH, then in a
// bin directory next to the running binary or the working directory.
func FindRuntime(runtime string) (string, error) {
	if binPath, err := exec.LookPath(runtime); err == nil {
		return binPath, nil
	}

	var lookup []string
	if exePath, err := os.Executable(); err == nil {
		lookup = append(lookup, filepath.Dir(exePath))
	}
	if wd, err := os.Getwd(); err == nil {
		lookup = append(lookup, wd)
	}

	for _, dir := range lookup {
		binPath := filepath.Join(dir, "bin", fmt.Sprintf("%s.exe", runtime))
		if _, err := os.Stat(binPath); err == nil {
			return binPath, nil
		}
	}

	return "", fmt.Errorf("failed to find binary '%s'", runtime)
}
