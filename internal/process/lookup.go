package process

import (
	"fmt"
	"os/exec"
)

// FindExecutable locates an executable in PATH and returns its full path.
func FindExecutable(name string) (string, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("executable %q not found in PATH: %w", name, err)
	}
	return path, nil
}
