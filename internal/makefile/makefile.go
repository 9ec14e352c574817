// Package makefile discovers makefiles and parses their build targets.
package makefile

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// ErrNotFound indicates no makefile exists in the searched directory.
var ErrNotFound = errors.New("no makefile found")

// standardNames are the file names make itself checks, in order.
var standardNames = []string{"GNUmakefile", "makefile", "Makefile"}

// targetPattern matches a target definition at the start of a line. The
// negative condition after the colon rejects variable assignments (VAR := x).
var targetPattern = regexp.MustCompile(`^([a-zA-Z_][a-zA-Z0-9_./-]*)\s*:(?:[^=]|$)`)

// Target is a build target parsed from a makefile.
type Target struct {
	// Name is the target name.
	Name string `json:"name"`

	// Description is the trailing ## comment on the target line, if any.
	Description string `json:"description,omitempty"`

	// Phony reports whether the target was declared in .PHONY.
	Phony bool `json:"phony,omitempty"`

	// Line is the 1-based line number of the definition.
	Line int `json:"line"`
}

// Discover returns the makefile path for a directory. A non-empty override
// wins; otherwise the standard names are probed in make's own order.
func Discover(dir, override string) (string, error) {
	if override != "" {
		path := override
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, path)
		}
		if _, err := os.Stat(path); err != nil {
			return "", fmt.Errorf("configured makefile %s: %w", override, ErrNotFound)
		}
		return path, nil
	}

	for _, name := range standardNames {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w in %s", ErrNotFound, dir)
}

// ParseTargets parses the makefile at path and returns its targets in
// definition order. Internal targets (leading dot) are skipped.
func ParseTargets(path string) ([]Target, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open makefile: %w", err)
	}
	defer f.Close()

	var targets []Target
	phony := make(map[string]bool)
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()

		// Recipe lines and comments cannot define targets.
		if strings.HasPrefix(line, "\t") || strings.HasPrefix(strings.TrimSpace(line), "#") {
			continue
		}

		if strings.HasPrefix(line, ".PHONY:") {
			for _, name := range strings.Fields(strings.TrimPrefix(line, ".PHONY:")) {
				phony[name] = true
			}
			continue
		}

		m := targetPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		name := m[1]
		if strings.HasPrefix(name, ".") || seen[name] {
			continue
		}
		seen[name] = true

		target := Target{
			Name: name,
			Line: lineNum,
		}
		if idx := strings.Index(line, "##"); idx >= 0 {
			target.Description = strings.TrimSpace(line[idx+2:])
		}
		targets = append(targets, target)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read makefile: %w", err)
	}

	for i := range targets {
		targets[i].Phony = phony[targets[i].Name]
	}
	return targets, nil
}

// DefaultGoal returns the makefile's .DEFAULT_GOAL, or the first target when
// none is declared. Empty when the makefile has no targets at all.
func DefaultGoal(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read makefile: %w", err)
	}

	for _, line := range strings.Split(string(data), "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, ".DEFAULT_GOAL") {
			if idx := strings.IndexAny(trimmed, ":="); idx >= 0 {
				goal := strings.TrimSpace(strings.TrimLeft(trimmed[idx:], ":= "))
				if goal != "" {
					return goal, nil
				}
			}
		}
	}

	targets, err := ParseTargets(path)
	if err != nil {
		return "", err
	}
	if len(targets) == 0 {
		return "", nil
	}
	return targets[0].Name, nil
}
