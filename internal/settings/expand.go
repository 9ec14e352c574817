package settings

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// variablePattern matches ${var} and ${var:default} references.
var variablePattern = regexp.MustCompile(`\$\{([^}:]+)(?::([^}]*))?\}`)

// Expander resolves ${...} variable references in settings values.
type Expander struct {
	providers map[string]func() string
}

// NewExpander creates an expander for the given workspace. The configuration
// name and build target providers reflect the current picks.
func NewExpander(workspaceRoot string, configurationName, buildTarget func() string) *Expander {
	e := &Expander{providers: make(map[string]func() string)}

	e.providers["workspaceFolder"] = func() string { return workspaceRoot }
	e.providers["workspaceRoot"] = e.providers["workspaceFolder"]
	e.providers["workspaceFolderBasename"] = func() string { return filepath.Base(workspaceRoot) }
	e.providers["cwd"] = func() string {
		cwd, _ := os.Getwd()
		return cwd
	}
	e.providers["pathSeparator"] = func() string { return string(filepath.Separator) }
	if configurationName != nil {
		e.providers["configuration"] = configurationName
	}
	if buildTarget != nil {
		e.providers["buildTarget"] = buildTarget
	}

	return e
}

// Expand resolves all variable references in the input. Unresolvable
// references are left literal.
func (e *Expander) Expand(input string) string {
	if !strings.Contains(input, "${") {
		return input
	}

	return variablePattern.ReplaceAllStringFunc(input, func(match string) string {
		inner := match[2 : len(match)-1]

		// ${env:VAR} and ${env:VAR:default}
		if envRef, ok := strings.CutPrefix(inner, "env:"); ok {
			name, fallback, hasFallback := strings.Cut(envRef, ":")
			if val := os.Getenv(name); val != "" {
				return val
			}
			if hasFallback {
				return fallback
			}
			return ""
		}

		name, fallback, hasFallback := strings.Cut(inner, ":")
		if provider, ok := e.providers[name]; ok {
			if val := provider(); val != "" {
				return val
			}
		}
		if hasFallback {
			return fallback
		}
		return match
	})
}

// ExpandAll resolves variable references in each input.
func (e *Expander) ExpandAll(inputs []string) []string {
	if len(inputs) == 0 {
		return nil
	}
	out := make([]string, len(inputs))
	for i, in := range inputs {
		out[i] = e.Expand(in)
	}
	return out
}
