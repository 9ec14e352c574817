package loader

import (
	"encoding/json"
	"os"
	"strconv"
	"strings"
)

// EnvPrefix is the prefix for environment variable overrides.
const EnvPrefix = "MAKEFILE_TOOLS_"

// EnvLoader loads configuration overrides from environment variables.
type EnvLoader struct {
	prefix  string
	mapping map[string]string // env var -> settings key
}

// NewEnvLoader creates an environment variable loader with the default
// prefix and mappings.
func NewEnvLoader() *EnvLoader {
	return &EnvLoader{
		prefix:  EnvPrefix,
		mapping: defaultEnvMapping(),
	}
}

// defaultEnvMapping returns the explicitly mapped environment variables.
func defaultEnvMapping() map[string]string {
	return map[string]string{
		"MAKEFILE_TOOLS_MAKE_PATH":            "makePath",
		"MAKEFILE_TOOLS_MAKE_DIRECTORY":       "makeDirectory",
		"MAKEFILE_TOOLS_MAKEFILE_PATH":        "makefilePath",
		"MAKEFILE_TOOLS_BUILD_LOG":            "buildLog",
		"MAKEFILE_TOOLS_OUTPUT_FOLDER":        "extensionOutputFolder",
		"MAKEFILE_TOOLS_PRE_CONFIGURE_SCRIPT": "preConfigureScript",
		"MAKEFILE_TOOLS_DRYRUN_SWITCHES":      "dryrunSwitches",
		"MAKEFILE_TOOLS_LOGGING_LEVEL":        "loggingLevel",
	}
}

// Load reads environment variables and returns a configuration map.
// Empty string values are treated as valid values, not as unset.
func (l *EnvLoader) Load() (map[string]any, error) {
	config := make(map[string]any)

	for env, key := range l.mapping {
		if val, ok := os.LookupEnv(env); ok {
			config[key] = parseEnvValue(val)
		}
	}

	// Scan for additional prefixed variables not in the mapping.
	for _, env := range os.Environ() {
		if !strings.HasPrefix(env, l.prefix) {
			continue
		}
		name, value, ok := strings.Cut(env, "=")
		if !ok {
			continue
		}
		if _, mapped := l.mapping[name]; mapped {
			continue
		}
		config[envToKey(l.prefix, name)] = parseEnvValue(value)
	}

	if len(config) == 0 {
		return nil, nil
	}
	return config, nil
}

// envToKey converts MAKEFILE_TOOLS_BUILD_LOG to buildLog.
func envToKey(prefix, env string) string {
	name := strings.TrimPrefix(env, prefix)
	parts := strings.Split(name, "_")

	key := strings.ToLower(parts[0])
	for _, part := range parts[1:] {
		if part == "" {
			continue
		}
		key += strings.ToUpper(part[:1]) + strings.ToLower(part[1:])
	}
	return key
}

// parseEnvValue parses the string value into an appropriate type. Lists are
// given as JSON arrays.
func parseEnvValue(s string) any {
	if s == "" {
		return s
	}

	switch strings.ToLower(s) {
	case "true", "yes", "on":
		return true
	case "false", "no", "off":
		return false
	}

	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}

	if strings.HasPrefix(s, "[") || strings.HasPrefix(s, "{") {
		var v any
		if err := json.Unmarshal([]byte(s), &v); err == nil {
			return v
		}
	}

	return s
}
