package loader

import (
	"fmt"
	"os"
	"strings"

	"github.com/tidwall/gjson"
)

// JSONLoader loads the extension's namespace out of a project settings JSON
// file. Both flat dotted keys ("makefile.makePath": ...) and a nested
// object ("makefile": {...}) are accepted, since both forms appear in
// project settings files in the wild.
type JSONLoader struct {
	fs        FileSystem
	path      string
	namespace string
}

// NewJSONLoader creates a JSON loader for the given path using the default
// "makefile" namespace.
func NewJSONLoader(path string) *JSONLoader {
	return &JSONLoader{
		fs:        DefaultFS(),
		path:      path,
		namespace: "makefile",
	}
}

// NewJSONLoaderWithFS creates a JSON loader with a custom file system.
func NewJSONLoaderWithFS(fs FileSystem, path string) *JSONLoader {
	return &JSONLoader{
		fs:        fs,
		path:      path,
		namespace: "makefile",
	}
}

// Load reads configuration from the configured path.
func (l *JSONLoader) Load() (map[string]any, error) {
	data, err := l.fs.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading settings file %s: %w", l.path, err)
	}

	if !gjson.ValidBytes(data) {
		return nil, &ParseError{
			Path:    l.path,
			Message: "invalid JSON",
		}
	}

	config := make(map[string]any)
	prefix := l.namespace + "."

	gjson.ParseBytes(data).ForEach(func(key, value gjson.Result) bool {
		name := key.String()
		switch {
		case name == l.namespace && value.IsObject():
			value.ForEach(func(k, v gjson.Result) bool {
				config[k.String()] = v.Value()
				return true
			})
		case strings.HasPrefix(name, prefix):
			config[strings.TrimPrefix(name, prefix)] = value.Value()
		}
		return true
	})

	if len(config) == 0 {
		return nil, nil
	}
	return config, nil
}
