package loader

import (
	"errors"
	"testing"
)

func TestTOMLLoader_Load(t *testing.T) {
	memfs := NewMemFS()
	memfs.AddFile("/config.toml", `
makePath = "gmake"
alwaysPreConfigure = true
dryrunSwitches = ["--always-make", "--keep-going"]

[[configurations]]
name = "Debug"
makeArgs = ["DEBUG=1"]
`)

	loader := NewTOMLLoaderWithFS(memfs, "/config.toml")
	config, err := loader.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if config["makePath"] != "gmake" {
		t.Errorf("makePath = %v, want 'gmake'", config["makePath"])
	}
	if config["alwaysPreConfigure"] != true {
		t.Errorf("alwaysPreConfigure = %v, want true", config["alwaysPreConfigure"])
	}

	switches, ok := config["dryrunSwitches"].([]any)
	if !ok || len(switches) != 2 {
		t.Fatalf("dryrunSwitches = %v, want 2-element list", config["dryrunSwitches"])
	}
	if switches[0] != "--always-make" {
		t.Errorf("dryrunSwitches[0] = %v, want '--always-make'", switches[0])
	}

	configs, ok := config["configurations"].([]any)
	if !ok || len(configs) != 1 {
		t.Fatalf("configurations = %v, want 1-element list", config["configurations"])
	}
	first, ok := configs[0].(map[string]any)
	if !ok || first["name"] != "Debug" {
		t.Errorf("configurations[0] = %v, want name 'Debug'", configs[0])
	}
}

func TestTOMLLoader_LoadNonExistent(t *testing.T) {
	memfs := NewMemFS()
	loader := NewTOMLLoaderWithFS(memfs, "/nonexistent.toml")

	config, err := loader.Load()
	if err != nil {
		t.Fatalf("expected no error for non-existent file, got: %v", err)
	}
	if config != nil {
		t.Error("expected nil config for non-existent file")
	}
}

func TestTOMLLoader_LoadInvalid(t *testing.T) {
	memfs := NewMemFS()
	memfs.AddFile("/invalid.toml", `
[configurations
name = "broken"
`)

	loader := NewTOMLLoaderWithFS(memfs, "/invalid.toml")
	_, err := loader.Load()
	if err == nil {
		t.Fatal("expected parse error")
	}

	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected *ParseError, got %T", err)
	}
	if parseErr.Path != "/invalid.toml" {
		t.Errorf("Path = %q, want '/invalid.toml'", parseErr.Path)
	}
}
