package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// runCommand executes the command tree against a workspace and captures
// output.
func runCommand(t *testing.T, workspace string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd("1.2.3", "abcdef", "2026-01-02")
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(append(args,
		"--workspace", workspace,
		"--config", filepath.Join(workspace, "user-config.toml"),
	))
	err := cmd.ExecuteContext(context.Background())
	return buf.String(), err
}

func newWorkspace(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", path, err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}
	return root
}

func TestVersionCommand(t *testing.T) {
	out, err := runCommand(t, newWorkspace(t, nil), "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.Contains(out, "makefile-tools version 1.2.3") {
		t.Errorf("expected version line, got %q", out)
	}
	if !strings.Contains(out, "commit: abcdef") {
		t.Errorf("expected commit in output, got %q", out)
	}
}

func TestTargetsCommand(t *testing.T) {
	root := newWorkspace(t, map[string]string{
		"Makefile": "all: build\n\tgcc -o app main.c\n\nbuild:\n\tgcc -c main.c\n",
	})

	out, err := runCommand(t, root, "targets")
	if err != nil {
		t.Fatalf("targets: %v", err)
	}
	if !strings.Contains(out, "all") || !strings.Contains(out, "build") {
		t.Errorf("expected both targets listed, got %q", out)
	}
	if !strings.Contains(out, "(default)") {
		t.Errorf("expected default goal marker, got %q", out)
	}
}

func TestTargetsCommandWithoutMakefile(t *testing.T) {
	_, err := runCommand(t, newWorkspace(t, nil), "targets")

	var configErr *ConfigError
	if !errors.As(err, &configErr) {
		t.Errorf("expected a ConfigError, got %v", err)
	}
}

func TestTargetShowDefault(t *testing.T) {
	out, err := runCommand(t, newWorkspace(t, nil), "target")
	if err != nil {
		t.Fatalf("target: %v", err)
	}
	if !strings.Contains(out, "(default)") {
		t.Errorf("expected default target placeholder, got %q", out)
	}
}

func TestTargetSetPersists(t *testing.T) {
	root := newWorkspace(t, nil)

	out, err := runCommand(t, root, "target", "clean")
	if err != nil {
		t.Fatalf("target clean: %v", err)
	}
	if !strings.Contains(out, `Current target set to "clean".`) {
		t.Errorf("expected confirmation, got %q", out)
	}

	out, err = runCommand(t, root, "target")
	if err != nil {
		t.Fatalf("target: %v", err)
	}
	if !strings.Contains(out, "clean") {
		t.Errorf("expected persisted target, got %q", out)
	}
}

const configurationsYAML = `configurations:
  - name: Debug
    makeArgs: ["CFLAGS=-g"]
  - name: Release
    makeArgs: ["CFLAGS=-O2"]
`

func TestConfigurationShow(t *testing.T) {
	root := newWorkspace(t, map[string]string{"makefile-tools.yaml": configurationsYAML})

	out, err := runCommand(t, root, "configuration")
	if err != nil {
		t.Fatalf("configuration: %v", err)
	}
	if !strings.Contains(out, "(none)") {
		t.Errorf("expected no active configuration, got %q", out)
	}
	if !strings.Contains(out, "available: Debug") || !strings.Contains(out, "available: Release") {
		t.Errorf("expected available configurations listed, got %q", out)
	}
}

func TestConfigurationSet(t *testing.T) {
	root := newWorkspace(t, map[string]string{"makefile-tools.yaml": configurationsYAML})

	out, err := runCommand(t, root, "configuration", "Debug")
	if err != nil {
		t.Fatalf("configuration Debug: %v", err)
	}
	if !strings.Contains(out, `Active configuration set to "Debug".`) {
		t.Errorf("expected confirmation, got %q", out)
	}

	out, err = runCommand(t, root, "configuration")
	if err != nil {
		t.Fatalf("configuration: %v", err)
	}
	if !strings.Contains(out, "Debug") {
		t.Errorf("expected persisted configuration, got %q", out)
	}
}

func TestConfigurationSetUnknown(t *testing.T) {
	_, err := runCommand(t, newWorkspace(t, nil), "configuration", "Bogus")

	var usageErr *UsageError
	if !errors.As(err, &usageErr) {
		t.Errorf("expected a UsageError, got %v", err)
	}
}

const launchYAML = `launchConfigurations:
  - cwd: out
    binaryPath: out/app
    binaryArgs: ["-v"]
`

func TestLaunchListEmpty(t *testing.T) {
	out, err := runCommand(t, newWorkspace(t, nil), "launch", "list")
	if err != nil {
		t.Fatalf("launch list: %v", err)
	}
	if !strings.Contains(out, "No launch configurations are defined") {
		t.Errorf("expected empty-list notice, got %q", out)
	}
}

func TestLaunchSelectBadIndex(t *testing.T) {
	root := newWorkspace(t, map[string]string{"makefile-tools.yaml": launchYAML})

	_, err := runCommand(t, root, "launch", "select", "abc")
	var usageErr *UsageError
	if !errors.As(err, &usageErr) {
		t.Errorf("expected a UsageError for a non-numeric index, got %v", err)
	}

	_, err = runCommand(t, root, "launch", "select", "5")
	if !errors.As(err, &usageErr) {
		t.Errorf("expected a UsageError for an out-of-range index, got %v", err)
	}
}

func TestLaunchSelectAndShow(t *testing.T) {
	root := newWorkspace(t, map[string]string{"makefile-tools.yaml": launchYAML})

	out, err := runCommand(t, root, "launch", "select", "0")
	if err != nil {
		t.Fatalf("launch select: %v", err)
	}
	if !strings.Contains(out, "Launch configuration set to") {
		t.Errorf("expected confirmation, got %q", out)
	}

	out, err = runCommand(t, root, "launch", "show")
	if err != nil {
		t.Fatalf("launch show: %v", err)
	}
	wantPath := filepath.Join(root, "out", "app")
	if !strings.Contains(out, "path: "+wantPath) {
		t.Errorf("expected resolved binary path %q, got %q", wantPath, out)
	}
	if !strings.Contains(out, "argline: -v") {
		t.Errorf("expected argument line, got %q", out)
	}

	out, err = runCommand(t, root, "launch", "list")
	if err != nil {
		t.Fatalf("launch list: %v", err)
	}
	if !strings.Contains(out, "* 0: out>out/app(-v)") {
		t.Errorf("expected selection marker in list, got %q", out)
	}
}

func TestLaunchShowWithoutSelection(t *testing.T) {
	_, err := runCommand(t, newWorkspace(t, nil), "launch", "show")

	var configErr *ConfigError
	if !errors.As(err, &configErr) {
		t.Errorf("expected a ConfigError, got %v", err)
	}
}

func TestDebugShowWithoutSelection(t *testing.T) {
	_, err := runCommand(t, newWorkspace(t, nil), "debug", "--show")

	var configErr *ConfigError
	if !errors.As(err, &configErr) {
		t.Errorf("expected a ConfigError, got %v", err)
	}
}

func TestDebugShowPrintsRequest(t *testing.T) {
	root := newWorkspace(t, map[string]string{"makefile-tools.yaml": launchYAML})

	if _, err := runCommand(t, root, "launch", "select", "0"); err != nil {
		t.Fatalf("launch select: %v", err)
	}

	out, err := runCommand(t, root, "debug", "--show", "--compiler", "gcc")
	if err != nil {
		t.Fatalf("debug --show: %v", err)
	}
	if !strings.Contains(out, `"type": "cppdbg"`) {
		t.Errorf("expected a cppdbg request, got %q", out)
	}
	if !strings.Contains(out, filepath.Join(root, "out", "app")) {
		t.Errorf("expected the launch binary in the request, got %q", out)
	}
}

func TestConfigureReportsBuildLog(t *testing.T) {
	root := newWorkspace(t, map[string]string{
		"makefile-tools.yaml": "buildLog: build.log\n",
		"build.log":           "gcc -c main.c\n",
	})

	out, err := runCommand(t, root, "configure")
	if err != nil {
		t.Fatalf("configure: %v", err)
	}
	if !strings.Contains(out, "IntelliSense source: build-log") {
		t.Errorf("expected build-log source, got %q", out)
	}
	if !strings.Contains(out, "Build log:") {
		t.Errorf("expected build log path, got %q", out)
	}
}

func TestPreconfigureWithoutScript(t *testing.T) {
	_, err := runCommand(t, newWorkspace(t, nil), "preconfigure")

	var configErr *ConfigError
	if !errors.As(err, &configErr) {
		t.Errorf("expected a ConfigError, got %v", err)
	}
}

func TestBuildCommandRejectsExtraArgs(t *testing.T) {
	_, err := runCommand(t, newWorkspace(t, nil), "build", "all", "extra")
	if err == nil {
		t.Error("expected an argument count error")
	}
}

func TestUsageErrorWrapping(t *testing.T) {
	base := NewUsageError("index %d out of range", 7)
	wrapped := fmt.Errorf("select: %w", base)

	var usageErr *UsageError
	if !errors.As(wrapped, &usageErr) {
		t.Fatal("expected errors.As to find the UsageError")
	}
	if usageErr.Error() != "index 7 out of range" {
		t.Errorf("Error() = %q", usageErr.Error())
	}
}

func TestConfigErrorWrapping(t *testing.T) {
	base := NewConfigError("load settings: %s", "bad yaml")
	wrapped := fmt.Errorf("setup: %w", base)

	var configErr *ConfigError
	if !errors.As(wrapped, &configErr) {
		t.Fatal("expected errors.As to find the ConfigError")
	}
	if !strings.Contains(configErr.Error(), "bad yaml") {
		t.Errorf("Error() = %q", configErr.Error())
	}
}
