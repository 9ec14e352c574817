package build

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	goversion "github.com/hashicorp/go-version"

	"github.com/adequator/vscode-makefile-tools/internal/process"
)

func versionOf(t *testing.T, s string) *goversion.Version {
	t.Helper()
	v, err := goversion.NewVersion(s)
	if err != nil {
		t.Fatalf("parse version %q: %v", s, err)
	}
	return v
}

func TestToolSupported(t *testing.T) {
	tests := []struct {
		name    string
		version *goversion.Version
		want    bool
	}{
		{name: "unknown version assumed supported", version: nil, want: true},
		{name: "below minimum", version: versionOf(t, "3.80")},
		{name: "exact minimum", version: versionOf(t, "3.81"), want: true},
		{name: "modern", version: versionOf(t, "4.3"), want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tool := Tool{Path: "/usr/bin/make", Version: tt.version}
			if got := tool.Supported(); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

// fakeMake drops an executable stub into a temp dir so PATH lookup succeeds.
func fakeMake(t *testing.T) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("executable stub requires POSIX permissions")
	}
	path := filepath.Join(t.TempDir(), "make")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	return path
}

func TestResolveToolParsesVersion(t *testing.T) {
	path := fakeMake(t)
	runner := &fakeRunner{outcome: process.Outcome{
		ExitCode: 0,
		Stdout:   "GNU Make 4.3\nBuilt for x86_64-pc-linux-gnu\n",
	}}

	tool, err := ResolveTool(context.Background(), runner, path, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tool.Path != path {
		t.Errorf("expected path %q, got %q", path, tool.Path)
	}
	if tool.Version == nil || tool.Version.String() != "4.3.0" {
		t.Errorf("expected version 4.3.0, got %v", tool.Version)
	}

	specs := runner.getSpecs()
	if len(specs) != 1 || len(specs[0].Args) != 1 || specs[0].Args[0] != "--version" {
		t.Errorf("expected a single --version probe, got %+v", specs)
	}
}

func TestResolveToolMissingExecutable(t *testing.T) {
	runner := &fakeRunner{}
	_, err := ResolveTool(context.Background(), runner, "definitely-not-a-real-make-binary", "")
	if err == nil {
		t.Fatal("expected an error for a missing executable")
	}
	if len(runner.getSpecs()) != 0 {
		t.Error("expected no probe when lookup fails")
	}
}

func TestResolveToolProbeFailureLeavesVersionUnknown(t *testing.T) {
	path := fakeMake(t)
	runner := &fakeRunner{err: errors.New("probe refused")}

	tool, err := ResolveTool(context.Background(), runner, path, "")
	if err != nil {
		t.Fatalf("probe failure must not be an error, got %v", err)
	}
	if tool.Version != nil {
		t.Errorf("expected nil version, got %v", tool.Version)
	}
	if !tool.Supported() {
		t.Error("unknown version must be assumed supported")
	}
}

func TestResolveToolUnparsableVersionOutput(t *testing.T) {
	path := fakeMake(t)
	runner := &fakeRunner{outcome: process.Outcome{ExitCode: 0, Stdout: "bmake (no version here)\n"}}

	tool, err := ResolveTool(context.Background(), runner, path, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tool.Version != nil {
		t.Errorf("expected nil version for unparsable output, got %v", tool.Version)
	}
}
