package process

import (
	"context"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"
)

// skipWithoutPOSIXShell skips tests that drive a real /bin/sh.
func skipWithoutPOSIXShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("test requires a POSIX shell")
	}
}

func TestRunCollectsOutput(t *testing.T) {
	skipWithoutPOSIXShell(t)
	r := NewRunner()

	outcome, err := r.Run(context.Background(), Spec{
		Command: "sh",
		Args:    []string{"-c", "printf 'line one\nline two\n'"},
	})
	if err != nil {
		t.Fatalf("failed to run: %v", err)
	}

	if outcome.ExitCode != 0 {
		t.Errorf("expected exit code 0, got %d", outcome.ExitCode)
	}
	if outcome.Stdout != "line one\nline two\n" {
		t.Errorf("expected collected stdout, got %q", outcome.Stdout)
	}
	if outcome.Signal != "" {
		t.Errorf("expected no signal, got %q", outcome.Signal)
	}
}

func TestRunSeparatesStdoutAndStderr(t *testing.T) {
	skipWithoutPOSIXShell(t)
	r := NewRunner()

	outcome, err := r.Run(context.Background(), Spec{
		Command: "sh",
		Args:    []string{"-c", "echo to-out; echo to-err 1>&2"},
	})
	if err != nil {
		t.Fatalf("failed to run: %v", err)
	}

	if !strings.Contains(outcome.Stdout, "to-out") || strings.Contains(outcome.Stdout, "to-err") {
		t.Errorf("unexpected stdout %q", outcome.Stdout)
	}
	if !strings.Contains(outcome.Stderr, "to-err") || strings.Contains(outcome.Stderr, "to-out") {
		t.Errorf("unexpected stderr %q", outcome.Stderr)
	}
}

func TestRunFragmentCallbacksFireBeforeReturn(t *testing.T) {
	skipWithoutPOSIXShell(t)
	r := NewRunner()

	var mu sync.Mutex
	var fragments []string

	outcome, err := r.Run(context.Background(), Spec{
		Command: "sh",
		Args:    []string{"-c", "printf 'hello world'"},
		OnStdout: func(fragment string) {
			mu.Lock()
			fragments = append(fragments, fragment)
			mu.Unlock()
		},
	})
	if err != nil {
		t.Fatalf("failed to run: %v", err)
	}

	mu.Lock()
	joined := strings.Join(fragments, "")
	mu.Unlock()
	if joined != "hello world" {
		t.Errorf("expected all fragments delivered before return, got %q", joined)
	}
	if outcome.Stdout != joined {
		t.Errorf("expected outcome stdout to match fragments, got %q vs %q", outcome.Stdout, joined)
	}
}

func TestRunExitCodes(t *testing.T) {
	skipWithoutPOSIXShell(t)

	tests := []struct {
		name     string
		script   string
		wantCode int
	}{
		{name: "success", script: "exit 0", wantCode: 0},
		{name: "failure", script: "exit 1", wantCode: 1},
		{name: "exit 42", script: "exit 42", wantCode: 42},
	}

	r := NewRunner()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome, err := r.Run(context.Background(), Spec{
				Command: "sh",
				Args:    []string{"-c", tt.script},
			})
			if err != nil {
				t.Fatalf("failed to run: %v", err)
			}
			if outcome.ExitCode != tt.wantCode {
				t.Errorf("expected exit code %d, got %d", tt.wantCode, outcome.ExitCode)
			}
		})
	}
}

func TestRunSpawnError(t *testing.T) {
	r := NewRunner()

	_, err := r.Run(context.Background(), Spec{Command: "definitely-not-a-real-command-xyz"})
	if err == nil {
		t.Fatal("expected a spawn error for a missing command")
	}
}

func TestRunBadWorkingDirectory(t *testing.T) {
	skipWithoutPOSIXShell(t)
	r := NewRunner()

	_, err := r.Run(context.Background(), Spec{
		Command: "sh",
		Args:    []string{"-c", "exit 0"},
		Dir:     "/definitely/not/a/real/directory",
	})
	if err == nil {
		t.Fatal("expected a spawn error for a bad working directory")
	}
}

func TestRunContextCancellationKillsProcess(t *testing.T) {
	skipWithoutPOSIXShell(t)
	r := NewRunner()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	outcome, err := r.Run(ctx, Spec{
		Command: "sh",
		Args:    []string{"-c", "sleep 10"},
	})
	if err != nil {
		t.Fatalf("failed to run: %v", err)
	}

	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Fatalf("cancellation did not kill the process, took %v", elapsed)
	}
	if outcome.Signal != "SIGKILL" {
		t.Errorf("expected SIGKILL, got %q", outcome.Signal)
	}
	if outcome.ExitCode != -1 {
		t.Errorf("expected exit code -1 for signaled process, got %d", outcome.ExitCode)
	}
}

func TestRunAppliesEnvOverlay(t *testing.T) {
	skipWithoutPOSIXShell(t)
	r := NewRunner()

	outcome, err := r.Run(context.Background(), Spec{
		Command: "sh",
		Args:    []string{"-c", `printf '%s' "$MAKEFILE_TOOLS_TEST_VAR"`},
		Env:     map[string]string{"MAKEFILE_TOOLS_TEST_VAR": "overlay-value"},
	})
	if err != nil {
		t.Fatalf("failed to run: %v", err)
	}

	if outcome.Stdout != "overlay-value" {
		t.Errorf("expected env overlay applied, got %q", outcome.Stdout)
	}
}

func TestBuildEnvironment(t *testing.T) {
	t.Setenv("MAKEFILE_TOOLS_BASE_VAR", "base")

	env := BuildEnvironment(map[string]string{
		"MAKEFILE_TOOLS_BASE_VAR":  "overridden",
		"MAKEFILE_TOOLS_EXTRA_VAR": "added",
	})

	var sawBase, sawExtra bool
	for _, kv := range env {
		switch kv {
		case "MAKEFILE_TOOLS_BASE_VAR=overridden":
			sawBase = true
		case "MAKEFILE_TOOLS_BASE_VAR=base":
			t.Error("expected overlay to override the inherited value")
		case "MAKEFILE_TOOLS_EXTRA_VAR=added":
			sawExtra = true
		}
	}
	if !sawBase || !sawExtra {
		t.Errorf("expected overlay vars present, base=%v extra=%v", sawBase, sawExtra)
	}
}

func TestFindExecutable(t *testing.T) {
	skipWithoutPOSIXShell(t)

	path, err := FindExecutable("sh")
	if err != nil {
		t.Fatalf("expected sh in PATH: %v", err)
	}
	if path == "" {
		t.Error("expected a resolved path")
	}

	if _, err := FindExecutable("definitely-not-a-real-command-xyz"); err == nil {
		t.Error("expected an error for a missing executable")
	}
}
