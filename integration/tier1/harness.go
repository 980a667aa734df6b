//go:build integration

package tier1

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

const defaultTimeout = 5 * time.Minute

// Harness builds the mojiman binary and runs it against a scratch workspace
type Harness struct {
	t       *testing.T
	binary  string
	workDir string
}

// NewHarness creates a new test harness rooted in a fresh temp directory
func NewHarness(t *testing.T) *Harness {
	t.Helper()
	return &Harness{
		t:       t,
		workDir: t.TempDir(),
	}
}

// BuildBinary compiles cmd/mojiman into the harness directory
func (h *Harness) BuildBinary(ctx context.Context) error {
	h.t.Helper()

	projectRoot, err := findProjectRoot()
	if err != nil {
		return fmt.Errorf("get project root: %w", err)
	}

	h.binary = filepath.Join(h.t.TempDir(), "mojiman")
	if runtime.GOOS == "windows" {
		h.binary += ".exe"
	}
	h.t.Logf("Building %s", h.binary)

	cmd := exec.CommandContext(ctx, "go", "build", "-o", h.binary, "./cmd/mojiman")
	cmd.Dir = projectRoot
	cmd.Stdout = &testWriter{t: h.t, prefix: "[build] "}
	cmd.Stderr = &testWriter{t: h.t, prefix: "[build] "}

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("go build: %w", err)
	}
	return nil
}

// Path returns the absolute path of rel inside the workspace
func (h *Harness) Path(rel string) string {
	return filepath.Join(h.workDir, filepath.FromSlash(rel))
}

// Run executes the binary inside the workspace
func (h *Harness) Run(ctx context.Context, args ...string) (string, string, int, error) {
	h.t.Helper()
	if h.binary == "" {
		return "", "", 0, fmt.Errorf("binary not built")
	}

	cmd := exec.CommandContext(ctx, h.binary, args...)
	cmd.Dir = h.workDir
	// An isolated HOME keeps a developer's config file out of the run.
	cmd.Env = append(os.Environ(), "HOME="+h.workDir)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	exitCode := 0
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			return "", "", 0, fmt.Errorf("exec failed: %w", err)
		}
	}

	return stdout.String(), stderr.String(), exitCode, nil
}

// MustRun executes the binary and fails the test if it returns non-zero
func (h *Harness) MustRun(ctx context.Context, args ...string) (string, string) {
	h.t.Helper()
	stdout, stderr, exitCode, err := h.Run(ctx, args...)
	if err != nil {
		h.t.Fatalf("exec failed: %v", err)
	}
	if exitCode != 0 {
		h.t.Fatalf("command failed with exit code %d\nstdout: %s\nstderr: %s\nargs: %v",
			exitCode, stdout, stderr, args)
	}
	return stdout, stderr
}

// ReadFile reads a file from the workspace
func (h *Harness) ReadFile(rel string) (string, error) {
	h.t.Helper()
	data, err := os.ReadFile(h.Path(rel))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// FileExists checks if a file exists in the workspace
func (h *Harness) FileExists(rel string) bool {
	h.t.Helper()
	_, err := os.Stat(h.Path(rel))
	return err == nil
}

// ModTime returns the modification time of a workspace file
func (h *Harness) ModTime(rel string) time.Time {
	h.t.Helper()
	info, err := os.Stat(h.Path(rel))
	if err != nil {
		h.t.Fatalf("stat %s: %v", rel, err)
	}
	return info.ModTime()
}

// testWriter wraps test logging for command output
type testWriter struct {
	t      *testing.T
	prefix string
}

func (w *testWriter) Write(p []byte) (n int, err error) {
	lines := strings.Split(string(p), "\n")
	for _, line := range lines {
		if line != "" {
			w.t.Log(w.prefix + line)
		}
	}
	return len(p), nil
}

var _ io.Writer = (*testWriter)(nil)

// findProjectRoot walks up the directory tree from the current file to find go.mod
func findProjectRoot() (string, error) {
	// Get the directory of this source file
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		return "", fmt.Errorf("failed to get caller information")
	}

	dir := filepath.Dir(filename)

	// Walk up the directory tree looking for go.mod
	for {
		goModPath := filepath.Join(dir, "go.mod")
		if _, err := os.Stat(goModPath); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached the root without finding go.mod
			return "", fmt.Errorf("go.mod not found in any parent directory")
		}
		dir = parent
	}
}
