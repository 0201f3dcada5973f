package procexec

import (
	"bytes"
	"context"
	"log/slog"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/Pochyxi/e2ereport/internal/ctxlog"
)

func requireSh(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func logContext(buf *bytes.Buffer) context.Context {
	logger := slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return ctxlog.WithLogger(context.Background(), logger)
}

func TestRunStreamsOutput(t *testing.T) {
	requireSh(t)
	var buf bytes.Buffer
	res, err := Runner{}.Run(logContext(&buf), []string{"sh", "-c", "echo hello; echo oops 1>&2; printf tail"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.ExitCode != 0 {
		t.Errorf("exit code = %d, want 0", res.ExitCode)
	}
	out := buf.String()
	for _, want := range []string{
		`level=DEBUG msg="child process output" line=hello`,
		`level=ERROR msg="child process error output" line=oops`,
		`line=tail`,
		`msg="command completed"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("log missing %q:\n%s", want, out)
		}
	}
}

func TestRunNonZeroExit(t *testing.T) {
	requireSh(t)
	var buf bytes.Buffer
	res, err := Runner{}.Run(logContext(&buf), []string{"sh", "-c", "exit 3"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.ExitCode != 3 {
		t.Errorf("exit code = %d, want 3", res.ExitCode)
	}
}

func TestRunUsesDir(t *testing.T) {
	requireSh(t)
	dir := t.TempDir()
	var buf bytes.Buffer
	if _, err := (Runner{Dir: dir}).Run(logContext(&buf), []string{"sh", "-c", "pwd"}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), dir) {
		t.Errorf("pwd output does not mention %s:\n%s", dir, buf.String())
	}
}

func TestRunErrors(t *testing.T) {
	ctx := context.Background()
	if _, err := (Runner{}).Run(ctx, nil); err == nil {
		t.Error("expected error for empty argv")
	}
	if _, err := (Runner{}).Run(ctx, []string{"definitely-not-a-real-binary-e2e"}); err == nil {
		t.Error("expected error for missing binary")
	}
}

func TestRunCancelled(t *testing.T) {
	requireSh(t)
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	start := time.Now()
	res, err := Runner{}.Run(ctx, []string{"sh", "-c", "sleep 5"})
	if time.Since(start) > 3*time.Second {
		t.Fatal("command was not killed on cancellation")
	}
	if err == nil && res.ExitCode == 0 {
		t.Error("expected a killed command to report failure")
	}
}

func TestRunEach(t *testing.T) {
	requireSh(t)
	var buf bytes.Buffer
	results, err := Runner{}.RunEach(logContext(&buf), []string{"echo"}, []string{"a.zip", "b.zip"})
	if err != nil {
		t.Fatalf("RunEach: %v", err)
	}
	if len(results) != 2 || results[1].Command != "echo b.zip" {
		t.Errorf("results = %+v", results)
	}
}
