// Package procexec runs auxiliary commands such as the trace viewer,
// streaming their output into the structured log.
package procexec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/Pochyxi/e2ereport/internal/ctxlog"
)

// Result captures how a command ended.
type Result struct {
	Command  string        `json:"command"`
	ExitCode int           `json:"exit_code"`
	Duration time.Duration `json:"duration"`
}

// Runner runs commands from a fixed working directory.
type Runner struct {
	Dir string // empty means the current directory
}

// Run executes argv and blocks until it exits or ctx is cancelled. Stdout
// lines are logged at debug level and stderr lines at error level. A
// non-zero exit is reported in Result, not as an error.
func (r Runner) Run(ctx context.Context, argv []string) (*Result, error) {
	if len(argv) == 0 || strings.TrimSpace(argv[0]) == "" {
		return nil, errors.New("empty command")
	}
	logger := ctxlog.FromContext(ctx)
	command := strings.Join(argv, " ")
	logger.Info("running command", "command", command)

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = r.Dir
	stdout := newLineLogger(logger, slog.LevelDebug, "child process output")
	stderr := newLineLogger(logger, slog.LevelError, "child process error output")
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	start := time.Now()
	err := cmd.Run()
	stdout.Flush()
	stderr.Flush()

	res := &Result{Command: command, Duration: time.Since(start)}
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return nil, fmt.Errorf("run %s: %w", argv[0], err)
		}
		res.ExitCode = exitErr.ExitCode()
	}
	logger.Info("command completed", "command", command, "exit_code", res.ExitCode)
	return res, nil
}

// RunEach runs base+[arg] once per argument, in order. Failures to start
// are collected and the remaining commands still run.
func (r Runner) RunEach(ctx context.Context, base []string, args []string) ([]*Result, error) {
	var (
		results []*Result
		errs    []error
	)
	for _, a := range args {
		argv := append(append([]string(nil), base...), a)
		res, err := r.Run(ctx, argv)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		results = append(results, res)
	}
	return results, errors.Join(errs...)
}

// lineLogger turns a byte stream into one log record per line.
type lineLogger struct {
	logger *slog.Logger
	level  slog.Level
	msg    string

	mu  sync.Mutex
	buf bytes.Buffer
}

func newLineLogger(logger *slog.Logger, level slog.Level, msg string) *lineLogger {
	return &lineLogger{logger: logger, level: level, msg: msg}
}

func (w *lineLogger) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.buf.Write(p)
	for {
		i := bytes.IndexByte(w.buf.Bytes(), '\n')
		if i < 0 {
			break
		}
		line := string(w.buf.Next(i + 1))
		w.emit(strings.TrimRight(line, "\r\n"))
	}
	return len(p), nil
}

// Flush logs any trailing partial line.
func (w *lineLogger) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.buf.Len() > 0 {
		w.emit(w.buf.String())
		w.buf.Reset()
	}
}

func (w *lineLogger) emit(line string) {
	if strings.TrimSpace(line) == "" {
		return
	}
	w.logger.Log(context.Background(), w.level, w.msg, "line", line)
}
