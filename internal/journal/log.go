// Package journal keeps an append-only, hash-chained record of step events
// so a run's evidence can be checked for tampering after the fact.
package journal

import (
	"bufio"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Pochyxi/e2ereport/internal/ctxlog"
	"github.com/Pochyxi/e2ereport/internal/engine"
)

// GenesisHash is the prev_hash of the first entry in a new journal.
const GenesisHash = "sha256:0000000000000000000000000000000000000000000000000000000000000000"

// Log is an append-only JSONL journal with SHA-256 hash chaining. Each
// entry's prev_hash is the hash of the previous entry's JSON line.
type Log struct {
	path     string
	file     *os.File
	prevHash string
	mu       sync.Mutex
}

var _ engine.Observer = (*Log)(nil)

// Open opens (or creates) a journal for appending. An existing file's last
// line becomes the chain tail.
func Open(path string) (*Log, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("journal: create directory: %w", err)
	}

	prevHash := GenesisHash
	if info, err := os.Stat(path); err == nil && info.Size() > 0 {
		last, err := lastLine(path)
		if err != nil {
			return nil, err
		}
		if len(last) > 0 {
			prevHash = HashLine(last)
		}
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("journal: open file: %w", err)
	}
	return &Log{path: path, file: file, prevHash: prevHash}, nil
}

func lastLine(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("journal: read existing log: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	var last []byte
	for scanner.Scan() {
		last = append(last[:0], scanner.Bytes()...)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("journal: scan existing log: %w", err)
	}
	return last, nil
}

// Record appends entry, chaining it to the previous line and syncing.
func (l *Log) Record(entry Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if entry.Timestamp == "" {
		entry.Timestamp = time.Now().UTC().Format(TimestampFormat)
	}
	entry.PrevHash = l.prevHash

	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("journal: marshal entry: %w", err)
	}
	if _, err := l.file.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("journal: write entry: %w", err)
	}
	if err := l.file.Sync(); err != nil {
		return fmt.Errorf("journal: sync: %w", err)
	}

	l.prevHash = HashLine(line)
	return nil
}

// Observe records an engine event. Write failures are logged; they never
// interrupt a run.
func (l *Log) Observe(ctx context.Context, ev engine.Event) {
	err := l.Record(Entry{
		Timestamp: ev.Time.UTC().Format(TimestampFormat),
		RunID:     ev.RunID,
		Project:   ev.Project,
		Scenario:  ev.Scenario,
		Event:     string(ev.Type),
		Step:      ev.Step,
		Index:     ev.Index,
		Error:     ev.Error,
		Path:      ev.Path,
	})
	if err != nil {
		ctxlog.FromContext(ctx).Error("journal event", "event", ev.Type, "error", err)
	}
}

// Path is the journal file.
func (l *Log) Path() string { return l.path }

// Close closes the underlying file.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}

// HashLine returns "sha256:<hex>" of line.
func HashLine(line []byte) string {
	h := sha256.Sum256(line)
	return "sha256:" + hex.EncodeToString(h[:])
}
