// Package archive copies driver trace folders into a date-partitioned
// archive once a run has finished.
package archive

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/ncruces/go-strftime"

	"github.com/Pochyxi/e2ereport/internal/ctxlog"
	"github.com/Pochyxi/e2ereport/internal/workspace"
)

// Extensions lists the artifact types that are archived.
var Extensions = []string{".zip", ".png", ".webm"}

// Options configure an archive pass.
type Options struct {
	Source string           // driver trace results, one folder per test
	Dest   string           // archive root
	Now    func() time.Time // defaults to time.Now
}

// Summary reports what an archive pass did.
type Summary struct {
	Folders int      `json:"folders"`
	Files   int      `json:"files"`
	Bytes   int64    `json:"bytes"`
	Failed  int      `json:"failed"`
	Dests   []string `json:"dests"`
}

func (s Summary) String() string {
	msg := fmt.Sprintf("archived %d file(s), %s, from %d trace folder(s)",
		s.Files, humanize.Bytes(uint64(s.Bytes)), s.Folders)
	if s.Failed > 0 {
		msg += fmt.Sprintf("; %d copy failure(s)", s.Failed)
	}
	return msg
}

// LeafDir returns {dest}/{folder}/{yyyy}/{mm}/{dd}/{folder}___{yyyy-mm-dd}___{HH-MM-SS}.
func LeafDir(dest, folder string, t time.Time) string {
	leaf := folder + "___" + strftime.Format("%Y-%m-%d", t) + "___" + strftime.Format("%H-%M-%S", t)
	return filepath.Join(dest, folder,
		strftime.Format("%Y", t), strftime.Format("%m", t), strftime.Format("%d", t),
		leaf)
}

func archivable(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Run copies every archivable file of every subfolder of opts.Source.
// Files are copied, never moved. A failed copy is logged and counted and
// the batch continues. A missing source folder archives nothing.
func Run(ctx context.Context, opts Options) (Summary, error) {
	logger := ctxlog.FromContext(ctx)
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	var sum Summary
	entries, err := os.ReadDir(opts.Source)
	if errors.Is(err, os.ErrNotExist) {
		logger.Warn("trace results folder not found, nothing to archive", "dir", opts.Source)
		return sum, nil
	}
	if err != nil {
		return sum, fmt.Errorf("read trace results: %w", err)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		folder := entry.Name()
		dest := LeafDir(opts.Dest, folder, now())
		if err := os.MkdirAll(dest, workspace.DirPerm); err != nil {
			logger.Error("create archive directory", "dir", dest, "error", err)
			sum.Failed++
			continue
		}
		sum.Folders++
		sum.Dests = append(sum.Dests, dest)

		files, err := os.ReadDir(filepath.Join(opts.Source, folder))
		if err != nil {
			logger.Error("read trace folder", "folder", folder, "error", err)
			sum.Failed++
			continue
		}
		for _, f := range files {
			if !f.Type().IsRegular() || !archivable(f.Name()) {
				continue
			}
			src := filepath.Join(opts.Source, folder, f.Name())
			dst := filepath.Join(dest, f.Name())
			if err := workspace.CopyFile(src, dst); err != nil {
				logger.Error("copy trace file", "src", src, "error", err)
				sum.Failed++
				continue
			}
			if info, err := f.Info(); err == nil {
				sum.Bytes += info.Size()
			}
			sum.Files++
			logger.Info("trace copied", "path", dst)
		}
	}
	return sum, nil
}
