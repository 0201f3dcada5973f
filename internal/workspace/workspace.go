// Package workspace owns the on-disk layout the runner reads from and writes to.
package workspace

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"syscall"
)

// DirPerm is the permission for runner-managed directories.
const DirPerm = 0o750

// imageDir is the screenshot cache under the reports root.
const imageDir = "img"

// Dirs holds the runner directory layout.
type Dirs struct {
	Suites   string // scenario files, one per project
	Fixtures string // storage fixtures
	Reports  string // generated PDF reports
	Traces   string // driver trace output, one folder per test
	Archive  string // date-partitioned trace archive
	Logs     string // combined.log and error.log
}

// ImageDir returns the transient screenshot cache.
func (d Dirs) ImageDir() string {
	return filepath.Join(d.Reports, imageDir)
}

// ProjectReportDir returns the report directory of one project.
func (d Dirs) ProjectReportDir(project string) string {
	return filepath.Join(d.Reports, project)
}

// FixturePath returns the storage fixture file named name.
func (d Dirs) FixturePath(name string) string {
	return filepath.Join(d.Fixtures, name+".json")
}

// SuitePath returns the scenario file of project.
func (d Dirs) SuitePath(project string) string {
	return filepath.Join(d.Suites, project+".json")
}

// EnsureDirs creates all output directories. Idempotent.
func EnsureDirs(d Dirs) error {
	dirs := []string{
		d.Reports,
		d.ImageDir(),
		d.Traces,
		d.Archive,
		d.Logs,
	}
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, DirPerm); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// MoveFile moves src to dst using os.Rename. If rename fails with EXDEV
// (cross-device link, e.g. reports on a mounted volume) it falls back to
// copy + remove.
func MoveFile(src, dst string) error {
	err := os.Rename(src, dst)
	if err == nil {
		return nil
	}
	var errno syscall.Errno
	if !errors.As(err, &errno) || errno != syscall.EXDEV {
		return err
	}
	if err := CopyFile(src, dst); err != nil {
		return err
	}
	return os.Remove(src)
}

// CopyFile copies src to dst preserving permissions. A partial dst is removed
// on failure.
func CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode())
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		_ = os.Remove(dst)
		return err
	}
	return out.Close()
}

// PurgeFiles removes every regular file directly inside dir. Subdirectories
// are left alone. It returns the number of files removed and the first
// error encountered; removal continues past failures.
func PurgeFiles(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}
	var (
		removed  int
		firstErr error
	)
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		if err := os.Remove(filepath.Join(dir, e.Name())); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		removed++
	}
	return removed, firstErr
}

// ClearDir removes everything inside dir, keeping dir itself. A missing dir
// is not an error.
func ClearDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	var errs []error
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(dir, e.Name())); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
