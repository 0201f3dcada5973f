package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Pochyxi/e2ereport/internal/ctxlog"
	"github.com/Pochyxi/e2ereport/internal/workspace"
)

// Name is a parsed report base name.
type Name struct {
	Title   string
	Project string
	Year    string
	Month   string
	Day     string
}

// ParseName splits {title}__{project}__{yyyy_mm_dd__...} into its parts.
func ParseName(filename string) (Name, error) {
	parts := strings.Split(filename, "__")
	if len(parts) < 3 {
		return Name{}, fmt.Errorf("report name %q: want title__project__date", filename)
	}
	date := strings.Split(parts[2], "_")
	if len(date) < 3 {
		return Name{}, fmt.Errorf("report name %q: date %q is not yyyy_mm_dd", filename, parts[2])
	}
	return Name{
		Title:   parts[0],
		Project: parts[1],
		Year:    date[0],
		Month:   date[1],
		Day:     date[2],
	}, nil
}

// Dir is the dated folder, relative to the reports root, a report lands in.
func (n Name) Dir() string {
	return filepath.Join(n.Project, n.Title+"__"+n.Project, n.Year, n.Month, n.Day)
}

// Save adds the verdict page, writes {filename}__{PASSED|FAILED}.pdf into
// the project folder, moves it into its dated folder and purges the
// screenshot cache. It returns the final path.
func (b *Builder) Save(ctx context.Context, filename string, cause error) (string, error) {
	logger := ctxlog.FromContext(ctx)
	if b.saved {
		return "", ErrSaved
	}
	name, err := ParseName(filename)
	if err != nil {
		return "", err
	}

	projectDir := filepath.Join(b.opts.ReportsDir, name.Project)
	for _, dir := range []string{projectDir, b.opts.ImageDir} {
		if err := os.MkdirAll(dir, workspace.DirPerm); err != nil {
			logger.Error("create report directory", "dir", dir, "error", err)
		}
	}

	b.AddFinalStatus(cause)
	b.saved = true

	file := filename + "__" + Verdict(cause) + ".pdf"
	tmpPath := filepath.Join(projectDir, file)
	if err := b.writeFile(tmpPath); err != nil {
		return "", err
	}

	targetDir := filepath.Join(b.opts.ReportsDir, name.Dir())
	if err := os.MkdirAll(targetDir, workspace.DirPerm); err != nil {
		return "", fmt.Errorf("create report directory: %w", err)
	}
	target := filepath.Join(targetDir, file)
	if err := workspace.MoveFile(tmpPath, target); err != nil {
		return "", fmt.Errorf("move report: %w", err)
	}
	logger.Info("report saved", "path", target, "verdict", Verdict(cause))

	n, err := workspace.PurgeFiles(b.opts.ImageDir)
	if err != nil {
		logger.Error("purge screenshot cache", "dir", b.opts.ImageDir, "error", err)
	} else {
		logger.Debug("screenshot cache purged", "dir", b.opts.ImageDir, "files", n)
	}
	return target, nil
}

func (b *Builder) writeFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	if err := b.c.Output(f); err != nil {
		f.Close()
		return fmt.Errorf("write report: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
