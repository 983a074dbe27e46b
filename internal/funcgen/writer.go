package funcgen

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"
)

const (
	DirMode  fs.FileMode = 0o755
	FileMode fs.FileMode = 0o644
)

// PackageDirs maps import paths to directories.
type PackageDirs interface {
	PackageDir(pkgPath string) (string, bool)
}

// WrittenFile is an artifact persisted by a Writer.
type WrittenFile struct {
	Path     string
	Artifact Artifact
	// Changed is false when the file already had the same content.
	Changed bool
}

// Writer persists artifacts next to the packages they target.
type Writer struct {
	dirs    PackageDirs
	workers int
}

func NewWriter(dirs PackageDirs, workers int) *Writer {
	if workers <= 0 {
		workers = defaultRenderWorkers
	}

	return &Writer{
		dirs:    dirs,
		workers: workers,
	}
}

// Write persists artifacts. Artifacts of packages without a known directory
// are skipped with a warning.
func (w *Writer) Write(ctx context.Context, artifacts []Artifact) ([]WrittenFile, error) {
	files := make([]*WrittenFile, len(artifacts))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(w.workers)
	for i, artifact := range artifacts {
		dir, ok := w.dirs.PackageDir(artifact.Package)
		if !ok {
			slog.Warn("no directory for package, artifact skipped", "package", artifact.Package, "key", artifact.Key)
			continue
		}

		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}

			changed, err := InstallFile(dir, artifact.Filename(), artifact.Source)
			if err != nil {
				return fmt.Errorf("write %s: %w", artifact.Key, err)
			}

			files[i] = &WrittenFile{
				Path:     filepath.Join(dir, artifact.Filename()),
				Artifact: artifact,
				Changed:  changed,
			}
			if changed {
				slog.Info("generated", "file", files[i].Path)
			} else {
				slog.Debug("unchanged", "file", files[i].Path)
			}

			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	written := make([]WrittenFile, 0, len(files))
	for _, f := range files {
		if f != nil {
			written = append(written, *f)
		}
	}

	return written, nil
}

// InstallFile atomically writes content to targetDir/fileName. It reports
// false without touching the file when the content is already there.
func InstallFile(targetDir string, fileName string, content []byte) (changed bool, retErr error) {
	finalPath := filepath.Join(targetDir, fileName)

	current, err := os.ReadFile(finalPath)
	switch {
	case err == nil && bytes.Equal(current, content):
		return false, nil
	case err != nil && !errors.Is(err, fs.ErrNotExist):
		return false, fmt.Errorf("cannot read file: %s: %w", finalPath, err)
	}

	if err := os.MkdirAll(targetDir, DirMode); err != nil {
		return false, fmt.Errorf("cannot create directory: %s: %w", targetDir, err)
	}

	tmp, err := os.CreateTemp(targetDir, ".tmp-*")
	if err != nil {
		return false, fmt.Errorf("cannot create temp file: %w", err)
	}
	tmpName := tmp.Name()
	closed := false

	defer func() {
		if !closed {
			_ = tmp.Close()
		}
		if retErr != nil {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return false, fmt.Errorf("cannot write file: %w", err)
	}

	if err := tmp.Sync(); err != nil {
		return false, fmt.Errorf("cannot sync file: %w", err)
	}

	if err := tmp.Close(); err != nil {
		return false, fmt.Errorf("cannot close temp file: %w", err)
	}
	closed = true

	if err := os.Chmod(tmpName, FileMode); err != nil {
		return false, fmt.Errorf("cannot set file permissions: %w", err)
	}

	if err := os.Rename(tmpName, finalPath); err != nil {
		return false, fmt.Errorf("cannot install file %s: %w", finalPath, err)
	}

	return true, nil
}

// Prune removes the files generated by funcgen in dirs that are not among
// keep, and returns their paths. Only files named *.g.go that start with the
// generated header are considered.
func Prune(dirs []string, keep []WrittenFile) ([]string, error) {
	kept := make(map[string]struct{}, len(keep))
	for _, f := range keep {
		kept[filepath.Clean(f.Path)] = struct{}{}
	}

	var removed []string
	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return removed, fmt.Errorf("cannot read directory: %s: %w", dir, err)
		}

		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(entry.Name(), generatedFileSuffix) {
				continue
			}

			path := filepath.Join(dir, entry.Name())
			if _, ok := kept[filepath.Clean(path)]; ok {
				continue
			}

			generated, err := isGenerated(path)
			if err != nil {
				return removed, err
			}
			if !generated {
				continue
			}

			if err := os.Remove(path); err != nil {
				return removed, fmt.Errorf("cannot remove stale file: %s: %w", path, err)
			}
			slog.Info("removed stale", "file", path)
			removed = append(removed, path)
		}
	}

	return removed, nil
}

func isGenerated(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, fmt.Errorf("cannot open file: %s: %w", path, err)
	}
	defer f.Close()

	head := make([]byte, len(generatedHeader))
	if _, err := io.ReadFull(f, head); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return false, nil
		}
		return false, fmt.Errorf("cannot read file: %s: %w", path, err)
	}

	return string(head) == generatedHeader, nil
}
