package location

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// folderModifiedOffset is added to every Modified timestamp the Folder
// backend reports. This is an inherited quirk (see SPEC_FULL.md Data Model
// invariants / §9 open question 1) rather than an intentional timezone
// correction: it biases tie-breaking in the reconciliation kernel in favor
// of folder locations over epoch-timestamped archive entries. Kept as-is to
// stay faithful to the documented reconciliation outcomes; a real-world
// fork would drop it or make it configurable.
const folderModifiedOffset = 2 * time.Hour

// Folder is a Location backed by a rooted local directory tree.
type Folder struct {
	Root   string
	logger *slog.Logger
}

// NewFolder returns a Folder location rooted at root. The logger may be nil,
// in which case slog.Default() is used.
func NewFolder(root string, logger *slog.Logger) *Folder {
	if logger == nil {
		logger = slog.Default()
	}

	return &Folder{Root: filepath.Clean(root), logger: logger}
}

func (f *Folder) Kind() Kind     { return KindFolder }
func (f *Folder) String() string { return "folder:" + f.Root }

// ListFilesRecursive walks the tree rooted at Root, reporting every entry
// that is not a directory. A file whose bytes cannot be hashed (permission denied, vanished
// mid-walk) is still reported, with Hash left empty.
func (f *Folder) ListFilesRecursive(ctx context.Context) ([]FileMetadata, error) {
	var results []FileMetadata

	walkErr := filepath.WalkDir(f.Root, func(p string, d fs.DirEntry, err error) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if err != nil {
			f.logger.Warn("folder: walk entry failed", "path", p, "error", err)
			return nil
		}

		if d.IsDir() {
			return nil
		}

		rel, relErr := filepath.Rel(f.Root, p)
		if relErr != nil {
			rel = p
		}

		info, statErr := d.Info()

		modified := time.Unix(0, 0).UTC()
		if statErr == nil {
			modified = info.ModTime().Add(folderModifiedOffset)
		}

		hash := ""
		if data, readErr := os.ReadFile(p); readErr == nil {
			hash = hashBytes(data)
		} else {
			f.logger.Warn("folder: hash read failed", "path", p, "error", readErr)
		}

		results = append(results, FileMetadata{
			Path:     normalizePath(rel),
			Modified: modified,
			Hash:     hash,
		})

		return nil
	})
	if walkErr != nil {
		return nil, &IOError{Op: "list_files_recursive", Path: f.Root, Err: walkErr}
	}

	return results, nil
}

// ListDirsRecursive reports every directory under Root, including Root
// itself (reported as "."). The caller is responsible for never mirroring
// "." onto peer locations.
func (f *Folder) ListDirsRecursive(ctx context.Context) ([]DirMetadata, error) {
	var results []DirMetadata

	walkErr := filepath.WalkDir(f.Root, func(p string, d fs.DirEntry, err error) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if err != nil {
			f.logger.Warn("folder: walk entry failed", "path", p, "error", err)
			return nil
		}

		if !d.IsDir() {
			return nil
		}

		rel, relErr := filepath.Rel(f.Root, p)
		if relErr != nil {
			rel = p
		}

		modified := time.Unix(0, 0).UTC()
		if info, statErr := d.Info(); statErr == nil {
			modified = info.ModTime().Add(folderModifiedOffset)
		}

		results = append(results, DirMetadata{Path: normalizePath(rel), Modified: modified})

		return nil
	})
	if walkErr != nil {
		return nil, &IOError{Op: "list_dirs_recursive", Path: f.Root, Err: walkErr}
	}

	return results, nil
}

func (f *Folder) ReadFile(_ context.Context, path string) ([]byte, error) {
	full := filepath.Join(f.Root, filepath.FromSlash(path))

	data, err := os.ReadFile(full)
	if err != nil {
		return nil, &IOError{Op: "read_file", Path: path, Err: err}
	}

	return data, nil
}

func (f *Folder) WriteFile(_ context.Context, path string, data []byte) error {
	full := filepath.Join(f.Root, filepath.FromSlash(path))

	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return &IOError{Op: "write_file", Path: path, Err: err}
	}

	if err := os.WriteFile(full, data, 0o644); err != nil {
		return &IOError{Op: "write_file", Path: path, Err: err}
	}

	return nil
}

func (f *Folder) DeleteFile(_ context.Context, path string) error {
	full := filepath.Join(f.Root, filepath.FromSlash(path))

	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return &IOError{Op: "delete_file", Path: path, Err: err}
	}

	return nil
}

func (f *Folder) CreateDir(_ context.Context, path string) error {
	full := filepath.Join(f.Root, filepath.FromSlash(path))

	if err := os.MkdirAll(full, 0o755); err != nil {
		return &IOError{Op: "create_dir", Path: path, Err: err}
	}

	return nil
}

func (f *Folder) RemoveDir(_ context.Context, path string) error {
	full := filepath.Join(f.Root, filepath.FromSlash(path))

	if err := os.RemoveAll(full); err != nil {
		return &IOError{Op: "remove_dir", Path: path, Err: err}
	}

	return nil
}

var _ fmt.Stringer = (*Folder)(nil)
