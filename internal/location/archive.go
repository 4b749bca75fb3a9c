package location

import (
	"archive/zip"
	"context"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"
)

// Archive is a read-only Location backed by a zip-format file. All mutating
// capabilities are implemented as successful no-ops — archives are sources,
// never sinks (SPEC_FULL.md §4.1).
type Archive struct {
	Path   string
	logger *slog.Logger
}

// NewArchive returns an Archive location for the zip file at path. logger
// may be nil.
func NewArchive(archivePath string, logger *slog.Logger) *Archive {
	if logger == nil {
		logger = slog.Default()
	}

	return &Archive{Path: archivePath, logger: logger}
}

func (a *Archive) Kind() Kind     { return KindArchive }
func (a *Archive) String() string { return "zip:" + a.Path }

func (a *Archive) open() (*zip.ReadCloser, error) {
	r, err := zip.OpenReader(a.Path)
	if err != nil {
		return nil, &ParseError{Input: a.Path, Msg: err.Error()}
	}

	return r, nil
}

// ListFilesRecursive enumerates every non-directory member, reading its
// full bytes to compute a SHA-256 hash; a member whose bytes cannot be read
// is still reported, with Hash left empty. Modified is always the epoch: zip
// member timestamps are not comparable wall-clock-wise against folder/FTP
// timestamps, so they are never trusted for tie-breaking (SPEC_FULL.md §4.1).
func (a *Archive) ListFilesRecursive(ctx context.Context) ([]FileMetadata, error) {
	r, err := a.open()
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var results []FileMetadata

	for _, zf := range r.File {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		if zf.FileInfo().IsDir() || strings.HasSuffix(zf.Name, "/") {
			continue
		}

		hash := ""
		if data, readErr := readZipFile(zf); readErr == nil {
			hash = hashBytes(data)
		} else {
			a.logger.Warn("archive: read member failed", "path", zf.Name, "error", readErr)
		}

		results = append(results, FileMetadata{
			Path:     normalizePath(zf.Name),
			Modified: time.Unix(0, 0).UTC(),
			Hash:     hash,
		})
	}

	return results, nil
}

// ListDirsRecursive reports explicit directory members plus every distinct
// ancestor path inferred from file paths.
func (a *Archive) ListDirsRecursive(ctx context.Context) ([]DirMetadata, error) {
	r, err := a.open()
	if err != nil {
		return nil, err
	}
	defer r.Close()

	seen := map[string]struct{}{}

	for _, zf := range r.File {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		if zf.FileInfo().IsDir() || strings.HasSuffix(zf.Name, "/") {
			d := normalizePath(strings.TrimSuffix(zf.Name, "/"))
			if d != "" && d != "." {
				seen[d] = struct{}{}
			}
		}

		for _, d := range ancestorDirs(zf.Name) {
			seen[d] = struct{}{}
		}
	}

	results := make([]DirMetadata, 0, len(seen))
	for d := range seen {
		results = append(results, DirMetadata{Path: d, Modified: time.Unix(0, 0).UTC()})
	}

	return results, nil
}

// ancestorDirs returns every proper ancestor directory of p (excluding "."
// and the empty path), normalized.
func ancestorDirs(p string) []string {
	var dirs []string

	dir := path.Dir(strings.TrimSuffix(p, "/"))
	for dir != "." && dir != "/" && dir != "" {
		dirs = append(dirs, normalizePath(dir))
		dir = path.Dir(dir)
	}

	return dirs
}

func readZipFile(zf *zip.File) ([]byte, error) {
	rc, err := zf.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	return io.ReadAll(rc)
}

func (a *Archive) ReadFile(_ context.Context, path string) ([]byte, error) {
	r, err := a.open()
	if err != nil {
		return nil, err
	}
	defer r.Close()

	target := normalizePath(path)

	for _, zf := range r.File {
		if normalizePath(zf.Name) != target || zf.FileInfo().IsDir() {
			continue
		}

		return readZipFile(zf)
	}

	return nil, &IOError{Op: "read_file", Path: path, Err: io.EOF}
}

// WriteFile is a no-op: archives are read-only.
func (a *Archive) WriteFile(_ context.Context, path string, _ []byte) error {
	a.logger.Debug("archive: ignoring write to read-only location", "path", path)
	return nil
}

// DeleteFile is a no-op: archives are read-only.
func (a *Archive) DeleteFile(_ context.Context, path string) error {
	a.logger.Debug("archive: ignoring delete on read-only location", "path", path)
	return nil
}

// CreateDir is a no-op: archives are read-only.
func (a *Archive) CreateDir(_ context.Context, path string) error {
	a.logger.Debug("archive: ignoring create_dir on read-only location", "path", path)
	return nil
}

// RemoveDir is a no-op: archives are read-only.
func (a *Archive) RemoveDir(_ context.Context, path string) error {
	a.logger.Debug("archive: ignoring remove_dir on read-only location", "path", path)
	return nil
}
