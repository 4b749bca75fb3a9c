package syncengine

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/tonimelisma/filesync/internal/location"
)

// testLogger returns a debug-level logger that writes to t.Log.
func testLogger(t *testing.T) *slog.Logger {
	t.Helper()

	return slog.New(slog.NewTextHandler(&testWriter{t: t}, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

type testWriter struct {
	t *testing.T
}

func (w *testWriter) Write(p []byte) (int, error) {
	w.t.Helper()
	w.t.Log(string(p))

	return len(p), nil
}

// memLocation is an in-memory Location used to exercise the kernel, poll
// pass, and router without touching the filesystem or network. It also
// counts mutating calls so tests can assert a pass was a true no-op rather
// than just checking the final content.
type memLocation struct {
	name  string
	kind  location.Kind
	files map[string]memFile
	dirs  map[string]time.Time

	writeCalls     int
	deleteCalls    int
	createDirCalls int
	removeDirCalls int
}

type memFile struct {
	data     []byte
	modified time.Time
	hash     string
}

func newMemLocation(name string, kind location.Kind) *memLocation {
	return &memLocation{
		name:  name,
		kind:  kind,
		files: map[string]memFile{},
		dirs:  map[string]time.Time{},
	}
}

func (m *memLocation) Kind() location.Kind { return m.kind }
func (m *memLocation) String() string      { return m.name }

func (m *memLocation) put(path, content string, modified time.Time) {
	m.files[path] = memFile{data: []byte(content), modified: modified, hash: hashContent(content)}
}

func hashContent(s string) string {
	// A cheap stand-in for SHA-256 good enough to distinguish test fixtures.
	sum := 0
	for _, b := range []byte(s) {
		sum = sum*31 + int(b)
	}

	return fmt.Sprintf("%x", sum)
}

func (m *memLocation) ListFilesRecursive(_ context.Context) ([]location.FileMetadata, error) {
	var out []location.FileMetadata

	for path, f := range m.files {
		out = append(out, location.FileMetadata{Path: path, Modified: f.modified, Hash: f.hash})
	}

	return out, nil
}

func (m *memLocation) ListDirsRecursive(_ context.Context) ([]location.DirMetadata, error) {
	var out []location.DirMetadata

	for path, mod := range m.dirs {
		out = append(out, location.DirMetadata{Path: path, Modified: mod})
	}

	return out, nil
}

func (m *memLocation) ReadFile(_ context.Context, path string) ([]byte, error) {
	f, ok := m.files[path]
	if !ok {
		return nil, &location.IOError{Op: "read_file", Path: path}
	}

	return f.data, nil
}

func (m *memLocation) WriteFile(_ context.Context, path string, data []byte) error {
	if m.kind == location.KindArchive {
		return nil
	}

	m.writeCalls++
	m.files[path] = memFile{data: data, modified: time.Now(), hash: hashContent(string(data))}

	return nil
}

func (m *memLocation) DeleteFile(_ context.Context, path string) error {
	if m.kind == location.KindArchive {
		return nil
	}

	m.deleteCalls++
	delete(m.files, path)

	return nil
}

func (m *memLocation) CreateDir(_ context.Context, path string) error {
	if m.kind == location.KindArchive {
		return nil
	}

	m.createDirCalls++
	m.dirs[path] = time.Now()

	return nil
}

func (m *memLocation) RemoveDir(_ context.Context, path string) error {
	if m.kind == location.KindArchive {
		return nil
	}

	m.removeDirCalls++
	delete(m.dirs, path)

	return nil
}
