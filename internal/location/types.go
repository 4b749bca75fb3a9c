package location

import (
	"context"
	"time"
)

// FileMetadata describes one observed file. Path is endpoint-relative,
// components separated by "/", never empty and never "." or "..". Hash is
// the hex-encoded SHA-256 of the file's current bytes, or "" when it could
// not be computed (e.g. an FTP read failed while listing).
type FileMetadata struct {
	Path     string
	Modified time.Time
	Hash     string
}

// DirMetadata describes one observed directory.
type DirMetadata struct {
	Path     string
	Modified time.Time
}

// Location is the uniform capability set every storage backend implements.
// A Location owns its own connection/handle lifetime; values are constructed
// once at startup and live for the process lifetime. Backends that cannot
// support a mutating capability (the Archive backend) implement it as a
// successful no-op rather than returning an error.
type Location interface {
	// Kind reports which concrete backend this value wraps.
	Kind() Kind

	// String returns a human-readable label for logging, e.g. "folder:/srv/a".
	String() string

	ListFilesRecursive(ctx context.Context) ([]FileMetadata, error)
	ListDirsRecursive(ctx context.Context) ([]DirMetadata, error)

	ReadFile(ctx context.Context, path string) ([]byte, error)
	WriteFile(ctx context.Context, path string, data []byte) error
	DeleteFile(ctx context.Context, path string) error

	CreateDir(ctx context.Context, path string) error
	RemoveDir(ctx context.Context, path string) error
}

// WatchEventKind classifies a local filesystem change event.
type WatchEventKind int

// Watch event kinds.
const (
	WatchCreate WatchEventKind = iota
	WatchModifyData
	WatchRemove
	WatchOther
)

// RemoveSubKind further classifies a WatchRemove event, mirroring fsnotify's
// (lack of) distinction between directory and file removal: on platforms
// where the notifier cannot tell, SubKind is RemoveAny or RemoveOther and the
// event router treats it as a file removal.
type RemoveSubKind int

// Remove sub-kinds.
const (
	RemoveFolder RemoveSubKind = iota
	RemoveFile
	RemoveAny
	RemoveOther
)

// WatchEvent is a single change notification for a path under a watched
// folder root.
type WatchEvent struct {
	Kind    WatchEventKind
	SubKind RemoveSubKind // meaningful only when Kind == WatchRemove
	Path    string        // root-relative or absolute; Router accepts either
}
