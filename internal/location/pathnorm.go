package location

import (
	"path"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// normalizePath converts a backend-native relative path into the
// slash-separated, NFC-normalized form SyncState keys on. Different backends
// (FTP servers, zip archives built on macOS vs Linux) may hand back the same
// logical name in different Unicode normal forms; without this the same file
// would be tracked as two distinct SyncState entries.
func normalizePath(p string) string {
	p = strings.ReplaceAll(p, `\`, "/")
	p = path.Clean(p)
	p = strings.TrimPrefix(p, "./")

	if p == "." {
		return "."
	}

	return norm.NFC.String(p)
}

// joinPath joins a parent and a child component into a normalized path,
// treating "." and "" as the root.
func joinPath(parent, child string) string {
	if parent == "" || parent == "." {
		return normalizePath(child)
	}

	return normalizePath(parent + "/" + child)
}
