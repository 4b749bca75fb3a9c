// Package syncengine implements the reconciliation kernel that keeps a set
// of heterogeneous locations (folders, FTP directories, archives) converged
// on the same set of files and directories.
package syncengine

import "github.com/tonimelisma/filesync/internal/location"

// State is the kernel's memory of what it has already reconciled. Single-
// writer, no sharing; no locks required. A future multi-threaded variant
// would wrap the maps in a sync.RWMutex — not now.
type State struct {
	Files map[string]location.FileMetadata
	Dirs  map[string]location.DirMetadata
}

// NewState returns an empty State.
func NewState() *State {
	return &State{
		Files: make(map[string]location.FileMetadata),
		Dirs:  make(map[string]location.DirMetadata),
	}
}

func (s *State) putFile(fm location.FileMetadata) {
	s.Files[fm.Path] = fm
}

func (s *State) removeFile(path string) {
	delete(s.Files, path)
}

func (s *State) putDir(dm location.DirMetadata) {
	s.Dirs[dm.Path] = dm
}

func (s *State) removeDir(path string) {
	delete(s.Dirs, path)
}
