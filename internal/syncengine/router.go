package syncengine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tonimelisma/filesync/internal/location"
)

// Router translates watcher events from a single Folder location into
// Kernel calls. The folder root is used to strip incoming absolute paths
// down to the relative keys SyncState uses.
type Router struct {
	kernel     *Kernel
	folderRoot string
}

// NewRouter creates a Router over kernel, relativizing incoming event paths
// against folderRoot.
func NewRouter(kernel *Kernel, folderRoot string) *Router {
	return &Router{kernel: kernel, folderRoot: folderRoot}
}

// Route handles a single watch event, relativizing its path against the
// folder root uniformly for every event kind (§9 open question 2 — the
// basename-only inconsistency some implementations use for ModifyData is
// not reproduced here).
func (r *Router) Route(ctx context.Context, ev location.WatchEvent) error {
	rel := r.relativize(ev.Path)

	switch ev.Kind {
	case location.WatchCreate:
		return r.routeCreate(ctx, ev.Path, rel)

	case location.WatchModifyData:
		return r.kernel.SyncFile(ctx, rel)

	case location.WatchRemove:
		return r.routeRemove(ctx, rel, ev.SubKind)

	default:
		r.kernel.logger.Debug("router: ignoring event", "kind", ev.Kind, "path", rel)
		return nil
	}
}

func (r *Router) relativize(path string) string {
	abs := path
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(r.folderRoot, path)
	}

	rel, err := filepath.Rel(r.folderRoot, abs)
	if err != nil {
		return path
	}

	return filepath.ToSlash(rel)
}

func (r *Router) routeCreate(ctx context.Context, absOrRelPath, rel string) error {
	statPath := absOrRelPath
	if !filepath.IsAbs(statPath) {
		statPath = filepath.Join(r.folderRoot, absOrRelPath)
	}

	info, err := os.Stat(statPath)
	if err != nil {
		r.kernel.logger.Warn("router: stat failed on create event", "path", statPath, "error", err)
		return nil
	}

	if info.IsDir() {
		for _, loc := range r.kernel.Locations {
			if loc.Kind() == location.KindArchive {
				continue
			}

			if err := loc.CreateDir(ctx, rel); err != nil {
				return fmt.Errorf("syncengine: router create_dir %q on %s: %w", rel, loc, err)
			}
		}

		r.kernel.State.putDir(location.DirMetadata{Path: rel, Modified: info.ModTime()})

		return nil
	}

	return r.kernel.SyncFile(ctx, rel)
}

func (r *Router) routeRemove(ctx context.Context, rel string, subKind location.RemoveSubKind) error {
	if subKind == location.RemoveFolder {
		for _, loc := range r.kernel.Locations {
			if loc.Kind() == location.KindArchive {
				continue
			}

			if err := loc.RemoveDir(ctx, rel); err != nil {
				return fmt.Errorf("syncengine: router remove_dir %q on %s: %w", rel, loc, err)
			}
		}

		r.kernel.State.removeDir(rel)

		return nil
	}

	for _, loc := range r.kernel.Locations {
		if loc.Kind() == location.KindArchive {
			continue
		}

		if err := loc.DeleteFile(ctx, rel); err != nil {
			return fmt.Errorf("syncengine: router delete_file %q on %s: %w", rel, loc, err)
		}
	}

	r.kernel.State.removeFile(rel)

	return nil
}
