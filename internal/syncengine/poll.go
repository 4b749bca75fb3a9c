package syncengine

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/tonimelisma/filesync/internal/location"
)

// PollLocations walks every location in order, detecting directory and
// file deletions/creations/changes and propagating them to the rest of the
// set. Each pass is tagged with a cycle ID for log correlation.
func (k *Kernel) PollLocations(ctx context.Context) error {
	cycleID := uuid.New().String()

	k.logger.Info("poll cycle starting", "cycle_id", cycleID, "locations", len(k.Locations))

	var dirsCreated, dirsRemoved, filesCreated, filesRemoved, filesChanged int

	for _, loc := range k.Locations {
		dirs, err := loc.ListDirsRecursive(ctx)
		if err != nil {
			return fmt.Errorf("syncengine: poll listing dirs on %s: %w", loc, err)
		}

		files, err := loc.ListFilesRecursive(ctx)
		if err != nil {
			return fmt.Errorf("syncengine: poll listing files on %s: %w", loc, err)
		}

		nCreated, nRemoved, err := k.pollDirs(ctx, loc, dirs)
		if err != nil {
			return err
		}

		dirsCreated += nCreated
		dirsRemoved += nRemoved

		nRemoved, err = k.pollFileDeletions(ctx, loc, files)
		if err != nil {
			return err
		}

		filesRemoved += nRemoved

		nCreated, nChanged, err := k.pollFileChanges(ctx, files)
		if err != nil {
			return err
		}

		filesCreated += nCreated
		filesChanged += nChanged
	}

	k.logger.Info("poll cycle complete",
		"cycle_id", cycleID,
		"dirs_created", dirsCreated,
		"dirs_removed", dirsRemoved,
		"files_created", filesCreated,
		"files_removed", filesRemoved,
		"files_changed", filesChanged,
	)

	return nil
}

// pollDirs handles directory deletions then creations observed at loc.
// Archive locations never drive directory deletions (absent entries there
// do not mean "deleted").
func (k *Kernel) pollDirs(ctx context.Context, loc location.Location, current []location.DirMetadata) (created, removed int, err error) {
	currentPaths := map[string]location.DirMetadata{}
	for _, d := range current {
		currentPaths[d.Path] = d
	}

	if loc.Kind() != location.KindArchive {
		for path := range k.State.Dirs {
			if path == "" || path == "." {
				continue
			}

			if _, ok := currentPaths[path]; ok {
				continue
			}

			k.State.removeDir(path)

			for _, peer := range k.Locations {
				if peer.Kind() == location.KindArchive {
					continue
				}

				if err := peer.RemoveDir(ctx, path); err != nil {
					k.logger.Warn("poll: remove_dir failed", "path", path, "location", peer.String(), "error", err)
				}
			}

			removed++
		}
	}

	for path, dm := range currentPaths {
		if path == "" || path == "." {
			continue
		}

		if _, ok := k.State.Dirs[path]; ok {
			continue
		}

		for _, peer := range k.Locations {
			if peer == loc || peer.Kind() == location.KindArchive {
				continue
			}

			if err := peer.CreateDir(ctx, path); err != nil {
				return created, removed, fmt.Errorf("syncengine: poll creating dir %q on %s: %w", path, peer, err)
			}
		}

		k.State.putDir(dm)

		created++
	}

	return created, removed, nil
}

// pollFileDeletions handles file deletions observed at loc. Archive
// locations never drive file deletions.
func (k *Kernel) pollFileDeletions(ctx context.Context, loc location.Location, current []location.FileMetadata) (removed int, err error) {
	if loc.Kind() == location.KindArchive {
		return 0, nil
	}

	currentPaths := map[string]struct{}{}
	for _, f := range current {
		currentPaths[f.Path] = struct{}{}
	}

	for path := range k.State.Files {
		if _, ok := currentPaths[path]; ok {
			continue
		}

		k.State.removeFile(path)

		for _, peer := range k.Locations {
			if peer.Kind() == location.KindArchive {
				continue
			}

			if err := peer.DeleteFile(ctx, path); err != nil {
				k.logger.Warn("poll: delete_file failed", "path", path, "location", peer.String(), "error", err)
			}
		}

		removed++
	}

	return removed, nil
}

// pollFileChanges invokes SyncFile for any file at the current location
// that is unknown to SyncState or whose hash no longer matches.
func (k *Kernel) pollFileChanges(ctx context.Context, current []location.FileMetadata) (created, changed int, err error) {
	for _, f := range current {
		known, ok := k.State.Files[f.Path]

		switch {
		case !ok:
			created++
		case known.Hash != f.Hash:
			changed++
		default:
			continue
		}

		if err := k.SyncFile(ctx, f.Path); err != nil {
			return created, changed, fmt.Errorf("syncengine: poll sync_file %q: %w", f.Path, err)
		}
	}

	return created, changed, nil
}
