package syncengine

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonimelisma/filesync/internal/location"
)

func TestRun_InitialSyncThenCancel(t *testing.T) {
	t.Parallel()

	rootA := t.TempDir()
	rootB := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(rootA, "x.txt"), []byte("hello"), 0o644))

	folderA := location.NewFolder(rootA, nil)
	folderB := location.NewFolder(rootB, nil)

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)

	go func() {
		done <- Run(ctx, []location.Location{folderA, folderB}, testLogger(t))
	}()

	// Give the driver time to complete the initial sync before canceling.
	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after context cancellation")
	}

	data, err := os.ReadFile(filepath.Join(rootB, "x.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestFirstFolder(t *testing.T) {
	t.Parallel()

	folder := location.NewFolder("/tmp/example", nil)
	arch := location.NewArchive("/tmp/example.zip", nil)

	loc, root := firstFolder([]location.Location{arch, folder})
	require.NotNil(t, loc)
	assert.Same(t, folder, loc.(*location.Folder))
	assert.Equal(t, "/tmp/example", root)

	loc, root = firstFolder([]location.Location{arch})
	assert.Nil(t, loc)
	assert.Equal(t, "", root)
}
