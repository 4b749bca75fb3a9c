package location

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFolder_ListFilesRecursive(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("hello"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "sub", "b.txt"), []byte("world"), 0o644))

	f := NewFolder(root, nil)

	files, err := f.ListFilesRecursive(context.Background())
	require.NoError(t, err)
	require.Len(t, files, 2)

	byPath := map[string]FileMetadata{}
	for _, fm := range files {
		byPath[fm.Path] = fm
	}

	a, ok := byPath["a.txt"]
	require.True(t, ok)
	assert.Equal(t, hashBytes([]byte("hello")), a.Hash)

	b, ok := byPath["sub/b.txt"]
	require.True(t, ok)
	assert.Equal(t, hashBytes([]byte("world")), b.Hash)
}

func TestFolder_ListDirsRecursive(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "a", "b"), 0o755))

	f := NewFolder(root, nil)

	dirs, err := f.ListDirsRecursive(context.Background())
	require.NoError(t, err)

	paths := make([]string, 0, len(dirs))
	for _, d := range dirs {
		paths = append(paths, d.Path)
	}

	assert.Contains(t, paths, ".")
	assert.Contains(t, paths, "a")
	assert.Contains(t, paths, "a/b")
}

func TestFolder_WriteReadDeleteFile(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	f := NewFolder(root, nil)
	ctx := context.Background()

	require.NoError(t, f.WriteFile(ctx, "nested/file.txt", []byte("content")))

	data, err := f.ReadFile(ctx, "nested/file.txt")
	require.NoError(t, err)
	assert.Equal(t, "content", string(data))

	require.NoError(t, f.DeleteFile(ctx, "nested/file.txt"))

	_, err = f.ReadFile(ctx, "nested/file.txt")
	require.Error(t, err)

	var ioErr *IOError
	assert.ErrorAs(t, err, &ioErr)
}

func TestFolder_DeleteFile_MissingIsNotError(t *testing.T) {
	t.Parallel()

	f := NewFolder(t.TempDir(), nil)

	err := f.DeleteFile(context.Background(), "never-existed.txt")
	assert.NoError(t, err)
}

func TestFolder_CreateAndRemoveDir(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	f := NewFolder(root, nil)
	ctx := context.Background()

	require.NoError(t, f.CreateDir(ctx, "one/two"))

	info, err := os.Stat(filepath.Join(root, "one", "two"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	require.NoError(t, f.RemoveDir(ctx, "one"))

	_, err = os.Stat(filepath.Join(root, "one"))
	assert.True(t, os.IsNotExist(err))
}

func TestFolder_String(t *testing.T) {
	t.Parallel()

	f := NewFolder("/tmp/example", nil)
	assert.Equal(t, "folder:/tmp/example", f.String())
	assert.Equal(t, KindFolder, f.Kind())
}
