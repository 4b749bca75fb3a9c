package location

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Folder(t *testing.T) {
	t.Parallel()

	loc, err := Parse("folder:/data/sync", nil)
	require.NoError(t, err)

	folder, ok := loc.(*Folder)
	require.True(t, ok)
	assert.Equal(t, "/data/sync", folder.Root)
}

func TestParse_Archive(t *testing.T) {
	t.Parallel()

	loc, err := Parse("zip:/data/backup.zip", nil)
	require.NoError(t, err)

	archive, ok := loc.(*Archive)
	require.True(t, ok)
	assert.Equal(t, "/data/backup.zip", archive.Path)
}

func TestParse_FTP(t *testing.T) {
	t.Parallel()

	loc, err := Parse("ftp:alice:s3cret@ftp.example.com/remote/dir", nil)
	require.NoError(t, err)

	ftp, ok := loc.(*FTP)
	require.True(t, ok)
	assert.Equal(t, "alice", ftp.User)
	assert.Equal(t, "s3cret", ftp.Pass)
	assert.Equal(t, "ftp.example.com", ftp.Host)
	assert.Equal(t, "remote/dir", ftp.Root)
}

func TestParse_FTP_NoRemotePath(t *testing.T) {
	t.Parallel()

	loc, err := Parse("ftp:alice:s3cret@ftp.example.com", nil)
	require.NoError(t, err)

	ftp, ok := loc.(*FTP)
	require.True(t, ok)
	assert.Equal(t, "", ftp.Root)
}

func TestParse_Errors(t *testing.T) {
	t.Parallel()

	cases := []string{
		"",
		"bogus",
		"folder:",
		"zip:",
		"ftp:missing-at-sign",
		"ftp:nouser@host/path",
		"smb:share",
	}

	for _, descriptor := range cases {
		descriptor := descriptor

		t.Run(descriptor, func(t *testing.T) {
			t.Parallel()

			_, err := Parse(descriptor, nil)
			require.Error(t, err)

			var parseErr *ParseError
			assert.ErrorAs(t, err, &parseErr)
		})
	}
}
