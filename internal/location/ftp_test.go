package location

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseUnixListLine_File(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.July, 31, 12, 0, 0, 0, time.UTC)

	entry, ok := parseUnixListLine("-rw-r--r-- 1 owner group 1234 Mar 15 10:30 report.txt", now)
	require.True(t, ok)

	assert.False(t, entry.isDir)
	assert.Equal(t, "report.txt", entry.name)
	assert.Equal(t, 2026, entry.modified.Year())
	assert.Equal(t, time.March, entry.modified.Month())
	assert.Equal(t, 15, entry.modified.Day())
	assert.Equal(t, 10, entry.modified.Hour())
	assert.Equal(t, 30, entry.modified.Minute())
}

func TestParseUnixListLine_Directory(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.July, 31, 12, 0, 0, 0, time.UTC)

	entry, ok := parseUnixListLine("drwxr-xr-x 2 owner group 4096 Jan 1 00:00 archive", now)
	require.True(t, ok)

	assert.True(t, entry.isDir)
	assert.Equal(t, "archive", entry.name)
}

func TestParseUnixListLine_NameWithSpaces(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.July, 31, 12, 0, 0, 0, time.UTC)

	entry, ok := parseUnixListLine("-rw-r--r-- 1 owner group 10 Jun 5 09:00 my file name.txt", now)
	require.True(t, ok)

	assert.Equal(t, "my file name.txt", entry.name)
}

func TestParseUnixListLine_TooFewFields(t *testing.T) {
	t.Parallel()

	_, ok := parseUnixListLine("drwx 2 owner", time.Now())
	assert.False(t, ok)
}

func TestParseFtpDate_AssumesCurrentUTCYear(t *testing.T) {
	t.Parallel()

	now := time.Date(2029, time.January, 1, 0, 0, 0, 0, time.UTC)

	result := parseFtpDate("Dec", "25", "08:00", now)

	assert.Equal(t, 2029, result.Year(), "FTP LIST dates assume the current UTC year, not the entry's actual year")
	assert.Equal(t, time.December, result.Month())
	assert.Equal(t, 25, result.Day())
}

func TestParseFtpDate_InvalidComponentsYieldEpoch(t *testing.T) {
	t.Parallel()

	now := time.Now()

	assert.Equal(t, time.Unix(0, 0).UTC(), parseFtpDate("Xyz", "15", "10:30", now))
	assert.Equal(t, time.Unix(0, 0).UTC(), parseFtpDate("Mar", "abc", "10:30", now))
	assert.Equal(t, time.Unix(0, 0).UTC(), parseFtpDate("Mar", "15", "garbage", now))
}

func TestParsePasvAddr(t *testing.T) {
	t.Parallel()

	addr, err := parsePasvAddr("227 Entering Passive Mode (127,0,0,1,200,13).")
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:51213", addr)
}

func TestParsePasvAddr_Malformed(t *testing.T) {
	t.Parallel()

	_, err := parsePasvAddr("227 no parens here")
	assert.Error(t, err)
}

func TestSplitDirFile(t *testing.T) {
	t.Parallel()

	dir, file := splitDirFile("a/b/c.txt")
	assert.Equal(t, "a/b", dir)
	assert.Equal(t, "c.txt", file)

	dir, file = splitDirFile("c.txt")
	assert.Equal(t, "", dir)
	assert.Equal(t, "c.txt", file)
}

func TestNonEmptyParts(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"a", "b", "c"}, nonEmptyParts("a/b/c"))
	assert.Equal(t, []string{"a"}, nonEmptyParts("/a/"))
	assert.Nil(t, nonEmptyParts(""))
}

func TestFTP_StringAndKind(t *testing.T) {
	t.Parallel()

	f := NewFTP("alice", "secret", "ftp.example.com", "remote", nil)
	assert.Equal(t, "ftp:alice@ftp.example.com/remote", f.String())
	assert.Equal(t, KindFTP, f.Kind())
}
