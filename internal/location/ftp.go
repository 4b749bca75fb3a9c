package location

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

// FTP is a Location backed by a remote FTP directory. Every operation opens
// a fresh control connection, authenticates, and CWDs into Root; no session
// is pooled or shared across calls (SPEC_FULL.md §5).
type FTP struct {
	User   string
	Pass   string
	Host   string
	Root   string
	logger *slog.Logger
}

// NewFTP returns an FTP location. logger may be nil.
func NewFTP(user, pass, host, root string, logger *slog.Logger) *FTP {
	if logger == nil {
		logger = slog.Default()
	}

	return &FTP{User: user, Pass: pass, Host: host, Root: root, logger: logger}
}

func (f *FTP) Kind() Kind     { return KindFTP }
func (f *FTP) String() string { return "ftp:" + f.User + "@" + f.Host + "/" + f.Root }

// connect dials, logs in, and CWDs into Root.
func (f *FTP) connect() (*ftpConn, error) {
	conn, err := dialFTP(f.Host)
	if err != nil {
		return nil, err
	}

	if err := conn.login(f.User, f.Pass); err != nil {
		conn.quit()
		return nil, err
	}

	if f.Root != "" && f.Root != "." {
		if err := conn.cwd(f.Root); err != nil {
			conn.quit()
			return nil, err
		}
	}

	return conn, nil
}

// listEntry is one parsed LIST line.
type listEntry struct {
	name     string
	isDir    bool
	modified time.Time
}

var monthAbbrev = map[string]time.Month{
	"Jan": time.January, "Feb": time.February, "Mar": time.March,
	"Apr": time.April, "May": time.May, "Jun": time.June,
	"Jul": time.July, "Aug": time.August, "Sep": time.September,
	"Oct": time.October, "Nov": time.November, "Dec": time.December,
}

// parseUnixListLine parses one line of UNIX long-format LIST output.
// Requires at least 9 whitespace-delimited fields: field 0 is the type
// column ('d' for directory), fields 5-7 are "MMM DD HH:MM", and fields 8+
// (rejoined with single spaces) are the name. Year is assumed to be the
// current UTC year — files older than a year are misdated by design, the
// same as the system this was ported from (SPEC_FULL.md §9 open question 3).
// A line that cannot be parsed at all returns ok=false.
func parseUnixListLine(line string, now time.Time) (listEntry, bool) {
	fields := strings.Fields(line)
	if len(fields) < 9 {
		return listEntry{}, false
	}

	isDir := strings.HasPrefix(fields[0], "d")
	name := strings.Join(fields[8:], " ")

	modified := parseFtpDate(fields[5], fields[6], fields[7], now)

	return listEntry{name: name, isDir: isDir, modified: modified}, true
}

// parseFtpDate parses "MMM DD HH:MM" against the current UTC year. Any
// component that fails to parse yields the epoch, but the caller still
// includes the entry (SPEC_FULL.md §4.1).
func parseFtpDate(monStr, dayStr, timeStr string, now time.Time) time.Time {
	month, ok := monthAbbrev[monStr]
	if !ok {
		return time.Unix(0, 0).UTC()
	}

	day, err := strconv.Atoi(dayStr)
	if err != nil {
		return time.Unix(0, 0).UTC()
	}

	hh, mm, ok := splitHHMM(timeStr)
	if !ok {
		return time.Unix(0, 0).UTC()
	}

	return time.Date(now.UTC().Year(), month, day, hh, mm, 0, 0, time.UTC)
}

func splitHHMM(s string) (int, int, bool) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}

	hh, err1 := strconv.Atoi(parts[0])
	mm, err2 := strconv.Atoi(parts[1])

	if err1 != nil || err2 != nil {
		return 0, 0, false
	}

	return hh, mm, true
}

// ListDirsRecursive walks the tree under Root, CWDing into each directory
// it finds and CDUPing back out, collecting directory records keyed by a
// "/"-joined full path.
func (f *FTP) ListDirsRecursive(ctx context.Context) ([]DirMetadata, error) {
	conn, err := f.connect()
	if err != nil {
		return nil, err
	}
	defer conn.quit()

	var results []DirMetadata

	if err := f.walkDirs(ctx, conn, ".", ".", &results); err != nil {
		return nil, err
	}

	return results, nil
}

func (f *FTP) walkDirs(ctx context.Context, conn *ftpConn, relPath, fullPath string, out *[]DirMetadata) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	if relPath != "." && relPath != "" {
		if err := conn.cwd(relPath); err != nil {
			return err
		}
	}

	lines, err := conn.list()
	if err != nil {
		return err
	}

	for _, line := range lines {
		entry, ok := parseUnixListLine(line, time.Now())
		if !ok || !entry.isDir {
			continue
		}

		if entry.name == "" || entry.name == "." || entry.name == ".." {
			continue
		}

		childFull := joinPath(fullPath, entry.name)
		if childFull == "" || childFull == "." || childFull == ".." {
			continue
		}

		*out = append(*out, DirMetadata{Path: childFull, Modified: entry.modified})

		if err := f.walkDirs(ctx, conn, entry.name, childFull, out); err != nil {
			return err
		}
	}

	if relPath != "." && relPath != "" {
		if err := conn.cdup(); err != nil {
			return err
		}
	}

	return nil
}

// ListFilesRecursive walks the tree under Root the same way as
// ListDirsRecursive, reading each file's bytes to compute its hash as it
// goes — this makes recursive listing O(files x round-trips) by design
// (SPEC_FULL.md §4.1, §9 open question 4).
func (f *FTP) ListFilesRecursive(ctx context.Context) ([]FileMetadata, error) {
	conn, err := f.connect()
	if err != nil {
		return nil, err
	}
	defer conn.quit()

	var results []FileMetadata

	if err := f.walkFiles(ctx, conn, ".", ".", &results); err != nil {
		return nil, err
	}

	return results, nil
}

func (f *FTP) walkFiles(ctx context.Context, conn *ftpConn, relPath, fullPath string, out *[]FileMetadata) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	if relPath != "." && relPath != "" {
		if err := conn.cwd(relPath); err != nil {
			return err
		}
	}

	lines, err := conn.list()
	if err != nil {
		return err
	}

	for _, line := range lines {
		entry, ok := parseUnixListLine(line, time.Now())
		if !ok {
			continue
		}

		if entry.name == "" || entry.name == "." || entry.name == ".." {
			continue
		}

		childFull := joinPath(fullPath, entry.name)
		if childFull == "" || childFull == "." || childFull == ".." {
			continue
		}

		if entry.isDir {
			if err := f.walkFiles(ctx, conn, entry.name, childFull, out); err != nil {
				return err
			}

			continue
		}

		hash := ""
		if data, err := conn.retr(entry.name); err == nil {
			hash = hashBytes(data)
		} else {
			f.logger.Warn("ftp: hash read failed", "path", childFull, "error", err)
		}

		*out = append(*out, FileMetadata{Path: childFull, Modified: entry.modified, Hash: hash})
	}

	if relPath != "." && relPath != "" {
		if err := conn.cdup(); err != nil {
			return err
		}
	}

	return nil
}

// splitDirFile splits "a/b/c" into ("a/b", "c"); a bare name splits into
// ("", name).
func splitDirFile(path string) (string, string) {
	idx := strings.LastIndex(path, "/")
	if idx < 0 {
		return "", path
	}

	return path[:idx], path[idx+1:]
}

func (f *FTP) ReadFile(_ context.Context, path string) ([]byte, error) {
	conn, err := f.connect()
	if err != nil {
		return nil, err
	}
	defer conn.quit()

	dir, filename := splitDirFile(path)

	if dir != "" && dir != "." {
		for _, part := range strings.Split(dir, "/") {
			if part == "" {
				continue
			}

			if err := conn.cwd(part); err != nil {
				return nil, err
			}
		}
	}

	data, err := conn.retr(filename)
	if err != nil {
		return nil, err
	}

	return data, nil
}

func (f *FTP) WriteFile(_ context.Context, path string, data []byte) error {
	conn, err := f.connect()
	if err != nil {
		return err
	}
	defer conn.quit()

	dir, filename := splitDirFile(path)

	var parts []string
	if dir != "" && dir != "." {
		parts = strings.Split(dir, "/")
	}

	for _, part := range parts {
		if part == "" {
			continue
		}

		if code, err := conn.mkd(part); err != nil && code != 550 {
			return err
		}

		if err := conn.cwd(part); err != nil {
			return err
		}
	}

	if err := conn.stor(filename, data); err != nil {
		return err
	}

	for range parts {
		if err := conn.cdup(); err != nil {
			return err
		}
	}

	return nil
}

func (f *FTP) DeleteFile(_ context.Context, path string) error {
	conn, err := f.connect()
	if err != nil {
		return err
	}
	defer conn.quit()

	dir, filename := splitDirFile(path)

	var parts []string
	if dir != "" && dir != "." {
		parts = strings.Split(dir, "/")
	}

	for _, part := range parts {
		if part == "" {
			continue
		}

		if err := conn.cwd(part); err != nil {
			return err
		}
	}

	if code, err := conn.dele(filename); err != nil && code != 550 {
		return err
	}

	for range parts {
		if err := conn.cdup(); err != nil {
			return err
		}
	}

	return nil
}

func (f *FTP) CreateDir(_ context.Context, path string) error {
	conn, err := f.connect()
	if err != nil {
		return err
	}
	defer conn.quit()

	parts := nonEmptyParts(path)

	for _, part := range parts {
		if code, err := conn.mkd(part); err != nil && code != 550 {
			return err
		}

		if err := conn.cwd(part); err != nil {
			return err
		}
	}

	for range parts {
		if err := conn.cdup(); err != nil {
			return err
		}
	}

	return nil
}

func (f *FTP) RemoveDir(_ context.Context, path string) error {
	conn, err := f.connect()
	if err != nil {
		return err
	}
	defer conn.quit()

	return f.removeDirRecursive(conn, path)
}

func (f *FTP) removeDirRecursive(conn *ftpConn, path string) error {
	parts := nonEmptyParts(path)
	if len(parts) == 0 {
		return nil
	}

	for _, part := range parts[:len(parts)-1] {
		if err := conn.cwd(part); err != nil {
			return err
		}
	}

	target := parts[len(parts)-1]

	if err := conn.cwd(target); err != nil {
		// Target already absent: nothing to remove.
		for range parts[:len(parts)-1] {
			_ = conn.cdup()
		}

		return nil
	}

	lines, err := conn.list()
	if err != nil {
		_ = conn.cdup()

		for range parts[:len(parts)-1] {
			_ = conn.cdup()
		}

		return err
	}

	for _, line := range lines {
		entry, ok := parseUnixListLine(line, time.Now())
		if !ok || entry.name == "" || entry.name == "." || entry.name == ".." {
			continue
		}

		if entry.isDir {
			if err := f.removeDirRecursive(conn, entry.name); err != nil {
				f.logger.Warn("ftp: recursive remove_dir failed", "path", entry.name, "error", err)
			}

			continue
		}

		if code, err := conn.dele(entry.name); err != nil && code != 550 {
			f.logger.Warn("ftp: remove_dir file delete failed", "path", entry.name, "error", err)
		}
	}

	if err := conn.cdup(); err != nil {
		return err
	}

	if code, err := conn.rmd(target); err != nil && code != 550 {
		return err
	}

	for range parts[:len(parts)-1] {
		if err := conn.cdup(); err != nil {
			return err
		}
	}

	return nil
}

func nonEmptyParts(path string) []string {
	var parts []string

	for _, p := range strings.Split(path, "/") {
		if p != "" {
			parts = append(parts, p)
		}
	}

	return parts
}
