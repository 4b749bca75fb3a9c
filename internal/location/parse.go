package location

import (
	"log/slog"
	"strings"
)

// Parse builds a Location from a descriptor string of the form:
//
//	folder:PATH
//	zip:PATH
//	ftp:USER:PASS@HOST/REMOTE_PATH
//
// Any other shape yields a *ParseError.
func Parse(descriptor string, logger *slog.Logger) (Location, error) {
	scheme, rest, ok := strings.Cut(descriptor, ":")
	if !ok {
		return nil, &ParseError{Input: descriptor, Msg: "missing scheme prefix"}
	}

	switch scheme {
	case "folder":
		if rest == "" {
			return nil, &ParseError{Input: descriptor, Msg: "folder: empty path"}
		}

		return NewFolder(rest, logger), nil

	case "zip":
		if rest == "" {
			return nil, &ParseError{Input: descriptor, Msg: "zip: empty path"}
		}

		return NewArchive(rest, logger), nil

	case "ftp":
		return parseFTPDescriptor(descriptor, rest, logger)

	default:
		return nil, &ParseError{Input: descriptor, Msg: "unknown scheme: " + scheme}
	}
}

// parseFTPDescriptor parses "USER:PASS@HOST/REMOTE_PATH" out of the portion
// of the descriptor following "ftp:". USER and PASS are split on the first
// colon; HOST and REMOTE_PATH are split on the first slash. REMOTE_PATH may
// be empty, meaning the FTP server's own login directory.
func parseFTPDescriptor(full, rest string, logger *slog.Logger) (Location, error) {
	userPass, hostPath, ok := strings.Cut(rest, "@")
	if !ok {
		return nil, &ParseError{Input: full, Msg: "ftp: missing '@' separating credentials from host"}
	}

	user, pass, ok := strings.Cut(userPass, ":")
	if !ok {
		return nil, &ParseError{Input: full, Msg: "ftp: missing ':' separating user from password"}
	}

	if user == "" {
		return nil, &ParseError{Input: full, Msg: "ftp: empty user"}
	}

	host, remotePath, _ := strings.Cut(hostPath, "/")
	if host == "" {
		return nil, &ParseError{Input: full, Msg: "ftp: empty host"}
	}

	return NewFTP(user, pass, host, remotePath, logger), nil
}
