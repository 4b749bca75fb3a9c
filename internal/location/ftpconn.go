package location

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"net/textproto"
	"strconv"
	"strings"
	"time"
)

// ftpConn is a minimal, single-use FTP control connection built directly on
// net/textproto. Every Location method opens a fresh ftpConn, authenticates,
// and tears it down — operations are self-contained and never share a
// pooled session (SPEC_FULL.md §5).
//
// No third-party FTP client in the ecosystem exposes the raw, unparsed LIST
// response lines this backend needs (real clients like jlaffaye/ftp and
// goftp pre-parse LIST/MLSD into structured entries before handing them
// back); this backend's LIST date parsing (parseFtpDate in ftp.go) is part of the spec's
// "core" behavior, including a deliberately preserved quirk (current-UTC-year
// assumption), so the control-connection plumbing is hand-rolled here on
// net/textproto, the same line-oriented request/response foundation real FTP
// client libraries — and the standard library's own net/smtp — are built on.
type ftpConn struct {
	text *textproto.Conn
	conn net.Conn
}

const ftpDialTimeout = 15 * time.Second

// dialFTP connects to host (adding the default FTP port if none is given)
// and consumes the server's greeting.
func dialFTP(host string) (*ftpConn, error) {
	addr := host
	if _, _, err := net.SplitHostPort(host); err != nil {
		addr = net.JoinHostPort(host, "21")
	}

	conn, err := net.DialTimeout("tcp", addr, ftpDialTimeout)
	if err != nil {
		return nil, &FtpError{Cmd: "connect", Msg: addr, Err: err}
	}

	text := textproto.NewConn(conn)

	if _, _, err := text.ReadResponse(220); err != nil {
		_ = conn.Close()
		return nil, &FtpError{Cmd: "connect", Msg: "greeting", Err: err}
	}

	return &ftpConn{text: text, conn: conn}, nil
}

func (c *ftpConn) login(user, pass string) error {
	if _, _, err := c.cmd(331, "USER %s", user); err != nil {
		// Some servers grant access on USER alone (230); treat as success.
		if isFtpCode(err, 230) {
			return nil
		}

		return &FtpError{Cmd: "USER", Msg: user, Err: err}
	}

	if _, _, err := c.cmd(230, "PASS %s", pass); err != nil {
		return &FtpError{Cmd: "PASS", Msg: "<redacted>", Err: err}
	}

	return nil
}

// cmd sends a command and expects the given reply code, returning the full
// code and message on success.
func (c *ftpConn) cmd(expect int, format string, args ...interface{}) (int, string, error) {
	id, err := c.text.Cmd(format, args...)
	if err != nil {
		return 0, "", err
	}

	c.text.StartResponse(id)
	defer c.text.EndResponse(id)

	code, msg, err := c.text.ReadResponse(expect)
	if err != nil {
		return code, msg, err
	}

	return code, msg, nil
}

// rawCmd sends a command and returns whatever code the server replies with,
// without requiring it to match an expectation. Used where a particular
// non-2xx code (550) is a recognized, non-error outcome.
func (c *ftpConn) rawCmd(format string, args ...interface{}) (int, string, error) {
	id, err := c.text.Cmd(format, args...)
	if err != nil {
		return 0, "", err
	}

	c.text.StartResponse(id)
	defer c.text.EndResponse(id)

	return c.text.ReadCodeLine(0)
}

func (c *ftpConn) cwd(path string) error {
	_, _, err := c.cmd(250, "CWD %s", path)
	if err != nil {
		return &FtpError{Cmd: "CWD", Msg: path, Err: err}
	}

	return nil
}

// cdup issues CDUP. Servers reply either 200 or 250; both mean success.
func (c *ftpConn) cdup() error {
	code, msg, err := c.rawCmd("CDUP")
	if err != nil {
		return &FtpError{Cmd: "CDUP", Msg: "cdup", Err: err}
	}

	if code != 200 && code != 250 {
		return &FtpError{Cmd: "CDUP", Msg: msg}
	}

	return nil
}

func (c *ftpConn) pwd() (string, error) {
	code, msg, err := c.rawCmd("PWD")
	if err != nil || code != 257 {
		return "", &FtpError{Cmd: "PWD", Msg: msg, Err: err}
	}

	first := strings.Index(msg, `"`)
	last := strings.LastIndex(msg, `"`)

	if first < 0 || last <= first {
		return msg, nil
	}

	return msg[first+1 : last], nil
}

// pasv requests a passive-mode data port and returns a dialed connection.
func (c *ftpConn) pasv() (net.Conn, error) {
	code, msg, err := c.rawCmd("PASV")
	if err != nil || code != 227 {
		return nil, &FtpError{Cmd: "PASV", Msg: msg, Err: err}
	}

	addr, err := parsePasvAddr(msg)
	if err != nil {
		return nil, &FtpError{Cmd: "PASV", Msg: msg, Err: err}
	}

	dataConn, err := net.DialTimeout("tcp", addr, ftpDialTimeout)
	if err != nil {
		return nil, &FtpError{Cmd: "PASV", Msg: addr, Err: err}
	}

	return dataConn, nil
}

// parsePasvAddr extracts "h1,h2,h3,h4,p1,p2" from a 227 reply such as
// "227 Entering Passive Mode (127,0,0,1,200,13)." and returns "ip:port".
func parsePasvAddr(msg string) (string, error) {
	open := strings.Index(msg, "(")
	close := strings.Index(msg, ")")

	if open < 0 || close <= open {
		return "", fmt.Errorf("malformed PASV reply: %q", msg)
	}

	parts := strings.Split(msg[open+1:close], ",")
	if len(parts) != 6 {
		return "", fmt.Errorf("malformed PASV reply: %q", msg)
	}

	ip := strings.Join(parts[0:4], ".")

	p1, err1 := strconv.Atoi(parts[4])
	p2, err2 := strconv.Atoi(parts[5])

	if err1 != nil || err2 != nil {
		return "", fmt.Errorf("malformed PASV port in reply: %q", msg)
	}

	port := p1*256 + p2

	return net.JoinHostPort(ip, strconv.Itoa(port)), nil
}

// list opens a data connection and returns the raw LIST output, one line
// per entry, with no parsing applied (the caller parses it — §4.1).
func (c *ftpConn) list() ([]string, error) {
	data, err := c.pasv()
	if err != nil {
		return nil, err
	}

	if _, _, err := c.cmd(150, "LIST"); err != nil {
		_ = data.Close()
		return nil, &FtpError{Cmd: "LIST", Msg: "list", Err: err}
	}

	lines, readErr := readAllLines(data)

	_ = data.Close()

	if _, _, err := c.text.ReadResponse(226); err != nil {
		return nil, &FtpError{Cmd: "LIST", Msg: "transfer complete", Err: err}
	}

	if readErr != nil {
		return nil, &FtpError{Cmd: "LIST", Msg: "read data", Err: readErr}
	}

	return lines, nil
}

func (c *ftpConn) retr(filename string) ([]byte, error) {
	data, err := c.pasv()
	if err != nil {
		return nil, err
	}

	if _, _, err := c.cmd(150, "RETR %s", filename); err != nil {
		_ = data.Close()
		return nil, &FtpError{Cmd: "RETR", Msg: filename, Err: err}
	}

	buf, readErr := io.ReadAll(data)

	_ = data.Close()

	if _, _, err := c.text.ReadResponse(226); err != nil {
		return nil, &FtpError{Cmd: "RETR", Msg: "transfer complete", Err: err}
	}

	if readErr != nil {
		return nil, &FtpError{Cmd: "RETR", Msg: "read data", Err: readErr}
	}

	return buf, nil
}

func (c *ftpConn) stor(filename string, content []byte) error {
	data, err := c.pasv()
	if err != nil {
		return err
	}

	if _, _, err := c.cmd(150, "STOR %s", filename); err != nil {
		_ = data.Close()
		return &FtpError{Cmd: "STOR", Msg: filename, Err: err}
	}

	_, writeErr := data.Write(content)

	_ = data.Close()

	if _, _, err := c.text.ReadResponse(226); err != nil {
		return &FtpError{Cmd: "STOR", Msg: "transfer complete", Err: err}
	}

	if writeErr != nil {
		return &FtpError{Cmd: "STOR", Msg: "write data", Err: writeErr}
	}

	return nil
}

// dele issues DELE and returns the raw reply code so callers can treat 550
// (absent file) as a non-error outcome.
func (c *ftpConn) dele(filename string) (int, error) {
	code, msg, err := c.rawCmd("DELE %s", filename)
	if err != nil {
		return code, &FtpError{Cmd: "DELE", Msg: filename, Err: err}
	}

	if code/100 != 2 && code != 550 {
		return code, &FtpError{Cmd: "DELE", Msg: msg}
	}

	return code, nil
}

func (c *ftpConn) mkd(name string) (int, error) {
	code, msg, err := c.rawCmd("MKD %s", name)
	if err != nil {
		return code, &FtpError{Cmd: "MKD", Msg: name, Err: err}
	}

	if code/100 != 2 && code != 550 {
		return code, &FtpError{Cmd: "MKD", Msg: msg}
	}

	return code, nil
}

func (c *ftpConn) rmd(name string) (int, error) {
	code, msg, err := c.rawCmd("RMD %s", name)
	if err != nil {
		return code, &FtpError{Cmd: "RMD", Msg: name, Err: err}
	}

	if code/100 != 2 && code != 550 {
		return code, &FtpError{Cmd: "RMD", Msg: msg}
	}

	return code, nil
}

func (c *ftpConn) quit() {
	_, _, _ = c.rawCmd("QUIT")
	_ = c.conn.Close()
}

func isFtpCode(err error, code int) bool {
	var protoErr *textproto.Error
	if te, ok := err.(*textproto.Error); ok {
		protoErr = te
	}

	return protoErr != nil && protoErr.Code == code
}

func readAllLines(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var lines []string

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line != "" {
			lines = append(lines, line)
		}
	}

	return lines, scanner.Err()
}
