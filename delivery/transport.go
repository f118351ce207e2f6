package delivery

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/proxy"
)

// Transport opens connections to the collector.
type Transport interface {
	Open(host string, port int) (Conn, error)
}

// Conn is a single exclusively owned connection, used for one request.
type Conn interface {
	Write(p []byte) (int, error)

	// Available reports whether response bytes can be read without blocking.
	Available() bool

	// ReadLine returns the next line without its terminator. A line cut
	// short by anything other than the peer closing is an error.
	ReadLine() (string, error)

	Close() error
}

const (
	peekWindow  = time.Millisecond
	lineTimeout = time.Second
)

// TCP implements Transport over TCP. Dials honour ALL_PROXY/NO_PROXY.
type TCP struct {
	dialer proxy.Dialer
}

// NewTCP creates a TCP transport with the given dial timeout.
func NewTCP(dialTimeout time.Duration) *TCP {
	if dialTimeout <= 0 {
		dialTimeout = DefaultDialTimeout
	}
	return &TCP{dialer: proxy.FromEnvironmentUsing(&net.Dialer{Timeout: dialTimeout})}
}

// Open implements Transport.Open.
func (t *TCP) Open(host string, port int) (Conn, error) {
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	c, err := t.dialer.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", addr, err)
	}
	return &tcpConn{c: c, r: bufio.NewReader(c)}, nil
}

type tcpConn struct {
	c net.Conn
	r *bufio.Reader
}

func (t *tcpConn) Write(p []byte) (int, error) {
	_ = t.c.SetWriteDeadline(time.Now().Add(lineTimeout))
	return t.c.Write(p)
}

func (t *tcpConn) Available() bool {
	if t.r.Buffered() > 0 {
		return true
	}
	_ = t.c.SetReadDeadline(time.Now().Add(peekWindow))
	_, err := t.r.Peek(1)
	_ = t.c.SetReadDeadline(time.Time{})
	return err == nil
}

func (t *tcpConn) ReadLine() (string, error) {
	_ = t.c.SetReadDeadline(time.Now().Add(lineTimeout))
	line, err := t.r.ReadString('\n')
	if err != nil {
		// A final unterminated line is only complete if the peer closed.
		if !errors.Is(err, io.EOF) || line == "" {
			return "", err
		}
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (t *tcpConn) Close() error {
	return t.c.Close()
}
