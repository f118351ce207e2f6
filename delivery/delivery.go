// Package delivery reports card tokens to the remote collector.
package delivery

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"cardrelay/uid"
)

// Outcome classifies one delivery attempt.
type Outcome int

const (
	Delivered   Outcome = iota // collector answered 200 or 201
	Rejected                   // collector answered with any other, or garbled, status
	Unreachable                // link, connect, write or response timeout failure
)

func (o Outcome) String() string {
	switch o {
	case Delivered:
		return "delivered"
	case Rejected:
		return "rejected"
	case Unreachable:
		return "unreachable"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Defaults applied to zero Config values.
const (
	DefaultPort            = 80
	DefaultPath            = "/"
	DefaultResponseTimeout = 5 * time.Second
	DefaultResponsePoll    = 10 * time.Millisecond
	DefaultDialTimeout     = 5 * time.Second

	// maxDrainLines bounds how much of the response body is read after the status line.
	maxDrainLines = 64
)

// Config holds the collector endpoint and timing budgets.
type Config struct {
	Host              string `yaml:"host"`
	Port              int    `yaml:"port"`
	Path              string `yaml:"path"`
	ResponseTimeoutMs int    `yaml:"response_timeout_ms"` // wait budget for the first response bytes
	ResponsePollMs    int    `yaml:"response_poll_ms"`    // polling step inside that budget
	DialTimeoutMs     int    `yaml:"dial_timeout_ms"`
}

// LinkGuard brings the network link up before a delivery attempt.
type LinkGuard interface {
	EnsureUp(ctx context.Context) bool
}

// Client performs single delivery attempts. It never retries.
type Client struct {
	guard     LinkGuard
	transport Transport
	host      string
	port      int
	path      string
	timeout   time.Duration
	poll      time.Duration
}

// New creates a Client for the collector described by cfg.
func New(cfg Config, guard LinkGuard, transport Transport) *Client {
	c := &Client{
		guard:     guard,
		transport: transport,
		host:      cfg.Host,
		port:      cfg.Port,
		path:      cfg.Path,
		timeout:   time.Duration(cfg.ResponseTimeoutMs) * time.Millisecond,
		poll:      time.Duration(cfg.ResponsePollMs) * time.Millisecond,
	}
	if c.port == 0 {
		c.port = DefaultPort
	}
	if c.path == "" {
		c.path = DefaultPath
	}
	if c.timeout <= 0 {
		c.timeout = DefaultResponseTimeout
	}
	if c.poll <= 0 {
		c.poll = DefaultResponsePoll
	}
	return c
}

type payload struct {
	UID string `json:"uid"`
}

// Deliver makes one attempt to hand token to the collector.
func (c *Client) Deliver(ctx context.Context, token uid.Token) Outcome {
	if !c.guard.EnsureUp(ctx) {
		log.Printf("Deliver %s: link down", token)
		return Unreachable
	}

	body, err := json.Marshal(payload{UID: string(token)})
	if err != nil {
		log.Printf("Deliver %s: encode payload: %v", token, err)
		return Rejected
	}

	conn, err := c.transport.Open(c.host, c.port)
	if err != nil {
		log.Printf("Deliver %s: %v", token, err)
		return Unreachable
	}
	defer conn.Close()

	if _, err := conn.Write(BuildRequest(c.hostHeader(), c.path, body)); err != nil {
		log.Printf("Deliver %s: write request: %v", token, err)
		return Unreachable
	}

	if !c.awaitResponse(conn) {
		log.Printf("Deliver %s: no response within %v", token, c.timeout)
		return Unreachable
	}

	status, err := conn.ReadLine()
	if err != nil {
		log.Printf("Deliver %s: read status: %v", token, err)
		return Unreachable
	}
	outcome := Classify(status)
	fmt.Printf("Collector replied %q: %s\n", status, outcome)

	c.drain(conn)
	return outcome
}

func (c *Client) hostHeader() string {
	if c.port == DefaultPort {
		return c.host
	}
	return fmt.Sprintf("%s:%d", c.host, c.port)
}

// awaitResponse polls conn until bytes arrive or the response budget is spent.
func (c *Client) awaitResponse(conn Conn) bool {
	deadline := time.Now().Add(c.timeout)
	for !conn.Available() {
		if !time.Now().Before(deadline) {
			return false
		}
		time.Sleep(c.poll)
	}
	return true
}

func (c *Client) drain(conn Conn) {
	for i := 0; i < maxDrainLines && conn.Available(); i++ {
		line, err := conn.ReadLine()
		if err != nil {
			return
		}
		if line != "" {
			log.Printf("Collector: %s", line)
		}
	}
}

// BuildRequest renders the collector request for body.
func BuildRequest(host, path string, body []byte) []byte {
	var sb strings.Builder
	fmt.Fprintf(&sb, "POST %s HTTP/1.1\r\n", path)
	fmt.Fprintf(&sb, "Host: %s\r\n", host)
	sb.WriteString("Content-Type: application/json\r\n")
	fmt.Fprintf(&sb, "Content-Length: %d\r\n", len(body))
	sb.WriteString("Connection: close\r\n")
	sb.WriteString("\r\n")
	sb.Write(body)
	return []byte(sb.String())
}

// ParseStatus extracts the status code from an HTTP status line.
func ParseStatus(line string) (int, bool) {
	fields := strings.Fields(line)
	if len(fields) < 2 || !strings.HasPrefix(fields[0], "HTTP/") || len(fields[1]) != 3 {
		return 0, false
	}
	code, err := strconv.Atoi(fields[1])
	if err != nil || code < 100 {
		return 0, false
	}
	return code, true
}

// Classify maps a status line to an Outcome.
func Classify(line string) Outcome {
	code, ok := ParseStatus(line)
	if !ok {
		return Rejected
	}
	if code == 200 || code == 201 {
		return Delivered
	}
	return Rejected
}
