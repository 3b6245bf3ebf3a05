// Package client talks to a ferris-db server over its line protocol.
package client

import (
	"bufio"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// DefaultCallTimeout bounds one request/response exchange.
const DefaultCallTimeout = 5 * time.Second

// Client holds one persistent connection. It is safe for concurrent use;
// commands are sent one at a time. A Client from Dial redials once when the
// connection breaks mid-call.
type Client struct {
	mu          sync.Mutex
	addr        string
	dialTimeout time.Duration
	callTimeout time.Duration
	conn        net.Conn
	rd          *bufio.Reader
}

// Dial connects to addr.
func Dial(addr string, timeout time.Duration) (*Client, error) {
	c := &Client{addr: addr, dialTimeout: timeout, callTimeout: DefaultCallTimeout}
	if err := c.connect(); err != nil {
		return nil, err
	}
	return c, nil
}

// NewClient wraps an established connection. It never redials.
func NewClient(conn net.Conn) *Client {
	return &Client{conn: conn, rd: bufio.NewReader(conn), callTimeout: DefaultCallTimeout}
}

// SetCallTimeout changes the per-call deadline; zero disables it.
func (c *Client) SetCallTimeout(d time.Duration) {
	c.mu.Lock()
	c.callTimeout = d
	c.mu.Unlock()
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn, c.rd = nil, nil
	c.addr = ""
	return err
}

func (c *Client) connect() error {
	conn, err := net.DialTimeout("tcp", c.addr, c.dialTimeout)
	if err != nil {
		return errors.Wrapf(err, "dial %s", c.addr)
	}
	c.conn, c.rd = conn, bufio.NewReader(conn)
	return nil
}

func (c *Client) drop() {
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn, c.rd = nil, nil
	}
}

// Do sends one command line and reads its response. Server-side failures
// come back in the Response, see Response.Err.
//
// A broken connection is redialled and the command resent once. A timed
// out call is not resent, since the server may still be running it.
func (c *Client) Do(line string) (Response, error) {
	line = strings.TrimRight(line, "\r\n")
	if strings.ContainsAny(line, "\r\n") {
		return Response{}, errors.New("command must be a single line")
	}
	kw := Keyword(line)
	c.mu.Lock()
	defer c.mu.Unlock()

	resp, err := c.roundTrip(line, kw)
	if err == nil {
		return resp, nil
	}
	c.drop()
	if c.addr == "" || isTimeout(err) {
		return Response{}, err
	}
	resp, err = c.roundTrip(line, kw)
	if err != nil {
		c.drop()
	}
	return resp, err
}

func (c *Client) roundTrip(line, kw string) (Response, error) {
	if c.conn == nil {
		if c.addr == "" {
			return Response{}, errors.New("client closed")
		}
		if err := c.connect(); err != nil {
			return Response{}, err
		}
	}
	if c.callTimeout > 0 {
		_ = c.conn.SetDeadline(time.Now().Add(c.callTimeout))
	}
	if _, err := c.conn.Write([]byte(line + "\n")); err != nil {
		return Response{}, errors.Wrap(err, "send command")
	}
	return ReadResponse(c.rd, kw)
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// call runs a command and folds a server error into the returned error.
func (c *Client) call(fields ...string) (Response, error) {
	resp, err := c.Do(strings.Join(fields, " "))
	if err != nil {
		return Response{}, err
	}
	if err := resp.Err(); err != nil {
		return Response{}, err
	}
	return resp, nil
}

func (c *Client) status(fields ...string) error {
	_, err := c.call(fields...)
	return err
}

func (c *Client) Ping() error { return c.status("PING") }

func (c *Client) Get(key string) (string, error) {
	resp, err := c.call("GET", key)
	if err != nil {
		return "", err
	}
	return resp.Lines[0], nil
}

func (c *Client) Set(key, value string) error { return c.status("SET", key, value) }

// SetWithTTL stores a key expiring after ttl, rounded down to whole seconds.
func (c *Client) SetWithTTL(key, value string, ttl time.Duration) error {
	return c.status("SET", key, value, secs(ttl))
}

func (c *Client) Delete(key string) error { return c.status("DELETE", key) }

func (c *Client) Rename(oldKey, newKey string) error { return c.status("RENAME", oldKey, newKey) }

func (c *Client) Expire(key string, ttl time.Duration) error {
	return c.status("EXPIRE", key, secs(ttl))
}

// TTL returns the remaining time to live; ok is false for keys without one.
func (c *Client) TTL(key string) (ttl time.Duration, ok bool, err error) {
	resp, err := c.call("TTL", key)
	if err != nil {
		return 0, false, err
	}
	if resp.Lines[0] == noTTLMarker {
		return 0, false, nil
	}
	n, err := strconv.ParseUint(resp.Lines[0], 10, 63)
	if err != nil {
		return 0, false, errors.Wrapf(err, "parse ttl %q", resp.Lines[0])
	}
	return time.Duration(n) * time.Second, true, nil
}

func (c *Client) Keys() ([]string, error) {
	resp, err := c.call("KEYS")
	if err != nil {
		return nil, err
	}
	if len(resp.Lines) == 1 && resp.Lines[0] == emptyMarker {
		return []string{}, nil
	}
	return resp.Lines, nil
}

func (c *Client) Count() (int, error) {
	resp, err := c.call("COUNT")
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(resp.Lines[0])
	if err != nil {
		return 0, errors.Wrapf(err, "parse count %q", resp.Lines[0])
	}
	return n, nil
}

func (c *Client) Clear() error { return c.status("CLEAR") }

func secs(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	return strconv.FormatInt(int64(d/time.Second), 10)
}
