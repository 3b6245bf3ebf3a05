package client

import (
	"bufio"
	"context"
	"net"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RezDev94/ferris-db/internal/command"
	"github.com/RezDev94/ferris-db/internal/persistence"
	"github.com/RezDev94/ferris-db/internal/server"
	"github.com/RezDev94/ferris-db/internal/store"
)

func TestReadResponse(t *testing.T) {
	cases := []struct {
		name string
		kw   string
		in   string
		want []string
		rest string
	}{
		{"single line", "GET", "hello\nnext\n", []string{"hello"}, "next\n"},
		{"keys", "KEYS", "a\nb\nEND\nnext\n", []string{"a", "b"}, "next\n"},
		{"empty keys", "KEYS", "(empty)\nEND\n", []string{"(empty)"}, ""},
		{"no ttl", "TTL", "(no ttl)\nEND\nnext\n", []string{"(no ttl)"}, "next\n"},
		{"ttl", "TTL", "5\n", []string{"5"}, ""},
		{"keys error", "KEYS", "ERROR: boom\nnext\n", []string{"ERROR: boom"}, "next\n"},
		{"crlf", "PING", "PONG\r\n", []string{"PONG"}, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rd := bufio.NewReader(strings.NewReader(tc.in))
			resp, err := ReadResponse(rd, tc.kw)
			require.NoError(t, err)
			assert.Equal(t, tc.want, resp.Lines)
			rest, _ := rd.ReadString(0)
			assert.Equal(t, tc.rest, rest)
		})
	}
}

func TestReadResponseTruncated(t *testing.T) {
	_, err := ReadResponse(bufio.NewReader(strings.NewReader("a\nb\n")), "KEYS")
	assert.Error(t, err)

	_, err = ReadResponse(bufio.NewReader(strings.NewReader("(no ttl)\nx\n")), "TTL")
	assert.Error(t, err)
}

func TestResponseErr(t *testing.T) {
	err := Response{Lines: []string{"ERROR: key 'k' not found"}}.Err()
	var se *ServerError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "key 'k' not found", se.Message)

	assert.NoError(t, Response{Lines: []string{"OK"}}.Err())
}

func TestKeyword(t *testing.T) {
	assert.Equal(t, "KEYS", Keyword("keys"))
	assert.Equal(t, "TTL", Keyword("  TTL k"))
	assert.Equal(t, "", Keyword("   "))
}

func dialServer(t *testing.T) *Client {
	t.Helper()
	gw := persistence.NewFileGateway(filepath.Join(t.TempDir(), "data.json"))
	srv := server.New("127.0.0.1:0", command.NewExecutor(store.New(gw)))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = srv.Start(ctx)
	}()
	<-srv.Ready()

	c, err := Dial(srv.Addr().String(), time.Second)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = c.Close()
		cancel()
		<-done
	})
	return c
}

func TestClientCommands(t *testing.T) {
	c := dialServer(t)

	require.NoError(t, c.Ping())

	keys, err := c.Keys()
	require.NoError(t, err)
	assert.Empty(t, keys)

	require.NoError(t, c.SetWithTTL("a", "hello", 5*time.Second))
	v, err := c.Get("a")
	require.NoError(t, err)
	assert.Equal(t, "hello", v)

	ttl, ok, err := c.TTL("a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.LessOrEqual(t, ttl, 5*time.Second)

	require.NoError(t, c.Set("b", "world"))
	_, ok, err = c.TTL("b")
	require.NoError(t, err)
	assert.False(t, ok)

	err = c.Set("b", "again")
	var se *ServerError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "key 'b' already exists", se.Message)

	require.NoError(t, c.Rename("b", "c"))
	require.NoError(t, c.Expire("c", time.Minute))

	keys, err = c.Keys()
	require.NoError(t, err)
	slices.Sort(keys)
	assert.Equal(t, []string{"a", "c"}, keys)

	n, err := c.Count()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.NoError(t, c.Delete("a"))
	_, err = c.Get("a")
	assert.EqualError(t, err, "key 'a' not found")

	require.NoError(t, c.Clear())
	n, err = c.Count()
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestClientDoRawResponses(t *testing.T) {
	c := dialServer(t)

	resp, err := c.Do("SET a b c")
	require.NoError(t, err)
	assert.Equal(t, "ERROR: invalid TTL: c", resp.Text())

	resp, err = c.Do("TTL missing")
	require.NoError(t, err)
	assert.Equal(t, "ERROR: key 'missing' not found", resp.Text())

	_, err = c.Do("GET a\nGET b")
	assert.Error(t, err)

	// The connection stays usable after a rejected line.
	require.NoError(t, c.Ping())
}

func TestDialRefused(t *testing.T) {
	_, err := Dial("127.0.0.1:1", 200*time.Millisecond)
	assert.Error(t, err)
}

// runServer serves exec on addr until the returned stop func is called.
func runServer(t *testing.T, addr string, exec server.Executor) (string, func()) {
	t.Helper()
	srv := server.New(addr, exec)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Start(ctx) }()
	<-srv.Ready()
	require.NotNil(t, srv.Addr(), "server failed to bind %s", addr)
	stop := func() {
		cancel()
		require.NoError(t, <-done)
	}
	return srv.Addr().String(), stop
}

func TestClientRedialsAfterServerRestart(t *testing.T) {
	gw := persistence.NewFileGateway(filepath.Join(t.TempDir(), "data.json"))
	exec := command.NewExecutor(store.New(gw))

	addr, stop := runServer(t, "127.0.0.1:0", exec)
	c, err := Dial(addr, time.Second)
	require.NoError(t, err)
	defer c.Close()
	require.NoError(t, c.Set("k", "v"))
	stop()

	_, stop = runServer(t, addr, exec)
	defer stop()

	v, err := c.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v", v)
}

func TestClientCallTimeout(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()
	go func() {
		// Accept and never answer.
		for {
			conn, err := l.Accept()
			if err != nil {
				return
			}
			defer conn.Close()
		}
	}()

	c, err := Dial(l.Addr().String(), time.Second)
	require.NoError(t, err)
	defer c.Close()
	c.SetCallTimeout(100 * time.Millisecond)

	start := time.Now()
	_, err = c.Do("PING")
	require.Error(t, err)
	assert.True(t, isTimeout(err))
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestClientClosed(t *testing.T) {
	c := dialServer(t)
	require.NoError(t, c.Close())
	_, err := c.Do("PING")
	assert.EqualError(t, err, "client closed")
}
