package server

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPRouter(t *testing.T) {
	ts := httptest.NewServer(NewHTTPRouter(newExecutor(t)))
	defer ts.Close()

	post := func(body string) (int, string) {
		t.Helper()
		resp, err := http.Post(ts.URL+"/", "text/plain", strings.NewReader(body))
		require.NoError(t, err)
		defer resp.Body.Close()
		b, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		return resp.StatusCode, string(b)
	}

	code, body := post("SET a hello 5\nGET a\nKEYS\n")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "OK\nhello\na\nEND\n", body)

	code, body = post("SET a b c")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ERROR: invalid TTL: c\n", body)

	code, _ = post("")
	assert.Equal(t, http.StatusBadRequest, code)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHTTPRouterLongLine(t *testing.T) {
	exec := newExecutor(t)
	ts := httptest.NewServer(NewHTTPRouter(exec))
	defer ts.Close()

	long := strings.Repeat("x", 70*1024)
	body := "SET a 1\nSET b " + long + "\nGET a\n"
	resp, err := http.Post(ts.URL+"/", "text/plain", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK\nOK\n1\n", string(b))
	assert.Equal(t, long+"\n", exec.Execute("GET b"))
}
