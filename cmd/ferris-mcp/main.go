package main

import (
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/RezDev94/ferris-db/internal/client"
	"github.com/RezDev94/ferris-db/internal/logger"
	tools "github.com/RezDev94/ferris-db/internal/tools"
)

func main() {
	if err := logger.InitFromEnv(); err != nil {
		panic(err)
	}
	defer logger.Close()

	logger.Infof("Starting ferris-db MCP server")

	// Connect to ferrisdb; start it if needed, then connect.
	addr := defaultAddr()
	logger.Infof("Attempting to connect to ferrisdb at %s", addr)
	kv, err := client.Dial(addr, 200*time.Millisecond)
	if err != nil {
		logger.Warnf("Failed to connect to ferrisdb: %v, attempting to start it", err)
		if startErr := startDaemon(addr); startErr != nil {
			logger.Errorf("Failed to start ferrisdb: %v", startErr)
		} else {
			logger.Infof("ferrisdb started")
		}
		deadline := time.Now().Add(5 * time.Second)
		for time.Now().Before(deadline) {
			if c2, err2 := client.Dial(addr, 200*time.Millisecond); err2 == nil {
				kv = c2
				err = nil
				break
			}
			time.Sleep(200 * time.Millisecond)
		}
		if kv == nil {
			logger.Errorf("Failed to connect to ferrisdb after startup attempt: %v", err)
			panic(err)
		}
	}
	defer kv.Close()
	logger.Infof("Successfully connected to ferrisdb")

	s := server.NewMCPServer(
		"ferris-db",
		"0.1.0",
		server.WithRecovery(),
		server.WithToolCapabilities(false),
	)

	key := mcp.WithString("key", mcp.Required(), mcp.Description("The key to operate on"))
	ttl := func(required bool) mcp.ToolOption {
		opts := []mcp.PropertyOption{mcp.Description("Time to live in whole seconds")}
		if required {
			opts = append(opts, mcp.Required())
		}
		return mcp.WithNumber("ttl_seconds", opts...)
	}

	s.AddTool(mcp.NewTool("kv-get",
		mcp.WithDescription("Returns the value stored at a key. Expired keys are still returned until deleted."),
		key,
	), tools.KVGetHandler(kv))

	s.AddTool(mcp.NewTool("kv-set",
		mcp.WithDescription(multiline(
			"Stores a value under a new key",
			"\nUsage notes:",
			"- Fails if the key already exists; delete or rename it first",
			"- Keys and values must be single words without spaces",
			"- ttl_seconds is optional; without it the key never expires",
		)),
		key,
		mcp.WithString("value", mcp.Required(), mcp.Description("The value to store")),
		ttl(false),
	), tools.KVSetHandler(kv))

	s.AddTool(mcp.NewTool("kv-delete",
		mcp.WithDescription("Deletes a key"),
		key,
	), tools.KVDeleteHandler(kv))

	s.AddTool(mcp.NewTool("kv-rename",
		mcp.WithDescription("Moves a value and its expiry to a new key. Fails if the new key exists."),
		mcp.WithString("old_key", mcp.Required(), mcp.Description("The existing key")),
		mcp.WithString("new_key", mcp.Required(), mcp.Description("The key to move it to")),
	), tools.KVRenameHandler(kv))

	s.AddTool(mcp.NewTool("kv-expire",
		mcp.WithDescription("Sets a key to expire after the given number of seconds, replacing any previous expiry"),
		key,
		ttl(true),
	), tools.KVExpireHandler(kv))

	s.AddTool(mcp.NewTool("kv-ttl",
		mcp.WithDescription("Returns the seconds left before a key expires, or (no ttl)"),
		key,
	), tools.KVTTLHandler(kv))

	s.AddTool(mcp.NewTool("kv-keys",
		mcp.WithDescription("Lists every stored key"),
	), tools.KVKeysHandler(kv))

	s.AddTool(mcp.NewTool("kv-count",
		mcp.WithDescription("Returns the number of stored keys, expired ones included"),
	), tools.KVCountHandler(kv))

	s.AddTool(mcp.NewTool("kv-clear",
		mcp.WithDescription("Deletes every key"),
	), tools.KVClearHandler(kv))
	logger.Infof("Registered kv tools")

	logger.Infof("Starting MCP server on stdio")
	if err := server.ServeStdio(s); err != nil {
		logger.Errorf("server error: %v", err)
	}
}

// multiline joins lines with newlines for tool descriptions.
func multiline(lines ...string) string { return strings.Join(lines, "\n") }

func defaultAddr() string {
	if s := os.Getenv("FERRISDB_ADDR"); s != "" {
		return s
	}
	return "127.0.0.1:6810"
}

func startDaemon(addr string) error {
	var args []string
	if _, port, err := net.SplitHostPort(addr); err == nil {
		args = append(args, port)
	}

	// 1) Try ferrisdb binary next to this executable
	if exePath, err := os.Executable(); err == nil {
		sibling := filepath.Join(filepath.Dir(exePath), "ferrisdb")
		if _, statErr := os.Stat(sibling); statErr == nil {
			return spawn(sibling, args)
		}
	}

	// 2) Try PATH binary
	if path, err := exec.LookPath("ferrisdb"); err == nil {
		return spawn(path, args)
	}

	return exec.ErrNotFound
}

func spawn(path string, args []string) error {
	cmd := exec.Command(path, args...)
	cmd.Stdout = nil
	cmd.Stderr = nil
	cmd.Env = os.Environ()
	return cmd.Start()
}
