package tools

import (
	"context"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
)

// KV is the part of client.Client the tools need.
type KV interface {
	Get(key string) (string, error)
	Set(key, value string) error
	SetWithTTL(key, value string, ttl time.Duration) error
	Delete(key string) error
	Rename(oldKey, newKey string) error
	Expire(key string, ttl time.Duration) error
	TTL(key string) (time.Duration, bool, error)
	Keys() ([]string, error)
	Count() (int, error)
	Clear() error
}

type handler = func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)

// KVGetHandler returns the MCP tool handler for the "kv-get" tool.
func KVGetHandler(kv KV) handler {
	return guard(func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		key, err := req.RequireString("key")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		v, err := kv.Get(key)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(v), nil
	})
}

// KVSetHandler returns the MCP tool handler for the "kv-set" tool.
func KVSetHandler(kv KV) handler {
	return guard(func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		key, err := req.RequireString("key")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		value, err := req.RequireString("value")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if err := checkToken("key", key); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if err := checkToken("value", value); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		ttl, hasTTL, err := optionalSeconds(req, "ttl_seconds")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if hasTTL {
			err = kv.SetWithTTL(key, value, ttl)
		} else {
			err = kv.Set(key, value)
		}
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText("OK"), nil
	})
}

// KVDeleteHandler returns the MCP tool handler for the "kv-delete" tool.
func KVDeleteHandler(kv KV) handler {
	return keyOp(kv.Delete)
}

// KVRenameHandler returns the MCP tool handler for the "kv-rename" tool.
func KVRenameHandler(kv KV) handler {
	return guard(func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		oldKey, err := req.RequireString("old_key")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		newKey, err := req.RequireString("new_key")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if err := checkToken("new_key", newKey); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if err := kv.Rename(oldKey, newKey); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText("OK"), nil
	})
}

// KVExpireHandler returns the MCP tool handler for the "kv-expire" tool.
func KVExpireHandler(kv KV) handler {
	return guard(func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		key, err := req.RequireString("key")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		ttl, ok, err := optionalSeconds(req, "ttl_seconds")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if !ok {
			return mcp.NewToolResultError("required argument \"ttl_seconds\" not found"), nil
		}
		if err := kv.Expire(key, ttl); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText("OK"), nil
	})
}

// KVTTLHandler returns the MCP tool handler for the "kv-ttl" tool.
func KVTTLHandler(kv KV) handler {
	return guard(func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		key, err := req.RequireString("key")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		ttl, ok, err := kv.TTL(key)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if !ok {
			return mcp.NewToolResultText("(no ttl)"), nil
		}
		return mcp.NewToolResultText(strconv.FormatInt(int64(ttl/time.Second), 10)), nil
	})
}

// KVKeysHandler returns the MCP tool handler for the "kv-keys" tool.
func KVKeysHandler(kv KV) handler {
	return guard(func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		keys, err := kv.Keys()
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(formatKeys(keys)), nil
	})
}

// KVCountHandler returns the MCP tool handler for the "kv-count" tool.
func KVCountHandler(kv KV) handler {
	return guard(func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		n, err := kv.Count()
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(strconv.Itoa(n)), nil
	})
}

// KVClearHandler returns the MCP tool handler for the "kv-clear" tool.
func KVClearHandler(kv KV) handler {
	return guard(func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if err := kv.Clear(); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText("OK"), nil
	})
}

// guard fails a call whose context is already done without reaching the
// server.
func guard(h handler) handler {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if ctx.Err() != nil {
			return mcp.NewToolResultError(ctx.Err().Error()), nil
		}
		return h(ctx, req)
	}
}

func keyOp(op func(string) error) handler {
	return guard(func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		key, err := req.RequireString("key")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if err := op(key); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText("OK"), nil
	})
}

// formatKeys renders one key per line in a stable order.
func formatKeys(keys []string) string {
	if len(keys) == 0 {
		return "No keys."
	}
	sorted := append([]string(nil), keys...)
	slices.Sort(sorted)
	return strings.Join(sorted, "\n")
}

// checkToken rejects strings the line protocol cannot carry as one field.
func checkToken(name, s string) error {
	if s == "" || strings.ContainsAny(s, " \t\r\n") {
		return fmt.Errorf("%s must be a single non-empty word", name)
	}
	return nil
}

// optionalSeconds reads a non-negative whole number of seconds.
func optionalSeconds(req mcp.CallToolRequest, name string) (time.Duration, bool, error) {
	raw, ok := req.GetArguments()[name]
	if !ok || raw == nil {
		return 0, false, nil
	}
	var n float64
	switch v := raw.(type) {
	case float64:
		n = v
	case int:
		n = float64(v)
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, false, fmt.Errorf("%s must be a number", name)
		}
		n = f
	default:
		return 0, false, fmt.Errorf("%s must be a number", name)
	}
	if n < 0 || n != math.Trunc(n) || n > math.MaxInt64/float64(time.Second) {
		return 0, false, fmt.Errorf("%s must be a non-negative whole number", name)
	}
	return time.Duration(n) * time.Second, true, nil
}
