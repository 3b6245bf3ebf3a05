package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RezDev94/ferris-db/internal/dberr"
)

func u64(n uint64) *uint64 { return &n }

func TestParse(t *testing.T) {
	cases := []struct {
		line string
		want Command
	}{
		{"PING", Ping{}},
		{"GET a", Get{Key: "a"}},
		{"SET a hello 5", Set{Key: "a", Value: "hello", TTL: u64(5)}},
		{"SET a hello 0", Set{Key: "a", Value: "hello", TTL: u64(0)}},
		{"SET a hello", Set{Key: "a", Value: "hello"}},
		{"DELETE a", Delete{Key: "a"}},
		{"RENAME a b", Rename{OldKey: "a", NewKey: "b"}},
		{"EXPIRE a 30", Expire{Key: "a", TTL: 30}},
		{"TTL a", TTL{Key: "a"}},
		{"KEYS", Keys{}},
		{"COUNT", Count{}},
		{"CLEAR", Clear{}},
		{"  GET a\r\n", Get{Key: "a"}},
	}
	for _, tc := range cases {
		t.Run(tc.line, func(t *testing.T) {
			got, err := Parse(tc.line)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseInvalidCommand(t *testing.T) {
	for _, line := range []string{
		"",
		"get a",
		"FOO",
		"GET",
		"GET a b",
		"PING extra",
		"SET a",
		"RENAME a",
		"EXPIRE a",
		"KEYS *",
		"DELETE a b c d",
		"GET  a",
	} {
		t.Run(line, func(t *testing.T) {
			_, err := Parse(line)
			assert.ErrorIs(t, err, dberr.ErrInvalidCommand)
		})
	}

	_, err := Parse("  FOO bar \n")
	assert.EqualError(t, err, "invalid command: FOO bar")
}

func TestParseInvalidTTL(t *testing.T) {
	cases := []struct {
		line  string
		field string
	}{
		{"SET a b c", "c"},
		{"SET k v abc", "abc"},
		{"SET k a b c", "b c"},
		{"SET k v -1", "-1"},
		{"SET k v 1.5", "1.5"},
		{"EXPIRE k soon", "soon"},
		{"EXPIRE k -5", "-5"},
		{"EXPIRE k 99999999999999999999", "99999999999999999999"},
		{"SET k v 9223372037", "9223372037"},
	}
	for _, tc := range cases {
		t.Run(tc.line, func(t *testing.T) {
			_, err := Parse(tc.line)
			assert.ErrorIs(t, err, dberr.ErrInvalidTTL)
			assert.EqualError(t, err, "invalid TTL: "+tc.field)
		})
	}
}

func TestParseLargestTTL(t *testing.T) {
	got, err := Parse("EXPIRE k 9223372036")
	require.NoError(t, err)
	assert.Equal(t, Expire{Key: "k", TTL: 9223372036}, got)
}
