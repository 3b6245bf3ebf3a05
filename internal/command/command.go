// Package command parses protocol lines into typed commands and executes
// them against a shared store.
package command

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/RezDev94/ferris-db/internal/dberr"
)

// Command is one validated request. The set of implementations is closed.
type Command interface {
	command()
}

type (
	Ping struct{}
	Get  struct{ Key string }
	// Set carries an optional TTL in seconds; nil means the key never expires.
	Set struct {
		Key   string
		Value string
		TTL   *uint64
	}
	Delete struct{ Key string }
	Rename struct{ OldKey, NewKey string }
	Expire struct {
		Key string
		TTL uint64
	}
	TTL   struct{ Key string }
	Keys  struct{}
	Count struct{}
	Clear struct{}
)

func (Ping) command()   {}
func (Get) command()    {}
func (Set) command()    {}
func (Delete) command() {}
func (Rename) command() {}
func (Expire) command() {}
func (TTL) command()    {}
func (Keys) command()   {}
func (Count) command()  {}
func (Clear) command()  {}

// maxTTL is the largest second count that still fits a time.Duration.
const maxTTL = uint64(math.MaxInt64 / int64(time.Second))

// Parse turns one input line into a Command. The line is split on single
// spaces into at most four fields, so a SET value cannot contain spaces:
// anything after the value is read as the TTL.
func Parse(line string) (Command, error) {
	line = strings.TrimSpace(line)
	parts := strings.SplitN(line, " ", 4)

	switch len(parts) {
	case 1:
		switch parts[0] {
		case "PING":
			return Ping{}, nil
		case "KEYS":
			return Keys{}, nil
		case "COUNT":
			return Count{}, nil
		case "CLEAR":
			return Clear{}, nil
		}
	case 2:
		switch parts[0] {
		case "GET":
			return Get{Key: parts[1]}, nil
		case "DELETE":
			return Delete{Key: parts[1]}, nil
		case "TTL":
			return TTL{Key: parts[1]}, nil
		}
	case 3:
		switch parts[0] {
		case "SET":
			return Set{Key: parts[1], Value: parts[2]}, nil
		case "RENAME":
			return Rename{OldKey: parts[1], NewKey: parts[2]}, nil
		case "EXPIRE":
			ttl, err := parseTTL(parts[2])
			if err != nil {
				return nil, err
			}
			return Expire{Key: parts[1], TTL: ttl}, nil
		}
	case 4:
		if parts[0] == "SET" {
			ttl, err := parseTTL(parts[3])
			if err != nil {
				return nil, err
			}
			return Set{Key: parts[1], Value: parts[2], TTL: &ttl}, nil
		}
	}
	return nil, dberr.BadCommand(line)
}

func parseTTL(field string) (uint64, error) {
	ttl, err := strconv.ParseUint(field, 10, 64)
	if err != nil || ttl > maxTTL {
		return 0, dberr.BadTTL(field)
	}
	return ttl, nil
}

func seconds(n uint64) time.Duration { return time.Duration(n) * time.Second }
