package command

import (
	"errors"
	"strconv"
	"strings"
	"sync"

	"github.com/RezDev94/ferris-db/internal/store"
)

var errUnhandled = errors.New("unhandled command")

// Response framing.
const (
	EndMarker   = "END"
	EmptyMarker = "(empty)"
	NoTTLMarker = "(no ttl)"
	ErrorPrefix = "ERROR: "
)

// Executor serializes every command against one Store. The lock is held for
// the whole command, persistence write included, so no command observes the
// store while another one is mid-save.
type Executor struct {
	mu    sync.Mutex
	store *store.Store
}

func NewExecutor(s *store.Store) *Executor {
	return &Executor{store: s}
}

// Execute parses line, runs it and returns the complete response text,
// newline-terminated.
func (e *Executor) Execute(line string) string {
	cmd, err := Parse(line)
	if err != nil {
		return errorLine(err)
	}
	return e.Run(cmd)
}

// Run executes an already parsed command.
func (e *Executor) Run(cmd Command) string {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := e.store
	switch c := cmd.(type) {
	case Ping:
		return "PONG\n"
	case Get:
		v, err := s.Get(c.Key)
		if err != nil {
			return errorLine(err)
		}
		return v + "\n"
	case Set:
		var err error
		if c.TTL != nil {
			err = s.SetWithTTL(c.Key, c.Value, seconds(*c.TTL))
		} else {
			err = s.Set(c.Key, c.Value)
		}
		return okOr(err)
	case Delete:
		return okOr(s.Delete(c.Key))
	case Rename:
		return okOr(s.Rename(c.OldKey, c.NewKey))
	case Expire:
		return okOr(s.Expire(c.Key, seconds(c.TTL)))
	case TTL:
		secs, ok, err := s.TTL(c.Key)
		if err != nil {
			return errorLine(err)
		}
		if !ok {
			return NoTTLMarker + "\n" + EndMarker + "\n"
		}
		return strconv.FormatUint(secs, 10) + "\n"
	case Keys:
		return renderKeys(s.Keys())
	case Count:
		return strconv.Itoa(s.Count()) + "\n"
	case Clear:
		return okOr(s.Clear())
	}
	return errorLine(errUnhandled)
}

func renderKeys(keys []string) string {
	if len(keys) == 0 {
		return EmptyMarker + "\n" + EndMarker + "\n"
	}
	var sb strings.Builder
	for _, k := range keys {
		sb.WriteString(k)
		sb.WriteByte('\n')
	}
	sb.WriteString(EndMarker)
	sb.WriteByte('\n')
	return sb.String()
}

func okOr(err error) string {
	if err != nil {
		return errorLine(err)
	}
	return "OK\n"
}

func errorLine(err error) string {
	return ErrorPrefix + err.Error() + "\n"
}
