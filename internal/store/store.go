// Package store holds the authoritative key space and writes it through a
// Gateway after every mutation.
package store

import (
	"time"

	"github.com/RezDev94/ferris-db/internal/dberr"
	"github.com/RezDev94/ferris-db/internal/logger"
)

// Store is the in-memory key space. It is not safe for concurrent use;
// callers serialize access (see command.Executor).
//
// Expired entries are never purged or hidden: Get, Keys and Count report
// them until they are deleted, and TTL reports zero for them.
type Store struct {
	data    map[string]Entry
	gateway Gateway
	now     func() time.Time
}

type Option func(*Store)

// WithClock replaces time.Now for expiry arithmetic.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New seeds a Store from g. A failed load starts with an empty key space.
func New(g Gateway, opts ...Option) *Store {
	s := &Store{gateway: g, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	data, err := g.Load()
	if err != nil {
		logger.Warnf("snapshot load failed, starting empty: %v", err)
		data = nil
	}
	if data == nil {
		data = make(map[string]Entry)
	}
	s.data = data
	return s
}

func (s *Store) save() error {
	return dberr.Wrap(s.gateway.Save(s.data))
}

// Set inserts a key that never expires.
func (s *Store) Set(key, value string) error {
	return s.insert(key, Entry{Value: value})
}

// SetWithTTL inserts a key that expires ttl from now.
func (s *Store) SetWithTTL(key, value string, ttl time.Duration) error {
	exp := s.now().Add(ttl)
	return s.insert(key, Entry{Value: value, Expiry: &exp})
}

func (s *Store) insert(key string, e Entry) error {
	if _, ok := s.data[key]; ok {
		return dberr.Exists(key)
	}
	s.data[key] = e
	return s.save()
}

func (s *Store) Get(key string) (string, error) {
	e, ok := s.data[key]
	if !ok {
		return "", dberr.NotFound(key)
	}
	return e.Value, nil
}

// Entry returns a copy of the record for key, expiry included.
func (s *Store) Entry(key string) (Entry, bool) {
	e, ok := s.data[key]
	if ok && e.Expiry != nil {
		exp := *e.Expiry
		e.Expiry = &exp
	}
	return e, ok
}

func (s *Store) Delete(key string) error {
	if _, ok := s.data[key]; !ok {
		return dberr.NotFound(key)
	}
	delete(s.data, key)
	return s.save()
}

// Rename moves oldKey's entry, expiry included, to newKey.
func (s *Store) Rename(oldKey, newKey string) error {
	e, ok := s.data[oldKey]
	if !ok {
		return dberr.NotFound(oldKey)
	}
	if _, ok := s.data[newKey]; ok {
		return dberr.Exists(newKey)
	}
	delete(s.data, oldKey)
	s.data[newKey] = e
	return s.save()
}

// Expire sets key to expire ttl from now, replacing any previous expiry.
func (s *Store) Expire(key string, ttl time.Duration) error {
	e, ok := s.data[key]
	if !ok {
		return dberr.NotFound(key)
	}
	exp := s.now().Add(ttl)
	e.Expiry = &exp
	s.data[key] = e
	return s.save()
}

// TTL returns the whole seconds left before key expires. ok is false when
// the key has no expiry. Past expiries report zero.
func (s *Store) TTL(key string) (secs uint64, ok bool, err error) {
	e, found := s.data[key]
	if !found {
		return 0, false, dberr.NotFound(key)
	}
	if e.Expiry == nil {
		return 0, false, nil
	}
	return e.remaining(s.now()), true, nil
}

func (s *Store) Keys() []string {
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	return keys
}

func (s *Store) Count() int { return len(s.data) }

// Clear drops every key and always writes a snapshot.
func (s *Store) Clear() error {
	clear(s.data)
	return s.save()
}
