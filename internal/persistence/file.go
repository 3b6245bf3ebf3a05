// Package persistence provides store.Gateway adapters: a JSON file (the
// default), a bbolt database and a Redis key.
package persistence

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"

	"github.com/RezDev94/ferris-db/internal/store"
)

// FileGateway keeps the snapshot as one JSON document at Path.
// Save overwrites the file in place; an interrupted write can leave it
// truncated, which the next Load treats like a missing file.
type FileGateway struct {
	Path string
}

var _ store.Gateway = (*FileGateway)(nil)

func NewFileGateway(path string) *FileGateway {
	return &FileGateway{Path: path}
}

func (f *FileGateway) Load() (map[string]store.Entry, error) {
	b, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, errors.Wrapf(err, "read snapshot %s", f.Path)
	}
	data := make(map[string]store.Entry)
	if err := json.Unmarshal(b, &data); err != nil {
		return nil, errors.Wrapf(err, "decode snapshot %s", f.Path)
	}
	return data, nil
}

func (f *FileGateway) Save(data map[string]store.Entry) error {
	b, err := json.Marshal(data)
	if err != nil {
		return errors.Wrap(err, "encode snapshot")
	}
	if err := os.WriteFile(f.Path, b, 0o644); err != nil {
		return errors.Wrapf(err, "write snapshot %s", f.Path)
	}
	return nil
}
