package persistence

import (
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"

	"github.com/RezDev94/ferris-db/internal/store"
)

// BoltGateway stores the snapshot in a bbolt bucket, one JSON-encoded entry
// per key. Each Save replaces the bucket inside a single transaction, so a
// crash never leaves a half-written snapshot.
type BoltGateway struct {
	db     *bolt.DB
	bucket []byte
}

var _ store.Gateway = (*BoltGateway)(nil)

type BoltOptions struct {
	// Bucket is the name of the Bolt bucket to use.
	Bucket string
}

// OpenBolt initializes or opens a bbolt database at path.
func OpenBolt(path string, opts BoltOptions) (*BoltGateway, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, errors.Wrapf(err, "open bolt %s", path)
	}
	bucket := []byte("ferris")
	if opts.Bucket != "" {
		bucket = []byte(opts.Bucket)
	}
	return &BoltGateway{db: db, bucket: bucket}, nil
}

// Close closes the underlying database.
func (g *BoltGateway) Close() error {
	if g == nil || g.db == nil {
		return nil
	}
	return g.db.Close()
}

func (g *BoltGateway) Load() (map[string]store.Entry, error) {
	data := make(map[string]store.Entry)
	err := g.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(g.bucket)
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			var e store.Entry
			if err := json.Unmarshal(v, &e); err != nil {
				return errors.Wrapf(err, "decode key %q", k)
			}
			data[string(k)] = e
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (g *BoltGateway) Save(data map[string]store.Entry) error {
	return g.db.Update(func(tx *bolt.Tx) error {
		if tx.Bucket(g.bucket) != nil {
			if err := tx.DeleteBucket(g.bucket); err != nil {
				return errors.Wrap(err, "drop bucket")
			}
		}
		b, err := tx.CreateBucket(g.bucket)
		if err != nil {
			return errors.Wrap(err, "create bucket")
		}
		for k, e := range data {
			v, err := json.Marshal(e)
			if err != nil {
				return errors.Wrapf(err, "encode key %q", k)
			}
			if err := b.Put([]byte(k), v); err != nil {
				return err
			}
		}
		return nil
	})
}
