package persistence

import (
	"encoding/json"

	"github.com/go-redis/redis/v7"
	"github.com/pkg/errors"

	"github.com/RezDev94/ferris-db/internal/store"
)

// RedisGateway keeps the snapshot as one JSON document under Key.
type RedisGateway struct {
	client *redis.Client
	key    string
}

var _ store.Gateway = (*RedisGateway)(nil)

type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Key      string
}

// DialRedis connects and pings the server before returning.
func DialRedis(opts RedisOptions) (*RedisGateway, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping().Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrapf(err, "ping redis %s", opts.Addr)
	}
	key := opts.Key
	if key == "" {
		key = "ferrisdb:snapshot"
	}
	return &RedisGateway{client: client, key: key}, nil
}

func (g *RedisGateway) Close() error { return g.client.Close() }

// Load returns an empty key space when no snapshot has been saved yet.
func (g *RedisGateway) Load() (map[string]store.Entry, error) {
	b, err := g.client.Get(g.key).Bytes()
	if err == redis.Nil {
		return map[string]store.Entry{}, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get %s", g.key)
	}
	data := make(map[string]store.Entry)
	if err := json.Unmarshal(b, &data); err != nil {
		return nil, errors.Wrapf(err, "decode %s", g.key)
	}
	return data, nil
}

func (g *RedisGateway) Save(data map[string]store.Entry) error {
	b, err := json.Marshal(data)
	if err != nil {
		return errors.Wrap(err, "encode snapshot")
	}
	if err := g.client.Set(g.key, b, 0).Err(); err != nil {
		return errors.Wrapf(err, "set %s", g.key)
	}
	return nil
}
