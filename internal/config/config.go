// Package config resolves server settings from .env, the environment and the
// command line.
package config

import (
	"net"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

const (
	DefaultHost = "127.0.0.1"
	DefaultPort = 6810
)

type Config struct {
	Host string `validate:"required"`
	Port int    `validate:"min=1,max=65535"`

	// Backend selects the persistence gateway.
	Backend  string `validate:"oneof=file bolt redis"`
	DataPath string `validate:"required_unless=Backend redis"`
	Bucket   string

	RedisAddr     string `validate:"required_if=Backend redis"`
	RedisPassword string
	RedisDB       int `validate:"min=0"`
	RedisKey      string

	// HTTPAddr enables the HTTP command endpoint when set.
	HTTPAddr string
}

// Addr is the TCP listen address.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Load reads .env (if present) and the environment, then takes the listening
// port from args[0]. A missing or unparseable port argument falls back to
// DefaultPort.
func Load(args []string) (Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return Config{}, errors.Wrap(err, "load .env")
		}
	}
	return FromEnv(args, os.Getenv)
}

// FromEnv builds a Config using getenv for lookups.
func FromEnv(args []string, getenv func(string) string) (Config, error) {
	backend := defaultString(getenv("FERRISDB_BACKEND"), "file")
	c := Config{
		Host:          defaultString(getenv("FERRISDB_HOST"), DefaultHost),
		Port:          portArg(args),
		Backend:       backend,
		DataPath:      defaultString(getenv("FERRISDB_DATA"), defaultDataPath(backend)),
		Bucket:        defaultString(getenv("FERRISDB_BOLT_BUCKET"), "ferris"),
		RedisAddr:     getenv("FERRISDB_REDIS_ADDR"),
		RedisPassword: getenv("FERRISDB_REDIS_PASS"),
		RedisKey:      defaultString(getenv("FERRISDB_REDIS_KEY"), "ferrisdb:snapshot"),
		HTTPAddr:      getenv("FERRISDB_HTTP_ADDR"),
	}
	if s := getenv("FERRISDB_REDIS_DB"); s != "" {
		db, err := strconv.Atoi(s)
		if err != nil {
			return Config{}, errors.Wrap(err, "parse FERRISDB_REDIS_DB")
		}
		c.RedisDB = db
	}
	if err := validator.New().Struct(c); err != nil {
		return Config{}, errors.Wrap(err, "invalid config")
	}
	return c, nil
}

func portArg(args []string) int {
	if len(args) == 0 {
		return DefaultPort
	}
	return ParsePort(args[0])
}

// ParsePort parses a TCP port, falling back to DefaultPort when s is not a
// number in 1..65535.
func ParsePort(s string) int {
	p, err := strconv.ParseUint(s, 10, 16)
	if err != nil || p == 0 {
		return DefaultPort
	}
	return int(p)
}

func defaultDataPath(backend string) string {
	switch backend {
	case "bolt":
		return "data.db"
	case "redis":
		return ""
	}
	return "data.json"
}

func defaultString(v, d string) string {
	if v == "" {
		return d
	}
	return v
}
