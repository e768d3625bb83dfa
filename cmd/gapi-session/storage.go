package main

import (
	"os"
	"path/filepath"

	"github.com/jrsteele09/go-gapi-session/internal/config"
	"github.com/jrsteele09/go-gapi-session/internal/errors"
	"github.com/jrsteele09/go-gapi-session/storage"
	"github.com/jrsteele09/go-gapi-session/storage/memory"
	"github.com/jrsteele09/go-gapi-session/storage/redisstore"
	"github.com/jrsteele09/go-gapi-session/storage/securefile"
	"github.com/jrsteele09/go-gapi-session/storage/sqlitestore"
)

type storeConfig interface {
	config.StorageConfig
	config.SecurityConfig
}

func openStore(c storeConfig) (storage.Store, error) {
	switch c.GetStorageDriver() {
	case config.StorageMemory:
		return memory.New(), nil
	case config.StorageSecureFile:
		if c.GetStoragePassphrase() == "" {
			return nil, errors.ErrMissingPassphrase
		}
		if err := ensureDir(c.GetStoragePath()); err != nil {
			return nil, err
		}
		s, err := securefile.Open(c.GetStoragePath(), c.GetStoragePassphrase())
		if err != nil {
			return nil, errors.Wrapf(err, "open securefile store %s", c.GetStoragePath())
		}
		return s, nil
	case config.StorageSQLite:
		if err := ensureDir(c.GetStoragePath()); err != nil {
			return nil, err
		}
		s, err := sqlitestore.Open(c.GetStoragePath())
		if err != nil {
			return nil, errors.Wrapf(err, "open sqlite store %s", c.GetStoragePath())
		}
		return s, nil
	case config.StorageRedis:
		s, err := redisstore.Dial(c.GetRedisAddr(), c.GetRedisPassword(), c.GetRedisDB(), redisstore.WithPrefix(c.GetRedisPrefix()))
		if err != nil {
			return nil, errors.Wrapf(err, "open redis store %s", c.GetRedisAddr())
		}
		return s, nil
	}
	return nil, errors.Wrapf(errors.ErrUnsupportedStorage, "driver %q", c.GetStorageDriver())
}

func ensureDir(path string) error {
	return errors.Wrapf(os.MkdirAll(filepath.Dir(path), 0o700), "create storage dir")
}
