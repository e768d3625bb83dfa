// Package securefile persists key/value pairs in a single file encrypted with NaCl secretbox.
// The encryption key is derived from a passphrase with scrypt; the salt is kept in the file.
package securefile

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/jrsteele09/go-gapi-session/storage"
	"golang.org/x/crypto/nacl/secretbox"
	"golang.org/x/crypto/scrypt"
)

const (
	saltLength  = 16
	nonceLength = 24
	keyLength   = 32

	defaultScryptN = 1 << 15
	scryptR        = 8
	scryptP        = 1
)

var (
	ErrDecrypt = errors.New("securefile: unable to decrypt store, wrong passphrase or corrupt file")
)

var _ storage.Store = (*Store)(nil)

type envelope struct {
	Salt []byte `json:"salt"`
	Box  []byte `json:"box"`
}

// Store is an encrypted, file-backed storage.Store. Every write rewrites the whole file.
type Store struct {
	path    string
	salt    []byte
	key     [keyLength]byte
	values  map[string]string
	scryptN int
	lock    sync.RWMutex
}

// Option configures a Store.
type Option func(*Store)

// WithScryptCost overrides the scrypt N parameter. Lower values are only suitable for tests.
func WithScryptCost(n int) Option {
	return func(s *Store) {
		s.scryptN = n
	}
}

// Open loads the store at path, creating an empty one if the file does not exist.
func Open(path, passphrase string, options ...Option) (*Store, error) {
	if path == "" {
		return nil, errors.New("[securefile.Open] path is required")
	}
	if passphrase == "" {
		return nil, errors.New("[securefile.Open] passphrase is required")
	}

	s := &Store{
		path:    path,
		values:  make(map[string]string),
		scryptN: defaultScryptN,
	}
	for _, opt := range options {
		opt(s)
	}

	raw, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		s.salt = make([]byte, saltLength)
		if _, err := io.ReadFull(rand.Reader, s.salt); err != nil {
			return nil, fmt.Errorf("securefile: generating salt: %w", err)
		}
		if err := s.deriveKey(passphrase); err != nil {
			return nil, err
		}
		return s, nil
	case err != nil:
		return nil, fmt.Errorf("securefile: reading %s: %w", path, err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("securefile: parsing %s: %w", path, err)
	}
	s.salt = env.Salt
	if err := s.deriveKey(passphrase); err != nil {
		return nil, err
	}
	if err := s.open(env.Box); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) deriveKey(passphrase string) error {
	derived, err := scrypt.Key([]byte(passphrase), s.salt, s.scryptN, scryptR, scryptP, keyLength)
	if err != nil {
		return fmt.Errorf("securefile: deriving key: %w", err)
	}
	copy(s.key[:], derived)
	return nil
}

func (s *Store) open(box []byte) error {
	if len(box) < nonceLength {
		return ErrDecrypt
	}
	var nonce [nonceLength]byte
	copy(nonce[:], box[:nonceLength])
	plain, ok := secretbox.Open(nil, box[nonceLength:], &nonce, &s.key)
	if !ok {
		return ErrDecrypt
	}
	if err := json.Unmarshal(plain, &s.values); err != nil {
		return fmt.Errorf("securefile: decoding values: %w", err)
	}
	return nil
}

// flush must be called with the write lock held.
func (s *Store) flush() error {
	plain, err := json.Marshal(s.values)
	if err != nil {
		return fmt.Errorf("securefile: encoding values: %w", err)
	}

	var nonce [nonceLength]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return fmt.Errorf("securefile: generating nonce: %w", err)
	}
	box := secretbox.Seal(nonce[:], plain, &nonce, &s.key)

	raw, err := json.Marshal(envelope{Salt: s.salt, Box: box})
	if err != nil {
		return fmt.Errorf("securefile: encoding envelope: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".securefile-*")
	if err != nil {
		return fmt.Errorf("securefile: creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("securefile: writing temp file: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("securefile: chmod temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("securefile: closing temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("securefile: replacing %s: %w", s.path, err)
	}
	return nil
}

func (s *Store) Get(key string) (string, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	value, ok := s.values[key]
	if !ok {
		return "", storage.ErrKeyNotFound
	}
	return value, nil
}

func (s *Store) Set(key, value string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	previous, existed := s.values[key]
	s.values[key] = value
	if err := s.flush(); err != nil {
		if existed {
			s.values[key] = previous
		} else {
			delete(s.values, key)
		}
		return err
	}
	return nil
}

func (s *Store) Remove(key string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	previous, ok := s.values[key]
	if !ok {
		return nil
	}
	delete(s.values, key)
	if err := s.flush(); err != nil {
		s.values[key] = previous
		return err
	}
	return nil
}
