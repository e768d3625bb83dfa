package sqlitestore_test

import (
	"path/filepath"
	"testing"

	"github.com/jrsteele09/go-gapi-session/storage"
	"github.com/jrsteele09/go-gapi-session/storage/sqlitestore"
	"github.com/stretchr/testify/require"
)

func TestStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.db")

	s, err := sqlitestore.Open(path)
	require.NoError(t, err)

	_, err = s.Get("gapi.email")
	require.ErrorIs(t, err, storage.ErrKeyNotFound)

	require.NoError(t, s.Set("gapi.email", "a@example.com"))
	require.NoError(t, s.Set("gapi.email", "b@example.com"))
	require.NoError(t, s.Close())

	s, err = sqlitestore.Open(path)
	require.NoError(t, err)
	defer s.Close()

	v, err := s.Get("gapi.email")
	require.NoError(t, err)
	require.Equal(t, "b@example.com", v)

	require.NoError(t, s.Remove("gapi.email"))
	require.NoError(t, s.Remove("gapi.email"))
	_, err = s.Get("gapi.email")
	require.ErrorIs(t, err, storage.ErrKeyNotFound)
}

func TestOpen_RequiresPath(t *testing.T) {
	_, err := sqlitestore.Open("")
	require.Error(t, err)
}
