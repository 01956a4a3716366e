// Package testutil provides shared helpers for tests that need a vault, an
// index and a session service.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/starford/orbit/internal/codec"
	"github.com/starford/orbit/internal/index"
	"github.com/starford/orbit/internal/sessionservice"
	"github.com/starford/orbit/internal/storage"
)

// Now is the fixed clock used by services built with Service.
var Now = time.Date(2024, 1, 15, 15, 0, 0, 0, time.UTC)

// TestDB creates a temporary SQLite index that is closed on cleanup.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	db, err := index.Open(filepath.Join(t.TempDir(), "orbit-test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

// TestVault creates a temporary vault directory with a storage provider.
func TestVault(t *testing.T) (string, *storage.FS) {
	t.Helper()
	root := t.TempDir()
	store, err := storage.NewFS(root)
	require.NoError(t, err)
	return root, store
}

// Env bundles a vault, its index and a service over both.
type Env struct {
	Root  string
	Store *storage.FS
	DB    *index.DB
	Svc   *sessionservice.Service
}

// Service builds an Env whose codec works in UTC and whose clock is Now.
func Service(t *testing.T) *Env {
	t.Helper()
	root, store := TestVault(t)
	db := TestDB(t)
	svc := sessionservice.New(store, db, codec.New(time.UTC),
		sessionservice.WithClock(func() time.Time { return Now }))
	return &Env{Root: root, Store: store, DB: db, Svc: svc}
}

// WriteFile writes a raw file into the vault, bypassing the service.
func (e *Env) WriteFile(t *testing.T, rel, content string) {
	t.Helper()
	p := filepath.Join(e.Root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
}

// LegacyDoc is a session document in the mode-based layout.
const LegacyDoc = "# Session: Coding - 2024-01-15 14:30\n\n" +
	"### 14:35 - @todo\n- [ ] write tests\n- [x] fix parser\n\n" +
	"### 14:50 - @note\ncache invalidation is tricky\n"
