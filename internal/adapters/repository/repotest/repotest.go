// Package repotest opens throwaway SQLite stores for tests.
package repotest

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"github.com/okian/pragati/internal/adapters/repository"
)

// Store returns a migrated store backed by a private in-memory database that
// is closed when the test ends.
func Store(tb testing.TB) *repository.Store {
	tb.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000", uuid.NewString())
	return open(tb, dsn, 1)
}

// FileStore returns a migrated store on a WAL-mode database file in the test's
// temp dir, with a pool of conns connections so callers really run in parallel.
func FileStore(tb testing.TB, conns int) *repository.Store {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "pragati.db")
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=10000&_txlock=immediate", path)
	return open(tb, dsn, conns)
}

func open(tb testing.TB, dsn string, conns int) *repository.Store {
	tb.Helper()

	s, err := repository.Open(context.Background(), repository.DriverSQLite, dsn,
		repository.WithPool(conns, conns, 0))
	if err != nil {
		tb.Fatalf("open test store: %v", err)
	}
	tb.Cleanup(func() {
		_ = s.Close()
	})
	if err := s.Migrate(context.Background()); err != nil {
		tb.Fatalf("migrate test store: %v", err)
	}
	return s
}
