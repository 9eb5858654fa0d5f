package sqlite_test

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	_ "modernc.org/sqlite"

	dbpkg "github.com/custodialabs/custodia/server/internal/db"
	"github.com/custodialabs/custodia/server/internal/ledger/store/sqlite"
)

// openTestStore returns a RecordStore over a unique in-memory SQLite
// database with the same PRAGMAs and schema as production.  Everything is
// closed automatically when the test finishes.
func openTestStore(t *testing.T) *sqlite.RecordStore {
	t.Helper()

	// The shared-cache URI keeps the database alive for the lifetime of the
	// connection pool (important because sql.DB may close/reopen the
	// underlying conn).
	dsn := fmt.Sprintf(
		"file:test_%s?mode=memory&cache=shared&_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)",
		t.Name(),
	)

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("openTestStore: sql.Open: %v", err)
	}

	// Match production: single connection for SQLite safety.
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)

	if err := conn.Ping(); err != nil {
		conn.Close()
		t.Fatalf("openTestStore: ping: %v", err)
	}

	if err := dbpkg.Migrate(context.Background(), conn); err != nil {
		conn.Close()
		t.Fatalf("openTestStore: migrate: %v", err)
	}

	writer := dbpkg.NewWorker(conn)
	t.Cleanup(func() {
		writer.Close()
		conn.Close()
	})

	return sqlite.NewRecordStore(conn, writer)
}
