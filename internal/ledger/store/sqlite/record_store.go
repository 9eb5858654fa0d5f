// Package sqlite persists ledger records in a single SQLite table, with all
// writes serialized through the db.Worker so every commit sees a consistent
// snapshot.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	dbpkg "github.com/custodialabs/custodia/server/internal/db"
	"github.com/custodialabs/custodia/server/internal/ledger/store"
	"github.com/custodialabs/custodia/server/internal/ledger/types"
)

type RecordStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewRecordStore(db *sql.DB, writer *dbpkg.Worker) *RecordStore {
	return &RecordStore{db: db, writer: writer}
}

func (s *RecordStore) Get(ctx context.Context, addr types.Address) (store.Record, error) {
	var (
		kind    string
		payload []byte
		version uint64
	)
	err := s.db.QueryRowContext(ctx, `
SELECT kind, payload, version FROM records WHERE address = ?;
`, addr[:]).Scan(&kind, &payload, &version)
	if err == sql.ErrNoRows {
		return store.Record{}, store.ErrNotFound
	}
	if err != nil {
		return store.Record{}, fmt.Errorf("get record: %w", err)
	}

	return store.Record{
		Address: addr,
		Kind:    types.Kind(kind),
		Payload: payload,
		Version: version,
	}, nil
}

func (s *RecordStore) Create(ctx context.Context, rec store.Record) error {
	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		return createInTx(ctx, tx, rec)
	})
}

func (s *RecordStore) Put(ctx context.Context, rec store.Record, expectVersion uint64) error {
	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		return putInTx(ctx, tx, rec, expectVersion)
	})
}

func (s *RecordStore) Append(ctx context.Context, parent store.Record, expectVersion uint64, child store.Record) error {
	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		// Parent first: a stale counter read should surface as Conflict
		// before the child insert can report a duplicate.
		if err := putInTx(ctx, tx, parent, expectVersion); err != nil {
			return err
		}
		return createInTx(ctx, tx, child)
	})
}

func createInTx(ctx context.Context, tx *sql.Tx, rec store.Record) error {
	// The writer serializes transactions, so check-then-insert cannot race.
	var one int
	err := tx.QueryRowContext(ctx,
		`SELECT 1 FROM records WHERE address = ?;`, rec.Address[:],
	).Scan(&one)
	if err == nil {
		return store.ErrAlreadyExists
	}
	if err != sql.ErrNoRows {
		return fmt.Errorf("create record probe: %w", err)
	}

	nowMs := time.Now().UTC().UnixMilli()
	if _, err := tx.ExecContext(ctx, `
INSERT INTO records(address, kind, payload, version, created_at_ms, updated_at_ms)
VALUES (?, ?, ?, 1, ?, ?);
`, rec.Address[:], string(rec.Kind), rec.Payload, nowMs, nowMs); err != nil {
		return fmt.Errorf("create record insert: %w", err)
	}
	return nil
}

func putInTx(ctx context.Context, tx *sql.Tx, rec store.Record, expectVersion uint64) error {
	nowMs := time.Now().UTC().UnixMilli()
	res, err := tx.ExecContext(ctx, `
UPDATE records SET payload = ?, version = version + 1, updated_at_ms = ?
WHERE address = ? AND version = ?;
`, rec.Payload, nowMs, rec.Address[:], expectVersion)
	if err != nil {
		return fmt.Errorf("put record update: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("put record rows: %w", err)
	}
	if n == 1 {
		return nil
	}

	// Zero rows touched: distinguish a missing record from a version race.
	var one int
	err = tx.QueryRowContext(ctx,
		`SELECT 1 FROM records WHERE address = ?;`, rec.Address[:],
	).Scan(&one)
	if err == sql.ErrNoRows {
		return store.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("put record probe: %w", err)
	}
	return store.ErrConflict
}
