// Package store defines the key-addressed record store the ledger commits
// to.  Implementations must make Append atomic: the child record and the
// updated parent become visible together or not at all.
package store

import (
	"context"
	"errors"

	"github.com/custodialabs/custodia/server/internal/ledger/types"
)

var (
	// ErrNotFound: no committed record at the address.
	ErrNotFound = errors.New("record not found")

	// ErrAlreadyExists: creation attempted at an occupied address.
	ErrAlreadyExists = errors.New("record already exists")

	// ErrConflict: a versioned write raced with another writer.  Callers
	// may retry after re-reading state; the store never retries.
	ErrConflict = errors.New("record version conflict")
)

// Record is the stored envelope of one ledger record.  Payload is the JSON
// encoding of the typed record for Kind.  Version starts at 1 on creation
// and increments on every overwrite; it backs optimistic concurrency.
type Record struct {
	Address types.Address
	Kind    types.Kind
	Payload []byte
	Version uint64
}

// Store is a key-addressed record store with optimistic concurrency.
type Store interface {
	// Get returns the committed record at addr, or ErrNotFound.
	Get(ctx context.Context, addr types.Address) (Record, error)

	// Create commits a new record at rec.Address with Version 1.
	// Fails with ErrAlreadyExists if the address is occupied.
	Create(ctx context.Context, rec Record) error

	// Put overwrites the record at rec.Address, requiring the committed
	// version to equal expectVersion.  Fails with ErrNotFound if absent
	// and ErrConflict on a version mismatch.
	Put(ctx context.Context, rec Record, expectVersion uint64) error

	// Append atomically creates child and overwrites parent in one
	// commit, with the same preconditions as Create and Put.  On any
	// failure neither write is visible.
	Append(ctx context.Context, parent Record, expectVersion uint64, child Record) error
}
