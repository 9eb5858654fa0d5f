// Package memory is an in-memory Store for tests and dev environments.
package memory

import (
	"context"
	"sync"

	"github.com/custodialabs/custodia/server/internal/ledger/store"
	"github.com/custodialabs/custodia/server/internal/ledger/types"
)

type Store struct {
	mu   sync.Mutex
	data map[types.Address]store.Record
}

func New() *Store {
	return &Store{
		data: make(map[types.Address]store.Record),
	}
}

func (s *Store) Get(_ context.Context, addr types.Address) (store.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.data[addr]
	if !ok {
		return store.Record{}, store.ErrNotFound
	}
	return cloneRecord(rec), nil
}

func (s *Store) Create(_ context.Context, rec store.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createLocked(rec)
}

func (s *Store) Put(_ context.Context, rec store.Record, expectVersion uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.putLocked(rec, expectVersion)
}

func (s *Store) Append(_ context.Context, parent store.Record, expectVersion uint64, child store.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Validate both writes before applying either, so a failure leaves
	// the map untouched.
	if _, ok := s.data[child.Address]; ok {
		return store.ErrAlreadyExists
	}
	cur, ok := s.data[parent.Address]
	if !ok {
		return store.ErrNotFound
	}
	if cur.Version != expectVersion {
		return store.ErrConflict
	}

	if err := s.putLocked(parent, expectVersion); err != nil {
		return err
	}
	return s.createLocked(child)
}

func (s *Store) createLocked(rec store.Record) error {
	if _, ok := s.data[rec.Address]; ok {
		return store.ErrAlreadyExists
	}
	rec.Version = 1
	s.data[rec.Address] = cloneRecord(rec)
	return nil
}

func (s *Store) putLocked(rec store.Record, expectVersion uint64) error {
	cur, ok := s.data[rec.Address]
	if !ok {
		return store.ErrNotFound
	}
	if cur.Version != expectVersion {
		return store.ErrConflict
	}
	rec.Version = expectVersion + 1
	s.data[rec.Address] = cloneRecord(rec)
	return nil
}

// Len returns the number of committed records.  Test-only helper.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data)
}

func cloneRecord(rec store.Record) store.Record {
	out := rec
	out.Payload = make([]byte, len(rec.Payload))
	copy(out.Payload, rec.Payload)
	return out
}
