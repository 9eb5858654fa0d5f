package service

import (
	"errors"

	"github.com/custodialabs/custodia/server/internal/ledger/store"
)

// The ledger's failure taxonomy.  NotFound / AlreadyExists / Conflict are
// the store sentinels re-exported so callers match one package; Conflict is
// the only class a caller should retry, after re-reading state.
var (
	ErrUnauthorized  = errors.New("caller lacks required access")
	ErrNotFound      = store.ErrNotFound
	ErrAlreadyExists = store.ErrAlreadyExists
	ErrConflict      = store.ErrConflict
	ErrTooLong       = errors.New("field exceeds maximum length")
)
