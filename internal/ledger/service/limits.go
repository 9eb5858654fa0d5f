package service

import "fmt"

// Maximum lengths (bytes) for caller-supplied string fields.  Contents are
// otherwise stored verbatim — attachment locators and the like are opaque
// to the ledger.
const (
	MaxCaseIDLen      = 100
	MaxEvidenceIDLen  = 100
	MaxDescriptionLen = 200
	MaxLocationLen    = 100
	MaxOfficerIDLen   = 50
	MaxActionLen      = 100
	MaxHandlerLen     = 50
	MaxNotesLen       = 200
)

func checkLen(field, value string, max int) error {
	if len(value) > max {
		return fmt.Errorf("%s (%d > %d bytes): %w", field, len(value), max, ErrTooLong)
	}
	return nil
}
