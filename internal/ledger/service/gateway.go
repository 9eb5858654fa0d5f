package service

import (
	"context"

	"github.com/custodialabs/custodia/server/internal/ledger/store"
	"github.com/custodialabs/custodia/server/internal/ledger/types"
)

// Gateway is the single surface handed to the transport layer.  Every write
// flows through one of its ledgers, which check authorization before any
// address derivation and commit each append as one atomic child-plus-counter
// step.  Reads are public and never mutate state.
type Gateway struct {
	Access   *AccessLedger
	Cases    *CaseLedger
	Evidence *EvidenceLedger

	store store.Store
}

func NewGateway(st store.Store) *Gateway {
	access := NewAccessLedger(st)
	return &Gateway{
		Access:   access,
		Cases:    NewCaseLedger(st, access),
		Evidence: NewEvidenceLedger(st, access),
		store:    st,
	}
}

// FetchRecord resolves an address to its committed record, decoded to the
// concrete type for its kind.  The returned value is one of the record
// structs from the types package, never an untyped map.
func (g *Gateway) FetchRecord(ctx context.Context, addr types.Address) (types.Kind, any, error) {
	raw, err := g.store.Get(ctx, addr)
	if err != nil {
		return "", nil, err
	}

	var rec any
	switch raw.Kind {
	case types.KindAccess:
		rec, err = types.DecodeAccess(raw.Kind, raw.Payload)
	case types.KindCase:
		rec, err = types.DecodeCase(raw.Kind, raw.Payload)
	case types.KindSceneLog:
		rec, err = types.DecodeSceneLog(raw.Kind, raw.Payload)
	case types.KindEvidence:
		rec, err = types.DecodeEvidence(raw.Kind, raw.Payload)
	case types.KindEvidenceLog:
		rec, err = types.DecodeEvidenceLog(raw.Kind, raw.Payload)
	default:
		return "", nil, ErrNotFound
	}
	if err != nil {
		return "", nil, err
	}
	return raw.Kind, rec, nil
}
