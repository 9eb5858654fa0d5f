package service

import (
	"context"
	"fmt"

	"github.com/custodialabs/custodia/server/internal/ledger/address"
	"github.com/custodialabs/custodia/server/internal/ledger/store"
	"github.com/custodialabs/custodia/server/internal/ledger/types"
)

// EvidenceLedger owns the append-only custody log of each evidence item.
type EvidenceLedger struct {
	store  store.Store
	access *AccessLedger
}

func NewEvidenceLedger(st store.Store, access *AccessLedger) *EvidenceLedger {
	return &EvidenceLedger{store: st, access: access}
}

// AppendEvidenceLog commits the next custody entry for an evidence item.
// Sequence number and address derive from the item's current log count.
func (l *EvidenceLedger) AppendEvidenceLog(ctx context.Context, caller types.Identity, evidenceAddr types.Address, timestamp int64, action, handler, notes string) (types.Address, error) {
	if err := checkLen("action", action, MaxActionLen); err != nil {
		return types.Address{}, err
	}
	if err := checkLen("handler", handler, MaxHandlerLen); err != nil {
		return types.Address{}, err
	}
	if err := checkLen("notes", notes, MaxNotesLen); err != nil {
		return types.Address{}, err
	}

	ok, err := l.access.HasWriteAccess(ctx, caller)
	if err != nil {
		return types.Address{}, err
	}
	if !ok {
		return types.Address{}, ErrUnauthorized
	}

	parent, ev, err := l.getEvidence(ctx, evidenceAddr)
	if err != nil {
		return types.Address{}, err
	}

	seq := ev.LogCount
	logAddr := address.ForEvidenceLog(evidenceAddr, seq)
	log := types.EvidenceLogRecord{
		ParentEvidence: evidenceAddr,
		Timestamp:      timestamp,
		Action:         action,
		Handler:        handler,
		Notes:          notes,
		SequenceNumber: seq,
	}
	logPayload, err := types.Encode(log)
	if err != nil {
		return types.Address{}, err
	}

	ev.LogCount++
	ev.EvidenceLogRefs = append(ev.EvidenceLogRefs, logAddr)
	evPayload, err := types.Encode(ev)
	if err != nil {
		return types.Address{}, err
	}

	if err := l.store.Append(ctx,
		store.Record{Address: evidenceAddr, Kind: types.KindEvidence, Payload: evPayload},
		parent.Version,
		store.Record{Address: logAddr, Kind: types.KindEvidenceLog, Payload: logPayload},
	); err != nil {
		return types.Address{}, fmt.Errorf("append evidence log: %w", err)
	}
	return logAddr, nil
}

// GetEvidence fetches a committed evidence record.  Reads are public.
func (l *EvidenceLedger) GetEvidence(ctx context.Context, evidenceAddr types.Address) (types.EvidenceRecord, error) {
	_, ev, err := l.getEvidence(ctx, evidenceAddr)
	return ev, err
}

// ListEvidenceLogs returns the item's custody-log addresses in append order.
func (l *EvidenceLedger) ListEvidenceLogs(ctx context.Context, evidenceAddr types.Address) ([]types.Address, error) {
	_, ev, err := l.getEvidence(ctx, evidenceAddr)
	if err != nil {
		return nil, err
	}
	return ev.EvidenceLogRefs, nil
}

func (l *EvidenceLedger) getEvidence(ctx context.Context, evidenceAddr types.Address) (store.Record, types.EvidenceRecord, error) {
	raw, err := l.store.Get(ctx, evidenceAddr)
	if err != nil {
		return store.Record{}, types.EvidenceRecord{}, fmt.Errorf("resolve evidence: %w", err)
	}
	if raw.Kind != types.KindEvidence {
		return store.Record{}, types.EvidenceRecord{}, fmt.Errorf("resolve evidence: %w", ErrNotFound)
	}
	ev, err := types.DecodeEvidence(raw.Kind, raw.Payload)
	if err != nil {
		return store.Record{}, types.EvidenceRecord{}, err
	}
	return raw, ev, nil
}
