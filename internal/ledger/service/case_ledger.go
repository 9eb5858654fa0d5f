package service

import (
	"context"
	"fmt"

	"github.com/custodialabs/custodia/server/internal/ledger/address"
	"github.com/custodialabs/custodia/server/internal/ledger/store"
	"github.com/custodialabs/custodia/server/internal/ledger/types"
)

// CaseLedger owns case records and their append-only scene-log and evidence
// reference sequences.  Every append commits one child record and one parent
// counter update in a single atomic step; a raced counter read surfaces as
// ErrConflict for the caller to retry.
type CaseLedger struct {
	store  store.Store
	access *AccessLedger
}

func NewCaseLedger(st store.Store, access *AccessLedger) *CaseLedger {
	return &CaseLedger{store: st, access: access}
}

// InitializeCase opens a new case under a caller-chosen case id.  The id
// keys the case's address, so a duplicate id fails with ErrAlreadyExists
// regardless of who calls.
func (l *CaseLedger) InitializeCase(ctx context.Context, caller types.Identity, caseID, location string) (types.Address, error) {
	if err := checkLen("case_id", caseID, MaxCaseIDLen); err != nil {
		return types.Address{}, err
	}
	if err := checkLen("location", location, MaxLocationLen); err != nil {
		return types.Address{}, err
	}
	if err := l.requireWriter(ctx, caller); err != nil {
		return types.Address{}, err
	}

	rec := types.CaseRecord{
		CaseID:    caseID,
		Location:  location,
		Authority: caller,
	}
	payload, err := types.Encode(rec)
	if err != nil {
		return types.Address{}, err
	}

	addr := address.ForCase(caseID)
	if err := l.store.Create(ctx, store.Record{
		Address: addr,
		Kind:    types.KindCase,
		Payload: payload,
	}); err != nil {
		return types.Address{}, fmt.Errorf("initialize case: %w", err)
	}
	return addr, nil
}

// AppendSceneLog commits the next scene-log entry for a case.  The entry's
// sequence number is the case's log count at commit time, and its address
// is derived from that sequence number — never from the timestamp.
func (l *CaseLedger) AppendSceneLog(ctx context.Context, caller types.Identity, caseAddr types.Address, timestamp int64, description, officerID string) (types.Address, error) {
	if err := checkLen("description", description, MaxDescriptionLen); err != nil {
		return types.Address{}, err
	}
	if err := checkLen("officer_id", officerID, MaxOfficerIDLen); err != nil {
		return types.Address{}, err
	}
	if err := l.requireWriter(ctx, caller); err != nil {
		return types.Address{}, err
	}

	parent, c, err := l.getCase(ctx, caseAddr)
	if err != nil {
		return types.Address{}, err
	}

	seq := c.LogCount
	logAddr := address.ForSceneLog(caseAddr, seq)
	log := types.SceneLogRecord{
		ParentCase:     caseAddr,
		Timestamp:      timestamp,
		Description:    description,
		OfficerID:      officerID,
		SequenceNumber: seq,
	}
	logPayload, err := types.Encode(log)
	if err != nil {
		return types.Address{}, err
	}

	c.LogCount++
	c.SceneLogRefs = append(c.SceneLogRefs, logAddr)
	casePayload, err := types.Encode(c)
	if err != nil {
		return types.Address{}, err
	}

	if err := l.store.Append(ctx,
		store.Record{Address: caseAddr, Kind: types.KindCase, Payload: casePayload},
		parent.Version,
		store.Record{Address: logAddr, Kind: types.KindSceneLog, Payload: logPayload},
	); err != nil {
		return types.Address{}, fmt.Errorf("append scene log: %w", err)
	}
	return logAddr, nil
}

// AppendEvidence records a new evidence item under a case.  The item's
// address keys on its caller-chosen evidence id, so a duplicate id within
// the case fails with ErrAlreadyExists.
func (l *CaseLedger) AppendEvidence(ctx context.Context, caller types.Identity, caseAddr types.Address, evidenceID, description, locationFound string) (types.Address, error) {
	if err := checkLen("evidence_id", evidenceID, MaxEvidenceIDLen); err != nil {
		return types.Address{}, err
	}
	if err := checkLen("description", description, MaxDescriptionLen); err != nil {
		return types.Address{}, err
	}
	if err := checkLen("location_found", locationFound, MaxLocationLen); err != nil {
		return types.Address{}, err
	}
	if err := l.requireWriter(ctx, caller); err != nil {
		return types.Address{}, err
	}

	parent, c, err := l.getCase(ctx, caseAddr)
	if err != nil {
		return types.Address{}, err
	}

	evAddr := address.ForEvidence(caseAddr, evidenceID)
	ev := types.EvidenceRecord{
		ParentCase:     caseAddr,
		EvidenceID:     evidenceID,
		Description:    description,
		LocationFound:  locationFound,
		SequenceNumber: c.EvidenceCount,
	}
	evPayload, err := types.Encode(ev)
	if err != nil {
		return types.Address{}, err
	}

	c.EvidenceCount++
	c.EvidenceRefs = append(c.EvidenceRefs, evAddr)
	casePayload, err := types.Encode(c)
	if err != nil {
		return types.Address{}, err
	}

	if err := l.store.Append(ctx,
		store.Record{Address: caseAddr, Kind: types.KindCase, Payload: casePayload},
		parent.Version,
		store.Record{Address: evAddr, Kind: types.KindEvidence, Payload: evPayload},
	); err != nil {
		return types.Address{}, fmt.Errorf("append evidence: %w", err)
	}
	return evAddr, nil
}

// GetCase fetches a committed case record.  Reads are public.
func (l *CaseLedger) GetCase(ctx context.Context, caseAddr types.Address) (types.CaseRecord, error) {
	_, c, err := l.getCase(ctx, caseAddr)
	return c, err
}

// ListSceneLogs returns the case's scene-log addresses in append order.
func (l *CaseLedger) ListSceneLogs(ctx context.Context, caseAddr types.Address) ([]types.Address, error) {
	_, c, err := l.getCase(ctx, caseAddr)
	if err != nil {
		return nil, err
	}
	return c.SceneLogRefs, nil
}

// ListEvidence returns the case's evidence addresses in append order.
func (l *CaseLedger) ListEvidence(ctx context.Context, caseAddr types.Address) ([]types.Address, error) {
	_, c, err := l.getCase(ctx, caseAddr)
	if err != nil {
		return nil, err
	}
	return c.EvidenceRefs, nil
}

func (l *CaseLedger) requireWriter(ctx context.Context, caller types.Identity) error {
	ok, err := l.access.HasWriteAccess(ctx, caller)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUnauthorized
	}
	return nil
}

// getCase resolves caseAddr to a committed case record.  An occupied
// address holding a different record kind reads as not found.
func (l *CaseLedger) getCase(ctx context.Context, caseAddr types.Address) (store.Record, types.CaseRecord, error) {
	raw, err := l.store.Get(ctx, caseAddr)
	if err != nil {
		return store.Record{}, types.CaseRecord{}, fmt.Errorf("resolve case: %w", err)
	}
	if raw.Kind != types.KindCase {
		return store.Record{}, types.CaseRecord{}, fmt.Errorf("resolve case: %w", ErrNotFound)
	}
	c, err := types.DecodeCase(raw.Kind, raw.Payload)
	if err != nil {
		return store.Record{}, types.CaseRecord{}, err
	}
	return raw, c, nil
}
