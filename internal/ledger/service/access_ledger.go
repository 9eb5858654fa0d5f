package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodialabs/custodia/server/internal/ledger/address"
	"github.com/custodialabs/custodia/server/internal/ledger/store"
	"github.com/custodialabs/custodia/server/internal/ledger/types"
)

// AccessLedger tracks which identities may write, across two namespaces:
// self-initialized admin records and admin-delegated grant records.  Records
// are never deleted; revocation flips has_access and a later grant restores
// it.  Admin status is fixed at creation and never transferable.
type AccessLedger struct {
	store store.Store
}

func NewAccessLedger(st store.Store) *AccessLedger {
	return &AccessLedger{store: st}
}

// InitializeAdmin creates the admin record for caller.  Any identity may
// self-initialize exactly once; a second call fails with ErrAlreadyExists.
func (l *AccessLedger) InitializeAdmin(ctx context.Context, caller types.Identity) (types.Address, error) {
	rec := types.AccessRecord{
		Subject:   caller,
		HasAccess: true,
		GrantedBy: caller,
		IsAdmin:   true,
	}
	payload, err := types.Encode(rec)
	if err != nil {
		return types.Address{}, err
	}

	addr := address.ForAdmin(caller)
	if err := l.store.Create(ctx, store.Record{
		Address: addr,
		Kind:    types.KindAccess,
		Payload: payload,
	}); err != nil {
		return types.Address{}, fmt.Errorf("initialize admin: %w", err)
	}
	return addr, nil
}

// Grant gives subject write access, creating the grant record or reviving a
// revoked one.  admin must hold an active admin record.
func (l *AccessLedger) Grant(ctx context.Context, admin, subject types.Identity) (types.Address, error) {
	if err := l.requireAdmin(ctx, admin); err != nil {
		return types.Address{}, err
	}

	rec := types.AccessRecord{
		Subject:   subject,
		HasAccess: true,
		GrantedBy: admin,
		IsAdmin:   false,
	}
	payload, err := types.Encode(rec)
	if err != nil {
		return types.Address{}, err
	}

	addr := address.ForGrant(subject)
	next := store.Record{Address: addr, Kind: types.KindAccess, Payload: payload}

	cur, err := l.store.Get(ctx, addr)
	switch {
	case errors.Is(err, store.ErrNotFound):
		err = l.store.Create(ctx, next)
		if errors.Is(err, store.ErrAlreadyExists) {
			// Another grant for the same subject landed between the read
			// and the create.  Grant overwrites, so this is a retryable
			// race, not an occupied-address failure.
			err = ErrConflict
		}
	case err == nil:
		err = l.store.Put(ctx, next, cur.Version)
	}
	if err != nil {
		return types.Address{}, fmt.Errorf("grant access: %w", err)
	}
	return addr, nil
}

// Revoke withdraws subject's write access.  Fails with ErrNotFound if the
// subject has no grant record.
func (l *AccessLedger) Revoke(ctx context.Context, admin, subject types.Identity) error {
	if err := l.requireAdmin(ctx, admin); err != nil {
		return err
	}

	addr := address.ForGrant(subject)
	cur, err := l.store.Get(ctx, addr)
	if err != nil {
		return fmt.Errorf("revoke access: %w", err)
	}
	rec, err := types.DecodeAccess(cur.Kind, cur.Payload)
	if err != nil {
		return err
	}

	rec.HasAccess = false
	payload, err := types.Encode(rec)
	if err != nil {
		return err
	}
	if err := l.store.Put(ctx, store.Record{
		Address: addr,
		Kind:    types.KindAccess,
		Payload: payload,
	}, cur.Version); err != nil {
		return fmt.Errorf("revoke access: %w", err)
	}
	return nil
}

// HasWriteAccess reports whether identity holds any active access record,
// admin or grant.
func (l *AccessLedger) HasWriteAccess(ctx context.Context, identity types.Identity) (bool, error) {
	for _, addr := range []types.Address{address.ForAdmin(identity), address.ForGrant(identity)} {
		rec, err := l.activeRecord(ctx, addr)
		if err != nil {
			return false, err
		}
		if rec != nil && rec.HasAccess {
			return true, nil
		}
	}
	return false, nil
}

// AccessStatus is the public read view of one identity's access entries.
type AccessStatus struct {
	Admin          *types.AccessRecord
	Grant          *types.AccessRecord
	HasWriteAccess bool
}

// Status returns both of identity's access records, absent ones nil.
func (l *AccessLedger) Status(ctx context.Context, identity types.Identity) (AccessStatus, error) {
	admin, err := l.activeRecord(ctx, address.ForAdmin(identity))
	if err != nil {
		return AccessStatus{}, err
	}
	grant, err := l.activeRecord(ctx, address.ForGrant(identity))
	if err != nil {
		return AccessStatus{}, err
	}

	st := AccessStatus{Admin: admin, Grant: grant}
	st.HasWriteAccess = (admin != nil && admin.HasAccess) || (grant != nil && grant.HasAccess)
	return st, nil
}

// requireAdmin fails with ErrUnauthorized unless admin holds an active
// admin record.  A missing record is deliberately indistinguishable from a
// revoked or non-admin one.
func (l *AccessLedger) requireAdmin(ctx context.Context, admin types.Identity) error {
	rec, err := l.activeRecord(ctx, address.ForAdmin(admin))
	if err != nil {
		return err
	}
	if rec == nil || !rec.IsAdmin || !rec.HasAccess {
		return ErrUnauthorized
	}
	return nil
}

func (l *AccessLedger) activeRecord(ctx context.Context, addr types.Address) (*types.AccessRecord, error) {
	raw, err := l.store.Get(ctx, addr)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	rec, err := types.DecodeAccess(raw.Kind, raw.Payload)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
