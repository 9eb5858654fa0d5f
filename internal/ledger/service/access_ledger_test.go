package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodialabs/custodia/server/internal/ledger/address"
	"github.com/custodialabs/custodia/server/internal/ledger/service"
	"github.com/custodialabs/custodia/server/internal/ledger/store"
	"github.com/custodialabs/custodia/server/internal/ledger/store/memory"
	"github.com/custodialabs/custodia/server/internal/ledger/types"
)

func ident(b byte) types.Identity {
	var id types.Identity
	id[0] = b
	return id
}

// newTestGateway builds a Gateway over the in-memory store.
func newTestGateway() *service.Gateway {
	return service.NewGateway(memory.New())
}

func TestInitializeAdmin_Once(t *testing.T) {
	ctx := context.Background()
	g := newTestGateway()
	admin := ident(1)

	addr, err := g.Access.InitializeAdmin(ctx, admin)
	require.NoError(t, err)
	require.False(t, addr.IsZero())

	_, err = g.Access.InitializeAdmin(ctx, admin)
	assert.ErrorIs(t, err, service.ErrAlreadyExists)

	ok, err := g.Access.HasWriteAccess(ctx, admin)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestGrant_RequiresActiveAdmin(t *testing.T) {
	ctx := context.Background()
	g := newTestGateway()
	admin, user, stranger := ident(1), ident(2), ident(3)

	_, err := g.Access.Grant(ctx, stranger, user)
	assert.ErrorIs(t, err, service.ErrUnauthorized)

	_, err = g.Access.InitializeAdmin(ctx, admin)
	require.NoError(t, err)

	_, err = g.Access.Grant(ctx, admin, user)
	require.NoError(t, err)

	st, err := g.Access.Status(ctx, user)
	require.NoError(t, err)
	assert.True(t, st.HasWriteAccess)
	require.NotNil(t, st.Grant)
	assert.Equal(t, admin, st.Grant.GrantedBy)
	assert.False(t, st.Grant.IsAdmin, "granted users never become admins")
	assert.Nil(t, st.Admin)

	// A granted user still cannot grant.
	_, err = g.Access.Grant(ctx, user, stranger)
	assert.ErrorIs(t, err, service.ErrUnauthorized)
}

func TestRevoke_FlipsAccessAndIsRegrantable(t *testing.T) {
	ctx := context.Background()
	g := newTestGateway()
	admin, user := ident(1), ident(2)

	_, err := g.Access.InitializeAdmin(ctx, admin)
	require.NoError(t, err)
	_, err = g.Access.Grant(ctx, admin, user)
	require.NoError(t, err)

	require.NoError(t, g.Access.Revoke(ctx, admin, user))

	ok, err := g.Access.HasWriteAccess(ctx, user)
	require.NoError(t, err)
	assert.False(t, ok)

	// The record survives revocation; only has_access flips.
	st, err := g.Access.Status(ctx, user)
	require.NoError(t, err)
	require.NotNil(t, st.Grant)
	assert.False(t, st.Grant.HasAccess)

	// Re-grant restores write ability.
	_, err = g.Access.Grant(ctx, admin, user)
	require.NoError(t, err)
	ok, err = g.Access.HasWriteAccess(ctx, user)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRevoke_ErrorCases(t *testing.T) {
	ctx := context.Background()
	g := newTestGateway()
	admin, user := ident(1), ident(2)

	_, err := g.Access.InitializeAdmin(ctx, admin)
	require.NoError(t, err)

	// No grant record to revoke.
	assert.ErrorIs(t, g.Access.Revoke(ctx, admin, user), service.ErrNotFound)

	// Admin records live in their own namespace; Revoke only touches grants.
	assert.ErrorIs(t, g.Access.Revoke(ctx, admin, admin), service.ErrNotFound)

	_, err = g.Access.Grant(ctx, admin, user)
	require.NoError(t, err)
	assert.ErrorIs(t, g.Access.Revoke(ctx, user, user), service.ErrUnauthorized)
}

// staleGrantStore serves a snapshot where one address reads as absent even
// though it is committed, reproducing two Grant calls racing through the
// read-then-create window for the same new subject.
type staleGrantStore struct {
	store.Store
	hidden types.Address
}

func (s staleGrantStore) Get(ctx context.Context, addr types.Address) (store.Record, error) {
	if addr == s.hidden {
		return store.Record{}, store.ErrNotFound
	}
	return s.Store.Get(ctx, addr)
}

func TestGrant_RacedCreateSurfacesConflict(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()
	admin, user := ident(1), ident(2)

	g := service.NewGateway(mem)
	_, err := g.Access.InitializeAdmin(ctx, admin)
	require.NoError(t, err)
	_, err = g.Access.Grant(ctx, admin, user)
	require.NoError(t, err)

	// A second granter read before the first one committed: its create
	// must surface the retryable class, not already-exists — Grant has
	// overwrite semantics, so the address being taken is not a dead end.
	stale := service.NewGateway(staleGrantStore{Store: mem, hidden: address.ForGrant(user)})
	_, err = stale.Access.Grant(ctx, admin, user)
	assert.ErrorIs(t, err, service.ErrConflict)
	assert.NotErrorIs(t, err, service.ErrAlreadyExists)
}

func TestStatus_UnknownIdentity(t *testing.T) {
	ctx := context.Background()
	g := newTestGateway()

	st, err := g.Access.Status(ctx, ident(9))
	require.NoError(t, err)
	assert.Nil(t, st.Admin)
	assert.Nil(t, st.Grant)
	assert.False(t, st.HasWriteAccess)
}
