package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodialabs/custodia/server/internal/ledger/store"
	"github.com/custodialabs/custodia/server/internal/ledger/store/memory"
	"github.com/custodialabs/custodia/server/internal/ledger/types"
)

func addr(b byte) types.Address {
	var a types.Address
	a[0] = b
	return a
}

func rec(a types.Address, payload string) store.Record {
	return store.Record{Address: a, Kind: types.KindCase, Payload: []byte(payload)}
}

func TestCreateGet(t *testing.T) {
	ctx := context.Background()
	st := memory.New()

	require.NoError(t, st.Create(ctx, rec(addr(1), `{"v":1}`)))

	got, err := st.Get(ctx, addr(1))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), got.Version)
	assert.Equal(t, []byte(`{"v":1}`), got.Payload)

	_, err = st.Get(ctx, addr(2))
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestCreate_OccupiedAddress(t *testing.T) {
	ctx := context.Background()
	st := memory.New()

	require.NoError(t, st.Create(ctx, rec(addr(1), `{}`)))
	assert.ErrorIs(t, st.Create(ctx, rec(addr(1), `{}`)), store.ErrAlreadyExists)
}

func TestPut_VersionGate(t *testing.T) {
	ctx := context.Background()
	st := memory.New()

	require.NoError(t, st.Create(ctx, rec(addr(1), `{"v":1}`)))
	require.NoError(t, st.Put(ctx, rec(addr(1), `{"v":2}`), 1))

	got, err := st.Get(ctx, addr(1))
	require.NoError(t, err)
	assert.Equal(t, uint64(2), got.Version)

	// A writer holding the stale version must observe a conflict.
	assert.ErrorIs(t, st.Put(ctx, rec(addr(1), `{"v":9}`), 1), store.ErrConflict)
	assert.ErrorIs(t, st.Put(ctx, rec(addr(9), `{}`), 1), store.ErrNotFound)
}

func TestAppend_Atomic(t *testing.T) {
	ctx := context.Background()
	st := memory.New()

	require.NoError(t, st.Create(ctx, rec(addr(1), `{"n":0}`)))

	require.NoError(t, st.Append(ctx, rec(addr(1), `{"n":1}`), 1, rec(addr(2), `{}`)))

	parent, err := st.Get(ctx, addr(1))
	require.NoError(t, err)
	assert.Equal(t, uint64(2), parent.Version)
	_, err = st.Get(ctx, addr(2))
	require.NoError(t, err)
}

func TestAppend_FailureLeavesNoPartialState(t *testing.T) {
	ctx := context.Background()
	st := memory.New()

	require.NoError(t, st.Create(ctx, rec(addr(1), `{"n":0}`)))
	require.NoError(t, st.Create(ctx, rec(addr(2), `{}`)))

	// Child address occupied: parent must stay untouched.
	err := st.Append(ctx, rec(addr(1), `{"n":1}`), 1, rec(addr(2), `{}`))
	assert.ErrorIs(t, err, store.ErrAlreadyExists)

	parent, getErr := st.Get(ctx, addr(1))
	require.NoError(t, getErr)
	assert.Equal(t, uint64(1), parent.Version)
	assert.Equal(t, []byte(`{"n":0}`), parent.Payload)

	// Stale parent version: child must not appear.
	err = st.Append(ctx, rec(addr(1), `{"n":1}`), 9, rec(addr(3), `{}`))
	assert.ErrorIs(t, err, store.ErrConflict)
	_, getErr = st.Get(ctx, addr(3))
	assert.ErrorIs(t, getErr, store.ErrNotFound)

	// Missing parent entirely.
	err = st.Append(ctx, rec(addr(7), `{}`), 1, rec(addr(8), `{}`))
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Equal(t, 2, st.Len())
}

func TestGet_ReturnsCopy(t *testing.T) {
	ctx := context.Background()
	st := memory.New()

	require.NoError(t, st.Create(ctx, rec(addr(1), `{"v":1}`)))

	got, err := st.Get(ctx, addr(1))
	require.NoError(t, err)
	got.Payload[0] = 'X'

	again, err := st.Get(ctx, addr(1))
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"v":1}`), again.Payload, "mutating a fetched payload must not touch committed state")
}
