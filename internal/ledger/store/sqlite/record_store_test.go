package sqlite_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodialabs/custodia/server/internal/ledger/store"
	"github.com/custodialabs/custodia/server/internal/ledger/types"
)

func addr(b byte) types.Address {
	var a types.Address
	a[0] = b
	return a
}

func rec(a types.Address, kind types.Kind, payload string) store.Record {
	return store.Record{Address: a, Kind: kind, Payload: []byte(payload)}
}

func TestRecordStore_CreateGet(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)

	require.NoError(t, st.Create(ctx, rec(addr(1), types.KindCase, `{"case_id":"CASE001"}`)))

	got, err := st.Get(ctx, addr(1))
	require.NoError(t, err)
	assert.Equal(t, types.KindCase, got.Kind)
	assert.Equal(t, uint64(1), got.Version)
	assert.JSONEq(t, `{"case_id":"CASE001"}`, string(got.Payload))

	_, err = st.Get(ctx, addr(2))
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRecordStore_CreateOccupied(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)

	require.NoError(t, st.Create(ctx, rec(addr(1), types.KindCase, `{}`)))
	assert.ErrorIs(t, st.Create(ctx, rec(addr(1), types.KindCase, `{}`)), store.ErrAlreadyExists)
}

func TestRecordStore_PutVersionGate(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)

	require.NoError(t, st.Create(ctx, rec(addr(1), types.KindCase, `{"n":0}`)))
	require.NoError(t, st.Put(ctx, rec(addr(1), types.KindCase, `{"n":1}`), 1))

	got, err := st.Get(ctx, addr(1))
	require.NoError(t, err)
	assert.Equal(t, uint64(2), got.Version)

	assert.ErrorIs(t, st.Put(ctx, rec(addr(1), types.KindCase, `{"n":9}`), 1), store.ErrConflict)
	assert.ErrorIs(t, st.Put(ctx, rec(addr(9), types.KindCase, `{}`), 1), store.ErrNotFound)
}

func TestRecordStore_AppendCommitsBothOrNeither(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)

	require.NoError(t, st.Create(ctx, rec(addr(1), types.KindCase, `{"n":0}`)))

	require.NoError(t, st.Append(ctx,
		rec(addr(1), types.KindCase, `{"n":1}`), 1,
		rec(addr(2), types.KindSceneLog, `{"sequence_number":0}`),
	))

	parent, err := st.Get(ctx, addr(1))
	require.NoError(t, err)
	assert.Equal(t, uint64(2), parent.Version)
	child, err := st.Get(ctx, addr(2))
	require.NoError(t, err)
	assert.Equal(t, types.KindSceneLog, child.Kind)

	// A stale parent version rolls back the whole transaction.
	err = st.Append(ctx,
		rec(addr(1), types.KindCase, `{"n":2}`), 1,
		rec(addr(3), types.KindSceneLog, `{}`),
	)
	assert.ErrorIs(t, err, store.ErrConflict)
	_, err = st.Get(ctx, addr(3))
	assert.ErrorIs(t, err, store.ErrNotFound)

	// An occupied child address rolls back the parent update.
	err = st.Append(ctx,
		rec(addr(1), types.KindCase, `{"n":2}`), 2,
		rec(addr(2), types.KindSceneLog, `{}`),
	)
	assert.ErrorIs(t, err, store.ErrAlreadyExists)
	parent, err = st.Get(ctx, addr(1))
	require.NoError(t, err)
	assert.Equal(t, uint64(2), parent.Version)
	assert.JSONEq(t, `{"n":1}`, string(parent.Payload))
}
