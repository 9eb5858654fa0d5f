package types_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodialabs/custodia/server/internal/ledger/types"
)

func TestParseIdentity(t *testing.T) {
	id, err := types.ParseIdentity(strings.Repeat("ab", 32))
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("ab", 32), id.String())

	_, err = types.ParseIdentity("ab")
	assert.Error(t, err, "short input must be rejected")

	_, err = types.ParseIdentity(strings.Repeat("zz", 32))
	assert.Error(t, err, "non-hex input must be rejected")
}

func TestAddress_JSONRoundTrip(t *testing.T) {
	addr, err := types.ParseAddress(strings.Repeat("0f", 32))
	require.NoError(t, err)

	b, err := json.Marshal(addr)
	require.NoError(t, err)
	assert.Equal(t, `"`+strings.Repeat("0f", 32)+`"`, string(b))

	var back types.Address
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, addr, back)
}

func TestDecode_RejectsWrongKind(t *testing.T) {
	payload, err := types.Encode(types.CaseRecord{CaseID: "CASE001"})
	require.NoError(t, err)

	_, err = types.DecodeEvidence(types.KindCase, payload)
	require.Error(t, err, "a case payload must never decode as evidence")

	c, err := types.DecodeCase(types.KindCase, payload)
	require.NoError(t, err)
	assert.Equal(t, "CASE001", c.CaseID)
}
