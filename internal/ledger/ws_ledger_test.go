package ledger

import (
	"testing"

	json "github.com/gorilla/rpc/v2/json2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abstracted-labs/inv4-git/internal/inv4err"
)

func TestWireToRefRoundTrip(t *testing.T) {
	digest := [32]byte{1, 2, 3}
	ref := LedgerRef{Label: []byte("RepoData"), Digest: digest, ID: 7}

	wire := refsToWire([]LedgerRef{ref})[0]
	back, err := wireToRef(wire)
	require.NoError(t, err)
	assert.Equal(t, ref, back)
}

func TestWireToRefRejectsShortDigest(t *testing.T) {
	_, err := wireToRef(ledgerRefWire{Label: []byte("x"), Digest: []byte{1, 2, 3}, ID: 1})
	assert.Error(t, err)
}

func TestSwapPayloadIsOrderSensitive(t *testing.T) {
	a := LedgerRef{Label: []byte("a"), Digest: [32]byte{1}}
	b := LedgerRef{Label: []byte("b"), Digest: [32]byte{2}}

	p1 := swapPayload(1, 0, []LedgerRef{a}, []LedgerRef{b})
	p2 := swapPayload(1, 0, []LedgerRef{b}, []LedgerRef{a})
	assert.NotEqual(t, p1, p2, "remove and append sides of the payload must not be interchangeable")

	p3 := swapPayload(1, 0, []LedgerRef{a}, []LedgerRef{b})
	assert.Equal(t, p1, p3, "the same swap must sign the same bytes every time")
}

func TestClassifyRPCError(t *testing.T) {
	cases := []struct {
		code int
		want error
	}{
		{404, inv4err.ErrNotFound},
		{401, inv4err.ErrUnauthorized},
		{403, inv4err.ErrUnauthorized},
		{409, inv4err.ErrConflict},
		{500, inv4err.ErrUnavailable},
	}
	for _, c := range cases {
		rpcErr := &json.Error{Data: map[string]interface{}{"code": float64(c.code), "message": "boom"}}
		err := classifyRPCError(rpcErr)
		switch c.want {
		case inv4err.ErrNotFound:
			assert.True(t, inv4err.IsNotFound(err))
		case inv4err.ErrUnauthorized:
			assert.ErrorIs(t, err, inv4err.ErrUnauthorized)
		case inv4err.ErrConflict:
			assert.True(t, inv4err.IsConflict(err))
		case inv4err.ErrUnavailable:
			assert.True(t, inv4err.IsUnavailable(err))
		}
		assert.Contains(t, err.Error(), "boom")
	}
}

func TestClassifyRPCErrorWithoutStructuredData(t *testing.T) {
	err := classifyRPCError(&json.Error{Data: "plain failure text"})
	assert.True(t, inv4err.IsUnavailable(err))
	assert.Contains(t, err.Error(), "plain failure text")
}
