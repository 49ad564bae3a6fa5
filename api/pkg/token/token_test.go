package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openslot/openslot/api/pkg/types"
)

func newTestCodec(t *testing.T) *Codec {
	codec, err := NewCodec("test-secret", 15*time.Minute)
	require.NoError(t, err)
	return codec
}

func TestSignVerifyRoundTrip(t *testing.T) {
	codec := newTestCodec(t)
	now := time.Now()

	signed, err := codec.Sign("ten_a", "wle_a", "slot_a", types.TokenActionConfirm, now)
	require.NoError(t, err)

	claims, err := codec.Verify(signed)
	require.NoError(t, err)
	assert.Equal(t, "ten_a", claims.TenantID)
	assert.Equal(t, "wle_a", claims.EntryID)
	assert.Equal(t, "slot_a", claims.SlotID)
	assert.Equal(t, types.TokenActionConfirm, claims.Action)
}

func TestVerifyExpired(t *testing.T) {
	codec := newTestCodec(t)

	signed, err := codec.Sign("ten_a", "wle_a", "slot_a", types.TokenActionDecline, time.Now().Add(-time.Hour))
	require.NoError(t, err)

	_, err = codec.Verify(signed)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestVerifyWrongSecret(t *testing.T) {
	codec := newTestCodec(t)
	other, err := NewCodec("other-secret", 15*time.Minute)
	require.NoError(t, err)

	signed, err := other.Sign("ten_a", "wle_a", "slot_a", types.TokenActionConfirm, time.Now())
	require.NoError(t, err)

	_, err = codec.Verify(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyGarbage(t *testing.T) {
	codec := newTestCodec(t)

	_, err := codec.Verify("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewCodecRequiresSecret(t *testing.T) {
	_, err := NewCodec("", time.Minute)
	assert.Error(t, err)
}

func TestConfirmAndDeclineTokensDiffer(t *testing.T) {
	codec := newTestCodec(t)
	now := time.Now()

	confirm, err := codec.Sign("ten_a", "wle_a", "slot_a", types.TokenActionConfirm, now)
	require.NoError(t, err)
	decline, err := codec.Sign("ten_a", "wle_a", "slot_a", types.TokenActionDecline, now)
	require.NoError(t, err)

	assert.NotEqual(t, confirm, decline)
}

func TestHashStable(t *testing.T) {
	assert.Equal(t, Hash("a", "b"), Hash("a", "b"))
	assert.NotEqual(t, Hash("a", "b"), Hash("b", "a"))
	assert.Len(t, Hash("a"), 64)
}
