package identity

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestIdentityUser(t *testing.T) {
	userID := uuid.New()
	id := ForUser(userID)

	require.True(t, id.IsUser())
	require.False(t, id.IsGuest())
	require.NoError(t, id.Validate())

	got, ok := id.UserID()
	require.True(t, ok)
	require.Equal(t, userID, got)

	_, ok = id.GuestID()
	require.False(t, ok)
}

func TestIdentityGuest(t *testing.T) {
	id := ForGuest("guest-token")

	require.True(t, id.IsGuest())
	require.False(t, id.IsUser())
	require.NoError(t, id.Validate())

	got, ok := id.GuestID()
	require.True(t, ok)
	require.Equal(t, "guest-token", got)
}

func TestIdentityZeroValueInvalid(t *testing.T) {
	var id Identity
	require.Error(t, id.Validate())
	require.False(t, id.IsUser())
	require.False(t, id.IsGuest())
}

func TestUserIdentityIgnoresGuestToken(t *testing.T) {
	// A resolved user wins even if a stale guest cookie is around.
	id := ForUser(uuid.New())
	_, ok := id.GuestID()
	require.False(t, ok)
}

func TestMintGuestTokenUnique(t *testing.T) {
	a := MintGuestToken()
	b := MintGuestToken()
	require.NotEmpty(t, a)
	require.NotEqual(t, a, b)
	_, err := uuid.Parse(a)
	require.NoError(t, err)
}
