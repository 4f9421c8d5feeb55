package security

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"event-market/models"
)

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken("secret", models.RoleMerchant, "merchant-1", time.Hour)
	require.NoError(t, err)

	principal, err := parseToken("secret", token)
	require.NoError(t, err)
	assert.Equal(t, models.RoleMerchant, principal.Role)
	assert.Equal(t, "merchant-1", principal.EntityID)
}

func TestParseToken_WrongSecret(t *testing.T) {
	token, err := GenerateToken("secret", models.RoleOrganizer, "org-1", time.Hour)
	require.NoError(t, err)

	_, err = parseToken("other-secret", token)
	assert.Error(t, err)
}

func TestParseToken_Expired(t *testing.T) {
	token, err := GenerateToken("secret", models.RoleOrganizer, "org-1", -time.Minute)
	require.NoError(t, err)

	_, err = parseToken("secret", token)
	assert.Error(t, err)
}
