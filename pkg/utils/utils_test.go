package utils

import (
	"testing"
	"time"

	"github.com/alimikegami/e-commerce/storefront-service/pkg/errs"
	"github.com/golang-jwt/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func TestJWTRoundTrip(t *testing.T) {
	token, err := CreateJWTToken("u1", "u1@example.com", "admin", testSecret, time.Hour)
	require.NoError(t, err)

	claims, err := ParseJWTToken(token, testSecret)
	require.NoError(t, err)

	assert.Equal(t, "u1", claims.ID)
	assert.Equal(t, "u1@example.com", claims.Email)
	assert.Equal(t, "admin", claims.Role)
	assert.Greater(t, claims.ExpiresAt, time.Now().Unix())
}

func TestParseJWTTokenFailures(t *testing.T) {
	expired, err := CreateJWTToken("u1", "u1@example.com", "user", testSecret, -time.Minute)
	require.NoError(t, err)

	otherSecret, err := CreateJWTToken("u1", "u1@example.com", "user", "another-secret", time.Hour)
	require.NoError(t, err)

	missingID, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"role": "user",
		"exp":  time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	type TestCase struct {
		Name  string
		Token string
	}

	testCases := []TestCase{
		{Name: "Expired", Token: expired},
		{Name: "Wrong signature", Token: otherSecret},
		{Name: "Malformed", Token: "not-a-token"},
		{Name: "Empty", Token: ""},
		{Name: "Missing id claim", Token: missingID},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			_, err := ParseJWTToken(tc.Token, testSecret)
			assert.ErrorIs(t, err, errs.ErrInvalidToken)
		})
	}
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("123456")
	require.NoError(t, err)

	assert.NotEqual(t, "123456", hash)
	assert.True(t, VerifyPassword("123456", hash))
	assert.False(t, VerifyPassword("1234", hash))
	assert.False(t, VerifyPassword("123456", "not-a-bcrypt-hash"))
}

func TestFormatTimestamp(t *testing.T) {
	assert.Equal(t, "15 June 2024, 12:30 UTC", FormatTimestamp(1718454600000, nil))
	assert.Equal(t, "15 June 2024, 19:30 WIB", FormatTimestamp(1718454600000, time.FixedZone("WIB", 7*60*60)))
}
