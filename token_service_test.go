package accounts_test

import (
	"testing"
	"time"

	accounts "github.com/calder-io/go-accounts"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testSigningKey = []byte("test-signing-key")
	testIssuer     = "accounts-test"
)

func newTestTokenService() accounts.TokenService {
	return accounts.NewTokenService(testSigningKey, "HS256", 30, testIssuer, quietLogger{})
}

func TestTokenService_Mint(t *testing.T) {
	service := newTestTokenService()

	t.Run("mints a token carrying identity and version", func(t *testing.T) {
		raw, err := service.Mint("user@example.com", 7)
		require.NoError(t, err)
		require.NotEmpty(t, raw)

		claims, err := service.Validate(raw)
		require.NoError(t, err)

		assert.Equal(t, "user@example.com", claims.Email())
		assert.Equal(t, 7, claims.Version())
		assert.False(t, claims.IsReset())
		assert.True(t, claims.Expires().After(time.Now()))
		assert.False(t, claims.IssuedAt().IsZero())
	})

	t.Run("version zero round trips", func(t *testing.T) {
		raw, err := service.Mint("user@example.com", 0)
		require.NoError(t, err)

		claims, err := service.Validate(raw)
		require.NoError(t, err)
		assert.Equal(t, 0, claims.Version())
	})
}

func TestTokenService_MintResetToken(t *testing.T) {
	service := newTestTokenService()

	raw, err := service.MintResetToken("user@example.com")
	require.NoError(t, err)

	claims, err := service.Validate(raw)
	require.NoError(t, err)

	assert.Equal(t, "user@example.com", claims.Email())
	assert.True(t, claims.IsReset())
}

func TestTokenService_Validate(t *testing.T) {
	service := newTestTokenService()

	t.Run("missing version claim reads as zero", func(t *testing.T) {
		// tokens minted before the claim existed carry no token_version
		legacy := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"iss": testIssuer,
			"sub": "legacy@example.com",
			"iat": time.Now().Unix(),
			"exp": time.Now().Add(time.Hour).Unix(),
		})

		raw, err := legacy.SignedString(testSigningKey)
		require.NoError(t, err)

		claims, err := service.Validate(raw)
		require.NoError(t, err)
		assert.Equal(t, "legacy@example.com", claims.Email())
		assert.Equal(t, 0, claims.Version())
	})

	t.Run("expired token", func(t *testing.T) {
		expired := accounts.NewTokenService(testSigningKey, "HS256", -5, testIssuer, quietLogger{})
		raw, err := expired.Mint("user@example.com", 0)
		require.NoError(t, err)

		_, err = service.Validate(raw)
		require.Error(t, err)
		assert.True(t, accounts.IsTokenExpiredError(err))
	})

	t.Run("wrong signing key", func(t *testing.T) {
		other := accounts.NewTokenService([]byte("another-key"), "HS256", 30, testIssuer, quietLogger{})
		raw, err := other.Mint("user@example.com", 0)
		require.NoError(t, err)

		_, err = service.Validate(raw)
		assert.Error(t, err)
	})

	t.Run("wrong signing method", func(t *testing.T) {
		other := accounts.NewTokenService(testSigningKey, "HS384", 30, testIssuer, quietLogger{})
		raw, err := other.Mint("user@example.com", 0)
		require.NoError(t, err)

		_, err = service.Validate(raw)
		assert.Error(t, err)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other := accounts.NewTokenService(testSigningKey, "HS256", 30, "someone-else", quietLogger{})
		raw, err := other.Mint("user@example.com", 0)
		require.NoError(t, err)

		_, err = service.Validate(raw)
		assert.Error(t, err)
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := service.Validate("not.a.token")
		require.Error(t, err)
		assert.True(t, accounts.IsMalformedError(err))
	})

	t.Run("empty token", func(t *testing.T) {
		_, err := service.Validate("")
		assert.Error(t, err)
	})
}

func TestTokenService_SignClaims(t *testing.T) {
	service := newTestTokenService()

	t.Run("nil claims rejected", func(t *testing.T) {
		_, err := service.SignClaims(nil)
		assert.Error(t, err)
	})

	t.Run("signs custom claims", func(t *testing.T) {
		now := time.Now()
		raw, err := service.SignClaims(&accounts.JWTClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    testIssuer,
				Subject:   "custom@example.com",
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
			},
			TokenVersion: 2,
		})
		require.NoError(t, err)

		claims, err := service.Validate(raw)
		require.NoError(t, err)
		assert.Equal(t, "custom@example.com", claims.Email())
		assert.Equal(t, 2, claims.Version())
	})
}
