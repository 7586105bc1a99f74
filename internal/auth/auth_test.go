package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-12345"

func client() Identity {
	return Identity{UserID: uuid.New(), Email: "client@example.com", Role: "member"}
}

// freezeClock pins token time to at for the duration of the test.
func freezeClock(t *testing.T, at time.Time) {
	t.Helper()
	prev := now
	now = func() time.Time { return at }
	t.Cleanup(func() { now = prev })
}

func TestHashPassword(t *testing.T) {
	hash1, err := HashPassword("samePassword")
	require.NoError(t, err)
	hash2, err := HashPassword("samePassword")
	require.NoError(t, err)

	assert.NotEqual(t, "samePassword", hash1)
	// bcrypt salts every hash
	assert.NotEqual(t, hash1, hash2)
}

func TestComparePassword(t *testing.T) {
	hash, err := HashPassword("correctPassword")
	require.NoError(t, err)

	tests := []struct {
		name     string
		password string
		wantErr  error
	}{
		{"match", "correctPassword", nil},
		{"mismatch", "wrongPassword", ErrPasswordMismatch},
		{"empty", "", ErrPasswordMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ComparePassword(hash, tt.password)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}

	assert.ErrorIs(t, ComparePassword("not-a-hash", "x"), ErrPasswordMismatch)
}

func TestTokenKindTTL(t *testing.T) {
	assert.Equal(t, 15*time.Minute, AccessToken.TTL())
	assert.Equal(t, 7*24*time.Hour, RefreshToken.TTL())
}

func TestIssue(t *testing.T) {
	issuedAt := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	freezeClock(t, issuedAt)
	id := client()

	for _, kind := range []TokenKind{AccessToken, RefreshToken} {
		t.Run(string(kind), func(t *testing.T) {
			token, err := Issue(kind, id, testSecret)
			require.NoError(t, err)

			claims, err := parse(token, testSecret)
			require.NoError(t, err)

			assert.Equal(t, id.UserID.String(), claims.Subject)
			assert.Equal(t, id.Email, claims.Email)
			assert.Equal(t, id.Role, claims.Role)
			assert.Equal(t, kind, claims.Kind)
			assert.Equal(t, issuer, claims.Issuer)
			assert.Contains(t, claims.Audience, audience)
			assert.NotEmpty(t, claims.ID)
			assert.True(t, claims.ExpiresAt.Time.Equal(issuedAt.Add(kind.TTL())))
		})
	}

	t.Run("missing secret", func(t *testing.T) {
		token, err := Issue(AccessToken, id, "")
		assert.ErrorIs(t, err, ErrMissingSecret)
		assert.Empty(t, token)
	})

	t.Run("unique token ids", func(t *testing.T) {
		a, err := Issue(AccessToken, id, testSecret)
		require.NoError(t, err)
		b, err := Issue(AccessToken, id, testSecret)
		require.NoError(t, err)
		assert.NotEqual(t, a, b)
	})
}

func TestIssuePair(t *testing.T) {
	id := client()

	access, refresh, err := IssuePair(id, testSecret)
	require.NoError(t, err)

	got, err := Verify(access, testSecret, AccessToken)
	require.NoError(t, err)
	assert.Equal(t, id, got)

	got, err = Verify(refresh, testSecret, RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, id, got)

	_, _, err = IssuePair(id, "")
	assert.ErrorIs(t, err, ErrMissingSecret)
}

func TestVerify(t *testing.T) {
	id := client()
	access, err := Issue(AccessToken, id, testSecret)
	require.NoError(t, err)

	signed := func(t *testing.T, claims *Claims, method jwt.SigningMethod, key interface{}) string {
		t.Helper()
		token, err := jwt.NewWithClaims(method, claims).SignedString(key)
		require.NoError(t, err)
		return token
	}
	valid := func(mutate func(*Claims)) *Claims {
		c := &Claims{
			Email: id.Email,
			Role:  id.Role,
			Kind:  AccessToken,
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   id.UserID.String(),
				Issuer:    issuer,
				Audience:  jwt.ClaimStrings{audience},
				IssuedAt:  jwt.NewNumericDate(time.Now().Add(-time.Minute)),
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}
		mutate(c)
		return c
	}

	tests := []struct {
		name    string
		token   string
		secret  string
		want    TokenKind
		wantErr error
	}{
		{"valid", access, testSecret, AccessToken, nil},
		{"wrong kind", access, testSecret, RefreshToken, ErrWrongTokenKind},
		{"missing secret", access, "", AccessToken, ErrMissingSecret},
		{"wrong secret", access, "wrong-secret", AccessToken, ErrInvalidToken},
		{"garbage", "invalid.token.format", testSecret, AccessToken, ErrInvalidToken},
		{
			"expired",
			signed(t, valid(func(c *Claims) {
				c.IssuedAt = jwt.NewNumericDate(time.Now().Add(-2 * time.Hour))
				c.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))
			}), jwt.SigningMethodHS256, []byte(testSecret)),
			testSecret, AccessToken, ErrTokenExpired,
		},
		{
			"no expiry",
			signed(t, valid(func(c *Claims) { c.ExpiresAt = nil }), jwt.SigningMethodHS256, []byte(testSecret)),
			testSecret, AccessToken, ErrInvalidToken,
		},
		{
			"foreign issuer",
			signed(t, valid(func(c *Claims) { c.Issuer = "someone-else" }), jwt.SigningMethodHS256, []byte(testSecret)),
			testSecret, AccessToken, ErrInvalidToken,
		},
		{
			"foreign audience",
			signed(t, valid(func(c *Claims) { c.Audience = jwt.ClaimStrings{"others"} }), jwt.SigningMethodHS256, []byte(testSecret)),
			testSecret, AccessToken, ErrInvalidToken,
		},
		{
			"other hmac method",
			signed(t, valid(func(*Claims) {}), jwt.SigningMethodHS512, []byte(testSecret)),
			testSecret, AccessToken, ErrInvalidToken,
		},
		{
			"malformed subject",
			signed(t, valid(func(c *Claims) { c.Subject = "42" }), jwt.SigningMethodHS256, []byte(testSecret)),
			testSecret, AccessToken, ErrInvalidToken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Verify(tt.token, tt.secret, tt.want)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, Identity{}, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, id, got)
		})
	}
}

func TestVerifyAfterExpiry(t *testing.T) {
	issuedAt := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	freezeClock(t, issuedAt)

	token, err := Issue(AccessToken, client(), testSecret)
	require.NoError(t, err)

	freezeClock(t, issuedAt.Add(AccessToken.TTL()-time.Second))
	_, err = Verify(token, testSecret, AccessToken)
	assert.NoError(t, err)

	freezeClock(t, issuedAt.Add(AccessToken.TTL()+time.Second))
	_, err = Verify(token, testSecret, AccessToken)
	assert.ErrorIs(t, err, ErrTokenExpired)
}
