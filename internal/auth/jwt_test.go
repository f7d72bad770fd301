package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tomlord1122/todo-api/internal/auth"
)

const testSecret = "test-secret-key"

func signed(t *testing.T, method jwt.SigningMethod, key any, claims jwt.Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func TestGenerateAndParseToken(t *testing.T) {
	// Arrange
	resolver := auth.NewJWTResolver(testSecret)
	userID := uuid.New()

	// Act
	token, err := resolver.GenerateToken(userID, time.Hour)
	require.NoError(t, err)
	parsed, err := resolver.ParseToken(token)

	// Assert
	assert.NoError(t, err)
	assert.Equal(t, userID, parsed)
}

func TestParseToken_SubjectClaim(t *testing.T) {
	resolver := auth.NewJWTResolver(testSecret)
	userID := uuid.New()
	token := signed(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.RegisteredClaims{
		Subject:   userID.String(),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})

	parsed, err := resolver.ParseToken(token)

	assert.NoError(t, err)
	assert.Equal(t, userID, parsed)
}

func TestParseToken_Invalid(t *testing.T) {
	resolver := auth.NewJWTResolver(testSecret)
	future := jwt.NewNumericDate(time.Now().Add(time.Hour))

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{name: "garbage", token: "invalid-token", want: auth.ErrInvalidToken},
		{
			name: "expired",
			token: signed(t, jwt.SigningMethodHS256, []byte(testSecret), auth.Claims{
				UserID:           uuid.NewString(),
				RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour))},
			}),
			want: auth.ErrInvalidToken,
		},
		{
			name: "no expiry",
			token: signed(t, jwt.SigningMethodHS256, []byte(testSecret), auth.Claims{
				UserID: uuid.NewString(),
			}),
			want: auth.ErrInvalidToken,
		},
		{
			name: "wrong secret",
			token: signed(t, jwt.SigningMethodHS256, []byte("other"), auth.Claims{
				UserID:           uuid.NewString(),
				RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: future},
			}),
			want: auth.ErrInvalidToken,
		},
		{
			name: "wrong algorithm",
			token: signed(t, jwt.SigningMethodHS512, []byte(testSecret), auth.Claims{
				UserID:           uuid.NewString(),
				RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: future},
			}),
			want: auth.ErrInvalidToken,
		},
		{
			name: "user id not a uuid",
			token: signed(t, jwt.SigningMethodHS256, []byte(testSecret), auth.Claims{
				UserID:           "not-a-valid-uuid",
				RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: future},
			}),
			want: auth.ErrInvalidClaims,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := resolver.ParseToken(tt.token)
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, auth.ErrUnauthenticated)
		})
	}
}

func TestResolveUser_Header(t *testing.T) {
	resolver := auth.NewJWTResolver(testSecret)
	userID := uuid.New()
	token, err := resolver.GenerateToken(userID, time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		want   error
	}{
		{name: "missing", header: "", want: auth.ErrMissingHeader},
		{name: "wrong scheme", header: "InvalidFormat token123", want: auth.ErrHeaderFormat},
		{name: "no token", header: "Bearer", want: auth.ErrHeaderFormat},
		{name: "valid", header: "Bearer " + token},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/todos", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			got, err := resolver.ResolveUser(req)

			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, userID, got)
		})
	}
}
