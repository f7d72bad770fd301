package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrUnauthenticated is the root of every failure to resolve the caller.
	ErrUnauthenticated = errors.New("unauthenticated")

	ErrMissingHeader = fmt.Errorf("%w: authorization header is required", ErrUnauthenticated)
	ErrHeaderFormat  = fmt.Errorf("%w: authorization header format must be Bearer {token}", ErrUnauthenticated)
	ErrInvalidToken  = fmt.Errorf("%w: invalid or expired token", ErrUnauthenticated)
	ErrInvalidClaims = fmt.Errorf("%w: invalid user ID in token", ErrUnauthenticated)
)

// Resolver identifies the user making a request.
type Resolver interface {
	ResolveUser(r *http.Request) (uuid.UUID, error)
}

// Claims is the token payload issued by the auth service.
type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// JWTResolver resolves users from HS256 bearer tokens.
type JWTResolver struct {
	secret []byte
}

func NewJWTResolver(secret string) *JWTResolver {
	return &JWTResolver{secret: []byte(secret)}
}

func (j *JWTResolver) ResolveUser(r *http.Request) (uuid.UUID, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return uuid.Nil, ErrMissingHeader
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return uuid.Nil, ErrHeaderFormat
	}
	return j.ParseToken(token)
}

// ParseToken validates tokenStr and returns the user it was issued to.
func (j *JWTResolver) ParseToken(tokenStr string) (uuid.UUID, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenStr, &claims, func(*jwt.Token) (interface{}, error) {
		return j.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return uuid.Nil, ErrInvalidToken
	}

	subject := claims.UserID
	if subject == "" {
		subject = claims.Subject
	}
	userID, err := uuid.Parse(subject)
	if err != nil {
		return uuid.Nil, ErrInvalidClaims
	}
	return userID, nil
}

// GenerateToken issues a token for userID valid for ttl. Login flows live in
// the auth service; this exists for local development and tests.
func (j *JWTResolver) GenerateToken(userID uuid.UUID, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secret)
}
