// Package auth issues and verifies HS256 bearer tokens.
package auth

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"gamified-lms/internal/domain"
)

const defaultTTL = 24 * time.Hour

// Claims carries the user's id in sub plus role and display name.
type Claims struct {
	Role string `json:"role"`
	Name string `json:"name"`
	jwt.RegisteredClaims
}

type TokenService struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenService(secret, issuer string, ttl time.Duration) (*TokenService, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is required")
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &TokenService{secret: []byte(secret), issuer: issuer, ttl: ttl, now: time.Now}, nil
}

// Issue satisfies app.TokenIssuer.
func (s *TokenService) Issue(u domain.User) (string, error) {
	now := s.now()
	claims := &Claims{
		Role: string(u.Role),
		Name: u.FullName,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatInt(u.ID, 10),
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Verify parses a token and returns the actor it identifies. Any failure maps to
// domain.ErrUnauthenticated.
func (s *TokenService) Verify(token string) (domain.Actor, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, opts...)
	if err != nil || !parsed.Valid {
		return domain.Actor{}, &domain.Error{Kind: domain.KindUnauthenticated, Message: "invalid or expired token", Err: err}
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok {
		return domain.Actor{}, domain.ErrUnauthenticated
	}
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return domain.Actor{}, domain.ErrUnauthenticated
	}
	role := domain.Role(claims.Role)
	if !role.Valid() {
		return domain.Actor{}, domain.ErrUnauthenticated
	}
	return domain.Actor{UserID: id, Role: role, Name: claims.Name}, nil
}
