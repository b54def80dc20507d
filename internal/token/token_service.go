package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	RoleAdmin    = "admin"
	RoleEmployee = "employee"

	// Validity is the fixed lifetime of a session token.
	Validity = 7 * 24 * time.Hour
)

// ValidRole reports whether role is one of the two roles a token may carry.
func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleEmployee
}

// Claims is the payload of a session token. The subject is the Admin or
// Employee id the token was minted for; nothing re-checks it against the store
// after minting, so deleting the record does not invalidate the token.
type Claims struct {
	Role  string `json:"role"`
	Email string `json:"email"`
	jwt.RegisteredClaims
}

func (c *Claims) SubjectID() string {
	return c.Subject
}

//go:generate mockgen -source=token_service.go -destination=mock/token_service_mock.go -package=mock
type Service interface {
	Issue(subjectID, role, email string) (string, error)
	// Verify never says why a token was rejected.
	Verify(raw string) (*Claims, bool)
}

type Option func(*service)

// WithClock overrides the time source used for both signing and validation.
func WithClock(now func() time.Time) Option {
	return func(s *service) {
		s.now = now
	}
}

type service struct {
	secret []byte
	now    func() time.Time
}

func NewService(secret string, opts ...Option) Service {
	s := &service{
		secret: []byte(secret),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) Issue(subjectID, role, email string) (string, error) {
	issuedAt := s.now()
	claims := Claims{
		Role:  role,
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(Validity)),
		},
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString(s.secret)
}

func (s *service) Verify(raw string) (*Claims, bool) {
	if raw == "" {
		return nil, false
	}

	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(raw, claims,
		func(t *jwt.Token) (any, error) {
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !tok.Valid {
		return nil, false
	}
	if claims.Subject == "" || !ValidRole(claims.Role) {
		return nil, false
	}
	return claims, true
}
