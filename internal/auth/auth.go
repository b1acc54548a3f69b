// Package auth issues and checks learner tokens and resolves who is calling
// the HTTP API. A valid bearer token means an authenticated learner; an
// X-Guest-ID header means a guest.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// GuestHeader carries a guest's id.
const GuestHeader = "X-Guest-ID"

// DefaultTokenTTL is how long issued tokens stay valid.
const DefaultTokenTTL = 8 * time.Hour

var (
	ErrMissingCredentials = errors.New("missing bearer token or guest id")
	ErrBadToken           = errors.New("bad token")
	ErrBadGuestID         = errors.New("guest id must be a UUID")
)

// Service signs and verifies HS256 tokens.
type Service struct {
	hmac []byte
	ttl  time.Duration
	now  func() time.Time
}

// NewService returns a Service signing with secret.
func NewService(secret string) *Service {
	return &Service{hmac: []byte(secret), ttl: DefaultTokenTTL, now: time.Now}
}

// Claims are the token claims. Sub is the learner id.
type Claims struct {
	jwt.RegisteredClaims
}

// Issue returns a signed token for learnerID.
func (s *Service) Issue(learnerID string) (string, error) {
	now := s.now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   learnerID,
			Issuer:    "coursiz",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(s.hmac)
}

// Parse verifies a token and returns its claims.
func (s *Service) Parse(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		return s.hmac, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, errors.Join(ErrBadToken, err)
	}
	c, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || c.Subject == "" {
		return nil, ErrBadToken
	}
	return c, nil
}

// Identity is the resolved caller.
type Identity struct {
	ID    string
	Guest bool
}

// Identify resolves the caller from the request headers. A bearer token
// wins over a guest header.
func (s *Service) Identify(r *http.Request) (Identity, error) {
	if h := r.Header.Get("Authorization"); h != "" {
		tok, ok := strings.CutPrefix(h, "Bearer ")
		if !ok {
			return Identity{}, ErrBadToken
		}
		c, err := s.Parse(tok)
		if err != nil {
			return Identity{}, err
		}
		return Identity{ID: c.Subject}, nil
	}
	if g := r.Header.Get(GuestHeader); g != "" {
		id, err := uuid.Parse(g)
		if err != nil {
			return Identity{}, ErrBadGuestID
		}
		return Identity{ID: id.String(), Guest: true}, nil
	}
	return Identity{}, ErrMissingCredentials
}

type ctxKey struct{}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the identity set by Middleware.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	return id, ok
}

// Middleware rejects requests without credentials and stores the identity
// in the request context.
func Middleware(s *Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := s.Identify(r)
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}
