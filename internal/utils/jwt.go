package utils // package utils provides helpers for password hashing and token handling

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultAccessTTL is used when the configured access-token TTL is missing or invalid.
const DefaultAccessTTL = 15 * time.Minute

var (
	// ErrMissingSigningKey is returned by NewIssuer when no secret is configured.
	ErrMissingSigningKey = errors.New("jwt signing key is required")
	// ErrInvalidAccessToken is returned by Verify for any malformed, forged or expired token.
	ErrInvalidAccessToken = errors.New("invalid access token")
)

// Subject is the identity an access token is issued for.
type Subject struct {
	ID       uint64
	Email    string
	FullName string
	Role     string
}

// Claims is the claim set carried by access tokens.  The registered claims
// hold sub, iss, iat, exp and a random jti that keeps two tokens for the same
// subject and second distinct.
type Claims struct {
	jwt.RegisteredClaims
	Email    string `json:"email"`
	FullName string `json:"name"`
	Role     string `json:"role"`
}

// AccountID parses the numeric subject claim.
func (c Claims) AccountID() (uint64, error) {
	return strconv.ParseUint(c.Subject, 10, 64)
}

// AccessToken represents a signed JWT access token along with its expiry.
type AccessToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// Issuer signs and verifies HS256 access tokens.  It holds no per-token
// state; the key is read-only after construction.
type Issuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer builds an Issuer.  An empty secret is a configuration error and
// is reported here rather than on every Issue call.  A non-positive ttl
// falls back to DefaultAccessTTL.
func NewIssuer(secret, issuer string, ttl time.Duration) (*Issuer, error) {
	if secret == "" {
		return nil, ErrMissingSigningKey
	}
	if ttl <= 0 {
		ttl = DefaultAccessTTL
	}
	return &Issuer{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		now:    func() time.Time { return time.Now().UTC() },
	}, nil
}

// WithClock returns a copy of the issuer that reads time from now.
func (i *Issuer) WithClock(now func() time.Time) *Issuer {
	cp := *i
	cp.now = now
	return &cp
}

// TTL returns the lifetime applied to issued tokens.
func (i *Issuer) TTL() time.Duration { return i.ttl }

// Issue builds and signs an access token for s.
func (i *Issuer) Issue(s Subject) (AccessToken, error) {
	now := i.now().UTC()
	exp := now.Add(i.ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(s.ID, 10),
			Issuer:    i.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        uuid.NewString(),
		},
		Email:    s.Email,
		FullName: s.FullName,
		Role:     s.Role,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return AccessToken{}, err
	}
	// exp is truncated to whole seconds in the token; report the same instant.
	return AccessToken{Token: signed, Exp: claims.ExpiresAt.Time.UTC()}, nil
}

// Verify checks signature, algorithm and expiry of raw and returns its claims.
func (i *Issuer) Verify(raw string) (*Claims, error) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidAccessToken
		}
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !tok.Valid {
		return nil, ErrInvalidAccessToken
	}
	if i.issuer != "" && claims.Issuer != i.issuer {
		return nil, ErrInvalidAccessToken
	}
	return claims, nil
}
