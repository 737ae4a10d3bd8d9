// Package authorizer verifies bearer credentials and turns them into
// allow/deny access decisions with a derived principal.
package authorizer

import (
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

var (
	// ErrMalformedCredential is returned for empty or structurally invalid
	// input, before any cryptographic check runs.
	ErrMalformedCredential = errors.New("malformed credential")

	// ErrCredentialInvalid is the single failure returned for every
	// verification problem: bad signature, expiry, wrong audience or issuer,
	// missing subject. Collapsing them denies an attacker an oracle for
	// which check failed.
	ErrCredentialInvalid = errors.New("credential invalid")
)

// Credential is a verified bearer token's claims. Credentials are verified
// per request and never persisted.
type Credential struct {
	Subject   string
	Email     string
	Scopes    []string
	Audience  string
	Issuer    string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Config carries the fixed verification settings: pre-shared HMAC secret,
// expected audience and issuer, and the allowed clock skew.
type Config struct {
	Secret    []byte
	Audience  string
	Issuer    string
	ClockSkew time.Duration
}

// Verifier checks a raw bearer credential against Config. Verify is a pure
// function over the token, the configuration, and the clock.
type Verifier struct {
	config Config
}

func NewVerifier(cfg Config) (*Verifier, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("[NewVerifier] signing secret is required")
	}
	if cfg.Audience == "" {
		return nil, errors.New("[NewVerifier] expected audience is required")
	}
	if cfg.Issuer == "" {
		return nil, errors.New("[NewVerifier] expected issuer is required")
	}
	return &Verifier{config: cfg}, nil
}

// tokenClaims is the claim set carried by access tokens. Scopes follow the
// OAuth2 convention of a space-delimited "scope" claim.
type tokenClaims struct {
	Email string `json:"email,omitempty"`
	Scope string `json:"scope,omitempty"`
	jwtlib.RegisteredClaims
}

// Verify parses and verifies rawCredential, which may be a bare token or of
// the form "Bearer <token>". The algorithm is pinned to HMAC-SHA256; a token
// claiming any other algorithm fails verification regardless of its payload.
func (v *Verifier) Verify(rawCredential string) (*Credential, error) {
	token, err := stripBearer(rawCredential)
	if err != nil {
		return nil, err
	}

	claims := &tokenClaims{}
	parsed, err := jwtlib.ParseWithClaims(token, claims,
		func(t *jwtlib.Token) (any, error) { return v.config.Secret, nil },
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
		jwtlib.WithAudience(v.config.Audience),
		jwtlib.WithIssuer(v.config.Issuer),
		jwtlib.WithExpirationRequired(),
		jwtlib.WithIssuedAt(),
		jwtlib.WithLeeway(v.config.ClockSkew),
		jwtlib.WithTimeFunc(func() time.Time { return NowTimeFunc() }),
	)
	if err != nil || !parsed.Valid {
		return nil, ErrCredentialInvalid
	}

	if strings.TrimSpace(claims.Subject) == "" {
		return nil, ErrCredentialInvalid
	}

	credential := &Credential{
		Subject:  claims.Subject,
		Email:    claims.Email,
		Scopes:   splitScopes(claims.Scope),
		Issuer:   claims.Issuer,
		Audience: v.config.Audience,
	}
	if claims.IssuedAt != nil {
		credential.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		credential.ExpiresAt = claims.ExpiresAt.Time
	}

	return credential, nil
}

// stripBearer accepts "Bearer <token>" or a bare token, rejecting empty or
// structurally broken input.
func stripBearer(rawCredential string) (string, error) {
	raw := strings.TrimSpace(rawCredential)
	if raw == "" {
		return "", ErrMalformedCredential
	}

	parts := strings.Fields(raw)
	switch {
	case len(parts) == 1:
		return parts[0], nil
	case len(parts) == 2 && strings.EqualFold(parts[0], "bearer"):
		return parts[1], nil
	default:
		return "", ErrMalformedCredential
	}
}

func splitScopes(scope string) []string {
	if strings.TrimSpace(scope) == "" {
		return nil
	}
	return strings.Fields(scope)
}
