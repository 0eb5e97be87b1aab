// internal/auth/appcheck.go

// Package auth verifies Firebase App Check tokens attached to client
// requests. Tokens are RS256 JWTs signed against a public JWKS that
// Google rotates, so the key set is fetched lazily and cached.
package auth

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// DefaultJWKSURL serves the public keys App Check tokens are signed with.
	DefaultJWKSURL = "https://firebaseappcheck.googleapis.com/v1/jwks"

	issuerPrefix = "https://firebaseappcheck.googleapis.com/"

	jwksRefreshInterval = 6 * time.Hour
)

// ErrInvalidToken is returned for any token that fails verification.
var ErrInvalidToken = errors.New("invalid App Check token")

// NormalizeToken strips an optional "Bearer " prefix and surrounding
// whitespace from a raw header value.
func NormalizeToken(raw string) string {
	token := strings.TrimSpace(raw)
	if len(token) >= 7 && strings.EqualFold(token[:7], "Bearer ") {
		token = strings.TrimSpace(token[7:])
	}
	return token
}

// IsJWTLike reports whether token has the three-segment shape of a
// JWT. Used to reject garbage before any cryptographic work.
func IsJWTLike(token string) bool {
	if token == "" {
		return false
	}
	segments := strings.Split(token, ".")
	if len(segments) != 3 {
		return false
	}
	for _, seg := range segments {
		if seg == "" {
			return false
		}
	}
	return true
}

// SafeTokenDebug describes a token's shape without leaking its
// content, fit for log lines.
func SafeTokenDebug(token string) string {
	return fmt.Sprintf("length=%d segments=%d", len(token), len(strings.Split(token, ".")))
}

// Verifier checks App Check tokens against a Firebase project.
type Verifier struct {
	projectNumber string
	appID         string
	jwksURL       string
	client        *http.Client

	mu        sync.RWMutex
	keys      map[string]*rsa.PublicKey
	fetchedAt time.Time
}

// NewVerifier builds a verifier for the given Firebase project number
// and app ID.
func NewVerifier(projectNumber, appID string) *Verifier {
	return &Verifier{
		projectNumber: projectNumber,
		appID:         appID,
		jwksURL:       DefaultJWKSURL,
		client:        &http.Client{Timeout: 10 * time.Second},
	}
}

// jwk is the subset of an RFC 7517 key we need for RS256.
type jwk struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	N   string `json:"n"`
	E   string `json:"e"`
}

type jwks struct {
	Keys []jwk `json:"keys"`
}

// keyForKid returns the public key for kid, refreshing the JWKS cache
// when the kid is unknown or the cache is stale.
func (v *Verifier) keyForKid(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	v.mu.RLock()
	key, ok := v.keys[kid]
	fresh := time.Since(v.fetchedAt) < jwksRefreshInterval
	v.mu.RUnlock()
	if ok && fresh {
		return key, nil
	}

	if err := v.refreshKeys(ctx); err != nil {
		// A stale key beats no key when the refresh fails.
		if ok {
			return key, nil
		}
		return nil, err
	}

	v.mu.RLock()
	key, ok = v.keys[kid]
	v.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no JWKS key with kid %q", kid)
	}
	return key, nil
}

func (v *Verifier) refreshKeys(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.jwksURL, nil)
	if err != nil {
		return err
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch App Check JWKS: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("App Check JWKS fetch returned status %d", resp.StatusCode)
	}

	var set jwks
	if err := json.NewDecoder(resp.Body).Decode(&set); err != nil {
		return fmt.Errorf("failed to decode App Check JWKS: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(set.Keys))
	for _, k := range set.Keys {
		if k.Kty != "RSA" || k.Kid == "" {
			continue
		}
		pub, err := parseRSAKey(k)
		if err != nil {
			continue
		}
		keys[k.Kid] = pub
	}
	if len(keys) == 0 {
		return errors.New("App Check JWKS contained no usable RSA keys")
	}

	v.mu.Lock()
	v.keys = keys
	v.fetchedAt = time.Now()
	v.mu.Unlock()
	return nil
}

func parseRSAKey(k jwk) (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(k.N)
	if err != nil {
		return nil, fmt.Errorf("bad modulus: %w", err)
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(k.E)
	if err != nil {
		return nil, fmt.Errorf("bad exponent: %w", err)
	}

	e := 0
	for _, b := range eBytes {
		e = e<<8 | int(b)
	}
	if e <= 0 {
		return nil, errors.New("non-positive exponent")
	}

	return &rsa.PublicKey{N: new(big.Int).SetBytes(nBytes), E: e}, nil
}

// VerifyToken validates an App Check token and returns its claims.
func (v *Verifier) VerifyToken(ctx context.Context, raw string) (jwt.MapClaims, error) {
	token := NormalizeToken(raw)
	if !IsJWTLike(token) {
		return nil, fmt.Errorf("%w: not a JWT (%s)", ErrInvalidToken, SafeTokenDebug(token))
	}

	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, errors.New("token has no kid header")
		}
		return v.keyForKid(ctx, kid)
	},
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithIssuer(issuerPrefix+v.projectNumber),
		jwt.WithAudience("projects/"+v.projectNumber),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected claims type", ErrInvalidToken)
	}

	if v.appID != "" {
		if sub, _ := claims["sub"].(string); sub != v.appID {
			return nil, fmt.Errorf("%w: token subject does not match app", ErrInvalidToken)
		}
	}

	return claims, nil
}

// VerifyTokenSafe wraps VerifyToken and never panics: any failure,
// including an internal one, comes back as (nil, error).
func (v *Verifier) VerifyTokenSafe(ctx context.Context, raw string) (claims jwt.MapClaims, err error) {
	defer func() {
		if r := recover(); r != nil {
			claims = nil
			err = fmt.Errorf("%w: verification panicked: %v", ErrInvalidToken, r)
		}
	}()
	return v.VerifyToken(ctx, raw)
}
