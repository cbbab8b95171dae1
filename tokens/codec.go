package tokens

import (
	"time"

	jwt "github.com/dgrijalva/jwt-go"
	"github.com/pkg/errors"
)

// DefaultTTL bounds capability validity when no TTL is configured.
const DefaultTTL = 24 * time.Hour

var (
	// ErrNoSecret is returned when the codec has no signing secret. The
	// codec fails closed: it will neither issue nor verify without one.
	ErrNoSecret = errors.New("tokens: no signing secret configured")

	// ErrInvalidToken is returned for malformed or badly signed tokens.
	ErrInvalidToken = errors.New("tokens: invalid token")

	// ErrExpiredToken is returned for well-formed tokens past their expiry.
	ErrExpiredToken = errors.New("tokens: token expired")
)

// Claims is the capability's self-contained claim set. Field names are
// part of the wire contract and must not change.
type Claims struct {
	ProjectID  string `json:"projectId"`
	UserID     string `json:"userId"`
	AccessType string `json:"accessType"`
	SessionID  string `json:"sessionId"`
	// ExpiresAt is an absolute expiry in epoch milliseconds.
	ExpiresAt int64 `json:"expiresAt"`
}

// Valid implements jwt.Claims. Expiry is checked by the codec so that
// expired and malformed tokens stay distinguishable.
func (c *Claims) Valid() error {
	return nil
}

// Expiry returns the claim set's absolute expiry.
func (c *Claims) Expiry() time.Time {
	return time.Unix(0, c.ExpiresAt*int64(time.Millisecond))
}

// Codec issues and verifies signed capability tokens. Possession of a
// token is the sole proof of the authorization decision it encodes.
type Codec struct {
	secret []byte
	ttl    time.Duration
}

// NewCodec builds a codec around the given symmetric secret. An empty
// secret is refused outright rather than falling back to a default.
func NewCodec(secret string, ttl time.Duration) (*Codec, error) {
	if secret == "" {
		return nil, ErrNoSecret
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Codec{secret: []byte(secret), ttl: ttl}, nil
}

// TTL returns the codec's configured validity window.
func (c *Codec) TTL() time.Duration {
	return c.ttl
}

// Issue signs a claim set expiring at now + TTL.
func (c *Codec) Issue(projectID, userID, accessType, sessionID string) (string, error) {
	return c.IssueAt(projectID, userID, accessType, sessionID, time.Now())
}

// IssueAt signs a claim set expiring at now + TTL, relative to the
// given instant.
func (c *Codec) IssueAt(projectID, userID, accessType, sessionID string, now time.Time) (string, error) {
	if len(c.secret) == 0 {
		return "", ErrNoSecret
	}

	claims := &Claims{
		ProjectID:  projectID,
		UserID:     userID,
		AccessType: accessType,
		SessionID:  sessionID,
		ExpiresAt:  now.Add(c.ttl).UnixNano() / int64(time.Millisecond),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", errors.Wrap(err, "signing capability token")
	}
	return signed, nil
}

// Verify checks signature and expiry and returns the embedded claims.
// Verification is pure: it never consults the session store.
//
// On signature or expiry failures the decoded claims are still returned
// alongside the error when the payload could be read, so that denials
// can be audited with whatever identity the token carried.
func (c *Codec) Verify(tokenString string) (*Claims, error) {
	return c.VerifyAt(tokenString, time.Now())
}

// VerifyAt checks the token against the given instant.
func (c *Codec) VerifyAt(tokenString string, now time.Time) (*Claims, error) {
	if len(c.secret) == 0 {
		return nil, ErrNoSecret
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Name {
			return nil, errors.Errorf("unexpected signing method: %v", token.Method.Alg())
		}
		return c.secret, nil
	})
	if err != nil {
		return decodedOrNil(claims), ErrInvalidToken
	}

	if claims.SessionID == "" || claims.UserID == "" || claims.ProjectID == "" {
		return decodedOrNil(claims), ErrInvalidToken
	}

	if claims.Expiry().Before(now) {
		return claims, ErrExpiredToken
	}

	return claims, nil
}

func decodedOrNil(claims *Claims) *Claims {
	if claims.SessionID == "" && claims.UserID == "" && claims.ProjectID == "" {
		return nil
	}
	return claims
}
