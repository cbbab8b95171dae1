package tokens

import (
	"testing"
	"time"

	jwt "github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "not-even-a-little-secret"

func testCodec(t *testing.T) *Codec {
	codec, err := NewCodec(testSecret, time.Hour)
	require.NoError(t, err)
	return codec
}

func TestRoundTrip(t *testing.T) {
	codec := testCodec(t)

	signed, err := codec.Issue("project-1", "user-1", "PURCHASED", "session-1")
	require.NoError(t, err)

	claims, err := codec.Verify(signed)
	require.NoError(t, err)
	assert.Equal(t, "project-1", claims.ProjectID)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "PURCHASED", claims.AccessType)
	assert.Equal(t, "session-1", claims.SessionID)
	assert.True(t, claims.Expiry().After(time.Now()))
}

func TestExpiryMonotonicity(t *testing.T) {
	codec := testCodec(t)
	issued := time.Now()

	signed, err := codec.IssueAt("p", "u", "FREE", "s", issued)
	require.NoError(t, err)

	// valid up to the horizon
	claims, err := codec.VerifyAt(signed, issued.Add(59*time.Minute))
	require.NoError(t, err)

	// rejected at any later instant
	for _, after := range []time.Duration{time.Second, time.Hour, 48 * time.Hour} {
		_, err := codec.VerifyAt(signed, claims.Expiry().Add(after))
		assert.Equal(t, ErrExpiredToken, err)
	}
}

func TestExpiredTokenStillDecodes(t *testing.T) {
	codec := testCodec(t)
	signed, err := codec.IssueAt("p", "u", "OWNER", "s", time.Now().Add(-2*time.Hour))
	require.NoError(t, err)

	claims, err := codec.Verify(signed)
	assert.Equal(t, ErrExpiredToken, err)
	require.NotNil(t, claims)
	assert.Equal(t, "s", claims.SessionID)
}

func TestVerifyRejectsBadSignature(t *testing.T) {
	codec := testCodec(t)
	other, err := NewCodec("a-different-secret", time.Hour)
	require.NoError(t, err)

	signed, err := other.Issue("p", "u", "FREE", "s")
	require.NoError(t, err)

	_, err = codec.Verify(signed)
	assert.Equal(t, ErrInvalidToken, err)
}

func TestVerifyRejectsMalformed(t *testing.T) {
	codec := testCodec(t)

	for _, garbage := range []string{"", "nope", "a.b.c"} {
		_, err := codec.Verify(garbage)
		assert.Equal(t, ErrInvalidToken, err)
	}
}

func TestVerifyRejectsUnsignedAlg(t *testing.T) {
	codec := testCodec(t)

	token := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{
		ProjectID: "p", UserID: "u", SessionID: "s",
		ExpiresAt: time.Now().Add(time.Hour).UnixNano() / int64(time.Millisecond),
	})
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = codec.Verify(signed)
	assert.Equal(t, ErrInvalidToken, err)
}

func TestVerifyRejectsIncompleteClaims(t *testing.T) {
	codec := testCodec(t)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		ProjectID: "p",
		ExpiresAt: time.Now().Add(time.Hour).UnixNano() / int64(time.Millisecond),
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = codec.Verify(signed)
	assert.Equal(t, ErrInvalidToken, err)
}

func TestFailsClosedWithoutSecret(t *testing.T) {
	_, err := NewCodec("", time.Hour)
	assert.Equal(t, ErrNoSecret, err)

	zero := &Codec{}
	_, err = zero.Issue("p", "u", "FREE", "s")
	assert.Equal(t, ErrNoSecret, err)
	_, err = zero.Verify("whatever")
	assert.Equal(t, ErrNoSecret, err)
}

func TestDefaultTTL(t *testing.T) {
	codec, err := NewCodec(testSecret, 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultTTL, codec.TTL())
}
