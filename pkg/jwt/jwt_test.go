package jwt

import (
	"net/http"
	"testing"
	"time"

	"github.com/phongphan/jose/pkg/header"
	"github.com/phongphan/jose/pkg/jwa"
	"github.com/phongphan/jose/pkg/jwk"
	"github.com/phongphan/jose/pkg/jws"
	"github.com/phongphan/jose/pkg/keyutil"
	"github.com/stretchr/testify/require"
)

// testSymmetricToken is the token produced by signing {"sub":"tester"}
// with the oct key "secret" and a header derived from the key. HMAC
// signing is deterministic, and the header JSON serializes its keys in
// lexicographic order, so the serialization is stable.
const (
	testSymmetricToken = "eyJhbGciOiJIUzI1NiIsImtpZCI6IkRXQmgwU0VJQVBZaDF4NXV2b3Q0ejNBaGFpa0hreE5KYTNBZGEyZlQtQ2ciLCJ0eXAiOiJKV1QifQ" +
		".eyJzdWIiOiJ0ZXN0ZXIifQ" +
		".3FppQuX7VacK_3KHUtf7IXf3qhCwDwbc3OWC83RTvxs"

	testSymmetricKeyID = "DWBh0SEIAPYh1x5uvot4z3AhaikHkxNJa3Ada2fT-Cg"
)

func TestNewSymmetricTokenIsDeterministic(t *testing.T) {
	key := jwk.NewSymmetricKey([]byte("secret"))

	token, err := New(nil, ClaimsSet{Subject: "tester"}, key)
	require.NoError(t, err)

	require.Equal(t, testSymmetricToken, token.String())

	kid, err := token.Header.KeyID()
	require.NoError(t, err)
	require.Equal(t, testSymmetricKeyID, kid)

	typ, err := token.Header.Type()
	require.NoError(t, err)
	require.Equal(t, Type, typ)
}

func TestParseAndVerifySymmetricToken(t *testing.T) {
	key := jwk.NewSymmetricKey([]byte("secret"))

	token, err := ParseAndVerify(testSymmetricToken, key.Public())
	require.NoError(t, err)

	sub, err := token.Claims.Get(Subject)
	require.NoError(t, err)
	require.Equal(t, "tester", sub)
}

func TestVerifyWrongSecret(t *testing.T) {
	token, err := ParseString(testSymmetricToken)
	require.NoError(t, err)

	other := jwk.NewSymmetricKey([]byte("not-the-secret"))
	require.ErrorIs(t, token.Verify(other.Public()), jws.ErrInvalidSignature)
}

func TestRSATokenRoundTrip(t *testing.T) {
	_, privateKey, err := keyutil.NewRSAKeyPair()
	require.NoError(t, err)

	key := jwk.FromRSAPrivateKey(privateKey, jwa.Sig)
	require.Len(t, key.KeyID(), 43)

	token, err := New(nil, ClaimsSet{
		Issuer:         "test-service",
		Subject:        "tester",
		ExpirationTime: time.Now().Add(time.Hour),
		IssuedAt:       time.Now(),
	}, key)
	require.NoError(t, err)

	parsed, err := ParseString(token.String())
	require.NoError(t, err)
	require.NoError(t, parsed.Verify(key.Public()))

	// The time claims are carried as int64 Unix seconds on both sides.
	exp, err := parsed.Claims.Get(ExpirationTime)
	require.NoError(t, err)
	require.IsType(t, int64(0), exp)

	kid, err := parsed.Header.KeyID()
	require.NoError(t, err)
	require.Equal(t, key.KeyID(), kid)
}

func TestECDSATokenRoundTrip(t *testing.T) {
	_, privateKey, err := keyutil.NewECDSAKeyPair()
	require.NoError(t, err)

	key := jwk.FromECDSAPrivateKey(privateKey, jwa.Sig)

	token, err := New(nil, ClaimsSet{Subject: "tester"}, key)
	require.NoError(t, err)

	_, err = ParseAndVerify(token.String(), key.Public())
	require.NoError(t, err)
}

func TestVerifyExpiredToken(t *testing.T) {
	key := jwk.NewSymmetricKey([]byte("secret"))

	token, err := New(nil, ClaimsSet{
		Subject:        "tester",
		ExpirationTime: time.Now().Add(-time.Minute),
	}, key)
	require.NoError(t, err)

	// The signature is valid, only the expiry is in the past.
	parsed, err := ParseString(token.String())
	require.NoError(t, err)
	require.ErrorIs(t, parsed.Verify(key.Public()), ErrExpired)

	expired, err := parsed.Expired(time.Now)
	require.NoError(t, err)
	require.True(t, expired)

	expires, err := parsed.Expires()
	require.NoError(t, err)
	require.True(t, expires)
}

func TestVerifyExpiryWithClock(t *testing.T) {
	key := jwk.NewSymmetricKey([]byte("secret"))

	exp := time.Date(2030, time.January, 1, 0, 0, 0, 0, time.UTC)
	token, err := New(nil, ClaimsSet{Subject: "tester", ExpirationTime: exp}, key)
	require.NoError(t, err)

	before := func() time.Time { return exp.Add(-time.Hour) }
	atExp := func() time.Time { return exp }
	after := func() time.Time { return exp.Add(time.Hour) }

	require.NoError(t, token.Verify(key.Public(), WithClock(before)))
	// A token expires at exactly exp: the current time must be
	// strictly before it.
	require.ErrorIs(t, token.Verify(key.Public(), WithClock(atExp)), ErrExpired)
	require.ErrorIs(t, token.Verify(key.Public(), WithClock(after)), ErrExpired)

	expired, err := token.Expired(atExp)
	require.NoError(t, err)
	require.True(t, expired)
}

func TestVerifyTokenWithoutExpiry(t *testing.T) {
	key := jwk.NewSymmetricKey([]byte("secret"))

	token, err := New(nil, ClaimsSet{Subject: "tester"}, key)
	require.NoError(t, err)
	require.NoError(t, token.Verify(key.Public()))

	expires, err := token.Expires()
	require.NoError(t, err)
	require.False(t, expires)
}

func TestVerifyNotBefore(t *testing.T) {
	key := jwk.NewSymmetricKey([]byte("secret"))

	token, err := New(nil, ClaimsSet{
		Subject:   "tester",
		NotBefore: time.Now().Add(time.Hour),
	}, key)
	require.NoError(t, err)

	require.ErrorIs(t, token.Verify(key.Public()), ErrNotYetValid)

	// Usable once the clock passes nbf.
	later := func() time.Time { return time.Now().Add(2 * time.Hour) }
	require.NoError(t, token.Verify(key.Public(), WithClock(later)))
}

func TestVerifyAllowedIssuersAndAudiences(t *testing.T) {
	key := jwk.NewSymmetricKey([]byte("secret"))

	token, err := New(nil, ClaimsSet{
		Issuer:   "issuer-a",
		Audience: "audience-a",
		Subject:  "tester",
	}, key)
	require.NoError(t, err)

	require.NoError(t, token.Verify(key.Public(),
		WithAllowedIssuers("issuer-a", "issuer-b"),
		WithAllowedAudiences("audience-a"),
	))

	require.ErrorIs(t,
		token.Verify(key.Public(), WithAllowedIssuers("issuer-b")),
		ErrIssuerNotAllowed,
	)

	require.ErrorIs(t,
		token.Verify(key.Public(), WithAllowedAudiences("audience-b")),
		ErrAudienceNotAllowed,
	)
}

func TestNewEmptyClaims(t *testing.T) {
	key := jwk.NewSymmetricKey([]byte("secret"))

	_, err := New(nil, ClaimsSet{}, key)
	require.ErrorIs(t, err, ErrNoClaims)
}

func TestNewInvalidClaimTypes(t *testing.T) {
	key := jwk.NewSymmetricKey([]byte("secret"))

	_, err := New(nil, ClaimsSet{ExpirationTime: "tomorrow"}, key)
	claimErr := &ClaimError{}
	require.ErrorAs(t, err, &claimErr)
	require.Equal(t, ExpirationTime, claimErr.Name)

	_, err = New(nil, ClaimsSet{Issuer: 42}, key)
	require.ErrorAs(t, err, &claimErr)
	require.Equal(t, Issuer, claimErr.Name)
}

func TestNewRejectsNonJWTType(t *testing.T) {
	key := jwk.NewSymmetricKey([]byte("secret"))

	params := header.Parameters{
		header.Type:      "JOSE",
		header.Algorithm: jwa.HS256,
	}

	_, err := New(params, ClaimsSet{Subject: "tester"}, key)
	require.Error(t, err)
}

func TestParseInvalidClaimsJSON(t *testing.T) {
	// Valid JWS framing, but the payload is not a JSON object.
	key := jwk.NewSymmetricKey([]byte("secret"))

	signed, err := jws.Sign(nil, []byte("not-json"), key)
	require.NoError(t, err)

	_, err = ParseString(signed.String())
	require.Error(t, err)
}

func TestClaimsSetNamesSorted(t *testing.T) {
	claims := ClaimsSet{Subject: "tester", Audience: "aud", Issuer: "iss"}
	require.Equal(t, []ClaimName{Audience, Issuer, Subject}, claims.Names())
}

func TestHTTPAuthorizationHeaderRoundTrip(t *testing.T) {
	key := jwk.NewSymmetricKey([]byte("secret"))

	token, err := New(nil, ClaimsSet{Subject: "tester"}, key)
	require.NoError(t, err)

	r, err := http.NewRequest(http.MethodGet, "https://example.com", nil)
	require.NoError(t, err)

	SetHTTPAuthorizationHeader(r, token.String())

	value, err := FromHTTPAuthorizationHeader(r)
	require.NoError(t, err)
	require.Equal(t, token.String(), value)

	_, err = ParseAndVerify(value, key.Public())
	require.NoError(t, err)

	// A *Token renders as its compact serialization, same as the
	// string form.
	SetHTTPAuthorizationHeader(r, token)

	value, err = FromHTTPAuthorizationHeader(r)
	require.NoError(t, err)
	require.Equal(t, token.String(), value)
}

func TestFromHTTPAuthorizationHeaderErrors(t *testing.T) {
	r, err := http.NewRequest(http.MethodGet, "https://example.com", nil)
	require.NoError(t, err)

	_, err = FromHTTPAuthorizationHeader(r)
	require.Error(t, err)

	r.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	_, err = FromHTTPAuthorizationHeader(r)
	require.Error(t, err)

	r.Header.Set("Authorization", "Bearer")
	_, err = FromHTTPAuthorizationHeader(r)
	require.Error(t, err)
}
