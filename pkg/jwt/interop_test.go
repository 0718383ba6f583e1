package jwt

import (
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/phongphan/jose/pkg/jwa"
	"github.com/phongphan/jose/pkg/jwk"
	"github.com/phongphan/jose/pkg/keyutil"
	"github.com/stretchr/testify/require"
)

// Tokens signed here verify under golang-jwt, and tokens signed by
// golang-jwt verify here. Anything less means one side is off wire
// format.

func TestInteropSymmetricTokenVerifiesElsewhere(t *testing.T) {
	secret := []byte("interop-test-secret")
	key := jwk.NewSymmetricKey(secret)

	token, err := New(nil, ClaimsSet{
		Subject:        "tester",
		ExpirationTime: time.Now().Add(time.Hour),
	}, key)
	require.NoError(t, err)

	parsed, err := gojwt.Parse(token.String(),
		func(*gojwt.Token) (any, error) { return secret, nil },
		gojwt.WithValidMethods([]string{"HS256"}),
	)
	require.NoError(t, err)
	require.True(t, parsed.Valid)

	sub, err := parsed.Claims.GetSubject()
	require.NoError(t, err)
	require.Equal(t, "tester", sub)
}

func TestInteropRSATokenVerifiesElsewhere(t *testing.T) {
	publicKey, privateKey, err := keyutil.NewRSAKeyPair()
	require.NoError(t, err)

	key := jwk.FromRSAPrivateKey(privateKey, jwa.Sig)

	token, err := New(nil, ClaimsSet{Subject: "tester"}, key)
	require.NoError(t, err)

	parsed, err := gojwt.Parse(token.String(),
		func(*gojwt.Token) (any, error) { return publicKey, nil },
		gojwt.WithValidMethods([]string{"RS256"}),
	)
	require.NoError(t, err)
	require.True(t, parsed.Valid)
}

func TestInteropECDSATokenVerifiesElsewhere(t *testing.T) {
	publicKey, privateKey, err := keyutil.NewECDSAKeyPair()
	require.NoError(t, err)

	key := jwk.FromECDSAPrivateKey(privateKey, jwa.Sig)

	token, err := New(nil, ClaimsSet{Subject: "tester"}, key)
	require.NoError(t, err)

	parsed, err := gojwt.Parse(token.String(),
		func(*gojwt.Token) (any, error) { return publicKey, nil },
		gojwt.WithValidMethods([]string{"ES256"}),
	)
	require.NoError(t, err)
	require.True(t, parsed.Valid)
}

func TestInteropForeignSymmetricTokenVerifiesHere(t *testing.T) {
	secret := []byte("interop-test-secret")

	foreign, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, gojwt.MapClaims{
		"sub": "tester",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString(secret)
	require.NoError(t, err)

	key := jwk.NewSymmetricKey(secret)

	token, err := ParseAndVerify(foreign, key.Public())
	require.NoError(t, err)

	sub, err := token.Claims.Get(Subject)
	require.NoError(t, err)
	require.Equal(t, "tester", sub)
}

func TestInteropForeignRSATokenVerifiesHere(t *testing.T) {
	_, privateKey, err := keyutil.NewRSAKeyPair()
	require.NoError(t, err)

	foreign, err := gojwt.NewWithClaims(gojwt.SigningMethodRS256, gojwt.MapClaims{
		"sub": "tester",
	}).SignedString(privateKey)
	require.NoError(t, err)

	key := jwk.FromRSAPublicKey(&privateKey.PublicKey, jwa.Sig)

	_, err = ParseAndVerify(foreign, key)
	require.NoError(t, err)
}

func TestInteropForeignECDSATokenVerifiesHere(t *testing.T) {
	_, privateKey, err := keyutil.NewECDSAKeyPair()
	require.NoError(t, err)

	foreign, err := gojwt.NewWithClaims(gojwt.SigningMethodES256, gojwt.MapClaims{
		"sub": "tester",
	}).SignedString(privateKey)
	require.NoError(t, err)

	key := jwk.FromECDSAPublicKey(&privateKey.PublicKey, jwa.Sig)

	_, err = ParseAndVerify(foreign, key)
	require.NoError(t, err)
}
