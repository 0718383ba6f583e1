package header

import (
	"testing"

	"github.com/phongphan/jose/pkg/jwa"
	"github.com/stretchr/testify/require"
)

// stubKey implements the Key interface without dragging real key
// material into header tests.
type stubKey struct {
	alg jwa.Algorithm
	kid string
}

func (k stubKey) Algorithm() jwa.Algorithm { return k.alg }
func (k stubKey) KeyID() string            { return k.kid }

func TestNew(t *testing.T) {
	params := New(TypeJWT, stubKey{alg: jwa.RS256, kid: "test-kid"})

	alg, err := params.Algorithm()
	require.NoError(t, err)
	require.Equal(t, jwa.RS256, alg)

	kid, err := params.KeyID()
	require.NoError(t, err)
	require.Equal(t, "test-kid", kid)

	typ, err := params.Type()
	require.NoError(t, err)
	require.Equal(t, TypeJWT, typ)
}

func TestNewWithoutType(t *testing.T) {
	params := New("", stubKey{alg: jwa.HS256, kid: "k"})

	_, err := params.Type()
	require.Error(t, err)

	// The constructor always populates alg and kid.
	require.Contains(t, params, Algorithm)
	require.Contains(t, params, KeyID)
}

func TestParse(t *testing.T) {
	params, err := Parse([]byte(`{"typ":"JWT","alg":"RS256","kid":"abc"}`))
	require.NoError(t, err)

	alg, err := params.Algorithm()
	require.NoError(t, err)
	require.Equal(t, jwa.RS256, alg)

	kid, err := params.KeyID()
	require.NoError(t, err)
	require.Equal(t, "abc", kid)
}

func TestParseUnknownParametersKept(t *testing.T) {
	params, err := Parse([]byte(`{"alg":"HS256","x-custom":"value"}`))
	require.NoError(t, err)

	custom, err := params.Get("x-custom")
	require.NoError(t, err)
	require.Equal(t, "value", custom)
}

func TestParseMissingAlgorithm(t *testing.T) {
	_, err := Parse([]byte(`{"typ":"JWT"}`))
	require.Error(t, err)
}

func TestParseMissingKeyIDTolerated(t *testing.T) {
	params, err := Parse([]byte(`{"alg":"HS256"}`))
	require.NoError(t, err)

	_, err = params.KeyID()
	require.Error(t, err)
}

func TestParseUnsupportedAlgorithmRoundTrips(t *testing.T) {
	params, err := Parse([]byte(`{"alg":"XS256"}`))
	require.NoError(t, err)

	alg, err := params.Algorithm()
	require.NoError(t, err)
	require.False(t, alg.Supported())
	require.Equal(t, jwa.Algorithm("XS256"), alg)
}

func TestMarshalBase64URL(t *testing.T) {
	params := Parameters{
		Type:      TypeJWT,
		Algorithm: jwa.HS256,
	}

	encoded, err := params.MarshalBase64URL()
	require.NoError(t, err)
	require.NotEmpty(t, encoded)
	require.NotContains(t, encoded, "=")

	// Keys of a Go map marshal in sorted order, so the encoding is
	// deterministic.
	again, err := params.MarshalBase64URL()
	require.NoError(t, err)
	require.Equal(t, encoded, again)
}

func TestSymmetricAlgorithm(t *testing.T) {
	symmetric, err := Parameters{Algorithm: jwa.HS256}.SymmetricAlgorithm()
	require.NoError(t, err)
	require.True(t, symmetric)

	symmetric, err = Parameters{Algorithm: jwa.ES256}.SymmetricAlgorithm()
	require.NoError(t, err)
	require.False(t, symmetric)

	_, err = Parameters{}.SymmetricAlgorithm()
	require.Error(t, err)
}
