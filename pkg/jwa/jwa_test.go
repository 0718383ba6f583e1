package jwa

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAlgorithmSupported(t *testing.T) {
	tests := []struct {
		Algorithm Algorithm
		Supported bool
		Signature bool
	}{
		{HS256, true, true},
		{RS256, true, true},
		{ES256, true, true},
		{None, true, false},
		{RSAOAEP, true, false},
		{RSA15, true, false},
		{Algorithm("HS384"), false, false},
		{Algorithm("EdDSA"), false, false},
		{Algorithm(""), false, false},
	}

	for _, test := range tests {
		t.Run(string(test.Algorithm), func(t *testing.T) {
			require.Equal(t, test.Supported, test.Algorithm.Supported())
			require.Equal(t, test.Signature, test.Algorithm.SignatureAlgorithm())
		})
	}
}

func TestAlgorithmRoundTrip(t *testing.T) {
	// Unknown algorithm identifiers survive decoding unchanged, so a
	// header carrying one can be re-serialized byte-for-byte.
	unknown := Algorithm("X25519-unknown")
	require.Equal(t, "X25519-unknown", string(unknown))
	require.False(t, unknown.Supported())
}

func TestAlgorithmFor(t *testing.T) {
	tests := []struct {
		Use      Use
		KeyType  KeyType
		Expected Algorithm
	}{
		{Sig, RSA, RS256},
		{Sig, Oct, HS256},
		{Sig, EC, ES256},
		{Enc, RSA, RSAOAEP},
		{Enc, Oct, ""},
		{Enc, EC, ""},
	}

	for _, test := range tests {
		t.Run(string(test.Use)+"/"+string(test.KeyType), func(t *testing.T) {
			require.Equal(t, test.Expected, AlgorithmFor(test.Use, test.KeyType))
		})
	}
}

func TestSignatureAlgorithms(t *testing.T) {
	algs := SignatureAlgorithms()
	require.Len(t, algs, 3)
	require.NotContains(t, algs, None)

	for _, alg := range algs {
		require.True(t, alg.SignatureAlgorithm())
	}
}

func TestSymmetric(t *testing.T) {
	require.True(t, HS256.Symmetric())
	require.False(t, RS256.Symmetric())
	require.False(t, ES256.Symmetric())
}
