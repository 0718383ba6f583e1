// Package jwe reserves the surface for JSON Web Encryption (JWE)
// tokens, defined in RFC 7516. Encrypted tokens are recognized but
// not yet processed: the five-segment compact serialization parses
// far enough to be told apart from a JWS, and everything beyond that
// returns ErrNotImplemented.
//
// https://datatracker.ietf.org/doc/html/rfc7516
package jwe

import (
	"errors"
	"strings"

	"github.com/phongphan/jose/pkg/header"
)

type Header = header.Parameters

// Registered JWE Header Parameter Names
//
// https://datatracker.ietf.org/doc/html/rfc7516#section-4.1
const (
	Algorithm                       header.ParameterName = "alg"
	EncryptionAlgorithm             header.ParameterName = "enc"
	CompressionAlgorithm            header.ParameterName = "zip"
	JWKSetURL                       header.ParameterName = "jku"
	JSONWebKey                      header.ParameterName = "jwk"
	KeyID                           header.ParameterName = "kid"
	X509URL                         header.ParameterName = "x5u"
	X509CertificateChain            header.ParameterName = "x5c"
	X509CertificateSHA1Thumbprint   header.ParameterName = "x5t"
	X509CertificateSHA256Thumbprint header.ParameterName = "x5t#S256"
	Type                            header.ParameterName = "typ"
	ContentType                     header.ParameterName = "cty"
	Critical                        header.ParameterName = "crit"
)

// ErrNotImplemented is returned by every JWE operation. Key types
// tagged with encryption algorithms such as "RSA-OAEP" parse today so
// that key sets containing them stay readable; using them waits on
// this package.
var ErrNotImplemented = errors.New("jwe: encrypted tokens are not implemented")

// segments is the number of dot-separated parts in a JWE compact
// serialization: header, encrypted key, IV, ciphertext, tag.
const segments = 5

// IsCompact reports whether the input has the five-segment shape of a
// JWE compact serialization, letting callers route tokens between the
// jws and jwe packages before parsing either.
func IsCompact(input string) bool {
	return strings.Count(input, ".") == segments-1
}

// Parse recognizes a JWE compact serialization and returns
// ErrNotImplemented. An input without the five-segment shape is not a
// JWE and reports that instead.
func Parse(input string) error {
	if !IsCompact(input) {
		return errors.New("jwe: invalid number of segments in compact serialization")
	}
	return ErrNotImplemented
}
