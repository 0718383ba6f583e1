// Package thumbprint computes JWK Thumbprints as defined in RFC 7638.
//
// A thumbprint is the digest of a canonical JSON object containing only
// the required members of a JWK, ordered lexicographically, with no
// insignificant whitespace. It is the deterministic fingerprint used to
// derive key IDs: identical public key material always yields an
// identical thumbprint.
//
// https://datatracker.ietf.org/doc/html/rfc7638
package thumbprint

import (
	"bytes"
	"crypto"
	"errors"

	"github.com/phongphan/jose/pkg/base64"
)

var (
	ErrInvalidKey = errors.New("thumbprint: invalid key")
)

// Required members per key type, ordered lexicographically by Unicode
// code point as RFC 7638 Section 3 demands. The "k" member covers
// symmetric (oct) keys per Section 3.2.
var requiredLexicographically = []string{"crv", "e", "k", "kty", "n", "x", "y"}

// Generate returns the JWK Thumbprint for the given members following
// the steps defined in RFC 7638. The members map holds the JWK string
// parameters of the key; only the required members for its key type
// contribute to the digest, any others are ignored.
func Generate(members map[string]string, h crypto.Hash) ([]byte, error) {
	// 1. Construct a JSON object containing only the required members
	// of a JWK representing the key and with no whitespace or line
	// breaks before or after any syntactic elements and with the
	// required members ordered lexicographically by the Unicode
	// code points of the member names.
	//
	// (This JSON object is itself a legal JWK representation of the key.)
	subset := map[string]string{}

	for _, name := range required(members["kty"]) {
		value, ok := members[name]
		if !ok || value == "" {
			return nil, ErrInvalidKey
		}
		subset[name] = value
	}

	if len(subset) == 0 {
		return nil, ErrInvalidKey
	}

	// Get a lexical representation of the JSON object. The standard
	// library's json.Marshal sorts map keys, but writing it out keeps
	// the canonical form independent of encoder behavior.
	b := bytes.NewBuffer(nil)

	b.WriteRune('{')

	first := true
	for _, name := range requiredLexicographically {
		value, ok := subset[name]
		if !ok {
			continue
		}

		if !first {
			b.WriteRune(',')
		}
		first = false

		b.WriteRune('"')
		b.WriteString(name)
		b.WriteString(`":"`)
		b.WriteString(value)
		b.WriteRune('"')
	}

	b.WriteRune('}')

	// 2. Hash the octets of the UTF-8 representation of this JSON
	// object with a cryptographic hash function H.
	//
	// If none is specified, SHA-256 is used.
	if h == 0 {
		h = crypto.SHA256
	}

	hash := h.New()

	_, err := hash.Write(b.Bytes())
	if err != nil {
		return nil, err
	}

	return hash.Sum(nil), nil
}

// GenerateString returns the JWK Thumbprint for the given members
// following the steps defined in RFC 7638 as an unpadded base64url
// encoded string, the form used for the "kid" of a key.
func GenerateString(members map[string]string, h crypto.Hash) (string, error) {
	tp, err := Generate(members, h)
	if err != nil {
		return "", err
	}

	return base64.Encode(tp), nil
}

// required returns the required thumbprint members for a key type.
func required(kty string) []string {
	switch kty {
	case "RSA":
		return []string{"e", "kty", "n"}
	case "EC":
		return []string{"crv", "kty", "x", "y"}
	case "oct":
		return []string{"k", "kty"}
	default:
		return nil
	}
}
