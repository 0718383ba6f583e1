// Package jws implements the JSON Web Signature (JWS) compact
// serialization defined in RFC 7515: the signing-input
// canonicalization, per-algorithm signature production, and
// constant-time verification over an opaque payload.
//
// The supported algorithms are RS256 (RSASSA-PKCS1-v1_5 with
// SHA-256), ES256 (ECDSA P-256 with SHA-256, compact r||s signature
// form) and HS256 (HMAC with SHA-256). Verification never accepts
// "none" or any algorithm outside this set, regardless of the
// supplied key, to rule out algorithm-confusion downgrades.
//
// https://datatracker.ietf.org/doc/html/rfc7515
package jws

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/hmac"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"fmt"
	"math/big"
	"strings"

	"github.com/phongphan/jose/pkg/base64"
	"github.com/phongphan/jose/pkg/header"
	"github.com/phongphan/jose/pkg/jwa"
	"github.com/phongphan/jose/pkg/jwk"
)

// Header is a JSON object containing the parameters describing
// the cryptographic operations and parameters employed.
//
// The JOSE (JSON Object Signing and Encryption) Header is comprised
// of a set of Header Parameters.
type Header = header.Parameters

// es256KeySize is the byte width of each half of an ES256 signature:
// r and s are fixed 32 byte big-endian values, concatenated to 64
// bytes (RFC 7518 Section 3.4, compact rather than DER form).
const es256KeySize = 32

// JWS is a decoded JSON Web Signature in compact serialization: a
// header, an opaque payload, and a signature over the two.
//
// The raw base64url header and payload segments are retained from
// parsing (or produced at signing), so that verification always
// recomputes the signing input from the token's own bytes rather than
// from a re-serialization of the decoded header.
type JWS struct {
	// Header is the set of parameters describing the cryptographic
	// operations applied to the payload.
	Header Header

	// Payload is the secured content. The engine treats it as opaque
	// bytes; the jwt package layers a claims object on top.
	Payload []byte

	// Signature is the raw (decoded) signature or MAC value.
	Signature []byte

	rawHeader  string
	rawPayload string
}

// Parseable is a type that can be parsed into a JWS,
// either a string or byte slice.
type Parseable interface {
	~string | ~[]byte
}

// Parse parses a given JWS in compact serialization, and returns a
// JWS or an error if it fails to parse.
//
// # Warning
//
// Parsing does not verify the signature. Use Verify with a key to
// check it.
func Parse[T Parseable](input T) (*JWS, error) {
	return ParseString(string(input))
}

// ParseString parses a given JWS compact serialization string. The
// input must consist of exactly three dot-separated base64url
// segments; a header or payload segment that fails to decode is a
// structural error. An empty signature segment is tolerated at parse
// time and rejected at verification.
func ParseString(input string) (*JWS, error) {
	fields := strings.Split(input, ".")

	if len(fields) != 3 {
		return nil, fmt.Errorf("jws: invalid number of segments in compact serialization: %d", len(fields))
	}

	headerBytes, err := base64.Decode(fields[0])
	if err != nil {
		return nil, fmt.Errorf("jws: failed to decode header segment: %w", err)
	}

	params, err := header.Parse(headerBytes)
	if err != nil {
		return nil, fmt.Errorf("jws: %w", err)
	}

	payload, err := base64.Decode(fields[1])
	if err != nil {
		return nil, fmt.Errorf("jws: failed to decode payload segment: %w", err)
	}

	var signature []byte
	if fields[2] != "" {
		signature, err = base64.Decode(fields[2])
		if err != nil {
			return nil, fmt.Errorf("jws: failed to decode signature segment: %w", err)
		}
	}

	return &JWS{
		Header:     params,
		Payload:    payload,
		Signature:  signature,
		rawHeader:  fields[0],
		rawPayload: fields[1],
	}, nil
}

// Sign produces a signed JWS over the given payload.
//
// The header's "alg" must match the key's algorithm: signing never
// trusts the header to select a primitive the key cannot back. A
// header without an "alg" parameter inherits the key's. Dispatch is
// by key variant: RSA keys produce RS256, EC P-256 keys ES256, and
// oct keys HS256 signatures.
func Sign(params Header, payload []byte, key jwk.PrivateKey) (*JWS, error) {
	if params == nil {
		params = Header{}
	}

	alg := key.Algorithm()
	if !alg.SignatureAlgorithm() {
		return nil, fmt.Errorf("jws: key algorithm %q cannot sign", alg)
	}

	if declared, err := params.Algorithm(); err == nil {
		if declared != alg {
			return nil, fmt.Errorf("%w: header algorithm %q, key algorithm %q", ErrKeyMismatch, declared, alg)
		}
	} else {
		params[header.Algorithm] = alg
	}

	rawHeader, err := params.MarshalBase64URL()
	if err != nil {
		return nil, fmt.Errorf("jws: %w", err)
	}

	rawPayload := base64.Encode(payload)

	signature, err := sign(rawHeader+"."+rawPayload, alg, key)
	if err != nil {
		return nil, err
	}

	return &JWS{
		Header:     params,
		Payload:    payload,
		Signature:  signature,
		rawHeader:  rawHeader,
		rawPayload: rawPayload,
	}, nil
}

// sign produces the raw signature bytes over the signing input.
func sign(signingInput string, alg jwa.Algorithm, key jwk.PrivateKey) ([]byte, error) {
	switch alg {
	case jwa.HS256:
		secret, err := key.Secret()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrKeyMismatch, err)
		}
		return hmacSHA256(secret, signingInput), nil

	case jwa.RS256:
		privateKey, err := key.RSA()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrKeyMismatch, err)
		}

		digest := sha256.Sum256([]byte(signingInput))

		signature, err := rsa.SignPKCS1v15(rand.Reader, privateKey, crypto.SHA256, digest[:])
		if err != nil {
			return nil, fmt.Errorf("jws: failed to sign with RSA private key: %w", err)
		}
		return signature, nil

	case jwa.ES256:
		privateKey, err := key.ECDSA()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrKeyMismatch, err)
		}

		digest := sha256.Sum256([]byte(signingInput))

		r, s, err := ecdsa.Sign(rand.Reader, privateKey, digest[:])
		if err != nil {
			return nil, fmt.Errorf("jws: failed to sign with ECDSA private key: %w", err)
		}

		// r and s are each left-padded to the fixed key size and
		// concatenated, never DER encoded.
		signature := make([]byte, 2*es256KeySize)
		r.FillBytes(signature[:es256KeySize])
		s.FillBytes(signature[es256KeySize:])
		return signature, nil

	default:
		return nil, fmt.Errorf("jws: algorithm %q not implemented", alg)
	}
}

// SigningInput returns the canonical signing input of the token:
// its raw base64url header and payload segments joined by a dot.
func (t *JWS) SigningInput() string {
	return t.rawHeader + "." + t.rawPayload
}

// String returns the compact serialization of the token: three
// dot-joined unpadded base64url segments.
func (t *JWS) String() string {
	return t.SigningInput() + "." + base64.Encode(t.Signature)
}

// Verify checks the token's signature against the given key.
//
// The token's algorithm must be one of RS256, HS256 or ES256
// (ErrAlgorithmNotAllowed otherwise), and must match the key's
// variant (ErrKeyMismatch otherwise). The signing input is recomputed
// from the token's own raw segments. A failed comparison yields
// ErrInvalidSignature; symmetric comparison is constant time
// (RFC 7518 Section 3.2). On success the token is returned unchanged
// to the caller by leaving it untouched: verification never mutates.
func (t *JWS) Verify(key jwk.PublicKey) error {
	alg, err := t.Header.Algorithm()
	if err != nil {
		return fmt.Errorf("jws: %w", err)
	}

	if !alg.SignatureAlgorithm() {
		return fmt.Errorf("%w, got %q", ErrAlgorithmNotAllowed, alg)
	}

	signingInput := t.SigningInput()

	switch alg {
	case jwa.HS256:
		secret, err := key.Secret()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrKeyMismatch, err)
		}

		expected := hmacSHA256(secret, signingInput)

		// Constant-time comparison: the recomputed MAC is compared
		// against attacker-influenced material.
		if !hmac.Equal(expected, t.Signature) {
			return ErrInvalidSignature
		}
		return nil

	case jwa.RS256:
		publicKey, err := key.RSA()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrKeyMismatch, err)
		}

		digest := sha256.Sum256([]byte(signingInput))

		err = rsa.VerifyPKCS1v15(publicKey, crypto.SHA256, digest[:], t.Signature)
		if err != nil {
			return ErrInvalidSignature
		}
		return nil

	case jwa.ES256:
		publicKey, err := key.ECDSA()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrKeyMismatch, err)
		}

		if len(t.Signature) != 2*es256KeySize {
			return ErrInvalidSignature
		}

		r := new(big.Int).SetBytes(t.Signature[:es256KeySize])
		s := new(big.Int).SetBytes(t.Signature[es256KeySize:])

		digest := sha256.Sum256([]byte(signingInput))

		if !ecdsa.Verify(publicKey, digest[:], r, s) {
			return ErrInvalidSignature
		}
		return nil
	}

	return fmt.Errorf("%w, got %q", ErrAlgorithmNotAllowed, alg)
}

func hmacSHA256(secret []byte, signingInput string) []byte {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(signingInput))
	return mac.Sum(nil)
}
