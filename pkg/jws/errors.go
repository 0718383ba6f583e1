package jws

import "errors"

var (
	// ErrInvalidSignature is returned when a signature does not verify
	// against the token's own header and payload bytes.
	ErrInvalidSignature = errors.New("jws: invalid signature")

	// ErrAlgorithmNotAllowed is returned when a token's algorithm is
	// outside the verification allowlist (RS256, HS256, ES256).
	// The "none" algorithm and the encryption algorithms are never
	// accepted for signature verification, even with a matching key.
	ErrAlgorithmNotAllowed = errors.New("jws: alg must be RS256, HS256 or ES256")

	// ErrKeyMismatch is returned when the supplied JWK does not match
	// the algorithm of the operation, such as an oct key against an
	// RS256 header.
	ErrKeyMismatch = errors.New("jws: JWK does not match algorithm")
)
