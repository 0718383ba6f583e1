package jwa

// Algorithm is a JSON Web Algorithm identifier, the value of the "alg"
// parameter of a JOSE header or JWK.
//
// The registry here is deliberately small and closed: decoding an
// unrecognized token keeps the token as-is rather than failing, so a
// header containing an algorithm this package cannot execute still
// round-trips. Supported reports whether an Algorithm is one this
// package knows how to execute.
//
// https://datatracker.ietf.org/doc/html/rfc7518#section-3.1
type Algorithm string

// HMAC with SHA-2 Functions
//
// This algorithm constructs a MAC using a shared secret and the
// Hash-based Message Authentication Code (HMAC) construction
// [RFC2104] employing SHA-2 [SHS] hash functions.
//
// https://datatracker.ietf.org/doc/html/rfc7518#section-3.2
const HS256 Algorithm = "HS256"

// RSASSA-PKCS1-v1_5
//
// This algorithm digitally signs a JWS and produces a JWS Signature
// using PKCS #1 v1.5 methods.
//
// # RSA Key Size
//
// A key of size 2048 bits or larger MUST be used with this algorithm.
//
// https://datatracker.ietf.org/doc/html/rfc7518#section-3.3
const RS256 Algorithm = "RS256"

// ECDSA
//
// This algorithm digitally signs a JWS and produces a JWS Signature
// using ECDSA over the P-256 curve with SHA-256.
//
// https://datatracker.ietf.org/doc/html/rfc7518#section-3.4
const ES256 Algorithm = "ES256"

// No signature or MAC performed (unprotected JWS).
//
// # Warning
//
// The use of this algorithm is considered dangerous. It is never
// accepted for signature verification by this package, and is only
// enumerated so headers carrying it can be decoded.
//
// https://datatracker.ietf.org/doc/html/rfc7518#section-3.6
const None Algorithm = "none"

// Key management algorithms for JWE. Enumerated for header and JWK
// round-tripping only; encryption is not implemented.
//
// https://datatracker.ietf.org/doc/html/rfc7518#section-4.1
const (
	RSAOAEP Algorithm = "RSA-OAEP"
	RSA15   Algorithm = "RSA1_5"
)

// Supported reports whether the algorithm is part of the closed
// registry this package understands.
func (a Algorithm) Supported() bool {
	switch a {
	case HS256, RS256, ES256, None, RSAOAEP, RSA15:
		return true
	}
	return false
}

// SignatureAlgorithm reports whether the algorithm may be used to
// produce or verify a JWS signature. Note that None is deliberately
// excluded: an unprotected JWS is never verifiable.
func (a Algorithm) SignatureAlgorithm() bool {
	switch a {
	case HS256, RS256, ES256:
		return true
	}
	return false
}

// Symmetric reports whether the algorithm uses a shared secret.
func (a Algorithm) Symmetric() bool {
	return a == HS256
}

// SignatureAlgorithms returns the algorithms accepted for signature
// verification.
func SignatureAlgorithms() []Algorithm {
	return []Algorithm{RS256, HS256, ES256}
}

// KeyType is the value of the "kty" parameter of a JWK, identifying
// the cryptographic key family.
//
// https://datatracker.ietf.org/doc/html/rfc7518#section-6.1
type KeyType string

const (
	Oct KeyType = "oct" // Octet sequence (symmetric keys)
	RSA KeyType = "RSA"
	EC  KeyType = "EC"
)

// Supported reports whether the key type is known to this package.
func (k KeyType) Supported() bool {
	switch k {
	case Oct, RSA, EC:
		return true
	}
	return false
}

// Use is the value of the "use" parameter of a JWK, identifying the
// intended use of the public key.
//
// https://datatracker.ietf.org/doc/html/rfc7517#section-4.2
type Use string

const (
	Sig Use = "sig"
	Enc Use = "enc"
)

// DefaultUse is assumed when a key does not declare a "use" parameter.
const DefaultUse = Sig

// AlgorithmFor returns the algorithm implied by a key's intended use
// and key type. Combinations this package cannot execute yield the
// empty Algorithm, which reports as unsupported; the combination is
// tagged rather than rejected, deferring failure to the point an
// operation actually needs the algorithm.
//
// EC keys map to ES256 for signing; callers constructing EC keys on
// curves other than P-256 get an unsupported algorithm instead.
func AlgorithmFor(use Use, kty KeyType) Algorithm {
	switch use {
	case Sig:
		switch kty {
		case RSA:
			return RS256
		case Oct:
			return HS256
		case EC:
			return ES256
		}
	case Enc:
		switch kty {
		case RSA:
			return RSAOAEP
		}
	}
	return ""
}
