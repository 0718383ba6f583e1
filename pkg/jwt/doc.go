// Package jwt provides a simple and easy-to-use interface
// for working with JSON Web Tokens (JWTs).
//
// It supports creating, parsing, and verifying JWTs, as
// well as setting custom claims and expiration times.
// Keys are the typed JSON Web Keys of the jwk package,
// so the algorithm used to sign or verify a token is
// always the one carried by the key.
package jwt
