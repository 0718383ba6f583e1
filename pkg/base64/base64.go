package base64

import (
	"encoding/base64"
	"fmt"
	"math/big"
	"strings"
)

// Decode returns the base64url decoded bytes from the given input,
// implementing base64url decoding as defined in RFC 4648 Section 5,
// which is used throughout the JWK, JWS and JWT specifications.
//
// It automatically adds padding if needed before decoding.
func Decode(input string) ([]byte, error) {
	if len(input) == 0 {
		return nil, fmt.Errorf("base64: input cannot be empty")
	}

	// Calculate padding needed and add it efficiently.
	if padLen := len(input) % 4; padLen > 0 {
		var b strings.Builder
		b.Grow(len(input) + (4 - padLen))
		b.WriteString(input)
		for i := padLen; i < 4; i++ {
			b.WriteByte('=')
		}
		input = b.String()
	}

	result, err := base64.URLEncoding.DecodeString(input)
	if err != nil {
		return nil, fmt.Errorf("base64: invalid base64url input: %w", err)
	}
	return result, nil
}

// Encode returns the base64url encoded string from the given input,
// without padding characters, as required by RFC 7515.
//
// Empty input encodes to the empty string.
func Encode(input []byte) string {
	return base64.RawURLEncoding.EncodeToString(input)
}

// EncodeUint returns the base64url encoding of the big-endian
// unsigned-magnitude bytes of the given integer, with leading zero
// bytes stripped, as required for the big-integer fields of a JWK
// (RFC 7518 Section 2, "Base64urlUInt").
func EncodeUint(i *big.Int) string {
	return Encode(i.Bytes())
}

// EncodeUintLen returns the base64url encoding of the big-endian
// unsigned-magnitude bytes of the given integer, left-padded with
// zero bytes to exactly size bytes. This fixed-width form is used
// for ECDSA coordinates and signature halves (RFC 7518 Section 3.4).
func EncodeUintLen(i *big.Int, size int) string {
	buf := make([]byte, size)
	i.FillBytes(buf)
	return Encode(buf)
}

// DecodeUint returns the unsigned integer represented by the given
// base64url encoded big-endian bytes. Any leading zero bytes in the
// decoded value are absorbed during integer reconstruction.
func DecodeUint(input string) (*big.Int, error) {
	b, err := Decode(input)
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(b), nil
}
