package jwk

import (
	"errors"
	"fmt"
)

var (
	// ErrNotRSA is returned by the RSA-typed accessors of a key whose
	// key type is not RSA.
	ErrNotRSA = errors.New("jwk: key is not an RSA key")

	// ErrUnsupportedKeyType is returned when an operation is not
	// supported for a key's key type, such as PEM encoding a
	// symmetric key.
	ErrUnsupportedKeyType = errors.New("jwk: unsupported key type")

	// ErrMissingUseAndAlg is returned when a JWK declares neither an
	// "alg" nor a "use" parameter: a key must disambiguate its
	// algorithm, explicitly or via its intended use.
	ErrMissingUseAndAlg = errors.New(`jwk: key declares neither "alg" nor "use"`)
)

// FieldError reports a required JWK field that is absent or malformed.
type FieldError struct {
	Field string

	Inner error
}

func (e *FieldError) Error() string {
	if e.Inner != nil {
		return fmt.Sprintf("jwk: invalid field %q: %v", e.Field, e.Inner)
	}
	return fmt.Sprintf("jwk: missing required field %q", e.Field)
}

func (e *FieldError) Unwrap() error {
	return e.Inner
}
