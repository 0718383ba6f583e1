package jwt

import (
	"errors"
	"fmt"
)

var (
	// ErrNoClaims is returned by New when given an empty claims set.
	// A JWT with no claims asserts nothing and is never worth signing.
	ErrNoClaims = errors.New("jwt: cannot create token with empty claims set")

	// ErrExpired is returned by Verify when the "exp" claim is in the
	// past. The signature has already been checked when this is
	// returned.
	ErrExpired = errors.New("jwt: token is expired")

	// ErrNotYetValid is returned by Verify when the "nbf" claim is in
	// the future.
	ErrNotYetValid = errors.New("jwt: token is not yet valid")

	// ErrIssuerNotAllowed is returned by Verify when an issuer
	// allowlist is configured and the "iss" claim is not on it.
	ErrIssuerNotAllowed = errors.New("jwt: token issuer is not allowed")

	// ErrAudienceNotAllowed is returned by Verify when an audience
	// allowlist is configured and the "aud" claim is not on it.
	ErrAudienceNotAllowed = errors.New("jwt: token audience is not allowed")
)

// ClaimError records a registered claim that carries a value of the
// wrong type, such as a string "exp".
type ClaimError struct {
	Name  ClaimName
	Inner error
}

func (e *ClaimError) Error() string {
	return fmt.Sprintf("jwt: invalid %q claim: %v", e.Name, e.Inner)
}

func (e *ClaimError) Unwrap() error {
	return e.Inner
}
