package jwt

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/phongphan/jose/pkg/header"
	"github.com/phongphan/jose/pkg/jwk"
	"github.com/phongphan/jose/pkg/jws"
	"golang.org/x/exp/slices"
)

// Type "JWT" is the media type used by JSON Web Token (JWT).
//
// https://www.rfc-editor.org/rfc/rfc7515.html#section-3.3
const Type = header.TypeJWT

// Token is a decoded JSON Web Token, a string representing a
// set of claims as a JSON object that is encoded in a JWS,
// enabling the claims to be digitally signed or MACed.
//
// At this time, only JWS JWTs are supported. In other words,
// these tokens are only signed, not encrypted.
//
// JWTs contain three parts, separated by dots (".") which are:
//
//  1. Header
//  2. Claims (Payload)
//  3. Signature
//
// https://datatracker.ietf.org/doc/html/rfc7519#section-1
type Token struct {
	// Header is the set of parameters that are used to describe
	// the cryptographic operations applied to the JWT claims set.
	Header header.Parameters

	// Claims is the set of claims that are asserted by the JWT.
	//
	// This is sometimes referred to as the "payload".
	Claims ClaimsSet

	// Signature is the cryptographic signature or MAC value
	// that is used to validate the JWT.
	Signature []byte

	// The underlying signature token. Verification always goes
	// through it, so that the signing input is the token's own raw
	// bytes rather than a re-serialization of the decoded claims.
	jws *jws.JWS
}

// New creates a signed Token object over the given claims. If this
// fails for any reason, an error is returned with a nil token.
//
// The claims set must not be empty. Registered claims are normalized
// before signing: "exp", "nbf" and "iat" accept int64 and time.Time
// values (stored as Unix seconds), "iss", "sub" and "aud" accept
// string and fmt.Stringer values.
//
// Empty header parameters are filled in from the key: "alg" is the
// key's algorithm, "kid" its derived key ID, and "typ" is always
// "JWT". Explicit parameters are kept, but a "typ" other than "JWT"
// or an "alg" other than the key's is rejected.
func New(params header.Parameters, claims ClaimsSet, key jwk.PrivateKey) (*Token, error) {
	if len(claims) == 0 {
		return nil, ErrNoClaims
	}

	err := normalizeClaims(claims)
	if err != nil {
		return nil, err
	}

	if len(params) == 0 {
		params = header.New(header.TypeJWT, key)
	} else if value, ok := params[header.Type]; !ok {
		params[header.Type] = header.TypeJWT
	} else if value != header.TypeJWT {
		return nil, fmt.Errorf("jwt: header type %q is not supported", value)
	}

	payload, err := json.Marshal(claims)
	if err != nil {
		return nil, fmt.Errorf("jwt: failed to encode claims set: %w", err)
	}

	signed, err := jws.Sign(params, payload, key)
	if err != nil {
		return nil, fmt.Errorf("jwt: failed to sign token: %w", err)
	}

	return &Token{
		Header:    signed.Header,
		Claims:    claims,
		Signature: signed.Signature,
		jws:       signed,
	}, nil
}

// normalizeClaims coerces the registered claims to their canonical Go
// representations before signing: Unix seconds as int64 for the time
// claims, plain strings for the principal claims.
func normalizeClaims(claims ClaimsSet) error {
	for name, value := range claims {
		switch name {
		case ExpirationTime, NotBefore, IssuedAt:
			switch v := value.(type) {
			case int64:
			case int:
				claims[name] = int64(v)
			case time.Time:
				claims[name] = v.Unix()
			default:
				return &ClaimError{Name: name, Inner: fmt.Errorf("cannot use %T value", v)}
			}
		case Issuer, Subject, Audience:
			switch v := value.(type) {
			case string:
			case fmt.Stringer:
				claims[name] = v.String()
			default:
				return &ClaimError{Name: name, Inner: fmt.Errorf("cannot use %T value", v)}
			}
		}
	}

	return nil
}

// String returns the string representation of the token, which is
// the raw JWT string of three base64url encoded parts, separated
// by a period.
func (t *Token) String() string {
	if t.jws == nil {
		return fmt.Sprintf("<unsigned-token: %v>", t.Claims)
	}
	return t.jws.String()
}

// Parseable is a type that can be parsed into a JWT,
// either a string or byte slice.
type Parseable interface {
	~string | ~[]byte
}

// Parse parses a given JWT, and returns a Token or an error
// if the JWT fails to parse.
//
// # Warning
//
// This is a low-level function that does not verify the
// signature of the token. Use ParseAndVerify to parse
// and verify the signature of a token in one step.
// Otherwise, use Parse to parse a token, and then
// use the Verify method to verify the signature.
func Parse[T Parseable](input T) (*Token, error) {
	return ParseString(string(input))
}

// ParseAndVerify parses a given JWT, and verifies its signature with
// the given key along with any claim requirements from the
// verification options.
func ParseAndVerify[T Parseable](input T, key jwk.PublicKey, opts ...VerifyOption) (*Token, error) {
	token, err := Parse(input)
	if err != nil {
		return nil, fmt.Errorf("failed to parse JWT: %w", err)
	}

	err = token.Verify(key, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to verify JWT: %w", err)
	}

	return token, nil
}

// ParseString parses a given JWT string, and returns a Token
// or an error if the JWT fails to parse.
//
// # Warning
//
// This is a low-level function that does not verify the
// signature of the token. Use ParseAndVerify to parse
// and verify the signature of a token in one step.
// Otherwise, use Parse to parse a token, and then
// use the Verify method to verify the signature.
func ParseString(input string) (*Token, error) {
	parsed, err := jws.ParseString(input)
	if err != nil {
		return nil, err
	}

	claims := ClaimsSet{}
	err = json.Unmarshal(parsed.Payload, &claims)
	if err != nil {
		return nil, fmt.Errorf("jwt: failed to decode claims JSON: %w", err)
	}

	// JSON numbers decode as float64; the time claims are carried
	// as int64 Unix seconds.
	for name, value := range claims {
		switch name {
		case IssuedAt, ExpirationTime, NotBefore:
			switch v := value.(type) {
			case int64:
			case float64:
				claims[name] = int64(v)
			default:
				return nil, &ClaimError{Name: name, Inner: fmt.Errorf("cannot use %T value", v)}
			}
		}
	}

	return &Token{
		Header:    parsed.Header,
		Claims:    claims,
		Signature: parsed.Signature,
		jws:       parsed,
	}, nil
}

// Clock is type used to represent a function that returns the current time.
type Clock func() time.Time

// VerifyConfig is a configuration type for verifying JWTs.
type VerifyConfig struct {
	// AllowedIssuers is a set of allowed issuers for the JWT.
	//
	// If not set, then any issuer is allowed.
	AllowedIssuers []string

	// AllowedAudiences is a set of allowed audiences for the JWT.
	//
	// If not set, then any audience is allowed.
	AllowedAudiences []string

	// Clock is a function that returns the current time, used to
	// verify the "exp" and "nbf" claims.
	//
	// If not set, then time.Now will be used.
	Clock Clock
}

// VerifyOption is a functional option type used to configure
// the verification requirements for JWTs.
type VerifyOption func(*VerifyConfig) error

// WithAllowedIssuers sets the allowed issuers for the JWT.
func WithAllowedIssuers(issuers ...string) VerifyOption {
	return func(vc *VerifyConfig) error {
		vc.AllowedIssuers = issuers
		return nil
	}
}

// WithAllowedAudiences sets the allowed audiences for the JWT.
func WithAllowedAudiences(audiences ...string) VerifyOption {
	return func(vc *VerifyConfig) error {
		vc.AllowedAudiences = audiences
		return nil
	}
}

// WithClock sets the clock function for verifying the JWT.
func WithClock(clock Clock) VerifyOption {
	return func(vc *VerifyConfig) error {
		vc.Clock = clock
		return nil
	}
}

// WithDefaultClock sets the clock function for verifying the JWT
// to time.Now.
func WithDefaultClock() VerifyOption {
	return func(vc *VerifyConfig) error {
		vc.Clock = time.Now
		return nil
	}
}

// Verify is used to verify a signed Token object with the given key
// and config options. If this fails for any reason, an error is
// returned.
//
// The signature is always checked first, against the given key only;
// claim requirements are checked after, so an expired token with a
// bad signature reports the signature. The "exp" and "nbf" claims are
// checked whenever present, issuers and audiences only when an
// allowlist is configured.
func (t *Token) Verify(key jwk.PublicKey, opts ...VerifyOption) error {
	config := &VerifyConfig{
		Clock: time.Now,
	}

	for _, opt := range opts {
		err := opt(config)
		if err != nil {
			return fmt.Errorf("jwt: verify option error: %w", err)
		}
	}

	if t.jws == nil {
		return errors.New("jwt: token was not produced by New or Parse")
	}

	err := t.jws.Verify(key)
	if err != nil {
		return err
	}

	now := config.Clock()

	expired, err := t.Expired(func() time.Time { return now })
	if err != nil {
		return err
	}
	if expired {
		return ErrExpired
	}

	if value, ok := t.Claims[NotBefore]; ok {
		nbf, ok := value.(int64)
		if !ok {
			return &ClaimError{Name: NotBefore, Inner: fmt.Errorf("cannot use %T value", value)}
		}
		if now.Before(time.Unix(nbf, 0)) {
			return ErrNotYetValid
		}
	}

	if config.AllowedIssuers != nil {
		issuer, _ := t.Claims[Issuer].(string)
		if !slices.Contains(config.AllowedIssuers, issuer) {
			return fmt.Errorf("%w: %q", ErrIssuerNotAllowed, issuer)
		}
	}

	if config.AllowedAudiences != nil {
		audience, _ := t.Claims[Audience].(string)
		if !slices.Contains(config.AllowedAudiences, audience) {
			return fmt.Errorf("%w: %q", ErrAudienceNotAllowed, audience)
		}
	}

	return nil
}

// Expired returns true if the token is expired, false otherwise.
// A token without an "exp" claim never expires; one with an "exp"
// claim is expired from that instant on, inclusive (RFC 7519
// Section 4.1.4: the current time must be before "exp").
//
// Only use the boolean value if error is nil.
func (t *Token) Expired(clock Clock) (bool, error) {
	value, ok := t.Claims[ExpirationTime]
	if !ok {
		return false, nil
	}
	exp, ok := value.(int64)
	if !ok {
		return false, &ClaimError{Name: ExpirationTime, Inner: fmt.Errorf("cannot use %T value", value)}
	}

	return !clock().Before(time.Unix(exp, 0)), nil
}

// Expires returns true if the token has an expiration time claim,
// false otherwise.
//
// Only use the boolean value if error is nil.
func (t *Token) Expires() (bool, error) {
	value, ok := t.Claims[ExpirationTime]
	if !ok {
		return false, nil
	}
	_, ok = value.(int64)
	if !ok {
		return false, &ClaimError{Name: ExpirationTime, Inner: fmt.Errorf("cannot use %T value", value)}
	}
	return true, nil
}

// FromHTTPAuthorizationHeader extracts a JWT string from the Authorization header of an HTTP request.
// If the Authorization header is not set, then an error is returned.
//
// # Warning
//
// This value needs to be parsed and verified before it can be used safely.
func FromHTTPAuthorizationHeader(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", fmt.Errorf("missing authorization header")
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 {
		return "", fmt.Errorf("invalid authorization header format")
	}

	if !strings.EqualFold(parts[0], "bearer") {
		return "", fmt.Errorf("invalid authorization header format")
	}

	return parts[1], nil
}

// HTTPHeaderValue is a type that can be used as a value when setting
// an HTTP request header. Token is accepted by pointer, since that is
// the receiver of its String method.
type HTTPHeaderValue interface {
	string | *Token
}

// SetHTTPAuthorizationHeader sets the Authorization header of an HTTP request
// to the given JWT. The JWT is prefixed with "Bearer ", as required by the
// HTTP Authorization header specification.
//
// https://tools.ietf.org/html/rfc6750#section-2.1
func SetHTTPAuthorizationHeader[T HTTPHeaderValue](r *http.Request, jwt T) {
	r.Header.Set("Authorization", fmt.Sprintf("Bearer %s", jwt))
}
