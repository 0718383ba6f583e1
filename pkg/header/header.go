package header

import (
	"encoding/json"
	"fmt"

	"github.com/phongphan/jose/pkg/base64"
	"github.com/phongphan/jose/pkg/jwa"
)

// There are three classes of Header Parameter names: Registered Header
// Parameter names, Public Header Parameter names, and Private Header
// Parameter names.
//
// https://datatracker.ietf.org/doc/html/rfc7515#section-4
type (
	ParameterName = string

	Registered = ParameterName
	Public     = ParameterName
	Private    = ParameterName
)

// Registered Header Parameter Names
//
// https://datatracker.ietf.org/doc/html/rfc7515#section-4.1
const (
	Type                            Registered = "typ"
	Algorithm                       Registered = "alg"
	JWKSetURL                       Registered = "jku"
	JSONWebKey                      Registered = "jwk"
	X509URL                         Registered = "x5u"
	X509CertificateChain            Registered = "x5c"
	X509CertificateSHA1Thumbprint   Registered = "x5t"
	X509CertificateSHA256Thumbprint Registered = "x5t#S256"
	ContentType                     Registered = "cty"
	Critical                        Registered = "crit"

	// https://www.rfc-editor.org/rfc/rfc7516.html#section-4.1.2
	Encryption Registered = "enc"

	// https://www.rfc-editor.org/rfc/rfc7516.html#section-4.1.3
	Zip Registered = "zip"

	// https://www.rfc-editor.org/rfc/rfc7516.html#section-4.1.6
	KeyID Registered = "kid"
)

const TypeJWT = "JWT"

// Parameters is a JSON object containing the parameters describing
// the cryptographic operations and parameters employed.
//
// The JOSE (JSON Object Signing and Encryption) Header is comprised
// of a set of Header Parameters. Unknown parameters are carried
// through (de)serialization untouched, for forward compatibility.
type Parameters map[ParameterName]any

// Key is the view of a JSON Web Key needed to construct a header:
// its algorithm and its derived key ID. Both jwk.PublicKey and
// jwk.PrivateKey implement it.
type Key interface {
	Algorithm() jwa.Algorithm
	KeyID() string
}

// New returns header parameters describing a signature produced with
// the given key: "alg" is the key's algorithm and "kid" its derived
// key ID, which is always populated. The "typ" parameter is set from
// the argument when non-empty.
func New(typ string, key Key) Parameters {
	params := Parameters{
		Algorithm: key.Algorithm(),
		KeyID:     key.KeyID(),
	}

	if typ != "" {
		params[Type] = typ
	}

	return params
}

// Parse decodes the JSON representation of header parameters. A header
// without an "alg" parameter is rejected; a missing "kid" is tolerated,
// since only headers built by New are guaranteed to carry one. Unknown
// parameters are kept.
func Parse(data []byte) (Parameters, error) {
	params := Parameters{}

	err := json.Unmarshal(data, &params)
	if err != nil {
		return nil, fmt.Errorf("failed to decode JOSE header JSON: %w", err)
	}

	value, ok := params[Algorithm]
	if !ok {
		return nil, fmt.Errorf("header does not contain an %q parameter", Algorithm)
	}

	// Ensure the algorithm is carried as a jwa.Algorithm, not the raw
	// string produced by JSON decoding.
	alg, ok := value.(string)
	if !ok {
		return nil, fmt.Errorf("header parameter %q is not a string, is %T", Algorithm, value)
	}
	params[Algorithm] = jwa.Algorithm(alg)

	return params, nil
}

// MarshalBase64URL returns the unpadded base64url encoding of the JSON
// representation of the header, the first segment of a compact
// serialization and of the signing input.
func (h Parameters) MarshalBase64URL() (string, error) {
	b, err := json.Marshal(h)
	if err != nil {
		return "", fmt.Errorf("failed to encode JOSE header JSON: %w", err)
	}
	return base64.Encode(b), nil
}

func (h Parameters) Type() (string, error) {
	value, ok := h[Type]
	if !ok {
		return "", fmt.Errorf("header does not contain a %q parameter", Type)
	}
	strValue, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("header parameter %q is not a string, is %T", Type, value)
	}
	return strValue, nil
}

func (h Parameters) Algorithm() (jwa.Algorithm, error) {
	value, ok := h[Algorithm]
	if !ok {
		return "", fmt.Errorf("header does not contain an %q parameter", Algorithm)
	}

	switch alg := value.(type) {
	case jwa.Algorithm:
		return alg, nil
	case string:
		return jwa.Algorithm(alg), nil
	}

	return "", fmt.Errorf("header parameter %q is invalid type %T", Algorithm, value)
}

func (h Parameters) KeyID() (string, error) {
	value, ok := h[KeyID]
	if !ok {
		return "", fmt.Errorf("header does not contain a %q parameter", KeyID)
	}
	strValue, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("header parameter %q is not a string, is %T", KeyID, value)
	}
	return strValue, nil
}

// SymmetricAlgorithm reports whether the header's algorithm uses a
// shared secret.
func (h Parameters) SymmetricAlgorithm() (bool, error) {
	alg, err := h.Algorithm()
	if err != nil {
		return false, err
	}

	return alg.Symmetric(), nil
}

func (h Parameters) Get(param ParameterName) (any, error) {
	value, ok := h[param]
	if !ok {
		return nil, fmt.Errorf("header does not contain a %q parameter", param)
	}
	return value, nil
}
