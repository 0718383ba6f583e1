// Package jwk implements the JSON Web Key (JWK) representation of
// cryptographic keys defined in RFC 7517, for the oct (symmetric),
// RSA and EC key families.
//
// Keys come in two views sharing one internal representation:
// PublicKey and PrivateKey. The split is enforced by construction
// rather than by runtime checks: a PublicKey never carries private
// material, signing operations only accept a PrivateKey, and the only
// conversion is the total projection PrivateKey.Public. Symmetric
// (oct) keys are full members of both views, since a shared secret
// both signs and verifies.
//
// Keys are immutable once constructed, from raw material, PEM or
// JSON, and are safe for concurrent use. The key ID ("kid") is never
// stored: it is derived on demand from the public key material as an
// RFC 7638 thumbprint, so identical material always yields an
// identical kid.
//
// https://datatracker.ietf.org/doc/html/rfc7517
package jwk

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"io"
	"math/big"

	"github.com/phongphan/jose/pkg/base64"
	"github.com/phongphan/jose/pkg/jwa"
	"github.com/phongphan/jose/pkg/jwk/thumbprint"
	"github.com/phongphan/jose/pkg/keyutil"
)

// key is the internal representation shared by PublicKey and
// PrivateKey. Exactly one material field is set, matching kty.
type key struct {
	kty jwa.KeyType
	alg jwa.Algorithm
	use jwa.Use

	secret []byte            // oct
	rsaPub *rsa.PublicKey    // RSA, public view
	rsa    *rsa.PrivateKey   // RSA, private view
	ecPub  *ecdsa.PublicKey  // EC, public view
	ec     *ecdsa.PrivateKey // EC, private view
}

// PublicKey is the verification-capable view of a JWK. It never
// carries private key material, with the deliberate exception of oct
// keys, whose shared secret serves both operations.
type PublicKey struct {
	key key
}

// PrivateKey is the signing-capable view of a JWK.
type PrivateKey struct {
	key key
}

// NewSymmetricKey returns the JWK for a shared secret. Symmetric keys
// only drive HMAC here, so the algorithm is fixed to HS256.
func NewSymmetricKey(secret []byte) PrivateKey {
	return PrivateKey{key{
		kty:    jwa.Oct,
		alg:    jwa.HS256,
		use:    jwa.Sig,
		secret: append([]byte(nil), secret...),
	}}
}

// FromRSAPublicKey returns the JWK for an RSA public key. An empty
// use defaults to sig.
func FromRSAPublicKey(publicKey *rsa.PublicKey, use jwa.Use) PublicKey {
	if use == "" {
		use = jwa.DefaultUse
	}
	return PublicKey{key{
		kty:    jwa.RSA,
		alg:    jwa.AlgorithmFor(use, jwa.RSA),
		use:    use,
		rsaPub: publicKey,
	}}
}

// FromRSAPrivateKey returns the JWK for an RSA private key. An empty
// use defaults to sig.
func FromRSAPrivateKey(privateKey *rsa.PrivateKey, use jwa.Use) PrivateKey {
	if use == "" {
		use = jwa.DefaultUse
	}
	privateKey.Precompute()
	return PrivateKey{key{
		kty: jwa.RSA,
		alg: jwa.AlgorithmFor(use, jwa.RSA),
		use: use,
		rsa: privateKey,
	}}
}

// FromECDSAPublicKey returns the JWK for an ECDSA public key. Only
// P-256 keys map to an executable algorithm (ES256); keys on other
// curves are tagged unsupported rather than rejected, and fail only
// when an operation needs the algorithm.
func FromECDSAPublicKey(publicKey *ecdsa.PublicKey, use jwa.Use) PublicKey {
	if use == "" {
		use = jwa.DefaultUse
	}
	return PublicKey{key{
		kty:   jwa.EC,
		alg:   ecAlgorithm(publicKey.Curve, use),
		use:   use,
		ecPub: publicKey,
	}}
}

// FromECDSAPrivateKey returns the JWK for an ECDSA private key. See
// FromECDSAPublicKey for the curve constraint.
func FromECDSAPrivateKey(privateKey *ecdsa.PrivateKey, use jwa.Use) PrivateKey {
	if use == "" {
		use = jwa.DefaultUse
	}
	return PrivateKey{key{
		kty: jwa.EC,
		alg: ecAlgorithm(privateKey.Curve, use),
		use: use,
		ec:  privateKey,
	}}
}

func ecAlgorithm(curve elliptic.Curve, use jwa.Use) jwa.Algorithm {
	if curve != elliptic.P256() {
		return ""
	}
	return jwa.AlgorithmFor(use, jwa.EC)
}

// Public is the total projection from the private to the public view,
// dropping private numeric material only: the algorithm, key type and
// use carry over unchanged. There is no reverse conversion.
func (k PrivateKey) Public() PublicKey {
	public := key{
		kty:    k.key.kty,
		alg:    k.key.alg,
		use:    k.key.use,
		secret: k.key.secret,
	}

	if k.key.rsa != nil {
		public.rsaPub = &k.key.rsa.PublicKey
	}
	if k.key.ec != nil {
		public.ecPub = &k.key.ec.PublicKey
	}

	return PublicKey{public}
}

// KeyType returns the key's "kty" value.
func (k PublicKey) KeyType() jwa.KeyType { return k.key.kty }

// KeyType returns the key's "kty" value.
func (k PrivateKey) KeyType() jwa.KeyType { return k.key.kty }

// Algorithm returns the key's algorithm, either declared at
// construction or derived from its use and key type. The returned
// value may report unsupported; it is never an error.
func (k PublicKey) Algorithm() jwa.Algorithm { return k.key.alg }

// Algorithm returns the key's algorithm, either declared at
// construction or derived from its use and key type.
func (k PrivateKey) Algorithm() jwa.Algorithm { return k.key.alg }

// Use returns the key's intended use.
func (k PublicKey) Use() jwa.Use { return k.key.use }

// Use returns the key's intended use.
func (k PrivateKey) Use() jwa.Use { return k.key.use }

// KeyID returns the key's derived key ID: the unpadded base64url
// SHA-256 thumbprint (RFC 7638) of the canonical JSON of its public
// members. The kid is never stored, so identical public material
// always yields an identical kid, wherever the key was parsed from.
func (k PublicKey) KeyID() string { return k.key.id() }

// KeyID returns the key's derived key ID, which is identical to the
// key ID of its public projection.
func (k PrivateKey) KeyID() string { return k.key.id() }

func (k key) id() string {
	kid, err := thumbprint.GenerateString(k.thumbprintMembers(), crypto.SHA256)
	if err != nil {
		return ""
	}
	return kid
}

func (k key) thumbprintMembers() map[string]string {
	members := map[string]string{"kty": string(k.kty)}

	switch k.kty {
	case jwa.Oct:
		members["k"] = base64.Encode(k.secret)
	case jwa.RSA:
		pub := k.rsaPublic()
		if pub != nil {
			members["n"] = base64.EncodeUint(pub.N)
			members["e"] = base64.EncodeUint(big.NewInt(int64(pub.E)))
		}
	case jwa.EC:
		pub := k.ecPublic()
		if pub != nil {
			size := (pub.Curve.Params().BitSize + 7) / 8
			members["crv"] = curveName(pub.Curve)
			members["x"] = base64.EncodeUintLen(pub.X, size)
			members["y"] = base64.EncodeUintLen(pub.Y, size)
		}
	}

	return members
}

func (k key) rsaPublic() *rsa.PublicKey {
	if k.rsa != nil {
		return &k.rsa.PublicKey
	}
	return k.rsaPub
}

func (k key) ecPublic() *ecdsa.PublicKey {
	if k.ec != nil {
		return &k.ec.PublicKey
	}
	return k.ecPub
}

// RSA returns the underlying RSA public key, or ErrNotRSA for any
// other key type.
func (k PublicKey) RSA() (*rsa.PublicKey, error) {
	if k.key.kty != jwa.RSA {
		return nil, ErrNotRSA
	}
	return k.key.rsaPublic(), nil
}

// RSA returns the underlying RSA private key, or ErrNotRSA for any
// other key type.
func (k PrivateKey) RSA() (*rsa.PrivateKey, error) {
	if k.key.kty != jwa.RSA {
		return nil, ErrNotRSA
	}
	return k.key.rsa, nil
}

// ECDSA returns the underlying ECDSA public key, or
// ErrUnsupportedKeyType for any other key type.
func (k PublicKey) ECDSA() (*ecdsa.PublicKey, error) {
	if k.key.kty != jwa.EC {
		return nil, ErrUnsupportedKeyType
	}
	return k.key.ecPublic(), nil
}

// ECDSA returns the underlying ECDSA private key, or
// ErrUnsupportedKeyType for any other key type.
func (k PrivateKey) ECDSA() (*ecdsa.PrivateKey, error) {
	if k.key.kty != jwa.EC {
		return nil, ErrUnsupportedKeyType
	}
	return k.key.ec, nil
}

// Secret returns the shared secret of an oct key, or
// ErrUnsupportedKeyType for any other key type. The secret is
// reachable from both views.
func (k PublicKey) Secret() ([]byte, error) { return k.key.secretBytes() }

// Secret returns the shared secret of an oct key, or
// ErrUnsupportedKeyType for any other key type.
func (k PrivateKey) Secret() ([]byte, error) { return k.key.secretBytes() }

func (k key) secretBytes() ([]byte, error) {
	if k.kty != jwa.Oct {
		return nil, ErrUnsupportedKeyType
	}
	return k.secret, nil
}

// Equal reports whether both keys hold the same material, algorithm
// and use. Symmetric material is compared in constant time.
func (k PublicKey) Equal(other PublicKey) bool {
	return k.key.equalMeta(other.key) && k.key.equalPublicMaterial(other.key)
}

// Equal reports whether both keys hold the same material, algorithm
// and use.
func (k PrivateKey) Equal(other PrivateKey) bool {
	if !k.key.equalMeta(other.key) {
		return false
	}

	switch k.key.kty {
	case jwa.Oct:
		return keyutil.SymmetricKeysEqual(k.key.secret, other.key.secret)
	case jwa.RSA:
		return k.key.rsa != nil && other.key.rsa != nil && k.key.rsa.Equal(other.key.rsa)
	case jwa.EC:
		return k.key.ec != nil && other.key.ec != nil && k.key.ec.Equal(other.key.ec)
	}
	return false
}

func (k key) equalMeta(other key) bool {
	return k.kty == other.kty && k.alg == other.alg && k.use == other.use
}

func (k key) equalPublicMaterial(other key) bool {
	switch k.kty {
	case jwa.Oct:
		return keyutil.SymmetricKeysEqual(k.secret, other.secret)
	case jwa.RSA:
		pub, otherPub := k.rsaPublic(), other.rsaPublic()
		return pub != nil && otherPub != nil && pub.Equal(otherPub)
	case jwa.EC:
		pub, otherPub := k.ecPublic(), other.ecPublic()
		return pub != nil && otherPub != nil && pub.Equal(otherPub)
	}
	return false
}

// jsonKey is the wire form of a JWK. Unknown members of the input are
// ignored for forward compatibility.
type jsonKey struct {
	KeyType   string `json:"kty"`
	Use       string `json:"use,omitempty"`
	Algorithm string `json:"alg,omitempty"`
	KeyID     string `json:"kid,omitempty"`

	// oct
	K string `json:"k,omitempty"`

	// RSA
	N  string `json:"n,omitempty"`
	E  string `json:"e,omitempty"`
	D  string `json:"d,omitempty"`
	P  string `json:"p,omitempty"`
	Q  string `json:"q,omitempty"`
	DP string `json:"dp,omitempty"`
	DQ string `json:"dq,omitempty"`
	QI string `json:"qi,omitempty"`

	// EC ("d" is shared with RSA above)
	Curve string `json:"crv,omitempty"`
	X     string `json:"x,omitempty"`
	Y     string `json:"y,omitempty"`
}

// ParsePublicKey parses the JSON representation of a public JWK,
// dispatching on its "kty" member. Private members present in the
// input are ignored. A "kid" member is also ignored: key IDs are
// always derived from the key material.
func ParsePublicKey(data []byte) (PublicKey, error) {
	k, err := parseKey(data, false)
	if err != nil {
		return PublicKey{}, err
	}
	return PublicKey{k}, nil
}

// ParsePrivateKey parses the JSON representation of a private JWK,
// dispatching on its "kty" member.
func ParsePrivateKey(data []byte) (PrivateKey, error) {
	k, err := parseKey(data, true)
	if err != nil {
		return PrivateKey{}, err
	}
	return PrivateKey{k}, nil
}

func parseKey(data []byte, private bool) (key, error) {
	raw := jsonKey{}

	err := json.Unmarshal(data, &raw)
	if err != nil {
		return key{}, fmt.Errorf("jwk: failed to decode JWK JSON: %w", err)
	}

	if raw.KeyType == "" {
		return key{}, &FieldError{Field: "kty"}
	}

	kty := jwa.KeyType(raw.KeyType)
	if !kty.Supported() {
		return key{}, fmt.Errorf("%w: %q", ErrUnsupportedKeyType, raw.KeyType)
	}

	if raw.Algorithm == "" && raw.Use == "" {
		return key{}, ErrMissingUseAndAlg
	}

	use := jwa.Use(raw.Use)
	if use == "" {
		use = jwa.DefaultUse
	}

	alg := jwa.Algorithm(raw.Algorithm)
	if alg == "" {
		alg = jwa.AlgorithmFor(use, kty)
	}

	k := key{kty: kty, alg: alg, use: use}

	switch kty {
	case jwa.Oct:
		k.secret, err = fieldBytes("k", raw.K)
		if err != nil {
			return key{}, err
		}
	case jwa.RSA:
		err = k.parseRSA(raw, private)
		if err != nil {
			return key{}, err
		}
	case jwa.EC:
		err = k.parseEC(raw, private)
		if err != nil {
			return key{}, err
		}
	}

	return k, nil
}

func (k *key) parseRSA(raw jsonKey, private bool) error {
	n, err := fieldUint("n", raw.N)
	if err != nil {
		return err
	}

	e, err := fieldUint("e", raw.E)
	if err != nil {
		return err
	}

	// The exponent must fit in an int. Anything wider than 31 bits
	// would be truncated by the conversion below.
	if e.BitLen() > 31 {
		return &FieldError{Field: "e", Inner: fmt.Errorf("exponent out of range")}
	}

	public := rsa.PublicKey{N: n, E: int(e.Int64())}

	if !private {
		k.rsaPub = &public
		return nil
	}

	d, err := fieldUint("d", raw.D)
	if err != nil {
		return err
	}

	p, err := fieldUint("p", raw.P)
	if err != nil {
		return err
	}

	q, err := fieldUint("q", raw.Q)
	if err != nil {
		return err
	}

	// The CRT members are validated for presence and encoding, then
	// recomputed from d, p and q so the parsed key cannot carry an
	// inconsistent set.
	for _, field := range []struct{ name, value string }{
		{"dp", raw.DP}, {"dq", raw.DQ}, {"qi", raw.QI},
	} {
		if _, err := fieldUint(field.name, field.value); err != nil {
			return err
		}
	}

	privateKey := &rsa.PrivateKey{
		PublicKey: public,
		D:         d,
		Primes:    []*big.Int{p, q},
	}
	privateKey.Precompute()

	if err := privateKey.Validate(); err != nil {
		return fmt.Errorf("jwk: invalid RSA private key: %w", err)
	}

	k.rsa = privateKey
	return nil
}

func (k *key) parseEC(raw jsonKey, private bool) error {
	if raw.Curve == "" {
		return &FieldError{Field: "crv"}
	}

	curve := curveFromName(raw.Curve)
	if curve == nil {
		return fmt.Errorf("jwk: invalid curve %q", raw.Curve)
	}

	x, err := fieldUint("x", raw.X)
	if err != nil {
		return err
	}

	y, err := fieldUint("y", raw.Y)
	if err != nil {
		return err
	}

	public := ecdsa.PublicKey{Curve: curve, X: x, Y: y}

	// EC keys on curves other than P-256 decode fine but are tagged
	// unsupported, like the construction path.
	if k.alg == jwa.ES256 && curve != elliptic.P256() {
		k.alg = ecAlgorithm(curve, k.use)
	}

	if !private {
		k.ecPub = &public
		return nil
	}

	d, err := fieldUint("d", raw.D)
	if err != nil {
		return err
	}

	k.ec = &ecdsa.PrivateKey{PublicKey: public, D: d}
	return nil
}

func fieldBytes(name, value string) ([]byte, error) {
	if value == "" {
		return nil, &FieldError{Field: name}
	}

	b, err := base64.Decode(value)
	if err != nil {
		return nil, &FieldError{Field: name, Inner: err}
	}

	return b, nil
}

func fieldUint(name, value string) (*big.Int, error) {
	if value == "" {
		return nil, &FieldError{Field: name}
	}

	i, err := base64.DecodeUint(value)
	if err != nil {
		return nil, &FieldError{Field: name, Inner: err}
	}

	return i, nil
}

// MarshalJSON returns the JSON representation of the public view,
// with big-integer members encoded as unpadded base64url big-endian
// bytes and the derived "kid" included.
func (k PublicKey) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.key.wire(false))
}

// UnmarshalJSON decodes a public JWK, see ParsePublicKey.
func (k *PublicKey) UnmarshalJSON(data []byte) error {
	parsed, err := ParsePublicKey(data)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// MarshalJSON returns the JSON representation of the private view,
// which extends the public form with the private numeric members.
func (k PrivateKey) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.key.wire(true))
}

// UnmarshalJSON decodes a private JWK, see ParsePrivateKey.
func (k *PrivateKey) UnmarshalJSON(data []byte) error {
	parsed, err := ParsePrivateKey(data)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

func (k key) wire(private bool) jsonKey {
	raw := jsonKey{
		KeyType: string(k.kty),
		KeyID:   k.id(),
	}

	if k.alg.Supported() {
		raw.Algorithm = string(k.alg)
	}

	switch k.kty {
	case jwa.Oct:
		raw.K = base64.Encode(k.secret)
	case jwa.RSA:
		raw.Use = string(k.use)
		pub := k.rsaPublic()
		raw.N = base64.EncodeUint(pub.N)
		raw.E = base64.EncodeUint(big.NewInt(int64(pub.E)))

		if private && k.rsa != nil {
			raw.D = base64.EncodeUint(k.rsa.D)
			raw.P = base64.EncodeUint(k.rsa.Primes[0])
			raw.Q = base64.EncodeUint(k.rsa.Primes[1])
			raw.DP = base64.EncodeUint(k.rsa.Precomputed.Dp)
			raw.DQ = base64.EncodeUint(k.rsa.Precomputed.Dq)
			raw.QI = base64.EncodeUint(k.rsa.Precomputed.Qinv)
		}
	case jwa.EC:
		raw.Use = string(k.use)
		pub := k.ecPublic()
		size := (pub.Curve.Params().BitSize + 7) / 8
		raw.Curve = curveName(pub.Curve)
		raw.X = base64.EncodeUintLen(pub.X, size)
		raw.Y = base64.EncodeUintLen(pub.Y, size)

		if private && k.ec != nil {
			raw.D = base64.EncodeUintLen(k.ec.D, size)
		}
	}

	return raw
}

// ParsePublicKeyPEM parses a PEM encoded RSA or ECDSA public key into
// its JWK form with the default (sig) use. Other key families fail
// with ErrUnsupportedKeyType, malformed PEM with a structural error.
func ParsePublicKeyPEM(r io.Reader) (PublicKey, error) {
	parsed, err := keyutil.ParsePublicKey(r)
	if err != nil {
		return PublicKey{}, fmt.Errorf("jwk: %w", err)
	}

	switch parsed := parsed.(type) {
	case *rsa.PublicKey:
		return FromRSAPublicKey(parsed, jwa.DefaultUse), nil
	case *ecdsa.PublicKey:
		return FromECDSAPublicKey(parsed, jwa.DefaultUse), nil
	default:
		return PublicKey{}, fmt.Errorf("%w: %T", ErrUnsupportedKeyType, parsed)
	}
}

// ParsePrivateKeyPEM parses a PEM encoded RSA or ECDSA private key
// into its JWK form with the default (sig) use.
func ParsePrivateKeyPEM(r io.Reader) (PrivateKey, error) {
	parsed, err := keyutil.ParsePrivateKey(r)
	if err != nil {
		return PrivateKey{}, fmt.Errorf("jwk: %w", err)
	}

	switch parsed := parsed.(type) {
	case *rsa.PrivateKey:
		return FromRSAPrivateKey(parsed, jwa.DefaultUse), nil
	case *ecdsa.PrivateKey:
		return FromECDSAPrivateKey(parsed, jwa.DefaultUse), nil
	default:
		return PrivateKey{}, fmt.Errorf("%w: %T", ErrUnsupportedKeyType, parsed)
	}
}

// MarshalPEM returns the PEM encoding of the public key. Symmetric
// keys have no PEM form and fail with ErrUnsupportedKeyType.
func (k PublicKey) MarshalPEM() ([]byte, error) {
	switch k.key.kty {
	case jwa.RSA:
		return keyutil.MarshalPublicKeyPEM(k.key.rsaPublic())
	case jwa.EC:
		return keyutil.MarshalPublicKeyPEM(k.key.ecPublic())
	default:
		return nil, ErrUnsupportedKeyType
	}
}

// MarshalPEM returns the PEM encoding of the private key. Symmetric
// keys have no PEM form and fail with ErrUnsupportedKeyType.
func (k PrivateKey) MarshalPEM() ([]byte, error) {
	switch k.key.kty {
	case jwa.RSA:
		return keyutil.MarshalPrivateKeyPEM(k.key.rsa)
	case jwa.EC:
		return keyutil.MarshalPrivateKeyPEM(k.key.ec)
	default:
		return nil, ErrUnsupportedKeyType
	}
}

func curveName(curve elliptic.Curve) string {
	switch curve {
	case elliptic.P256():
		return "P-256"
	case elliptic.P384():
		return "P-384"
	case elliptic.P521():
		return "P-521"
	default:
		return ""
	}
}

func curveFromName(name string) elliptic.Curve {
	switch name {
	case "P-256":
		return elliptic.P256()
	case "P-384":
		return elliptic.P384()
	case "P-521":
		return elliptic.P521()
	default:
		return nil
	}
}
