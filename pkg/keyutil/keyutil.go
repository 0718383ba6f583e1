// Package keyutil provides the PEM and ASN.1 plumbing between encoded
// key material and Go's crypto key structures, for the RSA and ECDSA
// key families used elsewhere in this module.
package keyutil

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/subtle"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"io"
)

// SymmetricKeysEqual checks if the given keys are the same, in
// constant time.
func SymmetricKeysEqual(key1 []byte, key2 []byte) bool {
	return subtle.ConstantTimeCompare(key1, key2) == 1
}

// NewSymmetricKey generates a new random symmetric key of the given size.
func NewSymmetricKey(size int) ([]byte, error) {
	key := make([]byte, size)

	_, err := rand.Read(key)
	if err != nil {
		return nil, fmt.Errorf("failed to generate new symmetric key: %w", err)
	}

	return key, nil
}

// ParseRSAPublicKey parses the PEM encoded RSA public key from the given reader.
func ParseRSAPublicKey(r io.Reader) (*rsa.PublicKey, error) {
	parsedKey, err := ParsePublicKey(r)
	if err != nil {
		return nil, err
	}

	publicKey, ok := parsedKey.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("invalid type %T for parsed RSA public key", parsedKey)
	}

	return publicKey, nil
}

// ParseRSAPrivateKey parses the PEM encoded RSA private key from the given reader.
func ParseRSAPrivateKey(r io.Reader) (*rsa.PrivateKey, error) {
	parsedKey, err := ParsePrivateKey(r)
	if err != nil {
		return nil, err
	}

	privateKey, ok := parsedKey.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("invalid type %T for parsed RSA private key", parsedKey)
	}

	return privateKey, nil
}

// ParseECDSAPublicKey parses the PEM encoded ECDSA public key from the given reader.
func ParseECDSAPublicKey(r io.Reader) (*ecdsa.PublicKey, error) {
	parsedKey, err := ParsePublicKey(r)
	if err != nil {
		return nil, err
	}

	publicKey, ok := parsedKey.(*ecdsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("invalid type %T for parsed ECDSA public key", parsedKey)
	}

	return publicKey, nil
}

// ParseECDSAPrivateKey parses the PEM encoded ECDSA private key from the given reader.
func ParseECDSAPrivateKey(r io.Reader) (*ecdsa.PrivateKey, error) {
	parsedKey, err := ParsePrivateKey(r)
	if err != nil {
		return nil, err
	}

	privateKey, ok := parsedKey.(*ecdsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("invalid type %T for parsed ECDSA private key", parsedKey)
	}

	return privateKey, nil
}

// ParsePrivateKey parses the PEM encoded private key from the given
// reader, trying PKCS#1, PKCS#8 and SEC 1 encodings in turn.
func ParsePrivateKey(r io.Reader) (any, error) {
	keyBytes, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read private key from reader: %w", err)
	}

	block, _ := pem.Decode(keyBytes)
	if block == nil {
		return nil, fmt.Errorf("failed to decode private key PEM block")
	}

	var parsedKey any

	parsedKey, err = x509.ParsePKCS1PrivateKey(block.Bytes)
	if err == nil {
		return parsedKey, nil
	}

	parsedKey, err = x509.ParsePKCS8PrivateKey(block.Bytes)
	if err == nil {
		return parsedKey, nil
	}

	parsedKey, err = x509.ParseECPrivateKey(block.Bytes)
	if err == nil {
		return parsedKey, nil
	}

	return nil, fmt.Errorf("failed to parse private key, unknown type")
}

// ParsePublicKey parses the PEM encoded public key from the given
// reader, trying PKIX encoding first and falling back to extracting
// the public key of an X.509 certificate.
func ParsePublicKey(r io.Reader) (any, error) {
	keyBytes, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read public key from reader: %w", err)
	}

	block, _ := pem.Decode(keyBytes)
	if block == nil {
		return nil, fmt.Errorf("failed to decode public key PEM block")
	}

	var parsedKey any

	parsedKey, err = x509.ParsePKIXPublicKey(block.Bytes)
	if err == nil {
		return parsedKey, nil
	}

	var cert *x509.Certificate
	cert, err = x509.ParseCertificate(block.Bytes)
	if err == nil {
		return cert.PublicKey, nil
	}

	return nil, fmt.Errorf("failed to parse public key, unknown type")
}

// MarshalPublicKeyPEM returns the PEM encoding (PKIX, "PUBLIC KEY"
// block) of the given RSA or ECDSA public key.
func MarshalPublicKeyPEM(key any) ([]byte, error) {
	switch key.(type) {
	case *rsa.PublicKey, *ecdsa.PublicKey:
	default:
		return nil, fmt.Errorf("invalid type %T for PEM encoded public key", key)
	}

	der, err := x509.MarshalPKIXPublicKey(key)
	if err != nil {
		return nil, fmt.Errorf("failed to encode public key: %w", err)
	}

	return pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}), nil
}

// MarshalPrivateKeyPEM returns the PEM encoding of the given private
// key: PKCS#1 ("RSA PRIVATE KEY") for RSA, SEC 1 ("EC PRIVATE KEY")
// for ECDSA.
func MarshalPrivateKeyPEM(key any) ([]byte, error) {
	switch key := key.(type) {
	case *rsa.PrivateKey:
		der := x509.MarshalPKCS1PrivateKey(key)
		return pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: der}), nil
	case *ecdsa.PrivateKey:
		der, err := x509.MarshalECPrivateKey(key)
		if err != nil {
			return nil, fmt.Errorf("failed to encode ECDSA private key: %w", err)
		}
		return pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: der}), nil
	default:
		return nil, fmt.Errorf("invalid type %T for PEM encoded private key", key)
	}
}

// NewRSAKeyPair returns a new RSA key pair, or an error if one occurs.
func NewRSAKeyPair() (*rsa.PublicKey, *rsa.PrivateKey, error) {
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate new RSA key pair: %w", err)
	}

	return &privateKey.PublicKey, privateKey, nil
}

// NewECDSAKeyPair returns a new ECDSA P-256 key pair, or an error if
// one occurs.
func NewECDSAKeyPair() (*ecdsa.PublicKey, *ecdsa.PrivateKey, error) {
	privateKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate new ECDSA key pair: %w", err)
	}

	return &privateKey.PublicKey, privateKey, nil
}
