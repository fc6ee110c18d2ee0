package jwtx

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Supported JWT signing algorithms.
const (
	AlgorithmES256 = "ES256"
	AlgorithmEdDSA = "EdDSA"
)

// Signer is anything that can sign portal JWTs.
type Signer interface {
	Alg() string
	KID() string
	Sign(Claims) (string, error)
	PublicJWK() JWK
}

type keySigner struct {
	kid    string
	method jwt.SigningMethod
	key    any
	jwk    JWK
}

func (s *keySigner) Alg() string    { return s.method.Alg() }
func (s *keySigner) KID() string    { return s.kid }
func (s *keySigner) PublicJWK() JWK { return s.jwk }

// Sign encodes claims as a compact JWS with the kid header set.
func (s *keySigner) Sign(claims Claims) (string, error) {
	t := jwt.NewWithClaims(s.method, claims)
	t.Header["kid"] = s.kid
	return t.SignedString(s.key)
}

// NewSigner loads a PKCS8 PEM private key for alg.
func NewSigner(alg, kid string, pemKey []byte) (Signer, error) {
	block, _ := pem.Decode(pemKey)
	if block == nil {
		return nil, errors.New("jwtx: invalid PEM private key")
	}
	if block.Type != "PRIVATE KEY" {
		return nil, fmt.Errorf("jwtx: expected PRIVATE KEY, got %q (PKCS8 required)", block.Type)
	}

	priv, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("jwtx: parse PKCS8: %w", err)
	}

	switch alg {
	case AlgorithmEdDSA:
		key, ok := priv.(ed25519.PrivateKey)
		if !ok {
			return nil, errors.New("jwtx: not Ed25519 private key")
		}
		pub := key.Public().(ed25519.PublicKey)
		return &keySigner{
			kid:    kid,
			method: jwt.SigningMethodEdDSA,
			key:    key,
			jwk:    NewEd25519JWK(kid, AlgorithmEdDSA, pub),
		}, nil

	case AlgorithmES256:
		key, ok := priv.(*ecdsa.PrivateKey)
		if !ok {
			return nil, errors.New("jwtx: not ECDSA private key")
		}
		if key.Curve.Params().Name != "P-256" {
			return nil, fmt.Errorf("jwtx: expected P-256 curve, got %s", key.Curve.Params().Name)
		}
		return &keySigner{
			kid:    kid,
			method: jwt.SigningMethodES256,
			key:    key,
			jwk:    NewES256JWK(kid, AlgorithmES256, &key.PublicKey),
		}, nil

	default:
		return nil, fmt.Errorf("jwtx: unsupported algorithm %q", alg)
	}
}
