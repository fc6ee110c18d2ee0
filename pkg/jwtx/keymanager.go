package jwtx

import (
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/harborfund/portal/pkg/cryptox"
)

// KeyManager owns the in-memory signing keys of a portal instance and the
// KeySet/Verifier built from them. Keys are regenerated on every start, so
// sessions do not survive a restart.
type KeyManager struct {
	Verifier Verifier
	KeySet   *KeySet

	algorithm string

	mu      sync.RWMutex
	signers []Signer
}

// KeyManagerOptions configures NewEphemeralKeyManager.
type KeyManagerOptions struct {
	// Algorithm is EdDSA (default) or ES256.
	Algorithm string

	// Issuer is required and enforced on verification.
	Issuer string

	// Audience, when non-empty, must intersect a token's aud claim.
	Audience []string

	// NumKeys is clamped to [1, 10]; zero means 3.
	NumKeys int
}

// NewEphemeralKeyManager generates opts.NumKeys signing keys.
func NewEphemeralKeyManager(opts KeyManagerOptions) (*KeyManager, error) {
	if opts.Issuer == "" {
		return nil, fmt.Errorf("jwtx: Issuer is required")
	}
	if opts.Algorithm == "" {
		opts.Algorithm = AlgorithmEdDSA
	}

	n := opts.NumKeys
	switch {
	case n <= 0:
		n = 3
	case n > 10:
		n = 10
	}

	km := &KeyManager{
		KeySet:    NewKeySet(),
		algorithm: opts.Algorithm,
	}

	for i := range n {
		signer, err := generateSigner(opts.Algorithm)
		if err != nil {
			return nil, fmt.Errorf("jwtx: failed to generate signer %d: %w", i+1, err)
		}
		if err := km.AddSigner(signer); err != nil {
			return nil, err
		}
	}

	km.Verifier = NewVerifier(km.KeySet, opts.Algorithm, opts.Issuer, opts.Audience)
	return km, nil
}

func generateSigner(alg string) (Signer, error) {
	kid, err := cryptox.GenerateToken(cryptox.TokenSize128)
	if err != nil {
		return nil, fmt.Errorf("failed to generate key ID: %w", err)
	}
	kid = "portal-" + kid

	var pemBytes []byte
	switch alg {
	case AlgorithmEdDSA:
		pemBytes, err = cryptox.GenerateEd25519Key()
	case AlgorithmES256:
		pemBytes, err = cryptox.GenerateES256Key()
	default:
		return nil, fmt.Errorf("unsupported algorithm %q (supported: EdDSA, ES256)", alg)
	}
	if err != nil {
		return nil, err
	}

	return NewSigner(alg, kid, pemBytes)
}

// Algorithm returns the signing algorithm in use.
func (km *KeyManager) Algorithm() string { return km.algorithm }

// IsReady reports whether verification keys are loaded.
func (km *KeyManager) IsReady() bool { return km.KeySet.IsReady() }

// GetSigner returns one of the active signers at random.
func (km *KeyManager) GetSigner() Signer {
	km.mu.RLock()
	defer km.mu.RUnlock()

	switch len(km.signers) {
	case 0:
		return nil
	case 1:
		return km.signers[0]
	}
	return km.signers[rand.IntN(len(km.signers))]
}

// NumSigners returns the number of active signing keys.
func (km *KeyManager) NumSigners() int {
	km.mu.RLock()
	defer km.mu.RUnlock()
	return len(km.signers)
}

// AddSigner registers signer for signing and its public key for verification.
func (km *KeyManager) AddSigner(signer Signer) error {
	if signer == nil {
		return fmt.Errorf("jwtx: signer cannot be nil")
	}
	if signer.Alg() != km.algorithm {
		return fmt.Errorf("jwtx: signer algorithm %q does not match %q", signer.Alg(), km.algorithm)
	}

	km.mu.Lock()
	defer km.mu.Unlock()

	if err := km.KeySet.AddJWK(signer.PublicJWK()); err != nil {
		return fmt.Errorf("jwtx: failed to add signer to keyset: %w", err)
	}
	km.signers = append(km.signers, signer)
	return nil
}
