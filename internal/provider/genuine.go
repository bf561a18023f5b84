package provider

import (
	"crypto/ed25519"
	"fmt"

	"PriceGate/internal/domain/models"
	drepo "PriceGate/internal/domain/repository"
)

// GenuineProvider enforces cryptographic payload verification against the
// feed provider's published signing key.
type GenuineProvider struct {
	pub          ed25519.PublicKey
	feePerUpdate uint64
}

// NewGenuine creates a signature-enforcing provider.
func NewGenuine(pub ed25519.PublicKey, feePerUpdate uint64) (*GenuineProvider, error) {
	if len(pub) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("provider public key must be %d bytes, got %d", ed25519.PublicKeySize, len(pub))
	}
	return &GenuineProvider{pub: pub, feePerUpdate: feePerUpdate}, nil
}

// QuoteFee quotes the update cost for a batch of n payloads.
func (p *GenuineProvider) QuoteFee(n int) uint64 {
	return p.feePerUpdate * uint64(n)
}

// ParseAndVerify decodes a payload and checks its signature.
func (p *GenuineProvider) ParseAndVerify(payload []byte) (models.Update, error) {
	u, sig, err := decode(payload)
	if err != nil {
		return models.Update{}, err
	}
	if len(sig) == 0 {
		return models.Update{}, fmt.Errorf("%w: unsigned payload", ErrBadSignature)
	}
	signed := payload[:len(payload)-ed25519.SignatureSize]
	if !ed25519.Verify(p.pub, signed, sig) {
		return models.Update{}, ErrBadSignature
	}
	return u, nil
}

// ConstructUpdate is unavailable: genuine payloads are signed off-process.
func (p *GenuineProvider) ConstructUpdate(models.Update) ([]byte, error) {
	return nil, fmt.Errorf("%w: construction requires synthetic mode", ErrBadSignature)
}

// Synthetic reports false: this provider only accepts signed payloads.
func (p *GenuineProvider) Synthetic() bool { return false }

var _ drepo.FeedProvider = (*GenuineProvider)(nil)
