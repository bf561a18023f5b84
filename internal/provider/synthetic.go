package provider

import (
	"PriceGate/internal/domain/models"
	drepo "PriceGate/internal/domain/repository"
)

// SyntheticProvider accepts unsigned payloads and can construct them locally.
// Meant for test and staging deployments only.
type SyntheticProvider struct {
	feePerUpdate uint64
}

// NewSynthetic creates a non-verifying provider.
func NewSynthetic(feePerUpdate uint64) *SyntheticProvider {
	return &SyntheticProvider{feePerUpdate: feePerUpdate}
}

// QuoteFee quotes the update cost for a batch of n payloads.
func (p *SyntheticProvider) QuoteFee(n int) uint64 {
	return p.feePerUpdate * uint64(n)
}

// ParseAndVerify decodes a payload without verifying any signature trailer.
func (p *SyntheticProvider) ParseAndVerify(payload []byte) (models.Update, error) {
	u, _, err := decode(payload)
	return u, err
}

// ConstructUpdate frames an unsigned single-feed payload.
func (p *SyntheticProvider) ConstructUpdate(u models.Update) ([]byte, error) {
	return Encode(u, nil)
}

// Synthetic reports true.
func (p *SyntheticProvider) Synthetic() bool { return true }

var _ drepo.FeedProvider = (*SyntheticProvider)(nil)
