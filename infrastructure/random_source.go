package infrastructure

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
)

// CryptoRandomSource draws from the operating system's CSPRNG. Each draw
// hashes fresh entropy together with the caller's domain tag, so draws
// under different tags are independent even within one settlement, and no
// caller-visible input (timestamps, payload bytes) feeds the outcome.
type CryptoRandomSource struct{}

// NewCryptoRandomSource creates a CSPRNG-backed randomness source.
func NewCryptoRandomSource() *CryptoRandomSource {
	return &CryptoRandomSource{}
}

// Draw returns an unpredictable value bound to the domain tag.
func (s *CryptoRandomSource) Draw(ctx context.Context, domain []byte) (uint64, error) {
	var entropy [32]byte
	if _, err := rand.Read(entropy[:]); err != nil {
		return 0, fmt.Errorf("failed to read entropy: %w", err)
	}

	h := sha256.New()
	h.Write(domain)
	h.Write(entropy[:])
	return binary.BigEndian.Uint64(h.Sum(nil)[:8]), nil
}
