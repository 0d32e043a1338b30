package instruction

import (
	"sync"

	"github.com/gagliardetto/solana-go"
)

// MintDecimalsCache caches mint decimals by address. Decimals never change
// once a mint exists.
type MintDecimalsCache struct {
	mu   sync.RWMutex
	data map[solana.PublicKey]uint8
}

// NewMintDecimalsCache returns an empty cache.
func NewMintDecimalsCache() *MintDecimalsCache {
	return &MintDecimalsCache{data: make(map[solana.PublicKey]uint8)}
}

// Get returns the cached decimals of mint.
func (c *MintDecimalsCache) Get(mint solana.PublicKey) (uint8, bool) {
	c.mu.RLock()
	decimals, ok := c.data[mint]
	c.mu.RUnlock()
	return decimals, ok
}

// Set records the decimals of mint.
func (c *MintDecimalsCache) Set(mint solana.PublicKey, decimals uint8) {
	c.mu.Lock()
	c.data[mint] = decimals
	c.mu.Unlock()
}
