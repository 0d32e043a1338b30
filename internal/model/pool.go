package model

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/near/borsh-go"
)

// PoolAccountSize is the allocation size of a pool account:
// discriminator + two asset ids + four u64 counters + bump.
const PoolAccountSize = 8 + // discriminator
	32 + // asset_one
	32 + // asset_two
	8 + // total_shares
	8 + // reserve_one
	8 + // reserve_two
	8 + // sequence
	1 // bump

var (
	// ErrInvalidAccountData is returned when account bytes do not hold a pool record.
	ErrInvalidAccountData = errors.New("invalid account data")

	poolDiscriminator = accountDiscriminator("LiquidityPool")
)

// LiquidityPool is the persisted state of one asset pair.
type LiquidityPool struct {
	AssetOne    solana.PublicKey `json:"asset_one"`
	AssetTwo    solana.PublicKey `json:"asset_two"`
	TotalShares uint64           `json:"total_shares"`
	ReserveOne  uint64           `json:"reserve_one"`
	ReserveTwo  uint64           `json:"reserve_two"`
	Sequence    uint64           `json:"sequence"`
	Bump        uint8            `json:"bump"`
}

// PoolDiscriminator returns the 8-byte account type tag.
func PoolDiscriminator() [8]byte {
	return poolDiscriminator
}

// IsEmpty reports whether the pool has no outstanding claims.
func (p *LiquidityPool) IsEmpty() bool {
	return p.TotalShares == 0
}

// Validate checks the record-level invariants.
func (p *LiquidityPool) Validate() error {
	if p.AssetOne.Equals(p.AssetTwo) {
		return fmt.Errorf("%w: duplicate assets %s", ErrInvalidAccountData, p.AssetOne)
	}
	emptyReserves := p.ReserveOne == 0 && p.ReserveTwo == 0
	if (p.TotalShares == 0) != emptyReserves {
		return fmt.Errorf("%w: shares %d with reserves (%d, %d)", ErrInvalidAccountData, p.TotalShares, p.ReserveOne, p.ReserveTwo)
	}
	return nil
}

// Encode serializes the pool into its account layout.
func (p *LiquidityPool) Encode() ([]byte, error) {
	body, err := borsh.Serialize(*p)
	if err != nil {
		return nil, fmt.Errorf("serialize pool: %w", err)
	}
	out := make([]byte, 0, PoolAccountSize)
	out = append(out, poolDiscriminator[:]...)
	out = append(out, body...)
	if len(out) != PoolAccountSize {
		return nil, fmt.Errorf("pool layout size %d, want %d", len(out), PoolAccountSize)
	}
	return out, nil
}

// DecodeLiquidityPool parses account data. Bytes past PoolAccountSize are ignored.
func DecodeLiquidityPool(data []byte) (*LiquidityPool, error) {
	if len(data) < PoolAccountSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrInvalidAccountData, len(data))
	}
	if !bytes.Equal(data[:8], poolDiscriminator[:]) {
		return nil, fmt.Errorf("%w: discriminator mismatch", ErrInvalidAccountData)
	}

	var pool LiquidityPool
	if err := borsh.Deserialize(&pool, data[8:PoolAccountSize]); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAccountData, err)
	}
	return &pool, nil
}

func accountDiscriminator(name string) [8]byte {
	sum := sha256.Sum256([]byte("account:" + name))
	var out [8]byte
	copy(out[:], sum[:8])
	return out
}
