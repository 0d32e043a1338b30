// Package pda derives the deterministic identity of a pool from its asset pair.
package pda

import (
	"bytes"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// Namespace prefixes every pool address seed.
const Namespace = "liquidity_pool"

// PairSeed returns the order-independent seed of an asset pair: the larger
// key followed by the smaller one. Each key is its own seed component so the
// 32-byte per-seed limit holds; address hashing concatenates components, so
// the result is the same as hashing the joined 64 bytes.
func PairSeed(a, b solana.PublicKey) [][]byte {
	if bytes.Compare(a[:], b[:]) < 0 {
		a, b = b, a
	}
	return [][]byte{a.Bytes(), b.Bytes()}
}

// PairSeedBytes joins PairSeed into one byte slice.
func PairSeedBytes(a, b solana.PublicKey) []byte {
	return bytes.Join(PairSeed(a, b), nil)
}

func poolSeeds(a, b solana.PublicKey) [][]byte {
	return append([][]byte{[]byte(Namespace)}, PairSeed(a, b)...)
}

// PoolAddress derives the pool account address and its bump for an asset pair.
func PoolAddress(programID, a, b solana.PublicKey) (solana.PublicKey, uint8, error) {
	addr, bump, err := solana.FindProgramAddress(poolSeeds(a, b), programID)
	if err != nil {
		return solana.PublicKey{}, 0, fmt.Errorf("derive pool address: %w", err)
	}
	return addr, bump, nil
}

// SignerSeeds returns the seeds that let the program sign for the pool.
func SignerSeeds(a, b solana.PublicKey, bump uint8) [][]byte {
	return append(poolSeeds(a, b), []byte{bump})
}

// VaultAddress returns the pool's token account for mint.
func VaultAddress(pool, mint solana.PublicKey) (solana.PublicKey, error) {
	return TokenAccountAddress(pool, mint)
}

// TokenAccountAddress returns the associated token account of owner for mint.
func TokenAccountAddress(owner, mint solana.PublicKey) (solana.PublicKey, error) {
	addr, _, err := solana.FindAssociatedTokenAddress(owner, mint)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("derive token account: %w", err)
	}
	return addr, nil
}
