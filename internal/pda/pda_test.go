package pda

import (
	"bytes"
	"testing"

	"github.com/gagliardetto/solana-go"
)

var testProgramID = solana.MustPublicKeyFromBase58("HHtpy5cez4guhvwoXVCZzo8EUce6ouJyXaxZ7r9CVR24")

func newKey(t *testing.T) solana.PublicKey {
	t.Helper()
	return solana.NewWallet().PublicKey()
}

func TestPairSeedOrderIndependent(t *testing.T) {
	for i := 0; i < 20; i++ {
		a, b := newKey(t), newKey(t)
		if !bytes.Equal(PairSeedBytes(a, b), PairSeedBytes(b, a)) {
			t.Fatalf("seed depends on argument order for %s %s", a, b)
		}
	}
}

func TestPairSeedLargerFirst(t *testing.T) {
	small := solana.PublicKey{0x01}
	large := solana.PublicKey{0xff}

	seed := PairSeed(small, large)
	if len(seed) != 2 {
		t.Fatalf("expected two seed components, got %d", len(seed))
	}
	if !bytes.Equal(seed[0], large[:]) || !bytes.Equal(seed[1], small[:]) {
		t.Fatalf("expected larger key first")
	}
	if len(PairSeedBytes(small, large)) != 64 {
		t.Fatalf("joined seed should be 64 bytes")
	}
}

func TestPoolAddressOrderIndependent(t *testing.T) {
	for i := 0; i < 10; i++ {
		a, b := newKey(t), newKey(t)
		addrAB, bumpAB, err := PoolAddress(testProgramID, a, b)
		if err != nil {
			t.Fatalf("derive failed: %v", err)
		}
		addrBA, bumpBA, err := PoolAddress(testProgramID, b, a)
		if err != nil {
			t.Fatalf("derive failed: %v", err)
		}
		if addrAB != addrBA || bumpAB != bumpBA {
			t.Fatalf("pool address depends on argument order")
		}
	}
}

func TestPoolAddressDistinctPairs(t *testing.T) {
	a, b, c := newKey(t), newKey(t), newKey(t)
	ab, _, err := PoolAddress(testProgramID, a, b)
	if err != nil {
		t.Fatalf("derive failed: %v", err)
	}
	ac, _, err := PoolAddress(testProgramID, a, c)
	if err != nil {
		t.Fatalf("derive failed: %v", err)
	}
	if ab == ac {
		t.Fatalf("different pairs resolved to the same pool")
	}
}

func TestSignerSeedsRecreatePoolAddress(t *testing.T) {
	a, b := newKey(t), newKey(t)
	addr, bump, err := PoolAddress(testProgramID, a, b)
	if err != nil {
		t.Fatalf("derive failed: %v", err)
	}

	signer, err := solana.CreateProgramAddress(SignerSeeds(b, a, bump), testProgramID)
	if err != nil {
		t.Fatalf("create program address: %v", err)
	}
	if signer != addr {
		t.Fatalf("signer seeds do not resolve to the pool: %s != %s", signer, addr)
	}
}

func TestVaultAddressPerMint(t *testing.T) {
	a, b := newKey(t), newKey(t)
	pool, _, err := PoolAddress(testProgramID, a, b)
	if err != nil {
		t.Fatalf("derive failed: %v", err)
	}
	va, err := VaultAddress(pool, a)
	if err != nil {
		t.Fatalf("vault a: %v", err)
	}
	vb, err := VaultAddress(pool, b)
	if err != nil {
		t.Fatalf("vault b: %v", err)
	}
	if va == vb {
		t.Fatalf("vaults for different mints must differ")
	}
}
