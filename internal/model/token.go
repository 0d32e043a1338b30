package model

import "github.com/gagliardetto/solana-go"

// Mint describes a fungible asset.
type Mint struct {
	Address  solana.PublicKey `json:"address"`
	Decimals uint8            `json:"decimals"`
	Supply   uint64           `json:"supply"`
}

// TokenAccount holds a balance of one mint for one owner.
type TokenAccount struct {
	Address solana.PublicKey `json:"address"`
	Mint    solana.PublicKey `json:"mint"`
	Owner   solana.PublicKey `json:"owner"`
	Amount  uint64           `json:"amount"`
}

// Account is a program-owned storage record.
type Account struct {
	Address solana.PublicKey `json:"address"`
	Owner   solana.PublicKey `json:"owner"`
	Funder  solana.PublicKey `json:"funder"`
	Data    []byte           `json:"data"`
}
