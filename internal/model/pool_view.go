package model

import (
	"math/big"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
)

const priceScale = 18

// PoolView is the read model returned by the CLI and API.
type PoolView struct {
	Address      solana.PublicKey `json:"address"`
	AssetOne     solana.PublicKey `json:"asset_one"`
	AssetTwo     solana.PublicKey `json:"asset_two"`
	TotalShares  uint64           `json:"total_shares"`
	ReserveOne   uint64           `json:"reserve_one"`
	ReserveTwo   uint64           `json:"reserve_two"`
	UIReserveOne string           `json:"ui_reserve_one"`
	UIReserveTwo string           `json:"ui_reserve_two"`
	SpotPrice    string           `json:"spot_price,omitempty"`
	Sequence     uint64           `json:"sequence"`
	Bump         uint8            `json:"bump"`
	VaultOne     solana.PublicKey `json:"vault_one"`
	VaultTwo     solana.PublicKey `json:"vault_two"`
}

// NewPoolView builds a view of pool using the decimals of both assets.
// SpotPrice is the amount of asset two per unit of asset one; it is empty for an empty pool.
func NewPoolView(address solana.PublicKey, pool *LiquidityPool, decimalsOne, decimalsTwo uint8) PoolView {
	view := PoolView{
		Address:      address,
		AssetOne:     pool.AssetOne,
		AssetTwo:     pool.AssetTwo,
		TotalShares:  pool.TotalShares,
		ReserveOne:   pool.ReserveOne,
		ReserveTwo:   pool.ReserveTwo,
		UIReserveOne: FormatAmount(pool.ReserveOne, decimalsOne),
		UIReserveTwo: FormatAmount(pool.ReserveTwo, decimalsTwo),
		Sequence:     pool.Sequence,
		Bump:         pool.Bump,
	}
	if pool.ReserveOne != 0 && pool.ReserveTwo != 0 {
		one := scaled(pool.ReserveOne, decimalsOne)
		two := scaled(pool.ReserveTwo, decimalsTwo)
		view.SpotPrice = two.DivRound(one, priceScale).String()
	}
	return view
}

// FormatAmount renders a raw amount in whole units.
func FormatAmount(amount uint64, decimals uint8) string {
	return scaled(amount, decimals).StringFixed(int32(decimals))
}

func scaled(amount uint64, decimals uint8) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(amount), -int32(decimals))
}
