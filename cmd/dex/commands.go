package main

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"

	"liquidityPool/internal/instruction"
)

// withRuntime opens the runtime for the duration of fn.
func withRuntime(fn func(cmd *cobra.Command, rt *runtime) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		rt, err := openRuntime(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer rt.Close()
		return fn(cmd, rt)
	}
}

func keyFlag(cmd *cobra.Command, name string) (solana.PublicKey, error) {
	raw, _ := cmd.Flags().GetString(name)
	if raw == "" {
		return solana.PublicKey{}, fmt.Errorf("--%s is required", name)
	}
	key, err := solana.PublicKeyFromBase58(raw)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("parse --%s: %w", name, err)
	}
	return key, nil
}

func keyFlags(cmd *cobra.Command, names ...string) ([]solana.PublicKey, error) {
	keys := make([]solana.PublicKey, 0, len(names))
	for _, name := range names {
		key, err := keyFlag(cmd, name)
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, nil
}

func addPairFlags(cmd *cobra.Command) {
	cmd.Flags().String("payer", "", "payer and signer public key")
	cmd.Flags().String("mint-one", "", "first mint of the pair")
	cmd.Flags().String("mint-two", "", "second mint of the pair")
}

func newCreateMintCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create-mint",
		Short: "Register a mint",
		RunE: withRuntime(func(cmd *cobra.Command, rt *runtime) error {
			address := solana.NewWallet().PublicKey()
			if raw, _ := cmd.Flags().GetString("mint"); raw != "" {
				var err error
				if address, err = solana.PublicKeyFromBase58(raw); err != nil {
					return fmt.Errorf("parse --mint: %w", err)
				}
			}
			decimals, _ := cmd.Flags().GetUint8("decimals")
			mint, err := rt.host.CreateMint(cmd.Context(), address, decimals)
			if err != nil {
				return err
			}
			return printJSON(cmd, mint)
		}),
	}
	cmd.Flags().String("mint", "", "mint address (random when empty)")
	cmd.Flags().Uint8("decimals", 6, "mint decimals")
	return cmd
}

func newCreateAccountCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create-account",
		Short: "Create the associated token account of an owner for a mint",
		RunE: withRuntime(func(cmd *cobra.Command, rt *runtime) error {
			keys, err := keyFlags(cmd, "owner", "mint")
			if err != nil {
				return err
			}
			account, err := rt.host.CreateTokenAccount(cmd.Context(), keys[0], keys[1])
			if err != nil {
				return err
			}
			return printJSON(cmd, account)
		}),
	}
	cmd.Flags().String("owner", "", "account owner")
	cmd.Flags().String("mint", "", "mint address")
	return cmd
}

func newMintToCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mint-to",
		Short: "Mint new supply into a token account",
		RunE: withRuntime(func(cmd *cobra.Command, rt *runtime) error {
			account, err := keyFlag(cmd, "account")
			if err != nil {
				return err
			}
			amount, _ := cmd.Flags().GetUint64("amount")
			updated, err := rt.host.MintTo(cmd.Context(), account, amount)
			if err != nil {
				return err
			}
			return printJSON(cmd, updated)
		}),
	}
	cmd.Flags().String("account", "", "token account address")
	cmd.Flags().Uint64("amount", 0, "raw amount to mint")
	return cmd
}

func newInitPoolCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init-pool",
		Short: "Create the liquidity pool for a mint pair",
		RunE: withRuntime(func(cmd *cobra.Command, rt *runtime) error {
			keys, err := keyFlags(cmd, "payer", "mint-one", "mint-two")
			if err != nil {
				return err
			}
			return execute(cmd, rt, instruction.InitializeLiquidityPool{
				Payer:   keys[0],
				MintOne: keys[1],
				MintTwo: keys[2],
			})
		}),
	}
	addPairFlags(cmd)
	return cmd
}

func newAddLiquidityCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add-liquidity",
		Short: "Deposit both assets into a pool",
		RunE: withRuntime(func(cmd *cobra.Command, rt *runtime) error {
			keys, err := keyFlags(cmd, "payer", "mint-one", "mint-two")
			if err != nil {
				return err
			}
			amountOne, _ := cmd.Flags().GetUint64("amount-one")
			amountTwo, _ := cmd.Flags().GetUint64("amount-two")
			return execute(cmd, rt, instruction.AddLiquidity{
				Payer:     keys[0],
				MintOne:   keys[1],
				MintTwo:   keys[2],
				AmountOne: amountOne,
				AmountTwo: amountTwo,
			})
		}),
	}
	addPairFlags(cmd)
	cmd.Flags().Uint64("amount-one", 0, "raw amount of mint one")
	cmd.Flags().Uint64("amount-two", 0, "raw amount of mint two")
	return cmd
}

func newRemoveLiquidityCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove-liquidity",
		Short: "Burn shares for a part of both reserves",
		RunE: withRuntime(func(cmd *cobra.Command, rt *runtime) error {
			keys, err := keyFlags(cmd, "payer", "mint-one", "mint-two")
			if err != nil {
				return err
			}
			shares, _ := cmd.Flags().GetUint64("shares")
			return execute(cmd, rt, instruction.RemoveLiquidity{
				Payer:   keys[0],
				MintOne: keys[1],
				MintTwo: keys[2],
				Shares:  shares,
			})
		}),
	}
	addPairFlags(cmd)
	cmd.Flags().Uint64("shares", 0, "shares to burn")
	return cmd
}

func newSwapCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "swap",
		Short: "Swap one asset of a pool for the other",
		RunE: withRuntime(func(cmd *cobra.Command, rt *runtime) error {
			keys, err := keyFlags(cmd, "payer", "mint-one", "mint-two", "input-mint")
			if err != nil {
				return err
			}
			amountIn, _ := cmd.Flags().GetUint64("amount-in")
			minOut, _ := cmd.Flags().GetUint64("min-amount-out")
			return execute(cmd, rt, instruction.Swap{
				Payer:        keys[0],
				MintOne:      keys[1],
				MintTwo:      keys[2],
				InputMint:    keys[3],
				AmountIn:     amountIn,
				MinAmountOut: minOut,
			})
		}),
	}
	addPairFlags(cmd)
	cmd.Flags().String("input-mint", "", "mint being sold")
	cmd.Flags().Uint64("amount-in", 0, "raw input amount")
	cmd.Flags().Uint64("min-amount-out", 0, "minimum acceptable output")
	return cmd
}

func newPoolCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pool",
		Short: "Show the pool for a mint pair",
		RunE: withRuntime(func(cmd *cobra.Command, rt *runtime) error {
			keys, err := keyFlags(cmd, "mint-one", "mint-two")
			if err != nil {
				return err
			}
			view, err := rt.host.Pool(cmd.Context(), keys[0], keys[1])
			if err != nil {
				return err
			}
			return printJSON(cmd, view)
		}),
	}
	cmd.Flags().String("mint-one", "", "first mint of the pair")
	cmd.Flags().String("mint-two", "", "second mint of the pair")
	return cmd
}

func execute(cmd *cobra.Command, rt *runtime, ix instruction.Instruction) error {
	res, err := rt.host.Execute(cmd.Context(), ix)
	if err != nil {
		return err
	}
	return printJSON(cmd, res)
}
