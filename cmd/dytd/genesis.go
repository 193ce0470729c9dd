package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dytallix/go-dytallix/common/logging"
	"github.com/dytallix/go-dytallix/internal/db"
	"github.com/dytallix/go-dytallix/internal/types"
	"github.com/spf13/cobra"
)

type genesisAlloc struct {
	Address types.Address `json:"address"`
	Balance types.Value   `json:"balance"`
	Nonce   uint64        `json:"nonce"`
}

func initCommand() *cobra.Command {
	var genesisPath string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize the database from a genesis allocation file",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logging.NewLogger("init")

			raw, err := os.ReadFile(genesisPath)
			if err != nil {
				return fmt.Errorf("can't read genesis %s: %w", genesisPath, err)
			}
			var allocs []genesisAlloc
			if err := json.Unmarshal(raw, &allocs); err != nil {
				return fmt.Errorf("can't parse genesis %s: %w", genesisPath, err)
			}

			database, err := openDb()
			if err != nil {
				return err
			}
			defer database.Close()

			tx, err := database.CreateRwTx(cmd.Context())
			if err != nil {
				return err
			}
			defer tx.Rollback()

			for _, alloc := range allocs {
				account := &types.Account{
					Balance: alloc.Balance,
					Nonce:   alloc.Nonce,
				}
				if err := db.WriteAccount(tx, alloc.Address, account); err != nil {
					return err
				}
			}
			if err := db.WriteLastHeight(tx, 0); err != nil {
				return err
			}
			if err := tx.Commit(); err != nil {
				return err
			}

			logger.Info().Int("accounts", len(allocs)).Msg("genesis state written")
			return nil
		},
	}

	cmd.Flags().StringVar(&genesisPath, "genesis", "genesis.json", "genesis allocation file")
	return cmd
}

func inspectCommand() *cobra.Command {
	var addr types.Address

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print an account record",
		RunE: func(cmd *cobra.Command, args []string) error {
			database, err := openDb()
			if err != nil {
				return err
			}
			defer database.Close()

			tx, err := database.CreateRoTx(cmd.Context())
			if err != nil {
				return err
			}
			defer tx.Rollback()

			account, err := db.ReadAccount(tx, addr)
			if err != nil {
				return err
			}
			if account == nil {
				return fmt.Errorf("no account at %s", addr)
			}
			out, err := json.MarshalIndent(account, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}

	cmd.Flags().Var(&addr, "address", "account address")
	return cmd
}
