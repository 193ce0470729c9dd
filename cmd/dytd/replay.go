package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dytallix/go-dytallix/common/logging"
	"github.com/dytallix/go-dytallix/internal/execution"
	"github.com/dytallix/go-dytallix/internal/types"
	"github.com/dytallix/go-dytallix/internal/vm"
	"github.com/spf13/cobra"
)

type blockFile struct {
	Height       uint64               `json:"height"`
	Time         uint64               `json:"time"`
	Transactions []*types.Transaction `json:"transactions"`
}

func replayCommand() *cobra.Command {
	var blockPath string

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Execute a block of transactions against the current state",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logging.NewLogger("replay")
			ctx := cmd.Context()

			raw, err := os.ReadFile(blockPath)
			if err != nil {
				return fmt.Errorf("can't read block %s: %w", blockPath, err)
			}
			var block blockFile
			if err := json.Unmarshal(raw, &block); err != nil {
				return fmt.Errorf("can't parse block %s: %w", blockPath, err)
			}

			database, err := openDb()
			if err != nil {
				return err
			}
			defer database.Close()

			runtime, err := vm.NewRuntime(ctx)
			if err != nil {
				return err
			}
			defer runtime.Close(ctx)

			executor, err := execution.NewExecutor(runtime)
			if err != nil {
				return err
			}

			result, err := executor.ExecuteBlock(ctx, database,
				execution.BlockContext{Height: block.Height, Time: block.Time},
				block.Transactions)
			if err != nil {
				return err
			}

			logger.Info().
				Uint64(logging.FieldBlockHeight, block.Height).
				Int("transactions", len(result.Receipts)).
				Msg("block executed")

			out, err := json.MarshalIndent(result.Receipts, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}

	cmd.Flags().StringVar(&blockPath, "block", "block.json", "block file to execute")
	return cmd
}
