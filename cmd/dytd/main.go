package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/dytallix/go-dytallix/common/check"
	"github.com/dytallix/go-dytallix/common/logging"
	"github.com/dytallix/go-dytallix/internal/db"
	"github.com/dytallix/go-dytallix/internal/telemetry"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func main() {
	if err := rootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "dytd [global flags] [command]",
		Short:         "dytallix execution node",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cfgFile := viper.GetString("config"); cfgFile != "" {
				viper.SetConfigFile(cfgFile)
				if err := viper.ReadInConfig(); err != nil {
					return fmt.Errorf("can't read config %s: %w", cfgFile, err)
				}
			}
			logging.SetupGlobalLogger(viper.GetString("log-level"))
			return telemetry.Init(cmd.Context())
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			telemetry.Shutdown(cmd.Context())
		},
	}

	rootCmd.PersistentFlags().StringP("log-level", "l", "info",
		"log level: trace|debug|info|warn|error|fatal|panic")
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (none by default)")
	rootCmd.PersistentFlags().String("db-path", "dytd.db", "path to database")
	rootCmd.PersistentFlags().Bool("db-in-memory", false, "use an in-memory database")

	check.PanicIfErr(viper.BindPFlags(rootCmd.PersistentFlags()))
	viper.SetEnvPrefix("DYTD")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	rootCmd.AddCommand(initCommand(), replayCommand(), inspectCommand())
	return rootCmd
}

func openDb() (db.DB, error) {
	if viper.GetBool("db-in-memory") {
		return db.NewBadgerDbInMemory()
	}
	return db.NewBadgerDb(viper.GetString("db-path"))
}
