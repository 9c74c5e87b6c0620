package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/setteedb/settee"
)

const Version = "0.3.1"

var (
	// RootCmd represents the base command when called without any
	// subcommands.
	RootCmd = &cobra.Command{
		Use:   "settee",
		Short: "document store client",
		Long: fmt.Sprintf(`settee (v%s)

A command-line client for Couch-style document stores. The --url flag
(or SETTEE_URL) selects the backend: "memory:", "http(s)://host/db" or
"couchbase(s)://host/bucket".`, Version),
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of settee",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("settee v%s\n", Version)
		},
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	RootCmd.PersistentFlags().String("url", "memory:", "connection URL of the document store")
	RootCmd.PersistentFlags().Int("timeout", 30, "operation timeout in seconds")
	RootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	RootCmd.PersistentFlags().String("log-format", "console", "log format (console, ecs)")

	RootCmd.AddCommand(versionCmd)
	RootCmd.AddCommand(getCmd)
	RootCmd.AddCommand(saveCmd)
	RootCmd.AddCommand(rmCmd)
	RootCmd.AddCommand(lsCmd)
	RootCmd.AddCommand(findCmd)
	RootCmd.AddCommand(indexCmd)
	RootCmd.AddCommand(destroyCmd)
}

// initConfig wires env files, SETTEE_* variables and flags into viper.
func initConfig() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	viper.SetEnvPrefix("settee")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	_ = viper.BindPFlags(RootCmd.PersistentFlags())
}

// withStore opens the configured store, runs fn against it and closes
// it again. Every document subcommand goes through here.
func withStore(cmd *cobra.Command, fn func(ctx context.Context, st *settee.Store) error) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), time.Duration(viper.GetInt("timeout"))*time.Second)
	defer cancel()

	st, err := settee.OpenURL(ctx, viper.GetString("url"), settee.WithLogger(newLogger()))
	if err != nil {
		return err
	}
	defer st.Close(ctx)

	return fn(ctx, st)
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
