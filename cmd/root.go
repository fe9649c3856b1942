package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tabledep/tabledep/cmd/scan"
	"github.com/tabledep/tabledep/cmd/serve"
	"github.com/tabledep/tabledep/cmd/version"
	"github.com/tabledep/tabledep/pkg/shared/config"
)

var (
	cfgFile   string
	AppConfig *config.Config
	rootCmd   = &cobra.Command{
		Use:                   "tabledep [command]",
		SilenceUsage:          true,
		DisableFlagsInUseLine: true,
		Short:                 "Tabledep finds every dependency on a database table in a codebase.",
		Long: `Tabledep scans a Rails codebase for references to a database table so the
table can be renamed, migrated, or dropped safely. It combines structural
evidence from the schema and migrations with heuristic evidence from models,
raw SQL, templates and configuration, cross-checked against schema.rb.`,
	}
)

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is config.yml)")
	rootCmd.AddCommand(scan.ScanCmd)
	rootCmd.AddCommand(serve.ServeCmd)
	rootCmd.AddCommand(version.NewVersionCmd())
}

func Execute() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

func initConfig() {
	var err error

	if cfgFile == "" {
		cfgFile = "config.yml"
	}
	AppConfig, err = config.LoadConfig(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize config: %v\n", err)
		os.Exit(1)
	}
	if err := config.ValidateConfig(AppConfig); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	scan.Init(AppConfig)
	serve.Init(AppConfig)
}
