package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Version information (set at build time)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var verbose bool

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "fgprimer",
		Short:   "Design PCR primer pairs for targeted genomic assays",
		Version: fmt.Sprintf("%s (%s) built %s", version, commit, date),
		Long: `fgprimer designs PCR primer pairs around target intervals: it masks common
variation out of the design template, drives primer3 to pick candidates,
screens them for off-target amplicons with an interactive aligner, and
scores primer-dimer risk with ntthal.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		SilenceUsage: true,
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	cmd.AddCommand(newDesignCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newVariantDBCmd())

	return cmd
}

// initConfig wires viper to ~/.fgprimer.yaml when present.
func initConfig() error {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil // no home directory, no config file
	}
	cfgFile := filepath.Join(home, ".fgprimer.yaml")
	if _, err := os.Stat(cfgFile); err != nil {
		return nil // no config file is fine
	}
	viper.SetConfigFile(cfgFile)
	viper.SetConfigType("yaml")
	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("reading config: %w", err)
	}
	return nil
}

// newLogger builds the CLI logger per the verbose flag.
func newLogger() (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	return cfg.Build()
}
