// Package main provides the genepanel command-line tool.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Exit codes
const (
	ExitSuccess = 0
	ExitError   = 1
	ExitUsage   = 2
)

// Version information (set at build time)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Configuration keys shared by flags, environment and the config file.
const (
	keyReference  = "reference"
	keyChromSizes = "chrom-sizes"
	keyAssembly   = "assembly"
	keyPadding    = "padding"
	keyCollapse   = "collapse"
	keyStore      = "store"
	keyLogLevel   = "log-level"
	keyWorkers    = "workers"
	keyNoCache    = "no-cache"
)

var cfgFile string

// usageError marks errors caused by invalid command-line usage.
type usageError struct{ error }

func main() {
	os.Exit(run())
}

func run() int {
	cmd := newRootCmd()
	err := cmd.Execute()
	if err == nil {
		return ExitSuccess
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	var ue usageError
	if errors.As(err, &ue) {
		return ExitUsage
	}
	return ExitError
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "genepanel",
		Short: "Build BED files of gene panel regions",
		Long: `genepanel extracts exon or coordinate regions for genes, transcripts and exon
ranges from a RefSeq-style annotation table and writes them as a sorted,
merged BED file.`,
		Version:       fmt.Sprintf("%s (%s) built %s", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default: ~/.genepanel.yaml)")
	cmd.PersistentFlags().String(keyLogLevel, "INFO", "Log level: DEBUG, INFO, WARNING, ERROR, CRITICAL")
	viper.BindPFlag(keyLogLevel, cmd.PersistentFlags().Lookup(keyLogLevel))

	cmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return usageError{err}
	})

	cmd.AddCommand(newExtractCmd())
	cmd.AddCommand(newBatchCmd())
	cmd.AddCommand(newPanelCmd())
	cmd.AddCommand(newDownloadCmd())
	cmd.AddCommand(newConfigCmd())

	return cmd
}

// initConfig reads the config file and environment.
func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.SetConfigFile(filepath.Join(home, ".genepanel.yaml"))
		}
	}

	viper.SetEnvPrefix("GENEPANEL")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	viper.SetDefault(keyAssembly, "hg38")
	viper.SetDefault(keyLogLevel, "INFO")

	if err := viper.ReadInConfig(); err != nil {
		// A missing default config file is fine; an explicit one must exist.
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && (errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)) {
			return nil
		}
		return fmt.Errorf("reading config: %w", err)
	}
	return nil
}

// bindFlags binds the named flags of the executing command to viper keys.
// Binding happens at run time so commands sharing a key do not clobber each
// other's bindings.
func bindFlags(cmd *cobra.Command, keys ...string) error {
	for _, k := range keys {
		f := cmd.Flags().Lookup(k)
		if f == nil {
			continue
		}
		if err := viper.BindPFlag(k, f); err != nil {
			return fmt.Errorf("binding flag %s: %w", k, err)
		}
	}
	return nil
}

// loggerFromConfig builds the logger for the configured level.
func loggerFromConfig() (*zap.Logger, error) {
	logger, err := newLogger(viper.GetString(keyLogLevel))
	if err != nil {
		return nil, usageError{err}
	}
	return logger, nil
}
