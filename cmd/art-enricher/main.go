// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the art-enricher CLI.
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/art-enricher/internal/logging"
	"github.com/pdiddy/art-enricher/internal/secrets"
	"github.com/pdiddy/art-enricher/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// Process-wide state set up by the root command before any subcommand runs.
var (
	appConfig types.Config
	logger    = slog.Default()
	closeLog  = func() error { return nil }
)

// rootCmd is the base command for the art-enricher CLI.
var rootCmd = &cobra.Command{
	Use:   "art-enricher",
	Short: "Enrich photo classifications of artworks and monuments with ranked pages",
	Long: `art-enricher turns an image classifier's output (scored entities and labels
for a photographed landmark or artwork) into ranked encyclopedia and web pages
for a downstream text generator.

Entities are resolved on Wikidata; a specific artwork or monument is searched
by title together with its creator or architect, anything else is filtered
for art relevance and searched generically on Wikipedia and the web.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading .env: %w", err)
		}

		secretsDir, _ := cmd.Flags().GetString("secrets-dir")
		s, err := secrets.Load(afero.NewOsFs(), secretsDir, nil)
		if err != nil {
			return err
		}
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}

		cfg, err := loadConfig(viper.GetViper(), s)
		if err != nil {
			return err
		}
		appConfig = cfg

		logger, closeLog = logging.Setup(cfg.Log.File, logging.ParseLevel(cfg.Log.Level))
		slog.SetDefault(logger)
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return closeLog()
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./art-enricher.yaml or ~/.config/art-enricher/config.yaml)")
	rootCmd.PersistentFlags().String("secrets-dir", ".secrets/", "directory of API key files")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))

	setDefaults(viper.GetViper())
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("art-enricher")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "art-enricher"))
		}
	}

	viper.SetEnvPrefix("ART_ENRICHER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
