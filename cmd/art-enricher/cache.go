// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/art-enricher/internal/cache"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect the result cache",
	Long: `Cache inspects the JSON cache file shared by the Wikipedia and web search
adapters. Keys look like "[<expertise>:<language>]-<terms>" for web searches
and "[wikipedia:<language>]-<title>" for encyclopedia pages.`,
}

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cache keys",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := openCacheFile()
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		for _, k := range c.Keys() {
			fmt.Fprintln(w, k)
		}
		fmt.Fprintf(w, "\n%d entries in %s\n", len(c.Keys()), c.Path())
		return nil
	},
}

var cacheGetCmd = &cobra.Command{
	Use:   "get KEY",
	Short: "Print one cached value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := openCacheFile()
		if err != nil {
			return err
		}
		v, ok := c.Get(args[0])
		if !ok {
			return fmt.Errorf("no cache entry for %q", args[0])
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s\n", v)
		return err
	},
}

var cacheExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the whole cache as YAML or JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		c, err := openCacheFile()
		if err != nil {
			return err
		}
		return exportCache(c, format, cmd.OutOrStdout())
	},
}

func openCacheFile() (*cache.FileCache, error) {
	if appConfig.Cache.File == "" {
		return nil, fmt.Errorf("no cache file configured")
	}
	return cache.Open(afero.NewOsFs(), appConfig.Cache.File)
}

// exportCache writes every entry, keys sorted, in the given format.
func exportCache(c cache.Cache, format string, w io.Writer) error {
	all := c.GetAll()

	switch format {
	case "yaml", "":
		entries := make(map[string]any, len(all))
		for k, raw := range all {
			var v any
			if err := json.Unmarshal(raw, &v); err != nil {
				return fmt.Errorf("decoding cache entry %q: %w", k, err)
			}
			entries[k] = v
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(entries); err != nil {
			return fmt.Errorf("encoding yaml: %w", err)
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(all)
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}
}

func init() {
	cacheExportCmd.Flags().String("format", "yaml", "export format: yaml or json")

	cacheCmd.AddCommand(cacheListCmd)
	cacheCmd.AddCommand(cacheGetCmd)
	cacheCmd.AddCommand(cacheExportCmd)

	rootCmd.AddCommand(cacheCmd)
}
