// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/pdiddy/art-enricher/internal/adapt"
	"github.com/pdiddy/art-enricher/internal/httputil"
	"github.com/pdiddy/art-enricher/internal/search"
)

var deliverCmd = &cobra.Command{
	Use:   "deliver RUN.yaml",
	Short: "Post a saved run to the Adaptation service",
	Long: `Deliver reloads a run saved with "enrich --out" and posts its profile and
ranked results to the Adaptation service without querying any backend.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		run, err := search.ReadRunFile(afero.NewOsFs(), args[0])
		if err != nil {
			return err
		}

		client := adapt.New(appConfig.Adaptation, appConfig.HTTP, httputil.NewClient(appConfig.HTTP.Timeout), logger)
		if !client.Enabled() {
			return fmt.Errorf("adaptation.url is not configured")
		}
		resp, err := client.Deliver(cmd.Context(), run.Profile, run.Results)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s\n", resp)
		return err
	},
}

func init() {
	rootCmd.AddCommand(deliverCmd)
}
