// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/pdiddy/art-enricher/internal/pipeline"
	"github.com/pdiddy/art-enricher/internal/search"
	"github.com/pdiddy/art-enricher/pkg/types"
)

var enrichCmd = &cobra.Command{
	Use:   "enrich [request.json|-]",
	Short: "Enrich one classification result and print ranked pages",
	Long: `Enrich reads a request from a file (or stdin with "-"): either
{"classification": {...}, "userProfile": {...}} or a bare classification
{"entities": [...], "labels": [...]}. Profile flags override the request's
profile. Results are printed as a table or JSON and optionally saved to a
run file. With --deliver, results are also posted to the Adaptation service.`,
	Args: cobra.ExactArgs(1),
	RunE: runEnrich,
}

func runEnrich(cmd *cobra.Command, args []string) error {
	fs := afero.NewOsFs()

	req, err := readRequest(fs, args[0], cmd.InOrStdin())
	if err != nil {
		return err
	}
	applyProfileFlags(cmd, &req.UserProfile)

	p, err := buildPipeline(fs, appConfig, logger)
	if err != nil {
		return err
	}

	deliver, _ := cmd.Flags().GetBool("deliver")
	run := p.Enrich
	if deliver {
		run = p.Run
	}
	res, err := run(cmd.Context(), req)
	if err != nil {
		return err
	}

	if out, _ := cmd.Flags().GetString("out"); out != "" {
		known := ""
		if res.KnownInstance != nil {
			known = res.KnownInstance.Title()
		}
		rf := search.NewRunFile(uuid.NewString(), req.Classification, req.UserProfile, res.Results, known)
		if err := search.WriteRunFile(fs, out, rf); err != nil {
			return err
		}
		fmt.Fprintln(os.Stderr, "Saved run to", out)
	}

	w := cmd.OutOrStdout()
	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		if err := search.FormatJSON(res.Results, w); err != nil {
			return err
		}
	} else {
		search.FormatTable(res.Results, w)
	}
	if len(res.Adaptation) > 0 {
		fmt.Fprintf(w, "\nAdaptation: %s\n", res.Adaptation)
	}
	return nil
}

// readRequest loads a request from path, or from stdin when path is "-".
func readRequest(fs afero.Fs, path string, stdin io.Reader) (pipeline.Request, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = afero.ReadFile(fs, path)
	}
	if err != nil {
		return pipeline.Request{}, fmt.Errorf("reading request: %w", err)
	}

	var req pipeline.Request
	if err := json.Unmarshal(data, &req); err != nil {
		return req, fmt.Errorf("parsing request: %w", err)
	}
	if req.Classification.IsEmpty() {
		// Bare classifier output.
		if err := json.Unmarshal(data, &req.Classification); err != nil {
			return req, fmt.Errorf("parsing request: %w", err)
		}
	}
	return req, nil
}

func applyProfileFlags(cmd *cobra.Command, profile *types.UserProfile) {
	if cmd.Flags().Changed("language") || profile.Language == "" {
		profile.Language, _ = cmd.Flags().GetString("language")
	}
	if cmd.Flags().Changed("expertise") || profile.ExpertiseLevel == "" {
		expertise, _ := cmd.Flags().GetString("expertise")
		profile.ExpertiseLevel = types.ExpertiseLevel(expertise)
	}
	if cmd.Flags().Changed("taste") {
		profile.Tastes, _ = cmd.Flags().GetStringSlice("taste")
	}
}

func init() {
	enrichCmd.Flags().String("language", "en", "two-letter result language")
	enrichCmd.Flags().String("expertise", string(types.ExpertiseBeginner), "audience: child, beginner, intermediate, expert")
	enrichCmd.Flags().StringSlice("taste", nil, "user tastes selecting query expansions (repeatable)")
	enrichCmd.Flags().Bool("json", false, "output results as JSON")
	enrichCmd.Flags().String("out", "", "save the run (request and results) to a YAML file")
	enrichCmd.Flags().Bool("deliver", false, "post results to the Adaptation service")

	rootCmd.AddCommand(enrichCmd)
}
