package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"leadplan/engine/internal/plan"
)

type generateOptions struct {
	profilePath string
	format      string
	output      string
}

var generateOpts generateOptions

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a plan from a profile file",
	Long: `Generate a plan from a YAML or JSON profile file ("-" reads JSON from stdin).

Example:
  leadplan generate --profile acme.yaml --format markdown`,
	Args: cobra.NoArgs,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVarP(&generateOpts.profilePath, "profile", "p", "", "Profile file (.yaml, .yml or .json), or - for stdin")
	generateCmd.Flags().StringVarP(&generateOpts.format, "format", "f", "json", "Output format (json|markdown)")
	generateCmd.Flags().StringVarP(&generateOpts.output, "output", "o", "", "Write the result to a file instead of stdout")
	_ = generateCmd.MarkFlagRequired("profile")
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	if generateOpts.format != "json" && generateOpts.format != "markdown" {
		return fmt.Errorf("unknown format %q", generateOpts.format)
	}
	profile, err := readProfile(cmd.InOrStdin(), generateOpts.profilePath)
	if err != nil {
		return err
	}
	if err := profile.Validate(); err != nil {
		return err
	}
	cfg, err := current.resolveConfig()
	if err != nil {
		return err
	}
	result := current.newEngine(cfg).Generate(cmd.Context(), profile)

	out := cmd.OutOrStdout()
	if generateOpts.output != "" {
		file, err := os.Create(generateOpts.output)
		if err != nil {
			return err
		}
		defer file.Close()
		out = file
	}
	return writeResult(out, result, generateOpts.format)
}

func readProfile(stdin io.Reader, path string) (plan.Profile, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return plan.Profile{}, err
		}
		return plan.DecodeProfile(data, ".json")
	}
	return plan.LoadProfile(filepath.Clean(path))
}

func writeResult(w io.Writer, result plan.Result, format string) error {
	if format == "markdown" {
		_, err := fmt.Fprintf(w, "<!-- source: %s -->\n%s", result.Source, plan.Markdown(result.Plan))
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
