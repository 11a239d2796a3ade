package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/fernwell/insightd/internal/wellness"
)

// analyzeCmd runs one analysis request through the pipeline
var analyzeCmd = &cobra.Command{
	Use:   "analyze [file]",
	Short: "Run an analysis request from a JSON file or stdin",
	Long: `Run one analysis request through the pipeline and print the result
bundle as JSON. The request is read from the given file, or from stdin when
the argument is "-" or omitted.

Examples:
  # Analyze a request file
  insightd analyze request.json

  # Analyze from stdin
  echo '{"subject_id":"s1","kind":"voice","text":"feeling anxious"}' | insightd analyze -`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAnalyze,
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	raw, err := readInput(args)
	if err != nil {
		return err
	}

	var req wellness.AnalysisRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return fmt.Errorf("parse analysis request: %w", err)
	}

	reg, logger, err := buildRegistry(cmd)
	if err != nil {
		return err
	}
	defer func() {
		_ = reg.Close(cmd.Context())
		_ = logger.Sync()
	}()

	bundle, err := reg.Pipeline().Process(cmd.Context(), req)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(bundle, "", "  ")
	if err != nil {
		return fmt.Errorf("encode result bundle: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}

func readInput(args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		raw, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return raw, nil
	}
	raw, err := os.ReadFile(args[0])
	if err != nil {
		return nil, fmt.Errorf("read request file: %w", err)
	}
	return raw, nil
}
