package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rohankatakam/codevision/internal/extract"
	"github.com/rohankatakam/codevision/internal/ingestion"
	"github.com/rohankatakam/codevision/internal/output"
)

var (
	extractFormat     string
	extractScriptMode string
)

var extractCmd = &cobra.Command{
	Use:   "extract <file>",
	Short: "Dump one file's extracted entities",
	Long: `Run the extractor registered for a file's extension and print the
module, classes, functions and dependencies it produced.

Examples:
  codevision extract models.py
  codevision extract src/user.ts --format yaml --script-mode treesitter`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().StringVarP(&extractFormat, "format", "f", "json", "output format: json or yaml")
	extractCmd.Flags().StringVar(&extractScriptMode, "script-mode", "", "JS/TS extractor: heuristic or treesitter (default: from config)")
}

func runExtract(cmd *cobra.Command, args []string) error {
	mode := cfg.Extract.ScriptMode
	if extractScriptMode != "" {
		mode = extractScriptMode
	}

	registry := extract.DefaultRegistry(extract.Options{ScriptMode: mode})
	logger.WithField("registry", registry.String()).Debug("Extractors registered")

	processor, err := ingestion.NewProcessor(&ingestion.ProcessorConfig{
		Workers: 1,
		Timeout: cfg.Extract.FileTimeout,
	}, registry)
	if err != nil {
		return err
	}

	result, err := processor.ExtractFile(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("extraction failed: %w", err)
	}
	if result == nil {
		return fmt.Errorf("%s produced no entities", args[0])
	}
	return output.WriteData(os.Stdout, result, extractFormat)
}
