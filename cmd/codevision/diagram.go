package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rohankatakam/codevision/internal/analysis"
	"github.com/rohankatakam/codevision/internal/output"
)

var (
	diagramProject string
	diagramDir     string
	diagramKind    string
	diagramFormat  string
)

var diagramCmd = &cobra.Command{
	Use:   "diagram",
	Short: "Print a diagram of a stored project",
	Long: `Synthesize a class, dependency or component diagram from a stored
analysis, or from a directory analyzed on the spot with --dir.

Formats: plantuml, dot, mermaid, json (node/edge structure), bundle (all, JSON), yaml (all, YAML)

Examples:
  codevision diagram --project api --kind class --format plantuml
  codevision diagram --dir ./myproject --kind dependency --format mermaid`,
	Args: cobra.NoArgs,
	RunE: runDiagram,
}

func init() {
	diagramCmd.Flags().StringVarP(&diagramProject, "project", "p", "", "stored project id")
	diagramCmd.Flags().StringVarP(&diagramDir, "dir", "d", "", "analyze this directory first")
	diagramCmd.Flags().StringVarP(&diagramKind, "kind", "k", "", "diagram kind: class, dependency or component (default: from config)")
	diagramCmd.Flags().StringVarP(&diagramFormat, "format", "f", "bundle", "output format")
}

// resolveProject analyzes dir when given and returns the project id to read
func resolveProject(cmd *cobra.Command, svc *analysis.Service, project, dir string) (string, error) {
	if dir == "" {
		if project == "" {
			return "", fmt.Errorf("either --project or --dir is required")
		}
		return project, nil
	}
	a, err := svc.Analyze(cmd.Context(), project, dir)
	if err != nil {
		return "", fmt.Errorf("analysis failed: %w", err)
	}
	return a.ProjectID, nil
}

func runDiagram(cmd *cobra.Command, args []string) error {
	formatter, err := output.NewFormatter(diagramFormat)
	if err != nil {
		return err
	}
	if diagramKind == "" {
		diagramKind = cfg.Diagram.DefaultKind
	}

	svc, closeStore, err := openService()
	if err != nil {
		return err
	}
	defer closeStore()

	project, err := resolveProject(cmd, svc, diagramProject, diagramDir)
	if err != nil {
		return err
	}

	bundle, err := svc.Diagram(cmd.Context(), project, diagramKind)
	if err != nil {
		return err
	}
	return formatter.Format(bundle, os.Stdout)
}
