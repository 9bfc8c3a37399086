package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/browser"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/rohankatakam/codevision/internal/render"
)

var (
	renderProject string
	renderDir     string
	renderKind    string
	renderFormat  string
	renderBase64  bool
	renderOutput  string
	renderOpen    bool
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render a diagram to SVG or PNG with Graphviz",
	Long: `Render the Graphviz notation of a diagram with the dot executable.
The executable is looked up in PATH; set GRAPHVIZ_DOT or render.binary to
use another one. Rendering is best-effort: when dot is missing, fails or
times out nothing is written and the command exits nonzero.

Examples:
  codevision render --project api --kind class --format svg -o classes.svg
  codevision render --dir ./myproject --format png --base64
  codevision render --project api --kind component --open`,
	Args: cobra.NoArgs,
	RunE: runRender,
}

func init() {
	renderCmd.Flags().StringVarP(&renderProject, "project", "p", "", "stored project id")
	renderCmd.Flags().StringVarP(&renderDir, "dir", "d", "", "analyze this directory first")
	renderCmd.Flags().StringVarP(&renderKind, "kind", "k", "", "diagram kind (default: from config)")
	renderCmd.Flags().StringVarP(&renderFormat, "format", "f", "svg", "image format: svg or png")
	renderCmd.Flags().BoolVar(&renderBase64, "base64", false, "print base64 instead of raw bytes")
	renderCmd.Flags().StringVarP(&renderOutput, "output", "o", "", "write to file instead of stdout")
	renderCmd.Flags().BoolVar(&renderOpen, "open", false, "open the rendered file in the default viewer")
}

func runRender(cmd *cobra.Command, args []string) error {
	format, err := render.ParseFormat(renderFormat)
	if err != nil {
		return err
	}
	if renderKind == "" {
		renderKind = cfg.Diagram.DefaultKind
	}

	svc, closeStore, err := openService()
	if err != nil {
		return err
	}
	defer closeStore()

	project, err := resolveProject(cmd, svc, renderProject, renderDir)
	if err != nil {
		return err
	}

	var data []byte
	var ok bool
	if renderBase64 {
		var encoded string
		encoded, ok, err = svc.RenderBase64(cmd.Context(), project, renderKind, format)
		data = []byte(encoded + "\n")
	} else {
		data, ok, err = svc.Render(cmd.Context(), project, renderKind, format)
	}
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("rendering produced no output; use 'codevision diagram --format dot' for the text notation")
	}

	path := renderOutput
	if path == "" && renderOpen && !renderBase64 {
		path = filepath.Join(os.TempDir(), fmt.Sprintf("codevision-%s-%s.%s", project, renderKind, format))
	}

	if path == "" {
		if format == render.FormatPNG && !renderBase64 && term.IsTerminal(int(os.Stdout.Fd())) {
			return fmt.Errorf("refusing to write PNG bytes to a terminal; use -o, --open or --base64")
		}
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	logger.WithField("path", path).Info("Diagram rendered")

	if renderOpen {
		if err := browser.OpenFile(path); err != nil {
			logger.WithError(err).WithField("path", path).Warn("Failed to open viewer")
		}
	}
	return nil
}
