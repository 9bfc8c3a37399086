package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/rohankatakam/codevision/internal/config"
	cverrors "github.com/rohankatakam/codevision/internal/errors"
	"github.com/rohankatakam/codevision/internal/output"
)

var (
	configForce  bool
	configFormat string
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Create or inspect the configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write the default configuration (default: .codevision/config.yaml)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration after files and environment",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return output.WriteData(os.Stdout, cfg, configFormat)
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "overwrite an existing file")
	configShowCmd.Flags().StringVarP(&configFormat, "format", "f", "yaml", "output format: yaml or json")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := filepath.Join(".codevision", "config.yaml")
	if len(args) == 1 {
		path = args[0]
	}
	if err := writeDefaultConfig(path, configForce); err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", path)
	return nil
}

// writeDefaultConfig saves config.Default() to path. An existing file is
// kept unless force is set.
func writeDefaultConfig(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return cverrors.ValidationErrorf("%s already exists (use --force to overwrite)", path)
	}
	return config.Default().Save(path)
}
