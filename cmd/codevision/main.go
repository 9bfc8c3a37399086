package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rohankatakam/codevision/internal/analysis"
	"github.com/rohankatakam/codevision/internal/config"
	cverrors "github.com/rohankatakam/codevision/internal/errors"
	"github.com/rohankatakam/codevision/internal/logging"
	"github.com/rohankatakam/codevision/internal/store"
)

var (
	// Version information (set by build flags)
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"

	cfgFile string
	verbose bool
	logger  *logrus.Logger
	cfg     *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		var cvErr *cverrors.Error
		if logging.IsDebugEnabled() && errors.As(err, &cvErr) {
			fmt.Fprint(os.Stderr, cvErr.DetailedString())
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		if cverrors.IsFatal(err) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "codevision",
	Short: "CodeVision - class, dependency and component diagrams from source trees",
	Long: `CodeVision scans a directory of Python, JavaScript/TypeScript and other
source files, builds an entity graph of modules, classes, functions and imports,
and renders it as PlantUML, Graphviz DOT, Mermaid and a generic JSON structure.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Initialize logger
		logger = logrus.New()
		logger.SetOutput(os.Stderr)
		if verbose {
			logger.SetLevel(logrus.DebugLevel)
		} else {
			logger.SetLevel(logrus.InfoLevel)
		}

		// Load configuration
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			logger.WithError(err).Warn("Failed to load config, using defaults")
			cfg = config.Default()
		}

		if !verbose {
			if lvl, err := logrus.ParseLevel(cfg.Log.Level); err == nil {
				logger.SetLevel(lvl)
			}
		}
		if cfg.Log.JSON {
			logger.SetFormatter(&logrus.JSONFormatter{})
		}

		if err := logging.Initialize(structuredLogConfig(cfg.Log)); err != nil {
			logger.WithError(err).Warn("Failed to initialize structured logging")
		} else if path := logging.GetLogFilePath(); path != "" {
			logger.WithField("path", path).Debug("Writing structured log file")
		}
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Close()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: .codevision/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.SetVersionTemplate(`CodeVision {{.Version}}
Build time: ` + BuildTime + `
Git commit: ` + GitCommit + `
`)

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(diagramCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(storeCmd)
	rootCmd.AddCommand(configCmd)
}

// structuredLogConfig maps the log section onto the slog layer. A log.file
// naming a directory gets one timestamped JSON file per run.
func structuredLogConfig(lc config.LogConfig) logging.Config {
	var logCfg logging.Config
	if info, err := os.Stat(lc.File); err == nil && info.IsDir() {
		logCfg = logging.FileConfig(lc.File, verbose)
	} else {
		logCfg = logging.DefaultConfig(verbose)
		logCfg.OutputFile = lc.File
		logCfg.JSONFormat = lc.JSON
	}
	if !verbose {
		logCfg.Level = logging.ParseLevel(lc.Level)
	}
	return logCfg
}

// openService opens the configured store and wires the analysis service.
// The returned close func releases the store.
func openService() (*analysis.Service, func(), error) {
	st, err := store.Open(cfg.Store, logger)
	if err != nil {
		return nil, nil, err
	}
	svc, err := analysis.NewService(cfg, st, logger)
	if err != nil {
		st.Close()
		return nil, nil, err
	}
	return svc, func() {
		if err := st.Close(); err != nil {
			logger.WithError(err).Warn("Failed to close store")
		}
	}, nil
}
