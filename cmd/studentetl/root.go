package main

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"studentetl/internal/config"
	"studentetl/internal/logging"
)

// cli is the state shared by every subcommand.
type cli struct {
	stdin          io.Reader
	stdout, stderr io.Writer

	cfgPath   string
	logLevel  string
	logFormat string

	cfg config.Config
	log *slog.Logger
}

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:   "studentetl",
		Short: "Clean secondary and tertiary student-record datasets",
		Long: `studentetl classifies a CSV or XLSX upload as a secondary (high school)
or tertiary (university) dataset, repairs and validates every row, fills
missing university scores with the department median and reports summary
figures.

Configuration comes from --config (JSON or YAML) and STUDENTETL_* environment
variables; flags override both.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.load()
		},
	}
	root.PersistentFlags().StringVarP(&c.cfgPath, "config", "c", "", "config file (.json, .yaml or .yml)")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "log level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&c.logFormat, "log-format", "", "log format: text or json")

	root.AddCommand(
		newCleanCmd(c),
		newProbeCmd(c),
		newServeCmd(c),
		newSchemasCmd(c),
		newConfigCmd(c),
		newVersionCmd(c),
	)
	return root
}

// load reads the config and builds the logger. Validation is left to the
// commands so "config validate" can report every issue.
func (c *cli) load() error {
	cfg, err := config.Load(c.cfgPath)
	if err != nil {
		return err
	}
	if c.logLevel != "" {
		cfg.Logging.Level = c.logLevel
	}
	if c.logFormat != "" {
		cfg.Logging.Format = c.logFormat
	}
	c.cfg = cfg
	c.log = logging.New(cfg.Logging, c.stderr)
	return nil
}

// validConfig logs warnings and returns the first error issue.
func (c *cli) validConfig() error {
	for _, iss := range config.Validate(c.cfg) {
		if iss.Severity == config.SeverityError {
			return iss
		}
		c.log.Warn("config", slog.String("path", iss.Path), slog.String("issue", iss.Message))
	}
	return nil
}
