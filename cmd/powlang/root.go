package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/powlang/powlang/internal/config"
	"github.com/powlang/powlang/internal/logger"
	"github.com/powlang/powlang/pkg/diagnostics"
	"github.com/powlang/powlang/pkg/help"
)

// Version is the CLI version.
const Version = "1.0.0"

// cli holds the streams and global state shared by all subcommands.
type cli struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	cfgFile string
	debug   bool

	cfg *config.Config
	log *zap.Logger
}

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:   "powlang",
		Short: "Run, check and format PowLang programs",
		Long: `powlang runs programs written in PowLang, a small typed teaching
language with define, show, when loops and ala conditionals.

` + help.QUICKREF,
		Version:           Version,
		SilenceErrors:     true,
		SilenceUsage:      true,
		PersistentPreRunE: c.setup,
	}

	root.SetIn(c.stdin)
	root.SetOut(c.stdout)
	root.SetErr(c.stderr)

	root.PersistentFlags().StringVar(&c.cfgFile, "config", "", "config file path (YAML)")
	root.PersistentFlags().BoolVar(&c.debug, "debug", false, "enable debug logging")
	root.CompletionOptions.DisableDefaultCmd = true

	root.AddCommand(
		newRunCmd(c),
		newCheckCmd(c),
		newFmtCmd(c),
		newTokensCmd(c),
		newKeywordsCmd(c),
		newServeCmd(c),
	)
	return root
}

// setup loads configuration and builds the logger before any subcommand runs.
func (c *cli) setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.NewLoader().WithConfigPath(c.cfgFile).Load()
	if err != nil {
		return &exitError{code: exitUsage, err: err}
	}
	if c.debug {
		cfg.Logging.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return &exitError{code: exitUsage, err: err}
	}

	log, err := logger.New(cfg.Logging.LoggerConfig())
	if err != nil {
		return &exitError{code: exitUsage, err: err}
	}
	c.cfg = cfg
	c.log = log
	return nil
}

// readSource reads a program from a file, or from stdin when file is "-".
// It returns the source and the name to record in diagnostics.
func (c *cli) readSource(file string, pretty bool) (string, string, error) {
	if file == "-" {
		data, err := io.ReadAll(c.stdin)
		if err != nil {
			return "", "", &exitError{code: exitUsage, err: fmt.Errorf("reading stdin: %w", err)}
		}
		return string(data), "<stdin>", nil
	}

	data, err := os.ReadFile(file)
	if err != nil {
		diag := diagnostics.MakeDiag(diagnostics.EIO, fmt.Sprintf("cannot read file: %s", file), nil, "")
		fmt.Fprintln(c.stderr, diagnostics.FormatDiagnostic(diag, pretty))
		return "", "", &exitError{code: exitUsage}
	}
	return string(data), file, nil
}
