// Package cmd wires the a11y command line: the API server, the design
// scanner and the contrast checker.
package cmd

import (
	"fmt"
	"os"

	"a11y_tracker/config"
	"a11y_tracker/logger"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// app carries state shared by subcommands once the root pre-run has loaded
// configuration.
type app struct {
	v       *viper.Viper
	cfgFile string
	cfg     *config.Config
	log     *logger.Logger
}

// NewRootCommand builds the full command tree.
func NewRootCommand() *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:   "a11y",
		Short: "Accessibility issue tracker for design files",
		Long: `a11y tracks accessibility issues found in design files.

  a11y serve                     start the REST API
  a11y scan design.json          scan an exported document and upload the results
  a11y contrast "#777" "#fff"    check a colour pair against WCAG thresholds`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default ./.a11y.yaml)")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("log-format", "json", "log format (json, console)")
	_ = a.v.BindPFlag("logger.level", flags.Lookup("log-level"))
	_ = a.v.BindPFlag("logger.format", flags.Lookup("log-format"))

	root.AddCommand(a.serveCommand(), a.scanCommand(), a.contrastCommand())
	return root
}

func (a *app) init() error {
	cfg, err := config.Load(a.v, a.cfgFile)
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.Logger)
	if err != nil {
		return err
	}
	a.cfg, a.log = cfg, log
	return nil
}

func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
