package main

import (
	"fmt"
	"os"

	"workbench/internal/config"
	"workbench/internal/log"

	"github.com/spf13/cobra"
)

// app carries the state shared by every subcommand
type app struct {
	cfgFile  string
	debug    bool
	jsonLogs bool

	cfg *config.Config
}

// configPath returns the file the configuration is loaded from and saved to
func (a *app) configPath() (string, error) {
	if a.cfgFile != "" {
		return a.cfgFile, nil
	}
	return config.DefaultPath()
}

// saveConfig writes the configuration back to where it came from
func (a *app) saveConfig() error {
	path, err := a.configPath()
	if err != nil {
		return err
	}
	return config.SaveConfig(a.cfg, path)
}

func (a *app) load() error {
	var err error
	if a.cfgFile != "" {
		a.cfg, err = config.LoadConfigFile(a.cfgFile)
	} else {
		a.cfg, err = config.LoadConfig()
	}
	if err != nil {
		return err
	}

	opts := []log.Option{log.WithOutput(os.Stderr), log.WithLevel(a.cfg.Logging.Level)}
	if a.jsonLogs || a.cfg.Logging.JSON {
		opts = append(opts, log.WithJSON())
	}
	if a.cfg.Logging.File != "" {
		opts = append(opts, log.WithFile(a.cfg.Logging.File))
	}
	if a.debug {
		opts = append(opts, log.WithLevel("debug"))
	}
	log.Configure(opts...)
	log.SetDebug(a.debug || a.cfg.Logging.Level == "debug")
	return nil
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "workbench",
		Short: "Headless workbench tools",
		Long: `Workbench manages path variables, general workbench preferences,
preference imports and declared command handlers without a user interface.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := a.load(); err != nil {
				return fmt.Errorf("loading configuration: %w", err)
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is $HOME/.config/workbench/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&a.debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&a.jsonLogs, "json-logs", false, "emit logs as JSON")

	rootCmd.AddCommand(newPathvarCmd(a))
	rootCmd.AddCommand(newPrefsCmd(a))
	rootCmd.AddCommand(newExecCmd(a))

	return rootCmd
}
