package main

import (
	"fmt"
	"os"

	"tiersort/internal/config"
	"tiersort/internal/log"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
)

var (
	cfgFile string
	cfg     *config.Config
	debug   bool
)

// Entry point for the application
func main() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorText(err.Error()))
		os.Exit(1)
	}
}

// NewRootCmd creates the root command. Without a subcommand it opens the
// desktop front end.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "tiersort",
		Short: "Sort pictures and videos into tier folders",
		Long: `Tiersort shows the pictures or videos in a folder one at a time, in
random order, and moves each into the tier subfolder you pick.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfig()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGUI()
		},
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/tiersort/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(NewGUICmd())
	rootCmd.AddCommand(NewTUICmd())
	rootCmd.AddCommand(NewScanCmd())
	rootCmd.AddCommand(NewConfigCmd())

	return rootCmd
}

func loadConfig() error {
	var err error
	if cfgFile != "" {
		cfg, err = config.LoadConfigFile(cfgFile)
	} else {
		cfg, err = config.LoadConfig()
	}
	if err != nil {
		return err
	}
	configureLogging(cfg.Log)
	return nil
}

func configureLogging(lc config.Log) {
	opts := []log.Option{log.WithLevel(lc.Level)}
	if lc.Format == "json" {
		opts = append(opts, log.WithJSON())
	}
	if lc.File != "" {
		opts = append(opts, log.WithFile(lc.File))
	}
	log.Configure(opts...)
	if debug {
		log.SetDebug(true)
	}
}
