package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"tiersort/internal/gui"
	"tiersort/internal/session"
	"tiersort/internal/tui"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func runGUI() error {
	if !gui.IsGUIAvailable() {
		return fmt.Errorf("this build has no desktop front end, use 'tiersort tui'")
	}
	app, err := gui.NewFactory(cfg).Create()
	if err != nil {
		return err
	}
	app.Run()
	return nil
}

// NewGUICmd creates the GUI command for the CLI
func NewGUICmd() *cobra.Command {
	return &cobra.Command{
		Use:   "gui",
		Short: "Launch the graphical user interface",
		Long:  `Open the setup window, choose a folder and tiers, then sort in the sorter window.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGUI()
		},
	}
}

// sessionFlags are the request flags shared by tui and scan.
type sessionFlags struct {
	mode  string
	tiers string
}

func (f *sessionFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.mode, "mode", "m", "", "pictures or videos (default from config)")
	cmd.Flags().StringVarP(&f.tiers, "tiers", "t", "", "comma separated tier names (default from config)")
}

func (f *sessionFlags) request(args []string) (session.Request, error) {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	mode := f.mode
	if mode == "" {
		mode = cfg.Sorting.Mode
	}
	tiers := f.tiers
	if tiers == "" {
		tiers = strings.Join(cfg.Sorting.Tiers, ",")
	}
	return session.ParseRequest(dir, tiers, mode)
}

// NewTUICmd creates the terminal sorting command
func NewTUICmd() *cobra.Command {
	var flags sessionFlags
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "tui [folder]",
		Short: "Sort a folder in the terminal",
		Long: `Show each item of the folder in the terminal and move it into the tier
chosen with the number keys 1-9. Quitting leaves the remaining items in place.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := flags.request(args)
			if err != nil {
				return err
			}
			if dryRun {
				cfg.Relocation.DryRun = true
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			stats, err := tui.Run(ctx, cfg, req)
			if err != nil {
				return err
			}
			printSummary(cmd, stats)
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "log moves without performing them")
	return cmd
}

func printSummary(cmd *cobra.Command, st session.Stats) {
	if st.Total == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), infoText("No items found to sort."))
		return
	}
	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Total", "Moved", "Skipped", "Failed", "Left"})
	t.AppendRow(table.Row{st.Total, st.Relocated, st.Skipped, st.Failed, st.Remaining + boolToInt(st.Current)})
	t.Render()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
