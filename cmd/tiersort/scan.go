package main

import (
	"fmt"
	"os"
	"path/filepath"

	"tiersort/internal/session"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

// NewScanCmd creates the scan command
func NewScanCmd() *cobra.Command {
	var flags sessionFlags

	cmd := &cobra.Command{
		Use:   "scan [folder]",
		Short: "List what a session would sort",
		Long: `List the items a session would show, in name order, and the tier
folders it would create. Nothing is moved or created.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := flags.request(args)
			if err != nil {
				return err
			}
			items, err := session.Scan(cfg, req.Source, req.Mode)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(items) == 0 {
				fmt.Fprintln(out, infoText(fmt.Sprintf("No %s found in %s", req.Mode, req.Source)))
			} else {
				t := table.NewWriter()
				t.SetOutputMirror(out)
				t.SetStyle(table.StyleRounded)
				t.AppendHeader(table.Row{"#", "Name", "Kind", "Size"})
				var total uint64
				for i, item := range items {
					size := "?"
					if info, err := os.Stat(filepath.Join(req.Source, item.Name)); err == nil {
						total += uint64(info.Size())
						size = humanize.Bytes(uint64(info.Size()))
					}
					t.AppendRow(table.Row{i + 1, item.Name, item.Kind, size})
				}
				t.AppendFooter(table.Row{"", fmt.Sprintf("%d items", len(items)), "", humanize.Bytes(total)})
				t.Render()
			}

			fmt.Fprintln(out, primaryText("Tier folders:"))
			for _, tier := range req.Tiers {
				state := "will be created"
				if info, err := os.Stat(filepath.Join(req.Source, tier)); err == nil && info.IsDir() {
					state = "exists"
				}
				fmt.Fprintf(out, "  %s %s\n", tier, infoText("("+state+")"))
			}
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}
