package main

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/zulandar/fleetbot/internal/format"
	"github.com/zulandar/fleetbot/internal/store"
)

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Inspect tracked reports",
	}

	cmd.AddCommand(newReportListCmd())
	cmd.AddCommand(newReportShowCmd())
	return cmd
}

func newReportListCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List active reports",
		Long:  "Lists reports on the open index, including snoozed ones, with their status and last activity.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReportList(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "fleetbot.yaml", "path to FleetBot config file")
	return cmd
}

func runReportList(cmd *cobra.Command, configPath string) error {
	ctx := context.Background()
	_, st, closeKV, err := storeFromConfig(ctx, configPath)
	if err != nil {
		return err
	}
	defer closeKV()

	ids, err := st.OpenIndex(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(ids) == 0 {
		fmt.Fprintln(out, "No active reports")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tASSET\tPROBLEM\tLAST UPDATE")
	for _, id := range ids {
		r, err := st.Get(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.Status, r.Asset, truncate(r.Problem, 40),
			r.LastUpdateAt.UTC().Format(time.RFC3339))
	}
	return w.Flush()
}

func newReportShowCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one report with its history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReportShow(cmd, configPath, args[0])
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "fleetbot.yaml", "path to FleetBot config file")
	return cmd
}

func runReportShow(cmd *cobra.Command, configPath, id string) error {
	ctx := context.Background()
	_, st, closeKV, err := storeFromConfig(ctx, configPath)
	if err != nil {
		return err
	}
	defer closeKV()

	r, err := st.Get(ctx, id)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, format.Report(r, format.StatusTag(r.Status)))
	if len(r.MediaMessageIDs) > 0 {
		fmt.Fprintf(out, "Media: %d file(s)\n", len(r.MediaMessageIDs))
	}
	if r.SnoozedUntil != nil {
		fmt.Fprintf(out, "Snoozed until: %s\n", r.SnoozedUntil.UTC().Format(time.RFC3339))
	}
	fmt.Fprintf(out, "\nHistory:\n%s\n", format.History(r.History))
	return nil
}

// truncate shortens s to max runes with an ellipsis.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}
