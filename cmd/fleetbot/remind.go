package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/zulandar/fleetbot/internal/chat"
	"github.com/zulandar/fleetbot/internal/config"
	"github.com/zulandar/fleetbot/internal/reminder"
	"github.com/zulandar/fleetbot/internal/store"
)

func newRemindCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "remind",
		Short: "Run one reminder sweep and exit",
		Long:  "Walks the open reports once, DMs reporters whose reports have gone quiet, and prints the sweep summary. Useful from an external cron.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRemind(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "fleetbot.yaml", "path to FleetBot config file")
	return cmd
}

func runRemind(cmd *cobra.Command, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx := context.Background()

	kvs, closeKV, err := openKV(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeKV()

	st, err := store.New(kvs)
	if err != nil {
		return err
	}

	adapter, err := chat.NewTelegramAdapter(cfg.Telegram.Token)
	if err != nil {
		return err
	}
	if err := adapter.Connect(ctx); err != nil {
		return err
	}
	defer adapter.Close()

	sched, err := reminder.NewScheduler(reminder.SchedulerOpts{
		Store:   st,
		Adapter: adapter,
		MinAge:  cfg.ReminderMinAge(),
	})
	if err != nil {
		return err
	}

	summary, err := sched.Sweep(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Checked %d reports, sent %d reminders\n", summary.Checked, summary.Sent)
	return nil
}
