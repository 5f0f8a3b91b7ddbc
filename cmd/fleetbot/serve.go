package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/zulandar/fleetbot/internal/chat"
	"github.com/zulandar/fleetbot/internal/config"
	"github.com/zulandar/fleetbot/internal/flow"
	"github.com/zulandar/fleetbot/internal/reminder"
	"github.com/zulandar/fleetbot/internal/server"
	"github.com/zulandar/fleetbot/internal/store"
)

func newServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the bot daemon",
		Long:  "Connects to Telegram, handles report conversations, runs the reminder scheduler and the HTTP health/trigger endpoints until interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "fleetbot.yaml", "path to FleetBot config file")
	return cmd
}

func runServe(cmd *cobra.Command, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle OS signals for graceful shutdown.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

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

	engine, err := flow.NewEngine(flow.EngineOpts{
		Store:             st,
		KV:                kvs,
		Adapter:           adapter,
		DefaultReportedBy: cfg.DefaultReportedBy,
		GroupChatID:       cfg.Telegram.GroupChatID,
		DialogTTL:         cfg.DialogTTL(),
	})
	if err != nil {
		return err
	}

	sched, err := reminder.NewScheduler(reminder.SchedulerOpts{
		Store:   st,
		Adapter: adapter,
		MinAge:  cfg.ReminderMinAge(),
	})
	if err != nil {
		return err
	}

	events, err := adapter.Listen(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), "FleetBot connected")

	go func() {
		for ev := range events {
			if err := engine.HandleEvent(ctx, ev); err != nil {
				log.Printf("serve: handle event from %d: %v", ev.UserID, err)
			}
		}
	}()

	go func() {
		if err := sched.Run(ctx, cfg.Reminder.Cron); err != nil {
			log.Printf("serve: scheduler: %v", err)
			cancel()
		}
	}()

	return server.Start(ctx, server.StartOpts{
		Sweeper: sched,
		CronKey: cfg.Reminder.Key,
		Port:    cfg.HTTP.Port,
		Out:     cmd.OutOrStdout(),
	})
}
