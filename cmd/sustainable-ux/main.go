package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sunil-khokhar-3288/sustainable-ux/internal/app"
	"github.com/sunil-khokhar-3288/sustainable-ux/internal/config"
	"github.com/sunil-khokhar-3288/sustainable-ux/internal/version"
)

var (
	buildVersion = "dev"
	buildCommit  = ""
	buildTime    = ""
)

func main() {
	version.Set(version.Info{
		Version:   buildVersion,
		Commit:    buildCommit,
		BuildTime: buildTime,
	})

	root := &cobra.Command{
		Use:   "sustainable-ux",
		Short: "Synthetic GPU energy monitor with a live web dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the render session and HTTP server (default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print build metadata",
		Run: func(cmd *cobra.Command, args []string) {
			info := version.Current()
			fmt.Printf("sustainable-ux %s", info.Version)
			if info.Commit != "" {
				fmt.Printf(" (%s)", info.Commit)
			}
			if info.BuildTime != "" {
				fmt.Printf(" built %s", info.BuildTime)
			}
			fmt.Println()
		},
	})

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServe() error {
	cfg, err := config.Load()
	if err != nil {
		handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})
		slog.New(handler).Error("failed to load configuration", "err", err)
		return err
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel})
	logger := slog.New(handler)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, logger, cfg); err != nil {
		logger.Error("application error", "err", err)
		return err
	}
	return nil
}
