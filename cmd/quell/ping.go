package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
)

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Connect to the configured vendor and verify the connection",
	RunE:  runPing,
}

func init() {
	rootCmd.AddCommand(pingCmd)
}

func runPing(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := configFromContext(ctx)
	if err != nil {
		return err
	}

	cat, err := loadCatalog(cfg)
	if err != nil {
		return err
	}

	desc, err := pickDescriptor(cat, cfg)
	if err != nil {
		return err
	}

	mgr, err := newManager(desc)
	if err != nil {
		return err
	}

	if err := mgr.Connect(cfg.Settings); err != nil {
		return err
	}
	defer func() {
		if err := mgr.Disconnect(ctx); err != nil {
			slog.Warn("disconnect failed", "err", err)
		}
	}()

	conn, err := mgr.Conn(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = mgr.Release(ctx, conn) }()

	if err := conn.Ping(ctx); err != nil {
		return fmt.Errorf("ping %s: %w", desc.Vendor, err)
	}

	fmt.Printf("%s: ok\n", desc.Vendor)
	return nil
}
