package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"pipedrive-sync/internal/clients"
	"pipedrive-sync/internal/txtfile"
)

var syncDBPath string

var syncCmd = &cobra.Command{
	Use:   "sync [file]",
	Short: "Process one remittance file and exit",
	Long: "Runs a full synchronization against the CRM for the given TXT " +
		"remittance. Without an argument the newest file in the input folder is used.",
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runSyncOnce(args)
	},
}

func init() {
	syncCmd.Flags().StringVar(&syncDBPath, "db", "", "audit database file (overrides SQLITE_PATH)")
	rootCmd.AddCommand(syncCmd)
}

func runSyncOnce(args []string) {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if syncDBPath != "" {
		os.Setenv("SQLITE_PATH", syncDBPath)
	}

	a := newApp(ctx, "sync", clients.NewWebSocketClient(nil))
	defer a.close()

	var path string
	if len(args) > 0 {
		abs, err := filepath.Abs(args[0])
		if err != nil {
			log.Fatalf("invalid path %q: %v", args[0], err)
		}
		path = abs
	} else {
		latest, err := txtfile.FindLatest(a.cfg.Folders.Input)
		if err != nil {
			log.Fatalf("no remittance found in %q: %v", a.cfg.Folders.Input, err)
		}
		path = latest
	}

	stats, err := a.syncSvc.ProcessFile(ctx, path)
	if err != nil {
		log.Fatalf("sync failed: %v", err)
	}

	a.log.Infow("sync finished",
		"file", filepath.Base(path),
		"debtors", stats.TotalDebtors,
		"persons_created", stats.PersonsCreated,
		"persons_updated", stats.PersonsUpdated,
		"deals_created", stats.DealsCreated,
		"deals_updated", stats.DealsUpdated,
		"deals_moved", stats.DealsMoved,
		"deals_reopened", stats.DealsReopened,
		"deals_lost", stats.DealsLost,
		"errors", len(stats.Errors))
}
