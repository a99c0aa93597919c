package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"pipedrive-sync/internal/clients"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Back up the audit database and prune old copies",
	Run: func(cmd *cobra.Command, args []string) {
		runBackupOnce()
	},
}

func init() {
	rootCmd.AddCommand(backupCmd)
}

func runBackupOnce() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a := newApp(ctx, "backup", clients.NewWebSocketClient(nil))
	defer a.close()

	result, err := a.backupSvc.Run(ctx)
	if err != nil {
		log.Fatalf("backup failed: %v", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		log.Fatalf("encode error: %v", err)
	}
}
