package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"pipedrive-sync/internal/clients"
	"pipedrive-sync/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the input folder and sync each new remittance",
	Run: func(cmd *cobra.Command, args []string) {
		runWatch()
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a := newApp(ctx, "watch", clients.NewWebSocketClient(nil))
	defer a.close()

	watcher := watch.New(a.cfg.Folders.Input,
		time.Duration(a.cfg.WatchDebounce)*time.Second, a.syncSvc, a.log)

	if err := watcher.Run(ctx); err != nil {
		log.Fatalf("watcher error: %v", err)
	}
}
