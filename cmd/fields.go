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

var fieldsCmd = &cobra.Command{
	Use:   "fields {person|deal|organization|pipelines|stages|connection}",
	Short: "Inspect CRM metadata (custom field hashes, pipelines, stages)",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runFields(args[0])
	},
}

func init() {
	rootCmd.AddCommand(fieldsCmd)
}

func runFields(kind string) {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a := newApp(ctx, "fields", clients.NewWebSocketClient(nil))
	defer a.close()

	var (
		out any
		err error
	)
	switch kind {
	case "pipelines":
		out, err = a.fieldsSvc.Pipelines(ctx)
	case "stages":
		out, err = a.fieldsSvc.Stages(ctx)
	case "connection":
		out, err = a.fieldsSvc.CheckConnection(ctx)
	default:
		out, err = a.fieldsSvc.Fields(ctx, kind)
	}
	if err != nil {
		log.Fatalf("fields %s error: %v", kind, err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		log.Fatalf("encode error: %v", err)
	}
}
