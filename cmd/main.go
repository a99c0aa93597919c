package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:          "pipedrive-sync",
	Short:        "Syncs the bank delinquency remittance with the Pipedrive CRM",
	SilenceUsage: true,
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using system env or defaults")
	}

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
