package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"taskline/cmd/taskline/commands"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "taskline",
		Short: "Chat-driven personal task tracker",
		Long:  "Telegram bot, celebration worker and database tooling for the taskline task tracker",
	}

	rootCmd.AddCommand(commands.NewBotCmd())
	rootCmd.AddCommand(commands.NewWorkerCmd())
	rootCmd.AddCommand(commands.NewInitDBCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
