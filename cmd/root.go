package cmd

import (
	"fmt"
	"os"

	"slotbook/config"

	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	CommitSHA = "none"
	BuildDate = "unknown"
)

func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "slotbook",
		Short: "Multi-location appointment booking with prepaid balances",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if cmd.Name() != "version" {
				config.LoadConfig()
			}
		},
	}

	root.AddCommand(newVersionCmd())
	root.AddCommand(newServeCmd())
	root.AddCommand(newWorkerCmd())
	root.AddCommand(newGenerateCmd())

	return root
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
