package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/loreweave/loreweave/internal/cli"
	"github.com/loreweave/loreweave/internal/cli/admin"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "loreweaved",
		Short: "Loreweave daemon and CLI",
		Long:  "Loreweave daemon for running the knowledge bot server and managing channel backfills",
	}

	cli.AddHelpJSONFlag(rootCmd)
	rootCmd.AddCommand(admin.ServeCmd())
	rootCmd.AddCommand(admin.BackfillCmd())

	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
