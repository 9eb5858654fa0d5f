package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:           "custodia-server",
		Short:         "Chain-of-custody ledger for physical evidence",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newServeCommand())
	root.AddCommand(newAddrCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "custodia-server:", err)
		os.Exit(1)
	}
}
