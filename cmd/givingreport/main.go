// Command givingreport pulls congregation giving data, reconciles project
// assignments against donations, and writes the annotated report workbook.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

const progName = "givingreport"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           progName,
		Short:         "Giving data retrieval and recharacterization reporting",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(newProcessCmd())
	return root
}
