// Command sanket scans an equity universe for ILFO and ROC & BasisSlope
// signals and grades each one against the optimal range table.
package main

import (
	"os"

	"github.com/fatih/color"

	"sanket-signals/internal/cli"
	"sanket-signals/internal/logging"
)

func main() {
	logger := logging.NewLogger()

	if err := cli.NewRootCmd(logger).Execute(); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
