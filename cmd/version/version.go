// Package version reports build-time version information.
package version

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// Set via -ldflags at build time.
var (
	CoreVersion   = "dev"
	GolangVersion = runtime.Version()
	BuildTime     = "unknown"
)

// NewVersionCmd returns the version subcommand.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("Core version: %s\n", CoreVersion)
			fmt.Printf("Golang version: %s\n", GolangVersion)
			fmt.Printf("Build time: %s\n", BuildTime)
		},
	}
}
