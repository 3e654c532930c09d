package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			w := out(cmd)
			fmt.Fprintf(w, "opshub version %s\n", version)
			fmt.Fprintf(w, "  Go:       %s\n", runtime.Version())
			fmt.Fprintf(w, "  OS/Arch:  %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}
