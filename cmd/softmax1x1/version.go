package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var version = "v0.1.0-dev"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "softmax1x1 %s\n", version)
			return err
		},
	}
}
