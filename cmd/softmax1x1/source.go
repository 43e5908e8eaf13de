package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/born-ml/kernels/internal/ops/softmax"
)

func newSourceCmd() *cobra.Command {
	var linked linkedFlags

	cmd := &cobra.Command{
		Use:   "source",
		Short: "Print the generated WGSL for the configured kernel",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}
			def, err := cfg.OperationDef()
			if err != nil {
				return err
			}
			p, err := softmax.GenerateProgram(def, linked.ops(cmd.Flags()))
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), p.Source)
			return err
		},
	}
	linked.register(cmd.Flags())

	return cmd
}
