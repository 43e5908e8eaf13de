package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/born-ml/kernels/internal/ops/softmax"
	"github.com/born-ml/kernels/internal/tensor"
)

func newMaskCmd() *cobra.Command {
	var channels int

	cmd := &cobra.Command{
		Use:   "mask",
		Short: "Print the last-slice lane mask and launch sizes for a channel count",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if channels <= 0 {
				return fmt.Errorf("--channels must be positive, got %d", channels)
			}
			depth := tensor.DivideRoundUp(channels, 4)
			m := softmax.MaskForLastPlane(channels)
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "channels: %d\n", channels)
			_, _ = fmt.Fprintf(out, "slices:   %d\n", depth)
			_, _ = fmt.Fprintf(out, "rounds:   %d\n", tensor.DivideRoundUp(depth, 32))
			_, err := fmt.Fprintf(out, "mask:     (%g, %g, %g, %g)\n", m[0], m[1], m[2], m[3])
			return err
		},
	}
	cmd.Flags().IntVar(&channels, "channels", 0, "Channel count")
	_ = cmd.MarkFlagRequired("channels")

	return cmd
}
