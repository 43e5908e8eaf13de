package main

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/born-ml/kernels/internal/compute"
	"github.com/born-ml/kernels/internal/ops/softmax"
	"github.com/born-ml/kernels/internal/tensor"
)

func newRunCmd() *cobra.Command {
	var (
		values string
		repeat int
		linked linkedFlags
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Compile the kernel and run it on the configured device",
		Example: `  softmax1x1 run --values "1,2,3"
  softmax1x1 run --values "1,2,3;0,0,0" --relu --relu-clip 0.5`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}
			def, err := cfg.OperationDef()
			if err != nil {
				return err
			}
			rows, err := parseRows(values)
			if err != nil {
				return err
			}
			if repeat < 1 {
				return fmt.Errorf("--repeat must be at least 1, got %d", repeat)
			}

			dev, err := openDevice(cfg)
			if err != nil {
				return err
			}
			defer dev.Close()

			shape := tensor.BHWC{B: len(rows), H: 1, W: 1, C: len(rows[0])}
			src, err := dev.NewTensor(shape, def.Src)
			if err != nil {
				return err
			}
			dst, err := dev.NewTensor(shape, def.Dst)
			if err != nil {
				return err
			}
			flat := make([]float32, 0, shape.NumElements())
			for _, r := range rows {
				flat = append(flat, r...)
			}
			if err := src.Upload(flat); err != nil {
				return err
			}

			op, err := softmax.New(def, softmax.WithLinked(linked.ops(cmd.Flags())...))
			if err != nil {
				return err
			}
			cache := compute.NewProgramCache(dev)
			defer cache.Release()
			if err := op.Compile(compute.CreationContext{Cache: cache}); err != nil {
				return err
			}
			defer op.Release()
			op.SetSrc(src)
			op.SetDst(dst)
			for i := 0; i < repeat; i++ {
				if err := op.AddToQueue(dev); err != nil {
					return err
				}
			}

			out, err := dst.Download()
			if err != nil {
				return err
			}
			slog.Info("softmax1x1 run",
				"device", dev.Name(),
				"shape", shape.String(),
				"dispatches", repeat,
				"precision", op.Definition().Precision.String(),
				"batched", op.Definition().BatchSupport,
				"grid", fmt.Sprintf("%v", op.GridSize()))

			w := cmd.OutOrStdout()
			for b := 0; b < shape.B; b++ {
				row := out[b*shape.C : (b+1)*shape.C]
				parts := make([]string, len(row))
				for i, v := range row {
					parts[i] = strconv.FormatFloat(float64(v), 'f', 4, 32)
				}
				if _, err := fmt.Fprintln(w, strings.Join(parts, " ")); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&values, "values", "", `Input channels, comma separated; batch elements separated by ";"`)
	cmd.Flags().IntVar(&repeat, "repeat", 1, "Number of dispatches")
	_ = cmd.MarkFlagRequired("values")
	linked.register(cmd.Flags())

	return cmd
}

// parseRows parses "1,2,3;4,5,6" into equally sized rows.
func parseRows(s string) ([][]float32, error) {
	var rows [][]float32
	for i, rowText := range strings.Split(s, ";") {
		fields := strings.Split(rowText, ",")
		row := make([]float32, 0, len(fields))
		for _, f := range fields {
			f = strings.TrimSpace(f)
			if f == "" {
				continue
			}
			v, err := strconv.ParseFloat(f, 32)
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", i, err)
			}
			row = append(row, float32(v))
		}
		if len(row) == 0 {
			return nil, fmt.Errorf("row %d is empty", i)
		}
		if len(rows) > 0 && len(row) != len(rows[0]) {
			return nil, fmt.Errorf("row %d has %d channels, want %d", i, len(row), len(rows[0]))
		}
		rows = append(rows, row)
	}
	return rows, nil
}
