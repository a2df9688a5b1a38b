package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ehrlich-b/go-uringbench"
)

func newProbeCmd() *cobra.Command {
	var (
		ringKind string
		simulate bool
		onlyYes  bool
	)

	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Report which io_uring opcodes the kernel supports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := uringbench.ProbeKernel(ringKind, simulate)
			if err != nil {
				return err
			}
			printReport(cmd.OutOrStdout(), report, onlyYes)
			return nil
		},
	}

	cmd.Flags().StringVar(&ringKind, "ring", "giouring", "ring implementation (giouring or iceber)")
	cmd.Flags().BoolVar(&simulate, "simulate", false, "probe the in-memory ring")
	cmd.Flags().BoolVar(&onlyYes, "supported", false, "only list supported opcodes")
	return cmd
}

func printReport(out io.Writer, report []uringbench.OpStatus, onlyYes bool) {
	for _, op := range report {
		if onlyYes && !op.Supported {
			continue
		}
		mark := "no"
		if op.Supported {
			mark = "yes"
		}
		fmt.Fprintf(out, "%3d  %-28s %s\n", op.Code, op.Name, mark)
	}
}
