package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/ehrlich-b/go-uringbench"
	"github.com/ehrlich-b/go-uringbench/internal/logging"
)

// writeFlags holds the raw flag values of the write command
type writeFlags struct {
	size       string
	blockSize  string
	params     uringbench.Params
	buffered   bool
	atime      bool
	noPrealloc bool
}

func newWriteCmd() *cobra.Command {
	f := &writeFlags{params: uringbench.DefaultParams("")}

	cmd := &cobra.Command{
		Use:   "write [path]",
		Short: "Sequentially write the target extent",
		Long:  "Covers the target file with fixed-size writes at a bounded queue depth. A data-sync barrier follows every N-th write unless the file is opened durable (O_DIRECT or O_DSYNC).",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				f.params.Path = args[0]
			}
			params, err := f.resolve()
			if err != nil {
				return err
			}
			return runWrite(cmd.Context(), cmd.OutOrStdout(), params)
		},
	}
	f.register(cmd.Flags())
	return cmd
}

func (f *writeFlags) register(fs *pflag.FlagSet) {
	p := &f.params
	fs.StringVarP(&f.size, "size", "s", formatSize(p.Size), "extent to write (e.g., 512M, 10G)")
	fs.StringVarP(&f.blockSize, "block", "b", formatSize(int64(p.BlockSize)), "write unit (e.g., 4K, 64K)")
	fs.IntVarP(&p.QueueDepth, "depth", "d", p.QueueDepth, "operations in flight")
	fs.IntVar(&p.SyncCadence, "sync-every", p.SyncCadence, "data-sync barrier after every N writes (0 disables)")

	fs.BoolVar(&f.buffered, "buffered", false, "open without O_DIRECT")
	fs.BoolVar(&p.DSync, "dsync", p.DSync, "open with O_DSYNC")
	fs.BoolVar(&f.atime, "atime", false, "open without O_NOATIME")
	fs.BoolVar(&p.Truncate, "truncate", p.Truncate, "truncate the target on open")
	fs.BoolVar(&f.noPrealloc, "no-prealloc", false, "skip fallocate of the extent")

	fs.BoolVar(&p.SQPoll, "sqpoll", p.SQPoll, "kernel submission polling (IORING_SETUP_SQPOLL)")
	fs.BoolVar(&p.IOPoll, "iopoll", p.IOPoll, "busy-poll completions (IORING_SETUP_IOPOLL)")
	fs.BoolVar(&p.FixedFiles, "fixed-files", p.FixedFiles, "register the target as a fixed file")
	fs.BoolVar(&p.FixedBuffers, "fixed-buffers", p.FixedBuffers, "register the write unit as a fixed buffer")
	fs.BoolVar(&p.Probe, "probe", p.Probe, "log the kernel opcode report before writing")
	fs.StringVar(&p.RingKind, "ring", p.RingKind, "ring implementation (giouring or iceber)")

	fs.IntVar(&p.MaxRetries, "max-retries", p.MaxRetries, "consecutive exhausted passes before giving up (0 is unlimited)")
	fs.DurationVar(&p.RetryBackoff, "retry-backoff", p.RetryBackoff, "initial wait after the ring runs out of entries")
	fs.DurationVar(&p.MaxRetryBackoff, "max-retry-backoff", p.MaxRetryBackoff, "longest wait after the ring runs out of entries")
	fs.DurationVar(&p.TelemetryInterval, "interval", p.TelemetryInterval, "telemetry sample interval")
	fs.BoolVar(&p.Simulate, "simulate", p.Simulate, "run against an in-memory ring")
}

// resolve turns raw flags into validated parameters
func (f *writeFlags) resolve() (uringbench.Params, error) {
	p := f.params
	size, err := parseSize(f.size)
	if err != nil {
		return p, fmt.Errorf("invalid size %q: %w", f.size, err)
	}
	block, err := parseSize(f.blockSize)
	if err != nil {
		return p, fmt.Errorf("invalid block size %q: %w", f.blockSize, err)
	}
	p.Size = size
	p.BlockSize = int(block)
	p.Direct = !f.buffered
	p.NoAtime = !f.atime
	p.Preallocate = !f.noPrealloc
	if p.Path == "" && !p.Simulate {
		return p, fmt.Errorf("a target path is required")
	}
	if err := p.Validate(); err != nil {
		return p, err
	}
	return p, nil
}

func runWrite(parent context.Context, out io.Writer, params uringbench.Params) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := logging.Default()
	logger.Info("starting benchmark",
		"target", params.Path,
		"size", formatSize(params.Size),
		"block", formatSize(int64(params.BlockSize)),
		"depth", params.QueueDepth)

	res, err := uringbench.Run(ctx, params, nil)
	if res != nil {
		printSummary(out, params, res)
	}
	if err != nil {
		return err
	}
	if res.Errors > 0 {
		return fmt.Errorf("%d operations failed", res.Errors)
	}
	return nil
}

func printSummary(out io.Writer, params uringbench.Params, res *uringbench.RunResult) {
	fmt.Fprintf(out, "target:      %s\n", params.Path)
	fmt.Fprintf(out, "state:       %s\n", res.State)
	fmt.Fprintf(out, "written:     %s (%d bytes)\n", formatSize(int64(res.BytesWritten)), res.BytesWritten)
	fmt.Fprintf(out, "operations:  %d writes, %d barriers\n", res.WritesCompleted, res.SyncsCompleted)
	fmt.Fprintf(out, "errors:      %d (failed writes %d, short writes %d, failed barriers %d)\n",
		res.Errors, res.FailedWrites, res.ShortWrites, res.FailedSyncs)
	fmt.Fprintf(out, "elapsed:     %s\n", res.Elapsed.Round(time.Millisecond))
	fmt.Fprintf(out, "throughput:  %.1f MiB/s, %.0f IOPS\n", res.Throughput()/(1<<20), res.IOPS())
	fmt.Fprintf(out, "in flight:   max %d\n", res.MaxOutstanding)
	if res.Metrics.TotalOps > 0 {
		fmt.Fprintf(out, "latency:     avg %s, p50 %s, p99 %s\n",
			time.Duration(res.Metrics.AvgLatencyNs),
			time.Duration(res.Metrics.LatencyP50Ns),
			time.Duration(res.Metrics.LatencyP99Ns))
	}
	for _, err := range res.Errs() {
		fmt.Fprintf(out, "  %v\n", err)
	}
}
