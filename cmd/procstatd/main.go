// Command procstatd is a demonstration host process: it mounts a procstat
// filesystem and registers a handful of statistics driven by synthetic and
// real system readings, exercising the library the way a production
// process would.
package main

import (
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/solganik/procstat"
	"github.com/solganik/procstat/internal/tree"
)

func main() {
	var (
		mountpoint string
		debug      bool
		allowOther bool
	)

	root := &cobra.Command{
		Use:   "procstatd",
		Short: "Mount a live in-process statistics filesystem",
	}

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Mount and serve statistics until SIGINT/SIGTERM",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(mountpoint, debug, allowOther)
		},
	}
	serve.Flags().StringVar(&mountpoint, "mountpoint", "/var/run/procstat", "directory to mount the statistics filesystem at")
	serve.Flags().BoolVar(&debug, "debug", false, "enable verbose FUSE request/reply logging")
	serve.Flags().BoolVar(&allowOther, "allow-other", false, "allow users other than the mount owner to access the filesystem")

	root.AddCommand(serve)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runServe(mountpoint string, debug, allowOther bool) error {
	ctx, err := procstat.Create(mountpoint,
		procstat.WithDebug(debug),
		procstat.WithAllowOther(allowOther),
	)
	if err != nil {
		return fmt.Errorf("mount: %w", err)
	}

	go ctx.Loop()
	if err := ctx.Mount(); err != nil {
		return fmt.Errorf("wait for mount: %w", err)
	}

	var requestCount atomic.Uint64
	_, err = ctx.CreateSimple(ctx.Root(), []procstat.SimpleDescriptor{
		{
			Name: "requests_total",
			Read: tree.FormatUint64Decimal(requestCount.Load),
		},
	})
	if err != nil {
		return fmt.Errorf("register requests_total: %w", err)
	}

	_, latency, err := ctx.CreateHistogramU32Series(ctx.Root(), "request_latency_us",
		[]float64{0.5, 0.9, 0.99, 0.999})
	if err != nil {
		return fmt.Errorf("register request_latency_us: %w", err)
	}

	_, cpuSeries, err := ctx.CreateU64Series(ctx.Root(), "cpu_user_jiffies")
	if err != nil {
		return fmt.Errorf("register cpu_user_jiffies: %w", err)
	}

	if _, err := ctx.CreateAggregator(ctx.Root(), "all"); err != nil {
		return fmt.Errorf("register aggregator: %w", err)
	}

	stop := make(chan struct{})
	defer close(stop)

	go syntheticRequestLoad(&requestCount, latency, stop)

	cpuTick := make(chan struct{})
	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				select {
				case cpuTick <- struct{}{}:
				case <-stop:
					return
				}
			}
		}
	}()
	go pollUserCPU(cpuSeries, cpuTick, stop)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	return procstat.Destroy(&ctx)
}

// syntheticRequestLoad stands in for real traffic: it fires at a random
// pace and records a synthetic latency, so request_latency_us's percentile
// files have something to show without a real client driving the process.
func syntheticRequestLoad(count *atomic.Uint64, latency *procstat.U32Histogram, stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case <-time.After(time.Duration(10+rand.Intn(40)) * time.Millisecond):
			count.Add(1)
			procstat.AddHistogramPoint(latency, uint32(200+rand.Intn(4000)))
		}
	}
}
