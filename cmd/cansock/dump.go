//go:build linux

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/kstaniek/go-cansock/internal/can"
	"github.com/kstaniek/go-cansock/internal/capture"
	"github.com/kstaniek/go-cansock/internal/metrics"
	"github.com/kstaniek/go-cansock/internal/socketcan"
	"github.com/spf13/cobra"
	"golang.org/x/sys/unix"
)

func newDumpCmd(env *runEnv) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Print frames received on an interface",
		Long: `dump binds a raw CAN socket to --if and prints every received frame in
candump notation until interrupted. Read errors are logged and retried with
exponential backoff.`,
		Example: `  cansock dump --if vcan0
  cansock dump --if can0 --filter 123:7FF --filter 200~700 --err-mask 0x1FFFFFFF
  cansock dump --if vcan0 --pcap /tmp/vcan0.pcap
  CANSOCK_METRICS_ADDR=:9100 cansock dump --if can0 --mdns-enable`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext(cmd)
			defer stop()
			return runDump(ctx, env.cfg, env.log, cmd.OutOrStdout())
		},
	}
	addSocketFlags(cmd.Flags())
	addDumpFlags(cmd.Flags())
	return cmd
}

func runDump(ctx context.Context, cfg *appConfig, l *slog.Logger, out io.Writer) error {
	dev, err := openDevice(cfg.deviceConfig())
	if err != nil {
		return fmt.Errorf("socketcan open %s: %w", cfg.canIf, err)
	}
	defer dev.Close()
	l.Info("socketcan_open", "if", cfg.canIf, "filters", len(cfg.filters), "fd", cfg.fdFrames)

	var wg sync.WaitGroup
	defer wg.Wait()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	metrics.SetReadinessFunc(func() bool { return ctx.Err() == nil })
	if cfg.metricsAddr != "" {
		metrics.InitBuildInfo(version, commit, date)
		srv := metrics.StartHTTP(cfg.metricsAddr)
		defer func() { _ = srv.Shutdown(context.Background()) }()
		cleanupMDNS, err := startMDNS(ctx, cfg)
		if err != nil {
			l.Warn("mdns_start_failed", "error", err)
		} else if cfg.mdnsEnable {
			l.Info("mdns_started", "service", mdnsServiceType, "name", mdnsInstance(cfg))
			defer cleanupMDNS()
		}
	}
	startMetricsLogger(ctx, cfg.logMetricsEvery, l, &wg)

	var rec frameRecorder
	if cfg.pcapFile != "" {
		f, err := os.Create(cfg.pcapFile)
		if err != nil {
			return fmt.Errorf("pcap: %w", err)
		}
		defer f.Close()
		w, err := capture.NewWriter(f)
		if err != nil {
			return err
		}
		rec = w
		l.Info("pcap_recording", "file", cfg.pcapFile)
	}

	dumpLoop(ctx, dev, cfg.canIf, cfg.pollInterval, l, out, rec)
	l.Info("socketcan_rx_end")
	return nil
}

// frameRecorder receives every frame dumpLoop prints.
type frameRecorder interface {
	WriteFrame(ts time.Time, fr can.Frame) error
}

// dumpLoop waits for readability, reads one frame per wake-up and prints it,
// handing it to rec as well when rec is non-nil. It returns when ctx is
// cancelled.
func dumpLoop(ctx context.Context, dev socketcan.Dev, iface string, poll time.Duration, l *slog.Logger, out io.Writer, rec frameRecorder) {
	backoff := rxBackoffMin
	retry := func(where string, err error) {
		l.Warn(where, "error", err, "backoff", backoff)
		sleepFn(backoff)
		backoff = nextBackoff(backoff)
	}
	for ctx.Err() == nil {
		ready, err := dev.WaitReadable(poll)
		if err != nil {
			if ctx.Err() != nil { // shutting down
				return
			}
			if errors.Is(err, unix.EINTR) {
				continue
			}
			metrics.IncError(metrics.ErrPoll)
			retry("socketcan_poll_error", err)
			continue
		}
		if !ready {
			metrics.IncPollTimeout()
			continue
		}
		metrics.IncPollWakeup()

		var fr can.Frame
		if err := dev.ReadFrame(&fr); err != nil {
			if ctx.Err() != nil {
				return
			}
			switch {
			case errors.Is(err, unix.EAGAIN), errors.Is(err, unix.EINTR):
				continue
			case errors.Is(err, socketcan.ErrShortTransfer), errors.Is(err, can.ErrInvalidLength):
				metrics.IncMalformed()
			default:
				metrics.IncError(metrics.ErrSocketRead)
			}
			retry("socketcan_read_error", err)
			continue
		}
		metrics.IncRx()
		if fr.CANID&can.CAN_ERR_FLAG != 0 {
			metrics.IncErrorFrame()
		}
		fmt.Fprintf(out, "%s  %s\n", iface, fr.String())
		if rec != nil {
			if err := rec.WriteFrame(time.Now(), fr); err != nil {
				metrics.IncError(metrics.ErrCapture)
				l.Warn("pcap_write_error", "error", err)
			}
		}
		backoff = rxBackoffMin
	}
}
