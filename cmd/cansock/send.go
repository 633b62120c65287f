//go:build linux

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kstaniek/go-cansock/internal/can"
	"github.com/kstaniek/go-cansock/internal/socketcan"
	"github.com/spf13/cobra"
)

func newSendCmd(env *runEnv) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "send FRAME...",
		Short: "Send frames on an interface",
		Long: `send writes frames given in candump notation (123#DEADBEEF, 1F334455#R,
123##1AABBCC for CAN FD) through an asynchronous queue. The frame list is
repeated --count times (0 repeats until interrupted). Queued frames are
flushed before exit.`,
		Example: `  cansock send --if vcan0 123#DEADBEEF
  cansock send --if can0 --count 10 --interval 100ms 7DF#0201000000000000`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			frames := make([]can.Frame, 0, len(args))
			for _, a := range args {
				fr, err := can.ParseFrame(a)
				if err != nil {
					return err
				}
				if fr.FD && !env.cfg.fdFrames {
					return fmt.Errorf("frame %q is CAN FD; pass --fd", a)
				}
				frames = append(frames, fr)
			}
			dev, err := openDevice(env.cfg.deviceConfig())
			if err != nil {
				return fmt.Errorf("socketcan open %s: %w", env.cfg.canIf, err)
			}
			defer dev.Close()
			ctx, stop := signalContext(cmd)
			defer stop()
			n, err := runSend(ctx, dev, frames, env.cfg.count, env.cfg.interval, env.log)
			env.log.Info("send_done", "if", env.cfg.canIf, "queued", n)
			return err
		},
	}
	addSocketFlags(cmd.Flags())
	addSendFlags(cmd.Flags())
	return cmd
}

// runSend queues frames count times (forever when count is 0) and waits for
// the queue to drain. It returns the number of frames queued, and an error
// when queueing stopped early or any write failed.
func runSend(ctx context.Context, dev socketcan.Dev, frames []can.Frame, count int, interval time.Duration, l *slog.Logger) (int, error) {
	tw := socketcan.NewTXWriter(ctx, dev, txQueueSize)
	queued, err := queueFrames(ctx, tw, frames, count, interval, l)
	tw.Close()
	if err != nil {
		return queued, err
	}
	if n, werr := tw.Failures(); werr != nil {
		return queued, fmt.Errorf("%d of %d frames not sent: %w", n, queued, werr)
	}
	return queued, nil
}

func queueFrames(ctx context.Context, tw *socketcan.TXWriter, frames []can.Frame, count int, interval time.Duration, l *slog.Logger) (int, error) {
	queued := 0
	for round := 0; count == 0 || round < count; round++ {
		for _, fr := range frames {
			if err := enqueue(ctx, tw, fr, l); err != nil {
				if ctx.Err() != nil {
					return queued, nil
				}
				return queued, err
			}
			queued++
			if interval > 0 {
				select {
				case <-ctx.Done():
					return queued, nil
				case <-time.After(interval):
				}
			}
		}
	}
	return queued, nil
}

// enqueue retries on overflow until the writer has room or ctx ends.
func enqueue(ctx context.Context, tw *socketcan.TXWriter, fr can.Frame, l *slog.Logger) error {
	backoff := rxBackoffMin
	for {
		err := tw.SendFrame(fr)
		if !errors.Is(err, socketcan.ErrTxOverflow) {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		l.Debug("tx_queue_full", "pending", tw.Pending(), "backoff", backoff)
		sleepFn(backoff)
		backoff = nextBackoff(backoff)
	}
}
