//go:build linux

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/kstaniek/go-cansock/internal/socketcan"
	"github.com/spf13/cobra"
)

// openDevice is a hook for tests (overridden in unit tests).
var openDevice = func(cfg socketcan.Config) (socketcan.Dev, error) { return socketcan.Open(cfg) }

func addCommands(root *cobra.Command, env *runEnv) {
	root.AddCommand(
		newIfindexCmd(env),
		newErrstrCmd(),
		newInfoCmd(env),
		newDumpCmd(env),
		newSendCmd(env),
	)
}

func (c *appConfig) deviceConfig() socketcan.Config {
	return socketcan.Config{
		Interface:    c.canIf,
		Filters:      c.filters,
		JoinFilters:  c.joinFilters,
		FDFrames:     c.fdFrames,
		NoLoopback:   c.noLoopback,
		ReceiveOwn:   c.recvOwn,
		ErrorMask:    c.errMask,
		ReadTimeout:  c.readTimeout,
		WriteTimeout: c.writeTimeout,
	}
}

// signalContext is cancelled on SIGINT/SIGTERM.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func newIfindexCmd(env *runEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "ifindex NAME...",
		Short: "Resolve interface names to kernel interface indexes",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var firstErr error
			for _, name := range args {
				idx, err := socketcan.ResolveInterfaceName(name)
				if err != nil {
					env.log.Debug("ifindex_failed", "if", name, "errno", socketcan.Errno(err))
					fmt.Fprintf(cmd.OutOrStdout(), "%s\terror: %v\n", name, err)
					if firstErr == nil {
						firstErr = err
					}
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d\n", name, idx)
			}
			return firstErr
		},
	}
}

func newErrstrCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "errstr CODE...",
		Short: "Describe system error codes",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, a := range args {
				code, err := strconv.Atoi(a)
				if err != nil {
					return fmt.Errorf("invalid error code %q", a)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\n", code, socketcan.Errstr(code))
			}
			return nil
		},
	}
}
