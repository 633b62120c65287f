//go:build !linux

package main

import (
	"github.com/kstaniek/go-cansock/internal/socketcan"
	"github.com/spf13/cobra"
)

// Raw CAN sockets only exist on linux; keep the command names so help output
// matches and every invocation fails clearly.
func addCommands(root *cobra.Command, env *runEnv) {
	for _, use := range []string{"ifindex", "errstr", "info", "dump", "send"} {
		root.AddCommand(&cobra.Command{
			Use:                use,
			Short:              "Unavailable on this platform",
			DisableFlagParsing: true,
			RunE: func(cmd *cobra.Command, args []string) error {
				return socketcan.ErrUnsupported
			},
		})
	}
}
