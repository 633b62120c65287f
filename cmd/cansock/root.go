package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
)

// runEnv carries what PersistentPreRunE resolves to the subcommands.
type runEnv struct {
	cfg      *appConfig
	log      *slog.Logger
	closeLog func()
}

// NewRootCmd creates the cansock command tree.
func NewRootCmd() *cobra.Command {
	v := newViper()
	env := &runEnv{closeLog: func() {}}

	root := &cobra.Command{
		Use:   "cansock",
		Short: "Raw SocketCAN socket control and inspection",
		Long: `cansock drives Linux raw CAN sockets directly: resolve interfaces,
inspect and change socket options, dump received frames and send frames.

Every flag can also be set through the environment as CANSOCK_<FLAG>,
with dashes replaced by underscores (CANSOCK_LOG_LEVEL=debug).
Flags given on the command line win over the environment, which wins over
an INI --profile.`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := v.BindPFlags(cmd.Flags()); err != nil {
				return err
			}
			if path := v.GetString("profile"); path != "" {
				if err := loadProfile(v, path, cmd.Name(), cmd.Flags()); err != nil {
					return fmt.Errorf("configuration error: %w", err)
				}
			}
			cfg, err := loadConfig(v)
			if err != nil {
				return fmt.Errorf("configuration error: %w", err)
			}
			if err := cfg.validate(); err != nil {
				return fmt.Errorf("configuration error: %w", err)
			}
			l, closeLog, err := setupLogger(cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			env.cfg, env.log, env.closeLog = cfg, l, closeLog
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			env.closeLog()
		},
	}
	addGlobalFlags(root.PersistentFlags())
	addCommands(root, env)
	return root
}
