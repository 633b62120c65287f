//go:build linux

package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/kstaniek/go-cansock/internal/socketcan"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

type infoReport struct {
	Interface      string          `json:"interface" yaml:"interface"`
	Ifindex        uint32          `json:"ifindex" yaml:"ifindex"`
	Flags          map[string]bool `json:"flags" yaml:"flags"`
	ErrorMask      uint32          `json:"error_mask" yaml:"error_mask"`
	Filters        []string        `json:"filters" yaml:"filters"`
	Blocking       bool            `json:"blocking" yaml:"blocking"`
	ReadTimeoutUs  uint64          `json:"read_timeout_us" yaml:"read_timeout_us"`
	WriteTimeoutUs uint64          `json:"write_timeout_us" yaml:"write_timeout_us"`
}

func newInfoCmd(env *runEnv) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info",
		Short: "Open a raw socket on an interface and print its options",
		Long: `info opens a raw CAN socket, applies the socket flags given on the command
line, binds it to --if and reads every option back from the kernel.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := env.cfg
			dev, err := socketcan.Open(cfg.deviceConfig())
			if err != nil {
				return err
			}
			defer dev.Close()
			rep, err := collectInfo(dev.Socket())
			if err != nil {
				return err
			}
			rep.Interface, rep.Ifindex = cfg.canIf, dev.Ifindex()
			return writeInfo(cmd.OutOrStdout(), rep, cfg.output)
		},
	}
	addSocketFlags(cmd.Flags())
	cmd.Flags().StringP("output", "o", "text", "Report format: text|json|yaml")
	return cmd
}

// collectInfo re-reads every option from the kernel.
func collectInfo(s *socketcan.Socket) (infoReport, error) {
	rep := infoReport{Flags: make(map[string]bool, len(socketcan.Flags))}
	for _, o := range socketcan.Flags {
		on, err := s.Flag(o)
		if err != nil {
			return rep, err
		}
		rep.Flags[o.String()] = on
	}
	var err error
	if rep.ErrorMask, err = s.ErrorFilter(); err != nil {
		return rep, err
	}
	fl, err := s.FilterList()
	if err != nil {
		return rep, err
	}
	rep.Filters = make([]string, 0, len(fl))
	for _, f := range fl {
		rep.Filters = append(rep.Filters, f.String())
	}
	if rep.Blocking, err = s.Blocking(); err != nil {
		return rep, err
	}
	if rep.ReadTimeoutUs, rep.WriteTimeoutUs, err = s.Timeouts(); err != nil {
		return rep, err
	}
	return rep, nil
}

func writeInfo(w io.Writer, rep infoReport, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(rep); err != nil {
			return err
		}
		return enc.Close()
	}
	fmt.Fprintf(w, "interface:      %s (index %d)\n", rep.Interface, rep.Ifindex)
	for _, o := range socketcan.Flags {
		fmt.Fprintf(w, "%-22s %t\n", o.String()+":", rep.Flags[o.String()])
	}
	fmt.Fprintf(w, "%-22s 0x%08X\n", socketcan.OptErrorMask.String()+":", rep.ErrorMask)
	fmt.Fprintf(w, "%-22s %d\n", "filters:", len(rep.Filters))
	for _, f := range rep.Filters {
		fmt.Fprintf(w, "  %s\n", f)
	}
	fmt.Fprintf(w, "%-22s %t\n", "blocking:", rep.Blocking)
	fmt.Fprintf(w, "%-22s %dus / %dus\n", "timeouts (rx/tx):", rep.ReadTimeoutUs, rep.WriteTimeoutUs)
	return nil
}
