package main

import (
	"fmt"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/ini.v1"
)

// loadProfile merges an INI profile into v below flags and environment.
// Keys of the unnamed section apply to every command that has a flag of that
// name. Keys of a section named after cmdName apply on top and must name a
// flag of fs.
//
//	if = vcan0
//	log-level = debug
//
//	[dump]
//	filter = 123:7FF, 200~700
//	poll-interval = 100ms
func loadProfile(v *viper.Viper, path, cmdName string, fs *pflag.FlagSet) error {
	f, err := ini.LoadSources(ini.LoadOptions{KeyValueDelimiters: "="}, path)
	if err != nil {
		return fmt.Errorf("profile %s: %w", path, err)
	}
	vals := make(map[string]any)
	collect := func(sec *ini.Section, strict bool) error {
		for _, key := range sec.Keys() {
			name := key.Name()
			flag := fs.Lookup(name)
			if flag == nil {
				if strict {
					return fmt.Errorf("profile %s: [%s] unknown key %q", path, sec.Name(), name)
				}
				continue
			}
			if flag.Value.Type() == "stringSlice" {
				vals[name] = key.Strings(",")
			} else {
				vals[name] = key.String()
			}
		}
		return nil
	}
	if err := collect(f.Section(ini.DefaultSection), false); err != nil {
		return err
	}
	if sec, err := f.GetSection(cmdName); err == nil {
		if err := collect(sec, true); err != nil {
			return err
		}
	}
	return v.MergeConfigMap(vals)
}
