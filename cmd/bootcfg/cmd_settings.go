package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/newtron-network/bootcfg/pkg/cli"
	"github.com/newtron-network/bootcfg/pkg/model"
	"github.com/newtron-network/bootcfg/pkg/settings"
	"github.com/newtron-network/bootcfg/pkg/sysconfig"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage persistent settings",
	Long: `Manage persistent settings stored in ~/.bootcfg/settings.json.

Settings provide defaults for flags:
  - release:       Installed release (--release)
  - system_type:   System type (--system-type)
  - config_type:   Config type (--type)
  - output_format: Output format (-o)
  - audit_log:     Audit log path
  - redis_addr:    Config database address (--redis)

Examples:
  bootcfg settings show
  bootcfg settings set config_type subcloud
  bootcfg settings set output_format yaml
  bootcfg settings clear`,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := settings.LoadFrom(settingsPath)
		if err != nil {
			return fmt.Errorf("loading settings: %w", err)
		}

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "Settings file: %s\n\n", settingsPath)

		t := cli.NewTable("SETTING", "VALUE").WithWriter(w)
		for _, key := range settings.Keys() {
			value, _ := s.Get(key)
			if value == "" {
				value = cli.Dim("(not set)")
			}
			t.Row(key, value)
		}
		t.Flush()
		return nil
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <setting> <value>",
	Short: "Set a setting value",
	Long: `Set a persistent setting value. An empty value clears the setting.

Examples:
  bootcfg settings set release 22.12
  bootcfg settings set system_type All-in-one
  bootcfg settings set redis_addr 10.10.10.3:6379`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		setting, value := args[0], args[1]
		if err := checkSetting(setting, value); err != nil {
			return err
		}

		s, err := settings.LoadFrom(settingsPath)
		if err != nil {
			s = &settings.Settings{}
		}
		if err := s.Set(setting, value); err != nil {
			return err
		}
		if err := s.SaveTo(settingsPath); err != nil {
			return fmt.Errorf("saving settings: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s set to: %s\n", setting, value)
		return nil
	},
}

// checkSetting rejects values the commands would refuse later
func checkSetting(setting, value string) error {
	if value == "" {
		return nil
	}
	switch setting {
	case "config_type":
		_, err := model.ParseConfigType(value)
		return err
	case "output_format":
		_, err := sysconfig.ParseFormat(value)
		return err
	case "system_type":
		if _, ok := model.ParseSystemType(value); !ok {
			return fmt.Errorf("unknown system type %q (valid: %v)", value, model.SystemTypes)
		}
	}
	return nil
}

var settingsGetCmd = &cobra.Command{
	Use:   "get <setting>",
	Short: "Get a setting value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := settings.LoadFrom(settingsPath)
		if err != nil {
			return fmt.Errorf("loading settings: %w", err)
		}
		value, ok := s.Get(args[0])
		if !ok {
			return fmt.Errorf("unknown setting: %s (valid: %v)", args[0], settings.Keys())
		}
		if value == "" {
			value = "(not set)"
		}
		fmt.Fprintln(cmd.OutOrStdout(), value)
		return nil
	},
}

var settingsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear all settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		s := &settings.Settings{}
		if err := s.SaveTo(settingsPath); err != nil {
			return fmt.Errorf("saving settings: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "All settings cleared.")
		return nil
	},
}

var settingsPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show settings file path",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), settingsPath)
	},
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsGetCmd)
	settingsCmd.AddCommand(settingsClearCmd)
	settingsCmd.AddCommand(settingsPathCmd)
}
