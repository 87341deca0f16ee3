// Bootcfg - Controller Bootstrap Configuration Validator
//
// Validates an initial controller configuration file before installation
// and derives the normalized configuration the installer consumes:
//   - validate: check one file and print the normalized output
//   - check:    check many files in parallel and report a status table
//   - publish:  check one file and write the output to the config database
//
// Every run is recorded in the audit log.
//
// Examples:
//
//	bootcfg validate system_config.ini                    # Onboard, uses /etc facts
//	bootcfg validate --offboard -o yaml system_config.ini # Away from the controller
//	bootcfg validate --type region region_config.ini
//	bootcfg check --offboard -j 8 configs/*.ini
//	bootcfg publish --ssh-host ctl-0 --ssh-user sysadmin system_config.ini
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/newtron-network/bootcfg/pkg/audit"
	"github.com/newtron-network/bootcfg/pkg/cli"
	"github.com/newtron-network/bootcfg/pkg/settings"
	"github.com/newtron-network/bootcfg/pkg/util"
	"github.com/newtron-network/bootcfg/pkg/version"
)

var (
	// Global option flags
	verbose      bool
	logJSON      bool
	noColor      bool
	settingsPath string
	platformRoot string

	// Global state
	userSettings *settings.Settings
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:               "bootcfg",
	Short:             "Controller bootstrap configuration validator",
	SilenceUsage:      true,
	SilenceErrors:     true,
	CompletionOptions: cobra.CompletionOptions{HiddenDefaultCmd: true},
	Long: `Bootcfg validates a controller bootstrap configuration file and derives
the normalized configuration used by the installer.

Onboard, the installed release and system type are read from /etc.
Use --offboard to validate anywhere else.

  bootcfg validate [--type system|region|subcloud] <file>`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Set log level: quiet by default, verbose on -v
		if verbose {
			util.SetLogLevel("debug")
		} else {
			util.SetLogLevel("warn")
		}
		if logJSON {
			util.SetJSONFormat()
		}
		if noColor {
			cli.SetColor(false)
		}

		var err error
		userSettings, err = settings.LoadFrom(settingsPath)
		if err != nil {
			util.Warnf("Could not load settings: %v", err)
			userSettings = &settings.Settings{}
		}

		if isSettingsOrHelp(cmd) {
			return nil
		}

		auditLogger, err := audit.NewFileLogger(userSettings.GetAuditLog(), audit.RotationConfig{
			MaxSize:    10 * 1024 * 1024, // 10MB
			MaxBackups: 10,
		})
		if err != nil {
			util.Warnf("Could not initialize audit logging: %v", err)
		} else {
			audit.SetDefaultLogger(auditLogger)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "Log in JSON")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().StringVar(&settingsPath, "settings", settings.DefaultSettingsPath(), "Settings file")
	rootCmd.PersistentFlags().StringVar(&platformRoot, "root", "/", "Root of the controller filesystem holding the platform facts")
	rootCmd.PersistentFlags().MarkHidden("root")

	rootCmd.AddGroup(
		&cobra.Group{ID: "validate", Title: "Validation:"},
		&cobra.Group{ID: "configdb", Title: "Config Database:"},
		&cobra.Group{ID: "meta", Title: "Configuration & Meta:"},
	)

	for _, cmd := range []*cobra.Command{validateCmd, checkCmd} {
		cmd.GroupID = "validate"
		rootCmd.AddCommand(cmd)
	}
	for _, cmd := range []*cobra.Command{publishCmd, publishedCmd} {
		cmd.GroupID = "configdb"
		rootCmd.AddCommand(cmd)
	}
	for _, cmd := range []*cobra.Command{settingsCmd, auditCmd, versionCmd} {
		cmd.GroupID = "meta"
		rootCmd.AddCommand(cmd)
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version.Info())
	},
}

// isSettingsOrHelp reports whether cmd runs without an audit logger
func isSettingsOrHelp(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		switch c.Name() {
		case "settings", "help", "version":
			return true
		}
	}
	return false
}

// currentSettings returns the loaded settings, or empty ones before the
// root command has run
func currentSettings() *settings.Settings {
	if userSettings == nil {
		return &settings.Settings{}
	}
	return userSettings
}
