package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/newtron-network/bootcfg/pkg/audit"
	"github.com/newtron-network/bootcfg/pkg/sysconfig"
)

var (
	validateEnv    envFlags
	validateFormat string
	validateOut    string
)

var validateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Validate a config file and print the normalized output",
	Long: `Validate a bootstrap configuration file.

The file is checked in full before any output is produced. On success the
normalized configuration is printed (or written to --out); on failure the
first problem found is reported and nothing is written.

Files ending in .yaml or .yml are read as YAML, anything else as INI.

Examples:
  bootcfg validate system_config.ini
  bootcfg validate --offboard --system-type All-in-one system_config.ini
  bootcfg validate --type subcloud -o json subcloud.ini
  bootcfg validate --out /tmp/controller.ini system_config.ini`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ct, env, err := validateEnv.resolve()
		if err != nil {
			return err
		}
		format, err := outputFormat(validateFormat)
		if err != nil {
			return err
		}

		r := validateFile(args[0], ct, env)
		recordEvent(audit.OpValidate, r, validateOut)
		if r.Err != nil {
			return r.Err
		}

		if validateOut == "" {
			return r.Output.Encode(cmd.OutOrStdout(), format)
		}
		if err := writeOutput(validateOut, func(w io.Writer) error {
			return r.Output.Encode(w, format)
		}); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d sections to %s\n", r.Output.Len(), validateOut)
		return nil
	},
}

func init() {
	addEnvFlags(validateCmd, &validateEnv)
	validateCmd.Flags().StringVarP(&validateFormat, "output", "o", "", "Output format: ini, yaml or json (default ini)")
	validateCmd.Flags().StringVar(&validateOut, "out", "", "Write the output to a file instead of stdout")
}

// outputFormat resolves -o against the settings default
func outputFormat(name string) (sysconfig.Format, error) {
	if name == "" {
		name = currentSettings().OutputFormat
	}
	if name == "" {
		return sysconfig.FormatINI, nil
	}
	return sysconfig.ParseFormat(name)
}

// writeOutput writes to a temp file next to path and renames it into place
func writeOutput(path string, encode func(io.Writer) error) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("creating %s: %w", tmp, err)
	}
	if err := encode(f); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
