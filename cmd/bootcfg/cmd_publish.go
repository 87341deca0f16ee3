package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/newtron-network/bootcfg/pkg/audit"
	"github.com/newtron-network/bootcfg/pkg/cli"
	"github.com/newtron-network/bootcfg/pkg/configdb"
)

// dbFlags locate the config database, directly or through an SSH tunnel
type dbFlags struct {
	redisAddr  string
	db         int
	sshHost    string
	sshPort    int
	sshUser    string
	sshKey     string
	knownHosts string
	askPass    bool
	timeout    time.Duration
}

func addDBFlags(cmd *cobra.Command, f *dbFlags) {
	cmd.Flags().StringVar(&f.redisAddr, "redis", "", "Redis address (default from settings, else "+configdb.DefaultRemoteRedis+")")
	cmd.Flags().IntVar(&f.db, "db", configdb.DefaultDB, "Redis database index")
	cmd.Flags().StringVar(&f.sshHost, "ssh-host", "", "Reach redis through an SSH tunnel to this host")
	cmd.Flags().IntVar(&f.sshPort, "ssh-port", 22, "SSH port")
	cmd.Flags().StringVar(&f.sshUser, "ssh-user", "sysadmin", "SSH user")
	cmd.Flags().StringVar(&f.sshKey, "ssh-key", "", "SSH private key file")
	cmd.Flags().StringVar(&f.knownHosts, "known-hosts", "", "known_hosts file used to verify the host key")
	cmd.Flags().BoolVar(&f.askPass, "ask-pass", false, "Prompt for the SSH password")
	cmd.Flags().DurationVar(&f.timeout, "timeout", 30*time.Second, "Connection and publish timeout")
}

// target describes where the database is, for output and the audit log
func (f *dbFlags) target() string {
	addr := f.addr()
	if f.sshHost != "" {
		return fmt.Sprintf("ssh://%s@%s/%s/%d", f.sshUser, f.sshHost, addr, f.db)
	}
	return fmt.Sprintf("redis://%s/%d", addr, f.db)
}

func (f *dbFlags) addr() string {
	if f.redisAddr != "" {
		return f.redisAddr
	}
	if s := currentSettings().RedisAddr; s != "" {
		return s
	}
	return configdb.DefaultRemoteRedis
}

// connect opens the database, tunnelling over SSH when --ssh-host is set.
// The returned func releases everything connect opened.
func (f *dbFlags) connect(ctx context.Context) (*configdb.Client, func(), error) {
	addr := f.addr()
	var tunnel *configdb.SSHTunnel

	if f.sshHost != "" {
		cfg := configdb.TunnelConfig{
			Host:       f.sshHost,
			Port:       f.sshPort,
			User:       f.sshUser,
			KeyFile:    f.sshKey,
			KnownHosts: f.knownHosts,
			RemoteAddr: addr,
			Timeout:    f.timeout,
		}
		if f.askPass {
			pw, err := readPassword(fmt.Sprintf("%s@%s's password: ", f.sshUser, f.sshHost))
			if err != nil {
				return nil, nil, err
			}
			cfg.Password = pw
		}
		var err error
		tunnel, err = configdb.NewSSHTunnel(cfg)
		if err != nil {
			return nil, nil, err
		}
		addr = tunnel.LocalAddr()
	}

	client := configdb.NewClient(addr, f.db)
	release := func() {
		client.Close()
		if tunnel != nil {
			tunnel.Close()
		}
	}
	if err := client.Connect(ctx); err != nil {
		release()
		return nil, nil, err
	}
	return client, release, nil
}

func readPassword(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("--ask-pass needs a terminal on stdin")
	}
	fmt.Fprint(os.Stderr, prompt)
	pw, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return string(pw), nil
}

var (
	publishEnv envFlags
	publishDB  dbFlags
)

var publishCmd = &cobra.Command{
	Use:   "publish <file>",
	Short: "Validate a config file and publish the output to the config database",
	Long: `Validate a bootstrap configuration file and write the normalized output
to the controller config database.

Each output section is stored as the hash BOOTSTRAP_CONFIG|<section>.
A publish replaces the previous one in a single transaction, including
sections the new output no longer has. Nothing is written if validation
fails.

Examples:
  bootcfg publish system_config.ini
  bootcfg publish --redis 10.10.10.3:6379 system_config.ini
  bootcfg publish --ssh-host ctl-0 --ssh-key ~/.ssh/id_ed25519 system_config.ini`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ct, env, err := publishEnv.resolve()
		if err != nil {
			return err
		}

		r := validateFile(args[0], ct, env)
		if r.Err != nil {
			recordEvent(audit.OpPublish, r, publishDB.target())
			return r.Err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), publishDB.timeout)
		defer cancel()

		source := r.Path
		if abs, err := filepath.Abs(r.Path); err == nil {
			source = abs
		}
		meta, err := publish(ctx, &publishDB, r, source)
		if err != nil {
			r.Err = err
		}
		recordEvent(audit.OpPublish, r, publishDB.target())
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s published %d sections to %s (id %s)\n",
			cli.Green("OK"), r.Output.Len(), publishDB.target(), meta.ID)
		return nil
	},
}

func publish(ctx context.Context, f *dbFlags, r *fileResult, source string) (configdb.Metadata, error) {
	meta := configdb.Metadata{
		ID:         uuid.NewString(),
		Source:     source,
		ConfigType: r.ConfigType.String(),
		Published:  time.Now(),
	}

	client, release, err := f.connect(ctx)
	if err != nil {
		return meta, err
	}
	defer release()
	return meta, client.Publish(ctx, r.Output, meta)
}

var (
	publishedDB     dbFlags
	publishedFormat string
	publishedClear  bool
)

var publishedCmd = &cobra.Command{
	Use:   "published",
	Short: "Show or clear the published config",
	Long: `Show the bootstrap configuration last published to the config database.

Examples:
  bootcfg published
  bootcfg published -o yaml --ssh-host ctl-0
  bootcfg published --clear`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), publishedDB.timeout)
		defer cancel()

		client, release, err := publishedDB.connect(ctx)
		if err != nil {
			return err
		}
		defer release()

		if publishedClear {
			n, err := client.Clear(ctx)
			if err != nil {
				return fmt.Errorf("clearing %s: %w", publishedDB.target(), err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d keys from %s\n", n, publishedDB.target())
			return nil
		}

		format, err := outputFormat(publishedFormat)
		if err != nil {
			return err
		}
		meta, err := client.Metadata(ctx)
		if errors.Is(err, configdb.ErrNotPublished) {
			fmt.Fprintln(cmd.OutOrStdout(), "Nothing published")
			return nil
		}
		if err != nil {
			return err
		}
		out, err := client.Read(ctx)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.ErrOrStderr(), "%s %s from %s (%s, %s)\n",
			cli.Dim("#"), meta.ID, meta.Source, meta.ConfigType,
			meta.Published.Format("2006-01-02 15:04:05"))
		return out.Encode(cmd.OutOrStdout(), format)
	},
}

func init() {
	addEnvFlags(publishCmd, &publishEnv)
	addDBFlags(publishCmd, &publishDB)

	addDBFlags(publishedCmd, &publishedDB)
	publishedCmd.Flags().StringVarP(&publishedFormat, "output", "o", "", "Output format: ini, yaml or json (default ini)")
	publishedCmd.Flags().BoolVar(&publishedClear, "clear", false, "Remove the published config")
}
