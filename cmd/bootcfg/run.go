package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"runtime"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/newtron-network/bootcfg/pkg/audit"
	"github.com/newtron-network/bootcfg/pkg/model"
	"github.com/newtron-network/bootcfg/pkg/platform"
	"github.com/newtron-network/bootcfg/pkg/sysconfig"
	"github.com/newtron-network/bootcfg/pkg/util"
	"github.com/newtron-network/bootcfg/pkg/validator"
)

// envFlags select the config type and the target controller facts
type envFlags struct {
	configType string
	release    string
	systemType string
	offboard   bool
}

// addEnvFlags registers the config type and environment flags on cmd
func addEnvFlags(cmd *cobra.Command, f *envFlags) {
	cmd.Flags().StringVarP(&f.configType, "type", "t", "", "Config type: system, region or subcloud (default system)")
	cmd.Flags().StringVar(&f.release, "release", "", "Installed release (overrides /etc/build.info)")
	cmd.Flags().StringVar(&f.systemType, "system-type", "", "System type when the config sets none")
	cmd.Flags().BoolVar(&f.offboard, "offboard", false, "Validate away from an installed controller")
}

// resolve applies settings defaults and reads the platform facts
func (f *envFlags) resolve() (model.ConfigType, validator.Environment, error) {
	s := currentSettings()

	typeName := f.configType
	if typeName == "" {
		typeName = s.ConfigType
	}
	ct, err := model.ParseConfigType(typeName)
	if err != nil {
		return ct, validator.Environment{}, err
	}

	o := platform.Overrides{
		Release:    f.release,
		SystemType: f.systemType,
		Offboard:   f.offboard,
	}
	if o.Release == "" {
		o.Release = s.Release
	}
	if o.SystemType == "" {
		o.SystemType = s.SystemType
	}
	env, err := platform.Environment(platformRoot, o)
	if err != nil {
		return ct, env, err
	}
	return ct, env, nil
}

// fileResult is the outcome of validating one input file
type fileResult struct {
	Path       string
	ConfigType model.ConfigType
	Mode       string
	Output     *sysconfig.Config
	Err        error
	Duration   time.Duration
}

// OK reports whether the file validated
func (r *fileResult) OK() bool {
	return r.Err == nil
}

// configError returns the validation failure, or nil when the file passed
// or could not be read
func (r *fileResult) configError() *util.ConfigError {
	var ce *util.ConfigError
	if errors.As(r.Err, &ce) {
		return ce
	}
	return nil
}

// Loaded reports whether the file could be read and parsed
func (r *fileResult) Loaded() bool {
	return r.Err == nil || r.configError() != nil
}

// Section returns the section a validation failure names
func (r *fileResult) Section() string {
	if ce := r.configError(); ce != nil {
		return ce.Section
	}
	return ""
}

// validateFile reads path and runs it through the engine
func validateFile(path string, ct model.ConfigType, env validator.Environment) *fileResult {
	start := time.Now()
	r := &fileResult{Path: path, ConfigType: ct}
	defer func() { r.Duration = time.Since(start) }()

	log := util.WithFields(map[string]interface{}{
		"file": path,
		"type": ct.String(),
	})

	raw, err := sysconfig.LoadFile(path)
	if err != nil {
		r.Err = fmt.Errorf("%s: %w", path, err)
		return r
	}

	res, err := validator.Check(raw, ct, env)
	if err != nil {
		log.Debugf("validation failed: %v", err)
		r.Err = err
		return r
	}
	r.Mode = res.Mode.String()

	out, err := validator.Emit(res)
	if err != nil {
		r.Err = util.AsConfigError(err)
		return r
	}
	r.Output = out
	log.WithField("mode", r.Mode).Debug("validation passed")
	return r
}

// checkFiles validates paths with at most jobs files in flight. Results
// are returned in input order.
func checkFiles(ctx context.Context, paths []string, ct model.ConfigType, env validator.Environment, jobs int) ([]*fileResult, error) {
	if jobs < 1 {
		jobs = runtime.NumCPU()
	}
	results := make([]*fileResult, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = validateFile(path, ct, env)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// recordEvent writes one audit event for r. Audit failures are logged and
// never fail the command.
func recordEvent(op audit.Operation, r *fileResult, target string) *audit.Event {
	source := r.Path
	if abs, err := filepath.Abs(r.Path); err == nil {
		source = abs
	}
	ev := audit.NewEvent(currentUser(), op, source).
		WithConfigType(r.ConfigType.String()).
		WithSystemMode(r.Mode).
		WithTarget(target).
		WithDuration(r.Duration)
	if r.Err != nil {
		ev.WithError(r.Err)
	} else {
		ev.WithSuccess()
		if r.Output != nil {
			ev.WithSections(r.Output.Len())
		}
	}
	if err := audit.Log(ev); err != nil {
		util.Warnf("Could not write audit event: %v", err)
	}
	return ev
}

func currentUser() string {
	if u, err := user.Current(); err == nil {
		return u.Username
	}
	if name := os.Getenv("USER"); name != "" {
		return name
	}
	return "unknown"
}
