package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hashicorp/go-multierror"

	"github.com/newtron-network/bootcfg/internal/testutil"
	"github.com/newtron-network/bootcfg/pkg/audit"
	"github.com/newtron-network/bootcfg/pkg/cli"
	"github.com/newtron-network/bootcfg/pkg/metrics"
	"github.com/newtron-network/bootcfg/pkg/model"
	"github.com/newtron-network/bootcfg/pkg/settings"
	"github.com/newtron-network/bootcfg/pkg/sysconfig"
	"github.com/newtron-network/bootcfg/pkg/util"
	"github.com/newtron-network/bootcfg/pkg/validator"
)

func init() {
	cli.SetColor(false)
}

// writeFixtures writes each named config into one temp directory
func writeFixtures(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestValidateFile(t *testing.T) {
	env := validator.OffboardEnvironment()

	t.Run("valid", func(t *testing.T) {
		path := testutil.WriteFile(t, "system.ini", testutil.StandardSystemINI)
		r := validateFile(path, model.ConfigSystem, env)
		if !r.OK() {
			t.Fatalf("validateFile() error = %v", r.Err)
		}
		if r.Output == nil || !r.Output.HasSection(validator.OutSystem) {
			t.Errorf("output missing %s", validator.OutSystem)
		}
		if r.Mode == "" {
			t.Error("Mode not set")
		}
		if r.Section() != "" {
			t.Errorf("Section() = %q, want empty", r.Section())
		}
	})

	t.Run("config failure", func(t *testing.T) {
		path := testutil.WriteFile(t, "broken.ini", testutil.BrokenINI)
		r := validateFile(path, model.ConfigSystem, env)
		if r.OK() {
			t.Fatal("validateFile() should fail")
		}
		if !errors.Is(r.Err, util.ErrConfigFail) {
			t.Errorf("error = %v, want ErrConfigFail", r.Err)
		}
		if !r.Loaded() {
			t.Error("Loaded() = false for a parsed file")
		}
		if r.Section() != "OAM_NETWORK" {
			t.Errorf("Section() = %q, want OAM_NETWORK", r.Section())
		}
		if r.Output != nil {
			t.Error("failed validation produced output")
		}
	})

	t.Run("missing file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nope.ini")
		r := validateFile(path, model.ConfigSystem, env)
		if r.OK() || r.Loaded() {
			t.Errorf("OK() = %v, Loaded() = %v, want false, false", r.OK(), r.Loaded())
		}
		if !strings.Contains(r.Err.Error(), path) {
			t.Errorf("error %q does not name the file", r.Err)
		}
	})
}

func TestCheckFiles(t *testing.T) {
	dir := writeFixtures(t, map[string]string{
		"a.ini": testutil.StandardSystemINI,
		"b.ini": testutil.AIOSimplexINI,
		"c.ini": testutil.BrokenINI,
	})
	paths := []string{
		filepath.Join(dir, "a.ini"),
		filepath.Join(dir, "b.ini"),
		filepath.Join(dir, "c.ini"),
		filepath.Join(dir, "missing.ini"),
	}

	results, err := checkFiles(context.Background(), paths, model.ConfigSystem, validator.OffboardEnvironment(), 2)
	if err != nil {
		t.Fatalf("checkFiles() error = %v", err)
	}
	if len(results) != len(paths) {
		t.Fatalf("checkFiles() returned %d results, want %d", len(results), len(paths))
	}

	want := []string{metrics.ResultSuccess, metrics.ResultSuccess, metrics.ResultFailure, metrics.ResultError}
	for i, r := range results {
		if r.Path != paths[i] {
			t.Errorf("results[%d].Path = %s, want %s", i, r.Path, paths[i])
		}
		if got := metricResult(r); got != want[i] {
			t.Errorf("metricResult(%s) = %s, want %s", filepath.Base(r.Path), got, want[i])
		}
	}

	err = checkErrors(results)
	var merr *multierror.Error
	if !errors.As(err, &merr) {
		t.Fatalf("checkErrors() = %v, want *multierror.Error", err)
	}
	if len(merr.Errors) != 2 {
		t.Errorf("checkErrors() has %d errors, want 2", len(merr.Errors))
	}
	if !strings.HasPrefix(merr.Errors[0].Error(), paths[2]+": ") {
		t.Errorf("first error = %q, want it prefixed with the file", merr.Errors[0])
	}
}

func TestCheckFilesCancelled(t *testing.T) {
	path := testutil.WriteFile(t, "a.ini", testutil.AIOSimplexINI)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := checkFiles(ctx, []string{path}, model.ConfigSystem, validator.OffboardEnvironment(), 1); err == nil {
		t.Error("checkFiles() should fail on a cancelled context")
	}
}

func TestCheckErrorsAllPass(t *testing.T) {
	results := []*fileResult{{Path: "a.ini"}, {Path: "b.ini"}}
	if err := checkErrors(results); err != nil {
		t.Errorf("checkErrors() = %v, want nil", err)
	}
}

func TestPrintCheckTable(t *testing.T) {
	results := []*fileResult{
		{Path: "good.ini", Mode: "All-in-one/simplex/none/system"},
		{Path: "bad.ini", Err: util.ConfigFailf("first line\nReason: detail")},
	}
	var buf bytes.Buffer
	printCheckTable(&buf, results)
	out := buf.String()

	for _, want := range []string{"PASS", "FAIL", "first line ...", "1 of 2 files valid"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Reason: detail") {
		t.Errorf("table shows more than the first line of an error:\n%s", out)
	}
}

func TestRecordEvent(t *testing.T) {
	logger, err := audit.NewFileLogger(filepath.Join(t.TempDir(), "audit.log"), audit.RotationConfig{})
	if err != nil {
		t.Fatal(err)
	}
	audit.SetDefaultLogger(logger)
	t.Cleanup(func() {
		audit.SetDefaultLogger(nil)
		logger.Close()
	})

	out := sysconfig.New()
	out.AddSection(validator.OutSystem).Set("TIMEZONE", "UTC")
	recordEvent(audit.OpValidate, &fileResult{Path: "ok.ini", Output: out, Mode: "m"}, "")
	recordEvent(audit.OpCheck, &fileResult{
		Path: "bad.ini",
		Err:  util.ConfigFailf("bad gateway").WithSection("OAM_NETWORK").WithKey("GATEWAY", "1.1.1.1"),
	}, "")

	events, err := logger.Query(audit.Filter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 {
		t.Fatalf("logged %d events, want 2", len(events))
	}
	byOp := map[audit.Operation]*audit.Event{}
	for _, ev := range events {
		byOp[ev.Operation] = ev
	}

	ok := byOp[audit.OpValidate]
	if ok == nil || !ok.Success || ok.Sections != 1 || ok.SystemMode != "m" {
		t.Errorf("validate event = %+v", ok)
	}
	if ok != nil && !filepath.IsAbs(ok.Source) {
		t.Errorf("Source = %q, want an absolute path", ok.Source)
	}
	bad := byOp[audit.OpCheck]
	if bad == nil || bad.Success || bad.Section != "OAM_NETWORK" || bad.Key != "GATEWAY" {
		t.Errorf("check event = %+v", bad)
	}
}

func TestOutputFormat(t *testing.T) {
	userSettings = &settings.Settings{OutputFormat: "yaml"}
	t.Cleanup(func() { userSettings = nil })

	tests := []struct {
		name    string
		want    sysconfig.Format
		wantErr bool
	}{
		{"", sysconfig.FormatYAML, false},
		{"json", sysconfig.FormatJSON, false},
		{"INI", sysconfig.FormatINI, false},
		{"toml", "", true},
	}
	for _, tt := range tests {
		got, err := outputFormat(tt.name)
		if (err != nil) != tt.wantErr {
			t.Errorf("outputFormat(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("outputFormat(%q) = %s, want %s", tt.name, got, tt.want)
		}
	}
}

func TestEnvFlagsResolve(t *testing.T) {
	userSettings = &settings.Settings{ConfigType: "subcloud", SystemType: "All-in-one"}
	t.Cleanup(func() { userSettings = nil })

	f := &envFlags{offboard: true}
	ct, env, err := f.resolve()
	if err != nil {
		t.Fatalf("resolve() error = %v", err)
	}
	if ct != model.ConfigSubcloud {
		t.Errorf("config type = %v, want subcloud", ct)
	}
	if env.Release != validator.OffboardRelease {
		t.Errorf("Release = %q, want %q", env.Release, validator.OffboardRelease)
	}
	if env.SystemType != model.SystemTypeAIO {
		t.Errorf("SystemType = %q, want %q", env.SystemType, model.SystemTypeAIO)
	}

	f = &envFlags{configType: "cluster", offboard: true}
	if _, _, err := f.resolve(); err == nil {
		t.Error("resolve() should reject an unknown config type")
	}
}

func TestCheckSetting(t *testing.T) {
	tests := []struct {
		setting, value string
		wantErr        bool
	}{
		{"config_type", "region", false},
		{"config_type", "cluster", true},
		{"output_format", "yaml", false},
		{"output_format", "xml", true},
		{"system_type", "Standard", false},
		{"system_type", "standard", true},
		{"system_type", "", false},
		{"redis_addr", "anything", false},
	}
	for _, tt := range tests {
		err := checkSetting(tt.setting, tt.value)
		if (err != nil) != tt.wantErr {
			t.Errorf("checkSetting(%s, %q) error = %v, wantErr %v", tt.setting, tt.value, err, tt.wantErr)
		}
	}
}

func TestWriteOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.ini")
	out := testutil.AIOSimplex()
	if err := writeOutput(path, func(w io.Writer) error { return out.WriteINI(w) }); err != nil {
		t.Fatalf("writeOutput() error = %v", err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file left behind")
	}
	got, err := sysconfig.LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equal(out) {
		t.Error("written document differs from the input")
	}

	failing := filepath.Join(t.TempDir(), "fail.ini")
	err = writeOutput(failing, func(io.Writer) error { return errors.New("boom") })
	if err == nil {
		t.Fatal("writeOutput() should fail when encoding fails")
	}
	if _, err := os.Stat(failing); !os.IsNotExist(err) {
		t.Error("failed write left the output file")
	}
}

func TestDBFlagsTarget(t *testing.T) {
	userSettings = &settings.Settings{RedisAddr: "10.0.0.5:6379"}
	t.Cleanup(func() { userSettings = nil })

	tests := []struct {
		flags dbFlags
		want  string
	}{
		{dbFlags{db: 4}, "redis://10.0.0.5:6379/4"},
		{dbFlags{redisAddr: "127.0.0.1:7000", db: 0}, "redis://127.0.0.1:7000/0"},
		{dbFlags{sshHost: "ctl-0", sshUser: "sysadmin", db: 4}, "ssh://sysadmin@ctl-0/10.0.0.5:6379/4"},
	}
	for _, tt := range tests {
		if got := tt.flags.target(); got != tt.want {
			t.Errorf("target() = %s, want %s", got, tt.want)
		}
	}
}

// execute runs the root command with a private settings file whose audit
// log lives in the test temp dir
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	dir := t.TempDir()
	settingsFile := filepath.Join(dir, "settings.json")
	s := &settings.Settings{AuditLog: filepath.Join(dir, "audit.log")}
	if err := s.SaveTo(settingsFile); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		audit.SetDefaultLogger(nil)
		userSettings = nil
	})

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(append([]string{"--settings", settingsFile}, args...))
	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestValidateCommand(t *testing.T) {
	path := testutil.WriteFile(t, "system.ini", testutil.AIOSimplexINI)

	stdout, _, err := execute(t, "validate", "--offboard", "-o", "json", path)
	if err != nil {
		t.Fatalf("validate error = %v", err)
	}
	if !strings.Contains(stdout, `"`+validator.OutSystem+`"`) {
		t.Errorf("output missing %s:\n%s", validator.OutSystem, stdout)
	}

	events, err := audit.Query(audit.Filter{Operation: audit.OpValidate})
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 || !events[0].Success {
		t.Errorf("audit events = %+v, want one successful validate", events)
	}
}

func TestValidateCommandFailure(t *testing.T) {
	path := testutil.WriteFile(t, "broken.ini", testutil.BrokenINI)

	stdout, _, err := execute(t, "validate", "--offboard", "-o", "ini", path)
	if !errors.Is(err, util.ErrConfigFail) {
		t.Fatalf("validate error = %v, want ErrConfigFail", err)
	}
	if stdout != "" {
		t.Errorf("failed validation printed output:\n%s", stdout)
	}
}

func TestSettingsCommands(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "settings.json")
	run := func(args ...string) (string, error) {
		var out bytes.Buffer
		rootCmd.SetOut(&out)
		rootCmd.SetErr(&out)
		rootCmd.SetArgs(append([]string{"--settings", file}, args...))
		err := rootCmd.Execute()
		return out.String(), err
	}
	t.Cleanup(func() { userSettings = nil })

	if _, err := run("settings", "set", "config_type", "region"); err != nil {
		t.Fatalf("settings set error = %v", err)
	}
	out, err := run("settings", "get", "config_type")
	if err != nil || strings.TrimSpace(out) != "region" {
		t.Errorf("settings get = %q, %v, want region", out, err)
	}
	if _, err := run("settings", "set", "output_format", "xml"); err == nil {
		t.Error("settings set should reject an unknown output format")
	}
	if _, err := run("settings", "get", "nonsense"); err == nil {
		t.Error("settings get should reject an unknown setting")
	}
	if _, err := run("settings", "clear"); err != nil {
		t.Fatalf("settings clear error = %v", err)
	}
	s, err := settings.LoadFrom(file)
	if err != nil {
		t.Fatal(err)
	}
	if s.ConfigType != "" {
		t.Errorf("ConfigType = %q after clear, want empty", s.ConfigType)
	}
}

func TestVersionCommand(t *testing.T) {
	stdout, _, err := execute(t, "version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(stdout, "bootcfg ") {
		t.Errorf("version output = %q", stdout)
	}
}
