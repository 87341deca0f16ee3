package validator

import (
	"strings"

	"github.com/newtron-network/bootcfg/pkg/model"
	"github.com/newtron-network/bootcfg/pkg/util"
)

const defaultTimezone = "UTC"

// legacyStorageKeys are STORAGE options from releases that sized partitions
// in the bootstrap config
var legacyStorageKeys = []string{
	"DATABASE_STORAGE",
	"IMAGE_STORAGE",
	"BACKUP_STORAGE",
	"IMAGE_CONVERSIONS_VOLUME",
	"SHARED_INSTANCE_STORAGE",
	"CINDER_BACKEND",
	"CINDER_DEVICE",
	"CINDER_LVM_TYPE",
	"CINDER_STORAGE",
}

func (r *run) validateVersion() error {
	release, ok := r.raw.Get("VERSION", "RELEASE")
	if !ok {
		return util.ConfigFailf("Version information is missing from this config file. Please" +
			" refer to the installation documentation for details on " +
			"the correct contents of the configuration file.").
			WithSection("VERSION").
			WithKey("RELEASE", "")
	}
	if release != r.env.Release {
		return util.ConfigFailf("The configuration file given is of a different version (%s) "+
			"than the installed software (%s). Please refer to the "+
			"installation documentation for details on the correct "+
			"contents of the configuration file and update it with "+
			"any changes required for this release.", release, r.env.Release).
			WithSection("VERSION").
			WithKey("RELEASE", release).
			WithConflict(r.env.Release)
	}
	return nil
}

func (r *run) validateSystem() error {
	mode := &r.result.Mode
	mode.ConfigType = r.configType

	r.result.Timezone = defaultTimezone
	if tz, ok := r.raw.Get("SYSTEM", "TIMEZONE"); ok {
		r.result.Timezone = tz
	}

	mode.SystemType = r.env.SystemType
	if v, ok := r.raw.Get("SYSTEM", "SYSTEM_TYPE"); ok {
		t, valid := model.ParseSystemType(v)
		if !valid {
			return util.ConfigFailf("Available options for SYSTEM_TYPE are: %s", joinValues(model.SystemTypes)).
				WithSection("SYSTEM").
				WithKey("SYSTEM_TYPE", v)
		}
		mode.SystemType = t
	}

	mode.SystemMode = model.DefaultSystemMode(mode.SystemType)
	if v, ok := r.raw.Get("SYSTEM", "SYSTEM_MODE"); ok {
		m, valid := model.ResolveSystemMode(mode.SystemType, v)
		if !valid {
			return util.ConfigFailf("Available options for SYSTEM_MODE are: %s",
				joinValues(model.AllowedSystemModes(mode.SystemType))).
				WithSection("SYSTEM").
				WithKey("SYSTEM_MODE", v)
		}
		mode.SystemMode = m
	}

	mode.DCRole = model.DefaultDCRole(r.configType)
	if v, ok := r.raw.Get("SYSTEM", "DISTRIBUTED_CLOUD_ROLE"); ok {
		if !model.DCRoleAvailable(r.configType) {
			return util.ConfigFailf("DISTRIBUTED_CLOUD_ROLE option is not available for this configuration").
				WithSection("SYSTEM").
				WithKey("DISTRIBUTED_CLOUD_ROLE", v)
		}
		role, valid := model.ResolveDCRole(r.configType, v)
		if !valid {
			return util.ConfigFailf("Available options for DISTRIBUTED_CLOUD_ROLE are: %s",
				joinValues(model.AllowedDCRoles(r.configType))).
				WithSection("SYSTEM").
				WithKey("DISTRIBUTED_CLOUD_ROLE", v)
		}
		if role == model.DCRoleSystemController && mode.SystemType == model.SystemTypeAIO {
			return util.ConfigFailf("An All-in-one controller cannot be configured as Distributed Cloud System Controller").
				WithSection("SYSTEM").
				WithKey("DISTRIBUTED_CLOUD_ROLE", v).
				WithConflict("SYSTEM_TYPE")
		}
		mode.DCRole = role
	}

	util.WithStage("system").WithField("mode", mode.String()).Debugf("deployment resolved to %s path", mode.Path())
	return nil
}

func joinValues[T ~string](values []T) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = string(v)
	}
	return strings.Join(parts, ", ")
}

func (r *run) validateStorage() error {
	for _, key := range legacyStorageKeys {
		if r.raw.HasOption("STORAGE", key) {
			return util.ConfigFailf("%s are not valid entries in config file.", strings.Join(legacyStorageKeys, ", ")).
				WithSection("STORAGE").
				WithKey(key, "")
		}
	}
	return nil
}

func (r *run) rejectSection(section, msg string) error {
	if r.raw.HasSection(section) {
		return util.ConfigFailf("%s", msg).WithSection(section)
	}
	return nil
}

func (r *run) validateSDN() error {
	return r.rejectSection("SDN", "SDN Configuration is no longer supported")
}

func (r *run) validateNTP() error {
	return r.rejectSection("NTP", "NTP Configuration is no longer supported")
}

func (r *run) validateSecurity() error {
	return r.rejectSection("SECURITY", "The section SECURITY is no longer supported.")
}

func (r *run) validateLicensing() error {
	return r.rejectSection("LICENSING", "The section LICENSING is no longer supported.")
}
