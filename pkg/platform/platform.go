// Package platform reads the facts an installed controller exposes about
// itself: the software release and the configured system type.
package platform

import (
	"errors"
	"fmt"
	"path/filepath"

	"gopkg.in/ini.v1"

	"github.com/newtron-network/bootcfg/pkg/model"
	"github.com/newtron-network/bootcfg/pkg/util"
	"github.com/newtron-network/bootcfg/pkg/validator"
)

// Default locations, relative to the filesystem root
const (
	BuildInfoFile    = "etc/build.info"
	PlatformConfFile = "etc/platform/platform.conf"

	releaseKey    = "SW_VERSION"
	systemTypeKey = "system_type"
)

// Facts are read from the host once and injected into the engine
type Facts struct {
	Release    string
	SystemType model.SystemType
}

// Overrides replace individual facts, typically from CLI flags or settings
type Overrides struct {
	Release    string
	SystemType string
	// Offboard ignores the host and validates against the placeholder release
	Offboard bool
}

var loadOptions = ini.LoadOptions{
	Loose:               true,
	IgnoreInlineComment: true,
}

// readKey returns key from a key=value file, or "" when the file or key is
// absent
func readKey(path, key string) (string, error) {
	f, err := ini.LoadSources(loadOptions, path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	if !f.Section("").HasKey(key) {
		return "", nil
	}
	return f.Section("").Key(key).String(), nil
}

// Load reads the facts of the host rooted at root ("/" for the running
// host). Missing files leave the corresponding fact empty.
func Load(root string) (Facts, error) {
	var facts Facts

	release, err := readKey(filepath.Join(root, BuildInfoFile), releaseKey)
	if err != nil {
		return Facts{}, err
	}
	facts.Release = release

	raw, err := readKey(filepath.Join(root, PlatformConfFile), systemTypeKey)
	if err != nil {
		return Facts{}, err
	}
	if raw != "" {
		st, ok := model.ParseSystemType(raw)
		if !ok {
			return Facts{}, fmt.Errorf("%s: unknown %s %q", PlatformConfFile, systemTypeKey, raw)
		}
		facts.SystemType = st
	}

	util.WithFields(map[string]interface{}{
		"root":        root,
		"release":     facts.Release,
		"system_type": facts.SystemType,
	}).Debug("platform facts loaded")
	return facts, nil
}

// ErrNoRelease is returned when no release is known for onboard validation
var ErrNoRelease = errors.New("installed release unknown; use --release or --offboard")

// Environment builds the engine environment from the host facts and the
// overrides
func Environment(root string, o Overrides) (validator.Environment, error) {
	if o.Offboard {
		env := validator.OffboardEnvironment()
		if o.SystemType != "" {
			st, ok := model.ParseSystemType(o.SystemType)
			if !ok {
				return validator.Environment{}, fmt.Errorf("unknown system type %q", o.SystemType)
			}
			env.SystemType = st
		}
		return env, nil
	}

	facts, err := Load(root)
	if err != nil {
		return validator.Environment{}, err
	}
	if o.Release != "" {
		facts.Release = o.Release
	}
	if o.SystemType != "" {
		st, ok := model.ParseSystemType(o.SystemType)
		if !ok {
			return validator.Environment{}, fmt.Errorf("unknown system type %q", o.SystemType)
		}
		facts.SystemType = st
	}
	if facts.Release == "" {
		return validator.Environment{}, ErrNoRelease
	}
	return validator.Environment{Release: facts.Release, SystemType: facts.SystemType}, nil
}
