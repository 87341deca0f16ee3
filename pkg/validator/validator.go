// Package validator checks a bootstrap configuration and derives the
// normalized controller configuration from it.
//
// Validation runs a fixed sequence of stages over the raw document. Each
// stage reads the input, updates the run's TopologyState and records what it
// resolved in a Result. The first failing rule aborts the run; output is only
// derived from a Result once every stage has passed.
package validator

import (
	"net/netip"

	"github.com/newtron-network/bootcfg/pkg/model"
	"github.com/newtron-network/bootcfg/pkg/sysconfig"
	"github.com/newtron-network/bootcfg/pkg/util"
)

// OffboardRelease is the release placeholder used when validating away from
// an installed controller
const OffboardRelease = "xxxSW_VERSIONxxx"

// Environment holds facts about the target controller. They are injected by
// the caller so the engine never reads host state.
type Environment struct {
	// Release is the installed software release VERSION/RELEASE must match
	Release string
	// SystemType is used when the config does not set SYSTEM_TYPE
	SystemType model.SystemType
}

// OffboardEnvironment returns the environment for offboard validation
func OffboardEnvironment() Environment {
	return Environment{Release: OffboardRelease}
}

// ResolvedNetwork is a validated network with its interface resolved
type ResolvedNetwork struct {
	Spec *model.NetworkSpec
	// Interface is the physical port or bond carrying the network
	Interface string
	// InterfaceName is Interface plus the VLAN suffix, if any
	InterfaceName string
	// UseLAG is set when the network allocated its own bond
	UseLAG bool
	// CIDROnly marks a management network that only carries a subnet
	CIDROnly bool
}

// Setting is one passthrough key/value pair
type Setting struct {
	Key   string
	Value string
}

// Result is everything a successful run resolved
type Result struct {
	Mode     model.DeploymentMode
	Naming   model.NamingScheme
	Timezone string

	// PXEBootStage is set when the path validated the PXEBoot network,
	// whether or not one was configured
	PXEBootStage bool
	PXEBoot      *model.NetworkSpec

	Networks map[model.NetworkType]*ResolvedNetwork

	DNS                []Setting
	DNSConfigured      bool
	DockerProxy        []Setting
	ProxyConfigured    bool
	DockerRegistry     []Setting
	RegistryConfigured bool

	Region *RegionIdentity

	AdminPassword string
}

// Network returns the resolved network of type t, or nil
func (r *Result) Network(t model.NetworkType) *ResolvedNetwork {
	return r.Networks[t]
}

// run is the state of one validation run
type run struct {
	raw        *sysconfig.Config
	configType model.ConfigType
	env        Environment
	naming     model.NamingScheme
	state      *TopologyState
	result     *Result
}

type stage struct {
	name string
	fn   func(*run) error
}

// stages run in this order; each is either applied or a logged no-op
var stages = []stage{
	{"version", (*run).validateVersion},
	{"system", (*run).validateSystem},
	{"storage", (*run).validateStorage},
	{"sdn", (*run).validateSDN},
	{"networks", (*run).validateNetworks},
	{"cluster", (*run).validateCluster},
	{"dns", (*run).validateDNS},
	{"docker-proxy", (*run).validateDockerProxy},
	{"docker-registry", (*run).validateDockerRegistry},
	{"ntp", (*run).validateNTP},
	{"region", (*run).validateRegion},
	{"security", (*run).validateSecurity},
	{"licensing", (*run).validateLicensing},
	{"authentication", (*run).validateAuthentication},
}

// StageNames lists the validation stages in execution order
func StageNames() []string {
	names := make([]string, len(stages))
	for i, s := range stages {
		names[i] = s.name
	}
	return names
}

// Check runs every validation stage and returns what was resolved. Any
// failure is returned as a *util.ConfigError.
func Check(raw *sysconfig.Config, configType model.ConfigType, env Environment) (*Result, error) {
	r := &run{
		raw:        raw,
		configType: configType,
		env:        env,
		naming:     model.SelectNamingScheme(configType, raw.HasSection),
		state:      NewTopologyState(),
		result: &Result{
			Networks: make(map[model.NetworkType]*ResolvedNetwork),
		},
	}
	r.result.Naming = r.naming

	for _, s := range stages {
		util.WithStage(s.name).Debug("validating")
		if err := s.fn(r); err != nil {
			ce := util.AsConfigError(err)
			util.WithStage(s.name).WithField("section", ce.Section).Debugf("validation failed: %s", ce.Msg)
			return nil, ce
		}
	}
	return r.result, nil
}

// Validate checks raw and returns the normalized output document. No output
// is produced unless every stage passes.
func Validate(raw *sysconfig.Config, configType model.ConfigType, env Environment) (*sysconfig.Config, error) {
	res, err := Check(raw, configType, env)
	if err != nil {
		return nil, err
	}
	out, err := Emit(res)
	if err != nil {
		return nil, util.AsConfigError(err)
	}
	return out, nil
}

func (r *run) prefix(t model.NetworkType) string {
	return r.naming.Prefix(t)
}

func (r *run) section(t model.NetworkType) string {
	return r.naming.SectionName(t, r.configType)
}

func (r *run) parseOptions(rule model.NetworkRule) ParseOptions {
	return ParseOptions{
		MinAddresses:             rule.MinAddresses,
		MinRangeAddresses:        rule.MinRangeAddresses,
		MulticastAddresses:       rule.MulticastAddresses,
		Naming:                   r.naming,
		LogicalInterfaceRequired: rule.LogicalInterfaceRequired,
	}
}

// claimNetwork applies the overlap rule to a newly parsed subnet
func (r *run) claimNetwork(t model.NetworkType, p netip.Prefix) error {
	other, ok := r.state.ClaimNetwork(r.prefix(t), p)
	if !ok {
		return util.ConfigFailf("%s CIDR %s overlaps with another configured network (%s %s)",
			r.prefix(t), p, other.Name, other.Prefix).
			WithSection(r.section(t)).
			WithKey(r.naming.AttrKey(t, attrCIDR), p.String()).
			WithConflict(other.Name)
	}
	return nil
}
