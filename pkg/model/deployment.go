package model

import (
	"fmt"
	"strings"
)

// ConfigType is the kind of bootstrap configuration being validated
type ConfigType int

const (
	ConfigSystem ConfigType = iota
	ConfigRegion
	ConfigSubcloud
)

func (c ConfigType) String() string {
	switch c {
	case ConfigRegion:
		return "region"
	case ConfigSubcloud:
		return "subcloud"
	}
	return "system"
}

// ParseConfigType parses "system", "region" or "subcloud"
func ParseConfigType(s string) (ConfigType, error) {
	switch strings.ToLower(s) {
	case "system", "":
		return ConfigSystem, nil
	case "region":
		return ConfigRegion, nil
	case "subcloud":
		return ConfigSubcloud, nil
	}
	return ConfigSystem, fmt.Errorf("unknown config type %q (use system, region or subcloud)", s)
}

// IsFederated reports whether the config carries region identity sections
func (c ConfigType) IsFederated() bool {
	return c == ConfigRegion || c == ConfigSubcloud
}

// SystemType is the controller hardware layout
type SystemType string

const (
	SystemTypeUnknown  SystemType = ""
	SystemTypeStandard SystemType = "Standard"
	SystemTypeAIO      SystemType = "All-in-one"
)

// SystemTypes lists the values accepted for SYSTEM_TYPE
var SystemTypes = []SystemType{SystemTypeStandard, SystemTypeAIO}

// ParseSystemType validates a SYSTEM_TYPE value
func ParseSystemType(s string) (SystemType, bool) {
	for _, t := range SystemTypes {
		if string(t) == s {
			return t, true
		}
	}
	return SystemTypeUnknown, false
}

// SystemMode is the controller redundancy mode
type SystemMode string

const (
	SystemModeDuplex       SystemMode = "duplex"
	SystemModeSimplex      SystemMode = "simplex"
	SystemModeDuplexDirect SystemMode = "duplex-direct"
)

// DCRole is the distributed cloud role of the system
type DCRole string

const (
	DCRoleNone             DCRole = ""
	DCRoleSystemController DCRole = "systemcontroller"
	DCRoleSubcloud         DCRole = "subcloud"
)

type systemModeRule struct {
	allowed []SystemMode
	def     SystemMode
}

// Only Standard restricts the mode; an All-in-one or unknown system type
// accepts every mode.
var systemModeTable = map[SystemType]systemModeRule{
	SystemTypeStandard: {
		allowed: []SystemMode{SystemModeDuplex},
		def:     SystemModeDuplex,
	},
	SystemTypeAIO: {
		allowed: []SystemMode{SystemModeDuplex, SystemModeSimplex, SystemModeDuplexDirect},
		def:     SystemModeDuplexDirect,
	},
	SystemTypeUnknown: {
		allowed: []SystemMode{SystemModeDuplex, SystemModeSimplex, SystemModeDuplexDirect},
		def:     SystemModeDuplexDirect,
	},
}

// AllowedSystemModes returns the modes accepted for a system type
func AllowedSystemModes(t SystemType) []SystemMode {
	return systemModeTable[t].allowed
}

// DefaultSystemMode returns the mode used when SYSTEM_MODE is not given
func DefaultSystemMode(t SystemType) SystemMode {
	return systemModeTable[t].def
}

// ResolveSystemMode validates a configured SYSTEM_MODE against the system type
func ResolveSystemMode(t SystemType, configured string) (SystemMode, bool) {
	for _, m := range systemModeTable[t].allowed {
		if string(m) == configured {
			return m, true
		}
	}
	return "", false
}

type dcRoleRule struct {
	available bool
	allowed   []DCRole
	def       DCRole
}

var dcRoleTable = map[ConfigType]dcRoleRule{
	ConfigSystem: {
		available: true,
		allowed:   []DCRole{DCRoleSystemController},
		def:       DCRoleNone,
	},
	ConfigRegion: {
		available: false,
	},
	ConfigSubcloud: {
		available: true,
		allowed:   []DCRole{DCRoleSubcloud},
		def:       DCRoleSubcloud,
	},
}

// DCRoleAvailable reports whether DISTRIBUTED_CLOUD_ROLE may be set for ct
func DCRoleAvailable(ct ConfigType) bool {
	return dcRoleTable[ct].available
}

// AllowedDCRoles returns the roles accepted for ct
func AllowedDCRoles(ct ConfigType) []DCRole {
	return dcRoleTable[ct].allowed
}

// DefaultDCRole returns the role used when DISTRIBUTED_CLOUD_ROLE is not given
func DefaultDCRole(ct ConfigType) DCRole {
	return dcRoleTable[ct].def
}

// ResolveDCRole validates a configured role against the config type
func ResolveDCRole(ct ConfigType, configured string) (DCRole, bool) {
	for _, r := range dcRoleTable[ct].allowed {
		if string(r) == configured {
			return r, true
		}
	}
	return DCRoleNone, false
}

// DeploymentMode is the resolved combination of system type, mode, role and
// config type that gates which networks are validated and how
type DeploymentMode struct {
	SystemType SystemType
	SystemMode SystemMode
	DCRole     DCRole
	ConfigType ConfigType
}

// IsSimplex reports whether the system runs a single controller
func (d DeploymentMode) IsSimplex() bool {
	return d.SystemMode == SystemModeSimplex
}

// IsSubcloud reports whether the system is a distributed cloud subcloud
func (d DeploymentMode) IsSubcloud() bool {
	return d.DCRole == DCRoleSubcloud
}

func (d DeploymentMode) String() string {
	role := string(d.DCRole)
	if role == "" {
		role = "none"
	}
	sysType := string(d.SystemType)
	if sysType == "" {
		sysType = "unknown"
	}
	return fmt.Sprintf("%s/%s/%s/%s", sysType, d.SystemMode, role, d.ConfigType)
}

// Path is the network validation path taken for a deployment
type Path int

const (
	PathStandard Path = iota
	PathAIOSimplex
	PathAIOSubcloud
)

func (p Path) String() string {
	switch p {
	case PathAIOSimplex:
		return "aio-simplex"
	case PathAIOSubcloud:
		return "aio-subcloud"
	}
	return "standard"
}

type pathKey struct {
	simplex  bool
	subcloud bool
}

var pathTable = map[pathKey]Path{
	{simplex: false, subcloud: false}: PathStandard,
	{simplex: false, subcloud: true}:  PathStandard,
	{simplex: true, subcloud: false}:  PathAIOSimplex,
	{simplex: true, subcloud: true}:   PathAIOSubcloud,
}

// Path returns the validation path for the deployment
func (d DeploymentMode) Path() Path {
	return pathTable[pathKey{simplex: d.IsSimplex(), subcloud: d.IsSubcloud()}]
}

// Presence says whether a network section must, may or must not appear
type Presence int

const (
	Optional Presence = iota
	Required
	Forbidden
)

// GatewayRule is the gateway arbitration applied after OAM is parsed
type GatewayRule int

const (
	// GatewayExactlyOne requires one of the management or OAM gateways.
	// Subcloud configs may set both.
	GatewayExactlyOne GatewayRule = iota
	// GatewayOAMRequired requires the OAM gateway
	GatewayOAMRequired
)

// NetworkRule is the per-network behaviour for one path
type NetworkRule struct {
	Presence Presence

	MinAddresses         int
	SubcloudMinAddresses int // replaces MinAddresses for subcloud configs when set

	MulticastAddresses int
	// MulticastOptionalForSubcloud lets subcloud configs omit MULTICAST_CIDR
	MulticastOptionalForSubcloud bool

	// MinRangeAddresses bounds an explicit start/end range when it differs
	// from MinAddresses
	MinRangeAddresses int

	LogicalInterfaceRequired bool
	LAGModes                 LAGModes
	// SharedInterfaceNeedsVLAN requires a VLAN when the network lands on an
	// interface already resolved for another network
	SharedInterfaceNeedsVLAN bool

	// CIDROnly rejects every attribute except the CIDR
	CIDROnly bool
	// Restricted rejects multicast, LAG, dynamic allocation and IPv6
	Restricted bool
}

// PathRule holds the network order and rules of one validation path. The
// cluster network is validated after the path networks on every path.
type PathRule struct {
	Networks          []NetworkType
	Rules             map[NetworkType]NetworkRule
	Gateway           GatewayRule
	ForbiddenSections []string
}

var (
	managementLAGModes = LAGModes{LAGModeActiveBackup, LAGMode8023AD}
	sharedLAGModes     = LAGModes{LAGModeActiveBackup, LAGModeBalanceXOR, LAGMode8023AD}
)

var clusterRule = NetworkRule{
	Presence:                 Optional,
	MinAddresses:             8,
	LogicalInterfaceRequired: true,
	LAGModes:                 sharedLAGModes,
}

var pathRules = map[Path]PathRule{
	PathStandard: {
		Networks: []NetworkType{NetworkPXEBoot, NetworkManagement, NetworkOAM},
		Rules: map[NetworkType]NetworkRule{
			NetworkPXEBoot: {Presence: Optional, MinAddresses: 16, MinRangeAddresses: 8},
			NetworkManagement: {
				Presence:                     Required,
				MinAddresses:                 8,
				SubcloudMinAddresses:         5,
				MulticastAddresses:           16,
				MulticastOptionalForSubcloud: true,
				LogicalInterfaceRequired:     true,
				LAGModes:                     managementLAGModes,
				SharedInterfaceNeedsVLAN:     true,
			},
			NetworkOAM: {
				Presence:                 Required,
				MinAddresses:             3,
				LogicalInterfaceRequired: true,
				LAGModes:                 sharedLAGModes,
				SharedInterfaceNeedsVLAN: true,
			},
			NetworkCluster: clusterRule,
		},
		Gateway: GatewayExactlyOne,
	},
	PathAIOSimplex: {
		Networks: []NetworkType{NetworkManagement, NetworkOAM},
		Rules: map[NetworkType]NetworkRule{
			NetworkPXEBoot:    {Presence: Forbidden},
			NetworkManagement: {Presence: Optional, MinAddresses: 16, CIDROnly: true},
			NetworkOAM: {
				Presence:                 Required,
				MinAddresses:             1,
				LogicalInterfaceRequired: true,
				LAGModes:                 sharedLAGModes,
				SharedInterfaceNeedsVLAN: true,
			},
			NetworkCluster: clusterRule,
		},
		Gateway:           GatewayOAMRequired,
		ForbiddenSections: []string{"PXEBOOT_NETWORK", "BOARD_MANAGEMENT_NETWORK"},
	},
	PathAIOSubcloud: {
		Networks: []NetworkType{NetworkOAM, NetworkPXEBoot, NetworkManagement},
		Rules: map[NetworkType]NetworkRule{
			NetworkOAM: {
				Presence:                 Required,
				MinAddresses:             1,
				LogicalInterfaceRequired: true,
				LAGModes:                 sharedLAGModes,
				SharedInterfaceNeedsVLAN: true,
			},
			NetworkPXEBoot: {Presence: Optional, MinAddresses: 16, MinRangeAddresses: 8},
			NetworkManagement: {
				Presence:                 Required,
				MinAddresses:             8,
				SubcloudMinAddresses:     5,
				LogicalInterfaceRequired: true,
				SharedInterfaceNeedsVLAN: true,
				Restricted:               true,
			},
			NetworkCluster: clusterRule,
		},
		Gateway:           GatewayOAMRequired,
		ForbiddenSections: []string{"BOARD_MANAGEMENT_NETWORK"},
	},
}

// SectionLabels names sections rejected by a path in failure messages
var SectionLabels = map[string]string{
	"PXEBOOT_NETWORK":          "PXEBoot Network",
	"BOARD_MANAGEMENT_NETWORK": "Board Management Network",
}

// PathRule returns the rules of the deployment's validation path
func (d DeploymentMode) PathRule() PathRule {
	return pathRules[d.Path()]
}

// NetworkRule returns the rule for one network under this deployment, with
// config type overrides applied
func (d DeploymentMode) NetworkRule(t NetworkType) NetworkRule {
	r, ok := pathRules[d.Path()].Rules[t]
	if !ok {
		return NetworkRule{Presence: Forbidden}
	}
	if d.ConfigType == ConfigSubcloud && r.SubcloudMinAddresses > 0 {
		r.MinAddresses = r.SubcloudMinAddresses
	}
	return r
}

// MulticastRequired reports whether the rule demands MULTICAST_CIDR for ct
func (r NetworkRule) MulticastRequired(ct ConfigType) bool {
	if r.MulticastAddresses == 0 {
		return false
	}
	return !(r.MulticastOptionalForSubcloud && ct == ConfigSubcloud)
}
