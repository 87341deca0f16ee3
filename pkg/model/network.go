package model

import (
	"net/netip"
)

// NetworkType identifies one of the logical controller networks
type NetworkType int

const (
	NetworkPXEBoot NetworkType = iota
	NetworkManagement
	NetworkCluster
	NetworkOAM
)

func (t NetworkType) String() string {
	switch t {
	case NetworkPXEBoot:
		return "PXEBOOT"
	case NetworkManagement:
		return "MANAGEMENT"
	case NetworkCluster:
		return "CLUSTER"
	case NetworkOAM:
		return "OAM"
	}
	return "UNKNOWN"
}

// NamingScheme selects the section and attribute names used for networks.
// It is chosen once per run and threaded through every section parser.
type NamingScheme int

const (
	// NamingDefault uses MGMT_NETWORK / OAM_NETWORK with unprefixed keys
	NamingDefault NamingScheme = iota
	// NamingLegacy uses CLM_NETWORK / CAN_NETWORK with prefixed keys
	NamingLegacy
)

func (n NamingScheme) String() string {
	if n == NamingLegacy {
		return "legacy"
	}
	return "default"
}

// LegacyManagementSection marks a region config written with legacy names
const LegacyManagementSection = "CLM_NETWORK"

// SelectNamingScheme picks the legacy scheme for region configs that carry a
// CLM_NETWORK section, and the default scheme otherwise.
func SelectNamingScheme(ct ConfigType, hasSection func(string) bool) NamingScheme {
	if ct == ConfigRegion && hasSection(LegacyManagementSection) {
		return NamingLegacy
	}
	return NamingDefault
}

var networkPrefixes = map[NamingScheme]map[NetworkType]string{
	NamingDefault: {
		NetworkPXEBoot:    "PXEBOOT",
		NetworkManagement: "MGMT",
		NetworkCluster:    "CLUSTER",
		NetworkOAM:        "OAM",
	},
	NamingLegacy: {
		NetworkPXEBoot:    "PXEBOOT",
		NetworkManagement: "CLM",
		NetworkCluster:    "CLUSTER",
		NetworkOAM:        "CAN",
	},
}

// Prefix returns the short network name used in section names and messages
func (n NamingScheme) Prefix(t NetworkType) string {
	return networkPrefixes[n][t]
}

// SectionName returns the input section holding the network. The PXEBoot
// section is named after the config type rather than the naming scheme.
func (n NamingScheme) SectionName(t NetworkType, ct ConfigType) string {
	if t == NetworkPXEBoot {
		if ct == ConfigRegion || ct == ConfigSubcloud {
			return "REGION2_PXEBOOT_NETWORK"
		}
		return "PXEBOOT_NETWORK"
	}
	return n.Prefix(t) + "_NETWORK"
}

// AttrKey returns the input key for attr. Legacy names prefix attributes with
// the network name, except for PXEBoot which is never prefixed.
func (n NamingScheme) AttrKey(t NetworkType, attr string) string {
	if n == NamingLegacy && t != NetworkPXEBoot {
		return n.Prefix(t) + "_" + attr
	}
	return attr
}

// NetworkSpec holds the parsed attributes of one network section. Unset
// addresses are the zero netip.Addr.
type NetworkSpec struct {
	Type    NetworkType
	Section string

	CIDR          netip.Prefix
	MulticastCIDR netip.Prefix

	StartAddress     netip.Addr
	EndAddress       netip.Addr
	StartEndInConfig bool

	FloatingAddress netip.Addr
	Address0        netip.Addr
	Address1        netip.Addr

	GatewayAddress    netip.Addr
	VLAN              int
	DynamicAllocation bool

	LogicalInterface *LogicalInterface
}

// HasMulticast reports whether a multicast subnet was configured
func (n *NetworkSpec) HasMulticast() bool {
	return n.MulticastCIDR.IsValid()
}

// HasGateway reports whether a gateway address was configured
func (n *NetworkSpec) HasGateway() bool {
	return n.GatewayAddress.IsValid()
}

// HasUnitAddresses reports whether floating and unit addresses were configured
func (n *NetworkSpec) HasUnitAddresses() bool {
	return n.FloatingAddress.IsValid()
}

// IsIPv6 reports whether the network is an IPv6 subnet
func (n *NetworkSpec) IsIPv6() bool {
	return n.CIDR.Addr().Is6()
}
