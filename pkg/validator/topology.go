package validator

import (
	"net/netip"

	"github.com/newtron-network/bootcfg/pkg/model"
)

// ClaimedNetwork is a subnet accepted earlier in the run
type ClaimedNetwork struct {
	Name   string
	Prefix netip.Prefix
}

// TopologyState is the cross-network state threaded through one validation
// run. It is created fresh for every run and never shared.
type TopologyState struct {
	networks []ClaimedNetwork
	vlans    map[int]string

	// NextLAGIndex names the next bonded interface (bond0, bond1, ...)
	NextLAGIndex int

	// resolved maps a logical interface section name to the physical or
	// bond interface chosen for it
	resolved map[string]string

	// names maps a composed interface name (eth0, bond0.100) to the network
	// carrying it
	names map[string]string

	PXEBootConfigured bool
}

// NewTopologyState creates an empty state for one run
func NewTopologyState() *TopologyState {
	return &TopologyState{
		vlans:    make(map[int]string),
		resolved: make(map[string]string),
		names:    make(map[string]string),
	}
}

// Overlapping returns the first claimed network that p overlaps. Containment
// in either direction counts as overlap.
func (s *TopologyState) Overlapping(p netip.Prefix) (ClaimedNetwork, bool) {
	for _, n := range s.networks {
		if n.Prefix.Overlaps(p) {
			return n, true
		}
	}
	return ClaimedNetwork{}, false
}

// ClaimNetwork records p for name. It fails when p overlaps a subnet that
// is already claimed.
func (s *TopologyState) ClaimNetwork(name string, p netip.Prefix) (ClaimedNetwork, bool) {
	if other, overlaps := s.Overlapping(p); overlaps {
		return other, false
	}
	s.networks = append(s.networks, ClaimedNetwork{Name: name, Prefix: p})
	return ClaimedNetwork{}, true
}

// ClaimVLAN records vlan for owner. It returns the previous owner and false
// when the id is already in use.
func (s *TopologyState) ClaimVLAN(vlan int, owner string) (string, bool) {
	if prev, ok := s.vlans[vlan]; ok {
		return prev, false
	}
	s.vlans[vlan] = owner
	return "", true
}

// AllocateBond returns the next bond interface name and advances the counter
func (s *TopologyState) AllocateBond() string {
	name := model.BondName(s.NextLAGIndex)
	s.NextLAGIndex++
	return name
}

// ResolvedInterface returns the interface chosen for a logical interface
func (s *TopologyState) ResolvedInterface(logical string) (string, bool) {
	iface, ok := s.resolved[logical]
	return iface, ok
}

// InUse reports whether iface was already resolved for some network
func (s *TopologyState) InUse(iface string) bool {
	for _, r := range s.resolved {
		if r == iface {
			return true
		}
	}
	return false
}

// Resolve records the interface chosen for a logical interface
func (s *TopologyState) Resolve(logical, iface string) {
	s.resolved[logical] = iface
}

// ClaimInterfaceName records the composed interface name a network is
// configured on. Two networks cannot share one untagged interface or one
// VLAN interface. It returns the previous owner and false on a clash.
func (s *TopologyState) ClaimInterfaceName(name, owner string) (string, bool) {
	if prev, ok := s.names[name]; ok {
		return prev, false
	}
	s.names[name] = owner
	return "", true
}
