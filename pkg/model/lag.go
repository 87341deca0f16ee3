package model

import (
	"fmt"
	"strings"
)

// LAGMode is the Linux bonding mode of a LAG interface
type LAGMode int

// Bonding modes accepted in LAG_MODE
const (
	LAGModeBalanceRR    LAGMode = 0
	LAGModeActiveBackup LAGMode = 1
	LAGModeBalanceXOR   LAGMode = 2
	LAGModeBroadcast    LAGMode = 3
	LAGMode8023AD       LAGMode = 4
	LAGModeBalanceTLB   LAGMode = 5
	LAGModeBalanceALB   LAGMode = 6
)

// MinLAGMode and MaxLAGMode bound LAG_MODE in a logical interface section
const (
	MinLAGMode = 1
	MaxLAGMode = 6
)

var bondPolicies = map[LAGMode]string{
	LAGModeBalanceRR:    "balance-rr",
	LAGModeActiveBackup: "active-backup",
	LAGModeBalanceXOR:   "balance-xor",
	LAGModeBroadcast:    "broadcast",
	LAGMode8023AD:       "802.3ad",
	LAGModeBalanceTLB:   "balance-tlb",
	LAGModeBalanceALB:   "balance-alb",
}

// BondPolicy returns the kernel bonding policy name for the mode
func (m LAGMode) BondPolicy() string {
	if p, ok := bondPolicies[m]; ok {
		return p
	}
	return fmt.Sprintf("mode-%d", int(m))
}

// IsConfigurable reports whether m may be given as LAG_MODE
func (m LAGMode) IsConfigurable() bool {
	return m >= MinLAGMode && m <= MaxLAGMode
}

// LAGModes is a set of supported bonding modes
type LAGModes []LAGMode

// Contains reports whether m is in the set
func (s LAGModes) Contains(m LAGMode) bool {
	for _, x := range s {
		if x == m {
			return true
		}
	}
	return false
}

func (s LAGModes) String() string {
	parts := make([]string, len(s))
	for i, m := range s {
		parts[i] = fmt.Sprint(int(m))
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// LogicalInterface is a named physical or bonded interface referenced by
// LOGICAL_INTERFACE in a network section
type LogicalInterface struct {
	Name    string
	Ports   []string
	IsLAG   bool
	LAGMode LAGMode
	MTU     int
}

// ExpectedPorts returns the number of ports the interface must list
func (li *LogicalInterface) ExpectedPorts() int {
	if li.IsLAG {
		return 2
	}
	return 1
}

// PortsValid reports whether the port count matches the LAG setting
func (li *LogicalInterface) PortsValid() bool {
	return len(li.Ports) == li.ExpectedPorts()
}

// BondName returns the name of the index-th bonded interface
func BondName(index int) string {
	return fmt.Sprintf("bond%d", index)
}

// VLANInterfaceName composes the name of a VLAN sub-interface
func VLANInterfaceName(iface string, vlan int) string {
	if vlan == 0 {
		return iface
	}
	return fmt.Sprintf("%s.%d", iface, vlan)
}
