package validator

import (
	"math/big"
	"net/netip"
	"strings"

	"github.com/newtron-network/bootcfg/pkg/model"
	"github.com/newtron-network/bootcfg/pkg/sysconfig"
	"github.com/newtron-network/bootcfg/pkg/util"
)

// Network section attribute names, before naming scheme prefixing
const (
	attrVLAN             = "VLAN"
	attrCIDR             = "CIDR"
	attrMulticastCIDR    = "MULTICAST_CIDR"
	attrStartAddress     = "IP_START_ADDRESS"
	attrEndAddress       = "IP_END_ADDRESS"
	attrFloatingAddress  = "IP_FLOATING_ADDRESS"
	attrUnit0Address     = "IP_UNIT_0_ADDRESS"
	attrUnit1Address     = "IP_UNIT_1_ADDRESS"
	attrSingleAddress    = "IP_ADDRESS"
	attrGateway          = "GATEWAY"
	attrLogicalInterface = "LOGICAL_INTERFACE"
	attrDynamicAlloc     = "DYNAMIC_ALLOCATION"
	attrPXEBootCIDR      = "PXEBOOT_CIDR"

	attrLAGInterface   = "LAG_INTERFACE"
	attrLAGMode        = "LAG_MODE"
	attrInterfaceMTU   = "INTERFACE_MTU"
	attrInterfacePorts = "INTERFACE_PORTS"
)

// ParseOptions controls how a network section is parsed
type ParseOptions struct {
	// MinAddresses is the smallest subnet accepted. A value of 1 selects the
	// single-address form where only IP_ADDRESS is read.
	MinAddresses int
	// MinRangeAddresses bounds an explicit start/end range; 0 means MinAddresses
	MinRangeAddresses int
	// MulticastAddresses enables MULTICAST_CIDR with this minimum size
	MulticastAddresses int
	Naming             model.NamingScheme
	// LogicalInterfaceRequired fails when LOGICAL_INTERFACE is absent
	LogicalInterfaceRequired bool
}

func (o ParseOptions) minRange() int {
	if o.MinRangeAddresses > 0 {
		return o.MinRangeAddresses
	}
	return o.MinAddresses
}

// sectionReader reads one network section, resolving attribute names
// through the naming scheme
type sectionReader struct {
	raw     *sysconfig.Config
	section string
	network model.NetworkType
	naming  model.NamingScheme
}

func (r *sectionReader) key(attr string) string {
	return r.naming.AttrKey(r.network, attr)
}

func (r *sectionReader) has(attr string) bool {
	return r.raw.HasOption(r.section, r.key(attr))
}

func (r *sectionReader) get(attr string) (string, bool) {
	return r.raw.Get(r.section, r.key(attr))
}

func (r *sectionReader) require(attr string) (string, error) {
	v, ok := r.get(attr)
	if !ok {
		return "", missingAttribute(r.key(attr), r.section)
	}
	return v, nil
}

func (r *sectionReader) wrap(attr, value string, err error) error {
	return util.WrapValidate(r.section, r.key(attr), value, err)
}

// address parses an optional address attribute that must lie inside network
func (r *sectionReader) address(attr string, network netip.Prefix) (netip.Addr, error) {
	v, ok := r.get(attr)
	if !ok {
		return netip.Addr{}, nil
	}
	a, err := util.ParseAddressInNetwork(v, network)
	if err != nil {
		return netip.Addr{}, r.wrap(attr, v, err)
	}
	return a, nil
}

func missingAttribute(key, section string) *util.ConfigError {
	return util.ConfigFailf("Missing attribute %s for %s", key, section).
		WithSection(section).
		WithKey(key, "")
}

// ParseNetwork reads one network section into a NetworkSpec. It only looks
// at the given section and its logical interface section.
func ParseNetwork(raw *sysconfig.Config, configType model.ConfigType, network model.NetworkType, opts ParseOptions) (*model.NetworkSpec, error) {
	section := opts.Naming.SectionName(network, configType)
	if !raw.HasSection(section) {
		return nil, util.ConfigFailf("Missing config for network %s.", section).WithSection(section)
	}
	r := &sectionReader{raw: raw, section: section, network: network, naming: opts.Naming}
	spec := &model.NetworkSpec{Type: network, Section: section}

	if network == model.NetworkPXEBoot {
		return parsePXEBoot(r, spec, opts)
	}

	if v, ok := r.get(attrVLAN); ok {
		vlan, err := util.ParseInt(v)
		if err == nil && !util.IsValidVLAN(vlan) {
			err = util.ValidateFailf("VLAN id must be between %d and %d", util.MinVLAN, util.MaxVLAN)
		}
		if err != nil {
			return nil, r.wrap(attrVLAN, v, err)
		}
		spec.VLAN = vlan
	}

	cidrStr, err := r.require(attrCIDR)
	if err != nil {
		return nil, err
	}
	spec.CIDR, err = util.ParseNetwork(cidrStr, opts.MinAddresses, false)
	if err != nil {
		return nil, r.wrap(attrCIDR, cidrStr, err)
	}

	if opts.MulticastAddresses > 0 {
		if v, ok := r.get(attrMulticastCIDR); ok {
			mc, err := util.ParseNetwork(v, opts.MulticastAddresses, true)
			if err == nil && mc.Addr().Is4() != spec.CIDR.Addr().Is4() {
				err = util.ValidateFailf("Invalid IP version - must match network version IPv%d", util.IPVersion(spec.CIDR))
			}
			if err != nil {
				return nil, r.wrap(attrMulticastCIDR, v, err)
			}
			spec.MulticastCIDR = mc
		}
	}

	if opts.MinAddresses == 1 {
		if err := parseSingleAddress(r, spec); err != nil {
			return nil, err
		}
	} else {
		anyUnit, err := parseUnitAddresses(r, spec)
		if err != nil {
			return nil, err
		}
		if err := parseRange(r, spec, opts.minRange(), anyUnit); err != nil {
			return nil, err
		}
	}

	if v, ok := r.raw.Get(section, attrDynamicAlloc); ok {
		dyn, ok := util.ParseYesNo(v)
		if !ok {
			return nil, util.ConfigFailf("Invalid %s value of %s for %s. Valid values: Y or N", attrDynamicAlloc, v, section).
				WithSection(section).
				WithKey(attrDynamicAlloc, v)
		}
		spec.DynamicAllocation = dyn
	}

	if spec.GatewayAddress, err = r.address(attrGateway, spec.CIDR); err != nil {
		return nil, err
	}

	if opts.LogicalInterfaceRequired || r.has(attrLogicalInterface) {
		name, err := r.require(attrLogicalInterface)
		if err != nil {
			return nil, err
		}
		spec.LogicalInterface, err = ParseLogicalInterface(raw, name)
		if err != nil {
			return nil, err
		}
	}

	return spec, nil
}

// parseSingleAddress handles networks with a single configured address:
// IP_ADDRESS stands for the floating and both unit addresses.
func parseSingleAddress(r *sectionReader, spec *model.NetworkSpec) error {
	for _, attr := range []string{attrFloatingAddress, attrUnit0Address, attrUnit1Address, attrStartAddress, attrEndAddress} {
		if r.has(attr) {
			return util.ConfigFailf("%s cannot be specified for %s in this configuration - use %s",
				r.key(attr), r.section, r.key(attrSingleAddress)).
				WithSection(r.section).
				WithKey(r.key(attr), "")
		}
	}
	if _, err := r.require(attrSingleAddress); err != nil {
		return err
	}
	addr, err := r.address(attrSingleAddress, spec.CIDR)
	if err != nil {
		return err
	}
	spec.FloatingAddress = addr
	spec.Address0 = addr
	spec.Address1 = addr
	spec.StartAddress = addr
	spec.EndAddress = addr
	return nil
}

// parsePXEBoot reads the PXEBoot section, which carries only an IPv4
// subnet and an optional address range
func parsePXEBoot(r *sectionReader, spec *model.NetworkSpec, opts ParseOptions) (*model.NetworkSpec, error) {
	cidrStr, err := r.require(attrPXEBootCIDR)
	if err != nil {
		return nil, err
	}
	spec.CIDR, err = util.ParseNetwork(cidrStr, opts.MinAddresses, false)
	if err == nil && !spec.CIDR.Addr().Is4() {
		err = util.ValidateFailf("Invalid PXEBOOT_NETWORK IP version - only IPv4 supported")
	}
	if err != nil {
		return nil, r.wrap(attrPXEBootCIDR, cidrStr, err)
	}
	if err := parseRange(r, spec, opts.minRange(), false); err != nil {
		return nil, err
	}
	return spec, nil
}

// parseUnitAddresses reads the floating and unit addresses, which must be
// configured together
func parseUnitAddresses(r *sectionReader, spec *model.NetworkSpec) (bool, error) {
	var err error
	units := []struct {
		attr string
		dst  *netip.Addr
	}{
		{attrFloatingAddress, &spec.FloatingAddress},
		{attrUnit0Address, &spec.Address0},
		{attrUnit1Address, &spec.Address1},
	}
	anyUnit := false
	for _, u := range units {
		if *u.dst, err = r.address(u.attr, spec.CIDR); err != nil {
			return false, err
		}
		anyUnit = anyUnit || u.dst.IsValid()
	}
	if anyUnit {
		for _, u := range units {
			if !u.dst.IsValid() {
				return false, missingAttribute(r.key(u.attr), r.section)
			}
		}
	}
	return anyUnit, nil
}

// parseRange reads IP_START_ADDRESS and IP_END_ADDRESS, filling in
// base+2 .. last-1 when neither is configured
func parseRange(r *sectionReader, spec *model.NetworkSpec, minRange int, anyUnit bool) error {
	var err error
	if spec.StartAddress, err = r.address(attrStartAddress, spec.CIDR); err != nil {
		return err
	}
	if spec.EndAddress, err = r.address(attrEndAddress, spec.CIDR); err != nil {
		return err
	}

	if !spec.StartAddress.IsValid() && !spec.EndAddress.IsValid() {
		if start, ok := util.NthAddress(spec.CIDR, 2); ok {
			spec.StartAddress = start
		}
		spec.EndAddress = util.LastUsableAddress(spec.CIDR)
		return nil
	}

	if !spec.EndAddress.IsValid() {
		return missingAttribute(r.key(attrEndAddress), r.section)
	}
	if !spec.StartAddress.IsValid() {
		return missingAttribute(r.key(attrStartAddress), r.section)
	}
	if anyUnit {
		return util.ConfigFailf("%s and %s cannot both be specified for %s",
			r.key(attrFloatingAddress), r.key(attrStartAddress), r.section).
			WithSection(r.section)
	}
	if !spec.StartAddress.Less(spec.EndAddress) {
		return util.ConfigFailf("Start address %s not less than end address %s for %s.",
			spec.StartAddress, spec.EndAddress, r.section).
			WithSection(r.section).
			WithKey(r.key(attrStartAddress), spec.StartAddress.String())
	}
	if util.RangeSize(spec.StartAddress, spec.EndAddress).Cmp(big.NewInt(int64(minRange))) < 0 {
		return util.ConfigFailf("Address range for %s must contain at least %d addresses.",
			r.section, minRange).
			WithSection(r.section)
	}
	spec.StartEndInConfig = true
	return nil
}

// ParseLogicalInterface reads a logical interface section
func ParseLogicalInterface(raw *sysconfig.Config, name string) (*model.LogicalInterface, error) {
	if !raw.HasSection(name) {
		return nil, util.ConfigFailf("Missing config for logical interface %s.", name).WithSection(name)
	}
	get := func(key string) (string, error) {
		v, ok := raw.Get(name, key)
		if !ok {
			return "", missingAttribute(key, name)
		}
		return v, nil
	}
	invalid := func(key, value, valid string) error {
		return util.ConfigFailf("Invalid %s value of %s for %s. Valid values: %s", key, value, name, valid).
			WithSection(name).
			WithKey(key, value)
	}

	li := &model.LogicalInterface{Name: name}

	lag, err := get(attrLAGInterface)
	if err != nil {
		return nil, err
	}
	isLAG, ok := util.ParseYesNo(lag)
	if !ok {
		return nil, invalid(attrLAGInterface, lag, "Y or N")
	}
	li.IsLAG = isLAG

	if li.IsLAG {
		v, err := get(attrLAGMode)
		if err != nil {
			return nil, err
		}
		mode, err := util.ParseInt(v)
		if err != nil || !model.LAGMode(mode).IsConfigurable() {
			return nil, invalid(attrLAGMode, v, "1-6")
		}
		li.LAGMode = model.LAGMode(mode)
	}

	v, err := get(attrInterfaceMTU)
	if err != nil {
		return nil, err
	}
	mtu, err := util.ParseInt(v)
	if err != nil || !util.IsMTUValid(mtu) {
		return nil, util.ConfigFailf("Invalid MTU value of %s for %s. Valid values: %d - %d", v, name, util.MinMTU, util.MaxMTU).
			WithSection(name).
			WithKey(attrInterfaceMTU, v)
	}
	li.MTU = mtu

	v, err = get(attrInterfacePorts)
	if err != nil {
		return nil, err
	}
	li.Ports = util.SplitCommaSeparated(v)
	if !li.PortsValid() {
		return nil, util.ConfigFailf("Invalid %s value of %s for %s. Expected %d %s",
			attrInterfacePorts, v, name, li.ExpectedPorts(), plural(li.ExpectedPorts(), "port")).
			WithSection(name).
			WithKey(attrInterfacePorts, v)
	}

	return li, nil
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}

// extraKeys returns the keys of section other than the allowed ones
func extraKeys(raw *sysconfig.Config, section string, allowed ...string) []string {
	s, ok := raw.Section(section)
	if !ok {
		return nil
	}
	var extra []string
	for _, k := range s.Keys() {
		found := false
		for _, a := range allowed {
			if strings.EqualFold(k, a) {
				found = true
				break
			}
		}
		if !found {
			extra = append(extra, k)
		}
	}
	return extra
}
