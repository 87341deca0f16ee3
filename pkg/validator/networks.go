package validator

import (
	"math/big"
	"strconv"

	"github.com/newtron-network/bootcfg/pkg/model"
	"github.com/newtron-network/bootcfg/pkg/util"
)

// networkValidators is the per-type handler for networks named by a path
var networkValidators = map[model.NetworkType]func(*run, model.NetworkRule) error{
	model.NetworkPXEBoot:    (*run).validatePXEBoot,
	model.NetworkManagement: (*run).validateManagement,
	model.NetworkOAM:        (*run).validateOAM,
}

func (r *run) validateNetworks() error {
	mode := r.result.Mode
	path := mode.PathRule()

	for _, section := range path.ForbiddenSections {
		if err := r.forbidSection(section); err != nil {
			return err
		}
	}

	for _, t := range path.Networks {
		log := util.WithStage("networks").WithField("network", r.prefix(t))
		log.Debug("validating network")
		if err := networkValidators[t](r, mode.NetworkRule(t)); err != nil {
			return err
		}
	}

	return r.checkGateways(path.Gateway)
}

func (r *run) forbidSection(section string) error {
	if !r.raw.HasSection(section) {
		return nil
	}
	label, ok := model.SectionLabels[section]
	if !ok {
		label = section
	}
	return util.ConfigFailf("%s configuration is not supported.", label).WithSection(section)
}

func (r *run) validatePXEBoot(rule model.NetworkRule) error {
	r.result.PXEBootStage = true
	section := r.section(model.NetworkPXEBoot)
	if !r.raw.HasSection(section) {
		util.WithSection(section).Debug("pxeboot network not configured")
		return nil
	}

	spec, err := ParseNetwork(r.raw, r.configType, model.NetworkPXEBoot, r.parseOptions(rule))
	if err != nil {
		return err
	}
	if err := r.claimNetwork(model.NetworkPXEBoot, spec.CIDR); err != nil {
		return err
	}
	r.state.PXEBootConfigured = true
	r.result.PXEBoot = spec
	return nil
}

func (r *run) validateManagement(rule model.NetworkRule) error {
	t := model.NetworkManagement
	section := r.section(t)
	if !r.raw.HasSection(section) {
		if rule.Presence == model.Required {
			return util.ConfigFailf("Missing config for network %s.", section).WithSection(section)
		}
		return nil
	}
	if rule.CIDROnly {
		return r.validateManagementSubnet(rule)
	}

	spec, err := ParseNetwork(r.raw, r.configType, t, r.parseOptions(rule))
	if err != nil {
		return err
	}
	if spec.HasUnitAddresses() {
		return util.ConfigFailf("%s network cannot specify individual unit addresses", r.prefix(t)).
			WithSection(section)
	}
	if rule.Restricted {
		if err := r.checkRestricted(spec); err != nil {
			return err
		}
	}
	if rule.MulticastRequired(r.configType) && !spec.HasMulticast() {
		return util.ConfigFailf("%s MULTICAST_CIDR attribute is missing.", r.prefix(t)).
			WithSection(section).
			WithKey(r.naming.AttrKey(t, attrMulticastCIDR), "")
	}
	if err := r.claimNetwork(t, spec.CIDR); err != nil {
		return err
	}

	if r.result.Mode.DCRole == model.DCRoleSystemController {
		if err := r.checkGatewaySpace(spec); err != nil {
			return err
		}
	}

	resolved, shared, err := r.resolveInterface(spec, rule)
	if err != nil {
		return err
	}

	pxeSection := r.section(model.NetworkPXEBoot)
	switch {
	case spec.VLAN != 0 && !r.state.PXEBootConfigured:
		return util.ConfigFailf("Management VLAN cannot be configured because PXEBOOT_NETWORK is not configured.").
			WithSection(section).
			WithKey(r.naming.AttrKey(t, attrVLAN), strconv.Itoa(spec.VLAN))
	case spec.VLAN == 0 && r.state.PXEBootConfigured:
		return util.ConfigFailf("Management VLAN must be configured because %s configured.", pxeSection).
			WithSection(section).
			WithConflict(pxeSection)
	}
	if err := r.applyVLAN(spec, rule, shared); err != nil {
		return err
	}

	if spec.IsIPv6() && !r.result.Mode.IsSimplex() && !r.state.PXEBootConfigured {
		return util.ConfigFailf("IPv6 management network cannot be configured because PXEBOOT_NETWORK is not configured.").
			WithSection(section).
			WithKey(r.naming.AttrKey(t, attrCIDR), spec.CIDR.String())
	}

	if err := r.claimInterface(resolved); err != nil {
		return err
	}
	r.store(resolved)
	return nil
}

// validateManagementSubnet handles a management network that only carries
// a subnet, with addressing derived later by the controller
func (r *run) validateManagementSubnet(rule model.NetworkRule) error {
	t := model.NetworkManagement
	section := r.section(t)
	if extra := extraKeys(r.raw, section, r.naming.AttrKey(t, attrCIDR)); len(extra) > 0 {
		return util.ConfigFailf("For AIO simplex, only the %s network CIDR can be specified", r.prefix(t)).
			WithSection(section).
			WithKey(extra[0], "")
	}

	spec, err := ParseNetwork(r.raw, r.configType, t, ParseOptions{MinAddresses: rule.MinAddresses, Naming: r.naming})
	if err != nil {
		return err
	}
	if spec.IsIPv6() {
		return util.ConfigFailf("IPv6 management network not supported on simplex configuration.").
			WithSection(section).
			WithKey(r.naming.AttrKey(t, attrCIDR), spec.CIDR.String())
	}
	if err := r.claimNetwork(t, spec.CIDR); err != nil {
		return err
	}
	r.store(&ResolvedNetwork{Spec: spec, CIDROnly: true})
	return nil
}

// checkRestricted applies the single-interface limits of a simplex subcloud
// management network
func (r *run) checkRestricted(spec *model.NetworkSpec) error {
	t := spec.Type
	section := spec.Section
	unsupported := func(what string) error {
		return util.ConfigFailf("%s is not supported for the %s network of a simplex subcloud", what, r.prefix(t)).
			WithSection(section)
	}

	if key := r.naming.AttrKey(t, attrMulticastCIDR); r.raw.HasOption(section, key) {
		return unsupported(key)
	}
	if spec.DynamicAllocation {
		return unsupported(attrDynamicAlloc)
	}
	if spec.LogicalInterface != nil && spec.LogicalInterface.IsLAG {
		return unsupported("LAG interface " + spec.LogicalInterface.Name)
	}
	if spec.IsIPv6() {
		return util.ConfigFailf("IPv6 management network not supported on simplex configuration.").
			WithSection(section).
			WithKey(r.naming.AttrKey(t, attrCIDR), spec.CIDR.String())
	}
	return nil
}

// checkGatewaySpace leaves room outside the management range for the
// gateways a system controller routes subclouds through
func (r *run) checkGatewaySpace(spec *model.NetworkSpec) error {
	prefix := r.prefix(spec.Type)
	if !spec.StartEndInConfig {
		return util.ConfigFailf("IP_START_ADDRESS and IP_END_ADDRESS required for %s network as this "+
			"configuration requires address space left for gateway address(es)", prefix).
			WithSection(spec.Section)
	}
	limit := new(big.Int).Sub(util.PrefixSize(spec.CIDR), big.NewInt(2))
	if util.RangeSize(spec.StartAddress, spec.EndAddress).Cmp(limit) >= 0 {
		return util.ConfigFailf("Address range for %s network too large, no addresses left for gateway(s), "+
			"required in this configuration.", prefix).
			WithSection(spec.Section)
	}
	return nil
}

func (r *run) validateOAM(rule model.NetworkRule) error {
	spec, err := ParseNetwork(r.raw, r.configType, model.NetworkOAM, r.parseOptions(rule))
	if err != nil {
		return err
	}
	if err := r.claimNetwork(model.NetworkOAM, spec.CIDR); err != nil {
		return err
	}
	resolved, shared, err := r.resolveInterface(spec, rule)
	if err != nil {
		return err
	}
	if err := r.applyVLAN(spec, rule, shared); err != nil {
		return err
	}
	if err := r.claimInterface(resolved); err != nil {
		return err
	}
	r.store(resolved)
	return nil
}

// validateCluster runs after the path networks on every path
func (r *run) validateCluster() error {
	t := model.NetworkCluster
	section := r.section(t)
	if !r.raw.HasSection(section) {
		util.WithSection(section).Debug("cluster network not configured")
		return nil
	}
	rule := r.result.Mode.NetworkRule(t)

	spec, err := ParseNetwork(r.raw, r.configType, t, r.parseOptions(rule))
	if err != nil {
		return err
	}
	if spec.HasUnitAddresses() {
		return util.ConfigFailf("%s network cannot specify individual unit addresses", r.prefix(t)).
			WithSection(section)
	}
	if err := r.claimNetwork(t, spec.CIDR); err != nil {
		return err
	}
	resolved, shared, err := r.resolveInterface(spec, rule)
	if err != nil {
		return err
	}
	if err := r.applyVLAN(spec, rule, shared); err != nil {
		return err
	}
	if err := r.claimInterface(resolved); err != nil {
		return err
	}
	r.store(resolved)
	return nil
}

// resolveInterface picks the port or bond carrying spec. A logical interface
// already resolved by an earlier network is reused as is. Otherwise a LAG
// takes the next bond name and a plain interface uses its single port.
// shared reports whether the chosen interface already carries a network.
func (r *run) resolveInterface(spec *model.NetworkSpec, rule model.NetworkRule) (*ResolvedNetwork, bool, error) {
	li := spec.LogicalInterface
	out := &ResolvedNetwork{Spec: spec}

	if iface, ok := r.state.ResolvedInterface(li.Name); ok {
		out.Interface = iface
		out.InterfaceName = model.VLANInterfaceName(iface, spec.VLAN)
		r.state.Resolve(li.Name, iface)
		return out, true, nil
	}

	var iface string
	if li.IsLAG {
		if !rule.LAGModes.Contains(li.LAGMode) {
			return nil, false, util.ConfigFailf("Unsupported LAG mode (%d) for %s interface - use LAG mode %s instead",
				li.LAGMode, r.prefix(spec.Type), rule.LAGModes).
				WithSection(li.Name).
				WithKey(attrLAGMode, strconv.Itoa(int(li.LAGMode)))
		}
		iface = r.state.AllocateBond()
		out.UseLAG = true
	} else {
		iface = li.Ports[0]
	}

	shared := r.state.InUse(iface)
	r.state.Resolve(li.Name, iface)
	out.Interface = iface
	out.InterfaceName = model.VLANInterfaceName(iface, spec.VLAN)

	util.WithStage("networks").WithFields(map[string]interface{}{
		"network":   r.prefix(spec.Type),
		"interface": out.InterfaceName,
	}).Debug("interface resolved")
	return out, shared, nil
}

// applyVLAN claims the network's VLAN id. Without one, a network on a
// shared interface is rejected when its rule asks for separation.
func (r *run) applyVLAN(spec *model.NetworkSpec, rule model.NetworkRule, shared bool) error {
	key := r.naming.AttrKey(spec.Type, attrVLAN)
	if spec.VLAN != 0 {
		if owner, ok := r.state.ClaimVLAN(spec.VLAN, r.prefix(spec.Type)); !ok {
			return util.ConfigFailf("%s VLAN conflicts with another configured VLAN", spec.Section).
				WithSection(spec.Section).
				WithKey(key, strconv.Itoa(spec.VLAN)).
				WithConflict(owner)
		}
		return nil
	}
	if shared && rule.SharedInterfaceNeedsVLAN {
		return util.ConfigFailf("VLAN required for %s since it uses the same interface as another network", spec.Section).
			WithSection(spec.Section).
			WithKey(key, "")
	}
	return nil
}

// claimInterface rejects a network whose interface, VLAN tag included, is
// already carrying another network
func (r *run) claimInterface(n *ResolvedNetwork) error {
	spec := n.Spec
	owner, ok := r.state.ClaimInterfaceName(n.InterfaceName, r.prefix(spec.Type))
	if ok {
		return nil
	}
	return util.ConfigFailf("%s interface %s is already used by %s - configure a VLAN to share it",
		spec.Section, n.InterfaceName, owner).
		WithSection(spec.Section).
		WithKey(r.naming.AttrKey(spec.Type, attrLogicalInterface), spec.LogicalInterface.Name).
		WithConflict(owner)
}

func (r *run) store(n *ResolvedNetwork) {
	r.result.Networks[n.Spec.Type] = n
}

// checkGateways arbitrates the management and OAM default gateways
func (r *run) checkGateways(rule model.GatewayRule) error {
	oam := r.result.Network(model.NetworkOAM)
	oamPrefix := r.prefix(model.NetworkOAM)
	oamGW := oam != nil && oam.Spec.HasGateway()

	switch rule {
	case model.GatewayOAMRequired:
		if !oamGW {
			return util.ConfigFailf("No gateway specified - %s_GATEWAY must be specified", oamPrefix).
				WithSection(r.section(model.NetworkOAM))
		}
	case model.GatewayExactlyOne:
		mgmt := r.result.Network(model.NetworkManagement)
		mgmtPrefix := r.prefix(model.NetworkManagement)
		mgmtGW := mgmt != nil && mgmt.Spec.HasGateway()
		switch {
		case !mgmtGW && !oamGW:
			return util.ConfigFailf("No gateway specified - either the %s_GATEWAY or %s_GATEWAY must be specified",
				mgmtPrefix, oamPrefix).
				WithSection(r.section(model.NetworkOAM))
		case mgmtGW && oamGW && r.configType != model.ConfigSubcloud:
			return util.ConfigFailf("Two gateways specified - only one of the %s_GATEWAY or %s_GATEWAY can be specified",
				mgmtPrefix, oamPrefix).
				WithSection(r.section(model.NetworkOAM)).
				WithConflict(r.section(model.NetworkManagement))
		}
	}
	return nil
}
