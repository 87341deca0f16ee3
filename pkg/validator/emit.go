package validator

import (
	"fmt"
	"net/netip"
	"strconv"

	"github.com/newtron-network/bootcfg/pkg/model"
	"github.com/newtron-network/bootcfg/pkg/sysconfig"
	"github.com/newtron-network/bootcfg/pkg/util"
)

// Output section names
const (
	OutSystem         = "cSYSTEM"
	OutPXEBoot        = "cPXEBOOT"
	OutManagement     = "cMGMT"
	OutCluster        = "cCLUSTER"
	OutOAM            = "cEXT_OAM"
	OutDNS            = "cDNS"
	OutDockerProxy    = "cDOCKER_PROXY"
	OutDockerRegistry = "cDOCKER_REGISTRY"
	OutRegion         = "cREGION"
	OutAuthentication = "cAUTHENTICATION"
)

// Fixed controller hostnames
const (
	PXEControllerHostname = "pxecontroller"
	ControllerHostname    = "controller"
	ControllerPrefix      = "controller-"
	OAMControllerHostname = "oamcontroller"
)

// emitter builds the output document and keeps the first derivation error
type emitter struct {
	out *sysconfig.Config
	err error
}

func (e *emitter) section(name string) *sysconfig.Section {
	return e.out.AddSection(name)
}

// offset returns a+n, recording an error when the result leaves the family
func (e *emitter) offset(a netip.Addr, n int) string {
	b, ok := util.AddrOffset(a, n)
	if !ok {
		if e.err == nil {
			e.err = fmt.Errorf("address %s + %d is out of range", a, n)
		}
		return ""
	}
	return b.String()
}

// nth returns the n-th address of p
func (e *emitter) nth(p netip.Prefix, n int) string {
	return e.offset(p.Masked().Addr(), n)
}

// Emit derives the normalized output document from a successful run
func Emit(res *Result) (*sysconfig.Config, error) {
	e := &emitter{out: sysconfig.New()}

	e.system(res)
	for _, t := range res.Mode.PathRule().Networks {
		switch t {
		case model.NetworkPXEBoot:
			if res.PXEBootStage {
				e.pxeboot(res.PXEBoot)
			}
		case model.NetworkManagement:
			if n := res.Network(t); n != nil {
				e.management(n)
			}
		case model.NetworkOAM:
			if n := res.Network(t); n != nil {
				e.oam(n)
			}
		}
	}
	if n := res.Network(model.NetworkCluster); n != nil {
		e.cluster(n)
	}
	e.settings(OutDNS, res.DNSConfigured, res.DNS)
	e.settings(OutDockerProxy, res.ProxyConfigured, res.DockerProxy)
	e.settings(OutDockerRegistry, res.RegistryConfigured, res.DockerRegistry)
	if res.Region != nil {
		e.region(res.Region, res.Mode.ConfigType)
	}
	e.section(OutAuthentication).Set("ADMIN_PASSWORD", res.AdminPassword)

	if e.err != nil {
		return nil, e.err
	}
	return e.out, nil
}

func (e *emitter) system(res *Result) {
	s := e.section(OutSystem)
	s.Set("TIMEZONE", res.Timezone)
	s.Set("SYSTEM_MODE", string(res.Mode.SystemMode))
	if res.Mode.DCRole != model.DCRoleNone {
		s.Set("DISTRIBUTED_CLOUD_ROLE", string(res.Mode.DCRole))
	}
}

func (e *emitter) pxeboot(spec *model.NetworkSpec) {
	s := e.section(OutPXEBoot)
	if spec != nil {
		s.Set("PXEBOOT_SUBNET", spec.CIDR.String())
		var floating, c0, c1 string
		if spec.StartEndInConfig {
			s.Set("PXEBOOT_START_ADDRESS", spec.StartAddress.String())
			s.Set("PXEBOOT_END_ADDRESS", spec.EndAddress.String())
			floating = spec.StartAddress.String()
			c0 = e.offset(spec.StartAddress, 1)
			c1 = e.offset(spec.StartAddress, 2)
		} else {
			floating = e.nth(spec.CIDR, 2)
			c0 = e.nth(spec.CIDR, 3)
			c1 = e.nth(spec.CIDR, 4)
		}
		s.Set("CONTROLLER_PXEBOOT_FLOATING_ADDRESS", floating)
		s.Set("CONTROLLER_PXEBOOT_ADDRESS_0", c0)
		s.Set("CONTROLLER_PXEBOOT_ADDRESS_1", c1)
	}
	s.Set("PXECONTROLLER_FLOATING_HOSTNAME", PXEControllerHostname)
}

// link writes the interface keys shared by the management, cluster and OAM
// sections
func (e *emitter) link(s *sysconfig.Section, name string, n *ResolvedNetwork) {
	li := n.Spec.LogicalInterface
	s.Set(name+"_MTU", strconv.Itoa(li.MTU))
	s.Set(name+"_SUBNET", n.Spec.CIDR.String())
	if li.IsLAG {
		s.Set("LAG_"+name+"_INTERFACE", "yes")
		s.Set(name+"_BOND_MEMBER_0", li.Ports[0])
		s.Set(name+"_BOND_MEMBER_1", li.Ports[1])
		s.Set(name+"_BOND_POLICY", li.LAGMode.BondPolicy())
	} else {
		s.Set("LAG_"+name+"_INTERFACE", "no")
	}
	s.Set(name+"_INTERFACE", n.Interface)
	if n.Spec.VLAN != 0 {
		s.Set(name+"_VLAN", strconv.Itoa(n.Spec.VLAN))
	}
	s.Set(name+"_INTERFACE_NAME", n.InterfaceName)
}

func (e *emitter) management(n *ResolvedNetwork) {
	s := e.section(OutManagement)
	spec := n.Spec
	if n.CIDROnly {
		s.Set("MANAGEMENT_SUBNET", spec.CIDR.String())
		return
	}

	e.link(s, "MANAGEMENT", n)
	if spec.HasGateway() {
		s.Set("MANAGEMENT_GATEWAY_ADDRESS", spec.GatewayAddress.String())
	}
	s.Set("CONTROLLER_FLOATING_ADDRESS", spec.StartAddress.String())
	s.Set("CONTROLLER_0_ADDRESS", e.offset(spec.StartAddress, 1))
	s.Set("CONTROLLER_1_ADDRESS", e.offset(spec.StartAddress, 2))
	s.Set("NFS_MANAGEMENT_ADDRESS_1", e.offset(spec.StartAddress, 3))
	s.Set("NFS_MANAGEMENT_ADDRESS_2", e.offset(spec.StartAddress, 4))
	s.Set("CONTROLLER_FLOATING_HOSTNAME", ControllerHostname)
	s.Set("CONTROLLER_HOSTNAME_PREFIX", ControllerPrefix)
	s.Set("OAMCONTROLLER_FLOATING_HOSTNAME", OAMControllerHostname)
	s.Set("DYNAMIC_ADDRESS_ALLOCATION", util.YesNo(spec.DynamicAllocation))
	s.Set("MANAGEMENT_START_ADDRESS", spec.StartAddress.String())
	s.Set("MANAGEMENT_END_ADDRESS", spec.EndAddress.String())
	if spec.HasMulticast() {
		s.Set("MANAGEMENT_MULTICAST_SUBNET", spec.MulticastCIDR.String())
	}
}

func (e *emitter) cluster(n *ResolvedNetwork) {
	s := e.section(OutCluster)
	e.link(s, "CLUSTER", n)
	s.Set("DYNAMIC_ADDRESS_ALLOCATION", util.YesNo(n.Spec.DynamicAllocation))
}

func (e *emitter) oam(n *ResolvedNetwork) {
	s := e.section(OutOAM)
	spec := n.Spec
	e.link(s, "EXTERNAL_OAM", n)
	if spec.HasGateway() {
		s.Set("EXTERNAL_OAM_GATEWAY_ADDRESS", spec.GatewayAddress.String())
	}
	if spec.HasUnitAddresses() {
		s.Set("EXTERNAL_OAM_FLOATING_ADDRESS", spec.FloatingAddress.String())
		s.Set("EXTERNAL_OAM_0_ADDRESS", spec.Address0.String())
		s.Set("EXTERNAL_OAM_1_ADDRESS", spec.Address1.String())
		return
	}
	s.Set("EXTERNAL_OAM_FLOATING_ADDRESS", spec.StartAddress.String())
	s.Set("EXTERNAL_OAM_0_ADDRESS", e.offset(spec.StartAddress, 1))
	s.Set("EXTERNAL_OAM_1_ADDRESS", e.offset(spec.StartAddress, 2))
}

func (e *emitter) settings(name string, configured bool, settings []Setting) {
	if !configured {
		return
	}
	s := e.section(name)
	for _, kv := range settings {
		s.Set(kv.Key, kv.Value)
	}
}

func (e *emitter) region(id *RegionIdentity, ct model.ConfigType) {
	s := e.section(OutRegion)
	s.Set("REGION_CONFIG", "True")
	s.Set("REGION_1_NAME", id.Region1Name)
	s.Set("REGION_2_NAME", id.Region2Name)
	s.Set("ADMIN_USER_NAME", id.AdminUserName)
	s.Set("ADMIN_USER_DOMAIN", id.AdminUserDomain)
	s.Set("ADMIN_PROJECT_NAME", id.AdminProjectName)
	s.Set("ADMIN_PROJECT_DOMAIN", id.AdminProjectDomain)
	s.Set("SERVICE_PROJECT_NAME", id.ServiceProjectName)
	s.Set("KEYSTONE_SERVICE_NAME", id.KeystoneServiceName)
	s.Set("KEYSTONE_SERVICE_TYPE", id.KeystoneServiceType)
	for _, u := range id.Users {
		s.Set(u.Service+"_USER_NAME", u.UserName)
		if u.HasPassword {
			s.Set(u.Service+"_PASSWORD", u.Password)
		}
		if u.Service == "SYSINV" {
			s.Set("SYSINV_SERVICE_NAME", id.SysinvServiceName)
			s.Set("SYSINV_SERVICE_TYPE", id.SysinvServiceType)
		}
	}
	s.Set("USER_DOMAIN_NAME", id.UserDomain)
	s.Set("PROJECT_DOMAIN_NAME", id.ProjectDomain)
	if ct == model.ConfigSubcloud {
		s.Set("SYSTEM_CONTROLLER_SUBNET", id.SystemControllerSubnet.String())
		s.Set("SYSTEM_CONTROLLER_FLOATING_ADDRESS", id.SystemControllerFloatingAddress.String())
	}
}
