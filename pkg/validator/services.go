package validator

import (
	"fmt"
	"net/netip"
	"strings"

	"github.com/newtron-network/bootcfg/pkg/model"
	"github.com/newtron-network/bootcfg/pkg/util"
)

const (
	sectionDNS            = "DNS"
	sectionDockerProxy    = "DOCKER_PROXY"
	sectionDockerRegistry = "DOCKER_REGISTRY"
	sectionShared         = "SHARED_SERVICES"
	sectionRegion2        = "REGION_2_SERVICES"
	sectionAuthentication = "AUTHENTICATION"

	// DefaultDomainName is used for any identity domain not configured
	DefaultDomainName = "Default"

	maxNameservers = 3
)

// dockerField is one optional key of a docker section with its syntax check.
// A list field is checked entry by entry.
type dockerField struct {
	key   string
	valid func(string) bool
	list  bool
}

var dockerProxyFields = []dockerField{
	{"DOCKER_HTTP_PROXY", util.IsValidURL, false},
	{"DOCKER_HTTPS_PROXY", util.IsValidURL, false},
	{"DOCKER_NO_PROXY", util.IsValidDomainOrIP, true},
}

var dockerRegistryFields = []dockerField{
	{"DOCKER_K8S_REGISTRY", util.IsValidDomainOrIP, false},
	{"DOCKER_GCR_REGISTRY", util.IsValidDomainOrIP, false},
	{"DOCKER_QUAY_REGISTRY", util.IsValidDomainOrIP, false},
	{"DOCKER_DOCKER_REGISTRY", util.IsValidDomainOrIP, false},
	{"IS_SECURE_REGISTRY", util.IsValidBoolStr, false},
}

func (r *run) validateDNS() error {
	if !r.raw.HasSection(sectionDNS) {
		return nil
	}
	r.result.DNSConfigured = true
	for i := 1; i <= maxNameservers; i++ {
		key := fmt.Sprintf("NAMESERVER_%d", i)
		v, ok := r.raw.Get(sectionDNS, key)
		if !ok {
			continue
		}
		addr, err := util.ParseAddress(v)
		if err != nil {
			return util.ConfigFailf("Invalid DNS NAMESERVER value of %s.\nReason: %s", v, err).
				WithSection(sectionDNS).
				WithKey(key, v)
		}
		r.result.DNS = append(r.result.DNS, Setting{Key: key, Value: addr.String()})
	}
	return nil
}

func (r *run) validateDockerProxy() error {
	if !r.raw.HasSection(sectionDockerProxy) {
		return nil
	}
	r.result.ProxyConfigured = true
	settings, err := r.checkDockerFields(sectionDockerProxy, dockerProxyFields)
	if err != nil {
		return err
	}
	r.result.DockerProxy = settings
	return nil
}

func (r *run) validateDockerRegistry() error {
	if !r.raw.HasSection(sectionDockerRegistry) {
		return nil
	}
	r.result.RegistryConfigured = true
	settings, err := r.checkDockerFields(sectionDockerRegistry, dockerRegistryFields)
	if err != nil {
		return err
	}
	r.result.DockerRegistry = settings
	return nil
}

func (r *run) checkDockerFields(section string, fields []dockerField) ([]Setting, error) {
	var out []Setting
	for _, f := range fields {
		v, ok := r.raw.Get(section, f.key)
		if !ok {
			continue
		}
		if f.list {
			// entries are not trimmed, so "a, b" fails on " b"
			for _, entry := range strings.Split(v, ",") {
				if !f.valid(entry) {
					return nil, util.ConfigFailf("Invalid %s value of %s.", f.key, entry).
						WithSection(section).
						WithKey(f.key, v)
				}
			}
		} else if !f.valid(v) {
			return nil, util.ConfigFailf("Invalid %s value of %s.", f.key, v).
				WithSection(section).
				WithKey(f.key, v)
		}
		out = append(out, Setting{Key: f.key, Value: v})
	}
	return out, nil
}

// ServiceUser is the service account of one region 2 service
type ServiceUser struct {
	Service  string
	UserName string
	// Password is empty when HasPassword is false
	Password    string
	HasPassword bool
}

// RegionIdentity is the identity configuration of a region or subcloud
type RegionIdentity struct {
	Region1Name string
	Region2Name string

	AdminUserName      string
	AdminUserDomain    string
	AdminProjectName   string
	AdminProjectDomain string
	ServiceProjectName string

	KeystoneServiceName string
	KeystoneServiceType string
	SysinvServiceName   string
	SysinvServiceType   string

	// Users holds the service accounts in output order
	Users []ServiceUser

	UserDomain    string
	ProjectDomain string

	// Set for subcloud configs only
	SystemControllerSubnet          netip.Prefix
	SystemControllerFloatingAddress netip.Addr
}

// User returns the service account for service, if any
func (id *RegionIdentity) User(service string) (ServiceUser, bool) {
	for _, u := range id.Users {
		if u.Service == service {
			return u, true
		}
	}
	return ServiceUser{}, false
}

// expectedServices pins the service names and types a region 2 controller
// registers with keystone
var expectedServices = map[string]string{
	"KEYSTONE_SERVICE_NAME": "keystone",
	"KEYSTONE_SERVICE_TYPE": "identity",
	"SYSINV_SERVICE_NAME":   "sysinv",
	"SYSINV_SERVICE_TYPE":   "platform",
	"PATCHING_SERVICE_NAME": "patching",
	"PATCHING_SERVICE_TYPE": "patching",
	"NFV_SERVICE_NAME":      "vim",
	"NFV_SERVICE_TYPE":      "nfv",
	"FM_SERVICE_NAME":       "fm",
	"FM_SERVICE_TYPE":       "faultmanagement",
	"BARBICAN_SERVICE_NAME": "barbican",
	"BARBICAN_SERVICE_TYPE": "key-manager",
}

// passwordServices must carry a password unless region 2 services are
// being created
var passwordServices = []string{"PATCHING", "SYSINV", "FM", "BARBICAN", "NFV", "MTCE"}

// userServices is the output order of the service accounts
var userServices = []string{"PATCHING", "SYSINV", "NFV", "MTCE", "FM", "BARBICAN"}

func (r *run) validateRegion() error {
	if !r.configType.IsFederated() {
		return nil
	}

	id := &RegionIdentity{}
	var err error

	if id.Region1Name, err = r.required(sectionShared, "REGION_NAME"); err != nil {
		return err
	}
	if id.Region2Name, err = r.required(sectionRegion2, "REGION_NAME"); err != nil {
		return err
	}
	if id.Region1Name == id.Region2Name {
		return util.ConfigFailf("The Region Names must be unique.").
			WithSection(sectionRegion2).
			WithKey("REGION_NAME", id.Region2Name).
			WithConflict(sectionShared)
	}

	if v, _ := r.raw.Get(sectionRegion2, "CREATE"); v != "Y" {
		for _, svc := range passwordServices {
			if !r.raw.HasOption(sectionRegion2, svc+"_PASSWORD") {
				return util.ConfigFailf("User password for %s is required and missing.", svc).
					WithSection(sectionRegion2).
					WithKey(svc+"_PASSWORD", "")
			}
		}
	}

	if id.AdminUserName, err = r.required(sectionShared, "ADMIN_USER_NAME"); err != nil {
		return err
	}
	id.AdminUserDomain = r.optional(sectionShared, "ADMIN_USER_DOMAIN", DefaultDomainName)
	if id.AdminProjectName, err = r.aliased(sectionShared, "ADMIN_PROJECT_NAME", "ADMIN_TENANT_NAME"); err != nil {
		return err
	}
	id.AdminProjectDomain = r.optional(sectionShared, "ADMIN_PROJECT_DOMAIN", DefaultDomainName)
	if id.ServiceProjectName, err = r.aliased(sectionShared, "SERVICE_PROJECT_NAME", "SERVICE_TENANT_NAME"); err != nil {
		return err
	}

	if id.KeystoneServiceName, err = r.service(sectionShared, "KEYSTONE_SERVICE_NAME"); err != nil {
		return err
	}
	if id.KeystoneServiceType, err = r.service(sectionShared, "KEYSTONE_SERVICE_TYPE"); err != nil {
		return err
	}
	for _, key := range []string{"PATCHING_SERVICE_NAME", "PATCHING_SERVICE_TYPE"} {
		if _, err := r.service(sectionRegion2, key); err != nil {
			return err
		}
	}
	if id.SysinvServiceName, err = r.service(sectionRegion2, "SYSINV_SERVICE_NAME"); err != nil {
		return err
	}
	if id.SysinvServiceType, err = r.service(sectionRegion2, "SYSINV_SERVICE_TYPE"); err != nil {
		return err
	}
	for _, key := range []string{"NFV_SERVICE_NAME", "NFV_SERVICE_TYPE", "FM_SERVICE_NAME",
		"FM_SERVICE_TYPE", "BARBICAN_SERVICE_NAME", "BARBICAN_SERVICE_TYPE"} {
		if _, err := r.service(sectionRegion2, key); err != nil {
			return err
		}
	}

	for _, svc := range userServices {
		u := ServiceUser{Service: svc}
		if u.UserName, err = r.required(sectionRegion2, svc+"_USER_NAME"); err != nil {
			return err
		}
		u.Password, u.HasPassword = r.raw.Get(sectionRegion2, svc+"_PASSWORD")
		id.Users = append(id.Users, u)
	}

	id.UserDomain = r.optional(sectionRegion2, "USER_DOMAIN_NAME", DefaultDomainName)
	id.ProjectDomain = r.optional(sectionRegion2, "PROJECT_DOMAIN_NAME", DefaultDomainName)

	if r.configType == model.ConfigSubcloud {
		if err := r.systemController(id); err != nil {
			return err
		}
	}

	util.WithStage("region").WithFields(map[string]interface{}{
		"region1": id.Region1Name,
		"region2": id.Region2Name,
	}).Debug("region identity resolved")
	r.result.Region = id
	return nil
}

// systemController reads the subnet and floating address a subcloud uses to
// reach its system controller
func (r *run) systemController(id *RegionIdentity) error {
	v, err := r.required(sectionShared, "SYSTEM_CONTROLLER_SUBNET")
	if err != nil {
		return err
	}
	id.SystemControllerSubnet, err = util.ParseNetwork(v, 1, false)
	if err != nil {
		return util.WrapValidate(sectionShared, "SYSTEM_CONTROLLER_SUBNET", v, err)
	}

	v, err = r.required(sectionShared, "SYSTEM_CONTROLLER_FLOATING_ADDRESS")
	if err != nil {
		return err
	}
	id.SystemControllerFloatingAddress, err = util.ParseAddressInNetwork(v, id.SystemControllerSubnet)
	if err != nil {
		return util.WrapValidate(sectionShared, "SYSTEM_CONTROLLER_FLOATING_ADDRESS", v, err)
	}
	return nil
}

func (r *run) required(section, key string) (string, error) {
	v, ok := r.raw.Get(section, key)
	if !ok {
		return "", missingAttribute(key, section)
	}
	return v, nil
}

func (r *run) optional(section, key, def string) string {
	if v, ok := r.raw.Get(section, key); ok {
		return v
	}
	return def
}

// aliased reads key, falling back to its legacy name
func (r *run) aliased(section, key, legacy string) (string, error) {
	if v, ok := r.raw.Get(section, key); ok {
		return v, nil
	}
	return r.required(section, legacy)
}

// service returns the pinned value for a service name or type key. A
// configured value must match it.
func (r *run) service(section, key string) (string, error) {
	want := expectedServices[key]
	v, ok := r.raw.Get(section, key)
	if !ok {
		return want, nil
	}
	if v != want {
		return "", util.ConfigFailf("Unsupported %s: %s", key, v).
			WithSection(section).
			WithKey(key, v).
			WithConflict(want)
	}
	return v, nil
}

func (r *run) validateAuthentication() error {
	section := sectionAuthentication
	if r.configType.IsFederated() {
		section = sectionShared
	}
	pw, err := r.required(section, "ADMIN_PASSWORD")
	if err != nil {
		return err
	}
	r.result.AdminPassword = pw
	return nil
}
