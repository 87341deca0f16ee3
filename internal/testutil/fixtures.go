// Package testutil provides sample configurations and redis helpers for
// tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/newtron-network/bootcfg/pkg/sysconfig"
)

// StandardSystemINI is a valid duplex Standard system config for offboard
// validation
const StandardSystemINI = `[VERSION]
RELEASE = xxxSW_VERSIONxxx

[SYSTEM]
SYSTEM_TYPE = Standard
TIMEZONE = America/Toronto

[LOGICAL_INTERFACE_1]
LAG_INTERFACE = N
INTERFACE_MTU = 1500
INTERFACE_PORTS = eth0

[LOGICAL_INTERFACE_2]
LAG_INTERFACE = N
INTERFACE_MTU = 1500
INTERFACE_PORTS = eth1

[PXEBOOT_NETWORK]
PXEBOOT_CIDR = 192.168.202.0/24

[MGMT_NETWORK]
VLAN = 123
CIDR = 192.168.204.0/24
MULTICAST_CIDR = 239.1.1.0/28
DYNAMIC_ALLOCATION = Y
LOGICAL_INTERFACE = LOGICAL_INTERFACE_1

[OAM_NETWORK]
CIDR = 10.10.10.0/24
GATEWAY = 10.10.10.1
IP_FLOATING_ADDRESS = 10.10.10.2
IP_UNIT_0_ADDRESS = 10.10.10.3
IP_UNIT_1_ADDRESS = 10.10.10.4
LOGICAL_INTERFACE = LOGICAL_INTERFACE_2

[DNS]
NAMESERVER_1 = 8.8.8.8

[AUTHENTICATION]
ADMIN_PASSWORD = Li69nux*
`

// AIOSimplexINI is a valid All-in-one simplex system config for offboard
// validation
const AIOSimplexINI = `[VERSION]
RELEASE = xxxSW_VERSIONxxx

[SYSTEM]
SYSTEM_TYPE = All-in-one
SYSTEM_MODE = simplex

[LOGICAL_INTERFACE_1]
LAG_INTERFACE = N
INTERFACE_MTU = 1500
INTERFACE_PORTS = enp0s3

[OAM_NETWORK]
CIDR = 10.10.10.0/24
GATEWAY = 10.10.10.1
IP_ADDRESS = 10.10.10.3
LOGICAL_INTERFACE = LOGICAL_INTERFACE_1

[AUTHENTICATION]
ADMIN_PASSWORD = Li69nux*
`

// BrokenINI fails validation: the OAM gateway lies outside its subnet
const BrokenINI = `[VERSION]
RELEASE = xxxSW_VERSIONxxx

[SYSTEM]
SYSTEM_TYPE = All-in-one
SYSTEM_MODE = simplex

[LOGICAL_INTERFACE_1]
LAG_INTERFACE = N
INTERFACE_MTU = 1500
INTERFACE_PORTS = enp0s3

[OAM_NETWORK]
CIDR = 10.10.10.0/24
GATEWAY = 10.10.20.1
IP_ADDRESS = 10.10.10.3
LOGICAL_INTERFACE = LOGICAL_INTERFACE_1

[AUTHENTICATION]
ADMIN_PASSWORD = Li69nux*
`

func mustParse(data string) *sysconfig.Config {
	c, err := sysconfig.ParseINI([]byte(data))
	if err != nil {
		panic(err)
	}
	return c
}

// StandardSystem returns StandardSystemINI parsed
func StandardSystem() *sysconfig.Config {
	return mustParse(StandardSystemINI)
}

// AIOSimplex returns AIOSimplexINI parsed
func AIOSimplex() *sysconfig.Config {
	return mustParse(AIOSimplexINI)
}

// WriteFile writes content to name under a test temp directory and returns
// its path
func WriteFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
	return path
}
