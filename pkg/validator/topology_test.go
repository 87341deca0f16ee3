package validator

import (
	"net/netip"
	"testing"
)

func TestClaimNetwork(t *testing.T) {
	s := NewTopologyState()

	if _, ok := s.ClaimNetwork("PXEBOOT_NETWORK", netip.MustParsePrefix("192.168.202.0/24")); !ok {
		t.Fatal("ClaimNetwork(first) should succeed")
	}
	if _, ok := s.ClaimNetwork("MGMT_NETWORK", netip.MustParsePrefix("192.168.204.0/24")); !ok {
		t.Fatal("ClaimNetwork(disjoint) should succeed")
	}

	tests := []struct {
		name      string
		prefix    string
		wantOwner string
	}{
		{"same subnet", "192.168.204.0/24", "MGMT_NETWORK"},
		{"contained", "192.168.202.128/25", "PXEBOOT_NETWORK"},
		{"containing", "192.168.0.0/16", "PXEBOOT_NETWORK"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			owner, ok := s.ClaimNetwork("OAM_NETWORK", netip.MustParsePrefix(tt.prefix))
			if ok {
				t.Fatalf("ClaimNetwork(%s) should fail", tt.prefix)
			}
			if owner.Name != tt.wantOwner {
				t.Errorf("ClaimNetwork(%s) owner = %s, want %s", tt.prefix, owner.Name, tt.wantOwner)
			}
		})
	}

	if _, ok := s.ClaimNetwork("OAM_NETWORK", netip.MustParsePrefix("10.10.10.0/24")); !ok {
		t.Error("ClaimNetwork(disjoint) after failed claims should succeed")
	}
}

func TestClaimNetworkMixedFamilies(t *testing.T) {
	s := NewTopologyState()
	s.ClaimNetwork("MGMT_NETWORK", netip.MustParsePrefix("192.168.204.0/24"))
	if _, ok := s.ClaimNetwork("OAM_NETWORK", netip.MustParsePrefix("fd00::/64")); !ok {
		t.Error("IPv6 subnet should not overlap an IPv4 subnet")
	}
}

func TestClaimVLAN(t *testing.T) {
	s := NewTopologyState()
	if _, ok := s.ClaimVLAN(100, "MGMT_NETWORK"); !ok {
		t.Fatal("ClaimVLAN(100) should succeed")
	}
	if _, ok := s.ClaimVLAN(200, "CLUSTER_NETWORK"); !ok {
		t.Fatal("ClaimVLAN(200) should succeed")
	}
	owner, ok := s.ClaimVLAN(100, "OAM_NETWORK")
	if ok || owner != "MGMT_NETWORK" {
		t.Errorf("ClaimVLAN(100) = %q, %v, want MGMT_NETWORK, false", owner, ok)
	}
}

func TestAllocateBond(t *testing.T) {
	s := NewTopologyState()
	for i, want := range []string{"bond0", "bond1", "bond2"} {
		if got := s.AllocateBond(); got != want {
			t.Errorf("AllocateBond() #%d = %s, want %s", i, got, want)
		}
	}
	if s.NextLAGIndex != 3 {
		t.Errorf("NextLAGIndex = %d, want 3", s.NextLAGIndex)
	}
}

func TestResolve(t *testing.T) {
	s := NewTopologyState()
	if s.InUse("eth0") {
		t.Error("InUse(eth0) on empty state")
	}

	s.Resolve("LI1", "eth0")
	s.Resolve("LI2", "bond0")

	if got, ok := s.ResolvedInterface("LI1"); !ok || got != "eth0" {
		t.Errorf("ResolvedInterface(LI1) = %s, %v", got, ok)
	}
	if _, ok := s.ResolvedInterface("LI3"); ok {
		t.Error("ResolvedInterface(LI3) should not be found")
	}
	if !s.InUse("bond0") {
		t.Error("InUse(bond0) = false")
	}
}

func TestClaimInterfaceName(t *testing.T) {
	s := NewTopologyState()
	s.ClaimInterfaceName("eth0.123", "MGMT")
	s.ClaimInterfaceName("eth1", "OAM")

	tests := []struct {
		name      string
		iface     string
		wantOK    bool
		wantOwner string
	}{
		{"untagged port of a tagged network", "eth0", true, ""},
		{"untagged port in use", "eth1", false, "OAM"},
		{"same vlan interface", "eth0.123", false, "MGMT"},
		{"other vlan on used port", "eth1.300", true, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			owner, ok := s.ClaimInterfaceName(tt.iface, "CLUSTER")
			if ok != tt.wantOK || owner != tt.wantOwner {
				t.Errorf("ClaimInterfaceName(%s) = %q, %v, want %q, %v", tt.iface, owner, ok, tt.wantOwner, tt.wantOK)
			}
		})
	}
}
