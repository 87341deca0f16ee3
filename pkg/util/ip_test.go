package util

import (
	"errors"
	"math/big"
	"net/netip"
	"testing"
)

func TestParseNetwork(t *testing.T) {
	tests := []struct {
		name      string
		cidr      string
		min       int
		multicast bool
		want      string
		wantErr   string
	}{
		{name: "valid /24", cidr: "192.168.204.0/24", min: 8, want: "192.168.204.0/24"},
		{name: "valid /29 at minimum", cidr: "192.168.202.0/29", min: 8, want: "192.168.202.0/29"},
		{name: "valid ipv6 /64", cidr: "fd00:204::/64", min: 8, want: "fd00:204::/64"},
		{name: "valid multicast", cidr: "239.1.1.0/28", min: 16, multicast: true, want: "239.1.1.0/28"},
		{name: "not a cidr", cidr: "garbage", min: 8, wantErr: "Invalid subnet - not a valid IP subnet"},
		{name: "bare address", cidr: "192.168.204.0", min: 8, wantErr: "Invalid subnet - not a valid IP subnet"},
		{name: "host bits set", cidr: "192.168.204.1/24", min: 8, wantErr: "Invalid network address"},
		{name: "too small", cidr: "192.168.204.0/30", min: 8, wantErr: "Subnet too small - must have at least 8 addresses"},
		{name: "ipv6 prefix too short", cidr: "fd00::/48", min: 8, wantErr: "IPv6 minimum prefix length is 64"},
		{name: "not multicast", cidr: "192.168.1.0/28", min: 16, multicast: true, wantErr: "Invalid subnet - must be multicast"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseNetwork(tt.cidr, tt.min, tt.multicast)
			if tt.wantErr != "" {
				if err == nil {
					t.Fatalf("ParseNetwork(%q) = %v, want error %q", tt.cidr, got, tt.wantErr)
				}
				if err.Error() != tt.wantErr {
					t.Errorf("ParseNetwork(%q) error = %q, want %q", tt.cidr, err, tt.wantErr)
				}
				if !errors.Is(err, ErrValidateFail) {
					t.Errorf("ParseNetwork(%q) error should wrap ErrValidateFail", tt.cidr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseNetwork(%q) unexpected error: %v", tt.cidr, err)
			}
			if got.String() != tt.want {
				t.Errorf("ParseNetwork(%q) = %v, want %v", tt.cidr, got, tt.want)
			}
		})
	}
}

func TestParseAddressInNetwork(t *testing.T) {
	v4 := netip.MustParsePrefix("192.168.204.0/24")
	v6 := netip.MustParsePrefix("fd00:204::/64")

	tests := []struct {
		name    string
		addr    string
		network netip.Prefix
		wantErr bool
	}{
		{"usable v4", "192.168.204.2", v4, false},
		{"last usable v4", "192.168.204.254", v4, false},
		{"network address", "192.168.204.0", v4, true},
		{"broadcast address", "192.168.204.255", v4, true},
		{"outside subnet", "192.168.205.1", v4, true},
		{"family mismatch", "fd00:204::2", v4, true},
		{"not an address", "192.168.204", v4, true},
		{"usable v6", "fd00:204::2", v6, false},
		{"v6 has no broadcast", "fd00:204::ffff:ffff:ffff:ffff", v6, false},
		{"v6 network address", "fd00:204::", v6, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseAddressInNetwork(tt.addr, tt.network)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseAddressInNetwork(%q, %v) error = %v, wantErr %v", tt.addr, tt.network, err, tt.wantErr)
			}
		})
	}
}

func TestRangeSize(t *testing.T) {
	two64 := new(big.Int).Lsh(big.NewInt(1), 64)

	tests := []struct {
		name  string
		start string
		end   string
		want  *big.Int
	}{
		{"eight addresses", "192.168.202.2", "192.168.202.9", big.NewInt(8)},
		{"single address", "10.0.0.1", "10.0.0.1", big.NewInt(1)},
		{"reversed", "10.0.0.9", "10.0.0.1", big.NewInt(0)},
		{"ipv6 /64", "fd00::", "fd00::ffff:ffff:ffff:ffff", two64},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RangeSize(netip.MustParseAddr(tt.start), netip.MustParseAddr(tt.end))
			if got.Cmp(tt.want) != 0 {
				t.Errorf("RangeSize(%s, %s) = %v, want %v", tt.start, tt.end, got, tt.want)
			}
		})
	}
}

func TestPrefixSize(t *testing.T) {
	tests := []struct {
		cidr string
		want string
	}{
		{"192.168.204.0/24", "256"},
		{"10.0.0.0/32", "1"},
		{"fd00::/64", "18446744073709551616"},
	}

	for _, tt := range tests {
		t.Run(tt.cidr, func(t *testing.T) {
			got := PrefixSize(netip.MustParsePrefix(tt.cidr))
			if got.String() != tt.want {
				t.Errorf("PrefixSize(%s) = %v, want %v", tt.cidr, got, tt.want)
			}
		})
	}
}

func TestNthAddress(t *testing.T) {
	tests := []struct {
		name   string
		cidr   string
		n      int
		want   string
		wantOK bool
	}{
		{"base+2", "192.168.204.0/24", 2, "192.168.204.2", true},
		{"base+4", "192.168.204.0/24", 4, "192.168.204.4", true},
		{"ipv6 base+3", "fd00:204::/64", 3, "fd00:204::3", true},
		{"past end", "10.0.0.0/30", 5, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NthAddress(netip.MustParsePrefix(tt.cidr), tt.n)
			if ok != tt.wantOK {
				t.Fatalf("NthAddress(%s, %d) ok = %v, want %v", tt.cidr, tt.n, ok, tt.wantOK)
			}
			if ok && got.String() != tt.want {
				t.Errorf("NthAddress(%s, %d) = %v, want %v", tt.cidr, tt.n, got, tt.want)
			}
		})
	}
}

func TestAddrOffsetOverflow(t *testing.T) {
	if _, ok := AddrOffset(netip.MustParseAddr("255.255.255.254"), 2); ok {
		t.Error("AddrOffset() past 255.255.255.255 should fail")
	}
}

func TestLastUsableAddress(t *testing.T) {
	tests := []struct {
		cidr string
		want string
	}{
		{"192.168.204.0/24", "192.168.204.254"},
		{"192.168.202.0/29", "192.168.202.6"},
		{"fd00::/64", "fd00::ffff:ffff:ffff:fffe"},
	}

	for _, tt := range tests {
		t.Run(tt.cidr, func(t *testing.T) {
			if got := LastUsableAddress(netip.MustParsePrefix(tt.cidr)); got.String() != tt.want {
				t.Errorf("LastUsableAddress(%s) = %v, want %v", tt.cidr, got, tt.want)
			}
		})
	}
}

func TestIsValidVLAN(t *testing.T) {
	tests := []struct {
		id   int
		want bool
	}{
		{0, false},
		{1, true},
		{100, true},
		{4094, true},
		{4095, false},
	}

	for _, tt := range tests {
		if got := IsValidVLAN(tt.id); got != tt.want {
			t.Errorf("IsValidVLAN(%d) = %v, want %v", tt.id, got, tt.want)
		}
	}
}
