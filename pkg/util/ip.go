package util

import (
	"math/big"
	"net/netip"
	"strconv"

	"go4.org/netipx"
)

const (
	// MinMTU and MaxMTU bound the interface MTU (inclusive)
	MinMTU = 576
	MaxMTU = 9216

	// MinVLAN and MaxVLAN bound a VLAN id (inclusive)
	MinVLAN = 1
	MaxVLAN = 4094

	minIPv6PrefixLen = 64
)

// IPVersion returns 4 or 6 for the family of the given prefix
func IPVersion(p netip.Prefix) int {
	if p.Addr().Is4() {
		return 4
	}
	return 6
}

// ParseNetwork parses a subnet in CIDR notation. The address must be the
// network address, the subnet must hold at least minAddresses addresses, and
// IPv6 subnets must be /64 or larger. With multicast set the subnet must be a
// multicast range.
func ParseNetwork(s string, minAddresses int, multicast bool) (netip.Prefix, error) {
	p, err := netip.ParsePrefix(s)
	if err != nil {
		return netip.Prefix{}, ValidateFailf("Invalid subnet - not a valid IP subnet")
	}
	switch {
	case p != p.Masked():
		return netip.Prefix{}, ValidateFailf("Invalid network address")
	case PrefixSize(p).Cmp(big.NewInt(int64(minAddresses))) < 0:
		return netip.Prefix{}, ValidateFailf("Subnet too small - must have at least %d addresses", minAddresses)
	case p.Addr().Is6() && p.Bits() < minIPv6PrefixLen:
		return netip.Prefix{}, ValidateFailf("IPv6 minimum prefix length is %d", minIPv6PrefixLen)
	case multicast && !p.Addr().IsMulticast():
		return netip.Prefix{}, ValidateFailf("Invalid subnet - must be multicast")
	}
	return p, nil
}

// ParseAddress parses a bare IP address of either family
func ParseAddress(s string) (netip.Addr, error) {
	addr, err := netip.ParseAddr(s)
	if err != nil || addr.Zone() != "" {
		return netip.Addr{}, ValidateFailf("Invalid address - not a valid IP address")
	}
	return addr, nil
}

// ParseAddressInNetwork parses an address that must be a usable member of
// network: same family, not the network address, not the IPv4 broadcast.
func ParseAddressInNetwork(s string, network netip.Prefix) (netip.Addr, error) {
	addr, err := ParseAddress(s)
	if err != nil {
		return netip.Addr{}, err
	}
	if addr.Is4() != network.Addr().Is4() {
		return netip.Addr{}, ValidateFailf("Invalid IP version - must match network version IPv%d", IPVersion(network))
	}
	if addr == network.Addr() {
		return netip.Addr{}, ValidateFailf("Cannot use network address")
	}
	if addr.Is4() && network.Bits() < 31 && addr == netipx.PrefixLastIP(network) {
		return netip.Addr{}, ValidateFailf("Cannot use broadcast address")
	}
	if !network.Contains(addr) {
		return netip.Addr{}, ValidateFailf("Address must be in subnet %s", network)
	}
	return addr, nil
}

// PrefixSize returns the number of addresses in p
func PrefixSize(p netip.Prefix) *big.Int {
	hostBits := p.Addr().BitLen() - p.Bits()
	return new(big.Int).Lsh(big.NewInt(1), uint(hostBits))
}

// RangeSize returns the number of addresses in the closed range [start, end].
// It is zero when end precedes start.
func RangeSize(start, end netip.Addr) *big.Int {
	if end.Less(start) {
		return new(big.Int)
	}
	s := addrInt(start)
	e := addrInt(end)
	return e.Sub(e, s).Add(e, big.NewInt(1))
}

func addrInt(a netip.Addr) *big.Int {
	b := a.As16()
	return new(big.Int).SetBytes(b[:])
}

// AddrOffset returns the address n positions after a. The second return is
// false if the offset runs past the end of the address space.
func AddrOffset(a netip.Addr, n int) (netip.Addr, bool) {
	for i := 0; i < n; i++ {
		a = a.Next()
		if !a.IsValid() {
			return netip.Addr{}, false
		}
	}
	return a, true
}

// NthAddress returns the nth address of the prefix (0 is the network address)
func NthAddress(p netip.Prefix, n int) (netip.Addr, bool) {
	addr, ok := AddrOffset(p.Masked().Addr(), n)
	if !ok || !p.Contains(addr) {
		return netip.Addr{}, false
	}
	return addr, true
}

// LastUsableAddress returns the address before the last address of p
func LastUsableAddress(p netip.Prefix) netip.Addr {
	return netipx.PrefixLastIP(p.Masked()).Prev()
}

// IsMTUValid reports whether mtu is within MinMTU..MaxMTU
func IsMTUValid(mtu int) bool {
	return mtu >= MinMTU && mtu <= MaxMTU
}

// IsValidVLAN reports whether id is within MinVLAN..MaxVLAN
func IsValidVLAN(id int) bool {
	return id >= MinVLAN && id <= MaxVLAN
}

// ParseInt parses a decimal integer value
func ParseInt(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, ValidateFailf("Invalid integer value %q", s)
	}
	return n, nil
}
