package cc3000

import (
	"cc3000-go/x/conv"
)

// SecurityMode selects the association security type. Values are the chip's
// own encoding and go out on the wire unchanged.
type SecurityMode uint8

const (
	SecOpen SecurityMode = iota
	SecWEP
	SecWPA
	SecWPA2
)

func (s SecurityMode) valid() bool { return s <= SecWPA2 }

func (s SecurityMode) String() string {
	switch s {
	case SecOpen:
		return "open"
	case SecWEP:
		return "wep"
	case SecWPA:
		return "wpa"
	case SecWPA2:
		return "wpa2"
	}
	return "unknown"
}

// ParseSecurityMode maps a mode name back to its chip code.
func ParseSecurityMode(s string) (SecurityMode, bool) {
	switch s {
	case "open", "unsec", "":
		return SecOpen, true
	case "wep":
		return SecWEP, true
	case "wpa":
		return SecWPA, true
	case "wpa2":
		return SecWPA2, true
	}
	return SecOpen, false
}

// IPAddr is an IPv4 address in conventional display order: IPAddr{192,168,0,1}
// is 192.168.0.1. The chip works in the reverse (little-endian) order; all
// conversion happens at the driver boundary.
type IPAddr [4]byte

func (a IPAddr) String() string {
	var buf [15]byte
	return string(conv.AppendIPv4(buf[:0], a))
}

// chipWord packs the address into the chip's native u32 (first octet in the
// low byte), matching what the ping and ipconfig commands expect.
func (a IPAddr) chipWord() uint32 {
	return uint32(a[0]) | uint32(a[1])<<8 | uint32(a[2])<<16 | uint32(a[3])<<24
}

// ipFromWord converts a resolver result to display order. The top byte of
// the returned word is the first octet.
func ipFromWord(w uint32) IPAddr {
	return IPAddr{
		byte(w >> 24),
		byte(w >> 16),
		byte(w >> 8),
		byte(w),
	}
}

// reverse4 and reverse6 flip chip-order address fields to display order.
// Applying either twice yields the input.
func reverse4(in [4]byte) (out [4]byte) {
	for i := range in {
		out[i] = in[len(in)-1-i]
	}
	return out
}

func reverse6(in [6]byte) (out [6]byte) {
	for i := range in {
		out[i] = in[len(in)-1-i]
	}
	return out
}

// cstr returns the leading NUL-terminated portion of b as a string.
func cstr(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}

// AccessPointInfo describes one network found by a scan.
type AccessPointInfo struct {
	SSID     string
	BSSID    [6]byte
	RSSI     uint8 // raw 7-bit RSSI as reported by the chip
	Security SecurityMode
}

// MACString formats a 6-byte hardware address as aa:bb:cc:dd:ee:ff.
func MACString(mac [6]byte) string {
	var buf [17]byte
	return string(conv.AppendMAC(buf[:0], mac))
}

// ConnectionInfo is the IP configuration snapshot captured after a
// successful connect. All address fields are in display order.
type ConnectionInfo struct {
	IP         IPAddr
	Netmask    IPAddr
	Gateway    IPAddr
	DHCPServer IPAddr
	DNSServer  IPAddr
	MAC        [6]byte
	SSID       string
}

// PingReport aggregates the statistics of one ping run. Times are in
// milliseconds as reported by the chip.
type PingReport struct {
	Sent     uint32
	Received uint32
	MinRTT   uint32
	MaxRTT   uint32
	AvgRTT   uint32
}

// IPConfigData is the chip-order ipconfig response. Address fields arrive
// little-endian; ConnectionInfo reverses them for presentation.
type IPConfigData struct {
	IP         [4]byte
	Netmask    [4]byte
	Gateway    [4]byte
	DHCPServer [4]byte
	DNSServer  [4]byte
	MAC        [6]byte
	SSID       [32]byte
}

// ScanResult is one record from the scan-results command. The fetch
// protocol hands back the total network count with every record.
type ScanResult struct {
	NumNetworks uint32
	Status      uint32 // 0 = aged, 1 = valid, 2 = no results
	Valid       bool
	RSSI        uint8
	Security    SecurityMode
	SSIDLen     uint8
	SSID        [32]byte
	BSSID       [6]byte
}
