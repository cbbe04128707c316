package cc3000

import "errors"

// Chip command opcodes (HCI command channel).
const (
	opWlanConnect        = 0x0001
	opWlanDisconnect     = 0x0002
	opWlanSetScanParams  = 0x0003
	opWlanSetConnPolicy  = 0x0004
	opWlanGetScanResults = 0x0007
	opGetHostByName      = 0x1010
	opNetappPingSend     = 0x2002
	opNetappIPConfig     = 0x2005
	opNvmemRead          = 0x0201
	opReadSPVersion      = 0x0207
)

// NVMEM file holding the MAC address.
const nvmemFileMAC = 5

// Sentinel errors (TinyGo-safe; no fmt).
var (
	ErrBadStatus = errors.New("cc3000: command status not ok")
	ErrShortResp = errors.New("cc3000: short command response")
)

// hciCommander encodes commands onto the raw link. All multi-byte fields
// are little-endian, the chip's native order. Fixed scratch buffers keep
// the hot path allocation-free.
type hciCommander struct {
	link Link
	w    [128]byte
	r    [128]byte
}

// NewCommander wraps a raw link with the chip command codec.
func NewCommander(link Link) Commander {
	return &hciCommander{link: link}
}

// Little-endian scratch helpers shared with the event dispatcher.

func putU32(b []byte, off int, v uint32) int {
	b[off] = byte(v)
	b[off+1] = byte(v >> 8)
	b[off+2] = byte(v >> 16)
	b[off+3] = byte(v >> 24)
	return off + 4
}

func leU32(b []byte, off int) uint32 {
	return uint32(b[off]) | uint32(b[off+1])<<8 |
		uint32(b[off+2])<<16 | uint32(b[off+3])<<24
}

// exec sends one command and checks the leading status byte of the
// response. It returns the payload after the status byte.
func (c *hciCommander) exec(op uint16, args []byte, want int) ([]byte, error) {
	n, err := c.link.Command(op, args, c.r[:])
	if err != nil {
		return nil, err
	}
	if n < 1 {
		return nil, ErrShortResp
	}
	if c.r[0] != 0 {
		return nil, ErrBadStatus
	}
	if n-1 < want {
		return nil, ErrShortResp
	}
	return c.r[1:n], nil
}

func (c *hciCommander) SetScanParams(enableMs uint32, p ScanPolicy) error {
	off := 0
	off = putU32(c.w[:], off, 36) // offset to the channel interval list
	off = putU32(c.w[:], off, enableMs)
	off = putU32(c.w[:], off, p.MinDwell)
	off = putU32(c.w[:], off, p.MaxDwell)
	off = putU32(c.w[:], off, p.ProbeRequests)
	off = putU32(c.w[:], off, p.ChannelMask)
	off = putU32(c.w[:], off, uint32(p.RSSIThreshold))
	off = putU32(c.w[:], off, p.SNRThreshold)
	off = putU32(c.w[:], off, p.TxPower)
	for i := 0; i < scanChannels; i++ {
		off = putU32(c.w[:], off, p.ChannelTimeout)
	}
	_, err := c.exec(opWlanSetScanParams, c.w[:off], 0)
	return err
}

// Scan result frame layout, after the status byte:
//
//	[0:4]  networks found
//	[4:8]  result status (0 aged, 1 valid, 2 none)
//	[8]    bit0 validity, bits1-7 RSSI
//	[9]    bits0-1 security, bits2-7 SSID length
//	[10:12] frame time (unused here)
//	[12:44] SSID
//	[44:50] BSSID
const scanResultLen = 50

func (c *hciCommander) ScanResults(out *ScanResult) error {
	off := putU32(c.w[:], 0, 0) // scan timeout argument, always zero
	p, err := c.exec(opWlanGetScanResults, c.w[:off], scanResultLen)
	if err != nil {
		return err
	}
	out.NumNetworks = leU32(p, 0)
	out.Status = leU32(p, 4)
	out.Valid = p[8]&0x01 != 0
	out.RSSI = p[8] >> 1
	out.Security = SecurityMode(p[9] & 0x03)
	out.SSIDLen = p[9] >> 2
	copy(out.SSID[:], p[12:44])
	copy(out.BSSID[:], p[44:50])
	return nil
}

func (c *hciCommander) SetConnectionPolicy(openAP, fastConnect, useProfiles bool) error {
	off := 0
	off = putU32(c.w[:], off, b2u(openAP))
	off = putU32(c.w[:], off, b2u(fastConnect))
	off = putU32(c.w[:], off, b2u(useProfiles))
	_, err := c.exec(opWlanSetConnPolicy, c.w[:off], 0)
	return err
}

func (c *hciCommander) Connect(sec SecurityMode, ssid, key string) error {
	off := 0
	off = putU32(c.w[:], off, 0x1C) // offset to SSID
	off = putU32(c.w[:], off, uint32(len(ssid)))
	off = putU32(c.w[:], off, uint32(sec))
	off = putU32(c.w[:], off, 16+uint32(len(ssid))) // offset to key
	off = putU32(c.w[:], off, uint32(len(key)))
	// Padding plus a zeroed BSSID: the chip matches by SSID only.
	for i := 0; i < 8; i++ {
		c.w[off] = 0
		off++
	}
	off += copy(c.w[off:], ssid)
	off += copy(c.w[off:], key)
	_, err := c.exec(opWlanConnect, c.w[:off], 0)
	return err
}

func (c *hciCommander) Disconnect() error {
	_, err := c.exec(opWlanDisconnect, nil, 0)
	return err
}

func (c *hciCommander) HostByName(name string) (uint32, error) {
	off := 0
	off = putU32(c.w[:], off, 8) // offset to the name
	off = putU32(c.w[:], off, uint32(len(name)))
	off += copy(c.w[off:], name)
	p, err := c.exec(opGetHostByName, c.w[:off], 8)
	if err != nil {
		return 0, err
	}
	// Signed resolver status, then the address word.
	if int32(leU32(p, 0)) < 0 {
		return 0, ErrBadStatus
	}
	return leU32(p, 4), nil
}

const ipConfigLen = 4*5 + 6 + 32

func (c *hciCommander) IPConfig(out *IPConfigData) error {
	p, err := c.exec(opNetappIPConfig, nil, ipConfigLen)
	if err != nil {
		return err
	}
	copy(out.IP[:], p[0:4])
	copy(out.Netmask[:], p[4:8])
	copy(out.Gateway[:], p[8:12])
	copy(out.DHCPServer[:], p[12:16])
	copy(out.DNSServer[:], p[16:20])
	copy(out.MAC[:], p[20:26])
	copy(out.SSID[:], p[26:58])
	return nil
}

func (c *hciCommander) FirmwareVersion() (major, minor uint8, err error) {
	p, err := c.exec(opReadSPVersion, nil, 2)
	if err != nil {
		return 0, 0, err
	}
	return p[0], p[1], nil
}

func (c *hciCommander) MACAddress(out *[6]byte) error {
	off := 0
	off = putU32(c.w[:], off, nvmemFileMAC)
	off = putU32(c.w[:], off, 6) // length
	off = putU32(c.w[:], off, 0) // offset within the file
	p, err := c.exec(opNvmemRead, c.w[:off], 6)
	if err != nil {
		return err
	}
	copy(out[:], p[:6])
	return nil
}

func (c *hciCommander) PingSend(addr uint32, attempts, size, timeoutMs uint32) error {
	off := 0
	off = putU32(c.w[:], off, addr)
	off = putU32(c.w[:], off, attempts)
	off = putU32(c.w[:], off, size)
	off = putU32(c.w[:], off, timeoutMs)
	_, err := c.exec(opNetappPingSend, c.w[:off], 0)
	return err
}
