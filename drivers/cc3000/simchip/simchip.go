// Package simchip is a scripted in-memory CC3000. It implements the
// driver's Commander and EventSource collaborators with real latencies so
// host builds and tests exercise the same polling and timeout paths as
// hardware.
package simchip

import (
	"errors"
	"sync"
	"time"

	"cc3000-go/drivers/cc3000"
)

// ErrRejected is what a scripted rejection returns.
var ErrRejected = errors.New("simchip: command rejected")

// AP is one network the simulated radio can see or join.
type AP struct {
	SSID     string
	BSSID    [6]byte
	RSSI     uint8
	Security cc3000.SecurityMode
	Key      string
}

// Config scripts the chip's behaviour. Zero values give a chip that boots,
// scans an empty neighbourhood, and never connects.
type Config struct {
	APs []AP

	// ConnectLatency is the delay between an accepted connect command and
	// the connect event; DHCPLatency follows it with the lease event.
	ConnectLatency time.Duration
	DHCPLatency    time.Duration

	// DNS maps hostnames to display-order addresses.
	DNS map[string]cc3000.IPAddr

	// Lease handed out to the client (display order).
	IP         cc3000.IPAddr
	Netmask    cc3000.IPAddr
	Gateway    cc3000.IPAddr
	DHCPServer cc3000.IPAddr
	DNSServer  cc3000.IPAddr
	MAC        [6]byte

	FirmwareMajor uint8
	FirmwareMinor uint8

	// PingRTT is the simulated round-trip time; PingLost is how many of
	// the requested attempts go unanswered.
	PingRTT  time.Duration
	PingLost uint32
}

// Chip is the simulated device. Safe for the driver's single-caller model
// plus its own internal event goroutines.
type Chip struct {
	mu      sync.Mutex
	cfg     Config
	handler func(cc3000.Event)

	started    bool
	associated bool
	curSSID    string

	scanIdx int

	reject map[string]int // op name -> remaining rejections
}

func New(cfg Config) *Chip {
	return &Chip{cfg: cfg, reject: map[string]int{}}
}

// RejectNext makes the next n calls of the named command ("scan_params",
// "scan_results", "connect", "policy", "disconnect", "dns", "ipconfig",
// "ping") fail with ErrRejected.
func (c *Chip) RejectNext(op string, n int) {
	c.mu.Lock()
	c.reject[op] = n
	c.mu.Unlock()
}

func (c *Chip) rejected(op string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.reject[op] > 0 {
		c.reject[op]--
		return true
	}
	return false
}

// --- EventSource ---

func (c *Chip) Start() error {
	c.mu.Lock()
	c.started = true
	c.mu.Unlock()
	return nil
}

func (c *Chip) SetEventHandler(fn func(cc3000.Event)) {
	c.mu.Lock()
	c.handler = fn
	c.mu.Unlock()
}

func (c *Chip) ReadIRQ() bool { return true }

func (c *Chip) SetIRQEnabled(on bool) {}

func (c *Chip) emit(ev cc3000.Event) {
	c.mu.Lock()
	fn := c.handler
	c.mu.Unlock()
	if fn != nil {
		fn(ev)
	}
}

// --- Commander ---

func (c *Chip) SetScanParams(enableMs uint32, p cc3000.ScanPolicy) error {
	if c.rejected("scan_params") {
		return ErrRejected
	}
	if enableMs > 0 {
		c.mu.Lock()
		c.scanIdx = 0
		c.mu.Unlock()
	}
	return nil
}

func (c *Chip) ScanResults(out *cc3000.ScanResult) error {
	if c.rejected("scan_results") {
		return ErrRejected
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	*out = cc3000.ScanResult{NumNetworks: uint32(len(c.cfg.APs))}
	if c.scanIdx >= len(c.cfg.APs) {
		out.Status = 2 // no more results
		return nil
	}
	ap := c.cfg.APs[c.scanIdx]
	c.scanIdx++
	out.Status = 1
	out.Valid = true
	out.RSSI = ap.RSSI
	out.Security = ap.Security
	out.SSIDLen = uint8(copy(out.SSID[:], ap.SSID))
	out.BSSID = ap.BSSID
	return nil
}

func (c *Chip) SetConnectionPolicy(openAP, fastConnect, useProfiles bool) error {
	if c.rejected("policy") {
		return ErrRejected
	}
	return nil
}

// Connect acknowledges the command and, when the target network exists and
// the key matches, schedules the connect and DHCP events. An unknown SSID
// is still acknowledged: the radio just keeps looking, which is how the
// real chip behaves and what the driver's timeout path needs.
func (c *Chip) Connect(sec cc3000.SecurityMode, ssid, key string) error {
	if c.rejected("connect") {
		return ErrRejected
	}
	var target *AP
	for i := range c.cfg.APs {
		if c.cfg.APs[i].SSID == ssid {
			target = &c.cfg.APs[i]
			break
		}
	}
	if target == nil || target.Security != sec {
		return nil
	}
	if sec != cc3000.SecOpen && target.Key != key {
		return nil
	}
	c.mu.Lock()
	c.curSSID = ssid
	c.mu.Unlock()
	go func() {
		time.Sleep(c.cfg.ConnectLatency)
		c.mu.Lock()
		c.associated = true
		c.mu.Unlock()
		c.emit(cc3000.Event{Op: cc3000.EvtConnect, OK: true})
		time.Sleep(c.cfg.DHCPLatency)
		c.emit(cc3000.Event{Op: cc3000.EvtDHCP, OK: true})
	}()
	return nil
}

func (c *Chip) Disconnect() error {
	if c.rejected("disconnect") {
		return ErrRejected
	}
	c.mu.Lock()
	c.associated = false
	c.curSSID = ""
	c.mu.Unlock()
	c.emit(cc3000.Event{Op: cc3000.EvtDisconnect, OK: true})
	return nil
}

func (c *Chip) HostByName(name string) (uint32, error) {
	if c.rejected("dns") {
		return 0, ErrRejected
	}
	ip, ok := c.cfg.DNS[name]
	if !ok {
		return 0, ErrRejected
	}
	return uint32(ip[0])<<24 | uint32(ip[1])<<16 | uint32(ip[2])<<8 | uint32(ip[3]), nil
}

func (c *Chip) IPConfig(out *cc3000.IPConfigData) error {
	if c.rejected("ipconfig") {
		return ErrRejected
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	// The chip reports addresses little-endian; reverse the display-order
	// script values.
	storeRev4(&out.IP, c.cfg.IP)
	storeRev4(&out.Netmask, c.cfg.Netmask)
	storeRev4(&out.Gateway, c.cfg.Gateway)
	storeRev4(&out.DHCPServer, c.cfg.DHCPServer)
	storeRev4(&out.DNSServer, c.cfg.DNSServer)
	for i := range c.cfg.MAC {
		out.MAC[i] = c.cfg.MAC[len(c.cfg.MAC)-1-i]
	}
	out.SSID = [32]byte{}
	copy(out.SSID[:], c.curSSID)
	return nil
}

func (c *Chip) FirmwareVersion() (uint8, uint8, error) {
	return c.cfg.FirmwareMajor, c.cfg.FirmwareMinor, nil
}

func (c *Chip) MACAddress(out *[6]byte) error {
	*out = c.cfg.MAC
	return nil
}

// PingSend schedules a ping-report event once the simulated run finishes.
func (c *Chip) PingSend(addr uint32, attempts, size, timeoutMs uint32) error {
	if c.rejected("ping") {
		return ErrRejected
	}
	lost := c.cfg.PingLost
	if lost > attempts {
		lost = attempts
	}
	rtt := uint32(c.cfg.PingRTT / time.Millisecond)
	go func() {
		time.Sleep(time.Duration(attempts) * c.cfg.PingRTT)
		var data [20]byte
		putU32(data[:], 0, attempts)
		putU32(data[:], 4, attempts-lost)
		putU32(data[:], 8, rtt)
		putU32(data[:], 12, rtt)
		putU32(data[:], 16, rtt)
		c.emit(cc3000.Event{Op: cc3000.EvtPingReport, OK: true, Data: data[:]})
	}()
	return nil
}

func storeRev4(dst *[4]byte, src cc3000.IPAddr) {
	for i := range src {
		dst[i] = src[len(src)-1-i]
	}
}

func putU32(b []byte, off int, v uint32) {
	b[off] = byte(v)
	b[off+1] = byte(v >> 8)
	b[off+2] = byte(v >> 16)
	b[off+3] = byte(v >> 24)
}
