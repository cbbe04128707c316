// Package cc3000 drives the TI CC3000 Wi-Fi network processor.
//
// The chip completes its slow operations (associate, DHCP, ping) by raising
// asynchronous events on an interrupt line; the driver folds those into a
// small set of atomic status flags and exposes plain blocking calls on top:
//
//	dev := cc3000.New(cmd, link)
//	err := dev.Init()
//	err = dev.Connect("mynet", cc3000.SecWPA2, "passphrase", 30*time.Second)
//
// A Device supports exactly one outstanding operation at a time; callers
// must not invoke Connect, Ping, DNSLookup or the scan calls concurrently.
// The only cross-context traffic is the event dispatcher writing status
// flags while a blocking call polls them.
package cc3000

import (
	"time"

	"cc3000-go/errcode"
)

// Config controls the driver's polling behaviour. All fields are optional.
type Config struct {
	// PollInterval is the sleep between status-flag checks in blocking
	// operations. Default 5 ms.
	PollInterval time.Duration
	// ScanSettle is added to the requested scan window before results are
	// fetched. The chip gives no scan-complete signal the driver waits on,
	// so this is a heuristic margin, not a guarantee. Default 500 ms.
	ScanSettle time.Duration
	// PingWaitFactor scales the attempts*timeout budget Ping sleeps for
	// while the report event arrives. Heuristic, as above. Default 2.
	PingWaitFactor uint32
}

func (c *Config) normalize() {
	if c.PollInterval <= 0 {
		c.PollInterval = 5 * time.Millisecond
	}
	if c.ScanSettle <= 0 {
		c.ScanSettle = 500 * time.Millisecond
	}
	if c.PingWaitFactor == 0 {
		c.PingWaitFactor = 2
	}
}

// Stats exposes diagnostic counters and the auxiliary status flags.
type Stats struct {
	DroppedEvents   uint32
	SmartConfigDone bool
	OKToShutDown    bool
}

// Device is a CC3000 instance behind a command/event transport.
type Device struct {
	cmd Commander
	ev  EventSource

	cfg Config

	st   linkState
	ping pingBuffer
	scan scanSession

	info      IPConfigData // chip-order snapshot taken on connect
	infoValid bool

	initialized bool
}

// New creates a Device. The transport is not touched until Init.
func New(cmd Commander, ev EventSource) *Device {
	return &Device{cmd: cmd, ev: ev}
}

// NewWithConfig creates a Device with explicit polling configuration.
func NewWithConfig(cmd Commander, ev EventSource, cfg Config) *Device {
	d := New(cmd, ev)
	d.cfg = cfg
	return d
}

// Init brings the chip up: resets the status registry, registers the event
// dispatcher and runs the transport's boot handshake. It is idempotent;
// calling it on an initialized Device returns nil immediately. Transport
// configuration failures (for example an interrupt-incapable IRQ pin) are
// returned as-is.
func (d *Device) Init() error {
	if d.initialized {
		return nil
	}
	d.cfg.normalize()
	d.st.reset()
	d.ping.reset()
	d.scan.reset()
	d.infoValid = false

	// Handler first: the chip may raise events during the boot handshake.
	d.ev.SetEventHandler(d.handleEvent)
	if err := d.ev.Start(); err != nil {
		return err
	}
	d.ev.SetIRQEnabled(true)

	d.initialized = true
	return nil
}

// Connected reports whether the chip holds an association with an AP.
func (d *Device) Connected() bool { return d.st.connected.Load() == 1 }

// HasDHCP reports whether DHCP has assigned an address.
func (d *Device) HasDHCP() bool { return d.st.dhcp.Load() == 1 }

func (d *Device) Stats() Stats {
	return Stats{
		DroppedEvents:   d.st.dropped.Load(),
		SmartConfigDone: d.st.smartConfigDone.Load() == 1,
		OKToShutDown:    d.st.okToShutDown.Load() == 1,
	}
}

// FirmwareVersion reads the service-pack version from the chip.
func (d *Device) FirmwareVersion() (major, minor uint8, err error) {
	if !d.initialized {
		return 0, 0, errcode.NotInitialized
	}
	major, minor, err = d.cmd.FirmwareVersion()
	if err != nil {
		return 0, 0, errcode.ChipRejected
	}
	return major, minor, nil
}

// MACAddress reads the chip's hardware address.
func (d *Device) MACAddress(out *[6]byte) error {
	if !d.initialized {
		return errcode.NotInitialized
	}
	if err := d.cmd.MACAddress(out); err != nil {
		return errcode.ChipRejected
	}
	return nil
}

// ConnectionInfo copies the IP configuration captured by the last
// successful Connect, with every address field reversed from the chip's
// little-endian layout into display order. It fails with Unavailable when
// the device is not connected or no snapshot exists.
func (d *Device) ConnectionInfo(out *ConnectionInfo) error {
	if !d.initialized {
		return errcode.NotInitialized
	}
	if !d.Connected() || !d.HasDHCP() || !d.infoValid {
		return errcode.Unavailable
	}
	out.IP = IPAddr(reverse4(d.info.IP))
	out.Netmask = IPAddr(reverse4(d.info.Netmask))
	out.Gateway = IPAddr(reverse4(d.info.Gateway))
	out.DHCPServer = IPAddr(reverse4(d.info.DHCPServer))
	out.DNSServer = IPAddr(reverse4(d.info.DNSServer))
	out.MAC = reverse6(d.info.MAC)
	out.SSID = cstr(d.info.SSID[:])
	return nil
}
