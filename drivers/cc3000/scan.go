package cc3000

import (
	"time"

	"cc3000-go/errcode"
	"cc3000-go/x/mathx"
)

// Scan parameters fixed by the chip's radio. Dwell times are clamped into
// the window the firmware accepts.
const (
	scanChannels       = 16
	scanChannelTimeout = 2000 // ms per channel slot
	scanMinDwell       = 100  // ms
	scanMaxDwell       = 105  // ms
	scanProbeRequests  = 5
	scanChannelMask    = 0x1FFF
	scanRSSIThreshold  = -120
	scanSNRThreshold   = 0
	scanDefaultTxPower = 300
)

// ScanPolicy carries the per-scan radio parameters of the scan-params
// command. DefaultScanPolicy matches the values the chip vendor recommends.
type ScanPolicy struct {
	MinDwell       uint32
	MaxDwell       uint32
	ProbeRequests  uint32
	ChannelMask    uint32
	RSSIThreshold  int32
	SNRThreshold   uint32
	TxPower        uint32
	ChannelTimeout uint32 // applied to every channel slot
}

func DefaultScanPolicy() ScanPolicy {
	return ScanPolicy{
		MinDwell:       scanMinDwell,
		MaxDwell:       scanMaxDwell,
		ProbeRequests:  scanProbeRequests,
		ChannelMask:    scanChannelMask,
		RSSIThreshold:  scanRSSIThreshold,
		SNRThreshold:   scanSNRThreshold,
		TxPower:        scanDefaultTxPower,
		ChannelTimeout: scanChannelTimeout,
	}
}

func (p *ScanPolicy) clamp() {
	p.MinDwell = mathx.Clamp(p.MinDwell, 1, scanMaxDwell)
	p.MaxDwell = mathx.Clamp(p.MaxDwell, p.MinDwell, 2*scanMaxDwell)
	if p.ChannelTimeout == 0 {
		p.ChannelTimeout = scanChannelTimeout
	}
}

// scanSession is the cursor over the most recent scan. The fetch protocol
// returns one record ahead of the caller's position, so cur always holds
// the next record to hand out.
type scanSession struct {
	total     uint32
	retrieved uint32
	valid     bool
	cur       ScanResult
}

func (s *scanSession) reset() {
	s.total = 0
	s.retrieved = 0
	s.valid = false
	s.cur = ScanResult{}
}

// ScanAccessPoints surveys nearby networks. It blocks for the requested
// window (plus the configured settle margin) while the chip scans, fetches
// the first record to learn the network count, then halts scanning. The
// session becomes iterable with NextAccessPoint on success.
func (d *Device) ScanAccessPoints(window time.Duration) error {
	if !d.initialized {
		return errcode.NotInitialized
	}

	pol := DefaultScanPolicy()
	pol.clamp()
	ms := uint32(window / time.Millisecond)

	if err := d.cmd.SetScanParams(ms, pol); err != nil {
		return errcode.ChipRejected
	}

	// The chip offers no scan-complete event worth waiting on; sleeping for
	// the window plus a margin is the vendor-sanctioned approach.
	time.Sleep(window + d.cfg.ScanSettle)

	d.scan.reset()
	if err := d.cmd.ScanResults(&d.scan.cur); err != nil {
		return errcode.ChipRejected
	}
	d.scan.total = d.scan.cur.NumNetworks
	d.scan.valid = true

	// Stop scanning. Results already fetched stay retrievable even if this
	// is rejected.
	if err := d.cmd.SetScanParams(0, pol); err != nil {
		return errcode.ChipRejected
	}
	return nil
}

// NextAccessPoint copies the next scan record into out and advances the
// session. It returns Unavailable once the session is exhausted or was
// never populated.
//
// The chip's fetch protocol runs one record ahead: each successful call
// also pre-fetches the following record. If that pre-fetch is rejected the
// iteration ends early and the record just handed to the chip is lost,
// which mirrors the chip protocol's own behaviour.
func (d *Device) NextAccessPoint(out *AccessPointInfo) error {
	if !d.initialized {
		return errcode.NotInitialized
	}
	s := &d.scan
	if !s.valid || !s.cur.Valid {
		return errcode.Unavailable
	}
	if s.retrieved >= s.total {
		return errcode.Unavailable
	}

	n := int(s.cur.SSIDLen)
	if n > len(s.cur.SSID) {
		n = len(s.cur.SSID)
	}
	out.SSID = string(s.cur.SSID[:n])
	out.BSSID = s.cur.BSSID
	out.RSSI = s.cur.RSSI
	out.Security = s.cur.Security

	if err := d.cmd.ScanResults(&s.cur); err != nil {
		s.valid = false
		return errcode.Unavailable
	}
	s.retrieved++
	return nil
}
