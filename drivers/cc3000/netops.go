package cc3000

import (
	"time"

	"cc3000-go/errcode"
	"cc3000-go/x/mathx"
)

const (
	connectRetryDelay = 10 * time.Millisecond
	maxSSIDLen        = 32
	maxPingPayload    = 1400
)

// waitFlag polls read until it reports true, sleeping poll between checks.
// A zero deadline means wait forever. Returns false on deadline expiry.
func waitFlag(read func() bool, deadline time.Time, poll time.Duration) bool {
	for !read() {
		if !deadline.IsZero() && time.Now().After(deadline) {
			return false
		}
		time.Sleep(poll)
	}
	return true
}

// Connect associates with the named network and waits for a DHCP lease.
// The whole operation (connect attempts plus DHCP wait) is bounded by
// timeout; timeout == 0 waits forever, which hangs permanently if the chip
// never signals completion. On success both the association and the lease
// are in place and an IP configuration snapshot has been captured.
//
// Auto and fast reconnect are disabled first, so the chip only associates
// with what it is told to.
func (d *Device) Connect(ssid string, sec SecurityMode, key string, timeout time.Duration) error {
	if !d.initialized {
		return errcode.NotInitialized
	}
	if d.HasDHCP() {
		return errcode.Precondition
	}
	if !sec.valid() {
		return errcode.Precondition
	}
	if len(ssid) == 0 || len(ssid) > maxSSIDLen {
		return errcode.Precondition
	}

	if err := d.cmd.SetConnectionPolicy(false, false, false); err != nil {
		return errcode.ChipRejected
	}

	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}

	// The chip can reject the connect command while it is still tearing
	// down previous state, so keep offering it until it is accepted or the
	// association shows up on its own.
	for !d.Connected() {
		time.Sleep(connectRetryDelay)
		var err error
		if sec == SecOpen {
			err = d.cmd.Connect(SecOpen, ssid, "")
		} else {
			err = d.cmd.Connect(sec, ssid, key)
		}
		if err == nil {
			break
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			return errcode.Timeout
		}
	}

	if !waitFlag(d.Connected, deadline, d.cfg.PollInterval) {
		return errcode.Timeout
	}
	if !waitFlag(d.HasDHCP, deadline, d.cfg.PollInterval) {
		return errcode.Timeout
	}

	if err := d.cmd.IPConfig(&d.info); err != nil {
		return errcode.ChipRejected
	}
	d.infoValid = true
	return nil
}

// Disconnect drops the association. Success mirrors the chip's immediate
// acknowledgement; the status flags clear when the disconnect event
// arrives.
func (d *Device) Disconnect() error {
	if !d.initialized {
		return errcode.NotInitialized
	}
	if err := d.cmd.Disconnect(); err != nil {
		return errcode.ChipRejected
	}
	return nil
}

// DNSLookup resolves hostname through the chip's resolver. The chip blocks
// until it answers or its internal timeout expires.
func (d *Device) DNSLookup(hostname string) (IPAddr, error) {
	var ip IPAddr
	if !d.initialized {
		return ip, errcode.NotInitialized
	}
	if !d.Connected() || !d.HasDHCP() {
		return ip, errcode.Precondition
	}
	if hostname == "" {
		return ip, errcode.Precondition
	}
	w, err := d.cmd.HostByName(hostname)
	if err != nil {
		return ip, errcode.Unavailable
	}
	return ipFromWord(w), nil
}

// Ping sends attempts echo requests of size bytes with perTry budget each,
// then returns the report the chip delivered asynchronously. The wait is
// attempts * perTry * PingWaitFactor: an upper-bound heuristic, not a
// completion signal, so a slow target can yield a partial report. At most
// one ping may be outstanding at a time.
func (d *Device) Ping(addr IPAddr, attempts, size uint32, perTry time.Duration) (PingReport, error) {
	var rep PingReport
	if !d.initialized {
		return rep, errcode.NotInitialized
	}
	if !d.Connected() || !d.HasDHCP() {
		return rep, errcode.Precondition
	}
	attempts = mathx.Max(attempts, 1)
	size = mathx.Clamp(size, 1, maxPingPayload)
	ms := uint32(perTry / time.Millisecond)

	d.ping.reset()
	if err := d.cmd.PingSend(addr.chipWord(), attempts, size, ms); err != nil {
		return rep, errcode.ChipRejected
	}

	time.Sleep(time.Duration(attempts) * perTry * time.Duration(d.cfg.PingWaitFactor))

	d.ping.snapshot(&rep)
	return rep, nil
}
