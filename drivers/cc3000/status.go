package cc3000

import "sync/atomic"

// linkState is the driver's view of the chip's asynchronous status.
// Every field is written only by the event dispatcher and read from the
// caller's goroutine, so each one is stored atomically. There is no lock:
// the flags are independent and eventual consistency is what the polling
// loops rely on.
type linkState struct {
	connected       atomic.Uint32
	dhcp            atomic.Uint32
	dhcpConfigured  atomic.Uint32
	smartConfigDone atomic.Uint32
	stopSmartConfig atomic.Uint32
	okToShutDown    atomic.Uint32

	dropped atomic.Uint32 // unrecognized events, diagnostics only
}

func (s *linkState) reset() {
	s.connected.Store(0)
	s.dhcp.Store(0)
	s.dhcpConfigured.Store(0)
	s.smartConfigDone.Store(0)
	s.stopSmartConfig.Store(0)
	s.okToShutDown.Store(0)
	s.dropped.Store(0)
}

func b2u(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

// pingBuffer holds the most recent ping report. A single report buffer is
// enough because at most one ping command may be outstanding; the fields
// are atomic because the dispatcher fills them from the event context while
// Ping is sleeping on the caller's side.
type pingBuffer struct {
	sent atomic.Uint32
	recv atomic.Uint32
	min  atomic.Uint32
	max  atomic.Uint32
	avg  atomic.Uint32
}

func (p *pingBuffer) reset() {
	p.sent.Store(0)
	p.recv.Store(0)
	p.min.Store(0)
	p.max.Store(0)
	p.avg.Store(0)
}

func (p *pingBuffer) store(sent, recv, min, max, avg uint32) {
	p.sent.Store(sent)
	p.recv.Store(recv)
	p.min.Store(min)
	p.max.Store(max)
	p.avg.Store(avg)
}

func (p *pingBuffer) snapshot(out *PingReport) {
	out.Sent = p.sent.Load()
	out.Received = p.recv.Load()
	out.MinRTT = p.min.Load()
	out.MaxRTT = p.max.Load()
	out.AvgRTT = p.avg.Load()
}
