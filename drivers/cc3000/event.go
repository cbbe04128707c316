package cc3000

// Unsolicited event numbers from the chip's HCI event channel.
const (
	EvtConnect         = 0x8001
	EvtDisconnect      = 0x8002
	EvtKeepalive       = 0x8200
	EvtDHCP            = 0x8010
	EvtPingReport      = 0x8040
	EvtSmartConfigDone = 0x8080
	EvtCanShutDown     = 0x8100
	EvtDataReady       = 0x8400
)

// Event is one decoded chip-originated notification. Data is borrowed from
// the transport's receive buffer and is only valid for the duration of the
// handler call; the dispatcher copies what it needs.
type Event struct {
	Op   uint16
	OK   bool
	Data []byte
}

// handleEvent is the sole writer of the link state. It runs in the
// transport's interrupt context: no blocking, no allocation, no calls back
// into the driver's synchronous operations. Replaying an event leaves the
// state unchanged.
func (d *Device) handleEvent(ev Event) {
	switch ev.Op {
	case EvtConnect:
		d.st.connected.Store(1)
	case EvtDisconnect:
		// An AP drop invalidates the lease along with the association.
		d.st.connected.Store(0)
		d.st.dhcp.Store(0)
		d.st.dhcpConfigured.Store(0)
	case EvtDHCP:
		d.st.dhcp.Store(b2u(ev.OK))
		d.st.dhcpConfigured.Store(1)
	case EvtSmartConfigDone:
		d.st.smartConfigDone.Store(1)
		d.st.stopSmartConfig.Store(1)
	case EvtCanShutDown:
		d.st.okToShutDown.Store(1)
	case EvtPingReport:
		if len(ev.Data) >= pingReportLen {
			d.ping.store(
				leU32(ev.Data, 0),
				leU32(ev.Data, 4),
				leU32(ev.Data, 8),
				leU32(ev.Data, 12),
				leU32(ev.Data, 16),
			)
		}
	case EvtKeepalive, EvtDataReady:
		// Recognized, nothing to track.
	default:
		// Unknown events are dropped without error, per the chip contract.
		d.st.dropped.Add(1)
	}
}

const pingReportLen = 20
