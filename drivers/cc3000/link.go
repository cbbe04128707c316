package cc3000

// PinIn reads the logical level of an input pin.
type PinIn func() bool

// PinOut drives an output pin.
type PinOut func(bool)

// EventSource is the transport-side collaborator: it owns the chip's
// enable/interrupt lines and delivers decoded asynchronous events to the
// registered handler. The handler is called from the transport's interrupt
// context and must not block.
type EventSource interface {
	// Start powers the chip and runs the boot handshake. It blocks until
	// the chip reports ready or the transport's boot timeout elapses.
	Start() error
	SetEventHandler(fn func(Event))
	ReadIRQ() bool
	SetIRQEnabled(on bool)
}

// Commander issues the vendor-defined chip commands and reports the chip's
// immediate acknowledgement. Completion of the slow operations (associate,
// DHCP, ping) arrives later through the EventSource.
type Commander interface {
	// SetScanParams starts (enableMs > 0) or stops (enableMs == 0) scanning.
	SetScanParams(enableMs uint32, p ScanPolicy) error
	// ScanResults fetches the next buffered record together with the total
	// network count. The chip advances its own cursor on every fetch.
	ScanResults(out *ScanResult) error
	SetConnectionPolicy(openAP, fastConnect, useProfiles bool) error
	Connect(sec SecurityMode, ssid, key string) error
	Disconnect() error
	// HostByName resolves a hostname; the top byte of the result is the
	// first octet of the address.
	HostByName(name string) (uint32, error)
	IPConfig(out *IPConfigData) error
	FirmwareVersion() (major, minor uint8, err error)
	MACAddress(out *[6]byte) error
	PingSend(addr uint32, attempts, size, timeoutMs uint32) error
}

// Link is the raw command/event transport: an EventSource plus a
// synchronous command exchange. The SPI implementation lives in spilink.go;
// tests and host builds use the simulated chip instead.
type Link interface {
	EventSource
	// Command writes one command frame and blocks for the matching
	// command-complete payload, which is copied into resp. Unsolicited
	// events received while waiting are dispatched to the handler.
	Command(op uint16, args []byte, resp []byte) (int, error)
}
