package cc3000

import (
	"errors"
	"sync/atomic"
	"time"

	"tinygo.org/x/drivers"
)

// SPI framing bytes and HCI frame types used on the wire.
const (
	spiOpWrite = 0x01
	spiOpRead  = 0x03

	hciTypeCommand = 0x01
	hciTypeEvent   = 0x04
)

const (
	defaultBootTimeout = 2 * time.Second
	cmdResponseTimeout = 1 * time.Second
	irqPollInterval    = 50 * time.Microsecond
	// The chip needs a pause between enable assertion and the first write.
	firstWriteDelay = 100 * time.Millisecond
)

var (
	ErrNoSPI       = errors.New("cc3000: spi bus not set")
	ErrNoPins      = errors.New("cc3000: cs/enable/irq pin functions not set")
	ErrNoIRQAttach = errors.New("cc3000: irq attach function not set")
	ErrBootTimeout = errors.New("cc3000: chip did not signal ready")
	ErrCmdTimeout  = errors.New("cc3000: no response to command")
	ErrBadFrame    = errors.New("cc3000: malformed frame from chip")
)

// SPILinkConfig wires the link to the platform. The pin functions follow
// the rest of this codebase: the caller injects closures over whatever pin
// API the target has, and AttachIRQ must fail when the chosen pin cannot
// generate interrupts.
type SPILinkConfig struct {
	SPI    drivers.SPI
	CS     PinOut
	Enable PinOut
	IRQ    PinIn

	// AttachIRQ registers fn as the falling-edge handler for the chip's
	// interrupt line. Returning an error fails Configure.
	AttachIRQ func(fn func()) error

	// BootTimeout bounds Start's wait for the ready handshake. Default 2s.
	BootTimeout time.Duration
}

// SPILink is the chip transport over a mode-1, MSB-first SPI bus. It
// implements Link.
type SPILink struct {
	spi    drivers.SPI
	cs     PinOut
	en     PinOut
	irq    PinIn
	attach func(fn func()) error

	bootTimeout time.Duration

	handler    func(Event)
	irqEnabled atomic.Uint32
	cmdBusy    atomic.Uint32

	started bool

	tx [160]byte
	rx [160]byte
}

// NewSPILink validates the wiring and returns an unstarted link. The SPI
// bus itself must already be configured for the chip's mode and clock.
func NewSPILink(cfg SPILinkConfig) (*SPILink, error) {
	if cfg.SPI == nil {
		return nil, ErrNoSPI
	}
	if cfg.CS == nil || cfg.Enable == nil || cfg.IRQ == nil {
		return nil, ErrNoPins
	}
	if cfg.AttachIRQ == nil {
		return nil, ErrNoIRQAttach
	}
	bt := cfg.BootTimeout
	if bt <= 0 {
		bt = defaultBootTimeout
	}
	return &SPILink{
		spi:         cfg.SPI,
		cs:          cfg.CS,
		en:          cfg.Enable,
		irq:         cfg.IRQ,
		attach:      cfg.AttachIRQ,
		bootTimeout: bt,
	}, nil
}

func (l *SPILink) SetEventHandler(fn func(Event)) { l.handler = fn }

func (l *SPILink) ReadIRQ() bool { return l.irq() }

func (l *SPILink) SetIRQEnabled(on bool) { l.irqEnabled.Store(b2u(on)) }

// Start powers the chip and completes the boot handshake: the chip pulls
// the interrupt line low once its firmware is up. Fails if the line cannot
// be attached for interrupts or the handshake never arrives.
func (l *SPILink) Start() error {
	if l.started {
		return nil
	}
	if err := l.attach(l.onIRQ); err != nil {
		return err
	}

	l.cs(false)
	l.en(false)
	time.Sleep(10 * time.Millisecond)
	l.en(true)

	if !l.waitIRQLow(l.bootTimeout) {
		l.en(false)
		return ErrBootTimeout
	}
	time.Sleep(firstWriteDelay)

	l.started = true
	return nil
}

// Stop deasserts the enable line. The caller should have seen the
// can-shut-down event first.
func (l *SPILink) Stop() {
	l.en(false)
	l.started = false
}

// Command performs one synchronous exchange: write the command frame, then
// consume event frames until the command-complete event for op arrives.
// Unsolicited events read while waiting are handed to the event handler
// from this context. The interrupt path is fenced out for the duration.
func (l *SPILink) Command(op uint16, args []byte, resp []byte) (int, error) {
	l.cmdBusy.Store(1)
	defer l.cmdBusy.Store(0)

	if err := l.writeFrame(op, args); err != nil {
		return 0, err
	}

	deadline := time.Now().Add(cmdResponseTimeout)
	for {
		if !l.waitIRQLow(time.Until(deadline)) {
			return 0, ErrCmdTimeout
		}
		evOp, payload, err := l.readFrame()
		if err != nil {
			return 0, err
		}
		if evOp == op {
			n := copy(resp, payload)
			return n, nil
		}
		l.dispatch(evOp, payload)
		if time.Now().After(deadline) {
			return 0, ErrCmdTimeout
		}
	}
}

// onIRQ runs on the falling edge of the interrupt line. While a command
// exchange is in flight the synchronous path owns the bus and this returns
// immediately.
func (l *SPILink) onIRQ() {
	if l.cmdBusy.Load() == 1 || l.irqEnabled.Load() == 0 {
		return
	}
	evOp, payload, err := l.readFrame()
	if err != nil {
		return
	}
	l.dispatch(evOp, payload)
}

func (l *SPILink) dispatch(op uint16, payload []byte) {
	if l.handler == nil {
		return
	}
	ok := len(payload) > 0 && payload[0] == 0
	var data []byte
	if len(payload) > 1 {
		data = payload[1:]
	}
	l.handler(Event{Op: op, OK: ok, Data: data})
}

func (l *SPILink) waitIRQLow(limit time.Duration) bool {
	if limit <= 0 {
		return false
	}
	deadline := time.Now().Add(limit)
	for l.irq() {
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(irqPollInterval)
	}
	return true
}

// writeFrame sends an SPI write header followed by the HCI command frame.
// Frames are padded to an even length, a bus requirement.
func (l *SPILink) writeFrame(op uint16, args []byte) error {
	hciLen := 4 + len(args)
	total := 5 + hciLen
	if total%2 != 0 {
		total++ // pad byte
	}
	if total > len(l.tx) {
		return ErrBadFrame
	}
	b := l.tx[:total]
	for i := range b {
		b[i] = 0
	}
	b[0] = spiOpWrite
	b[1] = byte(hciLen >> 8)
	b[2] = byte(hciLen)
	// b[3], b[4] are busy bytes, zero.
	b[5] = hciTypeCommand
	b[6] = byte(op)
	b[7] = byte(op >> 8)
	b[8] = byte(len(args))
	copy(b[9:], args)

	l.cs(true)
	defer l.cs(false)
	if !l.waitIRQLow(cmdResponseTimeout) {
		return ErrCmdTimeout
	}
	return l.spi.Tx(b, nil)
}

// readFrame reads one HCI event frame. The read is a two-step exchange: a
// read header, then the announced payload.
func (l *SPILink) readFrame() (op uint16, payload []byte, err error) {
	l.cs(true)
	defer l.cs(false)

	hdr := l.tx[:3]
	hdr[0], hdr[1], hdr[2] = spiOpRead, 0, 0
	lenb := l.rx[:2]
	if err := l.spi.Tx(hdr, nil); err != nil {
		return 0, nil, err
	}
	if err := l.spi.Tx(nil, lenb); err != nil {
		return 0, nil, err
	}
	n := int(lenb[0])<<8 | int(lenb[1])
	if n < 4 || n > len(l.rx) {
		return 0, nil, ErrBadFrame
	}
	body := l.rx[:n]
	if err := l.spi.Tx(nil, body); err != nil {
		return 0, nil, err
	}
	if body[0] != hciTypeEvent {
		return 0, nil, ErrBadFrame
	}
	op = uint16(body[1]) | uint16(body[2])<<8
	plen := int(body[3])
	if 4+plen > n {
		return 0, nil, ErrBadFrame
	}
	return op, body[4 : 4+plen], nil
}
