package cc3000

import (
	"bytes"
	"errors"
	"testing"
	"time"
)

// scriptSPI records every write and serves queued read buffers in order.
type scriptSPI struct {
	writes [][]byte
	reads  [][]byte
}

func (s *scriptSPI) Tx(w, r []byte) error {
	if len(w) > 0 {
		s.writes = append(s.writes, append([]byte(nil), w...))
	}
	if len(r) > 0 {
		if len(s.reads) == 0 {
			return errors.New("script exhausted")
		}
		copy(r, s.reads[0])
		s.reads = s.reads[1:]
	}
	return nil
}

func (s *scriptSPI) Transfer(b byte) (byte, error) { return 0, nil }

// pushEvent queues the two read steps of one HCI event frame: the length
// header, then the body.
func (s *scriptSPI) pushEvent(op uint16, payload []byte) {
	body := make([]byte, 4+len(payload))
	body[0] = hciTypeEvent
	body[1] = byte(op)
	body[2] = byte(op >> 8)
	body[3] = byte(len(payload))
	copy(body[4:], payload)
	s.reads = append(s.reads,
		[]byte{byte(len(body) >> 8), byte(len(body))},
		body,
	)
}

func pinSink() PinOut { return func(bool) {} }

func irqLow() PinIn { return func() bool { return false } }

func attachOK(func()) error { return nil }

func newScriptLink(t *testing.T, spi *scriptSPI) *SPILink {
	t.Helper()
	l, err := NewSPILink(SPILinkConfig{
		SPI:       spi,
		CS:        pinSink(),
		Enable:    pinSink(),
		IRQ:       irqLow(),
		AttachIRQ: attachOK,
	})
	if err != nil {
		t.Fatalf("NewSPILink: %v", err)
	}
	return l
}

func TestSPILinkConfigValidation(t *testing.T) {
	base := SPILinkConfig{
		SPI: &scriptSPI{}, CS: pinSink(), Enable: pinSink(), IRQ: irqLow(), AttachIRQ: attachOK,
	}

	c := base
	c.SPI = nil
	if _, err := NewSPILink(c); err != ErrNoSPI {
		t.Fatalf("no spi: err = %v", err)
	}
	c = base
	c.IRQ = nil
	if _, err := NewSPILink(c); err != ErrNoPins {
		t.Fatalf("no irq pin: err = %v", err)
	}
	c = base
	c.AttachIRQ = nil
	if _, err := NewSPILink(c); err != ErrNoIRQAttach {
		t.Fatalf("no attach: err = %v", err)
	}
}

func TestSPILinkBootTimeout(t *testing.T) {
	l, err := NewSPILink(SPILinkConfig{
		SPI:         &scriptSPI{},
		CS:          pinSink(),
		Enable:      pinSink(),
		IRQ:         func() bool { return true }, // never signals ready
		AttachIRQ:   attachOK,
		BootTimeout: 10 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("NewSPILink: %v", err)
	}
	if err := l.Start(); err != ErrBootTimeout {
		t.Fatalf("Start: err = %v, want ErrBootTimeout", err)
	}
}

func TestSPILinkCommandFraming(t *testing.T) {
	spi := &scriptSPI{}
	spi.pushEvent(0x0007, []byte{0, 9, 8, 7})
	l := newScriptLink(t, spi)

	resp := make([]byte, 8)
	n, err := l.Command(0x0007, []byte{0xAA, 0xBB, 0xCC}, resp)
	if err != nil {
		t.Fatalf("Command: %v", err)
	}
	if n != 4 || !bytes.Equal(resp[:n], []byte{0, 9, 8, 7}) {
		t.Fatalf("resp = %v (n=%d)", resp[:n], n)
	}

	// First write is the command frame: SPI write header, HCI command
	// header, args, padded to an even total.
	w := spi.writes[0]
	if len(w)%2 != 0 {
		t.Fatalf("frame length %d is odd", len(w))
	}
	if w[0] != spiOpWrite {
		t.Fatalf("spi op = %#x", w[0])
	}
	hciLen := int(w[1])<<8 | int(w[2])
	if hciLen != 4+3 {
		t.Fatalf("hci length = %d", hciLen)
	}
	if w[5] != hciTypeCommand || w[6] != 0x07 || w[7] != 0x00 || w[8] != 3 {
		t.Fatalf("hci header = %v", w[5:9])
	}
	if !bytes.Equal(w[9:12], []byte{0xAA, 0xBB, 0xCC}) {
		t.Fatalf("args = %v", w[9:12])
	}
}

func TestSPILinkCommandDispatchesUnsolicited(t *testing.T) {
	spi := &scriptSPI{}
	spi.pushEvent(EvtConnect, []byte{0})
	spi.pushEvent(0x0002, []byte{0})
	l := newScriptLink(t, spi)

	var seen []Event
	l.SetEventHandler(func(ev Event) { seen = append(seen, ev) })

	resp := make([]byte, 4)
	if _, err := l.Command(0x0002, nil, resp); err != nil {
		t.Fatalf("Command: %v", err)
	}
	if len(seen) != 1 || seen[0].Op != EvtConnect || !seen[0].OK {
		t.Fatalf("unsolicited events = %+v", seen)
	}
}

func TestSPILinkRejectsMalformedFrame(t *testing.T) {
	spi := &scriptSPI{}
	// Announces a frame whose body is not an HCI event.
	spi.reads = append(spi.reads, []byte{0, 6}, []byte{0x77, 0, 0, 0, 0, 0})
	l := newScriptLink(t, spi)

	resp := make([]byte, 4)
	if _, err := l.Command(0x0002, nil, resp); err != ErrBadFrame {
		t.Fatalf("err = %v, want ErrBadFrame", err)
	}
}
