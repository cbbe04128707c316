package cc3000

import (
	"bytes"
	"testing"
)

// fakeLink records the last command frame and answers with a canned
// response payload.
type fakeLink struct {
	lastOp   uint16
	lastArgs []byte
	resp     []byte
	err      error
}

func (f *fakeLink) Start() error                { return nil }
func (f *fakeLink) SetEventHandler(func(Event)) {}
func (f *fakeLink) ReadIRQ() bool               { return true }
func (f *fakeLink) SetIRQEnabled(bool)          {}

func (f *fakeLink) Command(op uint16, args, resp []byte) (int, error) {
	f.lastOp = op
	f.lastArgs = append(f.lastArgs[:0], args...)
	if f.err != nil {
		return 0, f.err
	}
	return copy(resp, f.resp), nil
}

func TestCommanderConnectPacking(t *testing.T) {
	fl := &fakeLink{resp: []byte{0}}
	c := NewCommander(fl)

	if err := c.Connect(SecWPA2, "net", "key99"); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if fl.lastOp != opWlanConnect {
		t.Fatalf("op = %#x", fl.lastOp)
	}
	a := fl.lastArgs
	if leU32(a, 0) != 0x1C {
		t.Fatalf("ssid offset = %d", leU32(a, 0))
	}
	if leU32(a, 4) != 3 {
		t.Fatalf("ssid len = %d", leU32(a, 4))
	}
	if leU32(a, 8) != uint32(SecWPA2) {
		t.Fatalf("security = %d", leU32(a, 8))
	}
	if leU32(a, 16) != 5 {
		t.Fatalf("key len = %d", leU32(a, 16))
	}
	tail := a[len(a)-8:]
	if !bytes.Equal(tail, []byte("netkey99")) {
		t.Fatalf("trailer = %q", tail)
	}
}

func TestCommanderScanParamsPacking(t *testing.T) {
	fl := &fakeLink{resp: []byte{0}}
	c := NewCommander(fl)

	p := DefaultScanPolicy()
	if err := c.SetScanParams(4000, p); err != nil {
		t.Fatalf("SetScanParams: %v", err)
	}
	a := fl.lastArgs
	if len(a) != 36+4*scanChannels {
		t.Fatalf("arg len = %d", len(a))
	}
	if leU32(a, 4) != 4000 {
		t.Fatalf("enable = %d", leU32(a, 4))
	}
	if leU32(a, 8) != p.MinDwell || leU32(a, 12) != p.MaxDwell {
		t.Fatal("dwell fields misplaced")
	}
	// Every channel slot carries the same timeout.
	for i := 0; i < scanChannels; i++ {
		if leU32(a, 36+4*i) != p.ChannelTimeout {
			t.Fatalf("channel slot %d = %d", i, leU32(a, 36+4*i))
		}
	}
}

func TestCommanderScanResultsParse(t *testing.T) {
	resp := make([]byte, 1+scanResultLen)
	resp[0] = 0 // status ok
	p := resp[1:]
	putU32(p, 0, 7) // networks
	putU32(p, 4, 1) // result status
	p[8] = 1 | 58<<1
	p[9] = byte(SecWPA2) | 4<<2
	copy(p[12:], "home")
	copy(p[44:], []byte{1, 2, 3, 4, 5, 6})

	fl := &fakeLink{resp: resp}
	c := NewCommander(fl)

	var res ScanResult
	if err := c.ScanResults(&res); err != nil {
		t.Fatalf("ScanResults: %v", err)
	}
	if res.NumNetworks != 7 || res.Status != 1 || !res.Valid {
		t.Fatalf("header = %+v", res)
	}
	if res.RSSI != 58 || res.Security != SecWPA2 || res.SSIDLen != 4 {
		t.Fatalf("record = %+v", res)
	}
	if string(res.SSID[:4]) != "home" || res.BSSID != [6]byte{1, 2, 3, 4, 5, 6} {
		t.Fatalf("identity = %+v", res)
	}
}

func TestCommanderStatusRejected(t *testing.T) {
	fl := &fakeLink{resp: []byte{0xFF}}
	c := NewCommander(fl)
	if err := c.Disconnect(); err != ErrBadStatus {
		t.Fatalf("err = %v, want ErrBadStatus", err)
	}
}

func TestCommanderHostByName(t *testing.T) {
	resp := make([]byte, 9)
	resp[0] = 0
	putU32(resp[1:], 0, 0) // resolver status
	putU32(resp[1:], 4, 0xC0A80117)
	fl := &fakeLink{resp: resp}
	c := NewCommander(fl)

	w, err := c.HostByName("router.lan")
	if err != nil {
		t.Fatalf("HostByName: %v", err)
	}
	if w != 0xC0A80117 {
		t.Fatalf("word = %#x", w)
	}
	if fl.lastOp != opGetHostByName {
		t.Fatalf("op = %#x", fl.lastOp)
	}
	if got := leU32(fl.lastArgs, 4); got != uint32(len("router.lan")) {
		t.Fatalf("name len = %d", got)
	}

	// Negative resolver status is a lookup failure.
	putU32(resp[1:], 0, 0xFFFFFFFF)
	if _, err := c.HostByName("nope"); err != ErrBadStatus {
		t.Fatalf("err = %v, want ErrBadStatus", err)
	}
}

func TestCommanderFirmwareAndMAC(t *testing.T) {
	fl := &fakeLink{resp: []byte{0, 1, 32}}
	c := NewCommander(fl)
	maj, min, err := c.FirmwareVersion()
	if err != nil || maj != 1 || min != 32 {
		t.Fatalf("version = %d.%d, %v", maj, min, err)
	}

	fl.resp = []byte{0, 1, 2, 3, 4, 5, 6}
	var mac [6]byte
	if err := c.MACAddress(&mac); err != nil {
		t.Fatalf("MACAddress: %v", err)
	}
	if mac != [6]byte{1, 2, 3, 4, 5, 6} {
		t.Fatalf("mac = %v", mac)
	}
}
