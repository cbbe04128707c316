package wifi

import (
	"context"
	"testing"
	"time"

	"cc3000-go/bus"
	"cc3000-go/drivers/cc3000"
	"cc3000-go/drivers/cc3000/simchip"
	"cc3000-go/errcode"
)

func simConfig() simchip.Config {
	return simchip.Config{
		APs: []simchip.AP{
			{SSID: "openNet", RSSI: 40, Security: cc3000.SecOpen},
			{SSID: "secureNet", RSSI: 55, Security: cc3000.SecWPA2, Key: "hunter22"},
		},
		ConnectLatency: 5 * time.Millisecond,
		DHCPLatency:    5 * time.Millisecond,
		DNS: map[string]cc3000.IPAddr{
			"example.com": {93, 184, 216, 34},
		},
		IP:         cc3000.IPAddr{192, 168, 1, 23},
		Netmask:    cc3000.IPAddr{255, 255, 255, 0},
		Gateway:    cc3000.IPAddr{192, 168, 1, 1},
		DHCPServer: cc3000.IPAddr{192, 168, 1, 1},
		DNSServer:  cc3000.IPAddr{192, 168, 1, 1},
		MAC:        [6]byte{0x08, 0x00, 0x28, 0x01, 0x79, 0xB7},
	}
}

// startService wires a simulated chip behind a running service and returns
// a client connection on the same bus.
func startService(t *testing.T) *bus.Connection {
	t.Helper()

	chip := simchip.New(simConfig())
	dev := cc3000.NewWithConfig(chip, chip, cc3000.Config{
		PollInterval: 2 * time.Millisecond,
		ScanSettle:   5 * time.Millisecond,
	})

	b := bus.NewBus(8)
	svc := New(b.NewConnection("wifi"), dev, Config{
		Poll:       10 * time.Millisecond,
		ScanWindow: 20 * time.Millisecond,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		svc.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	c := b.NewConnection("client")
	// The first retained status marks the service as subscribed and ready.
	waitStatus(t, c, Status{})
	return c
}

func request(t *testing.T, c *bus.Connection, op string, payload any) Reply {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	msg, err := c.RequestWait(ctx, c.NewMessage(bus.T("wifi", "cmd", op), payload, false))
	if err != nil {
		t.Fatalf("request %q: %v", op, err)
	}
	rep, ok := msg.Payload.(Reply)
	if !ok {
		t.Fatalf("request %q: payload %#v", op, msg.Payload)
	}
	return rep
}

func waitStatus(t *testing.T, c *bus.Connection, want Status) {
	t.Helper()
	sub := c.Subscribe(bus.T("wifi", "status"))
	defer sub.Unsubscribe()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case msg := <-sub.Channel():
			if st, ok := msg.Payload.(Status); ok && st == want {
				return
			}
		case <-deadline:
			t.Fatalf("status %+v never published", want)
		}
	}
}

func TestStatusRetainedOnStartup(t *testing.T) {
	c := startService(t)
	waitStatus(t, c, Status{Connected: false, DHCP: false})
}

func TestConnectCommand(t *testing.T) {
	c := startService(t)

	rep := request(t, c, "connect", ConnectReq{SSID: "openNet", Security: "open", TimeoutMs: 2000})
	if rep.Code != errcode.OK {
		t.Fatalf("connect reply = %v", rep.Code)
	}
	waitStatus(t, c, Status{Connected: true, DHCP: true})

	rep = request(t, c, "disconnect", nil)
	if rep.Code != errcode.OK {
		t.Fatalf("disconnect reply = %v", rep.Code)
	}
	waitStatus(t, c, Status{Connected: false, DHCP: false})
}

func TestConnectSecured(t *testing.T) {
	c := startService(t)
	rep := request(t, c, "connect", ConnectReq{SSID: "secureNet", Security: "wpa2", Key: "hunter22", TimeoutMs: 2000})
	if rep.Code != errcode.OK {
		t.Fatalf("connect reply = %v", rep.Code)
	}
}

func TestConnectBadRequest(t *testing.T) {
	c := startService(t)

	if rep := request(t, c, "connect", "not-a-request"); rep.Code != errcode.InvalidParams {
		t.Fatalf("bad payload reply = %v", rep.Code)
	}
	if rep := request(t, c, "connect", ConnectReq{SSID: "openNet", Security: "wpa9"}); rep.Code != errcode.InvalidParams {
		t.Fatalf("bad security reply = %v", rep.Code)
	}
}

func TestScanCommand(t *testing.T) {
	c := startService(t)

	rep := request(t, c, "scan", ScanReq{WindowMs: 20})
	if rep.Code != errcode.OK {
		t.Fatalf("scan reply = %v", rep.Code)
	}
	if len(rep.Networks) != 2 {
		t.Fatalf("networks = %d, want 2", len(rep.Networks))
	}
	names := map[string]bool{}
	for _, ap := range rep.Networks {
		names[ap.SSID] = true
	}
	if !names["openNet"] || !names["secureNet"] {
		t.Fatalf("networks = %+v", rep.Networks)
	}
}

func TestLookupCommand(t *testing.T) {
	c := startService(t)

	// Needs a connection first.
	if rep := request(t, c, "lookup", LookupReq{Host: "example.com"}); rep.Code != errcode.Precondition {
		t.Fatalf("disconnected lookup reply = %v", rep.Code)
	}

	if rep := request(t, c, "connect", ConnectReq{SSID: "openNet", Security: "open", TimeoutMs: 2000}); rep.Code != errcode.OK {
		t.Fatalf("connect reply = %v", rep.Code)
	}

	rep := request(t, c, "lookup", LookupReq{Host: "example.com"})
	if rep.Code != errcode.OK {
		t.Fatalf("lookup reply = %v", rep.Code)
	}
	if rep.Addr != "93.184.216.34" {
		t.Fatalf("addr = %q", rep.Addr)
	}

	if rep := request(t, c, "lookup", LookupReq{}); rep.Code != errcode.InvalidParams {
		t.Fatalf("empty host reply = %v", rep.Code)
	}
}

func TestInfoCommand(t *testing.T) {
	c := startService(t)

	if rep := request(t, c, "info", nil); rep.Code != errcode.Unavailable {
		t.Fatalf("disconnected info reply = %v", rep.Code)
	}

	if rep := request(t, c, "connect", ConnectReq{SSID: "openNet", Security: "open", TimeoutMs: 2000}); rep.Code != errcode.OK {
		t.Fatalf("connect reply = %v", rep.Code)
	}

	rep := request(t, c, "info", nil)
	if rep.Code != errcode.OK || rep.Info == nil {
		t.Fatalf("info reply = %+v", rep)
	}
	if rep.Info.SSID != "openNet" || rep.Info.IP.String() != "192.168.1.23" {
		t.Fatalf("info = %+v", rep.Info)
	}
}

func TestUnknownCommand(t *testing.T) {
	c := startService(t)
	if rep := request(t, c, "reboot", nil); rep.Code != errcode.InvalidTopic {
		t.Fatalf("unknown command reply = %v", rep.Code)
	}
}
