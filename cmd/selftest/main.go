// cmd/selftest/main.go
//
// Interactive exerciser for the CC3000 driver against the simulated chip.
// Runs on the host; useful for poking at the driver without hardware:
//
//	scan
//	connect <ssid> <mode> [key]
//	disconnect
//	dns <hostname>
//	ping <a.b.c.d>
//	info
//	status
//	quit
package main

import (
	"bufio"
	"os"
	"time"

	"github.com/google/shlex"

	"cc3000-go/drivers/cc3000"
	"cc3000-go/drivers/cc3000/simchip"
	"cc3000-go/x/conv"
)

func logln(s string) { println(s) }

func main() {
	chip := simchip.New(simchip.Config{
		APs: []simchip.AP{
			{SSID: "corp-lab", BSSID: [6]byte{0xDE, 0xAD, 0xBE, 0xEF, 0x00, 0x01}, RSSI: 57, Security: cc3000.SecWPA2, Key: "hunter22"},
			{SSID: "openNet", BSSID: [6]byte{0xDE, 0xAD, 0xBE, 0xEF, 0x00, 0x02}, RSSI: 43, Security: cc3000.SecOpen},
			{SSID: "legacy", BSSID: [6]byte{0xDE, 0xAD, 0xBE, 0xEF, 0x00, 0x03}, RSSI: 21, Security: cc3000.SecWEP, Key: "0123456789"},
		},
		ConnectLatency: 150 * time.Millisecond,
		DHCPLatency:    250 * time.Millisecond,
		DNS: map[string]cc3000.IPAddr{
			"example.com": {93, 184, 216, 34},
			"router.lan":  {192, 168, 1, 1},
		},
		IP:            cc3000.IPAddr{192, 168, 1, 23},
		Netmask:       cc3000.IPAddr{255, 255, 255, 0},
		Gateway:       cc3000.IPAddr{192, 168, 1, 1},
		DHCPServer:    cc3000.IPAddr{192, 168, 1, 1},
		DNSServer:     cc3000.IPAddr{192, 168, 1, 1},
		MAC:           [6]byte{0x08, 0x00, 0x28, 0x01, 0x79, 0xB7},
		FirmwareMajor: 1,
		FirmwareMinor: 32,
		PingRTT:       12 * time.Millisecond,
	})

	dev := cc3000.NewWithConfig(chip, chip, cc3000.Config{
		ScanSettle: 50 * time.Millisecond,
	})
	if err := dev.Init(); err != nil {
		logln("init failed: " + err.Error())
		os.Exit(1)
	}
	maj, min, _ := dev.FirmwareVersion()
	logln("selftest ready, firmware " + itoa(int(maj)) + "." + itoa(int(min)))

	in := bufio.NewScanner(os.Stdin)
	for prompt(); in.Scan(); prompt() {
		args, err := shlex.Split(in.Text())
		if err != nil {
			logln("parse error: " + err.Error())
			continue
		}
		if len(args) == 0 {
			continue
		}
		if args[0] == "quit" || args[0] == "exit" {
			return
		}
		run(dev, args)
	}
}

func prompt() { print("> ") }

func run(dev *cc3000.Device, args []string) {
	switch args[0] {
	case "scan":
		if err := dev.ScanAccessPoints(200 * time.Millisecond); err != nil {
			logln("scan failed: " + err.Error())
			return
		}
		for {
			var ap cc3000.AccessPointInfo
			if err := dev.NextAccessPoint(&ap); err != nil {
				return
			}
			logln("  " + ap.SSID + "  " + cc3000.MACString(ap.BSSID) +
				"  rssi=" + itoa(int(ap.RSSI)) + "  " + ap.Security.String())
		}
	case "connect":
		if len(args) < 3 {
			logln("usage: connect <ssid> <mode> [key]")
			return
		}
		sec, ok := cc3000.ParseSecurityMode(args[2])
		if !ok {
			logln("unknown security mode " + args[2])
			return
		}
		key := ""
		if len(args) > 3 {
			key = args[3]
		}
		if err := dev.Connect(args[1], sec, key, 10*time.Second); err != nil {
			logln("connect failed: " + err.Error())
			return
		}
		logln("connected")
	case "disconnect":
		if err := dev.Disconnect(); err != nil {
			logln("disconnect failed: " + err.Error())
			return
		}
		logln("ok")
	case "dns":
		if len(args) < 2 {
			logln("usage: dns <hostname>")
			return
		}
		ip, err := dev.DNSLookup(args[1])
		if err != nil {
			logln("lookup failed: " + err.Error())
			return
		}
		logln(args[1] + " -> " + ip.String())
	case "ping":
		if len(args) < 2 {
			logln("usage: ping <a.b.c.d>")
			return
		}
		addr, ok := parseIPv4(args[1])
		if !ok {
			logln("bad address " + args[1])
			return
		}
		rep, err := dev.Ping(addr, 4, 32, 500*time.Millisecond)
		if err != nil {
			logln("ping failed: " + err.Error())
			return
		}
		logln("sent=" + itoa(int(rep.Sent)) + " recv=" + itoa(int(rep.Received)) +
			" avg=" + itoa(int(rep.AvgRTT)) + "ms")
	case "info":
		var info cc3000.ConnectionInfo
		if err := dev.ConnectionInfo(&info); err != nil {
			logln("info unavailable: " + err.Error())
			return
		}
		logln("ssid=" + info.SSID)
		logln("ip=" + info.IP.String() + " mask=" + info.Netmask.String() +
			" gw=" + info.Gateway.String())
		logln("dhcp=" + info.DHCPServer.String() + " dns=" + info.DNSServer.String() +
			" mac=" + cc3000.MACString(info.MAC))
	case "status":
		logln("connected=" + boolStr(dev.Connected()) + " dhcp=" + boolStr(dev.HasDHCP()))
	default:
		logln("unknown command " + args[0])
	}
}

func boolStr(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func itoa(n int) string {
	var buf [20]byte
	return string(conv.Itoa(buf[:], int64(n)))
}

func parseIPv4(s string) (cc3000.IPAddr, bool) {
	var a cc3000.IPAddr
	oct, idx, digits := 0, 0, 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
			oct = oct*10 + int(c-'0')
			digits++
			if oct > 255 || digits > 3 {
				return a, false
			}
		case c == '.':
			if digits == 0 || idx >= 3 {
				return a, false
			}
			a[idx] = byte(oct)
			idx++
			oct, digits = 0, 0
		default:
			return a, false
		}
	}
	if digits == 0 || idx != 3 {
		return a, false
	}
	a[3] = byte(oct)
	return a, true
}
