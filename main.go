package main

import (
	"context"
	"time"

	"cc3000-go/bus"
	"cc3000-go/drivers/cc3000"
	"cc3000-go/drivers/cc3000/simchip"
	"cc3000-go/services/wifi"
)

// Demo firmware shape: bus + wifi service over the simulated chip, with a
// heartbeat reporting link state. On hardware the simchip wiring is
// replaced by cc3000.NewSPILink + cc3000.NewCommander over the board's SPI
// and pin functions.
func main() {
	// Allow USB CDC to enumerate before we print.
	time.Sleep(2 * time.Second)
	println("boot")

	chip := simchip.New(simchip.Config{
		APs: []simchip.AP{
			{SSID: "demo-ap", RSSI: 60, Security: cc3000.SecOpen},
		},
		ConnectLatency: 200 * time.Millisecond,
		DHCPLatency:    300 * time.Millisecond,
		IP:             cc3000.IPAddr{10, 0, 0, 5},
		Netmask:        cc3000.IPAddr{255, 255, 255, 0},
		Gateway:        cc3000.IPAddr{10, 0, 0, 1},
	})
	dev := cc3000.New(chip, chip)

	b := bus.NewBus(8)
	svc := wifi.New(b.NewConnection("wifi"), dev, wifi.Config{})
	go svc.Run(context.Background())

	ui := b.NewConnection("ui")
	sub := ui.Subscribe(bus.T("wifi", "status"))

	// Kick off an association once the service is up.
	time.Sleep(100 * time.Millisecond)
	ui.Publish(&bus.Message{
		Topic:   bus.T("wifi", "cmd", "connect"),
		Payload: wifi.ConnectReq{SSID: "demo-ap", Security: "open"},
	})

	tick := time.NewTicker(1 * time.Second)
	defer tick.Stop()

	for {
		select {
		case msg := <-sub.Channel():
			st := msg.Payload.(wifi.Status)
			println("link: connected=", st.Connected, " dhcp=", st.DHCP)
		case t := <-tick.C:
			println(t.Format("15:04:05"), "Heartbeat")
		}
	}
}
