// Package wifi exposes the CC3000 driver over the message bus: a retained
// link-status topic plus request/reply command topics. All driver calls run
// on the service goroutine, which keeps the driver's one-outstanding-
// operation rule without any locking.
package wifi

import (
	"context"
	"time"

	"cc3000-go/bus"
	"cc3000-go/drivers/cc3000"
	"cc3000-go/errcode"
)

// Driver is the slice of the device the service drives. *cc3000.Device
// satisfies it; tests may substitute their own.
type Driver interface {
	Init() error
	ScanAccessPoints(window time.Duration) error
	NextAccessPoint(out *cc3000.AccessPointInfo) error
	Connect(ssid string, sec cc3000.SecurityMode, key string, timeout time.Duration) error
	Disconnect() error
	DNSLookup(hostname string) (cc3000.IPAddr, error)
	Connected() bool
	HasDHCP() bool
	ConnectionInfo(out *cc3000.ConnectionInfo) error
}

var (
	topicStatus = bus.T("wifi", "status")
	topicCmd    = bus.T("wifi", "cmd", bus.WildcardOne)
)

// Status is the retained payload on wifi/status.
type Status struct {
	Connected bool
	DHCP      bool
}

// ConnectReq asks for an association. Security is a mode name as accepted
// by cc3000.ParseSecurityMode. TimeoutMs == 0 uses the service default.
type ConnectReq struct {
	SSID      string
	Security  string
	Key       string
	TimeoutMs uint32
}

// ScanReq bounds a survey; WindowMs == 0 uses the service default.
type ScanReq struct {
	WindowMs uint32
}

// LookupReq resolves a hostname.
type LookupReq struct {
	Host string
}

// Reply answers any command on its ReplyTo topic.
type Reply struct {
	Code     errcode.Code
	Networks []cc3000.AccessPointInfo
	Info     *cc3000.ConnectionInfo
	Addr     string
}

type Config struct {
	// Poll is the link-state publish interval. Default 100 ms.
	Poll time.Duration
	// ScanWindow is the default survey window. Default 4 s.
	ScanWindow time.Duration
	// ConnectTimeout is the default association bound. Default 30 s.
	ConnectTimeout time.Duration
}

func (c *Config) normalize() {
	if c.Poll <= 0 {
		c.Poll = 100 * time.Millisecond
	}
	if c.ScanWindow <= 0 {
		c.ScanWindow = 4 * time.Second
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = 30 * time.Second
	}
}

type Service struct {
	conn *bus.Connection
	dev  Driver
	cfg  Config
	last Status
}

func New(conn *bus.Connection, dev Driver, cfg Config) *Service {
	cfg.normalize()
	return &Service{conn: conn, dev: dev, cfg: cfg}
}

// Run initializes the device and serves until ctx is done. Command
// handling and status publishing share one goroutine.
func (s *Service) Run(ctx context.Context) {
	sub := s.conn.Subscribe(topicCmd)
	defer sub.Unsubscribe()

	if err := s.dev.Init(); err != nil {
		s.publishStatus(true)
		return
	}
	s.publishStatus(true)

	tick := time.NewTicker(s.cfg.Poll)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
			s.publishStatus(false)
		case msg := <-sub.Channel():
			s.handle(msg)
			s.publishStatus(false)
		}
	}
}

func (s *Service) publishStatus(force bool) {
	cur := Status{Connected: s.dev.Connected(), DHCP: s.dev.HasDHCP()}
	if !force && cur == s.last {
		return
	}
	s.last = cur
	s.conn.Publish(&bus.Message{Topic: topicStatus, Payload: cur, Retained: true})
}

func (s *Service) handle(msg *bus.Message) {
	if len(msg.Topic) != 3 {
		s.reply(msg, Reply{Code: errcode.InvalidTopic})
		return
	}
	switch msg.Topic[2] {
	case "scan":
		s.reply(msg, s.doScan(msg.Payload))
	case "connect":
		s.reply(msg, s.doConnect(msg.Payload))
	case "disconnect":
		s.reply(msg, codeReply(s.dev.Disconnect()))
	case "lookup":
		s.reply(msg, s.doLookup(msg.Payload))
	case "info":
		s.reply(msg, s.doInfo())
	case "status":
		s.reply(msg, Reply{Code: errcode.OK})
	default:
		s.reply(msg, Reply{Code: errcode.InvalidTopic})
	}
}

func (s *Service) doScan(payload any) Reply {
	window := s.cfg.ScanWindow
	if req, ok := payload.(ScanReq); ok && req.WindowMs > 0 {
		window = time.Duration(req.WindowMs) * time.Millisecond
	}
	if err := s.dev.ScanAccessPoints(window); err != nil {
		return Reply{Code: errcode.Of(err)}
	}
	var nets []cc3000.AccessPointInfo
	for {
		var ap cc3000.AccessPointInfo
		if err := s.dev.NextAccessPoint(&ap); err != nil {
			break
		}
		nets = append(nets, ap)
	}
	return Reply{Code: errcode.OK, Networks: nets}
}

func (s *Service) doConnect(payload any) Reply {
	req, ok := payload.(ConnectReq)
	if !ok {
		return Reply{Code: errcode.InvalidParams}
	}
	sec, ok := cc3000.ParseSecurityMode(req.Security)
	if !ok {
		return Reply{Code: errcode.InvalidParams}
	}
	timeout := s.cfg.ConnectTimeout
	if req.TimeoutMs > 0 {
		timeout = time.Duration(req.TimeoutMs) * time.Millisecond
	}
	return codeReply(s.dev.Connect(req.SSID, sec, req.Key, timeout))
}

func (s *Service) doLookup(payload any) Reply {
	req, ok := payload.(LookupReq)
	if !ok || req.Host == "" {
		return Reply{Code: errcode.InvalidParams}
	}
	ip, err := s.dev.DNSLookup(req.Host)
	if err != nil {
		return Reply{Code: errcode.Of(err)}
	}
	return Reply{Code: errcode.OK, Addr: ip.String()}
}

func (s *Service) doInfo() Reply {
	var info cc3000.ConnectionInfo
	if err := s.dev.ConnectionInfo(&info); err != nil {
		return Reply{Code: errcode.Of(err)}
	}
	return Reply{Code: errcode.OK, Info: &info}
}

func (s *Service) reply(msg *bus.Message, r Reply) {
	if len(msg.ReplyTo) == 0 {
		return
	}
	s.conn.Publish(&bus.Message{Topic: msg.ReplyTo, Payload: r})
}

func codeReply(err error) Reply {
	return Reply{Code: errcode.Of(err)}
}
