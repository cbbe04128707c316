// Package bus is a small in-process pub/sub used to decouple services.
// Topics are string paths; subscription patterns may use "+" to match one
// level and a trailing "#" to match any remainder (including none).
// Retained messages are replayed to new subscribers whose pattern matches.
package bus

import (
	"context"
	"sync"

	"cc3000-go/x/conv"
)

const (
	WildcardOne = "+"
	WildcardAll = "#"
)

// Topic is a path of string tokens.
type Topic []string

// T builds a topic from its parts.
func T(parts ...string) Topic { return Topic(parts) }

func (t Topic) Equal(o Topic) bool {
	if len(t) != len(o) {
		return false
	}
	for i := range t {
		if t[i] != o[i] {
			return false
		}
	}
	return true
}

type Message struct {
	Topic    Topic
	Payload  any
	Retained bool
	ReplyTo  Topic
}

type Subscription struct {
	pattern Topic
	ch      chan *Message
	conn    *Connection
}

func (s *Subscription) Topic() Topic             { return s.pattern }
func (s *Subscription) Channel() <-chan *Message { return s.ch }
func (s *Subscription) Unsubscribe()             { s.conn.Unsubscribe(s) }

// node is a trie level keyed by subscription-pattern tokens. Retained
// messages live in the same trie, keyed by their concrete topic.
type node struct {
	children map[string]*node
	subs     []*Subscription
	retained *Message
}

func (n *node) child(tok string, create bool) *node {
	if n.children == nil {
		if !create {
			return nil
		}
		n.children = make(map[string]*node)
	}
	c, ok := n.children[tok]
	if !ok {
		if !create {
			return nil
		}
		c = &node{}
		n.children[tok] = c
	}
	return c
}

type Bus struct {
	mu   sync.RWMutex
	root *node
	qLen int
}

// NewBus creates a bus; queueLen is the per-subscription channel depth.
func NewBus(queueLen int) *Bus {
	if queueLen <= 0 {
		queueLen = 8
	}
	return &Bus{root: &node{}, qLen: queueLen}
}

func (b *Bus) NewMessage(t Topic, payload any, retained bool) *Message {
	return &Message{Topic: t, Payload: payload, Retained: retained}
}

// Publish delivers msg to every subscription whose pattern matches and, if
// retained, stores it at its concrete topic (nil payload clears).
func (b *Bus) Publish(msg *Message) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.deliver(b.root, msg.Topic, msg)

	if msg.Retained {
		n := b.root
		for _, tok := range msg.Topic {
			n = n.child(tok, true)
		}
		if msg.Payload == nil {
			n.retained = nil
		} else {
			n.retained = msg
		}
	}
}

// deliver walks the pattern trie against a concrete topic.
func (b *Bus) deliver(n *node, rest Topic, msg *Message) {
	if all := n.child(WildcardAll, false); all != nil {
		push(all.subs, msg)
	}
	if len(rest) == 0 {
		push(n.subs, msg)
		return
	}
	if c := n.child(rest[0], false); c != nil {
		b.deliver(c, rest[1:], msg)
	}
	if c := n.child(WildcardOne, false); c != nil {
		b.deliver(c, rest[1:], msg)
	}
}

func push(subs []*Subscription, msg *Message) {
	for _, sub := range subs {
		select {
		case sub.ch <- msg:
		default:
			// Queue full: drop the oldest so fresh state wins.
			select {
			case <-sub.ch:
			default:
			}
			select {
			case sub.ch <- msg:
			default:
			}
		}
	}
}

func (b *Bus) subscribe(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := b.root
	for _, tok := range sub.pattern {
		n = n.child(tok, true)
	}
	n.subs = append(n.subs, sub)

	b.replayRetained(b.root, sub.pattern, sub)
}

// replayRetained finds retained messages whose concrete topic matches the
// new subscription's pattern.
func (b *Bus) replayRetained(n *node, pattern Topic, sub *Subscription) {
	if len(pattern) == 0 {
		if n.retained != nil {
			push([]*Subscription{sub}, n.retained)
		}
		return
	}
	tok := pattern[0]
	switch tok {
	case WildcardAll:
		b.replayAll(n, sub)
	case WildcardOne:
		for _, c := range n.children {
			b.replayRetained(c, pattern[1:], sub)
		}
	default:
		if c := n.child(tok, false); c != nil {
			b.replayRetained(c, pattern[1:], sub)
		}
	}
}

func (b *Bus) replayAll(n *node, sub *Subscription) {
	if n.retained != nil {
		push([]*Subscription{sub}, n.retained)
	}
	for _, c := range n.children {
		b.replayAll(c, sub)
	}
}

func (b *Bus) unsubscribe(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := b.root
	var stack []*node
	for _, tok := range sub.pattern {
		c := n.child(tok, false)
		if c == nil {
			return
		}
		stack = append(stack, n)
		n = c
	}
	for i, s := range n.subs {
		if s == sub {
			n.subs = append(n.subs[:i], n.subs[i+1:]...)
			break
		}
	}
	// Prune empty nodes.
	for i := len(sub.pattern) - 1; i >= 0; i-- {
		parent := stack[i]
		child := parent.children[sub.pattern[i]]
		if len(child.subs) == 0 && len(child.children) == 0 && child.retained == nil {
			delete(parent.children, sub.pattern[i])
		} else {
			break
		}
	}
}

// Connection groups subscriptions under one owner so they can be torn down
// together.
type Connection struct {
	bus  *Bus
	mu   sync.Mutex
	subs []*Subscription
	id   string
	seq  uint32
}

func (b *Bus) NewConnection(id string) *Connection {
	return &Connection{bus: b, id: id}
}

func (c *Connection) NewMessage(t Topic, payload any, retained bool) *Message {
	return c.bus.NewMessage(t, payload, retained)
}

func (c *Connection) Publish(msg *Message) { c.bus.Publish(msg) }

func (c *Connection) Subscribe(pattern Topic) *Subscription {
	sub := &Subscription{
		pattern: pattern,
		ch:      make(chan *Message, c.bus.qLen),
		conn:    c,
	}
	c.bus.subscribe(sub)
	c.mu.Lock()
	c.subs = append(c.subs, sub)
	c.mu.Unlock()
	return sub
}

func (c *Connection) Unsubscribe(sub *Subscription) {
	c.bus.unsubscribe(sub)
	c.mu.Lock()
	for i, s := range c.subs {
		if s == sub {
			c.subs = append(c.subs[:i], c.subs[i+1:]...)
			break
		}
	}
	c.mu.Unlock()
	close(sub.ch)
}

// Request stamps msg with a fresh ReplyTo topic, subscribes to it and
// publishes the request. The caller owns the returned subscription and
// must Unsubscribe it.
func (c *Connection) Request(msg *Message) *Subscription {
	c.mu.Lock()
	c.seq++
	n := c.seq
	c.mu.Unlock()
	msg.ReplyTo = T("reply", c.id, string(conv.AppendUint(nil, n)))
	sub := c.Subscribe(msg.ReplyTo)
	c.bus.Publish(msg)
	return sub
}

// Reply answers a request on its ReplyTo topic. Requests without one are
// fire-and-forget; Reply ignores them.
func (c *Connection) Reply(req *Message, payload any, retained bool) {
	if len(req.ReplyTo) == 0 {
		return
	}
	c.bus.Publish(&Message{Topic: req.ReplyTo, Payload: payload, Retained: retained})
}

// RequestWait publishes msg as a request and blocks for the first reply or
// context cancellation.
func (c *Connection) RequestWait(ctx context.Context, msg *Message) (*Message, error) {
	sub := c.Request(msg)
	defer c.Unsubscribe(sub)
	select {
	case reply := <-sub.ch:
		return reply, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Disconnect closes all subscriptions owned by this connection.
func (c *Connection) Disconnect() {
	c.mu.Lock()
	subs := c.subs
	c.subs = nil
	c.mu.Unlock()
	for _, sub := range subs {
		c.bus.unsubscribe(sub)
		close(sub.ch)
	}
}
