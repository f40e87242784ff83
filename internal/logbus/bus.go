// Package logbus is the in-process log and event sink. Everything the
// harvester reports goes through here; the status server streams it out.
package logbus

import (
	"sync"
	"time"
)

type Message struct {
	Type string `json:"type"`
	Time int64  `json:"time"`
	Data any    `json:"data"`
}

type LogData struct {
	Level   string         `json:"level"`
	Msg     string         `json:"msg"`
	Account string         `json:"account,omitempty"`
	Fields  map[string]any `json:"fields,omitempty"`
}

// Bus keeps the most recent messages in a ring and fans new ones out to
// subscribers. Slow subscribers drop messages rather than block producers.
type Bus struct {
	mu     sync.RWMutex
	ring   []Message
	head   int
	filled bool
	subs   map[chan Message]struct{}
	closed bool
}

func New(capacity int) *Bus {
	if capacity <= 0 {
		capacity = 256
	}
	return &Bus{
		ring: make([]Message, capacity),
		subs: make(map[chan Message]struct{}),
	}
}

func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for ch := range b.subs {
		close(ch)
	}
	b.subs = nil
}

// Snapshot returns the buffered messages, oldest first.
func (b *Bus) Snapshot() []Message {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.filled {
		out := make([]Message, b.head)
		copy(out, b.ring[:b.head])
		return out
	}
	out := make([]Message, 0, len(b.ring))
	out = append(out, b.ring[b.head:]...)
	out = append(out, b.ring[:b.head]...)
	return out
}

func (b *Bus) Subscribe(buffer int) (<-chan Message, func()) {
	if buffer <= 0 {
		buffer = 64
	}
	ch := make(chan Message, buffer)
	b.mu.Lock()
	if b.closed {
		close(ch)
		b.mu.Unlock()
		return ch, func() {}
	}
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		if b.subs != nil {
			if _, ok := b.subs[ch]; ok {
				delete(b.subs, ch)
				close(ch)
			}
		}
		b.mu.Unlock()
	}
	return ch, cancel
}

func (b *Bus) Publish(typ string, data any) {
	msg := Message{Type: typ, Time: time.Now().UnixMilli(), Data: data}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.ring[b.head] = msg
	b.head++
	if b.head == len(b.ring) {
		b.head = 0
		b.filled = true
	}
	for ch := range b.subs {
		select {
		case ch <- msg:
		default:
		}
	}
	b.mu.Unlock()
}

func (b *Bus) Log(level, message string, fields map[string]any) {
	b.Publish("log", LogData{Level: level, Msg: message, Fields: fields})
}

// AccountLog tags a log line with the account it concerns.
func (b *Bus) AccountLog(level, username, message string, fields map[string]any) {
	b.Publish("log", LogData{Level: level, Msg: message, Account: username, Fields: fields})
}
