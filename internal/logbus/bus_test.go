package logbus

import (
	"fmt"
	"testing"
)

func TestSnapshotKeepsInsertionOrder(t *testing.T) {
	b := New(8)
	for i := 0; i < 3; i++ {
		b.Log("info", fmt.Sprintf("m%d", i), nil)
	}
	snap := b.Snapshot()
	if len(snap) != 3 {
		t.Fatalf("snapshot has %d messages, want 3", len(snap))
	}
	for i, msg := range snap {
		data := msg.Data.(LogData)
		if want := fmt.Sprintf("m%d", i); data.Msg != want {
			t.Fatalf("snapshot[%d] = %q, want %q", i, data.Msg, want)
		}
	}
}

func TestRingDropsOldestWhenFull(t *testing.T) {
	b := New(4)
	for i := 0; i < 6; i++ {
		b.Log("info", fmt.Sprintf("m%d", i), nil)
	}
	snap := b.Snapshot()
	if len(snap) != 4 {
		t.Fatalf("snapshot has %d messages, want 4", len(snap))
	}
	if first := snap[0].Data.(LogData).Msg; first != "m2" {
		t.Fatalf("oldest kept = %q, want m2", first)
	}
	if last := snap[3].Data.(LogData).Msg; last != "m5" {
		t.Fatalf("newest = %q, want m5", last)
	}
}

func TestSubscribeReceivesNewMessages(t *testing.T) {
	b := New(8)
	ch, cancel := b.Subscribe(4)
	defer cancel()

	b.Publish("state", map[string]any{"running": true})
	msg := <-ch
	if msg.Type != "state" {
		t.Fatalf("type = %q, want state", msg.Type)
	}
}

func TestSlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	b := New(8)
	_, cancel := b.Subscribe(1)
	defer cancel()

	// Nobody reads; publishing must not block.
	for i := 0; i < 10; i++ {
		b.Log("info", "flood", nil)
	}
}

func TestCloseEndsSubscriptions(t *testing.T) {
	b := New(8)
	ch, cancel := b.Subscribe(1)
	defer cancel()

	b.Close()
	if _, ok := <-ch; ok {
		t.Fatal("channel still open after Close")
	}
	b.Log("info", "after close", nil)
	if len(b.Snapshot()) != 0 {
		t.Fatal("message recorded after Close")
	}
}
