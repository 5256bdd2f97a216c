package sim

import (
	"testing"
	"time"

	"github.com/ardnew/softdma/dma/hal"
)

func TestDispatchEdgeRaisedByHandler(t *testing.T) {
	c := New(Config{})
	l := c.Layout()

	calls := 0
	c.SetInterruptHandler(func() {
		calls++
		// Clearing a flag writes a register, and the first call raises a
		// second edge while the handler still runs.
		c.Write(l.DoneStatus, 0b1)
		if calls == 1 {
			c.Inject(hal.Status{Done: 0b1})
		}
	})

	finished := make(chan struct{})
	go func() {
		defer close(finished)
		c.Inject(hal.Status{Done: 0b1})
	}()

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("Inject did not return: handler re-entry deadlocked")
	}
	if calls != 2 {
		t.Errorf("handler calls = %d, want 2", calls)
	}
}

func TestDispatchConcurrentInject(t *testing.T) {
	c := New(Config{})
	l := c.Layout()

	calls := make(chan struct{}, 64)
	c.SetInterruptHandler(func() {
		c.Write(l.DoneStatus, c.Read(l.DoneStatus))
		calls <- struct{}{}
	})

	done := make(chan struct{})
	for range 8 {
		go func() {
			c.Inject(hal.Status{Done: 0b1})
			done <- struct{}{}
		}()
	}
	for range 8 {
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("concurrent Inject did not return")
		}
	}
	if len(calls) == 0 {
		t.Error("handler never ran")
	}
}

func TestUARTSharedDataRegister(t *testing.T) {
	c := New(Config{})
	u := NewUART()
	addr := hal.M480UART0Base + hal.M480UARTTXData
	c.AttachUART(u, addr, hal.M480UART0Base+hal.M480UARTRXData)

	d, ok := c.devices[addr]
	if !ok {
		t.Fatalf("no device at %#x", addr)
	}
	if !d.WriteData(8, 0x41) {
		t.Fatal("WriteData() rejected a byte")
	}
	v, ok := d.ReadData(8)
	if !ok || v != 0x41 {
		t.Errorf("ReadData() = %#x, %v; want 0x41, true", v, ok)
	}
	if _, ok := d.ReadData(8); ok {
		t.Error("ReadData() on an empty line reported data")
	}
	if u.Sent() != 1 {
		t.Errorf("Sent() = %d, want 1", u.Sent())
	}
}

func TestUARTCorruptAndDisconnect(t *testing.T) {
	u := NewUART()
	tx, rx := uartTX{u}, uartRX{u}

	u.Corrupt(1, 0x80)
	for _, b := range []byte{1, 2, 3} {
		tx.WriteData(8, uint32(b))
	}
	for i, want := range []byte{1, 0x82, 3} {
		v, ok := rx.ReadData(8)
		if !ok || byte(v) != want {
			t.Errorf("byte %d = %#x, %v; want %#x", i, v, ok, want)
		}
	}

	u.Disconnect()
	tx.WriteData(8, 4)
	if _, ok := rx.ReadData(8); ok {
		t.Error("byte crossed a disconnected wire")
	}
	if u.Sent() != 4 {
		t.Errorf("Sent() = %d, want 4", u.Sent())
	}
}
