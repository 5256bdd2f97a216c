package dma

import (
	"testing"

	"github.com/ardnew/softdma/dma/hal"
	"github.com/ardnew/softdma/dma/hal/sim"
)

// Peripheral data registers of the simulated loopback UART.
const (
	testTXData = hal.M480USCI0Base + hal.M480USCITXData
	testRXData = hal.M480USCI0Base + hal.M480USCIRXData
)

func newTestEngine(t *testing.T) (*Engine, *sim.Controller) {
	t.Helper()
	ctrl := sim.New(sim.Config{})
	return NewEngine(ctrl), ctrl
}

func memConfig(ch ChannelID, count uint32) ChannelConfig {
	return ChannelConfig{
		Channel:   ch,
		Request:   hal.RequestMemory,
		Direction: MemToMem,
		SrcMode:   AddressIncrement,
		DstMode:   AddressIncrement,
		Width:     Width8,
		Count:     count,
	}
}

// openMemCopy opens a session copying a buffer of count bytes on each
// channel and returns the destination buffers.
func openMemCopy(t *testing.T, e *Engine, ctrl *sim.Controller, mode Mode, counts map[ChannelID]uint32) (*Session, map[ChannelID][]byte) {
	t.Helper()
	ids := make([]ChannelID, 0, len(counts))
	for id := range counts {
		ids = append(ids, id)
	}
	s, err := e.Open(ids...)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := s.SetMode(mode); err != nil {
		t.Fatalf("SetMode() error = %v", err)
	}

	dsts := make(map[ChannelID][]byte, len(counts))
	for id, n := range counts {
		src := make([]byte, n)
		for i := range src {
			src[i] = byte(i + int(id))
		}
		dst := make([]byte, n)
		srcAddr, err := ctrl.Map(src)
		if err != nil {
			t.Fatalf("Map(src) error = %v", err)
		}
		dstAddr, err := ctrl.Map(dst)
		if err != nil {
			t.Fatalf("Map(dst) error = %v", err)
		}
		if err := s.Configure(memConfig(id, n)); err != nil {
			t.Fatalf("Configure(%d) error = %v", id, err)
		}
		if err := s.SetAddresses(id, srcAddr, dstAddr); err != nil {
			t.Fatalf("SetAddresses(%d) error = %v", id, err)
		}
		dsts[id] = dst
	}
	return s, dsts
}

// drain steps the controller until no channel is active.
func drain(ctrl *sim.Controller, limit int) int {
	for i := 0; i < limit; i++ {
		if !ctrl.Step() {
			return i + 1
		}
	}
	return limit
}
