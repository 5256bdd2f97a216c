package dma

import (
	"testing"

	"github.com/ardnew/softdma/dma/hal"
	"github.com/ardnew/softdma/dma/hal/sim"
)

func TestDecode(t *testing.T) {
	l := hal.M480()
	d := Decoder{Layout: l, Channels: 0b11}

	tests := []struct {
		name   string
		status hal.Status
		want   Outcome
	}{
		{"empty", hal.Status{}, Pending()},
		{"both done", hal.Status{Int: l.IntDone, Done: 0b11}, Done()},
		{"one done", hal.Status{Int: l.IntDone, Done: 0b01}, Pending()},
		{"other channel done", hal.Status{Int: l.IntDone, Done: 0b110}, Pending()},
		{"abort", hal.Status{Int: l.IntAbort, Abort: 0b10}, Abort(0b10)},
		{"abort over done", hal.Status{Int: l.IntAbort | l.IntDone, Abort: 0b01, Done: 0b11}, Abort(0b01)},
		{"abort over timeout", hal.Status{Int: l.IntAbort | 0x300, Abort: 0b11}, Abort(0b11)},
		{"abort keeps owned bits only", hal.Status{Int: l.IntAbort, Abort: 0b101}, Abort(0b01)},
		{"abort noise", hal.Status{Int: l.IntAbort, Abort: 0b100}, Pending()},
		{"abort noise then done", hal.Status{Int: l.IntAbort | l.IntDone, Abort: 0b100, Done: 0b11}, Done()},
		{"done over timeout", hal.Status{Int: l.IntDone | 0x100, Done: 0b11}, Done()},
		{"timeout channel 1", hal.Status{Int: 0x200}, Timeout(0b10)},
		{"timeout both", hal.Status{Int: 0x300}, Timeout(0b11)},
		{"unknown bit", hal.Status{Int: 0x8000}, Unrecognized(0x8000)},
		{"unknown with partial done", hal.Status{Int: l.IntDone | 0x10, Done: 0b01}, Unrecognized(l.IntDone | 0x10)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := d.Decode(tt.status); got != tt.want {
				t.Errorf("Decode(%+v) = %v, want %v", tt.status, got, tt.want)
			}
		})
	}
}

func TestDecodeForeignTimeout(t *testing.T) {
	l := hal.M480()
	d := Decoder{Layout: l, Channels: 0b1100}

	got := d.Decode(hal.Status{Int: 0x100})
	if got != Unrecognized(0x100) {
		t.Errorf("Decode() = %v, want %v", got, Unrecognized(0x100))
	}
}

func TestDemuxService(t *testing.T) {
	l := hal.M480()

	tests := []struct {
		name      string
		inject    hal.Status
		want      Outcome
		wantInt   uint32
		wantAbort uint32
		wantDone  uint32
	}{
		{
			name:   "done clears both",
			inject: hal.Status{Done: 0b11},
			want:   Done(),
		},
		{
			name:     "partial done clears nothing",
			inject:   hal.Status{Done: 0b01},
			want:     Pending(),
			wantInt:  l.IntDone,
			wantDone: 0b01,
		},
		{
			name:      "abort clears owned channels only",
			inject:    hal.Status{Abort: 0b101},
			want:      Abort(0b01),
			wantInt:   l.IntAbort,
			wantAbort: 0b100,
		},
		{
			name:     "abort leaves done flags",
			inject:   hal.Status{Abort: 0b10, Done: 0b11},
			want:     Abort(0b10),
			wantInt:  l.IntDone,
			wantDone: 0b11,
		},
		{
			name:   "timeout clears its flag",
			inject: hal.Status{Int: 0x200},
			want:   Timeout(0b10),
		},
		{
			name:   "unrecognized clears raw bits",
			inject: hal.Status{Int: 0x4000},
			want:   Unrecognized(0x4000),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := sim.New(sim.Config{})
			m := NewDemux(ctrl, 0b11)

			ctrl.Inject(tt.inject)
			if got := m.Service(); got != tt.want {
				t.Fatalf("Service() = %v, want %v", got, tt.want)
			}

			after := m.Snapshot()
			if after.Int != tt.wantInt {
				t.Errorf("InterruptStatus = %#x, want %#x", after.Int, tt.wantInt)
			}
			if after.Abort != tt.wantAbort {
				t.Errorf("AbortStatus = %#x, want %#x", after.Abort, tt.wantAbort)
			}
			if after.Done != tt.wantDone {
				t.Errorf("DoneStatus = %#x, want %#x", after.Done, tt.wantDone)
			}
		})
	}
}

func TestDemuxPairArrivesLater(t *testing.T) {
	ctrl := sim.New(sim.Config{})
	m := NewDemux(ctrl, 0b11)

	ctrl.Inject(hal.Status{Done: 0b10})
	if got := m.Service(); got.IsTerminal() {
		t.Fatalf("Service() = %v after one done flag, want pending", got)
	}
	ctrl.Inject(hal.Status{Done: 0b01})
	if got := m.Service(); got != Done() {
		t.Fatalf("Service() = %v after both done flags, want done", got)
	}
}
