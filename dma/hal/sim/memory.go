package sim

import (
	"encoding/binary"
	"fmt"

	"github.com/ardnew/softdma/pkg"
)

type region struct {
	base uint32
	buf  []byte
}

func (r region) contains(addr, n uint32) bool {
	return addr >= r.base && uint64(addr)+uint64(n) <= uint64(r.base)+uint64(len(r.buf))
}

// Map implements hal.Memory. Regions are word aligned and never reused, so
// a stale address cannot alias a newer buffer.
func (c *Controller) Map(buf []byte) (uint32, error) {
	if len(buf) == 0 {
		return 0, fmt.Errorf("map empty buffer: %w", pkg.ErrInvalidParameter)
	}
	c.mutex.Lock()
	defer c.mutex.Unlock()

	size := (uint64(len(buf)) + 3) &^ 3
	end := uint64(c.cfg.MemoryBase) + uint64(c.cfg.MemorySize)
	if uint64(c.next)+size > end {
		return 0, fmt.Errorf("map %d bytes: %w", len(buf), pkg.ErrNoMemory)
	}
	addr := c.next
	c.next += uint32(size)
	c.regions = append(c.regions, region{base: addr, buf: buf})
	return addr, nil
}

// Unmap implements hal.Memory.
func (c *Controller) Unmap(addr uint32) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	for i, r := range c.regions {
		if r.base == addr {
			c.regions = append(c.regions[:i], c.regions[i+1:]...)
			return
		}
	}
}

// Attach maps a peripheral data register at addr.
func (c *Controller) Attach(addr uint32, d Device) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.devices[addr] = d
}

// loadLocked reads one element. fault is true for an unmapped address.
func (c *Controller) loadLocked(addr uint32, width int) (v uint32, ok, fault bool) {
	if d, found := c.devices[addr]; found {
		v, ok = d.ReadData(width)
		return v, ok, false
	}
	n := uint32(width / 8)
	for _, r := range c.regions {
		if !r.contains(addr, n) {
			continue
		}
		b := r.buf[addr-r.base:]
		switch width {
		case 8:
			v = uint32(b[0])
		case 16:
			v = uint32(binary.LittleEndian.Uint16(b))
		default:
			v = binary.LittleEndian.Uint32(b)
		}
		return v, true, false
	}
	return 0, false, true
}

// storeLocked writes one element, reporting false on a bus error.
func (c *Controller) storeLocked(addr uint32, width int, v uint32) bool {
	if d, found := c.devices[addr]; found {
		return d.WriteData(width, v)
	}
	n := uint32(width / 8)
	for _, r := range c.regions {
		if !r.contains(addr, n) {
			continue
		}
		b := r.buf[addr-r.base:]
		switch width {
		case 8:
			b[0] = byte(v)
		case 16:
			binary.LittleEndian.PutUint16(b, uint16(v))
		default:
			binary.LittleEndian.PutUint32(b, v)
		}
		return true
	}
	return false
}
