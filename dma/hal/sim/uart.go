package sim

import "sync"

// UART models a serial port whose TX pin is wired back to its RX pin.
//
// The transmit data register accepts one element per write and the receive
// data register yields bytes in the order they were sent. Only the low byte
// of each element travels on the line.
type UART struct {
	mutex     sync.Mutex
	line      []byte
	sent      int
	connected bool
	corrupt   map[int]byte
}

// NewUART creates a connected loopback UART.
func NewUART() *UART {
	return &UART{
		connected: true,
		corrupt:   make(map[int]byte),
	}
}

// AttachUART wires a loopback UART's data registers into the controller at
// txAddr and rxAddr. Equal addresses model a single data register that
// transmits on write and receives on read.
func (c *Controller) AttachUART(u *UART, txAddr, rxAddr uint32) {
	if txAddr == rxAddr {
		c.Attach(txAddr, uartData{u})
		return
	}
	c.Attach(txAddr, uartTX{u})
	c.Attach(rxAddr, uartRX{u})
}

// Disconnect breaks the TX to RX wire; transmitted bytes are lost.
func (u *UART) Disconnect() {
	u.mutex.Lock()
	defer u.mutex.Unlock()
	u.connected = false
}

// Connect restores the TX to RX wire.
func (u *UART) Connect() {
	u.mutex.Lock()
	defer u.mutex.Unlock()
	u.connected = true
}

// Corrupt flips the bits of mask in the index-th byte sent after the call.
func (u *UART) Corrupt(index int, mask byte) {
	u.mutex.Lock()
	defer u.mutex.Unlock()
	u.corrupt[u.sent+index] = mask
}

// Sent returns the number of bytes written to the transmit register.
func (u *UART) Sent() int {
	u.mutex.Lock()
	defer u.mutex.Unlock()
	return u.sent
}

func (u *UART) transmit(b byte) {
	u.mutex.Lock()
	defer u.mutex.Unlock()
	if mask, ok := u.corrupt[u.sent]; ok {
		b ^= mask
		delete(u.corrupt, u.sent)
	}
	u.sent++
	if u.connected {
		u.line = append(u.line, b)
	}
}

func (u *UART) receive() (byte, bool) {
	u.mutex.Lock()
	defer u.mutex.Unlock()
	if len(u.line) == 0 {
		return 0, false
	}
	b := u.line[0]
	u.line = u.line[1:]
	return b, true
}

type uartTX struct{ u *UART }

func (p uartTX) ReadData(int) (uint32, bool) { return 0, false }

func (p uartTX) WriteData(_ int, v uint32) bool {
	p.u.transmit(byte(v))
	return true
}

type uartRX struct{ u *UART }

func (p uartRX) ReadData(int) (uint32, bool) {
	b, ok := p.u.receive()
	return uint32(b), ok
}

func (p uartRX) WriteData(int, uint32) bool { return false }

type uartData struct{ u *UART }

func (p uartData) ReadData(width int) (uint32, bool) { return uartRX(p).ReadData(width) }

func (p uartData) WriteData(width int, v uint32) bool { return uartTX(p).WriteData(width, v) }
