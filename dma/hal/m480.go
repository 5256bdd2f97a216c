package hal

// Peripheral request sources of the M480 PDMA.
const (
	M480RequestUART0TX Request = 4
	M480RequestUART0RX Request = 5
	M480RequestUSCI0TX Request = 20
	M480RequestUSCI0RX Request = 21
)

// M480 peripheral data registers reachable from the PDMA.
const (
	M480UART0Base  uint32 = 0x4007_0000
	M480USCI0Base  uint32 = 0x400D_0000
	M480UARTTXData uint32 = 0x00 // UART_DAT (write side)
	M480UARTRXData uint32 = 0x00 // UART_DAT (read side)
	M480USCITXData uint32 = 0x30 // UUART_TXDAT
	M480USCIRXData uint32 = 0x34 // UUART_RXDAT
)

// M480 returns the register layout of the Nuvoton M480 peripheral DMA
// controller.
func M480() *Layout {
	return &Layout{
		Name:     "M480 PDMA",
		Channels: 16,

		DescriptorStride: 0x10,
		Control:          0x000,
		Source:           0x004,
		Destination:      0x008,

		ChannelEnable:          0x400,
		Stop:                   0x404,
		InterruptEnable:        0x418,
		InterruptStatus:        0x41C,
		AbortStatus:            0x420,
		DoneStatus:             0x424,
		TimeoutEnable:          0x434,
		TimeoutInterruptEnable: 0x438,

		TimeoutCounter: 0x440,
		TimeoutField:   Field{Shift: 0, Bits: 16},
		TimeoutPerReg:  2,

		RequestSelect: 0x480,
		RequestField:  Field{Shift: 0, Bits: 7},
		RequestPerReg: 4,

		OpMode:    Field{Shift: 0, Bits: 2},
		TxType:    Field{Shift: 2, Bits: 1},
		BurstSize: Field{Shift: 4, Bits: 3},
		SrcInc:    Field{Shift: 8, Bits: 2},
		DstInc:    Field{Shift: 10, Bits: 2},
		Width:     Field{Shift: 12, Bits: 2},
		Count:     Field{Shift: 16, Bits: 16},

		OpModeIdle:   0,
		OpModeBasic:  1,
		TxTypeBurst:  0,
		TxTypeSingle: 1,
		IncEnabled:   0,
		IncFixed:     3,

		WidthCodes: [3]uint32{0, 1, 2},
		BurstSizes: []uint32{128, 64, 32, 16, 8, 4, 2, 1},
		CountBias:  1,

		IntAbort:   1 << 0,
		IntDone:    1 << 1,
		IntTimeout: []uint32{1 << 8, 1 << 9}, // REQTOF0, REQTOF1
	}
}
