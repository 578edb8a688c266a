package devices

// Common IRQ lines for devices (uint8 for consistency with PIC logic).
const (
	PIT_IRQ      uint8 = 0 // Programmable Interval Timer
	KEYBOARD_IRQ uint8 = 1 // Keyboard
	SERIAL_IRQ   uint8 = 4 // Serial Port 1 (COM1 typically uses IRQ4, COM2 IRQ3)
	RTC_IRQ      uint8 = 8 // Real-Time Clock (Slave IRQ0)
)

// Read/Write modes for PIT counter control word.
const (
	PIT_RW_LATCH byte = 0x00 // Latch count value command
	PIT_RW_LSB   byte = 0x01 // Read/Write LSB only
	PIT_RW_MSB   byte = 0x02 // Read/Write MSB only
	PIT_RW_LOHI  byte = 0x03 // Read/Write LSB then MSB
)

// RTC Constants
const (
	RTC_PORT_INDEX uint16 = 0x70 // RTC Index/Address Register
	RTC_PORT_DATA  uint16 = 0x71 // RTC Data Register

	RTC_REG_SECONDS       byte = 0x00
	RTC_REG_ALARM_SECONDS byte = 0x01
	RTC_REG_MINUTES       byte = 0x02
	RTC_REG_ALARM_MINUTES byte = 0x03
	RTC_REG_HOURS         byte = 0x04
	RTC_REG_ALARM_HOURS   byte = 0x05
	RTC_REG_DAY_OF_WEEK   byte = 0x06
	RTC_REG_DAY_OF_MONTH  byte = 0x07
	RTC_REG_MONTH         byte = 0x08
	RTC_REG_YEAR          byte = 0x09

	RTC_REG_A byte = 0x0A // Status Register A
	RTC_REG_B byte = 0x0B // Status Register B
	RTC_REG_C byte = 0x0C // Status Register C
	RTC_REG_D byte = 0x0D // Status Register D

	// RTC_REG_A bits
	RTC_A_UIP byte = 0x80 // Update In Progress (Read-Only)

	// RTC_REG_B bits
	RTC_B_SET  byte = 0x80 // SET bit - stops update cycle (1 inhibits update, 0 allows)
	RTC_B_PIE  byte = 0x40 // Periodic Interrupt Enable
	RTC_B_AIE  byte = 0x20 // Alarm Interrupt Enable
	RTC_B_UIE  byte = 0x10 // Update Ended Interrupt Enable
	RTC_B_SQWE byte = 0x08 // Square Wave Enable
	RTC_B_DM   byte = 0x04 // Data Mode (0=BCD, 1=Binary)
	RTC_B_2412 byte = 0x02 // 24/12 Hour Mode (0=12hr, 1=24hr)
	RTC_B_DSE  byte = 0x01 // Daylight Savings Enable

	// RTC_REG_C bits (read to clear)
	RTC_C_IRQF byte = 0x80 // Interrupt Request Flag (any of PF, AF, UF is 1)
	RTC_C_PF   byte = 0x40 // Periodic Interrupt Flag
	RTC_C_AF   byte = 0x20 // Alarm Interrupt Flag
	RTC_C_UF   byte = 0x10 // Update Ended Interrupt Flag

	// RTC_REG_D bits
	RTC_D_VRT byte = 0x80 // Valid RAM and Time (Read-Only, should be 1 if battery good)
)

// Serial Port Constants
const (
	COM1_PORT_BASE uint16 = 0x3F8 // Base address for COM1
	COM1_PORT_END  uint16 = 0x3FF // End address for COM1 (8 registers)

	// Offsets from base port
	RHR_THR_DLL uint16 = 0 // Receiver Holding Reg (R), Transmitter Holding Reg (W), Divisor Latch LSB (DLAB=1)
	IER_DLH     uint16 = 1 // Interrupt Enable Reg, Divisor Latch MSB (DLAB=1)
	IIR_FCR     uint16 = 2 // Interrupt ID Reg (R), FIFO Control Reg (W)
	LCR         uint16 = 3 // Line Control Register
	MCR         uint16 = 4 // Modem Control Register
	LSR         uint16 = 5 // Line Status Register
	MSR         uint16 = 6 // Modem Status Register
	SCR         uint16 = 7 // Scratch Register
)

// Line Control Register (LCR) bits
const (
	LCR_DLAB byte = 0x80 // Divisor Latch Access Bit
)

// Line Status Register (LSR) bits
const (
	LSR_DR   byte = 0x01 // Data Ready
	LSR_OE   byte = 0x02 // Overrun Error
	LSR_PE   byte = 0x04 // Parity Error
	LSR_FE   byte = 0x08 // Framing Error
	LSR_BI   byte = 0x10 // Break Interrupt
	LSR_THRE byte = 0x20 // Transmitter Holding Register Empty
	LSR_TEMT byte = 0x40 // Transmitter Empty
	LSR_ERF  byte = 0x80 // Error in RCVR FIFO (16750) / Reserved (16550)
)

// Interrupt Identification Register (IIR) bits (when read)
const (
	IIR_NO_INT_PENDING byte = 0x01 // No interrupt pending
	IIR_INT_ID_MASK    byte = 0x0E // Mask for interrupt ID bits
	IIR_RLS            byte = 0x06 // Receiver Line Status interrupt
	IIR_RDA            byte = 0x04 // Received Data Available interrupt
	IIR_THRE           byte = 0x02 // Transmitter Holding Register Empty interrupt
	IIR_MS             byte = 0x00 // Modem Status interrupt
	IIR_FIFO_ENABLED   byte = 0xC0 // Both bits set if FIFO enabled (16550+)
)

// Interrupt Enable Register (IER) bits
const (
	IER_RX_DATA_AVAILABLE byte = 0x01 // Enable Received Data Available Interrupt
	IER_THRE_ENABLE       byte = 0x02 // Enable Transmitter Holding Register Empty Interrupt
	IER_RX_LINE_STATUS    byte = 0x04 // Enable Receiver Line Status Interrupt
	IER_MODEM_STATUS      byte = 0x08 // Enable Modem Status Interrupt
)

// PIT Port Constants
const (
	PIT_PORT_COUNTER0 uint16 = 0x40
	PIT_PORT_COUNTER1 uint16 = 0x41
	PIT_PORT_COUNTER2 uint16 = 0x42
	PIT_PORT_COMMAND  uint16 = 0x43
	PIT_PORT_STATUS   uint16 = 0x61 // Used for PC speaker, Gate A20, NMI status etc. (Port B of 8255 PPI on original PC)
)

// Keyboard Controller Port Constants (8042 style)
const (
	KEYBOARD_PORT_DATA   uint16 = 0x60 // Data Register (read/write)
	KEYBOARD_PORT_STATUS uint16 = 0x64 // Status Register (read) / Command Register (write)
)
