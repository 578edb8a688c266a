package devices

import (
	"fmt"
	"log"
	"sync"

	"github.com/projectacrn/vpic/pic"
)

// PITDevice implements a basic 8254 Programmable Interval Timer. Counter 0
// drives IRQ0; counters 1 (RAM refresh) and 2 (PC speaker) are modeled for
// register compatibility only and are not wired to a tick source.
type PITDevice struct {
	irq  *pic.Controller
	lock sync.Mutex

	counters [3]pitCounterState

	// readWriteLatch tracks which half of a 16-bit access is next for each
	// counter: 0 expects LSB, 1 expects MSB.
	readWriteLatch [3]byte
}

type pitCounterState struct {
	value   uint16
	latch   uint16
	reload  uint16
	mode    byte // operating mode 0-5
	rwMode  byte // PIT_RW_LATCH / PIT_RW_LSB / PIT_RW_MSB / PIT_RW_LOHI
	bcdMode bool
}

// NewPITDevice creates a PITDevice with the BIOS-default power-on state:
// all three counters in mode 3 (square wave), binary, LOHI access.
func NewPITDevice(irq *pic.Controller) *PITDevice {
	p := &PITDevice{irq: irq}
	for i := range p.counters {
		p.counters[i].mode = 0x3
		p.counters[i].rwMode = 0x3
	}
	return p
}

// HandleIO processes port I/O for the counter ports (0x40-0x42), the
// command register (0x43), and the speaker/gate-A20 status port (0x61).
func (p *PITDevice) HandleIO(port uint16, direction uint8, size uint8, data []byte) error {
	p.lock.Lock()
	defer p.lock.Unlock()

	if size != 1 {
		return fmt.Errorf("PITDevice: I/O size %d not supported for port 0x%x, only 1-byte supported", size, port)
	}

	val := byte(0)
	if direction == IODirectionOut {
		val = data[0]
	}

	switch port {
	case PIT_PORT_COUNTER0, PIT_PORT_COUNTER1, PIT_PORT_COUNTER2:
		counterIndex := int(port - PIT_PORT_COUNTER0)
		if direction == IODirectionOut {
			p.writeCounterPort(counterIndex, val)
		} else {
			data[0] = p.readCounterPort(counterIndex)
		}
	case PIT_PORT_COMMAND:
		if direction == IODirectionOut {
			p.writeCommandPort(val)
		} else {
			return fmt.Errorf("PITDevice: read from command port 0x%x is undefined", port)
		}
	case PIT_PORT_STATUS: // 0x61, PC speaker / gate A20
		if direction == IODirectionOut {
			// Speaker gating and A20 control aren't emulated; acknowledge the write.
		} else {
			data[0] = 0x20 // gate A20 reported high, all else low
		}
	default:
		return fmt.Errorf("PITDevice: unhandled I/O to port 0x%x, direction %d", port, direction)
	}
	return nil
}

func (p *PITDevice) writeCounterPort(index int, val byte) {
	counter := &p.counters[index]

	switch counter.rwMode {
	case PIT_RW_LATCH:
		log.Printf("PITDevice: write to counter %d while latched, ignoring", index)
	case PIT_RW_LSB:
		counter.reload = uint16(val)
		counter.value = counter.reload
	case PIT_RW_MSB:
		counter.reload = uint16(val) << 8
		counter.value = counter.reload
	case PIT_RW_LOHI:
		if p.readWriteLatch[index] == 0 {
			counter.reload = uint16(val)
			p.readWriteLatch[index] = 1
		} else {
			counter.reload |= uint16(val) << 8
			counter.value = counter.reload
			p.readWriteLatch[index] = 0
		}
	}
}

func (p *PITDevice) readCounterPort(index int) byte {
	counter := &p.counters[index]

	if counter.rwMode == PIT_RW_LATCH {
		if p.readWriteLatch[index] == 0 {
			p.readWriteLatch[index] = 1
			return byte(counter.latch & 0xff)
		}
		p.readWriteLatch[index] = 0
		return byte(counter.latch >> 8)
	}

	switch counter.rwMode {
	case PIT_RW_MSB:
		return byte(counter.value >> 8)
	case PIT_RW_LOHI:
		if p.readWriteLatch[index] == 0 {
			p.readWriteLatch[index] = 1
			return byte(counter.value & 0xff)
		}
		p.readWriteLatch[index] = 0
		return byte(counter.value >> 8)
	default: // PIT_RW_LSB and any unexpected mode
		return byte(counter.value & 0xff)
	}
}

func (p *PITDevice) writeCommandPort(val byte) {
	counterIndex := int((val >> 6) & 0x3)
	rwMode := (val >> 4) & 0x3
	opMode := (val >> 1) & 0x7
	bcdMode := val&0x1 != 0

	if counterIndex == 0x3 {
		log.Printf("PITDevice: read-back command not implemented")
		return
	}

	if rwMode == PIT_RW_LATCH {
		p.counters[counterIndex].latch = p.counters[counterIndex].value
		p.counters[counterIndex].rwMode = PIT_RW_LATCH
		p.readWriteLatch[counterIndex] = 0
		return
	}

	p.counters[counterIndex].rwMode = rwMode
	p.counters[counterIndex].mode = opMode
	p.counters[counterIndex].bcdMode = bcdMode
	p.readWriteLatch[counterIndex] = 0
}

// Tick fires counter 0's output once per call, matching the BIOS default of
// mode 3 (square wave) continuously reloading from its programmed count.
func (p *PITDevice) Tick() {
	p.lock.Lock()
	defer p.lock.Unlock()

	if p.irq == nil {
		return
	}
	if err := p.irq.Pulse(int(PIT_IRQ)); err != nil {
		log.Printf("PITDevice: pulse IRQ%d failed: %v", PIT_IRQ, err)
	}
}
