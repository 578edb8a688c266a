package devices

import (
	"fmt"
	"io"
	"log"
	"sync"

	"github.com/projectacrn/vpic/iobus"
	"github.com/projectacrn/vpic/pic"
)

const (
	IODirectionIn  = iobus.DirIn
	IODirectionOut = iobus.DirOut
)

// SerialPortDevice implements a basic 16550A UART on COM1.
type SerialPortDevice struct {
	outputWriter io.Writer
	irq          *pic.Controller
	lock         sync.Mutex

	thrDll byte // THR / divisor latch low (DLAB=1)
	ierDlh byte // IER, live only when DLAB=0
	dlh    byte // divisor latch high, live only when DLAB=1
	iirFcr byte // IIR (read) / FCR (write)
	lcr    byte
	mcr    byte
	lsr    byte
	msr    byte
	scr    byte

	dlabActive bool
}

// NewSerialPortDevice creates a SerialPortDevice that writes transmitted
// bytes to writer and pulses irq's COM1 line on transmitter-empty.
func NewSerialPortDevice(writer io.Writer, irq *pic.Controller) *SerialPortDevice {
	return &SerialPortDevice{
		outputWriter: writer,
		irq:          irq,
		lsr:          LSR_THRE | LSR_TEMT,
		iirFcr:       IIR_NO_INT_PENDING,
	}
}

// HandleIO processes I/O operations for the COM1 register block (0x3f8-0x3ff).
func (s *SerialPortDevice) HandleIO(port uint16, direction uint8, size uint8, data []byte) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if size != 1 {
		return fmt.Errorf("SerialPortDevice: I/O size %d not supported for port 0x%x, only 1-byte supported", size, port)
	}
	offset := port - COM1_PORT_BASE

	switch direction {
	case IODirectionOut:
		return s.writeRegister(offset, data[0])
	case IODirectionIn:
		val, err := s.readRegister(offset)
		if err != nil {
			return err
		}
		data[0] = val
		return nil
	default:
		return fmt.Errorf("SerialPortDevice: invalid I/O direction %d for port 0x%x", direction, port)
	}
}

func (s *SerialPortDevice) writeRegister(offset uint16, val byte) error {
	switch offset {
	case RHR_THR_DLL:
		if s.dlabActive {
			s.thrDll = val
			return nil
		}
		if _, err := s.outputWriter.Write([]byte{val}); err != nil {
			return fmt.Errorf("SerialPortDevice: write to output: %w", err)
		}
		// Transmit completes instantly in this model: THR and the
		// transmitter are both empty again right away.
		s.lsr |= LSR_THRE | LSR_TEMT
		if s.ierDlh&IER_THRE_ENABLE != 0 && s.irq != nil {
			if err := s.irq.Pulse(int(SERIAL_IRQ)); err != nil {
				log.Printf("SerialPortDevice: pulse IRQ%d failed: %v", SERIAL_IRQ, err)
			}
		}
	case IER_DLH:
		if s.dlabActive {
			s.dlh = val
		} else {
			s.ierDlh = val
		}
	case IIR_FCR:
		s.iirFcr = val
	case LCR:
		s.lcr = val
		s.dlabActive = val&LCR_DLAB != 0
	case MCR:
		s.mcr = val
	case SCR:
		s.scr = val
	default:
		return fmt.Errorf("SerialPortDevice: unhandled OUT to offset 0x%x, value 0x%x", offset, val)
	}
	return nil
}

func (s *SerialPortDevice) readRegister(offset uint16) (byte, error) {
	switch offset {
	case RHR_THR_DLL:
		if s.dlabActive {
			return s.thrDll, nil
		}
		s.lsr &^= LSR_DR
		return 0x0, nil // no receive path modeled; RHR always empty
	case IER_DLH:
		if s.dlabActive {
			return s.dlh, nil
		}
		return s.ierDlh, nil
	case IIR_FCR:
		val := s.iirFcr
		s.iirFcr = IIR_NO_INT_PENDING // reading IIR clears the pending indication
		return val, nil
	case LCR:
		return s.lcr, nil
	case MCR:
		return s.mcr, nil
	case LSR:
		return s.lsr, nil
	case MSR:
		return 0x00, nil
	case SCR:
		return s.scr, nil
	default:
		return 0, fmt.Errorf("SerialPortDevice: unhandled IN from offset 0x%x", offset)
	}
}
