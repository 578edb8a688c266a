package pic

import (
	"fmt"

	"github.com/projectacrn/vpic/iobus"
)

// I/O port addresses for the three windows this controller answers.
const (
	MasterCommandPort uint16 = 0x20
	MasterDataPort    uint16 = 0x21
	SlaveCommandPort  uint16 = 0xa0
	SlaveDataPort     uint16 = 0xa1
	ELCRMasterPort    uint16 = 0x4d0
	ELCRSlavePort     uint16 = 0x4d1
)

// HandleIO answers a byte-wide access to one of the controller's three
// 2-port windows (master, slave, ELCR). It implements iobus.PioDevice, and
// the same Controller value is registered for all three ranges by
// RegisterOn. Only 1-byte accesses are valid; anything else is rejected.
func (c *Controller) HandleIO(port uint16, direction uint8, size uint8, data []byte) error {
	if size != 1 {
		return fmt.Errorf("%w: port 0x%x size %d", ErrBadWidth, port, size)
	}
	if direction == iobus.DirOut && len(data) == 0 {
		return fmt.Errorf("pic: write to port 0x%x with empty data", port)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	switch port {
	case MasterCommandPort, MasterDataPort:
		return c.handleChip(c.master(), port == MasterDataPort, direction, data)
	case SlaveCommandPort, SlaveDataPort:
		return c.handleChip(c.slave(), port == SlaveDataPort, direction, data)
	case ELCRMasterPort:
		return c.handleELCR(c.master(), direction, data)
	case ELCRSlavePort:
		return c.handleELCR(c.slave(), direction, data)
	default:
		return fmt.Errorf("%w: 0x%x", ErrUnhandledPort, port)
	}
}

func (c *Controller) handleChip(ch *chip, dataPort bool, direction uint8, data []byte) error {
	if direction == iobus.DirIn {
		data[0] = c.readPort(ch, dataPort)
		return nil
	}

	var err error
	if dataPort {
		err = c.writeData(ch, data[0])
	} else {
		err = c.writeCommand(ch, data[0])
	}
	if ch.ready {
		c.notifyIntr()
	}
	return err
}

func (c *Controller) handleELCR(ch *chip, direction uint8, data []byte) error {
	if direction == iobus.DirIn {
		data[0] = c.readELCR(ch)
		return nil
	}
	c.writeELCR(ch, data[0])
	return nil
}

// RegisterOn wires the controller's three I/O windows onto bus, exactly the
// three ranges the original vpic_register_io_handler registers.
func (c *Controller) RegisterOn(bus *iobus.Bus) {
	bus.RegisterDevice(MasterCommandPort, MasterDataPort, c)
	bus.RegisterDevice(SlaveCommandPort, SlaveDataPort, c)
	bus.RegisterDevice(ELCRMasterPort, ELCRSlavePort, c)
}
