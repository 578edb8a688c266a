package pic

// ELCR write masks: the master's cascade line (IRQ2) and the two IRQs PC
// chipsets wire as edge-only (heartbeat timer IRQ0, keyboard IRQ1) can
// never be programmed level-triggered; on the slave, the real-time clock
// (IRQ8) and the FPU error line (IRQ13) are likewise fixed edge-only.
const (
	elcrMasterMask uint8 = 0xf8
	elcrSlaveMask  uint8 = 0xde
)

// readELCR and writeELCR back the ELCR I/O window (0x4d0/0x4d1). The
// controller's lock must be held.
func (c *Controller) readELCR(ch *chip) byte {
	return ch.elc
}

func (c *Controller) writeELCR(ch *chip, val byte) {
	if ch.isMaster {
		ch.elc = val & elcrMasterMask
	} else {
		ch.elc = val & elcrSlaveMask
	}
}
