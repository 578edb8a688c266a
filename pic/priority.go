package pic

// highestISRPin returns the highest-priority pin with its ISR bit set, or -1
// if none. A pin masked by IMR is skipped while special mask mode is active,
// matching the 8259A rule that a masked IS bit is not cleared by a
// non-specific EOI under SMM.
func (c *chip) highestISRPin() int {
	found := -1
	c.pinForeach(func(pin int) bool {
		bit := uint8(1) << uint(pin)
		if c.service&bit == 0 {
			return true
		}
		if c.smm && c.mask&bit != 0 {
			return true
		}
		found = pin
		return false
	})
	return found
}

// highestIRRPin returns the highest-priority pending, unmasked, not-yet-in-
// service pin, or -1 if none.
func (c *chip) highestIRRPin() int {
	serviced := c.service
	if c.sfn && c.isMaster {
		// In special fully-nested mode a slave interrupt in service must
		// not lock out the master's own priority logic.
		serviced &^= 1 << 2
	}
	if c.smm {
		// Under special mask mode the ISR has no bearing on priority.
		serviced = 0
	}

	found := -1
	c.pinForeach(func(pin int) bool {
		bit := uint8(1) << uint(pin)
		if serviced&bit != 0 {
			// Same-or-higher priority interrupt already in service.
			return false
		}
		if c.request&bit != 0 && c.mask&bit == 0 {
			found = pin
			return false
		}
		return true
	})
	return found
}
