package pic

import "log"

// notifyIntr is an idempotent poke toward the delivery layer. Called with
// the controller's lock held. It checks the slave first — a slave
// interrupt cascades onto the master's pin 2 — then the master, whose
// eligible interrupt is emitted per the VM's configured wire mode.
//
// The recursive call chain (notifyIntr -> setPinState(pin 2) -> notifyIntr)
// is bounded: the slave's intr_raised latch is set before the cascade pulse,
// so the nested notifyIntr's slave check is already false by the time it
// re-enters this function.
func (c *Controller) notifyIntr() {
	slave := c.slave()
	if pin := slave.highestIRRPin(); !slave.intrRaised && pin != -1 {
		slave.intrRaised = true
		c.setPinState(2, true)
		c.setPinState(2, false)
	}

	master := c.master()
	if pin := master.highestIRRPin(); !master.intrRaised && pin != -1 {
		master.intrRaised = true
		switch c.host.WireMode() {
		case WireINTR:
			if inj := c.host.VCPUInjector(); inj != nil {
				if err := inj.InjectExtINT(0); err != nil {
					log.Printf("pic: ExtINT injection into vcpu 0 failed: %v", err)
				}
			}
		default:
			if lapic := c.host.LocalAPIC(); lapic != nil {
				if err := lapic.SetLocalIntrLINT0(-1); err != nil {
					log.Printf("pic: LAPIC LINT0 set failed: %v", err)
				}
			}
			// vPIC master irq is wired to I/O APIC pin 0 (IRQ2), per
			// MPSpec section 5.1, to cover vPIC+vIOAPIC configurations.
			if ioapic := c.host.IOAPIC(); ioapic != nil {
				if err := ioapic.PulseIRQ(0); err != nil {
					log.Printf("pic: I/O APIC pin 0 pulse failed: %v", err)
				}
			}
		}
	}
}

// Pending returns the vector of the highest-priority pending interrupt, or
// ok=false if nothing is eligible. Callers (the CPU-injection layer) call
// this once notified, and are expected to call Accepted with the returned
// vector once the vCPU has taken the interrupt.
func (c *Controller) Pending() (vector uint8, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := c.master()
	pin := ch.highestIRRPin()
	if pin == 2 {
		ch = c.slave()
		pin = ch.highestIRRPin()
	}
	if pin == -1 {
		return 0, false
	}
	return ch.irqBase + uint8(pin), true
}

// pinAccepted runs the bookkeeping for a single chip's pin once its vector
// has been accepted by the CPU. Lock must be held.
func pinAccepted(ch *chip, pin int) {
	ch.intrRaised = false

	bit := uint8(1) << uint(pin)
	if ch.elc&bit == 0 {
		// Edge-triggered: the request is latched until accepted.
		ch.request &^= bit
	}

	if ch.aeoi {
		if ch.rotate {
			ch.lowprio = pin
		}
	} else {
		ch.service |= bit
	}
}

// Accepted tells the controller that the CPU has taken the interrupt with
// the given vector, so it can retire the corresponding ISR/IRR bookkeeping
// and re-check for any next-highest pending interrupt.
func (c *Controller) Accepted(vector uint8) {
	c.mu.Lock()
	defer c.mu.Unlock()

	pin := int(vector & 0x7)
	slave := c.slave()
	if vector&^0x7 == slave.irqBase {
		pinAccepted(slave, pin)
		// The vector originated from the slave: accept the cascade on
		// the master too.
		pinAccepted(c.master(), 2)
	} else {
		pinAccepted(c.master(), pin)
	}

	c.notifyIntr()
}
