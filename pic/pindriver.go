package pic

import "log"

// setPinState is an internal helper: the controller's lock must already be
// held. pin is an absolute 0..15 line; 0..7 are the master's, 8..15 the
// slave's (pin 2 on the master is the fixed cascade input and is never
// driven by an external device, though nothing stops a caller from trying).
func (c *Controller) setPinState(pin int, asserted bool) {
	ch := c.chips[pin>>3]
	local := pin & 0x7

	oldcnt := ch.acnt[local]
	if asserted {
		ch.acnt[local]++
	} else {
		ch.acnt[local]--
	}
	newcnt := ch.acnt[local]

	if newcnt < 0 {
		log.Printf("pic: pin %d: bad assertion count %d", pin, newcnt)
	}

	level := ch.elc&(1<<uint(local)) != 0
	bit := uint8(1) << uint(local)

	switch {
	case (oldcnt == 0 && newcnt == 1) || (newcnt > 0 && level):
		ch.request |= bit
	case oldcnt == 1 && newcnt == 0:
		if level {
			ch.request &^= bit
		}
	}

	c.notifyIntr()
}
