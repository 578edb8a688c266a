package pic

import "errors"

// Errors returned by Controller's public entrypoints. Callers are expected
// to log and continue; nothing in this package panics in response to bad
// guest input.
var (
	// ErrInvalidIRQ is returned when an IRQ line outside 0..15 is named.
	ErrInvalidIRQ = errors.New("pic: invalid irq line")

	// ErrBadWidth is returned when a port access is not exactly one byte.
	ErrBadWidth = errors.New("pic: only 1-byte port accesses are supported")

	// ErrCascadeRequired is returned when ICW1 asks for single (non-cascaded)
	// mode, which this emulation does not support.
	ErrCascadeRequired = errors.New("pic: icw1 requested single-chip mode, cascade is required")

	// ErrICW4Required is returned when ICW1 omits the IC4 bit, and when
	// ICW4 does not select 8086 mode.
	ErrICW4Required = errors.New("pic: icw4 with 8086 mode is required")

	// ErrLevelTriggerNotAllowed is returned by SetTrigger for IRQs that
	// hardware or chipset convention fixes to edge-triggered (0, 1, 2, 8, 13).
	ErrLevelTriggerNotAllowed = errors.New("pic: irq may not be level-triggered")

	// ErrUnhandledPort is returned when a port outside the three registered
	// windows reaches a handler meant for this device.
	ErrUnhandledPort = errors.New("pic: unhandled port")
)
