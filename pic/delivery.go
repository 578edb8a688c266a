package pic

// WireMode selects how the master chip's interrupt output reaches the CPU
// once no higher-level delivery controller is present, mirroring the three
// modes described in the MPSpec "Interrupt Modes" section: legacy PIC mode
// bypasses the APIC entirely (not modeled here, since a guest running this
// emulation always has at least a virtual LAPIC), virtual-wire mode injects
// an ExtINT directly into vCPU 0, and virtual-wire-via-I/O-APIC routes the
// request through the local APIC's LINT0 and the I/O APIC's pin 0.
type WireMode int

const (
	// WireINTR injects an ExtINT directly into vCPU 0.
	WireINTR WireMode = iota
	// WireVirtualWireAPIC sets LAPIC LINT0 and pulses I/O APIC pin 0.
	WireVirtualWireAPIC
)

func (w WireMode) String() string {
	switch w {
	case WireINTR:
		return "intr"
	case WireVirtualWireAPIC:
		return "virtual-wire-apic"
	default:
		return "unknown"
	}
}

// VCPUInjector is the narrow slice of the vCPU-injection layer this core
// needs: delivering an external interrupt to a specific vCPU. Implementations
// must not block on this call with respect to the controller's lock.
type VCPUInjector interface {
	InjectExtINT(vcpuID int) error
}

// LocalAPIC is the narrow slice of the virtual local APIC this core needs.
// vcpuID -1 means broadcast to all vCPUs, matching vlapic_set_local_intr's
// convention in the original hypervisor. Implementations must not block on
// this call with respect to the controller's lock.
type LocalAPIC interface {
	SetLocalIntrLINT0(vcpuID int) error
}

// IOAPIC is the narrow slice of the virtual I/O APIC this core needs: a
// level pulse (assert then deassert) on a given pin. Implementations must
// not block on this call with respect to the controller's lock.
type IOAPIC interface {
	PulseIRQ(pin int) error
}

// PinSource identifies which sub-device a passthrough remap request
// originated from; the PIC is one of several possible sources in a full
// hypervisor (the I/O APIC is another), so the remap layer needs to know.
type PinSource int

// PinSourcePIC is the only PinSource this package ever produces.
const PinSourcePIC PinSource = 0

// PassthroughRemapper is invoked when a pin transitions from masked to
// unmasked (the device behind it may need its physical IRQ remapped to
// this virtual pin) and when a level-triggered pin is EOIed (the physical
// IRQ line needs an explicit ack once the guest is done servicing it).
// Both calls are made with the controller's lock held; implementations must
// not block on them with respect to that lock.
type PassthroughRemapper interface {
	RemapPin(virtPin int, src PinSource) error
	AckPin(virtPin int, src PinSource) error
}
