// Package vm is the composition root that wires a pic.Controller into a
// guest's I/O bus and delivery collaborators. It covers interrupt delivery
// only: guest memory, GDT, paging, and boot-loading belong to whatever runs
// actual guest code, not to this package.
package vm

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/projectacrn/vpic/devices"
	"github.com/projectacrn/vpic/iobus"
	"github.com/projectacrn/vpic/pic"
)

// Machine owns the Controller and the devices that share the PIC's I/O bus,
// and holds the delivery collaborators it reports interrupts through.
// Machine implements pic.Host; the Controller only ever borrows this
// reference through that interface, for the duration of a call.
type Machine struct {
	Bus  *iobus.Bus
	PIC  *pic.Controller
	Wire pic.WireMode

	PIT      *devices.PITDevice
	Serial   *devices.SerialPortDevice
	RTC      *devices.RTCDevice
	Keyboard *devices.KeyboardDevice

	injector pic.VCPUInjector
	lapic    pic.LocalAPIC
	ioapic   pic.IOAPIC
	remapper pic.PassthroughRemapper

	Debug bool
}

// Option configures optional delivery collaborators a Machine is built
// with. A Machine with none attached still functions: notifyIntr simply has
// nothing to call.
type Option func(*Machine)

// WithVCPUInjector attaches the ExtINT injection path used in WireINTR mode.
func WithVCPUInjector(inj pic.VCPUInjector) Option {
	return func(m *Machine) { m.injector = inj }
}

// WithLocalAPIC attaches the LAPIC LINT0 path used in WireVirtualWireAPIC mode.
func WithLocalAPIC(lapic pic.LocalAPIC) Option {
	return func(m *Machine) { m.lapic = lapic }
}

// WithIOAPIC attaches the I/O APIC pin-0 path used in WireVirtualWireAPIC mode.
func WithIOAPIC(ioapic pic.IOAPIC) Option {
	return func(m *Machine) { m.ioapic = ioapic }
}

// WithPassthroughRemapper attaches the physical-IRQ remap/ack path.
func WithPassthroughRemapper(remapper pic.PassthroughRemapper) Option {
	return func(m *Machine) { m.remapper = remapper }
}

// New builds a Machine with a fresh Controller and the standard legacy
// device set (PIT, COM1, RTC, keyboard) registered on the bus.
func New(wire pic.WireMode, debug bool, opts ...Option) *Machine {
	m := &Machine{
		Bus:   iobus.New(),
		Wire:  wire,
		Debug: debug,
	}
	for _, opt := range opts {
		opt(m)
	}

	m.PIC = pic.NewController(m)
	m.PIC.RegisterOn(m.Bus)

	m.PIT = devices.NewPITDevice(m.PIC)
	m.Serial = devices.NewSerialPortDevice(os.Stdout, m.PIC)
	m.RTC = devices.NewRTCDevice(m.PIC)
	m.Keyboard = devices.NewKeyboardDevice(m.PIC)

	m.Bus.RegisterDevice(devices.PIT_PORT_COUNTER0, devices.PIT_PORT_COMMAND, m.PIT)
	m.Bus.RegisterDevice(devices.PIT_PORT_STATUS, devices.PIT_PORT_STATUS, m.PIT)
	m.Bus.RegisterDevice(devices.COM1_PORT_BASE, devices.COM1_PORT_END, m.Serial)
	m.Bus.RegisterDevice(devices.RTC_PORT_INDEX, devices.RTC_PORT_DATA, m.RTC)
	m.Bus.RegisterDevice(devices.KEYBOARD_PORT_DATA, devices.KEYBOARD_PORT_DATA, m.Keyboard)
	m.Bus.RegisterDevice(devices.KEYBOARD_PORT_STATUS, devices.KEYBOARD_PORT_STATUS, m.Keyboard)

	if m.Debug {
		log.Printf("vm: machine assembled, wire mode %v", wire)
	}
	return m
}

// InitLegacyPIC runs the BIOS's ICW1-ICW4 programming sequence on both
// chips over the real port-I/O path (master vector base 0x08, slave vector
// base 0x70, standard cascade on pin 2), then unmasks every line. Without
// this, both chips stay in their post-reset not-ready state and every
// Assert/Deassert/Pulse call is a silent no-op.
//
// elcrDefaults seeds the ELCR shadow for IRQs named in it (keyed by IRQ
// number as a string); fixed-edge lines are rejected by SetTrigger and
// logged, not fatal, since a stale or hand-edited vpic.yml shouldn't stop
// the chips from coming up.
func (m *Machine) InitLegacyPIC(elcrDefaults map[string]bool) error {
	write := func(port uint16, val byte) error {
		return m.HandleIO(port, iobus.DirOut, 1, []byte{val})
	}

	steps := []struct {
		port uint16
		val  byte
	}{
		{pic.MasterCommandPort, 0x11}, // ICW1: cascade, ICW4 follows
		{pic.MasterDataPort, 0x08},    // ICW2: vector base
		{pic.MasterDataPort, 0x04},    // ICW3: slave on pin 2
		{pic.MasterDataPort, 0x01},    // ICW4: 8086 mode

		{pic.SlaveCommandPort, 0x11},
		{pic.SlaveDataPort, 0x70},
		{pic.SlaveDataPort, 0x02}, // ICW3: slave identity 2
		{pic.SlaveDataPort, 0x01},

		{pic.MasterDataPort, 0x00}, // OCW1: unmask everything
		{pic.SlaveDataPort, 0x00},
	}
	for _, s := range steps {
		if err := write(s.port, s.val); err != nil {
			return fmt.Errorf("vm: initializing legacy PIC: %w", err)
		}
	}

	for irqName, level := range elcrDefaults {
		if !level {
			continue
		}
		irq, err := strconv.Atoi(irqName)
		if err != nil {
			log.Printf("vm: elcr_defaults: invalid IRQ key %q", irqName)
			continue
		}
		if err := m.PIC.SetTrigger(irq, pic.Level); err != nil {
			log.Printf("vm: elcr_defaults: IRQ%d: %v", irq, err)
		}
	}

	if m.Debug {
		log.Printf("vm: legacy PIC initialized")
	}
	return nil
}

// HandleIO dispatches a single port access to whichever device owns it.
func (m *Machine) HandleIO(port uint16, direction uint8, size uint8, data []byte) error {
	if err := m.Bus.HandleIO(port, direction, size, data); err != nil {
		return fmt.Errorf("vm: %w", err)
	}
	return nil
}

// WireMode implements pic.Host.
func (m *Machine) WireMode() pic.WireMode { return m.Wire }

// VCPUInjector implements pic.Host.
func (m *Machine) VCPUInjector() pic.VCPUInjector { return m.injector }

// LocalAPIC implements pic.Host.
func (m *Machine) LocalAPIC() pic.LocalAPIC { return m.lapic }

// IOAPIC implements pic.Host.
func (m *Machine) IOAPIC() pic.IOAPIC { return m.ioapic }

// PassthroughRemapper implements pic.Host.
func (m *Machine) PassthroughRemapper() pic.PassthroughRemapper { return m.remapper }
