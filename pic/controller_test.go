package pic_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/projectacrn/vpic/pic"
)

// fakeInjector implements pic.VCPUInjector.
type fakeInjector struct {
	mu      sync.Mutex
	extints []int
}

func (f *fakeInjector) InjectExtINT(vcpuID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.extints = append(f.extints, vcpuID)
	return nil
}

func (f *fakeInjector) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.extints)
}

// fakeLocalAPIC implements pic.LocalAPIC.
type fakeLocalAPIC struct {
	mu    sync.Mutex
	lint0 []int
}

func (f *fakeLocalAPIC) SetLocalIntrLINT0(vcpuID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lint0 = append(f.lint0, vcpuID)
	return nil
}

// fakeIOAPIC implements pic.IOAPIC.
type fakeIOAPIC struct {
	mu     sync.Mutex
	pulses []int
}

func (f *fakeIOAPIC) PulseIRQ(pin int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pulses = append(f.pulses, pin)
	return nil
}

// fakeRemapper implements pic.PassthroughRemapper.
type fakeRemapper struct {
	mu     sync.Mutex
	remaps []int
	acks   []int
}

func (f *fakeRemapper) RemapPin(virtPin int, src pic.PinSource) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.remaps = append(f.remaps, virtPin)
	return nil
}

func (f *fakeRemapper) AckPin(virtPin int, src pic.PinSource) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.acks = append(f.acks, virtPin)
	return nil
}

// fakeHost implements pic.Host, wiring in whichever of the fakes above the
// test cares about. Zero values are nil, matching a VM that hasn't attached
// a given delivery collaborator.
type fakeHost struct {
	wireMode pic.WireMode
	injector pic.VCPUInjector
	lapic    pic.LocalAPIC
	ioapic   pic.IOAPIC
	remapper pic.PassthroughRemapper
}

func (h *fakeHost) WireMode() pic.WireMode                      { return h.wireMode }
func (h *fakeHost) VCPUInjector() pic.VCPUInjector              { return h.injector }
func (h *fakeHost) LocalAPIC() pic.LocalAPIC                    { return h.lapic }
func (h *fakeHost) IOAPIC() pic.IOAPIC                          { return h.ioapic }
func (h *fakeHost) PassthroughRemapper() pic.PassthroughRemapper { return h.remapper }

// initController runs the standard two-chip ICW1..ICW4 dance a BIOS performs
// at boot: master vectors to 0x08..0x0f, slave to 0x70..0x77, cascaded on
// master pin 2, 8086 mode, normal (non-auto) EOI.
func initController(t *testing.T, c *pic.Controller) {
	t.Helper()

	write := func(port uint16, val byte) {
		if err := c.HandleIO(port, 1, 1, []byte{val}); err != nil {
			t.Fatalf("write 0x%x=0x%x: %v", port, val, err)
		}
	}

	write(pic.MasterCommandPort, 0x11) // ICW1: cascade, ICW4 follows
	write(pic.MasterDataPort, 0x08)    // ICW2: vector base
	write(pic.MasterDataPort, 0x04)    // ICW3: slave on pin 2
	write(pic.MasterDataPort, 0x01)    // ICW4: 8086 mode

	write(pic.SlaveCommandPort, 0x11)
	write(pic.SlaveDataPort, 0x70)
	write(pic.SlaveDataPort, 0x02) // ICW3: slave identity 2
	write(pic.SlaveDataPort, 0x01)

	write(pic.MasterDataPort, 0x00) // OCW1: unmask everything
	write(pic.SlaveDataPort, 0x00)
}

func readPort(t *testing.T, c *pic.Controller, port uint16) byte {
	t.Helper()
	data := []byte{0}
	if err := c.HandleIO(port, 0, 1, data); err != nil {
		t.Fatalf("read 0x%x: %v", port, err)
	}
	return data[0]
}

func TestBasicIRQDeliveryAndAcceptance(t *testing.T) {
	inj := &fakeInjector{}
	host := &fakeHost{wireMode: pic.WireINTR, injector: inj}
	c := pic.NewController(host)
	initController(t, c)

	if err := c.Assert(1); err != nil {
		t.Fatalf("Assert(1): %v", err)
	}
	if inj.count() != 1 {
		t.Fatalf("expected one ExtINT injection, got %d", inj.count())
	}

	vector, ok := c.Pending()
	if !ok {
		t.Fatal("expected a pending vector")
	}
	if vector != 0x09 {
		t.Fatalf("expected vector 0x09 (base 0x08 + pin 1), got 0x%x", vector)
	}

	c.Accepted(vector)

	if masked := c.IsPinMasked(1); masked {
		t.Fatal("pin 1 should still be unmasked after acceptance")
	}
	if _, ok := c.Pending(); ok {
		t.Fatal("no interrupt should be pending once the only source is serviced and edge-cleared")
	}
}

func TestSpecificEOIWithRotation(t *testing.T) {
	host := &fakeHost{wireMode: pic.WireINTR, injector: &fakeInjector{}}
	c := pic.NewController(host)
	initController(t, c)

	if err := c.Assert(3); err != nil {
		t.Fatal(err)
	}
	v1, ok := c.Pending()
	if !ok || v1 != 0x0b {
		t.Fatalf("expected vector 0x0b, got 0x%x ok=%v", v1, ok)
	}
	c.Accepted(v1)

	if err := c.Assert(1); err != nil {
		t.Fatal(err)
	}
	v2, ok := c.Pending()
	if !ok || v2 != 0x09 {
		t.Fatalf("expected vector 0x09, got 0x%x ok=%v", v2, ok)
	}

	// Rotate on specific EOI for pin 1, issued on the command port.
	if err := c.HandleIO(pic.MasterCommandPort, 1, 1, []byte{0xe1}); err != nil {
		t.Fatalf("specific EOI: %v", err)
	}

	c.Accepted(v2)
	if _, ok := c.Pending(); ok {
		t.Fatal("no interrupt should remain pending")
	}
}

func TestSlaveCascade(t *testing.T) {
	host := &fakeHost{wireMode: pic.WireINTR, injector: &fakeInjector{}}
	c := pic.NewController(host)
	initController(t, c)

	if err := c.Assert(10); err != nil { // slave pin 2, absolute irq 10
		t.Fatal(err)
	}

	vector, ok := c.Pending()
	if !ok {
		t.Fatal("expected a pending vector from the slave")
	}
	if vector != 0x72 { // slave base 0x70 + pin 2
		t.Fatalf("expected vector 0x72, got 0x%x", vector)
	}

	c.Accepted(vector)
	if _, ok := c.Pending(); ok {
		t.Fatal("cascade accept should clear both the slave pin and the master's cascade pin")
	}
}

func TestLevelTriggeredSharing(t *testing.T) {
	host := &fakeHost{wireMode: pic.WireINTR, injector: &fakeInjector{}}
	c := pic.NewController(host)
	initController(t, c)

	if err := c.SetTrigger(5, pic.Level); err != nil {
		t.Fatalf("SetTrigger: %v", err)
	}
	if trig, err := c.GetTrigger(5); err != nil || trig != pic.Level {
		t.Fatalf("GetTrigger: trig=%v err=%v", trig, err)
	}

	// Two devices share pin 5; both assert.
	if err := c.Assert(5); err != nil {
		t.Fatal(err)
	}
	if err := c.Assert(5); err != nil {
		t.Fatal(err)
	}

	vector, ok := c.Pending()
	if !ok || vector != 0x0d {
		t.Fatalf("expected vector 0x0d, got 0x%x ok=%v", vector, ok)
	}
	c.Accepted(vector)

	// Guest EOIs the level IRQ it just took. Since the line is still held
	// (both devices haven't deasserted yet), the request bit is re-derived
	// from the live pin state rather than cleared the way an edge IRQ would
	// be, so the interrupt is presented again immediately.
	if err := c.HandleIO(pic.MasterCommandPort, 1, 1, []byte{0x65}); err != nil { // specific EOI, pin 5
		t.Fatalf("specific EOI: %v", err)
	}
	if _, ok := c.Pending(); !ok {
		t.Fatal("level line still held by both devices should still be pending after EOI")
	}
	c.Accepted(vector)

	// One device deasserts; the line is still held by the other, so the
	// pin's live level keeps the request bit set.
	if err := c.Deassert(5); err != nil {
		t.Fatal(err)
	}
	if err := c.HandleIO(pic.MasterCommandPort, 1, 1, []byte{0x65}); err != nil {
		t.Fatalf("specific EOI: %v", err)
	}
	if _, ok := c.Pending(); !ok {
		t.Fatal("level line still held by the second device should still be pending")
	}
	c.Accepted(vector)

	if err := c.Deassert(5); err != nil {
		t.Fatal(err)
	}
	if err := c.HandleIO(pic.MasterCommandPort, 1, 1, []byte{0x65}); err != nil {
		t.Fatalf("specific EOI: %v", err)
	}
	if _, ok := c.Pending(); ok {
		t.Fatal("both devices deasserted, nothing should be pending")
	}
}

func TestSpecialMaskMode(t *testing.T) {
	host := &fakeHost{wireMode: pic.WireINTR, injector: &fakeInjector{}}
	c := pic.NewController(host)
	initController(t, c)

	if err := c.Assert(3); err != nil {
		t.Fatal(err)
	}
	v1, ok := c.Pending()
	if !ok || v1 != 0x0b {
		t.Fatalf("got vector 0x%x ok=%v", v1, ok)
	}
	c.Accepted(v1)

	// Enable special mask mode (ESMM=1, SMM=1) on OCW3.
	if err := c.HandleIO(pic.MasterCommandPort, 1, 1, []byte{0x68}); err != nil {
		t.Fatalf("enable SMM: %v", err)
	}

	// A lower-priority IRQ can now be recognized even though pin 3's ISR
	// bit is still set, since SMM disables ISR-based masking.
	if err := c.Assert(5); err != nil {
		t.Fatal(err)
	}
	vector, ok := c.Pending()
	if !ok || vector != 0x0d {
		t.Fatalf("expected lower-priority pin 5 (vector 0x0d) to be recognized under SMM, got 0x%x ok=%v", vector, ok)
	}
}

func TestICW1RejectsSingleMode(t *testing.T) {
	host := &fakeHost{wireMode: pic.WireINTR}
	c := pic.NewController(host)

	err := c.HandleIO(pic.MasterCommandPort, 1, 1, []byte{0x13}) // ICW1 with SNGL set
	if !errors.Is(err, pic.ErrCascadeRequired) {
		t.Fatalf("expected ErrCascadeRequired, got %v", err)
	}
}

func TestICW1RejectsMissingICW4(t *testing.T) {
	host := &fakeHost{wireMode: pic.WireINTR}
	c := pic.NewController(host)

	err := c.HandleIO(pic.MasterCommandPort, 1, 1, []byte{0x11 &^ 0x01})
	if !errors.Is(err, pic.ErrICW4Required) {
		t.Fatalf("expected ErrICW4Required, got %v", err)
	}
}

func TestVirtualWireAPICMode(t *testing.T) {
	lapic := &fakeLocalAPIC{}
	ioapic := &fakeIOAPIC{}
	host := &fakeHost{wireMode: pic.WireVirtualWireAPIC, lapic: lapic, ioapic: ioapic}
	c := pic.NewController(host)
	initController(t, c)

	if err := c.Assert(0); err != nil {
		t.Fatal(err)
	}
	if len(lapic.lint0) != 1 {
		t.Fatalf("expected one LINT0 set, got %d", len(lapic.lint0))
	}
	if len(ioapic.pulses) != 1 || ioapic.pulses[0] != 0 {
		t.Fatalf("expected one pulse on I/O APIC pin 0, got %v", ioapic.pulses)
	}
}

func TestPollMode(t *testing.T) {
	host := &fakeHost{wireMode: pic.WireINTR, injector: &fakeInjector{}}
	c := pic.NewController(host)
	initController(t, c)

	if err := c.Assert(2); err != nil {
		t.Fatal(err)
	}
	// OCW3: read-register command with the poll bit set (RR|P).
	if err := c.HandleIO(pic.MasterCommandPort, 1, 1, []byte{0x0e}); err != nil {
		t.Fatalf("poll command: %v", err)
	}
	got := readPort(t, c, pic.MasterCommandPort)
	if got != 0x82 {
		t.Fatalf("expected poll response 0x82 (pending, pin 2), got 0x%x", got)
	}
}

func TestInvalidIRQRange(t *testing.T) {
	c := pic.NewController(&fakeHost{})
	if err := c.Assert(16); !errors.Is(err, pic.ErrInvalidIRQ) {
		t.Fatalf("expected ErrInvalidIRQ, got %v", err)
	}
	if err := c.Assert(-1); !errors.Is(err, pic.ErrInvalidIRQ) {
		t.Fatalf("expected ErrInvalidIRQ, got %v", err)
	}
}

func TestSetTriggerRejectsFixedEdgeLines(t *testing.T) {
	c := pic.NewController(&fakeHost{})
	for _, irq := range []int{0, 1, 2, 8, 13} {
		if err := c.SetTrigger(irq, pic.Level); !errors.Is(err, pic.ErrLevelTriggerNotAllowed) {
			t.Fatalf("irq %d: expected ErrLevelTriggerNotAllowed, got %v", irq, err)
		}
	}
}

func TestBadWidthAccessRejected(t *testing.T) {
	c := pic.NewController(&fakeHost{})
	err := c.HandleIO(pic.MasterCommandPort, 1, 2, []byte{0x11, 0x00})
	if !errors.Is(err, pic.ErrBadWidth) {
		t.Fatalf("expected ErrBadWidth, got %v", err)
	}
}

func TestUnhandledPort(t *testing.T) {
	c := pic.NewController(&fakeHost{})
	err := c.HandleIO(0x99, 0, 1, []byte{0})
	if !errors.Is(err, pic.ErrUnhandledPort) {
		t.Fatalf("expected ErrUnhandledPort, got %v", err)
	}
}

func TestELCRReadWrite(t *testing.T) {
	c := pic.NewController(&fakeHost{})

	if err := c.HandleIO(pic.ELCRMasterPort, 1, 1, []byte{0xff}); err != nil {
		t.Fatalf("write ELCR master: %v", err)
	}
	got := readPort(t, c, pic.ELCRMasterPort)
	if got != 0xf8 {
		t.Fatalf("expected master ELCR masked to 0xf8, got 0x%x", got)
	}

	if err := c.HandleIO(pic.ELCRSlavePort, 1, 1, []byte{0xff}); err != nil {
		t.Fatalf("write ELCR slave: %v", err)
	}
	got = readPort(t, c, pic.ELCRSlavePort)
	if got != 0xde {
		t.Fatalf("expected slave ELCR masked to 0xde, got 0x%x", got)
	}
}
