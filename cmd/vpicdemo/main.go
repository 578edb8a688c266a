// Command vpicdemo is an interactive console for exercising a vm.Machine's
// interrupt controller. Press a digit/letter key to pulse an IRQ line; the
// two chips' IRR/ISR/IMR/ELCR registers redraw after every keypress. There
// are no keys for holding a line asserted, deasserting it, or changing its
// trigger mode.
package main

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/charmbracelet/x/ansi"
	"github.com/eiannone/keyboard"
	"golang.org/x/term"

	"github.com/projectacrn/vpic/devices"
	"github.com/projectacrn/vpic/pic"
	"github.com/projectacrn/vpic/vm"
	"github.com/projectacrn/vpic/vpicconfig"
)

const configPath = "vpic.yml"

// irqForKey maps a keypress to the IRQ line it controls: '0'-'9' cover
// IRQ0-9, 'a'-'f' cover IRQ10-15.
func irqForKey(ch rune) (int, bool) {
	switch {
	case ch >= '0' && ch <= '9':
		return int(ch - '0'), true
	case ch >= 'a' && ch <= 'f':
		return int(ch-'a') + 10, true
	default:
		return 0, false
	}
}

func main() {
	cfg, err := vpicconfig.Load(configPath)
	if err != nil {
		log.Fatalf("vpicdemo: %v", err)
	}

	machine := vm.New(cfg.WireMode(), cfg.Debug)
	if err := machine.InitLegacyPIC(cfg.ELCRDefaults); err != nil {
		log.Fatalf("vpicdemo: %v", err)
	}

	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err == nil {
		defer term.Restore(fd, oldState)
	} else {
		log.Printf("vpicdemo: terminal not raw-capable, falling back to line mode: %v", err)
	}

	render(machine, cfg.IRQLabels)

	for {
		ch, key, err := keyboard.GetSingleKey()
		if err != nil {
			log.Fatalf("vpicdemo: reading key: %v", err)
		}
		if key == keyboard.KeyCtrlC || ch == 'q' {
			return
		}

		if irq, ok := irqForKey(ch); ok {
			pulse(machine, irq, byte(ch))
		}
		render(machine, cfg.IRQLabels)
	}
}

// pulse drives irq through the same path a real scan code would: IRQ1
// (the keyboard line) goes through KeyboardDevice.PushKey, which buffers the
// pressed key and pulses IRQ1 itself, so its buffer and IRQ pulse stay in
// sync. Every other line pulses the PIC directly, since no device models it.
func pulse(m *vm.Machine, irq int, key byte) {
	if irq == int(devices.KEYBOARD_IRQ) {
		m.Keyboard.PushKey(key)
		return
	}
	if err := m.PIC.Pulse(irq); err != nil {
		log.Printf("vpicdemo: pulse IRQ%d: %v", irq, err)
	}
}

func render(m *vm.Machine, labels map[string]string) {
	fmt.Print(ansi.EraseEntireDisplay)
	fmt.Print(ansi.CursorPosition(1, 1))
	fmt.Println("vpicdemo - press 0-9/a-f to pulse an IRQ line, q to quit")
	fmt.Printf("wire mode: %v\n\n", m.Wire)
	renderChip(m.PIC, "master", 0, labels)
	renderChip(m.PIC, "slave", 1, labels)
}

func renderChip(c *pic.Controller, name string, chipIndex int, labels map[string]string) {
	snap := c.Snapshot(chipIndex)
	fmt.Printf("%-6s IRR=%08b ISR=%08b IMR=%08b ELCR=%08b\n", name, snap.IRR, snap.ISR, snap.IMR, snap.ELCR)
	for bit := 0; bit < 8; bit++ {
		irq := chipIndex*8 + bit
		label, ok := labels[strconv.Itoa(irq)]
		if !ok {
			continue
		}
		mask := uint8(1) << uint(bit)
		fmt.Printf("  IRQ%-2d %-16s pending=%t in-service=%t masked=%t\n",
			irq, label, snap.IRR&mask != 0, snap.ISR&mask != 0, snap.IMR&mask != 0)
	}
}
