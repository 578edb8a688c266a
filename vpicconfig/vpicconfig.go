// Package vpicconfig loads an optional vpic.yml side file that configures
// how a Machine wires its interrupt controller to the rest of the platform.
// A missing file is not an error: callers get the zero-value defaults.
package vpicconfig

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/projectacrn/vpic/pic"
)

// Config holds the platform-level choices that a constructor argument list
// would otherwise need to grow a parameter for every time one is added.
type Config struct {
	// WireModeName selects interrupt delivery: "intr" (direct ExtINT
	// injection) or "virtual-wire-apic" (LAPIC LINT0 + I/O APIC pin 0).
	// Defaults to "intr" when empty.
	WireModeName string `yaml:"wire_mode"`

	// Debug enables verbose assembly/wiring logging.
	Debug bool `yaml:"debug"`

	// ELCRDefaults seeds each chip's Edge/Level Control Register shadow,
	// keyed by IRQ number as a string (0-15). Fixed-edge lines (0, 1, 2, 8,
	// 13) are ignored if present here, matching set_trigger's own rejection
	// of level mode on those pins.
	ELCRDefaults map[string]bool `yaml:"elcr_defaults"`

	// IRQLabels names IRQ lines for display purposes (e.g. the demo CLI),
	// keyed the same way as ELCRDefaults.
	IRQLabels map[string]string `yaml:"irq_labels"`
}

// Load reads path and parses it as YAML. A missing file returns the zero
// Config and a nil error; a present-but-unparseable file returns an error.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, nil
		}
		return Config{}, fmt.Errorf("vpicconfig: reading %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("vpicconfig: parsing %s: %w", path, err)
	}
	return cfg, nil
}

// WireMode translates the configured mode name to a pic.WireMode, defaulting
// to pic.WireINTR for an empty or unrecognized value.
func (c Config) WireMode() pic.WireMode {
	switch c.WireModeName {
	case "virtual-wire-apic":
		return pic.WireVirtualWireAPIC
	default:
		return pic.WireINTR
	}
}
