package workload

import (
	"fmt"
	"slices"

	"github.com/sarchlab/cachesim/mem/cache"
)

// An Example is a named trace shipped with the simulator.
type Example struct {
	Name        string
	Description string
	Trace       string

	// Config, when set, is the L1 configuration the example is meant for.
	Config *cache.Config
}

var examples = map[string]Example{
	"custom": {
		Description: "Addresses mixed with variables",
		Trace:       "0x100\n0x104\nvar s = \"Hello\"\ns\n0x108",
	},
	"sequential": {
		Description: "Walk through consecutive words",
		Trace:       "0x100\n0x104\n0x108\n0x10C\n0x110\n0x114\n0x118\n0x11C",
	},
	"looping": {
		Description: "Revisit the same three words",
		Trace:       "0x100\n0x104\n0x108\n0x100\n0x104\n0x108\n0x100\n0x104\n0x108",
	},
	"random": {
		Description: "Scattered addresses",
		Trace:       "0x4A0\n0x120\n0x9F0\n0x040\n0x880\n0x3C0\n0x100\n0x550",
	},
	"matrix": {
		Description: "Column-major walk over three rows",
		Trace:       "0x100\n0x200\n0x300\n0x104\n0x204\n0x304\n0x108\n0x208\n0x308",
	},
	"conflict": {
		Description: "Four blocks that map to the same set",
		Trace:       "0x000\n0x400\n0x800\n0xC00\n0x000\n0x400\n0x800\n0xC00",
	},
	"l2demo": {
		Description: "An L1 conflict miss that hits in L2",
		Trace:       "// Config: 1KB Cache, Direct Mapped\n0x000\n0x400\n0x000",
		Config:      l2DemoConfig(),
	},
	"variables": {
		Description: "Arithmetic on variables",
		Trace:       "var a = 10\nvar b = 20\nvar c = a + b\nc\n0x100",
	},
	"assembly": {
		Description: "Registers, a store, and a load",
		Trace:       "ADDI x1, x0, 5\nADDI x2, x0, 10\nADD x3, x1, x2\nSW x3, 0x100(x0) \nLW x4, 0x100(x0)",
	},
}

func l2DemoConfig() *cache.Config {
	c := cache.DefaultConfig()
	c.SizeBytes = 1024
	c.Associativity = 1

	return &c
}

// Preset returns the example with the given name.
func Preset(name string) (Example, error) {
	e, ok := examples[name]
	if !ok {
		return Example{}, fmt.Errorf("unknown preset %q", name)
	}

	e.Name = name
	if e.Config != nil {
		c := *e.Config
		e.Config = &c
	}

	return e, nil
}

// PresetConfig returns the L1 configuration an example asks for, if any.
func PresetConfig(name string) (cache.Config, bool) {
	e, ok := examples[name]
	if !ok || e.Config == nil {
		return cache.Config{}, false
	}

	return *e.Config, true
}

// PresetNames lists the examples in alphabetical order.
func PresetNames() []string {
	names := make([]string, 0, len(examples))
	for name := range examples {
		names = append(names, name)
	}

	slices.Sort(names)

	return names
}
