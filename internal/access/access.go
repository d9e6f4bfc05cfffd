// Package access defines the platform access layer: the raw transport
// primitives that actually touch hardware. The register dispatcher is
// written entirely against the Layer interface; the Linux implementation
// backs it with sysfs and devfs, the Mock implementation backs it with
// in-memory address spaces for tests.
package access

import "github.com/platprobe/platprobe/internal/pci"

// Layer is the set of low-level read/write primitives keyed by bus-specific
// addresses. Sizes are in bytes: 1, 2 or 4 for PCI config and port I/O,
// 1, 2, 4 or 8 for physical memory. Wider accesses are composed by the
// caller. Every call blocks until the underlying transport completes; the
// layer performs no retries.
type Layer interface {
	// PCI configuration space.
	PCIRead(bus, dev, fun uint8, offset uint16, size uint) (uint64, error)
	PCIWrite(bus, dev, fun uint8, offset uint16, size uint, val uint64) error

	// Extended (memory-mapped) configuration space.
	MMCFGRead(bus, dev, fun uint8, offset uint16, size uint) (uint64, error)
	MMCFGWrite(bus, dev, fun uint8, offset uint16, size uint, val uint64) error

	// Enumerate probes the full bus/device/function space once and returns
	// every present device.
	Enumerate() ([]pci.EnumDevice, error)

	// Physical memory.
	MemRead(addr uint64, size uint) (uint64, error)
	MemWrite(addr uint64, size uint, val uint64) error

	// Model-specific registers, addressed per logical CPU thread. The two
	// halves follow the rdmsr/wrmsr register convention.
	MSRRead(thread int, msr uint32) (eax, edx uint32, err error)
	MSRWrite(thread int, msr uint32, eax, edx uint32) error

	// Port I/O.
	PortIn(port uint16, size uint) (uint64, error)
	PortOut(port uint16, size uint, val uint64) error

	// Sideband message bus, addressed by port and register offset.
	MsgBusRead(port, register uint32) (uint64, error)
	MsgBusWrite(port, register uint32, val uint64) error

	// Memory-mapped message bus (the same fabric through its MMIO window).
	MMMsgBusRead(port, register uint32) (uint64, error)
	MMMsgBusWrite(port, register uint32, val uint64) error

	Close() error
}
