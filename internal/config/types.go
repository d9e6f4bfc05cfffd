// Package config holds the layered platform configuration: typed hardware
// descriptors, the store they live in, the YAML document loader with its
// platform-scoped ordering rules, and the programmatic override registry.
package config

// RegisterKind names the address space a register lives in.
type RegisterKind string

// The eight supported address-space kinds. Any other kind loads fine but
// fails at access time with a RegisterTypeError.
const (
	KindPCICfg   RegisterKind = "pcicfg"
	KindMMCFG    RegisterKind = "mmcfg"
	KindMMIO     RegisterKind = "mmio"
	KindMSR      RegisterKind = "msr"
	KindPortIO   RegisterKind = "io"
	KindIOBAR    RegisterKind = "iobar"
	KindMsgBus   RegisterKind = "msgbus"
	KindMMMsgBus RegisterKind = "mm_msgbus"
)

// Device describes an integrated PCI device. Bus is the declared default;
// the bus resolver may discover additional instances. A device without a
// vendor ID and candidate device IDs is never bus-bound.
type Device struct {
	Name string
	Bus  uint8
	Dev  uint8
	Fun  uint8
	VID  uint16
	DIDs []uint16
	Desc string
}

// BAR describes a named MMIO or I/O window. The base comes either from a
// backing register (optionally a single field of it) or from a fixed base.
type BAR struct {
	Name      string
	Register  string // backing register name; empty means fixed base
	BaseField string // field of Register holding the base, preserve-position
	Base      uint64 // fixed base when Register is empty
	Mask      uint64 // alignment mask applied to the resolved base, 0 = none
	Size      uint64
	Desc      string
}

// MemRange describes a named physical memory range.
type MemRange struct {
	Name   string
	Base   uint64
	Size   uint64
	Access string
	Desc   string
}

// Field is a named bit range of a register. Later-loaded fields may overlap
// or shadow earlier ones; that is accepted configuration behavior, not an
// error.
type Field struct {
	Name string
	Bit  uint
	Size uint // width in bits
	Desc string
}

// Register describes one addressable register. Only the addressing fields
// matching Kind are meaningful; the loader validates them per kind.
type Register struct {
	Name string
	Kind RegisterKind

	// pcicfg / mmcfg: either a device reference or an explicit B/D/F.
	Device string
	Bus    uint8
	Dev    uint8
	Fun    uint8
	Offset uint64

	// mmio / iobar
	BAR string

	// msr
	MSR uint32

	// io (port number) and msgbus / mm_msgbus (port + Offset)
	Port uint32

	Size   uint // bytes, default 4
	Desc   string
	Fields []Field // insertion-ordered
}

// Field returns the named field of the register. Lookup walks the slice
// backwards so a redefinition shadows the original at the same name.
func (r *Register) Field(name string) (Field, bool) {
	for i := len(r.Fields) - 1; i >= 0; i-- {
		if r.Fields[i].Name == name {
			return r.Fields[i], true
		}
	}
	return Field{}, false
}

// HasField reports whether the register declares the named field.
func (r *Register) HasField(name string) bool {
	_, ok := r.Field(name)
	return ok
}

// Control is a human-meaningful alias for a single field of a register,
// resolved at use time.
type Control struct {
	Name     string
	Register string
	Field    string
	Desc     string
}
