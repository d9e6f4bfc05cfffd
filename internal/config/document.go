package config

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// document is the YAML shape of one declarative configuration file: a list
// of configuration sections, each optionally scoped to a platform code.
type document struct {
	Configurations []section `yaml:"configurations"`
}

type section struct {
	Platform  string          `yaml:"platform"`
	PCI       []deviceEntry   `yaml:"pci"`
	MMIO      []barEntry      `yaml:"mmio"`
	IO        []barEntry      `yaml:"io"`
	Memory    []rangeEntry    `yaml:"memory"`
	Registers []registerEntry `yaml:"registers"`
	Controls  []controlEntry  `yaml:"controls"`
}

// appliesTo reports whether the section is in scope for the resolved
// chipset and PCH codes. An absent platform attribute always applies.
func (s *section) appliesTo(chipsetCode, pchCode string) bool {
	if s.Platform == "" {
		return true
	}
	if chipsetCode != "" && strings.EqualFold(s.Platform, chipsetCode) {
		return true
	}
	if pchCode != "" && strings.EqualFold(s.Platform, pchCode) {
		return true
	}
	return false
}

type deviceEntry struct {
	Name  string   `yaml:"name"`
	Undef bool     `yaml:"undef"`
	Bus   uint8    `yaml:"bus"`
	Dev   uint8    `yaml:"dev"`
	Fun   uint8    `yaml:"fun"`
	VID   uint16   `yaml:"vid"`
	DID   []uint16 `yaml:"did"`
	Desc  string   `yaml:"desc"`
}

type barEntry struct {
	Name      string `yaml:"name"`
	Undef     bool   `yaml:"undef"`
	Register  string `yaml:"register"`
	BaseField string `yaml:"base_field"`
	Base      uint64 `yaml:"base"`
	Mask      uint64 `yaml:"mask"`
	Size      uint64 `yaml:"size"`
	Desc      string `yaml:"desc"`
}

type rangeEntry struct {
	Name   string `yaml:"name"`
	Undef  bool   `yaml:"undef"`
	Base   uint64 `yaml:"base"`
	Size   uint64 `yaml:"size"`
	Access string `yaml:"access"`
	Desc   string `yaml:"desc"`
}

type fieldEntry struct {
	Name string `yaml:"name"`
	Bit  uint   `yaml:"bit"`
	Size uint   `yaml:"size"`
	Desc string `yaml:"desc"`
}

type registerEntry struct {
	Name   string       `yaml:"name"`
	Undef  bool         `yaml:"undef"`
	Type   string       `yaml:"type"`
	Device string       `yaml:"device"`
	Bus    uint8        `yaml:"bus"`
	Dev    uint8        `yaml:"dev"`
	Fun    uint8        `yaml:"fun"`
	Offset uint64       `yaml:"offset"`
	BAR    string       `yaml:"bar"`
	MSR    uint32       `yaml:"msr"`
	Port   uint32       `yaml:"port"`
	Size   *uint        `yaml:"size"`
	Desc   string       `yaml:"desc"`
	Fields []fieldEntry `yaml:"fields"`
}

type controlEntry struct {
	Name     string `yaml:"name"`
	Undef    bool   `yaml:"undef"`
	Register string `yaml:"register"`
	Field    string `yaml:"field"`
	Desc     string `yaml:"desc"`
}

// category identifies which store map an op targets. Application order
// within a section is fixed: devices, MMIO BARs, I/O BARs, memory ranges,
// registers, controls.
type category int

const (
	catDevice category = iota
	catMMIO
	catIO
	catMemory
	catRegister
	catControl
)

// op is one validated store mutation: either a full replacement of the
// named entry or its removal.
type op struct {
	cat   category
	name  string
	undef bool

	device   Device
	bar      BAR
	memrange MemRange
	register Register
	control  Control
}

// parseDocument decodes and validates a declarative document. Only sections
// in scope for the given codes contribute ops; out-of-scope sections are
// skipped in full. A validation error rejects the whole document.
func parseDocument(data []byte, chipsetCode, pchCode string) ([]op, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	var ops []op
	for i := range doc.Configurations {
		sec := &doc.Configurations[i]
		if !sec.appliesTo(chipsetCode, pchCode) {
			continue
		}
		secOps, err := sec.ops()
		if err != nil {
			return nil, err
		}
		ops = append(ops, secOps...)
	}
	return ops, nil
}

func (s *section) ops() ([]op, error) {
	var ops []op

	for _, e := range s.PCI {
		if e.Name == "" {
			return nil, fmt.Errorf("pci device entry without a name")
		}
		if e.Undef {
			ops = append(ops, op{cat: catDevice, name: e.Name, undef: true})
			continue
		}
		ops = append(ops, op{cat: catDevice, name: e.Name, device: Device{
			Name: e.Name, Bus: e.Bus, Dev: e.Dev, Fun: e.Fun,
			VID: e.VID, DIDs: e.DID, Desc: e.Desc,
		}})
	}

	for _, grp := range []struct {
		cat     category
		entries []barEntry
	}{{catMMIO, s.MMIO}, {catIO, s.IO}} {
		for _, e := range grp.entries {
			if e.Name == "" {
				return nil, fmt.Errorf("bar entry without a name")
			}
			if e.Undef {
				ops = append(ops, op{cat: grp.cat, name: e.Name, undef: true})
				continue
			}
			if e.Register == "" && e.Base == 0 {
				return nil, fmt.Errorf("bar %q: needs a backing register or a fixed base", e.Name)
			}
			ops = append(ops, op{cat: grp.cat, name: e.Name, bar: BAR{
				Name: e.Name, Register: e.Register, BaseField: e.BaseField,
				Base: e.Base, Mask: e.Mask, Size: e.Size, Desc: e.Desc,
			}})
		}
	}

	for _, e := range s.Memory {
		if e.Name == "" {
			return nil, fmt.Errorf("memory range entry without a name")
		}
		if e.Undef {
			ops = append(ops, op{cat: catMemory, name: e.Name, undef: true})
			continue
		}
		ops = append(ops, op{cat: catMemory, name: e.Name, memrange: MemRange{
			Name: e.Name, Base: e.Base, Size: e.Size, Access: e.Access, Desc: e.Desc,
		}})
	}

	for _, e := range s.Registers {
		if e.Name == "" {
			return nil, fmt.Errorf("register entry without a name")
		}
		if e.Undef {
			ops = append(ops, op{cat: catRegister, name: e.Name, undef: true})
			continue
		}
		reg, err := e.toRegister()
		if err != nil {
			return nil, err
		}
		ops = append(ops, op{cat: catRegister, name: e.Name, register: reg})
	}

	for _, e := range s.Controls {
		if e.Name == "" {
			return nil, fmt.Errorf("control entry without a name")
		}
		if e.Undef {
			ops = append(ops, op{cat: catControl, name: e.Name, undef: true})
			continue
		}
		if e.Register == "" || e.Field == "" {
			return nil, fmt.Errorf("control %q: needs register and field", e.Name)
		}
		ops = append(ops, op{cat: catControl, name: e.Name, control: Control{
			Name: e.Name, Register: e.Register, Field: e.Field, Desc: e.Desc,
		}})
	}

	return ops, nil
}

func (e *registerEntry) toRegister() (Register, error) {
	size := uint(4)
	if e.Size != nil {
		size = *e.Size
	}
	reg := Register{
		Name:   e.Name,
		Kind:   RegisterKind(e.Type),
		Device: e.Device,
		Bus:    e.Bus, Dev: e.Dev, Fun: e.Fun,
		Offset: e.Offset,
		BAR:    e.BAR,
		MSR:    e.MSR,
		Port:   e.Port,
		Size:   size,
		Desc:   e.Desc,
	}
	for _, f := range e.Fields {
		if f.Name == "" {
			return Register{}, fmt.Errorf("register %q: field without a name", e.Name)
		}
		// Bit ranges are deliberately not validated against the register
		// size or each other; overlapping and shadowed fields are accepted.
		reg.Fields = append(reg.Fields, Field{Name: f.Name, Bit: f.Bit, Size: f.Size, Desc: f.Desc})
	}

	// Per-kind addressing validation. Unknown kinds load as-is and fail at
	// access time, so the soft introspection queries still see them.
	switch reg.Kind {
	case KindMMIO, KindIOBAR:
		if reg.BAR == "" {
			return Register{}, fmt.Errorf("register %q: %s register needs a bar", e.Name, reg.Kind)
		}
	case KindMSR:
		// MSRs are always 64-bit regardless of the declared size.
		reg.Size = 8
	case KindPortIO:
		if size != 1 && size != 2 && size != 4 {
			return Register{}, fmt.Errorf("register %q: io register size must be 1, 2 or 4", e.Name)
		}
	}
	return reg, nil
}
