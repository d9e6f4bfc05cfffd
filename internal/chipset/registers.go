package chipset

import (
	"fmt"
	"sort"
	"strings"

	"github.com/platprobe/platprobe/internal/config"
	"github.com/platprobe/platprobe/internal/hexutil"
	"github.com/platprobe/platprobe/internal/pci"
)

// ioBARAlignMask clears the indicator and reserved bits of a PCI I/O BAR
// when the descriptor does not declare its own mask.
const ioBARAlignMask = 0xFFFC

// registerDef returns the register definition with device addressing
// substituted in: a device reference contributes its B/D/F, and a resolved
// bus binding replaces the static bus. An out-of-range bus index is recorded
// as a notice and falls back to the static bus rather than failing the
// access.
func (s *Session) registerDef(name string, busIndex int) (config.Register, error) {
	reg, ok := s.store.Register[name]
	if !ok {
		return config.Register{}, &RegisterNotFoundError{Name: name}
	}
	if reg.Device == "" {
		return reg, nil
	}
	dev, ok := s.store.Devices[reg.Device]
	if !ok {
		return config.Register{}, &DeviceNotFoundError{Name: reg.Device}
	}
	reg.Bus, reg.Dev, reg.Fun = dev.Bus, dev.Dev, dev.Fun
	if buses := s.store.Buses[reg.Device]; len(buses) > 0 {
		if busIndex >= 0 && busIndex < len(buses) {
			reg.Bus = buses[busIndex]
		} else {
			s.notices = append(s.notices,
				fmt.Sprintf("register %s: bus index %d out of range (%d buses), using static bus 0x%02X",
					name, busIndex, len(buses), dev.Bus))
		}
	}
	return reg, nil
}

// ReadRegister reads the named register on its first resolved bus and CPU
// thread 0.
func (s *Session) ReadRegister(name string) (uint64, error) {
	return s.ReadRegisterAt(name, 0, 0)
}

// ReadRegisterAt reads the named register, selecting the bus binding by
// index and, for MSRs, the logical CPU thread.
func (s *Session) ReadRegisterAt(name string, busIndex, thread int) (uint64, error) {
	if err := s.requireReady("read register"); err != nil {
		return 0, err
	}
	reg, err := s.registerDef(name, busIndex)
	if err != nil {
		return 0, err
	}
	return s.readRegister(reg, thread)
}

// WriteRegister writes the named register on its first resolved bus and CPU
// thread 0.
func (s *Session) WriteRegister(name string, val uint64) error {
	return s.WriteRegisterAt(name, 0, 0, val)
}

// WriteRegisterAt writes the named register, selecting the bus binding by
// index and, for MSRs, the logical CPU thread.
func (s *Session) WriteRegisterAt(name string, busIndex, thread int, val uint64) error {
	if err := s.requireReady("write register"); err != nil {
		return err
	}
	reg, err := s.registerDef(name, busIndex)
	if err != nil {
		return err
	}
	return s.writeRegister(reg, thread, val)
}

func (s *Session) readRegister(reg config.Register, thread int) (uint64, error) {
	switch reg.Kind {
	case config.KindPCICfg:
		return s.readConfig(reg, s.layer.PCIRead)
	case config.KindMMCFG:
		return s.readConfig(reg, s.layer.MMCFGRead)
	case config.KindMMIO:
		base, err := s.mmioBARBase(reg.BAR)
		if err != nil {
			return 0, err
		}
		val, err := s.layer.MemRead(base+reg.Offset, reg.Size)
		if err != nil {
			return 0, &TransportError{Op: "mmio read " + reg.Name, Err: err}
		}
		return val, nil
	case config.KindMSR:
		eax, edx, err := s.layer.MSRRead(thread, reg.MSR)
		if err != nil {
			return 0, &TransportError{Op: "msr read " + reg.Name, Err: err}
		}
		return uint64(edx)<<32 | uint64(eax), nil
	case config.KindPortIO:
		val, err := s.layer.PortIn(uint16(reg.Port), reg.Size)
		if err != nil {
			return 0, &TransportError{Op: "io read " + reg.Name, Err: err}
		}
		return val, nil
	case config.KindIOBAR:
		base, err := s.ioBARBase(reg.BAR)
		if err != nil {
			return 0, err
		}
		val, err := s.layer.PortIn(uint16(base+reg.Offset), reg.Size)
		if err != nil {
			return 0, &TransportError{Op: "iobar read " + reg.Name, Err: err}
		}
		return val, nil
	case config.KindMsgBus:
		val, err := s.layer.MsgBusRead(reg.Port, uint32(reg.Offset))
		if err != nil {
			return 0, &TransportError{Op: "msgbus read " + reg.Name, Err: err}
		}
		return val, nil
	case config.KindMMMsgBus:
		val, err := s.layer.MMMsgBusRead(reg.Port, uint32(reg.Offset))
		if err != nil {
			return 0, &TransportError{Op: "mm_msgbus read " + reg.Name, Err: err}
		}
		return val, nil
	}
	return 0, &RegisterTypeError{Register: reg.Name, Kind: reg.Kind}
}

func (s *Session) writeRegister(reg config.Register, thread int, val uint64) error {
	switch reg.Kind {
	case config.KindPCICfg:
		return s.writeConfig(reg, val, s.layer.PCIWrite)
	case config.KindMMCFG:
		return s.writeConfig(reg, val, s.layer.MMCFGWrite)
	case config.KindMMIO:
		base, err := s.mmioBARBase(reg.BAR)
		if err != nil {
			return err
		}
		if err := s.layer.MemWrite(base+reg.Offset, reg.Size, val); err != nil {
			return &TransportError{Op: "mmio write " + reg.Name, Err: err}
		}
		return nil
	case config.KindMSR:
		eax := uint32(val)
		edx := uint32(val >> 32)
		if err := s.layer.MSRWrite(thread, reg.MSR, eax, edx); err != nil {
			return &TransportError{Op: "msr write " + reg.Name, Err: err}
		}
		return nil
	case config.KindPortIO:
		if err := s.layer.PortOut(uint16(reg.Port), reg.Size, val); err != nil {
			return &TransportError{Op: "io write " + reg.Name, Err: err}
		}
		return nil
	case config.KindIOBAR:
		base, err := s.ioBARBase(reg.BAR)
		if err != nil {
			return err
		}
		if err := s.layer.PortOut(uint16(base+reg.Offset), reg.Size, val); err != nil {
			return &TransportError{Op: "iobar write " + reg.Name, Err: err}
		}
		return nil
	case config.KindMsgBus:
		if err := s.layer.MsgBusWrite(reg.Port, uint32(reg.Offset), val); err != nil {
			return &TransportError{Op: "msgbus write " + reg.Name, Err: err}
		}
		return nil
	case config.KindMMMsgBus:
		if err := s.layer.MMMsgBusWrite(reg.Port, uint32(reg.Offset), val); err != nil {
			return &TransportError{Op: "mm_msgbus write " + reg.Name, Err: err}
		}
		return nil
	}
	return &RegisterTypeError{Register: reg.Name, Kind: reg.Kind}
}

type configReader func(bus, dev, fun uint8, offset uint16, size uint) (uint64, error)
type configWriter func(bus, dev, fun uint8, offset uint16, size uint, val uint64) error

// readConfig reads a config-space register. 8-byte registers exceed the
// transport's dword granularity and are composed from two dword reads, low
// dword first.
func (s *Session) readConfig(reg config.Register, read configReader) (uint64, error) {
	op := string(reg.Kind) + " read " + reg.Name
	if reg.Size == 8 {
		lo, err := read(reg.Bus, reg.Dev, reg.Fun, uint16(reg.Offset), 4)
		if err != nil {
			return 0, &TransportError{Op: op, Err: err}
		}
		hi, err := read(reg.Bus, reg.Dev, reg.Fun, uint16(reg.Offset)+4, 4)
		if err != nil {
			return 0, &TransportError{Op: op, Err: err}
		}
		return hi<<32 | lo, nil
	}
	val, err := read(reg.Bus, reg.Dev, reg.Fun, uint16(reg.Offset), reg.Size)
	if err != nil {
		return 0, &TransportError{Op: op, Err: err}
	}
	return val, nil
}

func (s *Session) writeConfig(reg config.Register, val uint64, write configWriter) error {
	op := string(reg.Kind) + " write " + reg.Name
	if reg.Size == 8 {
		if err := write(reg.Bus, reg.Dev, reg.Fun, uint16(reg.Offset), 4, val&0xFFFFFFFF); err != nil {
			return &TransportError{Op: op, Err: err}
		}
		if err := write(reg.Bus, reg.Dev, reg.Fun, uint16(reg.Offset)+4, 4, val>>32); err != nil {
			return &TransportError{Op: op, Err: err}
		}
		return nil
	}
	if err := write(reg.Bus, reg.Dev, reg.Fun, uint16(reg.Offset), reg.Size, val); err != nil {
		return &TransportError{Op: op, Err: err}
	}
	return nil
}

// mmioBARBase resolves the base address of a named MMIO window: either read
// from the backing register (optionally a single preserve-position field of
// it), or taken from the fixed base. The declared mask aligns the result.
func (s *Session) mmioBARBase(name string) (uint64, error) {
	bar, ok := s.store.MMIOBars[name]
	if !ok {
		return 0, &BARNotFoundError{Name: name}
	}
	return s.barBase(bar, 0)
}

// ioBARBase resolves the base port of a named I/O window. Without a declared
// mask the PCI I/O BAR indicator bits are cleared.
func (s *Session) ioBARBase(name string) (uint64, error) {
	bar, ok := s.store.IOBars[name]
	if !ok {
		return 0, &BARNotFoundError{Name: name}
	}
	return s.barBase(bar, ioBARAlignMask)
}

func (s *Session) barBase(bar config.BAR, defaultMask uint64) (uint64, error) {
	base := bar.Base
	if bar.Register != "" {
		reg, err := s.registerDef(bar.Register, 0)
		if err != nil {
			return 0, err
		}
		val, err := s.readRegister(reg, 0)
		if err != nil {
			return 0, err
		}
		base = val
		if bar.BaseField != "" {
			base, err = FieldValue(reg, val, bar.BaseField, true)
			if err != nil {
				return 0, err
			}
		}
	}
	mask := bar.Mask
	if mask == 0 {
		mask = defaultMask
	}
	if mask != 0 {
		base &= mask
	}
	return base, nil
}

// fieldMask returns the positioned bit mask of a field.
func fieldMask(f config.Field) uint64 {
	if f.Size >= 64 {
		return ^uint64(0)
	}
	return ((uint64(1) << f.Size) - 1) << f.Bit
}

// FieldValue extracts a field from a raw register value. With
// preservePosition the field keeps its bit position inside the register;
// otherwise it is shifted down to bit zero.
func FieldValue(reg config.Register, regVal uint64, field string, preservePosition bool) (uint64, error) {
	f, ok := reg.Field(field)
	if !ok {
		return 0, &FieldNotFoundError{Register: reg.Name, Field: field}
	}
	v := regVal & fieldMask(f)
	if !preservePosition {
		v >>= f.Bit
	}
	return v, nil
}

// SetFieldValue returns regVal with the field replaced by fieldVal. With
// preservePosition fieldVal is taken as already positioned; otherwise it is
// shifted up from bit zero. Bits of fieldVal outside the field are dropped.
func SetFieldValue(reg config.Register, regVal, fieldVal uint64, field string, preservePosition bool) (uint64, error) {
	f, ok := reg.Field(field)
	if !ok {
		return 0, &FieldNotFoundError{Register: reg.Name, Field: field}
	}
	mask := fieldMask(f)
	if !preservePosition {
		fieldVal <<= f.Bit
	}
	return (regVal &^ mask) | (fieldVal & mask), nil
}

// RegisterFieldMask returns the positioned mask of a register field, or the
// full-width mask of the register when field is empty.
func (s *Session) RegisterFieldMask(name, field string) (uint64, error) {
	reg, ok := s.store.Register[name]
	if !ok {
		return 0, &RegisterNotFoundError{Name: name}
	}
	if field == "" {
		if reg.Size >= 8 {
			return ^uint64(0), nil
		}
		return (uint64(1) << (reg.Size * 8)) - 1, nil
	}
	f, ok := reg.Field(field)
	if !ok {
		return 0, &FieldNotFoundError{Register: reg.Name, Field: field}
	}
	return fieldMask(f), nil
}

// ReadRegisterField reads the register on its first resolved bus and CPU
// thread 0 and extracts one field of it.
func (s *Session) ReadRegisterField(name, field string, preservePosition bool) (uint64, error) {
	return s.ReadRegisterFieldAt(name, field, preservePosition, 0, 0)
}

// ReadRegisterFieldAt reads the register, selecting the bus binding by index
// and, for MSRs, the logical CPU thread, and extracts one field of it.
func (s *Session) ReadRegisterFieldAt(name, field string, preservePosition bool, busIndex, thread int) (uint64, error) {
	reg, ok := s.store.Register[name]
	if !ok {
		return 0, &RegisterNotFoundError{Name: name}
	}
	val, err := s.ReadRegisterAt(name, busIndex, thread)
	if err != nil {
		return 0, err
	}
	return FieldValue(reg, val, field, preservePosition)
}

// WriteRegisterField read-modify-writes one field of the register on its
// first resolved bus and CPU thread 0, leaving the other bits untouched.
func (s *Session) WriteRegisterField(name, field string, preservePosition bool, fieldVal uint64) error {
	return s.WriteRegisterFieldAt(name, field, preservePosition, fieldVal, 0, 0)
}

// WriteRegisterFieldAt read-modify-writes one field of the register on the
// selected bus binding and CPU thread, leaving the other bits untouched.
func (s *Session) WriteRegisterFieldAt(name, field string, preservePosition bool, fieldVal uint64, busIndex, thread int) error {
	reg, ok := s.store.Register[name]
	if !ok {
		return &RegisterNotFoundError{Name: name}
	}
	val, err := s.ReadRegisterAt(name, busIndex, thread)
	if err != nil {
		return err
	}
	val, err = SetFieldValue(reg, val, fieldVal, field, preservePosition)
	if err != nil {
		return err
	}
	return s.WriteRegisterAt(name, busIndex, thread, val)
}

// GetControl reads the field a control aliases, on the first resolved bus
// and CPU thread 0. A control without a field reads the whole register.
func (s *Session) GetControl(name string) (uint64, error) {
	return s.GetControlAt(name, 0, 0)
}

// GetControlAt reads the field a control aliases on the selected bus binding
// and CPU thread.
func (s *Session) GetControlAt(name string, busIndex, thread int) (uint64, error) {
	ctl, ok := s.store.Controls[name]
	if !ok {
		return 0, &ControlNotFoundError{Name: name}
	}
	if ctl.Field == "" {
		return s.ReadRegisterAt(ctl.Register, busIndex, thread)
	}
	return s.ReadRegisterFieldAt(ctl.Register, ctl.Field, false, busIndex, thread)
}

// SetControl writes the field a control aliases, on the first resolved bus
// and CPU thread 0.
func (s *Session) SetControl(name string, val uint64) error {
	return s.SetControlAt(name, val, 0, 0)
}

// SetControlAt writes the field a control aliases on the selected bus
// binding and CPU thread.
func (s *Session) SetControlAt(name string, val uint64, busIndex, thread int) error {
	ctl, ok := s.store.Controls[name]
	if !ok {
		return &ControlNotFoundError{Name: name}
	}
	if ctl.Field == "" {
		return s.WriteRegisterAt(ctl.Register, busIndex, thread, val)
	}
	return s.WriteRegisterFieldAt(ctl.Register, ctl.Field, false, val, busIndex, thread)
}

// IsRegisterDefined reports whether the configuration declares the register.
func (s *Session) IsRegisterDefined(name string) bool {
	_, ok := s.store.Register[name]
	return ok
}

// RegisterHasField reports whether the register declares the field. An
// undefined register has no fields.
func (s *Session) RegisterHasField(name, field string) bool {
	reg, ok := s.store.Register[name]
	return ok && reg.HasField(field)
}

// IsControlDefined reports whether the configuration declares the control.
func (s *Session) IsControlDefined(name string) bool {
	_, ok := s.store.Controls[name]
	return ok
}

// IsDeviceEnabled reports whether the named device responds on its declared
// address. An absent or disabled function reads all-ones in the vendor ID.
func (s *Session) IsDeviceEnabled(name string) (bool, error) {
	dev, ok := s.store.Devices[name]
	if !ok {
		return false, &DeviceNotFoundError{Name: name}
	}
	bus := dev.Bus
	if buses := s.store.Buses[name]; len(buses) > 0 {
		bus = buses[0]
	}
	vid, err := s.layer.PCIRead(bus, dev.Dev, dev.Fun, 0, 2)
	if err != nil {
		return false, &TransportError{Op: "probe device " + name, Err: err}
	}
	return vid != 0xFFFF, nil
}

// DeviceBDF returns the declared address of a device on its static bus.
func (s *Session) DeviceBDF(name string) (pci.BDF, error) {
	dev, ok := s.store.Devices[name]
	if !ok {
		return pci.BDF{}, &DeviceNotFoundError{Name: name}
	}
	return pci.BDF{Bus: dev.Bus, Device: dev.Dev, Function: dev.Fun}, nil
}

// DeviceBuses returns the buses a device was discovered on, in discovery
// order. Nil when the device is unbound.
func (s *Session) DeviceBuses(name string) []uint8 {
	return s.store.Buses[name]
}

// RegisterBuses returns the resolved buses of the register's device. A
// register without a device reference has no dynamic buses.
func (s *Session) RegisterBuses(name string) ([]uint8, error) {
	reg, ok := s.store.Register[name]
	if !ok {
		return nil, &RegisterNotFoundError{Name: name}
	}
	if reg.Device == "" {
		return nil, nil
	}
	return s.store.Buses[reg.Device], nil
}

// FormatRegister renders a register value with its address and fields, one
// field per line sorted by bit position.
func (s *Session) FormatRegister(name string, val uint64) string {
	reg, ok := s.store.Register[name]
	if !ok {
		return fmt.Sprintf("%s = %s (undefined)", name, hexutil.Format(val, 8))
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s = %s", name, hexutil.Format(val, reg.Size))
	if src := registerSource(reg); src != "" {
		fmt.Fprintf(&b, " (%s)", src)
	}
	if reg.Desc != "" {
		fmt.Fprintf(&b, " << %s", reg.Desc)
	}
	fields := make([]config.Field, len(reg.Fields))
	copy(fields, reg.Fields)
	sort.SliceStable(fields, func(i, j int) bool { return fields[i].Bit < fields[j].Bit })
	for _, f := range fields {
		fv := (val & fieldMask(f)) >> f.Bit
		fmt.Fprintf(&b, "\n    [%02d] %-16s = 0x%X", f.Bit, f.Name, fv)
		if f.Desc != "" {
			fmt.Fprintf(&b, " << %s", f.Desc)
		}
	}
	return b.String()
}

func registerSource(reg config.Register) string {
	switch reg.Kind {
	case config.KindPCICfg, config.KindMMCFG:
		where := reg.Device
		if where == "" {
			where = fmt.Sprintf("%02x:%02x.%x", reg.Bus, reg.Dev, reg.Fun)
		}
		return fmt.Sprintf("%s, %s + 0x%X", reg.Kind, where, reg.Offset)
	case config.KindMMIO, config.KindIOBAR:
		return fmt.Sprintf("%s, %s + 0x%X", reg.Kind, reg.BAR, reg.Offset)
	case config.KindMSR:
		return fmt.Sprintf("msr 0x%X", reg.MSR)
	case config.KindPortIO:
		return fmt.Sprintf("i/o port 0x%X", reg.Port)
	case config.KindMsgBus, config.KindMMMsgBus:
		return fmt.Sprintf("%s, port 0x%02X reg 0x%X", reg.Kind, reg.Port, reg.Offset)
	}
	return string(reg.Kind)
}
