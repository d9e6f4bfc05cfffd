package access

import (
	"fmt"

	"github.com/platprobe/platprobe/internal/pci"
)

var (
	_ Layer = (*Linux)(nil)
	_ Layer = (*Mock)(nil)
)

// Mock implements Layer with in-memory address spaces. Tests populate the
// spaces up front, run the code under test, then inspect writes and the
// access trace. Per-space error fields inject transport failures.
type Mock struct {
	cfg    map[uint32][]byte // keyed by bus<<16|dev<<8|fun, 4KB each
	mem    map[uint64]byte
	msrs   map[int]map[uint32]uint64
	ports  map[uint16]byte
	msgbus map[uint64]uint64
	mmsb   map[uint64]uint64

	Devices []pci.EnumDevice

	PCIErr    error
	MemErr    error
	MSRErr    error
	PortErr   error
	MsgBusErr error
	EnumErr   error

	// Trace records every hardware transaction in order, one line each.
	Trace []string
}

// NewMock returns an empty Mock layer.
func NewMock() *Mock {
	return &Mock{
		cfg:    make(map[uint32][]byte),
		mem:    make(map[uint64]byte),
		msrs:   make(map[int]map[uint32]uint64),
		ports:  make(map[uint16]byte),
		msgbus: make(map[uint64]uint64),
		mmsb:   make(map[uint64]uint64),
	}
}

func cfgKey(bus, dev, fun uint8) uint32 {
	return uint32(bus)<<16 | uint32(dev)<<8 | uint32(fun)
}

func (m *Mock) cfgSpace(bus, dev, fun uint8) []byte {
	k := cfgKey(bus, dev, fun)
	if m.cfg[k] == nil {
		m.cfg[k] = make([]byte, 4096)
	}
	return m.cfg[k]
}

func (m *Mock) trace(format string, a ...any) {
	m.Trace = append(m.Trace, fmt.Sprintf(format, a...))
}

// SetPCI seeds a config space value (1, 2, 4 or 8 bytes wide).
func (m *Mock) SetPCI(bus, dev, fun uint8, offset uint16, size uint, val uint64) {
	space := m.cfgSpace(bus, dev, fun)
	leEncode(space[offset:offset+uint16(size)], val)
}

// PCIValue returns the current config space value at offset.
func (m *Mock) PCIValue(bus, dev, fun uint8, offset uint16, size uint) uint64 {
	space := m.cfgSpace(bus, dev, fun)
	return leDecode(space[offset : offset+uint16(size)])
}

// SetMem seeds physical memory.
func (m *Mock) SetMem(addr uint64, size uint, val uint64) {
	for i := uint(0); i < size; i++ {
		m.mem[addr+uint64(i)] = byte(val >> (8 * i))
	}
}

// MemValue returns the current physical memory value at addr.
func (m *Mock) MemValue(addr uint64, size uint) uint64 {
	var v uint64
	for i := int(size) - 1; i >= 0; i-- {
		v = v<<8 | uint64(m.mem[addr+uint64(i)])
	}
	return v
}

// SetMSR seeds an MSR for a CPU thread.
func (m *Mock) SetMSR(thread int, msr uint32, val uint64) {
	if m.msrs[thread] == nil {
		m.msrs[thread] = make(map[uint32]uint64)
	}
	m.msrs[thread][msr] = val
}

// MSRValue returns the current MSR value for a CPU thread.
func (m *Mock) MSRValue(thread int, msr uint32) uint64 {
	return m.msrs[thread][msr]
}

// SetPort seeds an I/O port range.
func (m *Mock) SetPort(port uint16, size uint, val uint64) {
	for i := uint(0); i < size; i++ {
		m.ports[port+uint16(i)] = byte(val >> (8 * i))
	}
}

// SetMsgBus seeds a sideband register.
func (m *Mock) SetMsgBus(port, register uint32, val uint64) {
	m.msgbus[uint64(port)<<32|uint64(register)] = val
}

// SetMMMsgBus seeds a memory-mapped sideband register.
func (m *Mock) SetMMMsgBus(port, register uint32, val uint64) {
	m.mmsb[uint64(port)<<32|uint64(register)] = val
}

// MsgBusValue returns the current sideband register value.
func (m *Mock) MsgBusValue(port, register uint32) uint64 {
	return m.msgbus[uint64(port)<<32|uint64(register)]
}

func (m *Mock) PCIRead(bus, dev, fun uint8, offset uint16, size uint) (uint64, error) {
	if m.PCIErr != nil {
		return 0, m.PCIErr
	}
	m.trace("pci r %02x:%02x.%x+0x%x size=%d", bus, dev, fun, offset, size)
	return m.PCIValue(bus, dev, fun, offset, size), nil
}

func (m *Mock) PCIWrite(bus, dev, fun uint8, offset uint16, size uint, val uint64) error {
	if m.PCIErr != nil {
		return m.PCIErr
	}
	m.trace("pci w %02x:%02x.%x+0x%x size=%d val=0x%x", bus, dev, fun, offset, size, val)
	m.SetPCI(bus, dev, fun, offset, size, val)
	return nil
}

func (m *Mock) MMCFGRead(bus, dev, fun uint8, offset uint16, size uint) (uint64, error) {
	if m.PCIErr != nil {
		return 0, m.PCIErr
	}
	m.trace("mmcfg r %02x:%02x.%x+0x%x size=%d", bus, dev, fun, offset, size)
	return m.PCIValue(bus, dev, fun, offset, size), nil
}

func (m *Mock) MMCFGWrite(bus, dev, fun uint8, offset uint16, size uint, val uint64) error {
	if m.PCIErr != nil {
		return m.PCIErr
	}
	m.trace("mmcfg w %02x:%02x.%x+0x%x size=%d val=0x%x", bus, dev, fun, offset, size, val)
	m.SetPCI(bus, dev, fun, offset, size, val)
	return nil
}

func (m *Mock) Enumerate() ([]pci.EnumDevice, error) {
	if m.EnumErr != nil {
		return nil, m.EnumErr
	}
	m.trace("enumerate")
	out := make([]pci.EnumDevice, len(m.Devices))
	copy(out, m.Devices)
	return out, nil
}

func (m *Mock) MemRead(addr uint64, size uint) (uint64, error) {
	if m.MemErr != nil {
		return 0, m.MemErr
	}
	m.trace("mem r 0x%x size=%d", addr, size)
	return m.MemValue(addr, size), nil
}

func (m *Mock) MemWrite(addr uint64, size uint, val uint64) error {
	if m.MemErr != nil {
		return m.MemErr
	}
	m.trace("mem w 0x%x size=%d val=0x%x", addr, size, val)
	m.SetMem(addr, size, val)
	return nil
}

func (m *Mock) MSRRead(thread int, msr uint32) (eax, edx uint32, err error) {
	if m.MSRErr != nil {
		return 0, 0, m.MSRErr
	}
	m.trace("msr r cpu%d 0x%x", thread, msr)
	v := m.MSRValue(thread, msr)
	return uint32(v), uint32(v >> 32), nil
}

func (m *Mock) MSRWrite(thread int, msr uint32, eax, edx uint32) error {
	if m.MSRErr != nil {
		return m.MSRErr
	}
	m.trace("msr w cpu%d 0x%x eax=0x%x edx=0x%x", thread, msr, eax, edx)
	m.SetMSR(thread, msr, uint64(edx)<<32|uint64(eax))
	return nil
}

func (m *Mock) PortIn(port uint16, size uint) (uint64, error) {
	if m.PortErr != nil {
		return 0, m.PortErr
	}
	m.trace("io in 0x%x size=%d", port, size)
	var v uint64
	for i := int(size) - 1; i >= 0; i-- {
		v = v<<8 | uint64(m.ports[port+uint16(i)])
	}
	return v, nil
}

func (m *Mock) PortOut(port uint16, size uint, val uint64) error {
	if m.PortErr != nil {
		return m.PortErr
	}
	m.trace("io out 0x%x size=%d val=0x%x", port, size, val)
	m.SetPort(port, size, val)
	return nil
}

func (m *Mock) MsgBusRead(port, register uint32) (uint64, error) {
	if m.MsgBusErr != nil {
		return 0, m.MsgBusErr
	}
	m.trace("msgbus r port=0x%x reg=0x%x", port, register)
	return m.msgbus[uint64(port)<<32|uint64(register)], nil
}

func (m *Mock) MsgBusWrite(port, register uint32, val uint64) error {
	if m.MsgBusErr != nil {
		return m.MsgBusErr
	}
	m.trace("msgbus w port=0x%x reg=0x%x val=0x%x", port, register, val)
	m.msgbus[uint64(port)<<32|uint64(register)] = val
	return nil
}

func (m *Mock) MMMsgBusRead(port, register uint32) (uint64, error) {
	if m.MsgBusErr != nil {
		return 0, m.MsgBusErr
	}
	m.trace("mm_msgbus r port=0x%x reg=0x%x", port, register)
	return m.mmsb[uint64(port)<<32|uint64(register)], nil
}

func (m *Mock) MMMsgBusWrite(port, register uint32, val uint64) error {
	if m.MsgBusErr != nil {
		return m.MsgBusErr
	}
	m.trace("mm_msgbus w port=0x%x reg=0x%x val=0x%x", port, register, val)
	m.mmsb[uint64(port)<<32|uint64(register)] = val
	return nil
}

func (m *Mock) Close() error { return nil }
