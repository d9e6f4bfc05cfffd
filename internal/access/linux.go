package access

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/platprobe/platprobe/internal/pci"
)

const sysfsBasePath = "/sys/bus/pci/devices"

// Sideband message bus mailbox registers in the host bridge config space.
const (
	msgBusMCR  = 0xD0 // message control register
	msgBusMDR  = 0xD4 // message data register
	msgBusMCRX = 0xD8 // message control register extension

	msgBusOpRead  = 0x10
	msgBusOpWrite = 0x11
)

// defaultSBRegBase is the conventional base of the sideband register MMIO
// window on SoCs that expose one.
const defaultSBRegBase uint64 = 0xFD000000

// Linux implements Layer on top of sysfs and devfs: PCI config space through
// /sys/bus/pci/devices/*/config (extended offsets go through ECAM), MSRs
// through /dev/cpu/N/msr, port I/O through /dev/port and physical memory
// through an mmap of /dev/mem. Requires root.
type Linux struct {
	sysfsBase string
	sbregBase uint64

	cfgFDs map[string]*os.File
	msrFDs map[int]*os.File
	portFD *os.File
	memFD  *os.File
}

// NewLinux returns a Layer backed by the running kernel.
func NewLinux() *Linux {
	return &Linux{
		sysfsBase: sysfsBasePath,
		sbregBase: defaultSBRegBase,
		cfgFDs:    make(map[string]*os.File),
		msrFDs:    make(map[int]*os.File),
	}
}

// newLinuxWithPath returns a Linux layer rooted at a custom sysfs base,
// for tests.
func newLinuxWithPath(base string) *Linux {
	l := NewLinux()
	l.sysfsBase = base
	return l
}

func leDecode(b []byte) uint64 {
	var v uint64
	for i := len(b) - 1; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v
}

func leEncode(b []byte, v uint64) {
	for i := range b {
		b[i] = byte(v >> (8 * uint(i)))
	}
}

func (l *Linux) cfgFile(bus, dev, fun uint8) (*os.File, error) {
	bdf := pci.BDF{Bus: bus, Device: dev, Function: fun}
	if f, ok := l.cfgFDs[bdf.String()]; ok {
		return f, nil
	}
	path := filepath.Join(l.sysfsBase, bdf.String(), "config")
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		// Fall back to read-only for detection on locked-down systems.
		f, err = os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open config space of %s: %w", bdf.Short(), err)
		}
	}
	l.cfgFDs[bdf.String()] = f
	return f, nil
}

// PCIRead reads size bytes from PCI configuration space.
func (l *Linux) PCIRead(bus, dev, fun uint8, offset uint16, size uint) (uint64, error) {
	f, err := l.cfgFile(bus, dev, fun)
	if err != nil {
		return 0, err
	}
	buf := make([]byte, size)
	if _, err := f.ReadAt(buf, int64(offset)); err != nil {
		return 0, fmt.Errorf("pci config read %02x:%02x.%x+0x%x: %w", bus, dev, fun, offset, err)
	}
	return leDecode(buf), nil
}

// PCIWrite writes size bytes to PCI configuration space.
func (l *Linux) PCIWrite(bus, dev, fun uint8, offset uint16, size uint, val uint64) error {
	f, err := l.cfgFile(bus, dev, fun)
	if err != nil {
		return err
	}
	buf := make([]byte, size)
	leEncode(buf, val)
	if _, err := f.WriteAt(buf, int64(offset)); err != nil {
		return fmt.Errorf("pci config write %02x:%02x.%x+0x%x: %w", bus, dev, fun, offset, err)
	}
	return nil
}

// MMCFGRead reads through the extended configuration window. The sysfs
// config file already routes offsets past 0x100 through ECAM.
func (l *Linux) MMCFGRead(bus, dev, fun uint8, offset uint16, size uint) (uint64, error) {
	return l.PCIRead(bus, dev, fun, offset, size)
}

// MMCFGWrite writes through the extended configuration window.
func (l *Linux) MMCFGWrite(bus, dev, fun uint8, offset uint16, size uint, val uint64) error {
	return l.PCIWrite(bus, dev, fun, offset, size, val)
}

// Enumerate scans sysfs for present PCI devices in domain 0.
func (l *Linux) Enumerate() ([]pci.EnumDevice, error) {
	entries, err := os.ReadDir(l.sysfsBase)
	if err != nil {
		return nil, fmt.Errorf("enumerate pci devices: %w", err)
	}

	var devices []pci.EnumDevice
	for _, entry := range entries {
		bdf, err := pci.ParseBDF(entry.Name())
		if err != nil || bdf.Domain != 0 {
			continue
		}
		devPath := filepath.Join(l.sysfsBase, entry.Name())

		dev := pci.EnumDevice{BDF: bdf}
		vid, err := readSysfsHex(devPath, "vendor", 16)
		if err != nil {
			continue
		}
		did, err := readSysfsHex(devPath, "device", 16)
		if err != nil {
			continue
		}
		dev.VendorID = uint16(vid)
		dev.DeviceID = uint16(did)
		if rid, err := readSysfsHex(devPath, "revision", 8); err == nil {
			dev.RevisionID = uint8(rid)
		}
		if class, err := readSysfsHex(devPath, "class", 32); err == nil {
			dev.ClassCode = uint32(class) & 0xFFFFFF
		}
		devices = append(devices, dev)
	}
	return devices, nil
}

func readSysfsHex(devPath, name string, bits int) (uint64, error) {
	data, err := os.ReadFile(filepath.Join(devPath, name))
	if err != nil {
		return 0, err
	}
	return strconv.ParseUint(strings.TrimSpace(string(data)), 0, bits)
}

// MemRead reads size bytes of physical memory through /dev/mem.
func (l *Linux) MemRead(addr uint64, size uint) (uint64, error) {
	buf := make([]byte, size)
	if err := l.memAccess(addr, buf, false); err != nil {
		return 0, err
	}
	return leDecode(buf), nil
}

// MemWrite writes size bytes of physical memory through /dev/mem.
func (l *Linux) MemWrite(addr uint64, size uint, val uint64) error {
	buf := make([]byte, size)
	leEncode(buf, val)
	return l.memAccess(addr, buf, true)
}

// memAccess maps the two pages covering addr and copies buf in or out.
// Register windows never span more than a page, so two is always enough.
func (l *Linux) memAccess(addr uint64, buf []byte, write bool) error {
	if l.memFD == nil {
		f, err := os.OpenFile("/dev/mem", os.O_RDWR|os.O_SYNC, 0)
		if err != nil {
			return fmt.Errorf("open /dev/mem: %w", err)
		}
		l.memFD = f
	}
	pageSize := uint64(os.Getpagesize())
	pageAddr := addr &^ (pageSize - 1)
	off := int(addr - pageAddr)

	prot := unix.PROT_READ
	if write {
		prot |= unix.PROT_WRITE
	}
	mem, err := unix.Mmap(int(l.memFD.Fd()), int64(pageAddr), int(pageSize*2), prot, unix.MAP_SHARED)
	if err != nil {
		return fmt.Errorf("mmap phys 0x%x: %w", pageAddr, err)
	}
	defer unix.Munmap(mem)

	if write {
		copy(mem[off:off+len(buf)], buf)
	} else {
		copy(buf, mem[off:off+len(buf)])
	}
	return nil
}

// MSRRead reads a model-specific register on the given CPU thread.
func (l *Linux) MSRRead(thread int, msr uint32) (eax, edx uint32, err error) {
	f, err := l.msrFile(thread)
	if err != nil {
		return 0, 0, err
	}
	var b [8]byte
	if _, err := f.ReadAt(b[:], int64(msr)); err != nil {
		return 0, 0, fmt.Errorf("rdmsr cpu%d 0x%x: %w", thread, msr, err)
	}
	v := leDecode(b[:])
	return uint32(v), uint32(v >> 32), nil
}

// MSRWrite writes a model-specific register on the given CPU thread.
func (l *Linux) MSRWrite(thread int, msr uint32, eax, edx uint32) error {
	f, err := l.msrFile(thread)
	if err != nil {
		return err
	}
	var b [8]byte
	leEncode(b[:], uint64(edx)<<32|uint64(eax))
	if _, err := f.WriteAt(b[:], int64(msr)); err != nil {
		return fmt.Errorf("wrmsr cpu%d 0x%x: %w", thread, msr, err)
	}
	return nil
}

func (l *Linux) msrFile(thread int) (*os.File, error) {
	if thread < 0 {
		thread = 0
	}
	if f, ok := l.msrFDs[thread]; ok {
		return f, nil
	}
	f, err := os.OpenFile(fmt.Sprintf("/dev/cpu/%d/msr", thread), os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("open msr device for cpu%d: %w", thread, err)
	}
	l.msrFDs[thread] = f
	return f, nil
}

// PortIn reads size bytes from an I/O port through /dev/port.
func (l *Linux) PortIn(port uint16, size uint) (uint64, error) {
	f, err := l.portFile()
	if err != nil {
		return 0, err
	}
	buf := make([]byte, size)
	if _, err := f.ReadAt(buf, int64(port)); err != nil {
		return 0, fmt.Errorf("port in 0x%x: %w", port, err)
	}
	return leDecode(buf), nil
}

// PortOut writes size bytes to an I/O port through /dev/port.
func (l *Linux) PortOut(port uint16, size uint, val uint64) error {
	f, err := l.portFile()
	if err != nil {
		return err
	}
	buf := make([]byte, size)
	leEncode(buf, val)
	if _, err := f.WriteAt(buf, int64(port)); err != nil {
		return fmt.Errorf("port out 0x%x: %w", port, err)
	}
	return nil
}

func (l *Linux) portFile() (*os.File, error) {
	if l.portFD != nil {
		return l.portFD, nil
	}
	f, err := os.OpenFile("/dev/port", os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("open /dev/port: %w", err)
	}
	l.portFD = f
	return f, nil
}

// MsgBusRead performs a sideband register read through the MCR/MDR mailbox
// in the host bridge configuration space.
func (l *Linux) MsgBusRead(port, register uint32) (uint64, error) {
	if err := l.msgBusCommand(msgBusOpRead, port, register); err != nil {
		return 0, err
	}
	return l.PCIRead(0, 0, 0, msgBusMDR, 4)
}

// MsgBusWrite performs a sideband register write through the mailbox.
func (l *Linux) MsgBusWrite(port, register uint32, val uint64) error {
	if err := l.PCIWrite(0, 0, 0, msgBusMDR, 4, val&0xFFFFFFFF); err != nil {
		return err
	}
	return l.msgBusCommand(msgBusOpWrite, port, register)
}

func (l *Linux) msgBusCommand(op, port, register uint32) error {
	mcrx := uint64(register & 0xFFFFFF00)
	mcr := uint64(op<<24 | (port&0xFF)<<16 | (register&0xFF)<<8 | 0xF0)
	if err := l.PCIWrite(0, 0, 0, msgBusMCRX, 4, mcrx); err != nil {
		return err
	}
	return l.PCIWrite(0, 0, 0, msgBusMCR, 4, mcr)
}

// MMMsgBusRead reads a sideband register through the memory-mapped SBREG
// window.
func (l *Linux) MMMsgBusRead(port, register uint32) (uint64, error) {
	return l.MemRead(l.sbregAddr(port, register), 4)
}

// MMMsgBusWrite writes a sideband register through the SBREG window.
func (l *Linux) MMMsgBusWrite(port, register uint32, val uint64) error {
	return l.MemWrite(l.sbregAddr(port, register), 4, val&0xFFFFFFFF)
}

func (l *Linux) sbregAddr(port, register uint32) uint64 {
	return l.sbregBase | uint64(port&0xFF)<<16 | uint64(register&0xFFFF)
}

// Close releases every cached file descriptor.
func (l *Linux) Close() error {
	var first error
	for _, f := range l.cfgFDs {
		if err := f.Close(); err != nil && first == nil {
			first = err
		}
	}
	for _, f := range l.msrFDs {
		if err := f.Close(); err != nil && first == nil {
			first = err
		}
	}
	if l.portFD != nil {
		if err := l.portFD.Close(); err != nil && first == nil {
			first = err
		}
	}
	if l.memFD != nil {
		if err := l.memFD.Close(); err != nil && first == nil {
			first = err
		}
	}
	l.cfgFDs = make(map[string]*os.File)
	l.msrFDs = make(map[int]*os.File)
	l.portFD = nil
	l.memFD = nil
	return first
}
