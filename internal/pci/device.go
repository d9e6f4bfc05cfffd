package pci

import "fmt"

// EnumDevice is one device discovered during bus enumeration. It carries
// exactly the identification the bus resolver and the scan listing need.
type EnumDevice struct {
	BDF        BDF
	VendorID   uint16
	DeviceID   uint16
	RevisionID uint8
	ClassCode  uint32 // 24-bit: base_class << 16 | sub_class << 8 | prog_if
}

// BaseClass returns the PCI base class code.
func (d *EnumDevice) BaseClass() uint8 {
	return uint8((d.ClassCode >> 16) & 0xFF)
}

// SubClass returns the PCI sub-class code.
func (d *EnumDevice) SubClass() uint8 {
	return uint8((d.ClassCode >> 8) & 0xFF)
}

// subClassNames maps (base_class << 8 | sub_class) to human-readable names.
var subClassNames = map[uint16]string{
	0x0101: "IDE interface",
	0x0106: "SATA controller",
	0x0108: "Non-Volatile memory controller",
	0x0200: "Ethernet controller",
	0x0280: "Network controller",
	0x0300: "VGA compatible controller",
	0x0401: "Multimedia audio controller",
	0x0403: "Audio device",
	0x0500: "RAM memory",
	0x0580: "Memory controller",
	0x0600: "Host bridge",
	0x0601: "ISA bridge",
	0x0604: "PCI bridge",
	0x0700: "Serial controller",
	0x0780: "Communication controller",
	0x0880: "System peripheral",
	0x0C03: "USB controller",
	0x0C05: "SMBus",
	0x1180: "Signal processing controller",
}

// baseClassNames maps base_class to a fallback human-readable name.
var baseClassNames = map[uint8]string{
	0x00: "Unclassified device",
	0x01: "Mass storage controller",
	0x02: "Network controller",
	0x03: "Display controller",
	0x04: "Multimedia controller",
	0x05: "Memory controller",
	0x06: "Bridge",
	0x07: "Communication controller",
	0x08: "System peripheral",
	0x0C: "Serial bus controller",
	0x0D: "Wireless controller",
	0x11: "Signal processing controller",
	0xFF: "Unassigned class",
}

// ClassDescription returns a human-readable description matching lspci style.
func (d *EnumDevice) ClassDescription() string {
	key := uint16(d.BaseClass())<<8 | uint16(d.SubClass())
	if name, ok := subClassNames[key]; ok {
		return name
	}
	if name, ok := baseClassNames[d.BaseClass()]; ok {
		return name
	}
	return fmt.Sprintf("Class [%02x%02x]", d.BaseClass(), d.SubClass())
}

// Summary returns a short summary line for display.
func (d *EnumDevice) Summary() string {
	return fmt.Sprintf("%s %04x:%04x [%s] (rev %02x)",
		d.BDF.String(), d.VendorID, d.DeviceID, d.ClassDescription(), d.RevisionID)
}
