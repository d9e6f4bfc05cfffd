package chipset

import (
	"fmt"

	"github.com/platprobe/platprobe/internal/access"
	"github.com/platprobe/platprobe/internal/config"
)

// resolveBuses enumerates the PCI bus space once and records, for every
// declared device carrying a vendor ID and candidate device IDs, each bus
// the device was discovered on. Devices without declared IDs are left
// unbound and keep their static bus number. Enumeration failure is returned
// so the caller can report why discovery degraded; the store is left with
// no bindings in that case.
func resolveBuses(layer access.Layer, store *config.Store) error {
	enumerated, err := layer.Enumerate()
	if err != nil {
		return fmt.Errorf("enumerate pci bus: %w", err)
	}

	for name, dev := range store.Devices {
		if dev.VID == 0 || len(dev.DIDs) == 0 {
			continue
		}
		var buses []uint8
		for _, e := range enumerated {
			if e.BDF.Device != dev.Dev || e.BDF.Function != dev.Fun || e.VendorID != dev.VID {
				continue
			}
			if containsDID(dev.DIDs, e.DeviceID) {
				buses = append(buses, e.BDF.Bus)
			}
		}
		if len(buses) > 0 {
			store.Buses[name] = buses
		}
	}
	return nil
}

func containsDID(dids []uint16, did uint16) bool {
	for _, d := range dids {
		if d == did {
			return true
		}
	}
	return false
}
