package chipset

import (
	"errors"
	"reflect"
	"testing"

	"github.com/platprobe/platprobe/internal/access"
	"github.com/platprobe/platprobe/internal/config"
	"github.com/platprobe/platprobe/internal/pci"
)

func TestResolveBusesDiscoveryOrder(t *testing.T) {
	m := access.NewMock()
	m.Devices = []pci.EnumDevice{
		{BDF: pci.BDF{Bus: 0x00, Device: 0x1F, Function: 6}, VendorID: 0x8086, DeviceID: 0x15B8},
		{BDF: pci.BDF{Bus: 0x02, Device: 0x00, Function: 0}, VendorID: 0x8086, DeviceID: 0x15B8}, // wrong dev/fun
		{BDF: pci.BDF{Bus: 0x6C, Device: 0x1F, Function: 6}, VendorID: 0x8086, DeviceID: 0x15D8},
		{BDF: pci.BDF{Bus: 0x6D, Device: 0x1F, Function: 6}, VendorID: 0x10EC, DeviceID: 0x15B8}, // wrong vendor
		{BDF: pci.BDF{Bus: 0x6E, Device: 0x1F, Function: 6}, VendorID: 0x8086, DeviceID: 0x9999}, // did not listed
	}

	store := config.NewStore()
	store.Devices["GBE"] = config.Device{
		Name: "GBE", Bus: 0, Dev: 0x1F, Fun: 6,
		VID: 0x8086, DIDs: []uint16{0x15B8, 0x15D8},
	}
	store.Devices["STATIC"] = config.Device{Name: "STATIC", Bus: 0, Dev: 2, Fun: 0}

	if err := resolveBuses(m, store); err != nil {
		t.Fatalf("resolveBuses: %v", err)
	}
	if got, want := store.Buses["GBE"], []uint8{0x00, 0x6C}; !reflect.DeepEqual(got, want) {
		t.Errorf("GBE buses = %v, want %v", got, want)
	}
	if _, ok := store.Buses["STATIC"]; ok {
		t.Errorf("device without declared IDs must not be bus-bound")
	}
}

func TestResolveBusesEnumerationFailure(t *testing.T) {
	m := access.NewMock()
	m.EnumErr = errors.New("no sysfs")

	store := config.NewStore()
	store.Devices["GBE"] = config.Device{Name: "GBE", Dev: 0x1F, Fun: 6, VID: 0x8086, DIDs: []uint16{0x15B8}}

	if err := resolveBuses(m, store); err == nil {
		t.Fatal("want error when enumeration fails")
	}
	if len(store.Buses) != 0 {
		t.Errorf("no bindings expected after failed enumeration, got %v", store.Buses)
	}
}
