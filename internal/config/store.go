package config

// Store owns the five descriptor categories plus the discovered bus
// bindings. It is created empty at session start, mutated only by the
// loader and the bus resolver, and treated as read-only afterwards.
type Store struct {
	Devices  map[string]Device
	MMIOBars map[string]BAR
	IOBars   map[string]BAR
	Memory   map[string]MemRange
	Register map[string]Register
	Controls map[string]Control

	// Buses maps a device name to every bus number it was discovered on,
	// in discovery order. Empty until the bus resolver runs.
	Buses map[string][]uint8
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		Devices:  make(map[string]Device),
		MMIOBars: make(map[string]BAR),
		IOBars:   make(map[string]BAR),
		Memory:   make(map[string]MemRange),
		Register: make(map[string]Register),
		Controls: make(map[string]Control),
		Buses:    make(map[string][]uint8),
	}
}
