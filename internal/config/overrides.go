package config

import "strings"

// Override seeds a store programmatically for one platform before its
// declarative documents load. Declarative entries applied afterwards still
// override seeded ones.
type Override func(*Store)

var overrides = make(map[string]Override)

// RegisterOverride installs an override for a chipset code. Platforms
// without one fall through to pure declarative loading. Typically called
// from an init function; a second registration for the same code replaces
// the first.
func RegisterOverride(code string, fn Override) {
	overrides[strings.ToLower(code)] = fn
}

func lookupOverride(code string) (Override, bool) {
	if code == "" {
		return nil, false
	}
	fn, ok := overrides[strings.ToLower(code)]
	return fn, ok
}
