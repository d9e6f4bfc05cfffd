package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/platprobe/platprobe/internal/catalog"
)

// commonPrefix marks configuration files that apply to every platform.
const commonPrefix = "common"

// Warning reports a configuration source that was skipped or rejected.
// Loading continues past warnings; they exist so callers can see why a
// best-effort path degraded.
type Warning struct {
	File   string
	Reason string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s", w.File, w.Reason)
}

// Report describes what one Load pass did.
type Report struct {
	OverrideApplied bool
	Loaded          []string
	Warnings        []Warning
}

// Load populates the store for the resolved platform. If a programmatic
// override is registered for the chipset code it seeds the store first;
// declarative documents still load afterwards and may override entries.
//
// Documents are applied in four phases, lexicographic within each:
//
//  1. common* files
//  2. <chipset code>* files (skipped when the code is empty)
//  3. <pch code>* files (skipped when the code is empty)
//  4. every remaining file that does not belong to another known chipset
//     and does not carry the PCH file prefix
//
// Later documents override earlier ones name-by-name. A missing directory
// yields an empty load; an unreadable or malformed document is skipped with
// a warning and no partial application.
func Load(store *Store, dir, chipsetCode, pchCode string) (*Report, error) {
	report := &Report{}

	if fn, ok := lookupOverride(chipsetCode); ok {
		fn(store)
		report.OverrideApplied = true
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return report, nil
		}
		return report, fmt.Errorf("read config dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if ext := filepath.Ext(name); ext == ".yaml" || ext == ".yml" {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	for _, name := range orderSources(names, chipsetCode, pchCode) {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			report.Warnings = append(report.Warnings, Warning{File: name, Reason: err.Error()})
			continue
		}
		ops, err := parseDocument(data, chipsetCode, pchCode)
		if err != nil {
			report.Warnings = append(report.Warnings, Warning{File: name, Reason: err.Error()})
			continue
		}
		apply(store, ops)
		report.Loaded = append(report.Loaded, name)
	}
	return report, nil
}

// orderSources arranges sorted filenames into the four loading phases.
// Configuration belonging to a different platform is never loaded: the
// catch-all phase excludes files prefixed with any known chipset code and
// any PCH-prefixed file, even for PCHs other than the current one.
func orderSources(sorted []string, chipsetCode, pchCode string) []string {
	var ordered []string
	loaded := make(map[string]bool)

	take := func(match func(string) bool) {
		for _, name := range sorted {
			if !loaded[name] && match(name) {
				ordered = append(ordered, name)
				loaded[name] = true
			}
		}
	}

	take(func(name string) bool { return hasPrefixFold(name, commonPrefix) })
	if chipsetCode != "" {
		take(func(name string) bool { return hasPrefixFold(name, chipsetCode) })
	}
	if pchCode != "" {
		take(func(name string) bool { return hasPrefixFold(name, pchCode) })
	}
	take(func(name string) bool {
		if hasPrefixFold(name, catalog.PCHCodePrefix) {
			return false
		}
		for _, code := range catalog.ChipsetCodes() {
			if hasPrefixFold(name, code) {
				return false
			}
		}
		return true
	})

	return ordered
}

func hasPrefixFold(name, prefix string) bool {
	return len(name) >= len(prefix) && strings.EqualFold(name[:len(prefix)], prefix)
}

// apply mutates the store with a document's validated ops: a removal
// deletes the name from its category, anything else fully replaces the
// prior definition.
func apply(store *Store, ops []op) {
	for _, o := range ops {
		switch o.cat {
		case catDevice:
			if o.undef {
				delete(store.Devices, o.name)
			} else {
				store.Devices[o.name] = o.device
			}
		case catMMIO:
			if o.undef {
				delete(store.MMIOBars, o.name)
			} else {
				store.MMIOBars[o.name] = o.bar
			}
		case catIO:
			if o.undef {
				delete(store.IOBars, o.name)
			} else {
				store.IOBars[o.name] = o.bar
			}
		case catMemory:
			if o.undef {
				delete(store.Memory, o.name)
			} else {
				store.Memory[o.name] = o.memrange
			}
		case catRegister:
			if o.undef {
				delete(store.Register, o.name)
			} else {
				store.Register[o.name] = o.register
			}
		case catControl:
			if o.undef {
				delete(store.Controls, o.name)
			} else {
				store.Controls[o.name] = o.control
			}
		}
	}
}
