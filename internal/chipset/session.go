// Package chipset implements the platform identification and register
// access engine: it resolves the running platform against the catalog,
// loads its layered configuration, binds declared devices to enumerated
// buses and dispatches named register accesses to the right address space.
package chipset

import (
	"fmt"
	"strings"

	"github.com/platprobe/platprobe/internal/access"
	"github.com/platprobe/platprobe/internal/catalog"
	"github.com/platprobe/platprobe/internal/config"
)

// State tracks session lifecycle. Register access requires Ready.
type State int

const (
	StateUninitialized State = iota
	StateIdentified
	StateConfigLoaded
	StateBusResolved
	StateReady
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateIdentified:
		return "identified"
	case StateConfigLoaded:
		return "config-loaded"
	case StateBusResolved:
		return "bus-resolved"
	case StateReady:
		return "ready"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Identity is the resolved identity of the chipset or the PCH. Immutable
// once detection ran. ID is catalog.Unknown and Code empty when nothing in
// the catalog matched.
type Identity struct {
	VID      uint16
	DID      uint16
	RID      uint8
	ID       catalog.ID
	Code     string
	Longname string
}

const (
	unknownLongname    = "Unknown Platform"
	defaultPCHLongname = "Default PCH"
)

// Options configure session initialization.
type Options struct {
	// Platform forces the chipset code instead of live detection.
	Platform string
	// PCH forces the PCH code instead of live detection.
	PCH string
	// ConfigDir is the directory holding declarative configuration
	// documents.
	ConfigDir string
	// RequireHardware makes an unidentified platform fatal. Without it the
	// same condition is reported as a notice only.
	RequireHardware bool
}

// Session owns one platform assessment lifecycle: identify once, load
// configuration once, resolve buses once, then serve register access until
// closed. Sessions are single-threaded; see the package documentation.
type Session struct {
	layer access.Layer
	store *config.Store

	chip Identity
	pch  Identity

	state   State
	report  *config.Report
	notices []string
}

// NewSession creates an uninitialized session on top of a platform access
// layer.
func NewSession(layer access.Layer) *Session {
	return &Session{
		layer: layer,
		store: config.NewStore(),
	}
}

// Init identifies the platform, loads its configuration and resolves bus
// bindings, leaving the session Ready. Re-detection within a session is not
// supported: create a new session instead.
//
// When the platform stays unidentified the returned error is an
// *UnknownPlatformError if Options.RequireHardware is set; otherwise the
// condition is recorded as a notice and Init succeeds with degraded
// functionality.
func (s *Session) Init(opts Options) error {
	if s.state != StateUninitialized {
		return &SessionStateError{Op: "init", State: s.state}
	}

	var matched bool
	s.chip, s.pch, matched = identify(s.layer, opts.Platform, opts.PCH)
	s.state = StateIdentified

	report, err := config.Load(s.store, opts.ConfigDir, s.chip.Code, s.pch.Code)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	s.report = report
	s.state = StateConfigLoaded

	if err := resolveBuses(s.layer, s.store); err != nil {
		// Enumeration failure degrades to static bus numbers only.
		s.notices = append(s.notices, fmt.Sprintf("pci enumeration unavailable: %v", err))
	}
	s.state = StateBusResolved
	s.state = StateReady

	if !matched {
		if opts.RequireHardware {
			return &UnknownPlatformError{VID: s.chip.VID, DID: s.chip.DID, RID: s.chip.RID}
		}
		s.notices = append(s.notices,
			fmt.Sprintf("unidentified platform (VID 0x%04X DID 0x%04X), running with degraded configuration", s.chip.VID, s.chip.DID))
	}
	return nil
}

// identify resolves the chipset and PCH identities from explicit codes or
// live host bridge / PCH reads. Matched is false when the chipset could not
// be resolved against the catalog; the PCH path is independent and never
// affects it.
func identify(layer access.Layer, platformCode, pchCode string) (chip, pch Identity, matched bool) {
	vid, did, rid := detectIDs(layer, 0, 0, 0)
	pvid, pdid, prid := detectIDs(layer, 0, 31, 0)
	matched = true

	if platformCode == "" {
		if vid != catalog.VIDIntel {
			matched = false
		}
	} else {
		vid = catalog.VIDIntel
		if d, ok := catalog.ChipsetDIDByCode(platformCode); ok {
			did, rid = d, 0
		} else {
			matched = false
			vid, did, rid = 0xFFFF, 0xFFFF, 0xFF
		}
	}

	chip = Identity{VID: vid, DID: did, RID: rid, Longname: unknownLongname}
	if e, ok := catalog.LookupChipset(did); ok && matched {
		chip.ID = e.ID
		chip.Code = strings.ToLower(e.Code)
		chip.Longname = e.Longname
	} else {
		matched = false
	}

	if pchCode != "" {
		pvid = catalog.VIDIntel
		if d, ok := catalog.PCHDIDByCode(pchCode); ok {
			pdid, prid = d, 0
		} else {
			pvid, pdid, prid = 0xFFFF, 0xFFFF, 0xFF
		}
	}

	pch = Identity{VID: pvid, DID: pdid, RID: prid, Longname: defaultPCHLongname}
	if e, ok := catalog.LookupPCH(pdid); ok && pvid == catalog.VIDIntel {
		pch.ID = e.ID
		pch.Code = strings.ToLower(e.Code)
		pch.Longname = e.Longname
	}
	return chip, pch, matched
}

// detectIDs reads vendor/device/revision of one function. Read failures are
// tolerated at this stage: detection reports the invalid identity and
// matching fails downstream.
func detectIDs(layer access.Layer, bus, dev, fun uint8) (vid, did uint16, rid uint8) {
	vid, did, rid = 0xFFFF, 0xFFFF, 0xFF
	vidDid, err := layer.PCIRead(bus, dev, fun, 0, 4)
	if err != nil {
		return vid, did, rid
	}
	vid = uint16(vidDid)
	did = uint16(vidDid >> 16)
	if r, err := layer.PCIRead(bus, dev, fun, 8, 1); err == nil {
		rid = uint8(r)
	}
	return vid, did, rid
}

// Close releases the underlying access layer. The session is unusable
// afterwards.
func (s *Session) Close() error {
	s.state = StateUninitialized
	return s.layer.Close()
}

// Chipset returns the resolved chipset identity.
func (s *Session) Chipset() Identity { return s.chip }

// PCH returns the resolved PCH identity.
func (s *Session) PCH() Identity { return s.pch }

// State returns the current lifecycle state.
func (s *Session) State() State { return s.state }

// Store exposes the loaded configuration. Read-only once the session is
// Ready.
func (s *Session) Store() *config.Store { return s.store }

// Report returns the configuration loading report, nil before Init.
func (s *Session) Report() *config.Report { return s.report }

// Notices returns the reasons best-effort paths degraded (unknown platform,
// failed enumeration, out-of-range bus indexes).
func (s *Session) Notices() []string { return s.notices }

// IsCore reports whether the chipset belongs to the Core family.
func (s *Session) IsCore() bool { return catalog.IsCore(s.chip.ID) }

// IsServer reports whether the chipset belongs to the Xeon family.
func (s *Session) IsServer() bool { return catalog.IsXeon(s.chip.ID) }

// IsAtom reports whether the chipset belongs to the Atom family.
func (s *Session) IsAtom() bool { return catalog.IsAtom(s.chip.ID) }

func (s *Session) requireReady(op string) error {
	if s.state != StateReady {
		return &SessionStateError{Op: op, State: s.state}
	}
	return nil
}
