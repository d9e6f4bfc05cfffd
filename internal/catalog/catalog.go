// Package catalog holds the static tables mapping PCI identification of the
// host bridge and the platform controller hub to known platform identities.
package catalog

import "strings"

// VIDIntel is the PCI vendor ID all cataloged platforms identify with.
const VIDIntel uint16 = 0x8086

// PCHCodePrefix marks configuration files (and codes) that belong to a
// platform controller hub rather than a chipset.
const PCHCodePrefix = "pch_"

// ID is the numeric identity of a cataloged platform.
type ID int

// Chipset identities.
const (
	Unknown ID = 0
	SNB     ID = 1
	JKT     ID = 2
	IVB     ID = 3
	IVT     ID = 4
	HSW     ID = 5
	BYT     ID = 6
	BDW     ID = 7
	QRK     ID = 8
	AVN     ID = 9
	HSX     ID = 10
	SKL     ID = 11
	KBL     ID = 13
	CHT     ID = 14
	BDX     ID = 15
	CFL     ID = 16
	APL     ID = 17
	DNV     ID = 18
	WHL     ID = 19
	SKX     ID = 20
)

// PCH identities live in a separate numeric range.
const (
	PCH1xx  ID = 10001
	PCH2xx  ID = 10002
	PCHC620 ID = 10003
	PCHC60x ID = 10004
	PCHC61x ID = 10005
	PCH3xx  ID = 10006
)

// Entry describes one cataloged device ID.
type Entry struct {
	DID      uint16
	Name     string
	ID       ID
	Code     string
	Longname string
}

// Chipset family groupings used by assessment logic to gate tests.
var (
	familyCore  = map[ID]bool{SNB: true, IVB: true, HSW: true, BDW: true, SKL: true, KBL: true, CFL: true, WHL: true}
	familyXeon  = map[ID]bool{JKT: true, IVT: true, HSX: true, BDX: true, SKX: true}
	familyAtom  = map[ID]bool{BYT: true, AVN: true, CHT: true, APL: true, DNV: true}
	familyQuark = map[ID]bool{QRK: true}
)

// IsCore reports whether id belongs to the Core processor family.
func IsCore(id ID) bool { return familyCore[id] }

// IsXeon reports whether id belongs to the Xeon server family.
func IsXeon(id ID) bool { return familyXeon[id] }

// IsAtom reports whether id belongs to the Atom SoC family.
func IsAtom(id ID) bool { return familyAtom[id] }

// IsQuark reports whether id belongs to the Quark SoC family.
func IsQuark(id ID) bool { return familyQuark[id] }

// chipsets maps host bridge (bus 0, device 0, function 0) device IDs to
// platform identities. Data sourced from Intel external design specs.
var chipsets = []Entry{
	// 2nd Generation Core (Sandy Bridge)
	{0x0100, "Sandy Bridge", SNB, "SNB", "Desktop 2nd Generation Core Processor (Sandy Bridge CPU / Cougar Point PCH)"},
	{0x0104, "Sandy Bridge", SNB, "SNB", "Mobile 2nd Generation Core Processor (Sandy Bridge CPU / Cougar Point PCH)"},
	{0x0108, "Sandy Bridge", SNB, "SNB", "Intel Xeon Processor E3-1200 (Sandy Bridge CPU, C200 Series PCH)"},

	// Xeon v1 (Jaketown / Sandy Bridge-EP)
	{0x3C00, "Jaketown", JKT, "JKT", "Server 2nd Generation Core Processor (Jaketown CPU / Patsburg PCH)"},

	// 3rd Generation Core (Ivy Bridge)
	{0x0150, "Ivy Bridge", IVB, "IVB", "Desktop 3rd Generation Core Processor (Ivy Bridge CPU / Panther Point PCH)"},
	{0x0154, "Ivy Bridge", IVB, "IVB", "Mobile 3rd Generation Core Processor (Ivy Bridge CPU / Panther Point PCH)"},
	{0x0158, "Ivy Bridge", IVB, "IVB", "Intel Xeon Processor E3-1200 v2 (Ivy Bridge CPU, C200/C216 Series PCH)"},

	// Xeon v2 (Ivytown / Ivy Bridge-EP)
	{0x0E00, "Ivytown", IVT, "IVT", "Server 3rd Generation Core Processor (Ivytown CPU / Patsburg PCH)"},

	// 4th Generation Core (Haswell)
	{0x0C00, "Haswell", HSW, "HSW", "Desktop 4th Generation Core Processor (Haswell CPU / Lynx Point PCH)"},
	{0x0C04, "Haswell", HSW, "HSW", "Mobile 4th Generation Core Processor (Haswell M/H / Lynx Point PCH)"},
	{0x0C08, "Haswell", HSW, "HSW", "Intel Xeon Processor E3-1200 v3 (Haswell CPU, C220 Series PCH)"},
	{0x0D00, "Haswell", HSW, "HSW", "Desktop 4th Generation Core Processor (Haswell)"},
	{0x0D04, "Haswell", HSW, "HSW", "Mobile 4th Generation Core Processor (Haswell)"},
	{0x0A00, "Haswell", HSW, "HSW", "4th Generation Core Processor (Haswell U/Y)"},
	{0x0A04, "Haswell", HSW, "HSW", "4th Generation Core Processor (Haswell U/Y)"},

	// 5th Generation Core (Broadwell)
	{0x1600, "Broadwell", BDW, "BDW", "Desktop 5th Generation Core Processor (Broadwell CPU / Wildcat Point PCH)"},
	{0x1604, "Broadwell", BDW, "BDW", "Mobile 5th Generation Core Processor (Broadwell M/H / Wildcat Point PCH)"},
	{0x1610, "Broadwell", BDW, "BDW", "Desktop 5th Generation Core Processor (Broadwell H / Wildcat Point PCH)"},
	{0x1618, "Broadwell Server", BDW, "BDW", "Intel Xeon Processor E3 v4 (Broadwell CPU)"},

	// 6th Generation Core (Skylake)
	{0x1904, "Skylake", SKL, "SKL", "Mobile 6th Generation Core Processor (Skylake U)"},
	{0x190C, "Skylake", SKL, "SKL", "Mobile 6th Generation Core Processor (Skylake Y)"},
	{0x1900, "Skylake", SKL, "SKL", "Mobile 6th Generation Core Processor Dual Core (Skylake H)"},
	{0x1910, "Skylake", SKL, "SKL", "Mobile 6th Generation Core Processor Quad Core (Skylake H)"},
	{0x190F, "Skylake", SKL, "SKL", "Desktop 6th Generation Core Processor Dual Core (Skylake CPU / Sunrise Point PCH)"},
	{0x191F, "Skylake", SKL, "SKL", "Desktop 6th Generation Core Processor Quad Core (Skylake CPU / Sunrise Point PCH)"},
	{0x1918, "Skylake Server", SKL, "SKL", "Intel Xeon Processor E3 v5 (Skylake CPU / Sunrise Point PCH)"},

	// 7th Generation Core (Kaby Lake)
	{0x5900, "Kabylake", KBL, "KBL", "Mobile 7th Generation Core Processor (Kabylake H)"},
	{0x5904, "Kabylake", KBL, "KBL", "Mobile 7th Generation Core Processor (Kabylake U)"},
	{0x590C, "Kabylake", KBL, "KBL", "Mobile 7th Generation Core Processor (Kabylake Y)"},
	{0x590F, "Kabylake", KBL, "KBL", "Desktop 7th Generation Core Processor (Kabylake S)"},
	{0x5914, "Kabylake", KBL, "KBL", "Mobile 8th Generation Core Processor (Kabylake U Quad Core)"},
	{0x591F, "Kabylake", KBL, "KBL", "Desktop 7th Generation Core Processor (Kabylake S)"},
	{0x5918, "Kabylake", KBL, "KBL", "Intel Xeon Processor E3 v6 (Kabylake CPU)"},

	// 8th Generation Core (Coffee Lake)
	{0x3E0F, "CoffeeLake", CFL, "CFL", "Desktop 8th Generation Core Processor (CoffeeLake S 2 Cores)"},
	{0x3E1F, "CoffeeLake", CFL, "CFL", "Desktop 8th Generation Core Processor (CoffeeLake S 4 Cores)"},
	{0x3EC2, "CoffeeLake", CFL, "CFL", "Desktop 8th Generation Core Processor (CoffeeLake S 6 Cores)"},
	{0x3E30, "CoffeeLake", CFL, "CFL", "Desktop 8th Generation Core Processor (CoffeeLake S 8 Cores)"},
	{0x3E10, "CoffeeLake", CFL, "CFL", "Desktop 8th Generation Core Processor (CoffeeLake H 4 Cores)"},
	{0x3EC4, "CoffeeLake", CFL, "CFL", "Desktop 8th Generation Core Processor (CoffeeLake H 6 Cores)"},

	// 8th Generation Core (Whiskey Lake)
	{0x3E34, "Whiskey Lake", WHL, "WHL", "Mobile 8th Generation Core Processor (Whiskey Lake U 4 Cores)"},

	// Xeon v3 (Haswell Server)
	{0x2F00, "Haswell Server", HSX, "HSX", "Server 4th Generation Core Processor (Haswell Server CPU / Wellsburg PCH)"},

	// Xeon v4 (Broadwell Server)
	{0x6F00, "Broadwell Server", BDX, "BDX", "Intel Xeon Processor E5/E7 v4 (Broadwell Server CPU / Wellsburg PCH)"},

	// Xeon v5 (Skylake Server)
	{0x2020, "Skylake Server", SKX, "SKX", "Intel Xeon Processor E5/E7 v5 (Skylake)"},

	// Atom SoCs
	{0x0F00, "Baytrail", BYT, "BYT", "Bay Trail SoC"},
	{0x1980, "Denverton", DNV, "DNV", "Intel Atom Processor C3000 Product Family"},
	{0x1F00, "Avoton", AVN, "AVN", "Intel Avoton"},
	{0x1F01, "Avoton", AVN, "AVN", "Intel Avoton"},
	{0x1F02, "Avoton", AVN, "AVN", "Intel Avoton"},
	{0x1F04, "Avoton", AVN, "AVN", "Intel Avoton"},
	{0x1F08, "Avoton", AVN, "AVN", "Intel Avoton"},
	{0x1F0C, "Avoton", AVN, "AVN", "Intel Avoton"},
	{0x2280, "Braswell/Cherry Trail", CHT, "CHT", "Braswell/Cherry Trail SoC"},
	{0x5AF0, "Apollo Lake", APL, "APL", "Apollo Lake"},

	// Quark SoCs
	{0x0958, "Galileo", QRK, "QRK", "Intel Quark SoC X1000"},
}

// pchs maps PCH (bus 0, device 31, function 0) device IDs to identities.
var pchs = []Entry{
	// 100 series
	{0xA143, "H110", PCH1xx, "PCH_1XX", "Intel H110 (100 series) PCH"},
	{0xA144, "H170", PCH1xx, "PCH_1XX", "Intel H170 (100 series) PCH"},
	{0xA145, "Z170", PCH1xx, "PCH_1XX", "Intel Z170 (100 series) PCH"},
	{0xA146, "Q170", PCH1xx, "PCH_1XX", "Intel Q170 (100 series) PCH"},
	{0xA147, "Q150", PCH1xx, "PCH_1XX", "Intel Q150 (100 series) PCH"},
	{0xA148, "B150", PCH1xx, "PCH_1XX", "Intel B150 (100 series) PCH"},
	{0xA14E, "HM170", PCH1xx, "PCH_1XX", "Intel HM170 (100 series) PCH"},
	{0xA150, "CM236", PCH1xx, "PCH_1XX", "Intel CM236 (100 series) PCH"},

	// 200 series and Z370
	{0xA2C4, "H270", PCH2xx, "PCH_2XX", "Intel H270 (200 series) PCH"},
	{0xA2C5, "Z270", PCH2xx, "PCH_2XX", "Intel Z270 (200 series) PCH"},
	{0xA2C6, "Q270", PCH2xx, "PCH_2XX", "Intel Q270 (200 series) PCH"},
	{0xA2C8, "B250", PCH2xx, "PCH_2XX", "Intel B250 (200 series) PCH"},
	{0xA2C9, "Z370", PCH2xx, "PCH_2XX", "Intel Z370 (200 series) PCH"},
	{0xA2D2, "X299", PCH2xx, "PCH_2XX", "Intel X299 (200 series) PCH"},

	// 300 series and Z390
	{0xA306, "Q370", PCH3xx, "PCH_3XX", "Intel Q370 (300 series) PCH"},
	{0xA304, "H370", PCH3xx, "PCH_3XX", "Intel H370 (300 series) PCH"},
	{0xA305, "Z390", PCH3xx, "PCH_3XX", "Intel Z390 (300 series) PCH"},
	{0xA308, "B360", PCH3xx, "PCH_3XX", "Intel B360 (300 series) PCH"},
	{0xA303, "H310", PCH3xx, "PCH_3XX", "Intel H310 (300 series) PCH"},
	{0xA309, "C246", PCH3xx, "PCH_3XX", "Intel C246 (300 series) PCH"},
	{0xA30E, "CM246", PCH3xx, "PCH_3XX", "Intel CM246 (300 series) PCH"},
	{0x9D84, "PCH-U", PCH3xx, "PCH_3XX", "Intel 300 series On-Package PCH"},

	// C600 and X79 series
	{0x1D41, "C600", PCHC60x, "PCH_C60X", "Intel C600/X79 series PCH"},

	// C610 and X99 series (Wellsburg)
	{0x8D40, "C610", PCHC61x, "PCH_C61X", "Intel Wellsburg (C610/X99 series) PCH"},
	{0x8D44, "C610-G", PCHC61x, "PCH_C61X", "Intel Wellsburg-G (C610/X99 series) PCH"},
	{0x8D47, "C610-X", PCHC61x, "PCH_C61X", "Intel Wellsburg-X (C610/X99 series) PCH"},

	// C620 series
	{0xA1C1, "C621", PCHC620, "PCH_C620", "Intel C621 (C620 series) PCH"},
	{0xA1C2, "C622", PCHC620, "PCH_C620", "Intel C622 (C620 series) PCH"},
	{0xA1C3, "C624", PCHC620, "PCH_C620", "Intel C624 (C620 series) PCH"},
	{0xA242, "C624", PCHC620, "PCH_C620", "Intel C624 (C620 series) PCH"},
	{0xA244, "C621", PCHC620, "PCH_C620", "Intel C621 (C620 series) PCH"},
}

var (
	chipsetByDID  = make(map[uint16]Entry)
	pchByDID      = make(map[uint16]Entry)
	chipsetByCode = make(map[string]uint16)
	pchByCode     = make(map[string]uint16)
)

func init() {
	for _, e := range chipsets {
		chipsetByDID[e.DID] = e
		chipsetByCode[e.Code] = e.DID
	}
	for _, e := range pchs {
		pchByDID[e.DID] = e
		pchByCode[e.Code] = e.DID
	}
}

// LookupChipset returns the catalog entry for a host bridge device ID.
func LookupChipset(did uint16) (Entry, bool) {
	e, ok := chipsetByDID[did]
	return e, ok
}

// LookupPCH returns the catalog entry for a PCH device ID.
func LookupPCH(did uint16) (Entry, bool) {
	e, ok := pchByDID[did]
	return e, ok
}

// ChipsetDIDByCode resolves a chipset short code (case-insensitive) to a
// representative device ID.
func ChipsetDIDByCode(code string) (uint16, bool) {
	did, ok := chipsetByCode[strings.ToUpper(code)]
	return did, ok
}

// PCHDIDByCode resolves a PCH short code (case-insensitive) to a
// representative device ID.
func PCHDIDByCode(code string) (uint16, bool) {
	did, ok := pchByCode[strings.ToUpper(code)]
	return did, ok
}

// ChipsetCodes returns every known chipset short code, lowercased.
func ChipsetCodes() []string {
	codes := make([]string, 0, len(chipsetByCode))
	seen := make(map[string]bool)
	for _, e := range chipsets {
		c := strings.ToLower(e.Code)
		if !seen[c] {
			seen[c] = true
			codes = append(codes, c)
		}
	}
	return codes
}

// Chipsets returns all cataloged chipset entries in table order.
func Chipsets() []Entry {
	out := make([]Entry, len(chipsets))
	copy(out, chipsets)
	return out
}

// PCHs returns all cataloged PCH entries in table order.
func PCHs() []Entry {
	out := make([]Entry, len(pchs))
	copy(out, pchs)
	return out
}
