package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeCfg(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadPhaseOrdering(t *testing.T) {
	dir := t.TempDir()
	writeCfg(t, dir, "common.yaml", `
configurations:
  - registers:
      - name: R
        type: pcicfg
        bus: 0x0
        dev: 0x0
        fun: 0x0
        offset: 0x50
        desc: common definition
`)
	writeCfg(t, dir, "snb.yaml", `
configurations:
  - registers:
      - name: R
        type: pcicfg
        bus: 0x0
        dev: 0x0
        fun: 0x0
        offset: 0x54
        desc: snb definition
`)
	writeCfg(t, dir, "pch_1xx.yaml", `
configurations:
  - registers:
      - name: PCH_REG
        type: pcicfg
        bus: 0x0
        dev: 0x1f
        fun: 0x0
        offset: 0xDC
`)
	// Belongs to a different chipset: never loaded.
	writeCfg(t, dir, "hsw.yaml", `
configurations:
  - registers:
      - name: HSW_ONLY
        type: pcicfg
        offset: 0x60
`)
	// Stray PCH file for another PCH: dropped from the catch-all phase.
	writeCfg(t, dir, "pch_3xx.yaml", `
configurations:
  - registers:
      - name: OTHER_PCH
        type: pcicfg
        offset: 0x10
`)
	// Neither common nor platform-prefixed: catch-all phase.
	writeCfg(t, dir, "aux.yaml", `
configurations:
  - registers:
      - name: AUX_REG
        type: io
        port: 0x80
        size: 1
`)

	store := NewStore()
	report, err := Load(store, dir, "snb", "pch_1xx")
	if err != nil {
		t.Fatal(err)
	}

	want := []string{"common.yaml", "snb.yaml", "pch_1xx.yaml", "aux.yaml"}
	if !reflect.DeepEqual(report.Loaded, want) {
		t.Fatalf("load order = %v, want %v", report.Loaded, want)
	}

	// The later snb definition replaces the common one wholesale.
	r, ok := store.Register["R"]
	if !ok {
		t.Fatal("register R missing")
	}
	if r.Offset != 0x54 || r.Desc != "snb definition" {
		t.Errorf("R = %+v, want the snb.yaml definition", r)
	}
	if _, ok := store.Register["HSW_ONLY"]; ok {
		t.Error("foreign-platform file hsw.yaml was loaded")
	}
	if _, ok := store.Register["OTHER_PCH"]; ok {
		t.Error("stray pch_3xx.yaml was loaded")
	}
	if _, ok := store.Register["AUX_REG"]; !ok {
		t.Error("catch-all aux.yaml was not loaded")
	}
	if _, ok := store.Register["PCH_REG"]; !ok {
		t.Error("pch_1xx.yaml was not loaded")
	}
}

func TestLoadUnknownPlatformSkipsPlatformFiles(t *testing.T) {
	dir := t.TempDir()
	writeCfg(t, dir, "common.yaml", `
configurations:
  - registers:
      - name: C
        type: pcicfg
        offset: 0x0
`)
	writeCfg(t, dir, "snb.yaml", `
configurations:
  - registers:
      - name: S
        type: pcicfg
        offset: 0x0
`)

	store := NewStore()
	report, err := Load(store, dir, "", "")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(report.Loaded, []string{"common.yaml"}) {
		t.Fatalf("load order = %v", report.Loaded)
	}
	if _, ok := store.Register["S"]; ok {
		t.Error("snb.yaml must not load when the chipset is unknown")
	}
}

func TestLoadOverrideUndefOrdering(t *testing.T) {
	defA := `
configurations:
  - pci:
      - name: X
        bus: 0x0
        dev: 0x2
        fun: 0x0
        vid: 0x8086
        did: [0x0102]
`
	defB := `
configurations:
  - pci:
      - name: X
        bus: 0x0
        dev: 0x3
        fun: 0x0
`
	defC := `
configurations:
  - pci:
      - name: X
        undef: true
`

	// A then B then C: X ends up removed.
	dir := t.TempDir()
	writeCfg(t, dir, "t_01.yaml", defA)
	writeCfg(t, dir, "t_02.yaml", defB)
	writeCfg(t, dir, "t_03.yaml", defC)
	store := NewStore()
	if _, err := Load(store, dir, "", ""); err != nil {
		t.Fatal(err)
	}
	if _, ok := store.Devices["X"]; ok {
		t.Error("X should be removed after A,B,C")
	}

	// C then A then B: the removal happens first, the B definition stands.
	dir2 := t.TempDir()
	writeCfg(t, dir2, "t_01.yaml", defC)
	writeCfg(t, dir2, "t_02.yaml", defA)
	writeCfg(t, dir2, "t_03.yaml", defB)
	store2 := NewStore()
	if _, err := Load(store2, dir2, "", ""); err != nil {
		t.Fatal(err)
	}
	x, ok := store2.Devices["X"]
	if !ok {
		t.Fatal("X missing after C,A,B")
	}
	// Full replacement, not attribute merge: B carried no vid/did.
	if x.Dev != 3 || x.VID != 0 || len(x.DIDs) != 0 {
		t.Errorf("X = %+v, want B's full definition", x)
	}

	// Removing an absent name is not an error.
	dir3 := t.TempDir()
	writeCfg(t, dir3, "t_01.yaml", defC)
	store3 := NewStore()
	report, err := Load(store3, dir3, "", "")
	if err != nil || len(report.Warnings) != 0 {
		t.Fatalf("undef of absent name: err=%v warnings=%v", err, report.Warnings)
	}
}

func TestLoadIdempotence(t *testing.T) {
	dir := t.TempDir()
	writeCfg(t, dir, "common.yaml", `
configurations:
  - pci:
      - name: HB
        bus: 0x0
        dev: 0x0
        fun: 0x0
        vid: 0x8086
        did: [0x0100, 0x0104]
    registers:
      - name: REG
        type: pcicfg
        device: HB
        offset: 0x48
        size: 8
        fields:
          - name: EN
            bit: 0
            size: 1
    controls:
      - name: CTL
        register: REG
        field: EN
`)

	once := NewStore()
	if _, err := Load(once, dir, "snb", ""); err != nil {
		t.Fatal(err)
	}
	twice := NewStore()
	for i := 0; i < 2; i++ {
		if _, err := Load(twice, dir, "snb", ""); err != nil {
			t.Fatal(err)
		}
	}
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("loading twice diverged from loading once:\nonce:  %+v\ntwice: %+v", once, twice)
	}
}

func TestPlatformScoping(t *testing.T) {
	content := `
configurations:
  - platform: XYZ
    pci:
      - name: SCOPED_DEV
        bus: 0x0
        dev: 0x5
        fun: 0x0
    registers:
      - name: SCOPED_REG
        type: pcicfg
        device: SCOPED_DEV
        offset: 0x0
  - registers:
      - name: ALWAYS_REG
        type: io
        port: 0x80
        size: 1
`
	tests := []struct {
		name        string
		chipset     string
		pch         string
		wantApplied bool
	}{
		{"matching chipset code", "xyz", "", true},
		{"matching chipset code different case", "XyZ", "", true},
		{"matching pch code", "snb", "xyz", true},
		{"no match", "snb", "pch_1xx", false},
		{"unknown platform", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeCfg(t, dir, "common.yaml", content)
			store := NewStore()
			if _, err := Load(store, dir, tt.chipset, tt.pch); err != nil {
				t.Fatal(err)
			}
			_, gotReg := store.Register["SCOPED_REG"]
			_, gotDev := store.Devices["SCOPED_DEV"]
			if gotReg != tt.wantApplied || gotDev != tt.wantApplied {
				t.Errorf("scoped section applied: reg=%v dev=%v, want %v (no partial application)",
					gotReg, gotDev, tt.wantApplied)
			}
			if _, ok := store.Register["ALWAYS_REG"]; !ok {
				t.Error("unscoped section must always apply")
			}
		})
	}
}

func TestLoadMalformedDocument(t *testing.T) {
	dir := t.TempDir()
	writeCfg(t, dir, "common_bad.yaml", "configurations: [\n")
	writeCfg(t, dir, "common_badreg.yaml", `
configurations:
  - registers:
      - name: BAD_IO
        type: io
        port: 0x80
        size: 3
      - name: NEVER_APPLIED
        type: io
        port: 0x81
        size: 1
`)
	writeCfg(t, dir, "common_good.yaml", `
configurations:
  - registers:
      - name: GOOD
        type: io
        port: 0x80
        size: 1
`)

	store := NewStore()
	report, err := Load(store, dir, "", "")
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Warnings) != 2 {
		t.Fatalf("warnings = %v, want 2", report.Warnings)
	}
	if _, ok := store.Register["GOOD"]; !ok {
		t.Error("good document must load despite malformed siblings")
	}
	// A malformed document is rejected whole, not partially applied.
	if _, ok := store.Register["NEVER_APPLIED"]; ok {
		t.Error("malformed document was partially applied")
	}
}

func TestLoadMissingDir(t *testing.T) {
	store := NewStore()
	report, err := Load(store, filepath.Join(t.TempDir(), "nope"), "snb", "")
	if err != nil {
		t.Fatalf("missing config dir must not be fatal: %v", err)
	}
	if len(report.Loaded) != 0 {
		t.Errorf("loaded = %v", report.Loaded)
	}
}

func TestRegisterDefaultsAndFields(t *testing.T) {
	dir := t.TempDir()
	writeCfg(t, dir, "common.yaml", `
configurations:
  - registers:
      - name: DEFAULTED
        type: pcicfg
        offset: 0x9C
      - name: WIDE_MSR
        type: msr
        msr: 0x3A
        fields:
          - name: LOCK
            bit: 0
            size: 1
          - name: ENABLE
            bit: 1
            size: 2
            desc: feature enable
          - name: LOCK
            bit: 4
            size: 1
`)

	store := NewStore()
	if _, err := Load(store, dir, "", ""); err != nil {
		t.Fatal(err)
	}

	d := store.Register["DEFAULTED"]
	if d.Size != 4 || d.Desc != "" {
		t.Errorf("defaults: size=%d desc=%q, want 4 and empty", d.Size, d.Desc)
	}

	m := store.Register["WIDE_MSR"]
	if m.Size != 8 {
		t.Errorf("msr register size = %d, want 8", m.Size)
	}
	if len(m.Fields) != 3 {
		t.Fatalf("fields = %d, want 3 (shadowing kept, not merged)", len(m.Fields))
	}
	// Later definition shadows the earlier one at lookup.
	f, ok := m.Field("LOCK")
	if !ok || f.Bit != 4 {
		t.Errorf("Field(LOCK) = %+v, want the bit-4 redefinition", f)
	}
	if f, _ := m.Field("ENABLE"); f.Desc != "feature enable" {
		t.Errorf("ENABLE desc = %q", f.Desc)
	}
}

func TestOverrideRegistry(t *testing.T) {
	RegisterOverride("ZZT", func(s *Store) {
		s.Register["SEEDED"] = Register{Name: "SEEDED", Kind: KindPortIO, Port: 0xCF9, Size: 1}
		s.Register["REPLACED"] = Register{Name: "REPLACED", Kind: KindPortIO, Port: 0x70, Size: 1}
	})

	dir := t.TempDir()
	writeCfg(t, dir, "zzt.yaml", `
configurations:
  - registers:
      - name: REPLACED
        type: io
        port: 0x71
        size: 1
`)

	store := NewStore()
	report, err := Load(store, dir, "zzt", "")
	if err != nil {
		t.Fatal(err)
	}
	if !report.OverrideApplied {
		t.Fatal("override was not applied")
	}
	if _, ok := store.Register["SEEDED"]; !ok {
		t.Error("override seed missing")
	}
	// Declarative loading still runs afterward and wins.
	if store.Register["REPLACED"].Port != 0x71 {
		t.Errorf("declarative definition must override the seed, port = %#x", store.Register["REPLACED"].Port)
	}

	store2 := NewStore()
	report2, err := Load(store2, t.TempDir(), "snb", "")
	if err != nil {
		t.Fatal(err)
	}
	if report2.OverrideApplied {
		t.Error("no override registered for snb")
	}
}

func TestLoadMemoryRanges(t *testing.T) {
	dir := t.TempDir()
	writeCfg(t, dir, "common.yaml", `
configurations:
  - memory:
      - name: SMRAM
        base: 0xA0000
        size: 0x20000
        access: locked
        desc: compatibility SMRAM
      - name: FLASH
        base: 0xFF000000
        size: 0x1000000
        access: ro
`)
	writeCfg(t, dir, "snb.yaml", `
configurations:
  - platform: SNB
    memory:
      - name: SMRAM
        base: 0xA0000
        size: 0x10000
      - name: FLASH
        undef: true
`)

	store := NewStore()
	if _, err := Load(store, dir, "snb", ""); err != nil {
		t.Fatal(err)
	}

	smram, ok := store.Memory["SMRAM"]
	if !ok {
		t.Fatal("SMRAM missing")
	}
	if smram.Size != 0x10000 {
		t.Errorf("SMRAM size = %#x, want the platform redefinition", smram.Size)
	}
	// Redefinition replaces the whole entry, not a merge of attributes.
	if smram.Access != "" || smram.Desc != "" {
		t.Errorf("SMRAM carried over old attributes: %+v", smram)
	}
	if _, ok := store.Memory["FLASH"]; ok {
		t.Error("FLASH must be removed by undef")
	}
}
