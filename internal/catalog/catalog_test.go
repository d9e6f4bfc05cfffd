package catalog

import (
	"strings"
	"testing"
)

func TestLookupChipset(t *testing.T) {
	tests := []struct {
		did      uint16
		wantCode string
		wantID   ID
		wantOK   bool
	}{
		{0x0100, "SNB", SNB, true},
		{0x0C00, "HSW", HSW, true},
		{0x0F00, "BYT", BYT, true},
		{0x2020, "SKX", SKX, true},
		{0x0958, "QRK", QRK, true},
		{0xDEAD, "", Unknown, false},
	}

	for _, tt := range tests {
		e, ok := LookupChipset(tt.did)
		if ok != tt.wantOK {
			t.Errorf("LookupChipset(%#04x) ok = %v, want %v", tt.did, ok, tt.wantOK)
			continue
		}
		if ok && (e.Code != tt.wantCode || e.ID != tt.wantID) {
			t.Errorf("LookupChipset(%#04x) = {%s %d}, want {%s %d}", tt.did, e.Code, e.ID, tt.wantCode, tt.wantID)
		}
	}
}

func TestLookupPCH(t *testing.T) {
	e, ok := LookupPCH(0xA145)
	if !ok || e.Code != "PCH_1XX" || e.ID != PCH1xx {
		t.Fatalf("LookupPCH(0xA145) = %+v, %v", e, ok)
	}
	if _, ok := LookupPCH(0x0000); ok {
		t.Fatal("LookupPCH(0) should not match")
	}
}

func TestDIDByCodeCaseInsensitive(t *testing.T) {
	for _, code := range []string{"SNB", "snb", "Snb"} {
		did, ok := ChipsetDIDByCode(code)
		if !ok {
			t.Fatalf("ChipsetDIDByCode(%q) not found", code)
		}
		if e, _ := LookupChipset(did); e.Code != "SNB" {
			t.Fatalf("ChipsetDIDByCode(%q) = %#04x, resolves to %s", code, did, e.Code)
		}
	}
	if _, ok := ChipsetDIDByCode("XXX"); ok {
		t.Fatal("unknown code should not resolve")
	}
	if _, ok := PCHDIDByCode("pch_3xx"); !ok {
		t.Fatal("PCHDIDByCode(pch_3xx) not found")
	}
}

func TestFamilies(t *testing.T) {
	if !IsCore(SNB) || !IsCore(CFL) {
		t.Error("SNB/CFL should be Core family")
	}
	if !IsXeon(HSX) || IsXeon(SNB) {
		t.Error("Xeon family misclassified")
	}
	if !IsAtom(BYT) || !IsQuark(QRK) {
		t.Error("Atom/Quark family misclassified")
	}
	if IsCore(Unknown) || IsAtom(Unknown) {
		t.Error("Unknown must not belong to any family")
	}
}

func TestChipsetCodesLowercaseUnique(t *testing.T) {
	codes := ChipsetCodes()
	seen := make(map[string]bool)
	for _, c := range codes {
		if c != strings.ToLower(c) {
			t.Errorf("code %q not lowercase", c)
		}
		if seen[c] {
			t.Errorf("code %q duplicated", c)
		}
		seen[c] = true
	}
	if !seen["snb"] || !seen["byt"] {
		t.Errorf("expected snb and byt in codes, got %v", codes)
	}
}
