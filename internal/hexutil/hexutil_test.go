package hexutil

import "testing"

func TestParseUint(t *testing.T) {
	tests := []struct {
		in      string
		bits    int
		want    uint64
		wantErr bool
	}{
		{"0x1f", 64, 0x1f, false},
		{"0X8086", 64, 0x8086, false},
		{"31", 64, 31, false},
		{"a143", 64, 0xA143, false},
		{" 0x48 ", 64, 0x48, false},
		{"0b101", 64, 5, false},
		{"", 64, 0, true},
		{"zz", 64, 0, true},
		{"0x1FFFF", 16, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseUint(tt.in, tt.bits)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseUint(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseUint(%q) = %#x, want %#x", tt.in, got, tt.want)
			}
		})
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		val  uint64
		size uint
		want string
	}{
		{0x1, 1, "0x01"},
		{0xA143, 2, "0xA143"},
		{0x12, 4, "0x00000012"},
		{0xFEDCBA9876543210, 8, "0xFEDCBA9876543210"},
		{0x5, 0, "0x0000000000000005"},
	}

	for _, tt := range tests {
		if got := Format(tt.val, tt.size); got != tt.want {
			t.Errorf("Format(%#x, %d) = %q, want %q", tt.val, tt.size, got, tt.want)
		}
	}
}
