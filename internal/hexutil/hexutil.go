// Package hexutil provides numeric parsing and formatting helpers. All
// externally displayed values are hexadecimal.
package hexutil

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseUint parses an unsigned integer written in any Go literal base
// (0x.., 0o.., 0b.., decimal). A bare hex string like "A143" is also
// accepted when it contains hex letters.
func ParseUint(s string, bits int) (uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty numeric value")
	}
	v, err := strconv.ParseUint(s, 0, bits)
	if err == nil {
		return v, nil
	}
	// Fall back to base-16 for values written without the 0x prefix.
	v, err16 := strconv.ParseUint(s, 16, bits)
	if err16 == nil {
		return v, nil
	}
	return 0, fmt.Errorf("invalid numeric value %q: %w", s, err)
}

// Format renders a register value as 0x-prefixed hex padded to its size in
// bytes (two digits per byte).
func Format(val uint64, sizeBytes uint) string {
	if sizeBytes == 0 || sizeBytes > 8 {
		sizeBytes = 8
	}
	return fmt.Sprintf("0x%0*X", sizeBytes*2, val)
}
