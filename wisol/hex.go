package wisol

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
)

// EncodePayload renders each byte of s as exactly two lowercase hex
// characters, the wire encoding for message payloads.
func EncodePayload(s string) string {
	return hex.EncodeToString([]byte(s))
}

// ToHex16 renders v as 4 hex digits in little-endian byte order.
func ToHex16(v uint16) string {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	return hex.EncodeToString(b[:])
}

// ToHex32 renders v as 8 hex digits in little-endian byte order.
func ToHex32(v uint32) string {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	return hex.EncodeToString(b[:])
}

// HexDigit converts one hex character to its value.
func HexDigit(ch byte) (uint8, error) {
	switch {
	case ch >= '0' && ch <= '9':
		return ch - '0', nil
	case ch >= 'a' && ch <= 'f':
		return ch - 'a' + 10, nil
	case ch >= 'A' && ch <= 'F':
		return ch - 'A' + 10, nil
	}
	return 0, fmt.Errorf("invalid hex digit %q", ch)
}

// isHexPayload reports whether s is a whole number of hex digit pairs.
func isHexPayload(s string) bool {
	if len(s)%2 != 0 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if _, err := HexDigit(s[i]); err != nil {
			return false
		}
	}
	return true
}
