package wsl

import (
	"strings"

	"golang.org/x/text/encoding/unicode"
)

// DecodeOutput turns raw wsl.exe output into a string. wsl.exe writes its
// own messages as UTF-16LE while commands run inside a distribution write
// UTF-8, so the encoding is sniffed per call.
func DecodeOutput(b []byte) string {
	if looksUTF16LE(b) {
		// A trailing odd byte cannot be part of a code unit.
		if len(b)%2 == 1 {
			b = b[:len(b)-1]
		}
		dec := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder()
		if out, err := dec.Bytes(b); err == nil {
			b = out
		}
	}
	s := strings.ReplaceAll(string(b), "\x00", "")
	return strings.ReplaceAll(s, "\r", "")
}

func looksUTF16LE(b []byte) bool {
	if len(b) < 2 {
		return false
	}
	if b[0] == 0xFF && b[1] == 0xFE {
		return true
	}
	// ASCII encoded as UTF-16LE has a zero high byte in every code unit.
	units, zeros := len(b)/2, 0
	for i := 1; i < len(b); i += 2 {
		if b[i] == 0 {
			zeros++
		}
	}
	return zeros*2 >= units
}
