// Package encoding provides text encoding utilities for Aurora model files.
//
// Legacy exporters wrote models and materials in the Windows-1252 code
// page; files produced by newer tools are UTF-8.
package encoding

import (
	"bytes"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// DecodeText returns data as a UTF-8 string. Valid UTF-8 input is returned
// unchanged; anything else is decoded as Windows-1252.
func DecodeText(data []byte) string {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if utf8.Valid(data) {
		return string(data)
	}
	return Windows1252ToUTF8(data)
}

// Windows1252ToUTF8 converts Windows-1252 encoded bytes to a UTF-8 string.
// Returns the original string if conversion fails.
func Windows1252ToUTF8(data []byte) string {
	result, _, err := transform.Bytes(charmap.Windows1252.NewDecoder(), data)
	if err != nil {
		return string(data)
	}
	return string(result)
}

// UTF8ToWindows1252 converts a UTF-8 string to Windows-1252 encoded bytes.
// Runes with no Windows-1252 mapping make the conversion fail, in which
// case the UTF-8 bytes are returned as-is.
func UTF8ToWindows1252(s string) []byte {
	result, _, err := transform.Bytes(charmap.Windows1252.NewEncoder(), []byte(s))
	if err != nil {
		return []byte(s)
	}
	return result
}

// TrimNullBytes removes trailing null bytes from a byte slice.
func TrimNullBytes(data []byte) []byte {
	return bytes.TrimRight(data, "\x00")
}
