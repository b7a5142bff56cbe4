package export

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Format is the on-disk encoding of an exported capture.
type Format int

const (
	FormatJPEG Format = iota
	FormatPNG
	FormatGIF
)

// Extension returns the file extension without the leading dot.
func (f Format) Extension() string {
	switch f {
	case FormatJPEG:
		return "jpg"
	case FormatPNG:
		return "png"
	case FormatGIF:
		return "gif"
	default:
		return ""
	}
}

func (f Format) String() string {
	switch f {
	case FormatJPEG:
		return "Jpeg"
	case FormatPNG:
		return "Png"
	case FormatGIF:
		return "Gif"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// Valid reports whether f is one of the known formats.
func (f Format) Valid() bool {
	return f >= FormatJPEG && f <= FormatGIF
}

// ParseFormat accepts an extension or format name, case-insensitive,
// with or without a leading dot.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "jpg", "jpeg":
		return FormatJPEG, nil
	case "png":
		return FormatPNG, nil
	case "gif":
		return FormatGIF, nil
	default:
		return FormatPNG, fmt.Errorf("unknown image format %q (want jpg, png or gif)", s)
	}
}

// FormatFromPath infers the format from the extension of path.
func FormatFromPath(path string) (Format, bool) {
	ext := filepath.Ext(path)
	if ext == "" {
		return FormatPNG, false
	}
	f, err := ParseFormat(ext)
	if err != nil {
		return FormatPNG, false
	}
	return f, true
}
