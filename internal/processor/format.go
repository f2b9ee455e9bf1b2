package processor

import (
	"bytes"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Format is the kind of document submitted for processing
type Format int

const (
	FormatUnknown Format = iota
	FormatXML
	FormatPDF
	FormatImage
	FormatJSON
	FormatText
)

func (f Format) String() string {
	switch f {
	case FormatXML:
		return "xml"
	case FormatPDF:
		return "pdf"
	case FormatImage:
		return "image"
	case FormatJSON:
		return "json"
	case FormatText:
		return "text"
	default:
		return "unknown"
	}
}

// DetectFormat identifies the document format from magic bytes
func DetectFormat(data []byte) Format {
	if len(data) < 4 {
		return FormatUnknown
	}

	switch {
	case bytes.HasPrefix(data, []byte("%PDF")):
		return FormatPDF
	case bytes.HasPrefix(data, []byte{0x89, 0x50, 0x4E, 0x47}): // PNG
		return FormatImage
	case bytes.HasPrefix(data, []byte{0xFF, 0xD8, 0xFF}): // JPEG
		return FormatImage
	case bytes.HasPrefix(data, []byte{0x49, 0x49, 0x2A, 0x00}), // TIFF little-endian
		bytes.HasPrefix(data, []byte{0x4D, 0x4D, 0x00, 0x2A}): // TIFF big-endian
		return FormatImage
	case len(data) >= 12 && bytes.Equal(data[0:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WEBP")):
		return FormatImage
	}

	trimmed := bytes.TrimSpace(data)
	switch {
	case bytes.HasPrefix(trimmed, []byte("<?xml")), bytes.HasPrefix(trimmed, []byte("<")):
		return FormatXML
	case bytes.HasPrefix(trimmed, []byte("{")):
		return FormatJSON
	}

	return FormatUnknown
}

// DetectMIME sniffs the media type of data, without parameters
func DetectMIME(data []byte) string {
	mime := mimetype.Detect(data).String()
	if i := strings.IndexByte(mime, ';'); i != -1 {
		mime = mime[:i]
	}
	return mime
}

// resolveFormat combines magic bytes with the declared media type. Plain
// text is only accepted when the caller declares it.
func resolveFormat(data []byte, declared string) Format {
	if f := DetectFormat(data); f != FormatUnknown {
		return f
	}
	if strings.HasPrefix(declared, "text/plain") {
		return FormatText
	}
	return FormatUnknown
}
