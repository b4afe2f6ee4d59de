// Package format identifies the two accepted form kinds: XLSX workbooks
// (grid documents) and DOCX documents (flow documents).
package format

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// ErrUnsupportedFormat is returned for input that is neither XLSX nor DOCX.
var ErrUnsupportedFormat = errors.New("unsupported format")

// Format represents a supported document format.
type Format int

const (
	// Unknown indicates an unrecognized format.
	Unknown Format = iota
	// XLSX indicates a Microsoft Excel (.xlsx) workbook, addressed as a grid.
	XLSX
	// DOCX indicates a Microsoft Word (.docx) document, addressed as a flow.
	DOCX
)

const (
	xlsxMIME = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	docxMIME = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// String returns the string representation of the format.
func (f Format) String() string {
	switch f {
	case XLSX:
		return "xlsx"
	case DOCX:
		return "docx"
	default:
		return "unknown"
	}
}

// Extension returns the typical file extension for the format.
func (f Format) Extension() string {
	switch f {
	case XLSX:
		return ".xlsx"
	case DOCX:
		return ".docx"
	default:
		return ""
	}
}

// MIMEType returns the content type of the format.
func (f Format) MIMEType() string {
	switch f {
	case XLSX:
		return xlsxMIME
	case DOCX:
		return docxMIME
	default:
		return "application/octet-stream"
	}
}

// IsGrid reports whether documents of the format are addressed by sheet,
// row and column.
func (f Format) IsGrid() bool { return f == XLSX }

// MarshalText implements encoding.TextMarshaler.
func (f Format) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *Format) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// Parse converts a format name, extension or kind ("grid", "flow") into a
// Format.
func Parse(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "xlsx", "excel", "grid":
		return XLSX, nil
	case "docx", "word", "flow":
		return DOCX, nil
	}
	return Unknown, fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

// Detect determines file format from filename extension.
func Detect(filename string) Format {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx":
		return XLSX
	case ".docx":
		return DOCX
	default:
		return Unknown
	}
}

// DetectBytes determines the format from content. Content sniffing comes
// first; ZIP archives that the sniffer cannot classify are inspected for
// OOXML part names.
func DetectBytes(data []byte) (Format, error) {
	mtype := mimetype.Detect(data)
	switch {
	case mtype.Is(xlsxMIME):
		return XLSX, nil
	case mtype.Is(docxMIME):
		return DOCX, nil
	}

	for m := mtype; m != nil; m = m.Parent() {
		if m.Is("application/zip") {
			return detectZIPFormat(data)
		}
	}
	return Unknown, fmt.Errorf("%w: content type %s", ErrUnsupportedFormat, mtype.String())
}

// Resolve checks an upload: the extension must name a supported format and
// the content must agree with it.
func Resolve(filename string, data []byte) (Format, error) {
	byName := Detect(filename)
	if byName == Unknown {
		return Unknown, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(filename))
	}
	byContent, err := DetectBytes(data)
	if err != nil {
		return Unknown, err
	}
	if byContent != byName {
		return Unknown, fmt.Errorf("%w: %s content is %s", ErrUnsupportedFormat, filename, byContent)
	}
	return byName, nil
}

// detectZIPFormat inspects a ZIP archive for Office Open XML markers.
func detectZIPFormat(data []byte) (Format, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Unknown, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}

	hasContentTypes := false
	found := Unknown
	for _, f := range zr.File {
		switch {
		case f.Name == "[Content_Types].xml":
			hasContentTypes = true
		case f.Name == "word/document.xml":
			found = DOCX
		case f.Name == "xl/workbook.xml":
			found = XLSX
		}
	}

	if !hasContentTypes || found == Unknown {
		return Unknown, fmt.Errorf("%w: ZIP archive is not an XLSX or DOCX package", ErrUnsupportedFormat)
	}
	return found, nil
}
