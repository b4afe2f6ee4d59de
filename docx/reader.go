// Package docx provides DOCX (Office Open XML) document decoding and
// format-preserving paragraph and table cell updates.
package docx

import (
	"fmt"
	"os"

	"github.com/tsawler/formfill/internal/ooxml"
)

const documentPart = "word/document.xml"

// Document is a decoded DOCX document. Paragraphs and Tables are the direct
// children of the body in document order.
type Document struct {
	Paragraphs []*Paragraph
	Tables     []*Table

	pkg  *ooxml.Package
	data []byte // word/document.xml
}

// Open reads a DOCX file from disk.
func Open(filename string) (*Document, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", filename, err)
	}
	return OpenBytes(data)
}

// OpenBytes decodes a DOCX document held in memory.
func OpenBytes(data []byte) (*Document, error) {
	pkg, err := ooxml.Open(data)
	if err != nil {
		return nil, err
	}

	// Validate required files exist
	if err := pkg.Validate("[Content_Types].xml", documentPart); err != nil {
		return nil, err
	}

	part, err := pkg.Read(documentPart)
	if err != nil {
		return nil, fmt.Errorf("reading document: %w", err)
	}

	root, err := ooxml.Parse(part)
	if err != nil {
		return nil, fmt.Errorf("parsing document: %w", err)
	}
	body := root.Child("body")
	if body == nil {
		return nil, fmt.Errorf("parsing document: no body element")
	}

	d := &Document{pkg: pkg, data: part}
	d.Paragraphs, d.Tables = parseBody(body)
	return d, nil
}

// Paragraph returns the body paragraph at index, or nil.
func (d *Document) Paragraph(index int) *Paragraph {
	if index < 0 || index >= len(d.Paragraphs) {
		return nil
	}
	return d.Paragraphs[index]
}

// Table returns the body table at index, or nil.
func (d *Document) Table(index int) *Table {
	if index < 0 || index >= len(d.Tables) {
		return nil
	}
	return d.Tables[index]
}
