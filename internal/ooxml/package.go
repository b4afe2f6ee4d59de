package ooxml

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
)

// Package is a read-only view of an OOXML archive held in memory.
type Package struct {
	zr    *zip.Reader
	files map[string]*zip.File
}

// Open reads the central directory of a ZIP archive.
func Open(data []byte) (*Package, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("opening ZIP archive: %w", err)
	}

	p := &Package{
		zr:    zr,
		files: make(map[string]*zip.File, len(zr.File)),
	}
	for _, f := range zr.File {
		p.files[f.Name] = f
	}
	return p, nil
}

// Validate checks that every named part exists.
func (p *Package) Validate(required ...string) error {
	for _, name := range required {
		if !p.Has(name) {
			return fmt.Errorf("missing required file: %s", name)
		}
	}
	return nil
}

// Has reports whether the archive contains the named part.
func (p *Package) Has(name string) bool {
	_, ok := p.files[name]
	return ok
}

// Read returns the uncompressed content of the named part.
func (p *Package) Read(name string) ([]byte, error) {
	f, ok := p.files[name]
	if !ok {
		return nil, fmt.Errorf("file not found: %s", name)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// Names returns the part names in archive order.
func (p *Package) Names() []string {
	names := make([]string, len(p.zr.File))
	for i, f := range p.zr.File {
		names[i] = f.Name
	}
	return names
}

// Rewrite produces a new archive in which the given parts are replaced and
// the dropped parts are left out. Entries keep their original order; entries
// not present in parts are copied without recompression.
func (p *Package) Rewrite(parts map[string][]byte, drop ...string) ([]byte, error) {
	for name := range parts {
		if !p.Has(name) {
			return nil, fmt.Errorf("rewriting %s: part does not exist", name)
		}
	}
	dropped := make(map[string]bool, len(drop))
	for _, name := range drop {
		dropped[name] = true
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	for _, f := range p.zr.File {
		if dropped[f.Name] {
			continue
		}
		content, replaced := parts[f.Name]
		if !replaced {
			if err := zw.Copy(f); err != nil {
				return nil, fmt.Errorf("copying %s: %w", f.Name, err)
			}
			continue
		}

		header := f.FileHeader
		header.CRC32 = 0
		header.CompressedSize64 = 0
		header.UncompressedSize64 = 0
		header.CompressedSize = 0
		header.UncompressedSize = 0
		header.Extra = nil
		w, err := zw.CreateHeader(&header)
		if err != nil {
			return nil, fmt.Errorf("writing %s: %w", f.Name, err)
		}
		if _, err := w.Write(content); err != nil {
			return nil, fmt.Errorf("writing %s: %w", f.Name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("closing ZIP archive: %w", err)
	}
	return buf.Bytes(), nil
}
