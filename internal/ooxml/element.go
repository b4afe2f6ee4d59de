package ooxml

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// Element is one XML element together with its location in the source part.
//
// Offsets are byte positions in the data passed to Parse:
//
//	<w:r attr="1"><w:t>x</w:t></w:r>
//	^Start       ^StartEnd      ^EndStart
//	                                   ^End
//
// For a self-closing element StartEnd, EndStart and End are equal.
type Element struct {
	Name     xml.Name
	Prefix   string
	Attr     []xml.Attr
	Parent   *Element
	Children []*Element

	Start       int64
	StartEnd    int64
	EndStart    int64
	End         int64
	SelfClosing bool

	// Text is the concatenated character data of direct children.
	Text string
}

// Parse decodes data into an element tree and returns the document element.
func Parse(data []byte) (*Element, error) {
	d := xml.NewDecoder(bytes.NewReader(data))

	var (
		root  *Element
		stack []*Element
		text  []*strings.Builder
	)

	for {
		before := d.InputOffset()
		tok, err := d.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decoding XML at offset %d: %w", before, err)
		}
		after := d.InputOffset()

		switch t := tok.(type) {
		case xml.StartElement:
			el := &Element{
				Name:     t.Name,
				Prefix:   rawPrefix(data, before),
				Attr:     t.Copy().Attr,
				Start:    before,
				StartEnd: after,
			}
			if n := len(stack); n > 0 {
				el.Parent = stack[n-1]
				el.Parent.Children = append(el.Parent.Children, el)
			} else if root == nil {
				root = el
			}
			stack = append(stack, el)
			text = append(text, &strings.Builder{})

		case xml.EndElement:
			n := len(stack)
			if n == 0 {
				return nil, fmt.Errorf("unexpected end element %s at offset %d", t.Name.Local, before)
			}
			el := stack[n-1]
			el.Text = text[n-1].String()
			if before == after {
				el.SelfClosing = true
				el.EndStart = el.StartEnd
				el.End = el.StartEnd
			} else {
				el.EndStart = before
				el.End = after
			}
			stack = stack[:n-1]
			text = text[:n-1]

		case xml.CharData:
			if n := len(text); n > 0 {
				text[n-1].Write(t)
			}
		}
	}

	if root == nil {
		return nil, fmt.Errorf("no document element")
	}
	return root, nil
}

// rawPrefix returns the namespace prefix of the tag that starts at offset.
func rawPrefix(data []byte, offset int64) string {
	i := int(offset) + 1
	start := i
	for i < len(data) {
		switch data[i] {
		case ':':
			return string(data[start:i])
		case ' ', '\t', '\r', '\n', '>', '/':
			return ""
		}
		i++
	}
	return ""
}

// QName returns the element name as written in the source, e.g. "w:t".
func (e *Element) QName() string {
	return Qualify(e.Prefix, e.Name.Local)
}

// Qualify joins a prefix and a local name.
func Qualify(prefix, local string) string {
	if prefix == "" {
		return local
	}
	return prefix + ":" + local
}

// AttrValue returns the value of the attribute with the given local name.
func (e *Element) AttrValue(local string) (string, bool) {
	for _, a := range e.Attr {
		if a.Name.Local == local && a.Name.Space != "xmlns" {
			return a.Value, true
		}
	}
	return "", false
}

// ChildrenNamed returns the direct children with the given local name.
func (e *Element) ChildrenNamed(local string) []*Element {
	var out []*Element
	for _, c := range e.Children {
		if c.Name.Local == local {
			out = append(out, c)
		}
	}
	return out
}

// Child returns the first direct child with the given local name.
func (e *Element) Child(local string) *Element {
	for _, c := range e.Children {
		if c.Name.Local == local {
			return c
		}
	}
	return nil
}

// Find returns the first descendant (depth first) with the given local name.
func (e *Element) Find(local string) *Element {
	for _, c := range e.Children {
		if c.Name.Local == local {
			return c
		}
		if found := c.Find(local); found != nil {
			return found
		}
	}
	return nil
}

// Raw returns the source bytes of the whole element.
func (e *Element) Raw(data []byte) []byte {
	return data[e.Start:e.End]
}

// RawAttrs returns the attribute text of the start tag exactly as written,
// including the leading whitespace, without the closing ">" or "/>".
func (e *Element) RawAttrs(data []byte) string {
	tag := string(data[e.Start:e.StartEnd])
	tag = strings.TrimPrefix(tag, "<"+e.QName())
	tag = strings.TrimSuffix(tag, ">")
	tag = strings.TrimSuffix(tag, "/")
	return tag
}
