package ooxml

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"regexp"
	"sort"
)

// Edit replaces data[Start:End] with Text. Start == End is an insertion.
type Edit struct {
	Start int64
	End   int64
	Text  []byte
}

// Apply performs the edits on a copy of data. Insertions at the same offset
// keep the order in which they were given. Overlapping edits are rejected.
func Apply(data []byte, edits []Edit) ([]byte, error) {
	sorted := make([]Edit, len(edits))
	copy(sorted, edits)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Start < sorted[j].Start
	})

	var out bytes.Buffer
	out.Grow(len(data))

	cursor := int64(0)
	for _, e := range sorted {
		if e.Start < cursor || e.End < e.Start || e.End > int64(len(data)) {
			return nil, fmt.Errorf("invalid edit [%d,%d) at cursor %d", e.Start, e.End, cursor)
		}
		out.Write(data[cursor:e.Start])
		out.Write(e.Text)
		cursor = e.End
	}
	out.Write(data[cursor:])

	return out.Bytes(), nil
}

// RemoveChildren deletes the direct children of the document element that
// have the given local name and satisfy match. It reports how many were
// removed.
func RemoveChildren(data []byte, local string, match func(*Element) bool) ([]byte, int, error) {
	root, err := Parse(data)
	if err != nil {
		return nil, 0, err
	}
	var edits []Edit
	for _, el := range root.ChildrenNamed(local) {
		if match(el) {
			edits = append(edits, Edit{Start: el.Start, End: el.End})
		}
	}
	if len(edits) == 0 {
		return data, 0, nil
	}
	out, err := Apply(data, edits)
	return out, len(edits), err
}

// Escape returns s escaped for use as XML character data.
func Escape(s string) string {
	var b bytes.Buffer
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}

var attrPatterns = map[string]*regexp.Regexp{
	"t": attrPattern("t"),
	"s": attrPattern("s"),
}

func attrPattern(name string) *regexp.Regexp {
	return regexp.MustCompile(`\s+` + regexp.QuoteMeta(name) + `\s*=\s*("[^"]*"|'[^']*')`)
}

// WithoutAttr removes the named attribute from raw start-tag attribute text.
// Patterns for "t" and "s" are compiled once; other names compile per call.
func WithoutAttr(raw, name string) string {
	re, ok := attrPatterns[name]
	if !ok {
		re = attrPattern(name)
	}
	return re.ReplaceAllString(raw, "")
}
