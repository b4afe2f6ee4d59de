package classify

import "strings"

// CellFieldName derives a field name from a worksheet label.
func CellFieldName(text string) string {
	return strings.TrimRight(strings.TrimSpace(text), ":：ˍ_ ")
}

// ParagraphFieldName derives a field name from a paragraph: the text before
// the first colon, without trailing underscores.
func ParagraphFieldName(text string) string {
	name := strings.TrimSpace(text)
	name = strings.SplitN(name, ":", 2)[0]
	name = strings.SplitN(name, "：", 2)[0]
	return strings.TrimRight(strings.TrimSpace(name), "_＿ ")
}

// TableFieldName derives a field name from a table cell label.
func TableFieldName(text string) string {
	return strings.TrimRight(strings.TrimSpace(text), ":：_＿ ")
}

// SplitAtColon splits text after the earliest colon of either width. The
// prefix includes the colon. ok is false when text has no colon.
func SplitAtColon(text string) (prefix, rest string, ok bool) {
	i := strings.IndexAny(text, ":：")
	if i < 0 {
		return "", text, false
	}
	colon := ":"
	if strings.HasPrefix(text[i:], "：") {
		colon = "："
	}
	return text[:i+len(colon)], text[i+len(colon):], true
}

// HasColon reports whether text contains a colon of either width.
func HasColon(text string) bool {
	return strings.ContainsAny(text, ":：")
}
