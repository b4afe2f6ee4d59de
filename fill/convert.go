package fill

import (
	"math"
	"strconv"
	"strings"

	"github.com/tsawler/formfill/model"
	"github.com/tsawler/formfill/xlsx"
)

// Canonical checkbox labels.
const (
	Pass = "合格"
	Fail = "不合格"
)

var (
	passWords = map[string]bool{
		"true": true, "1": true, "是": true, "合格": true, "正常": true,
		"yes": true, "ok": true, "通過": true,
	}
	failWords = map[string]bool{
		"false": true, "0": true, "否": true, "不合格": true, "異常": true,
		"no": true, "ng": true, "不通過": true,
	}
)

// Convert turns a fill value into the form a cell of the given field type
// stores. Numbers with a decimal point become floats, others integers; text
// that does not parse stays a string. Checkbox vocabulary maps to Pass or
// Fail. Dates and text pass through.
func Convert(v model.Value, t model.FieldType) xlsx.Value {
	s := string(v)
	switch t {
	case model.TypeNumber:
		if n, ok := parseNumber(s); ok {
			return xlsx.Number(n)
		}
	case model.TypeCheckbox:
		key := strings.ToLower(strings.TrimSpace(s))
		switch {
		case passWords[key]:
			return xlsx.String(Pass)
		case failWords[key]:
			return xlsx.String(Fail)
		}
	}
	return xlsx.String(s)
}

// ConvertText is Convert for targets that only hold text.
func ConvertText(v model.Value, t model.FieldType) string {
	return Convert(v, t).Text
}

func parseNumber(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if strings.Contains(s, ".") {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return "", false
		}
		return strconv.FormatFloat(f, 'g', -1, 64), true
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return "", false
	}
	return strconv.FormatInt(n, 10), true
}
