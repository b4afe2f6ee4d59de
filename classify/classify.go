// Package classify holds the lexical rules that decide which document text is
// a field label, which is an empty slot waiting for a value, and what type of
// value a label asks for.
//
// All rules are data: keyword lists and ordered patterns. A Rules value is
// read-only after construction and safe for concurrent use.
package classify

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"

	"github.com/tsawler/formfill/model"
)

// DefaultMaxLabelLength is the longest text, in characters, that can be a label.
const DefaultMaxLabelLength = 50

// LabelKeywords are the fragments whose presence marks text as a field label.
var LabelKeywords = []string{
	":", "：", "日期", "姓名", "編號", "設備", "檢查", "備註",
	"人員", "地點", "位置", "廠區", "型號", "規格", "狀態", "狀況",
	"結果", "判定", "溫度", "壓力", "電流", "電壓", "轉速", "流量",
	"讀數", "數值", "合格", "不合格", "正常", "異常", "測量",
	"頻率", "振動", "噪音", "油位", "水位", "濕度",
}

// DateKeywords, NumberKeywords and CheckboxKeywords drive type inference.
var (
	DateKeywords   = []string{"日期", "date", "時間", "time"}
	NumberKeywords = []string{
		"數量", "數值", "number", "金額", "溫度", "壓力",
		"電流", "電壓", "轉速", "流量", "讀數", "頻率",
		"振動", "噪音", "油位", "水位", "濕度",
	}
	CheckboxKeywords = []string{"是否", "確認", "check", "合格", "判定", "正常", "異常"}
)

// placeholderPatterns match whole, trimmed and normalized slot text.
var placeholderPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^_{2,}$`),     // underscores, full-width folded
	regexp.MustCompile(`^\{\{.*\}\}$`), // {{placeholder}}
	regexp.MustCompile(`^<.*>$`),       // <placeholder>
	regexp.MustCompile(`^\[.*\]$`),     // [placeholder]
	regexp.MustCompile(`^/{2,}$`),      // ///
}

// TypeRule assigns Type to labels containing any of Keywords.
type TypeRule struct {
	Type     model.FieldType
	Keywords []string
}

// Rules is a configured classifier.
type Rules struct {
	labelKeywords  []string
	typeRules      []TypeRule
	maxLabelLength int
}

// Option configures Rules.
type Option func(*Rules)

// WithLabelKeywords replaces the label keyword list.
func WithLabelKeywords(keywords []string) Option {
	return func(r *Rules) { r.labelKeywords = keywords }
}

// WithTypeRules replaces the ordered type rules. The first matching rule wins.
func WithTypeRules(rules []TypeRule) Option {
	return func(r *Rules) { r.typeRules = rules }
}

// WithMaxLabelLength sets the longest text that can be a label.
func WithMaxLabelLength(n int) Option {
	return func(r *Rules) {
		if n > 0 {
			r.maxLabelLength = n
		}
	}
}

// DefaultTypeRules returns the type rules in precedence order: date, number,
// checkbox.
func DefaultTypeRules() []TypeRule {
	return []TypeRule{
		{Type: model.TypeDate, Keywords: DateKeywords},
		{Type: model.TypeNumber, Keywords: NumberKeywords},
		{Type: model.TypeCheckbox, Keywords: CheckboxKeywords},
	}
}

// New returns Rules built from the defaults and opts.
func New(opts ...Option) *Rules {
	r := &Rules{
		labelKeywords:  LabelKeywords,
		typeRules:      DefaultTypeRules(),
		maxLabelLength: DefaultMaxLabelLength,
	}
	for _, opt := range opts {
		opt(r)
	}

	// Keywords are compared in normalized form.
	r.labelKeywords = normalizeAll(r.labelKeywords, false)
	rules := make([]TypeRule, len(r.typeRules))
	for i, tr := range r.typeRules {
		rules[i] = TypeRule{Type: tr.Type, Keywords: normalizeAll(tr.Keywords, true)}
	}
	r.typeRules = rules
	return r
}

// Default is the classifier with the built-in keyword lists.
var Default = New()

// Normalize folds text into the form rules compare against: NFC composed,
// full-width ASCII and the ideographic space folded to their narrow forms.
func Normalize(s string) string {
	return width.Fold.String(norm.NFC.String(s))
}

func normalizeAll(in []string, lower bool) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = Normalize(s)
		if lower {
			s = strings.ToLower(s)
		}
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// IsPlaceholder reports whether text marks an empty slot: blank, a run of
// underscores or slashes, or a bracketed template marker.
func IsPlaceholder(text string) bool {
	t := strings.TrimSpace(Normalize(text))
	if t == "" {
		return true
	}
	for _, re := range placeholderPatterns {
		if re.MatchString(t) {
			return true
		}
	}
	return false
}

// IsFieldLabel reports whether text looks like a field label.
func (r *Rules) IsFieldLabel(text string) bool {
	t := strings.TrimSpace(text)
	if t == "" || utf8.RuneCountInString(t) > r.maxLabelLength {
		return false
	}
	return containsAny(Normalize(t), r.labelKeywords)
}

// IsParagraphField reports whether a paragraph declares a field: it is a
// label or it holds a blank line of underscores.
func (r *Rules) IsParagraphField(text string) bool {
	if r.IsFieldLabel(text) {
		return true
	}
	return strings.Contains(text, "____") || strings.Contains(text, "＿＿")
}

// GuessFieldType infers the value type from label text.
func (r *Rules) GuessFieldType(label string) model.FieldType {
	t := strings.ToLower(Normalize(label))
	for _, rule := range r.typeRules {
		if containsAny(t, rule.Keywords) {
			return rule.Type
		}
	}
	return model.TypeText
}

// IsFieldLabel uses the default rules.
func IsFieldLabel(text string) bool { return Default.IsFieldLabel(text) }

// GuessFieldType uses the default rules.
func GuessFieldType(label string) model.FieldType { return Default.GuessFieldType(label) }

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
