package model

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/okian/udrf/internal/domain/rubric"
)

// The field types below never fail to decode. Departments submit partial and
// loosely formatted data, so a missing or malformed value decodes to its zero
// value and the evaluators score it as zero.

// Count is a non-negative integer count. It accepts JSON numbers and numeric
// strings such as "12" or "1,200". Values above MaxCount are clamped to it.
type Count int64

// MaxCount is the largest count a field decodes to. Every integer up to it
// is exact in a float64.
const MaxCount Count = 1 << 53

// UnmarshalJSON implements json.Unmarshaler.
func (c *Count) UnmarshalJSON(b []byte) error {
	v, _ := decodeNumber(b)
	switch {
	case v < 0 || math.IsNaN(v):
		*c = 0
	case v >= float64(MaxCount):
		*c = MaxCount
	default:
		*c = Count(int64(v))
	}
	return nil
}

// Int returns the count as an int64.
func (c Count) Int() int64 { return int64(c) }

// Amount is a non-negative real number. Strings have thousands separators
// stripped before parsing.
type Amount float64

// UnmarshalJSON implements json.Unmarshaler.
func (a *Amount) UnmarshalJSON(b []byte) error {
	v, _ := decodeNumber(b)
	if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		v = 0
	}
	*a = Amount(v)
	return nil
}

// Float returns the amount as a float64.
func (a Amount) Float() float64 { return float64(a) }

// Text is free-form narrative text. Numbers decode to their literal form and
// arrays of strings are joined line by line.
type Text string

// UnmarshalJSON implements json.Unmarshaler.
func (t *Text) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*t = Text(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err == nil {
		*t = Text(n.String())
		return nil
	}
	var parts []string
	if err := json.Unmarshal(b, &parts); err == nil {
		*t = Text(strings.Join(parts, "\n"))
		return nil
	}
	*t = ""
	return nil
}

// Len is the length of the trimmed text in characters.
func (t Text) Len() int { return utf8.RuneCountInString(strings.TrimSpace(string(t))) }

// String returns the raw text.
func (t Text) String() string { return string(t) }

// Money is an amount with an optional unit ("lakh", "crore", "rupees"...).
// It decodes from {"amount": 12.5, "unit": "lakh"}, from a bare number, or
// from a string such as "12.5 lakh" or "Rs. 50,000".
type Money struct {
	Value Amount `json:"amount"`
	Unit  string `json:"unit,omitempty"`
}

// UnmarshalJSON implements json.Unmarshaler.
func (m *Money) UnmarshalJSON(b []byte) error {
	*m = Money{}
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return nil
	}
	switch b[0] {
	case '{':
		var obj struct {
			Value Amount `json:"amount"`
			Unit  Text   `json:"unit"`
		}
		if err := json.Unmarshal(b, &obj); err == nil {
			m.Value = obj.Value
			m.Unit = strings.ToLower(strings.TrimSpace(string(obj.Unit)))
		}
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err == nil {
			m.Value, m.Unit = parseMoney(s)
		}
	default:
		_ = m.Value.UnmarshalJSON(b)
	}
	return nil
}

// In converts the amount into the target unit using factors, which map a
// unit name to its value in the target unit. An empty or unknown unit is
// taken to already be in the target unit.
func (m Money) In(factors map[string]float64) float64 {
	v := m.Value.Float()
	if f, ok := factors[m.Unit]; ok && f > 0 {
		return v * f
	}
	return v
}

func parseMoney(s string) (Amount, string) {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, ",", "")
	unit := ""
	if strings.HasPrefix(s, "₹") {
		s = strings.TrimPrefix(s, "₹")
		unit = "rupees"
	}
	s = strings.TrimSpace(s)
	// Longest first: "rs" is a prefix of "rs." and "rupee" of "rupees".
	for _, prefix := range []string{"rupees", "rupee", "rs.", "rs", "inr"} {
		if strings.HasPrefix(s, prefix) {
			s = strings.TrimPrefix(s, prefix)
			unit = "rupees"
			break
		}
	}
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "₹"))
	end := 0
	for end < len(s) && (s[end] == '.' || s[end] == '-' || unicode.IsDigit(rune(s[end]))) {
		end++
	}
	v, err := strconv.ParseFloat(s[:end], 64)
	if err != nil || v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, ""
	}
	if rest := strings.Trim(strings.TrimSpace(s[end:]), "."); rest != "" {
		unit = strings.Fields(rest)[0]
	}
	return Amount(v), unit
}

// ListEntry is one entry of a structured list (a MOOC, an award, an MoU...).
type ListEntry struct {
	Title  string `json:"title"`
	Detail string `json:"detail,omitempty"`
}

// List counts entries through three paths, in order of preference: a
// structured list of entries, a free-form separated text, or a reported
// scalar count.
type List struct {
	Items []ListEntry `json:"items,omitempty"`
	Text  string      `json:"text,omitempty"`
	Count Count       `json:"count,omitempty"`
}

// ListSource names the path a List length was taken from.
type ListSource string

// List sources.
const (
	ListFromItems ListSource = "items"
	ListFromText  ListSource = "text"
	ListFromCount ListSource = "count"
	ListEmpty     ListSource = "empty"
)

// UnmarshalJSON implements json.Unmarshaler.
func (l *List) UnmarshalJSON(b []byte) error {
	*l = List{}
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return nil
	}
	switch b[0] {
	case '[':
		var raw []json.RawMessage
		if err := json.Unmarshal(b, &raw); err != nil {
			return nil
		}
		for _, r := range raw {
			if e, ok := decodeEntry(r); ok {
				l.Items = append(l.Items, e)
			}
		}
	case '{':
		var obj struct {
			Items json.RawMessage `json:"items"`
			Text  Text            `json:"text"`
			Count Count           `json:"count"`
		}
		if err := json.Unmarshal(b, &obj); err != nil {
			return nil
		}
		if len(obj.Items) > 0 {
			var inner List
			_ = inner.UnmarshalJSON(obj.Items)
			l.Items = inner.Items
		}
		l.Text = string(obj.Text)
		l.Count = obj.Count
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err == nil {
			l.Text = s
		}
	default:
		_ = l.Count.UnmarshalJSON(b)
	}
	return nil
}

// Len returns the number of entries and the path it was taken from.
func (l List) Len() (int64, ListSource) {
	if n := len(l.Items); n > 0 {
		return int64(n), ListFromItems
	}
	if n := len(SplitList(l.Text)); n > 0 {
		return int64(n), ListFromText
	}
	if l.Count > 0 {
		return l.Count.Int(), ListFromCount
	}
	return 0, ListEmpty
}

// SplitList splits a free-form list on commas, semicolons and line breaks,
// dropping bullets, blanks and placeholder answers.
func SplitList(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ';' || r == '\n' || r == '\r'
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(f), "-*•"))
		if rubric.IsPlaceholder(f) {
			continue
		}
		out = append(out, f)
	}
	return out
}

func decodeEntry(r json.RawMessage) (ListEntry, bool) {
	var s string
	if err := json.Unmarshal(r, &s); err == nil {
		s = strings.TrimSpace(s)
		return ListEntry{Title: s}, !rubric.IsPlaceholder(s)
	}
	var obj map[string]any
	if err := json.Unmarshal(r, &obj); err == nil {
		if len(obj) == 0 {
			return ListEntry{}, false
		}
		for _, key := range []string{"title", "name", "course", "description"} {
			if v, ok := obj[key].(string); ok && strings.TrimSpace(v) != "" {
				detail, _ := obj["detail"].(string)
				return ListEntry{Title: strings.TrimSpace(v), Detail: detail}, true
			}
		}
		return ListEntry{}, true
	}
	var n json.Number
	if err := json.Unmarshal(r, &n); err == nil {
		return ListEntry{Title: n.String()}, true
	}
	return ListEntry{}, false
}

// decodeNumber reads a JSON number or numeric string. The bool reports
// whether a value was found.
func decodeNumber(b []byte) (float64, bool) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(b, &f); err == nil {
		return f, true
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return 0, false
	}
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	s = strings.TrimSuffix(s, "%")
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
