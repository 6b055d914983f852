package report

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Kind tags what a Value holds.
type Kind uint8

const (
	KindNone Kind = iota
	KindNumber
	KindText
)

// Value is a report cell: a number, a piece of text, or no data.
type Value struct {
	kind Kind
	num  float64
	text string
}

// NoData is the explicit absent marker.
var NoData = Value{}

func Number(f float64) Value { return Value{kind: KindNumber, num: f} }

func Text(s string) Value { return Value{kind: KindText, text: s} }

// OptionalNumber maps nil to NoData.
func OptionalNumber(f *float64) Value {
	if f == nil {
		return NoData
	}
	return Number(*f)
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNoData() bool { return v.kind == KindNone }

// Float returns the numeric content. Text is parsed after trimming spaces;
// empty or unparseable text and NoData are absent.
func (v Value) Float() (float64, bool) {
	switch v.kind {
	case KindNumber:
		return v.num, true
	case KindText:
		s := strings.TrimSpace(v.text)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// String renders the value as text; NoData renders empty.
func (v Value) String() string {
	switch v.kind {
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindText:
		return v.text
	default:
		return ""
	}
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNumber:
		return json.Marshal(v.num)
	case KindText:
		return json.Marshal(v.text)
	default:
		return []byte("null"), nil
	}
}

func (v *Value) UnmarshalJSON(b []byte) error {
	var raw interface{}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	switch x := raw.(type) {
	case nil:
		*v = NoData
	case float64:
		*v = Number(x)
	case string:
		*v = Text(x)
	default:
		*v = Text(string(b))
	}
	return nil
}
