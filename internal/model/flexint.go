package model

import (
	"encoding/json"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// FlexInt is an integer field that clients may also send as a numeric
// string ("36") or as a number with a zero fraction (36.0).
//
// Anything else ("old", 36.5, true, {}) fails with *json.UnmarshalTypeError
// so the caller sees the same error as for a plain int field.
// JSON null never reaches UnmarshalJSON: a *FlexInt field just stays nil.
type FlexInt int

func (n *FlexInt) UnmarshalJSON(data []byte) error {
	text := string(data)
	kind := "number"

	if strings.HasPrefix(text, `"`) {
		kind = "string"
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		text = strings.TrimSpace(s)
	}

	v, ok := parseWholeNumber(text)
	if !ok {
		if kind == "number" && !looksNumeric(text) {
			kind = jsonKind(text)
		}
		return &json.UnmarshalTypeError{
			Value: kind,
			Type:  reflect.TypeFor[FlexInt](),
		}
	}

	*n = FlexInt(v)
	return nil
}

// Int returns the value as a *int, nil for a nil receiver.
func (n *FlexInt) Int() *int {
	if n == nil {
		return nil
	}
	v := int(*n)
	return &v
}

// parseWholeNumber accepts a JSON number literal whose value is an integer
// that fits in an int: "36", "-2", "36.0", "1e2".
func parseWholeNumber(text string) (int, bool) {
	if !looksNumeric(text) || !json.Valid([]byte(text)) {
		return 0, false
	}

	if v, err := strconv.Atoi(text); err == nil {
		return v, true
	}

	f, err := strconv.ParseFloat(text, 64)
	if err != nil || f != math.Trunc(f) {
		return 0, false
	}
	if f < math.MinInt || f >= math.MaxInt {
		return 0, false
	}
	return int(f), true
}

func looksNumeric(text string) bool {
	return text != "" && (text[0] == '-' || (text[0] >= '0' && text[0] <= '9'))
}

func jsonKind(text string) string {
	switch {
	case text == "true" || text == "false":
		return "bool"
	case strings.HasPrefix(text, "{"):
		return "object"
	case strings.HasPrefix(text, "["):
		return "array"
	default:
		return "value"
	}
}
