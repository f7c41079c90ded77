package core

import (
	"math"
	"strconv"
	"strings"
)

type undefined struct{}

func (undefined) String() string { return "undefined" }

// Undefined stands for a key that is absent from a row. Under loose equality
// it only equals null, and it never orders against anything.
var Undefined any = undefined{}

func IsUndefined(value any) bool {
	_, ok := value.(undefined)
	return ok
}

func isNullish(value any) bool {
	return value == nil || IsUndefined(value)
}

// Normalize converts Go numeric kinds to float64 so rows built by callers
// behave like rows decoded from JSON.
func Normalize(value any) any {
	switch v := value.(type) {
	case int:
		return float64(v)
	case int8:
		return float64(v)
	case int16:
		return float64(v)
	case int32:
		return float64(v)
	case int64:
		return float64(v)
	case uint:
		return float64(v)
	case uint8:
		return float64(v)
	case uint16:
		return float64(v)
	case uint32:
		return float64(v)
	case uint64:
		return float64(v)
	case float32:
		return float64(v)
	default:
		return value
	}
}

// ToNumber follows the numeric conversion of the playground runtime:
// null and false are 0, true is 1, strings are parsed after trimming
// (empty is 0), and everything else is NaN.
func ToNumber(value any) float64 {
	switch v := Normalize(value).(type) {
	case nil:
		return 0
	case float64:
		return v
	case bool:
		if v {
			return 1
		}
		return 0
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0
		}
		switch s {
		case "Infinity", "+Infinity":
			return math.Inf(1)
		case "-Infinity":
			return math.Inf(-1)
		}
		if strings.ContainsAny(s, "_xXpP") || strings.EqualFold(s, "inf") || strings.EqualFold(s, "nan") ||
			strings.EqualFold(s, "+inf") || strings.EqualFold(s, "-inf") || strings.EqualFold(s, "infinity") {
			return math.NaN()
		}
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return math.NaN()
		}
		return n
	default:
		return math.NaN()
	}
}

// LooseEquals implements == with type coercion: null equals undefined,
// numbers compare against numeric strings and booleans by value.
func LooseEquals(a, b any) bool {
	a, b = Normalize(a), Normalize(b)

	if isNullish(a) || isNullish(b) {
		return isNullish(a) && isNullish(b)
	}

	switch x := a.(type) {
	case float64:
		switch y := b.(type) {
		case float64:
			return x == y
		case string, bool:
			return x == ToNumber(y)
		}
	case string:
		switch y := b.(type) {
		case string:
			return x == y
		case float64:
			return ToNumber(x) == y
		case bool:
			return ToNumber(x) == ToNumber(y)
		}
	case bool:
		switch y := b.(type) {
		case bool:
			return x == y
		case float64, string:
			return ToNumber(x) == ToNumber(y)
		}
	}

	return false
}

// Compare orders two values the way relational operators do: two strings
// compare lexically, anything else numerically. ok is false when either
// side converts to NaN, in which case every relational operator is false.
func Compare(a, b any) (result int, ok bool) {
	a, b = Normalize(a), Normalize(b)

	if x, isString := a.(string); isString {
		if y, isString := b.(string); isString {
			return strings.Compare(x, y), true
		}
	}

	if IsUndefined(a) || IsUndefined(b) {
		return 0, false
	}

	x, y := ToNumber(a), ToNumber(b)
	if math.IsNaN(x) || math.IsNaN(y) {
		return 0, false
	}

	switch {
	case x < y:
		return -1, true
	case x > y:
		return 1, true
	default:
		return 0, true
	}
}

// FormatValue renders a value for display.
func FormatValue(value any) string {
	switch v := Normalize(value).(type) {
	case nil:
		return "null"
	case undefined:
		return ""
	case float64:
		if math.IsInf(v, 1) {
			return "Infinity"
		}
		if math.IsInf(v, -1) {
			return "-Infinity"
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case string:
		return v
	default:
		return ""
	}
}
