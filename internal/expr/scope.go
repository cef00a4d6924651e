package expr

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Scope - переменные, видимые выражениям. Значения: float64, string или bool.
type Scope map[string]any

// Clone возвращает независимую копию. Для nil возвращает пустой Scope.
func (s Scope) Clone() Scope {
	cp := make(Scope, len(s))
	for k, v := range s {
		cp[k] = v
	}
	return cp
}

// Truthy: ложны false, nil, ноль, NaN и пустая строка.
func Truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0 && !math.IsNaN(t)
	case int:
		return t != 0
	case string:
		return t != ""
	}
	return true
}

// Unwrap сводит последовательность из одного элемента (и вложенную 1x1)
// к скаляру.
func Unwrap(v any) any {
	for {
		seq, ok := v.([]any)
		if !ok || len(seq) != 1 {
			return v
		}
		v = seq[0]
	}
}

// Format renders a value as template text.
func Format(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case []any:
		parts := make([]string, len(t))
		for i, e := range t {
			parts[i] = Format(e)
		}
		return strings.Join(parts, ",")
	}
	return fmt.Sprint(v)
}
