package vm

import (
	"fmt"
	"luminar/compiler"
	"strconv"
	"strings"
)

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case int64:
		return t != 0
	case float64:
		return t != 0
	case string:
		return t != ""
	default:
		return true
	}
}

func asFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case int64:
		return float64(t), true
	case float64:
		return t, true
	default:
		return 0, false
	}
}

func asInt(v any) (int64, bool) {
	switch t := v.(type) {
	case int64:
		return t, true
	case float64:
		return int64(t), true
	default:
		return 0, false
	}
}

func bothInts(a, b any) (int64, int64, bool) {
	ai, aok := a.(int64)
	bi, bok := b.(int64)
	return ai, bi, aok && bok
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return "nil"
	case bool:
		return strconv.FormatBool(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case string:
		return t
	case []any:
		parts := make([]string, len(t))
		for i, elem := range t {
			parts[i] = stringify(elem)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case map[any]any:
		parts := make([]string, 0, len(t))
		for k, val := range t {
			parts = append(parts, fmt.Sprintf("%s: %s", stringify(k), stringify(val)))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case RangeValue:
		return fmt.Sprintf("%d..%d", t.Start, t.End)
	case *Instance:
		return t.String()
	case BoundMethod:
		return fmt.Sprintf("<bound method %s>", t.Fn.Name)
	case compiler.CompiledFunction:
		return fmt.Sprintf("<function %s>", t.Name)
	case compiler.CompiledClass:
		return fmt.Sprintf("<class %s>", t.Name)
	default:
		return fmt.Sprintf("%v", t)
	}
}

func valuesEqual(a, b any) bool {
	if af, aok := asFloat(a); aok {
		if bf, bok := asFloat(b); bok {
			return af == bf
		}
	}
	as, aok := a.(string)
	bs, bok := b.(string)
	if aok && bok {
		return as == bs
	}
	if a == nil || b == nil {
		return a == b
	}
	ab, aok := a.(bool)
	bb, bok := b.(bool)
	if aok && bok {
		return ab == bb
	}
	return false
}

// compareNumbers orders two numeric values, returning -1, 0, or 1.
func compareNumbers(a, b any) (int, bool) {
	af, aok := asFloat(a)
	bf, bok := asFloat(b)
	if !aok || !bok {
		return 0, false
	}
	switch {
	case af < bf:
		return -1, true
	case af > bf:
		return 1, true
	default:
		return 0, true
	}
}
