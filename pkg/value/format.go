package value

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Format renders v for human consumption: scalars as Go literals, strings
// quoted and arrays in brackets.
func Format(v Value) string {
	switch v := v.(type) {
	case Raw:
		return formatSlice([]byte(v), func(b byte) string { return strconv.Itoa(int(b)) })
	case Unknown:
		return formatSlice(v.Data, func(b byte) string { return strconv.Itoa(int(b)) })
	case Bool:
		return strconv.FormatBool(bool(v))
	case Int64:
		return strconv.FormatInt(int64(v), 10)
	case Float:
		return strconv.FormatFloat(float64(v), 'g', -1, 32)
	case Double:
		return strconv.FormatFloat(float64(v), 'g', -1, 64)
	case String:
		return strconv.Quote(string(v))
	case BoolArray:
		return formatSlice([]bool(v), strconv.FormatBool)
	case Int64Array:
		return formatSlice([]int64(v), func(i int64) string { return strconv.FormatInt(i, 10) })
	case FloatArray:
		return formatSlice([]float32(v), func(f float32) string { return strconv.FormatFloat(float64(f), 'g', -1, 32) })
	case DoubleArray:
		return formatSlice([]float64(v), func(f float64) string { return strconv.FormatFloat(f, 'g', -1, 64) })
	case StringArray:
		return formatSlice([]string(v), strconv.Quote)
	case nil:
		return "<nil>"
	default:
		return fmt.Sprintf("%v", v)
	}
}

func formatSlice[T any](items []T, f func(T) string) string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, item := range items {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(f(item))
	}
	sb.WriteByte(']')
	return sb.String()
}

// Interface returns v as a plain Go value suitable for JSON encoding.
func Interface(v Value) any {
	switch v := v.(type) {
	case Raw:
		return []byte(v)
	case Unknown:
		return v.Data
	case Bool:
		return bool(v)
	case Int64:
		return int64(v)
	case Float:
		return float32(v)
	case Double:
		return float64(v)
	case String:
		return string(v)
	case BoolArray:
		return []bool(v)
	case Int64Array:
		return []int64(v)
	case FloatArray:
		return []float32(v)
	case DoubleArray:
		return []float64(v)
	case StringArray:
		return []string(v)
	default:
		return nil
	}
}

// JSON is like Interface but safe for encoding/json: non-finite floats,
// which JSON cannot represent, are rendered as strings ("NaN", "+Inf", "-Inf").
func JSON(v Value) any {
	switch v := v.(type) {
	case Float:
		return jsonFloat(float64(v), 32)
	case Double:
		return jsonFloat(float64(v), 64)
	case FloatArray:
		out := make([]any, len(v))
		for i, f := range v {
			out[i] = jsonFloat(float64(f), 32)
		}
		return out
	case DoubleArray:
		out := make([]any, len(v))
		for i, f := range v {
			out[i] = jsonFloat(f, 64)
		}
		return out
	}
	return Interface(v)
}

func jsonFloat(f float64, bits int) any {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return strconv.FormatFloat(f, 'g', -1, bits)
	}
	if bits == 32 {
		return float32(f)
	}
	return f
}
