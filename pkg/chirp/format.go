// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package chirp

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// Format substitutes the %s, %d and %j placeholders of template with args,
// consuming one argument per placeholder from left to right, and turns %% into
// a single %. Placeholders without a matching argument are left untouched, as
// are unknown %x sequences. Extra arguments are ignored.
func Format(template string, args ...any) string {
	if len(args) == 0 && !strings.Contains(template, "%%") {
		return template
	}

	builder := new(strings.Builder)
	builder.Grow(len(template))
	for i := 0; i < len(template); i++ {
		char := template[i]
		if char != '%' || i+1 == len(template) {
			builder.WriteByte(char)
			continue
		}

		verb := template[i+1]
		switch verb {
		case '%':
			builder.WriteByte('%')
			i++
		case 's', 'd', 'j':
			i++
			if len(args) == 0 {
				builder.WriteByte('%')
				builder.WriteByte(verb)
				continue
			}

			arg := args[0]
			args = args[1:]
			switch verb {
			case 's':
				builder.WriteString(coerceString(arg))
			case 'd':
				builder.WriteString(coerceNumber(arg))
			case 'j':
				builder.WriteString(coerceJSON(arg))
			}
		default:
			builder.WriteByte(char)
		}
	}

	return builder.String()
}

func coerceString(arg any) string {
	if arg == nil {
		return "null"
	}
	return fmt.Sprint(arg)
}

func coerceNumber(arg any) string {
	switch v := arg.(type) {
	case nil:
		return "0"
	case bool:
		if v {
			return "1"
		}
		return "0"
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return "0"
		}
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return "NaN"
		}
		return formatFloat(f)
	case json.Number:
		return coerceNumber(string(v))
	}

	value := reflect.ValueOf(arg)
	switch value.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(value.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(value.Uint(), 10)
	case reflect.Float32, reflect.Float64:
		return formatFloat(value.Float())
	default:
		return "NaN"
	}
}

func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case math.Abs(f) >= 1e21 || (f != 0 && math.Abs(f) < 1e-6):
		return exponential(f)
	default:
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
}

// exponential renders f as 1.5e+21 or 1e-7, without the zero padding of the
// exponent strconv adds.
func exponential(f float64) string {
	mantissa, exponent, _ := strings.Cut(strconv.FormatFloat(f, 'e', -1, 64), "e")
	sign, digits := exponent[:1], strings.TrimLeft(exponent[1:], "0")
	if digits == "" {
		digits = "0"
	}
	return mantissa + "e" + sign + digits
}

func coerceJSON(arg any) string {
	buffer := new(bytes.Buffer)
	encoder := json.NewEncoder(buffer)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(arg); err != nil {
		return fmt.Sprintf("%v", arg)
	}

	return strings.TrimSuffix(buffer.String(), "\n")
}
