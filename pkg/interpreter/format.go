package interpreter

import (
	"fmt"
	"strings"

	"bt/interpreter-go/pkg/runtime"
)

// formatString renders the printf-style dialect: %d %u %x %X %o %c %s %f %e
// %g and %%, with C flag/width/precision modifiers passed through. A
// specifier whose value has the wrong kind is an error the caller surfaces
// as FormatError.
func formatString(format string, args []runtime.Value) (string, error) {
	var out strings.Builder
	next := 0

	i := 0
	for i < len(format) {
		c := format[i]
		if c != '%' {
			out.WriteByte(c)
			i++
			continue
		}
		i++
		if i >= len(format) {
			return "", fmt.Errorf("format string ends inside a specifier")
		}
		if format[i] == '%' {
			out.WriteByte('%')
			i++
			continue
		}

		start := i
		for i < len(format) && strings.IndexByte("-+ 0#123456789.", format[i]) >= 0 {
			i++
		}
		if i >= len(format) {
			return "", fmt.Errorf("format string ends inside a specifier")
		}
		mods := format[start:i]
		verb := format[i]
		i++

		if next >= len(args) {
			return "", fmt.Errorf("specifier '%%%c' has no matching argument", verb)
		}
		arg := args[next]
		next++

		rendered, err := formatOne(mods, verb, arg)
		if err != nil {
			return "", err
		}
		out.WriteString(rendered)
	}
	return out.String(), nil
}

func formatOne(mods string, verb byte, arg runtime.Value) (string, error) {
	switch verb {
	case 'd', 'u', 'x', 'X', 'o', 'c':
		iv, signed, ok := formatInteger(arg)
		if !ok {
			return "", fmt.Errorf("specifier '%%%c' needs an integer, got %s", verb, arg.Kind())
		}
		goVerb := verb
		if verb == 'u' {
			goVerb = 'd'
		}
		spec := "%" + mods + string(goVerb)
		if verb == 'u' || !signed {
			return fmt.Sprintf(spec, uint64(iv)), nil
		}
		return fmt.Sprintf(spec, iv), nil
	case 's':
		s, ok := arg.(*runtime.StringValue)
		if !ok {
			return "", fmt.Errorf("specifier '%%s' needs a string, got %s", arg.Kind())
		}
		return fmt.Sprintf("%"+mods+"s", s.String()), nil
	case 'f', 'e', 'g':
		f, ok := arg.(*runtime.FloatValue)
		if !ok {
			return "", fmt.Errorf("specifier '%%%c' needs a float, got %s", verb, arg.Kind())
		}
		return fmt.Sprintf("%"+mods+string(verb), f.Val), nil
	default:
		return "", fmt.Errorf("unknown conversion '%%%c'", verb)
	}
}

// formatInteger pulls the integer payload of int, enum and bool values. For
// unsigned sources the returned int64 carries the raw bits.
func formatInteger(v runtime.Value) (int64, bool, bool) {
	switch val := v.(type) {
	case *runtime.IntegerValue:
		if val.Signed {
			return val.Int64(), true, true
		}
		return int64(val.Uint64()), false, true
	case *runtime.EnumValue:
		if val.Signed {
			return val.Int64(), true, true
		}
		return int64(val.Uint64()), false, true
	case *runtime.BoolValue:
		if val.Val {
			return 1, true, true
		}
		return 0, true, true
	default:
		return 0, false, false
	}
}
