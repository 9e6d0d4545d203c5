package interpreter

import (
	"strings"
	"testing"

	"bt/interpreter-go/pkg/runtime"
)

func TestFormatStringConversions(t *testing.T) {
	cases := []struct {
		format string
		args   []runtime.Value
		want   string
	}{
		{"%d", []runtime.Value{runtime.NewInt(-7, 32)}, "-7"},
		{"%u", []runtime.Value{runtime.NewUint(0xFFFFFFFF, 32)}, "4294967295"},
		{"%x", []runtime.Value{runtime.NewUint(255, 32)}, "ff"},
		{"%X", []runtime.Value{runtime.NewUint(255, 32)}, "FF"},
		{"%o", []runtime.Value{runtime.NewUint(8, 32)}, "10"},
		{"%c", []runtime.Value{runtime.NewInt(65, 32)}, "A"},
		{"%s", []runtime.Value{runtime.NewString([]byte("hi"), false)}, "hi"},
		{"%f", []runtime.Value{runtime.NewFloat(1.5, 64)}, "1.500000"},
		{"%e", []runtime.Value{runtime.NewFloat(1500, 64)}, "1.500000e+03"},
		{"%g", []runtime.Value{runtime.NewFloat(0.5, 64)}, "0.5"},
		{"100%%", nil, "100%"},
		{"%5d|", []runtime.Value{runtime.NewInt(42, 32)}, "   42|"},
		{"%-5d|", []runtime.Value{runtime.NewInt(42, 32)}, "42   |"},
		{"%08.3f", []runtime.Value{runtime.NewFloat(3.14159, 64)}, "0003.142"},
	}
	for _, c := range cases {
		got, err := formatString(c.format, c.args)
		if err != nil {
			t.Fatalf("%q: unexpected error: %v", c.format, err)
		}
		if got != c.want {
			t.Fatalf("%q: expected %q, got %q", c.format, c.want, got)
		}
	}
}

func TestFormatStringMismatches(t *testing.T) {
	cases := []struct {
		format string
		args   []runtime.Value
	}{
		{"%d", []runtime.Value{runtime.NewString([]byte("hi"), false)}},
		{"%s", []runtime.Value{runtime.NewInt(1, 32)}},
		{"%f", []runtime.Value{runtime.NewInt(1, 32)}},
		{"%d", nil},
		{"%q", []runtime.Value{runtime.NewInt(1, 32)}},
		{"%", nil},
	}
	for _, c := range cases {
		if _, err := formatString(c.format, c.args); err == nil {
			t.Fatalf("%q: expected an error", c.format)
		}
	}
}

func TestFormatStringExtraArgumentsIgnored(t *testing.T) {
	got, err := formatString("%d", []runtime.Value{runtime.NewInt(1, 32), runtime.NewInt(2, 32)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "1" {
		t.Fatalf("expected \"1\", got %q", got)
	}
}

func TestFormatBooleanAndEnumAsIntegers(t *testing.T) {
	got, err := formatString("%d %d", []runtime.Value{
		runtime.NewBool(true),
		runtime.NewEnum(3, 32, true, "THREE"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(got, "1 3") {
		t.Fatalf("unexpected output %q", got)
	}
}
