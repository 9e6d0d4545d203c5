package runtime

import (
	"errors"
	"testing"
)

func TestPromotionWidensNarrowNegatives(t *testing.T) {
	a := NewInt(-1, 8)
	b := NewInt(1, 32)
	out, err := BinaryOp("+", a, b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	iv, ok := out.(*IntegerValue)
	if !ok || iv.Int64() != 0 {
		t.Fatalf("expected 0, got %#v", out)
	}
	if iv.Width != 32 || !iv.Signed {
		t.Fatalf("expected signed 32-bit result, got width=%d signed=%t", iv.Width, iv.Signed)
	}
}

func TestPromotionUnsignedWinsAtEqualWidth(t *testing.T) {
	a := NewInt(-1, 32)
	b := NewUint(1, 32)
	out, err := BinaryOp("+", a, b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	iv, ok := out.(*IntegerValue)
	if !ok || iv.Signed {
		t.Fatalf("expected unsigned result, got %#v", out)
	}
	if iv.Uint64() != 0 {
		t.Fatalf("expected wraparound to 0, got %d", iv.Uint64())
	}
}

func TestFloatOperandPromotesExpression(t *testing.T) {
	out, err := BinaryOp("*", NewInt(3, 32), NewFloat(0.5, 64))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	fv, ok := out.(*FloatValue)
	if !ok || fv.Val != 1.5 {
		t.Fatalf("expected 1.5, got %#v", out)
	}
}

func TestDivisionByZero(t *testing.T) {
	if _, err := BinaryOp("/", NewInt(10, 32), NewInt(0, 32)); !errors.Is(err, ErrDivisionByZero) {
		t.Fatalf("expected ErrDivisionByZero, got %v", err)
	}
	if _, err := BinaryOp("%", NewInt(10, 32), NewInt(0, 32)); !errors.Is(err, ErrDivisionByZero) {
		t.Fatalf("expected ErrDivisionByZero for modulo, got %v", err)
	}
	if _, err := BinaryOp("/", NewFloat(1, 64), NewFloat(0, 64)); !errors.Is(err, ErrDivisionByZero) {
		t.Fatalf("expected ErrDivisionByZero for float divide, got %v", err)
	}
}

func TestShiftAmountMaskedToWidth(t *testing.T) {
	// 1 << 33 on a 32-bit operand masks the count to 33 & 31 == 1.
	out, err := BinaryOp("<<", NewInt(1, 32), NewInt(33, 32))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if iv := out.(*IntegerValue); iv.Int64() != 2 {
		t.Fatalf("expected 2, got %d", iv.Int64())
	}
}

func TestSignedRightShiftExtends(t *testing.T) {
	out, err := BinaryOp(">>", NewInt(-8, 32), NewInt(1, 32))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if iv := out.(*IntegerValue); iv.Int64() != -4 {
		t.Fatalf("expected -4, got %d", iv.Int64())
	}
}

func TestStringComparison(t *testing.T) {
	a := NewString([]byte("abc"), false)
	b := NewString([]byte("abd"), false)
	out, err := BinaryOp("<", a, b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bv := out.(*BoolValue); !bv.Val {
		t.Fatalf("expected \"abc\" < \"abd\"")
	}
	if _, err := BinaryOp("==", a, NewInt(1, 32)); err == nil {
		t.Fatalf("expected type error comparing string with integer")
	}
}

func TestTruthiness(t *testing.T) {
	cases := []struct {
		value Value
		want  bool
	}{
		{NewNull(), false},
		{NewBool(true), true},
		{NewInt(0, 32), false},
		{NewInt(-1, 8), true},
		{NewFloat(0, 64), false},
		{NewFloat(0.1, 64), true},
		{NewString(nil, false), false},
		{NewString([]byte("x"), false), true},
		{NewString([]byte{0}, true), false},
	}
	for i, c := range cases {
		if got := Truthy(c.value); got != c.want {
			t.Fatalf("case %d: expected %t, got %t (%#v)", i, c.want, got, c.value)
		}
	}
}

func TestUnaryOperators(t *testing.T) {
	neg, err := UnaryOp("-", NewInt(5, 8))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if iv := neg.(*IntegerValue); iv.Int64() != -5 || iv.Width != 32 {
		t.Fatalf("expected promoted -5, got %#v", iv)
	}
	not, err := UnaryOp("!", NewInt(0, 32))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bv := not.(*BoolValue); !bv.Val {
		t.Fatalf("expected !0 to be true")
	}
	inv, err := UnaryOp("~", NewUint(0, 32))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if iv := inv.(*IntegerValue); iv.Uint64() != 0xFFFFFFFF {
		t.Fatalf("expected all-ones, got %x", iv.Uint64())
	}
	if _, err := UnaryOp("~", NewFloat(1, 64)); err == nil {
		t.Fatalf("expected type error for ~float")
	}
}

func TestAssignConvertsToTargetType(t *testing.T) {
	dst := NewInt(0, 8)
	if err := Assign(dst, NewInt(300, 32)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dst.Int64() != 44 { // 300 & 0xFF, sign-reinterpreted
		t.Fatalf("expected 44 after narrowing, got %d", dst.Int64())
	}

	f := NewFloat(0, 64)
	if err := Assign(f, NewInt(7, 32)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Val != 7 {
		t.Fatalf("expected 7.0, got %g", f.Val)
	}

	s := NewString(nil, false)
	if err := Assign(s, NewString([]byte("hi"), false)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.String() != "hi" {
		t.Fatalf("expected \"hi\", got %q", s.String())
	}
	if err := Assign(s, NewInt(1, 32)); err == nil {
		t.Fatalf("expected type error assigning integer to string")
	}
}

func TestAssignPreservesStreamAnnotations(t *testing.T) {
	dst := NewUint(42, 32)
	dst.Meta().Origin = OriginStream
	dst.Meta().Offset = 4
	dst.Meta().Size = 4
	if err := Assign(dst, NewUint(7, 32)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dst.Uint64() != 7 {
		t.Fatalf("expected snapshot mutated to 7, got %d", dst.Uint64())
	}
	if dst.Meta().Origin != OriginStream || dst.Meta().Offset != 4 {
		t.Fatalf("expected stream annotations preserved, got %+v", dst.Meta())
	}
}

func TestConvertRoundTripsWidths(t *testing.T) {
	for _, width := range []uint8{8, 16, 32, 64} {
		v := NewInt(-1, width)
		out, err := Convert(v, width, true, false)
		if err != nil {
			t.Fatalf("width %d: unexpected error: %v", width, err)
		}
		if out.(*IntegerValue).Int64() != -1 {
			t.Fatalf("width %d: expected -1, got %d", width, out.(*IntegerValue).Int64())
		}
	}
	f, err := Convert(NewInt(3, 32), 32, false, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.(*FloatValue).Val != 3 {
		t.Fatalf("expected 3.0, got %g", f.(*FloatValue).Val)
	}
}

func TestSizeOfComposites(t *testing.T) {
	s := NewStruct("P", false)
	s.Fields = append(s.Fields,
		StructEntry{Name: "x", Value: NewUint(1, 8)},
		StructEntry{Name: "y", Value: NewUint(2, 32)},
	)
	if got := SizeOf(s); got != 5 {
		t.Fatalf("expected struct size 5, got %d", got)
	}

	u := NewStruct("U", true)
	u.Fields = append(u.Fields,
		StructEntry{Name: "a", Value: NewUint(1, 16)},
		StructEntry{Name: "b", Value: NewUint(2, 64)},
	)
	if got := SizeOf(u); got != 8 {
		t.Fatalf("expected union size 8, got %d", got)
	}
}

func TestStringLengthExcludesTerminator(t *testing.T) {
	s := NewString([]byte{'h', 'i', 0}, true)
	if s.Length() != 2 {
		t.Fatalf("expected length 2, got %d", s.Length())
	}
	if SizeOf(s) != 3 {
		t.Fatalf("expected span 3, got %d", SizeOf(s))
	}
}
