package engine

import (
	"testing"
	"time"
)

// TestNormalizeKey tests that numeric key variants collapse onto float64
// and that unsupported values are rejected.
func TestNormalizeKey(t *testing.T) {
	cases := []struct {
		in   Key
		want Key
		ok   bool
	}{
		{int(7), float64(7), true},
		{int64(-3), float64(-3), true},
		{uint32(9), float64(9), true},
		{float32(1.5), float64(1.5), true},
		{float64(2.25), float64(2.25), true},
		{"abc", "abc", true},
		{true, nil, false},
		{nil, nil, false},
		{map[string]any{}, nil, false},
	}

	for _, c := range cases {
		got, ok := NormalizeKey(c.in)
		if ok != c.ok {
			t.Errorf("NormalizeKey(%v): ok = %v, want %v", c.in, ok, c.ok)
			continue
		}
		if ok && got != c.want {
			t.Errorf("NormalizeKey(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}

// TestNormalizeKeyDateAndBinary tests the non-scalar key types separately
// since they are not comparable with ==.
func TestNormalizeKeyDateAndBinary(t *testing.T) {
	now := time.Now()
	got, ok := NormalizeKey(now)
	if !ok {
		t.Fatal("time.Time should be a valid key")
	}
	if !got.(time.Time).Equal(now) {
		t.Errorf("date key changed during normalization: %v != %v", got, now)
	}

	bin := []byte{0x01, 0x02}
	got, ok = NormalizeKey(bin)
	if !ok {
		t.Fatal("[]byte should be a valid key")
	}
	if string(got.([]byte)) != string(bin) {
		t.Errorf("binary key changed during normalization")
	}
}

// TestCompareKeysSameType tests ordering within each key type.
func TestCompareKeysSameType(t *testing.T) {
	early := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	late := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		a, b Key
		want int
	}{
		{float64(1), float64(2), -1},
		{float64(2), float64(2), 0},
		{float64(3), float64(2), 1},
		{"apple", "banana", -1},
		{"same", "same", 0},
		{early, late, -1},
		{late, late, 0},
		{[]byte{0x01}, []byte{0x02}, -1},
		{[]byte{0x01}, []byte{0x01, 0x00}, -1},
		{[]byte{0x05}, []byte{0x05}, 0},
	}

	for _, c := range cases {
		if got := CompareKeys(c.a, c.b); got != c.want {
			t.Errorf("CompareKeys(%v, %v) = %d, want %d", c.a, c.b, got, c.want)
		}
	}
}

// TestCompareKeysCrossType tests the fixed cross-type rank:
// number < date < string < binary.
func TestCompareKeysCrossType(t *testing.T) {
	ordered := []Key{
		float64(999),
		time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		"a",
		[]byte{0x00},
	}

	for i := 0; i < len(ordered); i++ {
		for j := 0; j < len(ordered); j++ {
			got := CompareKeys(ordered[i], ordered[j])
			want := 0
			if i < j {
				want = -1
			} else if i > j {
				want = 1
			}
			if got != want {
				t.Errorf("CompareKeys(ordered[%d], ordered[%d]) = %d, want %d", i, j, got, want)
			}
		}
	}
}

// TestRangeContains tests bound checks for the range constructors.
func TestRangeContains(t *testing.T) {
	eq := RangeEqual(float64(5))
	if !eq.Contains(float64(5)) {
		t.Error("RangeEqual(5) should contain 5")
	}
	if eq.Contains(float64(6)) {
		t.Error("RangeEqual(5) should not contain 6")
	}

	closed := RangeBound(float64(1), float64(10), false, false)
	for _, k := range []float64{1, 5, 10} {
		if !closed.Contains(k) {
			t.Errorf("[1,10] should contain %v", k)
		}
	}

	open := RangeBound(float64(1), float64(10), true, true)
	if open.Contains(float64(1)) {
		t.Error("(1,10) should not contain 1")
	}
	if open.Contains(float64(10)) {
		t.Error("(1,10) should not contain 10")
	}
	if !open.Contains(float64(2)) {
		t.Error("(1,10) should contain 2")
	}

	lower := RangeLowerBound(float64(3), false)
	if !lower.Contains(float64(3)) || !lower.Contains(float64(1000)) {
		t.Error("[3,inf) should contain 3 and 1000")
	}
	if lower.Contains(float64(2)) {
		t.Error("[3,inf) should not contain 2")
	}

	upper := RangeUpperBound("m", true)
	if !upper.Contains("a") {
		t.Error("(-inf,m) should contain \"a\"")
	}
	if upper.Contains("m") {
		t.Error("(-inf,m) should not contain \"m\"")
	}
}

// TestRangeValidate tests that invalid bound combinations are rejected.
func TestRangeValidate(t *testing.T) {
	if err := RangeBound(float64(1), float64(10), false, false).Validate(); err != nil {
		t.Errorf("valid range rejected: %v", err)
	}

	// lower above upper
	if err := RangeBound(float64(10), float64(1), false, false).Validate(); err == nil {
		t.Error("inverted range should be rejected")
	}

	// equal bounds with an open end
	if err := RangeBound(float64(5), float64(5), true, false).Validate(); err == nil {
		t.Error("degenerate open range should be rejected")
	}

	// invalid key type as a bound
	if err := RangeLowerBound(true, false).Validate(); err == nil {
		t.Error("boolean lower bound should be rejected")
	}

	// a range with no bounds at all is permitted (full scan)
	if err := (&KeyRange{}).Validate(); err != nil {
		t.Errorf("unbounded range rejected: %v", err)
	}
}

// TestDirectionFlags tests the reverse/unique decomposition of directions.
func TestDirectionFlags(t *testing.T) {
	cases := []struct {
		d       Direction
		reverse bool
		unique  bool
	}{
		{Asc, false, false},
		{AscUnique, false, true},
		{Desc, true, false},
		{DescUnique, true, true},
	}

	for _, c := range cases {
		if got := c.d.Reverse(); got != c.reverse {
			t.Errorf("%s.Reverse() = %v, want %v", c.d, got, c.reverse)
		}
		if got := c.d.Unique(); got != c.unique {
			t.Errorf("%s.Unique() = %v, want %v", c.d, got, c.unique)
		}
	}
}
