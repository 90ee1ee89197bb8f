package engine

import (
	"bytes"
	"time"

	"github.com/leegeunhyeok/box-db/lib/boxerr"
)

// --------------------------------------------------------------------------
// Keys
// --------------------------------------------------------------------------

// Key is a primary or index key value. Valid key types are numbers,
// time.Time, strings and []byte. Keys of different types order as
// number < date < string < binary, mirroring how object-store engines
// order heterogeneous keys.
type Key = any

// key type ranks for cross-type ordering
const (
	rankNumber = iota
	rankDate
	rankString
	rankBinary
)

// NormalizeKey canonicalizes a key value: all numeric types collapse to
// float64 so that keys written as int and read back as float64 compare equal.
// The boolean return value indicates whether the key is a valid key type.
func NormalizeKey(k Key) (Key, bool) {
	switch v := k.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case time.Time:
		return v, true
	case string:
		return v, true
	case []byte:
		return v, true
	default:
		return nil, false
	}
}

// ValidKey reports whether k is usable as a key.
func ValidKey(k Key) bool {
	_, ok := NormalizeKey(k)
	return ok
}

func keyRank(k Key) int {
	switch k.(type) {
	case float64:
		return rankNumber
	case time.Time:
		return rankDate
	case string:
		return rankString
	case []byte:
		return rankBinary
	default:
		// NormalizeKey must be called before ranking
		return rankBinary + 1
	}
}

// CompareKeys defines the total order over normalized keys. Both arguments
// must have been normalized with NormalizeKey. Returns -1, 0 or 1.
func CompareKeys(a, b Key) int {
	ra, rb := keyRank(a), keyRank(b)
	if ra != rb {
		if ra < rb {
			return -1
		}
		return 1
	}
	switch va := a.(type) {
	case float64:
		vb := b.(float64)
		switch {
		case va < vb:
			return -1
		case va > vb:
			return 1
		}
	case time.Time:
		vb := b.(time.Time)
		switch {
		case va.Before(vb):
			return -1
		case va.After(vb):
			return 1
		}
	case string:
		vb := b.(string)
		switch {
		case va < vb:
			return -1
		case va > vb:
			return 1
		}
	case []byte:
		return bytes.Compare(va, b.([]byte))
	}
	return 0
}

// --------------------------------------------------------------------------
// Key Ranges
// --------------------------------------------------------------------------

// KeyRange selects a contiguous span of keys. A nil Lower or Upper bound
// means unbounded on that side; the Open flags exclude the bound itself.
// If Index is non-empty the range targets that index's keys, otherwise it
// targets the primary key.
type KeyRange struct {
	Lower     Key
	Upper     Key
	LowerOpen bool
	UpperOpen bool
	Index     string
}

// RangeEqual selects exactly one key.
func RangeEqual(value Key) *KeyRange {
	return &KeyRange{Lower: value, Upper: value}
}

// RangeBound selects keys between lower and upper.
func RangeBound(lower, upper Key, lowerOpen, upperOpen bool) *KeyRange {
	return &KeyRange{Lower: lower, Upper: upper, LowerOpen: lowerOpen, UpperOpen: upperOpen}
}

// RangeLowerBound selects keys greater than (or equal to) lower.
func RangeLowerBound(lower Key, open bool) *KeyRange {
	return &KeyRange{Lower: lower, LowerOpen: open}
}

// RangeUpperBound selects keys less than (or equal to) upper.
func RangeUpperBound(upper Key, open bool) *KeyRange {
	return &KeyRange{Upper: upper, UpperOpen: open}
}

// On targets the range at the named index instead of the primary key.
func (r *KeyRange) On(index string) *KeyRange {
	r.Index = index
	return r
}

// Validate normalizes the bounds and checks that they are valid key values
// and correctly ordered.
func (r *KeyRange) Validate() error {
	if r.Lower != nil {
		lo, ok := NormalizeKey(r.Lower)
		if !ok {
			return boxerr.Validationf("invalid lower bound of type %T", r.Lower)
		}
		r.Lower = lo
	}
	if r.Upper != nil {
		up, ok := NormalizeKey(r.Upper)
		if !ok {
			return boxerr.Validationf("invalid upper bound of type %T", r.Upper)
		}
		r.Upper = up
	}
	if r.Lower != nil && r.Upper != nil {
		c := CompareKeys(r.Lower, r.Upper)
		if c > 0 {
			return boxerr.Validationf("lower bound is greater than upper bound")
		}
		if c == 0 && (r.LowerOpen || r.UpperOpen) {
			return boxerr.Validationf("range excludes its only key")
		}
	}
	return nil
}

// Contains reports whether the normalized key falls inside the range.
func (r *KeyRange) Contains(key Key) bool {
	if r == nil {
		return true
	}
	if r.Lower != nil {
		c := CompareKeys(key, r.Lower)
		if c < 0 || (c == 0 && r.LowerOpen) {
			return false
		}
	}
	if r.Upper != nil {
		c := CompareKeys(key, r.Upper)
		if c > 0 || (c == 0 && r.UpperOpen) {
			return false
		}
	}
	return true
}

// --------------------------------------------------------------------------
// Traversal Direction
// --------------------------------------------------------------------------

// Direction controls cursor traversal order. The unique variants skip
// duplicate index keys, yielding one record per distinct key.
type Direction int

const (
	Asc Direction = iota
	AscUnique
	Desc
	DescUnique
)

func (d Direction) String() string {
	switch d {
	case Asc:
		return "Asc"
	case AscUnique:
		return "AscUnique"
	case Desc:
		return "Desc"
	case DescUnique:
		return "DescUnique"
	default:
		return "Unknown"
	}
}

// Reverse reports whether the direction walks keys in descending order.
func (d Direction) Reverse() bool {
	return d == Desc || d == DescUnique
}

// Unique reports whether the direction skips duplicate index keys.
func (d Direction) Unique() bool {
	return d == AscUnique || d == DescUnique
}
