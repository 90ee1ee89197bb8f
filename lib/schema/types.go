package schema

import (
	"reflect"
	"time"
)

// --------------------------------------------------------------------------
// Field Type Tags
// --------------------------------------------------------------------------

// FieldType is the value-type tag of one schema field.
type FieldType string

const (
	TypeBoolean FieldType = "boolean"
	TypeNumber  FieldType = "number"
	TypeString  FieldType = "string"
	TypeDate    FieldType = "date"
	TypeArray   FieldType = "array"
	TypeObject  FieldType = "object"
	TypeBinary  FieldType = "binary"
	TypeAny     FieldType = "any"
)

// valid reports whether the tag is one of the declared type tags.
func (t FieldType) valid() bool {
	switch t {
	case TypeBoolean, TypeNumber, TypeString, TypeDate, TypeArray, TypeObject, TypeBinary, TypeAny:
		return true
	default:
		return false
	}
}

// Keyable reports whether values of this type can serve as a primary or
// index key.
func (t FieldType) Keyable() bool {
	switch t {
	case TypeNumber, TypeString, TypeDate, TypeBinary:
		return true
	default:
		return false
	}
}

// Default returns the zero value for the type tag, used by the record
// factory to produce fully defaulted records.
func (t FieldType) Default() any {
	switch t {
	case TypeBoolean:
		return false
	case TypeNumber:
		return float64(0)
	case TypeString:
		return ""
	case TypeDate:
		return time.Time{}
	case TypeArray:
		return []any{}
	case TypeObject:
		return map[string]any{}
	case TypeBinary:
		return []byte{}
	default:
		return nil
	}
}

// Matches reports whether the concrete value conforms to the type tag.
// A nil value matches only TypeAny.
func (t FieldType) Matches(v any) bool {
	if t == TypeAny {
		return true
	}
	if v == nil {
		return false
	}
	switch t {
	case TypeBoolean:
		_, ok := v.(bool)
		return ok
	case TypeNumber:
		switch v.(type) {
		case float64, float32, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
			return true
		}
		return false
	case TypeString:
		_, ok := v.(string)
		return ok
	case TypeDate:
		_, ok := v.(time.Time)
		return ok
	case TypeBinary:
		_, ok := v.([]byte)
		return ok
	case TypeArray:
		k := reflect.TypeOf(v).Kind()
		return k == reflect.Slice || k == reflect.Array
	case TypeObject:
		return reflect.TypeOf(v).Kind() == reflect.Map
	default:
		return false
	}
}

// --------------------------------------------------------------------------
// Field Configuration
// --------------------------------------------------------------------------

// Field configures one schema field. The zero flags form is the plain
// "type tag alone" configuration; setting Key, Index or Unique opts the
// field into key or index duties.
type Field struct {
	Type   FieldType `yaml:"type"`
	Key    bool      `yaml:"key"`    // in-line primary key field (at most one per store)
	Index  bool      `yaml:"index"`  // maintain a secondary index over this field
	Unique bool      `yaml:"unique"` // enforce uniqueness on the index (requires Index)
}

// Schema maps field names to their configuration.
type Schema map[string]Field

// IndexSpec declares one secondary index: the field it indexes and whether
// it enforces uniqueness.
type IndexSpec struct {
	KeyPath string
	Unique  bool
}
