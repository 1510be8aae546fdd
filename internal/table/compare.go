package table

import (
	"cmp"
	"reflect"
	"time"
)

// compareValues orders two raw field values for sorting.
//
// Values of the same kind compare natively: every integer and float kind
// numerically against each other, strings byte-wise, bools false before
// true, and time.Time chronologically. Any other pairing, including nil and
// mixed kinds such as "5" against 5, compares equal and therefore keeps
// input order. There is no coercion between kinds.
func compareValues(a, b any) int {
	if ta, ok := a.(time.Time); ok {
		if tb, ok := b.(time.Time); ok {
			return ta.Compare(tb)
		}
		return 0
	}

	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if !va.IsValid() || !vb.IsValid() {
		return 0
	}

	ka, kb := kindOf(va), kindOf(vb)
	if ka != kb {
		return 0
	}

	switch ka {
	case kindNumber:
		return cmp.Compare(toFloat(va), toFloat(vb))
	case kindString:
		return cmp.Compare(va.String(), vb.String())
	case kindBool:
		x, y := va.Bool(), vb.Bool()
		switch {
		case x == y:
			return 0
		case !x:
			return -1
		default:
			return 1
		}
	}
	return 0
}

type valueKind int

const (
	kindOther valueKind = iota
	kindNumber
	kindString
	kindBool
)

func kindOf(v reflect.Value) valueKind {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return kindNumber
	case reflect.String:
		return kindString
	case reflect.Bool:
		return kindBool
	default:
		return kindOther
	}
}

func toFloat(v reflect.Value) float64 {
	switch {
	case v.CanInt():
		return float64(v.Int())
	case v.CanUint():
		return float64(v.Uint())
	default:
		return v.Float()
	}
}
