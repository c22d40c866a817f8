package engine

import (
	"math"
)

// Value represents a Titi value using NaN-boxing.
//
// All values are represented as 64-bit IEEE 754 doubles. Non-float values
// are encoded in the NaN (Not-a-Number) space using the quiet NaN prefix
// and tag bits to distinguish types.
//
// Encoding scheme:
//   - Float: Native IEEE 754 double (if not a NaN, it's a float)
//   - SmallInt: Quiet NaN + tagInt + 48-bit signed payload
//   - Special: Quiet NaN + tagSpecial + special value ID (nil/true/false)
//   - Handle: Quiet NaN + tagHandle + marker-tagged registry ID
type Value uint64

// NaN-boxing constants
const (
	// Quiet NaN prefix: exponent all 1s, quiet bit set, sign bit 0
	nanBits uint64 = 0x7FF8000000000000

	// Tag mask: 3 bits within the NaN mantissa space
	tagMask uint64 = 0x0007000000000000

	// Payload mask: 48 bits for int/id
	payloadMask uint64 = 0x0000FFFFFFFFFFFF

	// Tag values (shifted into position)
	tagInt     uint64 = 0x0001000000000000 // 48-bit signed integer
	tagSpecial uint64 = 0x0002000000000000 // nil, true, false
	tagHandle  uint64 = 0x0003000000000000 // registry handle (marker | ID)

	// Sign bit for 48-bit integer sign extension
	intSignBit uint64 = 0x0000800000000000

	// Mask for sign extension
	intSignExtend uint64 = 0xFFFF000000000000
)

// Special value payloads
const (
	specialNil   uint64 = 0
	specialTrue  uint64 = 1
	specialFalse uint64 = 2
)

// Pre-defined special values
const (
	Nil   Value = Value(nanBits | tagSpecial | specialNil)
	True  Value = Value(nanBits | tagSpecial | specialTrue)
	False Value = Value(nanBits | tagSpecial | specialFalse)
)

// SmallInt range (48-bit signed)
const (
	MaxSmallInt int64 = (1 << 47) - 1
	MinSmallInt int64 = -(1 << 47)
)

// Handle markers. The high byte of a handle payload selects the registry
// table; the low 24 bits are the registry ID within that table.
const (
	stringMarker uint32 = 1 << 24
	bufferMarker uint32 = 2 << 24
	proxyMarker  uint32 = 3 << 24
	funcMarker   uint32 = 4 << 24
	objectMarker uint32 = 5 << 24

	markerMask   uint32 = 0xFF << 24
	handleIDMask uint32 = 0x00FFFFFF
)

// ---------------------------------------------------------------------------
// Type checking
// ---------------------------------------------------------------------------

// IsFloat returns true if v represents a float64 value.
// A value is a float if it's not one of our tagged NaN values.
func (v Value) IsFloat() bool {
	bits := uint64(v)

	if (bits & 0x7FF0000000000000) != 0x7FF0000000000000 {
		return true
	}

	// Exponent is all 1s. Infinity has mantissa == 0 (ignoring sign bit).
	mantissa := bits & 0x000FFFFFFFFFFFFF
	if mantissa == 0 {
		return true
	}

	if (bits & nanBits) != nanBits {
		// Signaling NaN, treat as float
		return true
	}

	tag := bits & tagMask
	if tag == 0 {
		// Untagged quiet NaN, treat as float
		return true
	}

	return false
}

// IsSmallInt returns true if v represents a small integer.
func (v Value) IsSmallInt() bool {
	return (uint64(v) & (nanBits | tagMask)) == (nanBits | tagInt)
}

// IsHandle returns true if v is a registry handle of any kind.
func (v Value) IsHandle() bool {
	return (uint64(v) & (nanBits | tagMask)) == (nanBits | tagHandle)
}

// IsSpecial returns true if v is nil, true, or false.
func (v Value) IsSpecial() bool {
	return (uint64(v) & (nanBits | tagMask)) == (nanBits | tagSpecial)
}

// IsNil returns true if v is the nil value.
func (v Value) IsNil() bool { return v == Nil }

// IsBool returns true if v is true or false.
func (v Value) IsBool() bool { return v == True || v == False }

// IsString returns true if v is a registered string handle.
func (v Value) IsString() bool { return v.hasMarker(stringMarker) }

// IsBuffer returns true if v is a registered byte buffer handle.
func (v Value) IsBuffer() bool { return v.hasMarker(bufferMarker) }

// IsProxy returns true if v is a registered proxy object handle.
func (v Value) IsProxy() bool { return v.hasMarker(proxyMarker) }

// IsFunc returns true if v is a registered native function handle.
func (v Value) IsFunc() bool { return v.hasMarker(funcMarker) }

// IsObject returns true if v is a registered plain object handle.
func (v Value) IsObject() bool { return v.hasMarker(objectMarker) }

func (v Value) hasMarker(marker uint32) bool {
	if !v.IsHandle() {
		return false
	}
	return uint32(uint64(v)&payloadMask)&markerMask == marker
}

// HandleID returns the raw registry ID of a handle value (marker stripped).
// Panics if v is not a handle.
func (v Value) HandleID() uint32 {
	if !v.IsHandle() {
		panic("Value.HandleID: not a handle")
	}
	return uint32(uint64(v)&payloadMask) & handleIDMask
}

// fromHandle creates a handle Value from a marker and registry ID.
func fromHandle(marker, id uint32) Value {
	return Value(nanBits | tagHandle | uint64(marker|id&handleIDMask))
}

// ---------------------------------------------------------------------------
// Float operations
// ---------------------------------------------------------------------------

// Float64 returns v as a float64.
// Panics if v is not a float.
func (v Value) Float64() float64 {
	if !v.IsFloat() {
		panic("Value.Float64: not a float")
	}
	return math.Float64frombits(uint64(v))
}

// FromFloat64 creates a Value from a float64.
func FromFloat64(f float64) Value {
	return Value(math.Float64bits(f))
}

// ---------------------------------------------------------------------------
// SmallInt operations
// ---------------------------------------------------------------------------

// SmallInt returns v as an int64.
// Panics if v is not a small integer.
func (v Value) SmallInt() int64 {
	if !v.IsSmallInt() {
		panic("Value.SmallInt: not a small integer")
	}
	payload := uint64(v) & payloadMask

	// Sign extend from 48 bits to 64 bits
	if (payload & intSignBit) != 0 {
		payload |= intSignExtend
	}
	return int64(payload)
}

// FromSmallInt creates a Value from an int64.
// Panics if n is outside the SmallInt range.
func FromSmallInt(n int64) Value {
	if n > MaxSmallInt || n < MinSmallInt {
		panic("FromSmallInt: value out of range")
	}
	return Value(nanBits | tagInt | (uint64(n) & payloadMask))
}

// TryFromSmallInt creates a Value from an int64, returning false if out of range.
func TryFromSmallInt(n int64) (Value, bool) {
	if n > MaxSmallInt || n < MinSmallInt {
		return Nil, false
	}
	return Value(nanBits | tagInt | (uint64(n) & payloadMask)), true
}

// ---------------------------------------------------------------------------
// Boolean operations
// ---------------------------------------------------------------------------

// Bool returns v as a bool.
// Panics if v is not true or false.
func (v Value) Bool() bool {
	switch v {
	case True:
		return true
	case False:
		return false
	default:
		panic("Value.Bool: not a boolean")
	}
}

// FromBool creates a Value from a bool.
func FromBool(b bool) Value {
	if b {
		return True
	}
	return False
}

// IsTruthy returns true if v is considered "truthy" in conditionals.
// Only false and nil are falsy; everything else is truthy.
func (v Value) IsTruthy() bool {
	return v != False && v != Nil
}
