package generator

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Kind is the scalar kind carried by a Value.
type Kind uint8

// Value kinds.
const (
	KindNull Kind = iota
	KindInt
	KindFloat
	KindDecimal
	KindBigInt
	KindString
	KindBool
	KindTime
	KindBytes
	KindUUID
	KindRow
)

var kindNames = [...]string{
	KindNull:    "null",
	KindInt:     "int",
	KindFloat:   "float",
	KindDecimal: "decimal",
	KindBigInt:  "bigint",
	KindString:  "string",
	KindBool:    "bool",
	KindTime:    "time",
	KindBytes:   "bytes",
	KindUUID:    "uuid",
	KindRow:     "row",
}

// String returns the kind name.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// ParseKind returns the kind with the given name.
func ParseKind(name string) (Kind, bool) {
	for k, n := range kindNames {
		if n == name {
			return Kind(k), true
		}
	}
	return KindNull, false
}

// Value is the single value type produced by every generator. The zero
// Value is Null, which is a result and not an error: it means "no value
// for this entity" (a no-owner block, an empty collection, an exhausted
// source).
type Value struct {
	kind Kind
	i    int64
	f    float64
	s    string
	x    any // decimal.Decimal, *big.Int, time.Time, []byte, uuid.UUID, []any
}

// Null returns the null value.
func Null() Value { return Value{} }

// Int returns an integer value.
func Int(i int64) Value { return Value{kind: KindInt, i: i} }

// Float returns a floating point value.
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }

// Decimal returns an arbitrary precision decimal value.
func Decimal(d decimal.Decimal) Value { return Value{kind: KindDecimal, x: d} }

// BigInt returns an arbitrary precision integer value. A nil b is Null.
func BigInt(b *big.Int) Value {
	if b == nil {
		return Null()
	}
	return Value{kind: KindBigInt, x: new(big.Int).Set(b)}
}

// String returns a string value.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Bool returns a boolean value.
func Bool(b bool) Value {
	v := Value{kind: KindBool}
	if b {
		v.i = 1
	}
	return v
}

// Time returns a time value.
func Time(t time.Time) Value { return Value{kind: KindTime, x: t} }

// Bytes returns a byte slice value. A nil slice is Null.
func Bytes(b []byte) Value {
	if b == nil {
		return Null()
	}
	return Value{kind: KindBytes, x: b}
}

// UUID returns a UUID value.
func UUID(u uuid.UUID) Value { return Value{kind: KindUUID, x: u} }

// Row returns a row value. A nil row is Null.
func Row(row []any) Value {
	if row == nil {
		return Null()
	}
	return Value{kind: KindRow, x: row}
}

// ValueOf wraps a Go value as scanned from a database or decoded from a
// plan file.
func ValueOf(v any) Value {
	switch v := v.(type) {
	case nil:
		return Null()
	case Value:
		return v
	case int:
		return Int(int64(v))
	case int32:
		return Int(int64(v))
	case int64:
		return Int(v)
	case uint32:
		return Int(int64(v))
	case float32:
		return Float(float64(v))
	case float64:
		return Float(v)
	case bool:
		return Bool(v)
	case string:
		return String(v)
	case []byte:
		return Bytes(v)
	case time.Time:
		return Time(v)
	case decimal.Decimal:
		return Decimal(v)
	case *big.Int:
		return BigInt(v)
	case uuid.UUID:
		return UUID(v)
	case []any:
		return Row(v)
	default:
		return String(fmt.Sprint(v))
	}
}

// Kind returns the kind of the value.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is the null value.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Any returns the value as a plain Go value suitable for database
// arguments. Null is nil and big integers are rendered as decimal text.
func (v Value) Any() any {
	switch v.kind {
	case KindNull:
		return nil
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindString:
		return v.s
	case KindBool:
		return v.i == 1
	case KindBigInt:
		return v.x.(*big.Int).String()
	default:
		return v.x
	}
}

// String implements fmt.Stringer. Null prints as "NULL".
func (v Value) String() string {
	if v.kind == KindNull {
		return "NULL"
	}
	if v.kind == KindRow {
		return fmt.Sprint(v.x)
	}
	s, _ := v.Text()
	return s
}

// Int64 returns the value converted to an integer.
func (v Value) Int64() (int64, bool) {
	c, err := Convert(v, KindInt)
	if err != nil || c.IsNull() {
		return 0, false
	}
	return c.i, true
}

// Float64 returns the value converted to a float.
func (v Value) Float64() (float64, bool) {
	c, err := Convert(v, KindFloat)
	if err != nil || c.IsNull() {
		return 0, false
	}
	return c.f, true
}

// Text returns the value converted to a string.
func (v Value) Text() (string, bool) {
	c, err := Convert(v, KindString)
	if err != nil || c.IsNull() {
		return "", false
	}
	return c.s, true
}

// Decimal returns the value converted to a decimal.
func (v Value) Decimal() (decimal.Decimal, bool) {
	c, err := Convert(v, KindDecimal)
	if err != nil || c.IsNull() {
		return decimal.Decimal{}, false
	}
	return c.x.(decimal.Decimal), true
}

// BigInt returns the value converted to a big integer.
func (v Value) BigInt() (*big.Int, bool) {
	c, err := Convert(v, KindBigInt)
	if err != nil || c.IsNull() {
		return nil, false
	}
	return c.x.(*big.Int), true
}

// Time returns the value converted to a time. Integers are read as Unix seconds.
func (v Value) Time() (time.Time, bool) {
	c, err := Convert(v, KindTime)
	if err != nil || c.IsNull() {
		return time.Time{}, false
	}
	return c.x.(time.Time), true
}

// UUID returns the value converted to a UUID.
func (v Value) UUID() (uuid.UUID, bool) {
	c, err := Convert(v, KindUUID)
	if err != nil || c.IsNull() {
		return uuid.Nil, false
	}
	return c.x.(uuid.UUID), true
}

// Row returns the row of a KindRow value, or nil.
func (v Value) Row() []any {
	if v.kind != KindRow {
		return nil
	}
	return v.x.([]any)
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNull:
		return []byte("null"), nil
	case KindInt:
		return strconv.AppendInt(nil, v.i, 10), nil
	case KindBigInt:
		return []byte(v.x.(*big.Int).String()), nil
	case KindTime:
		return json.Marshal(v.x.(time.Time).Format(time.RFC3339Nano))
	case KindUUID:
		return json.Marshal(v.x.(uuid.UUID).String())
	default:
		return json.Marshal(v.Any())
	}
}

// Convert returns v reinterpreted as kind k. Null converts to Null for
// every kind; an unsupported conversion returns an error.
func Convert(v Value, k Kind) (Value, error) {
	if v.kind == k || v.kind == KindNull {
		return v, nil
	}
	switch k {
	case KindInt:
		return toInt(v)
	case KindFloat:
		return toFloat(v)
	case KindDecimal:
		return toDecimal(v)
	case KindBigInt:
		return toBigInt(v)
	case KindString:
		return toString(v)
	case KindBool:
		return toBool(v)
	case KindTime:
		return toTime(v)
	case KindBytes:
		s, err := toString(v)
		if err != nil {
			return Null(), err
		}
		return Bytes([]byte(s.s)), nil
	case KindUUID:
		return toUUID(v)
	case KindNull:
		return Null(), nil
	}
	return Null(), unsupported(v, k)
}

func unsupported(v Value, k Kind) error {
	return fmt.Errorf("generator: cannot convert %s value to %s", v.kind, k)
}

// finite rejects NaN and infinities, which have no integer or decimal
// form.
func finite(v Value, k Kind) error {
	if math.IsNaN(v.f) || math.IsInf(v.f, 0) {
		return fmt.Errorf("generator: cannot convert %s value %v to %s", v.kind, v.f, k)
	}
	return nil
}

func toInt(v Value) (Value, error) {
	switch v.kind {
	case KindFloat:
		if err := finite(v, KindInt); err != nil {
			return Null(), err
		}
		// -2^63 is exact in float64; 2^63 is the first value out of range.
		if v.f < math.MinInt64 || v.f >= -math.MinInt64 {
			return Null(), fmt.Errorf("generator: %v overflows int64", v.f)
		}
		return Int(int64(v.f)), nil
	case KindBool:
		return Int(v.i), nil
	case KindDecimal:
		return Int(v.x.(decimal.Decimal).IntPart()), nil
	case KindBigInt:
		b := v.x.(*big.Int)
		if !b.IsInt64() {
			return Null(), fmt.Errorf("generator: %s overflows int64", b)
		}
		return Int(b.Int64()), nil
	case KindString:
		i, err := strconv.ParseInt(v.s, 10, 64)
		if err != nil {
			return Null(), err
		}
		return Int(i), nil
	case KindTime:
		return Int(v.x.(time.Time).Unix()), nil
	}
	return Null(), unsupported(v, KindInt)
}

func toFloat(v Value) (Value, error) {
	switch v.kind {
	case KindInt, KindBool:
		return Float(float64(v.i)), nil
	case KindDecimal:
		return Float(v.x.(decimal.Decimal).InexactFloat64()), nil
	case KindBigInt:
		f, _ := new(big.Float).SetInt(v.x.(*big.Int)).Float64()
		return Float(f), nil
	case KindString:
		f, err := strconv.ParseFloat(v.s, 64)
		if err != nil {
			return Null(), err
		}
		return Float(f), nil
	}
	return Null(), unsupported(v, KindFloat)
}

func toDecimal(v Value) (Value, error) {
	switch v.kind {
	case KindInt:
		return Decimal(decimal.NewFromInt(v.i)), nil
	case KindFloat:
		if err := finite(v, KindDecimal); err != nil {
			return Null(), err
		}
		return Decimal(decimal.NewFromFloat(v.f)), nil
	case KindBigInt:
		return Decimal(decimal.NewFromBigInt(v.x.(*big.Int), 0)), nil
	case KindString:
		d, err := decimal.NewFromString(v.s)
		if err != nil {
			return Null(), err
		}
		return Decimal(d), nil
	}
	return Null(), unsupported(v, KindDecimal)
}

func toBigInt(v Value) (Value, error) {
	switch v.kind {
	case KindInt:
		return BigInt(big.NewInt(v.i)), nil
	case KindFloat:
		if err := finite(v, KindBigInt); err != nil {
			return Null(), err
		}
		b, _ := big.NewFloat(v.f).Int(nil)
		return BigInt(b), nil
	case KindDecimal:
		return BigInt(v.x.(decimal.Decimal).BigInt()), nil
	case KindString:
		b, ok := new(big.Int).SetString(v.s, 10)
		if !ok {
			return Null(), fmt.Errorf("generator: invalid integer %q", v.s)
		}
		return BigInt(b), nil
	}
	return Null(), unsupported(v, KindBigInt)
}

func toString(v Value) (Value, error) {
	switch v.kind {
	case KindInt:
		return String(strconv.FormatInt(v.i, 10)), nil
	case KindFloat:
		return String(strconv.FormatFloat(v.f, 'f', -1, 64)), nil
	case KindDecimal:
		return String(v.x.(decimal.Decimal).String()), nil
	case KindBigInt:
		return String(v.x.(*big.Int).String()), nil
	case KindBool:
		return String(strconv.FormatBool(v.i == 1)), nil
	case KindTime:
		return String(v.x.(time.Time).Format(time.RFC3339Nano)), nil
	case KindBytes:
		return String(string(v.x.([]byte))), nil
	case KindUUID:
		return String(v.x.(uuid.UUID).String()), nil
	case KindRow:
		b, err := json.Marshal(v.x)
		if err != nil {
			return Null(), err
		}
		return String(string(b)), nil
	}
	return Null(), unsupported(v, KindString)
}

func toBool(v Value) (Value, error) {
	switch v.kind {
	case KindInt:
		return Bool(v.i != 0), nil
	case KindString:
		b, err := strconv.ParseBool(v.s)
		if err != nil {
			return Null(), err
		}
		return Bool(b), nil
	}
	return Null(), unsupported(v, KindBool)
}

func toTime(v Value) (Value, error) {
	switch v.kind {
	case KindInt:
		return Time(time.Unix(v.i, 0).UTC()), nil
	case KindString:
		t, err := time.Parse(time.RFC3339Nano, v.s)
		if err != nil {
			return Null(), err
		}
		return Time(t), nil
	}
	return Null(), unsupported(v, KindTime)
}

func toUUID(v Value) (Value, error) {
	switch v.kind {
	case KindString:
		u, err := uuid.Parse(v.s)
		if err != nil {
			return Null(), err
		}
		return UUID(u), nil
	case KindBytes:
		u, err := uuid.FromBytes(v.x.([]byte))
		if err != nil {
			return Null(), err
		}
		return UUID(u), nil
	}
	return Null(), unsupported(v, KindUUID)
}
