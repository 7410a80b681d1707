package types

import "fmt"

// Value is a single scalar, tagged by Type. IsNull distinguishes SQL NULL
// from a zero value of the underlying type - per spec.md §3.2, NULL carries
// no type information of its own and compares unequal to everything,
// including another NULL, under normal equality (use IsNull to test it).
type Value struct {
	Type   LogicalType
	IsNull bool

	b        bool
	i64      int64 // also Interval.Months
	ivDays   int32
	ivMicros int64
	dec      Decimal128
	f64      float64
	s        string // Varchar/Char/JSON/UUID(text form)/Blob(raw bytes as string)
	list     []Value
	strct    []Value // parallel to Type.Fields, by position
	unionAt  int     // index into Type.Variants
}

func NewNull(t LogicalType) Value { return Value{Type: t, IsNull: true} }

func NewBool(v bool) Value { return Value{Type: TBoolean, b: v} }

func NewTinyInt(v int8) Value  { return Value{Type: TTinyInt, i64: int64(v)} }
func NewSmallInt(v int16) Value { return Value{Type: TSmallInt, i64: int64(v)} }
func NewInteger(v int32) Value  { return Value{Type: TInteger, i64: int64(v)} }
func NewBigInt(v int64) Value   { return Value{Type: TBigInt, i64: v} }

func NewHugeInt(d Decimal128) Value {
	d.Scale = 0
	return Value{Type: THugeInt, dec: d}
}

func NewFloat(v float32) Value { return Value{Type: TFloat, f64: float64(v)} }
func NewDouble(v float64) Value { return Value{Type: TDouble, f64: v} }

func NewDecimalValue(d Decimal128) Value {
	lt, _ := NewDecimal(d.Precision, d.Scale)
	return Value{Type: lt, dec: d}
}

func NewVarchar(s string) Value { return Value{Type: TVarchar, s: s} }
func NewCharValue(width int, s string) Value { return Value{Type: NewChar(width), s: s} }
func NewJSONValue(s string) Value { return Value{Type: TJSON, s: s} }
func NewBlob(b []byte) Value      { return Value{Type: TBlob, s: string(b)} }
func NewUUIDValue(s string) Value { return Value{Type: TUUID, s: s} }

func NewDateValue(d Date) Value           { return Value{Type: TDate, i64: int64(d)} }
func NewTimeValue(t Time) Value           { return Value{Type: TTime, i64: int64(t)} }
func NewTimestampValue(ts Timestamp) Value { return Value{Type: TTimestamp, i64: int64(ts)} }

func NewIntervalValue(iv Interval) Value {
	return Value{Type: TInterval, i64: int64(iv.Months), ivDays: iv.Days, ivMicros: iv.Micros}
}

func (v Value) AsInterval() Interval {
	return Interval{Months: int32(v.i64), Days: v.ivDays, Micros: v.ivMicros}
}

func NewListValue(el LogicalType, items []Value) Value {
	lt := NewList(el)
	return Value{Type: lt, list: items}
}

func NewStructValue(lt LogicalType, fields []Value) Value {
	return Value{Type: lt, strct: fields}
}

func NewUnionValue(lt LogicalType, variant int, inner Value) Value {
	return Value{Type: lt, unionAt: variant, list: []Value{inner}}
}

func NewEnumValue(lt LogicalType, index int) Value {
	return Value{Type: lt, i64: int64(index)}
}

func (v Value) Bool() bool            { return v.b }
func (v Value) Int64() int64          { return v.i64 }
func (v Value) Float64() float64      { return v.f64 }
func (v Value) Decimal() Decimal128   { return v.dec }
func (v Value) Text() string          { return v.s }
func (v Value) List() []Value         { return v.list }
func (v Value) StructFields() []Value { return v.strct }
func (v Value) UnionTag() int         { return v.unionAt }
func (v Value) EnumIndex() int        { return int(v.i64) }

func (v Value) Date() Date           { return Date(v.i64) }
func (v Value) Time() Time           { return Time(v.i64) }
func (v Value) Timestamp() Timestamp { return Timestamp(v.i64) }

// Equal implements value equality, returning false whenever either side is
// NULL - NULL never compares equal to anything under normal (non-grouping)
// semantics, matching spec.md §3.2's "NULL carries no type" rule.
func (v Value) Equal(other Value) bool {
	if v.IsNull || other.IsNull {
		return false
	}
	if !v.Type.Equal(other.Type) && !(v.Type.ID == Decimal && other.Type.ID == Decimal) {
		return false
	}
	switch v.Type.ID {
	case Boolean:
		return v.b == other.b
	case TinyInt, SmallInt, Integer, BigInt, Date, Time, Timestamp, Enum:
		return v.i64 == other.i64
	case Interval:
		return v.i64 == other.i64 && v.ivDays == other.ivDays && v.ivMicros == other.ivMicros
	case HugeInt, Decimal:
		return CompareDecimal128(v.dec, other.dec) == 0
	case Float, Double:
		return v.f64 == other.f64
	case Varchar, Char, UUID, JSON, Blob:
		return v.s == other.s
	case List:
		if len(v.list) != len(other.list) {
			return false
		}
		for j := range v.list {
			if !v.list[j].Equal(other.list[j]) {
				return false
			}
		}
		return true
	case Struct:
		if len(v.strct) != len(other.strct) {
			return false
		}
		for j := range v.strct {
			if !v.strct[j].Equal(other.strct[j]) {
				return false
			}
		}
		return true
	case Union:
		return v.unionAt == other.unionAt && len(v.list) == 1 && len(other.list) == 1 && v.list[0].Equal(other.list[0])
	default:
		return false
	}
}

func (v Value) String() string {
	if v.IsNull {
		return "NULL"
	}
	switch v.Type.ID {
	case Boolean:
		return fmt.Sprintf("%t", v.b)
	case TinyInt, SmallInt, Integer, BigInt:
		return fmt.Sprintf("%d", v.i64)
	case HugeInt, Decimal:
		return v.dec.String()
	case Float, Double:
		return fmt.Sprintf("%g", v.f64)
	case Varchar, Char, UUID, JSON, Blob:
		return v.s
	case Enum:
		if idx := int(v.i64); idx >= 0 && idx < len(v.Type.EnumValues) {
			return v.Type.EnumValues[idx]
		}
		return fmt.Sprintf("%d", v.i64)
	case Date:
		return v.Date().String()
	case Time:
		return v.Time().String()
	case Timestamp:
		return v.Timestamp().String()
	case Interval:
		iv := v.AsInterval()
		return fmt.Sprintf("%d months %d days %d us", iv.Months, iv.Days, iv.Micros)
	case List:
		return fmt.Sprintf("%v", v.list)
	case Struct:
		return fmt.Sprintf("%v", v.strct)
	default:
		return "<value>"
	}
}
