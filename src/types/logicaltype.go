// Package types implements the engine's logical/physical type system and its
// tagged Value container (spec-speak: the Type & Value layer). Every Vector
// and Value carries one of these LogicalTypes; PhysicalType describes how the
// logical type is actually stored.
package types

import "fmt"

// ID is the tag of a LogicalType.
type ID uint8

const (
	Invalid ID = iota
	Null
	Boolean
	TinyInt
	SmallInt
	Integer
	BigInt
	HugeInt
	Float
	Double
	Decimal
	Varchar
	Char
	Date
	Time
	Timestamp
	Interval
	UUID
	JSON
	Blob
	List
	Struct
	Map
	Union
	Enum
	idMax
)

var idNames = [...]string{
	"invalid", "null", "boolean", "tinyint", "smallint", "integer", "bigint",
	"hugeint", "float", "double", "decimal", "varchar", "char", "date", "time",
	"timestamp", "interval", "uuid", "json", "blob", "list", "struct", "map",
	"union", "enum",
}

func (id ID) String() string {
	if int(id) >= len(idNames) {
		return "unknown"
	}
	return idNames[id]
}

// StructField names one member of a Struct LogicalType; order is significant.
type StructField struct {
	Name string
	Type LogicalType
}

// LogicalType is the tagged sum described in spec.md §3.1. Most scalar types
// only set ID; Decimal additionally sets Precision/Scale, Char sets Width,
// and the nested kinds (List/Struct/Map/Union/Enum) set the matching field.
type LogicalType struct {
	ID ID

	// Decimal
	Precision uint8
	Scale     uint8

	// Char
	Width int

	// List
	Element *LogicalType

	// Struct
	Fields []StructField

	// Map
	Key   *LogicalType
	Value *LogicalType

	// Union
	Variants []LogicalType

	// Enum
	EnumValues []string
}

func NewDecimal(precision, scale uint8) (LogicalType, error) {
	if precision == 0 || precision > 38 {
		return LogicalType{}, fmt.Errorf("decimal precision must be in [1, 38], got %d", precision)
	}
	if scale > precision {
		return LogicalType{}, fmt.Errorf("decimal scale (%d) cannot exceed precision (%d)", scale, precision)
	}
	return LogicalType{ID: Decimal, Precision: precision, Scale: scale}, nil
}

func NewChar(width int) LogicalType  { return LogicalType{ID: Char, Width: width} }
func NewList(el LogicalType) LogicalType {
	return LogicalType{ID: List, Element: &el}
}
func NewStruct(fields ...StructField) LogicalType {
	return LogicalType{ID: Struct, Fields: fields}
}
func NewMap(key, val LogicalType) LogicalType {
	return LogicalType{ID: Map, Key: &key, Value: &val}
}
func NewUnion(variants ...LogicalType) LogicalType {
	return LogicalType{ID: Union, Variants: variants}
}
func NewEnum(values ...string) LogicalType {
	return LogicalType{ID: Enum, EnumValues: values}
}

// Simple types are pre-built so call sites can write types.TInteger etc.
// without constructing a LogicalType by hand.
var (
	TNull      = LogicalType{ID: Null}
	TBoolean   = LogicalType{ID: Boolean}
	TTinyInt   = LogicalType{ID: TinyInt}
	TSmallInt  = LogicalType{ID: SmallInt}
	TInteger   = LogicalType{ID: Integer}
	TBigInt    = LogicalType{ID: BigInt}
	THugeInt   = LogicalType{ID: HugeInt}
	TFloat     = LogicalType{ID: Float}
	TDouble    = LogicalType{ID: Double}
	TVarchar   = LogicalType{ID: Varchar}
	TDate      = LogicalType{ID: Date}
	TTime      = LogicalType{ID: Time}
	TTimestamp = LogicalType{ID: Timestamp}
	TInterval  = LogicalType{ID: Interval}
	TUUID      = LogicalType{ID: UUID}
	TJSON      = LogicalType{ID: JSON}
	TBlob      = LogicalType{ID: Blob}
)

func (lt LogicalType) String() string {
	switch lt.ID {
	case Decimal:
		return fmt.Sprintf("decimal(%d,%d)", lt.Precision, lt.Scale)
	case Char:
		return fmt.Sprintf("char(%d)", lt.Width)
	case List:
		return fmt.Sprintf("list(%s)", lt.Element)
	case Struct:
		return fmt.Sprintf("struct%v", lt.Fields)
	case Map:
		return fmt.Sprintf("map(%s,%s)", lt.Key, lt.Value)
	case Union:
		return fmt.Sprintf("union%v", lt.Variants)
	case Enum:
		return fmt.Sprintf("enum%v", lt.EnumValues)
	default:
		return lt.ID.String()
	}
}

// Equal reports whether two logical types are identical, including nested shape.
func (lt LogicalType) Equal(other LogicalType) bool {
	if lt.ID != other.ID {
		return false
	}
	switch lt.ID {
	case Decimal:
		return lt.Precision == other.Precision && lt.Scale == other.Scale
	case Char:
		return lt.Width == other.Width
	case List:
		return lt.Element.Equal(*other.Element)
	case Struct:
		if len(lt.Fields) != len(other.Fields) {
			return false
		}
		for j := range lt.Fields {
			if lt.Fields[j].Name != other.Fields[j].Name || !lt.Fields[j].Type.Equal(other.Fields[j].Type) {
				return false
			}
		}
		return true
	case Map:
		return lt.Key.Equal(*other.Key) && lt.Value.Equal(*other.Value)
	case Union:
		if len(lt.Variants) != len(other.Variants) {
			return false
		}
		for j := range lt.Variants {
			if !lt.Variants[j].Equal(other.Variants[j]) {
				return false
			}
		}
		return true
	case Enum:
		if len(lt.EnumValues) != len(other.EnumValues) {
			return false
		}
		for j := range lt.EnumValues {
			if lt.EnumValues[j] != other.EnumValues[j] {
				return false
			}
		}
		return true
	default:
		return true
	}
}

// IsNested reports whether a value of this type can recurse (List/Struct/Map/Union).
func (lt LogicalType) IsNested() bool {
	switch lt.ID {
	case List, Struct, Map, Union:
		return true
	default:
		return false
	}
}

func (lt LogicalType) IsNumeric() bool {
	switch lt.ID {
	case TinyInt, SmallInt, Integer, BigInt, HugeInt, Float, Double, Decimal:
		return true
	default:
		return false
	}
}

func (lt LogicalType) IsInteger() bool {
	switch lt.ID {
	case TinyInt, SmallInt, Integer, BigInt, HugeInt:
		return true
	default:
		return false
	}
}

// PhysicalType describes how a LogicalType is actually stored in a Vector.
type PhysicalType uint8

const (
	PInvalid PhysicalType = iota
	PBool
	PInt8
	PInt16
	PInt32
	PInt64
	PInt128
	PFloat32
	PFloat64
	PVarlen // length/offset addressed byte payload: Varchar, Char, JSON, Blob, UUID(text)
	PList
	PStruct
	PNull
)

// Physical maps a LogicalType to its storage width/kind (spec.md §3.1).
func (lt LogicalType) Physical() PhysicalType {
	switch lt.ID {
	case Null:
		return PNull
	case Boolean:
		return PBool
	case TinyInt:
		return PInt8
	case SmallInt:
		return PInt16
	case Integer, Date, Enum:
		return PInt32
	case BigInt, Time, Timestamp:
		return PInt64
	case HugeInt, Decimal, Interval:
		return PInt128
	case Float:
		return PFloat32
	case Double:
		return PFloat64
	case Varchar, Char, UUID, JSON, Blob:
		return PVarlen
	case List, Map:
		return PList
	case Struct, Union:
		return PStruct
	default:
		return PInvalid
	}
}

// Width returns the fixed byte width of a physical type, or -1 for variable-width storage.
func (pt PhysicalType) Width() int {
	switch pt {
	case PBool, PInt8:
		return 1
	case PInt16:
		return 2
	case PInt32, PFloat32:
		return 4
	case PInt64, PFloat64:
		return 8
	case PInt128:
		return 16
	default:
		return -1
	}
}
