// Package types models Luminar's structural type system: a small set of
// primitive tags plus composite shapes (List, Dict, Function, Sum, Union,
// UserDefined) used by the parser's type annotations and by the type
// checker to validate values at runtime.
package types

import "fmt"

// Tag identifies a value's top-level type classification.
type Tag int

const (
	Nil Tag = iota
	Bool
	Int
	Int8
	Int16
	Int32
	Int64
	UInt
	UInt8
	UInt16
	UInt32
	UInt64
	Float32
	Float64
	String
	List
	Dict
	Enum
	Function
	Any
	Sum
	Union
	UserDefined
)

var tagNames = map[Tag]string{
	Nil: "Nil", Bool: "Bool", Int: "Int", Int8: "Int8", Int16: "Int16",
	Int32: "Int32", Int64: "Int64", UInt: "UInt", UInt8: "UInt8",
	UInt16: "UInt16", UInt32: "UInt32", UInt64: "UInt64",
	Float32: "Float32", Float64: "Float64", String: "String", List: "List",
	Dict: "Dict", Enum: "Enum", Function: "Function", Any: "Any",
	Sum: "Sum", Union: "Union", UserDefined: "UserDefined",
}

func (t Tag) String() string {
	if name, ok := tagNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Tag(%d)", int(t))
}

// nameToTag resolves a type annotation lexeme (as written by the user,
// e.g. "int", "string", "float") to its Tag. Unrecognized names resolve to
// UserDefined, covering class names used as type annotations.
var nameToTag = map[string]Tag{
	"nil": Nil, "bool": Bool, "int": Int, "int8": Int8, "int16": Int16,
	"int32": Int32, "int64": Int64, "uint": UInt, "uint8": UInt8,
	"uint16": UInt16, "uint32": UInt32, "uint64": UInt64,
	"float32": Float32, "float64": Float64, "float": Float64,
	"string": String, "list": List, "dict": Dict, "any": Any,
	"i8": Int8, "i16": Int16, "i32": Int32, "i64": Int64,
	"u8": UInt8, "u16": UInt16, "u32": UInt32, "u64": UInt64,
	"f32": Float32, "f64": Float64, "str": String, "array": List,
}

// List describes the element type of a List-tagged Type.
type ListShape struct {
	Element *Type
}

// Dict describes the key and value types of a Dict-tagged Type.
type DictShape struct {
	Key   *Type
	Value *Type
}

// EnumShape describes the allowed member names of an Enum-tagged Type.
type EnumShape struct {
	Values []string
}

// FunctionShape describes the parameter and return types of a
// Function-tagged Type.
type FunctionShape struct {
	Params []*Type
	Return *Type
}

// SumShape lists the possible variant types of a Sum-tagged Type (a
// discriminated union, where the active variant is tracked alongside the
// value).
type SumShape struct {
	Variants []*Type
}

// UnionShape lists the possible types of a Union-tagged Type (the value's
// concrete type is one of Types, with no discriminant tracked).
type UnionShape struct {
	Types []*Type
}

// UserDefinedShape describes a named class type and its declared fields.
type UserDefinedShape struct {
	Name   string
	Fields map[string]*Type
}

// Type is a structural description of a Luminar value's shape. Only the
// shape field matching Tag is populated; the rest are nil.
type Type struct {
	Tag Tag

	List        *ListShape
	Dict        *DictShape
	Enum        *EnumShape
	Function    *FunctionShape
	Sum         *SumShape
	Union       *UnionShape
	UserDefined *UserDefinedShape
}

func Simple(tag Tag) *Type { return &Type{Tag: tag} }

func NewList(element *Type) *Type { return &Type{Tag: List, List: &ListShape{Element: element}} }

func NewDict(key, value *Type) *Type {
	return &Type{Tag: Dict, Dict: &DictShape{Key: key, Value: value}}
}

func NewFunction(params []*Type, ret *Type) *Type {
	return &Type{Tag: Function, Function: &FunctionShape{Params: params, Return: ret}}
}

func NewUserDefined(name string, fields map[string]*Type) *Type {
	return &Type{Tag: UserDefined, UserDefined: &UserDefinedShape{Name: name, Fields: fields}}
}

func (t *Type) String() string {
	switch t.Tag {
	case List:
		return fmt.Sprintf("List[%s]", t.List.Element)
	case Dict:
		return fmt.Sprintf("Dict[%s, %s]", t.Dict.Key, t.Dict.Value)
	case UserDefined:
		return t.UserDefined.Name
	default:
		return t.Tag.String()
	}
}

// FromAnnotation resolves a parsed type-annotation lexeme (e.g. the string
// after the ":" in "x: int") to a Type. An empty annotation resolves to Any.
func FromAnnotation(name string) *Type {
	if name == "" {
		return Simple(Any)
	}
	if tag, ok := nameToTag[name]; ok {
		return Simple(tag)
	}
	return NewUserDefined(name, nil)
}

var numericTags = map[Tag]bool{
	Int: true, Int8: true, Int16: true, Int32: true, Int64: true,
	UInt: true, UInt8: true, UInt16: true, UInt32: true, UInt64: true,
	Float32: true, Float64: true,
}

// IsNumeric reports whether tag is one of the integer or floating-point tags.
func IsNumeric(tag Tag) bool { return numericTags[tag] }

// CanConvert reports whether a value of type from may be implicitly used
// where a value of type to is expected: types with the same tag, any numeric
// tag to any other numeric tag, or any type to Any.
func CanConvert(from, to *Type) bool {
	if from == to || from.Tag == to.Tag {
		return true
	}
	if to.Tag == Any {
		return true
	}
	if IsNumeric(from.Tag) && IsNumeric(to.Tag) {
		return true
	}
	return false
}

// IsCompatible is an alias for CanConvert kept for readability at call
// sites that are checking assignment compatibility rather than converting.
func IsCompatible(source, target *Type) bool { return CanConvert(source, target) }

// GetCommonType finds a type that both a and b can convert to, preferring
// b. Returns an error if neither converts to the other.
func GetCommonType(a, b *Type) (*Type, error) {
	if a == b {
		return a, nil
	}
	if CanConvert(a, b) {
		return b, nil
	}
	if CanConvert(b, a) {
		return a, nil
	}
	return nil, fmt.Errorf("incompatible types: %s and %s", a, b)
}

// CheckType reports whether a runtime value matches expectedType's shape.
// value may be any of Go's native representations of a Luminar value
// (int64, float64, string, bool, nil, []any, map[any]any).
func CheckType(value any, expectedType *Type) bool {
	switch expectedType.Tag {
	case Any:
		return true
	case Nil:
		return value == nil
	case Bool:
		_, ok := value.(bool)
		return ok
	case Int, Int8, Int16, Int32, Int64, UInt, UInt8, UInt16, UInt32, UInt64:
		_, ok := value.(int64)
		return ok
	case Float32, Float64:
		_, ok := value.(float64)
		return ok
	case String:
		_, ok := value.(string)
		return ok
	case List:
		elements, ok := value.([]any)
		if !ok {
			return false
		}
		for _, element := range elements {
			if !CheckType(element, expectedType.List.Element) {
				return false
			}
		}
		return true
	case Dict:
		entries, ok := value.(map[any]any)
		if !ok {
			return false
		}
		for key, val := range entries {
			if !CheckType(key, expectedType.Dict.Key) || !CheckType(val, expectedType.Dict.Value) {
				return false
			}
		}
		return true
	case Union:
		for _, candidate := range expectedType.Union.Types {
			if CheckType(value, candidate) {
				return true
			}
		}
		return false
	case Function:
		return true
	default:
		return false
	}
}
