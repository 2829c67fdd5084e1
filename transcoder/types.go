package transcoder

import (
	"reflect"

	"github.com/wippyai/js-runtime/runtime"
)

// TypeKind selects how a Go type is encoded and decoded.
type TypeKind uint8

const (
	KindValue TypeKind = iota // runtime.Value, handles, ToValuer/FromValuer
	KindBool
	KindInt
	KindUint
	KindFloat
	KindString
	KindBytes
	KindStruct
	KindMap
	KindSlice
	KindArray
	KindPointer
	KindInterface
	KindVariant
)

var kindNames = [...]string{
	KindValue:     "value",
	KindBool:      "bool",
	KindInt:       "int",
	KindUint:      "uint",
	KindFloat:     "float",
	KindString:    "string",
	KindBytes:     "bytes",
	KindStruct:    "struct",
	KindMap:       "map",
	KindSlice:     "slice",
	KindArray:     "array",
	KindPointer:   "pointer",
	KindInterface: "interface",
	KindVariant:   "variant",
}

func (k TypeKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// CompiledType is the cached conversion plan for one Go type.
type CompiledType struct {
	GoType reflect.Type
	Kind   TypeKind
	Fields []CompiledField // KindStruct
	Elem   *CompiledType   // KindSlice, KindArray, KindPointer, KindMap values
	Key    *CompiledType   // KindMap keys
}

// CompiledField is one encoded struct field.
type CompiledField struct {
	Name      string
	GoName    string
	Index     []int
	OmitEmpty bool
	Type      *CompiledType
}

// retains reports whether decoding into the type keeps the source value
// itself, so the caller must not drop it.
func (ct *CompiledType) retains() bool {
	for ct.Kind == KindPointer {
		ct = ct.Elem
	}
	return ct.Kind == KindValue
}

// Variant is an enum value. A variant without a payload is represented in
// script as its name; one with a payload as a single-key object mapping the
// name to the payload.
type Variant struct {
	Name  string
	Value runtime.Value
}

var (
	valueType      = reflect.TypeOf(runtime.Value{})
	variantType    = reflect.TypeOf(Variant{})
	toValuerType   = reflect.TypeOf((*runtime.ToValuer)(nil)).Elem()
	fromValuerType = reflect.TypeOf((*runtime.FromValuer)(nil)).Elem()
	handleTypes    = map[reflect.Type]bool{
		reflect.TypeOf(runtime.Object{}):   true,
		reflect.TypeOf(runtime.Function{}): true,
		reflect.TypeOf(runtime.Array{}):    true,
		reflect.TypeOf(runtime.String{}):   true,
		reflect.TypeOf(runtime.Bytes{}):    true,
	}
)
